package controller

import (
	"context"
	"errors"
	"fmt"
	"strings"

	e "precisionpulse/errors"
	"precisionpulse/models"
	"precisionpulse/policy"
	"precisionpulse/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 5

type NewUserInput struct {
	Email    string          `json:"email"`
	FullName string          `json:"full_name"`
	Password string          `json:"password"`
	Role     models.Role     `json:"access_role"`
	Building models.Building `json:"building"`
	Shift    models.Shift    `json:"shift"`
}

// UserUpdate changes a profile. A non-empty Password resets it and forces a
// change on next login.
type UserUpdate struct {
	FullName string          `json:"full_name"`
	Role     models.Role     `json:"access_role"`
	Building models.Building `json:"building"`
	Shift    models.Shift    `json:"shift"`
	Password string          `json:"password,omitempty"`
}

type UserService struct {
	users  *store.Users
	policy *policy.Policy
	logger *zap.Logger
}

func NewUserService(st *store.Store, pol *policy.Policy, logger *zap.Logger) *UserService {
	return &UserService{
		users:  st.Users,
		policy: pol,
		logger: logger.Named("user_service"),
	}
}

// Login checks the credentials. Unknown emails and wrong passwords both
// return ErrUnauthorized.
func (s *UserService) Login(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.users.ByEmail(ctx, email)
	if err != nil {
		if isNotFound(err) {
			return nil, e.ErrUnauthorized
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.logger.Info("login rejected", zap.String("email", user.Email))
		return nil, e.ErrUnauthorized
	}
	return user, nil
}

// Lookup resolves the user behind a session token.
func (s *UserService) Lookup(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.users.Get(ctx, id)
}

func (s *UserService) ChangePassword(ctx context.Context, user *models.User, current, next, confirm string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)); err != nil {
		return e.Validation("current_password", "current password is incorrect")
	}
	if next != confirm {
		return e.Validation("confirm_password", "passwords do not match")
	}
	hash, err := hashPassword("new_password", next)
	if err != nil {
		return err
	}
	err = s.users.Patch(ctx, user.ID, map[string]any{
		"password_hash":        hash,
		"must_change_password": false,
	})
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	user.PasswordHash = hash
	user.MustChangePassword = false
	s.logger.Info("password changed", zap.String("email", user.Email))
	return nil
}

func (s *UserService) List(ctx context.Context, actor *models.User) ([]models.User, error) {
	if !s.policy.Capabilities(actor).CanManageUsers {
		return nil, e.ErrForbidden
	}
	return s.users.All(ctx)
}

func (s *UserService) Create(ctx context.Context, actor *models.User, in NewUserInput) (*models.User, error) {
	if !s.policy.Capabilities(actor).CanManageUsers {
		return nil, e.ErrForbidden
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if err := firstErr(required("email", email), maxLen("email", email, 255)); err != nil {
		return nil, err
	}
	if !strings.Contains(email, "@") {
		return nil, e.Validation("email", "must be an email address")
	}
	role, err := validateProfile(in.Role, in.Building, in.Shift)
	if err != nil {
		return nil, err
	}
	hash, err := hashPassword("password", in.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		ID:                 uuid.New(),
		Email:              email,
		FullName:           strings.TrimSpace(in.FullName),
		PasswordHash:       hash,
		Role:               role,
		Building:           in.Building,
		Shift:              in.Shift,
		MustChangePassword: true,
	}
	if err := s.users.Insert(ctx, user); err != nil {
		if errors.Is(err, e.ErrDuplicate) {
			return nil, fmt.Errorf("%w: a user with email %s already exists", e.ErrDuplicate, email)
		}
		return nil, fmt.Errorf("failed to save user: %w", err)
	}
	s.logger.Info("user created",
		zap.String("email", email),
		zap.String("role", string(role)),
		zap.String("by", actor.Email),
	)
	return user, nil
}

// Update edits role, building, shift and name. Users are never deleted; a
// departed user is demoted instead.
func (s *UserService) Update(ctx context.Context, actor *models.User, id uuid.UUID, in UserUpdate) (*models.User, error) {
	if !s.policy.Capabilities(actor).CanManageUsers {
		return nil, e.ErrForbidden
	}
	user, err := s.users.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	role, err := validateProfile(in.Role, in.Building, in.Shift)
	if err != nil {
		return nil, err
	}
	if in.Password != "" {
		hash, err := hashPassword("password", in.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
		user.MustChangePassword = true
	}
	user.FullName = strings.TrimSpace(in.FullName)
	user.Role = role
	user.Building = in.Building
	user.Shift = in.Shift
	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to save user: %w", err)
	}
	s.logger.Info("user updated",
		zap.String("email", user.Email),
		zap.String("role", string(role)),
		zap.String("by", actor.Email),
	)
	return user, nil
}

func validateProfile(role models.Role, building models.Building, shift models.Shift) (models.Role, error) {
	parsed, ok := models.ParseRole(string(role))
	if !ok {
		return "", e.Validation("access_role", "unknown role %q", role)
	}
	if building != "" && !building.Valid() {
		return "", e.Validation("building", "unknown building %q", building)
	}
	if err := validateShift(shift, false); err != nil {
		return "", err
	}
	if (parsed == models.RoleBuildingManager || parsed == models.RoleLead) && building == "" {
		return "", e.Validation("building", "%s needs a home building", parsed)
	}
	return parsed, nil
}

func hashPassword(field, password string) (string, error) {
	if len(password) < minPasswordLength {
		return "", e.Validation(field, "password must be at least %d characters", minPasswordLength)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}
