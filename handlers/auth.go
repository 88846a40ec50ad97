package handlers

import (
	"net/http"

	"precisionpulse/config"
	"precisionpulse/controller"
	e "precisionpulse/errors"
	"precisionpulse/middleware"
	"precisionpulse/models"
	"precisionpulse/policy"

	"go.uber.org/zap"
)

type AuthHandler struct {
	config *config.Config
	users  *controller.UserService
	policy *policy.Policy
	logger *zap.Logger
}

func NewAuthHandler(cfg *config.Config, users *controller.UserService, pol *policy.Policy, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		config: cfg,
		users:  users,
		policy: pol,
		logger: logger,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	User               *models.User        `json:"user"`
	Capabilities       policy.Capabilities `json:"capabilities"`
	MustChangePassword bool                `json:"must_change_password"`
	Token              string              `json:"token,omitempty"`
}

func (h *AuthHandler) session(user *models.User, token string) sessionResponse {
	return sessionResponse{
		User:               user,
		Capabilities:       h.policy.Capabilities(user),
		MustChangePassword: user.MustChangePassword,
		Token:              token,
	}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	user, err := h.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	token, err := middleware.GenerateToken(user, h.config.JWTExpiration)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	middleware.SetTokenCookie(w, token, h.config.JWTExpiration)
	writeJSON(w, http.StatusOK, h.session(user, token))
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	middleware.ClearTokenCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.session(middleware.GetUserFromContext(r.Context()), ""))
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	var req changePasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if err := h.users.ChangePassword(r.Context(), user, req.CurrentPassword, req.NewPassword, req.ConfirmPassword); err != nil {
		writeError(w, h.logger, err)
		return
	}

	// Regenerate token with updated user info
	token, err := middleware.GenerateToken(user, h.config.JWTExpiration)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	middleware.SetTokenCookie(w, token, h.config.JWTExpiration)
	writeJSON(w, http.StatusOK, h.session(user, token))
}

func (h *AuthHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context(), middleware.GetUserFromContext(r.Context()))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *AuthHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var in controller.NewUserInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, h.logger, err)
		return
	}
	user, err := h.users.Create(r.Context(), middleware.GetUserFromContext(r.Context()), in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (h *AuthHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	var in controller.UserUpdate
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, h.logger, err)
		return
	}
	user, err := h.users.Update(r.Context(), middleware.GetUserFromContext(r.Context()), id, in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

type scopeResponse struct {
	Entity    policy.Entity `json:"entity"`
	Scope     policy.Scope  `json:"scope"`
	CanCreate bool          `json:"can_create"`
}

// Scope tells the form which building and shift it will be pinned to.
func (h *AuthHandler) Scope(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	values := r.URL.Query()
	entity, ok := policy.ParseEntity(values.Get("entity"))
	if !ok {
		writeError(w, h.logger, e.Validation("entity", "unknown entity %q", values.Get("entity")))
		return
	}
	q, err := listQuery(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, scopeResponse{
		Entity:    entity,
		Scope:     h.policy.Scope(user, q.Building, q.Shift),
		CanCreate: h.policy.CanCreate(user, entity),
	})
}
