package controller

import (
	"context"
	"strings"

	e "precisionpulse/errors"
	"precisionpulse/models"
	"precisionpulse/policy"
	"precisionpulse/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type WorkforceInput struct {
	Name       string                 `json:"name"`
	JobRole    string                 `json:"job_role"`
	AccessRole models.Role            `json:"access_role"`
	Building   models.Building        `json:"building"`
	Status     models.WorkforceStatus `json:"status"`
	RateType   models.RateType        `json:"rate_type"`
	Rate       *decimal.Decimal       `json:"rate"`
	Notes      string                 `json:"notes"`
}

type WorkforceService struct {
	crud[models.WorkforcePerson]
}

func NewWorkforceService(st *store.Store, pol *policy.Policy, mirror Mirror, logger *zap.Logger) *WorkforceService {
	return &WorkforceService{crud[models.WorkforcePerson]{
		entity: policy.Workforce,
		table:  st.Workforce,
		policy: pol,
		mirror: mirror,
		logger: logger.Named("workforce_service"),
	}}
}

func (s *WorkforceService) List(ctx context.Context, user *models.User, q store.Query) (*Listing[models.WorkforcePerson], error) {
	q.Shift, q.WorkDate = "", ""
	return s.list(ctx, user, q)
}

func (s *WorkforceService) Get(ctx context.Context, user *models.User, id uuid.UUID) (*Item[models.WorkforcePerson], error) {
	return s.get(ctx, user, id)
}

func (s *WorkforceService) Create(ctx context.Context, user *models.User, in WorkforceInput) (*models.WorkforcePerson, error) {
	if err := s.requireCreate(user); err != nil {
		return nil, err
	}
	in.Building = s.policy.Scope(user, in.Building, "").Building

	rec := &models.WorkforcePerson{ID: uuid.New(), Creator: models.CreatorOf(user)}
	if err := applyWorkforce(rec, in); err != nil {
		return nil, err
	}
	if err := s.insert(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *WorkforceService) Update(ctx context.Context, user *models.User, id uuid.UUID, in WorkforceInput) (*models.WorkforcePerson, error) {
	rec, err := s.loadForEdit(ctx, user, id)
	if err != nil {
		return nil, err
	}
	in.Building = s.policy.Scope(user, in.Building, "").Building
	if err := applyWorkforce(rec, in); err != nil {
		return nil, err
	}
	if err := s.update(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Delete removes the roster entry only. Container worker lines hold names,
// not references, so past pay is unaffected.
func (s *WorkforceService) Delete(ctx context.Context, user *models.User, id uuid.UUID) error {
	_, err := s.delete(ctx, user, id)
	return err
}

func applyWorkforce(rec *models.WorkforcePerson, in WorkforceInput) error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Status == "" {
		in.Status = models.WorkforceActive
	}
	err := firstErr(
		required("name", in.Name),
		maxLen("name", in.Name, 200),
		validateBuilding(in.Building),
	)
	if err != nil {
		return err
	}
	if !in.Status.Valid() {
		return e.Validation("status", "unknown status %q", in.Status)
	}
	if in.AccessRole != "" {
		role, ok := models.ParseRole(string(in.AccessRole))
		if !ok {
			return e.Validation("access_role", "unknown role %q", in.AccessRole)
		}
		in.AccessRole = role
	}

	var rate decimal.NullDecimal
	switch in.RateType {
	case models.RateNone:
	case models.RateHourly, models.RateProduction:
		if in.Rate == nil || !in.Rate.IsPositive() {
			return e.Validation("rate", "%s rate must be a number greater than 0", strings.ToLower(string(in.RateType)))
		}
		rate = decimal.NewNullDecimal(in.Rate.Round(2))
	default:
		return e.Validation("rate_type", "unknown rate type %q", in.RateType)
	}

	rec.Name = in.Name
	rec.JobRole = strings.TrimSpace(in.JobRole)
	rec.AccessRole = in.AccessRole
	rec.Building = in.Building
	rec.Status = in.Status
	rec.RateType = in.RateType
	rec.Rate = rate
	rec.Notes = in.Notes
	return nil
}
