package controller

import (
	"context"
	"strings"

	e "precisionpulse/errors"
	"precisionpulse/models"
	"precisionpulse/policy"
	"precisionpulse/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type DamageReportInput struct {
	Building        models.Building     `json:"building"`
	Shift           models.Shift        `json:"shift"`
	WorkDate        string              `json:"work_date"`
	ContainerNumber string              `json:"container_number"`
	DamageType      string              `json:"damage_type"`
	Description     string              `json:"description"`
	Status          models.DamageStatus `json:"status"`
}

type DamageReportService struct {
	crud[models.DamageReport]
}

func NewDamageReportService(st *store.Store, pol *policy.Policy, mirror Mirror, logger *zap.Logger) *DamageReportService {
	return &DamageReportService{crud[models.DamageReport]{
		entity: policy.DamageReports,
		table:  st.DamageReports,
		policy: pol,
		mirror: mirror,
		logger: logger.Named("damage_report_service"),
	}}
}

func (s *DamageReportService) List(ctx context.Context, user *models.User, q store.Query) (*Listing[models.DamageReport], error) {
	return s.list(ctx, user, q)
}

func (s *DamageReportService) Get(ctx context.Context, user *models.User, id uuid.UUID) (*Item[models.DamageReport], error) {
	return s.get(ctx, user, id)
}

func (s *DamageReportService) Create(ctx context.Context, user *models.User, in DamageReportInput) (*models.DamageReport, error) {
	if err := s.requireCreate(user); err != nil {
		return nil, err
	}
	scope := s.policy.Scope(user, in.Building, in.Shift)
	in.Building, in.Shift = scope.Building, scope.Shift

	rec := &models.DamageReport{ID: uuid.New(), Creator: models.CreatorOf(user)}
	if err := applyDamageReport(rec, in); err != nil {
		return nil, err
	}
	if err := s.insert(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *DamageReportService) Update(ctx context.Context, user *models.User, id uuid.UUID, in DamageReportInput) (*models.DamageReport, error) {
	rec, err := s.loadForEdit(ctx, user, id)
	if err != nil {
		return nil, err
	}
	scope := s.policy.Scope(user, in.Building, in.Shift)
	in.Building, in.Shift = scope.Building, scope.Shift

	from := rec.Status
	if err := applyDamageReport(rec, in); err != nil {
		return nil, err
	}
	if err := s.update(ctx, rec); err != nil {
		return nil, err
	}
	if from != rec.Status {
		s.logger.Info("damage report status changed",
			zap.String("id", id.String()),
			zap.String("from", string(from)),
			zap.String("to", string(rec.Status)),
		)
	}
	return rec, nil
}

func (s *DamageReportService) Delete(ctx context.Context, user *models.User, id uuid.UUID) error {
	_, err := s.delete(ctx, user, id)
	return err
}

func applyDamageReport(rec *models.DamageReport, in DamageReportInput) error {
	in.Description = strings.TrimSpace(in.Description)
	if in.Status == "" {
		in.Status = models.DamageOpen
	}
	err := firstErr(
		validateBuilding(in.Building),
		validateShift(in.Shift, false),
		validateDate("work_date", in.WorkDate, false),
		required("description", in.Description),
		maxLen("description", in.Description, 4000),
		maxLen("container_number", in.ContainerNumber, 50),
	)
	if err != nil {
		return err
	}
	if !in.Status.Valid() {
		return e.Validation("status", "unknown status %q", in.Status)
	}
	rec.Building = in.Building
	rec.Shift = in.Shift
	rec.WorkDate = in.WorkDate
	rec.ContainerNumber = strings.TrimSpace(in.ContainerNumber)
	rec.DamageType = strings.TrimSpace(in.DamageType)
	rec.Description = in.Description
	rec.Status = in.Status
	return nil
}
