package controller

import (
	"context"
	"strings"

	e "precisionpulse/errors"
	"precisionpulse/models"
	"precisionpulse/pay"
	"precisionpulse/policy"
	"precisionpulse/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

type WorkerInput struct {
	Name                string          `json:"name"`
	MinutesWorked       int             `json:"minutes_worked"`
	PercentContribution decimal.Decimal `json:"percent_contribution"`
}

type ContainerInput struct {
	Building        models.Building `json:"building"`
	Shift           models.Shift    `json:"shift"`
	WorkDate        string          `json:"work_date"`
	ContainerNumber string          `json:"container_number"`
	PiecesTotal     int             `json:"pieces_total"`
	SkusTotal       int             `json:"skus_total"`
	Palletized      bool            `json:"palletized"`
	Workers         []WorkerInput   `json:"workers"`
	WorkOrderID     *uuid.UUID      `json:"work_order_id,omitempty"`
}

// Quote is the live pay preview shown while a container is being edited.
type Quote struct {
	PayTotal     decimal.Decimal             `json:"pay_total"`
	PercentTotal decimal.Decimal             `json:"percent_total"`
	Workers      []models.WorkerContribution `json:"workers"`
	Valid        bool                        `json:"valid"`
	Error        string                      `json:"error,omitempty"`
}

type ContainerService struct {
	crud[models.Container]
}

func NewContainerService(st *store.Store, pol *policy.Policy, mirror Mirror, logger *zap.Logger) *ContainerService {
	return &ContainerService{crud[models.Container]{
		entity: policy.Containers,
		table:  st.Containers,
		policy: pol,
		mirror: mirror,
		logger: logger.Named("container_service"),
	}}
}

func (s *ContainerService) List(ctx context.Context, user *models.User, q store.Query) (*Listing[models.Container], error) {
	// containers have no status
	q.Status = ""
	return s.list(ctx, user, q)
}

func (s *ContainerService) Get(ctx context.Context, user *models.User, id uuid.UUID) (*Item[models.Container], error) {
	return s.get(ctx, user, id)
}

// Quote prices the container and splits the pay without saving anything.
func (s *ContainerService) Quote(in ContainerInput) Quote {
	price := pay.ContainerPrice(in.PiecesTotal, in.Palletized)
	alloc := pay.Allocate(price, shares(in.Workers))
	q := Quote{
		PayTotal:     price.Round(2),
		PercentTotal: alloc.PercentTotal,
		Workers:      contributions(alloc),
		Valid:        alloc.Valid(),
	}
	if err := alloc.Err(); err != nil {
		q.Error = err.Error()
	}
	return q
}

func (s *ContainerService) Create(ctx context.Context, user *models.User, in ContainerInput) (*models.Container, error) {
	if err := s.requireCreate(user); err != nil {
		return nil, err
	}
	scope := s.policy.Scope(user, in.Building, in.Shift)
	in.Building, in.Shift = scope.Building, scope.Shift

	rec := &models.Container{ID: uuid.New(), Creator: models.CreatorOf(user)}
	if err := s.apply(rec, in); err != nil {
		return nil, err
	}
	if err := s.insert(ctx, rec); err != nil {
		return nil, err
	}
	s.logger.Info("container created",
		zap.String("id", rec.ID.String()),
		zap.String("building", string(rec.Building)),
		zap.String("pay_total", rec.PayTotal.StringFixed(2)),
	)
	return rec, nil
}

func (s *ContainerService) Update(ctx context.Context, user *models.User, id uuid.UUID, in ContainerInput) (*models.Container, error) {
	rec, err := s.loadForEdit(ctx, user, id)
	if err != nil {
		return nil, err
	}
	scope := s.policy.Scope(user, in.Building, in.Shift)
	in.Building, in.Shift = scope.Building, scope.Shift

	if err := s.apply(rec, in); err != nil {
		return nil, err
	}
	if err := s.update(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *ContainerService) Delete(ctx context.Context, user *models.User, id uuid.UUID) error {
	_, err := s.delete(ctx, user, id)
	return err
}

// apply validates in and copies it onto rec with the pay recomputed.
func (s *ContainerService) apply(rec *models.Container, in ContainerInput) error {
	in.ContainerNumber = strings.TrimSpace(in.ContainerNumber)
	err := firstErr(
		validateBuilding(in.Building),
		validateShift(in.Shift, true),
		validateDate("work_date", in.WorkDate, true),
		required("container_number", in.ContainerNumber),
		maxLen("container_number", in.ContainerNumber, 50),
	)
	if err != nil {
		return err
	}
	if in.PiecesTotal < 0 {
		return e.Validation("pieces_total", "must not be negative")
	}
	if in.SkusTotal < 0 {
		return e.Validation("skus_total", "must not be negative")
	}

	price := pay.ContainerPrice(in.PiecesTotal, in.Palletized)
	alloc := pay.Allocate(price, shares(in.Workers))
	if err := alloc.Err(); err != nil {
		return err
	}

	rec.Building = in.Building
	rec.Shift = in.Shift
	rec.WorkDate = in.WorkDate
	rec.ContainerNumber = in.ContainerNumber
	rec.PiecesTotal = in.PiecesTotal
	rec.SkusTotal = in.SkusTotal
	rec.Palletized = in.Palletized
	rec.PayTotal = price.Round(2)
	rec.Workers = datatypes.NewJSONType(contributions(alloc))
	rec.WorkOrderID = in.WorkOrderID
	return nil
}

func shares(in []WorkerInput) []pay.WorkerShare {
	out := make([]pay.WorkerShare, len(in))
	for i, w := range in {
		out[i] = pay.WorkerShare{Name: w.Name, MinutesWorked: w.MinutesWorked, PercentContribution: w.PercentContribution}
	}
	return out
}

// contributions turns the populated payout lines into stored worker lines
// with payouts rounded to cents.
func contributions(a pay.Allocation) []models.WorkerContribution {
	out := make([]models.WorkerContribution, len(a.Workers))
	for i, w := range a.Workers {
		out[i] = models.WorkerContribution{
			Name:                w.Name,
			MinutesWorked:       w.MinutesWorked,
			PercentContribution: w.PercentContribution,
			Payout:              w.Rounded(),
		}
	}
	return out
}
