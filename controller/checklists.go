package controller

import (
	"context"
	"fmt"
	"time"

	e "precisionpulse/errors"
	"precisionpulse/models"
	"precisionpulse/policy"
	"precisionpulse/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

type ChecklistInput struct {
	Building models.Building       `json:"building"`
	Shift    models.Shift          `json:"shift"`
	WorkDate string                `json:"work_date"`
	Items    models.ChecklistItems `json:"items"`
}

type ChecklistService struct {
	crud[models.StartupChecklist]
	now func() time.Time
}

func NewChecklistService(st *store.Store, pol *policy.Policy, mirror Mirror, logger *zap.Logger) *ChecklistService {
	return &ChecklistService{
		crud: crud[models.StartupChecklist]{
			entity: policy.Checklists,
			table:  st.Checklists,
			policy: pol,
			mirror: mirror,
			logger: logger.Named("checklist_service"),
		},
		now: time.Now,
	}
}

// List filters on the derived status after loading, since it is not stored.
func (s *ChecklistService) List(ctx context.Context, user *models.User, q store.Query) (*Listing[models.StartupChecklist], error) {
	return filterStatus(q.Status, func(q store.Query) (*Listing[models.StartupChecklist], error) {
		return s.list(ctx, user, q)
	}, q)
}

func (s *ChecklistService) Get(ctx context.Context, user *models.User, id uuid.UUID) (*Item[models.StartupChecklist], error) {
	return s.get(ctx, user, id)
}

func (s *ChecklistService) Create(ctx context.Context, user *models.User, in ChecklistInput) (*models.StartupChecklist, error) {
	if err := s.requireCreate(user); err != nil {
		return nil, err
	}
	scope := s.policy.Scope(user, in.Building, in.Shift)
	in.Building, in.Shift = scope.Building, scope.Shift
	if err := validateChecklist(in); err != nil {
		return nil, err
	}
	if err := s.ensureUnique(ctx, in, uuid.Nil); err != nil {
		return nil, err
	}

	now := s.stamp()
	items := in.Items
	items.Confirmation.CompletedAtISO = ""
	items.Confirmation.CompletedBy = ""
	items.Meta = models.ChecklistMeta{
		CreatedByID:    user.ID.String(),
		CreatedByEmail: user.Email,
		CreatedAtISO:   now,
		UpdatedByID:    user.ID.String(),
		UpdatedByEmail: user.Email,
		UpdatedAtISO:   now,
	}

	rec := &models.StartupChecklist{
		ID:       uuid.New(),
		Building: in.Building,
		Shift:    in.Shift,
		WorkDate: in.WorkDate,
		Items:    datatypes.NewJSONType(items),
		Creator:  models.CreatorOf(user),
	}
	if err := s.insert(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Update replaces the flags. The completion stamp and the creation half of
// the audit block always come from the stored row.
func (s *ChecklistService) Update(ctx context.Context, user *models.User, id uuid.UUID, in ChecklistInput) (*models.StartupChecklist, error) {
	rec, err := s.loadForEdit(ctx, user, id)
	if err != nil {
		return nil, err
	}
	scope := s.policy.Scope(user, in.Building, in.Shift)
	in.Building, in.Shift = scope.Building, scope.Shift
	if err := validateChecklist(in); err != nil {
		return nil, err
	}
	if err := s.ensureUnique(ctx, in, rec.ID); err != nil {
		return nil, err
	}

	stored := rec.Items.Data()
	items := in.Items
	items.Confirmation.CompletedAtISO = stored.Confirmation.CompletedAtISO
	items.Confirmation.CompletedBy = stored.Confirmation.CompletedBy
	items.Meta = stored.Meta
	s.touch(&items, user)

	rec.Building = in.Building
	rec.Shift = in.Shift
	rec.WorkDate = in.WorkDate
	rec.Items = datatypes.NewJSONType(items)
	if err := s.update(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Complete stamps the confirmation once every required item is checked.
func (s *ChecklistService) Complete(ctx context.Context, user *models.User, id uuid.UUID, notes string) (*models.StartupChecklist, error) {
	rec, err := s.loadForEdit(ctx, user, id)
	if err != nil {
		return nil, err
	}
	if status := rec.Status(); status != models.ChecklistReady {
		return nil, e.Validation("items", "checklist must be Ready to complete (currently %s)", status)
	}
	items := rec.Items.Data()
	items.Confirmation.LeadConfirmed = true
	items.Confirmation.CompletedAtISO = s.stamp()
	items.Confirmation.CompletedBy = user.Email
	if notes != "" {
		items.Confirmation.Notes = notes
	}
	s.touch(&items, user)

	rec.Items = datatypes.NewJSONType(items)
	if err := s.update(ctx, rec); err != nil {
		return nil, err
	}
	s.logger.Info("checklist completed",
		zap.String("id", id.String()),
		zap.String("building", string(rec.Building)),
		zap.String("shift", string(rec.Shift)),
		zap.String("work_date", rec.WorkDate),
	)
	return rec, nil
}

func (s *ChecklistService) Delete(ctx context.Context, user *models.User, id uuid.UUID) error {
	_, err := s.delete(ctx, user, id)
	return err
}

// ensureUnique rejects a second checklist for the same building, shift and
// work date. self is skipped so a row can be saved in place.
func (s *ChecklistService) ensureUnique(ctx context.Context, in ChecklistInput, self uuid.UUID) error {
	rows, err := s.table.Where(ctx, "building = ? AND shift = ? AND work_date = ? AND id <> ?",
		in.Building, in.Shift, in.WorkDate, self)
	if err != nil {
		return fmt.Errorf("failed to check existing checklists: %w", err)
	}
	if len(rows) > 0 {
		return fmt.Errorf("%w: a checklist already exists for %s %s shift on %s",
			e.ErrDuplicate, in.Building, in.Shift, in.WorkDate)
	}
	return nil
}

func (s *ChecklistService) touch(items *models.ChecklistItems, user *models.User) {
	items.Meta.UpdatedByID = user.ID.String()
	items.Meta.UpdatedByEmail = user.Email
	items.Meta.UpdatedAtISO = s.stamp()
}

func (s *ChecklistService) stamp() string {
	return s.now().UTC().Format(time.RFC3339)
}

func validateChecklist(in ChecklistInput) error {
	return firstErr(
		validateBuilding(in.Building),
		validateShift(in.Shift, true),
		validateDate("work_date", in.WorkDate, true),
		maxLen("notes", in.Items.Confirmation.Notes, 2000),
	)
}

// filterStatus runs list without the status condition and keeps the items
// whose derived status matches.
func filterStatus[T any](status string, list func(store.Query) (*Listing[T], error), q store.Query) (*Listing[T], error) {
	limit := q.Limit
	q.Status = ""
	if status != "" {
		q.Limit = 0
	}
	out, err := list(q)
	if err != nil || status == "" {
		return out, err
	}
	kept := out.Items[:0]
	for _, it := range out.Items {
		if it.Status == status {
			kept = append(kept, it)
		}
	}
	if limit > 0 && len(kept) > limit {
		kept = kept[:limit]
	}
	out.Items = kept
	return out, nil
}
