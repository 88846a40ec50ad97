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
	"gorm.io/datatypes"
)

type TerminationInput struct {
	EmployeeName      string                  `json:"employee_name"`
	EmployeeRole      string                  `json:"employee_role"`
	Building          models.Building         `json:"building"`
	WorkforcePersonID *uuid.UUID              `json:"workforce_person_id,omitempty"`
	Reason            string                  `json:"reason"`
	LastDay           string                  `json:"last_day"`
	Variant           models.ChecklistVariant `json:"variant"`
	Checklist         map[string]bool         `json:"checklist"`
	Notes             string                  `json:"notes"`
}

type TerminationService struct {
	crud[models.TerminationRecord]
	workforce *store.Table[models.WorkforcePerson]
}

func NewTerminationService(st *store.Store, pol *policy.Policy, mirror Mirror, logger *zap.Logger) *TerminationService {
	return &TerminationService{
		crud: crud[models.TerminationRecord]{
			entity: policy.Terminations,
			table:  st.Terminations,
			policy: pol,
			mirror: mirror,
			logger: logger.Named("termination_service"),
		},
		workforce: st.Workforce,
	}
}

func (s *TerminationService) List(ctx context.Context, user *models.User, q store.Query) (*Listing[models.TerminationRecord], error) {
	q.Shift, q.WorkDate = "", ""
	return filterStatus(q.Status, func(q store.Query) (*Listing[models.TerminationRecord], error) {
		return s.list(ctx, user, q)
	}, q)
}

func (s *TerminationService) Get(ctx context.Context, user *models.User, id uuid.UUID) (*Item[models.TerminationRecord], error) {
	return s.get(ctx, user, id)
}

// Create saves the record and then marks the matching roster entry as
// Terminated. The second write is best effort: its failure is logged and
// the created record is still returned.
func (s *TerminationService) Create(ctx context.Context, user *models.User, in TerminationInput) (*models.TerminationRecord, error) {
	if err := s.requireCreate(user); err != nil {
		return nil, err
	}
	in.Building = s.policy.Scope(user, in.Building, "").Building

	rec := &models.TerminationRecord{ID: uuid.New(), Creator: models.CreatorOf(user)}
	if err := applyTermination(rec, in); err != nil {
		return nil, err
	}
	if err := s.insert(ctx, rec); err != nil {
		return nil, err
	}
	s.cascade(ctx, rec)
	return rec, nil
}

func (s *TerminationService) Update(ctx context.Context, user *models.User, id uuid.UUID, in TerminationInput) (*models.TerminationRecord, error) {
	rec, err := s.loadForEdit(ctx, user, id)
	if err != nil {
		return nil, err
	}
	in.Building = s.policy.Scope(user, in.Building, "").Building
	if err := applyTermination(rec, in); err != nil {
		return nil, err
	}
	if err := s.update(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *TerminationService) Delete(ctx context.Context, user *models.User, id uuid.UUID) error {
	_, err := s.delete(ctx, user, id)
	return err
}

// cascade runs as the system, not as the requesting user: a Lead may
// terminate someone without holding write access to the roster.
func (s *TerminationService) cascade(ctx context.Context, rec *models.TerminationRecord) {
	log := s.logger.With(
		zap.String("termination_id", rec.ID.String()),
		zap.String("employee", rec.EmployeeName),
	)

	person, err := s.matchPerson(ctx, rec)
	if err != nil {
		log.Warn("partial failure: workforce status not updated", zap.Error(err))
		return
	}
	if person == nil {
		log.Info("no unique workforce match, roster left unchanged")
		return
	}
	if person.Building != rec.Building {
		log.Warn("workforce person is in another building, roster left unchanged",
			zap.String("person_id", person.ID.String()),
			zap.String("person_building", string(person.Building)),
		)
		return
	}
	if person.Status == models.WorkforceTerminated {
		return
	}
	err = s.workforce.Patch(ctx, person.ID, map[string]any{"status": string(models.WorkforceTerminated)})
	if err != nil {
		log.Warn("partial failure: workforce status not updated", zap.Error(err), zap.String("person_id", person.ID.String()))
		return
	}
	log.Info("workforce person terminated", zap.String("person_id", person.ID.String()))
}

// matchPerson finds the roster entry by id, else by case-insensitive name
// within the record's building. Ambiguous name matches return nil. An id
// match may belong to another building; the caller checks.
func (s *TerminationService) matchPerson(ctx context.Context, rec *models.TerminationRecord) (*models.WorkforcePerson, error) {
	if rec.WorkforcePersonID != nil {
		person, err := s.workforce.Get(ctx, *rec.WorkforcePersonID)
		if isNotFound(err) {
			return nil, nil
		}
		return person, err
	}
	people, err := s.workforce.Where(ctx, "building = ? AND lower(name) = ?", rec.Building, strings.ToLower(rec.EmployeeName))
	if err != nil {
		return nil, err
	}
	if len(people) != 1 {
		return nil, nil
	}
	return &people[0], nil
}

func applyTermination(rec *models.TerminationRecord, in TerminationInput) error {
	in.EmployeeName = strings.TrimSpace(in.EmployeeName)
	if in.Variant == "" {
		in.Variant = models.VariantStandard
	}
	err := firstErr(
		required("employee_name", in.EmployeeName),
		maxLen("employee_name", in.EmployeeName, 200),
		validateBuilding(in.Building),
		validateDate("last_day", in.LastDay, false),
		maxLen("reason", in.Reason, 500),
	)
	if err != nil {
		return err
	}
	if in.Variant != models.VariantStandard && in.Variant != models.VariantExtended {
		return e.Validation("variant", "unknown checklist variant %q", in.Variant)
	}

	allowed := map[string]bool{}
	for _, key := range in.Variant.Items() {
		allowed[key] = true
	}
	checklist := make(map[string]bool, len(allowed))
	for key := range allowed {
		checklist[key] = false
	}
	for key, v := range in.Checklist {
		if !allowed[key] {
			return e.Validation("checklist", "%q is not on the %s checklist", key, in.Variant)
		}
		checklist[key] = v
	}

	rec.EmployeeName = in.EmployeeName
	rec.EmployeeRole = strings.TrimSpace(in.EmployeeRole)
	rec.Building = in.Building
	rec.WorkforcePersonID = in.WorkforcePersonID
	rec.Reason = strings.TrimSpace(in.Reason)
	rec.LastDay = in.LastDay
	rec.Variant = in.Variant
	rec.Checklist = datatypes.NewJSONType(checklist)
	rec.Notes = in.Notes
	return nil
}
