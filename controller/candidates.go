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

type CandidateInput struct {
	Name     string                `json:"name"`
	Phone    string                `json:"phone"`
	Building models.Building       `json:"building"`
	Stage    models.CandidateStage `json:"stage"`
	Source   string                `json:"source"`
	Notes    string                `json:"notes"`
}

type CandidateService struct {
	crud[models.Candidate]
}

func NewCandidateService(st *store.Store, pol *policy.Policy, mirror Mirror, logger *zap.Logger) *CandidateService {
	return &CandidateService{crud[models.Candidate]{
		entity: policy.Candidates,
		table:  st.Candidates,
		policy: pol,
		mirror: mirror,
		logger: logger.Named("candidate_service"),
	}}
}

func (s *CandidateService) List(ctx context.Context, user *models.User, q store.Query) (*Listing[models.Candidate], error) {
	// candidates carry a stage, not a shift, date or status
	q.Shift, q.WorkDate, q.Status = "", "", ""
	return s.list(ctx, user, q)
}

func (s *CandidateService) Get(ctx context.Context, user *models.User, id uuid.UUID) (*Item[models.Candidate], error) {
	return s.get(ctx, user, id)
}

func (s *CandidateService) Create(ctx context.Context, user *models.User, in CandidateInput) (*models.Candidate, error) {
	if err := s.requireCreate(user); err != nil {
		return nil, err
	}
	in.Building = s.policy.Scope(user, in.Building, "").Building

	rec := &models.Candidate{ID: uuid.New(), Creator: models.CreatorOf(user)}
	if err := applyCandidate(rec, in); err != nil {
		return nil, err
	}
	if err := s.insert(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *CandidateService) Update(ctx context.Context, user *models.User, id uuid.UUID, in CandidateInput) (*models.Candidate, error) {
	rec, err := s.loadForEdit(ctx, user, id)
	if err != nil {
		return nil, err
	}
	in.Building = s.policy.Scope(user, in.Building, "").Building
	if err := applyCandidate(rec, in); err != nil {
		return nil, err
	}
	if err := s.update(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// MoveStage sets the pipeline stage. Any stage may follow any other.
func (s *CandidateService) MoveStage(ctx context.Context, user *models.User, id uuid.UUID, stage models.CandidateStage) (*models.Candidate, error) {
	if !stage.Valid() {
		return nil, e.Validation("stage", "unknown stage %q", stage)
	}
	rec, err := s.loadForEdit(ctx, user, id)
	if err != nil {
		return nil, err
	}
	from := rec.Stage
	rec.Stage = stage
	if err := s.update(ctx, rec); err != nil {
		return nil, err
	}
	s.logger.Info("candidate stage changed",
		zap.String("id", id.String()),
		zap.String("from", string(from)),
		zap.String("to", string(stage)),
	)
	return rec, nil
}

func (s *CandidateService) Delete(ctx context.Context, user *models.User, id uuid.UUID) error {
	_, err := s.delete(ctx, user, id)
	return err
}

func applyCandidate(rec *models.Candidate, in CandidateInput) error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Stage == "" {
		in.Stage = models.StageApplied
	}
	err := firstErr(
		required("name", in.Name),
		maxLen("name", in.Name, 200),
		validateBuilding(in.Building),
	)
	if err != nil {
		return err
	}
	if !in.Stage.Valid() {
		return e.Validation("stage", "unknown stage %q", in.Stage)
	}
	rec.Name = in.Name
	rec.Phone = strings.TrimSpace(in.Phone)
	rec.Building = in.Building
	rec.Stage = in.Stage
	rec.Source = strings.TrimSpace(in.Source)
	rec.Notes = in.Notes
	return nil
}
