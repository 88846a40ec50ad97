package controller

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	e "precisionpulse/errors"
	"precisionpulse/models"
	"precisionpulse/notify"
	"precisionpulse/policy"
	"precisionpulse/storage"
	"precisionpulse/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// FileStore keeps injury report attachments.
type FileStore interface {
	Upload(ctx context.Context, bucket, objectPath string, r io.Reader) (storage.Object, error)
	SignedURL(bucket, objectPath string, ttl time.Duration) (string, error)
	Delete(ctx context.Context, bucket, objectPath string) error
}

type InjuryReportInput struct {
	Building models.Building `json:"building"`
	Shift    models.Shift    `json:"shift"`
	WorkDate string          `json:"work_date"`

	EmployeeName    string `json:"employee_name"`
	EmployeeID      string `json:"employee_id"`
	EmployeeJobRole string `json:"employee_job_role"`
	EmployeePhone   string `json:"employee_phone"`

	IncidentAt       *time.Time `json:"incident_at"`
	Location         string     `json:"location"`
	InjuryType       string     `json:"injury_type"`
	BodyPart         string     `json:"body_part"`
	Description      string     `json:"description"`
	ImmediateActions string     `json:"immediate_actions"`

	FirstAidGiven    bool   `json:"first_aid_given"`
	MedicalTreatment bool   `json:"medical_treatment"`
	SentToClinic     bool   `json:"sent_to_clinic"`
	TreatmentNotes   string `json:"treatment_notes"`

	Witnesses        []models.Witness `json:"witnesses"`
	EmployeeSigned   bool             `json:"employee_signed"`
	SupervisorSigned bool             `json:"supervisor_signed"`
}

// FileLink is an attachment with a short-lived download URL.
type FileLink struct {
	models.InjuryFile
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

type InjuryReportService struct {
	crud[models.InjuryReport]
	store    *store.Store
	files    FileStore
	notifier Notifier
	urlTTL   time.Duration
}

func NewInjuryReportService(st *store.Store, pol *policy.Policy, mirror Mirror, files FileStore, notifier Notifier, urlTTL time.Duration, logger *zap.Logger) *InjuryReportService {
	return &InjuryReportService{
		crud: crud[models.InjuryReport]{
			entity: policy.InjuryReports,
			table:  st.InjuryReports,
			policy: pol,
			mirror: mirror,
			logger: logger.Named("injury_report_service"),
		},
		store:    st,
		files:    files,
		notifier: notifier,
		urlTTL:   urlTTL,
	}
}

func (s *InjuryReportService) List(ctx context.Context, user *models.User, q store.Query) (*Listing[models.InjuryReport], error) {
	return s.list(ctx, user, q)
}

func (s *InjuryReportService) Get(ctx context.Context, user *models.User, id uuid.UUID) (*Item[models.InjuryReport], error) {
	return s.get(ctx, user, id)
}

// Create saves a new Draft report with the reporter snapshot taken from user.
func (s *InjuryReportService) Create(ctx context.Context, user *models.User, in InjuryReportInput) (*models.InjuryReport, error) {
	if err := s.requireCreate(user); err != nil {
		return nil, err
	}
	scope := s.policy.Scope(user, in.Building, in.Shift)
	in.Building, in.Shift = scope.Building, scope.Shift

	rec := &models.InjuryReport{
		ID:           uuid.New(),
		Creator:      models.CreatorOf(user),
		ReporterName: user.DisplayName(),
		ReporterRole: user.Role,
		Status:       models.InjuryDraft,
	}
	if err := applyInjuryReport(rec, in); err != nil {
		return nil, err
	}
	if err := s.insert(ctx, rec); err != nil {
		return nil, err
	}
	s.logger.Info("injury report created",
		zap.String("id", rec.ID.String()),
		zap.String("building", string(rec.Building)),
		zap.String("reporter", rec.CreatedByEmail),
	)
	s.notifier.Notify(notify.EventFor(notify.InjuryReportDraft, rec))
	return rec, nil
}

// Update rewrites the report fields. Status, reporter and signatures of the
// workflow are left to Submit and Close.
func (s *InjuryReportService) Update(ctx context.Context, user *models.User, id uuid.UUID, in InjuryReportInput) (*models.InjuryReport, error) {
	rec, err := s.loadForEdit(ctx, user, id)
	if err != nil {
		return nil, err
	}
	scope := s.policy.Scope(user, in.Building, in.Shift)
	in.Building, in.Shift = scope.Building, scope.Shift

	if err := applyInjuryReport(rec, in); err != nil {
		return nil, err
	}
	if err := s.update(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Submit moves a Draft report to Submitted.
func (s *InjuryReportService) Submit(ctx context.Context, user *models.User, id uuid.UUID) (*models.InjuryReport, error) {
	rec, err := s.loadForEdit(ctx, user, id)
	if err != nil {
		return nil, err
	}
	if rec.Status != models.InjuryDraft {
		return nil, e.Validation("status", "only a Draft report can be submitted (currently %s)", rec.Status)
	}
	now := time.Now().UTC()
	rec.Status = models.InjurySubmitted
	rec.SubmittedAt = &now
	if err := s.update(ctx, rec); err != nil {
		return nil, err
	}
	s.logger.Info("injury report submitted", zap.String("id", id.String()), zap.String("by", user.Email))
	s.notifier.Notify(notify.EventFor(notify.InjuryReportSubmitted, rec))
	return rec, nil
}

// Close is reserved for roles that may close injury reports. The report
// need not be locked first; a Draft can be closed directly.
func (s *InjuryReportService) Close(ctx context.Context, user *models.User, id uuid.UUID) (*models.InjuryReport, error) {
	if !s.policy.Capabilities(user).CanCloseInjuryReports {
		return nil, e.ErrForbidden
	}
	rec, _, err := s.load(ctx, user, id)
	if err != nil {
		return nil, err
	}
	if rec.Status == models.InjuryClosed {
		return nil, e.Validation("status", "report is already closed")
	}
	now := time.Now().UTC()
	rec.Status = models.InjuryClosed
	rec.ClosedAt = &now
	rec.ClosedByEmail = user.Email
	if err := s.update(ctx, rec); err != nil {
		return nil, err
	}
	s.logger.Info("injury report closed", zap.String("id", id.String()), zap.String("by", user.Email))
	return rec, nil
}

// Delete removes the report together with its attachment rows.
func (s *InjuryReportService) Delete(ctx context.Context, user *models.User, id uuid.UUID) error {
	_, access, err := s.load(ctx, user, id)
	if err != nil {
		return err
	}
	if !access.CanDelete {
		return e.ErrForbidden
	}
	var files int64
	err = s.store.WithTransaction(ctx, func(tx *store.Store) error {
		n, err := tx.InjuryFiles.DeleteWhere(ctx, "report_id = ?", id)
		if err != nil {
			return err
		}
		files = n
		return tx.InjuryReports.Delete(ctx, id)
	})
	if err != nil {
		if isNotFound(err) {
			return err
		}
		return fmt.Errorf("failed to delete injury report: %w", err)
	}
	s.logger.Info("record deleted",
		zap.String("entity", string(s.entity)),
		zap.String("id", id.String()),
		zap.Int64("files", files),
		zap.String("by", user.Email),
	)
	return nil
}

// AttachFile uploads one attachment and links it to the report.
func (s *InjuryReportService) AttachFile(ctx context.Context, user *models.User, id uuid.UUID, fileName, contentType string, r io.Reader) (*models.InjuryFile, error) {
	rec, err := s.loadForEdit(ctx, user, id)
	if err != nil {
		return nil, err
	}
	name := safeFileName(fileName)
	if name == "" {
		return nil, e.Validation("file", "file name is required")
	}

	fileID := uuid.New()
	obj, err := s.files.Upload(ctx, storage.InjuryFilesBucket, path.Join(rec.ID.String(), fileID.String()+"-"+name), r)
	if err != nil {
		return nil, fmt.Errorf("failed to upload file: %w", err)
	}

	row := &models.InjuryFile{
		ID:               fileID,
		ReportID:         rec.ID,
		Bucket:           obj.Bucket,
		Path:             obj.Path,
		FileName:         name,
		ContentType:      contentType,
		SizeBytes:        obj.SizeBytes,
		UploadedByUserID: user.ID.String(),
	}
	if err := s.store.InjuryFiles.Insert(ctx, row); err != nil {
		if derr := s.files.Delete(context.WithoutCancel(ctx), obj.Bucket, obj.Path); derr != nil {
			s.logger.Warn("failed to remove unlinked upload",
				zap.String("path", obj.Path),
				zap.Error(derr),
			)
		}
		return nil, fmt.Errorf("failed to save injury file: %w", err)
	}
	return row, nil
}

// Files lists the report's attachments, oldest first, with signed URLs.
func (s *InjuryReportService) Files(ctx context.Context, user *models.User, id uuid.UUID) ([]FileLink, error) {
	if _, _, err := s.load(ctx, user, id); err != nil {
		return nil, err
	}
	rows, err := s.store.InjuryFiles.Where(ctx, "report_id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("failed to load injury files: %w", err)
	}

	expires := time.Now().Add(s.urlTTL).UTC()
	links := make([]FileLink, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		url, err := s.files.SignedURL(rows[i].Bucket, rows[i].Path, s.urlTTL)
		if err != nil {
			return nil, fmt.Errorf("failed to sign %s: %w", rows[i].Path, err)
		}
		links = append(links, FileLink{InjuryFile: rows[i], URL: url, ExpiresAt: expires})
	}
	return links, nil
}

func applyInjuryReport(rec *models.InjuryReport, in InjuryReportInput) error {
	in.EmployeeName = strings.TrimSpace(in.EmployeeName)
	in.Location = strings.TrimSpace(in.Location)
	in.InjuryType = strings.TrimSpace(in.InjuryType)
	in.Description = strings.TrimSpace(in.Description)

	err := firstErr(
		validateBuilding(in.Building),
		validateShift(in.Shift, true),
		validateDate("work_date", in.WorkDate, true),
		required("employee_name", in.EmployeeName),
		required("location", in.Location),
		required("injury_type", in.InjuryType),
		required("description", in.Description),
		maxLen("description", in.Description, 4000),
		maxLen("immediate_actions", in.ImmediateActions, 4000),
	)
	if err != nil {
		return err
	}
	if in.IncidentAt == nil || in.IncidentAt.IsZero() {
		return e.Validation("incident_at", "incident date and time is required")
	}

	rec.Building = in.Building
	rec.Shift = in.Shift
	rec.WorkDate = in.WorkDate
	rec.EmployeeName = in.EmployeeName
	rec.EmployeeID = strings.TrimSpace(in.EmployeeID)
	rec.EmployeeJobRole = strings.TrimSpace(in.EmployeeJobRole)
	rec.EmployeePhone = strings.TrimSpace(in.EmployeePhone)
	incident := in.IncidentAt.UTC()
	rec.IncidentAt = &incident
	rec.Location = in.Location
	rec.InjuryType = in.InjuryType
	rec.BodyPart = strings.TrimSpace(in.BodyPart)
	rec.Description = in.Description
	rec.ImmediateActions = in.ImmediateActions
	rec.FirstAidGiven = in.FirstAidGiven
	rec.MedicalTreatment = in.MedicalTreatment
	rec.SentToClinic = in.SentToClinic
	rec.TreatmentNotes = in.TreatmentNotes
	rec.Witnesses = datatypes.NewJSONType(witnesses(in.Witnesses))
	rec.EmployeeSigned = in.EmployeeSigned
	rec.SupervisorSigned = in.SupervisorSigned
	return nil
}

// witnesses keeps the entered order and drops blank rows.
func witnesses(in []models.Witness) []models.Witness {
	out := make([]models.Witness, 0, len(in))
	for _, w := range in {
		w.Name = strings.TrimSpace(w.Name)
		w.Phone = strings.TrimSpace(w.Phone)
		w.Statement = strings.TrimSpace(w.Statement)
		if w.Name == "" && w.Phone == "" && w.Statement == "" {
			continue
		}
		out = append(out, w)
	}
	return out
}

func safeFileName(name string) string {
	name = path.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	if name == "." || name == "/" {
		return ""
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		}
		return '_'
	}, name)
}
