package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type InjuryStatus string

const (
	InjuryDraft     InjuryStatus = "Draft"
	InjurySubmitted InjuryStatus = "Submitted"
	InjuryClosed    InjuryStatus = "Closed"
)

func (s InjuryStatus) Valid() bool {
	switch s {
	case InjuryDraft, InjurySubmitted, InjuryClosed:
		return true
	}
	return false
}

type Witness struct {
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	Statement string `json:"statement"`
}

// InjuryReport is an incident write-up. Once it leaves Draft only privileged
// roles may change or delete it.
type InjuryReport struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Building  Building  `gorm:"not null;size:10;index" json:"building"`
	Shift     Shift     `gorm:"size:4" json:"shift"`
	WorkDate  string    `gorm:"size:10" json:"work_date"`

	// Reporter snapshot taken when the report is first saved.
	ReporterName string `gorm:"size:200" json:"reporter_name"`
	ReporterRole Role   `gorm:"size:40" json:"reporter_role"`
	Creator

	EmployeeName    string `gorm:"size:200" json:"employee_name"`
	EmployeeID      string `gorm:"size:50" json:"employee_id"`
	EmployeeJobRole string `gorm:"size:100" json:"employee_job_role"`
	EmployeePhone   string `gorm:"size:40" json:"employee_phone"`

	IncidentAt       *time.Time `json:"incident_at"`
	Location         string     `gorm:"size:200" json:"location"`
	InjuryType       string     `gorm:"size:100" json:"injury_type"`
	BodyPart         string     `gorm:"size:100" json:"body_part"`
	Description      string     `gorm:"size:4000" json:"description"`
	ImmediateActions string     `gorm:"size:4000" json:"immediate_actions"`

	FirstAidGiven    bool   `json:"first_aid_given"`
	MedicalTreatment bool   `json:"medical_treatment"`
	SentToClinic     bool   `json:"sent_to_clinic"`
	TreatmentNotes   string `gorm:"size:2000" json:"treatment_notes"`

	Witnesses datatypes.JSONType[[]Witness] `json:"witnesses"`

	Status           InjuryStatus `gorm:"not null;size:20;index" json:"status"`
	EmployeeSigned   bool         `json:"employee_signed"`
	SupervisorSigned bool         `json:"supervisor_signed"`
	SubmittedAt      *time.Time   `json:"submitted_at,omitempty"`
	ClosedAt         *time.Time   `json:"closed_at,omitempty"`
	ClosedByEmail    string       `gorm:"size:255" json:"closed_by_email,omitempty"`
}

func (r InjuryReport) AccessScope() RecordScope {
	return RecordScope{
		Building:        r.Building,
		Shift:           r.Shift,
		CreatedByUserID: r.CreatedByUserID,
		CreatedByEmail:  r.CreatedByEmail,
		Locked:          r.Status != "" && r.Status != InjuryDraft,
	}
}

// InjuryFile links an uploaded attachment to its report.
type InjuryFile struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt        time.Time `json:"created_at"`
	ReportID         uuid.UUID `gorm:"type:uuid;not null;index" json:"report_id"`
	Bucket           string    `gorm:"not null;size:63" json:"bucket"`
	Path             string    `gorm:"not null;size:500" json:"path"`
	FileName         string    `gorm:"size:255" json:"file_name"`
	ContentType      string    `gorm:"size:100" json:"content_type"`
	SizeBytes        int64     `json:"size_bytes"`
	UploadedByUserID string    `gorm:"size:64" json:"uploaded_by_user_id"`
}
