package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type TerminationStatus string

const (
	TerminationPending   TerminationStatus = "Pending"
	TerminationCompleted TerminationStatus = "Completed"
)

type ChecklistVariant string

const (
	VariantStandard ChecklistVariant = "standard"
	VariantExtended ChecklistVariant = "extended"
)

// StandardTerminationItems is the four-step offboarding checklist.
var StandardTerminationItems = []string{
	"badgeReturned",
	"equipmentReturned",
	"exitInterview",
	"payrollNotified",
}

// ExtendedTerminationItems adds system access, final pay and benefits steps.
var ExtendedTerminationItems = []string{
	"badgeReturned",
	"equipmentReturned",
	"exitInterview",
	"payrollNotified",
	"systemAccessRevoked",
	"finalPaycheckIssued",
	"benefitsNotified",
}

// Items returns the checklist keys for the variant; unknown variants fall
// back to the standard list.
func (v ChecklistVariant) Items() []string {
	if v == VariantExtended {
		return ExtendedTerminationItems
	}
	return StandardTerminationItems
}

type TerminationRecord struct {
	ID                uuid.UUID                           `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt         time.Time                           `json:"created_at"`
	UpdatedAt         time.Time                           `json:"updated_at"`
	EmployeeName      string                              `gorm:"not null;size:200" json:"employee_name"`
	EmployeeRole      string                              `gorm:"size:100" json:"employee_role"`
	Building          Building                            `gorm:"not null;size:10;index" json:"building"`
	WorkforcePersonID *uuid.UUID                          `gorm:"type:uuid" json:"workforce_person_id,omitempty"`
	Reason            string                              `gorm:"size:500" json:"reason"`
	LastDay           string                              `gorm:"size:10" json:"last_day"`
	Variant           ChecklistVariant                    `gorm:"size:10" json:"variant"`
	Checklist         datatypes.JSONType[map[string]bool] `json:"checklist"`
	Notes             string                              `gorm:"size:2000" json:"notes"`
	Creator
}

// DeriveTerminationStatus is Completed once every item of the variant is checked.
func DeriveTerminationStatus(variant ChecklistVariant, checklist map[string]bool) TerminationStatus {
	for _, key := range variant.Items() {
		if !checklist[key] {
			return TerminationPending
		}
	}
	return TerminationCompleted
}

func (t TerminationRecord) Status() TerminationStatus {
	return DeriveTerminationStatus(t.Variant, t.Checklist.Data())
}

func (t TerminationRecord) DerivedStatus() string {
	return string(t.Status())
}

func (t TerminationRecord) AccessScope() RecordScope {
	return RecordScope{
		Building:        t.Building,
		CreatedByUserID: t.CreatedByUserID,
		CreatedByEmail:  t.CreatedByEmail,
		Locked:          t.Status() == TerminationCompleted,
	}
}
