package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type ChecklistStatus string

const (
	ChecklistDraft      ChecklistStatus = "Draft"
	ChecklistInProgress ChecklistStatus = "In Progress"
	ChecklistReady      ChecklistStatus = "Ready"
	ChecklistCompleted  ChecklistStatus = "Completed"
)

const (
	SectionStaffing      = "staffing"
	SectionSafety        = "safety"
	SectionFacility      = "facility"
	SectionEquipment     = "equipment"
	SectionPlan          = "plan"
	SectionCommunication = "communication"
)

// ChecklistItem addresses one flag inside a section.
type ChecklistItem struct {
	Section string
	Key     string
}

// ReadyRequiredItems must all be true before a checklist reads as Ready.
var ReadyRequiredItems = []ChecklistItem{
	{SectionStaffing, "headcountConfirmed"},
	{SectionStaffing, "leadsAssigned"},
	{SectionSafety, "walkthroughComplete"},
	{SectionSafety, "ppeAvailable"},
	{SectionFacility, "docksClear"},
	{SectionEquipment, "forkliftsInspected"},
	{SectionEquipment, "scannersCharged"},
	{SectionPlan, "containerPlanReviewed"},
	{SectionCommunication, "preShiftHuddle"},
}

type ChecklistConfirmation struct {
	LeadConfirmed  bool   `json:"leadConfirmed"`
	Notes          string `json:"notes,omitempty"`
	CompletedAtISO string `json:"completedAtISO,omitempty"`
	CompletedBy    string `json:"completedBy,omitempty"`
}

type ChecklistMeta struct {
	CreatedByID    string `json:"createdById,omitempty"`
	CreatedByEmail string `json:"createdByEmail,omitempty"`
	CreatedAtISO   string `json:"createdAtISO,omitempty"`
	UpdatedByID    string `json:"updatedById,omitempty"`
	UpdatedByEmail string `json:"updatedByEmail,omitempty"`
	UpdatedAtISO   string `json:"updatedAtISO,omitempty"`
}

// ChecklistItems is the nested document stored on a startup checklist.
type ChecklistItems struct {
	Staffing      map[string]bool       `json:"staffing,omitempty"`
	Safety        map[string]bool       `json:"safety,omitempty"`
	Facility      map[string]bool       `json:"facility,omitempty"`
	Equipment     map[string]bool       `json:"equipment,omitempty"`
	Plan          map[string]bool       `json:"plan,omitempty"`
	Communication map[string]bool       `json:"communication,omitempty"`
	Confirmation  ChecklistConfirmation `json:"confirmation"`
	Meta          ChecklistMeta         `json:"_meta"`
}

func (i ChecklistItems) section(name string) map[string]bool {
	switch name {
	case SectionStaffing:
		return i.Staffing
	case SectionSafety:
		return i.Safety
	case SectionFacility:
		return i.Facility
	case SectionEquipment:
		return i.Equipment
	case SectionPlan:
		return i.Plan
	case SectionCommunication:
		return i.Communication
	}
	return nil
}

// Checked reports the value of one flag; missing sections and keys are false.
func (i ChecklistItems) Checked(item ChecklistItem) bool {
	return i.section(item.Section)[item.Key]
}

func (i ChecklistItems) anyChecked() bool {
	for _, sec := range []map[string]bool{i.Staffing, i.Safety, i.Facility, i.Equipment, i.Plan, i.Communication} {
		for _, v := range sec {
			if v {
				return true
			}
		}
	}
	return i.Confirmation.LeadConfirmed
}

// DeriveChecklistStatus reduces the flag set to a status. Nothing is stored.
func DeriveChecklistStatus(items ChecklistItems) ChecklistStatus {
	if items.Confirmation.CompletedAtISO != "" {
		return ChecklistCompleted
	}
	if !items.anyChecked() {
		return ChecklistDraft
	}
	for _, req := range ReadyRequiredItems {
		if !items.Checked(req) {
			return ChecklistInProgress
		}
	}
	return ChecklistReady
}

// StartupChecklist is the pre-shift readiness record, one per
// (building, shift, work date).
type StartupChecklist struct {
	ID        uuid.UUID                          `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time                          `json:"created_at"`
	UpdatedAt time.Time                          `json:"updated_at"`
	Building  Building                           `gorm:"not null;size:10;index:idx_checklist_slot" json:"building"`
	Shift     Shift                              `gorm:"not null;size:4;index:idx_checklist_slot" json:"shift"`
	WorkDate  string                             `gorm:"not null;size:10;index:idx_checklist_slot" json:"work_date"`
	Items     datatypes.JSONType[ChecklistItems] `json:"items"`
	Creator
}

func (c StartupChecklist) Status() ChecklistStatus {
	return DeriveChecklistStatus(c.Items.Data())
}

func (c StartupChecklist) DerivedStatus() string {
	return string(c.Status())
}

func (c StartupChecklist) AccessScope() RecordScope {
	return RecordScope{
		Building:        c.Building,
		Shift:           c.Shift,
		CreatedByUserID: c.CreatedByUserID,
		CreatedByEmail:  c.CreatedByEmail,
		Locked:          c.Items.Data().Confirmation.CompletedAtISO != "",
	}
}
