package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type WorkforceStatus string

const (
	WorkforceActive     WorkforceStatus = "Active"
	WorkforceOnLeave    WorkforceStatus = "On Leave"
	WorkforceTerminated WorkforceStatus = "Terminated"
	WorkforceCandidate  WorkforceStatus = "Candidate"
)

func (s WorkforceStatus) Valid() bool {
	switch s {
	case WorkforceActive, WorkforceOnLeave, WorkforceTerminated, WorkforceCandidate:
		return true
	}
	return false
}

type RateType string

const (
	RateNone       RateType = ""
	RateHourly     RateType = "Hourly"
	RateProduction RateType = "Production"
)

// WorkforcePerson is a roster entry. It is deliberately not referenced by
// container worker lines, so deleting it leaves historical pay untouched.
type WorkforcePerson struct {
	ID         uuid.UUID           `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt  time.Time           `json:"created_at"`
	UpdatedAt  time.Time           `json:"updated_at"`
	Name       string              `gorm:"not null;size:200;index" json:"name"`
	JobRole    string              `gorm:"size:100" json:"job_role"`
	AccessRole Role                `gorm:"size:40" json:"access_role,omitempty"`
	Building   Building            `gorm:"not null;size:10;index" json:"building"`
	Status     WorkforceStatus     `gorm:"not null;size:20" json:"status"`
	RateType   RateType            `gorm:"size:20" json:"rate_type,omitempty"`
	Rate       decimal.NullDecimal `gorm:"type:numeric(10,2)" json:"rate"`
	Notes      string              `gorm:"size:2000" json:"notes"`
	Creator
}

func (WorkforcePerson) TableName() string {
	return "workforce"
}

func (w WorkforcePerson) AccessScope() RecordScope {
	return RecordScope{
		Building:        w.Building,
		CreatedByUserID: w.CreatedByUserID,
		CreatedByEmail:  w.CreatedByEmail,
	}
}
