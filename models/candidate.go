package models

import (
	"time"

	"github.com/google/uuid"
)

type CandidateStage string

const (
	StageApplied     CandidateStage = "Applied"
	StagePhoneScreen CandidateStage = "Phone Screen"
	StageOnsite      CandidateStage = "Onsite"
	StageOffer       CandidateStage = "Offer"
	StageHired       CandidateStage = "Hired"
	StageRejected    CandidateStage = "Rejected"
)

var CandidateStages = []CandidateStage{StageApplied, StagePhoneScreen, StageOnsite, StageOffer, StageHired, StageRejected}

func (s CandidateStage) Valid() bool {
	for _, known := range CandidateStages {
		if s == known {
			return true
		}
	}
	return false
}

// Candidate is a hiring pipeline entry. Stage changes are plain field
// updates; any stage may follow any other.
type Candidate struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	Name      string         `gorm:"not null;size:200" json:"name"`
	Phone     string         `gorm:"size:40" json:"phone"`
	Building  Building       `gorm:"not null;size:10;index" json:"building"`
	Stage     CandidateStage `gorm:"not null;size:20;index" json:"stage"`
	Source    string         `gorm:"size:100" json:"source"`
	Notes     string         `gorm:"size:2000" json:"notes"`
	Creator
}

func (c Candidate) AccessScope() RecordScope {
	return RecordScope{
		Building:        c.Building,
		CreatedByUserID: c.CreatedByUserID,
		CreatedByEmail:  c.CreatedByEmail,
	}
}
