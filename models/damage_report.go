package models

import (
	"time"

	"github.com/google/uuid"
)

type DamageStatus string

const (
	DamageOpen     DamageStatus = "Open"
	DamageInReview DamageStatus = "In Review"
	DamageClosed   DamageStatus = "Closed"
)

func (s DamageStatus) Valid() bool {
	switch s {
	case DamageOpen, DamageInReview, DamageClosed:
		return true
	}
	return false
}

type DamageReport struct {
	ID              uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
	Building        Building     `gorm:"not null;size:10;index" json:"building"`
	Shift           Shift        `gorm:"size:4" json:"shift"`
	WorkDate        string       `gorm:"size:10" json:"work_date"`
	ContainerNumber string       `gorm:"size:50" json:"container_number"`
	DamageType      string       `gorm:"size:100" json:"damage_type"`
	Description     string       `gorm:"size:4000" json:"description"`
	Status          DamageStatus `gorm:"not null;size:20;index" json:"status"`
	Creator
}

func (d DamageReport) AccessScope() RecordScope {
	return RecordScope{
		Building:        d.Building,
		Shift:           d.Shift,
		CreatedByUserID: d.CreatedByUserID,
		CreatedByEmail:  d.CreatedByEmail,
		Locked:          d.Status == DamageClosed,
	}
}
