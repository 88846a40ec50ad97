package models

import (
	"time"

	"github.com/google/uuid"
)

type ChatMessage struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	Building   Building  `gorm:"not null;size:10;index" json:"building"`
	Shift      Shift     `gorm:"size:4;index" json:"shift"`
	Body       string    `gorm:"not null;size:2000" json:"body"`
	Pinned     bool      `gorm:"default:false" json:"pinned"`
	AuthorName string    `gorm:"size:200" json:"author_name"`
	Creator
}

func (m ChatMessage) AccessScope() RecordScope {
	return RecordScope{
		Building:        m.Building,
		Shift:           m.Shift,
		CreatedByUserID: m.CreatedByUserID,
		CreatedByEmail:  m.CreatedByEmail,
	}
}
