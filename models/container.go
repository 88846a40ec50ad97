package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// WorkerContribution is one worker line on a container. Payout is always
// derived from the container pay total and the percent contribution.
type WorkerContribution struct {
	Name                string          `json:"name"`
	MinutesWorked       int             `json:"minutes_worked"`
	PercentContribution decimal.Decimal `json:"percent_contribution"`
	Payout              decimal.Decimal `json:"payout"`
}

// Container is a unit of warehouse unloading work.
type Container struct {
	ID              uuid.UUID                                `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt       time.Time                                `json:"created_at"`
	UpdatedAt       time.Time                                `json:"updated_at"`
	Building        Building                                 `gorm:"not null;size:10;index" json:"building"`
	Shift           Shift                                    `gorm:"size:4" json:"shift"`
	WorkDate        string                                   `gorm:"size:10;index" json:"work_date"`
	ContainerNumber string                                   `gorm:"not null;size:50" json:"container_number"`
	PiecesTotal     int                                      `json:"pieces_total"`
	SkusTotal       int                                      `json:"skus_total"`
	Palletized      bool                                     `json:"palletized"`
	PayTotal        decimal.Decimal                          `gorm:"type:numeric(12,2)" json:"pay_total"`
	Workers         datatypes.JSONType[[]WorkerContribution] `json:"workers"`
	WorkOrderID     *uuid.UUID                               `gorm:"type:uuid" json:"work_order_id,omitempty"`
	Creator
}

func (c Container) AccessScope() RecordScope {
	return RecordScope{
		Building:        c.Building,
		Shift:           c.Shift,
		CreatedByUserID: c.CreatedByUserID,
		CreatedByEmail:  c.CreatedByEmail,
	}
}

// WorkerLines returns the stored worker lines, never nil.
func (c *Container) WorkerLines() []WorkerContribution {
	lines := c.Workers.Data()
	if lines == nil {
		return []WorkerContribution{}
	}
	return lines
}
