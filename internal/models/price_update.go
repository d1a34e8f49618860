package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	PriceSourceManual = "manual"
	PriceSourceRisk   = "risk"
)

// PriceUpdate is the audit trail of price changes, distinguishing the manual
// owner override from the risk-index path. Inputs carries the oracle
// observation (weather, soil, disease) that produced a risk update.
type PriceUpdate struct {
	ID        uint64         `gorm:"primaryKey;autoIncrement"`
	CropID    uint64         `gorm:"not null;index"`
	PrevPrice int64          `gorm:"not null"`
	NewPrice  int64          `gorm:"not null"`
	RiskScore int64          `gorm:"not null;default:0"`
	Source    string         `gorm:"type:text;not null;index"`
	Inputs    datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt time.Time      `gorm:"not null;index"`
}

func (PriceUpdate) TableName() string {
	return "price_updates"
}
