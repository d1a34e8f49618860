package models

import (
	"time"

	"gorm.io/datatypes"
)

// Crop is a marketplace listing. Crops are never deleted; deactivation is a
// one-way soft delete.
type Crop struct {
	ID           uint64 `gorm:"primaryKey;autoIncrement"`
	Name         string `gorm:"type:text;not null;index"`
	BasePrice    int64  `gorm:"not null"`
	CurrentPrice int64  `gorm:"not null"`
	Stock        int64  `gorm:"not null"`
	Owner        string `gorm:"type:text;not null;index"`
	ImageRef     string `gorm:"type:text"`
	LocationRef  string `gorm:"type:text"`

	// RiskScore is the last applied risk index on the 0-1000 scale.
	RiskScore       int64     `gorm:"not null;default:0"`
	LastPriceUpdate time.Time `gorm:"not null"`
	Active          bool      `gorm:"not null;default:true;index"`

	// Oracle tracking: crops registered with coordinates get their risk
	// score refreshed on the daily schedule.
	Latitude      *float64       `gorm:"type:numeric"`
	Longitude     *float64       `gorm:"type:numeric"`
	OracleTracked bool           `gorm:"not null;default:false;index"`
	OracleState   datatypes.JSON `gorm:"type:jsonb"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (Crop) TableName() string {
	return "crops"
}
