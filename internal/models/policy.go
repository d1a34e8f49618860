package models

import "time"

// InsurancePolicy is keyed by farmer identity: at most one row per farmer,
// and at most one active policy at a time. An approved claim deactivates the
// policy for good; there is no re-entry path.
type InsurancePolicy struct {
	Farmer      string     `gorm:"primaryKey;type:text"`
	Premium     int64      `gorm:"not null"`
	Coverage    int64      `gorm:"not null"`
	PurchasedAt time.Time  `gorm:"not null"`
	Active      bool       `gorm:"not null;default:true;index"`
	ClosedAt    *time.Time
}

func (InsurancePolicy) TableName() string {
	return "insurance_policies"
}
