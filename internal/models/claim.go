package models

import "time"

const (
	ClaimStatusPending  = "pending"
	ClaimStatusApproved = "approved"
	ClaimStatusRejected = "rejected"
)

// InsuranceClaim transitions pending -> approved|rejected exactly once and is
// terminal thereafter.
type InsuranceClaim struct {
	ID          uint64     `gorm:"primaryKey;autoIncrement"`
	Farmer      string     `gorm:"type:text;not null;index"`
	CropID      uint64     `gorm:"not null;index"`
	Amount      int64      `gorm:"not null"`
	Reason      string     `gorm:"type:text"`
	EvidenceRef string     `gorm:"type:text"`
	Status      string     `gorm:"type:text;not null;default:'pending';index"`
	Payout      int64      `gorm:"not null;default:0"`
	FiledAt     time.Time  `gorm:"not null"`
	ProcessedAt *time.Time
	ProcessedBy string     `gorm:"type:text"`
}

func (InsuranceClaim) TableName() string {
	return "insurance_claims"
}
