package models

import "time"

// Purchase is an immutable sale record, written exactly once per successful
// buy. Both the buyer and the farmer history are views over this table.
type Purchase struct {
	ID         uint64    `gorm:"primaryKey;autoIncrement"`
	CropID     uint64    `gorm:"not null;index"`
	CropName   string    `gorm:"type:text;not null"`
	Quantity   int64     `gorm:"not null"`
	TotalPrice int64     `gorm:"not null"`
	Buyer      string    `gorm:"type:text;not null;index"`
	Farmer     string    `gorm:"type:text;not null;index"`
	CreatedAt  time.Time `gorm:"not null;index"`
}

func (Purchase) TableName() string {
	return "purchases"
}
