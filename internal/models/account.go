package models

import "time"

// Balance namespaces. One identity may hold a balance in several namespaces
// at once (a farmer who also buys); the ledgers never mix.
const (
	NamespaceBuyer  = "buyer"
	NamespaceFarmer = "farmer"
	NamespacePool   = "pool"
)

// PoolIdentity is the single account in the pool namespace.
const PoolIdentity = "insurance-pool"

// Account holds one non-negative balance per (namespace, identity).
type Account struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	Namespace string    `gorm:"type:text;not null;uniqueIndex:idx_accounts_ns_identity"`
	Identity  string    `gorm:"type:text;not null;uniqueIndex:idx_accounts_ns_identity"`
	Balance   int64     `gorm:"not null;default:0"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (Account) TableName() string {
	return "accounts"
}
