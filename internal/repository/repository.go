package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"farmflow/internal/models"
)

// ListPurchasesParams filters the purchase history. Buyer and Farmer are
// independent filters; either view is a slice of the same immutable table.
type ListPurchasesParams struct {
	Buyer   *string
	Farmer  *string
	Since   *time.Time
	Limit   int
	Offset  int
	OrderBy string
	Asc     *bool
}

type ListCropsParams struct {
	Owner         *string
	ActiveOnly    bool
	AvailableOnly bool
	Limit         int
	Offset        int
	OrderBy       string
	Asc           *bool
}

type ListClaimsParams struct {
	Farmer *string
	Status *string
	Limit  int
	Offset int
}

type ListPriceUpdatesParams struct {
	CropID *uint64
	Source *string
	Limit  int
	Offset int
}

// MarketSummaryRow feeds the reporting aggregates.
type MarketSummaryRow struct {
	Purchases  int64
	Volume     int64
	GrossValue int64
}

// Repository is the single store behind catalog, ledger, insurance and the
// query layer. Mutations run through Tx variants inside InTx so that every
// operation commits or aborts as one unit.
type Repository interface {
	InTx(ctx context.Context, fn func(tx *gorm.DB) error) error

	// Crops.
	CreateCropTx(tx *gorm.DB, item *models.Crop) error
	GetCropTx(tx *gorm.DB, id uint64) (*models.Crop, error)
	SaveCropTx(tx *gorm.DB, item *models.Crop) error
	GetCrop(ctx context.Context, id uint64) (*models.Crop, error)
	ListCrops(ctx context.Context, params ListCropsParams) ([]models.Crop, error)
	CountCrops(ctx context.Context, params ListCropsParams) (int64, error)
	ListOracleTrackedCrops(ctx context.Context) ([]models.Crop, error)

	// Accounts.
	GetBalanceTx(tx *gorm.DB, namespace, identity string) (int64, error)
	AdjustBalanceTx(tx *gorm.DB, namespace, identity string, delta int64) error
	GetBalance(ctx context.Context, namespace, identity string) (int64, error)
	SumBalances(ctx context.Context, namespace string) (int64, error)

	// Purchases.
	CreatePurchaseTx(tx *gorm.DB, item *models.Purchase) error
	ListPurchases(ctx context.Context, params ListPurchasesParams) ([]models.Purchase, error)
	CountPurchases(ctx context.Context, params ListPurchasesParams) (int64, error)
	MarketSummary(ctx context.Context) (MarketSummaryRow, error)

	// Insurance.
	GetPolicyTx(tx *gorm.DB, farmer string) (*models.InsurancePolicy, error)
	SavePolicyTx(tx *gorm.DB, item *models.InsurancePolicy) error
	GetPolicy(ctx context.Context, farmer string) (*models.InsurancePolicy, error)
	CountActivePolicies(ctx context.Context) (int64, error)

	// Claims.
	CreateClaimTx(tx *gorm.DB, item *models.InsuranceClaim) error
	GetClaimTx(tx *gorm.DB, id uint64) (*models.InsuranceClaim, error)
	SaveClaimTx(tx *gorm.DB, item *models.InsuranceClaim) error
	GetClaim(ctx context.Context, id uint64) (*models.InsuranceClaim, error)
	ListClaims(ctx context.Context, params ListClaimsParams) ([]models.InsuranceClaim, error)
	CountClaims(ctx context.Context, params ListClaimsParams) (int64, error)

	// Price audit trail.
	CreatePriceUpdateTx(tx *gorm.DB, item *models.PriceUpdate) error
	ListPriceUpdates(ctx context.Context, params ListPriceUpdatesParams) ([]models.PriceUpdate, error)
}
