package gormrepository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"farmflow/internal/models"
	"farmflow/internal/repository"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) InTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(fn)
}

// --- Crops ------------------------------------------------------------------

func (s *Store) CreateCropTx(tx *gorm.DB, item *models.Crop) error {
	if tx == nil || item == nil {
		return nil
	}
	return tx.Create(item).Error
}

func (s *Store) GetCropTx(tx *gorm.DB, id uint64) (*models.Crop, error) {
	var item models.Crop
	err := tx.First(&item, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) SaveCropTx(tx *gorm.DB, item *models.Crop) error {
	if tx == nil || item == nil {
		return nil
	}
	return tx.Save(item).Error
}

func (s *Store) GetCrop(ctx context.Context, id uint64) (*models.Crop, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	return s.GetCropTx(s.db.WithContext(ctx), id)
}

func cropQuery(db *gorm.DB, params repository.ListCropsParams) *gorm.DB {
	query := db.Model(&models.Crop{})
	if params.Owner != nil && strings.TrimSpace(*params.Owner) != "" {
		query = query.Where("owner = ?", strings.TrimSpace(*params.Owner))
	}
	if params.ActiveOnly || params.AvailableOnly {
		query = query.Where("active = ?", true)
	}
	if params.AvailableOnly {
		query = query.Where("stock > 0")
	}
	return query
}

func (s *Store) ListCrops(ctx context.Context, params repository.ListCropsParams) ([]models.Crop, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := cropQuery(s.db.WithContext(ctx), params)
	query = applyOrder(query, params.OrderBy, params.Asc, "id")
	limit := normalizeLimit(params.Limit, 100)
	offset := normalizeOffset(params.Offset)
	items := make([]models.Crop, 0)
	if err := query.Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CountCrops(ctx context.Context, params repository.ListCropsParams) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var total int64
	err := cropQuery(s.db.WithContext(ctx), params).Count(&total).Error
	return total, err
}

func (s *Store) ListOracleTrackedCrops(ctx context.Context) ([]models.Crop, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.Crop
	err := s.db.WithContext(ctx).
		Where("oracle_tracked = ?", true).
		Where("active = ?", true).
		Order("id asc").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// --- Accounts ---------------------------------------------------------------

func (s *Store) GetBalanceTx(tx *gorm.DB, namespace, identity string) (int64, error) {
	var item models.Account
	err := tx.Where("namespace = ? AND identity = ?", namespace, identity).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return item.Balance, nil
}

// AdjustBalanceTx applies a signed delta. Rows are created lazily on first
// credit; the caller is responsible for checking that debits do not drive the
// balance negative before calling. Mutations are serialized by the ledger
// service, so update-then-insert needs no upsert clause.
func (s *Store) AdjustBalanceTx(tx *gorm.DB, namespace, identity string, delta int64) error {
	if tx == nil {
		return nil
	}
	res := tx.Model(&models.Account{}).
		Where("namespace = ? AND identity = ?", namespace, identity).
		Update("balance", gorm.Expr("balance + ?", delta))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}
	return tx.Create(&models.Account{
		Namespace: namespace,
		Identity:  identity,
		Balance:   delta,
	}).Error
}

func (s *Store) GetBalance(ctx context.Context, namespace, identity string) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	return s.GetBalanceTx(s.db.WithContext(ctx), namespace, identity)
}

func (s *Store) SumBalances(ctx context.Context, namespace string) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var total int64
	err := s.db.WithContext(ctx).
		Model(&models.Account{}).
		Where("namespace = ?", namespace).
		Select("COALESCE(SUM(balance), 0)").
		Scan(&total).Error
	return total, err
}

// --- Purchases --------------------------------------------------------------

func (s *Store) CreatePurchaseTx(tx *gorm.DB, item *models.Purchase) error {
	if tx == nil || item == nil {
		return nil
	}
	return tx.Create(item).Error
}

func purchaseQuery(db *gorm.DB, params repository.ListPurchasesParams) *gorm.DB {
	query := db.Model(&models.Purchase{})
	if params.Buyer != nil && strings.TrimSpace(*params.Buyer) != "" {
		query = query.Where("buyer = ?", strings.TrimSpace(*params.Buyer))
	}
	if params.Farmer != nil && strings.TrimSpace(*params.Farmer) != "" {
		query = query.Where("farmer = ?", strings.TrimSpace(*params.Farmer))
	}
	if params.Since != nil && !params.Since.IsZero() {
		query = query.Where("created_at >= ?", *params.Since)
	}
	return query
}

func (s *Store) ListPurchases(ctx context.Context, params repository.ListPurchasesParams) ([]models.Purchase, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := purchaseQuery(s.db.WithContext(ctx), params)
	query = applyOrder(query, params.OrderBy, params.Asc, "id")
	limit := normalizeLimit(params.Limit, 100)
	offset := normalizeOffset(params.Offset)
	items := make([]models.Purchase, 0)
	if err := query.Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CountPurchases(ctx context.Context, params repository.ListPurchasesParams) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var total int64
	err := purchaseQuery(s.db.WithContext(ctx), params).Count(&total).Error
	return total, err
}

func (s *Store) MarketSummary(ctx context.Context) (repository.MarketSummaryRow, error) {
	var row repository.MarketSummaryRow
	if s == nil || s.db == nil {
		return row, nil
	}
	err := s.db.WithContext(ctx).
		Model(&models.Purchase{}).
		Select("COUNT(*) AS purchases, COALESCE(SUM(quantity),0) AS volume, COALESCE(SUM(total_price),0) AS gross_value").
		Scan(&row).Error
	return row, err
}

// --- Insurance policies -----------------------------------------------------

func (s *Store) GetPolicyTx(tx *gorm.DB, farmer string) (*models.InsurancePolicy, error) {
	var item models.InsurancePolicy
	err := tx.First(&item, "farmer = ?", farmer).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) SavePolicyTx(tx *gorm.DB, item *models.InsurancePolicy) error {
	if tx == nil || item == nil {
		return nil
	}
	return tx.Save(item).Error
}

func (s *Store) GetPolicy(ctx context.Context, farmer string) (*models.InsurancePolicy, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	return s.GetPolicyTx(s.db.WithContext(ctx), farmer)
}

func (s *Store) CountActivePolicies(ctx context.Context) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var total int64
	err := s.db.WithContext(ctx).
		Model(&models.InsurancePolicy{}).
		Where("active = ?", true).
		Count(&total).Error
	return total, err
}

// --- Claims -----------------------------------------------------------------

func (s *Store) CreateClaimTx(tx *gorm.DB, item *models.InsuranceClaim) error {
	if tx == nil || item == nil {
		return nil
	}
	return tx.Create(item).Error
}

func (s *Store) GetClaimTx(tx *gorm.DB, id uint64) (*models.InsuranceClaim, error) {
	var item models.InsuranceClaim
	err := tx.First(&item, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) SaveClaimTx(tx *gorm.DB, item *models.InsuranceClaim) error {
	if tx == nil || item == nil {
		return nil
	}
	return tx.Save(item).Error
}

func (s *Store) GetClaim(ctx context.Context, id uint64) (*models.InsuranceClaim, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	return s.GetClaimTx(s.db.WithContext(ctx), id)
}

func claimQuery(db *gorm.DB, params repository.ListClaimsParams) *gorm.DB {
	query := db.Model(&models.InsuranceClaim{})
	if params.Farmer != nil && strings.TrimSpace(*params.Farmer) != "" {
		query = query.Where("farmer = ?", strings.TrimSpace(*params.Farmer))
	}
	if params.Status != nil && strings.TrimSpace(*params.Status) != "" {
		query = query.Where("status = ?", strings.TrimSpace(*params.Status))
	}
	return query
}

// ListClaims always returns ascending claim id so pending-claim and
// per-farmer views have a stable order.
func (s *Store) ListClaims(ctx context.Context, params repository.ListClaimsParams) ([]models.InsuranceClaim, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := claimQuery(s.db.WithContext(ctx), params).Order("id asc")
	limit := normalizeLimit(params.Limit, 100)
	offset := normalizeOffset(params.Offset)
	items := make([]models.InsuranceClaim, 0)
	if err := query.Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CountClaims(ctx context.Context, params repository.ListClaimsParams) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var total int64
	err := claimQuery(s.db.WithContext(ctx), params).Count(&total).Error
	return total, err
}

// --- Price updates ----------------------------------------------------------

func (s *Store) CreatePriceUpdateTx(tx *gorm.DB, item *models.PriceUpdate) error {
	if tx == nil || item == nil {
		return nil
	}
	return tx.Create(item).Error
}

func (s *Store) ListPriceUpdates(ctx context.Context, params repository.ListPriceUpdatesParams) ([]models.PriceUpdate, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.db.WithContext(ctx).Model(&models.PriceUpdate{})
	if params.CropID != nil && *params.CropID > 0 {
		query = query.Where("crop_id = ?", *params.CropID)
	}
	if params.Source != nil && strings.TrimSpace(*params.Source) != "" {
		query = query.Where("source = ?", strings.TrimSpace(*params.Source))
	}
	limit := normalizeLimit(params.Limit, 100)
	offset := normalizeOffset(params.Offset)
	items := make([]models.PriceUpdate, 0)
	if err := query.Order("id desc").Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// --- Helpers ----------------------------------------------------------------

func normalizeLimit(limit, def int) int {
	if limit <= 0 {
		return def
	}
	if limit > 10000 {
		return 10000
	}
	return limit
}

func normalizeOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}

func applyOrder(query *gorm.DB, orderBy string, asc *bool, def string) *gorm.DB {
	col := strings.TrimSpace(strings.ToLower(orderBy))
	switch col {
	case "id", "created_at", "name", "current_price":
	default:
		col = def
	}
	dir := "asc"
	if asc != nil && !*asc {
		dir = "desc"
	}
	return query.Order(col + " " + dir)
}
