// Package query is the read side: deterministic, non-mutating views over the
// catalog, the purchase histories, and the insurance pool. Lookups for ids
// that do not exist return zero-valued snapshots, not errors.
package query

import (
	"context"
	"encoding/json"

	"github.com/shopspring/decimal"

	"farmflow/internal/models"
	"farmflow/internal/repository"
)

type Service struct {
	Repo      repository.Repository
	Cache     *Cache
	Authority string
}

// CropSnapshot is the public view of a crop.
type CropSnapshot struct {
	ID           uint64 `json:"id"`
	Name         string `json:"name"`
	BasePrice    int64  `json:"base_price"`
	CurrentPrice int64  `json:"current_price"`
	Stock        int64  `json:"stock"`
	Owner        string `json:"owner"`
	ImageRef     string `json:"image_ref,omitempty"`
	LocationRef  string `json:"location_ref,omitempty"`
	RiskScore    int64  `json:"risk_score"`
	Active       bool   `json:"active"`
}

func snapshotOf(crop *models.Crop) CropSnapshot {
	if crop == nil {
		return CropSnapshot{}
	}
	return CropSnapshot{
		ID:           crop.ID,
		Name:         crop.Name,
		BasePrice:    crop.BasePrice,
		CurrentPrice: crop.CurrentPrice,
		Stock:        crop.Stock,
		Owner:        crop.Owner,
		ImageRef:     crop.ImageRef,
		LocationRef:  crop.LocationRef,
		RiskScore:    crop.RiskScore,
		Active:       crop.Active,
	}
}

// GetCrop returns the crop snapshot, consulting the cache first when one is
// configured. A missing id yields the zero snapshot.
func (s *Service) GetCrop(ctx context.Context, id uint64) (CropSnapshot, error) {
	if raw, ok := s.Cache.GetCrop(ctx, id); ok {
		var snap CropSnapshot
		if err := json.Unmarshal(raw, &snap); err == nil {
			return snap, nil
		}
	}
	crop, err := s.Repo.GetCrop(ctx, id)
	if err != nil {
		return CropSnapshot{}, err
	}
	snap := snapshotOf(crop)
	if crop != nil {
		if raw, err := json.Marshal(snap); err == nil {
			s.Cache.SetCrop(ctx, id, raw)
		}
	}
	return snap, nil
}

func (s *Service) ListCrops(ctx context.Context, params repository.ListCropsParams) ([]CropSnapshot, int64, error) {
	items, err := s.Repo.ListCrops(ctx, params)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.Repo.CountCrops(ctx, params)
	if err != nil {
		return nil, 0, err
	}
	out := make([]CropSnapshot, 0, len(items))
	for i := range items {
		out = append(out, snapshotOf(&items[i]))
	}
	return out, total, nil
}

// PendingClaims lists unadjudicated claims in stable ascending id order.
func (s *Service) PendingClaims(ctx context.Context, limit, offset int) ([]models.InsuranceClaim, int64, error) {
	status := models.ClaimStatusPending
	params := repository.ListClaimsParams{Status: &status, Limit: limit, Offset: offset}
	items, err := s.Repo.ListClaims(ctx, params)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.Repo.CountClaims(ctx, params)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (s *Service) FarmerClaims(ctx context.Context, farmer string, limit, offset int) ([]models.InsuranceClaim, int64, error) {
	params := repository.ListClaimsParams{Farmer: &farmer, Limit: limit, Offset: offset}
	items, err := s.Repo.ListClaims(ctx, params)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.Repo.CountClaims(ctx, params)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (s *Service) GetClaim(ctx context.Context, id uint64) (models.InsuranceClaim, error) {
	claim, err := s.Repo.GetClaim(ctx, id)
	if err != nil || claim == nil {
		return models.InsuranceClaim{}, err
	}
	return *claim, nil
}

func (s *Service) Purchases(ctx context.Context, params repository.ListPurchasesParams) ([]models.Purchase, int64, error) {
	items, err := s.Repo.ListPurchases(ctx, params)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.Repo.CountPurchases(ctx, params)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// PolicyFor returns the zero policy when the farmer never purchased one.
func (s *Service) PolicyFor(ctx context.Context, farmer string) (models.InsurancePolicy, error) {
	policy, err := s.Repo.GetPolicy(ctx, farmer)
	if err != nil || policy == nil {
		return models.InsurancePolicy{}, err
	}
	return *policy, nil
}

func (s *Service) AuthorityIdentity() string {
	return s.Authority
}

type Balances struct {
	Buyer  int64 `json:"buyer"`
	Farmer int64 `json:"farmer"`
}

func (s *Service) BalancesFor(ctx context.Context, identity string) (Balances, error) {
	buyer, err := s.Repo.GetBalance(ctx, models.NamespaceBuyer, identity)
	if err != nil {
		return Balances{}, err
	}
	farmer, err := s.Repo.GetBalance(ctx, models.NamespaceFarmer, identity)
	if err != nil {
		return Balances{}, err
	}
	return Balances{Buyer: buyer, Farmer: farmer}, nil
}

func (s *Service) PoolBalance(ctx context.Context) (int64, error) {
	return s.Repo.GetBalance(ctx, models.NamespacePool, models.PoolIdentity)
}

// MarketSummary aggregates the marketplace and pool into fractional figures
// for dashboards; the ledger itself never leaves integer arithmetic.
type MarketSummary struct {
	Purchases         int64           `json:"purchases"`
	UnitsSold         int64           `json:"units_sold"`
	GrossValue        int64           `json:"gross_value"`
	AvgSalePrice      decimal.Decimal `json:"avg_sale_price"`
	BuyerFunds        int64           `json:"buyer_funds"`
	FarmerFunds       int64           `json:"farmer_funds"`
	PoolBalance       int64           `json:"pool_balance"`
	ActivePolicies    int64           `json:"active_policies"`
	PendingClaims     int64           `json:"pending_claims"`
	PoolPremiumCover  decimal.Decimal `json:"pool_premium_cover"`
}

func (s *Service) Summary(ctx context.Context, premium int64) (MarketSummary, error) {
	row, err := s.Repo.MarketSummary(ctx)
	if err != nil {
		return MarketSummary{}, err
	}
	buyerFunds, err := s.Repo.SumBalances(ctx, models.NamespaceBuyer)
	if err != nil {
		return MarketSummary{}, err
	}
	farmerFunds, err := s.Repo.SumBalances(ctx, models.NamespaceFarmer)
	if err != nil {
		return MarketSummary{}, err
	}
	pool, err := s.PoolBalance(ctx)
	if err != nil {
		return MarketSummary{}, err
	}
	activePolicies, err := s.Repo.CountActivePolicies(ctx)
	if err != nil {
		return MarketSummary{}, err
	}
	pendingStatus := models.ClaimStatusPending
	pendingClaims, err := s.Repo.CountClaims(ctx, repository.ListClaimsParams{Status: &pendingStatus})
	if err != nil {
		return MarketSummary{}, err
	}

	out := MarketSummary{
		Purchases:      row.Purchases,
		UnitsSold:      row.Volume,
		GrossValue:     row.GrossValue,
		BuyerFunds:     buyerFunds,
		FarmerFunds:    farmerFunds,
		PoolBalance:    pool,
		ActivePolicies: activePolicies,
		PendingClaims:  pendingClaims,
	}
	if row.Volume > 0 {
		out.AvgSalePrice = decimal.NewFromInt(row.GrossValue).
			Div(decimal.NewFromInt(row.Volume)).Round(4)
	}
	if activePolicies > 0 && premium > 0 {
		// How many premiums the pool currently holds per active policy.
		out.PoolPremiumCover = decimal.NewFromInt(pool).
			Div(decimal.NewFromInt(activePolicies * premium)).Round(4)
	}
	return out, nil
}
