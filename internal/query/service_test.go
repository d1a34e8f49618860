package query

import (
	"bytes"
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"farmflow/internal/config"
	"farmflow/internal/ledger"
	"farmflow/internal/models"
	"farmflow/internal/repository"
	gormrepository "farmflow/internal/repository/gorm"
)

func newTestServices(t *testing.T) (*Service, *ledger.Service) {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := gdb.AutoMigrate(
		&models.Crop{},
		&models.Account{},
		&models.Purchase{},
		&models.InsurancePolicy{},
		&models.InsuranceClaim{},
		&models.PriceUpdate{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	store := gormrepository.New(gdb)
	led := ledger.New(store, nil, nil, config.LedgerConfig{
		Premium:            100,
		CoverageMultiplier: 10,
		Authority:          "authority",
		OracleIdentity:     "risk-oracle",
	})
	return &Service{Repo: store, Authority: "authority"}, led
}

func TestGetCropMissingReturnsZeroSnapshot(t *testing.T) {
	q, _ := newTestServices(t)

	snap, err := q.GetCrop(context.Background(), 42)
	if err != nil {
		t.Fatalf("get crop: %v", err)
	}
	if snap != (CropSnapshot{}) {
		t.Fatalf("snapshot=%+v want zero value", snap)
	}
}

func TestPolicyForMissingReturnsZeroPolicy(t *testing.T) {
	q, _ := newTestServices(t)

	policy, err := q.PolicyFor(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("policy: %v", err)
	}
	if policy.Farmer != "" || policy.Active {
		t.Fatalf("policy=%+v want zero value", policy)
	}
}

func TestSummaryAggregates(t *testing.T) {
	q, led := newTestServices(t)
	ctx := context.Background()

	id, err := led.AddCrop(ctx, ledger.AddCropInput{Name: "Apple", BasePrice: 100, Stock: 20}, "farmer-1")
	if err != nil {
		t.Fatalf("add crop: %v", err)
	}
	if err := led.TopUpBalance(ctx, "buyer-1", 2000); err != nil {
		t.Fatalf("topup: %v", err)
	}
	if _, err := led.BuyCrop(ctx, id, 3, "buyer-1"); err != nil {
		t.Fatalf("buy: %v", err)
	}
	if _, err := led.BuyCrop(ctx, id, 4, "buyer-1"); err != nil {
		t.Fatalf("buy: %v", err)
	}
	if _, err := led.PurchaseInsurance(ctx, "farmer-1"); err != nil {
		t.Fatalf("insure: %v", err)
	}

	sum, err := q.Summary(ctx, 100)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if sum.Purchases != 2 || sum.UnitsSold != 7 || sum.GrossValue != 700 {
		t.Fatalf("summary=%+v want 2 purchases, 7 units, 700 gross", sum)
	}
	if !sum.AvgSalePrice.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("avg=%s want 100", sum.AvgSalePrice)
	}
	if sum.BuyerFunds != 1300 || sum.FarmerFunds != 600 || sum.PoolBalance != 100 {
		t.Fatalf("funds=%+v want 1300/600/100", sum)
	}
	if sum.ActivePolicies != 1 {
		t.Fatalf("active policies=%d want=1", sum.ActivePolicies)
	}
	// One premium in the pool, one active policy.
	if !sum.PoolPremiumCover.Equal(decimal.NewFromInt(1)) {
		t.Fatalf("cover=%s want 1", sum.PoolPremiumCover)
	}
}

func TestSummaryEmptyMarket(t *testing.T) {
	q, _ := newTestServices(t)

	sum, err := q.Summary(context.Background(), 100)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if sum.Purchases != 0 || !sum.AvgSalePrice.IsZero() || !sum.PoolPremiumCover.IsZero() {
		t.Fatalf("summary=%+v want zeros", sum)
	}
}

func TestPendingClaimsOrderedAscending(t *testing.T) {
	q, led := newTestServices(t)
	ctx := context.Background()

	id, err := led.AddCrop(ctx, ledger.AddCropInput{Name: "Apple", BasePrice: 200, Stock: 5}, "farmer-1")
	if err != nil {
		t.Fatalf("add crop: %v", err)
	}
	if err := led.TopUpBalance(ctx, "buyer-1", 1000); err != nil {
		t.Fatalf("topup: %v", err)
	}
	if _, err := led.BuyCrop(ctx, id, 2, "buyer-1"); err != nil {
		t.Fatalf("buy: %v", err)
	}
	if _, err := led.PurchaseInsurance(ctx, "farmer-1"); err != nil {
		t.Fatalf("insure: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := led.SubmitClaim(ctx, ledger.SubmitClaimInput{CropID: id, Amount: 10}, "farmer-1"); err != nil {
			t.Fatalf("claim %d: %v", i, err)
		}
	}

	claims, total, err := q.PendingClaims(ctx, 10, 0)
	if err != nil {
		t.Fatalf("pending claims: %v", err)
	}
	if total != 3 || len(claims) != 3 {
		t.Fatalf("total=%d len=%d want 3/3", total, len(claims))
	}
	for i, c := range claims {
		if c.ID != uint64(i+1) {
			t.Fatalf("claims out of order: %+v", claims)
		}
	}
}

func TestExportPurchasesXLSX(t *testing.T) {
	q, led := newTestServices(t)
	ctx := context.Background()

	id, err := led.AddCrop(ctx, ledger.AddCropInput{Name: "Tomato", BasePrice: 50, Stock: 10}, "farmer-1")
	if err != nil {
		t.Fatalf("add crop: %v", err)
	}
	if err := led.TopUpBalance(ctx, "buyer-1", 500); err != nil {
		t.Fatalf("topup: %v", err)
	}
	if _, err := led.BuyCrop(ctx, id, 4, "buyer-1"); err != nil {
		t.Fatalf("buy: %v", err)
	}

	raw, err := q.ExportPurchasesXLSX(ctx, repository.ListPurchasesParams{})
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	header, err := f.GetCellValue("Purchases", "B1")
	if err != nil {
		t.Fatalf("read header: %v", err)
	}
	if header != "Crop" {
		t.Fatalf("B1=%q want Crop", header)
	}
	name, err := f.GetCellValue("Purchases", "B2")
	if err != nil {
		t.Fatalf("read row: %v", err)
	}
	if name != "Tomato" {
		t.Fatalf("B2=%q want Tomato", name)
	}
	total, err := f.GetCellValue("Purchases", "D2")
	if err != nil {
		t.Fatalf("read total: %v", err)
	}
	if total != "200" {
		t.Fatalf("D2=%q want 200", total)
	}
}
