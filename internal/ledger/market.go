package ledger

import (
	"context"
	"math"

	"gorm.io/gorm"

	"farmflow/internal/models"
	"farmflow/internal/notify"

	"go.uber.org/zap"
)

// BuyCrop executes an all-or-nothing purchase. Preconditions are checked in
// a fixed order with the first failure winning: crop active, buyer funds
// (a balance exactly equal to the total passes), then stock. The buyer debit,
// farmer credit, stock decrement and purchase record commit as one unit, so
// the sum of buyer and farmer balances is conserved.
func (s *Service) BuyCrop(ctx context.Context, cropID uint64, qty int64, caller string) (*models.Purchase, error) {
	if caller == "" {
		return nil, ErrIdentityRequired
	}
	if qty <= 0 {
		return nil, ErrInvalidAmount
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var purchase models.Purchase
	err := s.repo.InTx(ctx, func(tx *gorm.DB) error {
		crop, err := s.repo.GetCropTx(tx, cropID)
		if err != nil {
			return err
		}
		if crop == nil {
			return ErrCropNotFound
		}
		if !crop.Active {
			return ErrCropInactive
		}
		if crop.CurrentPrice > 0 && qty > math.MaxInt64/crop.CurrentPrice {
			return ErrInvalidAmount
		}
		total := qty * crop.CurrentPrice

		balance, err := s.repo.GetBalanceTx(tx, models.NamespaceBuyer, caller)
		if err != nil {
			return err
		}
		if balance < total {
			return ErrInsufficientBuyerFunds
		}
		if crop.Stock < qty {
			return ErrInsufficientStock
		}

		if err := s.repo.AdjustBalanceTx(tx, models.NamespaceBuyer, caller, -total); err != nil {
			return err
		}
		if err := s.repo.AdjustBalanceTx(tx, models.NamespaceFarmer, crop.Owner, total); err != nil {
			return err
		}
		crop.Stock -= qty
		if err := s.repo.SaveCropTx(tx, crop); err != nil {
			return err
		}
		purchase = models.Purchase{
			CropID:     crop.ID,
			CropName:   crop.Name,
			Quantity:   qty,
			TotalPrice: total,
			Buyer:      caller,
			Farmer:     crop.Owner,
			CreatedAt:  s.now(),
		}
		return s.repo.CreatePurchaseTx(tx, &purchase)
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, notify.EventPurchase, map[string]any{
		"crop_id":     purchase.CropID,
		"crop_name":   purchase.CropName,
		"quantity":    purchase.Quantity,
		"total_price": purchase.TotalPrice,
		"buyer":       purchase.Buyer,
		"farmer":      purchase.Farmer,
	})
	s.log().Info("purchase",
		zap.Uint64("crop_id", purchase.CropID),
		zap.Int64("quantity", purchase.Quantity),
		zap.Int64("total", purchase.TotalPrice),
		zap.String("buyer", purchase.Buyer),
	)
	return &purchase, nil
}

// TopUpBalance credits the caller's buyer balance unconditionally. It stands
// in for an external payment rail.
func (s *Service) TopUpBalance(ctx context.Context, caller string, amount int64) error {
	if caller == "" {
		return ErrIdentityRequired
	}
	if amount <= 0 {
		return ErrInvalidAmount
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.repo.InTx(ctx, func(tx *gorm.DB) error {
		balance, err := s.repo.GetBalanceTx(tx, models.NamespaceBuyer, caller)
		if err != nil {
			return err
		}
		if balance > math.MaxInt64-amount {
			return ErrInvalidAmount
		}
		return s.repo.AdjustBalanceTx(tx, models.NamespaceBuyer, caller, amount)
	})
	if err != nil {
		return err
	}

	s.emit(ctx, notify.EventBalanceTopUp, map[string]any{
		"buyer":  caller,
		"amount": amount,
	})
	return nil
}

// WithdrawFarmerBalance debits the caller's farmer balance. The external
// payout rail is out of scope; the ledger only enforces sufficiency.
func (s *Service) WithdrawFarmerBalance(ctx context.Context, caller string, amount int64) error {
	if caller == "" {
		return ErrIdentityRequired
	}
	if amount <= 0 {
		return ErrInvalidAmount
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.repo.InTx(ctx, func(tx *gorm.DB) error {
		balance, err := s.repo.GetBalanceTx(tx, models.NamespaceFarmer, caller)
		if err != nil {
			return err
		}
		if balance < amount {
			return ErrInsufficientFarmerFunds
		}
		return s.repo.AdjustBalanceTx(tx, models.NamespaceFarmer, caller, -amount)
	})
	if err != nil {
		return err
	}

	s.emit(ctx, notify.EventBalanceWithdrawn, map[string]any{
		"farmer": caller,
		"amount": amount,
	})
	return nil
}
