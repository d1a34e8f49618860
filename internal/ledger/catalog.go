package ledger

import (
	"context"
	"math"

	"gorm.io/gorm"

	"farmflow/internal/models"
	"farmflow/internal/notify"

	"go.uber.org/zap"
)

type AddCropInput struct {
	Name        string
	BasePrice   int64
	Stock       int64
	ImageRef    string
	LocationRef string

	// Optional coordinates register the crop for scheduled risk refresh.
	Latitude  *float64
	Longitude *float64
}

// AddCrop lists a new crop owned by the caller. Ids are sequential from 1,
// the current price starts at the base price, and the risk score at zero.
// Crop names are not unique.
func (s *Service) AddCrop(ctx context.Context, in AddCropInput, caller string) (uint64, error) {
	if caller == "" {
		return 0, ErrIdentityRequired
	}
	if in.Name == "" || in.BasePrice <= 0 || in.Stock < 0 {
		return 0, ErrInvalidAmount
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	crop := models.Crop{
		Name:            in.Name,
		BasePrice:       in.BasePrice,
		CurrentPrice:    in.BasePrice,
		Stock:           in.Stock,
		Owner:           caller,
		ImageRef:        in.ImageRef,
		LocationRef:     in.LocationRef,
		RiskScore:       0,
		LastPriceUpdate: s.now(),
		Active:          true,
		Latitude:        in.Latitude,
		Longitude:       in.Longitude,
		OracleTracked:   in.Latitude != nil && in.Longitude != nil,
	}
	err := s.repo.InTx(ctx, func(tx *gorm.DB) error {
		return s.repo.CreateCropTx(tx, &crop)
	})
	if err != nil {
		return 0, err
	}

	s.emit(ctx, notify.EventCropAdded, map[string]any{
		"crop_id": crop.ID,
		"name":    crop.Name,
		"price":   crop.CurrentPrice,
		"stock":   crop.Stock,
		"owner":   crop.Owner,
	})
	s.log().Info("crop added",
		zap.Uint64("crop_id", crop.ID),
		zap.String("name", crop.Name),
		zap.String("owner", crop.Owner),
	)
	return crop.ID, nil
}

// AddStock increases stock on a crop owned by the caller. Overflow of the
// stock counter is rejected up front.
func (s *Service) AddStock(ctx context.Context, cropID uint64, amount int64, caller string) error {
	if caller == "" {
		return ErrIdentityRequired
	}
	if amount <= 0 {
		return ErrInvalidAmount
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var stock int64
	err := s.repo.InTx(ctx, func(tx *gorm.DB) error {
		crop, err := s.repo.GetCropTx(tx, cropID)
		if err != nil {
			return err
		}
		if crop == nil {
			return ErrCropNotFound
		}
		if crop.Owner != caller {
			return ErrNotOwner
		}
		if crop.Stock > math.MaxInt64-amount {
			return ErrInvalidAmount
		}
		crop.Stock += amount
		stock = crop.Stock
		return s.repo.SaveCropTx(tx, crop)
	})
	if err != nil {
		return err
	}

	s.emit(ctx, notify.EventStockAdded, map[string]any{
		"crop_id": cropID,
		"amount":  amount,
		"stock":   stock,
	})
	return nil
}

// ChangePrice is the owner's manual override: it rewrites both the base and
// the current price, bypassing the risk-derived value until the next risk
// update recomputes it from the new base.
func (s *Service) ChangePrice(ctx context.Context, cropID uint64, newPrice int64, caller string) error {
	if caller == "" {
		return ErrIdentityRequired
	}
	if newPrice <= 0 {
		return ErrInvalidAmount
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var prev int64
	err := s.repo.InTx(ctx, func(tx *gorm.DB) error {
		crop, err := s.repo.GetCropTx(tx, cropID)
		if err != nil {
			return err
		}
		if crop == nil {
			return ErrCropNotFound
		}
		if crop.Owner != caller {
			return ErrNotOwner
		}
		prev = crop.CurrentPrice
		crop.BasePrice = newPrice
		crop.CurrentPrice = newPrice
		crop.LastPriceUpdate = s.now()
		if err := s.repo.SaveCropTx(tx, crop); err != nil {
			return err
		}
		return s.repo.CreatePriceUpdateTx(tx, &models.PriceUpdate{
			CropID:    crop.ID,
			PrevPrice: prev,
			NewPrice:  newPrice,
			RiskScore: crop.RiskScore,
			Source:    models.PriceSourceManual,
			CreatedAt: s.now(),
		})
	})
	if err != nil {
		return err
	}

	s.emit(ctx, notify.EventPriceChanged, map[string]any{
		"crop_id":    cropID,
		"prev_price": prev,
		"new_price":  newPrice,
		"source":     models.PriceSourceManual,
	})
	return nil
}

// DeactivateCrop is a one-way soft delete; there is no reactivation.
func (s *Service) DeactivateCrop(ctx context.Context, cropID uint64, caller string) error {
	if caller == "" {
		return ErrIdentityRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.repo.InTx(ctx, func(tx *gorm.DB) error {
		crop, err := s.repo.GetCropTx(tx, cropID)
		if err != nil {
			return err
		}
		if crop == nil {
			return ErrCropNotFound
		}
		if crop.Owner != caller {
			return ErrNotOwner
		}
		crop.Active = false
		return s.repo.SaveCropTx(tx, crop)
	})
	if err != nil {
		return err
	}

	s.emit(ctx, notify.EventCropDeactivated, map[string]any{
		"crop_id": cropID,
		"owner":   caller,
	})
	return nil
}
