package ledger

import (
	"context"
	"math"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"farmflow/internal/models"
	"farmflow/internal/notify"

	"go.uber.org/zap"
)

// RiskScale is the upper bound of the risk index. A score of 0 (lowest risk)
// yields a 50% premium over the base price; RiskScale yields the base price.
const RiskScale = 1000

// PriceForRisk derives the current price from the base price and a risk
// score in [0,RiskScale], truncating at each division:
//
//	multiplier = 1000 + (1000-riskScore)*500/1000
//	price      = basePrice * multiplier / 1000
func PriceForRisk(basePrice, riskScore int64) int64 {
	multiplier := int64(1000) + (RiskScale-riskScore)*500/RiskScale
	return basePrice * multiplier / 1000
}

// UpdateCropRisk applies an externally supplied risk score and recomputes the
// current price. Only the crop owner or the configured risk oracle may call
// it, and scores outside [0,RiskScale] are rejected rather than wrapped.
// Inputs, when present, is recorded with the price-update row for audit.
func (s *Service) UpdateCropRisk(ctx context.Context, cropID uint64, riskScore int64, caller string, inputs []byte) error {
	if caller == "" {
		return ErrIdentityRequired
	}
	if riskScore < 0 || riskScore > RiskScale {
		return ErrRiskOutOfRange
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var prev, next int64
	err := s.repo.InTx(ctx, func(tx *gorm.DB) error {
		crop, err := s.repo.GetCropTx(tx, cropID)
		if err != nil {
			return err
		}
		if crop == nil {
			return ErrCropNotFound
		}
		if caller != crop.Owner && caller != s.cfg.OracleIdentity {
			return ErrUnauthorized
		}
		// basePrice*1500 must stay in range.
		if crop.BasePrice > math.MaxInt64/1500 {
			return ErrInvalidAmount
		}
		prev = crop.CurrentPrice
		next = PriceForRisk(crop.BasePrice, riskScore)
		crop.CurrentPrice = next
		crop.RiskScore = riskScore
		crop.LastPriceUpdate = s.now()
		if len(inputs) > 0 {
			crop.OracleState = datatypes.JSON(inputs)
		}
		if err := s.repo.SaveCropTx(tx, crop); err != nil {
			return err
		}
		return s.repo.CreatePriceUpdateTx(tx, &models.PriceUpdate{
			CropID:    crop.ID,
			PrevPrice: prev,
			NewPrice:  next,
			RiskScore: riskScore,
			Source:    models.PriceSourceRisk,
			Inputs:    datatypes.JSON(inputs),
			CreatedAt: s.now(),
		})
	})
	if err != nil {
		return err
	}

	s.emit(ctx, notify.EventPriceChanged, map[string]any{
		"crop_id":    cropID,
		"prev_price": prev,
		"new_price":  next,
		"risk_score": riskScore,
		"source":     models.PriceSourceRisk,
	})
	s.log().Debug("risk score applied",
		zap.Uint64("crop_id", cropID),
		zap.Int64("risk_score", riskScore),
		zap.Int64("price", next),
	)
	return nil
}
