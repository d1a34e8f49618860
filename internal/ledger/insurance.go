package ledger

import (
	"context"

	"gorm.io/gorm"

	"farmflow/internal/models"
	"farmflow/internal/notify"

	"go.uber.org/zap"
)

// PurchaseInsurance moves the fixed premium from the caller's farmer balance
// into the insurance pool and opens a policy with coverage = premium *
// multiplier. The per-farmer policy state machine is NoPolicy -> Active ->
// Inactive with no re-entry: a farmer whose policy was exhausted by an
// approved claim cannot purchase again.
func (s *Service) PurchaseInsurance(ctx context.Context, caller string) (*models.InsurancePolicy, error) {
	if caller == "" {
		return nil, ErrIdentityRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	premium := s.cfg.Premium
	coverage := premium * s.cfg.CoverageMultiplier

	var policy models.InsurancePolicy
	err := s.repo.InTx(ctx, func(tx *gorm.DB) error {
		balance, err := s.repo.GetBalanceTx(tx, models.NamespaceFarmer, caller)
		if err != nil {
			return err
		}
		if balance < premium {
			return ErrInsufficientFarmerFunds
		}
		existing, err := s.repo.GetPolicyTx(tx, caller)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrAlreadyInsured
		}

		if err := s.repo.AdjustBalanceTx(tx, models.NamespaceFarmer, caller, -premium); err != nil {
			return err
		}
		if err := s.repo.AdjustBalanceTx(tx, models.NamespacePool, models.PoolIdentity, premium); err != nil {
			return err
		}
		policy = models.InsurancePolicy{
			Farmer:      caller,
			Premium:     premium,
			Coverage:    coverage,
			PurchasedAt: s.now(),
			Active:      true,
		}
		return s.repo.SavePolicyTx(tx, &policy)
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, notify.EventPolicyPurchased, map[string]any{
		"farmer":   caller,
		"premium":  premium,
		"coverage": coverage,
	})
	s.log().Info("policy purchased",
		zap.String("farmer", caller),
		zap.Int64("premium", premium),
		zap.Int64("coverage", coverage),
	)
	return &policy, nil
}

type SubmitClaimInput struct {
	CropID      uint64
	Amount      int64
	Reason      string
	EvidenceRef string
}

// SubmitClaim files a claim against the caller's active policy for a crop the
// caller owns. Claim ids are sequential from 1 and the claim starts Pending.
func (s *Service) SubmitClaim(ctx context.Context, in SubmitClaimInput, caller string) (*models.InsuranceClaim, error) {
	if caller == "" {
		return nil, ErrIdentityRequired
	}
	if in.Amount <= 0 {
		return nil, ErrInvalidAmount
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var claim models.InsuranceClaim
	err := s.repo.InTx(ctx, func(tx *gorm.DB) error {
		policy, err := s.repo.GetPolicyTx(tx, caller)
		if err != nil {
			return err
		}
		if policy == nil || !policy.Active {
			return ErrNoActivePolicy
		}
		crop, err := s.repo.GetCropTx(tx, in.CropID)
		if err != nil {
			return err
		}
		if crop == nil {
			return ErrCropNotFound
		}
		if crop.Owner != caller {
			return ErrNotOwner
		}
		if in.Amount > policy.Coverage {
			return ErrExceedsCoverage
		}

		claim = models.InsuranceClaim{
			Farmer:      caller,
			CropID:      in.CropID,
			Amount:      in.Amount,
			Reason:      in.Reason,
			EvidenceRef: in.EvidenceRef,
			Status:      models.ClaimStatusPending,
			FiledAt:     s.now(),
		}
		return s.repo.CreateClaimTx(tx, &claim)
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, notify.EventClaimSubmitted, map[string]any{
		"claim_id": claim.ID,
		"farmer":   claim.Farmer,
		"crop_id":  claim.CropID,
		"amount":   claim.Amount,
	})
	return &claim, nil
}

// ProcessClaim adjudicates a pending claim. Only the insurance authority may
// call it. Approval pays the claim amount from the pool to the farmer and
// deactivates the policy regardless of remaining coverage; one claim exhausts
// a policy. Rejection changes only the status. Either way the claim is
// terminal afterwards.
func (s *Service) ProcessClaim(ctx context.Context, claimID uint64, approve bool, caller string) (*models.InsuranceClaim, error) {
	if caller == "" {
		return nil, ErrIdentityRequired
	}
	if caller != s.cfg.Authority {
		return nil, ErrUnauthorized
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var claim *models.InsuranceClaim
	err := s.repo.InTx(ctx, func(tx *gorm.DB) error {
		var err error
		claim, err = s.repo.GetClaimTx(tx, claimID)
		if err != nil {
			return err
		}
		if claim == nil {
			return ErrClaimNotFound
		}
		if claim.Status != models.ClaimStatusPending {
			return ErrAlreadyProcessed
		}

		now := s.now()
		claim.ProcessedAt = &now
		claim.ProcessedBy = caller

		if !approve {
			claim.Status = models.ClaimStatusRejected
			return s.repo.SaveClaimTx(tx, claim)
		}

		pool, err := s.repo.GetBalanceTx(tx, models.NamespacePool, models.PoolIdentity)
		if err != nil {
			return err
		}
		if pool < claim.Amount {
			return ErrInsufficientPoolFunds
		}
		if err := s.repo.AdjustBalanceTx(tx, models.NamespacePool, models.PoolIdentity, -claim.Amount); err != nil {
			return err
		}
		if err := s.repo.AdjustBalanceTx(tx, models.NamespaceFarmer, claim.Farmer, claim.Amount); err != nil {
			return err
		}

		policy, err := s.repo.GetPolicyTx(tx, claim.Farmer)
		if err != nil {
			return err
		}
		if policy != nil && policy.Active {
			policy.Active = false
			policy.ClosedAt = &now
			if err := s.repo.SavePolicyTx(tx, policy); err != nil {
				return err
			}
		}

		claim.Status = models.ClaimStatusApproved
		claim.Payout = claim.Amount
		return s.repo.SaveClaimTx(tx, claim)
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, notify.EventClaimProcessed, map[string]any{
		"claim_id": claim.ID,
		"farmer":   claim.Farmer,
		"status":   claim.Status,
		"payout":   claim.Payout,
	})
	s.log().Info("claim processed",
		zap.Uint64("claim_id", claim.ID),
		zap.String("status", claim.Status),
		zap.Int64("payout", claim.Payout),
	)
	return claim, nil
}
