package ledger

import "errors"

// Precondition failures. Every one of them aborts the whole operation with
// zero state change; none is retriable from inside the core.
var (
	ErrNotOwner                = errors.New("caller does not own the crop")
	ErrCropInactive            = errors.New("crop is not active")
	ErrInsufficientBuyerFunds  = errors.New("insufficient buyer balance")
	ErrInsufficientStock       = errors.New("insufficient stock")
	ErrInsufficientFarmerFunds = errors.New("insufficient farmer balance")
	ErrAlreadyInsured          = errors.New("farmer already holds an active policy")
	ErrNoActivePolicy          = errors.New("farmer has no active policy")
	ErrExceedsCoverage         = errors.New("claim amount exceeds policy coverage")
	ErrAlreadyProcessed        = errors.New("claim already processed")
	ErrUnauthorized            = errors.New("caller is not authorized")
	ErrInsufficientPoolFunds   = errors.New("insufficient insurance pool balance")
)

// Input-validation failures. Overflow and range violations are rejected up
// front rather than wrapped silently.
var (
	ErrInvalidAmount    = errors.New("amount must be positive and within range")
	ErrRiskOutOfRange   = errors.New("risk score must be within [0,1000]")
	ErrCropNotFound     = errors.New("crop not found")
	ErrClaimNotFound    = errors.New("claim not found")
	ErrIdentityRequired = errors.New("caller identity required")
)

// IsPrecondition reports whether err belongs to the ledger failure taxonomy,
// as opposed to an infrastructure fault.
func IsPrecondition(err error) bool {
	for _, e := range []error{
		ErrNotOwner, ErrCropInactive, ErrInsufficientBuyerFunds,
		ErrInsufficientStock, ErrInsufficientFarmerFunds, ErrAlreadyInsured,
		ErrNoActivePolicy, ErrExceedsCoverage, ErrAlreadyProcessed,
		ErrUnauthorized, ErrInsufficientPoolFunds,
	} {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}
