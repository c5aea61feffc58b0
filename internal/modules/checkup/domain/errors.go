package domain

import (
	"errors"
	"fmt"

	"github.com/aristath/checkup/internal/modules/checkup/flow"
)

// Sentinel errors; callers discriminate with errors.Is
var (
	ErrNoHoldings        = errors.New("checkup has no holdings")
	ErrInvalidHolding    = errors.New("invalid holding")
	ErrInvalidProfile    = errors.New("invalid profile")
	ErrUnknownAdjustment = errors.New("unknown adjustment type")
	ErrNotFound          = errors.New("checkup not found")
	ErrInvalidTransition = flow.ErrInvalidTransition
	ErrNotPaid           = errors.New("checkup report requires payment")
	ErrInvalidCoupon     = errors.New("invalid coupon")
	ErrUnsupportedFile   = errors.New("unsupported file format")
	ErrNotAnalyzed       = errors.New("checkup has not been analyzed")
)

// ValidationError describes which field failed and why.
// It unwraps to ErrInvalidHolding or ErrInvalidProfile.
type ValidationError struct {
	Field  string
	Reason string
	kind   error
}

// NewHoldingError creates a ValidationError for a holding field
func NewHoldingError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason, kind: ErrInvalidHolding}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.kind, e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return e.kind
}
