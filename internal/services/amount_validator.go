package services

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"lengolf_pos_backend/internal/models"
)

// Custom Errors for payment amount validation.
var (
	ErrNoAllocations  = errors.New("at least one payment allocation is required")
	ErrInvalidAmount  = errors.New("invalid payment amount")
	ErrAmountMismatch = errors.New("payment allocations do not match the order total")
	ErrInvalidSplit   = errors.New("invalid split payment configuration")
)

// AmountTolerance is the rounding slack allowed between the sum of the
// allocations and the order total, in currency units.
const AmountTolerance = 0.01

// AmountRule is a tender-method specific predicate for a single allocation
// amount. The default rule only requires a positive amount; venues with
// method-specific floors (e.g. card minimums) inject their own.
type AmountRule func(method string, amount float64) error

// DefaultAmountRule accepts any strictly positive amount.
func DefaultAmountRule(method string, amount float64) error {
	if amount <= 0 {
		return fmt.Errorf("%w: %s amount must be positive, got %.2f", ErrInvalidAmount, method, amount)
	}
	return nil
}

// --- AmountValidator Interface ---
type AmountValidator interface {
	// Validate checks the allocation set against the order total. It is a
	// pure check with no side effects.
	Validate(allocations []models.PaymentAllocation, orderTotal float64) error
}

type amountValidator struct {
	rule AmountRule
}

// NewAmountValidator creates a new AmountValidator. A nil rule falls back to
// DefaultAmountRule.
func NewAmountValidator(rule AmountRule) AmountValidator {
	if rule == nil {
		rule = DefaultAmountRule
	}
	return &amountValidator{rule: rule}
}

func (v *amountValidator) Validate(allocations []models.PaymentAllocation, orderTotal float64) error {
	if len(allocations) == 0 {
		return ErrNoAllocations
	}

	var sum float64
	for _, alloc := range allocations {
		if err := v.rule(alloc.Method, alloc.Amount); err != nil {
			return err
		}
		sum += alloc.Amount
	}

	if math.Abs(sum-orderTotal) > AmountTolerance {
		return fmt.Errorf("%w: allocations sum to %.2f, order total is %.2f", ErrAmountMismatch, sum, orderTotal)
	}

	if len(allocations) > 1 {
		if err := validateSplitConfiguration(allocations); err != nil {
			return err
		}
	}
	return nil
}

// validateSplitConfiguration applies the extra rules for split payments:
// every entry must name a tender method and no two entries may repeat the
// same method+reference pair.
func validateSplitConfiguration(allocations []models.PaymentAllocation) error {
	seen := make(map[string]struct{}, len(allocations))
	for i, alloc := range allocations {
		method := strings.TrimSpace(alloc.Method)
		if method == "" {
			return fmt.Errorf("%w: allocation %d has an empty tender method", ErrInvalidSplit, i+1)
		}
		key := strings.ToLower(method)
		if alloc.Reference != nil {
			key += "|" + *alloc.Reference
		}
		if _, dup := seen[key]; dup {
			return fmt.Errorf("%w: duplicate method/reference pair %q", ErrInvalidSplit, key)
		}
		seen[key] = struct{}{}
	}
	return nil
}
