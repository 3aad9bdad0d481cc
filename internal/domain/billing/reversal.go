package billing

import (
	"time"

	"github.com/amt/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CancelResult describes what a billing line payment cancellation returned
type CancelResult struct {
	ReturnedAmount decimal.Decimal   `json:"returned_amount"`
	NewBalance     decimal.Decimal   `json:"new_balance"`
	NewStatus      BillingLineStatus `json:"new_status"`
	// RemovedAllocations lists the allocation rows to delete.
	RemovedAllocations []*Allocation `json:"-"`
	// TouchedPayments lists payments whose allocated amount was reduced.
	TouchedPayments []*Payment `json:"-"`
	// Clamped is set when flooring discarded part of a decrement, which means
	// the stored amounts had drifted from the allocation rows.
	Clamped bool `json:"-"`
}

// ReturnResult describes what a payment return or deletion gave back
type ReturnResult struct {
	ReturnedAmount decimal.Decimal `json:"returned_amount"`
	// TouchedLines lists billing lines whose paid amount was restored.
	TouchedLines []*BillingLine `json:"-"`
	// RemovedAllocations lists the allocation rows to delete.
	RemovedAllocations []*Allocation `json:"-"`
	Clamped            bool          `json:"-"`
}

// ReversalCoordinator undoes allocation effects exactly. Like the Allocator it
// mutates in-memory aggregates only; persistence and the rollback of ledger
// transactions happen in the enclosing atomic unit.
type ReversalCoordinator struct{}

// NewReversalCoordinator creates a new ReversalCoordinator
func NewReversalCoordinator() *ReversalCoordinator {
	return &ReversalCoordinator{}
}

// CancelLinePayment takes every amount paid against the line back out of it:
// each allocation is subtracted from the line's paid amount and from its
// payment's allocated amount (floored at zero), and removed. When the line was
// paid directly without allocation rows, the paid amount is simply zeroed.
// Fails when nothing has been paid.
func (r *ReversalCoordinator) CancelLinePayment(
	line *BillingLine,
	allocations []*Allocation,
	paymentsByID map[uuid.UUID]*Payment,
	today time.Time,
) (*CancelResult, error) {
	if line.PaidAmount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.ErrAlreadyReversed
	}

	result := &CancelResult{ReturnedAmount: decimal.Zero}

	if len(allocations) > 0 {
		subtractByPayment := make(map[uuid.UUID]decimal.Decimal)
		for _, alloc := range allocations {
			if alloc.BillingLineID != line.ID {
				return nil, shared.NewDomainError("INTEGRITY_VIOLATION",
					"Allocation does not belong to the line being cancelled")
			}
			clamped, err := line.ReleasePayment(alloc.Amount)
			if err != nil {
				return nil, err
			}
			result.Clamped = result.Clamped || clamped
			result.ReturnedAmount = result.ReturnedAmount.Add(alloc.Amount)
			subtractByPayment[alloc.PaymentID] = subtractByPayment[alloc.PaymentID].Add(alloc.Amount)
			result.RemovedAllocations = append(result.RemovedAllocations, alloc)
		}

		for paymentID, amount := range subtractByPayment {
			payment, ok := paymentsByID[paymentID]
			if !ok {
				return nil, shared.ErrNotFound
			}
			if payment.ReduceAllocatedAmount(amount) {
				result.Clamped = true
			}
			result.TouchedPayments = append(result.TouchedPayments, payment)
		}
	} else {
		// Direct-acceptance leftovers: no allocation rows, the paid amount was
		// set outside the allocator. Zero it and report the full amount.
		result.ReturnedAmount = line.PaidAmount
		line.PaidAmount = decimal.Zero
		line.IncrementVersion()
	}

	line.Recompute(today)
	line.AddDomainEvent(NewLinePaymentCancelledEvent(line, result.ReturnedAmount))

	result.NewBalance = line.Balance
	result.NewStatus = line.Status

	return result, nil
}

// ReturnPayment reverses every allocation of the payment and marks it
// returned. A second return of the same payment fails cleanly instead of
// double-reversing, as does a return with no allocations to undo.
func (r *ReversalCoordinator) ReturnPayment(
	payment *Payment,
	allocations []*Allocation,
	linesByID map[uuid.UUID]*BillingLine,
	today time.Time,
) (*ReturnResult, error) {
	if payment.IsReturned {
		return nil, shared.ErrAlreadyReversed
	}
	if len(allocations) == 0 {
		return nil, shared.ErrAlreadyReversed
	}

	result, err := r.releaseAllocations(payment, allocations, linesByID, today)
	if err != nil {
		return nil, err
	}
	if err := payment.MarkReturned(); err != nil {
		return nil, err
	}
	return result, nil
}

// PreparePaymentDeletion reverses the payment's allocations the same way a
// return does, without flagging the payment. The caller then hard-deletes the
// payment and its allocation rows in the same atomic unit.
func (r *ReversalCoordinator) PreparePaymentDeletion(
	payment *Payment,
	allocations []*Allocation,
	linesByID map[uuid.UUID]*BillingLine,
	today time.Time,
) (*ReturnResult, error) {
	return r.releaseAllocations(payment, allocations, linesByID, today)
}

func (r *ReversalCoordinator) releaseAllocations(
	payment *Payment,
	allocations []*Allocation,
	linesByID map[uuid.UUID]*BillingLine,
	today time.Time,
) (*ReturnResult, error) {
	result := &ReturnResult{ReturnedAmount: decimal.Zero}
	for _, alloc := range allocations {
		if alloc.PaymentID != payment.ID {
			return nil, shared.NewDomainError("INTEGRITY_VIOLATION",
				"Allocation does not belong to the payment being reversed")
		}
		line, ok := linesByID[alloc.BillingLineID]
		if !ok {
			return nil, shared.ErrNotFound
		}
		clamped, err := line.ReleasePayment(alloc.Amount)
		if err != nil {
			return nil, err
		}
		line.Recompute(today)

		result.Clamped = result.Clamped || clamped
		result.ReturnedAmount = result.ReturnedAmount.Add(alloc.Amount)
		result.TouchedLines = append(result.TouchedLines, line)
		result.RemovedAllocations = append(result.RemovedAllocations, alloc)
	}
	return result, nil
}
