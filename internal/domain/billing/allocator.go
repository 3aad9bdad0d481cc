package billing

import (
	"sort"
	"time"

	"github.com/amt/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Allocator maps a payment's amount onto open billing lines, oldest obligation
// first. It works on in-memory aggregates only; the application layer loads
// the lines with row locks and persists the result in one atomic unit, because
// FIFO order and the balance arithmetic are only correct when no two
// allocations interleave against the same lines.
type Allocator struct{}

// NewAllocator creates a new Allocator
func NewAllocator() *Allocator {
	return &Allocator{}
}

// AllocationResult describes the effect of an allocation run
type AllocationResult struct {
	// Allocations holds every allocation record created or increased.
	Allocations []*Allocation
	// TouchedLines holds every billing line whose paid amount changed.
	TouchedLines []*BillingLine
}

// AllocateFIFO walks the contract's open billing lines ordered by due date
// (ties broken by period start) and applies the payment until its amount is
// exhausted or no open line remains. An existing allocation for the same
// (payment, line) pair is increased instead of duplicated. Any unallocated
// remainder simply stays on the payment; it is not applied anywhere and not
// auto-refunded.
func (a *Allocator) AllocateFIFO(payment *Payment, lines []*BillingLine, existing []*Allocation, today time.Time) (*AllocationResult, error) {
	if payment.IsReturned {
		return nil, shared.NewDomainError("INVALID_STATE", "Cannot allocate a returned payment")
	}

	ordered := make([]*BillingLine, len(lines))
	copy(ordered, lines)
	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].DueDate.Equal(ordered[j].DueDate) {
			return ordered[i].DueDate.Before(ordered[j].DueDate)
		}
		return ordered[i].PeriodStart.Before(ordered[j].PeriodStart)
	})

	byLine := make(map[uuid.UUID]*Allocation, len(existing))
	for _, alloc := range existing {
		if alloc.PaymentID == payment.ID {
			byLine[alloc.BillingLineID] = alloc
		}
	}

	result := &AllocationResult{}
	remaining := payment.Amount

	for _, line := range ordered {
		if remaining.LessThanOrEqual(decimal.Zero) {
			break
		}
		if line.Balance.LessThanOrEqual(decimal.Zero) {
			continue
		}

		take := decimal.Min(remaining, line.Balance)

		alloc, ok := byLine[line.ID]
		if ok {
			if err := alloc.AddAmount(take); err != nil {
				return nil, err
			}
		} else {
			var err error
			alloc, err = NewAllocation(payment.ID, line.ID, take)
			if err != nil {
				return nil, err
			}
			byLine[line.ID] = alloc
		}

		if err := line.ApplyPayment(take); err != nil {
			return nil, err
		}
		line.Recompute(today)

		result.Allocations = append(result.Allocations, alloc)
		result.TouchedLines = append(result.TouchedLines, line)

		remaining = remaining.Sub(take)
	}

	if err := payment.SetAllocatedAmount(payment.Amount.Sub(remaining)); err != nil {
		return nil, err
	}

	payment.AddDomainEvent(NewPaymentAllocatedEvent(payment, len(result.Allocations)))

	return result, nil
}

// ReverseAllocations undoes every allocation of the payment: each touched
// line's paid amount is decremented and recomputed. Used by reallocation and
// by the payment reversal flows. Returns the lines that changed.
func (a *Allocator) ReverseAllocations(payment *Payment, allocations []*Allocation, linesByID map[uuid.UUID]*BillingLine, today time.Time) ([]*BillingLine, error) {
	var touched []*BillingLine
	for _, alloc := range allocations {
		if alloc.PaymentID != payment.ID {
			return nil, shared.NewDomainError("INTEGRITY_VIOLATION",
				"Allocation does not belong to the payment being reversed")
		}
		line, ok := linesByID[alloc.BillingLineID]
		if !ok {
			return nil, shared.ErrNotFound
		}
		if _, err := line.ReleasePayment(alloc.Amount); err != nil {
			return nil, err
		}
		line.Recompute(today)
		touched = append(touched, line)
	}
	return touched, nil
}
