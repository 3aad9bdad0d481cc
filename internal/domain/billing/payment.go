package billing

import (
	"time"

	"github.com/amt/backend/internal/domain/shared"
	"github.com/amt/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Payment represents money received against a contract. Its amount is mapped
// onto open billing lines through allocations; AllocatedAmount always equals
// the sum of the payment's allocation amounts.
type Payment struct {
	shared.BaseAggregateRoot
	ContractID      uuid.UUID       `json:"contract_id"`
	AccountID       uuid.UUID       `json:"account_id"`
	Amount          decimal.Decimal `json:"amount"`
	PaymentDate     time.Time       `json:"payment_date"`
	AllocatedAmount decimal.Decimal `json:"allocated_amount"`
	IsReturned      bool            `json:"is_returned"`
	Comment         string          `json:"comment"`
}

// NewPayment creates a new payment
func NewPayment(
	contractID, accountID uuid.UUID,
	amount valueobject.Money,
	paymentDate time.Time,
	comment string,
) (*Payment, error) {
	if contractID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CONTRACT", "Contract ID cannot be empty")
	}
	if accountID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ACCOUNT", "Account ID cannot be empty")
	}
	if !amount.IsPositive() {
		return nil, shared.ErrInvalidAmount
	}

	return &Payment{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ContractID:        contractID,
		AccountID:         accountID,
		Amount:            amount.Amount(),
		PaymentDate:       truncateToDate(paymentDate),
		AllocatedAmount:   decimal.Zero,
		Comment:           comment,
	}, nil
}

// UnallocatedAmount returns the part of the payment not applied to any line
func (p *Payment) UnallocatedAmount() decimal.Decimal {
	return p.Amount.Sub(p.AllocatedAmount)
}

// SetAllocatedAmount records the total amount mapped onto billing lines
func (p *Payment) SetAllocatedAmount(amount decimal.Decimal) error {
	if amount.IsNegative() || amount.GreaterThan(p.Amount) {
		return shared.ErrIntegrityViolation
	}
	p.AllocatedAmount = amount
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
	return nil
}

// ReduceAllocatedAmount subtracts a reversed allocation's amount, floored at
// zero. Flooring indicates drift between the payment and its allocations.
func (p *Payment) ReduceAllocatedAmount(amount decimal.Decimal) (clamped bool) {
	next := p.AllocatedAmount.Sub(amount)
	if next.IsNegative() {
		p.AllocatedAmount = decimal.Zero
		clamped = true
	} else {
		p.AllocatedAmount = next
	}
	p.IncrementVersion()
	return clamped
}

// MarkReturned flags the payment as returned. Returned is terminal.
func (p *Payment) MarkReturned() error {
	if p.IsReturned {
		return shared.ErrAlreadyReversed
	}
	p.IsReturned = true
	p.AllocatedAmount = decimal.Zero
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
	p.AddDomainEvent(NewPaymentReturnedEvent(p))
	return nil
}

// GetAmountMoney returns the payment amount as Money
func (p *Payment) GetAmountMoney() valueobject.Money {
	return valueobject.NewMoneyKGS(p.Amount)
}

// Allocation links one payment to one billing line. At most one allocation
// exists per (payment, billing line) pair; repeated allocation to the same
// line adds to the existing record instead of creating a duplicate.
type Allocation struct {
	shared.BaseEntity
	PaymentID     uuid.UUID       `json:"payment_id"`
	BillingLineID uuid.UUID       `json:"billing_line_id"`
	Amount        decimal.Decimal `json:"amount"`
}

// NewAllocation creates an allocation of part of a payment to a billing line
func NewAllocation(paymentID, billingLineID uuid.UUID, amount decimal.Decimal) (*Allocation, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.ErrInvalidAmount
	}
	return &Allocation{
		BaseEntity:    shared.NewBaseEntity(),
		PaymentID:     paymentID,
		BillingLineID: billingLineID,
		Amount:        amount,
	}, nil
}

// AddAmount increases the allocation when more of the same payment lands on
// the same line
func (a *Allocation) AddAmount(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return shared.ErrInvalidAmount
	}
	a.Amount = a.Amount.Add(amount)
	a.UpdatedAt = time.Now()
	return nil
}
