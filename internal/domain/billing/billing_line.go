package billing

import (
	"time"

	"github.com/amt/backend/internal/domain/shared"
	"github.com/amt/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BillingLineStatus represents the payment status of a billing line
type BillingLineStatus string

const (
	BillingLineStatusPlanned BillingLineStatus = "planned" // Future obligation, nothing paid
	BillingLineStatusDue     BillingLineStatus = "due"     // Due within the next few days
	BillingLineStatusOverdue BillingLineStatus = "overdue" // Past due date with outstanding balance
	BillingLineStatusPartial BillingLineStatus = "partial" // Partially paid, not yet due or overdue
	BillingLineStatusPaid    BillingLineStatus = "paid"    // Fully settled
)

// dueSoonWindowDays is the width of the "due" window before the due date,
// inclusive of the due date itself.
const dueSoonWindowDays = 3

// IsValid checks if the status is a valid BillingLineStatus
func (s BillingLineStatus) IsValid() bool {
	switch s {
	case BillingLineStatusPlanned, BillingLineStatusDue, BillingLineStatusOverdue,
		BillingLineStatusPartial, BillingLineStatusPaid:
		return true
	}
	return false
}

// String returns the string representation of BillingLineStatus
func (s BillingLineStatus) String() string {
	return string(s)
}

// UtilityType classifies what a billing line charges for. It does not affect
// any ledger math.
type UtilityType string

const (
	UtilityTypeRent        UtilityType = "rent"
	UtilityTypeElectricity UtilityType = "electricity"
	UtilityTypeWater       UtilityType = "water"
	UtilityTypeGas         UtilityType = "gas"
	UtilityTypeGarbage     UtilityType = "garbage"
	UtilityTypeService     UtilityType = "service"
	UtilityTypeSalary      UtilityType = "salary"
	UtilityTypeTransport   UtilityType = "transport"
	UtilityTypeOther       UtilityType = "other"
)

// IsValid checks if the utility type is one of the known classifications
func (u UtilityType) IsValid() bool {
	switch u {
	case UtilityTypeRent, UtilityTypeElectricity, UtilityTypeWater, UtilityTypeGas,
		UtilityTypeGarbage, UtilityTypeService, UtilityTypeSalary, UtilityTypeTransport,
		UtilityTypeOther:
		return true
	}
	return false
}

// BillingLine represents one period's obligation under a contract. Amounts are
// mutated only by allocation and reversal flows; FinalAmount, Balance and
// Status are derived and recomputed through Recompute, never set directly.
type BillingLine struct {
	shared.BaseAggregateRoot
	ContractID      uuid.UUID         `json:"contract_id"`
	PeriodStart     time.Time         `json:"period_start"`
	PeriodEnd       time.Time         `json:"period_end"`
	DueDate         time.Time         `json:"due_date"`
	BaseAmount      decimal.Decimal   `json:"base_amount"`
	Adjustments     decimal.Decimal   `json:"adjustments"`
	UtilitiesAmount decimal.Decimal   `json:"utilities_amount"`
	FinalAmount     decimal.Decimal   `json:"final_amount"`
	PaidAmount      decimal.Decimal   `json:"paid_amount"`
	Balance         decimal.Decimal   `json:"balance"`
	Status          BillingLineStatus `json:"status"`
	UtilityType     UtilityType       `json:"utility_type"`
	Comment         string            `json:"comment"`
}

// NewBillingLine creates a billing line for one period with the given base
// amount. The caller is expected to Recompute with an as-of date right after.
func NewBillingLine(
	contractID uuid.UUID,
	periodStart, periodEnd, dueDate time.Time,
	baseAmount valueobject.Money,
	utilityType UtilityType,
) (*BillingLine, error) {
	if contractID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CONTRACT", "Contract ID cannot be empty")
	}
	if baseAmount.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Base amount cannot be negative")
	}
	if periodEnd.Before(periodStart) {
		return nil, shared.NewDomainError("INVALID_PERIOD", "Period end cannot precede period start")
	}
	if !utilityType.IsValid() {
		return nil, shared.NewDomainError("INVALID_UTILITY_TYPE", "Unknown utility type")
	}

	line := &BillingLine{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ContractID:        contractID,
		PeriodStart:       truncateToDate(periodStart),
		PeriodEnd:         truncateToDate(periodEnd),
		DueDate:           truncateToDate(dueDate),
		BaseAmount:        baseAmount.Amount(),
		Adjustments:       decimal.Zero,
		UtilitiesAmount:   decimal.Zero,
		FinalAmount:       baseAmount.Amount(),
		PaidAmount:        decimal.Zero,
		Balance:           baseAmount.Amount(),
		Status:            BillingLineStatusPlanned,
		UtilityType:       utilityType,
	}

	line.AddDomainEvent(NewBillingLineCreatedEvent(line))

	return line, nil
}

// Recompute recalculates the derived fields and the status as of the given
// date. This is the single place a billing line's status is ever assigned;
// the function is idempotent and pure given the line's inputs and today.
func (l *BillingLine) Recompute(today time.Time) {
	today = truncateToDate(today)

	l.FinalAmount = l.BaseAmount.Add(l.Adjustments).Add(l.UtilitiesAmount)
	l.Balance = l.FinalAmount.Sub(l.PaidAmount)

	previous := l.Status

	switch {
	case l.Balance.LessThanOrEqual(decimal.Zero):
		l.Status = BillingLineStatusPaid
	case l.DueDate.Before(today):
		// Overdue wins over partial payment
		l.Status = BillingLineStatusOverdue
	case daysBetween(today, l.DueDate) <= dueSoonWindowDays:
		if l.PaidAmount.IsPositive() {
			l.Status = BillingLineStatusPartial
		} else {
			l.Status = BillingLineStatusDue
		}
	default:
		if l.PaidAmount.IsPositive() {
			l.Status = BillingLineStatusPartial
		} else {
			l.Status = BillingLineStatusPlanned
		}
	}

	if previous != BillingLineStatusPaid && l.Status == BillingLineStatusPaid {
		l.AddDomainEvent(NewBillingLineSettledEvent(l))
	}

	l.UpdatedAt = time.Now()
}

// ApplyPayment increases the paid amount by the given allocation amount.
// The amount may never exceed the current balance.
func (l *BillingLine) ApplyPayment(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return shared.ErrInvalidAmount
	}
	if amount.GreaterThan(l.Balance) {
		return shared.ErrIntegrityViolation
	}
	l.PaidAmount = l.PaidAmount.Add(amount)
	l.IncrementVersion()
	return nil
}

// ReleasePayment decreases the paid amount during a reversal. The paid amount
// is floored at zero; when flooring actually discards part of the requested
// amount the caller gets clamped=true so the discrepancy can be surfaced.
func (l *BillingLine) ReleasePayment(amount decimal.Decimal) (clamped bool, err error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return false, shared.ErrInvalidAmount
	}
	next := l.PaidAmount.Sub(amount)
	if next.IsNegative() {
		l.PaidAmount = decimal.Zero
		clamped = true
	} else {
		l.PaidAmount = next
	}
	l.IncrementVersion()
	return clamped, nil
}

// RestampBaseAmount resets the base amount from the contract's current rent,
// used by schedule fixing. Paid amount is preserved.
func (l *BillingLine) RestampBaseAmount(rent decimal.Decimal) {
	l.BaseAmount = rent
	l.IncrementVersion()
}

// SetAdjustments replaces the adjustment amount
func (l *BillingLine) SetAdjustments(amount decimal.Decimal) {
	l.Adjustments = amount
	l.IncrementVersion()
}

// SetUtilitiesAmount replaces the utilities amount
func (l *BillingLine) SetUtilitiesAmount(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return shared.ErrInvalidAmount
	}
	l.UtilitiesAmount = amount
	l.IncrementVersion()
	return nil
}

// IsSettled returns true if the line carries no outstanding balance
func (l *BillingLine) IsSettled() bool {
	return l.Balance.LessThanOrEqual(decimal.Zero)
}

// IsPlanned returns true if the line is still in planned status
func (l *BillingLine) IsPlanned() bool {
	return l.Status == BillingLineStatusPlanned
}

// GetBalanceMoney returns the outstanding balance as Money
func (l *BillingLine) GetBalanceMoney() valueobject.Money {
	return valueobject.NewMoneyKGS(l.Balance)
}

// GetPaidAmountMoney returns the paid amount as Money
func (l *BillingLine) GetPaidAmountMoney() valueobject.Money {
	return valueobject.NewMoneyKGS(l.PaidAmount)
}

// daysBetween returns the whole number of calendar days from a to b.
// Negative when b precedes a. Both arguments must be UTC midnight dates.
func daysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}
