package billing

import (
	"time"

	"github.com/amt/backend/internal/domain/shared"
	"github.com/amt/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// ContractStatus represents the lifecycle status of a lease contract
type ContractStatus string

const (
	ContractStatusDraft     ContractStatus = "draft"
	ContractStatusActive    ContractStatus = "active"
	ContractStatusEnded     ContractStatus = "ended"
	ContractStatusCancelled ContractStatus = "cancelled"
)

// IsValid checks if the status is a valid ContractStatus
func (s ContractStatus) IsValid() bool {
	switch s {
	case ContractStatusDraft, ContractStatusActive, ContractStatusEnded, ContractStatusCancelled:
		return true
	}
	return false
}

// CanGenerateSchedule returns true if billing lines may be generated for
// contracts in this status
func (s ContractStatus) CanGenerateSchedule() bool {
	return s == ContractStatusActive || s == ContractStatusDraft
}

// Contract represents a lease contract. Billing lines are generated from its
// date range and rent amount; payments always reference a contract.
type Contract struct {
	shared.BaseAggregateRoot
	Number         string               `json:"number"`
	SignedAt       time.Time            `json:"signed_at"`
	StartDate      time.Time            `json:"start_date"`
	EndDate        time.Time            `json:"end_date"`
	RentAmount     decimal.Decimal      `json:"rent_amount"`
	Currency       valueobject.Currency `json:"currency"`
	DueDay         int                  `json:"due_day"`
	DepositEnabled bool                 `json:"deposit_enabled"`
	DepositAmount  decimal.Decimal      `json:"deposit_amount"`
	AdvanceEnabled bool                 `json:"advance_enabled"`
	AdvanceMonths  int                  `json:"advance_months"`
	Status         ContractStatus       `json:"status"`
	Comment        string               `json:"comment"`
}

// NewContract creates a new lease contract in draft status
func NewContract(
	number string,
	signedAt, startDate, endDate time.Time,
	rentAmount valueobject.Money,
	dueDay int,
) (*Contract, error) {
	if number == "" {
		return nil, shared.NewDomainError("INVALID_CONTRACT_NUMBER", "Contract number cannot be empty")
	}
	if !endDate.After(startDate) {
		return nil, shared.NewDomainError("INVALID_PERIOD", "Contract end date must be after start date")
	}
	if rentAmount.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Rent amount cannot be negative")
	}
	if dueDay < 1 || dueDay > 31 {
		return nil, shared.NewDomainError("INVALID_DUE_DAY", "Due day must be between 1 and 31")
	}

	return &Contract{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Number:            number,
		SignedAt:          truncateToDate(signedAt),
		StartDate:         truncateToDate(startDate),
		EndDate:           truncateToDate(endDate),
		RentAmount:        rentAmount.Amount(),
		Currency:          rentAmount.Currency(),
		DueDay:            dueDay,
		DepositAmount:     decimal.Zero,
		AdvanceMonths:     1,
		Status:            ContractStatusDraft,
	}, nil
}

// GetRentAmountMoney returns the rent amount as Money
func (c *Contract) GetRentAmountMoney() valueobject.Money {
	m, _ := valueobject.NewMoney(c.RentAmount, c.Currency)
	return m
}

// Activate moves the contract to active status
func (c *Contract) Activate() error {
	if c.Status != ContractStatusDraft {
		return shared.NewDomainError("INVALID_STATE", "Only draft contracts can be activated")
	}
	c.Status = ContractStatusActive
	c.UpdatedAt = time.Now()
	c.IncrementVersion()
	return nil
}

// UpdateRentAmount changes the rent amount. Already generated planned lines
// are re-stamped separately through the schedule fix operation.
func (c *Contract) UpdateRentAmount(amount valueobject.Money) error {
	if amount.IsNegative() {
		return shared.NewDomainError("INVALID_AMOUNT", "Rent amount cannot be negative")
	}
	if amount.Currency() != c.Currency {
		return shared.ErrCurrencyMismatch
	}
	c.RentAmount = amount.Amount()
	c.UpdatedAt = time.Now()
	c.IncrementVersion()
	return nil
}

// truncateToDate normalizes a timestamp to a calendar date at UTC midnight.
// All period and due-date arithmetic in this package works on such dates.
func truncateToDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
