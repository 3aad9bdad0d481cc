package ledger

import (
	"time"

	"github.com/amt/backend/internal/domain/shared"
	"github.com/amt/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// AccountType distinguishes cash boxes from bank accounts
type AccountType string

const (
	AccountTypeCash AccountType = "cash"
	AccountTypeBank AccountType = "bank"
)

// IsValid checks if the account type is valid
func (t AccountType) IsValid() bool {
	return t == AccountTypeCash || t == AccountTypeBank
}

// Account tracks money held on one cash or bank account. The balance only
// moves through posted transactions; it can never go negative.
type Account struct {
	shared.BaseAggregateRoot
	Name          string               `json:"name"`
	AccountType   AccountType          `json:"account_type"`
	Currency      valueobject.Currency `json:"currency"`
	Balance       decimal.Decimal      `json:"balance"`
	AccountNumber string               `json:"account_number"`
	BankName      string               `json:"bank_name"`
	IsActive      bool                 `json:"is_active"`
	Comment       string               `json:"comment"`
}

// NewAccount creates a new account with zero balance
func NewAccount(name string, accountType AccountType, currency valueobject.Currency) (*Account, error) {
	if name == "" {
		return nil, shared.NewDomainError("INVALID_ACCOUNT_NAME", "Account name cannot be empty")
	}
	if !accountType.IsValid() {
		return nil, shared.NewDomainError("INVALID_ACCOUNT_TYPE", "Account type must be cash or bank")
	}
	if !currency.IsValid() {
		return nil, shared.NewDomainError("INVALID_CURRENCY", "Unknown currency code")
	}

	return &Account{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		AccountType:       accountType,
		Currency:          currency,
		Balance:           decimal.Zero,
		IsActive:          true,
	}, nil
}

// Credit increases the balance
func (a *Account) Credit(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return shared.ErrInvalidAmount
	}
	a.Balance = a.Balance.Add(amount)
	a.UpdatedAt = time.Now()
	a.IncrementVersion()
	return nil
}

// Debit decreases the balance. Fails with InsufficientFunds when the account
// does not hold the full amount.
func (a *Account) Debit(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return shared.ErrInvalidAmount
	}
	if a.Balance.LessThan(amount) {
		return shared.ErrInsufficientFunds
	}
	a.Balance = a.Balance.Sub(amount)
	a.UpdatedAt = time.Now()
	a.IncrementVersion()
	return nil
}

// DebitClamped decreases the balance during a reversal, flooring at zero.
// Returns clamped=true when flooring discarded part of the amount, which the
// caller must surface as a data-integrity condition rather than absorb.
func (a *Account) DebitClamped(amount decimal.Decimal) (clamped bool, err error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return false, shared.ErrInvalidAmount
	}
	next := a.Balance.Sub(amount)
	if next.IsNegative() {
		a.Balance = decimal.Zero
		clamped = true
	} else {
		a.Balance = next
	}
	a.UpdatedAt = time.Now()
	a.IncrementVersion()
	return clamped, nil
}

// Deactivate takes the account out of use for new postings
func (a *Account) Deactivate() {
	a.IsActive = false
	a.UpdatedAt = time.Now()
	a.IncrementVersion()
}

// GetBalanceMoney returns the balance as Money
func (a *Account) GetBalanceMoney() valueobject.Money {
	m, _ := valueobject.NewMoney(a.Balance, a.Currency)
	return m
}
