package ledger

import (
	"time"

	"github.com/amt/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType classifies a ledger entry's effect on the account balance
type TransactionType string

const (
	TransactionTypeIncome      TransactionType = "income"
	TransactionTypeExpense     TransactionType = "expense"
	TransactionTypeTransferIn  TransactionType = "transfer_in"
	TransactionTypeTransferOut TransactionType = "transfer_out"
	TransactionTypeAdjustment  TransactionType = "adjustment"
)

// IsValid checks if the transaction type is valid
func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionTypeIncome, TransactionTypeExpense, TransactionTypeTransferIn,
		TransactionTypeTransferOut, TransactionTypeAdjustment:
		return true
	}
	return false
}

// IncreasesBalance returns true for types that add money to the account
func (t TransactionType) IncreasesBalance() bool {
	switch t {
	case TransactionTypeIncome, TransactionTypeTransferIn, TransactionTypeAdjustment:
		return true
	}
	return false
}

// AccountTransaction is one immutable ledger entry. It is never edited after
// creation; an exact reversal deletes it together with undoing its balance
// effect, anything else keeps it forever.
type AccountTransaction struct {
	shared.BaseEntity
	AccountID        uuid.UUID       `json:"account_id"`
	Type             TransactionType `json:"type"`
	Amount           decimal.Decimal `json:"amount"`
	TransactionDate  time.Time       `json:"transaction_date"`
	RelatedAccountID *uuid.UUID      `json:"related_account_id,omitempty"`
	RelatedPaymentID *uuid.UUID      `json:"related_payment_id,omitempty"`
	Comment          string          `json:"comment"`
}

// TransactionRefs carries the optional back-references of a posting
type TransactionRefs struct {
	RelatedAccountID *uuid.UUID
	RelatedPaymentID *uuid.UUID
	Comment          string
}

// NewAccountTransaction creates a new ledger entry
func NewAccountTransaction(
	accountID uuid.UUID,
	txType TransactionType,
	amount decimal.Decimal,
	date time.Time,
	refs TransactionRefs,
) (*AccountTransaction, error) {
	if accountID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ACCOUNT", "Account ID cannot be empty")
	}
	if !txType.IsValid() {
		return nil, shared.NewDomainError("INVALID_TRANSACTION_TYPE", "Unknown transaction type")
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.ErrInvalidAmount
	}

	return &AccountTransaction{
		BaseEntity:       shared.NewBaseEntity(),
		AccountID:        accountID,
		Type:             txType,
		Amount:           amount,
		TransactionDate:  time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC),
		RelatedAccountID: refs.RelatedAccountID,
		RelatedPaymentID: refs.RelatedPaymentID,
		Comment:          refs.Comment,
	}, nil
}
