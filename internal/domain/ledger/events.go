package ledger

import (
	"github.com/amt/backend/internal/domain/shared"
)

// Event types for the ledger domain
const (
	EventTypeTransactionPosted   = "ledger.transaction.posted"
	EventTypeTransactionReversed = "ledger.transaction.reversed"
)

// TransactionPostedEvent is raised when a ledger entry lands on an account
type TransactionPostedEvent struct {
	shared.BaseDomainEvent
	AccountID       string `json:"account_id"`
	TransactionType string `json:"transaction_type"`
	Amount          string `json:"amount"`
	BalanceAfter    string `json:"balance_after"`
}

// NewTransactionPostedEvent creates a new TransactionPostedEvent
func NewTransactionPostedEvent(account *Account, tx *AccountTransaction) *TransactionPostedEvent {
	return &TransactionPostedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTransactionPosted, "Account", account.ID),
		AccountID:       account.ID.String(),
		TransactionType: string(tx.Type),
		Amount:          tx.Amount.String(),
		BalanceAfter:    account.Balance.String(),
	}
}

// TransactionReversedEvent is raised when an entry is removed by a reversal
type TransactionReversedEvent struct {
	shared.BaseDomainEvent
	AccountID string `json:"account_id"`
	Amount    string `json:"amount"`
	Clamped   bool   `json:"clamped"`
}

// NewTransactionReversedEvent creates a new TransactionReversedEvent
func NewTransactionReversedEvent(account *Account, tx *AccountTransaction, clamped bool) *TransactionReversedEvent {
	return &TransactionReversedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTransactionReversed, "Account", account.ID),
		AccountID:       account.ID.String(),
		Amount:          tx.Amount.String(),
		Clamped:         clamped,
	}
}
