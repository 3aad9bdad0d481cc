package ledger

import (
	"context"
	"time"

	"github.com/amt/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionFilter narrows ledger queries
type TransactionFilter struct {
	AccountID *uuid.UUID
	Type      *TransactionType
	DateFrom  *time.Time
	DateTo    *time.Time
	Page      int
	PageSize  int
}

// AccountRepository persists accounts
type AccountRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Account, error)
	// FindByIDForUpdate loads the account with a row lock inside the current
	// transaction, serializing concurrent balance mutations.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Account, error)
	FindActive(ctx context.Context) ([]*Account, error)
	Save(ctx context.Context, account *Account) error
	// SumBalanceByCurrency totals active account balances in one currency.
	SumBalanceByCurrency(ctx context.Context, currency valueobject.Currency) (decimal.Decimal, error)
}

// AccountTransactionRepository persists ledger entries
type AccountTransactionRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*AccountTransaction, error)
	FindByAccount(ctx context.Context, accountID uuid.UUID, filter TransactionFilter) ([]*AccountTransaction, error)
	// FindByRelatedPayment returns every entry a payment caused, for exact
	// reversal.
	FindByRelatedPayment(ctx context.Context, paymentID uuid.UUID) ([]*AccountTransaction, error)
	Save(ctx context.Context, tx *AccountTransaction) error
	SaveAll(ctx context.Context, txs []*AccountTransaction) error
	Delete(ctx context.Context, id uuid.UUID) error
}
