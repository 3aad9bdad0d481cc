package ledger

import (
	"time"

	"github.com/amt/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// AccountService applies ledger postings to accounts. Like the billing domain
// services it works on in-memory aggregates; a posting that produces two rows
// (a transfer) must be persisted in one atomic unit or not at all.
type AccountService struct{}

// NewAccountService creates a new AccountService
func NewAccountService() *AccountService {
	return &AccountService{}
}

// PostingResult holds everything one posting produced: the mutated accounts
// and the ledger rows to insert. A transfer with a related account yields two
// of each, any other type exactly one.
type PostingResult struct {
	Transactions []*AccountTransaction
	Accounts     []*Account
}

// Primary returns the entry posted on the requested account
func (r *PostingResult) Primary() *AccountTransaction {
	if len(r.Transactions) == 0 {
		return nil
	}
	return r.Transactions[0]
}

// Post applies a transaction to the account: income, transfer_in and
// adjustment credit the balance; expense and transfer_out debit it and fail
// with InsufficientFunds when the balance cannot cover the amount. A
// transfer_out with a related account also posts the paired transfer_in on the
// related account - the only case where one action produces two ledger rows.
func (s *AccountService) Post(
	account *Account,
	txType TransactionType,
	amount decimal.Decimal,
	date time.Time,
	refs TransactionRefs,
	relatedAccount *Account,
) (*PostingResult, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.ErrInvalidAmount
	}
	if !txType.IsValid() {
		return nil, shared.NewDomainError("INVALID_TRANSACTION_TYPE", "Unknown transaction type")
	}

	// Currency mismatch between transferring accounts is rejected before
	// anything is posted.
	if txType == TransactionTypeTransferOut && relatedAccount != nil &&
		account.Currency != relatedAccount.Currency {
		return nil, shared.ErrCurrencyMismatch
	}

	if txType.IncreasesBalance() {
		if err := account.Credit(amount); err != nil {
			return nil, err
		}
	} else {
		if err := account.Debit(amount); err != nil {
			return nil, err
		}
	}

	tx, err := NewAccountTransaction(account.ID, txType, amount, date, refs)
	if err != nil {
		return nil, err
	}
	account.AddDomainEvent(NewTransactionPostedEvent(account, tx))

	result := &PostingResult{
		Transactions: []*AccountTransaction{tx},
		Accounts:     []*Account{account},
	}

	if txType == TransactionTypeTransferOut && relatedAccount != nil {
		relatedID := account.ID
		paired, err := s.Post(
			relatedAccount,
			TransactionTypeTransferIn,
			amount,
			date,
			TransactionRefs{
				RelatedAccountID: &relatedID,
				Comment:          "Transfer from account " + account.Name,
			},
			nil,
		)
		if err != nil {
			return nil, err
		}
		result.Transactions = append(result.Transactions, paired.Transactions...)
		result.Accounts = append(result.Accounts, paired.Accounts...)
	}

	return result, nil
}

// RollbackIncome undoes one income entry during a payment reversal: the
// account balance is decremented by the entry's amount (floored at zero) and
// the entry itself is removed by the caller. Returns clamped=true when the
// floor cut the decrement short.
func (s *AccountService) RollbackIncome(account *Account, tx *AccountTransaction) (clamped bool, err error) {
	if tx.Type != TransactionTypeIncome {
		return false, shared.NewDomainError("INVALID_TRANSACTION_TYPE",
			"Only income transactions are rolled back by payment reversal")
	}
	if tx.AccountID != account.ID {
		return false, shared.NewDomainError("INTEGRITY_VIOLATION",
			"Transaction does not belong to the account being rolled back")
	}
	clamped, err = account.DebitClamped(tx.Amount)
	if err != nil {
		return false, err
	}
	account.AddDomainEvent(NewTransactionReversedEvent(account, tx, clamped))
	return clamped, nil
}
