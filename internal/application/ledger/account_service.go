package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/amt/backend/internal/domain/ledger"
	"github.com/amt/backend/internal/domain/shared"
	"github.com/amt/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// AccountService manages cash and bank accounts and their ledger. Balance
// mutations go through the domain posting service under a row lock; a transfer
// writes both sides in one transaction.
type AccountService struct {
	accountRepo ledger.AccountRepository
	ledgerRepo  ledger.AccountTransactionRepository
	poster      *ledger.AccountService
	uow         shared.UnitOfWork
	logger      *zap.Logger
}

// NewAccountService creates a new AccountService
func NewAccountService(
	accountRepo ledger.AccountRepository,
	ledgerRepo ledger.AccountTransactionRepository,
	uow shared.UnitOfWork,
	logger *zap.Logger,
) *AccountService {
	return &AccountService{
		accountRepo: accountRepo,
		ledgerRepo:  ledgerRepo,
		poster:      ledger.NewAccountService(),
		uow:         uow,
		logger:      logger,
	}
}

// CreateAccountRequest carries the fields of a new account
type CreateAccountRequest struct {
	Name          string
	AccountType   ledger.AccountType
	Currency      valueobject.Currency
	AccountNumber string
	BankName      string
	Comment       string
}

// PostTransactionRequest carries a manual ledger posting
type PostTransactionRequest struct {
	AccountID uuid.UUID
	Type      ledger.TransactionType
	Amount    decimal.Decimal
	Date      time.Time
	Comment   string
}

// TransferRequest moves money between two accounts of the same currency
type TransferRequest struct {
	FromAccountID uuid.UUID
	ToAccountID   uuid.UUID
	Amount        decimal.Decimal
	Date          time.Time
	Comment       string
}

// CreateAccount registers a new account with zero balance. An opening balance
// is posted afterwards as an adjustment.
func (s *AccountService) CreateAccount(ctx context.Context, req CreateAccountRequest) (*ledger.Account, error) {
	currency := req.Currency
	if currency == "" {
		currency = valueobject.DefaultCurrency
	}
	account, err := ledger.NewAccount(req.Name, req.AccountType, currency)
	if err != nil {
		return nil, err
	}
	account.AccountNumber = req.AccountNumber
	account.BankName = req.BankName
	account.Comment = req.Comment

	if err := s.accountRepo.Save(ctx, account); err != nil {
		return nil, fmt.Errorf("failed to save account: %w", err)
	}

	s.logger.Info("Account created",
		zap.String("account_id", account.ID.String()),
		zap.String("name", account.Name),
		zap.String("type", string(account.AccountType)))

	return account, nil
}

// DeactivateAccount takes the account out of use for new postings. Its ledger
// history stays queryable.
func (s *AccountService) DeactivateAccount(ctx context.Context, accountID uuid.UUID) error {
	account, err := s.accountRepo.FindByID(ctx, accountID)
	if err != nil {
		return err
	}
	account.Deactivate()
	return s.accountRepo.Save(ctx, account)
}

// PostTransaction posts one manual income, expense or adjustment entry.
// Transfers go through Transfer instead so both sides are written together.
func (s *AccountService) PostTransaction(ctx context.Context, req PostTransactionRequest) (*ledger.AccountTransaction, error) {
	if req.Type == ledger.TransactionTypeTransferIn || req.Type == ledger.TransactionTypeTransferOut {
		return nil, shared.NewDomainError("INVALID_TRANSACTION_TYPE",
			"Transfers must be posted through the transfer operation")
	}

	var entry *ledger.AccountTransaction
	err := s.uow.Do(ctx, func(ctx context.Context) error {
		account, err := s.accountRepo.FindByIDForUpdate(ctx, req.AccountID)
		if err != nil {
			return fmt.Errorf("failed to load account: %w", err)
		}
		if !account.IsActive {
			return shared.NewDomainError("INACTIVE_ACCOUNT", "Cannot post to a deactivated account")
		}

		posting, err := s.poster.Post(account, req.Type, req.Amount, req.Date,
			ledger.TransactionRefs{Comment: req.Comment}, nil)
		if err != nil {
			return err
		}
		entry = posting.Primary()

		if err := s.accountRepo.Save(ctx, account); err != nil {
			return fmt.Errorf("failed to save account: %w", err)
		}
		return s.ledgerRepo.SaveAll(ctx, posting.Transactions)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Transaction posted",
		zap.String("account_id", req.AccountID.String()),
		zap.String("type", string(req.Type)),
		zap.String("amount", req.Amount.String()))

	return entry, nil
}

// Transfer moves money between two accounts, producing the paired transfer_out
// and transfer_in entries. Fails before anything is written when the
// currencies differ or the source balance cannot cover the amount.
func (s *AccountService) Transfer(ctx context.Context, req TransferRequest) (*ledger.PostingResult, error) {
	if req.FromAccountID == req.ToAccountID {
		return nil, shared.NewDomainError("INVALID_TRANSFER", "Cannot transfer an account to itself")
	}

	var result *ledger.PostingResult
	err := s.uow.Do(ctx, func(ctx context.Context) error {
		source, err := s.accountRepo.FindByIDForUpdate(ctx, req.FromAccountID)
		if err != nil {
			return fmt.Errorf("failed to load source account: %w", err)
		}
		target, err := s.accountRepo.FindByIDForUpdate(ctx, req.ToAccountID)
		if err != nil {
			return fmt.Errorf("failed to load target account: %w", err)
		}
		if !source.IsActive || !target.IsActive {
			return shared.NewDomainError("INACTIVE_ACCOUNT", "Cannot transfer on a deactivated account")
		}

		targetID := target.ID
		result, err = s.poster.Post(source, ledger.TransactionTypeTransferOut, req.Amount, req.Date,
			ledger.TransactionRefs{RelatedAccountID: &targetID, Comment: req.Comment}, target)
		if err != nil {
			return err
		}

		for _, account := range result.Accounts {
			if err := s.accountRepo.Save(ctx, account); err != nil {
				return fmt.Errorf("failed to save account: %w", err)
			}
		}
		return s.ledgerRepo.SaveAll(ctx, result.Transactions)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Transfer posted",
		zap.String("from", req.FromAccountID.String()),
		zap.String("to", req.ToAccountID.String()),
		zap.String("amount", req.Amount.String()))

	return result, nil
}

// GetAccount loads one account
func (s *AccountService) GetAccount(ctx context.Context, accountID uuid.UUID) (*ledger.Account, error) {
	return s.accountRepo.FindByID(ctx, accountID)
}

// ListAccounts returns all active accounts
func (s *AccountService) ListAccounts(ctx context.Context) ([]*ledger.Account, error) {
	return s.accountRepo.FindActive(ctx)
}

// ListTransactions returns the account's ledger entries matching the filter
func (s *AccountService) ListTransactions(ctx context.Context, accountID uuid.UUID, filter ledger.TransactionFilter) ([]*ledger.AccountTransaction, error) {
	return s.ledgerRepo.FindByAccount(ctx, accountID, filter)
}

// TotalBalances sums active account balances per currency
func (s *AccountService) TotalBalances(ctx context.Context) (map[valueobject.Currency]decimal.Decimal, error) {
	totals := make(map[valueobject.Currency]decimal.Decimal, len(valueobject.Currencies()))
	for _, currency := range valueobject.Currencies() {
		sum, err := s.accountRepo.SumBalanceByCurrency(ctx, currency)
		if err != nil {
			return nil, fmt.Errorf("failed to sum %s balances: %w", currency, err)
		}
		totals[currency] = sum
	}
	return totals, nil
}
