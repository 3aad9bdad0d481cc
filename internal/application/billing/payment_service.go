package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/amt/backend/internal/domain/billing"
	"github.com/amt/backend/internal/domain/ledger"
	"github.com/amt/backend/internal/domain/shared"
	"github.com/amt/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PaymentService receives payments against contracts. One call does three
// things inside one transaction: the payment row is created, its amount is
// allocated FIFO onto the contract's open billing lines, and the money is
// posted as income on the receiving account.
type PaymentService struct {
	contractRepo   billing.ContractRepository
	lineRepo       billing.BillingLineRepository
	paymentRepo    billing.PaymentRepository
	allocationRepo billing.AllocationRepository
	accountRepo    ledger.AccountRepository
	ledgerRepo     ledger.AccountTransactionRepository
	allocator      *billing.Allocator
	accountService *ledger.AccountService
	uow            shared.UnitOfWork
	logger         *zap.Logger
	now            func() time.Time
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(
	contractRepo billing.ContractRepository,
	lineRepo billing.BillingLineRepository,
	paymentRepo billing.PaymentRepository,
	allocationRepo billing.AllocationRepository,
	accountRepo ledger.AccountRepository,
	ledgerRepo ledger.AccountTransactionRepository,
	uow shared.UnitOfWork,
	logger *zap.Logger,
) *PaymentService {
	return &PaymentService{
		contractRepo:   contractRepo,
		lineRepo:       lineRepo,
		paymentRepo:    paymentRepo,
		allocationRepo: allocationRepo,
		accountRepo:    accountRepo,
		ledgerRepo:     ledgerRepo,
		allocator:      billing.NewAllocator(),
		accountService: ledger.NewAccountService(),
		uow:            uow,
		logger:         logger,
		now:            time.Now,
	}
}

// CreatePaymentRequest carries a payment to receive against a contract
type CreatePaymentRequest struct {
	ContractID  uuid.UUID
	AccountID   uuid.UUID
	Amount      decimal.Decimal
	PaymentDate time.Time
	Comment     string
	// AsOf overrides the date used for status computation. Zero means now.
	AsOf time.Time
}

// AcceptLinePaymentRequest carries a payment aimed at one billing line
type AcceptLinePaymentRequest struct {
	BillingLineID uuid.UUID
	AccountID     uuid.UUID
	Amount        decimal.Decimal
	PaymentDate   time.Time
	Comment       string
	AsOf          time.Time
}

// PaymentResult reports what receiving a payment did
type PaymentResult struct {
	PaymentID         uuid.UUID       `json:"payment_id"`
	AllocatedAmount   decimal.Decimal `json:"allocated_amount"`
	UnallocatedAmount decimal.Decimal `json:"unallocated_amount"`
	LinesTouched      int             `json:"lines_touched"`
	AccountBalance    decimal.Decimal `json:"account_balance"`
}

func (s *PaymentService) asOf(t time.Time) time.Time {
	if t.IsZero() {
		return s.now()
	}
	return t
}

// CreatePayment receives a payment: the amount lands on the account as income
// and is spread over the contract's open billing lines oldest first. Any
// remainder stays unallocated on the payment.
func (s *PaymentService) CreatePayment(ctx context.Context, req CreatePaymentRequest) (*PaymentResult, error) {
	today := s.asOf(req.AsOf)
	result := &PaymentResult{}

	err := s.uow.Do(ctx, func(ctx context.Context) error {
		contract, err := s.contractRepo.FindByID(ctx, req.ContractID)
		if err != nil {
			return fmt.Errorf("failed to load contract: %w", err)
		}

		account, err := s.accountRepo.FindByIDForUpdate(ctx, req.AccountID)
		if err != nil {
			return fmt.Errorf("failed to load account: %w", err)
		}
		if !account.IsActive {
			return shared.NewDomainError("INACTIVE_ACCOUNT", "Cannot post to a deactivated account")
		}

		amount, err := valueobject.NewMoney(req.Amount, account.Currency)
		if err != nil {
			return err
		}
		payment, err := billing.NewPayment(contract.ID, account.ID, amount, req.PaymentDate, req.Comment)
		if err != nil {
			return err
		}

		lines, err := s.lineRepo.FindOpenByContract(ctx, contract.ID)
		if err != nil {
			return fmt.Errorf("failed to load open lines: %w", err)
		}
		allocation, err := s.allocator.AllocateFIFO(payment, lines, nil, today)
		if err != nil {
			return err
		}

		if err := s.paymentRepo.Save(ctx, payment); err != nil {
			return fmt.Errorf("failed to save payment: %w", err)
		}
		if err := s.lineRepo.SaveAll(ctx, allocation.TouchedLines); err != nil {
			return fmt.Errorf("failed to save billing lines: %w", err)
		}
		if err := s.allocationRepo.SaveAll(ctx, allocation.Allocations); err != nil {
			return fmt.Errorf("failed to save allocations: %w", err)
		}

		if err := s.postIncome(ctx, account, payment); err != nil {
			return err
		}

		result.PaymentID = payment.ID
		result.AllocatedAmount = payment.AllocatedAmount
		result.UnallocatedAmount = payment.UnallocatedAmount()
		result.LinesTouched = len(allocation.TouchedLines)
		result.AccountBalance = account.Balance
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Payment received",
		zap.String("payment_id", result.PaymentID.String()),
		zap.String("contract_id", req.ContractID.String()),
		zap.String("amount", req.Amount.String()),
		zap.String("allocated", result.AllocatedAmount.String()))

	return result, nil
}

// AcceptLinePayment receives a payment against one specific billing line. The
// amount may not exceed the line's outstanding balance. A real payment row and
// allocation are created, so the money is visible on the account and can be
// reversed like any other payment.
func (s *PaymentService) AcceptLinePayment(ctx context.Context, req AcceptLinePaymentRequest) (*PaymentResult, error) {
	today := s.asOf(req.AsOf)
	result := &PaymentResult{}

	err := s.uow.Do(ctx, func(ctx context.Context) error {
		line, err := s.lineRepo.FindByID(ctx, req.BillingLineID)
		if err != nil {
			return fmt.Errorf("failed to load billing line: %w", err)
		}
		// no amount given means settle the whole open balance
		if req.Amount.IsZero() {
			req.Amount = line.Balance
		}
		if req.Amount.GreaterThan(line.Balance) {
			return shared.NewDomainError("AMOUNT_EXCEEDS_BALANCE",
				"Payment amount exceeds the line's outstanding balance")
		}

		account, err := s.accountRepo.FindByIDForUpdate(ctx, req.AccountID)
		if err != nil {
			return fmt.Errorf("failed to load account: %w", err)
		}
		if !account.IsActive {
			return shared.NewDomainError("INACTIVE_ACCOUNT", "Cannot post to a deactivated account")
		}

		amount, err := valueobject.NewMoney(req.Amount, account.Currency)
		if err != nil {
			return err
		}
		payment, err := billing.NewPayment(line.ContractID, account.ID, amount, req.PaymentDate, req.Comment)
		if err != nil {
			return err
		}

		alloc, err := billing.NewAllocation(payment.ID, line.ID, req.Amount)
		if err != nil {
			return err
		}
		if err := line.ApplyPayment(req.Amount); err != nil {
			return err
		}
		line.Recompute(today)
		if err := payment.SetAllocatedAmount(req.Amount); err != nil {
			return err
		}

		if err := s.paymentRepo.Save(ctx, payment); err != nil {
			return fmt.Errorf("failed to save payment: %w", err)
		}
		if err := s.lineRepo.Save(ctx, line); err != nil {
			return fmt.Errorf("failed to save billing line: %w", err)
		}
		if err := s.allocationRepo.Save(ctx, alloc); err != nil {
			return fmt.Errorf("failed to save allocation: %w", err)
		}

		if err := s.postIncome(ctx, account, payment); err != nil {
			return err
		}

		result.PaymentID = payment.ID
		result.AllocatedAmount = payment.AllocatedAmount
		result.UnallocatedAmount = payment.UnallocatedAmount()
		result.LinesTouched = 1
		result.AccountBalance = account.Balance
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Line payment accepted",
		zap.String("payment_id", result.PaymentID.String()),
		zap.String("billing_line_id", req.BillingLineID.String()),
		zap.String("amount", req.Amount.String()))

	return result, nil
}

// ReallocatePayment withdraws the payment's allocations and re-runs FIFO
// allocation over the contract's current open lines. The account is untouched,
// the money never left it. Used after line amounts were edited.
func (s *PaymentService) ReallocatePayment(ctx context.Context, paymentID uuid.UUID, asOf time.Time) (*PaymentResult, error) {
	today := s.asOf(asOf)
	result := &PaymentResult{}

	err := s.uow.Do(ctx, func(ctx context.Context) error {
		payment, err := s.paymentRepo.FindByID(ctx, paymentID)
		if err != nil {
			return fmt.Errorf("failed to load payment: %w", err)
		}
		if payment.IsReturned {
			return shared.NewDomainError("INVALID_STATE", "Cannot reallocate a returned payment")
		}

		allocations, err := s.allocationRepo.FindByPayment(ctx, paymentID)
		if err != nil {
			return fmt.Errorf("failed to load allocations: %w", err)
		}

		lines, err := s.lineRepo.FindByContract(ctx, payment.ContractID)
		if err != nil {
			return fmt.Errorf("failed to load billing lines: %w", err)
		}
		linesByID := make(map[uuid.UUID]*billing.BillingLine, len(lines))
		for _, line := range lines {
			linesByID[line.ID] = line
		}

		if _, err := s.allocator.ReverseAllocations(payment, allocations, linesByID, today); err != nil {
			return err
		}
		if err := s.allocationRepo.DeleteByPayment(ctx, paymentID); err != nil {
			return fmt.Errorf("failed to delete allocations: %w", err)
		}

		var open []*billing.BillingLine
		for _, line := range lines {
			if !line.IsSettled() {
				open = append(open, line)
			}
		}
		allocation, err := s.allocator.AllocateFIFO(payment, open, nil, today)
		if err != nil {
			return err
		}

		if err := s.paymentRepo.Save(ctx, payment); err != nil {
			return fmt.Errorf("failed to save payment: %w", err)
		}
		if err := s.lineRepo.SaveAll(ctx, lines); err != nil {
			return fmt.Errorf("failed to save billing lines: %w", err)
		}
		if err := s.allocationRepo.SaveAll(ctx, allocation.Allocations); err != nil {
			return fmt.Errorf("failed to save allocations: %w", err)
		}

		result.PaymentID = payment.ID
		result.AllocatedAmount = payment.AllocatedAmount
		result.UnallocatedAmount = payment.UnallocatedAmount()
		result.LinesTouched = len(allocation.TouchedLines)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Payment reallocated",
		zap.String("payment_id", paymentID.String()),
		zap.String("allocated", result.AllocatedAmount.String()))

	return result, nil
}

// GetPayment loads one payment
func (s *PaymentService) GetPayment(ctx context.Context, paymentID uuid.UUID) (*billing.Payment, error) {
	return s.paymentRepo.FindByID(ctx, paymentID)
}

// GetContractPayments returns the contract's payments
func (s *PaymentService) GetContractPayments(ctx context.Context, contractID uuid.UUID) ([]*billing.Payment, error) {
	return s.paymentRepo.FindByContract(ctx, contractID)
}

func (s *PaymentService) postIncome(ctx context.Context, account *ledger.Account, payment *billing.Payment) error {
	paymentID := payment.ID
	posting, err := s.accountService.Post(
		account,
		ledger.TransactionTypeIncome,
		payment.Amount,
		payment.PaymentDate,
		ledger.TransactionRefs{
			RelatedPaymentID: &paymentID,
			Comment:          payment.Comment,
		},
		nil,
	)
	if err != nil {
		return err
	}
	if err := s.accountRepo.Save(ctx, account); err != nil {
		return fmt.Errorf("failed to save account: %w", err)
	}
	if err := s.ledgerRepo.SaveAll(ctx, posting.Transactions); err != nil {
		return fmt.Errorf("failed to save ledger entries: %w", err)
	}
	return nil
}
