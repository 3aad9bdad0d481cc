package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/amt/backend/internal/domain/billing"
	"github.com/amt/backend/internal/domain/ledger"
	"github.com/amt/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ReversalService undoes payment effects exactly. Cancelling a line's payment
// only moves money back from the line to the payments; returning or deleting a
// payment also rolls its income entries back off the account. Every flow runs
// in one transaction.
type ReversalService struct {
	lineRepo       billing.BillingLineRepository
	paymentRepo    billing.PaymentRepository
	allocationRepo billing.AllocationRepository
	accountRepo    ledger.AccountRepository
	ledgerRepo     ledger.AccountTransactionRepository
	coordinator    *billing.ReversalCoordinator
	accountService *ledger.AccountService
	uow            shared.UnitOfWork
	logger         *zap.Logger
	now            func() time.Time
}

// NewReversalService creates a new ReversalService
func NewReversalService(
	lineRepo billing.BillingLineRepository,
	paymentRepo billing.PaymentRepository,
	allocationRepo billing.AllocationRepository,
	accountRepo ledger.AccountRepository,
	ledgerRepo ledger.AccountTransactionRepository,
	uow shared.UnitOfWork,
	logger *zap.Logger,
) *ReversalService {
	return &ReversalService{
		lineRepo:       lineRepo,
		paymentRepo:    paymentRepo,
		allocationRepo: allocationRepo,
		accountRepo:    accountRepo,
		ledgerRepo:     ledgerRepo,
		coordinator:    billing.NewReversalCoordinator(),
		accountService: ledger.NewAccountService(),
		uow:            uow,
		logger:         logger,
		now:            time.Now,
	}
}

func (s *ReversalService) asOf(t time.Time) time.Time {
	if t.IsZero() {
		return s.now()
	}
	return t
}

// CancelLinePayment takes everything paid against one billing line back out of
// it. The affected payments keep their money as unallocated amounts; the
// account balances do not move.
func (s *ReversalService) CancelLinePayment(ctx context.Context, lineID uuid.UUID, asOf time.Time) (*billing.CancelResult, error) {
	today := s.asOf(asOf)
	var result *billing.CancelResult

	err := s.uow.Do(ctx, func(ctx context.Context) error {
		line, err := s.lineRepo.FindByIDForUpdate(ctx, lineID)
		if err != nil {
			return fmt.Errorf("failed to load billing line: %w", err)
		}
		allocations, err := s.allocationRepo.FindByBillingLine(ctx, lineID)
		if err != nil {
			return fmt.Errorf("failed to load allocations: %w", err)
		}

		paymentIDs := make([]uuid.UUID, 0, len(allocations))
		seen := make(map[uuid.UUID]bool, len(allocations))
		for _, alloc := range allocations {
			if !seen[alloc.PaymentID] {
				seen[alloc.PaymentID] = true
				paymentIDs = append(paymentIDs, alloc.PaymentID)
			}
		}
		payments, err := s.paymentRepo.FindByIDs(ctx, paymentIDs)
		if err != nil {
			return fmt.Errorf("failed to load payments: %w", err)
		}
		paymentsByID := make(map[uuid.UUID]*billing.Payment, len(payments))
		for _, p := range payments {
			paymentsByID[p.ID] = p
		}

		result, err = s.coordinator.CancelLinePayment(line, allocations, paymentsByID, today)
		if err != nil {
			return err
		}

		if err := s.lineRepo.Save(ctx, line); err != nil {
			return fmt.Errorf("failed to save billing line: %w", err)
		}
		if err := s.paymentRepo.SaveAll(ctx, result.TouchedPayments); err != nil {
			return fmt.Errorf("failed to save payments: %w", err)
		}
		return s.deleteAllocations(ctx, result.RemovedAllocations)
	})
	if err != nil {
		return nil, err
	}

	if result.Clamped {
		s.logger.Warn("Line payment cancellation clamped a decrement",
			zap.String("billing_line_id", lineID.String()))
	}
	s.logger.Info("Line payment cancelled",
		zap.String("billing_line_id", lineID.String()),
		zap.String("returned", result.ReturnedAmount.String()),
		zap.String("new_status", string(result.NewStatus)))

	return result, nil
}

// ReturnPayment reverses the payment completely: every allocation is undone,
// the income entries it produced are rolled back off their accounts and
// deleted, and the payment is flagged returned. Returned is terminal.
func (s *ReversalService) ReturnPayment(ctx context.Context, paymentID uuid.UUID, asOf time.Time) (*billing.ReturnResult, error) {
	today := s.asOf(asOf)
	var result *billing.ReturnResult

	err := s.uow.Do(ctx, func(ctx context.Context) error {
		payment, allocations, linesByID, err := s.loadReversalSet(ctx, paymentID)
		if err != nil {
			return err
		}

		result, err = s.coordinator.ReturnPayment(payment, allocations, linesByID, today)
		if err != nil {
			return err
		}

		if err := s.persistReversal(ctx, payment, result); err != nil {
			return err
		}
		return s.rollbackLedger(ctx, paymentID)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Payment returned",
		zap.String("payment_id", paymentID.String()),
		zap.String("returned", result.ReturnedAmount.String()))

	return result, nil
}

// DeletePayment removes the payment entirely: allocations are undone like in a
// return, the ledger entries are rolled back, and the payment row itself is
// hard-deleted instead of being flagged.
func (s *ReversalService) DeletePayment(ctx context.Context, paymentID uuid.UUID, asOf time.Time) (*billing.ReturnResult, error) {
	today := s.asOf(asOf)
	var result *billing.ReturnResult

	err := s.uow.Do(ctx, func(ctx context.Context) error {
		payment, allocations, linesByID, err := s.loadReversalSet(ctx, paymentID)
		if err != nil {
			return err
		}

		result, err = s.coordinator.PreparePaymentDeletion(payment, allocations, linesByID, today)
		if err != nil {
			return err
		}

		if err := s.lineRepo.SaveAll(ctx, result.TouchedLines); err != nil {
			return fmt.Errorf("failed to save billing lines: %w", err)
		}
		if err := s.allocationRepo.DeleteByPayment(ctx, paymentID); err != nil {
			return fmt.Errorf("failed to delete allocations: %w", err)
		}
		if err := s.rollbackLedger(ctx, paymentID); err != nil {
			return err
		}
		return s.paymentRepo.Delete(ctx, paymentID)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Payment deleted",
		zap.String("payment_id", paymentID.String()),
		zap.String("returned", result.ReturnedAmount.String()))

	return result, nil
}

func (s *ReversalService) loadReversalSet(ctx context.Context, paymentID uuid.UUID) (*billing.Payment, []*billing.Allocation, map[uuid.UUID]*billing.BillingLine, error) {
	payment, err := s.paymentRepo.FindByID(ctx, paymentID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load payment: %w", err)
	}
	allocations, err := s.allocationRepo.FindByPayment(ctx, paymentID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load allocations: %w", err)
	}

	linesByID := make(map[uuid.UUID]*billing.BillingLine, len(allocations))
	for _, alloc := range allocations {
		if _, ok := linesByID[alloc.BillingLineID]; ok {
			continue
		}
		line, err := s.lineRepo.FindByIDForUpdate(ctx, alloc.BillingLineID)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to load billing line: %w", err)
		}
		linesByID[line.ID] = line
	}
	return payment, allocations, linesByID, nil
}

func (s *ReversalService) persistReversal(ctx context.Context, payment *billing.Payment, result *billing.ReturnResult) error {
	if err := s.paymentRepo.Save(ctx, payment); err != nil {
		return fmt.Errorf("failed to save payment: %w", err)
	}
	if err := s.lineRepo.SaveAll(ctx, result.TouchedLines); err != nil {
		return fmt.Errorf("failed to save billing lines: %w", err)
	}
	return s.allocationRepo.DeleteByPayment(ctx, payment.ID)
}

// rollbackLedger undoes and deletes every income entry the payment produced
func (s *ReversalService) rollbackLedger(ctx context.Context, paymentID uuid.UUID) error {
	entries, err := s.ledgerRepo.FindByRelatedPayment(ctx, paymentID)
	if err != nil {
		return fmt.Errorf("failed to load ledger entries: %w", err)
	}
	for _, entry := range entries {
		if entry.Type != ledger.TransactionTypeIncome {
			continue
		}
		account, err := s.accountRepo.FindByIDForUpdate(ctx, entry.AccountID)
		if err != nil {
			return fmt.Errorf("failed to load account: %w", err)
		}
		clamped, err := s.accountService.RollbackIncome(account, entry)
		if err != nil {
			return err
		}
		if clamped {
			s.logger.Warn("Ledger rollback clamped at zero balance",
				zap.String("account_id", account.ID.String()),
				zap.String("payment_id", paymentID.String()))
		}
		if err := s.accountRepo.Save(ctx, account); err != nil {
			return fmt.Errorf("failed to save account: %w", err)
		}
		if err := s.ledgerRepo.Delete(ctx, entry.ID); err != nil {
			return fmt.Errorf("failed to delete ledger entry: %w", err)
		}
	}
	return nil
}

func (s *ReversalService) deleteAllocations(ctx context.Context, allocations []*billing.Allocation) error {
	if len(allocations) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, len(allocations))
	for i, alloc := range allocations {
		ids[i] = alloc.ID
	}
	if err := s.allocationRepo.DeleteAll(ctx, ids); err != nil {
		return fmt.Errorf("failed to delete allocations: %w", err)
	}
	return nil
}
