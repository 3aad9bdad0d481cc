package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/amt/backend/internal/domain/billing"
	"github.com/amt/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ScheduleService runs the billing schedule operations: generation, fixing and
// the date-driven status refresh. Every operation takes an explicit as-of date
// so a past or future date can be replayed deterministically; the zero value
// means the current date.
type ScheduleService struct {
	contractRepo billing.ContractRepository
	lineRepo     billing.BillingLineRepository
	generator    *billing.ScheduleGenerator
	uow          shared.UnitOfWork
	logger       *zap.Logger
	now          func() time.Time
}

// NewScheduleService creates a new ScheduleService
func NewScheduleService(
	contractRepo billing.ContractRepository,
	lineRepo billing.BillingLineRepository,
	uow shared.UnitOfWork,
	logger *zap.Logger,
) *ScheduleService {
	return &ScheduleService{
		contractRepo: contractRepo,
		lineRepo:     lineRepo,
		generator:    billing.NewScheduleGenerator(),
		uow:          uow,
		logger:       logger,
		now:          time.Now,
	}
}

// ScheduleSummary reports what a schedule operation changed
type ScheduleSummary struct {
	ContractID uuid.UUID `json:"contract_id"`
	Deleted    int       `json:"deleted"`
	Created    int       `json:"created"`
	Updated    int       `json:"updated"`
}

func (s *ScheduleService) asOf(t time.Time) time.Time {
	if t.IsZero() {
		return s.now()
	}
	return t
}

// GenerateSchedule rebuilds the contract's billing lines from its date range.
// Planned lines are replaced, lines with payment history are kept and the new
// periods resume after them. Safe to call repeatedly.
func (s *ScheduleService) GenerateSchedule(ctx context.Context, contractID uuid.UUID, asOf time.Time) (*ScheduleSummary, error) {
	today := s.asOf(asOf)
	summary := &ScheduleSummary{ContractID: contractID}

	err := s.uow.Do(ctx, func(ctx context.Context) error {
		contract, err := s.contractRepo.FindByID(ctx, contractID)
		if err != nil {
			return err
		}
		existing, err := s.lineRepo.FindByContractForUpdate(ctx, contractID)
		if err != nil {
			return fmt.Errorf("failed to load billing lines: %w", err)
		}
		result, err := s.generator.Generate(contract, existing, today)
		if err != nil {
			return err
		}

		if len(result.ToDelete) > 0 {
			ids := make([]uuid.UUID, len(result.ToDelete))
			for i, line := range result.ToDelete {
				ids[i] = line.ID
			}
			if err := s.lineRepo.DeleteAll(ctx, ids); err != nil {
				return fmt.Errorf("failed to delete planned lines: %w", err)
			}
		}
		if err := s.lineRepo.SaveAll(ctx, result.Created); err != nil {
			return fmt.Errorf("failed to save billing lines: %w", err)
		}

		summary.Deleted = len(result.ToDelete)
		summary.Created = len(result.Created)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Billing schedule generated",
		zap.String("contract_id", contractID.String()),
		zap.Int("created", summary.Created),
		zap.Int("deleted", summary.Deleted))

	return summary, nil
}

// FixSchedule re-stamps the contract's planned lines with the current rent
// amount. With force set every line is rewritten, preserving paid amounts.
func (s *ScheduleService) FixSchedule(ctx context.Context, contractID uuid.UUID, force bool, asOf time.Time) (*ScheduleSummary, error) {
	today := s.asOf(asOf)
	summary := &ScheduleSummary{ContractID: contractID}

	err := s.uow.Do(ctx, func(ctx context.Context) error {
		contract, err := s.contractRepo.FindByID(ctx, contractID)
		if err != nil {
			return err
		}
		lines, err := s.lineRepo.FindByContractForUpdate(ctx, contractID)
		if err != nil {
			return fmt.Errorf("failed to load billing lines: %w", err)
		}
		updated := s.generator.Fix(contract, lines, today, force)
		if err := s.lineRepo.SaveAll(ctx, updated); err != nil {
			return fmt.Errorf("failed to save billing lines: %w", err)
		}
		summary.Updated = len(updated)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return summary, nil
}

// RefreshStatuses recomputes every unsettled billing line for the as-of date.
// Run daily, or after the clock has moved in tests and backfills.
func (s *ScheduleService) RefreshStatuses(ctx context.Context, asOf time.Time) (int, error) {
	today := s.asOf(asOf)
	var changed int

	err := s.uow.Do(ctx, func(ctx context.Context) error {
		lines, err := s.lineRepo.FindUnsettled(ctx)
		if err != nil {
			return fmt.Errorf("failed to load unsettled lines: %w", err)
		}
		updated := s.generator.RefreshStatuses(lines, today)
		if err := s.lineRepo.SaveAll(ctx, updated); err != nil {
			return fmt.Errorf("failed to save billing lines: %w", err)
		}
		changed = len(updated)
		return nil
	})
	if err != nil {
		return 0, err
	}

	if changed > 0 {
		s.logger.Info("Billing line statuses refreshed",
			zap.Int("changed", changed),
			zap.Time("as_of", today))
	}
	return changed, nil
}

// UpdateLineAmountsRequest carries a partial edit of one line's variable
// amounts. Nil fields are left untouched.
type UpdateLineAmountsRequest struct {
	LineID      uuid.UUID
	Adjustments *decimal.Decimal
	Utilities   *decimal.Decimal
	Comment     *string
	AsOf        time.Time
}

// UpdateLineAmounts edits a line's adjustments and utilities amounts and
// recomputes its derived fields. Settled lines reopen when the final amount
// grows past the paid amount.
func (s *ScheduleService) UpdateLineAmounts(ctx context.Context, req UpdateLineAmountsRequest) (*billing.BillingLine, error) {
	today := s.asOf(req.AsOf)
	var line *billing.BillingLine

	err := s.uow.Do(ctx, func(ctx context.Context) error {
		var err error
		line, err = s.lineRepo.FindByIDForUpdate(ctx, req.LineID)
		if err != nil {
			return fmt.Errorf("failed to load billing line: %w", err)
		}

		if req.Adjustments != nil {
			line.SetAdjustments(*req.Adjustments)
		}
		if req.Utilities != nil {
			if err := line.SetUtilitiesAmount(*req.Utilities); err != nil {
				return err
			}
		}
		if req.Comment != nil {
			line.Comment = *req.Comment
		}
		line.Recompute(today)

		return s.lineRepo.Save(ctx, line)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Billing line amounts updated",
		zap.String("line_id", line.ID.String()),
		zap.String("final_amount", line.FinalAmount.String()),
		zap.String("status", string(line.Status)))
	return line, nil
}

// GetContractLines returns the contract's billing lines in FIFO order
func (s *ScheduleService) GetContractLines(ctx context.Context, contractID uuid.UUID) ([]*billing.BillingLine, error) {
	return s.lineRepo.FindByContract(ctx, contractID)
}

// ListLines returns billing lines matching the filter
func (s *ScheduleService) ListLines(ctx context.Context, filter billing.BillingLineFilter) ([]*billing.BillingLine, error) {
	return s.lineRepo.FindAll(ctx, filter)
}
