package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/amt/backend/internal/domain/billing"
	"github.com/amt/backend/internal/domain/shared"
	"github.com/amt/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ContractService manages lease contracts and keeps their billing schedules in
// step with contract changes
type ContractService struct {
	contractRepo billing.ContractRepository
	lineRepo     billing.BillingLineRepository
	generator    *billing.ScheduleGenerator
	uow          shared.UnitOfWork
	logger       *zap.Logger
	now          func() time.Time
}

// NewContractService creates a new ContractService
func NewContractService(
	contractRepo billing.ContractRepository,
	lineRepo billing.BillingLineRepository,
	uow shared.UnitOfWork,
	logger *zap.Logger,
) *ContractService {
	return &ContractService{
		contractRepo: contractRepo,
		lineRepo:     lineRepo,
		generator:    billing.NewScheduleGenerator(),
		uow:          uow,
		logger:       logger,
		now:          time.Now,
	}
}

// CreateContractRequest carries the fields of a new lease contract
type CreateContractRequest struct {
	Number         string
	SignedAt       time.Time
	StartDate      time.Time
	EndDate        time.Time
	RentAmount     decimal.Decimal
	Currency       valueobject.Currency
	DueDay         int
	DepositEnabled bool
	DepositAmount  decimal.Decimal
	AdvanceEnabled bool
	AdvanceMonths  int
	Comment        string
}

// CreateContract registers a new contract in draft status. The billing
// schedule is generated separately, usually on activation.
func (s *ContractService) CreateContract(ctx context.Context, req CreateContractRequest) (*billing.Contract, error) {
	if existing, err := s.contractRepo.FindByNumber(ctx, req.Number); err == nil && existing != nil {
		return nil, shared.ErrAlreadyExists
	}

	currency := req.Currency
	if currency == "" {
		currency = valueobject.DefaultCurrency
	}
	rent, err := valueobject.NewMoney(req.RentAmount, currency)
	if err != nil {
		return nil, err
	}

	contract, err := billing.NewContract(req.Number, req.SignedAt, req.StartDate, req.EndDate, rent, req.DueDay)
	if err != nil {
		return nil, err
	}
	contract.DepositEnabled = req.DepositEnabled
	contract.DepositAmount = req.DepositAmount
	contract.AdvanceEnabled = req.AdvanceEnabled
	if req.AdvanceMonths > 0 {
		contract.AdvanceMonths = req.AdvanceMonths
	}
	contract.Comment = req.Comment

	if err := s.contractRepo.Save(ctx, contract); err != nil {
		return nil, fmt.Errorf("failed to save contract: %w", err)
	}

	s.logger.Info("Contract created",
		zap.String("contract_id", contract.ID.String()),
		zap.String("number", contract.Number))

	return contract, nil
}

// ActivateContract moves a draft contract to active and generates its billing
// schedule in the same transaction.
func (s *ContractService) ActivateContract(ctx context.Context, contractID uuid.UUID) (*billing.Contract, error) {
	var contract *billing.Contract
	err := s.uow.Do(ctx, func(ctx context.Context) error {
		var err error
		contract, err = s.contractRepo.FindByID(ctx, contractID)
		if err != nil {
			return err
		}
		if err := contract.Activate(); err != nil {
			return err
		}

		existing, err := s.lineRepo.FindByContractForUpdate(ctx, contractID)
		if err != nil {
			return fmt.Errorf("failed to load billing lines: %w", err)
		}
		result, err := s.generator.Generate(contract, existing, s.now())
		if err != nil {
			return err
		}
		if err := s.persistScheduleResult(ctx, result); err != nil {
			return err
		}
		return s.contractRepo.Save(ctx, contract)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Contract activated",
		zap.String("contract_id", contractID.String()))

	return contract, nil
}

// UpdateRentAmount changes the contract's rent and re-stamps the planned lines
// of its schedule. Lines with payment history keep their amounts.
func (s *ContractService) UpdateRentAmount(ctx context.Context, contractID uuid.UUID, amount decimal.Decimal) (*billing.Contract, error) {
	var contract *billing.Contract
	err := s.uow.Do(ctx, func(ctx context.Context) error {
		var err error
		contract, err = s.contractRepo.FindByID(ctx, contractID)
		if err != nil {
			return err
		}
		rent, err := valueobject.NewMoney(amount, contract.Currency)
		if err != nil {
			return err
		}
		if err := contract.UpdateRentAmount(rent); err != nil {
			return err
		}

		lines, err := s.lineRepo.FindByContractForUpdate(ctx, contractID)
		if err != nil {
			return fmt.Errorf("failed to load billing lines: %w", err)
		}
		updated := s.generator.Fix(contract, lines, s.now(), false)
		if err := s.lineRepo.SaveAll(ctx, updated); err != nil {
			return fmt.Errorf("failed to save billing lines: %w", err)
		}
		return s.contractRepo.Save(ctx, contract)
	})
	if err != nil {
		return nil, err
	}
	return contract, nil
}

// GetContract loads one contract
func (s *ContractService) GetContract(ctx context.Context, contractID uuid.UUID) (*billing.Contract, error) {
	return s.contractRepo.FindByID(ctx, contractID)
}

// ListContracts returns all contracts
func (s *ContractService) ListContracts(ctx context.Context) ([]*billing.Contract, error) {
	return s.contractRepo.FindAll(ctx)
}

func (s *ContractService) persistScheduleResult(ctx context.Context, result *billing.ScheduleResult) error {
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
	return nil
}
