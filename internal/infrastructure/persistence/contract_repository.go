package persistence

import (
	"context"
	"errors"

	"github.com/amt/backend/internal/domain/billing"
	"github.com/amt/backend/internal/domain/shared"
	"github.com/amt/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormContractRepository implements billing.ContractRepository using GORM
type GormContractRepository struct {
	db *gorm.DB
}

// NewGormContractRepository creates a new GormContractRepository
func NewGormContractRepository(db *gorm.DB) *GormContractRepository {
	return &GormContractRepository{db: db}
}

// FindByID finds a contract by its ID
func (r *GormContractRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Contract, error) {
	var model models.ContractModel
	if err := dbFrom(ctx, r.db).WithContext(ctx).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByNumber finds a contract by its unique number
func (r *GormContractRepository) FindByNumber(ctx context.Context, number string) (*billing.Contract, error) {
	var model models.ContractModel
	if err := dbFrom(ctx, r.db).WithContext(ctx).
		Where("number = ?", number).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll returns all contracts ordered by start date, newest first
func (r *GormContractRepository) FindAll(ctx context.Context) ([]*billing.Contract, error) {
	var modelList []models.ContractModel
	if err := dbFrom(ctx, r.db).WithContext(ctx).
		Order("start_date DESC").
		Find(&modelList).Error; err != nil {
		return nil, err
	}

	contracts := make([]*billing.Contract, len(modelList))
	for i := range modelList {
		contracts[i] = modelList[i].ToDomain()
	}
	return contracts, nil
}

// Save persists a contract, creating or updating as needed
func (r *GormContractRepository) Save(ctx context.Context, contract *billing.Contract) error {
	model := models.ContractModelFromDomain(contract)
	return dbFrom(ctx, r.db).WithContext(ctx).Save(model).Error
}

// Delete removes a contract by its ID
func (r *GormContractRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := dbFrom(ctx, r.db).WithContext(ctx).
		Delete(&models.ContractModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}
