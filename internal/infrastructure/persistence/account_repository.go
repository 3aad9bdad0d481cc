package persistence

import (
	"context"
	"errors"

	"github.com/amt/backend/internal/domain/ledger"
	"github.com/amt/backend/internal/domain/shared"
	"github.com/amt/backend/internal/domain/shared/valueobject"
	"github.com/amt/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormAccountRepository implements ledger.AccountRepository using GORM
type GormAccountRepository struct {
	db *gorm.DB
}

// NewGormAccountRepository creates a new GormAccountRepository
func NewGormAccountRepository(db *gorm.DB) *GormAccountRepository {
	return &GormAccountRepository{db: db}
}

// FindByID finds an account by its ID
func (r *GormAccountRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.Account, error) {
	var model models.AccountModel
	if err := dbFrom(ctx, r.db).WithContext(ctx).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDForUpdate loads an account with a row lock. Callers must hold a
// transaction, otherwise the lock ends the moment the query returns.
func (r *GormAccountRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*ledger.Account, error) {
	var model models.AccountModel
	if err := dbFrom(ctx, r.db).WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindActive returns all active accounts ordered by name
func (r *GormAccountRepository) FindActive(ctx context.Context) ([]*ledger.Account, error) {
	var modelList []models.AccountModel
	if err := dbFrom(ctx, r.db).WithContext(ctx).
		Where("is_active = ?", true).
		Order("name ASC").
		Find(&modelList).Error; err != nil {
		return nil, err
	}

	accounts := make([]*ledger.Account, len(modelList))
	for i := range modelList {
		accounts[i] = modelList[i].ToDomain()
	}
	return accounts, nil
}

// Save persists an account, creating or updating as needed
func (r *GormAccountRepository) Save(ctx context.Context, account *ledger.Account) error {
	model := models.AccountModelFromDomain(account)
	return dbFrom(ctx, r.db).WithContext(ctx).Save(model).Error
}

// SumBalanceByCurrency totals active account balances in one currency
func (r *GormAccountRepository) SumBalanceByCurrency(ctx context.Context, currency valueobject.Currency) (decimal.Decimal, error) {
	var total decimal.Decimal
	if err := dbFrom(ctx, r.db).WithContext(ctx).
		Model(&models.AccountModel{}).
		Select("COALESCE(SUM(balance), 0)").
		Where("is_active = ? AND currency = ?", true, currency).
		Scan(&total).Error; err != nil {
		return decimal.Zero, err
	}
	return total, nil
}
