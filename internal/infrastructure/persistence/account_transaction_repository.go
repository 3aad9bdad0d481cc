package persistence

import (
	"context"
	"errors"

	"github.com/amt/backend/internal/domain/ledger"
	"github.com/amt/backend/internal/domain/shared"
	"github.com/amt/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormAccountTransactionRepository implements ledger.AccountTransactionRepository using GORM
type GormAccountTransactionRepository struct {
	db *gorm.DB
}

// NewGormAccountTransactionRepository creates a new GormAccountTransactionRepository
func NewGormAccountTransactionRepository(db *gorm.DB) *GormAccountTransactionRepository {
	return &GormAccountTransactionRepository{db: db}
}

// FindByID finds a ledger entry by its ID
func (r *GormAccountTransactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.AccountTransaction, error) {
	var model models.AccountTransactionModel
	if err := dbFrom(ctx, r.db).WithContext(ctx).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByAccount returns an account's ledger entries matching the filter,
// newest first.
func (r *GormAccountTransactionRepository) FindByAccount(ctx context.Context, accountID uuid.UUID, filter ledger.TransactionFilter) ([]*ledger.AccountTransaction, error) {
	query := dbFrom(ctx, r.db).WithContext(ctx).
		Model(&models.AccountTransactionModel{}).
		Where("account_id = ?", accountID)

	if filter.Type != nil {
		query = query.Where("type = ?", *filter.Type)
	}
	if filter.DateFrom != nil {
		query = query.Where("transaction_date >= ?", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		query = query.Where("transaction_date <= ?", *filter.DateTo)
	}

	query = query.Order("transaction_date DESC, created_at DESC")

	if filter.PageSize > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		query = query.Offset((page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	var modelList []models.AccountTransactionModel
	if err := query.Find(&modelList).Error; err != nil {
		return nil, err
	}
	return toDomainTransactions(modelList), nil
}

// FindByRelatedPayment returns every ledger entry caused by a payment
func (r *GormAccountTransactionRepository) FindByRelatedPayment(ctx context.Context, paymentID uuid.UUID) ([]*ledger.AccountTransaction, error) {
	var modelList []models.AccountTransactionModel
	if err := dbFrom(ctx, r.db).WithContext(ctx).
		Where("related_payment_id = ?", paymentID).
		Order("created_at ASC").
		Find(&modelList).Error; err != nil {
		return nil, err
	}
	return toDomainTransactions(modelList), nil
}

// Save persists a ledger entry
func (r *GormAccountTransactionRepository) Save(ctx context.Context, tx *ledger.AccountTransaction) error {
	model := models.AccountTransactionModelFromDomain(tx)
	return dbFrom(ctx, r.db).WithContext(ctx).Save(model).Error
}

// SaveAll persists a batch of ledger entries
func (r *GormAccountTransactionRepository) SaveAll(ctx context.Context, txs []*ledger.AccountTransaction) error {
	if len(txs) == 0 {
		return nil
	}
	modelList := make([]*models.AccountTransactionModel, len(txs))
	for i, tx := range txs {
		modelList[i] = models.AccountTransactionModelFromDomain(tx)
	}
	return dbFrom(ctx, r.db).WithContext(ctx).Save(modelList).Error
}

// Delete removes a ledger entry by its ID
func (r *GormAccountTransactionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := dbFrom(ctx, r.db).WithContext(ctx).
		Delete(&models.AccountTransactionModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func toDomainTransactions(modelList []models.AccountTransactionModel) []*ledger.AccountTransaction {
	txs := make([]*ledger.AccountTransaction, len(modelList))
	for i := range modelList {
		txs[i] = modelList[i].ToDomain()
	}
	return txs
}
