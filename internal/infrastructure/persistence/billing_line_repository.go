package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/amt/backend/internal/domain/billing"
	"github.com/amt/backend/internal/domain/shared"
	"github.com/amt/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormBillingLineRepository implements billing.BillingLineRepository using GORM
type GormBillingLineRepository struct {
	db *gorm.DB
}

// NewGormBillingLineRepository creates a new GormBillingLineRepository
func NewGormBillingLineRepository(db *gorm.DB) *GormBillingLineRepository {
	return &GormBillingLineRepository{db: db}
}

// FindByID finds a billing line by its ID
func (r *GormBillingLineRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.BillingLine, error) {
	var model models.BillingLineModel
	if err := dbFrom(ctx, r.db).WithContext(ctx).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDForUpdate loads a billing line with a row lock. Callers must hold
// a transaction, otherwise the lock ends the moment the query returns.
func (r *GormBillingLineRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*billing.BillingLine, error) {
	var model models.BillingLineModel
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

// FindByContract returns the contract's lines in allocation order, oldest
// due date first.
func (r *GormBillingLineRepository) FindByContract(ctx context.Context, contractID uuid.UUID) ([]*billing.BillingLine, error) {
	var modelList []models.BillingLineModel
	if err := dbFrom(ctx, r.db).WithContext(ctx).
		Where("contract_id = ?", contractID).
		Order("due_date ASC, period_start ASC").
		Find(&modelList).Error; err != nil {
		return nil, err
	}
	return toDomainLines(modelList), nil
}

// FindByContractForUpdate returns the contract's lines in allocation order
// with the rows locked for update. Callers must hold a transaction.
func (r *GormBillingLineRepository) FindByContractForUpdate(ctx context.Context, contractID uuid.UUID) ([]*billing.BillingLine, error) {
	var modelList []models.BillingLineModel
	if err := dbFrom(ctx, r.db).WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("contract_id = ?", contractID).
		Order("due_date ASC, period_start ASC").
		Find(&modelList).Error; err != nil {
		return nil, err
	}
	return toDomainLines(modelList), nil
}

// FindOpenByContract returns the contract's lines with an outstanding balance
// in allocation order, locked for update.
func (r *GormBillingLineRepository) FindOpenByContract(ctx context.Context, contractID uuid.UUID) ([]*billing.BillingLine, error) {
	var modelList []models.BillingLineModel
	if err := dbFrom(ctx, r.db).WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("contract_id = ? AND balance > 0", contractID).
		Order("due_date ASC, period_start ASC").
		Find(&modelList).Error; err != nil {
		return nil, err
	}
	return toDomainLines(modelList), nil
}

// FindAll returns billing lines matching the filter
func (r *GormBillingLineRepository) FindAll(ctx context.Context, filter billing.BillingLineFilter) ([]*billing.BillingLine, error) {
	query := dbFrom(ctx, r.db).WithContext(ctx).Model(&models.BillingLineModel{})

	if filter.ContractID != nil {
		query = query.Where("contract_id = ?", *filter.ContractID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if len(filter.Statuses) > 0 {
		query = query.Where("status IN ?", filter.Statuses)
	}
	if filter.UtilityType != nil {
		query = query.Where("utility_type = ?", *filter.UtilityType)
	}
	if filter.DueFrom != nil {
		query = query.Where("due_date >= ?", *filter.DueFrom)
	}
	if filter.DueTo != nil {
		query = query.Where("due_date <= ?", *filter.DueTo)
	}
	if filter.OpenOnly {
		query = query.Where("balance > 0")
	}

	query = query.Order(lineOrderClause(filter))

	if filter.PageSize > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		query = query.Offset((page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	var modelList []models.BillingLineModel
	if err := query.Find(&modelList).Error; err != nil {
		return nil, err
	}
	return toDomainLines(modelList), nil
}

// FindUnsettled returns every line that has not reached paid status, locked
// for update inside the refresh transaction.
func (r *GormBillingLineRepository) FindUnsettled(ctx context.Context) ([]*billing.BillingLine, error) {
	var modelList []models.BillingLineModel
	if err := dbFrom(ctx, r.db).WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("status <> ?", billing.BillingLineStatusPaid).
		Order("due_date ASC, period_start ASC").
		Find(&modelList).Error; err != nil {
		return nil, err
	}
	return toDomainLines(modelList), nil
}

// Save persists a billing line, creating or updating as needed
func (r *GormBillingLineRepository) Save(ctx context.Context, line *billing.BillingLine) error {
	model := models.BillingLineModelFromDomain(line)
	return dbFrom(ctx, r.db).WithContext(ctx).Save(model).Error
}

// SaveAll persists a batch of billing lines
func (r *GormBillingLineRepository) SaveAll(ctx context.Context, lines []*billing.BillingLine) error {
	if len(lines) == 0 {
		return nil
	}
	modelList := make([]*models.BillingLineModel, len(lines))
	for i, line := range lines {
		modelList[i] = models.BillingLineModelFromDomain(line)
	}
	return dbFrom(ctx, r.db).WithContext(ctx).Save(modelList).Error
}

// Delete removes a billing line by its ID
func (r *GormBillingLineRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := dbFrom(ctx, r.db).WithContext(ctx).
		Delete(&models.BillingLineModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// DeleteAll removes a batch of billing lines by their IDs
func (r *GormBillingLineRepository) DeleteAll(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return dbFrom(ctx, r.db).WithContext(ctx).
		Delete(&models.BillingLineModel{}, "id IN ?", ids).Error
}

// CountByContract counts the contract's billing lines
func (r *GormBillingLineRepository) CountByContract(ctx context.Context, contractID uuid.UUID) (int64, error) {
	var count int64
	if err := dbFrom(ctx, r.db).WithContext(ctx).
		Model(&models.BillingLineModel{}).
		Where("contract_id = ?", contractID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func toDomainLines(modelList []models.BillingLineModel) []*billing.BillingLine {
	lines := make([]*billing.BillingLine, len(modelList))
	for i := range modelList {
		lines[i] = modelList[i].ToDomain()
	}
	return lines
}

var lineSortColumns = map[string]string{
	"due_date":     "due_date",
	"period_start": "period_start",
	"status":       "status",
	"balance":      "balance",
	"final_amount": "final_amount",
}

func lineOrderClause(filter billing.BillingLineFilter) string {
	column, ok := lineSortColumns[filter.OrderBy]
	if !ok {
		return "due_date ASC, period_start ASC"
	}
	dir := "ASC"
	if strings.EqualFold(filter.OrderDir, "desc") {
		dir = "DESC"
	}
	return column + " " + dir
}
