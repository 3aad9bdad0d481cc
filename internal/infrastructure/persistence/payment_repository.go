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

// GormPaymentRepository implements billing.PaymentRepository using GORM
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// FindByID finds a payment by its ID
func (r *GormPaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Payment, error) {
	var model models.PaymentModel
	if err := dbFrom(ctx, r.db).WithContext(ctx).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByContract returns the contract's payments, newest first
func (r *GormPaymentRepository) FindByContract(ctx context.Context, contractID uuid.UUID) ([]*billing.Payment, error) {
	var modelList []models.PaymentModel
	if err := dbFrom(ctx, r.db).WithContext(ctx).
		Where("contract_id = ?", contractID).
		Order("payment_date DESC, created_at DESC").
		Find(&modelList).Error; err != nil {
		return nil, err
	}
	return toDomainPayments(modelList), nil
}

// FindByIDs returns the payments with the given IDs
func (r *GormPaymentRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*billing.Payment, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var modelList []models.PaymentModel
	if err := dbFrom(ctx, r.db).WithContext(ctx).
		Where("id IN ?", ids).
		Find(&modelList).Error; err != nil {
		return nil, err
	}
	return toDomainPayments(modelList), nil
}

// Save persists a payment, creating or updating as needed
func (r *GormPaymentRepository) Save(ctx context.Context, payment *billing.Payment) error {
	model := models.PaymentModelFromDomain(payment)
	return dbFrom(ctx, r.db).WithContext(ctx).Save(model).Error
}

// SaveAll persists a batch of payments
func (r *GormPaymentRepository) SaveAll(ctx context.Context, payments []*billing.Payment) error {
	if len(payments) == 0 {
		return nil
	}
	modelList := make([]*models.PaymentModel, len(payments))
	for i, payment := range payments {
		modelList[i] = models.PaymentModelFromDomain(payment)
	}
	return dbFrom(ctx, r.db).WithContext(ctx).Save(modelList).Error
}

// Delete removes a payment by its ID
func (r *GormPaymentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := dbFrom(ctx, r.db).WithContext(ctx).
		Delete(&models.PaymentModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func toDomainPayments(modelList []models.PaymentModel) []*billing.Payment {
	payments := make([]*billing.Payment, len(modelList))
	for i := range modelList {
		payments[i] = modelList[i].ToDomain()
	}
	return payments
}
