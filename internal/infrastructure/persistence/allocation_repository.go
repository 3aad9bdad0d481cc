package persistence

import (
	"context"

	"github.com/amt/backend/internal/domain/billing"
	"github.com/amt/backend/internal/domain/shared"
	"github.com/amt/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormAllocationRepository implements billing.AllocationRepository using GORM
type GormAllocationRepository struct {
	db *gorm.DB
}

// NewGormAllocationRepository creates a new GormAllocationRepository
func NewGormAllocationRepository(db *gorm.DB) *GormAllocationRepository {
	return &GormAllocationRepository{db: db}
}

// FindByPayment returns the payment's allocation rows
func (r *GormAllocationRepository) FindByPayment(ctx context.Context, paymentID uuid.UUID) ([]*billing.Allocation, error) {
	var modelList []models.AllocationModel
	if err := dbFrom(ctx, r.db).WithContext(ctx).
		Where("payment_id = ?", paymentID).
		Order("created_at ASC").
		Find(&modelList).Error; err != nil {
		return nil, err
	}
	return toDomainAllocations(modelList), nil
}

// FindByBillingLine returns the allocations applied to a billing line
func (r *GormAllocationRepository) FindByBillingLine(ctx context.Context, lineID uuid.UUID) ([]*billing.Allocation, error) {
	var modelList []models.AllocationModel
	if err := dbFrom(ctx, r.db).WithContext(ctx).
		Where("billing_line_id = ?", lineID).
		Order("created_at ASC").
		Find(&modelList).Error; err != nil {
		return nil, err
	}
	return toDomainAllocations(modelList), nil
}

// Save persists an allocation, creating or updating as needed
func (r *GormAllocationRepository) Save(ctx context.Context, allocation *billing.Allocation) error {
	model := models.AllocationModelFromDomain(allocation)
	return dbFrom(ctx, r.db).WithContext(ctx).Save(model).Error
}

// SaveAll persists a batch of allocations
func (r *GormAllocationRepository) SaveAll(ctx context.Context, allocations []*billing.Allocation) error {
	if len(allocations) == 0 {
		return nil
	}
	modelList := make([]*models.AllocationModel, len(allocations))
	for i, allocation := range allocations {
		modelList[i] = models.AllocationModelFromDomain(allocation)
	}
	return dbFrom(ctx, r.db).WithContext(ctx).Save(modelList).Error
}

// Delete removes an allocation by its ID
func (r *GormAllocationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := dbFrom(ctx, r.db).WithContext(ctx).
		Delete(&models.AllocationModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// DeleteByPayment removes every allocation row of a payment
func (r *GormAllocationRepository) DeleteByPayment(ctx context.Context, paymentID uuid.UUID) error {
	return dbFrom(ctx, r.db).WithContext(ctx).
		Delete(&models.AllocationModel{}, "payment_id = ?", paymentID).Error
}

// DeleteAll removes a batch of allocations by their IDs
func (r *GormAllocationRepository) DeleteAll(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return dbFrom(ctx, r.db).WithContext(ctx).
		Delete(&models.AllocationModel{}, "id IN ?", ids).Error
}

func toDomainAllocations(modelList []models.AllocationModel) []*billing.Allocation {
	allocations := make([]*billing.Allocation, len(modelList))
	for i := range modelList {
		allocations[i] = modelList[i].ToDomain()
	}
	return allocations
}
