package models

import (
	"time"

	"github.com/amt/backend/internal/domain/billing"
	"github.com/amt/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ContractModel is the persistence model for the Contract aggregate root.
type ContractModel struct {
	AggregateModel
	Number         string                 `gorm:"type:varchar(50);not null;uniqueIndex"`
	SignedAt       time.Time              `gorm:"not null"`
	StartDate      time.Time              `gorm:"not null;index"`
	EndDate        time.Time              `gorm:"not null"`
	RentAmount     decimal.Decimal        `gorm:"type:decimal(12,2);not null"`
	Currency       valueobject.Currency   `gorm:"type:varchar(3);not null;default:'KGS'"`
	DueDay         int                    `gorm:"not null"`
	DepositEnabled bool                   `gorm:"not null;default:false"`
	DepositAmount  decimal.Decimal        `gorm:"type:decimal(12,2);not null;default:0"`
	AdvanceEnabled bool                   `gorm:"not null;default:false"`
	AdvanceMonths  int                    `gorm:"not null;default:1"`
	Status         billing.ContractStatus `gorm:"type:varchar(20);not null;default:'draft';index"`
	Comment        string                 `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (ContractModel) TableName() string {
	return "contracts"
}

// ToDomain converts the persistence model to a domain Contract
func (m *ContractModel) ToDomain() *billing.Contract {
	return &billing.Contract{
		BaseAggregateRoot: m.toAggregateRoot(),
		Number:            m.Number,
		SignedAt:          m.SignedAt,
		StartDate:         m.StartDate,
		EndDate:           m.EndDate,
		RentAmount:        m.RentAmount,
		Currency:          m.Currency,
		DueDay:            m.DueDay,
		DepositEnabled:    m.DepositEnabled,
		DepositAmount:     m.DepositAmount,
		AdvanceEnabled:    m.AdvanceEnabled,
		AdvanceMonths:     m.AdvanceMonths,
		Status:            m.Status,
		Comment:           m.Comment,
	}
}

// ContractModelFromDomain builds a persistence model from a domain Contract
func ContractModelFromDomain(c *billing.Contract) *ContractModel {
	m := &ContractModel{
		Number:         c.Number,
		SignedAt:       c.SignedAt,
		StartDate:      c.StartDate,
		EndDate:        c.EndDate,
		RentAmount:     c.RentAmount,
		Currency:       c.Currency,
		DueDay:         c.DueDay,
		DepositEnabled: c.DepositEnabled,
		DepositAmount:  c.DepositAmount,
		AdvanceEnabled: c.AdvanceEnabled,
		AdvanceMonths:  c.AdvanceMonths,
		Status:         c.Status,
		Comment:        c.Comment,
	}
	m.FromDomainAggregateRoot(c.BaseAggregateRoot)
	return m
}

// BillingLineModel is the persistence model for the BillingLine aggregate root.
type BillingLineModel struct {
	AggregateModel
	ContractID      uuid.UUID                 `gorm:"type:uuid;not null;index"`
	PeriodStart     time.Time                 `gorm:"not null"`
	PeriodEnd       time.Time                 `gorm:"not null"`
	DueDate         time.Time                 `gorm:"not null;index"`
	BaseAmount      decimal.Decimal           `gorm:"type:decimal(12,2);not null"`
	Adjustments     decimal.Decimal           `gorm:"type:decimal(12,2);not null;default:0"`
	UtilitiesAmount decimal.Decimal           `gorm:"type:decimal(12,2);not null;default:0"`
	FinalAmount     decimal.Decimal           `gorm:"type:decimal(12,2);not null"`
	PaidAmount      decimal.Decimal           `gorm:"type:decimal(12,2);not null;default:0"`
	Balance         decimal.Decimal           `gorm:"type:decimal(12,2);not null;index"`
	Status          billing.BillingLineStatus `gorm:"type:varchar(20);not null;default:'planned';index"`
	UtilityType     billing.UtilityType       `gorm:"type:varchar(20);not null;default:'rent'"`
	Comment         string                    `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (BillingLineModel) TableName() string {
	return "billing_lines"
}

// ToDomain converts the persistence model to a domain BillingLine
func (m *BillingLineModel) ToDomain() *billing.BillingLine {
	return &billing.BillingLine{
		BaseAggregateRoot: m.toAggregateRoot(),
		ContractID:        m.ContractID,
		PeriodStart:       m.PeriodStart,
		PeriodEnd:         m.PeriodEnd,
		DueDate:           m.DueDate,
		BaseAmount:        m.BaseAmount,
		Adjustments:       m.Adjustments,
		UtilitiesAmount:   m.UtilitiesAmount,
		FinalAmount:       m.FinalAmount,
		PaidAmount:        m.PaidAmount,
		Balance:           m.Balance,
		Status:            m.Status,
		UtilityType:       m.UtilityType,
		Comment:           m.Comment,
	}
}

// BillingLineModelFromDomain builds a persistence model from a domain BillingLine
func BillingLineModelFromDomain(l *billing.BillingLine) *BillingLineModel {
	m := &BillingLineModel{
		ContractID:      l.ContractID,
		PeriodStart:     l.PeriodStart,
		PeriodEnd:       l.PeriodEnd,
		DueDate:         l.DueDate,
		BaseAmount:      l.BaseAmount,
		Adjustments:     l.Adjustments,
		UtilitiesAmount: l.UtilitiesAmount,
		FinalAmount:     l.FinalAmount,
		PaidAmount:      l.PaidAmount,
		Balance:         l.Balance,
		Status:          l.Status,
		UtilityType:     l.UtilityType,
		Comment:         l.Comment,
	}
	m.FromDomainAggregateRoot(l.BaseAggregateRoot)
	return m
}

// PaymentModel is the persistence model for the Payment aggregate root.
type PaymentModel struct {
	AggregateModel
	ContractID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	AccountID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	Amount          decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	PaymentDate     time.Time       `gorm:"not null;index"`
	AllocatedAmount decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	IsReturned      bool            `gorm:"not null;default:false;index"`
	Comment         string          `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (PaymentModel) TableName() string {
	return "payments"
}

// ToDomain converts the persistence model to a domain Payment
func (m *PaymentModel) ToDomain() *billing.Payment {
	return &billing.Payment{
		BaseAggregateRoot: m.toAggregateRoot(),
		ContractID:        m.ContractID,
		AccountID:         m.AccountID,
		Amount:            m.Amount,
		PaymentDate:       m.PaymentDate,
		AllocatedAmount:   m.AllocatedAmount,
		IsReturned:        m.IsReturned,
		Comment:           m.Comment,
	}
}

// PaymentModelFromDomain builds a persistence model from a domain Payment
func PaymentModelFromDomain(p *billing.Payment) *PaymentModel {
	m := &PaymentModel{
		ContractID:      p.ContractID,
		AccountID:       p.AccountID,
		Amount:          p.Amount,
		PaymentDate:     p.PaymentDate,
		AllocatedAmount: p.AllocatedAmount,
		IsReturned:      p.IsReturned,
		Comment:         p.Comment,
	}
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	return m
}

// AllocationModel is the persistence model for payment allocations. One row
// per (payment, billing line) pair.
type AllocationModel struct {
	BaseModel
	PaymentID     uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_allocation_pair,priority:1"`
	BillingLineID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_allocation_pair,priority:2;index"`
	Amount        decimal.Decimal `gorm:"type:decimal(12,2);not null"`
}

// TableName returns the table name for GORM
func (AllocationModel) TableName() string {
	return "payment_allocations"
}

// ToDomain converts the persistence model to a domain Allocation
func (m *AllocationModel) ToDomain() *billing.Allocation {
	return &billing.Allocation{
		BaseEntity:    m.BaseModel.ToDomain(),
		PaymentID:     m.PaymentID,
		BillingLineID: m.BillingLineID,
		Amount:        m.Amount,
	}
}

// AllocationModelFromDomain builds a persistence model from a domain Allocation
func AllocationModelFromDomain(a *billing.Allocation) *AllocationModel {
	m := &AllocationModel{
		PaymentID:     a.PaymentID,
		BillingLineID: a.BillingLineID,
		Amount:        a.Amount,
	}
	m.FromDomainBaseEntity(a.BaseEntity)
	return m
}
