package models

import (
	"time"

	"github.com/amt/backend/internal/domain/ledger"
	"github.com/amt/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountModel is the persistence model for the Account aggregate root.
type AccountModel struct {
	AggregateModel
	Name          string               `gorm:"type:varchar(100);not null"`
	AccountType   ledger.AccountType   `gorm:"type:varchar(20);not null"`
	Currency      valueobject.Currency `gorm:"type:varchar(3);not null;default:'KGS'"`
	Balance       decimal.Decimal      `gorm:"type:decimal(12,2);not null;default:0"`
	AccountNumber string               `gorm:"type:varchar(50)"`
	BankName      string               `gorm:"type:varchar(100)"`
	IsActive      bool                 `gorm:"not null;default:true;index"`
	Comment       string               `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (AccountModel) TableName() string {
	return "accounts"
}

// ToDomain converts the persistence model to a domain Account
func (m *AccountModel) ToDomain() *ledger.Account {
	return &ledger.Account{
		BaseAggregateRoot: m.toAggregateRoot(),
		Name:              m.Name,
		AccountType:       m.AccountType,
		Currency:          m.Currency,
		Balance:           m.Balance,
		AccountNumber:     m.AccountNumber,
		BankName:          m.BankName,
		IsActive:          m.IsActive,
		Comment:           m.Comment,
	}
}

// AccountModelFromDomain builds a persistence model from a domain Account
func AccountModelFromDomain(a *ledger.Account) *AccountModel {
	m := &AccountModel{
		Name:          a.Name,
		AccountType:   a.AccountType,
		Currency:      a.Currency,
		Balance:       a.Balance,
		AccountNumber: a.AccountNumber,
		BankName:      a.BankName,
		IsActive:      a.IsActive,
		Comment:       a.Comment,
	}
	m.FromDomainAggregateRoot(a.BaseAggregateRoot)
	return m
}

// AccountTransactionModel is the persistence model for ledger entries.
type AccountTransactionModel struct {
	BaseModel
	AccountID        uuid.UUID              `gorm:"type:uuid;not null;index"`
	Type             ledger.TransactionType `gorm:"type:varchar(20);not null;index"`
	Amount           decimal.Decimal        `gorm:"type:decimal(12,2);not null"`
	TransactionDate  time.Time              `gorm:"not null;index"`
	RelatedAccountID *uuid.UUID             `gorm:"type:uuid;index"`
	RelatedPaymentID *uuid.UUID             `gorm:"type:uuid;index"`
	Comment          string                 `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (AccountTransactionModel) TableName() string {
	return "account_transactions"
}

// ToDomain converts the persistence model to a domain AccountTransaction
func (m *AccountTransactionModel) ToDomain() *ledger.AccountTransaction {
	return &ledger.AccountTransaction{
		BaseEntity:       m.BaseModel.ToDomain(),
		AccountID:        m.AccountID,
		Type:             m.Type,
		Amount:           m.Amount,
		TransactionDate:  m.TransactionDate,
		RelatedAccountID: m.RelatedAccountID,
		RelatedPaymentID: m.RelatedPaymentID,
		Comment:          m.Comment,
	}
}

// AccountTransactionModelFromDomain builds a persistence model from a domain
// AccountTransaction
func AccountTransactionModelFromDomain(t *ledger.AccountTransaction) *AccountTransactionModel {
	m := &AccountTransactionModel{
		AccountID:        t.AccountID,
		Type:             t.Type,
		Amount:           t.Amount,
		TransactionDate:  t.TransactionDate,
		RelatedAccountID: t.RelatedAccountID,
		RelatedPaymentID: t.RelatedPaymentID,
		Comment:          t.Comment,
	}
	m.FromDomainBaseEntity(t.BaseEntity)
	return m
}
