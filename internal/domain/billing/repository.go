package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// BillingLineFilter narrows billing line queries
type BillingLineFilter struct {
	ContractID  *uuid.UUID
	Status      *BillingLineStatus
	Statuses    []BillingLineStatus
	UtilityType *UtilityType
	DueFrom     *time.Time
	DueTo       *time.Time
	OpenOnly    bool // balance > 0
	Page        int
	PageSize    int
	OrderBy     string
	OrderDir    string
}

// ContractRepository persists lease contracts
type ContractRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Contract, error)
	FindByNumber(ctx context.Context, number string) (*Contract, error)
	FindAll(ctx context.Context) ([]*Contract, error)
	Save(ctx context.Context, contract *Contract) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// BillingLineRepository persists billing lines
type BillingLineRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*BillingLine, error)
	// FindByIDForUpdate loads the line with a row lock inside the current
	// transaction, serializing concurrent paid_amount mutations.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*BillingLine, error)
	// FindByContract returns the contract's lines ordered by (due_date,
	// period_start) ascending - the FIFO allocation order.
	FindByContract(ctx context.Context, contractID uuid.UUID) ([]*BillingLine, error)
	// FindByContractForUpdate is FindByContract with the rows locked for
	// update inside the current transaction.
	FindByContractForUpdate(ctx context.Context, contractID uuid.UUID) ([]*BillingLine, error)
	// FindOpenByContract returns the contract's lines with balance > 0 in
	// FIFO order, locked for update inside a transaction.
	FindOpenByContract(ctx context.Context, contractID uuid.UUID) ([]*BillingLine, error)
	FindAll(ctx context.Context, filter BillingLineFilter) ([]*BillingLine, error)
	// FindUnsettled returns every line not in paid status, locked for update
	// inside the batch status refresh transaction.
	FindUnsettled(ctx context.Context) ([]*BillingLine, error)
	Save(ctx context.Context, line *BillingLine) error
	SaveAll(ctx context.Context, lines []*BillingLine) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteAll(ctx context.Context, ids []uuid.UUID) error
	CountByContract(ctx context.Context, contractID uuid.UUID) (int64, error)
}

// PaymentRepository persists payments
type PaymentRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Payment, error)
	FindByContract(ctx context.Context, contractID uuid.UUID) ([]*Payment, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*Payment, error)
	Save(ctx context.Context, payment *Payment) error
	SaveAll(ctx context.Context, payments []*Payment) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// AllocationRepository persists payment allocations
type AllocationRepository interface {
	FindByPayment(ctx context.Context, paymentID uuid.UUID) ([]*Allocation, error)
	FindByBillingLine(ctx context.Context, lineID uuid.UUID) ([]*Allocation, error)
	Save(ctx context.Context, allocation *Allocation) error
	SaveAll(ctx context.Context, allocations []*Allocation) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByPayment(ctx context.Context, paymentID uuid.UUID) error
	DeleteAll(ctx context.Context, ids []uuid.UUID) error
}
