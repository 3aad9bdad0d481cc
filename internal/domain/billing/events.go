package billing

import (
	"github.com/amt/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Event types for the billing domain
const (
	EventTypeBillingLineCreated   = "billing.line.created"
	EventTypeBillingLineSettled   = "billing.line.settled"
	EventTypePaymentAllocated     = "billing.payment.allocated"
	EventTypePaymentReturned      = "billing.payment.returned"
	EventTypeLinePaymentCancelled = "billing.line.payment_cancelled"
)

// BillingLineCreatedEvent is raised when a new billing line is generated
type BillingLineCreatedEvent struct {
	shared.BaseDomainEvent
	ContractID  string `json:"contract_id"`
	PeriodStart string `json:"period_start"`
	FinalAmount string `json:"final_amount"`
}

// NewBillingLineCreatedEvent creates a new BillingLineCreatedEvent
func NewBillingLineCreatedEvent(line *BillingLine) *BillingLineCreatedEvent {
	return &BillingLineCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBillingLineCreated, "BillingLine", line.ID),
		ContractID:      line.ContractID.String(),
		PeriodStart:     line.PeriodStart.Format("2006-01-02"),
		FinalAmount:     line.FinalAmount.String(),
	}
}

// BillingLineSettledEvent is raised when a line's balance reaches zero
type BillingLineSettledEvent struct {
	shared.BaseDomainEvent
	ContractID string `json:"contract_id"`
	PaidAmount string `json:"paid_amount"`
}

// NewBillingLineSettledEvent creates a new BillingLineSettledEvent
func NewBillingLineSettledEvent(line *BillingLine) *BillingLineSettledEvent {
	return &BillingLineSettledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBillingLineSettled, "BillingLine", line.ID),
		ContractID:      line.ContractID.String(),
		PaidAmount:      line.PaidAmount.String(),
	}
}

// PaymentAllocatedEvent is raised after a payment has been mapped onto lines
type PaymentAllocatedEvent struct {
	shared.BaseDomainEvent
	ContractID      string `json:"contract_id"`
	AllocatedAmount string `json:"allocated_amount"`
	AllocationCount int    `json:"allocation_count"`
}

// NewPaymentAllocatedEvent creates a new PaymentAllocatedEvent
func NewPaymentAllocatedEvent(payment *Payment, allocationCount int) *PaymentAllocatedEvent {
	return &PaymentAllocatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentAllocated, "Payment", payment.ID),
		ContractID:      payment.ContractID.String(),
		AllocatedAmount: payment.AllocatedAmount.String(),
		AllocationCount: allocationCount,
	}
}

// PaymentReturnedEvent is raised when a payment is returned
type PaymentReturnedEvent struct {
	shared.BaseDomainEvent
	ContractID string `json:"contract_id"`
	Amount     string `json:"amount"`
}

// NewPaymentReturnedEvent creates a new PaymentReturnedEvent
func NewPaymentReturnedEvent(payment *Payment) *PaymentReturnedEvent {
	return &PaymentReturnedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentReturned, "Payment", payment.ID),
		ContractID:      payment.ContractID.String(),
		Amount:          payment.Amount.String(),
	}
}

// LinePaymentCancelledEvent is raised when a line's payments are cancelled
type LinePaymentCancelledEvent struct {
	shared.BaseDomainEvent
	ContractID     string `json:"contract_id"`
	ReturnedAmount string `json:"returned_amount"`
}

// NewLinePaymentCancelledEvent creates a new LinePaymentCancelledEvent
func NewLinePaymentCancelledEvent(line *BillingLine, returned decimal.Decimal) *LinePaymentCancelledEvent {
	return &LinePaymentCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeLinePaymentCancelled, "BillingLine", line.ID),
		ContractID:      line.ContractID.String(),
		ReturnedAmount:  returned.String(),
	}
}
