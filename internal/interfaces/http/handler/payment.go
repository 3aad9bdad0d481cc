package handler

import (
	"time"

	billingapp "github.com/amt/backend/internal/application/billing"
	"github.com/amt/backend/internal/domain/billing"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentHandler handles payment API endpoints
type PaymentHandler struct {
	BaseHandler
	paymentService  *billingapp.PaymentService
	reversalService *billingapp.ReversalService
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(paymentService *billingapp.PaymentService, reversalService *billingapp.ReversalService) *PaymentHandler {
	return &PaymentHandler{
		paymentService:  paymentService,
		reversalService: reversalService,
	}
}

// RegisterRoutes registers payment routes on the given group
func (h *PaymentHandler) RegisterRoutes(rg *gin.RouterGroup) {
	payments := rg.Group("/payments")
	{
		payments.POST("", h.Create)
		payments.POST("/accept", h.AcceptLinePayment)
		payments.GET("/:id", h.GetByID)
		payments.POST("/:id/reallocate", h.Reallocate)
		payments.POST("/:id/return", h.Return)
		payments.DELETE("/:id", h.Delete)
	}
	rg.GET("/contracts/:id/payments", h.ListByContract)
}

// CreatePaymentRequest represents a request to receive a contract payment.
// Amount comes over the wire as a decimal string.
type CreatePaymentRequest struct {
	ContractID  string          `json:"contract_id" binding:"required,uuid"`
	AccountID   string          `json:"account_id" binding:"required,uuid"`
	Amount      decimal.Decimal `json:"amount" binding:"required,gt=0"`
	PaymentDate string          `json:"payment_date" binding:"omitempty,datetime=2006-01-02"`
	Comment     string          `json:"comment"`
	AsOf        string          `json:"as_of" binding:"omitempty,datetime=2006-01-02"`
}

// AcceptLinePaymentRequest represents a payment aimed at one billing line.
// Amount defaults to the line's open balance, date to today.
type AcceptLinePaymentRequest struct {
	BillingLineID string           `json:"billing_line_id" binding:"required,uuid"`
	AccountID     string           `json:"account_id" binding:"required,uuid"`
	Amount        *decimal.Decimal `json:"amount" binding:"omitempty,gt=0"`
	PaymentDate   string           `json:"payment_date" binding:"omitempty,datetime=2006-01-02"`
	Comment       string           `json:"comment"`
	AsOf          string           `json:"as_of" binding:"omitempty,datetime=2006-01-02"`
}

// PaymentResponse represents a payment in API responses
type PaymentResponse struct {
	ID                uuid.UUID       `json:"id"`
	ContractID        uuid.UUID       `json:"contract_id"`
	AccountID         uuid.UUID       `json:"account_id"`
	Amount            decimal.Decimal `json:"amount"`
	PaymentDate       string          `json:"payment_date"`
	AllocatedAmount   decimal.Decimal `json:"allocated_amount"`
	UnallocatedAmount decimal.Decimal `json:"unallocated_amount"`
	IsReturned        bool            `json:"is_returned"`
	Comment           string          `json:"comment,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
}

func toPaymentResponse(p *billing.Payment) PaymentResponse {
	return PaymentResponse{
		ID:                p.ID,
		ContractID:        p.ContractID,
		AccountID:         p.AccountID,
		Amount:            p.Amount,
		PaymentDate:       formatDate(p.PaymentDate),
		AllocatedAmount:   p.AllocatedAmount,
		UnallocatedAmount: p.Amount.Sub(p.AllocatedAmount),
		IsReturned:        p.IsReturned,
		Comment:           p.Comment,
		CreatedAt:         p.CreatedAt,
	}
}

func toPaymentResponses(payments []*billing.Payment) []PaymentResponse {
	out := make([]PaymentResponse, len(payments))
	for i, p := range payments {
		out[i] = toPaymentResponse(p)
	}
	return out
}

// Create receives a contract payment and spreads it over open lines
func (h *PaymentHandler) Create(c *gin.Context) {
	var req CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	contractID, _ := uuid.Parse(req.ContractID)
	accountID, _ := uuid.Parse(req.AccountID)
	paymentDate, _ := parseDate(req.PaymentDate)
	if paymentDate.IsZero() {
		paymentDate = time.Now()
	}
	asOf, _ := parseDate(req.AsOf)

	result, err := h.paymentService.CreatePayment(c.Request.Context(), billingapp.CreatePaymentRequest{
		ContractID:  contractID,
		AccountID:   accountID,
		Amount:      req.Amount,
		PaymentDate: paymentDate,
		Comment:     req.Comment,
		AsOf:        asOf,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Created(c, result)
}

// AcceptLinePayment receives a payment aimed at one billing line
func (h *PaymentHandler) AcceptLinePayment(c *gin.Context) {
	var req AcceptLinePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	lineID, _ := uuid.Parse(req.BillingLineID)
	accountID, _ := uuid.Parse(req.AccountID)
	paymentDate, _ := parseDate(req.PaymentDate)
	if paymentDate.IsZero() {
		paymentDate = time.Now()
	}
	asOf, _ := parseDate(req.AsOf)

	appReq := billingapp.AcceptLinePaymentRequest{
		BillingLineID: lineID,
		AccountID:     accountID,
		PaymentDate:   paymentDate,
		Comment:       req.Comment,
		AsOf:          asOf,
	}
	if req.Amount != nil {
		appReq.Amount = *req.Amount
	}

	result, err := h.paymentService.AcceptLinePayment(c.Request.Context(), appReq)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Created(c, result)
}

// GetByID returns one payment
func (h *PaymentHandler) GetByID(c *gin.Context) {
	paymentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid payment ID format")
		return
	}

	payment, err := h.paymentService.GetPayment(c.Request.Context(), paymentID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, toPaymentResponse(payment))
}

// ListByContract returns the contract's payments, newest first
func (h *PaymentHandler) ListByContract(c *gin.Context) {
	contractID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid contract ID format")
		return
	}

	payments, err := h.paymentService.GetContractPayments(c.Request.Context(), contractID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, toPaymentResponses(payments))
}

// Reallocate redistributes a payment over the contract's current open lines
func (h *PaymentHandler) Reallocate(c *gin.Context) {
	paymentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid payment ID format")
		return
	}

	result, err := h.paymentService.ReallocatePayment(c.Request.Context(), paymentID, asOfQuery(c))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, result)
}

// Return reverses a payment end to end and flags it returned
func (h *PaymentHandler) Return(c *gin.Context) {
	paymentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid payment ID format")
		return
	}

	result, err := h.reversalService.ReturnPayment(c.Request.Context(), paymentID, asOfQuery(c))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, result)
}

// Delete reverses a payment end to end and removes its record
func (h *PaymentHandler) Delete(c *gin.Context) {
	paymentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid payment ID format")
		return
	}

	if _, err := h.reversalService.DeletePayment(c.Request.Context(), paymentID, asOfQuery(c)); err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.NoContent(c)
}
