package handler

import (
	"time"

	billingapp "github.com/amt/backend/internal/application/billing"
	"github.com/amt/backend/internal/domain/billing"
	"github.com/amt/backend/internal/domain/shared/valueobject"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ContractHandler handles lease contract API endpoints
type ContractHandler struct {
	BaseHandler
	contractService *billingapp.ContractService
	scheduleService *billingapp.ScheduleService
}

// NewContractHandler creates a new ContractHandler
func NewContractHandler(contractService *billingapp.ContractService, scheduleService *billingapp.ScheduleService) *ContractHandler {
	return &ContractHandler{
		contractService: contractService,
		scheduleService: scheduleService,
	}
}

// RegisterRoutes registers contract routes on the given group
func (h *ContractHandler) RegisterRoutes(rg *gin.RouterGroup) {
	contracts := rg.Group("/contracts")
	{
		contracts.POST("", h.Create)
		contracts.GET("", h.List)
		contracts.GET("/:id", h.GetByID)
		contracts.POST("/:id/activate", h.Activate)
		contracts.PUT("/:id/rent", h.UpdateRent)
		contracts.POST("/:id/schedule", h.GenerateSchedule)
		contracts.POST("/:id/schedule/fix", h.FixSchedule)
		contracts.GET("/:id/lines", h.Lines)
	}
}

// CreateContractRequest represents a request to create a new lease contract.
// Monetary fields come over the wire as decimal strings.
type CreateContractRequest struct {
	Number         string          `json:"number" binding:"required,min=1,max=50"`
	SignedAt       string          `json:"signed_at" binding:"required,datetime=2006-01-02"`
	StartDate      string          `json:"start_date" binding:"required,datetime=2006-01-02"`
	EndDate        string          `json:"end_date" binding:"required,datetime=2006-01-02"`
	RentAmount     decimal.Decimal `json:"rent_amount" binding:"required,gt=0"`
	Currency       string          `json:"currency" binding:"omitempty,oneof=KGS USD RUB EUR"`
	DueDay         int             `json:"due_day" binding:"required,min=1,max=31"`
	DepositEnabled bool            `json:"deposit_enabled"`
	DepositAmount  decimal.Decimal `json:"deposit_amount" binding:"omitempty,gte=0"`
	AdvanceEnabled bool            `json:"advance_enabled"`
	AdvanceMonths  int             `json:"advance_months" binding:"omitempty,min=1,max=12"`
	Comment        string          `json:"comment"`
}

// UpdateRentRequest represents a request to change the monthly rent
type UpdateRentRequest struct {
	RentAmount decimal.Decimal `json:"rent_amount" binding:"required,gt=0"`
}

// FixScheduleRequest controls how schedule repair treats touched lines
type FixScheduleRequest struct {
	Force bool   `json:"force"`
	AsOf  string `json:"as_of" binding:"omitempty,datetime=2006-01-02"`
}

// ContractResponse represents a lease contract in API responses
type ContractResponse struct {
	ID             uuid.UUID       `json:"id"`
	Number         string          `json:"number"`
	SignedAt       string          `json:"signed_at"`
	StartDate      string          `json:"start_date"`
	EndDate        string          `json:"end_date"`
	RentAmount     decimal.Decimal `json:"rent_amount"`
	Currency       string          `json:"currency"`
	DueDay         int             `json:"due_day"`
	DepositEnabled bool            `json:"deposit_enabled"`
	DepositAmount  decimal.Decimal `json:"deposit_amount"`
	AdvanceEnabled bool            `json:"advance_enabled"`
	AdvanceMonths  int             `json:"advance_months"`
	Status         string          `json:"status"`
	Comment        string          `json:"comment,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

func toContractResponse(c *billing.Contract) ContractResponse {
	return ContractResponse{
		ID:             c.ID,
		Number:         c.Number,
		SignedAt:       formatDate(c.SignedAt),
		StartDate:      formatDate(c.StartDate),
		EndDate:        formatDate(c.EndDate),
		RentAmount:     c.RentAmount,
		Currency:       string(c.Currency),
		DueDay:         c.DueDay,
		DepositEnabled: c.DepositEnabled,
		DepositAmount:  c.DepositAmount,
		AdvanceEnabled: c.AdvanceEnabled,
		AdvanceMonths:  c.AdvanceMonths,
		Status:         string(c.Status),
		Comment:        c.Comment,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}

func toContractResponses(contracts []*billing.Contract) []ContractResponse {
	out := make([]ContractResponse, len(contracts))
	for i, c := range contracts {
		out[i] = toContractResponse(c)
	}
	return out
}

// Create registers a new lease contract in draft status
func (h *ContractHandler) Create(c *gin.Context) {
	var req CreateContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	signedAt, _ := parseDate(req.SignedAt)
	startDate, _ := parseDate(req.StartDate)
	endDate, _ := parseDate(req.EndDate)

	appReq := billingapp.CreateContractRequest{
		Number:         req.Number,
		SignedAt:       signedAt,
		StartDate:      startDate,
		EndDate:        endDate,
		RentAmount:     req.RentAmount,
		Currency:       valueobject.Currency(req.Currency),
		DueDay:         req.DueDay,
		DepositEnabled: req.DepositEnabled,
		DepositAmount:  req.DepositAmount,
		AdvanceEnabled: req.AdvanceEnabled,
		AdvanceMonths:  req.AdvanceMonths,
		Comment:        req.Comment,
	}

	contract, err := h.contractService.CreateContract(c.Request.Context(), appReq)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, toContractResponse(contract))
}

// List returns all contracts
func (h *ContractHandler) List(c *gin.Context) {
	contracts, err := h.contractService.ListContracts(c.Request.Context())
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, toContractResponses(contracts))
}

// GetByID returns one contract
func (h *ContractHandler) GetByID(c *gin.Context) {
	contractID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid contract ID format")
		return
	}

	contract, err := h.contractService.GetContract(c.Request.Context(), contractID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, toContractResponse(contract))
}

// Activate moves a draft contract to active and generates its schedule
func (h *ContractHandler) Activate(c *gin.Context) {
	contractID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid contract ID format")
		return
	}

	contract, err := h.contractService.ActivateContract(c.Request.Context(), contractID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, toContractResponse(contract))
}

// UpdateRent changes the monthly rent and re-stamps untouched lines
func (h *ContractHandler) UpdateRent(c *gin.Context) {
	contractID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid contract ID format")
		return
	}

	var req UpdateRentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	contract, err := h.contractService.UpdateRentAmount(c.Request.Context(), contractID, req.RentAmount)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, toContractResponse(contract))
}

// GenerateSchedule regenerates the contract's billing lines
func (h *ContractHandler) GenerateSchedule(c *gin.Context) {
	contractID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid contract ID format")
		return
	}

	summary, err := h.scheduleService.GenerateSchedule(c.Request.Context(), contractID, asOfQuery(c))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, summary)
}

// FixSchedule repairs the schedule against the contract's current terms
func (h *ContractHandler) FixSchedule(c *gin.Context) {
	contractID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid contract ID format")
		return
	}

	var req FixScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	asOf, _ := parseDate(req.AsOf)
	summary, err := h.scheduleService.FixSchedule(c.Request.Context(), contractID, req.Force, asOf)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, summary)
}

// Lines returns the contract's billing lines in due order
func (h *ContractHandler) Lines(c *gin.Context) {
	contractID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid contract ID format")
		return
	}

	lines, err := h.scheduleService.GetContractLines(c.Request.Context(), contractID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, toBillingLineResponses(lines))
}
