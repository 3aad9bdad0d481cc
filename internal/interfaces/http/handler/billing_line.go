package handler

import (
	"time"

	billingapp "github.com/amt/backend/internal/application/billing"
	"github.com/amt/backend/internal/domain/billing"
	"github.com/amt/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BillingLineHandler handles billing line API endpoints
type BillingLineHandler struct {
	BaseHandler
	scheduleService *billingapp.ScheduleService
	reversalService *billingapp.ReversalService
}

// NewBillingLineHandler creates a new BillingLineHandler
func NewBillingLineHandler(scheduleService *billingapp.ScheduleService, reversalService *billingapp.ReversalService) *BillingLineHandler {
	return &BillingLineHandler{
		scheduleService: scheduleService,
		reversalService: reversalService,
	}
}

// RegisterRoutes registers billing line routes on the given group
func (h *BillingLineHandler) RegisterRoutes(rg *gin.RouterGroup) {
	lines := rg.Group("/billing-lines")
	{
		lines.GET("", h.List)
		lines.GET("/overdue", h.Overdue)
		lines.PUT("/:id/amounts", h.UpdateAmounts)
		lines.POST("/:id/cancel-payment", h.CancelPayment)
		lines.POST("/refresh-statuses", h.RefreshStatuses)
	}
}

// ListLinesRequest represents billing line list query parameters
type ListLinesRequest struct {
	dto.ListRequest
	ContractID  string `form:"contract_id" binding:"omitempty,uuid"`
	Status      string `form:"status" binding:"omitempty,oneof=planned due overdue partial paid"`
	UtilityType string `form:"utility_type"`
	DueFrom     string `form:"due_from" binding:"omitempty,datetime=2006-01-02"`
	DueTo       string `form:"due_to" binding:"omitempty,datetime=2006-01-02"`
	OpenOnly    bool   `form:"open_only"`
}

// UpdateLineAmountsRequest represents a partial edit of a line's amounts.
// Amounts come over the wire as decimal strings.
type UpdateLineAmountsRequest struct {
	Adjustments *decimal.Decimal `json:"adjustments"`
	Utilities   *decimal.Decimal `json:"utilities" binding:"omitempty,gte=0"`
	Comment     *string          `json:"comment"`
	AsOf        string           `json:"as_of" binding:"omitempty,datetime=2006-01-02"`
}

// BillingLineResponse represents a billing line in API responses
type BillingLineResponse struct {
	ID              uuid.UUID       `json:"id"`
	ContractID      uuid.UUID       `json:"contract_id"`
	PeriodStart     string          `json:"period_start"`
	PeriodEnd       string          `json:"period_end"`
	DueDate         string          `json:"due_date"`
	BaseAmount      decimal.Decimal `json:"base_amount"`
	Adjustments     decimal.Decimal `json:"adjustments"`
	UtilitiesAmount decimal.Decimal `json:"utilities_amount"`
	FinalAmount     decimal.Decimal `json:"final_amount"`
	PaidAmount      decimal.Decimal `json:"paid_amount"`
	Balance         decimal.Decimal `json:"balance"`
	Status          string          `json:"status"`
	UtilityType     string          `json:"utility_type"`
	Comment         string          `json:"comment,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func toBillingLineResponse(l *billing.BillingLine) BillingLineResponse {
	return BillingLineResponse{
		ID:              l.ID,
		ContractID:      l.ContractID,
		PeriodStart:     formatDate(l.PeriodStart),
		PeriodEnd:       formatDate(l.PeriodEnd),
		DueDate:         formatDate(l.DueDate),
		BaseAmount:      l.BaseAmount,
		Adjustments:     l.Adjustments,
		UtilitiesAmount: l.UtilitiesAmount,
		FinalAmount:     l.FinalAmount,
		PaidAmount:      l.PaidAmount,
		Balance:         l.Balance,
		Status:          string(l.Status),
		UtilityType:     string(l.UtilityType),
		Comment:         l.Comment,
		CreatedAt:       l.CreatedAt,
		UpdatedAt:       l.UpdatedAt,
	}
}

func toBillingLineResponses(lines []*billing.BillingLine) []BillingLineResponse {
	out := make([]BillingLineResponse, len(lines))
	for i, l := range lines {
		out[i] = toBillingLineResponse(l)
	}
	return out
}

// List returns billing lines matching the query filters
func (h *BillingLineHandler) List(c *gin.Context) {
	var req ListLinesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BindingError(c, err)
		return
	}
	req.Normalize()

	filter, err := lineFilterFromRequest(req)
	if err != nil {
		h.BindingError(c, err)
		return
	}

	lines, err := h.scheduleService.ListLines(c.Request.Context(), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, toBillingLineResponses(lines))
}

// Overdue returns every line past its due date with an open balance
func (h *BillingLineHandler) Overdue(c *gin.Context) {
	status := billing.BillingLineStatusOverdue
	lines, err := h.scheduleService.ListLines(c.Request.Context(), billing.BillingLineFilter{
		Status:   &status,
		OpenOnly: true,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, toBillingLineResponses(lines))
}

// UpdateAmounts edits a line's adjustments and utilities amounts
func (h *BillingLineHandler) UpdateAmounts(c *gin.Context) {
	lineID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid billing line ID format")
		return
	}

	var req UpdateLineAmountsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	asOf, _ := parseDate(req.AsOf)
	appReq := billingapp.UpdateLineAmountsRequest{
		LineID:      lineID,
		Adjustments: req.Adjustments,
		Utilities:   req.Utilities,
		Comment:     req.Comment,
		AsOf:        asOf,
	}

	line, err := h.scheduleService.UpdateLineAmounts(c.Request.Context(), appReq)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, toBillingLineResponse(line))
}

// CancelPayment returns everything paid on one line to its payments
func (h *BillingLineHandler) CancelPayment(c *gin.Context) {
	lineID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid billing line ID format")
		return
	}

	result, err := h.reversalService.CancelLinePayment(c.Request.Context(), lineID, asOfQuery(c))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, result)
}

// RefreshStatuses recomputes every unsettled line's status for an as-of date
func (h *BillingLineHandler) RefreshStatuses(c *gin.Context) {
	changed, err := h.scheduleService.RefreshStatuses(c.Request.Context(), asOfQuery(c))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, gin.H{"changed": changed})
}

func lineFilterFromRequest(req ListLinesRequest) (billing.BillingLineFilter, error) {
	filter := billing.BillingLineFilter{
		OpenOnly: req.OpenOnly,
		Page:     req.Page,
		PageSize: req.PageSize,
		OrderBy:  req.OrderBy,
		OrderDir: req.OrderDir,
	}

	if req.ContractID != "" {
		id, err := uuid.Parse(req.ContractID)
		if err != nil {
			return filter, err
		}
		filter.ContractID = &id
	}
	if req.Status != "" {
		status := billing.BillingLineStatus(req.Status)
		filter.Status = &status
	}
	if req.UtilityType != "" {
		ut := billing.UtilityType(req.UtilityType)
		filter.UtilityType = &ut
	}
	if req.DueFrom != "" {
		from, err := parseDate(req.DueFrom)
		if err != nil {
			return filter, err
		}
		filter.DueFrom = &from
	}
	if req.DueTo != "" {
		to, err := parseDate(req.DueTo)
		if err != nil {
			return filter, err
		}
		filter.DueTo = &to
	}
	return filter, nil
}
