package handler

import (
	"time"

	ledgerapp "github.com/amt/backend/internal/application/ledger"
	"github.com/amt/backend/internal/domain/ledger"
	"github.com/amt/backend/internal/domain/shared/valueobject"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountHandler handles account and ledger API endpoints
type AccountHandler struct {
	BaseHandler
	accountService *ledgerapp.AccountService
}

// NewAccountHandler creates a new AccountHandler
func NewAccountHandler(accountService *ledgerapp.AccountService) *AccountHandler {
	return &AccountHandler{accountService: accountService}
}

// RegisterRoutes registers account routes on the given group
func (h *AccountHandler) RegisterRoutes(rg *gin.RouterGroup) {
	accounts := rg.Group("/accounts")
	{
		accounts.POST("", h.Create)
		accounts.GET("", h.List)
		accounts.GET("/total-balance", h.TotalBalances)
		accounts.GET("/:id", h.GetByID)
		accounts.POST("/:id/deactivate", h.Deactivate)
		accounts.POST("/:id/transactions", h.PostTransaction)
		accounts.GET("/:id/transactions", h.ListTransactions)
	}
	rg.POST("/transfers", h.Transfer)
}

// CreateAccountRequest represents a request to open a new account
type CreateAccountRequest struct {
	Name          string `json:"name" binding:"required,min=1,max=100"`
	AccountType   string `json:"account_type" binding:"required,oneof=cash bank"`
	Currency      string `json:"currency" binding:"omitempty,oneof=KGS USD RUB EUR"`
	AccountNumber string `json:"account_number" binding:"max=50"`
	BankName      string `json:"bank_name" binding:"max=100"`
	Comment       string `json:"comment"`
}

// PostTransactionRequest represents a manual ledger posting.
// Amount comes over the wire as a decimal string.
type PostTransactionRequest struct {
	Type    string          `json:"type" binding:"required,oneof=income expense adjustment"`
	Amount  decimal.Decimal `json:"amount" binding:"required,gt=0"`
	Date    string          `json:"date" binding:"omitempty,datetime=2006-01-02"`
	Comment string          `json:"comment"`
}

// TransferRequest represents a transfer between two accounts
type TransferRequest struct {
	FromAccountID string          `json:"from_account_id" binding:"required,uuid"`
	ToAccountID   string          `json:"to_account_id" binding:"required,uuid"`
	Amount        decimal.Decimal `json:"amount" binding:"required,gt=0"`
	Date          string          `json:"date" binding:"omitempty,datetime=2006-01-02"`
	Comment       string          `json:"comment"`
}

// AccountResponse represents an account in API responses
type AccountResponse struct {
	ID            uuid.UUID       `json:"id"`
	Name          string          `json:"name"`
	AccountType   string          `json:"account_type"`
	Currency      string          `json:"currency"`
	Balance       decimal.Decimal `json:"balance"`
	AccountNumber string          `json:"account_number,omitempty"`
	BankName      string          `json:"bank_name,omitempty"`
	IsActive      bool            `json:"is_active"`
	Comment       string          `json:"comment,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// TransactionResponse represents a ledger entry in API responses
type TransactionResponse struct {
	ID               uuid.UUID       `json:"id"`
	AccountID        uuid.UUID       `json:"account_id"`
	Type             string          `json:"type"`
	Amount           decimal.Decimal `json:"amount"`
	TransactionDate  string          `json:"transaction_date"`
	RelatedAccountID *uuid.UUID      `json:"related_account_id,omitempty"`
	RelatedPaymentID *uuid.UUID      `json:"related_payment_id,omitempty"`
	Comment          string          `json:"comment,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
}

func toAccountResponse(a *ledger.Account) AccountResponse {
	return AccountResponse{
		ID:            a.ID,
		Name:          a.Name,
		AccountType:   string(a.AccountType),
		Currency:      string(a.Currency),
		Balance:       a.Balance,
		AccountNumber: a.AccountNumber,
		BankName:      a.BankName,
		IsActive:      a.IsActive,
		Comment:       a.Comment,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
}

func toTransactionResponse(tx *ledger.AccountTransaction) TransactionResponse {
	return TransactionResponse{
		ID:               tx.ID,
		AccountID:        tx.AccountID,
		Type:             string(tx.Type),
		Amount:           tx.Amount,
		TransactionDate:  formatDate(tx.TransactionDate),
		RelatedAccountID: tx.RelatedAccountID,
		RelatedPaymentID: tx.RelatedPaymentID,
		Comment:          tx.Comment,
		CreatedAt:        tx.CreatedAt,
	}
}

// Create opens a new account with zero balance
func (h *AccountHandler) Create(c *gin.Context) {
	var req CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	account, err := h.accountService.CreateAccount(c.Request.Context(), ledgerapp.CreateAccountRequest{
		Name:          req.Name,
		AccountType:   ledger.AccountType(req.AccountType),
		Currency:      valueobject.Currency(req.Currency),
		AccountNumber: req.AccountNumber,
		BankName:      req.BankName,
		Comment:       req.Comment,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Created(c, toAccountResponse(account))
}

// List returns all active accounts
func (h *AccountHandler) List(c *gin.Context) {
	accounts, err := h.accountService.ListAccounts(c.Request.Context())
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	out := make([]AccountResponse, len(accounts))
	for i, a := range accounts {
		out[i] = toAccountResponse(a)
	}
	h.Success(c, out)
}

// GetByID returns one account
func (h *AccountHandler) GetByID(c *gin.Context) {
	accountID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid account ID format")
		return
	}

	account, err := h.accountService.GetAccount(c.Request.Context(), accountID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, toAccountResponse(account))
}

// Deactivate closes an account for further postings
func (h *AccountHandler) Deactivate(c *gin.Context) {
	accountID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid account ID format")
		return
	}

	if err := h.accountService.DeactivateAccount(c.Request.Context(), accountID); err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.NoContent(c)
}

// PostTransaction posts a manual income, expense or adjustment entry
func (h *AccountHandler) PostTransaction(c *gin.Context) {
	accountID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid account ID format")
		return
	}

	var req PostTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	date, _ := parseDate(req.Date)
	if date.IsZero() {
		date = time.Now()
	}

	tx, err := h.accountService.PostTransaction(c.Request.Context(), ledgerapp.PostTransactionRequest{
		AccountID: accountID,
		Type:      ledger.TransactionType(req.Type),
		Amount:    req.Amount,
		Date:      date,
		Comment:   req.Comment,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Created(c, toTransactionResponse(tx))
}

// ListTransactions returns an account's ledger entries
func (h *AccountHandler) ListTransactions(c *gin.Context) {
	accountID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid account ID format")
		return
	}

	var req ListTransactionsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BindingError(c, err)
		return
	}
	req.Normalize()

	filter := ledger.TransactionFilter{Page: req.Page, PageSize: req.PageSize}
	if req.Type != "" {
		txType := ledger.TransactionType(req.Type)
		filter.Type = &txType
	}
	if req.DateFrom != "" {
		from, _ := parseDate(req.DateFrom)
		filter.DateFrom = &from
	}
	if req.DateTo != "" {
		to, _ := parseDate(req.DateTo)
		filter.DateTo = &to
	}

	txs, err := h.accountService.ListTransactions(c.Request.Context(), accountID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	out := make([]TransactionResponse, len(txs))
	for i, tx := range txs {
		out[i] = toTransactionResponse(tx)
	}
	h.Success(c, out)
}

// Transfer moves money between two accounts of the same currency
func (h *AccountHandler) Transfer(c *gin.Context) {
	var req TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	fromID, _ := uuid.Parse(req.FromAccountID)
	toID, _ := uuid.Parse(req.ToAccountID)
	date, _ := parseDate(req.Date)
	if date.IsZero() {
		date = time.Now()
	}

	result, err := h.accountService.Transfer(c.Request.Context(), ledgerapp.TransferRequest{
		FromAccountID: fromID,
		ToAccountID:   toID,
		Amount:        req.Amount,
		Date:          date,
		Comment:       req.Comment,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	resp := TransferResponse{
		Transactions: make([]TransactionResponse, len(result.Transactions)),
		Accounts:     make([]AccountResponse, len(result.Accounts)),
	}
	for i, tx := range result.Transactions {
		resp.Transactions[i] = toTransactionResponse(tx)
	}
	for i, account := range result.Accounts {
		resp.Accounts[i] = toAccountResponse(account)
	}
	h.Success(c, resp)
}

// TransferResponse reports the paired entries and resulting balances
type TransferResponse struct {
	Transactions []TransactionResponse `json:"transactions"`
	Accounts     []AccountResponse     `json:"accounts"`
}

// TotalBalances returns the sum of active account balances per currency
func (h *AccountHandler) TotalBalances(c *gin.Context) {
	totals, err := h.accountService.TotalBalances(c.Request.Context())
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	out := make(map[string]decimal.Decimal, len(totals))
	for currency, total := range totals {
		out[string(currency)] = total
	}
	h.Success(c, out)
}

// ListTransactionsRequest represents ledger list query parameters
type ListTransactionsRequest struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	Type     string `form:"type" binding:"omitempty,oneof=income expense transfer_in transfer_out adjustment"`
	DateFrom string `form:"date_from" binding:"omitempty,datetime=2006-01-02"`
	DateTo   string `form:"date_to" binding:"omitempty,datetime=2006-01-02"`
}

// Normalize fills in pagination defaults
func (r *ListTransactionsRequest) Normalize() {
	if r.Page < 1 {
		r.Page = 1
	}
	if r.PageSize < 1 {
		r.PageSize = 50
	}
}
