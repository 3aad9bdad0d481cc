package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/amt/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupValidator(t *testing.T) {
	SetupValidator()

	v, ok := binding.Validator.Engine().(*validator.Validate)
	assert.True(t, ok)
	assert.NotNil(t, v)
}

func TestSetupValidatorDecimalRules(t *testing.T) {
	type input struct {
		Amount decimal.Decimal `json:"amount" binding:"required,gt=0"`
	}

	SetupValidator()
	v := binding.Validator.Engine().(*validator.Validate)

	assert.NoError(t, v.Struct(input{Amount: decimal.RequireFromString("30000.00")}))
	assert.Error(t, v.Struct(input{Amount: decimal.Zero}))
	assert.Error(t, v.Struct(input{Amount: decimal.NewFromInt(-100)}))
}

func TestBindingError(t *testing.T) {
	type input struct {
		Number string  `json:"number" binding:"required,max=5"`
		Rent   float64 `json:"rent" binding:"required,gt=0"`
	}

	SetupValidator()
	h := &BaseHandler{}
	engine := gin.New()
	engine.POST("/test", func(c *gin.Context) {
		var req input
		if err := c.ShouldBindJSON(&req); err != nil {
			h.BindingError(c, err)
			return
		}
		h.Success(c, gin.H{})
	})

	t.Run("reports per-field details with json names", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(`{"number": "too long", "rent": -5}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.False(t, resp.Success)
		require.NotNil(t, resp.Error)
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
		require.Len(t, resp.Error.Details, 2)

		fields := []string{resp.Error.Details[0].Field, resp.Error.Details[1].Field}
		assert.Contains(t, fields, "number")
		assert.Contains(t, fields, "rent")
	})

	t.Run("falls back to bad request for malformed json", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(`{not json`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), dto.ErrCodeBadRequest)
	})
}

func TestValidationMessage(t *testing.T) {
	type input struct {
		Required string `binding:"required"`
		Min      string `binding:"min=5"`
		OneOf    string `binding:"oneof=cash bank"`
		GT       int    `binding:"gt=0"`
	}

	err := validator.New().Struct(input{})
	require.Error(t, err)
	validationErrors := err.(validator.ValidationErrors)

	byField := make(map[string]string, len(validationErrors))
	for _, e := range validationErrors {
		byField[e.StructField()] = validationMessage(e)
	}

	assert.Equal(t, "This field is required", byField["Required"])
	assert.Equal(t, "Must be at least 5 characters", byField["Min"])
	assert.Equal(t, "Must be one of: cash bank", byField["OneOf"])
	assert.Equal(t, "Must be greater than 0", byField["GT"])
}
