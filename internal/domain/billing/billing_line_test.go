package billing

import (
	"testing"
	"time"

	"github.com/amt/backend/internal/domain/shared"
	"github.com/amt/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func createTestLine(t *testing.T, dueDate time.Time, amount float64) *BillingLine {
	t.Helper()
	line, err := NewBillingLine(
		uuid.New(),
		date(2026, time.January, 1),
		date(2026, time.January, 31),
		dueDate,
		valueobject.NewMoneyKGSFromFloat(amount),
		UtilityTypeRent,
	)
	require.NoError(t, err)
	return line
}

func TestNewBillingLine_Validation(t *testing.T) {
	start := date(2026, time.January, 1)
	end := date(2026, time.January, 31)
	due := date(2026, time.January, 25)
	rent := valueobject.NewMoneyKGSFromFloat(30000)

	_, err := NewBillingLine(uuid.Nil, start, end, due, rent, UtilityTypeRent)
	assert.Error(t, err)

	_, err = NewBillingLine(uuid.New(), start, end, due, rent.Negate(), UtilityTypeRent)
	assert.Error(t, err)

	_, err = NewBillingLine(uuid.New(), end, start, due, rent, UtilityTypeRent)
	assert.Error(t, err)

	_, err = NewBillingLine(uuid.New(), start, end, due, rent, UtilityType("heating"))
	assert.Error(t, err)

	line, err := NewBillingLine(uuid.New(), start, end, due, rent, UtilityTypeRent)
	require.NoError(t, err)
	assert.Equal(t, BillingLineStatusPlanned, line.Status)
	assert.True(t, line.Balance.Equal(decimal.NewFromInt(30000)))
	assert.True(t, line.FinalAmount.Equal(line.BaseAmount))
}

func TestBillingLine_Recompute_StatusMatrix(t *testing.T) {
	today := date(2026, time.June, 15)

	tests := []struct {
		name string
		due  time.Time
		paid float64
		want BillingLineStatus
	}{
		{"fully paid", date(2026, time.June, 1), 1000, BillingLineStatusPaid},
		{"overdue unpaid", date(2026, time.June, 14), 0, BillingLineStatusOverdue},
		{"overdue beats partial", date(2026, time.June, 1), 400, BillingLineStatusOverdue},
		{"due today", date(2026, time.June, 15), 0, BillingLineStatusDue},
		{"due in window", date(2026, time.June, 18), 0, BillingLineStatusDue},
		{"partial in window", date(2026, time.June, 17), 250, BillingLineStatusPartial},
		{"planned outside window", date(2026, time.June, 19), 0, BillingLineStatusPlanned},
		{"partial outside window", date(2026, time.July, 25), 300, BillingLineStatusPartial},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line := createTestLine(t, tt.due, 1000)
			line.PaidAmount = decimal.NewFromFloat(tt.paid)
			line.Recompute(today)

			assert.Equal(t, tt.want, line.Status)
			assert.True(t, line.Balance.Equal(line.FinalAmount.Sub(line.PaidAmount)),
				"balance must always equal final - paid")
		})
	}
}

func TestBillingLine_Recompute_Idempotent(t *testing.T) {
	today := date(2026, time.June, 15)
	line := createTestLine(t, date(2026, time.June, 10), 1000)
	line.PaidAmount = decimal.NewFromInt(300)

	line.Recompute(today)
	first := *line
	line.Recompute(today)

	assert.Equal(t, first.Status, line.Status)
	assert.True(t, first.Balance.Equal(line.Balance))
	assert.True(t, first.FinalAmount.Equal(line.FinalAmount))
}

func TestBillingLine_Recompute_SumsComponents(t *testing.T) {
	line := createTestLine(t, date(2026, time.June, 25), 30000)
	line.SetAdjustments(decimal.NewFromInt(-1500))
	require.NoError(t, line.SetUtilitiesAmount(decimal.NewFromInt(2700)))

	line.Recompute(date(2026, time.June, 1))

	assert.True(t, line.FinalAmount.Equal(decimal.NewFromInt(31200)))
	assert.True(t, line.Balance.Equal(decimal.NewFromInt(31200)))
}

func TestBillingLine_ApplyPayment(t *testing.T) {
	line := createTestLine(t, date(2026, time.June, 25), 1000)
	line.Recompute(date(2026, time.June, 1))

	require.NoError(t, line.ApplyPayment(decimal.NewFromInt(400)))
	assert.True(t, line.PaidAmount.Equal(decimal.NewFromInt(400)))

	err := line.ApplyPayment(decimal.Zero)
	assert.ErrorIs(t, err, shared.ErrInvalidAmount)

	line.Recompute(date(2026, time.June, 1))
	err = line.ApplyPayment(decimal.NewFromInt(700))
	assert.ErrorIs(t, err, shared.ErrIntegrityViolation, "cannot pay more than the balance")
}

func TestBillingLine_ReleasePayment_Clamps(t *testing.T) {
	line := createTestLine(t, date(2026, time.June, 25), 1000)
	line.PaidAmount = decimal.NewFromInt(300)

	clamped, err := line.ReleasePayment(decimal.NewFromInt(200))
	require.NoError(t, err)
	assert.False(t, clamped)
	assert.True(t, line.PaidAmount.Equal(decimal.NewFromInt(100)))

	clamped, err = line.ReleasePayment(decimal.NewFromInt(500))
	require.NoError(t, err)
	assert.True(t, clamped, "flooring at zero must be reported")
	assert.True(t, line.PaidAmount.IsZero())

	_, err = line.ReleasePayment(decimal.Zero)
	assert.ErrorIs(t, err, shared.ErrInvalidAmount)
}

func TestBillingLine_SettledEventRaisedOnce(t *testing.T) {
	today := date(2026, time.June, 1)
	line := createTestLine(t, date(2026, time.June, 25), 500)
	line.ClearDomainEvents()

	require.NoError(t, line.ApplyPayment(decimal.NewFromInt(500)))
	line.Recompute(today)
	line.Recompute(today)

	settled := 0
	for _, ev := range line.GetDomainEvents() {
		if ev.EventType() == EventTypeBillingLineSettled {
			settled++
		}
	}
	assert.Equal(t, 1, settled)
}

func TestBillingLineStatus_IsValid(t *testing.T) {
	tests := []struct {
		status  BillingLineStatus
		isValid bool
	}{
		{BillingLineStatusPlanned, true},
		{BillingLineStatusDue, true},
		{BillingLineStatusOverdue, true},
		{BillingLineStatusPartial, true},
		{BillingLineStatusPaid, true},
		{BillingLineStatus("unknown"), false},
		{BillingLineStatus(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.isValid, tt.status.IsValid())
		})
	}
}
