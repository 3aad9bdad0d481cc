package billing

import (
	"context"
	"testing"
	"time"

	"github.com/amt/backend/internal/domain/billing"
	"github.com/amt/backend/internal/domain/ledger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func newPaymentService(f *fixture) *PaymentService {
	return NewPaymentService(f.contracts, f.lines, f.payments, f.allocations,
		f.accounts, f.ledger, f.uow, zap.NewNop())
}

func newScheduleServiceForTest(f *fixture) *ScheduleService {
	return NewScheduleService(f.contracts, f.lines, f.uow, zap.NewNop())
}

// seeds a contract with a six-month schedule and one cash account
func seedBilling(t *testing.T, f *fixture) (*billing.Contract, *ledger.Account) {
	t.Helper()
	contract := f.seedContract("AMT-2026-001", date(2026, time.January, 1), date(2026, time.July, 1), 30000, 25)
	account := f.seedAccount("Main cash box")

	_, err := newScheduleServiceForTest(f).GenerateSchedule(context.Background(), contract.ID, date(2026, time.January, 1))
	require.NoError(t, err)
	return contract, account
}

func TestPaymentService_CreatePayment(t *testing.T) {
	f := newFixture()
	contract, account := seedBilling(t, f)
	service := newPaymentService(f)

	result, err := service.CreatePayment(context.Background(), CreatePaymentRequest{
		ContractID:  contract.ID,
		AccountID:   account.ID,
		Amount:      decimal.NewFromInt(50000),
		PaymentDate: date(2026, time.June, 10),
		AsOf:        date(2026, time.June, 10),
	})
	require.NoError(t, err)

	// 30000 settles January, 20000 lands on February
	assert.True(t, result.AllocatedAmount.Equal(decimal.NewFromInt(50000)))
	assert.True(t, result.UnallocatedAmount.IsZero())
	assert.Equal(t, 2, result.LinesTouched)

	lines, err := f.lines.FindByContract(context.Background(), contract.ID)
	require.NoError(t, err)
	require.Len(t, lines, 6)
	assert.Equal(t, billing.BillingLineStatusPaid, lines[0].Status)
	assert.True(t, lines[1].PaidAmount.Equal(decimal.NewFromInt(20000)))
	assert.True(t, lines[2].PaidAmount.IsZero())

	// the money is on the account with one income entry behind it
	assert.True(t, account.Balance.Equal(decimal.NewFromInt(50000)))
	entries, err := f.ledger.FindByRelatedPayment(context.Background(), result.PaymentID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, ledger.TransactionTypeIncome, entries[0].Type)
	assert.Equal(t, account.ID, entries[0].AccountID)
}

func TestPaymentService_CreatePayment_Overpayment(t *testing.T) {
	f := newFixture()
	contract, account := seedBilling(t, f)
	service := newPaymentService(f)

	// more money than the whole schedule: 6 lines x 30000 = 180000
	result, err := service.CreatePayment(context.Background(), CreatePaymentRequest{
		ContractID:  contract.ID,
		AccountID:   account.ID,
		Amount:      decimal.NewFromInt(200000),
		PaymentDate: date(2026, time.June, 10),
		AsOf:        date(2026, time.June, 10),
	})
	require.NoError(t, err)

	assert.True(t, result.AllocatedAmount.Equal(decimal.NewFromInt(180000)))
	assert.True(t, result.UnallocatedAmount.Equal(decimal.NewFromInt(20000)))
	assert.Equal(t, 6, result.LinesTouched)

	// full amount still lands on the account
	assert.True(t, account.Balance.Equal(decimal.NewFromInt(200000)))
}

func TestPaymentService_CreatePayment_InactiveAccount(t *testing.T) {
	f := newFixture()
	contract, account := seedBilling(t, f)
	account.Deactivate()
	service := newPaymentService(f)

	_, err := service.CreatePayment(context.Background(), CreatePaymentRequest{
		ContractID:  contract.ID,
		AccountID:   account.ID,
		Amount:      decimal.NewFromInt(1000),
		PaymentDate: date(2026, time.June, 10),
	})
	assert.Error(t, err)
	assert.Empty(t, f.payments.payments)
}

func TestPaymentService_CreatePayment_InvalidAmount(t *testing.T) {
	f := newFixture()
	contract, account := seedBilling(t, f)
	service := newPaymentService(f)

	_, err := service.CreatePayment(context.Background(), CreatePaymentRequest{
		ContractID:  contract.ID,
		AccountID:   account.ID,
		Amount:      decimal.Zero,
		PaymentDate: date(2026, time.June, 10),
	})
	assert.Error(t, err)
}

func TestPaymentService_AcceptLinePayment(t *testing.T) {
	f := newFixture()
	contract, account := seedBilling(t, f)
	service := newPaymentService(f)

	lines, err := f.lines.FindByContract(context.Background(), contract.ID)
	require.NoError(t, err)
	target := lines[2]

	result, err := service.AcceptLinePayment(context.Background(), AcceptLinePaymentRequest{
		BillingLineID: target.ID,
		AccountID:     account.ID,
		Amount:        decimal.NewFromInt(12000),
		PaymentDate:   date(2026, time.June, 10),
		AsOf:          date(2026, time.June, 10),
	})
	require.NoError(t, err)

	// only the chosen line is touched, older open lines stay open
	assert.True(t, target.PaidAmount.Equal(decimal.NewFromInt(12000)))
	assert.True(t, lines[0].PaidAmount.IsZero())
	assert.True(t, result.AllocatedAmount.Equal(decimal.NewFromInt(12000)))
	assert.True(t, account.Balance.Equal(decimal.NewFromInt(12000)))

	allocations, err := f.allocations.FindByBillingLine(context.Background(), target.ID)
	require.NoError(t, err)
	require.Len(t, allocations, 1)
	assert.Equal(t, result.PaymentID, allocations[0].PaymentID)
}

func TestPaymentService_AcceptLinePayment_ExceedsBalance(t *testing.T) {
	f := newFixture()
	contract, account := seedBilling(t, f)
	service := newPaymentService(f)

	lines, err := f.lines.FindByContract(context.Background(), contract.ID)
	require.NoError(t, err)

	_, err = service.AcceptLinePayment(context.Background(), AcceptLinePaymentRequest{
		BillingLineID: lines[0].ID,
		AccountID:     account.ID,
		Amount:        decimal.NewFromInt(30001),
		PaymentDate:   date(2026, time.June, 10),
	})
	assert.Error(t, err)
	assert.True(t, lines[0].PaidAmount.IsZero())
	assert.True(t, account.Balance.IsZero())
}

func TestPaymentService_ReallocatePayment(t *testing.T) {
	f := newFixture()
	contract, account := seedBilling(t, f)
	service := newPaymentService(f)
	asOf := date(2026, time.June, 10)

	created, err := service.CreatePayment(context.Background(), CreatePaymentRequest{
		ContractID:  contract.ID,
		AccountID:   account.ID,
		Amount:      decimal.NewFromInt(40000),
		PaymentDate: asOf,
		AsOf:        asOf,
	})
	require.NoError(t, err)

	// utilities were billed on January after the payment landed
	lines, err := f.lines.FindByContract(context.Background(), contract.ID)
	require.NoError(t, err)
	require.NoError(t, lines[0].SetUtilitiesAmount(decimal.NewFromInt(5000)))
	lines[0].Recompute(asOf)

	result, err := service.ReallocatePayment(context.Background(), created.PaymentID, asOf)
	require.NoError(t, err)

	// FIFO re-run over the grown January line: 35000 there, 5000 on February
	assert.True(t, result.AllocatedAmount.Equal(decimal.NewFromInt(40000)))
	assert.True(t, lines[0].PaidAmount.Equal(decimal.NewFromInt(35000)))
	assert.True(t, lines[1].PaidAmount.Equal(decimal.NewFromInt(5000)))

	// the account never moved
	assert.True(t, account.Balance.Equal(decimal.NewFromInt(40000)))
}

func TestPaymentService_ReallocatePayment_ReturnedPayment(t *testing.T) {
	f := newFixture()
	contract, account := seedBilling(t, f)
	service := newPaymentService(f)

	created, err := service.CreatePayment(context.Background(), CreatePaymentRequest{
		ContractID:  contract.ID,
		AccountID:   account.ID,
		Amount:      decimal.NewFromInt(1000),
		PaymentDate: date(2026, time.June, 10),
		AsOf:        date(2026, time.June, 10),
	})
	require.NoError(t, err)

	payment, err := f.payments.FindByID(context.Background(), created.PaymentID)
	require.NoError(t, err)
	require.NoError(t, payment.MarkReturned())

	_, err = service.ReallocatePayment(context.Background(), created.PaymentID, date(2026, time.June, 11))
	assert.Error(t, err)
}
