package billing

import (
	"context"
	"testing"
	"time"

	"github.com/amt/backend/internal/domain/billing"
	"github.com/amt/backend/internal/domain/ledger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newReversalService(f *fixture) *ReversalService {
	return NewReversalService(f.lines, f.payments, f.allocations,
		f.accounts, f.ledger, f.uow, zap.NewNop())
}

// receives a payment so there is something to reverse
func seedReceivedPayment(t *testing.T, f *fixture, amount int64) (*billing.Contract, *ledger.Account, uuid.UUID) {
	t.Helper()
	contract, account := seedBilling(t, f)
	result, err := newPaymentService(f).CreatePayment(context.Background(), CreatePaymentRequest{
		ContractID:  contract.ID,
		AccountID:   account.ID,
		Amount:      decimal.NewFromInt(amount),
		PaymentDate: date(2026, time.June, 10),
		AsOf:        date(2026, time.June, 10),
	})
	require.NoError(t, err)
	return contract, account, result.PaymentID
}

func TestReversalService_ReturnPayment(t *testing.T) {
	f := newFixture()
	contract, account, paymentID := seedReceivedPayment(t, f, 50000)
	service := newReversalService(f)
	asOf := date(2026, time.June, 10)

	result, err := service.ReturnPayment(context.Background(), paymentID, asOf)
	require.NoError(t, err)
	assert.True(t, result.ReturnedAmount.Equal(decimal.NewFromInt(50000)))

	// lines are back to their unpaid state
	lines, err := f.lines.FindByContract(context.Background(), contract.ID)
	require.NoError(t, err)
	for _, line := range lines {
		assert.True(t, line.PaidAmount.IsZero())
		assert.True(t, line.Balance.Equal(decimal.NewFromInt(30000)))
	}

	// the money left the account and the income entry is gone
	assert.True(t, account.Balance.IsZero())
	entries, err := f.ledger.FindByRelatedPayment(context.Background(), paymentID)
	require.NoError(t, err)
	assert.Empty(t, entries)

	// no allocation rows survive
	allocations, err := f.allocations.FindByPayment(context.Background(), paymentID)
	require.NoError(t, err)
	assert.Empty(t, allocations)

	payment, err := f.payments.FindByID(context.Background(), paymentID)
	require.NoError(t, err)
	assert.True(t, payment.IsReturned)
	assert.True(t, payment.AllocatedAmount.IsZero())
}

func TestReversalService_ReturnPayment_Twice(t *testing.T) {
	f := newFixture()
	_, _, paymentID := seedReceivedPayment(t, f, 10000)
	service := newReversalService(f)
	asOf := date(2026, time.June, 10)

	_, err := service.ReturnPayment(context.Background(), paymentID, asOf)
	require.NoError(t, err)

	_, err = service.ReturnPayment(context.Background(), paymentID, asOf)
	assert.Error(t, err)
}

func TestReversalService_DeletePayment(t *testing.T) {
	f := newFixture()
	contract, account, paymentID := seedReceivedPayment(t, f, 30000)
	service := newReversalService(f)

	result, err := service.DeletePayment(context.Background(), paymentID, date(2026, time.June, 10))
	require.NoError(t, err)
	assert.True(t, result.ReturnedAmount.Equal(decimal.NewFromInt(30000)))

	// the payment row itself is gone
	_, err = f.payments.FindByID(context.Background(), paymentID)
	assert.Error(t, err)

	// its effects are gone with it
	assert.True(t, account.Balance.IsZero())
	lines, err := f.lines.FindByContract(context.Background(), contract.ID)
	require.NoError(t, err)
	assert.True(t, lines[0].PaidAmount.IsZero())
	allocations, err := f.allocations.FindByPayment(context.Background(), paymentID)
	require.NoError(t, err)
	assert.Empty(t, allocations)
}

func TestReversalService_CancelLinePayment(t *testing.T) {
	f := newFixture()
	contract, account, paymentID := seedReceivedPayment(t, f, 50000)
	service := newReversalService(f)
	asOf := date(2026, time.June, 10)

	lines, err := f.lines.FindByContract(context.Background(), contract.ID)
	require.NoError(t, err)
	january := lines[0]
	require.Equal(t, billing.BillingLineStatusPaid, january.Status)

	result, err := service.CancelLinePayment(context.Background(), january.ID, asOf)
	require.NoError(t, err)

	assert.True(t, result.ReturnedAmount.Equal(decimal.NewFromInt(30000)))
	assert.True(t, result.NewBalance.Equal(decimal.NewFromInt(30000)))
	assert.Equal(t, billing.BillingLineStatusOverdue, result.NewStatus)

	// the payment holds the money as unallocated, the account keeps it
	payment, err := f.payments.FindByID(context.Background(), paymentID)
	require.NoError(t, err)
	assert.False(t, payment.IsReturned)
	assert.True(t, payment.AllocatedAmount.Equal(decimal.NewFromInt(20000)))
	assert.True(t, payment.UnallocatedAmount().Equal(decimal.NewFromInt(30000)))
	assert.True(t, account.Balance.Equal(decimal.NewFromInt(50000)))

	// February's partial allocation is untouched
	assert.True(t, lines[1].PaidAmount.Equal(decimal.NewFromInt(20000)))
	allocations, err := f.allocations.FindByBillingLine(context.Background(), january.ID)
	require.NoError(t, err)
	assert.Empty(t, allocations)
}

func TestReversalService_CancelLinePayment_NothingPaid(t *testing.T) {
	f := newFixture()
	contract, _ := seedBilling(t, f)
	service := newReversalService(f)

	lines, err := f.lines.FindByContract(context.Background(), contract.ID)
	require.NoError(t, err)

	_, err = service.CancelLinePayment(context.Background(), lines[0].ID, date(2026, time.June, 10))
	assert.Error(t, err)
}
