package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/amt/backend/internal/domain/ledger"
	"github.com/amt/backend/internal/domain/shared"
	"github.com/amt/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newStoredAccount(t *testing.T, db *gorm.DB, name string, currency valueobject.Currency) *ledger.Account {
	t.Helper()

	account, err := ledger.NewAccount(name, ledger.AccountTypeCash, currency)
	require.NoError(t, err)

	repo := NewGormAccountRepository(db)
	require.NoError(t, repo.Save(context.Background(), account))
	return account
}

func newStoredEntry(t *testing.T, db *gorm.DB, accountID uuid.UUID, txType ledger.TransactionType, amount float64, date time.Time, refs ledger.TransactionRefs) *ledger.AccountTransaction {
	t.Helper()

	entry, err := ledger.NewAccountTransaction(accountID, txType, decimal.NewFromFloat(amount), date, refs)
	require.NoError(t, err)

	repo := NewGormAccountTransactionRepository(db)
	require.NoError(t, repo.Save(context.Background(), entry))
	return entry
}

func TestGormAccountRepository(t *testing.T) {
	t.Run("round trips an account", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewGormAccountRepository(db)

		account := newStoredAccount(t, db, "Main cash box", valueobject.KGS)

		found, err := repo.FindByID(context.Background(), account.ID)
		require.NoError(t, err)
		assert.Equal(t, "Main cash box", found.Name)
		assert.Equal(t, ledger.AccountTypeCash, found.AccountType)
		assert.Equal(t, valueobject.KGS, found.Currency)
		assert.True(t, found.Balance.IsZero())
		assert.True(t, found.IsActive)
	})

	t.Run("returns not found for missing account", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewGormAccountRepository(db)

		_, err := repo.FindByID(context.Background(), uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("FindActive skips deactivated accounts", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewGormAccountRepository(db)
		ctx := context.Background()

		active := newStoredAccount(t, db, "Active", valueobject.KGS)

		inactive := newStoredAccount(t, db, "Closed", valueobject.KGS)
		inactive.Deactivate()
		require.NoError(t, repo.Save(ctx, inactive))

		accounts, err := repo.FindActive(ctx)
		require.NoError(t, err)
		require.Len(t, accounts, 1)
		assert.Equal(t, active.ID, accounts[0].ID)
	})

	t.Run("SumBalanceByCurrency totals active accounts only", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewGormAccountRepository(db)
		ctx := context.Background()

		a1 := newStoredAccount(t, db, "Cash KGS", valueobject.KGS)
		require.NoError(t, a1.Credit(decimal.NewFromInt(1500)))
		require.NoError(t, repo.Save(ctx, a1))

		a2 := newStoredAccount(t, db, "Bank KGS", valueobject.KGS)
		require.NoError(t, a2.Credit(decimal.NewFromInt(2000)))
		require.NoError(t, repo.Save(ctx, a2))

		closed := newStoredAccount(t, db, "Closed KGS", valueobject.KGS)
		require.NoError(t, closed.Credit(decimal.NewFromInt(999)))
		closed.Deactivate()
		require.NoError(t, repo.Save(ctx, closed))

		usd := newStoredAccount(t, db, "Cash USD", valueobject.USD)
		require.NoError(t, usd.Credit(decimal.NewFromInt(300)))
		require.NoError(t, repo.Save(ctx, usd))

		total, err := repo.SumBalanceByCurrency(ctx, valueobject.KGS)
		require.NoError(t, err)
		assert.True(t, total.Equal(decimal.NewFromInt(3500)), "got %s", total)

		total, err = repo.SumBalanceByCurrency(ctx, valueobject.EUR)
		require.NoError(t, err)
		assert.True(t, total.IsZero())
	})
}

func TestGormAccountTransactionRepository(t *testing.T) {
	day := func(d int) time.Time {
		return time.Date(2026, time.January, d, 0, 0, 0, 0, time.UTC)
	}

	t.Run("round trips an entry with references", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewGormAccountTransactionRepository(db)
		account := newStoredAccount(t, db, "Cash", valueobject.KGS)

		paymentID := uuid.New()
		entry := newStoredEntry(t, db, account.ID, ledger.TransactionTypeIncome, 50000, day(10), ledger.TransactionRefs{
			RelatedPaymentID: &paymentID,
			Comment:          "Rent payment",
		})

		found, err := repo.FindByID(context.Background(), entry.ID)
		require.NoError(t, err)
		assert.Equal(t, ledger.TransactionTypeIncome, found.Type)
		assert.True(t, found.Amount.Equal(decimal.NewFromInt(50000)))
		require.NotNil(t, found.RelatedPaymentID)
		assert.Equal(t, paymentID, *found.RelatedPaymentID)
		assert.Nil(t, found.RelatedAccountID)
		assert.Equal(t, "Rent payment", found.Comment)
	})

	t.Run("FindByAccount filters by type and date range", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewGormAccountTransactionRepository(db)
		account := newStoredAccount(t, db, "Cash", valueobject.KGS)
		ctx := context.Background()

		newStoredEntry(t, db, account.ID, ledger.TransactionTypeIncome, 100, day(5), ledger.TransactionRefs{})
		wanted := newStoredEntry(t, db, account.ID, ledger.TransactionTypeIncome, 200, day(15), ledger.TransactionRefs{})
		newStoredEntry(t, db, account.ID, ledger.TransactionTypeExpense, 50, day(15), ledger.TransactionRefs{})

		income := ledger.TransactionTypeIncome
		from := day(10)
		entries, err := repo.FindByAccount(ctx, account.ID, ledger.TransactionFilter{
			Type:     &income,
			DateFrom: &from,
		})
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, wanted.ID, entries[0].ID)
	})

	t.Run("FindByAccount paginates newest first", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewGormAccountTransactionRepository(db)
		account := newStoredAccount(t, db, "Cash", valueobject.KGS)
		ctx := context.Background()

		for d := 1; d <= 5; d++ {
			newStoredEntry(t, db, account.ID, ledger.TransactionTypeIncome, float64(d*100), day(d), ledger.TransactionRefs{})
		}

		page, err := repo.FindByAccount(ctx, account.ID, ledger.TransactionFilter{Page: 1, PageSize: 2})
		require.NoError(t, err)
		require.Len(t, page, 2)
		assert.Equal(t, day(5), page[0].TransactionDate)
		assert.Equal(t, day(4), page[1].TransactionDate)

		page, err = repo.FindByAccount(ctx, account.ID, ledger.TransactionFilter{Page: 3, PageSize: 2})
		require.NoError(t, err)
		require.Len(t, page, 1)
		assert.Equal(t, day(1), page[0].TransactionDate)
	})

	t.Run("FindByRelatedPayment returns every entry of a payment", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewGormAccountTransactionRepository(db)
		account := newStoredAccount(t, db, "Cash", valueobject.KGS)
		ctx := context.Background()

		paymentID := uuid.New()
		e1 := newStoredEntry(t, db, account.ID, ledger.TransactionTypeIncome, 30000, day(10), ledger.TransactionRefs{RelatedPaymentID: &paymentID})
		newStoredEntry(t, db, account.ID, ledger.TransactionTypeIncome, 10000, day(11), ledger.TransactionRefs{})

		entries, err := repo.FindByRelatedPayment(ctx, paymentID)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, e1.ID, entries[0].ID)
	})

	t.Run("Delete removes the entry", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewGormAccountTransactionRepository(db)
		account := newStoredAccount(t, db, "Cash", valueobject.KGS)
		ctx := context.Background()

		entry := newStoredEntry(t, db, account.ID, ledger.TransactionTypeIncome, 100, day(1), ledger.TransactionRefs{})
		require.NoError(t, repo.Delete(ctx, entry.ID))

		_, err := repo.FindByID(ctx, entry.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)

		assert.ErrorIs(t, repo.Delete(ctx, entry.ID), shared.ErrNotFound)
	})
}
