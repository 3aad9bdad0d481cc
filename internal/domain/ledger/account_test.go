package ledger

import (
	"testing"

	"github.com/amt/backend/internal/domain/shared"
	"github.com/amt/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAccount(t *testing.T) {
	t.Run("valid cash account", func(t *testing.T) {
		account, err := NewAccount("Main cash box", AccountTypeCash, valueobject.KGS)
		require.NoError(t, err)
		assert.Equal(t, "Main cash box", account.Name)
		assert.Equal(t, AccountTypeCash, account.AccountType)
		assert.True(t, account.Balance.IsZero())
		assert.True(t, account.IsActive)
	})

	t.Run("empty name", func(t *testing.T) {
		_, err := NewAccount("", AccountTypeCash, valueobject.KGS)
		assert.Error(t, err)
	})

	t.Run("invalid type", func(t *testing.T) {
		_, err := NewAccount("Main", AccountType("wallet"), valueobject.KGS)
		assert.Error(t, err)
	})

	t.Run("invalid currency", func(t *testing.T) {
		_, err := NewAccount("Main", AccountTypeBank, valueobject.Currency("XXX"))
		assert.Error(t, err)
	})
}

func TestAccount_CreditDebit(t *testing.T) {
	account, err := NewAccount("Main", AccountTypeCash, valueobject.KGS)
	require.NoError(t, err)

	require.NoError(t, account.Credit(decimal.NewFromInt(1000)))
	assert.True(t, account.Balance.Equal(decimal.NewFromInt(1000)))

	require.NoError(t, account.Debit(decimal.NewFromInt(300)))
	assert.True(t, account.Balance.Equal(decimal.NewFromInt(700)))

	assert.ErrorIs(t, account.Credit(decimal.Zero), shared.ErrInvalidAmount)
	assert.ErrorIs(t, account.Debit(decimal.NewFromInt(-5)), shared.ErrInvalidAmount)
}

func TestAccount_Debit_InsufficientFunds(t *testing.T) {
	account, err := NewAccount("Main", AccountTypeCash, valueobject.KGS)
	require.NoError(t, err)
	require.NoError(t, account.Credit(decimal.NewFromInt(100)))

	err = account.Debit(decimal.NewFromInt(150))
	assert.ErrorIs(t, err, shared.ErrInsufficientFunds)

	// a refused debit leaves the balance untouched
	assert.True(t, account.Balance.Equal(decimal.NewFromInt(100)))
}

func TestAccount_DebitClamped(t *testing.T) {
	account, err := NewAccount("Main", AccountTypeCash, valueobject.KGS)
	require.NoError(t, err)
	require.NoError(t, account.Credit(decimal.NewFromInt(100)))

	clamped, err := account.DebitClamped(decimal.NewFromInt(40))
	require.NoError(t, err)
	assert.False(t, clamped)
	assert.True(t, account.Balance.Equal(decimal.NewFromInt(60)))

	clamped, err = account.DebitClamped(decimal.NewFromInt(100))
	require.NoError(t, err)
	assert.True(t, clamped)
	assert.True(t, account.Balance.IsZero())
}

func TestAccount_Deactivate(t *testing.T) {
	account, err := NewAccount("Old bank account", AccountTypeBank, valueobject.USD)
	require.NoError(t, err)

	account.Deactivate()
	assert.False(t, account.IsActive)
}
