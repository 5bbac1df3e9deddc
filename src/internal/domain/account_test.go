package domain_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/api-sage/pix-ledger-service/src/internal/domain"
)

func dec(t *testing.T, value string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(value)
	require.NoError(t, err)
	return d
}

func TestAccountCredit(t *testing.T) {
	cases := []struct {
		name    string
		balance string
		amount  string
		want    string
	}{
		{name: "two decimal amount", balance: "0.00", amount: "10.50", want: "10.50"},
		{name: "rounds half up when preceding digit odd", balance: "0.00", amount: "12.279", want: "12.28"},
		{name: "truncates below midpoint", balance: "0.00", amount: "12.2709", want: "12.27"},
		{name: "midpoint after odd digit rounds up", balance: "10.00", amount: "0.275", want: "10.28"},
		{name: "midpoint after even digit rounds down", balance: "10.00", amount: "0.265", want: "10.26"},
		{name: "midpoint 2.355", balance: "0.00", amount: "2.355", want: "2.36"},
		{name: "midpoint 2.365", balance: "0.00", amount: "2.365", want: "2.36"},
		{name: "rounds up past midpoint", balance: "0.00", amount: "2.458", want: "2.46"},
		{name: "rounds up to trailing zero", balance: "0.00", amount: "3.799", want: "3.80"},
		{name: "rounds down below midpoint", balance: "0.00", amount: "3.612", want: "3.61"},
		{name: "rounds down just past scale", balance: "0.00", amount: "5.651", want: "5.65"},
		{name: "credit accumulates on existing balance", balance: "100.10", amount: "0.15", want: "100.25"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			account := domain.Account{ID: 1, Category: domain.AccountCategoryChecking, Balance: dec(t, tc.balance)}

			err := account.Credit(dec(t, tc.amount))

			require.NoError(t, err)
			assert.Equal(t, tc.want, account.Balance.StringFixed(2))
		})
	}
}

func TestAccountCreditInvalidAmount(t *testing.T) {
	cases := []struct {
		name   string
		amount string
	}{
		{name: "zero", amount: "0"},
		{name: "negative", amount: "-0.01"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			account := domain.Account{ID: 1, Balance: dec(t, "50.00")}

			err := account.Credit(dec(t, tc.amount))

			require.ErrorIs(t, err, domain.ErrInvalidAmount)
			assert.Equal(t, "50.00", account.Balance.StringFixed(2))
		})
	}
}

func TestAccountDebit(t *testing.T) {
	cases := []struct {
		name    string
		balance string
		amount  string
		want    string
	}{
		{name: "partial withdrawal", balance: "10.00", amount: "4.00", want: "6.00"},
		{name: "full drain to zero", balance: "10.00", amount: "10.00", want: "0.00"},
		{name: "residual midpoint rounds to even", balance: "10.00", amount: "4.375", want: "5.62"},
		{name: "residual midpoint after odd digit rounds up", balance: "10.00", amount: "4.365", want: "5.64"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			account := domain.Account{ID: 1, Category: domain.AccountCategorySavings, Balance: dec(t, tc.balance)}

			err := account.Debit(dec(t, tc.amount))

			require.NoError(t, err)
			assert.Equal(t, tc.want, account.Balance.StringFixed(2))
		})
	}
}

func TestAccountDebitInvalidAmount(t *testing.T) {
	account := domain.Account{ID: 1, Balance: dec(t, "50.00")}

	require.ErrorIs(t, account.Debit(decimal.Zero), domain.ErrInvalidAmount)
	require.ErrorIs(t, account.Debit(dec(t, "-1")), domain.ErrInvalidAmount)
	assert.Equal(t, "50.00", account.Balance.StringFixed(2))
}

func TestAccountDebitInsufficientFunds(t *testing.T) {
	account := domain.Account{ID: 1, Balance: dec(t, "10.00")}

	err := account.Debit(dec(t, "10.01"))

	require.ErrorIs(t, err, domain.ErrInsufficientFunds)
	assert.Equal(t, "10.00", account.Balance.StringFixed(2), "failed debit must not change the balance")
}

func TestRound2KeepsTwoDecimals(t *testing.T) {
	account := domain.Account{ID: 1, Balance: decimal.Zero}

	require.NoError(t, account.Credit(dec(t, "0.333")))
	require.NoError(t, account.Credit(dec(t, "0.333")))
	require.NoError(t, account.Credit(dec(t, "0.333")))

	assert.True(t, account.Balance.Exponent() >= -2, "balance exponent %d", account.Balance.Exponent())
	assert.Equal(t, "0.99", account.Balance.StringFixed(2))
}

func TestAccountCategoryIsValid(t *testing.T) {
	assert.True(t, domain.AccountCategoryChecking.IsValid())
	assert.True(t, domain.AccountCategorySavings.IsValid())
	assert.False(t, domain.AccountCategory("CURRENT").IsValid())
	assert.False(t, domain.AccountCategory("").IsValid())
}
