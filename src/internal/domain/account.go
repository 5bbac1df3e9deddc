package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type AccountCategory string

const (
	AccountCategoryChecking AccountCategory = "CHECKING"
	AccountCategorySavings  AccountCategory = "SAVINGS"
)

func (c AccountCategory) IsValid() bool {
	return c == AccountCategoryChecking || c == AccountCategorySavings
}

// Account is a ledger entry. Balance is kept at a fixed scale of two decimal
// digits and never goes negative between operations.
type Account struct {
	ID        int64
	Category  AccountCategory
	Balance   decimal.Decimal
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Round2 rounds a monetary value to two decimal digits using half-to-even
// (banker's) tie-breaking: 10.275 becomes 10.28, 10.265 becomes 10.26.
func Round2(value decimal.Decimal) decimal.Decimal {
	return value.RoundBank(2)
}

// Credit adds amount to the balance and re-rounds to scale 2.
func (a *Account) Credit(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}

	a.Balance = Round2(a.Balance.Add(amount))
	return nil
}

// Debit subtracts amount from the balance and re-rounds to scale 2. The
// sufficiency check runs against the current stored balance before anything
// is mutated, so a rejected debit leaves the account untouched.
func (a *Account) Debit(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}
	if amount.GreaterThan(a.Balance) {
		return ErrInsufficientFunds
	}

	a.Balance = Round2(a.Balance.Sub(amount))
	return nil
}
