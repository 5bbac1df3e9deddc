package models

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/api-sage/pix-ledger-service/src/internal/domain"
)

type CreateAccountRequest struct {
	Category       string `json:"category"`
	InitialBalance string `json:"initialBalance,omitempty"`
}

func (r CreateAccountRequest) Validate() error {
	var errs []string

	category := domain.AccountCategory(strings.ToUpper(strings.TrimSpace(r.Category)))
	if strings.TrimSpace(r.Category) == "" {
		errs = append(errs, "category is required")
	} else if !category.IsValid() {
		errs = append(errs, "category must be one of CHECKING, SAVINGS")
	}

	if strings.TrimSpace(r.InitialBalance) != "" {
		parsed, err := decimal.NewFromString(strings.TrimSpace(r.InitialBalance))
		if err != nil {
			errs = append(errs, "initialBalance must be numeric")
		} else if parsed.IsNegative() {
			errs = append(errs, "initialBalance cannot be negative")
		}
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}

	return nil
}

type AccountResponse struct {
	ID        int64  `json:"id"`
	Category  string `json:"category"`
	Balance   string `json:"balance"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

type DepositFundsRequest struct {
	AccountID int64  `json:"accountId"`
	Amount    string `json:"amount"`
}

func (r DepositFundsRequest) Validate() error {
	var errs []string

	if r.AccountID <= 0 {
		errs = append(errs, "accountId must be greater than zero")
	}

	if strings.TrimSpace(r.Amount) == "" {
		errs = append(errs, "amount is required")
	} else if _, err := decimal.NewFromString(strings.TrimSpace(r.Amount)); err != nil {
		errs = append(errs, "amount must be numeric")
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

type DepositFundsResponse struct {
	AccountID       int64  `json:"accountId"`
	DepositedAmount string `json:"depositedAmount"`
	Balance         string `json:"balance"`
}
