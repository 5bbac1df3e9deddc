package models

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

type PixTransferRequest struct {
	SourceAccountID      int64  `json:"sourceAccountId"`
	DestinationAccountID int64  `json:"destinationAccountId"`
	Amount               string `json:"amount"`
}

func (r PixTransferRequest) Validate() error {
	var errs []string

	if r.SourceAccountID <= 0 {
		errs = append(errs, "sourceAccountId must be greater than zero")
	}
	if r.DestinationAccountID <= 0 {
		errs = append(errs, "destinationAccountId must be greater than zero")
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

type PixTransferResponse struct {
	SourceAccountID      int64  `json:"sourceAccountId"`
	DestinationAccountID int64  `json:"destinationAccountId"`
	TransferredAmount    string `json:"transferredAmount"`
	SourceBalance        string `json:"sourceBalance"`
}
