package services

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/api-sage/pix-ledger-service/src/internal/adapter/http/models"
	"github.com/api-sage/pix-ledger-service/src/internal/commons"
	"github.com/api-sage/pix-ledger-service/src/internal/domain"
	"github.com/api-sage/pix-ledger-service/src/internal/logger"
)

type TransferService struct {
	accountRepo domain.AccountRepository
}

func NewTransferService(accountRepo domain.AccountRepository) *TransferService {
	return &TransferService{accountRepo: accountRepo}
}

// Pix debits the source account and credits the destination account as one
// atomic unit. The same-account check runs before any account lookup, so a
// self transfer fails even when the account does not exist.
func (s *TransferService) Pix(ctx context.Context, req models.PixTransferRequest) (commons.Response[models.PixTransferResponse], error) {
	logger.Info("transfer service pix request", logger.Fields{
		"payload": logger.SanitizePayload(req),
	})

	if err := req.Validate(); err != nil {
		logger.Error("transfer service pix validation failed", err, nil)
		return commons.ErrorResponse[models.PixTransferResponse]("validation failed", err.Error()), err
	}

	if req.SourceAccountID == req.DestinationAccountID {
		err := domain.ErrSameAccount
		return commons.ErrorResponse[models.PixTransferResponse]("validation failed", err.Error()), err
	}

	amount, _ := decimal.NewFromString(strings.TrimSpace(req.Amount))

	var sourceBalance decimal.Decimal
	err := s.accountRepo.WithAccountPair(ctx, req.SourceAccountID, req.DestinationAccountID, func(source, destination *domain.Account) error {
		if err := source.Debit(amount); err != nil {
			return err
		}
		if err := destination.Credit(amount); err != nil {
			return err
		}
		sourceBalance = source.Balance
		return nil
	})
	if err != nil {
		logger.Error("transfer service pix failed", err, logger.Fields{
			"sourceAccountId":      req.SourceAccountID,
			"destinationAccountId": req.DestinationAccountID,
			"amount":               req.Amount,
		})
		switch {
		case errors.Is(err, domain.ErrAccountNotFound):
			return commons.ErrorResponse[models.PixTransferResponse]("Account not found"), err
		case errors.Is(err, domain.ErrInvalidAmount):
			return commons.ErrorResponse[models.PixTransferResponse]("validation failed", err.Error()), err
		case errors.Is(err, domain.ErrInsufficientFunds):
			return commons.ErrorResponse[models.PixTransferResponse]("Insufficient funds", err.Error()), err
		}
		return commons.ErrorResponse[models.PixTransferResponse]("failed to process transfer", "Unable to process transfer right now"), err
	}

	response := models.PixTransferResponse{
		SourceAccountID:      req.SourceAccountID,
		DestinationAccountID: req.DestinationAccountID,
		TransferredAmount:    amount.StringFixed(2),
		SourceBalance:        sourceBalance.StringFixed(2),
	}

	logger.Info("transfer service pix success", logger.Fields{
		"sourceAccountId":      response.SourceAccountID,
		"destinationAccountId": response.DestinationAccountID,
		"transferredAmount":    response.TransferredAmount,
		"sourceBalance":        response.SourceBalance,
	})

	return commons.SuccessResponse("transfer completed successfully", response), nil
}
