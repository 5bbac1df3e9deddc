package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/api-sage/pix-ledger-service/src/internal/adapter/http/models"
	"github.com/api-sage/pix-ledger-service/src/internal/commons"
	"github.com/api-sage/pix-ledger-service/src/internal/domain"
	"github.com/api-sage/pix-ledger-service/src/internal/logger"
)

type AccountService struct {
	accountRepo domain.AccountRepository
}

func NewAccountService(accountRepo domain.AccountRepository) *AccountService {
	return &AccountService{accountRepo: accountRepo}
}

func (s *AccountService) CreateAccount(ctx context.Context, req models.CreateAccountRequest) (commons.Response[models.AccountResponse], error) {
	logger.Info("account service create account request", logger.Fields{
		"payload": logger.SanitizePayload(req),
	})

	if err := req.Validate(); err != nil {
		logger.Error("account service create account validation failed", err, nil)
		return commons.ErrorResponse[models.AccountResponse]("validation failed", err.Error()), err
	}

	balance := decimal.Zero
	if strings.TrimSpace(req.InitialBalance) != "" {
		balance, _ = decimal.NewFromString(strings.TrimSpace(req.InitialBalance))
	}

	account := domain.Account{
		Category: domain.AccountCategory(strings.ToUpper(strings.TrimSpace(req.Category))),
		Balance:  balance,
	}

	created, err := s.accountRepo.Create(ctx, account)
	if err != nil {
		logger.Error("account service create account repository failed", err, logger.Fields{
			"category": string(account.Category),
		})
		return commons.ErrorResponse[models.AccountResponse]("failed to create account", "Unable to create account right now"), err
	}

	response := mapAccountToResponse(created)

	logger.Info("account service create account success", logger.Fields{
		"accountId": response.ID,
		"category":  response.Category,
	})

	return commons.SuccessResponse("account created successfully", response), nil
}

func (s *AccountService) GetAccount(ctx context.Context, accountID int64) (commons.Response[models.AccountResponse], error) {
	logger.Info("account service get account request", logger.Fields{
		"accountId": accountID,
	})

	if accountID <= 0 {
		err := errors.New("accountId must be greater than zero")
		return commons.ErrorResponse[models.AccountResponse]("validation failed", err.Error()), err
	}

	account, err := s.accountRepo.FindByID(ctx, accountID)
	if err != nil {
		logger.Error("account service get account failed", err, logger.Fields{
			"accountId": accountID,
		})
		if errors.Is(err, domain.ErrAccountNotFound) {
			return commons.ErrorResponse[models.AccountResponse]("Account not found"), err
		}
		return commons.ErrorResponse[models.AccountResponse]("failed to get account", "Unable to fetch account right now"), err
	}

	return commons.SuccessResponse("account fetched successfully", mapAccountToResponse(account)), nil
}

func (s *AccountService) DepositFunds(ctx context.Context, req models.DepositFundsRequest) (commons.Response[models.DepositFundsResponse], error) {
	logger.Info("account service deposit funds request", logger.Fields{
		"payload": logger.SanitizePayload(req),
	})

	if err := req.Validate(); err != nil {
		logger.Error("account service deposit funds validation failed", err, nil)
		return commons.ErrorResponse[models.DepositFundsResponse]("validation failed", err.Error()), err
	}

	amount, _ := decimal.NewFromString(strings.TrimSpace(req.Amount))

	var balance decimal.Decimal
	err := s.accountRepo.WithAccount(ctx, req.AccountID, func(account *domain.Account) error {
		if err := account.Credit(amount); err != nil {
			return err
		}
		balance = account.Balance
		return nil
	})
	if err != nil {
		logger.Error("account service deposit funds failed", err, logger.Fields{
			"accountId": req.AccountID,
			"amount":    req.Amount,
		})
		switch {
		case errors.Is(err, domain.ErrAccountNotFound):
			return commons.ErrorResponse[models.DepositFundsResponse]("Account not found"), err
		case errors.Is(err, domain.ErrInvalidAmount):
			return commons.ErrorResponse[models.DepositFundsResponse]("validation failed", err.Error()), err
		}
		return commons.ErrorResponse[models.DepositFundsResponse]("failed to deposit funds", "Unable to deposit funds right now"), err
	}

	response := models.DepositFundsResponse{
		AccountID:       req.AccountID,
		DepositedAmount: amount.StringFixed(2),
		Balance:         balance.StringFixed(2),
	}

	logger.Info("account service deposit funds success", logger.Fields{
		"accountId":       response.AccountID,
		"depositedAmount": response.DepositedAmount,
		"balance":         response.Balance,
	})

	return commons.SuccessResponse("funds deposited successfully", response), nil
}

func mapAccountToResponse(account domain.Account) models.AccountResponse {
	return models.AccountResponse{
		ID:        account.ID,
		Category:  string(account.Category),
		Balance:   account.Balance.StringFixed(2),
		CreatedAt: account.CreatedAt.Format(time.RFC3339),
		UpdatedAt: account.UpdatedAt.Format(time.RFC3339),
	}
}
