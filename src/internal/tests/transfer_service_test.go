package services_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"golang.org/x/sync/errgroup"

	"github.com/api-sage/pix-ledger-service/src/internal/adapter/http/models"
	"github.com/api-sage/pix-ledger-service/src/internal/adapter/repository/memory"
	"github.com/api-sage/pix-ledger-service/src/internal/domain"
	"github.com/api-sage/pix-ledger-service/src/internal/usecase/services"
)

// trackingRepository records whether any store method was reached.
type trackingRepository struct {
	called bool
}

func (r *trackingRepository) Create(context.Context, domain.Account) (domain.Account, error) {
	r.called = true
	return domain.Account{}, errors.New("unexpected call")
}

func (r *trackingRepository) FindByID(context.Context, int64) (domain.Account, error) {
	r.called = true
	return domain.Account{}, errors.New("unexpected call")
}

func (r *trackingRepository) WithAccount(context.Context, int64, func(*domain.Account) error) error {
	r.called = true
	return errors.New("unexpected call")
}

func (r *trackingRepository) WithAccountPair(context.Context, int64, int64, func(*domain.Account, *domain.Account) error) error {
	r.called = true
	return errors.New("unexpected call")
}

func balanceOf(t *testing.T, repo domain.AccountRepository, id int64) string {
	t.Helper()
	account, err := repo.FindByID(context.Background(), id)
	if err != nil {
		t.Fatalf("find account %d: %v", id, err)
	}
	return account.Balance.StringFixed(2)
}

func TestTransferServicePixValidationError(t *testing.T) {
	svc := services.NewTransferService(memory.NewAccountRepository())

	_, err := svc.Pix(context.Background(), models.PixTransferRequest{})
	if err == nil {
		t.Fatal("expected validation error for empty pix request")
	}
}

func TestTransferServicePixSameAccountRejectedBeforeLookup(t *testing.T) {
	repo := &trackingRepository{}
	svc := services.NewTransferService(repo)

	_, err := svc.Pix(context.Background(), models.PixTransferRequest{
		SourceAccountID:      7,
		DestinationAccountID: 7,
		Amount:               "10.00",
	})
	if !errors.Is(err, domain.ErrSameAccount) {
		t.Fatalf("expected ErrSameAccount, got %v", err)
	}
	if repo.called {
		t.Fatal("same-account transfer must be rejected before touching the store")
	}
}

func TestTransferServicePixSourceNotFound(t *testing.T) {
	repo := memory.NewAccountRepository()
	svc := services.NewTransferService(repo)
	destination := newAccount(t, repo, domain.AccountCategoryChecking, "10.00")

	_, err := svc.Pix(context.Background(), models.PixTransferRequest{
		SourceAccountID:      destination.ID + 100,
		DestinationAccountID: destination.ID,
		Amount:               "5.00",
	})
	if !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
	if got := balanceOf(t, repo, destination.ID); got != "10.00" {
		t.Fatalf("destination balance must be unchanged, got %s", got)
	}
}

func TestTransferServicePixDestinationNotFound(t *testing.T) {
	repo := memory.NewAccountRepository()
	svc := services.NewTransferService(repo)
	source := newAccount(t, repo, domain.AccountCategoryChecking, "10.00")

	_, err := svc.Pix(context.Background(), models.PixTransferRequest{
		SourceAccountID:      source.ID,
		DestinationAccountID: source.ID + 100,
		Amount:               "5.00",
	})
	if !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
	if got := balanceOf(t, repo, source.ID); got != "10.00" {
		t.Fatalf("source balance must be unchanged, got %s", got)
	}
}

func TestTransferServicePixPartialTransfer(t *testing.T) {
	repo := memory.NewAccountRepository()
	svc := services.NewTransferService(repo)
	source := newAccount(t, repo, domain.AccountCategoryChecking, "10.00")
	destination := newAccount(t, repo, domain.AccountCategorySavings, "0.00")

	resp, err := svc.Pix(context.Background(), models.PixTransferRequest{
		SourceAccountID:      source.ID,
		DestinationAccountID: destination.ID,
		Amount:               "4.00",
	})
	if err != nil {
		t.Fatalf("pix transfer: %v", err)
	}
	if resp.Data == nil {
		t.Fatal("expected response data")
	}
	if resp.Data.SourceBalance != "6.00" {
		t.Fatalf("expected source balance 6.00 in response, got %s", resp.Data.SourceBalance)
	}
	if got := balanceOf(t, repo, source.ID); got != "6.00" {
		t.Fatalf("expected source balance 6.00, got %s", got)
	}
	if got := balanceOf(t, repo, destination.ID); got != "4.00" {
		t.Fatalf("expected destination balance 4.00, got %s", got)
	}
}

func TestTransferServicePixTotalDrain(t *testing.T) {
	repo := memory.NewAccountRepository()
	svc := services.NewTransferService(repo)
	source := newAccount(t, repo, domain.AccountCategoryChecking, "10.00")
	destination := newAccount(t, repo, domain.AccountCategorySavings, "1.00")

	resp, err := svc.Pix(context.Background(), models.PixTransferRequest{
		SourceAccountID:      source.ID,
		DestinationAccountID: destination.ID,
		Amount:               "10.00",
	})
	if err != nil {
		t.Fatalf("pix transfer: %v", err)
	}
	if resp.Data.SourceBalance != "0.00" {
		t.Fatalf("expected drained source balance 0.00, got %s", resp.Data.SourceBalance)
	}
	if got := balanceOf(t, repo, destination.ID); got != "11.00" {
		t.Fatalf("expected destination balance 11.00, got %s", got)
	}
}

func TestTransferServicePixRoundsBothLegs(t *testing.T) {
	cases := []struct {
		name            string
		amount          string
		wantSource      string
		wantDestination string
	}{
		{name: "midpoint residual rounds to even", amount: "4.375", wantSource: "5.62", wantDestination: "4.38"},
		{name: "midpoint credit rounds to even", amount: "4.365", wantSource: "5.64", wantDestination: "4.36"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := memory.NewAccountRepository()
			svc := services.NewTransferService(repo)
			source := newAccount(t, repo, domain.AccountCategoryChecking, "10.00")
			destination := newAccount(t, repo, domain.AccountCategorySavings, "0.00")

			resp, err := svc.Pix(context.Background(), models.PixTransferRequest{
				SourceAccountID:      source.ID,
				DestinationAccountID: destination.ID,
				Amount:               tc.amount,
			})
			if err != nil {
				t.Fatalf("pix transfer: %v", err)
			}
			if resp.Data.SourceBalance != tc.wantSource {
				t.Fatalf("expected source balance %s, got %s", tc.wantSource, resp.Data.SourceBalance)
			}
			if got := balanceOf(t, repo, destination.ID); got != tc.wantDestination {
				t.Fatalf("expected destination balance %s, got %s", tc.wantDestination, got)
			}
		})
	}
}

func TestTransferServicePixInsufficientFundsLeavesBothUnchanged(t *testing.T) {
	repo := memory.NewAccountRepository()
	svc := services.NewTransferService(repo)
	source := newAccount(t, repo, domain.AccountCategoryChecking, "10.00")
	destination := newAccount(t, repo, domain.AccountCategorySavings, "3.00")

	_, err := svc.Pix(context.Background(), models.PixTransferRequest{
		SourceAccountID:      source.ID,
		DestinationAccountID: destination.ID,
		Amount:               "10.01",
	})
	if !errors.Is(err, domain.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	if got := balanceOf(t, repo, source.ID); got != "10.00" {
		t.Fatalf("source balance must be unchanged, got %s", got)
	}
	if got := balanceOf(t, repo, destination.ID); got != "3.00" {
		t.Fatalf("destination balance must be unchanged, got %s", got)
	}
}

func TestTransferServicePixConcurrentOverlappingTransfers(t *testing.T) {
	repo := memory.NewAccountRepository()
	svc := services.NewTransferService(repo)
	source := newAccount(t, repo, domain.AccountCategoryChecking, "10.00")
	firstDest := newAccount(t, repo, domain.AccountCategorySavings, "0.00")
	secondDest := newAccount(t, repo, domain.AccountCategorySavings, "0.00")

	// Each 6.00 transfer fits on its own, but together they exceed the
	// source balance, so exactly one may go through.
	var succeeded int64
	var g errgroup.Group
	for _, destinationID := range []int64{firstDest.ID, secondDest.ID} {
		destinationID := destinationID
		g.Go(func() error {
			_, err := svc.Pix(context.Background(), models.PixTransferRequest{
				SourceAccountID:      source.ID,
				DestinationAccountID: destinationID,
				Amount:               "6.00",
			})
			if err == nil {
				atomic.AddInt64(&succeeded, 1)
				return nil
			}
			if errors.Is(err, domain.ErrInsufficientFunds) {
				return nil
			}
			return err
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("concurrent transfers: %v", err)
	}

	if succeeded != 1 {
		t.Fatalf("expected exactly one transfer to succeed, got %d", succeeded)
	}
	if got := balanceOf(t, repo, source.ID); got != "4.00" {
		t.Fatalf("expected source balance 4.00, got %s", got)
	}
}

func TestTransferServicePixRejectsNonPositiveAmount(t *testing.T) {
	repo := memory.NewAccountRepository()
	svc := services.NewTransferService(repo)
	source := newAccount(t, repo, domain.AccountCategoryChecking, "10.00")
	destination := newAccount(t, repo, domain.AccountCategorySavings, "0.00")

	for _, amount := range []string{"0", "-1.00"} {
		_, err := svc.Pix(context.Background(), models.PixTransferRequest{
			SourceAccountID:      source.ID,
			DestinationAccountID: destination.ID,
			Amount:               amount,
		})
		if !errors.Is(err, domain.ErrInvalidAmount) {
			t.Fatalf("amount %s: expected ErrInvalidAmount, got %v", amount, err)
		}
	}

	if got := balanceOf(t, repo, source.ID); got != "10.00" {
		t.Fatalf("source balance must be unchanged, got %s", got)
	}
	if got := balanceOf(t, repo, destination.ID); got != "0.00" {
		t.Fatalf("destination balance must be unchanged, got %s", got)
	}
}
