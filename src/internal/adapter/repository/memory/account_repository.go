package memory

import (
	"context"
	"sync"
	"time"

	"github.com/api-sage/pix-ledger-service/src/internal/domain"
)

// AccountRepository keeps accounts in a map guarded by one mutex per account
// id. An operation holds the account's mutex across its whole
// read-modify-write span, so at most one mutation per account is in flight;
// pair mutations take both mutexes in ascending id order.
type AccountRepository struct {
	mu       sync.Mutex // guards accounts map and nextID
	nextID   int64
	accounts map[int64]*accountEntry
}

type accountEntry struct {
	mu      sync.Mutex
	account domain.Account
}

func NewAccountRepository() *AccountRepository {
	return &AccountRepository{
		accounts: make(map[int64]*accountEntry),
	}
}

func (r *AccountRepository) Create(_ context.Context, account domain.Account) (domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	now := time.Now()
	account.ID = r.nextID
	account.Balance = domain.Round2(account.Balance)
	account.CreatedAt = now
	account.UpdatedAt = now

	r.accounts[account.ID] = &accountEntry{account: account}
	return account, nil
}

func (r *AccountRepository) FindByID(_ context.Context, id int64) (domain.Account, error) {
	entry, err := r.lookup(id)
	if err != nil {
		return domain.Account{}, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.account, nil
}

func (r *AccountRepository) WithAccount(_ context.Context, id int64, fn func(account *domain.Account) error) error {
	entry, err := r.lookup(id)
	if err != nil {
		return err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	// fn mutates a copy; the stored account only changes on success.
	account := entry.account
	if err := fn(&account); err != nil {
		return err
	}

	account.UpdatedAt = time.Now()
	entry.account = account
	return nil
}

func (r *AccountRepository) WithAccountPair(_ context.Context, sourceID int64, destinationID int64, fn func(source, destination *domain.Account) error) error {
	sourceEntry, err := r.lookup(sourceID)
	if err != nil {
		return err
	}
	destinationEntry, err := r.lookup(destinationID)
	if err != nil {
		return err
	}

	first, second := sourceEntry, destinationEntry
	if destinationID < sourceID {
		first, second = destinationEntry, sourceEntry
	}

	first.mu.Lock()
	defer first.mu.Unlock()
	second.mu.Lock()
	defer second.mu.Unlock()

	source := sourceEntry.account
	destination := destinationEntry.account
	if err := fn(&source, &destination); err != nil {
		return err
	}

	now := time.Now()
	source.UpdatedAt = now
	destination.UpdatedAt = now
	sourceEntry.account = source
	destinationEntry.account = destination
	return nil
}

func (r *AccountRepository) lookup(id int64) (*accountEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.accounts[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return entry, nil
}

var _ domain.AccountRepository = (*AccountRepository)(nil)
