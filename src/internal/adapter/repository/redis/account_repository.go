package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"

	"github.com/api-sage/pix-ledger-service/src/internal/domain"
	"github.com/api-sage/pix-ledger-service/src/internal/logger"
)

const nextIDKey = "account:next_id"

// maxRetries bounds the optimistic retry loop when a watched key is modified
// by a concurrent operation.
const maxRetries = 16

// AccountRepository stores each account as JSON under account:{id} and relies
// on WATCH/MULTI for isolation: a conflicting concurrent write aborts the
// transaction and the operation retries against the fresh state.
type AccountRepository struct {
	client *redis.Client
}

func NewAccountRepository(client *redis.Client) *AccountRepository {
	return &AccountRepository{client: client}
}

type storedAccount struct {
	ID        int64     `json:"id"`
	Category  string    `json:"category"`
	Balance   string    `json:"balance"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func accountKey(id int64) string {
	return fmt.Sprintf("account:%d", id)
}

func (r *AccountRepository) Create(ctx context.Context, account domain.Account) (domain.Account, error) {
	id, err := r.client.Incr(ctx, nextIDKey).Result()
	if err != nil {
		return domain.Account{}, fmt.Errorf("allocate account id: %w", err)
	}

	now := time.Now()
	account.ID = id
	account.Balance = domain.Round2(account.Balance)
	account.CreatedAt = now
	account.UpdatedAt = now

	raw, err := json.Marshal(toStored(account))
	if err != nil {
		return domain.Account{}, fmt.Errorf("encode account: %w", err)
	}

	if err := r.client.Set(ctx, accountKey(id), raw, 0).Err(); err != nil {
		logger.Error("redis account repository create failed", err, logger.Fields{
			"accountId": id,
		})
		return domain.Account{}, fmt.Errorf("create account: %w", err)
	}

	return account, nil
}

func (r *AccountRepository) FindByID(ctx context.Context, id int64) (domain.Account, error) {
	raw, err := r.client.Get(ctx, accountKey(id)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Account{}, domain.ErrAccountNotFound
		}
		return domain.Account{}, fmt.Errorf("get account %d: %w", id, err)
	}

	return fromStoredRaw([]byte(raw))
}

func (r *AccountRepository) WithAccount(ctx context.Context, id int64, fn func(account *domain.Account) error) error {
	key := accountKey(id)

	for attempt := 0; attempt < maxRetries; attempt++ {
		err := r.client.Watch(ctx, func(tx *redis.Tx) error {
			account, err := getWatched(ctx, tx, key)
			if err != nil {
				return err
			}

			if err := fn(&account); err != nil {
				return err
			}
			account.UpdatedAt = time.Now()

			raw, err := json.Marshal(toStored(account))
			if err != nil {
				return fmt.Errorf("encode account: %w", err)
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, raw, 0)
				return nil
			})
			return err
		}, key)

		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}

	return fmt.Errorf("account %d: too many concurrent modifications", id)
}

func (r *AccountRepository) WithAccountPair(ctx context.Context, sourceID int64, destinationID int64, fn func(source, destination *domain.Account) error) error {
	sourceKey := accountKey(sourceID)
	destinationKey := accountKey(destinationID)

	// Watched keys in ascending id order for a deterministic footprint.
	watched := []string{sourceKey, destinationKey}
	if destinationID < sourceID {
		watched = []string{destinationKey, sourceKey}
	}

	for attempt := 0; attempt < maxRetries; attempt++ {
		err := r.client.Watch(ctx, func(tx *redis.Tx) error {
			source, err := getWatched(ctx, tx, sourceKey)
			if err != nil {
				return err
			}
			destination, err := getWatched(ctx, tx, destinationKey)
			if err != nil {
				return err
			}

			if err := fn(&source, &destination); err != nil {
				return err
			}
			now := time.Now()
			source.UpdatedAt = now
			destination.UpdatedAt = now

			sourceRaw, err := json.Marshal(toStored(source))
			if err != nil {
				return fmt.Errorf("encode source account: %w", err)
			}
			destinationRaw, err := json.Marshal(toStored(destination))
			if err != nil {
				return fmt.Errorf("encode destination account: %w", err)
			}

			// Both writes land in one MULTI/EXEC batch.
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, sourceKey, sourceRaw, 0)
				pipe.Set(ctx, destinationKey, destinationRaw, 0)
				return nil
			})
			return err
		}, watched...)

		if errors.Is(err, redis.TxFailedErr) {
			logger.Info("redis account repository pair write conflict, retrying", logger.Fields{
				"sourceAccountId":      sourceID,
				"destinationAccountId": destinationID,
				"attempt":              attempt + 1,
			})
			continue
		}
		return err
	}

	return fmt.Errorf("accounts %d/%d: too many concurrent modifications", sourceID, destinationID)
}

func getWatched(ctx context.Context, tx *redis.Tx, key string) (domain.Account, error) {
	raw, err := tx.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Account{}, domain.ErrAccountNotFound
		}
		return domain.Account{}, fmt.Errorf("get %s: %w", key, err)
	}

	return fromStoredRaw([]byte(raw))
}

func toStored(account domain.Account) storedAccount {
	return storedAccount{
		ID:        account.ID,
		Category:  string(account.Category),
		Balance:   account.Balance.StringFixed(2),
		CreatedAt: account.CreatedAt,
		UpdatedAt: account.UpdatedAt,
	}
}

func fromStoredRaw(raw []byte) (domain.Account, error) {
	var stored storedAccount
	if err := json.Unmarshal(raw, &stored); err != nil {
		return domain.Account{}, fmt.Errorf("decode account: %w", err)
	}

	balance, err := decimal.NewFromString(stored.Balance)
	if err != nil {
		return domain.Account{}, fmt.Errorf("decode account balance: %w", err)
	}

	return domain.Account{
		ID:        stored.ID,
		Category:  domain.AccountCategory(stored.Category),
		Balance:   balance,
		CreatedAt: stored.CreatedAt,
		UpdatedAt: stored.UpdatedAt,
	}, nil
}

var _ domain.AccountRepository = (*AccountRepository)(nil)
