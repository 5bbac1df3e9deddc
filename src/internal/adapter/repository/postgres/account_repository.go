package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/api-sage/pix-ledger-service/src/internal/domain"
	"github.com/api-sage/pix-ledger-service/src/internal/logger"
)

type AccountRepository struct {
	db *sql.DB
}

func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) Create(ctx context.Context, account domain.Account) (domain.Account, error) {
	logger.Info("account repository create", logger.Fields{
		"category": account.Category,
		"balance":  account.Balance.StringFixed(2),
	})

	const query = `
INSERT INTO accounts (category, balance)
VALUES ($1, $2)
RETURNING id, created_at, updated_at`

	if err := r.db.QueryRowContext(
		ctx,
		query,
		account.Category,
		account.Balance.StringFixed(2),
	).Scan(&account.ID, &account.CreatedAt, &account.UpdatedAt); err != nil {
		logger.Error("account repository create failed", err, logger.Fields{
			"category": account.Category,
		})
		return domain.Account{}, fmt.Errorf("create account: %w", err)
	}

	logger.Info("account repository create success", logger.Fields{
		"accountId": account.ID,
	})

	return account, nil
}

func (r *AccountRepository) FindByID(ctx context.Context, id int64) (domain.Account, error) {
	const query = `
SELECT id, category, balance, created_at, updated_at
FROM accounts
WHERE id = $1`

	var account domain.Account
	if err := r.db.QueryRowContext(ctx, query, id).Scan(
		&account.ID,
		&account.Category,
		&account.Balance,
		&account.CreatedAt,
		&account.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			logger.Info("account repository record not found", logger.Fields{
				"accountId": id,
			})
			return domain.Account{}, domain.ErrAccountNotFound
		}
		logger.Error("account repository find failed", err, logger.Fields{
			"accountId": id,
		})
		return domain.Account{}, fmt.Errorf("find account by id: %w", err)
	}

	return account, nil
}

// WithAccount runs fn against the account row while it is locked FOR UPDATE,
// then writes the mutated balance back in the same transaction. Nothing is
// persisted when fn fails.
func (r *AccountRepository) WithAccount(ctx context.Context, id int64, fn func(account *domain.Account) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		logger.Error("account repository begin tx failed", err, nil)
		return fmt.Errorf("begin account transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var account domain.Account
	account, err = lockAccount(ctx, tx, id)
	if err != nil {
		return err
	}

	if err = fn(&account); err != nil {
		return err
	}

	if err = saveAccount(ctx, tx, account); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		logger.Error("account repository commit tx failed", err, logger.Fields{
			"accountId": id,
		})
		return fmt.Errorf("commit account transaction: %w", err)
	}

	return nil
}

// WithAccountPair locks both rows in ascending id order inside one
// transaction, so the debit and the credit of a transfer become durable
// together or not at all.
func (r *AccountRepository) WithAccountPair(ctx context.Context, sourceID int64, destinationID int64, fn func(source, destination *domain.Account) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		logger.Error("account repository begin pair tx failed", err, nil)
		return fmt.Errorf("begin account pair transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const query = `
SELECT id, category, balance, created_at, updated_at
FROM accounts
WHERE id = ANY($1)
ORDER BY id
FOR UPDATE`

	rows, qerr := tx.QueryContext(ctx, query, pq.Array([]int64{sourceID, destinationID}))
	if qerr != nil {
		err = fmt.Errorf("lock account pair: %w", qerr)
		logger.Error("account repository lock pair failed", qerr, logger.Fields{
			"sourceAccountId":      sourceID,
			"destinationAccountId": destinationID,
		})
		return err
	}

	found := make(map[int64]domain.Account, 2)
	for rows.Next() {
		var account domain.Account
		if scanErr := rows.Scan(
			&account.ID,
			&account.Category,
			&account.Balance,
			&account.CreatedAt,
			&account.UpdatedAt,
		); scanErr != nil {
			rows.Close()
			err = fmt.Errorf("scan locked account: %w", scanErr)
			return err
		}
		found[account.ID] = account
	}
	rows.Close()
	if rowsErr := rows.Err(); rowsErr != nil {
		err = fmt.Errorf("iterate locked accounts: %w", rowsErr)
		return err
	}

	// Source absence is reported first.
	source, ok := found[sourceID]
	if !ok {
		err = domain.ErrAccountNotFound
		return err
	}
	destination, ok := found[destinationID]
	if !ok {
		err = domain.ErrAccountNotFound
		return err
	}

	if err = fn(&source, &destination); err != nil {
		return err
	}

	if err = saveAccount(ctx, tx, source); err != nil {
		return err
	}
	if err = saveAccount(ctx, tx, destination); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		logger.Error("account repository commit pair tx failed", err, logger.Fields{
			"sourceAccountId":      sourceID,
			"destinationAccountId": destinationID,
		})
		return fmt.Errorf("commit account pair transaction: %w", err)
	}

	return nil
}

func lockAccount(ctx context.Context, tx *sql.Tx, id int64) (domain.Account, error) {
	const query = `
SELECT id, category, balance, created_at, updated_at
FROM accounts
WHERE id = $1
FOR UPDATE`

	var account domain.Account
	if err := tx.QueryRowContext(ctx, query, id).Scan(
		&account.ID,
		&account.Category,
		&account.Balance,
		&account.CreatedAt,
		&account.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Account{}, domain.ErrAccountNotFound
		}
		return domain.Account{}, fmt.Errorf("lock account %d: %w", id, err)
	}

	return account, nil
}

func saveAccount(ctx context.Context, tx *sql.Tx, account domain.Account) error {
	const query = `
UPDATE accounts
SET balance = $2,
    updated_at = NOW()
WHERE id = $1`

	result, err := tx.ExecContext(ctx, query, account.ID, account.Balance.StringFixed(2))
	if err != nil {
		return fmt.Errorf("save account %d: %w", account.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("save account %d rows affected: %w", account.ID, err)
	}
	if rowsAffected == 0 {
		return domain.ErrAccountNotFound
	}

	return nil
}

var _ domain.AccountRepository = (*AccountRepository)(nil)
