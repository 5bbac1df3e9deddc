package domain

import "context"

// AccountRepository is the persistence contract for accounts.
//
// Implementations must guarantee at most one in-flight mutation per account
// id. The scoped accessors load the account(s), hand them to fn under that
// guarantee, and persist the mutated state only when fn returns nil; a pair
// mutation is made durable as a single unit, never one half at a time.
// Implementations acquire locks (or rows) in ascending id order so that two
// transfers moving money in opposite directions between the same pair of
// accounts cannot deadlock. WithAccountPair resolves the source id first, so
// when both accounts are missing the source's ErrAccountNotFound surfaces.
type AccountRepository interface {
	Create(ctx context.Context, account Account) (Account, error)
	FindByID(ctx context.Context, id int64) (Account, error)
	WithAccount(ctx context.Context, id int64, fn func(account *Account) error) error
	WithAccountPair(ctx context.Context, sourceID int64, destinationID int64, fn func(source, destination *Account) error) error
}
