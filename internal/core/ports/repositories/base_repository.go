package repositories

import "context"

// TxFunc is the body of a unit of work. Returning an error rolls the whole
// unit back.
type TxFunc func(ctx context.Context, store CredentialStore) error

// TransactionManager defines the unit-of-work boundary of the store.
type TransactionManager interface {
	// WithinTx runs fn against a store bound to one transaction. The
	// transaction commits only if fn returns nil. Calling WithinTx on a store
	// that is already transactional runs fn in the same transaction.
	WithinTx(ctx context.Context, fn TxFunc) error
}
