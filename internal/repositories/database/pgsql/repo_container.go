package pgsql

import (
	"context"
	"database/sql"

	portsrepo "github.com/SscSPs/identity_service/internal/core/ports/repositories"
)

// CredentialStore is the Postgres implementation of portsrepo.CredentialStore.
type CredentialStore struct {
	*PgsqlUserRepository
	*PgsqlRefreshTokenRepository
	*PgsqlOAuthAccountRepository

	db *sql.DB
	tx *sql.Tx
}

var _ portsrepo.CredentialStore = (*CredentialStore)(nil)

// NewCredentialStore builds a store on db. Use stdlib.OpenDBFromPool to wrap
// a pgx pool.
func NewCredentialStore(db *sql.DB) *CredentialStore {
	return newCredentialStore(db, nil)
}

func newCredentialStore(db *sql.DB, tx *sql.Tx) *CredentialStore {
	var q DBTX = db
	if tx != nil {
		q = tx
	}
	return &CredentialStore{
		PgsqlUserRepository:         newPgsqlUserRepository(q),
		PgsqlRefreshTokenRepository: newPgsqlRefreshTokenRepository(q),
		PgsqlOAuthAccountRepository: newPgsqlOAuthAccountRepository(q),
		db:                          db,
		tx:                          tx,
	}
}

// WithinTx implements portsrepo.TransactionManager.
func (s *CredentialStore) WithinTx(ctx context.Context, fn portsrepo.TxFunc) (err error) {
	if s.tx != nil {
		return fn(ctx, s)
	}

	tx, err := Begin(ctx, s.db)
	if err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			_ = Rollback(tx)
			panic(p)
		}
		if err != nil {
			_ = Rollback(tx)
		}
	}()

	if err = fn(ctx, newCredentialStore(s.db, tx)); err != nil {
		return err
	}
	return Commit(tx)
}
