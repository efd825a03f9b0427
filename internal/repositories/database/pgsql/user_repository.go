package pgsql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/SscSPs/identity_service/internal/apperrors"
	"github.com/SscSPs/identity_service/internal/core/domain"
	portsrepo "github.com/SscSPs/identity_service/internal/core/ports/repositories"
	"github.com/SscSPs/identity_service/internal/models"
	"github.com/SscSPs/identity_service/internal/utils/mapping"
)

const userColumns = `user_id, email, username, password_hash, role, mfa_enabled, mfa_secret, created_at, last_updated_at`

type PgsqlUserRepository struct {
	BaseRepository
}

func newPgsqlUserRepository(db DBTX) *PgsqlUserRepository {
	return &PgsqlUserRepository{BaseRepository{db: db}}
}

// Ensure PgsqlUserRepository implements portsrepo.UserRepositoryFacade
var _ portsrepo.UserRepositoryFacade = (*PgsqlUserRepository)(nil)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*domain.User, error) {
	var m models.User
	if err := row.Scan(
		&m.UserID,
		&m.Email,
		&m.Username,
		&m.PasswordHash,
		&m.Role,
		&m.MfaEnabled,
		&m.MfaSecret,
		&m.CreatedAt,
		&m.LastUpdatedAt,
	); err != nil {
		return nil, err
	}
	d := mapping.ToDomainUser(m)
	return &d, nil
}

func (r *PgsqlUserRepository) findOne(ctx context.Context, what string, query string, args ...any) (*domain.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find user by %s: %w", what, err)
	}
	return user, nil
}

func (r *PgsqlUserRepository) FindUserByID(ctx context.Context, userID string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE user_id = $1;`
	return r.findOne(ctx, "id", query, userID)
}

func (r *PgsqlUserRepository) FindUserByEmailOrUsername(ctx context.Context, identifier string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1) OR username = $1 LIMIT 1;`
	return r.findOne(ctx, "identifier", query, identifier)
}

func (r *PgsqlUserRepository) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1);`
	return r.findOne(ctx, "email", query, email)
}

func (r *PgsqlUserRepository) FindUsers(ctx context.Context, limit int, offset int) ([]domain.User, error) {
	// Default limit if not specified or invalid
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	query := `
        SELECT ` + userColumns + `
        FROM users
        ORDER BY created_at DESC, user_id
        LIMIT $1 OFFSET $2;
    `
	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	users := []domain.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user row: %w", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user rows: %w", err)
	}
	return users, nil
}

func (r *PgsqlUserRepository) CreateUser(ctx context.Context, user domain.User) error {
	m := mapping.ToModelUser(user)
	query := `
        INSERT INTO users (` + userColumns + `)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);
    `
	_, err := r.db.ExecContext(ctx, query,
		m.UserID,
		m.Email,
		m.Username,
		m.PasswordHash,
		m.Role,
		m.MfaEnabled,
		m.MfaSecret,
		m.CreatedAt,
		m.LastUpdatedAt,
	)
	if err != nil {
		return wrapWriteErr("failed to create user", err)
	}
	return nil
}

// Credential updates are single-row UPDATEs that name only their own columns.
// The guarded ones carry their precondition in the WHERE clause, so the row
// lock taken by the UPDATE makes the check and the write one step.

func (r *PgsqlUserRepository) SetPasswordHash(ctx context.Context, userID string, hash string, at time.Time) error {
	query := `UPDATE users SET password_hash = $2, last_updated_at = $3 WHERE user_id = $1;`
	n, err := r.update(ctx, "set password hash", query, userID, hash, at.UTC())
	if err != nil {
		return err
	}
	if n == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *PgsqlUserRepository) ReplacePasswordHash(ctx context.Context, userID string, oldHash string, newHash string, at time.Time) (bool, error) {
	query := `UPDATE users SET password_hash = $3, last_updated_at = $4 WHERE user_id = $1 AND password_hash = $2;`
	n, err := r.update(ctx, "replace password hash", query, userID, oldHash, newHash, at.UTC())
	return n == 1, err
}

func (r *PgsqlUserRepository) EnableMfa(ctx context.Context, userID string, secret string, at time.Time) (bool, error) {
	query := `UPDATE users SET mfa_enabled = TRUE, mfa_secret = $2, last_updated_at = $3 WHERE user_id = $1 AND mfa_enabled = FALSE;`
	n, err := r.update(ctx, "enable mfa", query, userID, secret, at.UTC())
	return n == 1, err
}

func (r *PgsqlUserRepository) DisableMfa(ctx context.Context, userID string, secret string, at time.Time) (bool, error) {
	query := `UPDATE users SET mfa_enabled = FALSE, mfa_secret = NULL, last_updated_at = $3 WHERE user_id = $1 AND mfa_enabled = TRUE AND mfa_secret = $2;`
	n, err := r.update(ctx, "disable mfa", query, userID, secret, at.UTC())
	return n == 1, err
}

func (r *PgsqlUserRepository) UpdateRole(ctx context.Context, userID string, role domain.Role, at time.Time) error {
	query := `UPDATE users SET role = $2, last_updated_at = $3 WHERE user_id = $1;`
	n, err := r.update(ctx, "update role", query, userID, string(role), at.UTC())
	if err != nil {
		return err
	}
	if n == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *PgsqlUserRepository) update(ctx context.Context, op string, query string, args ...any) (int64, error) {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to %s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return n, nil
}
