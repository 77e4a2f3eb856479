// Package users stores vault owners in PostgreSQL or SQLite.
package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/passvault/internal/common"
	"github.com/dmitrijs2005/passvault/internal/dbx"
	"github.com/dmitrijs2005/passvault/internal/server/models"
)

const userColumns = `id, secret, username, email, full_name, hashed_password, created_at`

// SQLRepository implements Repository over a dbx.DBTX (*sql.DB or *sql.Tx).
type SQLRepository struct {
	db      dbx.DBTX
	dialect dbx.Dialect
}

func NewSQLRepository(db dbx.DBTX, dialect dbx.Dialect) *SQLRepository {
	return &SQLRepository{db: db, dialect: dialect}
}

// Create inserts user. A duplicate email or secret yields common.ErrAlreadyExists.
func (r *SQLRepository) Create(ctx context.Context, user *models.User) error {
	query := r.dialect.Rebind(
		`INSERT INTO users (` + userColumns + `)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)

	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.Secret, user.Username, user.Email, user.FullName, user.HashedPassword, user.CreatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *SQLRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
}

func (r *SQLRepository) GetBySecret(ctx context.Context, secret string) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE secret = ?`, secret)
}

// Update rewrites the mutable profile fields of user.
func (r *SQLRepository) Update(ctx context.Context, user *models.User) error {
	query := r.dialect.Rebind(
		`UPDATE users SET username = ?, full_name = ?, hashed_password = ?
		 WHERE id = ?`)

	res, err := r.db.ExecContext(ctx, query, user.Username, user.FullName, user.HashedPassword, user.ID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *SQLRepository) getOne(ctx context.Context, query string, arg any) (*models.User, error) {
	user := &models.User{}
	err := r.db.QueryRowContext(ctx, r.dialect.Rebind(query), arg).Scan(
		&user.ID, &user.Secret, &user.Username, &user.Email, &user.FullName, &user.HashedPassword, &user.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}
