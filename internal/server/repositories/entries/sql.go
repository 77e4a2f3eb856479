// Package entries provides SQL-backed storage for vault entries. Every
// lookup is scoped to the owning user, so another user's row is reported as
// common.ErrorNotFound.
package entries

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/passvault/internal/common"
	"github.com/dmitrijs2005/passvault/internal/dbx"
	"github.com/dmitrijs2005/passvault/internal/server/models"
)

const entryColumns = `id, user_id, title, logo, email, username, encrypted_password, totp_seed, created_at`

// SQLRepository implements entry storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type SQLRepository struct {
	db      dbx.DBTX
	dialect dbx.Dialect
}

// NewSQLRepository constructs a repository bound to the given DBTX.
func NewSQLRepository(db dbx.DBTX, dialect dbx.Dialect) *SQLRepository {
	return &SQLRepository{db: db, dialect: dialect}
}

func (r *SQLRepository) Create(ctx context.Context, entry *models.Entry) error {
	query := r.dialect.Rebind(
		`INSERT INTO entries (` + entryColumns + `)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	_, err := r.db.ExecContext(ctx, query,
		entry.ID, entry.UserID, entry.Title, entry.Logo, entry.Email, entry.Username,
		entry.EncryptedPassword, entry.TotpSeed, entry.CreatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *SQLRepository) GetByID(ctx context.Context, userID, id string) (*models.Entry, error) {
	query := r.dialect.Rebind(
		`SELECT ` + entryColumns + ` FROM entries
		 WHERE id = ? AND user_id = ?`)

	var e models.Entry
	err := scanEntry(r.db.QueryRowContext(ctx, query, id, userID), &e)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &e, nil
}

// ListByUser returns userID's entries, oldest first.
func (r *SQLRepository) ListByUser(ctx context.Context, userID string) ([]*models.Entry, error) {
	query := r.dialect.Rebind(
		`SELECT ` + entryColumns + ` FROM entries
		 WHERE user_id = ?
		 ORDER BY created_at, id`)

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to select entries: %w", err)
	}
	defer rows.Close()

	var result []*models.Entry
	for rows.Next() {
		var item models.Entry
		if err := scanEntry(rows, &item); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Update writes every mutable column of entry. Ownership is re-checked in
// the WHERE clause.
func (r *SQLRepository) Update(ctx context.Context, entry *models.Entry) error {
	query := r.dialect.Rebind(
		`UPDATE entries
		 SET title = ?, logo = ?, email = ?, username = ?, encrypted_password = ?, totp_seed = ?
		 WHERE id = ? AND user_id = ?`)

	res, err := r.db.ExecContext(ctx, query,
		entry.Title, entry.Logo, entry.Email, entry.Username, entry.EncryptedPassword, entry.TotpSeed,
		entry.ID, entry.UserID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOneRow(res)
}

func (r *SQLRepository) Delete(ctx context.Context, userID, id string) error {
	query := r.dialect.Rebind(`DELETE FROM entries WHERE id = ? AND user_id = ?`)

	res, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOneRow(res)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner, e *models.Entry) error {
	return s.Scan(&e.ID, &e.UserID, &e.Title, &e.Logo, &e.Email, &e.Username,
		&e.EncryptedPassword, &e.TotpSeed, &e.CreatedAt)
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	switch n {
	case 1:
		return nil
	case 0:
		return common.ErrorNotFound
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}
