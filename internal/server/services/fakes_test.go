package services

import (
	"context"
	"database/sql"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/passvault/internal/common"
	"github.com/dmitrijs2005/passvault/internal/cryptox"
	"github.com/dmitrijs2005/passvault/internal/dbx"
	"github.com/dmitrijs2005/passvault/internal/server/models"
	"github.com/dmitrijs2005/passvault/internal/server/repositories/entries"
	"github.com/dmitrijs2005/passvault/internal/server/repositories/users"
)

// --- helpers ---

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

var cheapArgon2 = cryptox.Argon2Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}

// countingHasher records how many hashes and verifications ran.
type countingHasher struct {
	inner    *cryptox.PasswordHasher
	hashes   atomic.Int32
	verifies atomic.Int32
	hashErr  error
}

func newCountingHasher() *countingHasher {
	return &countingHasher{inner: cryptox.NewPasswordHasher(cryptox.WithArgon2Params(cheapArgon2))}
}

func (h *countingHasher) Hash(p string) (string, error) {
	h.hashes.Add(1)
	if h.hashErr != nil {
		return "", h.hashErr
	}
	return h.inner.Hash(p)
}

func (h *countingHasher) Verify(p, encoded string) bool {
	h.verifies.Add(1)
	return h.inner.Verify(p, encoded)
}

type memUsers struct {
	mu     sync.Mutex
	byID   map[string]models.User
	getErr error
}

func newMemUsers() *memUsers { return &memUsers{byID: map[string]models.User{}} }

func (r *memUsers) Create(_ context.Context, u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.byID {
		if existing.Email == u.Email || existing.Secret == u.Secret {
			return common.ErrAlreadyExists
		}
	}
	r.byID[u.ID] = *u
	return nil
}

func (r *memUsers) find(match func(models.User) bool) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return nil, r.getErr
	}
	for _, u := range r.byID {
		if match(u) {
			cp := u
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *memUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	return r.find(func(u models.User) bool { return u.Email == email })
}

func (r *memUsers) GetBySecret(_ context.Context, secret string) (*models.User, error) {
	return r.find(func(u models.User) bool { return u.Secret == secret })
}

func (r *memUsers) Update(_ context.Context, u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[u.ID]; !ok {
		return common.ErrorNotFound
	}
	r.byID[u.ID] = *u
	return nil
}

type memEntries struct {
	mu        sync.Mutex
	byID      map[string]models.Entry
	updateErr error
	updates   int
}

func newMemEntries() *memEntries { return &memEntries{byID: map[string]models.Entry{}} }

func (r *memEntries) Create(_ context.Context, e *models.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[e.ID] = *e
	return nil
}

func (r *memEntries) GetByID(_ context.Context, userID, id string) (*models.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.byID[id]
	if !ok || e.UserID != userID {
		return nil, common.ErrorNotFound
	}
	return &e, nil
}

func (r *memEntries) ListByUser(_ context.Context, userID string) ([]*models.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Entry
	for _, e := range r.byID {
		if e.UserID == userID {
			cp := e
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memEntries) Update(_ context.Context, e *models.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return r.updateErr
	}
	cur, ok := r.byID[e.ID]
	if !ok || cur.UserID != e.UserID {
		return common.ErrorNotFound
	}
	r.updates++
	r.byID[e.ID] = *e
	return nil
}

func (r *memEntries) Delete(_ context.Context, userID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.byID[id]
	if !ok || e.UserID != userID {
		return common.ErrorNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *memEntries) stored(id string) models.Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byID[id]
}

type fakeRepoManager struct {
	u *memUsers
	e *memEntries
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) users.Repository         { return m.u }
func (m *fakeRepoManager) Entries(db dbx.DBTX) entries.Repository     { return m.e }
