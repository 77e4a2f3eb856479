// Package services contains server-side business logic. This file implements
// UserService: registration, login by email and master password, and
// resolving the opaque per-user secret carried by every vault request.
package services

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/passvault/internal/common"
	"github.com/dmitrijs2005/passvault/internal/server/config"
	"github.com/dmitrijs2005/passvault/internal/server/models"
	"github.com/dmitrijs2005/passvault/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/passvault/internal/timex"
	"github.com/google/uuid"
	"github.com/nbutton23/zxcvbn-go"
)

// PasswordHasher is implemented by cryptox.PasswordHasher.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encoded string) bool
}

// RegisterInput is what a new user submits.
type RegisterInput struct {
	Email    string
	Username string
	FullName string
	Password string
}

// UserPatch changes profile fields; nil leaves a field alone.
type UserPatch struct {
	Username *string
	FullName *string
	Password *string
}

// UserService owns master credentials. Unknown emails and wrong passwords
// are indistinguishable to callers, in result and in cost.
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hasher      PasswordHasher
	minScore    int
	now         timex.Clock

	// verified against on misses
	dummyHash string
}

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, hasher PasswordHasher, cfg *config.Config) *UserService {
	s := &UserService{
		db:          db,
		repomanager: m,
		hasher:      hasher,
		minScore:    cfg.MinPasswordScore,
		now:         timex.UTCNow,
	}
	if throwaway, err := common.MakeRandHexString(16); err == nil {
		if h, err := hasher.Hash(throwaway); err == nil {
			s.dummyHash = h
		}
	}
	return s
}

// Register creates a user and hands back the record, including the newly
// minted secret. The secret is shown to the user once, here.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	email := normalizeEmail(in.Email)

	if err := s.checkStrength(in.Password, email, in.Username, in.FullName); err != nil {
		return nil, err
	}

	repo := s.repomanager.Users(s.db)

	_, err := repo.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, common.ErrAlreadyExists
	case !errors.Is(err, common.ErrorNotFound):
		return nil, fmt.Errorf("error looking up user: %w", err)
	}

	hashed, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user := &models.User{
		ID:             uuid.NewString(),
		Secret:         newSecret(),
		Username:       strings.TrimSpace(in.Username),
		Email:          email,
		FullName:       strings.TrimSpace(in.FullName),
		HashedPassword: hashed,
		CreatedAt:      s.now(),
	}

	if err := repo.Create(ctx, user); err != nil {
		if errors.Is(err, common.ErrAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}
	return user, nil
}

// Login checks email and master password. Any failure to match is
// common.ErrPasswordMismatch.
func (s *UserService) Login(ctx context.Context, email, password string) (*models.User, error) {
	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.burnVerify(password)
			return nil, common.ErrPasswordMismatch
		}
		return nil, common.ErrorInternal
	}
	if !s.hasher.Verify(password, user.HashedPassword) {
		return nil, common.ErrPasswordMismatch
	}
	return user, nil
}

// Authenticate resolves a user secret. Unknown or empty secrets are
// common.ErrorUnauthorized.
func (s *UserService) Authenticate(ctx context.Context, secret string) (*models.User, error) {
	if secret == "" {
		return nil, common.ErrorUnauthorized
	}

	repo := s.repomanager.Users(s.db)
	user, err := repo.GetBySecret(ctx, secret)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, common.ErrorInternal
	}
	if subtle.ConstantTimeCompare([]byte(user.Secret), []byte(secret)) != 1 {
		return nil, common.ErrorUnauthorized
	}
	return user, nil
}

// Unlock requires both the secret and the master password, as bulk reads do.
func (s *UserService) Unlock(ctx context.Context, secret, password string) (*models.User, error) {
	user, err := s.Authenticate(ctx, secret)
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			s.burnVerify(password)
		}
		return nil, err
	}
	if !s.hasher.Verify(password, user.HashedPassword) {
		return nil, common.ErrorUnauthorized
	}
	return user, nil
}

// Update applies a profile patch for the owner of secret.
func (s *UserService) Update(ctx context.Context, secret string, p UserPatch) (*models.User, error) {
	user, err := s.Authenticate(ctx, secret)
	if err != nil {
		return nil, err
	}

	if p.Username != nil {
		user.Username = strings.TrimSpace(*p.Username)
	}
	if p.FullName != nil {
		user.FullName = strings.TrimSpace(*p.FullName)
	}
	if p.Password != nil {
		if err := s.checkStrength(*p.Password, user.Email, user.Username, user.FullName); err != nil {
			return nil, err
		}
		hashed, err := s.hasher.Hash(*p.Password)
		if err != nil {
			return nil, fmt.Errorf("error hashing password: %w", err)
		}
		user.HashedPassword = hashed
	}

	if err := s.repomanager.Users(s.db).Update(ctx, user); err != nil {
		return nil, fmt.Errorf("error updating user: %w", err)
	}
	return user, nil
}

// --- helpers below ---

// checkStrength rejects master passwords zxcvbn scores below the configured
// minimum. The user's own details count as guessable words.
func (s *UserService) checkStrength(password string, hints ...string) error {
	if password == "" {
		return fmt.Errorf("%w: empty password", common.ErrWeakPassword)
	}
	result := zxcvbn.PasswordStrength(password, hints)
	if result.Score < s.minScore {
		return fmt.Errorf("%w: score %d, need at least %d", common.ErrWeakPassword, result.Score, s.minScore)
	}
	return nil
}

// burnVerify spends one verification on a throwaway hash so a miss costs
// the same as a wrong password. Without a dummy hash a Hash call, which
// costs the same, stands in.
func (s *UserService) burnVerify(password string) {
	if s.dummyHash == "" {
		_, _ = s.hasher.Hash(password)
		return
	}
	_ = s.hasher.Verify(password, s.dummyHash)
}

func newSecret() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
