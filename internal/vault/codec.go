// Package vault turns user input into storable entries and back. It sits
// between the HTTP layer and the repositories: every plaintext password is
// sealed here before it reaches storage, and every TOTP seed is validated
// here before it is accepted.
package vault

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/passvault/internal/common"
	"github.com/dmitrijs2005/passvault/internal/otpx"
	"github.com/dmitrijs2005/passvault/internal/server/models"
	"github.com/dmitrijs2005/passvault/internal/timex"
)

// Sealer is the part of cryptox.Cipher the codec needs.
type Sealer interface {
	Seal(plaintext []byte) (string, error)
	Open(token string) ([]byte, error)
}

// Draft is the plaintext input for a new entry. Empty optional fields mean
// absent.
type Draft struct {
	Title    string
	Logo     string
	Email    string
	Username string
	Password string
	TotpSeed string
}

// Patch carries the fields a caller wants to change. A nil pointer leaves the
// field as it is; a pointer to "" clears an optional field.
type Patch struct {
	Title    *string
	Logo     *string
	Email    *string
	Username *string
	Password *string
	TotpSeed *string
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Title == nil && p.Logo == nil && p.Email == nil &&
		p.Username == nil && p.Password == nil && p.TotpSeed == nil
}

// View is an entry with its password opened.
type View struct {
	ID        string
	UserID    string
	Title     string
	Logo      string
	Email     string
	Username  string
	Password  string
	TotpSeed  string
	CreatedAt time.Time
}

type Codec struct {
	sealer Sealer
	now    timex.Clock
}

type Option func(*Codec)

// WithClock pins the time used for created_at and code lookups.
func WithClock(now timex.Clock) Option {
	return func(c *Codec) { c.now = now }
}

func NewCodec(s Sealer, opts ...Option) *Codec {
	c := &Codec{sealer: s, now: timex.UTCNow}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Create validates the draft's seed, if any, then seals the password.
// An invalid seed fails the whole operation before anything is sealed.
func (c *Codec) Create(userID string, d Draft) (*models.Entry, error) {
	var seed string
	if d.TotpSeed != "" {
		clean, err := otpx.ValidateSecret(d.TotpSeed)
		if err != nil {
			return nil, err
		}
		seed = clean
	}

	token, err := c.sealer.Seal([]byte(d.Password))
	if err != nil {
		return nil, fmt.Errorf("seal password: %w", err)
	}

	return &models.Entry{
		UserID:            userID,
		Title:             d.Title,
		Logo:              d.Logo,
		Email:             d.Email,
		Username:          d.Username,
		EncryptedPassword: token,
		TotpSeed:          seed,
		CreatedAt:         c.now(),
	}, nil
}

// Reveal opens the stored password. Integrity and framing errors from the
// sealer are returned as they are.
func (c *Codec) Reveal(e *models.Entry) (View, error) {
	plain, err := c.sealer.Open(e.EncryptedPassword)
	if err != nil {
		return View{}, err
	}

	return View{
		ID:        e.ID,
		UserID:    e.UserID,
		Title:     e.Title,
		Logo:      e.Logo,
		Email:     e.Email,
		Username:  e.Username,
		Password:  string(plain),
		TotpSeed:  e.TotpSeed,
		CreatedAt: e.CreatedAt,
	}, nil
}

// Apply returns a copy of e with the patch applied. e itself is never
// modified, and on error nothing is applied. Fields the patch leaves nil,
// the stored token included, are carried over byte for byte.
func (c *Codec) Apply(e *models.Entry, p Patch) (*models.Entry, error) {
	next := *e

	if p.TotpSeed != nil {
		next.TotpSeed = ""
		if *p.TotpSeed != "" {
			clean, err := otpx.ValidateSecret(*p.TotpSeed)
			if err != nil {
				return nil, err
			}
			next.TotpSeed = clean
		}
	}

	if p.Password != nil {
		token, err := c.sealer.Seal([]byte(*p.Password))
		if err != nil {
			return nil, fmt.Errorf("seal password: %w", err)
		}
		next.EncryptedPassword = token
	}

	if p.Title != nil {
		next.Title = *p.Title
	}
	if p.Logo != nil {
		next.Logo = *p.Logo
	}
	if p.Email != nil {
		next.Email = *p.Email
	}
	if p.Username != nil {
		next.Username = *p.Username
	}

	return &next, nil
}

// Code returns the entry's current one-time code. ok is false, with a nil
// error, when the entry has no seed.
func (c *Codec) Code(e *models.Entry) (code otpx.Code, ok bool, err error) {
	if !e.HasTotp() {
		return otpx.Code{}, false, nil
	}
	code, err = otpx.CurrentCode(e.TotpSeed, c.now())
	if err != nil {
		return otpx.Code{}, false, fmt.Errorf("%w: entry %s: %v", common.ErrStoredSeed, e.ID, err)
	}
	return code, true, nil
}

// Now is the codec's clock.
func (c *Codec) Now() time.Time {
	return c.now()
}
