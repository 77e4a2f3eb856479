package vault

import (
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/passvault/internal/common"
	"github.com/dmitrijs2005/passvault/internal/cryptox"
	"github.com/dmitrijs2005/passvault/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testKey = cryptox.DeriveKey([]byte("codec-test-secret"), cryptox.LegacyKDFSalt)

func ptr(s string) *string { return &s }

func clockAt(unix int64) func() time.Time {
	return func() time.Time { return time.Unix(unix, 0).UTC() }
}

// countingSealer wraps a real cipher and counts Seal calls.
type countingSealer struct {
	inner *cryptox.Cipher
	seals atomic.Int32
}

func (s *countingSealer) Seal(p []byte) (string, error) {
	s.seals.Add(1)
	return s.inner.Seal(p)
}

func (s *countingSealer) Open(token string) ([]byte, error) { return s.inner.Open(token) }

type failingSealer struct{}

func (failingSealer) Seal([]byte) (string, error)   { return "", errors.New("no entropy") }
func (failingSealer) Open(string) ([]byte, error) { return nil, errors.New("unused") }

func newCodec(t *testing.T) (*Codec, *countingSealer) {
	t.Helper()
	s := &countingSealer{inner: cryptox.NewCipher(testKey)}
	return NewCodec(s, WithClock(clockAt(1_700_000_000))), s
}

func TestCodec_CreateAndReveal(t *testing.T) {
	c, _ := newCodec(t)

	e, err := c.Create("u-1", Draft{Title: "mail", Email: "a@b.c", Password: "hunter2"})
	require.NoError(t, err)

	assert.NotEmpty(t, e.EncryptedPassword)
	assert.NotEqual(t, "hunter2", e.EncryptedPassword)
	assert.NotContains(t, e.EncryptedPassword, "hunter2")
	assert.Empty(t, e.TotpSeed)
	assert.Equal(t, "u-1", e.UserID)
	assert.Equal(t, time.Unix(1_700_000_000, 0).UTC(), e.CreatedAt)

	v, err := c.Reveal(e)
	require.NoError(t, err)
	assert.Equal(t, "hunter2", v.Password)
	assert.Equal(t, "mail", v.Title)
	assert.Equal(t, "a@b.c", v.Email)
}

func TestCodec_CreateSameSecretTwice(t *testing.T) {
	c, _ := newCodec(t)

	e1, err := c.Create("u", Draft{Title: "a", Password: "shared"})
	require.NoError(t, err)
	e2, err := c.Create("u", Draft{Title: "b", Password: "shared"})
	require.NoError(t, err)

	assert.NotEqual(t, e1.EncryptedPassword, e2.EncryptedPassword)
}

func TestCodec_CreateCleansSeed(t *testing.T) {
	c, _ := newCodec(t)

	e, err := c.Create("u", Draft{Title: "t", Password: "p",
		TotpSeed: "otpauth://totp/Foo:bar?secret=jbswy3dpehpk3pxp&issuer=Foo"})
	require.NoError(t, err)
	assert.Equal(t, "JBSWY3DPEHPK3PXP", e.TotpSeed)
	assert.True(t, e.HasTotp())
}

func TestCodec_CreateInvalidSeedSealsNothing(t *testing.T) {
	c, s := newCodec(t)

	e, err := c.Create("u", Draft{Title: "t", Password: "p", TotpSeed: "TOOSHORT"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrInvalidSecretFormat))
	assert.Nil(t, e)
	assert.Equal(t, int32(0), s.seals.Load())
}

func TestCodec_CreateSealFailure(t *testing.T) {
	c := NewCodec(failingSealer{})
	_, err := c.Create("u", Draft{Password: "p"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no entropy")
}

func TestCodec_ApplyTitleOnlyKeepsToken(t *testing.T) {
	c, s := newCodec(t)

	e, err := c.Create("u", Draft{Title: "old", Password: "hunter2", TotpSeed: "JBSWY3DPEHPK3PXP"})
	require.NoError(t, err)
	before := s.seals.Load()

	next, err := c.Apply(e, Patch{Title: ptr("new")})
	require.NoError(t, err)

	assert.Equal(t, "new", next.Title)
	assert.Equal(t, e.EncryptedPassword, next.EncryptedPassword)
	assert.Equal(t, e.TotpSeed, next.TotpSeed)
	assert.Equal(t, before, s.seals.Load())
	assert.Equal(t, "old", e.Title, "input entry must not be modified")
}

func TestCodec_ApplyPassword(t *testing.T) {
	c, _ := newCodec(t)

	e, err := c.Create("u", Draft{Title: "t", Password: "old"})
	require.NoError(t, err)

	next, err := c.Apply(e, Patch{Password: ptr("new")})
	require.NoError(t, err)
	assert.NotEqual(t, e.EncryptedPassword, next.EncryptedPassword)

	v, err := c.Reveal(next)
	require.NoError(t, err)
	assert.Equal(t, "new", v.Password)
	assert.Equal(t, "t", v.Title)
}

func TestCodec_ApplySeed(t *testing.T) {
	c, _ := newCodec(t)

	e, err := c.Create("u", Draft{Title: "t", Password: "p", TotpSeed: "JBSWY3DPEHPK3PXP"})
	require.NoError(t, err)

	tests := []struct {
		name     string
		patch    Patch
		wantSeed string
		wantErr  bool
	}{
		{name: "replace", patch: Patch{TotpSeed: ptr("gezd gnbv gy3t qojq")}, wantSeed: "GEZDGNBVGY3TQOJQ"},
		{name: "clear", patch: Patch{TotpSeed: ptr("")}, wantSeed: ""},
		{name: "untouched", patch: Patch{Email: ptr("x@y.z")}, wantSeed: "JBSWY3DPEHPK3PXP"},
		{name: "invalid", patch: Patch{TotpSeed: ptr("JBSWY3DPEHPK3PX")}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, err := c.Apply(e, tt.patch)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, common.ErrInvalidSecretFormat))
				assert.Nil(t, next)
				assert.Equal(t, "JBSWY3DPEHPK3PXP", e.TotpSeed)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantSeed, next.TotpSeed)
		})
	}
}

func TestCodec_ApplyInvalidSeedIsAtomic(t *testing.T) {
	c, s := newCodec(t)

	e, err := c.Create("u", Draft{Title: "t", Password: "p"})
	require.NoError(t, err)
	before := s.seals.Load()

	_, err = c.Apply(e, Patch{Title: ptr("x"), Password: ptr("q"), TotpSeed: ptr("bad")})
	require.Error(t, err)
	assert.Equal(t, before, s.seals.Load())
	assert.Equal(t, "t", e.Title)
}

func TestCodec_ApplyClearsOptionalFields(t *testing.T) {
	c, _ := newCodec(t)

	e, err := c.Create("u", Draft{Title: "t", Logo: "https://x/logo.png", Username: "bob", Password: "p"})
	require.NoError(t, err)

	next, err := c.Apply(e, Patch{Logo: ptr(""), Username: ptr("")})
	require.NoError(t, err)
	assert.Empty(t, next.Logo)
	assert.Empty(t, next.Username)
	assert.Equal(t, "t", next.Title)
}

func TestPatch_IsEmpty(t *testing.T) {
	assert.True(t, Patch{}.IsEmpty())
	assert.False(t, Patch{Username: ptr("")}.IsEmpty())
}

func TestCodec_RevealTampered(t *testing.T) {
	c, _ := newCodec(t)

	e, err := c.Create("u", Draft{Title: "t", Password: "hunter2"})
	require.NoError(t, err)

	raw := []byte(e.EncryptedPassword)
	i := len(raw) / 2
	if raw[i] == 'A' {
		raw[i] = 'B'
	} else {
		raw[i] = 'A'
	}
	e.EncryptedPassword = string(raw)

	_, err = c.Reveal(e)
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrIntegrity) || errors.Is(err, common.ErrMalformedToken))
}

func TestCodec_RevealWrongKey(t *testing.T) {
	c, _ := newCodec(t)
	e, err := c.Create("u", Draft{Title: "t", Password: "hunter2"})
	require.NoError(t, err)

	other := NewCodec(cryptox.NewCipher(cryptox.DeriveKey([]byte("other"), cryptox.LegacyKDFSalt)))
	_, err = other.Reveal(e)
	assert.True(t, errors.Is(err, common.ErrIntegrity))
}

func TestCodec_RevealGarbage(t *testing.T) {
	c, _ := newCodec(t)
	_, err := c.Reveal(&models.Entry{EncryptedPassword: strings.Repeat("!", 10)})
	assert.True(t, errors.Is(err, common.ErrMalformedToken))
}

func TestCodec_Code(t *testing.T) {
	s := cryptox.NewCipher(testKey)
	c := NewCodec(s, WithClock(clockAt(59)))

	withSeed, err := c.Create("u", Draft{Title: "t", Password: "p", TotpSeed: "GEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQ"})
	require.NoError(t, err)

	code, ok, err := c.Code(withSeed)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "287082", code.Value)
	assert.Equal(t, 1, code.SecondsRemaining)
	assert.Equal(t, time.Unix(59, 0).UTC(), code.At.UTC())

	without, err := c.Create("u", Draft{Title: "t", Password: "p"})
	require.NoError(t, err)

	code, ok, err = c.Code(without)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, code.Value)
}

func TestCodec_CodeCorruptStoredSeed(t *testing.T) {
	c := NewCodec(cryptox.NewCipher(testKey), WithClock(clockAt(59)))

	_, ok, err := c.Code(&models.Entry{ID: "e1", TotpSeed: "not base32 at all!"})
	require.Error(t, err)
	assert.False(t, ok)
	assert.True(t, errors.Is(err, common.ErrStoredSeed))
	assert.False(t, errors.Is(err, common.ErrInvalidSecretFormat))
}
