package cryptox

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Argon2Params are the Argon2id cost parameters written into every hash.
type Argon2Params struct {
	// Memory in KiB.
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultArgon2Params: 64 MiB, 4 passes, 4 lanes, 16-byte salt, 32-byte digest.
func DefaultArgon2Params() Argon2Params {
	return Argon2Params{
		Memory:      64 * 1024,
		Iterations:  4,
		Parallelism: 4,
		SaltLength:  16,
		KeyLength:   32,
	}
}

// Upper bounds accepted when verifying, so a planted hash cannot make
// Verify allocate or spin without limit.
const (
	maxVerifyMemory     = 1 << 20
	maxVerifyIterations = 64
	maxVerifyKeyLength  = 1024
)

var hashEncoding = base64.RawStdEncoding

// PasswordHasher hashes master passwords with Argon2id into the PHC string
// format:
//
//	$argon2id$v=19$m=65536,t=4,p=4$<salt>$<digest>
//
// Verification reads the parameters back from the string, so hashes made
// with older parameters keep verifying. They are not upgraded.
type PasswordHasher struct {
	params Argon2Params
	rand   io.Reader
}

type HasherOption func(*PasswordHasher)

func WithArgon2Params(p Argon2Params) HasherOption {
	return func(h *PasswordHasher) { h.params = p }
}

// WithSaltSource sets the salt source. Defaults to crypto/rand.
func WithSaltSource(r io.Reader) HasherOption {
	return func(h *PasswordHasher) { h.rand = r }
}

func NewPasswordHasher(opts ...HasherOption) *PasswordHasher {
	h := &PasswordHasher{params: DefaultArgon2Params(), rand: rand.Reader}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Hash returns the encoded Argon2id hash of password under a fresh salt.
func (h *PasswordHasher) Hash(password string) (string, error) {
	p := h.params

	salt := make([]byte, p.SaltLength)
	if _, err := io.ReadFull(h.rand, salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	digest := argon2.IDKey([]byte(password), salt, p.Iterations, p.Memory, p.Parallelism, p.KeyLength)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, p.Memory, p.Iterations, p.Parallelism,
		hashEncoding.EncodeToString(salt), hashEncoding.EncodeToString(digest)), nil
}

// Verify reports whether password matches encoded. A malformed hash is
// simply a mismatch; the caller cannot tell the two apart.
func (h *PasswordHasher) Verify(password, encoded string) bool {
	p, salt, digest, err := decodeHash(encoded)
	if err != nil {
		return false
	}

	candidate := argon2.IDKey([]byte(password), salt, p.Iterations, p.Memory, p.Parallelism, uint32(len(digest)))

	return subtle.ConstantTimeCompare(candidate, digest) == 1
}

func decodeHash(encoded string) (Argon2Params, []byte, []byte, error) {
	var p Argon2Params

	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return p, nil, nil, fmt.Errorf("not an argon2id hash")
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return p, nil, nil, fmt.Errorf("parse version: %w", err)
	}
	if version != argon2.Version {
		return p, nil, nil, fmt.Errorf("unsupported argon2 version %d", version)
	}

	var parallelism uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.Memory, &p.Iterations, &parallelism); err != nil {
		return p, nil, nil, fmt.Errorf("parse params: %w", err)
	}
	if p.Memory == 0 || p.Memory > maxVerifyMemory ||
		p.Iterations == 0 || p.Iterations > maxVerifyIterations ||
		parallelism == 0 || parallelism > 255 {
		return p, nil, nil, fmt.Errorf("argon2 params out of range")
	}
	p.Parallelism = uint8(parallelism)

	salt, err := hashEncoding.DecodeString(parts[4])
	if err != nil {
		return p, nil, nil, fmt.Errorf("decode salt: %w", err)
	}
	digest, err := hashEncoding.DecodeString(parts[5])
	if err != nil {
		return p, nil, nil, fmt.Errorf("decode digest: %w", err)
	}
	if len(digest) == 0 || len(digest) > maxVerifyKeyLength {
		return p, nil, nil, fmt.Errorf("digest length out of range")
	}

	p.SaltLength = uint32(len(salt))
	p.KeyLength = uint32(len(digest))

	return p, salt, digest, nil
}
