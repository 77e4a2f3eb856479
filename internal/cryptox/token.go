package cryptox

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"io"
	"time"

	"github.com/dmitrijs2005/passvault/internal/common"
)

// Token layout (then URL-safe base64):
//
//	version(1) | timestamp(8, big-endian unix seconds) | iv(16) | ciphertext(n*16) | hmac-sha256(32)
//
// AES-128-CBC with PKCS#7 padding, HMAC over everything before it. This is
// the Fernet format, so tokens written by other Fernet implementations with
// the same key open here and vice versa.
const (
	tokenVersion byte = 0x80

	timestampSize = 8
	ivSize        = aes.BlockSize
	macSize       = sha256.Size
	headerSize    = 1 + timestampSize + ivSize
	minTokenSize  = headerSize + aes.BlockSize + macSize
)

var tokenEncoding = base64.URLEncoding.Strict()

// Cipher seals and opens stored secrets with a DerivedKey. It holds no
// mutable state and is safe for concurrent use.
type Cipher struct {
	key  *DerivedKey
	rand io.Reader
	now  func() time.Time
}

// CipherOption customises a Cipher.
type CipherOption func(*Cipher)

// WithRandom sets the IV source. Defaults to crypto/rand.
func WithRandom(r io.Reader) CipherOption {
	return func(c *Cipher) { c.rand = r }
}

// WithClock sets the clock stamped into new tokens.
func WithClock(now func() time.Time) CipherOption {
	return func(c *Cipher) { c.now = now }
}

func NewCipher(key *DerivedKey, opts ...CipherOption) *Cipher {
	c := &Cipher{key: key, rand: rand.Reader, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Seal encrypts plaintext under a fresh random IV, so sealing the same
// plaintext twice yields different tokens.
func (c *Cipher) Seal(plaintext []byte) (string, error) {
	iv := make([]byte, ivSize)
	if _, err := io.ReadFull(c.rand, iv); err != nil {
		return "", fmt.Errorf("generate iv: %w", err)
	}

	block, err := aes.NewCipher(c.key.encryptionKey())
	if err != nil {
		return "", fmt.Errorf("create cipher: %w", err)
	}

	padded := pkcs7Pad(plaintext, aes.BlockSize)

	out := make([]byte, headerSize+len(padded), headerSize+len(padded)+macSize)
	out[0] = tokenVersion
	binary.BigEndian.PutUint64(out[1:1+timestampSize], uint64(c.now().Unix()))
	copy(out[1+timestampSize:headerSize], iv)
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out[headerSize:], padded)

	out = append(out, c.mac(out)...)

	return tokenEncoding.EncodeToString(out), nil
}

// Open returns the plaintext sealed in token. Tokens never expire.
//
// It fails with common.ErrMalformedToken when the token does not decode
// into the expected framing and with common.ErrIntegrity when the MAC does
// not verify (tampering, corruption or a different key).
func (c *Cipher) Open(token string) ([]byte, error) {
	plaintext, _, err := c.Inspect(token)
	return plaintext, err
}

// Inspect is Open that also reports when the token was sealed.
func (c *Cipher) Inspect(token string) ([]byte, time.Time, error) {
	data, err := tokenEncoding.DecodeString(token)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("%w: %v", common.ErrMalformedToken, err)
	}

	if len(data) < minTokenSize {
		return nil, time.Time{}, fmt.Errorf("%w: token too short (%d bytes)", common.ErrMalformedToken, len(data))
	}
	if data[0] != tokenVersion {
		return nil, time.Time{}, fmt.Errorf("%w: unknown version 0x%02x", common.ErrMalformedToken, data[0])
	}

	body, tag := data[:len(data)-macSize], data[len(data)-macSize:]
	if (len(body)-headerSize)%aes.BlockSize != 0 {
		return nil, time.Time{}, fmt.Errorf("%w: ciphertext is not block aligned", common.ErrMalformedToken)
	}

	if !hmac.Equal(c.mac(body), tag) {
		return nil, time.Time{}, common.ErrIntegrity
	}

	block, err := aes.NewCipher(c.key.encryptionKey())
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("create cipher: %w", err)
	}

	iv := body[1+timestampSize : headerSize]
	ciphertext := body[headerSize:]

	padded := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(padded, ciphertext)

	plaintext, ok := pkcs7Unpad(padded, aes.BlockSize)
	if !ok {
		return nil, time.Time{}, fmt.Errorf("%w: bad padding", common.ErrIntegrity)
	}

	sealedAt := time.Unix(int64(binary.BigEndian.Uint64(body[1:1+timestampSize])), 0).UTC()

	return plaintext, sealedAt, nil
}

func (c *Cipher) mac(b []byte) []byte {
	h := hmac.New(sha256.New, c.key.signingKey())
	h.Write(b)
	return h.Sum(nil)
}

func pkcs7Pad(b []byte, blockSize int) []byte {
	n := blockSize - len(b)%blockSize
	return append(bytes.Clone(b), bytes.Repeat([]byte{byte(n)}, n)...)
}

func pkcs7Unpad(b []byte, blockSize int) ([]byte, bool) {
	if len(b) == 0 || len(b)%blockSize != 0 {
		return nil, false
	}
	n := int(b[len(b)-1])
	if n == 0 || n > blockSize {
		return nil, false
	}
	for _, v := range b[len(b)-n:] {
		if int(v) != n {
			return nil, false
		}
	}
	return b[:len(b)-n], true
}
