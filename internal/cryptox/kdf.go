// Package cryptox holds the vault's cryptographic core: deriving the
// process-wide symmetric key, sealing and opening stored secrets, and
// hashing master passwords.
package cryptox

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/dmitrijs2005/passvault/internal/common"
	"golang.org/x/crypto/pbkdf2"
)

const (
	// KeySize is the derived key length in bytes. The first half signs
	// tokens, the second half encrypts them.
	KeySize = 32

	// KDFIterations is the PBKDF2-HMAC-SHA256 iteration count.
	KDFIterations = 100_000
)

// LegacyKDFSalt is the build-wide salt used when a deployment does not
// configure its own. Two deployments sharing a master secret and this salt
// share a key, so production setups should override it. Changing it makes
// every previously sealed token unreadable.
var LegacyKDFSalt = []byte("static_salt_change_in_production")

// DerivedKey is the symmetric key every Cipher seals with. It never leaves
// this package; callers hold it only to hand it to NewCipher.
type DerivedKey struct {
	raw [KeySize]byte
}

// DeriveKey stretches masterSecret with PBKDF2-HMAC-SHA256. The result is
// fully determined by (masterSecret, salt), which is what lets a restarted
// process open tokens sealed before the restart.
func DeriveKey(masterSecret, salt []byte) *DerivedKey {
	out := pbkdf2.Key(masterSecret, salt, KDFIterations, KeySize, sha256.New)
	defer common.WipeByteArray(out)

	k := &DerivedKey{}
	copy(k.raw[:], out)
	return k
}

func (k *DerivedKey) signingKey() []byte {
	return k.raw[:KeySize/2]
}

func (k *DerivedKey) encryptionKey() []byte {
	return k.raw[KeySize/2:]
}

// Fingerprint identifies the key in logs without revealing it.
func (k *DerivedKey) Fingerprint() string {
	sum := sha256.Sum256(k.raw[:])
	return hex.EncodeToString(sum[:8])
}

// Wipe zeroes the key. Ciphers built on it must not be used afterwards.
func (k *DerivedKey) Wipe() {
	common.WipeByteArray(k.raw[:])
}
