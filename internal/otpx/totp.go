// Package otpx validates TOTP seeds and computes the current one-time code
// for a seed. Everything here is a pure function of its arguments.
package otpx

import (
	"encoding/base32"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/passvault/internal/common"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const (
	// Period is the TOTP time step in seconds.
	Period = 30

	// MinSecretLength is the shortest cleaned seed accepted (80 bits).
	MinSecretLength = 16

	uriPrefix = "otpauth://totp/"
)

// Code is a one-time code together with how long it stays valid. At is
// the instant the code was computed for.
type Code struct {
	Value            string
	SecondsRemaining int
	At               time.Time
}

// ValidateSecret cleans a user-supplied seed and checks it is usable.
//
// The input may be a bare Base32 seed or an otpauth://totp/ URI carrying
// one in its "secret" query parameter. The seed is uppercased and every
// character outside A–Z and 2–7 is dropped (spaces, dashes, padding).
// What remains must be at least MinSecretLength characters, a multiple of
// eight, and decode as Base32. The cleaned seed is returned.
func ValidateSecret(input string) (string, error) {
	candidate := strings.TrimSpace(input)

	if strings.HasPrefix(candidate, uriPrefix) {
		u, err := url.Parse(candidate)
		if err != nil {
			return "", fmt.Errorf("%w: unparsable otpauth uri", common.ErrInvalidSecretFormat)
		}
		candidate = u.Query().Get("secret")
	}

	clean := strings.Map(func(r rune) rune {
		switch {
		case r >= 'A' && r <= 'Z', r >= '2' && r <= '7':
			return r
		default:
			return -1
		}
	}, strings.ToUpper(candidate))

	if len(clean) < MinSecretLength {
		return "", fmt.Errorf("%w: seed has %d base32 characters, need at least %d",
			common.ErrInvalidSecretFormat, len(clean), MinSecretLength)
	}
	if len(clean)%8 != 0 {
		return "", fmt.Errorf("%w: seed length %d is not a multiple of 8",
			common.ErrInvalidSecretFormat, len(clean))
	}
	if _, err := base32.StdEncoding.DecodeString(clean); err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrInvalidSecretFormat, err)
	}

	return clean, nil
}

// CurrentCode returns the six-digit code for seed at now (RFC 6238:
// HMAC-SHA1, 30-second steps) and the seconds left in the current step,
// from 30 at the start of a step down to 1 at its last second.
func CurrentCode(seed string, now time.Time) (Code, error) {
	unix := now.Unix()
	if unix < 0 {
		return Code{}, fmt.Errorf("time %s is before the unix epoch", now.UTC().Format(time.RFC3339))
	}

	value, err := totp.GenerateCodeCustom(seed, now, totp.ValidateOpts{
		Period:    Period,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	if err != nil {
		return Code{}, fmt.Errorf("%w: %v", common.ErrInvalidSecretFormat, err)
	}

	return Code{
		Value:            value,
		SecondsRemaining: Period - int(unix%Period),
		At:               now,
	}, nil
}
