package models

import "time"

// Entry is a stored credential. EncryptedPassword holds a sealed token, never
// the plaintext. Optional text fields are empty when absent.
type Entry struct {
	ID                string
	UserID            string
	Title             string
	Logo              string
	Email             string
	Username          string
	EncryptedPassword string
	TotpSeed          string
	CreatedAt         time.Time
}

// HasTotp reports whether the entry carries a second-factor seed.
func (e *Entry) HasTotp() bool {
	return e.TotpSeed != ""
}
