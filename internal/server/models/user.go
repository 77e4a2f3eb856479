// Package models defines server-side data models persisted in the database.
package models

import "time"

// User is a vault owner. Secret is the opaque capability token handed out at
// registration; HashedPassword is an Argon2id PHC string.
type User struct {
	ID             string
	Secret         string
	Username       string
	Email          string
	FullName       string
	HashedPassword string
	CreatedAt      time.Time
}
