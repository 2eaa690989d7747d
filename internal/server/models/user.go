// Package models defines server-side data models persisted in the database.
package models

import "time"

// User is owned by the account subsystem; the auth core reads it and creates
// it on registration. A nil PasswordHash marks a social-only account.
type User struct {
	ID           int64     `db:"id"`
	Username     string    `db:"username"`
	Email        string    `db:"email"`
	PasswordHash *string   `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
}
