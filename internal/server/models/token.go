package models

import "time"

// StoredTokenPair is the single live access+refresh pair of a user.
// Login and refresh overwrite it in place.
type StoredTokenPair struct {
	ID               int64     `db:"id"`
	UserID           int64     `db:"user_id"`
	AccessToken      string    `db:"access_token"`
	RefreshToken     string    `db:"refresh_token"`
	AccessExpiresAt  time.Time `db:"access_expires_at"`
	RefreshExpiresAt time.Time `db:"refresh_expires_at"`
	CreatedAt        time.Time `db:"created_at"`
	UpdatedAt        time.Time `db:"updated_at"`
}
