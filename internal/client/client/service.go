package client

import (
	"context"
)

// Client is the auth API contract used by the session store and the CLI.
type Client interface {
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	Register(ctx context.Context, username, email, password string) (*User, error)
	Refresh(ctx context.Context, refreshToken string) (*Tokens, error)
	Profile(ctx context.Context, accessToken string) (*User, error)
	Logout(ctx context.Context, accessToken string) error
	LogoutAll(ctx context.Context, accessToken string) (int64, error)
	Ping(ctx context.Context) error
}

// User mirrors the server's user view.
type User struct {
	ID       int64    `json:"id"`
	Username string   `json:"username"`
	Email    string   `json:"email"`
	Roles    []string `json:"roles,omitempty"`
}

// Tokens is the token block returned by login and refresh. Expiries are
// RFC 3339 strings exactly as sent by the server.
type Tokens struct {
	Token            string `json:"token"`
	RefreshToken     string `json:"refreshToken"`
	ExpiresIn        string `json:"expiresIn"`
	ExpiresAt        string `json:"expiresAt"`
	RefreshExpiresIn string `json:"refreshExpiresIn"`
	RefreshExpiresAt string `json:"refreshExpiresAt"`
}

type AuthResult struct {
	Tokens Tokens `json:"tokens"`
	User   User   `json:"user"`
}
