// Package jwtx signs and verifies the HS256 access and refresh tokens.
//
// Both token kinds share one secret and one claim set; they differ only in
// lifetime. Verification never reports why a token was rejected: callers get
// an Identity or nil.
package jwtx

import (
	"errors"
	"fmt"
	"time"

	"github.com/aidemoi/aidemoi/internal/timex"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	DefaultIssuer     = "aidemoi"
	DefaultAudience   = "aidemoi-users"
	DefaultAccessTTL  = "24h"
	DefaultRefreshTTL = "7d"
)

var ErrEmptySecret = errors.New("jwt secret is empty")

// Identity is the payload carried by every token.
type Identity struct {
	UserID   int64
	Email    string
	Username string

	// Set by Verify from the registered claims.
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Claims is the wire form of Identity.
type Claims struct {
	UserID   int64  `json:"userId"`
	Email    string `json:"email"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

type Token struct {
	Value     string
	Duration  string
	ExpiresAt time.Time
}

type Pair struct {
	IssuedAt time.Time
	Access   Token
	Refresh  Token
}

type Config struct {
	Secret     []byte
	Issuer     string
	Audience   string
	AccessTTL  string
	RefreshTTL string

	// Now defaults to time.Now.
	Now func() time.Time
}

type Codec struct {
	secret     []byte
	issuer     string
	audience   string
	accessTTL  string
	refreshTTL string
	now        func() time.Time
	parser     *jwt.Parser
}

func NewCodec(cfg Config) (*Codec, error) {
	if len(cfg.Secret) == 0 {
		return nil, ErrEmptySecret
	}

	c := &Codec{
		secret:     cfg.Secret,
		issuer:     orDefault(cfg.Issuer, DefaultIssuer),
		audience:   orDefault(cfg.Audience, DefaultAudience),
		accessTTL:  orDefault(cfg.AccessTTL, DefaultAccessTTL),
		refreshTTL: orDefault(cfg.RefreshTTL, DefaultRefreshTTL),
		now:        cfg.Now,
	}
	if c.now == nil {
		c.now = time.Now
	}

	for _, d := range []string{c.accessTTL, c.refreshTTL} {
		if _, err := timex.ParseDuration(d); err != nil {
			return nil, fmt.Errorf("token lifetime: %w", err)
		}
	}

	c.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(c.issuer),
		jwt.WithAudience(c.audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)

	return c, nil
}

func (c *Codec) AccessTTL() string  { return c.accessTTL }
func (c *Codec) RefreshTTL() string { return c.refreshTTL }

func (c *Codec) MintAccessToken(id Identity) (Token, error) {
	return c.mint(id, c.accessTTL, c.now())
}

func (c *Codec) MintRefreshToken(id Identity) (Token, error) {
	return c.mint(id, c.refreshTTL, c.now())
}

// MintPair signs both tokens with the same issuance instant.
func (c *Codec) MintPair(id Identity) (Pair, error) {
	issued := c.now()

	access, err := c.mint(id, c.accessTTL, issued)
	if err != nil {
		return Pair{}, err
	}
	refresh, err := c.mint(id, c.refreshTTL, issued)
	if err != nil {
		return Pair{}, err
	}

	return Pair{IssuedAt: issued, Access: access, Refresh: refresh}, nil
}

// ExpiresAt resolves a duration string against from.
func (c *Codec) ExpiresAt(duration string, from time.Time) (time.Time, error) {
	d, err := timex.ParseDuration(duration)
	if err != nil {
		return time.Time{}, err
	}
	return from.Add(d), nil
}

func (c *Codec) mint(id Identity, duration string, issued time.Time) (Token, error) {
	exp, err := c.ExpiresAt(duration, issued)
	if err != nil {
		return Token{}, err
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID:   id.UserID,
		Email:    id.Email,
		Username: id.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    c.issuer,
			Audience:  jwt.ClaimStrings{c.audience},
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	})

	s, err := token.SignedString(c.secret)
	if err != nil {
		return Token{}, fmt.Errorf("sign token: %w", err)
	}

	return Token{Value: s, Duration: duration, ExpiresAt: exp.Truncate(time.Second)}, nil
}

// Verify checks signature, algorithm, issuer, audience and expiry. Any
// failure yields nil.
func (c *Codec) Verify(tokenString string) *Identity {
	if tokenString == "" {
		return nil
	}

	claims := &Claims{}
	token, err := c.parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return c.secret, nil
	})
	if err != nil || !token.Valid {
		return nil
	}

	return claims.identity()
}

// DecodeExpiry reads exp without checking the signature. It is meant for
// display and scheduling on the client, never for trust decisions.
func DecodeExpiry(tokenString string) (time.Time, bool) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

func (c *Claims) identity() *Identity {
	id := &Identity{
		UserID:   c.UserID,
		Email:    c.Email,
		Username: c.Username,
	}
	if c.IssuedAt != nil {
		id.IssuedAt = c.IssuedAt.Time
	}
	if c.ExpiresAt != nil {
		id.ExpiresAt = c.ExpiresAt.Time
	}
	return id
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
