// Package services contains server-side business logic. SessionService
// implements login, registration, token rotation and logout on top of the
// password hasher, the token codec and the token store.
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/aidemoi/aidemoi/internal/common"
	"github.com/aidemoi/aidemoi/internal/cryptox"
	"github.com/aidemoi/aidemoi/internal/jwtx"
	"github.com/aidemoi/aidemoi/internal/logging"
	"github.com/aidemoi/aidemoi/internal/server/models"
	"github.com/aidemoi/aidemoi/internal/server/repositories/repomanager"
	"github.com/aidemoi/aidemoi/internal/server/repositories/tokens"
)

type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, hash string) (bool, error)
	ValidateStrength(plaintext string) cryptox.StrengthResult
}

type TokenCodec interface {
	MintPair(id jwtx.Identity) (jwtx.Pair, error)
	Verify(token string) *jwtx.Identity
}

// UserView is the user as seen by clients. It never carries the hash.
type UserView struct {
	ID       int64    `json:"id"`
	Username string   `json:"username"`
	Email    string   `json:"email"`
	Roles    []string `json:"roles"`
}

// TokenBlock carries raw tokens, their configured lifetimes and absolute
// RFC 3339 expiries.
type TokenBlock struct {
	Token            string `json:"token"`
	RefreshToken     string `json:"refreshToken"`
	ExpiresIn        string `json:"expiresIn"`
	ExpiresAt        string `json:"expiresAt"`
	RefreshExpiresIn string `json:"refreshExpiresIn"`
	RefreshExpiresAt string `json:"refreshExpiresAt"`
}

type AuthResult struct {
	Tokens TokenBlock `json:"tokens"`
	User   UserView   `json:"user"`
}

type LogoutResult struct {
	LoggedOut bool `json:"loggedOut"`
}

// WeakPasswordError names the first strength rule the password broke.
type WeakPasswordError struct {
	Reason string
}

func (e *WeakPasswordError) Error() string {
	return fmt.Sprintf("%s: %s", common.ErrWeakPassword, e.Reason)
}

func (e *WeakPasswordError) Is(target error) bool {
	return target == common.ErrWeakPassword
}

type SessionService struct {
	repos  repomanager.RepositoryManager
	hasher PasswordHasher
	codec  TokenCodec
	logger logging.Logger
	now    func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

type Option func(*SessionService)

// WithClock overrides time.Now for storage-level expiry checks.
func WithClock(now func() time.Time) Option {
	return func(s *SessionService) { s.now = now }
}

func NewSessionService(repos repomanager.RepositoryManager, hasher PasswordHasher, codec TokenCodec, logger logging.Logger, opts ...Option) *SessionService {
	if logger == nil {
		logger = logging.Nop{}
	}
	s := &SessionService{
		repos:  repos,
		hasher: hasher,
		codec:  codec,
		logger: logger.With("module", "session"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Login never tells an unknown email apart from a wrong password.
func (s *SessionService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.repos.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			s.burnHash(password)
			return nil, common.ErrInvalidCredentials
		}
		return nil, err
	}

	if user.PasswordHash == nil {
		s.burnHash(password)
		return nil, common.ErrInvalidCredentials
	}

	ok, err := s.hasher.Verify(password, *user.PasswordHash)
	if err != nil {
		s.logger.Error(ctx, "stored password hash is unusable", "user_id", user.ID, "error", err)
		return nil, common.ErrInvalidCredentials
	}
	if !ok {
		return nil, common.ErrInvalidCredentials
	}

	block, err := s.issue(ctx, s.repos.Tokens(), identityOf(user))
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "login succeeded", "user_id", user.ID)
	return &AuthResult{Tokens: *block, User: viewOf(user)}, nil
}

// Register creates the user. It does not log the user in.
func (s *SessionService) Register(ctx context.Context, username, email, password string) (*UserView, error) {
	if _, err := s.repos.Users().GetUserByEmail(ctx, email); err == nil {
		return nil, common.ErrDuplicateEmail
	} else if !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}

	if res := s.hasher.ValidateStrength(password); !res.Valid {
		return nil, &WeakPasswordError{Reason: res.Reason}
	}

	hash, err := s.hasher.Hash(password)
	if errors.Is(err, cryptox.ErrPasswordTooLong) {
		return nil, &WeakPasswordError{Reason: "Password must be at most 72 bytes long"}
	}
	if err != nil {
		return nil, err
	}

	var created *models.User
	err = s.repos.WithTx(ctx, func(ctx context.Context, r repomanager.Repositories) error {
		if _, err := r.Users().GetUserByEmail(ctx, email); err == nil {
			return common.ErrDuplicateEmail
		} else if !errors.Is(err, common.ErrNotFound) {
			return err
		}

		u, err := r.Users().Create(ctx, &models.User{
			Username:     username,
			Email:        email,
			PasswordHash: &hash,
		})
		if err != nil {
			return err
		}
		created = u
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "user registered", "user_id", created.ID)
	view := viewOf(created)
	return &view, nil
}

// Refresh exchanges a refresh token for a new pair. The token must be the
// stored one, unexpired in storage, and cryptographically valid. Claims of
// the old token are carried into the new pair unchanged.
func (s *SessionService) Refresh(ctx context.Context, refreshToken string) (*TokenBlock, error) {
	if refreshToken == "" {
		return nil, common.ErrInvalidRefreshToken
	}

	stored, err := s.repos.Tokens().FindValidRefresh(ctx, refreshToken, s.now())
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrInvalidRefreshToken
		}
		return nil, err
	}

	id := s.codec.Verify(refreshToken)
	if id == nil || id.UserID != stored.UserID {
		return nil, common.ErrInvalidRefreshToken
	}

	block, err := s.issue(ctx, s.repos.Tokens(), jwtx.Identity{
		UserID:   id.UserID,
		Email:    id.Email,
		Username: id.Username,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug(ctx, "token pair rotated", "user_id", id.UserID)
	return block, nil
}

// Logout only acknowledges. The stored pair stays valid until it expires or
// the next login overwrites it; use LogoutAll to revoke.
func (s *SessionService) Logout(ctx context.Context, accessToken string) LogoutResult {
	s.logger.Debug(ctx, "logout acknowledged")
	return LogoutResult{LoggedOut: true}
}

// LogoutAll deletes the stored pair of the user.
func (s *SessionService) LogoutAll(ctx context.Context, userID int64) (int64, error) {
	n, err := s.repos.Tokens().DeleteByUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	s.logger.Info(ctx, "stored tokens revoked", "user_id", userID, "deleted", n)
	return n, nil
}

func (s *SessionService) GetProfile(ctx context.Context, userID int64) (*UserView, error) {
	u, err := s.repos.Users().GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	view := viewOf(u)
	return &view, nil
}

// SweepExpired deletes pairs whose refresh token has expired.
func (s *SessionService) SweepExpired(ctx context.Context) (int64, error) {
	return s.repos.Tokens().DeleteExpired(ctx, s.now())
}

// RunSweeper calls SweepExpired every interval until ctx is done.
func (s *SessionService) RunSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			n, err := s.SweepExpired(ctx)
			if err != nil {
				s.logger.Error(ctx, "expired token sweep failed", "error", err)
				continue
			}
			if n > 0 {
				s.logger.Info(ctx, "expired tokens swept", "deleted", n)
			}

		case <-ctx.Done():
			return
		}
	}
}

func (s *SessionService) issue(ctx context.Context, repo tokens.Repository, id jwtx.Identity) (*TokenBlock, error) {
	pair, err := s.codec.MintPair(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrInternal, err)
	}

	if _, err := repo.UpsertForUser(ctx, id.UserID,
		pair.Access.Value, pair.Refresh.Value,
		pair.Access.ExpiresAt, pair.Refresh.ExpiresAt); err != nil {
		return nil, err
	}

	return &TokenBlock{
		Token:            pair.Access.Value,
		RefreshToken:     pair.Refresh.Value,
		ExpiresIn:        pair.Access.Duration,
		ExpiresAt:        pair.Access.ExpiresAt.UTC().Format(time.RFC3339),
		RefreshExpiresIn: pair.Refresh.Duration,
		RefreshExpiresAt: pair.Refresh.ExpiresAt.UTC().Format(time.RFC3339),
	}, nil
}

// burnHash spends a comparison on a throwaway hash so a miss costs about as
// much as a wrong password.
func (s *SessionService) burnHash(password string) {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = s.hasher.Hash("aidemoi-dummy-Passw0rd!")
	})
	if s.dummyHash != "" {
		_, _ = s.hasher.Verify(password, s.dummyHash)
	}
}

func identityOf(u *models.User) jwtx.Identity {
	return jwtx.Identity{UserID: u.ID, Email: u.Email, Username: u.Username}
}

func viewOf(u *models.User) UserView {
	return UserView{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		Roles:    []string{common.DefaultRole},
	}
}
