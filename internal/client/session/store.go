// Package session mirrors the authenticated user and token block on the
// client and keeps them in durable storage across restarts.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/aidemoi/aidemoi/internal/client/client"
	"github.com/aidemoi/aidemoi/internal/client/repositories/metadata"
	"github.com/aidemoi/aidemoi/internal/common"
	"github.com/aidemoi/aidemoi/internal/dbx"
	"github.com/aidemoi/aidemoi/internal/logging"
)

// Durable storage keys. Both are written and cleared together.
const (
	KeyUser   = "auth_user"
	KeyTokens = "auth_tokens"
)

const remoteLogoutTimeout = 5 * time.Second

var ErrNotAuthenticated = errors.New("not authenticated")

type (
	UserView = client.User
	Tokens   = client.Tokens
)

type Credentials struct {
	Email    string
	Password string
}

type RegisterData struct {
	Username string
	Email    string
	Password string
}

// UserPatch holds the fields UpdateUser merges; nil/empty fields are kept.
type UserPatch struct {
	Username *string
	Email    *string
	Roles    []string
}

// State is a copy of the store's observable state.
type State struct {
	User      *UserView
	Tokens    *Tokens
	IsLoading bool
	Err       error
}

// DB is satisfied by *sql.DB.
type DB interface {
	dbx.DBTX
	dbx.TxBeginner
}

type Store struct {
	db     DB
	api    client.Client
	logger logging.Logger

	mu          sync.Mutex
	state       State
	initialized bool
	listeners   map[int]func(State)
	nextID      int
}

func NewStore(db DB, api client.Client, logger logging.Logger) *Store {
	if logger == nil {
		logger = logging.Nop{}
	}
	return &Store{
		db:        db,
		api:       api,
		logger:    logger.With("module", "session"),
		state:     State{IsLoading: true},
		listeners: make(map[int]func(State)),
	}
}

// Init hydrates the store from durable storage. Only the first call reads;
// later calls return nil immediately. Corrupt or partial stored state is
// wiped and leaves the store anonymous without an error.
func (s *Store) Init(ctx context.Context) error {
	s.mu.Lock()
	if s.initialized {
		s.mu.Unlock()
		return nil
	}
	s.initialized = true
	s.mu.Unlock()

	user, tokens, err := s.load(ctx)

	s.update(func(st *State) {
		st.IsLoading = false
		st.User, st.Tokens = user, tokens
		st.Err = err
	})
	return err
}

func (s *Store) load(ctx context.Context) (*UserView, *Tokens, error) {
	repo := metadata.NewSQLiteRepository(s.db)

	rawUser, userErr := repo.Get(ctx, KeyUser)
	rawTokens, tokensErr := repo.Get(ctx, KeyTokens)

	for _, err := range []error{userErr, tokensErr} {
		if err != nil && !errors.Is(err, common.ErrNotFound) {
			return nil, nil, err
		}
	}

	if userErr != nil && tokensErr != nil {
		return nil, nil, nil
	}
	if userErr != nil || tokensErr != nil {
		s.logger.Warn(ctx, "partial session in storage, clearing")
		return nil, nil, s.clearStorage(ctx)
	}

	var user UserView
	var tokens Tokens
	if err := json.Unmarshal(rawUser, &user); err != nil {
		s.logger.Warn(ctx, "corrupt stored user, clearing session", "error", err)
		return nil, nil, s.clearStorage(ctx)
	}
	if err := json.Unmarshal(rawTokens, &tokens); err != nil {
		s.logger.Warn(ctx, "corrupt stored tokens, clearing session", "error", err)
		return nil, nil, s.clearStorage(ctx)
	}

	return &user, &tokens, nil
}

func (s *Store) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.User != nil && s.state.Tokens != nil
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) Login(ctx context.Context, creds Credentials) (*UserView, error) {
	s.setLoading()

	res, err := s.api.Login(ctx, creds.Email, creds.Password)
	if err != nil {
		s.fail(err)
		return nil, err
	}

	user, tokens := res.User, res.Tokens
	if err := s.persist(ctx, &user, &tokens); err != nil {
		s.fail(err)
		return nil, err
	}

	s.update(func(st *State) {
		st.User, st.Tokens = &user, &tokens
		st.IsLoading, st.Err = false, nil
	})
	return &user, nil
}

// Register creates the account and remembers the user. It does not log in:
// no tokens are stored, so the session stays unauthenticated.
func (s *Store) Register(ctx context.Context, data RegisterData) (*UserView, error) {
	s.setLoading()

	user, err := s.api.Register(ctx, data.Username, data.Email, data.Password)
	if err != nil {
		s.fail(err)
		return nil, err
	}

	if err := s.persist(ctx, user, nil); err != nil {
		s.fail(err)
		return nil, err
	}

	u := *user
	s.update(func(st *State) {
		st.User, st.Tokens = &u, nil
		st.IsLoading, st.Err = false, nil
	})
	return &u, nil
}

// Logout clears memory and storage. With remote set, the server is told as
// well; that call runs in the background and its outcome is ignored.
func (s *Store) Logout(ctx context.Context, remote bool) error {
	var token string
	if st := s.Snapshot(); st.Tokens != nil {
		token = st.Tokens.Token
	}

	err := s.clear(ctx)

	if remote && token != "" {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), remoteLogoutTimeout)
			defer cancel()
			if err := s.api.Logout(ctx, token); err != nil {
				s.logger.Debug(ctx, "remote logout failed", "error", err)
			}
		}()
	}

	return err
}

// UpdateUser merges patch into the current user and re-persists it.
// Without a user it does nothing.
func (s *Store) UpdateUser(ctx context.Context, patch UserPatch) error {
	st := s.Snapshot()
	if st.User == nil {
		return nil
	}

	user := *st.User
	if patch.Username != nil {
		user.Username = *patch.Username
	}
	if patch.Email != nil {
		user.Email = *patch.Email
	}
	if patch.Roles != nil {
		user.Roles = append([]string(nil), patch.Roles...)
	}

	if err := s.persist(ctx, &user, st.Tokens); err != nil {
		return err
	}

	s.update(func(st *State) { st.User = &user })
	return nil
}

// Refresh exchanges the stored refresh token for a new token block. A 401
// or 403 answer expires the local session.
func (s *Store) Refresh(ctx context.Context) (*Tokens, error) {
	st := s.Snapshot()
	if st.User == nil || st.Tokens == nil || st.Tokens.RefreshToken == "" {
		return nil, ErrNotAuthenticated
	}

	tokens, err := s.api.Refresh(ctx, st.Tokens.RefreshToken)
	if err != nil {
		if errors.Is(err, client.ErrUnauthorized) {
			if cerr := s.clear(ctx); cerr != nil {
				return nil, errors.Join(err, cerr)
			}
		}
		return nil, err
	}

	if err := s.persist(ctx, st.User, tokens); err != nil {
		return nil, err
	}

	t := *tokens
	s.update(func(st *State) { st.Tokens = &t })
	return &t, nil
}

// ExpireLocal drops the session after the access token expired.
func (s *Store) ExpireLocal(ctx context.Context) error {
	s.logger.Info(ctx, "session expired, clearing local state")
	return s.clear(ctx)
}

// StoredAccessToken reads the access token straight from durable storage.
// It returns "" when nothing usable is stored.
func (s *Store) StoredAccessToken(ctx context.Context) (string, error) {
	raw, err := metadata.NewSQLiteRepository(s.db).Get(ctx, KeyTokens)
	if errors.Is(err, common.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}

	var tokens Tokens
	if err := json.Unmarshal(raw, &tokens); err != nil {
		return "", nil
	}
	return tokens.Token, nil
}

// Subscribe registers fn for state changes and returns its unsubscribe func.
func (s *Store) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.listeners[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

func (s *Store) clear(ctx context.Context) error {
	err := s.clearStorage(ctx)
	s.update(func(st *State) {
		st.User, st.Tokens = nil, nil
		st.IsLoading = false
		st.Err = err
	})
	return err
}

func (s *Store) clearStorage(ctx context.Context) error {
	return metadata.NewSQLiteRepository(s.db).Delete(ctx, KeyUser, KeyTokens)
}

// persist writes user and tokens in one transaction. A nil tokens removes
// the stored token block.
func (s *Store) persist(ctx context.Context, user *UserView, tokens *Tokens) error {
	rawUser, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}

	var rawTokens []byte
	if tokens != nil {
		if rawTokens, err = json.Marshal(tokens); err != nil {
			return fmt.Errorf("encode tokens: %w", err)
		}
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := metadata.NewSQLiteRepository(tx)
		if err := repo.Set(ctx, KeyUser, rawUser); err != nil {
			return err
		}
		if rawTokens == nil {
			return repo.Delete(ctx, KeyTokens)
		}
		return repo.Set(ctx, KeyTokens, rawTokens)
	})
}

func (s *Store) setLoading() {
	s.update(func(st *State) {
		st.IsLoading = true
		st.Err = nil
	})
}

func (s *Store) fail(err error) {
	s.update(func(st *State) {
		st.IsLoading = false
		st.Err = err
	})
}

func (s *Store) update(fn func(*State)) {
	s.mu.Lock()
	fn(&s.state)
	snap := s.snapshotLocked()
	listeners := make([]func(State), 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.mu.Unlock()

	for _, l := range listeners {
		l(snap)
	}
}

func (s *Store) snapshotLocked() State {
	st := s.state
	if st.User != nil {
		u := *st.User
		u.Roles = append([]string(nil), u.Roles...)
		st.User = &u
	}
	if st.Tokens != nil {
		t := *st.Tokens
		st.Tokens = &t
	}
	return st
}
