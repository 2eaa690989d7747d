// Package repomanager wires the repositories to a storage backend and runs
// schema migrations.
package repomanager

import (
	"context"

	"github.com/aidemoi/aidemoi/internal/server/repositories/tokens"
	"github.com/aidemoi/aidemoi/internal/server/repositories/users"
)

// Repositories is the set of repositories bound to one handle, either the
// pool or a transaction.
type Repositories interface {
	Users() users.Repository
	Tokens() tokens.Repository
}

type RepositoryManager interface {
	Repositories

	RunMigrations(ctx context.Context) error
	Ping(ctx context.Context) error

	// WithTx runs fn with repositories bound to a single transaction. It
	// commits when fn returns nil and rolls back otherwise.
	WithTx(ctx context.Context, fn func(ctx context.Context, r Repositories) error) error

	Close() error
}

type repoSet struct {
	users  users.Repository
	tokens tokens.Repository
}

func (r repoSet) Users() users.Repository   { return r.users }
func (r repoSet) Tokens() tokens.Repository { return r.tokens }
