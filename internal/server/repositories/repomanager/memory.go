package repomanager

import (
	"context"
	"sync"

	"github.com/aidemoi/aidemoi/internal/server/repositories/tokens"
	"github.com/aidemoi/aidemoi/internal/server/repositories/users"
)

// InMemoryRepositoryManager keeps everything in process memory. WithTx only
// serializes callers; there is no rollback.
type InMemoryRepositoryManager struct {
	mu sync.Mutex
	repoSet
}

func NewInMemoryRepositoryManager() *InMemoryRepositoryManager {
	return &InMemoryRepositoryManager{
		repoSet: repoSet{
			users:  users.NewMemoryRepository(),
			tokens: tokens.NewMemoryRepository(),
		},
	}
}

func (m *InMemoryRepositoryManager) RunMigrations(context.Context) error { return nil }
func (m *InMemoryRepositoryManager) Ping(context.Context) error          { return nil }
func (m *InMemoryRepositoryManager) Close() error                        { return nil }

func (m *InMemoryRepositoryManager) WithTx(ctx context.Context, fn func(ctx context.Context, r Repositories) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(ctx, m.repoSet)
}
