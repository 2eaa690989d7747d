package tokens

import (
	"context"
	"sync"
	"time"

	"github.com/aidemoi/aidemoi/internal/common"
	"github.com/aidemoi/aidemoi/internal/server/models"
)

// MemoryRepository mirrors the Postgres semantics with a map keyed by user.
type MemoryRepository struct {
	mu     sync.Mutex
	nextID int64
	byUser map[int64]models.StoredTokenPair
	now    func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byUser: make(map[int64]models.StoredTokenPair),
		now:    time.Now,
	}
}

func (r *MemoryRepository) UpsertForUser(ctx context.Context, userID int64, access, refresh string, accessExp, refreshExp time.Time) (*models.StoredTokenPair, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now().UTC()
	p, ok := r.byUser[userID]
	if !ok {
		r.nextID++
		p = models.StoredTokenPair{ID: r.nextID, UserID: userID, CreatedAt: now}
	}
	p.AccessToken = access
	p.RefreshToken = refresh
	p.AccessExpiresAt = accessExp
	p.RefreshExpiresAt = refreshExp
	p.UpdatedAt = now
	r.byUser[userID] = p

	return &p, nil
}

func (r *MemoryRepository) FindByAnyTokenValue(ctx context.Context, value string) (*models.StoredTokenPair, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.find(func(p models.StoredTokenPair) bool {
		return p.AccessToken == value || p.RefreshToken == value
	}); ok {
		return &p, nil
	}
	return nil, common.ErrNotFound
}

func (r *MemoryRepository) FindValidRefresh(ctx context.Context, value string, now time.Time) (*models.StoredTokenPair, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.find(func(p models.StoredTokenPair) bool {
		return p.RefreshToken == value && p.RefreshExpiresAt.After(now)
	}); ok {
		return &p, nil
	}
	return nil, common.ErrNotFound
}

func (r *MemoryRepository) DeleteByUser(ctx context.Context, userID int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byUser[userID]; !ok {
		return 0, nil
	}
	delete(r.byUser, userID)
	return 1, nil
}

func (r *MemoryRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for id, p := range r.byUser {
		if !p.RefreshExpiresAt.After(now) {
			delete(r.byUser, id)
			n++
		}
	}
	return n, nil
}

func (r *MemoryRepository) DeleteByValue(ctx context.Context, value string) (*models.StoredTokenPair, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.find(func(p models.StoredTokenPair) bool {
		return p.AccessToken == value || p.RefreshToken == value
	})
	if !ok {
		return nil, common.ErrNotFound
	}
	delete(r.byUser, p.UserID)
	return &p, nil
}

// find must be called with mu held.
func (r *MemoryRepository) find(match func(models.StoredTokenPair) bool) (models.StoredTokenPair, bool) {
	for _, p := range r.byUser {
		if match(p) {
			return p, true
		}
	}
	return models.StoredTokenPair{}, false
}
