package tokens

import (
	"context"
	"testing"
	"time"

	"github.com/aidemoi/aidemoi/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRepository_UpsertOverwritesInPlace(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepository()
	now := time.Now().UTC()

	first, err := r.UpsertForUser(ctx, 1, "a1", "r1", now.Add(time.Hour), now.Add(24*time.Hour))
	require.NoError(t, err)

	second, err := r.UpsertForUser(ctx, 1, "a2", "r2", now.Add(2*time.Hour), now.Add(48*time.Hour))
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.CreatedAt, second.CreatedAt)
	assert.Equal(t, "a2", second.AccessToken)

	// the old pair is gone
	_, err = r.FindByAnyTokenValue(ctx, "r1")
	assert.ErrorIs(t, err, common.ErrNotFound)

	got, err := r.FindByAnyTokenValue(ctx, "a2")
	require.NoError(t, err)
	assert.Equal(t, "r2", got.RefreshToken)
}

func TestMemoryRepository_FindValidRefresh(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepository()
	now := time.Now().UTC()

	_, err := r.UpsertForUser(ctx, 1, "a", "r", now.Add(time.Minute), now.Add(time.Hour))
	require.NoError(t, err)

	_, err = r.FindValidRefresh(ctx, "r", now)
	require.NoError(t, err)

	// strictly greater than now
	_, err = r.FindValidRefresh(ctx, "r", now.Add(time.Hour))
	assert.ErrorIs(t, err, common.ErrNotFound)

	// access value does not match the refresh column
	_, err = r.FindValidRefresh(ctx, "a", now)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestMemoryRepository_Deletes(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepository()
	now := time.Now().UTC()

	_, _ = r.UpsertForUser(ctx, 1, "a1", "r1", now, now.Add(-time.Second))
	_, _ = r.UpsertForUser(ctx, 2, "a2", "r2", now, now.Add(time.Hour))
	_, _ = r.UpsertForUser(ctx, 3, "a3", "r3", now, now.Add(time.Hour))

	n, err := r.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	p, err := r.DeleteByValue(ctx, "r2")
	require.NoError(t, err)
	assert.Equal(t, int64(2), p.UserID)

	_, err = r.DeleteByValue(ctx, "r2")
	assert.ErrorIs(t, err, common.ErrNotFound)

	n, err = r.DeleteByUser(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = r.DeleteByUser(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}
