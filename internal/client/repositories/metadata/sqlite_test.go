package metadata

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aidemoi/aidemoi/internal/common"
	"github.com/aidemoi/aidemoi/internal/dbx"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE metadata (
  key        TEXT PRIMARY KEY,
  value      BLOB NOT NULL,
  updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);`)
	require.NoError(t, err)
	return db
}

func TestSetAndGet_InsertThenGet(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "k1", []byte(`{"id":1}`)))

	v, err := r.Get(ctx, "k1")
	require.NoError(t, err)
	require.Equal(t, []byte(`{"id":1}`), v)
}

func TestGet_NotExists_ReturnsNotFound(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))

	v, err := r.Get(context.Background(), "absent")
	require.ErrorIs(t, err, common.ErrNotFound)
	require.Nil(t, v)
}

func TestSet_UpsertOverwritesValue(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "k", []byte("old")))
	require.NoError(t, r.Set(ctx, "k", []byte("new")))

	v, err := r.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, []byte("new"), v)
}

func TestDelete_RemovesKeys_AndIsIdempotent(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "a", []byte{1}))
	require.NoError(t, r.Set(ctx, "b", []byte{2}))
	require.NoError(t, r.Set(ctx, "c", []byte{3}))

	require.NoError(t, r.Delete(ctx, "a", "b"))

	_, err := r.Get(ctx, "a")
	assert.ErrorIs(t, err, common.ErrNotFound)
	_, err = r.Get(ctx, "b")
	assert.ErrorIs(t, err, common.ErrNotFound)
	v, err := r.Get(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, []byte{3}, v)

	require.NoError(t, r.Delete(ctx, "a", "b"))
	require.NoError(t, r.Delete(ctx))
}

func TestTransaction_RollbackDiscardsWrites(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()

	err := dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		tr := NewSQLiteRepository(tx)
		require.NoError(t, tr.Set(ctx, "a", []byte{1}))
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	_, err = NewSQLiteRepository(db).Get(ctx, "a")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestOperations_DBErrorWrapped(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, db.Close())

	_, err := r.Get(ctx, "k")
	require.ErrorIs(t, err, common.ErrStorage)
	require.Contains(t, err.Error(), "get metadata[k]")

	err = r.Set(ctx, "k", []byte("v"))
	require.ErrorIs(t, err, common.ErrStorage)
	require.Contains(t, err.Error(), "set metadata[k]")

	err = r.Delete(ctx, "k")
	require.ErrorIs(t, err, common.ErrStorage)
	require.Contains(t, err.Error(), "delete metadata")
}
