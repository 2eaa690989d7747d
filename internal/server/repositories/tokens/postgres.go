package tokens

import (
	"context"
	"fmt"
	"time"

	"github.com/aidemoi/aidemoi/internal/common"
	"github.com/aidemoi/aidemoi/internal/dbx"
	"github.com/aidemoi/aidemoi/internal/server/models"
	"github.com/georgysavva/scany/v2/sqlscan"
)

const columns = `id, user_id, access_token, refresh_token, access_expires_at, refresh_expires_at, created_at, updated_at`

// PostgresRepository works over dbx.DBTX (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) UpsertForUser(ctx context.Context, userID int64, access, refresh string, accessExp, refreshExp time.Time) (*models.StoredTokenPair, error) {
	query := `
		INSERT INTO auth_tokens (user_id, access_token, refresh_token, access_expires_at, refresh_expires_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE SET
			access_token = EXCLUDED.access_token,
			refresh_token = EXCLUDED.refresh_token,
			access_expires_at = EXCLUDED.access_expires_at,
			refresh_expires_at = EXCLUDED.refresh_expires_at,
			updated_at = now()
		RETURNING ` + columns

	return r.getOne(ctx, query, userID, access, refresh, accessExp, refreshExp)
}

func (r *PostgresRepository) FindByAnyTokenValue(ctx context.Context, value string) (*models.StoredTokenPair, error) {
	query := `
		SELECT ` + columns + `
		FROM auth_tokens
		WHERE access_token = $1 OR refresh_token = $1
		LIMIT 1`

	return r.getOne(ctx, query, value)
}

func (r *PostgresRepository) FindValidRefresh(ctx context.Context, value string, now time.Time) (*models.StoredTokenPair, error) {
	query := `
		SELECT ` + columns + `
		FROM auth_tokens
		WHERE refresh_token = $1 AND refresh_expires_at > $2`

	return r.getOne(ctx, query, value, now)
}

func (r *PostgresRepository) DeleteByUser(ctx context.Context, userID int64) (int64, error) {
	return r.exec(ctx, `DELETE FROM auth_tokens WHERE user_id = $1`, userID)
}

func (r *PostgresRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	return r.exec(ctx, `DELETE FROM auth_tokens WHERE refresh_expires_at <= $1`, now)
}

func (r *PostgresRepository) DeleteByValue(ctx context.Context, value string) (*models.StoredTokenPair, error) {
	query := `
		DELETE FROM auth_tokens
		WHERE access_token = $1 OR refresh_token = $1
		RETURNING ` + columns

	return r.getOne(ctx, query, value)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, args ...any) (*models.StoredTokenPair, error) {
	pair := &models.StoredTokenPair{}
	if err := sqlscan.Get(ctx, r.db, pair, query, args...); err != nil {
		if sqlscan.NotFound(err) {
			return nil, common.ErrNotFound
		}
		return nil, dbError(err)
	}
	return pair, nil
}

func (r *PostgresRepository) exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, dbError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, dbError(err)
	}
	return n, nil
}

func dbError(err error) error {
	return fmt.Errorf("%w: db error: %w", common.ErrStorage, err)
}
