// Package tokens persists the single live access+refresh token pair of each
// user. There is no history: every login or refresh overwrites the row.
package tokens

import (
	"context"
	"time"

	"github.com/aidemoi/aidemoi/internal/server/models"
)

// Repository reports a miss as common.ErrNotFound and any driver failure as
// a wrapped common.ErrStorage.
type Repository interface {
	// UpsertForUser inserts the pair or overwrites the existing one in place.
	UpsertForUser(ctx context.Context, userID int64, access, refresh string, accessExp, refreshExp time.Time) (*models.StoredTokenPair, error)

	// FindByAnyTokenValue matches the access or the refresh column and
	// ignores expiry.
	FindByAnyTokenValue(ctx context.Context, value string) (*models.StoredTokenPair, error)

	// FindValidRefresh matches the refresh column and requires
	// refresh_expires_at > now.
	FindValidRefresh(ctx context.Context, value string, now time.Time) (*models.StoredTokenPair, error)

	DeleteByUser(ctx context.Context, userID int64) (int64, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
	DeleteByValue(ctx context.Context, value string) (*models.StoredTokenPair, error)
}
