package users

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/aidemoi/aidemoi/internal/common"
	"github.com/aidemoi/aidemoi/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return NewPostgresRepository(db), mock, db
}

const insertQ = `(?s)^INSERT\s+INTO\s+users\s*\(username,\s*email,\s*password_hash\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3\)\s*RETURNING\s+id,\s*created_at\s*$`

var userCols = []string{"id", "username", "email", "password_hash", "created_at"}

func strPtr(s string) *string { return &s }

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectQuery(insertQ).
		WithArgs("alice", "a@b.com", strPtr("hash")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(42), now))

	got, err := repo.Create(context.Background(), &models.User{Username: "alice", Email: "a@b.com", PasswordHash: strPtr("hash")})
	require.NoError(t, err)
	assert.Equal(t, int64(42), got.ID)
	assert.Equal(t, now, got.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_DuplicateEmail(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(insertQ).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})

	_, err := repo.Create(context.Background(), &models.User{Username: "x", Email: "dup@x.com"})
	assert.ErrorIs(t, err, common.ErrDuplicateEmail)
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(insertQ).WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), &models.User{Username: "alice", Email: "a@b.com"})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrStorage)
	assert.Contains(t, err.Error(), "db down")
}

func TestGetUserByEmail_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+id,\s*username,\s*email,\s*password_hash,\s*created_at\s+FROM\s+users\s+WHERE\s+email\s*=\s*\$1\s*$`
	mock.ExpectQuery(q).
		WithArgs("a@b.com").
		WillReturnRows(sqlmock.NewRows(userCols).AddRow(int64(1), "alice", "a@b.com", "hash", time.Now()))

	got, err := repo.GetUserByEmail(context.Background(), "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.ID)
	assert.Equal(t, "alice", got.Username)
	require.NotNil(t, got.PasswordHash)
	assert.Equal(t, "hash", *got.PasswordHash)
}

func TestGetUserByEmail_NullHash(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`FROM\s+users\s+WHERE\s+email`).
		WithArgs("social@b.com").
		WillReturnRows(sqlmock.NewRows(userCols).AddRow(int64(2), "bob", "social@b.com", nil, time.Now()))

	got, err := repo.GetUserByEmail(context.Background(), "social@b.com")
	require.NoError(t, err)
	assert.Nil(t, got.PasswordHash)
}

func TestGetUserByEmail_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`FROM\s+users\s+WHERE\s+email`).
		WithArgs("nobody@b.com").
		WillReturnRows(sqlmock.NewRows(userCols))

	_, err := repo.GetUserByEmail(context.Background(), "nobody@b.com")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestGetUserByID(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+id,.*FROM\s+users\s+WHERE\s+id\s*=\s*\$1\s*$`
	mock.ExpectQuery(q).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows(userCols).AddRow(int64(7), "carol", "c@b.com", "h", time.Now()))
	mock.ExpectQuery(q).
		WithArgs(int64(8)).
		WillReturnError(errors.New("conn reset"))

	got, err := repo.GetUserByID(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "carol", got.Username)

	_, err = repo.GetUserByID(context.Background(), 8)
	assert.ErrorIs(t, err, common.ErrStorage)
	assert.NoError(t, mock.ExpectationsWereMet())
}
