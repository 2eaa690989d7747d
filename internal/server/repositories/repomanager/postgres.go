package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/aidemoi/aidemoi/internal/dbx"
	"github.com/aidemoi/aidemoi/internal/server/migrations"
	"github.com/aidemoi/aidemoi/internal/server/repositories/tokens"
	"github.com/aidemoi/aidemoi/internal/server/repositories/users"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// PostgresRepositoryManager vends PostgreSQL-backed repositories over a
// database/sql handle.
type PostgresRepositoryManager struct {
	db   *sql.DB
	pool *pgxpool.Pool
	repoSet
}

// NewPostgresRepositoryManager binds the repositories to db.
func NewPostgresRepositoryManager(db *sql.DB) *PostgresRepositoryManager {
	return &PostgresRepositoryManager{
		db: db,
		repoSet: repoSet{
			users:  users.NewPostgresRepository(db),
			tokens: tokens.NewPostgresRepository(db),
		},
	}
}

// OpenPostgres creates a pgx pool for dsn, checks connectivity and exposes
// it as *sql.DB for the repositories.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresRepositoryManager, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}

	// simple protocol keeps goose and pgbouncer happy
	cfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}

	m := NewPostgresRepositoryManager(stdlib.OpenDBFromPool(pool))
	m.pool = pool
	return m, nil
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations applies the embedded migrations.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	if err := gooseUpContext(ctx, m.db, "."); err != nil {
		return err
	}
	return nil
}

func (m *PostgresRepositoryManager) Ping(ctx context.Context) error {
	return m.db.PingContext(ctx)
}

func (m *PostgresRepositoryManager) WithTx(ctx context.Context, fn func(ctx context.Context, r Repositories) error) error {
	return dbx.WithTx(ctx, m.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return fn(ctx, repoSet{
			users:  users.NewPostgresRepository(tx),
			tokens: tokens.NewPostgresRepository(tx),
		})
	})
}

func (m *PostgresRepositoryManager) Close() error {
	err := m.db.Close()
	if m.pool != nil {
		m.pool.Close()
	}
	return err
}
