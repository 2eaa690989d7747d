package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"

	"github.com/aidemoi/aidemoi/internal/client/client"
	"github.com/aidemoi/aidemoi/internal/client/config"
	"github.com/aidemoi/aidemoi/internal/client/session"
	"github.com/aidemoi/aidemoi/internal/client/watcher"
	"github.com/aidemoi/aidemoi/internal/logging"
)

type App struct {
	config *config.Config
	db     *sql.DB
	api    client.Client
	store  *session.Store
	logger logging.Logger

	in  *bufio.Reader
	out io.Writer

	// newBroadcaster is swapped in tests.
	newBroadcaster func(cfg *config.Config) (watcher.Broadcaster, error)
}

// NewApp opens local storage, builds the API client and hydrates the
// session from disk.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	db, err := client.InitDatabase(ctx, c.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("error initializing database: %w", err)
	}

	logger := logging.NewJSON(os.Stderr, "warn")
	api := client.NewHTTPClient(c.ServerURL, c.RequestTimeout)

	app := newApp(c, db, api, logger, os.Stdin, os.Stdout)
	if err := app.store.Init(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return app, nil
}

func newApp(c *config.Config, db *sql.DB, api client.Client, logger logging.Logger, in io.Reader, out io.Writer) *App {
	return &App{
		config:         c,
		db:             db,
		api:            api,
		store:          session.NewStore(db, api, logger),
		logger:         logger,
		in:             bufio.NewReader(in),
		out:            out,
		newBroadcaster: defaultBroadcaster,
	}
}

func (a *App) Close() error {
	return a.db.Close()
}

func defaultBroadcaster(c *config.Config) (watcher.Broadcaster, error) {
	if c.NATSURL == "" {
		return watcher.NewMemoryBroadcaster(), nil
	}
	return watcher.NewNATSBroadcaster(c.NATSURL)
}

func (a *App) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(a.out, format, args...)
}
