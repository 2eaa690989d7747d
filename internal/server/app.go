// Package server wires the auth service together: storage, token codec,
// password hashing, the HTTP API, tracing and the expired token sweeper.
package server

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/aidemoi/aidemoi/internal/cryptox"
	"github.com/aidemoi/aidemoi/internal/jwtx"
	"github.com/aidemoi/aidemoi/internal/logging"
	"github.com/aidemoi/aidemoi/internal/server/config"
	"github.com/aidemoi/aidemoi/internal/server/httpapi"
	"github.com/aidemoi/aidemoi/internal/server/repositories/repomanager"
	"github.com/aidemoi/aidemoi/internal/server/services"
	"github.com/aidemoi/aidemoi/internal/server/telemetry"
)

const serviceName = "aidemoi-auth"

type App struct {
	config   *config.Config
	logger   logging.Logger
	repos    repomanager.RepositoryManager
	sessions *services.SessionService
	server   *httpapi.Server
	shutdown telemetry.ShutdownFunc
}

// openRepositories is swapped in tests.
var openRepositories = func(ctx context.Context, dsn string) (repomanager.RepositoryManager, error) {
	if dsn == config.MemoryDSN {
		return repomanager.NewInMemoryRepositoryManager(), nil
	}
	return repomanager.OpenPostgres(ctx, dsn)
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	logger := logging.NewJSON(os.Stdout, c.LogLevel)

	repos, err := openRepositories(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if err := repos.RunMigrations(ctx); err != nil {
		_ = repos.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	codec, err := jwtx.NewCodec(jwtx.Config{
		Secret:     []byte(c.SecretKey),
		Issuer:     c.Issuer,
		Audience:   c.Audience,
		AccessTTL:  c.AccessTokenTTL,
		RefreshTTL: c.RefreshTokenTTL,
	})
	if err != nil {
		_ = repos.Close()
		return nil, fmt.Errorf("token codec: %w", err)
	}

	shutdown, err := telemetry.Init(ctx, serviceName, c.OTLPEndpoint)
	if err != nil {
		_ = repos.Close()
		return nil, fmt.Errorf("telemetry: %w", err)
	}

	sessions := services.NewSessionService(repos, cryptox.NewPasswordHasher(c.BcryptCost), codec, logger)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	handler := httpapi.Router(httpapi.RouterOptions{
		Sessions:    sessions,
		Verifier:    codec,
		Ready:       repos.Ping,
		Logger:      logger,
		Registry:    reg,
		ServiceName: serviceName,
	})

	return &App{
		config:   c,
		logger:   logger,
		repos:    repos,
		sessions: sessions,
		server:   httpapi.NewServer(c.HTTPAddr, handler, logger),
		shutdown: shutdown,
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.server.Run(ctx); err != nil {
		app.logger.Error(ctx, "http server stopped", "error", err)
		cancelFunc()
	}
}

// Run blocks until the parent context is cancelled, a termination signal
// arrives or the HTTP server fails, then releases storage and tracing.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "addr", app.config.HTTPAddr)

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.sessions.RunSweeper(ctx, app.config.SweepInterval)
	}()

	wg.Wait()

	app.logger.Info(context.Background(), "Stopping app...")

	return errors.Join(
		app.shutdown(context.Background()),
		app.repos.Close(),
	)
}
