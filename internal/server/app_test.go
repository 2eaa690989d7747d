package server

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aidemoi/aidemoi/internal/server/config"
	"github.com/aidemoi/aidemoi/internal/server/repositories/repomanager"
)

func testConfig() *config.Config {
	c := &config.Config{}
	c.LoadDefaults()
	c.HTTPAddr = "127.0.0.1:0"
	c.DatabaseDSN = config.MemoryDSN
	c.BcryptCost = 4
	c.LogLevel = "error"
	return c
}

func TestNewApp_InvalidConfig(t *testing.T) {
	c := testConfig()
	c.SecretKey = ""

	_, err := NewApp(context.Background(), c)
	require.Error(t, err)
}

func TestNewApp_StorageError(t *testing.T) {
	orig := openRepositories
	t.Cleanup(func() { openRepositories = orig })

	openRepositories = func(context.Context, string) (repomanager.RepositoryManager, error) {
		return nil, errors.New("connection refused")
	}

	_, err := NewApp(context.Background(), testConfig())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestApp_RunStopsOnCancel(t *testing.T) {
	app, err := NewApp(context.Background(), testConfig())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
