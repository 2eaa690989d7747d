package cli

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aidemoi/aidemoi/internal/client/client"
	"github.com/aidemoi/aidemoi/internal/client/config"
	"github.com/aidemoi/aidemoi/internal/client/session"
	"github.com/aidemoi/aidemoi/internal/cryptox"
	"github.com/aidemoi/aidemoi/internal/jwtx"
	"github.com/aidemoi/aidemoi/internal/logging"
	"github.com/aidemoi/aidemoi/internal/server/httpapi"
	"github.com/aidemoi/aidemoi/internal/server/repositories/repomanager"
	"github.com/aidemoi/aidemoi/internal/server/services"
)

const strongPassword = "Passw0rd!"

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type testEnv struct {
	app *App
	out *syncBuffer
	srv *httptest.Server
}

// newTestEnv runs the real auth API over in-memory storage and points a
// client app with an in-memory SQLite database at it.
func newTestEnv(t *testing.T, codecCfg jwtx.Config) *testEnv {
	t.Helper()
	ctx := context.Background()

	if codecCfg.Secret == nil {
		codecCfg.Secret = []byte("test-secret")
	}
	codec, err := jwtx.NewCodec(codecCfg)
	require.NoError(t, err)

	svc := services.NewSessionService(repomanager.NewInMemoryRepositoryManager(), cryptox.NewPasswordHasher(4), codec, logging.Nop{})
	srv := httptest.NewServer(httpapi.Router(httpapi.RouterOptions{
		Sessions: svc,
		Verifier: codec,
		Registry: prometheus.NewRegistry(),
	}))
	t.Cleanup(srv.Close)

	db, err := client.InitDatabase(ctx, ":memory:")
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.ServerURL = srv.URL
	cfg.CheckInterval = time.Hour

	out := &syncBuffer{}
	app := newApp(cfg, db, client.NewHTTPClient(srv.URL, 2*time.Second), logging.Nop{}, strings.NewReader(""), out)
	require.NoError(t, app.store.Init(ctx))
	t.Cleanup(func() { _ = app.Close() })

	return &testEnv{app: app, out: out, srv: srv}
}

func (e *testEnv) run(args ...string) error {
	root := e.app.RootCommand()
	root.SetArgs(args)
	return root.ExecuteContext(context.Background())
}

func stubPasswords(t *testing.T, password string) {
	t.Helper()
	origPW, origNew := getPassword, getNewPassword
	t.Cleanup(func() { getPassword, getNewPassword = origPW, origNew })

	getPassword = func(string, io.Writer) ([]byte, error) { return []byte(password), nil }
	getNewPassword = func(io.Writer) ([]byte, error) { return []byte(password), nil }
}

func TestCLI_FullSessionFlow(t *testing.T) {
	env := newTestEnv(t, jwtx.Config{})
	stubPasswords(t, strongPassword)

	require.NoError(t, env.run("register", "--username", "ann", "--email", "ann@example.com"))
	assert.Contains(t, env.out.String(), "Registered ann@example.com")
	assert.False(t, env.app.store.IsAuthenticated())

	require.NoError(t, env.run("login", "--email", "ann@example.com"))
	assert.Contains(t, env.out.String(), "Logged in as ann (ann@example.com)")
	require.True(t, env.app.store.IsAuthenticated())

	require.NoError(t, env.run("profile"))
	assert.Contains(t, env.out.String(), "Username: ann")

	require.NoError(t, env.run("status"))
	assert.Contains(t, env.out.String(), "Server:   online")
	assert.Contains(t, env.out.String(), "Session:  ann (ann@example.com)")

	before := env.app.store.Snapshot().Tokens.RefreshToken
	require.NoError(t, env.run("refresh"))
	after := env.app.store.Snapshot().Tokens.RefreshToken
	assert.NotEqual(t, before, after)

	require.NoError(t, env.run("logout"))
	assert.False(t, env.app.store.IsAuthenticated())

	require.NoError(t, env.run("status"))
	assert.Contains(t, env.out.String(), "Session:  anonymous")
}

func TestCLI_LoginPromptsForEmail(t *testing.T) {
	env := newTestEnv(t, jwtx.Config{})
	stubPasswords(t, strongPassword)
	require.NoError(t, env.run("register", "--username", "bob", "--email", "bob@example.com"))

	env.app.in = rdr("bob@example.com\n")
	require.NoError(t, env.run("login"))
	assert.Contains(t, env.out.String(), "Email: ")
	assert.True(t, env.app.store.IsAuthenticated())
}

func TestCLI_LoginWrongPassword(t *testing.T) {
	env := newTestEnv(t, jwtx.Config{})
	stubPasswords(t, strongPassword)
	require.NoError(t, env.run("register", "--username", "ann", "--email", "ann@example.com"))

	stubPasswords(t, "Wr0ngPass!")
	err := env.run("login", "--email", "ann@example.com")

	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "Invalid email or password", apiErr.Message)
	assert.False(t, env.app.store.IsAuthenticated())
}

func TestCLI_RegisterRejectsWeakPasswordLocally(t *testing.T) {
	env := newTestEnv(t, jwtx.Config{})
	stubPasswords(t, "weak")

	err := env.run("register", "--username", "ann", "--email", "ann@example.com")
	require.Error(t, err)
	assert.Equal(t, "Password must be at least 8 characters long", err.Error())
	assert.Nil(t, env.app.store.Snapshot().User)
}

func TestCLI_RegisterDuplicate(t *testing.T) {
	env := newTestEnv(t, jwtx.Config{})
	stubPasswords(t, strongPassword)
	require.NoError(t, env.run("register", "--username", "ann", "--email", "ann@example.com"))

	err := env.run("register", "--username", "ann2", "--email", "ann@example.com")

	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.Status)
}

func TestCLI_AnonymousCommands(t *testing.T) {
	env := newTestEnv(t, jwtx.Config{})

	assert.ErrorIs(t, env.run("profile"), session.ErrNotAuthenticated)
	assert.ErrorIs(t, env.run("refresh"), session.ErrNotAuthenticated)
	assert.ErrorIs(t, env.run("logout", "--all"), session.ErrNotAuthenticated)
}

func TestCLI_LogoutAllRevokesRefreshToken(t *testing.T) {
	env := newTestEnv(t, jwtx.Config{})
	stubPasswords(t, strongPassword)
	require.NoError(t, env.run("register", "--username", "ann", "--email", "ann@example.com"))
	require.NoError(t, env.run("login", "--email", "ann@example.com"))

	refresh := env.app.store.Snapshot().Tokens.RefreshToken

	require.NoError(t, env.run("logout", "--all"))
	assert.Contains(t, env.out.String(), "Revoked 1 stored session(s)")
	assert.False(t, env.app.store.IsAuthenticated())

	_, err := env.app.api.Refresh(context.Background(), refresh)
	assert.ErrorIs(t, err, client.ErrUnauthorized)
}

func TestCLI_ProfileWithRejectedTokenExpiresSession(t *testing.T) {
	issued := time.Now().Add(-2 * time.Hour)
	env := newTestEnv(t, jwtx.Config{AccessTTL: "1h", Now: func() time.Time { return issued }})
	stubPasswords(t, strongPassword)
	require.NoError(t, env.run("register", "--username", "ann", "--email", "ann@example.com"))
	require.NoError(t, env.run("login", "--email", "ann@example.com"))

	// The server clock moves on; the stored access token is now stale.
	fresh := newTestEnv(t, jwtx.Config{})
	env.app.api = client.NewHTTPClient(fresh.srv.URL, 2*time.Second)

	err := env.run("profile")
	require.ErrorIs(t, err, client.ErrUnauthorized)
	assert.Contains(t, env.out.String(), "Session expired")
	assert.False(t, env.app.store.IsAuthenticated())
}

func TestCLI_WatchExpiresStaleSession(t *testing.T) {
	issued := time.Now().Add(-2 * time.Hour)
	env := newTestEnv(t, jwtx.Config{AccessTTL: "1h", Now: func() time.Time { return issued }})
	stubPasswords(t, strongPassword)
	require.NoError(t, env.run("register", "--username", "ann", "--email", "ann@example.com"))
	require.NoError(t, env.run("login", "--email", "ann@example.com"))
	require.True(t, env.app.store.IsAuthenticated())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- env.app.watch(ctx) }()

	require.Eventually(t, func() bool {
		return !env.app.store.IsAuthenticated()
	}, 2*time.Second, 10*time.Millisecond)
	assert.Contains(t, env.out.String(), "Session expired, please log in again")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not stop")
	}
}
