// Package watcher checks the stored access token for upcoming expiry,
// warns shortly before it and expires the session when it runs out,
// telling the other tabs of the same origin to do the same.
package watcher

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/aidemoi/aidemoi/internal/jwtx"
	"github.com/aidemoi/aidemoi/internal/logging"
)

const (
	DefaultInterval   = 5 * time.Minute
	DefaultWarnBefore = 60 * time.Second
)

// TokenSource reads the access token from durable storage. An empty token
// means nothing is stored.
type TokenSource interface {
	StoredAccessToken(ctx context.Context) (string, error)
}

type Config struct {
	Interval   time.Duration
	WarnBefore time.Duration
	Origin     string

	// OnWarn receives the time left when it is within WarnBefore.
	OnWarn func(left time.Duration)
	// OnExpire runs when the local token ran out or another tab reported
	// expiry.
	OnExpire func()

	Now func() time.Time
}

type Watcher struct {
	tokens      TokenSource
	broadcaster Broadcaster
	cfg         Config
	tabID       string
	logger      logging.Logger

	nudge  chan struct{}
	remote chan ExpiredEvent
}

func New(tokens TokenSource, b Broadcaster, cfg Config, logger logging.Logger) *Watcher {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.WarnBefore <= 0 {
		cfg.WarnBefore = DefaultWarnBefore
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.OnWarn == nil {
		cfg.OnWarn = func(time.Duration) {}
	}
	if cfg.OnExpire == nil {
		cfg.OnExpire = func() {}
	}
	if b == nil {
		b = NewMemoryBroadcaster()
	}
	if logger == nil {
		logger = logging.Nop{}
	}

	tabID := uuid.NewString()

	return &Watcher{
		tokens:      tokens,
		broadcaster: b,
		cfg:         cfg,
		tabID:       tabID,
		logger:      logger.With("module", "watcher", "tab", tabID),
		nudge:       make(chan struct{}, 1),
		remote:      make(chan ExpiredEvent, 8),
	}
}

func (w *Watcher) TabID() string { return w.tabID }

// Nudge asks for an immediate check, e.g. when the user returns to the
// terminal. It never blocks.
func (w *Watcher) Nudge() {
	select {
	case w.nudge <- struct{}{}:
	default:
	}
}

// Run checks on start, on every tick and on Nudge until ctx is cancelled.
// Expiry events from other tabs of the same origin trigger OnExpire.
func (w *Watcher) Run(ctx context.Context) error {
	sub, err := w.broadcaster.Subscribe(ctx, w.cfg.Origin, w.receive)
	if err != nil {
		return err
	}
	defer func(c io.Closer) { _ = c.Close() }(sub)

	w.check(ctx)

	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.check(ctx)
		case <-w.nudge:
			w.check(ctx)
		case ev := <-w.remote:
			w.logger.Info(ctx, "session expired in another tab", "from", ev.TabID)
			w.cfg.OnExpire()
		case <-ctx.Done():
			return nil
		}
	}
}

// Close releases the broadcaster.
func (w *Watcher) Close() error {
	return w.broadcaster.Close()
}

func (w *Watcher) receive(ev ExpiredEvent) {
	if ev.TabID == w.tabID || ev.Origin != w.cfg.Origin {
		return
	}
	select {
	case w.remote <- ev:
	default:
	}
}

func (w *Watcher) check(ctx context.Context) {
	token, err := w.tokens.StoredAccessToken(ctx)
	if err != nil {
		w.logger.Warn(ctx, "reading stored token failed", "error", err)
		return
	}
	if token == "" {
		return
	}

	exp, ok := jwtx.DecodeExpiry(token)
	if !ok {
		w.logger.Debug(ctx, "stored token has no readable expiry")
		return
	}

	now := w.cfg.Now()
	left := exp.Sub(now)

	switch {
	case left <= 0:
		w.cfg.OnExpire()
		ev := ExpiredEvent{Origin: w.cfg.Origin, TabID: w.tabID, At: now}
		if err := w.broadcaster.Publish(ctx, ev); err != nil {
			w.logger.Warn(ctx, "publishing expiry failed", "error", err)
		}
	case left <= w.cfg.WarnBefore:
		w.cfg.OnWarn(left)
	}
}
