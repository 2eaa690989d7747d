package watcher

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"sync"

	"github.com/nats-io/nats.go"
)

const subjectPrefix = "aidemoi.session.expired."

// NATSBroadcaster publishes ExpiredEvents on core NATS so that several
// client processes of one origin expire together.
type NATSBroadcaster struct {
	conn *nats.Conn
}

// NewNATSBroadcaster connects to the NATS server at url.
func NewNATSBroadcaster(url string, opts ...nats.Option) (*NATSBroadcaster, error) {
	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, err
	}
	return &NATSBroadcaster{conn: nc}, nil
}

func (b *NATSBroadcaster) Publish(_ context.Context, ev ExpiredEvent) error {
	if b == nil || b.conn == nil {
		return errors.New("nil broadcaster")
	}

	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return b.conn.Publish(Subject(ev.Origin), data)
}

type natsSubscription struct {
	sub    *nats.Subscription
	mu     sync.Mutex
	closed bool
}

func (s *natsSubscription) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.sub.Unsubscribe()
}

// Subscribe delivers decoded events for origin to fn until the returned
// closer is closed or ctx is done. Undecodable messages are dropped.
func (b *NATSBroadcaster) Subscribe(ctx context.Context, origin string, fn func(ExpiredEvent)) (io.Closer, error) {
	if b == nil || b.conn == nil {
		return nil, errors.New("nil broadcaster")
	}
	if fn == nil {
		return nil, errors.New("nil handler")
	}

	sub, err := b.conn.Subscribe(Subject(origin), func(msg *nats.Msg) {
		var ev ExpiredEvent
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			return
		}
		fn(ev)
	})
	if err != nil {
		return nil, err
	}

	s := &natsSubscription{sub: sub}

	go func() {
		<-ctx.Done()
		_ = s.Close()
	}()

	return s, nil
}

// Close drains the connection, falling back to a hard close.
func (b *NATSBroadcaster) Close() error {
	if b == nil || b.conn == nil {
		return nil
	}
	if err := b.conn.Drain(); err != nil {
		b.conn.Close()
	}
	return nil
}

// Subject returns the NATS subject for origin. Characters with meaning in
// subjects are replaced so an origin always maps to a single token.
func Subject(origin string) string {
	if origin == "" {
		origin = "default"
	}
	r := strings.NewReplacer(".", "_", "*", "_", ">", "_", " ", "_", "\t", "_")
	return subjectPrefix + r.Replace(origin)
}
