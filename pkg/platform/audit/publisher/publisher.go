// Package publisher fronts an audit.Store with optional asynchronous delivery.
package publisher

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	id "dicri/pkg/domain"
	audit "dicri/pkg/platform/audit"
	"dicri/pkg/platform/audit/worker"
)

var ErrBufferFull = errors.New("audit buffer full")

// Lister is implemented by stores that can be read back.
type Lister interface {
	ListByUser(ctx context.Context, userID id.UserID) ([]audit.Event, error)
}

// Publisher writes events synchronously by default. WithAsyncBuffer switches
// it to a buffered channel drained by a background worker.
type Publisher struct {
	store  audit.Store
	logger *slog.Logger
	buffer int

	inbox     chan audit.Event
	done      chan struct{}
	closeOnce sync.Once
	mu        sync.RWMutex
	closed    bool
}

type Option func(*Publisher)

// WithAsyncBuffer enables async delivery with a channel of size n.
func WithAsyncBuffer(n int) Option {
	return func(p *Publisher) {
		p.buffer = n
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func NewPublisher(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	if p.buffer > 0 {
		p.inbox = make(chan audit.Event, p.buffer)
		p.done = make(chan struct{})
		w := worker.NewWorker(store, p.inbox, p.logger)
		go func() {
			defer close(p.done)
			_ = w.Run(context.Background())
		}()
	}
	return p
}

// Emit stamps the event and hands it to the store. In async mode a full
// buffer drops the event and returns ErrBufferFull.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.Category == "" {
		event.Category = audit.AuditEvent(event.Action).Category()
	}
	if p.inbox == nil {
		return p.store.Append(ctx, event)
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return p.store.Append(ctx, event)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case p.inbox <- event:
		return nil
	default:
		p.logger.WarnContext(ctx, "audit buffer full, dropping event", "action", event.Action)
		return ErrBufferFull
	}
}

// List reads events back when the store supports it.
func (p *Publisher) List(ctx context.Context, userID id.UserID) ([]audit.Event, error) {
	lister, ok := p.store.(Lister)
	if !ok {
		return nil, errors.New("audit store does not support listing")
	}
	return lister.ListByUser(ctx, userID)
}

// Close stops accepting async events and waits until the buffer is drained.
func (p *Publisher) Close() {
	p.closeOnce.Do(func() {
		if p.inbox == nil {
			return
		}
		p.mu.Lock()
		p.closed = true
		close(p.inbox)
		p.mu.Unlock()
		<-p.done
	})
}
