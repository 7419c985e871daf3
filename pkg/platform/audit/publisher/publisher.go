// Package publisher delivers audit events to a store, optionally through an
// async buffer so emitting never blocks a request path.
package publisher

import (
	"context"
	"log/slog"
	"sync"

	"turnstile/pkg/domain"
	audit "turnstile/pkg/platform/audit"
)

// Publisher fans audit events into a store. In sync mode Emit appends
// inline; with an async buffer Emit enqueues and a background goroutine
// drains. A full buffer drops the event rather than blocking the caller:
// audit completeness is best-effort relative to request latency.
type Publisher struct {
	store  audit.Store
	logger *slog.Logger

	inbox chan audit.Event
	wg    sync.WaitGroup

	closeOnce sync.Once
}

type Option func(*Publisher)

// WithAsyncBuffer enables asynchronous delivery with the given buffer size.
func WithAsyncBuffer(size int) Option {
	return func(p *Publisher) {
		if size > 0 {
			p.inbox = make(chan audit.Event, size)
		}
	}
}

// WithLogger sets the logger used to report dropped or failed events.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		if logger != nil {
			p.logger = logger
		}
	}
}

func NewPublisher(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{
		store:  store,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.inbox != nil {
		p.wg.Add(1)
		go p.drain()
	}
	return p
}

// Emit records an audit event. Async mode never blocks; a full buffer drops
// the event and logs.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if p.inbox == nil {
		return p.store.Append(ctx, event)
	}

	select {
	case p.inbox <- event:
		return nil
	default:
		p.logger.Warn("audit buffer full, dropping event", "action", event.Action)
		return nil
	}
}

// List returns the audit trail for a visitor.
func (p *Publisher) List(ctx context.Context, visitorID domain.VisitorID) ([]audit.Event, error) {
	return p.store.ListByVisitor(ctx, visitorID)
}

// Close drains any buffered events and stops the background worker. Safe to
// call more than once.
func (p *Publisher) Close() {
	p.closeOnce.Do(func() {
		if p.inbox != nil {
			close(p.inbox)
			p.wg.Wait()
		}
	})
}

func (p *Publisher) drain() {
	defer p.wg.Done()
	for event := range p.inbox {
		// Detached context: the originating request may be long gone.
		if err := p.store.Append(context.Background(), event); err != nil {
			p.logger.Error("audit append failed", "action", event.Action, "error", err)
		}
	}
}
