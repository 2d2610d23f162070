// Package publisher fans audit events out to a store, synchronously or through
// a buffered background worker.
package publisher

import (
	"context"
	"sync"
	"time"

	audit "caseflow/pkg/platform/audit"
)

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event audit.Event) error
	ListByPrincipal(ctx context.Context, principal int64) ([]audit.Event, error)
}

// Publisher writes audit events to a Store. By default Emit appends
// synchronously; WithAsyncBuffer switches to a background worker with a
// bounded channel, in which case Close drains pending events.
type Publisher struct {
	store Store

	ch chan audit.Event
	wg sync.WaitGroup

	// mu guards closed and the send into ch so Emit can never race a
	// concurrent Close onto a closed channel.
	mu     sync.Mutex
	closed bool
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithAsyncBuffer enables asynchronous emission with the given channel capacity.
func WithAsyncBuffer(size int) Option {
	return func(p *Publisher) {
		p.ch = make(chan audit.Event, size)
	}
}

// NewPublisher creates a Publisher backed by store.
func NewPublisher(store Store, opts ...Option) *Publisher {
	p := &Publisher{
		store: store,
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.ch != nil {
		p.wg.Add(1)
		go p.drain()
	}

	return p
}

// Emit records an audit event, stamping the time when the caller left it zero.
// In async mode a full buffer falls back to a synchronous append rather than
// dropping the event; an Emit that arrives after Close appends synchronously
// as well.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	if p.ch == nil {
		return p.store.Append(ctx, event)
	}

	p.mu.Lock()
	if !p.closed {
		select {
		case p.ch <- event:
			p.mu.Unlock()
			return nil
		default:
		}
	}
	p.mu.Unlock()

	return p.store.Append(ctx, event)
}

// List returns the events recorded for a principal.
func (p *Publisher) List(ctx context.Context, principal int64) ([]audit.Event, error) {
	return p.store.ListByPrincipal(ctx, principal)
}

// Close stops the background worker, draining any buffered events first.
// Safe to call on a synchronous publisher and safe to call twice.
func (p *Publisher) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	if p.ch != nil {
		close(p.ch)
	}
	p.mu.Unlock()

	if p.ch != nil {
		p.wg.Wait()
	}
}

func (p *Publisher) drain() {
	defer p.wg.Done()
	for event := range p.ch {
		// Context is gone by the time the worker runs; Background keeps the
		// append from inheriting a cancelled request context.
		_ = p.store.Append(context.Background(), event)
	}
}
