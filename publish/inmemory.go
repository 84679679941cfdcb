package publish

import (
	"context"
	"sync"
)

// Hooks provides optional callbacks for publisher operations.
type Hooks struct {
	OnPublish func(rec Record)
	OnDrop    func(rec Record)
}

// Options configures the in-memory publisher.
type Options struct {
	// Capacity bounds the number of retained records; the oldest is dropped
	// when full. Zero means 1024.
	Capacity int
	Hooks    Hooks
}

// InMemoryPublisher keeps records in a bounded ring for local runs and tests.
type InMemoryPublisher struct {
	mu      sync.Mutex
	records []Record
	closed  bool
	opts    Options
	notify  chan struct{}
}

var _ Publisher = (*InMemoryPublisher)(nil)

// NewInMemoryPublisher creates an in-memory publisher.
func NewInMemoryPublisher() *InMemoryPublisher {
	return NewInMemoryPublisherWithOptions(Options{})
}

// NewInMemoryPublisherWithOptions creates an in-memory publisher with options.
func NewInMemoryPublisherWithOptions(opts Options) *InMemoryPublisher {
	if opts.Capacity <= 0 {
		opts.Capacity = 1024
	}
	return &InMemoryPublisher{opts: opts, notify: make(chan struct{}, 1)}
}

func (p *InMemoryPublisher) Publish(ctx context.Context, rec Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	if len(p.records) >= p.opts.Capacity {
		dropped := p.records[0]
		p.records = p.records[1:]
		if p.opts.Hooks.OnDrop != nil {
			p.opts.Hooks.OnDrop(dropped)
		}
	}
	p.records = append(p.records, rec)
	p.mu.Unlock()

	if p.opts.Hooks.OnPublish != nil {
		p.opts.Hooks.OnPublish(rec)
	}
	select {
	case p.notify <- struct{}{}:
	default:
	}
	return nil
}

// Records returns a copy of the retained records, oldest first.
func (p *InMemoryPublisher) Records() []Record {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Record, len(p.records))
	copy(out, p.records)
	return out
}

// Len returns the number of retained records.
func (p *InMemoryPublisher) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.records)
}

// Wait blocks until at least one record was published since the last Wait
// or ctx is done.
func (p *InMemoryPublisher) Wait(ctx context.Context) error {
	select {
	case <-p.notify:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *InMemoryPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}
