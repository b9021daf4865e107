// Package eventbus dispatches listing events to listeners on a bounded worker pool.
// Every listener invocation runs in its own transaction; failures are logged and never reach the publisher.
package eventbus

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"carmarket-backend/internal/domain/events"

	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"
	"gorm.io/gorm"
)

const (
	DefaultWorkers   = 4
	DefaultQueueSize = 256
)

// TxRunner runs fn inside a new transaction that commits when fn returns nil and rolls back otherwise.
type TxRunner interface {
	Run(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Listener handles one event kind.
type Listener interface {
	Name() string
	Kind() events.Kind
	Handle(ctx context.Context, tx *gorm.DB, ev events.Event) error
}

// Options configures the worker pool.
type Options struct {
	Workers   int
	QueueSize int
}

type job struct {
	listener Listener
	event    events.Event
}

// Bus is a publish/subscribe registry keyed by event kind.
type Bus struct {
	runner TxRunner

	mu        sync.RWMutex
	listeners map[events.Kind][]Listener
	closed    bool

	jobs    chan job
	workers *pool.Pool

	dropped   atomic.Int64
	failed    atomic.Int64
	delivered atomic.Int64
}

// New starts the workers. Call Close to drain and stop them.
func New(runner TxRunner, opts Options) *Bus {
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = DefaultQueueSize
	}
	b := &Bus{
		runner:    runner,
		listeners: make(map[events.Kind][]Listener),
		jobs:      make(chan job, opts.QueueSize),
		workers:   pool.New().WithMaxGoroutines(opts.Workers),
	}
	for i := 0; i < opts.Workers; i++ {
		b.workers.Go(b.work)
	}
	return b
}

// Subscribe registers l for its kind.
func (b *Bus) Subscribe(l Listener) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners[l.Kind()] = append(b.listeners[l.Kind()], l)
}

// Listeners returns the names of listeners registered for kind.
func (b *Bus) Listeners(kind events.Kind) []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	names := make([]string, 0, len(b.listeners[kind]))
	for _, l := range b.listeners[kind] {
		names = append(names, l.Name())
	}
	return names
}

// Publish hands ev to every listener of its kind and returns without waiting for them.
// A job that does not fit in the queue, or arrives after Close, is dropped and logged.
func (b *Bus) Publish(ev events.Event) {
	if ev == nil {
		return
	}
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		log.Warn().Str("event", string(ev.Kind())).Str("summary", ev.Summary()).Msg("event bus closed, event dropped")
		return
	}
	for _, l := range b.listeners[ev.Kind()] {
		select {
		case b.jobs <- job{listener: l, event: ev}:
		default:
			b.dropped.Add(1)
			log.Error().
				Str("listener", l.Name()).
				Str("event", string(ev.Kind())).
				Str("event_id", ev.ID().String()).
				Str("summary", ev.Summary()).
				Msg("event queue full, listener job dropped")
		}
	}
}

// Close stops accepting events and waits for queued jobs to finish.
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	close(b.jobs)
	b.mu.Unlock()

	b.workers.Wait()
}

// Stats reports delivered, failed and dropped listener jobs since start.
func (b *Bus) Stats() (delivered, failed, dropped int64) {
	return b.delivered.Load(), b.failed.Load(), b.dropped.Load()
}

func (b *Bus) work() {
	for j := range b.jobs {
		b.dispatch(j)
	}
}

// dispatch is the failure boundary: errors and panics stop here.
func (b *Bus) dispatch(j job) {
	start := time.Now()
	err := b.invoke(j)
	logger := log.With().
		Str("listener", j.listener.Name()).
		Str("event", string(j.event.Kind())).
		Str("event_id", j.event.ID().String()).
		Int64("ms", time.Since(start).Milliseconds()).
		Logger()
	if err != nil {
		b.failed.Add(1)
		logger.Error().Err(err).Str("summary", j.event.Summary()).Msg("listing event listener failed")
		return
	}
	b.delivered.Add(1)
	logger.Debug().Msg("listing event listener done")
}

func (b *Bus) invoke(j job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("listener panic: %v", r)
		}
	}()
	// Listeners are detached from the request that published the event.
	ctx := context.Background()
	return b.runner.Run(ctx, func(tx *gorm.DB) error {
		return j.listener.Handle(ctx, tx, j.event)
	})
}
