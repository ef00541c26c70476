package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"farm_backend/pkg/metrics"
	"farm_backend/pkg/utils"
)

var (
	// ErrQueueFull is reported when an event is dropped for lack of queue space.
	ErrQueueFull = errors.New("event queue full")
	// ErrDispatcherClosed is reported when an event arrives after Close.
	ErrDispatcherClosed = errors.New("event dispatcher closed")
)

// DispatcherConfig sizes the queue and bounds each delivery.
type DispatcherConfig struct {
	QueueSize      int
	PublishTimeout time.Duration
}

// Dispatcher fans events out to publishers on a single background worker.
// Delivery failures never reach the producer of the event; they are sent to
// Errors() instead.
type Dispatcher struct {
	publishers []Publisher
	timeout    time.Duration
	metrics    *metrics.Metrics

	queue chan Event
	errs  chan error

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
	once   sync.Once
}

// NewDispatcher starts the worker.
func NewDispatcher(cfg DispatcherConfig, m *metrics.Metrics, publishers ...Publisher) *Dispatcher {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = 5 * time.Second
	}
	d := &Dispatcher{
		publishers: publishers,
		timeout:    cfg.PublishTimeout,
		metrics:    m,
		queue:      make(chan Event, cfg.QueueSize),
		errs:       make(chan error, cfg.QueueSize),
	}
	d.wg.Add(1)
	go d.run()
	return d
}

// Notify enqueues e. It never blocks: when the queue is full the event is dropped.
func (d *Dispatcher) Notify(e Event) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.metrics.EventDropped()
		utils.LogWarn(fmt.Errorf("%w: %s event %s", ErrDispatcherClosed, e.Type, e.ID), "event dropped")
		return
	}
	select {
	case d.queue <- e:
	default:
		d.metrics.EventDropped()
		d.report(fmt.Errorf("%w: %s event %s", ErrQueueFull, e.Type, e.ID))
	}
}

// Errors returns delivery failures and drops. It is closed by Close.
func (d *Dispatcher) Errors() <-chan error {
	return d.errs
}

// Close stops accepting events, delivers what is queued and waits for the worker.
func (d *Dispatcher) Close() {
	d.once.Do(func() {
		d.mu.Lock()
		d.closed = true
		close(d.queue)
		d.mu.Unlock()

		d.wg.Wait()
		close(d.errs)
	})
}

func (d *Dispatcher) run() {
	defer d.wg.Done()
	for e := range d.queue {
		for _, p := range d.publishers {
			d.deliver(p, e)
		}
	}
}

// deliver detaches from any request context; the request is long gone.
func (d *Dispatcher) deliver(p Publisher, e Event) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()
	if err := p.Publish(ctx, e); err != nil {
		d.report(fmt.Errorf("%s publisher: %s event %s: %w", p.Name(), e.Type, e.ID, err))
	}
}

// report never blocks; when nobody drains Errors() the failure is logged here.
func (d *Dispatcher) report(err error) {
	select {
	case d.errs <- err:
	default:
		utils.LogWarn(err, "event error channel full")
	}
}
