package notifications

import (
	"context"
	"errors"
	"sync"

	"busline/pkg/logger"
)

// Publisher accepts events for asynchronous delivery.
type Publisher interface {
	Publish(ctx context.Context, event Event)
}

var (
	ErrDispatcherStopped = errors.New("dispatcher is not running")
	ErrQueueFull         = errors.New("notification queue is full")
)

// Dispatcher hands events to a Notifier from a bounded queue drained by worker
// goroutines. Publish never blocks; when the queue is full the event is dropped.
type Dispatcher struct {
	notifier Notifier
	workers  int
	queue    chan Event
	logger   *logger.Logger

	mu        sync.RWMutex
	isRunning bool
	wg        sync.WaitGroup
}

func NewDispatcher(notifier Notifier, workers, queueSize int) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	return &Dispatcher{
		notifier: notifier,
		workers:  workers,
		queue:    make(chan Event, queueSize),
		logger:   logger.GetDefault().WithComponent("notifications"),
	}
}

// Start launches the workers. They run until Stop is called.
func (d *Dispatcher) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.isRunning {
		return
	}
	d.isRunning = true

	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker(i)
	}
	d.logger.Info("Notification dispatcher started", "workers", d.workers, "queue_size", cap(d.queue))
}

// Stop drains the queued events, waits for the workers and closes the notifier.
func (d *Dispatcher) Stop() error {
	d.mu.Lock()
	if !d.isRunning {
		d.mu.Unlock()
		return nil
	}
	d.isRunning = false
	close(d.queue)
	d.mu.Unlock()

	d.wg.Wait()
	d.logger.Info("Notification dispatcher stopped")
	return d.notifier.Close()
}

// Publish enqueues the event without waiting for delivery.
func (d *Dispatcher) Publish(ctx context.Context, event Event) {
	if err := d.TryPublish(event); err != nil {
		d.logger.WarnContext(ctx, "notification dropped",
			"event_id", event.ID.String(),
			"type", event.Type,
			"error", err,
		)
	}
}

// TryPublish reports why an event could not be queued.
func (d *Dispatcher) TryPublish(event Event) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if !d.isRunning {
		return ErrDispatcherStopped
	}
	select {
	case d.queue <- event:
		return nil
	default:
		return ErrQueueFull
	}
}

func (d *Dispatcher) worker(id int) {
	defer d.wg.Done()

	for event := range d.queue {
		if err := d.notifier.Notify(context.Background(), event); err != nil {
			d.logger.Error("notification delivery failed",
				"worker", id,
				"event_id", event.ID.String(),
				"type", event.Type,
				"error", err,
			)
		}
	}
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(ctx context.Context, event Event)

func (f PublisherFunc) Publish(ctx context.Context, event Event) {
	f(ctx, event)
}

// NopPublisher discards every event.
var NopPublisher Publisher = PublisherFunc(func(context.Context, Event) {})
