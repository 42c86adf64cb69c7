package notifications

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []Event
	block  chan struct{}
	closed bool
	fail   error
}

func (r *recordingNotifier) Notify(ctx context.Context, event Event) error {
	if r.block != nil {
		<-r.block
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return r.fail
}

func (r *recordingNotifier) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

func (r *recordingNotifier) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func TestDispatcher_DeliversAndDrainsOnStop(t *testing.T) {
	notifier := &recordingNotifier{}
	d := NewDispatcher(notifier, 2, 16)
	d.Start()

	for i := 0; i < 10; i++ {
		d.Publish(context.Background(), NewEventBuilder(EventBookingCreated).Build())
	}

	require.NoError(t, d.Stop())
	assert.Equal(t, 10, notifier.count())
	assert.True(t, notifier.closed)
}

func TestDispatcher_DropsWhenFull(t *testing.T) {
	notifier := &recordingNotifier{block: make(chan struct{})}
	d := NewDispatcher(notifier, 1, 1)
	d.Start()

	// The worker takes the first event and blocks; the second fills the queue.
	require.NoError(t, d.TryPublish(NewEventBuilder(EventBookingCreated).Build()))
	require.Eventually(t, func() bool { return len(d.queue) == 0 }, time.Second, 5*time.Millisecond)
	require.NoError(t, d.TryPublish(NewEventBuilder(EventBookingCreated).Build()))

	err := d.TryPublish(NewEventBuilder(EventBookingCreated).Build())
	assert.ErrorIs(t, err, ErrQueueFull)

	close(notifier.block)
	require.NoError(t, d.Stop())
	assert.Equal(t, 2, notifier.count())
}

func TestDispatcher_RejectsAfterStop(t *testing.T) {
	d := NewDispatcher(&recordingNotifier{}, 1, 4)
	assert.ErrorIs(t, d.TryPublish(Event{}), ErrDispatcherStopped)

	d.Start()
	require.NoError(t, d.Stop())
	assert.ErrorIs(t, d.TryPublish(Event{}), ErrDispatcherStopped)

	// Publish after stop only logs.
	d.Publish(context.Background(), Event{})
}

func TestDispatcher_DeliveryErrorsDoNotStopWorkers(t *testing.T) {
	notifier := &recordingNotifier{fail: errors.New("broker down")}
	d := NewDispatcher(notifier, 1, 4)
	d.Start()

	d.Publish(context.Background(), NewEventBuilder(EventPaymentRejected).Build())
	d.Publish(context.Background(), NewEventBuilder(EventPaymentRejected).Build())

	require.NoError(t, d.Stop())
	assert.Equal(t, 2, notifier.count())
}
