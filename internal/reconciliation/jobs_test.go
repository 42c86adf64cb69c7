package reconciliation

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"busline/internal/shared/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockCompleter struct {
	mock.Mock
	runs atomic.Int32
}

func (m *mockCompleter) CompleteDepartedBookings(ctx context.Context, before string, limit int) (int, error) {
	defer m.runs.Add(1)
	args := m.Called(ctx, before, limit)
	return args.Int(0), args.Error(1)
}

type countingSweeper struct {
	Service
	sweeps atomic.Int32
}

func (c *countingSweeper) Sweep(ctx context.Context) (*SweepResult, error) {
	c.sweeps.Add(1)
	return &SweepResult{}, nil
}

func TestJobProcessor_RunsOnStartAndStops(t *testing.T) {
	sweeper := &countingSweeper{}
	completer := &mockCompleter{}
	completer.On("CompleteDepartedBookings", mock.Anything, "2025-01-11", 25).Return(3, nil)

	jp := NewJobProcessor(sweeper, completer, config.ReconciliationConfig{
		SweepInterval:         time.Hour,
		CompletionInterval:    time.Hour,
		BatchSize:             25,
		CompletionGraceInDays: 1,
	})
	jp.now = func() time.Time { return time.Date(2025, 1, 12, 8, 0, 0, 0, time.UTC) }

	jp.Start(context.Background())
	assert.Equal(t, "running", jp.GetJobStatus()["status"])

	assert.Eventually(t, func() bool {
		return sweeper.sweeps.Load() == 1 && completer.runs.Load() == 1
	}, time.Second, 10*time.Millisecond)

	jp.Stop()
	jp.Stop()
	assert.Equal(t, "stopped", jp.GetJobStatus()["status"])
	completer.AssertExpectations(t)
}

func TestJobProcessor_StopsWithContext(t *testing.T) {
	sweeper := &countingSweeper{}
	completer := &mockCompleter{}
	completer.On("CompleteDepartedBookings", mock.Anything, mock.Anything, mock.Anything).Return(0, nil)

	jp := NewJobProcessor(sweeper, completer, config.ReconciliationConfig{})
	ctx, cancel := context.WithCancel(context.Background())
	jp.Start(ctx)
	cancel()

	done := make(chan struct{})
	go func() {
		jp.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("jobs did not stop")
	}
}
