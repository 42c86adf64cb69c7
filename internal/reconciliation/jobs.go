package reconciliation

import (
	"context"
	"sync"
	"time"

	"busline/internal/shared/config"
	"busline/pkg/logger"
)

// Completer closes confirmed bookings whose trip is over
type Completer interface {
	CompleteDepartedBookings(ctx context.Context, before string, limit int) (int, error)
}

// JobProcessor runs the orphan sweep and booking completion in the background
type JobProcessor struct {
	service   Service
	completer Completer
	config    config.ReconciliationConfig
	logger    *logger.Logger
	now       func() time.Time

	mu      sync.Mutex
	done    chan struct{}
	wg      sync.WaitGroup
	running bool
}

// NewJobProcessor creates a new job processor
func NewJobProcessor(service Service, completer Completer, cfg config.ReconciliationConfig) *JobProcessor {
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = 5 * time.Minute
	}
	if cfg.CompletionInterval <= 0 {
		cfg.CompletionInterval = time.Hour
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 200
	}
	return &JobProcessor{
		service:   service,
		completer: completer,
		config:    cfg,
		logger:    logger.GetDefault().WithComponent("reconciliation-jobs"),
		now:       time.Now,
	}
}

// Start starts all background jobs. They stop on Stop or when ctx is done.
func (jp *JobProcessor) Start(ctx context.Context) {
	jp.mu.Lock()
	defer jp.mu.Unlock()
	if jp.running {
		return
	}
	jp.running = true
	jp.done = make(chan struct{})

	jp.wg.Add(2)
	go jp.loop(ctx, "sweep", jp.config.SweepInterval, jp.sweep)
	go jp.loop(ctx, "completion", jp.config.CompletionInterval, jp.completeDeparted)

	jp.logger.Info("Reconciliation jobs started",
		"sweep_interval", jp.config.SweepInterval.String(),
		"completion_interval", jp.config.CompletionInterval.String(),
	)
}

// Stop stops all background jobs and waits for a running pass to finish
func (jp *JobProcessor) Stop() {
	jp.mu.Lock()
	if !jp.running {
		jp.mu.Unlock()
		return
	}
	jp.running = false
	close(jp.done)
	jp.mu.Unlock()

	jp.wg.Wait()
	jp.logger.Info("Reconciliation jobs stopped")
}

func (jp *JobProcessor) loop(ctx context.Context, name string, interval time.Duration, run func(context.Context)) {
	defer jp.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Run immediately on startup
	run(ctx)

	for {
		select {
		case <-ticker.C:
			run(ctx)
		case <-jp.done:
			return
		case <-ctx.Done():
			jp.logger.Debug("job context done", "job", name)
			return
		}
	}
}

func (jp *JobProcessor) sweep(ctx context.Context) {
	if _, err := jp.service.Sweep(ctx); err != nil {
		jp.logger.ErrorWithContext(ctx, "Reconciliation sweep failed", err, nil)
	}
}

func (jp *JobProcessor) completeDeparted(ctx context.Context) {
	before := departedBefore(jp.now(), jp.config.CompletionGraceInDays)
	completed, err := jp.completer.CompleteDepartedBookings(ctx, before, jp.config.BatchSize)
	if err != nil {
		jp.logger.ErrorWithContext(ctx, "Completing departed bookings failed", err, map[string]interface{}{
			"before": before,
		})
		return
	}
	if completed > 0 {
		jp.logger.InfoWithContext(ctx, "Completed departed bookings", map[string]interface{}{
			"count":  completed,
			"before": before,
		})
	}
}

// GetJobStatus returns the status of background jobs
func (jp *JobProcessor) GetJobStatus() map[string]interface{} {
	jp.mu.Lock()
	running := jp.running
	jp.mu.Unlock()

	status := "stopped"
	if running {
		status = "running"
	}
	return map[string]interface{}{
		"sweep_interval":      jp.config.SweepInterval.String(),
		"completion_interval": jp.config.CompletionInterval.String(),
		"batch_size":          jp.config.BatchSize,
		"auto_release":        jp.config.AutoRelease,
		"status":              status,
	}
}
