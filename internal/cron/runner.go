// Package cron schedules the background feedback resync
package cron

import (
	"context"
	"fmt"
	"sync"
	"time"

	robfig "github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Syncer retries deliveries that failed earlier.
type Syncer interface {
	SyncPending(ctx context.Context) (int, error)
}

// Config holds cron runner configuration
type Config struct {
	// Schedule is a standard five-field expression or a descriptor such as
	// "@every 15m" or "@hourly".
	Schedule string
	// Timeout bounds a single sync run.
	Timeout time.Duration
}

// Runner runs the syncer on a schedule
type Runner struct {
	config  Config
	syncer  Syncer
	logger  *zap.Logger
	cron    *robfig.Cron
	cancel  context.CancelFunc
	running bool
	lastRun time.Time
	mu      sync.RWMutex
}

// zapLogger adapts zap to the cron library's logger
type zapLogger struct {
	s *zap.SugaredLogger
}

func (l zapLogger) Info(msg string, keysAndValues ...any) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l zapLogger) Error(err error, msg string, keysAndValues ...any) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}

// NewRunner validates the schedule and prepares a stopped runner
func NewRunner(config Config, syncer Syncer, logger *zap.Logger) (*Runner, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.Schedule == "" {
		config.Schedule = "@every 15m"
	}
	if config.Timeout <= 0 {
		config.Timeout = time.Minute
	}
	if _, err := robfig.ParseStandard(config.Schedule); err != nil {
		return nil, fmt.Errorf("invalid sync schedule %q: %w", config.Schedule, err)
	}

	cl := zapLogger{s: logger.Sugar()}
	return &Runner{
		config: config,
		syncer: syncer,
		logger: logger,
		cron: robfig.New(
			robfig.WithLogger(cl),
			robfig.WithChain(robfig.Recover(cl), robfig.SkipIfStillRunning(cl)),
		),
	}, nil
}

// Start schedules the sync job
func (r *Runner) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return fmt.Errorf("cron runner already running")
	}

	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	if _, err := r.cron.AddFunc(r.config.Schedule, func() { r.RunNow(ctx) }); err != nil {
		r.cancel()
		return fmt.Errorf("failed to schedule feedback sync: %w", err)
	}
	r.cron.Start()
	r.running = true

	r.logger.Info("Cron runner started", zap.String("schedule", r.config.Schedule))
	return nil
}

// Stop cancels an in-flight run and waits for it to return
func (r *Runner) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.running = false
	r.mu.Unlock()

	r.cancel()
	<-r.cron.Stop().Done()
	for _, e := range r.cron.Entries() {
		r.cron.Remove(e.ID)
	}
	r.logger.Info("Cron runner stopped")
}

// IsRunning returns whether the runner is active
func (r *Runner) IsRunning() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.running
}

// LastRun returns when the syncer last finished, zero if never.
func (r *Runner) LastRun() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastRun
}

// Next returns the next scheduled run, zero when stopped.
func (r *Runner) Next() time.Time {
	entries := r.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

// RunNow performs one sync outside the schedule
func (r *Runner) RunNow(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, r.config.Timeout)
	defer cancel()

	synced, err := r.syncer.SyncPending(ctx)

	r.mu.Lock()
	r.lastRun = time.Now()
	r.mu.Unlock()

	if err != nil {
		r.logger.Error("Feedback sync failed", zap.Error(err))
		return synced, err
	}
	if synced > 0 {
		r.logger.Info("Feedback sync completed", zap.Int("synced", synced))
	}
	return synced, nil
}
