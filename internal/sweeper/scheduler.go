package sweeper

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// cronLogger adapts zap to cron.Logger
type cronLogger struct {
	logger *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Errorw(msg, append(keysAndValues, "error", err)...)
}

// ErrSweepInProgress is returned by RunNow while another sweep is running.
var ErrSweepInProgress = errors.New("sweep already in progress")

// Runner is anything that can perform one sweep.
type Runner interface {
	RunOnce(ctx context.Context) (Summary, error)
}

// Scheduler runs sweeps on a cron schedule. A tick that fires while the
// previous sweep is still running is skipped.
type Scheduler struct {
	cron   *cron.Cron
	runner Runner
	logger *zap.Logger

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

func NewScheduler(schedule string, runner Runner, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	cl := cronLogger{logger: logger.Sugar()}

	s := &Scheduler{
		runner: runner,
		logger: logger,
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())

	if _, err := s.cron.AddFunc(schedule, s.tick); err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", schedule, err)
	}
	return s, nil
}

func (s *Scheduler) tick() {
	if _, err := s.RunNow(s.ctx); err != nil {
		if errors.Is(err, ErrSweepInProgress) {
			s.logger.Warn("skipping scheduled sweep, previous sweep still running")
			return
		}
		s.logger.Error("scheduled sweep failed", zap.Error(err))
	}
}

// RunNow sweeps immediately unless a sweep is already running.
// Manual and scheduled sweeps share the same guard.
func (s *Scheduler) RunNow(ctx context.Context) (Summary, error) {
	if !s.running.CompareAndSwap(false, true) {
		return Summary{}, ErrSweepInProgress
	}
	defer s.running.Store(false)

	return s.runner.RunOnce(ctx)
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("sweep scheduler started")
}

// Stop cancels a running sweep and waits for it to return or for ctx to end.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.cancel()
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
