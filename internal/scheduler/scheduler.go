package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Scheduler triggers model retraining on a cron schedule.
type Scheduler struct {
	cron    *cron.Cron
	ctx     context.Context
	cancel  context.CancelFunc
	retrain func(ctx context.Context) error
	logger  *zap.Logger
}

func New(retrain func(ctx context.Context) error, logger *zap.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		cron:    cron.New(cron.WithLocation(time.UTC)),
		ctx:     ctx,
		cancel:  cancel,
		retrain: retrain,
		logger:  logger,
	}
}

// Start registers the retrain job under spec and starts the cron loop. An
// empty spec leaves the scheduler idle.
func (s *Scheduler) Start(spec string) error {
	if spec == "" {
		s.logger.Info("Retrain schedule not set, periodic retraining disabled")
		return nil
	}

	_, err := s.cron.AddFunc(spec, s.run)
	if err != nil {
		return fmt.Errorf("invalid retrain schedule %q: %w", spec, err)
	}

	s.cron.Start()
	s.logger.Info("Scheduler started", zap.String("schedule", spec))
	return nil
}

func (s *Scheduler) run() {
	s.logger.Debug("Triggered scheduled retrain")
	if err := s.retrain(s.ctx); err != nil {
		s.logger.Error("Scheduled retrain failed", zap.Error(err))
	}
}

func (s *Scheduler) Stop() {
	if s.cron != nil {
		ctx := s.cron.Stop()
		<-ctx.Done()
	}
	if s.cancel != nil {
		s.cancel()
	}
	s.logger.Info("Scheduler stopped")
}

// IsRunning reports whether a retrain job is registered.
func (s *Scheduler) IsRunning() bool {
	return s.cron != nil && len(s.cron.Entries()) > 0
}
