package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// escalationSweeper advances overdue tickets through the escalation ladder.
type escalationSweeper interface {
	RunEscalationSweep(ctx context.Context, now time.Time) (int, error)
}

// auditCleaner removes audit entries past their retention window.
type auditCleaner interface {
	Cleanup(ctx context.Context, now time.Time) (int64, error)
}

// codePurger removes used or expired one-time codes.
type codePurger interface {
	DeleteStaleResetCodes(ctx context.Context, olderThan time.Time) (int64, error)
	DeleteStaleVerificationCodes(ctx context.Context, olderThan time.Time) (int64, error)
}

// SchedulerConfig controls job cadence and code lifetimes.
type SchedulerConfig struct {
	SweepInterval   time.Duration
	CleanupInterval time.Duration
	OTPTTL          time.Duration
	ResetCodeTTL    time.Duration
}

// Scheduler runs the periodic maintenance jobs: the ticket escalation
// sweep, audit retention cleanup, and stale code purging.
type Scheduler struct {
	cfg     SchedulerConfig
	tickets escalationSweeper
	audit   auditCleaner
	codes   codePurger
	log     *zap.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewScheduler constructs a scheduler. Any nil dependency disables the
// corresponding job.
func NewScheduler(cfg SchedulerConfig, tickets escalationSweeper, audit auditCleaner, codes codePurger, logger *zap.Logger) *Scheduler {
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = time.Hour
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = 24 * time.Hour
	}
	return &Scheduler{cfg: cfg, tickets: tickets, audit: audit, codes: codes, log: logger}
}

// Start launches the background loops. Jobs run once immediately so a
// freshly restarted service does not wait a full interval.
func (s *Scheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)

	if s.tickets != nil {
		s.wg.Add(1)
		go s.loop(ctx, s.cfg.SweepInterval, s.runEscalationSweep)
	}
	if s.audit != nil || s.codes != nil {
		s.wg.Add(1)
		go s.loop(ctx, s.cfg.CleanupInterval, s.runCleanup)
	}
}

// Stop cancels the loops and waits for in-flight jobs to finish.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

func (s *Scheduler) loop(ctx context.Context, interval time.Duration, job func(context.Context)) {
	defer s.wg.Done()

	job(ctx)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			job(ctx)
		}
	}
}

func (s *Scheduler) runEscalationSweep(ctx context.Context) {
	escalated, err := s.tickets.RunEscalationSweep(ctx, time.Now().UTC())
	if err != nil {
		s.log.Warn("escalation sweep failed", zap.Error(err))
		return
	}
	if escalated > 0 {
		s.log.Info("escalation sweep complete", zap.Int("escalated", escalated))
	}
}

func (s *Scheduler) runCleanup(ctx context.Context) {
	now := time.Now().UTC()
	if s.audit != nil {
		removed, err := s.audit.Cleanup(ctx, now)
		if err != nil {
			s.log.Warn("audit cleanup failed", zap.Error(err))
		} else if removed > 0 {
			s.log.Info("audit cleanup complete", zap.Int64("removed", removed))
		}
	}
	if s.codes != nil {
		if _, err := s.codes.DeleteStaleVerificationCodes(ctx, now.Add(-s.cfg.OTPTTL)); err != nil {
			s.log.Warn("verification code purge failed", zap.Error(err))
		}
		if _, err := s.codes.DeleteStaleResetCodes(ctx, now.Add(-s.cfg.ResetCodeTTL)); err != nil {
			s.log.Warn("reset code purge failed", zap.Error(err))
		}
	}
}
