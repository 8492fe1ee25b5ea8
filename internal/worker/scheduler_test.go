package worker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"
	"go.uber.org/zap"
)

type countingSweeper struct {
	calls atomic.Int64
}

func (c *countingSweeper) RunEscalationSweep(ctx context.Context, now time.Time) (int, error) {
	c.calls.Add(1)
	return 0, nil
}

type countingCleaner struct {
	calls atomic.Int64
}

func (c *countingCleaner) Cleanup(ctx context.Context, now time.Time) (int64, error) {
	c.calls.Add(1)
	return 0, nil
}

type countingPurger struct {
	resetCalls        atomic.Int64
	verificationCalls atomic.Int64
	lastResetCutoff   atomic.Value
}

func (c *countingPurger) DeleteStaleResetCodes(ctx context.Context, olderThan time.Time) (int64, error) {
	c.resetCalls.Add(1)
	c.lastResetCutoff.Store(olderThan)
	return 0, nil
}

func (c *countingPurger) DeleteStaleVerificationCodes(ctx context.Context, olderThan time.Time) (int64, error) {
	c.verificationCalls.Add(1)
	return 0, nil
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met within deadline")
}

func TestSchedulerRunsJobsAndStopsCleanly(t *testing.T) {
	defer goleak.VerifyNone(t)

	sweeper := &countingSweeper{}
	cleaner := &countingCleaner{}
	purger := &countingPurger{}

	s := NewScheduler(SchedulerConfig{
		SweepInterval:   10 * time.Millisecond,
		CleanupInterval: 10 * time.Millisecond,
		OTPTTL:          5 * time.Minute,
		ResetCodeTTL:    15 * time.Minute,
	}, sweeper, cleaner, purger, zap.NewNop())

	s.Start(context.Background())
	waitFor(t, func() bool { return sweeper.calls.Load() >= 2 })
	waitFor(t, func() bool { return cleaner.calls.Load() >= 2 })
	waitFor(t, func() bool { return purger.resetCalls.Load() >= 1 && purger.verificationCalls.Load() >= 1 })
	s.Stop()

	cutoff, ok := purger.lastResetCutoff.Load().(time.Time)
	if !ok {
		t.Fatalf("reset purge never recorded a cutoff")
	}
	if age := time.Since(cutoff); age < 14*time.Minute || age > 16*time.Minute {
		t.Fatalf("reset cutoff %v not near the configured TTL", age)
	}

	after := sweeper.calls.Load()
	time.Sleep(30 * time.Millisecond)
	if sweeper.calls.Load() != after {
		t.Fatalf("sweep kept running after Stop")
	}
}

func TestSchedulerStopBeforeStart(t *testing.T) {
	defer goleak.VerifyNone(t)

	s := NewScheduler(SchedulerConfig{}, nil, nil, nil, zap.NewNop())
	s.Start(context.Background())
	s.Stop()
}
