package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
)

type TokenCleaner interface {
	CleanupExpired(ctx context.Context) (int64, error)
}

type StatePurger interface {
	Purge() int
}

// Scheduler runs the housekeeping jobs. None of them touch reservations.
type Scheduler struct {
	sched gocron.Scheduler
}

func New(tokens TokenCleaner, states StatePurger, interval time.Duration) (*Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	if _, err := sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(CleanupTokens, tokens),
		gocron.WithName("cleanup-refresh-tokens"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	); err != nil {
		_ = sched.Shutdown()
		return nil, fmt.Errorf("failed to schedule token cleanup: %w", err)
	}

	if _, err := sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(PurgeStates, states),
		gocron.WithName("purge-oauth-states"),
	); err != nil {
		_ = sched.Shutdown()
		return nil, fmt.Errorf("failed to schedule state purge: %w", err)
	}

	return &Scheduler{sched: sched}, nil
}

func (s *Scheduler) Start() {
	s.sched.Start()
}

func (s *Scheduler) Jobs() []gocron.Job {
	return s.sched.Jobs()
}

func (s *Scheduler) Shutdown() error {
	return s.sched.Shutdown()
}

func CleanupTokens(tokens TokenCleaner) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	n, err := tokens.CleanupExpired(ctx)
	if err != nil {
		slog.Error("refresh token cleanup failed", "error", err)
		return
	}
	if n > 0 {
		slog.Info("removed expired refresh tokens", "count", n)
	}
}

func PurgeStates(states StatePurger) {
	if n := states.Purge(); n > 0 {
		slog.Info("purged expired oauth states", "count", n)
	}
}
