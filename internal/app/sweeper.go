package app

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// StartSweeper runs CleanupExpiredHolds every interval until ctx is done or the
// returned scheduler is shut down. Overlapping runs are skipped, not queued.
func (a *App) StartSweeper(ctx context.Context, interval time.Duration) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}

	j, err := sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			runCtx, cancel := context.WithTimeout(ctx, interval)
			defer cancel()
			n, err := a.Holds.CleanupExpiredHolds(runCtx)
			if err != nil {
				a.logger.Printf("hold_sweep_failed error=%v", err)
				return
			}
			if n > 0 {
				a.logger.Printf("hold_sweep_done expired=%d", n)
			}
		}),
		gocron.WithName("hold-sweeper"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		_ = sched.Shutdown()
		return nil, fmt.Errorf("schedule sweep: %w", err)
	}

	sched.Start()
	a.logger.Printf("hold_sweeper_started job_id=%s interval=%s", j.ID(), interval)
	return sched, nil
}
