package sweep

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/riverqueue/river"
)

// ExpireHoldsArgs is the periodic job that settles lapsed holds. The
// operation is idempotent, so overlap with the request-path lazy sweep is
// harmless.
type ExpireHoldsArgs struct{}

func (ExpireHoldsArgs) Kind() string { return "expire_holds" }

// Sweeper is the engine surface the worker needs.
type Sweeper interface {
	ExpireDue(ctx context.Context) (int64, error)
}

type ExpireHoldsWorker struct {
	river.WorkerDefaults[ExpireHoldsArgs]
	sweeper Sweeper
	logger  *slog.Logger
}

func NewExpireHoldsWorker(sweeper Sweeper, logger *slog.Logger) *ExpireHoldsWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExpireHoldsWorker{sweeper: sweeper, logger: logger}
}

func (w *ExpireHoldsWorker) Work(ctx context.Context, job *river.Job[ExpireHoldsArgs]) error {
	n, err := w.sweeper.ExpireDue(ctx)
	if err != nil {
		return fmt.Errorf("expire holds: %w", err)
	}
	if n > 0 {
		w.logger.Info("periodic sweep expired holds", "count", n)
	}
	return nil
}

// PeriodicJob returns the river periodic job definition for the sweep.
// Every few minutes is plenty: availability math never trusts statuses,
// the sweep only settles them.
func PeriodicJob() *river.PeriodicJob {
	return river.NewPeriodicJob(
		river.PeriodicInterval(5*time.Minute),
		func() (river.JobArgs, *river.InsertOpts) {
			return ExpireHoldsArgs{}, nil
		},
		&river.PeriodicJobOpts{RunOnStart: true},
	)
}
