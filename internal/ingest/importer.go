package ingest

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/treeshoptech/treeshop-app-sub001/internal/model"
)

// Completer records a job's actuals and scores it. *scorer.Service
// implements it.
type Completer interface {
	Complete(ctx context.Context, jobID string, actual model.JobActual) (*model.JobPerformanceRecord, error)
}

// Summary tallies an import.
type Summary struct {
	Completed        int        `json:"completed"`
	AlreadyCompleted int        `json:"already_completed"`
	Failed           []RowError `json:"-"`
}

// Import completes each row's job, at most concurrency at a time. Jobs that
// are missing or already completed do not stop the import; context
// cancellation does.
func Import(ctx context.Context, c Completer, rows []Row, concurrency int) (Summary, error) {
	var (
		mu  sync.Mutex
		sum Summary
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(concurrency, 1))

	for _, row := range rows {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			_, err := c.Complete(gctx, row.JobID, row.Actual)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				sum.Completed++
			case errors.Is(err, model.ErrAlreadyCompleted):
				sum.AlreadyCompleted++
			case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
				return err
			default:
				zap.L().Warn("ingest: complete job failed",
					zap.Int("line", row.Line),
					zap.String("job_id", row.JobID),
					zap.Error(err),
				)
				sum.Failed = append(sum.Failed, RowError{Line: row.Line, Err: err})
			}
			return nil
		})
	}

	err := g.Wait()
	slices.SortFunc(sum.Failed, func(a, b RowError) int { return cmp.Compare(a.Line, b.Line) })
	return sum, err
}
