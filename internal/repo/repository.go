package repo

import (
	"context"
	"errors"
	"time"

	"github.com/hamed0406/credcheck/internal/domain"
)

// ErrNotFound is returned when no run matches the query.
var ErrNotFound = errors.New("run not found")

// RunHeader is a listing row: the run minus its per-account results.
type RunHeader struct {
	ID         string              `json:"id"`
	StartedAt  time.Time           `json:"started_at"`
	FinishedAt time.Time           `json:"finished_at"`
	Summary    domain.BatchSummary `json:"summary"`
}

// RunStore persists batch run history. Swap in any DB adapter later.
type RunStore interface {
	SaveRun(ctx context.Context, run *domain.BatchRun) error
	GetRun(ctx context.Context, id string) (*domain.BatchRun, error)
	ListRuns(ctx context.Context, limit int) ([]RunHeader, error)
	LatestRun(ctx context.Context) (*domain.BatchRun, error)
}

func HeaderOf(run *domain.BatchRun) RunHeader {
	return RunHeader{
		ID:         run.ID,
		StartedAt:  run.StartedAt,
		FinishedAt: run.FinishedAt,
		Summary:    run.Summary,
	}
}
