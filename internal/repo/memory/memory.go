package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hamed0406/credcheck/internal/domain"
	"github.com/hamed0406/credcheck/internal/repo"
)

// Store keeps run history in memory, newest last. Useful for local runs and
// tests; the API server falls back to it when DATABASE_URL is unset.
type Store struct {
	mu   sync.RWMutex
	runs []*domain.BatchRun
}

func New() *Store {
	return &Store{runs: make([]*domain.BatchRun, 0, 16)}
}

func (m *Store) SaveRun(ctx context.Context, run *domain.BatchRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.FinishedAt.IsZero() {
		run.FinishedAt = time.Now().UTC()
	}
	m.runs = append(m.runs, run)
	return nil
}

func (m *Store) GetRun(ctx context.Context, id string) (*domain.BatchRun, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.runs {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (m *Store) ListRuns(ctx context.Context, limit int) ([]repo.RunHeader, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]repo.RunHeader, 0, len(m.runs))
	for i := len(m.runs) - 1; i >= 0; i-- { // newest first
		out = append(out, repo.HeaderOf(m.runs[i]))
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (m *Store) LatestRun(ctx context.Context) (*domain.BatchRun, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.runs) == 0 {
		return nil, repo.ErrNotFound
	}
	return m.runs[len(m.runs)-1], nil
}
