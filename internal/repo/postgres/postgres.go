package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/hamed0406/credcheck/internal/domain"
	"github.com/hamed0406/credcheck/internal/repo"
)

var _ repo.RunStore = (*Store)(nil)

// Store persists run history in Postgres. Summary counts live in their own
// columns for cheap listing; the per-account results ride along as JSONB.
type Store struct {
	pool *pgxpool.Pool
	log  *zap.Logger
}

func New(ctx context.Context, dsn string, log *zap.Logger) (*Store, error) {
	pool, err := newPool(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool, log: log}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *Store) SaveRun(ctx context.Context, run *domain.BatchRun) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.FinishedAt.IsZero() {
		run.FinishedAt = time.Now().UTC()
	}
	results, err := json.Marshal(run.Results)
	if err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO runs (id, started_at, finished_at, total, both_succeeded, primary_only, both_failed, results)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		run.ID, run.StartedAt, run.FinishedAt,
		run.Summary.Total, run.Summary.BothSucceeded, run.Summary.PrimaryOnly, run.Summary.BothFailed,
		results)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

func (s *Store) GetRun(ctx context.Context, id string) (*domain.BatchRun, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, started_at, finished_at, total, both_succeeded, primary_only, both_failed, results
		   FROM runs
		  WHERE id = $1`, id)
	return scanRun(row)
}

func (s *Store) ListRuns(ctx context.Context, limit int) ([]repo.RunHeader, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, started_at, finished_at, total, both_succeeded, primary_only, both_failed
		   FROM runs
		  ORDER BY started_at DESC
		  LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []repo.RunHeader
	for rows.Next() {
		var h repo.RunHeader
		if err := rows.Scan(&h.ID, &h.StartedAt, &h.FinishedAt,
			&h.Summary.Total, &h.Summary.BothSucceeded, &h.Summary.PrimaryOnly, &h.Summary.BothFailed); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (s *Store) LatestRun(ctx context.Context) (*domain.BatchRun, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, started_at, finished_at, total, both_succeeded, primary_only, both_failed, results
		   FROM runs
		  ORDER BY started_at DESC
		  LIMIT 1`)
	return scanRun(row)
}

func scanRun(row pgx.Row) (*domain.BatchRun, error) {
	var run domain.BatchRun
	var results []byte
	err := row.Scan(&run.ID, &run.StartedAt, &run.FinishedAt,
		&run.Summary.Total, &run.Summary.BothSucceeded, &run.Summary.PrimaryOnly, &run.Summary.BothFailed,
		&results)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repo.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(results, &run.Results); err != nil {
		return nil, fmt.Errorf("unmarshal results: %w", err)
	}
	return &run, nil
}
