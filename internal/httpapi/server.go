package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/hamed0406/credcheck/internal/accounts"
	"github.com/hamed0406/credcheck/internal/domain"
	mw "github.com/hamed0406/credcheck/internal/httpapi/middleware"
	"github.com/hamed0406/credcheck/internal/repo"
)

// BatchRunner is what the trigger endpoint needs from the validation engine.
type BatchRunner interface {
	ValidateBatch(ctx context.Context, accts []domain.Account, concurrency int) []domain.AccountResult
}

type Server struct {
	Logger      *zap.Logger
	Store       repo.RunStore
	Runner      BatchRunner
	Concurrency int // default parallelism when the request does not set one
}

func NewServer(l *zap.Logger, store repo.RunStore, runner BatchRunner, concurrency int) *Server {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Server{Logger: l, Store: store, Runner: runner, Concurrency: concurrency}
}

func (s *Server) Router(keys mw.Keys, publicRPM, publicBurst int) http.Handler {
	r := chi.NewRouter()
	r.Use(cors.AllowAll().Handler)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// Read-only history: any key.
	r.Group(func(r chi.Router) {
		r.Use(mw.RequireAny(keys))
		r.Use(mw.RateLimit(publicRPM, publicBurst))
		r.Get("/api/runs", s.handleListRuns)
		r.Get("/api/runs/latest", s.handleLatestRun)
		r.Get("/api/runs/{id}", s.handleGetRun)
	})

	// Trigger carries raw credentials in the body: admin only.
	r.Group(func(r chi.Router) {
		r.Use(mw.RequireAdmin(keys))
		r.Post("/api/runs", s.handleTriggerRun)
	})

	return r
}

type triggerPayload struct {
	Accounts    []domain.Account `json:"accounts"`
	Concurrency int              `json:"concurrency,omitempty"`
}

// handleTriggerRun validates the submitted accounts synchronously and
// persists the run. The response is the full (redacted) run document, so
// callers need no follow-up fetch.
func (s *Server) handleTriggerRun(w http.ResponseWriter, r *http.Request) {
	var p triggerPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(w, "bad payload", http.StatusBadRequest)
		return
	}
	accts, err := accounts.Check(p.Accounts)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	concurrency := p.Concurrency
	if concurrency < 1 {
		concurrency = s.Concurrency
	}

	started := time.Now().UTC()
	results := s.Runner.ValidateBatch(r.Context(), accts, concurrency)
	run := &domain.BatchRun{
		StartedAt:  started,
		FinishedAt: time.Now().UTC(),
		Summary:    domain.Summarize(results),
		Results:    results,
	}
	if err := s.Store.SaveRun(r.Context(), run); err != nil {
		s.Logger.Error("save_run_failed", zap.Error(err))
		http.Error(w, "could not persist run", http.StatusInternalServerError)
		return
	}

	s.Logger.Info("run_completed",
		zap.String("run_id", run.ID),
		zap.Int("total", run.Summary.Total),
		zap.Int("both_failed", run.Summary.BothFailed),
	)
	writeJSON(w, http.StatusOK, redactRun(run))
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := limitParam(r, 50)
	headers, err := s.Store.ListRuns(r.Context(), limit)
	if err != nil {
		s.Logger.Error("list_runs_failed", zap.Error(err))
		http.Error(w, "list error", http.StatusInternalServerError)
		return
	}
	if headers == nil {
		headers = []repo.RunHeader{}
	}
	writeJSON(w, http.StatusOK, headers)
}

func (s *Server) handleLatestRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.Store.LatestRun(r.Context())
	s.writeRun(w, run, err)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.Store.GetRun(r.Context(), chi.URLParam(r, "id"))
	s.writeRun(w, run, err)
}

func (s *Server) writeRun(w http.ResponseWriter, run *domain.BatchRun, err error) {
	if errors.Is(err, repo.ErrNotFound) {
		writeJSONError(w, http.StatusNotFound, "run not found")
		return
	}
	if err != nil {
		s.Logger.Error("load_run_failed", zap.Error(err))
		http.Error(w, "load error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, redactRun(run))
}

// redactRun replaces every credential with its prefix before a run document
// leaves the process over HTTP. The full credential only ever appears in the
// CSV report written by the batch CLI.
func redactRun(run *domain.BatchRun) domain.BatchRun {
	out := *run
	out.Results = make([]domain.AccountResult, len(run.Results))
	for i, r := range run.Results {
		r.Account.Credential = r.Account.CredentialPrefix()
		out.Results[i] = r
	}
	return out
}

func limitParam(r *http.Request, def int) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return def
	}
	return n
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
