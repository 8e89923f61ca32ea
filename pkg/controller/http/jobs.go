package http

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/modsync/pkg/domain/model"
	"github.com/m-mizutani/modsync/pkg/utils/async"
)

// JobFunc runs a workflow for one domain
type JobFunc func(ctx context.Context, domain model.GameDomain) (*model.RunSummary, error)

// JobHandler starts workflows in the background and reports their state. At
// most one job runs per domain; both workflows write into the same domain
// directory.
type JobHandler struct {
	ctx   context.Context
	funcs map[model.JobKind]JobFunc

	mu     sync.RWMutex
	jobs   map[string]*model.Job
	active map[model.GameDomain]string
}

// NewJobHandler creates a JobHandler. Jobs inherit the logger of ctx but not
// its cancellation.
func NewJobHandler(ctx context.Context, funcs map[model.JobKind]JobFunc) *JobHandler {
	return &JobHandler{
		ctx:   ctx,
		funcs: funcs,
		jobs:   make(map[string]*model.Job),
		active: make(map[model.GameDomain]string),
	}
}

// Create handles POST /jobs/{kind}/{domain}
func (h *JobHandler) Create(w http.ResponseWriter, r *http.Request) {
	kind := model.ParseJobKind(chi.URLParam(r, "kind"))
	fn, ok := h.funcs[kind]
	if !ok {
		writeError(w, goerr.New("unknown job kind", goerr.V("kind", chi.URLParam(r, "kind"))), http.StatusNotFound)
		return
	}

	domain := model.GameDomain(chi.URLParam(r, "domain"))
	if domain == "" {
		writeError(w, goerr.New("game domain is required"), http.StatusBadRequest)
		return
	}

	job := &model.Job{
		ID:          uuid.NewString(),
		Kind:        kind,
		Domain:      domain,
		State:       model.JobStateQueued,
		RequestedAt: time.Now(),
	}

	h.mu.Lock()
	if running, busy := h.active[domain]; busy {
		h.mu.Unlock()
		writeError(w, goerr.New("another job is running on the domain",
			goerr.V("domain", domain),
			goerr.V("job_id", running)), http.StatusConflict)
		return
	}
	h.jobs[job.ID] = job
	h.active[domain] = job.ID
	snapshot := *job
	h.mu.Unlock()

	logger := ctxlog.From(h.ctx).With("job_id", job.ID, "kind", kind, "domain", domain)
	logger.Info("Job accepted")

	async.Dispatch(ctxlog.With(h.ctx, logger), func(ctx context.Context) error {
		h.update(job.ID, func(j *model.Job) {
			j.State = model.JobStateRunning
		})

		var (
			summary *model.RunSummary
			err     error
		)
		defer func() {
			if r := recover(); r != nil {
				h.finish(job.ID, domain, nil, goerr.New("job panicked", goerr.V("recover", r)))
				panic(r)
			}
			h.finish(job.ID, domain, summary, err)
		}()

		summary, err = fn(ctx, domain)
		return err
	})

	writeJSON(w, http.StatusAccepted, &snapshot)
}

// finish records the outcome of a job and releases its domain
func (h *JobHandler) finish(id string, domain model.GameDomain, summary *model.RunSummary, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.active[domain] == id {
		delete(h.active, domain)
	}

	j, ok := h.jobs[id]
	if !ok {
		return
	}
	j.FinishedAt = time.Now()
	switch {
	case err != nil:
		j.State = model.JobStateFailed
		j.Error = err.Error()
	case summary != nil && summary.Failed():
		j.State = model.JobStateFailed
		j.Error = "some items failed"
	default:
		j.State = model.JobStateSucceeded
	}
}

// Get handles GET /jobs/{id}
func (h *JobHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	job, ok := h.Lookup(id)
	if !ok {
		writeError(w, goerr.New("job not found", goerr.V("id", id)), http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, job)
}

// Lookup returns a copy of the job
func (h *JobHandler) Lookup(id string) (*model.Job, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	job, ok := h.jobs[id]
	if !ok {
		return nil, false
	}
	copied := *job
	return &copied, true
}

func (h *JobHandler) update(id string, fn func(j *model.Job)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if job, ok := h.jobs[id]; ok {
		fn(job)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		ctxlog.From(context.Background()).Error("Failed to encode response", "error", err)
	}
}
