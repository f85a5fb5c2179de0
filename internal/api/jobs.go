package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/soochol/blogforge/internal/article"
	"github.com/soochol/blogforge/internal/pipeline"
)

// JobStore tracks in-flight and completed pipeline runs in memory, the way
// a single-process deployment of this server is expected to run: one
// article job rarely outlives the process, and there is no separate
// persistence layer for it to survive a restart.
type JobStore struct {
	mu   sync.RWMutex
	jobs map[string]*pipeline.Context
}

// NewJobStore builds an empty JobStore.
func NewJobStore() *JobStore {
	return &JobStore{jobs: make(map[string]*pipeline.Context)}
}

func (s *JobStore) put(pc *pipeline.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[pc.JobID] = pc
}

func (s *JobStore) get(jobID string) (*pipeline.Context, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pc, ok := s.jobs[jobID]
	return pc, ok
}

// articleResponse is the JSON shape returned by GET /api/articles/{jobID}.
type articleResponse struct {
	JobID     string                 `json:"job_id"`
	State     pipeline.RunState      `json:"state"`
	Warnings  []string               `json:"warnings,omitempty"`
	Errors    []string               `json:"errors,omitempty"`
	Article   *article.ValidatedArticle `json:"article,omitempty"`
	Quality   *article.QualityReport `json:"quality_report,omitempty"`
	Storage   map[string]string      `json:"storage_result,omitempty"`
}

func toResponse(pc *pipeline.Context) articleResponse {
	return articleResponse{
		JobID:    pc.JobID,
		State:    pc.State(),
		Warnings: pc.Warnings(),
		Errors:   pc.Errors(),
		Article:  pc.ValidatedArticle,
		Quality:  pc.QualityReport,
		Storage:  pc.StorageResult,
	}
}

// submitArticle accepts an article.JobConfig body, starts the
// RegenerationController in the background, and returns the job ID for the
// caller to poll; generation is slow enough (multiple LLM round trips) that
// it never runs inline on the request goroutine.
func (s *Server) submitArticle(w http.ResponseWriter, r *http.Request) {
	var cfg article.JobConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	jobID := pipeline.GenerateID("article")
	placeholder := pipeline.NewContext(jobID, cfg.Defaults())
	placeholder.SetState(pipeline.StateInit)
	s.jobs.put(placeholder)

	go func() {
		pc, err := s.controller.Run(context.Background(), jobID, cfg)
		if err != nil {
			placeholder.SetState(pipeline.StateFailed)
			placeholder.AddError(err.Error())
			return
		}
		s.jobs.put(pc)
	}()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]string{"job_id": jobID})
}

// getArticle returns the current state of a previously submitted job,
// including the gated article once the run reaches DONE or DEGRADED.
func (s *Server) getArticle(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	pc, ok := s.jobs.get(jobID)
	if !ok {
		http.Error(w, "job not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toResponse(pc))
}
