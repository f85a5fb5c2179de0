// Package pipeline implements the fixed 14-stage article generation
// workflow: the execution context, the stage interface, the engine that
// walks the sequential/parallel topology, and the regeneration controller.
package pipeline

import (
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"

	"github.com/soochol/blogforge/internal/article"
)

// GenerateID generates a random ID with the given prefix.
func GenerateID(prefix string) string {
	b := make([]byte, 8)
	rand.Read(b)
	return prefix + "-" + hex.EncodeToString(b)
}

// ParallelResults holds the disjoint per-stage contributions written during
// the Stage 4/5/6/7/image fan-out.
type ParallelResults struct {
	Citations     *CitationsResult
	InternalLinks *InternalLinksResult
	TOC           []article.TOCEntry
	Metadata      *article.Metadata
	Images        *article.ImageURIs
	FAQ           []article.FAQItem
	PAA           []article.PAAItem
}

// CitationsResult is Stage 4's disjoint contribution.
type CitationsResult struct {
	Map  article.CitationMap
	HTML string
}

// InternalLinksResult is Stage 5's disjoint contribution.
type InternalLinksResult struct {
	Links []article.InternalLink
	HTML  string
}

// Context is the shared, mutable per-job state (the ExecutionContext).
// Rather than one opaque map[string]any, Context exposes typed fields
// directly and protects only the fields genuinely written concurrently
// (warnings, errors, timings, parallel results, plus the run state,
// regeneration counter, storage results and Stage 3 flag) with a mutex, because
// stage ownership makes the rest of the struct single-writer by
// construction: safety comes from the fixed topology, not from mutual
// exclusion.
type Context struct {
	JobID     string
	JobConfig article.JobConfig

	CompanyData  *article.CompanyContext
	LinkablePool article.LinkablePool

	PromptText     string
	ReviewFeedback string

	StructuredData *article.ArticleOutput

	mu              sync.Mutex
	parallelResults ParallelResults

	ValidatedArticle *article.ValidatedArticle
	QualityReport    *article.QualityReport
	StorageResult    map[string]string

	executionTimes       map[string]time.Duration
	warnings             []string
	errors               []string
	regenerationAttempts int
	stage3Optimized      bool
	state                RunState
}

// RunState is the run-level state machine position.
type RunState string

const (
	StateInit         RunState = "INIT"
	StateFetching     RunState = "FETCHING"
	StatePrompting    RunState = "PROMPTING"
	StateGenerating   RunState = "GENERATING"
	StateRefining     RunState = "REFINING"
	StateParallel     RunState = "PARALLEL"
	StateMerging      RunState = "MERGING"
	StateGating       RunState = "GATING"
	StateRegenerating RunState = "REGENERATING"
	StateExporting    RunState = "EXPORTING"
	StateDone         RunState = "DONE"
	StateDegraded     RunState = "DEGRADED"
	StateFailed       RunState = "FAILED"
)

// SetState records the run's current state-machine position.
func (c *Context) SetState(s RunState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = s
}

// State returns the run's current state-machine position.
func (c *Context) State() RunState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// NewContext creates a fresh Context for one job.
func NewContext(jobID string, cfg article.JobConfig) *Context {
	return &Context{
		JobID:          jobID,
		JobConfig:      cfg,
		executionTimes: make(map[string]time.Duration),
		StorageResult:  make(map[string]string),
	}
}

// AddWarning appends a recoverable-issue message (mutex-protected: written
// from parallel stage goroutines).
func (c *Context) AddWarning(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.warnings = append(c.warnings, msg)
}

// AddError appends a fatal-for-the-run issue message.
func (c *Context) AddError(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errors = append(c.errors, msg)
}

// Warnings returns a copy of the accumulated warnings.
func (c *Context) Warnings() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.warnings))
	copy(out, c.warnings)
	return out
}

// Errors returns a copy of the accumulated errors.
func (c *Context) Errors() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.errors))
	copy(out, c.errors)
	return out
}

// RecordTiming stores a stage's wall-clock duration.
func (c *Context) RecordTiming(stage string, d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.executionTimes[stage] = d
}

// ExecutionTimes returns a copy of stage_name -> seconds.
func (c *Context) ExecutionTimes() map[string]float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]float64, len(c.executionTimes))
	for k, v := range c.executionTimes {
		out[k] = v.Seconds()
	}
	return out
}

// SetCitations writes Stage 4's disjoint parallel_results key.
func (c *Context) SetCitations(r *CitationsResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.parallelResults.Citations = r
}

// SetInternalLinks writes Stage 5's disjoint parallel_results key.
func (c *Context) SetInternalLinks(r *InternalLinksResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.parallelResults.InternalLinks = r
}

// SetTOC writes Stage 6's disjoint parallel_results key.
func (c *Context) SetTOC(toc []article.TOCEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.parallelResults.TOC = toc
}

// SetMetadata writes Stage 7's disjoint parallel_results key.
func (c *Context) SetMetadata(m *article.Metadata) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.parallelResults.Metadata = m
}

// SetImages writes the image stage's disjoint parallel_results key.
func (c *Context) SetImages(i *article.ImageURIs) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.parallelResults.Images = i
}

// SetFAQPAA writes the FAQ/PAA lists derived from structured_data into
// parallel_results, built once after Stage 3 settles.
func (c *Context) SetFAQPAA(faq []article.FAQItem, paa []article.PAAItem) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.parallelResults.FAQ = faq
	c.parallelResults.PAA = paa
}

// ParallelResults returns a copy of the collected parallel-stage outputs.
func (c *Context) ParallelResults() ParallelResults {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.parallelResults
}

// IncrementRegeneration bumps the regeneration counter and returns the new value.
func (c *Context) IncrementRegeneration() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.regenerationAttempts++
	return c.regenerationAttempts
}

// RegenerationAttempts returns the current regeneration counter.
func (c *Context) RegenerationAttempts() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.regenerationAttempts
}

// SetStorageResult records one format's exported artifact path (Stage 9,
// written once per format as each exporter finishes).
func (c *Context) SetStorageResult(format, path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.StorageResult[format] = path
}

// SetStage3Optimized records whether Stage 3 completed successfully
// (informational only).
func (c *Context) SetStage3Optimized(v bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stage3Optimized = v
}

// Stage3Optimized reports whether Stage 3 completed successfully.
func (c *Context) Stage3Optimized() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stage3Optimized
}

// Reset clears the per-attempt fields ahead of a regeneration rerun from
// Stage 1, while preserving CompanyData and LinkablePool from the first run.
func (c *Context) Reset() {
	c.StructuredData = nil
	c.ValidatedArticle = nil
	c.QualityReport = nil
	c.mu.Lock()
	c.parallelResults = ParallelResults{}
	c.mu.Unlock()
}
