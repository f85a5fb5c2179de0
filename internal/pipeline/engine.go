package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/soochol/blogforge/internal/article"
)

// Engine runs the fixed sequential-prefix /
// conditional-refinement / parallel-fan-out / sequential-tail topology,
// recording per-stage timings and surfacing failures. A single shared
// error slot can't express "Stage 4/5 failures are fatal, Stage 6/7/image
// failures degrade," so the parallel fan-out is split into two
// errgroup.Group instances instead.
type Engine struct {
	Topology *Topology
}

// NewEngine builds an Engine over the given Topology.
func NewEngine(t *Topology) *Engine {
	return &Engine{Topology: t}
}

// Run executes one pass of the pipeline: always returns a populated
// Context; raises only for "catastrophic setup issues"
// (invalid config) before Stage 0 runs at all.
func (e *Engine) Run(ctx context.Context, jobID string, cfg article.JobConfig) (*Context, error) {
	if err := validateJobConfig(cfg); err != nil {
		return nil, err
	}

	pc := NewContext(jobID, cfg.Defaults())
	pc.SetState(StateInit)
	e.runOnce(ctx, pc, 0)
	return pc, nil
}

// runOnce walks the topology exactly once (no regeneration bookkeeping;
// that's RegenerationController's job, layered on top). fromPrefixIdx lets
// a regeneration rerun skip Stage 0 (company_data/linkable_pool are kept
// across attempts) and re-enter at Stage 1 (prompt,
// rebuilt with ReviewFeedback).
func (e *Engine) runOnce(ctx context.Context, pc *Context, fromPrefixIdx int) {
	states := []RunState{StateFetching, StatePrompting, StateGenerating}
	for i := fromPrefixIdx; i < len(e.Topology.Prefix); i++ {
		stage := e.Topology.Prefix[i]
		pc.SetState(states[i%len(states)])
		if err := e.executeStage(ctx, pc, stage); err != nil {
			pc.AddError(fmt.Sprintf("%s: %v", stage.Name(), err))
			pc.SetState(StateFailed)
			return // sequential-prefix failure is fatal
		}
	}

	if e.Topology.Refine != nil && pc.StructuredData != nil {
		pc.SetState(StateRefining)
		// Stage 3 never returns a non-nil error by contract, but the timing
		// wrapper is still correct to call through executeStage uniformly.
		_ = e.executeStage(ctx, pc, e.Topology.Refine)
	}

	pc.SetState(StateParallel)
	if fatal := e.runParallel(ctx, pc); fatal {
		pc.SetState(StateFailed)
		return
	}

	pc.SetState(StateMerging)
	if err := e.executeStage(ctx, pc, e.Topology.Merge); err != nil {
		pc.AddError(fmt.Sprintf("%s: %v", e.Topology.Merge.Name(), err))
		pc.SetState(StateFailed)
		return
	}

	pc.SetState(StateGating)
	_ = e.executeStage(ctx, pc, e.Topology.Gate) // Stage 10 never raises

	if pc.QualityReport != nil && pc.QualityReport.Passed {
		pc.SetState(StateDone)
	} else {
		pc.SetState(StateDegraded)
	}

	// Stage 9 export observes the article only after Stage 10's gate, per
	// "export always reflects the gated artifact."
	if e.Topology.Export != nil {
		pc.SetState(StateExporting)
		if err := e.executeStage(ctx, pc, e.Topology.Export); err != nil {
			pc.AddWarning(fmt.Sprintf("%s: %v", e.Topology.Export.Name(), err))
		}
		if pc.State() != StateFailed {
			if pc.QualityReport != nil && pc.QualityReport.Passed {
				pc.SetState(StateDone)
			} else {
				pc.SetState(StateDegraded)
			}
		}
	}
}

// RerunFromPrompt re-enters the topology at Stage 1 (prompt), reusing the
// Context's existing CompanyData/LinkablePool, for the RegenerationController
// ("rerun from Stage 2 with review_feedback... keep
// company_data and linkable_pool from the first run" — Stage 1 is included
// because it's where review_feedback is woven into the prompt text).
func (e *Engine) RerunFromPrompt(ctx context.Context, pc *Context) {
	pc.Reset()
	e.runOnce(ctx, pc, 1)
}

// runParallel fans Stage 4/5/6/7/image out concurrently: all start as soon
// as Stage 3 completes, runParallel waits for all of them, then inspects
// the results collectively. Returns true if a critical stage (4 or 5)
// failed, which fails the run.
func (e *Engine) runParallel(ctx context.Context, pc *Context) (fatal bool) {
	critical, cctx := errgroup.WithContext(ctx)
	for _, stage := range e.Topology.ParallelCritical {
		stage := stage
		critical.Go(func() error {
			return e.executeStage(cctx, pc, stage)
		})
	}

	aux, actx := errgroup.WithContext(ctx)
	for _, stage := range e.Topology.ParallelAux {
		stage := stage
		aux.Go(func() error {
			if err := e.executeStage(actx, pc, stage); err != nil {
				pc.AddWarning(fmt.Sprintf("%s: %v (non-fatal)", stage.Name(), err))
			}
			return nil // aux failures never fail the group
		})
	}

	critErr := critical.Wait()
	_ = aux.Wait()

	if critErr != nil {
		pc.AddError(fmt.Sprintf("parallel fan-out: %v", critErr))
		return true
	}
	return false
}

// executeStage times a single stage's execution, records per-stage wall
// time, and logs completion via log/slog.
func (e *Engine) executeStage(ctx context.Context, pc *Context, stage Stage) error {
	start := time.Now()
	err := stage.Execute(ctx, pc)
	elapsed := time.Since(start)
	pc.RecordTiming(stage.Name(), elapsed)

	if err != nil {
		slog.Warn("stage failed", "stage", stage.Name(), "job_id", pc.JobID, "elapsed", elapsed, "err", err)
		return err
	}
	slog.Info("stage completed", "stage", stage.Name(), "job_id", pc.JobID, "elapsed", elapsed)
	return nil
}
