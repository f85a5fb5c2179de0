package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/soochol/blogforge/internal/article"
)

// MaxRegenerations is the default regeneration budget.
const MaxRegenerations = 2

// RegenerationController wraps the Engine: if Stage 10 fails and the
// retry budget remains, it restarts from Stage 1 with feedback, keeping
// CompanyData/LinkablePool. An attempt loop like a retry executor's, but
// the retryable condition is "!quality_report.passed" and there is no
// backoff: a failed gate reruns immediately with feedback attached.
type RegenerationController struct {
	Engine *Engine
	MaxRegenerations int
}

// NewRegenerationController wraps engine with default budget
// (overridable via max, 0 meaning "use the default").
func NewRegenerationController(engine *Engine, max int) *RegenerationController {
	if max <= 0 {
		max = MaxRegenerations
	}
	return &RegenerationController{Engine: engine, MaxRegenerations: max}
}

// Run executes the pipeline, regenerating up to MaxRegenerations times if
// Stage 10 reports !passed. On exhausting the budget it returns the
// best-of-N attempt by AEO score, marked DEGRADED.
func (c *RegenerationController) Run(ctx context.Context, jobID string, cfg article.JobConfig) (*Context, error) {
	budget := cfg.MaxRegenerations
	if budget <= 0 {
		budget = c.MaxRegenerations
	}

	pc, err := c.Engine.Run(ctx, jobID, cfg)
	if err != nil {
		return nil, err
	}

	best := snapshotAttempt(pc)

	for pc.QualityReport != nil && !pc.QualityReport.Passed && pc.RegenerationAttempts() < budget {
		attempt := pc.IncrementRegeneration()
		pc.SetState(StateRegenerating)
		feedback := buildFeedback(pc.QualityReport)
		pc.ReviewFeedback = feedback

		slog.Info("regenerating", "job_id", jobID, "attempt", attempt, "reason", feedback)
		c.Engine.RerunFromPrompt(ctx, pc)

		if snap := snapshotAttempt(pc); snap.score > best.score {
			best = snap
		}
	}

	if pc.QualityReport != nil && !pc.QualityReport.Passed {
		restoreBestAttempt(pc, best)
		pc.SetState(StateDegraded)
	}

	return pc, nil
}

// attemptSnapshot captures the fields needed to restore the best-of-N
// attempt without deep-copying the whole Context.
type attemptSnapshot struct {
	score float64
	structuredData *article.ArticleOutput
	validatedArticle *article.ValidatedArticle
	qualityReport *article.QualityReport
}

func snapshotAttempt(pc *Context) *attemptSnapshot {
	snap := &attemptSnapshot{}
	if pc.StructuredData != nil {
		v := *pc.StructuredData
		snap.structuredData = &v
	}
	if pc.ValidatedArticle != nil {
		v := *pc.ValidatedArticle
		snap.validatedArticle = &v
	}
	if pc.QualityReport != nil {
		v := *pc.QualityReport
		snap.qualityReport = &v
		snap.score = v.AEOScore
	}
	return snap
}

func restoreBestAttempt(pc *Context, best *attemptSnapshot) {
	if best == nil {
		return
	}
	pc.StructuredData = best.structuredData
	pc.ValidatedArticle = best.validatedArticle
	pc.QualityReport = best.qualityReport
}

// buildFeedback composes a short feedback message enumerating failed
// invariants and the lowest-weighted sub-scores.
func buildFeedback(report *article.QualityReport) string {
	var b strings.Builder
	if len(report.CriticalIssues) > 0 {
		b.WriteString("Fix these critical issues: ")
		b.WriteString(strings.Join(report.CriticalIssues, "; "))
		b.WriteString(". ")
	}

	type subScore struct {
		name string
		value float64
	}
	var scores []subScore
	for name, v := range report.SubScores {
		scores = append(scores, subScore{name, v})
	}
	sort.Slice(scores, func(i, j int) bool { return scores[i].value < scores[j].value })
	if len(scores) > 0 {
		limit := 3
		if len(scores) < limit {
			limit = len(scores)
		}
		b.WriteString("Improve the weakest areas: ")
		for i := 0; i < limit; i++ {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s (%.1f)", scores[i].name, scores[i].value)
		}
		b.WriteString(".")
	}
	return b.String()
}
