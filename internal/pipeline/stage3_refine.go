package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/soochol/blogforge/internal/article"
	"github.com/soochol/blogforge/internal/model"
	"github.com/soochol/blogforge/internal/textproc"
)

// Review/AEO concurrency caps.
const (
	reviewConcurrency = 15
	aeoConcurrency = 10
)

// AEO Pass 2 thresholds.
const (
	aeoCitationThreshold = 12
	aeoConversationalThreshold = 8
	aeoQuestionThreshold = 5
	maxAEOEnhanceSections = 7
)

// acceptanceRatio is the minimum fixed/original length ratio required to write a reviewed field back.
const acceptanceRatio = 0.5

// reviewChecklist is the comprehensive quality checklist encoded verbatim in
// structure (structural, typography, capitalization, AI-marker phrases,
// citation markers, AEO hints).
const reviewChecklist = `Review and rewrite this HTML content field for publication quality. Fix, in order of priority:

STRUCTURAL: truncated list items that end mid-word; fragment single-item
lists that should be prose; duplicate summary lists that repeat the
preceding paragraph; orphaned or mis-nested HTML tags; empty paragraphs;
sentences split apart by a stray closing tag.

TYPOGRAPHY: replace every em-dash with " - " (space-hyphen-space) or a
comma, whichever reads better; replace every en-dash with "-" or " to ".
This is zero-tolerance: the result must not contain em-dashes or en-dashes.

CAPITALIZATION: normalize brand names (IBM, NIST, McKinsey, and similar);
capitalize the first word after a period; fix words typed in ALL CAPS that
should not be shouting.

BANNED AI-MARKER PHRASES: rewrite or remove phrases like "delve into",
"crucial to note", "in today's digital age", "seamlessly", "leverage" used
as a verb, "robust" used as a modifier, and formulaic list intros like
"Key points include:".

CITATION MARKERS: remove bare academic markers like "[1]" or "[1][2]" from
the body text; the citation mechanism is natural-language attribution plus
anchor markers inserted later in the pipeline, not inline numeric brackets
in prose.

AEO: where it fits naturally, raise the density of natural-language
citations (aim for at least 40%% of paragraphs), conversational phrasing,
and question-form sentences. Do this by rewriting naturally, never by
literally counting or padding.

Field name: %s
Field content:
%s`

// QualityRefinementStage is Stage 3, the hardest single subsystem:
// concurrent per-field AI review and AEO-enhancement with structured-output
// contracts and a zero-tolerance post-condition. Bounds concurrency with
// golang.org/x/sync/semaphore.Weighted and retries each per-field call with
// an attempt loop.
//
// Stage 3 is deliberately AI-only for content edits but deterministic for
// the final dash post-condition, which runs TextNormalizer directly rather
// than another LLM call.
type QualityRefinementStage struct {
	Text *model.Client
}

func (s *QualityRefinementStage) Num() int { return 3 }
func (s *QualityRefinementStage) Name() string { return "refine" }

// Execute never returns a non-nil error and never leaves the context
// partially mutated: it works on a private copy of StructuredData and only
// commits that copy back into pc.StructuredData once every pass has
// returned normally. A recover around the whole body turns any panic
// into a discarded copy plus a warning, satisfying "MUST
// NOT block the pipeline" / "context unchanged" requirement without Go
// exceptions to catch.
func (s *QualityRefinementStage) Execute(ctx context.Context, pc *Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			pc.AddWarning(fmt.Sprintf("stage3: recovered from panic, article left unchanged: %v", r))
			err = nil
		}
	}()

	if pc.StructuredData == nil {
		return nil
	}

	working := *pc.StructuredData // array/string fields copy by value: a full deep copy

	s.reviewPass(ctx, pc, &working)
	s.aeoPass(ctx, pc, &working)
	dashSweep(&working)

	*pc.StructuredData = working
	pc.SetStage3Optimized(true)
	return nil
}

// reviewPass is Pass 1: every content field reviewed
// concurrently (bounded by reviewConcurrency), results collected into a
// disjoint-by-index slice and applied in declared field order afterward.
func (s *QualityRefinementStage) reviewPass(ctx context.Context, pc *Context, working *article.ArticleOutput) {
	fields := article.ContentFieldNames()
	results := make([]string, len(fields))
	sem := semaphore.NewWeighted(reviewConcurrency)
	var wg sync.WaitGroup

	for i, name := range fields {
		original := working.GetContent(name)
		if isOptionalContentField(name) && len(original) < 100 {
			results[i] = original // "skipped when under 100 characters"
			continue
		}

		wg.Add(1)
		go func(i int, name, original string) {
			defer wg.Done()
			if err := sem.Acquire(ctx, 1); err != nil {
				results[i] = original
				return
			}
			defer sem.Release(1)

			fixed, ok := s.reviewField(ctx, pc, name, original)
			if ok {
				results[i] = fixed
			} else {
				results[i] = original
			}
		}(i, name, original)
	}

	wg.Wait()
	for i, name := range fields {
		working.SetContent(name, results[i])
	}
}

func isOptionalContentField(name string) bool {
	for _, n := range [3]int{7, 8, 9} {
		if name == fmt.Sprintf("section_0%d_content", n) {
			return true
		}
	}
	return false
}

// reviewField invokes the LLM once (retried) with the
// structured ReviewResponse return, then applies acceptance
// rule: len(fixed) >= 0.5 * len(original), else the field is left unchanged
// and a warning is emitted.
func (s *QualityRefinementStage) reviewField(ctx context.Context, pc *Context, name, original string) (string, bool) {
	var resp article.ReviewResponse
	prompt := fmt.Sprintf(reviewChecklist, name, original)

	err := withLLMRetry(ctx, func() error {
		return s.Text.GenerateJSON(ctx, prompt, model.ReviewResponseSchema(), false, false, &resp)
	})
	if err != nil {
		pc.AddWarning(fmt.Sprintf("stage3: review %s: %v", name, err))
		return original, false
	}

	if float64(len(resp.FixedContent)) < acceptanceRatio*float64(len(original)) {
		pc.AddWarning(fmt.Sprintf("stage3: review %s: rejected, fixed content too short (%d < %.0f%% of %d)",
			name, len(resp.FixedContent), acceptanceRatio*100, len(original)))
		return original, false
	}
	return resp.FixedContent, true
}

// aeoPass is Pass 2: analyze merged body text, and if any AEO
// metric is below threshold, enhance up to 7 body sections concurrently
// (bounded by aeoConcurrency); Direct_Answer is always separately optimized
// to 40-60 words with one natural-language citation.
func (s *QualityRefinementStage) aeoPass(ctx context.Context, pc *Context, working *article.ArticleOutput) {
	analysis := s.analyzeAEO(ctx, pc, working)

	if analysis.Citations < aeoCitationThreshold ||
		analysis.ConversationalPhrases < aeoConversationalThreshold ||
		analysis.QuestionPatterns < aeoQuestionThreshold {
		s.enhanceSections(ctx, pc, working)
	}

	s.optimizeDirectAnswer(ctx, pc, working)
}

// analyzeAEO measures citation/conversational/question density across the
// merged body. It tries a structured LLM analyzer first and falls back to
// deterministic string counting on failure, "a second LLM
// call with a small schema, or string-counting fallback."
func (s *QualityRefinementStage) analyzeAEO(ctx context.Context, pc *Context, working *article.ArticleOutput) article.AEOAnalysis {
	merged := mergedBodyText(working)

	var resp article.AEOAnalysis
	prompt := "Count, across this article body, the number of natural-language citations " +
		"(attributions like \"according to...\" or anchor markers), conversational phrases " +
		"(e.g. \"you might wonder\", \"let's look at\"), and question-form sentences or headings.\n\n" + merged

	err := withLLMRetry(ctx, func() error {
		return s.Text.GenerateJSON(ctx, prompt, model.AEOAnalysisSchema(), false, false, &resp)
	})
	if err == nil {
		return resp
	}
	pc.AddWarning(fmt.Sprintf("stage3: AEO analyzer call failed, using string-count fallback: %v", err))
	return countAEOFallback(merged)
}

// countAEOFallback is the deterministic string-counting fallback used
// when the analyzer LLM call fails.
func countAEOFallback(text string) article.AEOAnalysis {
	plain := strings.ToLower(textproc.StripHTMLTags(text))
	return article.AEOAnalysis{
		Citations: strings.Count(text, "[") + strings.Count(plain, "according to"),
		ConversationalPhrases: countAny(plain, "you might", "let's", "you may", "you'll", "imagine", "think about"),
		QuestionPatterns: strings.Count(plain, "?"),
	}
}

func countAny(haystack string, needles...string) int {
	total := 0
	for _, n := range needles {
		total += strings.Count(haystack, n)
	}
	return total
}

func mergedBodyText(working *article.ArticleOutput) string {
	var b strings.Builder
	b.WriteString(working.Intro)
	b.WriteString("\n")
	b.WriteString(working.DirectAnswer)
	for _, content := range working.SectionContents {
		b.WriteString("\n")
		b.WriteString(content)
	}
	return b.String()
}

// enhanceSections selects up to maxAEOEnhanceSections non-empty body
// sections (in declared order) and rewrites each concurrently, instructing
// the model to add the missing AEO components naturally.
func (s *QualityRefinementStage) enhanceSections(ctx context.Context, pc *Context, working *article.ArticleOutput) {
	var names []string
	for i := 1; i <= 9 && len(names) < maxAEOEnhanceSections; i++ {
		name := fmt.Sprintf("section_0%d_content", i)
		if strings.TrimSpace(working.GetContent(name)) != "" {
			names = append(names, name)
		}
	}

	results := make([]string, len(names))
	sem := semaphore.NewWeighted(aeoConcurrency)
	var wg sync.WaitGroup

	for i, name := range names {
		original := working.GetContent(name)
		wg.Add(1)
		go func(i int, name, original string) {
			defer wg.Done()
			if err := sem.Acquire(ctx, 1); err != nil {
				results[i] = original
				return
			}
			defer sem.Release(1)

			prompt := "Enhance this article section for answer-engine optimization by naturally adding " +
				"a natural-language citation, a conversational aside, or a question-form sentence " +
				"wherever it genuinely improves the text. Do not count or pad; only change what reads " +
				"better. Return the complete rewritten HTML section.\n\nSection: " + name + "\nContent:\n" + original

			var resp article.ReviewResponse
			err := withLLMRetry(ctx, func() error {
				return s.Text.GenerateJSON(ctx, prompt, model.ReviewResponseSchema(), false, false, &resp)
			})
			if err != nil || float64(len(resp.FixedContent)) < acceptanceRatio*float64(len(original)) {
				if err != nil {
					pc.AddWarning(fmt.Sprintf("stage3: AEO enhance %s: %v", name, err))
				}
				results[i] = original
				return
			}
			results[i] = resp.FixedContent
		}(i, name, original)
	}
	wg.Wait()

	for i, name := range names {
		working.SetContent(name, results[i])
	}
}

// optimizeDirectAnswer is unconditional sub-pass: trims/
// expands Direct_Answer to 40-60 words and ensures one natural-language
// citation.
func (s *QualityRefinementStage) optimizeDirectAnswer(ctx context.Context, pc *Context, working *article.ArticleOutput) {
	original := working.DirectAnswer
	prompt := "Rewrite this Direct Answer field to be exactly 40-60 words, featured-snippet-eligible, " +
		"and containing exactly one natural-language citation (an attribution, not a bracketed number). " +
		"Return the complete rewritten HTML.\n\nContent:\n" + original

	var resp article.ReviewResponse
	err := withLLMRetry(ctx, func() error {
		return s.Text.GenerateJSON(ctx, prompt, model.ReviewResponseSchema(), false, false, &resp)
	})
	if err != nil {
		pc.AddWarning(fmt.Sprintf("stage3: Direct_Answer optimization: %v", err))
		return
	}
	if float64(len(resp.FixedContent)) < acceptanceRatio*float64(len(original)) {
		pc.AddWarning("stage3: Direct_Answer optimization rejected, fixed content too short")
		return
	}
	working.DirectAnswer = resp.FixedContent
}

// dashSweep is a mandatory, zero-tolerance post-condition: it
// scans every content field plus every plain-text field for residual
// em-/en-dashes and strips them with textproc.StripDashes, so the
// invariant holds across the whole article, not only the fields Stage 3's
// LLM passes touched.
func dashSweep(working *article.ArticleOutput) {
	for _, name := range article.ContentFieldNames() {
		if v := working.GetContent(name); textproc.HasDash(v) {
			working.SetContent(name, textproc.StripDashes(v))
		}
	}
	working.Headline = textproc.StripDashes(working.Headline)
	working.Subtitle = textproc.StripDashes(working.Subtitle)
	working.Teaser = textproc.StripDashes(working.Teaser)
	working.MetaTitle = textproc.StripDashes(working.MetaTitle)
	working.MetaDescription = textproc.StripDashes(working.MetaDescription)
	for i := range working.SectionTitles {
		working.SectionTitles[i] = textproc.StripDashes(working.SectionTitles[i])
	}
	for i := range working.FAQQuestions {
		working.FAQQuestions[i] = textproc.StripDashes(working.FAQQuestions[i])
		working.FAQAnswers[i] = textproc.StripDashes(working.FAQAnswers[i])
	}
	for i := range working.PAAQuestions {
		working.PAAQuestions[i] = textproc.StripDashes(working.PAAQuestions[i])
		working.PAAAnswers[i] = textproc.StripDashes(working.PAAAnswers[i])
	}
	for i := range working.KeyTakeaways {
		working.KeyTakeaways[i] = textproc.StripDashes(working.KeyTakeaways[i])
	}
}
