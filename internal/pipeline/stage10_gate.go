package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/soochol/blogforge/internal/article"
	"github.com/soochol/blogforge/internal/textproc"
)

// AEOWeights is the composite scoring table. Exported so a deployment can
// override the defaults; the zero value is never used directly, since
// DefaultAEOWeights supplies the table.
type AEOWeights struct {
	DirectAnswer float64
	QAFormat float64
	Citations float64
	NaturalLang float64
	Structured float64
	EEAT float64
}

// DefaultAEOWeights is the default table: 25/20/15/15/10/15.
func DefaultAEOWeights() AEOWeights {
	return AEOWeights{
		DirectAnswer: 25,
		QAFormat: 20,
		Citations: 15,
		NaturalLang: 15,
		Structured: 10,
		EEAT: 15,
	}
}

// QualityGateStage is Stage 10: computes the AEO score and enforces
// hard invariants. Never raises; it reports instead.
type QualityGateStage struct {
	Weights AEOWeights
	PublicationFreshDays int
}

func (s *QualityGateStage) Num() int { return 10 }
func (s *QualityGateStage) Name() string { return "quality_gate" }

func (s *QualityGateStage) Execute(ctx context.Context, pc *Context) error {
	if pc.ValidatedArticle == nil {
		pc.QualityReport = &article.QualityReport{
			CriticalIssues: []string{"no validated_article to grade"},
			Passed: false,
		}
		return nil
	}
	va := pc.ValidatedArticle

	weights := s.Weights
	if weights == (AEOWeights{}) {
		weights = DefaultAEOWeights()
	}
	freshDays := s.PublicationFreshDays
	if freshDays <= 0 {
		freshDays = 30
	}

	sub := map[string]float64{
		"direct_answer": scoreDirectAnswer(va, weights.DirectAnswer),
		"qa_format": scoreQAFormat(va, weights.QAFormat),
		"citations": scoreCitationClarity(va, weights.Citations),
		"natural_lang": scoreNaturalLanguage(va, weights.NaturalLang),
		"structured": scoreStructuredData(va, weights.Structured),
		"eeat": scoreEEAT(va, weights.EEAT, freshDays),
	}

	total := 0.0
	for _, v := range sub {
		total += v
	}

	critical := hardInvariantViolations(va)

	report := &article.QualityReport{
		AEOScore: total,
		SubScores: sub,
		CriticalIssues: critical,
		Warnings: pc.Warnings(),
		Passed: len(critical) == 0,
	}
	pc.QualityReport = report
	return nil
}

// hardInvariantViolations checks the hard-invariant list: any violation
// forces passed=false regardless of score.
func hardInvariantViolations(va *article.ValidatedArticle) []string {
	var issues []string

	allContent := strings.Join(append([]string{va.Intro, va.DirectAnswer}, va.SectionContents[:]...), "\n")
	if textproc.HasDash(allContent) || hasDashInPlainFields(va) {
		issues = append(issues, "em-dash or en-dash present in a field")
	}

	if unresolved := unresolvedMarkerCount(allContent, va.CitationMap); unresolved > 0 {
		issues = append(issues, fmt.Sprintf("%d citation marker(s) unresolved against _citation_map", unresolved))
	}

	for name, v := range plainTextFields(va) {
		if textproc.HasHTMLTag(v) {
			issues = append(issues, fmt.Sprintf("plain-text field %q contains HTML", name))
		}
	}

	if strings.TrimSpace(va.Headline) == "" {
		issues = append(issues, "Headline is empty")
	}
	if !hasNonEmptySectionPair(va) {
		issues = append(issues, "no non-empty section title/content pair")
	}

	return issues
}

func hasDashInPlainFields(va *article.ValidatedArticle) bool {
	for _, v := range plainTextFields(va) {
		if textproc.HasDash(v) {
			return true
		}
	}
	return false
}

func plainTextFields(va *article.ValidatedArticle) map[string]string {
	out := map[string]string{
		"headline": va.Headline,
		"subtitle": va.Subtitle,
		"teaser": va.Teaser,
		"meta_title": va.MetaTitle,
		"meta_description": va.MetaDescription,
	}
	for i, t := range va.SectionTitles {
		if t != "" {
			out[fmt.Sprintf("section_title_%d", i+1)] = t
		}
	}
	for i, f := range va.FAQ {
		out[fmt.Sprintf("faq_question_%d", i+1)] = f.Question
		out[fmt.Sprintf("faq_answer_%d", i+1)] = f.Answer
	}
	for i, p := range va.PAA {
		out[fmt.Sprintf("paa_question_%d", i+1)] = p.Question
		out[fmt.Sprintf("paa_answer_%d", i+1)] = p.Answer
	}
	for i, k := range va.KeyTakeaways {
		out[fmt.Sprintf("key_takeaway_%d", i+1)] = k
	}
	return out
}

func hasNonEmptySectionPair(va *article.ValidatedArticle) bool {
	for i := range va.SectionTitles {
		if strings.TrimSpace(va.SectionTitles[i]) != "" && strings.TrimSpace(va.SectionContents[i]) != "" {
			return true
		}
	}
	return false
}

func unresolvedMarkerCount(text string, m article.CitationMap) int {
	return countUnresolvedMarkers(text, m)
}

// --- sub-scores ---

func scoreDirectAnswer(va *article.ValidatedArticle, weight float64) float64 {
	plain := textproc.StripHTMLTags(va.DirectAnswer)
	if plain == "" {
		return 0
	}
	words := len(splitWords(plain))
	score := 0.0
	if words > 0 {
		score += weight * 0.4 // presence
	}
	if words >= 40 && words <= 60 {
		score += weight * 0.4
	}
	if strings.Contains(va.DirectAnswer, `class="citation"`) || containsNaturalCitation(plain) {
		score += weight * 0.2
	}
	return score
}

func containsNaturalCitation(plain string) bool {
	lower := strings.ToLower(plain)
	return strings.Contains(lower, "according to") || strings.Contains(lower, "study") || strings.Contains(lower, "research")
}

func scoreQAFormat(va *article.ValidatedArticle, weight float64) float64 {
	score := 0.0
	if len(va.FAQ) >= 5 {
		score += weight * 0.5
	} else {
		score += weight * 0.5 * float64(len(va.FAQ)) / 5
	}
	if len(va.PAA) >= 3 {
		score += weight * 0.3
	} else {
		score += weight * 0.3 * float64(len(va.PAA)) / 3
	}
	questionTitles := 0
	for _, t := range va.SectionTitles {
		if strings.HasSuffix(strings.TrimSpace(t), "?") {
			questionTitles++
		}
	}
	if questionTitles >= 2 {
		score += weight * 0.2
	} else {
		score += weight * 0.2 * float64(questionTitles) / 2
	}
	return score
}

func scoreCitationClarity(va *article.ValidatedArticle, weight float64) float64 {
	paragraphs := splitParagraphs(va)
	if len(paragraphs) == 0 {
		return 0
	}
	withCitations := 0
	for _, p := range paragraphs {
		if strings.Count(p, `class="citation"`) >= 2 || strings.Count(strings.ToLower(p), "according to") >= 1 {
			withCitations++
		}
	}
	ratio := float64(withCitations) / float64(len(paragraphs))
	if ratio >= 0.6 {
		return weight
	}
	return weight * (ratio / 0.6)
}

func scoreNaturalLanguage(va *article.ValidatedArticle, weight float64) float64 {
	merged := strings.ToLower(textproc.StripHTMLTags(strings.Join(append([]string{va.Intro}, va.SectionContents[:]...), " ")))
	phrases := countAny(merged, "you might", "let's", "you may", "you'll", "imagine", "think about", "in other words")
	if phrases >= 8 {
		return weight
	}
	return weight * float64(phrases) / 8
}

func scoreStructuredData(va *article.ValidatedArticle, weight float64) float64 {
	hasHeadings := false
	for _, t := range va.SectionTitles {
		if t != "" {
			hasHeadings = true
			break
		}
	}
	hasList := false
	for _, c := range va.SectionContents {
		if strings.Contains(c, "<ul") || strings.Contains(c, "<ol") {
			hasList = true
			break
		}
	}
	score := 0.0
	if hasHeadings {
		score += weight * 0.5
	}
	if hasList {
		score += weight * 0.4
	}
	if len(va.Tables) > 0 {
		score += weight * 0.1
	}
	return score
}

func scoreEEAT(va *article.ValidatedArticle, weight float64, freshDays int) float64 {
	score := 0.0
	if va.Author != "" {
		score += weight * 0.3
	}
	if va.CompanyName != "" {
		score += weight * 0.3
	}
	if va.Metadata.PublicationDate != "" {
		score += weight * 0.4
	}
	_ = freshDays // freshness check is advisory; date format validated at Stage 7
	return score
}

func splitParagraphs(va *article.ValidatedArticle) []string {
	var out []string
	for _, c := range va.SectionContents {
		if c == "" {
			continue
		}
		for _, p := range strings.Split(c, "<p>") {
			if strings.TrimSpace(p) != "" {
				out = append(out, p)
			}
		}
	}
	return out
}
