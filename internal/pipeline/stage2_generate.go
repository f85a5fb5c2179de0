package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/soochol/blogforge/internal/article"
	"github.com/soochol/blogforge/internal/llmutil"
	"github.com/soochol/blogforge/internal/model"
	"github.com/soochol/blogforge/internal/textproc"
)

// GenerationStage is Stage 2: the LLM call with a structured-output
// schema plus web-search and URL-context tools, using the call-then-parse
// shape from internal/model.Client.GenerateJSON and the native GoogleSearch
// tool wiring in internal/model's Gemini-backed providers.
type GenerationStage struct {
	Text *model.Client
}

func (s *GenerationStage) Num() int { return 2 }
func (s *GenerationStage) Name() string { return "generate" }

// minimumRequiredKeys is the set of fields required for partial recovery
// to count as successful.
var minimumRequiredKeys = []string{"Headline", "Intro", "section_01_title", "section_01_content", "Sources"}

func (s *GenerationStage) Execute(ctx context.Context, pc *Context) error {
	text, err := s.Text.Generate(ctx, pc.PromptText, model.GenerateOptions{
		Schema: model.ArticleOutputSchema(),
		WebSearch: true,
		URLContext: true,
	})
	if err != nil {
		return fmt.Errorf("stage2: generate: %w", err)
	}

	out, err := parseArticleOutput(text)
	if err != nil {
		return fmt.Errorf("stage2: %w", err)
	}

	stripPlainTextHTML(out)
	pc.StructuredData = out
	return nil
}

// parseArticleOutput implements best-effort partial recovery:
// on a parse failure it still fills absent fields with zero values
// (encoding/json already does this for an ArticleOutput target) and returns
// an error only if the minimum set required to proceed is missing.
func parseArticleOutput(text string) (*article.ArticleOutput, error) {
	content, err := llmutil.StripMarkdownJSON(text)
	if err != nil {
		return nil, fmt.Errorf("parse article (ParseError): no JSON object found: %w", err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return nil, fmt.Errorf("parse article (ParseError): %w", err)
	}

	missing := presentButMissing(raw, minimumRequiredKeys)
	if len(missing) > 0 {
		return nil, fmt.Errorf("parse article (ParseError): minimum required fields missing: %s", strings.Join(missing, ", "))
	}

	var out article.ArticleOutput
	if err := json.Unmarshal([]byte(content), &out); err != nil {
		return nil, fmt.Errorf("parse article (ParseError): %w", err)
	}
	return &out, nil
}

func presentButMissing(raw map[string]json.RawMessage, keys []string) []string {
	var missing []string
	for _, k := range keys {
		v, ok := raw[k]
		if !ok {
			missing = append(missing, k)
			continue
		}
		var s string
		if err := json.Unmarshal(v, &s); err == nil && strings.TrimSpace(s) == "" {
			missing = append(missing, k)
		}
	}
	return missing
}

// stripPlainTextHTML strips HTML from fields declared plain-text,
// immediately on extraction.
func stripPlainTextHTML(out *article.ArticleOutput) {
	out.Headline = textproc.StripHTMLTags(out.Headline)
	out.Subtitle = textproc.StripHTMLTags(out.Subtitle)
	out.Teaser = textproc.StripHTMLTags(out.Teaser)
	out.MetaTitle = textproc.StripHTMLTags(out.MetaTitle)
	out.MetaDescription = textproc.StripHTMLTags(out.MetaDescription)
	for i := range out.SectionTitles {
		out.SectionTitles[i] = textproc.StripHTMLTags(out.SectionTitles[i])
	}
	for i := range out.FAQQuestions {
		out.FAQQuestions[i] = textproc.StripHTMLTags(out.FAQQuestions[i])
		out.FAQAnswers[i] = textproc.StripHTMLTags(out.FAQAnswers[i])
	}
	for i := range out.PAAQuestions {
		out.PAAQuestions[i] = textproc.StripHTMLTags(out.PAAQuestions[i])
		out.PAAAnswers[i] = textproc.StripHTMLTags(out.PAAAnswers[i])
	}
	for i := range out.KeyTakeaways {
		out.KeyTakeaways[i] = textproc.StripHTMLTags(out.KeyTakeaways[i])
	}
}
