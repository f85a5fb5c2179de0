package pipeline

import (
	"context"
	"fmt"
	"strings"
)

// PromptStage is Stage 1: composes the generation prompt from company
// context, the linkable pool, and job config. Pure and fast; sequential-
// prefix stage whose errors are fatal.
type PromptStage struct{}

func (s *PromptStage) Num() int { return 1 }
func (s *PromptStage) Name() string { return "prompt" }

func (s *PromptStage) Execute(ctx context.Context, pc *Context) error {
	cfg := pc.JobConfig.Defaults()
	var b strings.Builder

	fmt.Fprintf(&b, "Write a long-form, AEO-optimized blog article about %q.\n", cfg.PrimaryKeyword)
	if pc.CompanyData != nil {
		fmt.Fprintf(&b, "The article is published by %s (%s). Voice: %s. Tone: %s. Write in %s.\n",
			pc.CompanyData.Name, pc.CompanyData.URL, pc.CompanyData.Voice, pc.CompanyData.Tone, pc.CompanyData.Language)
	}
	if cfg.Market != "" {
		fmt.Fprintf(&b, "Target market: %s.\n", cfg.Market)
	}
	fmt.Fprintf(&b, "Target total length: approximately %d words across the body sections.\n", cfg.WordCountTarget)
	if len(cfg.Competitors) > 0 {
		fmt.Fprintf(&b, "Do not cite or favorably reference these competitors: %s.\n", strings.Join(cfg.Competitors, ", "))
	}
	if cfg.CustomInstructions != "" {
		fmt.Fprintf(&b, "Additional instructions: %s\n", cfg.CustomInstructions)
	}
	if pc.ReviewFeedback != "" {
		fmt.Fprintf(&b, "\nThis is a regeneration attempt. Address the following feedback from the previous attempt:\n%s\n", pc.ReviewFeedback)
	}

	b.WriteString("\nProvide Headline, Subtitle, Teaser, Meta_Title, Meta_Description, Intro, Direct_Answer, ")
	b.WriteString("nine sections (section_01 through section_09, with 01-06 mandatory and each 3-5 paragraphs of 60-100 words), ")
	b.WriteString("six FAQ pairs, four People-Also-Ask pairs, three key takeaways, optional tables, ")
	b.WriteString("and a Sources list formatted as one '[N]: URL - short description' line per source. ")
	b.WriteString("Use natural-language citations and at least one question-form section title. ")
	b.WriteString("Direct_Answer must be 40-60 words and include one natural-language citation.\n")

	pc.PromptText = b.String()
	return nil
}
