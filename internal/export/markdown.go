package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/soochol/blogforge/internal/article"
	"github.com/soochol/blogforge/internal/textproc"
)

// MarkdownExporter writes a Markdown rendition for channels that accept
// it directly (CMS imports, static-site generators). HTML content fields
// are flattened to plain text since Markdown readers don't expect raw
// inline HTML from an upstream linkifier.
type MarkdownExporter struct{}

func (e *MarkdownExporter) Format() string { return "markdown" }

func (e *MarkdownExporter) Export(va *article.ValidatedArticle, dir string) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", va.Headline)
	if va.Subtitle != "" {
		fmt.Fprintf(&b, "_%s_\n\n", va.Subtitle)
	}
	fmt.Fprintf(&b, "%s\n\n", textproc.StripHTMLTags(va.Intro))
	fmt.Fprintf(&b, "%s\n\n", textproc.StripHTMLTags(va.DirectAnswer))

	for i := range va.SectionTitles {
		title := va.SectionTitles[i]
		content := va.SectionContents[i]
		if strings.TrimSpace(title) == "" && strings.TrimSpace(content) == "" {
			continue
		}
		fmt.Fprintf(&b, "## %s\n\n%s\n\n", title, textproc.StripHTMLTags(content))
	}

	if len(va.KeyTakeaways) > 0 {
		hasAny := false
		for _, k := range va.KeyTakeaways {
			if strings.TrimSpace(k) != "" {
				hasAny = true
				break
			}
		}
		if hasAny {
			b.WriteString("## Key Takeaways\n\n")
			for _, k := range va.KeyTakeaways {
				if strings.TrimSpace(k) == "" {
					continue
				}
				fmt.Fprintf(&b, "- %s\n", k)
			}
			b.WriteString("\n")
		}
	}

	if len(va.FAQ) > 0 {
		b.WriteString("## Frequently Asked Questions\n\n")
		for _, f := range va.FAQ {
			fmt.Fprintf(&b, "**%s**\n\n%s\n\n", f.Question, f.Answer)
		}
	}
	if len(va.PAA) > 0 {
		b.WriteString("## People Also Ask\n\n")
		for _, p := range va.PAA {
			fmt.Fprintf(&b, "**%s**\n\n%s\n\n", p.Question, p.Answer)
		}
	}

	if len(va.CitationMap) > 0 {
		b.WriteString("## Sources\n\n")
		keys := sortedCitationKeys(va.CitationMap)
		for _, k := range keys {
			c := va.CitationMap[k]
			fmt.Fprintf(&b, "%s. [%s](%s)\n", k, c.Title, c.URL)
		}
		b.WriteString("\n")
	}

	path := filepath.Join(dir, "article.md")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", fmt.Errorf("markdown export: write %s: %w", path, err)
	}
	return path, nil
}
