package pipeline

import (
	"context"
	"strings"

	"github.com/soochol/blogforge/internal/article"
)

// TOCStage is Stage 6: derives a table of contents from the
// section_NN_title fields. Pure, fast, non-fatal.
type TOCStage struct{}

func (s *TOCStage) Num() int { return 6 }
func (s *TOCStage) Name() string { return "toc" }

func (s *TOCStage) Execute(ctx context.Context, pc *Context) error {
	if pc.StructuredData == nil {
		pc.SetTOC(nil)
		return nil
	}

	var toc []article.TOCEntry
	for i := 1; i <= 9; i++ {
		title := strings.TrimSpace(pc.StructuredData.SectionTitle(i))
		if title == "" {
			continue
		}
		toc = append(toc, article.TOCEntry{
			Label: label(title),
			Anchor: slugify(title),
		})
	}
	pc.SetTOC(toc)
	return nil
}

// label shortens a section title to a 1-3 word TOC label.
func label(title string) string {
	words := strings.Fields(title)
	if len(words) > 3 {
		words = words[:3]
	}
	return strings.Join(words, " ")
}

// slugify builds a lowercase, hyphenated anchor ID from a section title.
func slugify(title string) string {
	var b strings.Builder
	prevHyphen := false
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			prevHyphen = false
		default:
			if !prevHyphen && b.Len() > 0 {
				b.WriteByte('-')
				prevHyphen = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}
