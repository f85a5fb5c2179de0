package textproc

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// Citation is the minimal shape CitationLinker needs from a citation map
// entry; internal/article.CitationEntry satisfies it via CitationLookup.
type Citation struct {
	URL string
	Title string
}

// CitationLookup resolves a numeric marker to its citation, mirroring
// internal/article.CitationMap without importing it (keeps this package
// dependency-free "pure, fully tested, free of I/O").
type CitationLookup func(marker string) (Citation, bool)

var markerPattern = regexp.MustCompile(`\[([0-9]+)\]`)

// Linkify scans html for literal "[N]" markers outside of existing <a>
// tags and replaces each with an anchor link resolved via lookup, or
// deletes the marker if lookup has no entry for N. Idempotent: running it
// twice on its own output yields the same string, because every marker it
// keeps ends up inside an <a> element (as the link label when the citation
// has no title), and text inside <a> is never rewritten.
func Linkify(htmlIn string, lookup CitationLookup) string {
	var out strings.Builder
	tokenizer := html.NewTokenizer(strings.NewReader(htmlIn))
	anchorDepth := 0

	for {
		tt := tokenizer.Next()
		if tt == html.ErrorToken {
			if rest, err := io.ReadAll(tokenizer.Buffered()); err == nil && len(rest) > 0 {
				out.WriteString(linkifyTextRun(string(rest), lookup))
			}
			return out.String()
		}

		raw := string(tokenizer.Raw())
		switch tt {
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := tokenizer.TagName()
			if string(name) == "a" && tt == html.StartTagToken {
				anchorDepth++
			}
			out.WriteString(raw)
		case html.EndTagToken:
			name, _ := tokenizer.TagName()
			if string(name) == "a" && anchorDepth > 0 {
				anchorDepth--
			}
			out.WriteString(raw)
		case html.TextToken:
			if anchorDepth > 0 {
				out.WriteString(raw)
			} else {
				out.WriteString(linkifyTextRun(raw, lookup))
			}
		default:
			out.WriteString(raw)
		}
	}
}

func linkifyTextRun(text string, lookup CitationLookup) string {
	if !strings.Contains(text, "[") {
		return text
	}
	return markerPattern.ReplaceAllStringFunc(text, func(m string) string {
		n := markerPattern.FindStringSubmatch(m)[1]
		c, ok := lookup(n)
		if !ok {
			return ""
		}
		label := c.Title
		if label == "" {
			label = m
		}
		return fmt.Sprintf(`<a href="%s" class="citation" rel="nofollow noopener">%s</a>`,
			html.EscapeString(c.URL), html.EscapeString(label))
	})
}
