package export

import (
	"encoding/json"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/soochol/blogforge/internal/article"
	"github.com/soochol/blogforge/internal/textproc"
)

// HTMLExporter renders the final article as a standalone HTML document:
// head metadata (title, description, Open Graph, Twitter card, canonical,
// robots, author), body sections in declared order, and FAQPage + Article
// JSON-LD. It never re-transforms content: entity-encoding runs once over
// the fully assembled document, not field by field, since the section
// HTML produced upstream is already linkified and must stay untouched.
type HTMLExporter struct{}

func (e *HTMLExporter) Format() string { return "html" }

func (e *HTMLExporter) Export(va *article.ValidatedArticle, dir string) (string, error) {
	doc := renderHTMLDocument(va)
	path := filepath.Join(dir, "index.html")
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		return "", fmt.Errorf("html export: write %s: %w", path, err)
	}
	return path, nil
}

func renderHTMLDocument(va *article.ValidatedArticle) string {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n")
	b.WriteString("<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&b, "<title>%s</title>\n", html.EscapeString(va.Headline))
	fmt.Fprintf(&b, `<meta name="description" content="%s">`+"\n", html.EscapeString(va.MetaDescription))
	fmt.Fprintf(&b, `<meta name="robots" content="index, follow">`+"\n")
	if va.Author != "" {
		fmt.Fprintf(&b, `<meta name="author" content="%s">`+"\n", html.EscapeString(va.Author))
	}
	fmt.Fprintf(&b, `<link rel="canonical" href="%s">`+"\n", html.EscapeString(canonicalURL(va)))

	fmt.Fprintf(&b, `<meta property="og:title" content="%s">`+"\n", html.EscapeString(va.MetaTitle))
	fmt.Fprintf(&b, `<meta property="og:description" content="%s">`+"\n", html.EscapeString(va.MetaDescription))
	if va.Images.Hero != "" {
		fmt.Fprintf(&b, `<meta property="og:image" content="%s">`+"\n", html.EscapeString(va.Images.Hero))
	}
	fmt.Fprintf(&b, `<meta property="og:url" content="%s">`+"\n", html.EscapeString(canonicalURL(va)))
	b.WriteString(`<meta property="og:type" content="article">` + "\n")
	if va.Metadata.PublicationDate != "" {
		fmt.Fprintf(&b, `<meta property="article:published_time" content="%s">`+"\n", html.EscapeString(va.Metadata.PublicationDate))
	}

	b.WriteString(`<meta name="twitter:card" content="summary_large_image">` + "\n")
	fmt.Fprintf(&b, `<meta name="twitter:title" content="%s">`+"\n", html.EscapeString(va.MetaTitle))
	fmt.Fprintf(&b, `<meta name="twitter:description" content="%s">`+"\n", html.EscapeString(va.MetaDescription))

	b.WriteString("<script type=\"application/ld+json\">")
	b.WriteString(articleJSONLD(va))
	b.WriteString("</script>\n")
	if faq := faqJSONLD(va); faq != "" {
		b.WriteString("<script type=\"application/ld+json\">")
		b.WriteString(faq)
		b.WriteString("</script>\n")
	}

	b.WriteString("</head>\n<body>\n<article>\n")
	fmt.Fprintf(&b, "<h1>%s</h1>\n", html.EscapeString(va.Headline))
	if va.Subtitle != "" {
		fmt.Fprintf(&b, "<p class=\"subtitle\">%s</p>\n", html.EscapeString(va.Subtitle))
	}
	fmt.Fprintf(&b, "<div class=\"intro\">%s</div>\n", va.Intro)
	fmt.Fprintf(&b, "<div class=\"direct-answer\">%s</div>\n", va.DirectAnswer)

	for i := range va.SectionTitles {
		title := va.SectionTitles[i]
		content := va.SectionContents[i]
		if strings.TrimSpace(title) == "" && strings.TrimSpace(content) == "" {
			continue
		}
		anchor := ""
		if i < len(va.TOC) {
			anchor = va.TOC[i].Anchor
		}
		fmt.Fprintf(&b, "<section id=\"%s\">\n<h2>%s</h2>\n%s\n</section>\n", anchor, html.EscapeString(title), content)
	}

	if len(va.FAQ) > 0 {
		b.WriteString("<section class=\"faq\">\n<h2>Frequently Asked Questions</h2>\n")
		for _, f := range va.FAQ {
			fmt.Fprintf(&b, "<div class=\"faq-item\"><h3>%s</h3><p>%s</p></div>\n",
				html.EscapeString(f.Question), html.EscapeString(f.Answer))
		}
		b.WriteString("</section>\n")
	}
	if len(va.PAA) > 0 {
		b.WriteString("<section class=\"paa\">\n<h2>People Also Ask</h2>\n")
		for _, p := range va.PAA {
			fmt.Fprintf(&b, "<div class=\"paa-item\"><h3>%s</h3><p>%s</p></div>\n",
				html.EscapeString(p.Question), html.EscapeString(p.Answer))
		}
		b.WriteString("</section>\n")
	}

	if va.CitationsHTML != "" {
		b.WriteString("<section class=\"sources\">\n<h2>Sources</h2>\n")
		b.WriteString(va.CitationsHTML)
		b.WriteString("\n</section>\n")
	}

	b.WriteString("</article>\n</body>\n</html>\n")
	return textproc.EncodeEntities(b.String())
}

// canonicalURL builds a path-only canonical reference from the headline.
// Deployments that need an absolute URL prefix it with their own base URL;
// the exporter has no config dependency of its own.
func canonicalURL(va *article.ValidatedArticle) string {
	slug := strings.ToLower(strings.TrimSpace(va.Headline))
	slug = slugPattern.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")
	return "/" + slug
}

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

func articleJSONLD(va *article.ValidatedArticle) string {
	citations := make([]string, 0, len(va.CitationMap))
	for _, c := range va.CitationMap {
		citations = append(citations, c.URL)
	}
	ld := map[string]any{
		"@context": "https://schema.org",
		"@type": "Article",
		"headline": va.Headline,
		"datePublished": va.Metadata.PublicationDate,
		"author": map[string]any{"@type": "Person", "name": va.Author},
		"publisher": map[string]any{"@type": "Organization", "name": va.CompanyName},
		"citation": citations,
	}
	if va.Images.Hero != "" {
		ld["image"] = va.Images.Hero
	}
	b, _ := json.Marshal(ld)
	return string(b)
}

func faqJSONLD(va *article.ValidatedArticle) string {
	if len(va.FAQ) == 0 {
		return ""
	}
	items := make([]map[string]any, 0, len(va.FAQ))
	for _, f := range va.FAQ {
		items = append(items, map[string]any{
			"@type": "Question",
			"name": f.Question,
			"acceptedAnswer": map[string]any{
				"@type": "Answer",
				"text": f.Answer,
			},
		})
	}
	ld := map[string]any{
		"@context": "https://schema.org",
		"@type": "FAQPage",
		"mainEntity": items,
	}
	b, _ := json.Marshal(ld)
	return string(b)
}
