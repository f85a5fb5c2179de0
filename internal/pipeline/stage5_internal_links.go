package pipeline

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/net/html"

	"github.com/soochol/blogforge/internal/article"
	"github.com/soochol/blogforge/internal/probe"
)

// InternalLinksStage is Stage 5: ranks LinkablePool candidates by
// relevance, probes the top ones, and inserts at most one anchor per body
// section, never inside a heading or an existing <a>. Shares the bounded
// HEAD-probe helper with Stage 4; each Probe call is capped at 20
// concurrent requests on its own. A parallel-fan-out stage whose failure
// is fatal.
type InternalLinksStage struct {
	Prober *probe.Prober
	Competitors []string
}

func (s *InternalLinksStage) Num() int { return 5 }
func (s *InternalLinksStage) Name() string { return "internal_links" }

const maxLinkCandidatesToProbe = 20

func (s *InternalLinksStage) Execute(ctx context.Context, pc *Context) error {
	if pc.StructuredData == nil {
		return fmt.Errorf("stage5: no structured_data to place links into")
	}

	pool := excludeCompetitors(pc.LinkablePool, s.Competitors)
	ranked := rankCandidates(pool, pc.JobConfig.PrimaryKeyword, pc.StructuredData)
	if len(ranked) > maxLinkCandidatesToProbe {
		ranked = ranked[:maxLinkCandidatesToProbe]
	}
	if len(ranked) == 0 {
		pc.AddWarning("stage5: no internal link candidates available")
		pc.SetInternalLinks(&InternalLinksResult{})
		return nil
	}

	urls := make([]string, len(ranked))
	for i, c := range ranked {
		urls[i] = c.URL
	}
	results := s.Prober.Probe(ctx, urls)

	var survivors []article.LinkCandidate
	for i, c := range ranked {
		if results[i].Valid {
			survivors = append(survivors, c)
		}
	}
	if len(survivors) == 0 {
		pc.AddWarning("stage5: all internal link candidates failed probing")
		pc.SetInternalLinks(&InternalLinksResult{})
		return nil
	}

	sections := bodySectionNames(pc.StructuredData)
	placed := placeLinks(pc.StructuredData, sections, survivors)

	pc.SetInternalLinks(&InternalLinksResult{
		Links: placed,
		HTML: renderInternalLinksHTML(placed),
	})
	return nil
}

// excludeCompetitors drops any candidate whose domain matches a configured
// competitor, a safety net against a sitemap that surfaces an off-site
// link.
func excludeCompetitors(pool article.LinkablePool, competitors []string) article.LinkablePool {
	if len(competitors) == 0 {
		return pool
	}
	out := make(article.LinkablePool, 0, len(pool))
	for _, c := range pool {
		if !isCompetitorDomain(domainOf(c.URL), competitors) {
			out = append(out, c)
		}
	}
	return out
}

// rankCandidates scores LinkablePool by keyword overlap with the primary
// keyword and the article's section titles, clamped into [0, 10].
func rankCandidates(pool article.LinkablePool, primaryKeyword string, out *article.ArticleOutput) []article.LinkCandidate {
	keywords := tokenize(primaryKeyword)
	for i := 1; i <= 9; i++ {
		keywords = append(keywords, tokenize(out.SectionTitle(i))...)
	}

	scored := make([]article.LinkCandidate, len(pool))
	copy(scored, pool)
	for i := range scored {
		scored[i].Confidence = clamp(overlapScore(scored[i].Title, keywords)+scored[i].Confidence, 0, 10)
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Confidence > scored[j].Confidence
	})
	return scored
}

func tokenize(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !(r >= 'a' && r <= 'z') && !(r >= '0' && r <= '9')
	})
	return fields
}

func overlapScore(title string, keywords []string) float64 {
	titleTokens := tokenize(title)
	if len(titleTokens) == 0 || len(keywords) == 0 {
		return 0
	}
	set := make(map[string]bool, len(keywords))
	for _, k := range keywords {
		set[k] = true
	}
	matches := 0
	for _, t := range titleTokens {
		if set[t] {
			matches++
		}
	}
	return 10 * float64(matches) / float64(len(titleTokens))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func bodySectionNames(out *article.ArticleOutput) []string {
	var names []string
	for i := 1; i <= 9; i++ {
		if strings.TrimSpace(out.GetContent(fmt.Sprintf("section_0%d_content", i))) != "" {
			names = append(names, fmt.Sprintf("section_0%d_content", i))
		}
	}
	return names
}

// placeLinks implements steps 3-4: target one link per body
// section (or every 2-3 sections if the pool is sparse), anchor text <= 6
// words, never bunched at the top, never inside a heading or existing <a>.
func placeLinks(out *article.ArticleOutput, sections []string, candidates []article.LinkCandidate) []article.InternalLink {
	if len(sections) == 0 {
		return nil
	}

	stride := 1
	if len(candidates) < len(sections) {
		stride = 2
		if len(candidates)*3 < len(sections) {
			stride = 3
		}
	}

	var placed []article.InternalLink
	ci := 0
	for si, name := range sections {
		if si%stride != 0 || ci >= len(candidates) {
			continue
		}
		cand := candidates[ci]
		ci++

		content := out.GetContent(name)
		anchor := anchorText(cand.Title)
		newContent, ok := insertAnchor(content, anchor, cand.URL)
		if !ok {
			continue
		}
		out.SetContent(name, newContent)
		placed = append(placed, article.InternalLink{URL: cand.URL, AnchorText: anchor, Section: name})
	}
	return placed
}

// anchorText normalizes a candidate title down to at most 6 words.
func anchorText(title string) string {
	words := strings.Fields(title)
	if len(words) > 6 {
		words = words[:6]
	}
	return strings.Join(words, " ")
}

var headingTagPattern = regexp.MustCompile(`^h[1-6]$`)

// insertAnchor inserts an anchor linking anchorText -> url into the first
// suitable <p> or <li> text node found, skipping headings and existing <a>
// tags. Returns ok=false if no safe
// insertion point was found.
func insertAnchor(contentHTML, anchorText, url string) (string, bool) {
	var out strings.Builder
	tokenizer := html.NewTokenizer(strings.NewReader(contentHTML))

	var elementStack []string
	inserted := false

	for {
		tt := tokenizer.Next()
		if tt == html.ErrorToken {
			if rest, err := io.ReadAll(tokenizer.Buffered()); err == nil && len(rest) > 0 {
				out.WriteString(string(rest))
			}
			return out.String(), inserted
		}

		raw := string(tokenizer.Raw())
		switch tt {
		case html.StartTagToken:
			name, _ := tokenizer.TagName()
			elementStack = append(elementStack, string(name))
			out.WriteString(raw)
		case html.EndTagToken:
			if len(elementStack) > 0 {
				elementStack = elementStack[:len(elementStack)-1]
			}
			out.WriteString(raw)
		case html.TextToken:
			current := ""
			if len(elementStack) > 0 {
				current = elementStack[len(elementStack)-1]
			}
			safe := (current == "p" || current == "li") && !inAnchorOrHeading(elementStack)
			if !inserted && safe && strings.TrimSpace(string(tokenizer.Text())) != "" {
				out.WriteString(raw)
				fmt.Fprintf(&out, ` <a href="%s">%s</a>`, html.EscapeString(url), html.EscapeString(anchorText))
				inserted = true
			} else {
				out.WriteString(raw)
			}
		default:
			out.WriteString(raw)
		}
	}
}

func inAnchorOrHeading(stack []string) bool {
	for _, tag := range stack {
		if tag == "a" || headingTagPattern.MatchString(tag) {
			return true
		}
	}
	return false
}

func renderInternalLinksHTML(links []article.InternalLink) string {
	if len(links) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(`<ul class="internal-links">`)
	for _, l := range links {
		fmt.Fprintf(&b, `<li><a href="%s">%s</a></li>`, l.URL, l.AnchorText)
	}
	b.WriteString(`</ul>`)
	return b.String()
}
