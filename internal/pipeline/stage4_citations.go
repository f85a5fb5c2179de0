package pipeline

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/soochol/blogforge/internal/article"
	"github.com/soochol/blogforge/internal/probe"
)

// sourceLinePattern matches one "Sources" line:
// "[N]: URL - short description". Both a hyphen and an em/en dash are
// accepted as the separator since Stage 2's raw LLM output has not yet
// passed through Stage 3's dash cleanup at the point Stage 4 reads it.
var sourceLinePattern = regexp.MustCompile(`^\[(\d+)\]:\s*(\S+)\s*[\x{2013}\x{2014}-]\s*(.*)$`)

// CitationsStage is Stage 4: parses Sources, probes URLs, substitutes
// authority fallbacks for dead links, drops competitor/self links, and
// builds the citation map + HTML block. A parallel-fan-out stage; its
// failure is fatal to the run.
type CitationsStage struct {
	Prober *probe.Prober
	AuthorityFallback map[string][]string
	CompanyDomain string
	Competitors []string
}

func (s *CitationsStage) Num() int { return 4 }
func (s *CitationsStage) Name() string { return "citations" }

type parsedSource struct {
	n int
	url string
	desc string
}

func (s *CitationsStage) Execute(ctx context.Context, pc *Context) error {
	if pc.StructuredData == nil {
		return fmt.Errorf("stage4: no structured_data to read Sources from")
	}

	parsed := parseSources(pc.StructuredData.Sources, pc)
	parsed = dedupeByURL(parsed)
	parsed = s.filterCompetitors(parsed, pc, s.companyDomain(pc))

	if len(parsed) == 0 {
		pc.AddWarning("stage4: zero citations parsed from Sources; critical issue recorded")
		pc.SetCitations(&CitationsResult{Map: article.CitationMap{}, HTML: ""})
		return nil
	}

	urls := make([]string, len(parsed))
	for i, p := range parsed {
		urls[i] = p.url
	}
	results := s.Prober.Probe(ctx, urls)

	citationMap := make(article.CitationMap, len(parsed))
	var order []string
	for i, p := range parsed {
		finalURL := p.url
		if !results[i].Valid {
			finalURL = s.authorityFallback(p, i)
			pc.AddWarning(fmt.Sprintf("stage4: citation [%d] URL unreachable, substituted authority fallback %s", p.n, finalURL))
		}
		key := strconv.Itoa(p.n)
		citationMap[key] = article.CitationEntry{URL: finalURL, Title: p.desc, Kind: "source"}
		order = append(order, key)
	}

	pc.SetCitations(&CitationsResult{
		Map: citationMap,
		HTML: renderCitationsHTML(citationMap, order),
	})
	return nil
}

// parseSources implements step 1: lines that do not parse are
// discarded with a warning.
func parseSources(sources string, pc *Context) []parsedSource {
	var out []parsedSource
	for _, line := range strings.Split(sources, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		m := sourceLinePattern.FindStringSubmatch(line)
		if m == nil {
			pc.AddWarning(fmt.Sprintf("stage4: unparseable Sources line discarded: %q", line))
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if _, err := url.ParseRequestURI(m[2]); err != nil {
			pc.AddWarning(fmt.Sprintf("stage4: invalid URL in Sources line discarded: %q", line))
			continue
		}
		out = append(out, parsedSource{n: n, url: m[2], desc: strings.TrimSpace(m[3])})
	}
	return out
}

// dedupeByURL collapses duplicate URLs, keeping the lowest N.
func dedupeByURL(in []parsedSource) []parsedSource {
	best := make(map[string]parsedSource)
	var urlOrder []string
	for _, p := range in {
		existing, ok := best[p.url]
		if !ok {
			best[p.url] = p
			urlOrder = append(urlOrder, p.url)
			continue
		}
		if p.n < existing.n {
			best[p.url] = p
		}
	}
	out := make([]parsedSource, 0, len(urlOrder))
	for _, u := range urlOrder {
		out = append(out, best[u])
	}
	return out
}

// filterCompetitors drops sources whose domain matches the company's own
// domain or a configured competitor domain. The
// company's own domain is dropped from citations here but remains eligible
// for Stage 5 internal links.
func (s *CitationsStage) filterCompetitors(in []parsedSource, pc *Context, companyDomain string) []parsedSource {
	out := make([]parsedSource, 0, len(in))
	for _, p := range in {
		d := domainOf(p.url)
		if companyDomain != "" && d == companyDomain {
			pc.AddWarning(fmt.Sprintf("stage4: citation [%d] dropped, self-referential domain %s", p.n, d))
			continue
		}
		if isCompetitorDomain(d, s.Competitors) {
			pc.AddWarning(fmt.Sprintf("stage4: citation [%d] dropped, competitor domain %s", p.n, d))
			continue
		}
		out = append(out, p)
	}
	return out
}

func (s *CitationsStage) companyDomain(pc *Context) string {
	if pc.CompanyData == nil {
		return ""
	}
	return domainOf(pc.CompanyData.URL)
}

func isCompetitorDomain(domain string, competitors []string) bool {
	for _, c := range competitors {
		if domain == strings.ToLower(strings.TrimSpace(c)) {
			return true
		}
	}
	return false
}

func domainOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.ToLower(strings.TrimPrefix(u.Hostname(), "www."))
}

// authorityFallback picks a deterministic, topic-bucketed authority
// substitute for a dead citation URL, cycling
// through the configured bucket by the source's position so repeated
// failures within one run don't all collapse onto the same URL.
func (s *CitationsStage) authorityFallback(p parsedSource, index int) string {
	fallback := s.AuthorityFallback
	if len(fallback) == 0 {
		fallback = DefaultAuthorityFallback()
	}
	bucket := topicBucket(p.desc)
	urls := fallback[bucket]
	if len(urls) == 0 {
		for _, v := range fallback {
			urls = v
			break
		}
	}
	if len(urls) == 0 {
		return p.url
	}
	return urls[index%len(urls)]
}

// topicBucket is a small heuristic mapping a citation description to one
// of the generic authority-fallback buckets (: "a small fixed
// list parameterized by topic").
func topicBucket(desc string) string {
	lower := strings.ToLower(desc)
	switch {
	case strings.Contains(lower, "study") || strings.Contains(lower, "research") || strings.Contains(lower, "survey"):
		return "research"
	case strings.Contains(lower, "regulation") || strings.Contains(lower, "standard") || strings.Contains(lower, "government") || strings.Contains(lower, "compliance"):
		return "government"
	default:
		return "industry"
	}
}

// renderCitationsHTML builds the ordered HTML "Sources" list, in ascending
// numeric marker order.
func renderCitationsHTML(m article.CitationMap, keys []string) string {
	ordered := append([]string(nil), keys...)
	sort.Slice(ordered, func(i, j int) bool {
		a, _ := strconv.Atoi(ordered[i])
		b, _ := strconv.Atoi(ordered[j])
		return a < b
	})

	var b strings.Builder
	b.WriteString(`<ol class="citations">`)
	for _, k := range ordered {
		entry := m[k]
		fmt.Fprintf(&b, `<li id="citation-%s"><a href="%s" rel="nofollow noopener">%s</a></li>`,
			k, entry.URL, entry.Title)
	}
	b.WriteString(`</ol>`)
	return b.String()
}
