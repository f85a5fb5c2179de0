// Package sitemap implements the Stage 0 external collaborator boundary:
// resolve(company_url) -> LinkablePool, plus a small CompanyContext guess
// from the homepage. Uses a context.WithTimeout + http.NewRequestWithContext
// fetch idiom and goquery for DOM querying, since this package's job is
// genuinely structural HTML querying (title, meta, anchors), not a
// text-run rewrite.
package sitemap

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"github.com/soochol/blogforge/internal/article"
)

const (
	fetchTimeout = 10 * time.Second
	maxLinks = 200
	userAgentName = "blogforge/1.0 (sitemap resolver)"
)

// Resolver fetches a company's homepage and (optionally) its RSS/Atom
// feed to produce a CompanyContext and a LinkablePool.
type Resolver struct {
	Client *http.Client
}

// New creates a Resolver using http.DefaultClient.
func New() *Resolver {
	return &Resolver{Client: http.DefaultClient}
}

// Resolve fetches companyURL and derives a CompanyContext plus a
// LinkablePool of same-site candidate pages, in the declared order they
// were discovered. Network failures degrade to a minimal CompanyContext
// and an empty pool rather than failing the call, since Stage 0 sequential-
// prefix errors are fatal to the whole run and the resolver
// should not manufacture that failure from a merely-unreachable homepage.
func (r *Resolver) Resolve(ctx context.Context, companyURL string) (*article.CompanyContext, article.LinkablePool, error) {
	u, err := url.Parse(companyURL)
	if err != nil || u.Host == "" {
		return nil, nil, fmt.Errorf("sitemap: invalid company_url %q: %w", companyURL, err)
	}

	doc, err := r.fetchDocument(ctx, companyURL)
	if err != nil {
		return &article.CompanyContext{
			Name: u.Host,
			URL: companyURL,
		}, nil, nil
	}

	company := companyContextFromDocument(doc, u)
	pool := linkablePoolFromDocument(doc, u)
	r.enrichFromFeed(ctx, doc, u, &company)

	if len(pool) > maxLinks {
		pool = pool[:maxLinks]
	}
	return &company, pool, nil
}

func (r *Resolver) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	reqCtx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgentName)

	client := r.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("sitemap: %s returned status %d", pageURL, resp.StatusCode)
	}
	return goquery.NewDocumentFromReader(resp.Body)
}

func companyContextFromDocument(doc *goquery.Document, u *url.URL) article.CompanyContext {
	name := strings.TrimSpace(doc.Find(`meta[property="og:site_name"]`).AttrOr("content", ""))
	if name == "" {
		name = strings.TrimSpace(doc.Find("title").First().Text())
	}
	if name == "" {
		name = u.Host
	}

	description := strings.TrimSpace(doc.Find(`meta[name="description"]`).AttrOr("content", ""))
	if description == "" {
		description = strings.TrimSpace(doc.Find(`meta[property="og:description"]`).AttrOr("content", ""))
	}

	lang, _ := doc.Find("html").Attr("lang")
	if lang == "" {
		lang = "en"
	}

	return article.CompanyContext{
		Name: name,
		URL: u.Scheme + "://" + u.Host,
		Description: description,
		Tone: "professional",
		Voice: "informative",
		Language: lang,
	}
}

// linkablePoolFromDocument collects same-host anchors, classified by
// path-segment heuristics, deduplicated by URL, in document order.
func linkablePoolFromDocument(doc *goquery.Document, base *url.URL) article.LinkablePool {
	seen := map[string]bool{}
	var pool article.LinkablePool

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok {
			return
		}
		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		resolved := base.ResolveReference(ref)
		if resolved.Host != base.Host {
			return
		}
		resolved.Fragment = ""
		normalized := resolved.String()
		if seen[normalized] {
			return
		}
		seen[normalized] = true

		title := strings.TrimSpace(s.Text())
		if title == "" {
			title = strings.TrimSpace(s.AttrOr("title", ""))
		}
		if title == "" {
			return
		}

		pool = append(pool, article.LinkCandidate{
			URL: normalized,
			Title: title,
			Kind: classifyPath(resolved.Path),
			Confidence: 0.5,
		})
	})
	return pool
}

func classifyPath(path string) article.LinkKind {
	p := strings.ToLower(path)
	switch {
	case strings.Contains(p, "/blog") || strings.Contains(p, "/article") || strings.Contains(p, "/news"):
		return article.LinkKindBlog
	case strings.Contains(p, "/product"):
		return article.LinkKindProduct
	case strings.Contains(p, "/service") || strings.Contains(p, "/solutions"):
		return article.LinkKindService
	case strings.Contains(p, "/docs") || strings.Contains(p, "/documentation"):
		return article.LinkKindDocs
	case strings.Contains(p, "/resource") || strings.Contains(p, "/guide") || strings.Contains(p, "/whitepaper"):
		return article.LinkKindResource
	default:
		return article.LinkKindOther
	}
}

// enrichFromFeed optionally parses the company's RSS/Atom feed, if linked
// from the homepage, using gofeed, and copies the feed's description into
// company.Description when the homepage supplied none. It does not add feed
// items to the LinkablePool or change the tone/voice guess.
// Best-effort: any failure here is silently ignored.
func (r *Resolver) enrichFromFeed(ctx context.Context, doc *goquery.Document, base *url.URL, company *article.CompanyContext) {
	feedHref, ok := doc.Find(`link[type="application/rss+xml"], link[type="application/atom+xml"]`).Attr("href")
	if !ok || feedHref == "" {
		return
	}
	ref, err := url.Parse(feedHref)
	if err != nil {
		return
	}
	feedURL := base.ResolveReference(ref).String()

	reqCtx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	fp := gofeed.NewParser()
	fp.Client = r.Client
	feed, err := fp.ParseURLWithContext(feedURL, reqCtx)
	if err != nil || feed == nil {
		return
	}
	if feed.Description != "" && company.Description == "" {
		company.Description = feed.Description
	}
}
