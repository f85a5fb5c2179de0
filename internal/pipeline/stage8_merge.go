package pipeline

import (
	"context"
	"fmt"

	"github.com/soochol/blogforge/internal/article"
	"github.com/soochol/blogforge/internal/textproc"
)

// MergeLinkStage is Stage 8: deliberately thin. It deep-copies
// structured_data into validated_article, merges each disjoint
// parallel_results key at a fixed location, linkifies citation markers,
// and entity-encodes residual HTML. No humanization, no paragraph
// splitting, no keyword-density changes: any of that here is a regression.
type MergeLinkStage struct {
	CompanyName string
	Author string
}

func (s *MergeLinkStage) Num() int { return 8 }
func (s *MergeLinkStage) Name() string { return "merge" }

func (s *MergeLinkStage) Execute(ctx context.Context, pc *Context) error {
	if pc.StructuredData == nil {
		return fmt.Errorf("stage8: no structured_data to merge")
	}
	src := *pc.StructuredData
	pr := pc.ParallelResults()

	va := &article.ValidatedArticle{
		Headline: src.Headline,
		Subtitle: src.Subtitle,
		Teaser: src.Teaser,
		MetaTitle: src.MetaTitle,
		MetaDescription: src.MetaDescription,
		Intro: src.Intro,
		DirectAnswer: src.DirectAnswer,
		SectionTitles: src.SectionTitles,
		SectionContents: src.SectionContents,
		KeyTakeaways: src.KeyTakeaways,
		Tables: src.Tables,
		FAQ: buildFAQ(&src),
		PAA: buildPAA(&src),
		CompanyName: s.CompanyName,
		Author: s.Author,
	}

	if pr.Citations != nil {
		va.CitationMap = pr.Citations.Map
		va.CitationsHTML = pr.Citations.HTML
	} else {
		va.CitationMap = article.CitationMap{}
	}
	if pr.InternalLinks != nil {
		va.InternalLinks = pr.InternalLinks.Links
		va.InternalLinksHTML = pr.InternalLinks.HTML
	}
	if pr.TOC != nil {
		va.TOC = pr.TOC
	}
	if pr.Metadata != nil {
		va.Metadata = *pr.Metadata
	}
	if pr.Images != nil {
		va.Images = *pr.Images
	}

	linkify(va, pc)
	encodeEntities(va)

	pc.ValidatedArticle = va
	return nil
}

func buildFAQ(src *article.ArticleOutput) []article.FAQItem {
	var out []article.FAQItem
	for i := range src.FAQQuestions {
		if src.FAQQuestions[i] == "" {
			continue
		}
		out = append(out, article.FAQItem{Question: src.FAQQuestions[i], Answer: src.FAQAnswers[i]})
	}
	return out
}

func buildPAA(src *article.ArticleOutput) []article.PAAItem {
	var out []article.PAAItem
	for i := range src.PAAQuestions {
		if src.PAAQuestions[i] == "" {
			continue
		}
		out = append(out, article.PAAItem{Question: src.PAAQuestions[i], Answer: src.PAAAnswers[i]})
	}
	return out
}

// lookup adapts article.CitationMap to textproc.CitationLookup.
func lookup(m article.CitationMap) textproc.CitationLookup {
	return func(marker string) (textproc.Citation, bool) {
		e, ok := m[marker]
		if !ok {
			return textproc.Citation{}, false
		}
		return textproc.Citation{URL: e.URL, Title: e.Title}, true
	}
}

// linkify rewrites [N] markers into anchor links across every HTML content
// field. A missing map entry simply removes the
// marker, with a warning.
func linkify(va *article.ValidatedArticle, pc *Context) {
	find := lookup(va.CitationMap)
	before := va.Intro + va.DirectAnswer
	for _, c := range va.SectionContents {
		before += c
	}
	unresolvedCount := countUnresolvedMarkers(before, va.CitationMap)
	if unresolvedCount > 0 {
		pc.AddWarning(fmt.Sprintf("stage8: %d citation marker(s) had no _citation_map entry and were removed", unresolvedCount))
	}

	va.Intro = textproc.Linkify(va.Intro, find)
	va.DirectAnswer = textproc.Linkify(va.DirectAnswer, find)
	for i := range va.SectionContents {
		va.SectionContents[i] = textproc.Linkify(va.SectionContents[i], find)
	}
}

func countUnresolvedMarkers(html string, m article.CitationMap) int {
	count := 0
	i := 0
	for i < len(html) {
		if html[i] != '[' {
			i++
			continue
		}
		j := i + 1
		for j < len(html) && html[j] >= '0' && html[j] <= '9' {
			j++
		}
		if j > i+1 && j < len(html) && html[j] == ']' {
			if _, ok := m[html[i+1:j]]; !ok {
				count++
			}
			i = j + 1
			continue
		}
		i++
	}
	return count
}

// encodeEntities applies TextNormalizer's entity-safing to every HTML
// content field; plain-text fields are left alone
// since they must never contain markup at all.
func encodeEntities(va *article.ValidatedArticle) {
	va.Intro = textproc.EncodeEntities(va.Intro)
	va.DirectAnswer = textproc.EncodeEntities(va.DirectAnswer)
	for i := range va.SectionContents {
		va.SectionContents[i] = textproc.EncodeEntities(va.SectionContents[i])
	}
	va.CitationsHTML = textproc.EncodeEntities(va.CitationsHTML)
	va.InternalLinksHTML = textproc.EncodeEntities(va.InternalLinksHTML)
}
