package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/soochol/blogforge/internal/article"
	"github.com/soochol/blogforge/internal/textproc"
)

// CSVExporter writes a flat, spreadsheet-friendly rendition: one row per
// content block (field, value). No third-party CSV library appears
// anywhere in the retrieved pack, so this uses encoding/csv directly;
// the format itself is simple enough that a library would add nothing.
type CSVExporter struct{}

func (e *CSVExporter) Format() string { return "csv" }

func (e *CSVExporter) Export(va *article.ValidatedArticle, dir string) (string, error) {
	path := filepath.Join(dir, "article.csv")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("csv export: create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	rows := [][]string{
		{"field", "value"},
		{"headline", va.Headline},
		{"subtitle", va.Subtitle},
		{"teaser", va.Teaser},
		{"meta_title", va.MetaTitle},
		{"meta_description", va.MetaDescription},
		{"intro", textproc.StripHTMLTags(va.Intro)},
		{"direct_answer", textproc.StripHTMLTags(va.DirectAnswer)},
	}
	for i := range va.SectionTitles {
		if va.SectionTitles[i] == "" && va.SectionContents[i] == "" {
			continue
		}
		rows = append(rows, []string{fmt.Sprintf("section_%02d_title", i+1), va.SectionTitles[i]})
		rows = append(rows, []string{fmt.Sprintf("section_%02d_content", i+1), textproc.StripHTMLTags(va.SectionContents[i])})
	}
	for i, f := range va.FAQ {
		rows = append(rows, []string{fmt.Sprintf("faq_%02d_question", i+1), f.Question})
		rows = append(rows, []string{fmt.Sprintf("faq_%02d_answer", i+1), f.Answer})
	}
	for i, p := range va.PAA {
		rows = append(rows, []string{fmt.Sprintf("paa_%02d_question", i+1), p.Question})
		rows = append(rows, []string{fmt.Sprintf("paa_%02d_answer", i+1), p.Answer})
	}
	rows = append(rows, []string{"word_count", fmt.Sprintf("%d", va.Metadata.WordCount)})
	rows = append(rows, []string{"reading_time_minutes", fmt.Sprintf("%d", va.Metadata.ReadingTimeMinutes)})
	rows = append(rows, []string{"publication_date", va.Metadata.PublicationDate})

	if err := w.WriteAll(rows); err != nil {
		return "", fmt.Errorf("csv export: write %s: %w", path, err)
	}
	return path, nil
}
