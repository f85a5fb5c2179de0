package export

import (
	"fmt"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/soochol/blogforge/internal/article"
	"github.com/soochol/blogforge/internal/textproc"
)

// XLSXExporter writes a workbook with one sheet for the article body and
// one for sources, for editors who review copy in spreadsheets before
// publication. Grounded in internal/extract/office.go's use of
// github.com/xuri/excelize/v2, here for writing rather than reading.
type XLSXExporter struct{}

func (e *XLSXExporter) Format() string { return "xlsx" }

func (e *XLSXExporter) Export(va *article.ValidatedArticle, dir string) (string, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Article"
	f.SetSheetName("Sheet1", sheet)
	f.SetColWidth(sheet, "A", "A", 24)
	f.SetColWidth(sheet, "B", "B", 100)

	row := 1
	writeRow := func(field, value string) {
		f.SetCellValue(sheet, cellRef("A", row), field)
		f.SetCellValue(sheet, cellRef("B", row), value)
		row++
	}

	writeRow("headline", va.Headline)
	writeRow("subtitle", va.Subtitle)
	writeRow("meta_title", va.MetaTitle)
	writeRow("meta_description", va.MetaDescription)
	writeRow("intro", textproc.StripHTMLTags(va.Intro))
	writeRow("direct_answer", textproc.StripHTMLTags(va.DirectAnswer))

	for i := range va.SectionTitles {
		if va.SectionTitles[i] == "" && va.SectionContents[i] == "" {
			continue
		}
		writeRow(fmt.Sprintf("section_%02d_title", i+1), va.SectionTitles[i])
		writeRow(fmt.Sprintf("section_%02d_content", i+1), textproc.StripHTMLTags(va.SectionContents[i]))
	}
	for i, item := range va.FAQ {
		writeRow(fmt.Sprintf("faq_%02d_question", i+1), item.Question)
		writeRow(fmt.Sprintf("faq_%02d_answer", i+1), item.Answer)
	}

	const sourcesSheet = "Sources"
	if _, err := f.NewSheet(sourcesSheet); err != nil {
		return "", fmt.Errorf("xlsx export: new sheet: %w", err)
	}
	f.SetCellValue(sourcesSheet, "A1", "marker")
	f.SetCellValue(sourcesSheet, "B1", "title")
	f.SetCellValue(sourcesSheet, "C1", "url")
	srow := 2
	for _, k := range sortedCitationKeys(va.CitationMap) {
		c := va.CitationMap[k]
		f.SetCellValue(sourcesSheet, cellRef("A", srow), k)
		f.SetCellValue(sourcesSheet, cellRef("B", srow), c.Title)
		f.SetCellValue(sourcesSheet, cellRef("C", srow), c.URL)
		srow++
	}

	path := filepath.Join(dir, "article.xlsx")
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("xlsx export: save %s: %w", path, err)
	}
	return path, nil
}

func cellRef(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
