package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/soochol/blogforge/internal/article"
	"github.com/soochol/blogforge/internal/textproc"
)

// PDFExporter writes a minimal single-content-stream PDF. The retrieved
// pack only carries a PDF *reader* (github.com/ledongthuc/pdf, used by
// internal/extract/pdf.go to pull text out of uploaded documents); no
// example anywhere writes PDFs, so there is no third-party writer to
// ground this on. Rather than fabricate a dependency, this emits the
// article as bare Helvetica text laid out by hand against the raw PDF
// object grammar: good enough for a printable proof copy, not a
// typeset deliverable.
type PDFExporter struct{}

func (e *PDFExporter) Format() string { return "pdf" }

func (e *PDFExporter) Export(va *article.ValidatedArticle, dir string) (string, error) {
	lines := pdfLines(va)
	data := buildMinimalPDF(lines)
	path := filepath.Join(dir, "article.pdf")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("pdf export: write %s: %w", path, err)
	}
	return path, nil
}

// pdfLines flattens the article into wrapped plain-text lines, one
// logical line per slice entry.
func pdfLines(va *article.ValidatedArticle) []string {
	var lines []string
	lines = append(lines, va.Headline, "")
	if va.Subtitle != "" {
		lines = append(lines, va.Subtitle, "")
	}
	lines = append(lines, wrapText(textproc.StripHTMLTags(va.Intro), 95)...)
	lines = append(lines, "")
	lines = append(lines, wrapText(textproc.StripHTMLTags(va.DirectAnswer), 95)...)
	lines = append(lines, "")

	for i := range va.SectionTitles {
		if va.SectionTitles[i] == "" && va.SectionContents[i] == "" {
			continue
		}
		lines = append(lines, va.SectionTitles[i], "")
		lines = append(lines, wrapText(textproc.StripHTMLTags(va.SectionContents[i]), 95)...)
		lines = append(lines, "")
	}
	return lines
}

func wrapText(s string, width int) []string {
	words := strings.Fields(s)
	if len(words) == 0 {
		return nil
	}
	var lines []string
	var cur strings.Builder
	for _, w := range words {
		if cur.Len()+len(w)+1 > width {
			lines = append(lines, cur.String())
			cur.Reset()
		}
		if cur.Len() > 0 {
			cur.WriteByte(' ')
		}
		cur.WriteString(w)
	}
	if cur.Len() > 0 {
		lines = append(lines, cur.String())
	}
	return lines
}

// buildMinimalPDF assembles the smallest valid multi-page PDF/1.4
// document that can hold the given lines, paginating at 54 lines per
// page and writing the cross-reference table by hand.
func buildMinimalPDF(lines []string) []byte {
	const linesPerPage = 54
	var pages [][]string
	for i := 0; i < len(lines); i += linesPerPage {
		end := i + linesPerPage
		if end > len(lines) {
			end = len(lines)
		}
		pages = append(pages, lines[i:end])
	}
	if len(pages) == 0 {
		pages = [][]string{{}}
	}

	var buf strings.Builder
	buf.WriteString("%PDF-1.4\n")

	offsets := []int{0} // object numbers are 1-indexed; offsets[0] is unused
	writeObj := func(body string) {
		offsets = append(offsets, buf.Len())
		buf.WriteString(body)
	}

	numPages := len(pages)
	pageObjStart := 3 // 1=Catalog, 2=Pages, 3..3+n-1=Page objects, then content streams, then font

	kids := make([]string, numPages)
	for i := range kids {
		kids[i] = fmt.Sprintf("%d 0 R", pageObjStart+i)
	}

	writeObj(fmt.Sprintf("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n"))
	writeObj(fmt.Sprintf("2 0 obj\n<< /Type /Pages /Kids [%s] /Count %d >>\nendobj\n",
		strings.Join(kids, " "), numPages))

	fontObjNum := pageObjStart + numPages*2
	for i, page := range pages {
		contentObjNum := pageObjStart + numPages + i
		writeObj(fmt.Sprintf(
			"%d 0 obj\n<< /Type /Page /Parent 2 0 R /Resources << /Font << /F1 %d 0 R >> >> "+
				"/MediaBox [0 0 612 792] /Contents %d 0 R >>\nendobj\n",
			pageObjStart+i, fontObjNum, contentObjNum))
		_ = page
	}
	for i, page := range pages {
		contentObjNum := pageObjStart + numPages + i
		stream := pdfContentStream(page)
		writeObj(fmt.Sprintf("%d 0 obj\n<< /Length %d >>\nstream\n%s\nendstream\nendobj\n",
			contentObjNum, len(stream), stream))
	}
	writeObj(fmt.Sprintf("%d 0 obj\n<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>\nendobj\n", fontObjNum))

	xrefStart := buf.Len()
	totalObjs := len(offsets) - 1
	buf.WriteString(fmt.Sprintf("xref\n0 %d\n", totalObjs+1))
	buf.WriteString("0000000000 65535 f \n")
	for i := 1; i <= totalObjs; i++ {
		buf.WriteString(fmt.Sprintf("%010d 00000 n \n", offsets[i]))
	}
	buf.WriteString(fmt.Sprintf("trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n",
		totalObjs+1, xrefStart))

	return []byte(buf.String())
}

// pdfContentStream lays out lines top to bottom in 11pt Helvetica with
// 14pt leading, escaping PDF
// string-literal metacharacters.
func pdfContentStream(lines []string) string {
	var b strings.Builder
	b.WriteString("BT /F1 11 Tf 14 TL 54 738 Td\n")
	for i, line := range lines {
		if i > 0 {
			b.WriteString("T*\n")
		}
		fmt.Fprintf(&b, "(%s) Tj\n", escapePDFString(line))
	}
	b.WriteString("ET")
	return b.String()
}

func escapePDFString(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`)
	return r.Replace(s)
}
