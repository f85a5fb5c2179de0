// Package export writes a ValidatedArticle to disk in one or more output
// formats, one file per format under a per-job directory, with each
// format isolated from the others' failures.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/soochol/blogforge/internal/article"
)

// Exporter writes one export format for a ValidatedArticle, returning the
// path it wrote to.
type Exporter interface {
	Format() string
	Export(va *article.ValidatedArticle, dir string) (path string, err error)
}

// DirFor returns the per-job artifact directory, named by jobID, creating
// it (and its images subdirectory) if necessary.
func DirFor(baseDir, jobID string) (string, error) {
	dir := filepath.Join(baseDir, jobID)
	if err := os.MkdirAll(filepath.Join(dir, "images"), 0o755); err != nil {
		return "", fmt.Errorf("export: create job dir: %w", err)
	}
	return dir, nil
}

// sortedCitationKeys returns a CitationMap's keys ordered numerically
// (the map itself is unordered, but citation markers render in ascending
// order in every format).
func sortedCitationKeys(m article.CitationMap) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) < len(keys[j])
		}
		return keys[i] < keys[j]
	})
	return keys
}

// Registry is the set of available exporters, keyed by format name.
func Registry() map[string]Exporter {
	return map[string]Exporter{
		"html": &HTMLExporter{},
		"markdown": &MarkdownExporter{},
		"json": &JSONExporter{},
		"csv": &CSVExporter{},
		"xlsx": &XLSXExporter{},
		"pdf": &PDFExporter{},
	}
}
