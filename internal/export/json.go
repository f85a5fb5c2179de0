package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/soochol/blogforge/internal/article"
)

// JSONExporter writes the ValidatedArticle verbatim, for API consumers
// and downstream re-processing pipelines.
type JSONExporter struct{}

func (e *JSONExporter) Format() string { return "json" }

func (e *JSONExporter) Export(va *article.ValidatedArticle, dir string) (string, error) {
	data, err := json.MarshalIndent(va, "", " ")
	if err != nil {
		return "", fmt.Errorf("json export: marshal: %w", err)
	}
	path := filepath.Join(dir, "article.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("json export: write %s: %w", path, err)
	}
	return path, nil
}
