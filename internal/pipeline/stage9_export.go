package pipeline

import (
	"context"
	"fmt"

	"github.com/soochol/blogforge/internal/export"
)

// StorageExportStage is Stage 9: it writes the gated ValidatedArticle in
// every format the job requested, one artifact directory per job, with
// each format isolated from the others' failures so one broken exporter
// never takes down the rest of the run.
type StorageExportStage struct {
	BaseDir string
	Exporters map[string]export.Exporter // defaults to export.Registry when nil
}

// NewStorageExportStage builds a StorageExportStage writing artifacts
// under baseDir, using the default exporter registry.
func NewStorageExportStage(baseDir string) *StorageExportStage {
	return &StorageExportStage{BaseDir: baseDir, Exporters: export.Registry()}
}

func (s *StorageExportStage) Num() int { return 9 }
func (s *StorageExportStage) Name() string { return "storage_export" }

func (s *StorageExportStage) Execute(ctx context.Context, pc *Context) error {
	if pc.ValidatedArticle == nil {
		return fmt.Errorf("storage export: no validated article to export")
	}

	registry := s.Exporters
	if registry == nil {
		registry = export.Registry()
	}

	dir, err := export.DirFor(s.BaseDir, pc.JobID)
	if err != nil {
		return fmt.Errorf("storage export: %w", err)
	}

	formats := pc.JobConfig.ExportFormats
	if len(formats) == 0 {
		formats = []string{"html", "json"}
	}

	for _, format := range formats {
		exporter, ok := registry[format]
		if !ok {
			pc.AddWarning(fmt.Sprintf("storage_export: unknown format %q requested", format))
			continue
		}
		path, err := exporter.Export(pc.ValidatedArticle, dir)
		if err != nil {
			pc.AddWarning(fmt.Sprintf("storage_export: %s: %v", format, &ExporterError{Format: format, Cause: err}))
			continue
		}
		pc.SetStorageResult(format, path)
	}

	return nil
}
