package pipeline

import (
	"context"

	"github.com/soochol/blogforge/internal/model"
	"github.com/soochol/blogforge/internal/probe"
)

// Stage is one unit of the fixed pipeline. It mutates the
// shared Context in place and returns only an error; there is no generic
// NodeDefinition/state-map indirection because the topology here is fixed,
// not user-authored (see internal/pipeline/engine.go's doc comment).
type Stage interface {
	Num() int
	Name() string
	Execute(ctx context.Context, pc *Context) error
}

// Deps bundles the capabilities every stage may need: the LLM client
// (an injected generate capability, never a package-level singleton), the
// image client, the HTTP prober shared by Stages 4 and 5, and process-level
// config.
type Deps struct {
	Text        *model.Client
	Image       *model.ImageClient
	Prober      *probe.Prober
	Config      Config
	ExportStage Stage // Stage 9; constructed by the caller since it needs an Exporter + format list
}

// Config is process-level, deployment-tunable configuration distinct from
// the per-job article.JobConfig.
type Config struct {
	AuthorityFallback map[string][]string
	Competitors       []string
	CompanyName       string
	Author            string
	MaxRegenerations  int
	// PublicationJitterDays enables optional per-run seeded randomization of
	// the publication date within the last N days; 0 disables it and Stage 7
	// uses the current time.
	PublicationJitterDays int
}

// DefaultAuthorityFallback is a small, curated, high-trust domain set left
// to deployment. Keyed by generic topic bucket.
func DefaultAuthorityFallback() map[string][]string {
	return map[string][]string{
		"government": {"https://www.nist.gov"},
		"research":   {"https://www.ncbi.nlm.nih.gov/pmc"},
		"industry":   {"https://hbr.org"},
	}
}
