package pipeline

// Topology groups the fixed stage set into four bands: sequential prefix,
// conditional refinement, parallel fan-out, and sequential tail. A plain
// literal slice-of-slices rather than a topological sort over a general DAG,
// since the edges here are fixed: every parallel-fan-out stage's only parent
// is Stage 3, and the tail's only parent is the fan-out as a whole.
type Topology struct {
	Prefix []Stage // Stage 0, 1, 2
	Refine Stage // Stage 3 (conditional on structured_data)
	ParallelCritical []Stage // Stage 4, 5: failure is fatal
	ParallelAux []Stage // Stage 6, 7, image: failure degrades only
	Merge Stage // Stage 8
	Gate Stage // Stage 10
	Export Stage // Stage 9; nil if the caller has no exporter wired
}

// NewStages is the deterministic StageRegistry/Factory: builds one
// instance of every stage, wired with the shared Deps.
func NewStages(deps Deps) *Topology {
	return &Topology{
		Prefix: []Stage{
			NewCompanyStage(),
			&PromptStage{},
			&GenerationStage{Text: deps.Text},
		},
		Refine: &QualityRefinementStage{Text: deps.Text},
		ParallelCritical: []Stage{
			&CitationsStage{
				Prober: deps.Prober,
				AuthorityFallback: deps.Config.AuthorityFallback,
				Competitors: deps.Config.Competitors,
			},
			&InternalLinksStage{
				Prober: deps.Prober,
				Competitors: deps.Config.Competitors,
			},
		},
		ParallelAux: []Stage{
			&TOCStage{},
			&MetadataStage{JitterDays: deps.Config.PublicationJitterDays},
			&ImageStage{Image: deps.Image},
		},
		Merge: &MergeLinkStage{CompanyName: deps.Config.CompanyName, Author: deps.Config.Author},
		Gate: &QualityGateStage{PublicationFreshDays: 30},
		Export: deps.ExportStage, // wired by the caller; nil is valid (export skipped)
	}
}
