package pipeline

import (
	"context"
	"fmt"

	"github.com/soochol/blogforge/internal/sitemap"
)

// CompanyStage is Stage 0: fetches CompanyContext and LinkablePool for the
// job's company_url. It is a sequential-prefix stage; its
// errors are fatal to the run.
type CompanyStage struct {
	Resolver *sitemap.Resolver
}

// NewCompanyStage creates Stage 0 with a default sitemap resolver.
func NewCompanyStage() *CompanyStage {
	return &CompanyStage{Resolver: sitemap.New()}
}

func (s *CompanyStage) Num() int { return 0 }
func (s *CompanyStage) Name() string { return "company" }

func (s *CompanyStage) Execute(ctx context.Context, pc *Context) error {
	company, pool, err := s.Resolver.Resolve(ctx, pc.JobConfig.CompanyURL)
	if err != nil {
		return fmt.Errorf("stage0: resolve company_url: %w", err)
	}
	pc.CompanyData = company
	pc.LinkablePool = pool
	return nil
}
