package pipeline

import (
	"context"
	"encoding/base64"
	"fmt"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/soochol/blogforge/internal/article"
	"github.com/soochol/blogforge/internal/model"
)

// imageConcurrency caps image generation at <= 3 concurrent requests (one
// per placement).
const imageConcurrency = 3

// ImageStage is Stage 8a: generates hero/mid/bottom placement images.
// Optional and non-fatal on failure; a parallel-fan-out stage writing only
// the disjoint parallel_results.Images key.
type ImageStage struct {
	Image *model.ImageClient
}

func (s *ImageStage) Num() int { return 8 } // runs in the Stage 4-7 parallel group
func (s *ImageStage) Name() string { return "image" }

type imagePlacement struct {
	key string
	aspectRatio string
}

var imagePlacements = []imagePlacement{
	{key: "hero", aspectRatio: "16:9"},
	{key: "mid", aspectRatio: "4:3"},
	{key: "bottom", aspectRatio: "1:1"},
}

func (s *ImageStage) Execute(ctx context.Context, pc *Context) error {
	if s.Image == nil || pc.StructuredData == nil {
		pc.SetImages(&article.ImageURIs{})
		return nil
	}

	results := make(map[string]string, len(imagePlacements))
	var mu sync.Mutex
	sem := semaphore.NewWeighted(imageConcurrency)
	var wg sync.WaitGroup

	for _, p := range imagePlacements {
		p := p
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := sem.Acquire(ctx, 1); err != nil {
				return
			}
			defer sem.Release(1)

			prompt := fmt.Sprintf("Editorial illustration for a blog article about %q, placement: %s",
				pc.JobConfig.PrimaryKeyword, p.key)
			data, mime, err := s.Image.GenerateImage(ctx, prompt, p.aspectRatio)
			if err != nil {
				pc.AddWarning(fmt.Sprintf("stage8a: image %s generation failed (non-fatal): %v", p.key, err))
				return
			}
			uri := fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(data))
			mu.Lock()
			results[p.key] = uri
			mu.Unlock()
		}()
	}
	wg.Wait()

	pc.SetImages(&article.ImageURIs{
		Hero: results["hero"],
		Mid: results["mid"],
		Bottom: results["bottom"],
	})
	return nil
}
