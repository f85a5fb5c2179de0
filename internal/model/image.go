package model

import (
	"context"
	"fmt"

	adkmodel "google.golang.org/adk/model"
	"google.golang.org/genai"
)

// ImageClient is the pipeline-facing image-generation capability, matching
// external interface: generate_image(prompt, aspect_ratio) ->
// URI or bytes. Grounded in internal/model/gemini_image.go's
// ResponseModalities wiring.
type ImageClient struct {
	LLM adkmodel.LLM
	Model string
}

// NewImageClient wraps an image-capable adkmodel.LLM.
func NewImageClient(llm adkmodel.LLM, modelName string) *ImageClient {
	return &ImageClient{LLM: llm, Model: modelName}
}

// GenerateImage returns raw image bytes and a MIME type for prompt, sized
// per aspectRatio (informational hint passed in the prompt text, since the
// underlying adapter derives ResponseModalities from the model name alone).
func (c *ImageClient) GenerateImage(ctx context.Context, prompt, aspectRatio string) ([]byte, string, error) {
	req := &adkmodel.LLMRequest{
		Model: c.Model,
		Contents: []*genai.Content{
			genai.NewContentFromText(fmt.Sprintf("%s (aspect ratio %s)", prompt, aspectRatio), genai.RoleUser),
		},
	}

	var resp *adkmodel.LLMResponse
	for r, err := range c.LLM.GenerateContent(ctx, req, false) {
		if err != nil {
			return nil, "", fmt.Errorf("model: image generation failed: %w", err)
		}
		resp = r
	}
	if resp == nil || resp.Content == nil {
		return nil, "", fmt.Errorf("model: empty image response")
	}
	for _, p := range resp.Content.Parts {
		if p.InlineData != nil && len(p.InlineData.Data) > 0 {
			return p.InlineData.Data, p.InlineData.MIMEType, nil
		}
	}
	return nil, "", fmt.Errorf("model: no image data in response")
}
