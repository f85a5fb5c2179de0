package model

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	adkmodel "google.golang.org/adk/model"
	"google.golang.org/genai"

	"github.com/soochol/blogforge/internal/llmutil"
)

// Client is the pipeline-facing LLM capability: generate(prompt, schema?,
// tools?) -> structured_or_text. It wraps a single adkmodel.LLM so every
// pipeline stage shares one call shape instead of touching the SDK
// directly.
type Client struct {
	LLM adkmodel.LLM
	Model string
}

// NewClient wraps an adkmodel.LLM for use by pipeline stages.
func NewClient(llm adkmodel.LLM, modelName string) *Client {
	return &Client{LLM: llm, Model: modelName}
}

// GenerateOptions configures a single Generate call. WebSearch and
// URLContext take effect only when the wrapped LLM implements
// NativeToolProvider and returns a spec for that tool; otherwise the
// request is sent without it.
type GenerateOptions struct {
	SystemPrompt string
	Schema *genai.Schema // structured-output constraint; nil for free text
	WebSearch bool // enable the GoogleSearch native tool
	URLContext bool // enable the URL-context native tool
}

// Generate invokes the LLM and returns the raw text of its response.
// If opts.Schema is set, the returned text is a JSON object matching that
// schema (subject to provider support); callers parse it with ParseJSON.
func (c *Client) Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	cfg := &genai.GenerateContentConfig{}
	if opts.SystemPrompt != "" {
		cfg.SystemInstruction = genai.NewContentFromText(opts.SystemPrompt, genai.RoleUser)
	}
	if opts.Schema != nil {
		cfg.ResponseMIMEType = "application/json"
		cfg.ResponseSchema = opts.Schema
	}

	var tools []*genai.Tool
	if provider, ok := c.LLM.(NativeToolProvider); ok {
		if opts.WebSearch {
			if t, ok := provider.NativeTool("web_search"); ok {
				tools = append(tools, t)
			}
		}
		if opts.URLContext {
			if t, ok := provider.NativeTool("url_context"); ok {
				tools = append(tools, t)
			}
		}
	}
	if len(tools) > 0 {
		cfg.Tools = tools
	}

	req := &adkmodel.LLMRequest{
		Model: c.Model,
		Config: cfg,
		Contents: []*genai.Content{
			genai.NewContentFromText(prompt, genai.RoleUser),
		},
	}

	var resp *adkmodel.LLMResponse
	for r, err := range c.LLM.GenerateContent(ctx, req, false) {
		if err != nil {
			return "", fmt.Errorf("model: generate failed: %w", err)
		}
		resp = r
	}
	if resp == nil {
		return "", fmt.Errorf("model: empty response")
	}
	return llmutil.ExtractText(resp), nil
}

// GenerateJSON invokes Generate with the given schema and decodes the
// response into target, tolerating a markdown-fenced or prefixed reply
// via llmutil.StripMarkdownJSON before json.Decode.
func (c *Client) GenerateJSON(ctx context.Context, prompt string, schema *genai.Schema, webSearch, urlContext bool, target any) error {
	text, err := c.Generate(ctx, prompt, GenerateOptions{Schema: schema, WebSearch: webSearch, URLContext: urlContext})
	if err != nil {
		return err
	}
	content, err := llmutil.StripMarkdownJSON(text)
	if err != nil {
		return fmt.Errorf("model: no JSON object in response: %w (raw: %.200s)", err, text)
	}
	if err := json.NewDecoder(strings.NewReader(content)).Decode(target); err != nil {
		return fmt.Errorf("model: decode response: %w (raw: %.200s)", err, content)
	}
	return nil
}
