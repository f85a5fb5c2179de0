package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/soochol/blogforge/internal/api"
	"github.com/soochol/blogforge/internal/config"
	upalmodel "github.com/soochol/blogforge/internal/model"
	"github.com/soochol/blogforge/internal/pipeline"
	"github.com/soochol/blogforge/internal/probe"
	adkmodel "google.golang.org/adk/model"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "serve" {
		serve()
		return
	}
	fmt.Println("blogforge v0.1.0")
	fmt.Println("Usage: blogforge serve")
}

func serve() {
	cfg, err := config.LoadDefault()
	if err != nil {
		slog.Error("config error", "err", err)
		os.Exit(1)
	}

	llms := make(map[string]adkmodel.LLM)
	providerTypes := make(map[string]string) // name -> type

	for name, pc := range cfg.Providers {
		switch pc.Type {
		case "anthropic":
			llms[name] = upalmodel.NewAnthropicLLM(pc.APIKey)
		case "gemini":
			geminiURL := strings.TrimRight(pc.URL, "/") + "/v1beta/openai"
			llms[name] = upalmodel.NewOpenAILLM(pc.APIKey,
				upalmodel.WithOpenAIBaseURL(geminiURL),
				upalmodel.WithOpenAIName(name))
		case "claude-code":
			llms[name] = upalmodel.NewClaudeCodeLLM()
		case "gemini-image":
			llms[name] = upalmodel.NewGeminiImageLLM(pc.APIKey)
		case "zimage":
			llms[name] = upalmodel.NewZImageLLM(pc.URL)
		default:
			llms[name] = upalmodel.NewOpenAILLM(pc.APIKey,
				upalmodel.WithOpenAIBaseURL(pc.URL),
				upalmodel.WithOpenAIName(name))
		}
		providerTypes[name] = pc.Type
	}

	// Pick the text-generation LLM with deterministic priority order:
	// claude-code first (no API key needed), then anthropic, gemini, openai.
	// Providers of any other type are never picked for text generation.
	var textLLM adkmodel.LLM
	var textModelName string
	textPriority := []struct{ typ, model string }{
		{"claude-code", "sonnet"},
		{"anthropic", "claude-sonnet-4-6"},
		{"gemini", "gemini-2.0-flash"},
		{"openai", "gpt-4o"},
	}
	for _, p := range textPriority {
		for name, typ := range providerTypes {
			if typ == p.typ {
				textLLM = llms[name]
				textModelName = p.model
				break
			}
		}
		if textLLM != nil {
			break
		}
	}
	if textLLM == nil {
		slog.Error("no text-generation provider configured")
		os.Exit(1)
	}

	// Pick an image-generation LLM if one is configured; image generation
	// degrades to a skipped, warned stage when none is available.
	var imageLLM adkmodel.LLM
	var imageModelName string
	imageModels := map[string]string{
		"gemini-image": "gemini-2.0-flash-exp-image-generation",
		"zimage":       "z-image-turbo",
	}
	for name, typ := range providerTypes {
		if model, ok := imageModels[typ]; ok {
			imageLLM = llms[name]
			imageModelName = model
			break
		}
	}

	dataDir := "data"
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		slog.Error("failed to create data directory", "err", err)
		os.Exit(1)
	}

	deps := pipeline.Deps{
		Text:   upalmodel.NewClient(textLLM, textModelName),
		Prober: probe.New(),
		Config: pipeline.Config{
			AuthorityFallback: pipeline.DefaultAuthorityFallback(),
			MaxRegenerations:  pipeline.MaxRegenerations,
		},
		ExportStage: pipeline.NewStorageExportStage(dataDir),
	}
	if imageLLM != nil {
		deps.Image = upalmodel.NewImageClient(imageLLM, imageModelName)
	}

	controller := pipeline.NewRegenerationController(pipeline.NewEngine(pipeline.NewStages(deps)), 0)
	srv := api.NewServer(controller)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	slog.Info("starting blogforge server", "addr", addr)
	if err := http.ListenAndServe(addr, srv.Handler()); err != nil {
		slog.Error("server error", "err", err)
		os.Exit(1)
	}
}
