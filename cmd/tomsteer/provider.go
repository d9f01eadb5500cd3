package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cognalign/tomsteer/internal/config"
	"github.com/cognalign/tomsteer/internal/llm"
)

// resolveProvider builds a provider from config with optional flag overrides.
// The returned model name is what gets recorded on run results.
func resolveProvider(cfg *config.Config, providerFlag string, modelFlag string) (llm.Provider, string, error) {
	if cfg == nil {
		return nil, "", fmt.Errorf("provider: missing config")
	}

	name := strings.ToLower(strings.TrimSpace(providerFlag))
	if name == "" {
		name = strings.ToLower(strings.TrimSpace(cfg.LLM.DefaultProvider))
	}
	switch name {
	case "anthropic":
		name = "claude"
	case "", "local":
		name = "steer"
	}

	pcfg := cfg.LLM.Providers[name]
	model := strings.TrimSpace(modelFlag)
	if model == "" {
		model = strings.TrimSpace(pcfg.Model)
	}
	modelName := model
	if modelName == "" {
		modelName = "default"
	}

	switch name {
	case "claude":
		return llm.NewClaudeProvider(pcfg.APIKey, pcfg.BaseURL, model), modelName, nil
	case "openai":
		return llm.NewOpenAIProvider(pcfg.APIKey, pcfg.BaseURL, model), modelName, nil
	case "steer":
		return llm.NewSteerProvider(pcfg.BaseURL, model), modelName, nil
	default:
		available := make([]string, 0, len(cfg.LLM.Providers))
		for k := range cfg.LLM.Providers {
			available = append(available, k)
		}
		sort.Strings(available)
		return nil, "", fmt.Errorf("provider: unknown provider %q (configured: %s)", name, strings.Join(available, ", "))
	}
}
