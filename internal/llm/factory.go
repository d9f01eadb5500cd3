package llm

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cognalign/tomsteer/internal/config"
)

func NewRegistryFromConfig(cfg *config.Config) (*Registry, error) {
	if cfg == nil {
		return nil, errors.New("llm: nil config")
	}

	r := NewRegistry()
	for name, pcfg := range cfg.LLM.Providers {
		key := strings.ToLower(strings.TrimSpace(name))
		switch key {
		case "":
			continue
		case "claude", "anthropic":
			r.Register(NewClaudeProvider(pcfg.APIKey, pcfg.BaseURL, pcfg.Model))
		case "openai":
			r.Register(NewOpenAIProvider(pcfg.APIKey, pcfg.BaseURL, pcfg.Model))
		case "steer", "local":
			r.Register(NewSteerProvider(pcfg.BaseURL, pcfg.Model))
		default:
			return nil, fmt.Errorf("llm: unknown provider %q", name)
		}
	}

	return r, nil
}

func ProviderFromConfig(cfg *config.Config, name string) (Provider, error) {
	if cfg == nil {
		return nil, errors.New("llm: nil config")
	}
	reg, err := NewRegistryFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	name = normalizeProviderName(name)
	if name == "" {
		name = normalizeProviderName(cfg.LLM.DefaultProvider)
	}
	if name == "" {
		name = "steer"
	}
	if p, ok := reg.Get(name); ok {
		return p, nil
	}

	// The steer provider needs no credentials; build it on demand so a bare
	// config still works against a default local endpoint.
	if name == "steer" {
		return NewSteerProvider("", ""), nil
	}

	return nil, fmt.Errorf("llm: provider %q not configured (available: %s)", name, strings.Join(reg.Names(), ", "))
}

// JudgeProviderFromConfig returns the provider used for free-text answer
// judging: claude when configured, otherwise openai.
func JudgeProviderFromConfig(cfg *config.Config) (Provider, error) {
	if cfg == nil {
		return nil, errors.New("llm: nil config")
	}
	reg, err := NewRegistryFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	if p, ok := reg.Get("claude"); ok {
		return p, nil
	}
	if p, ok := reg.Get("openai"); ok {
		return p, nil
	}
	return nil, errors.New("llm: no judge provider configured (need claude or openai)")
}

func normalizeProviderName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	switch name {
	case "anthropic":
		return "claude"
	case "local":
		return "steer"
	default:
		return name
	}
}
