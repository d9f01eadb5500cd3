package main

import (
	"github.com/cognalign/tomsteer/internal/config"
	"github.com/cognalign/tomsteer/internal/llm"
)

var evalProviderFromConfig = func(cfg *config.Config, providerFlag, modelFlag string) (llm.Provider, string, error) {
	return resolveProvider(cfg, providerFlag, modelFlag)
}

var judgeProviderFromConfig = llm.JudgeProviderFromConfig
