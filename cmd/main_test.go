package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	cfgPkg "github.com/esglab/reportrag/pkg/config"
)

func TestApplyFileConfigPrecedence(t *testing.T) {
	// Flag defaults as parseFlags would leave them
	config := Config{
		Model:     "mistral",
		ChunkSize: 1000,
		VectorDim: 768,
	}

	cfg := &cfgPkg.Config{}
	cfg.LLM.Model = "llama3"
	cfg.LLM.BaseURL = "http://file-ollama:11434"
	cfg.Database.URL = "postgres://file-db:5432/esg"
	cfg.Database.VectorDim = 1024
	cfg.Processor.ChunkSize = 500
	cfg.Ingest.ReportsDir = "/data/reports"

	// chunk-size was set on the command line, the rest was not.
	set := map[string]bool{"chunk-size": true}
	config.ChunkSize = 2000
	applyFileConfig(&config, cfg, set)

	// Explicit flag wins over the file.
	assert.Equal(t, 2000, config.ChunkSize)

	// File values fill in everything the user did not set.
	assert.Equal(t, "llama3", config.Model)
	assert.Equal(t, "http://file-ollama:11434", config.BaseURL)
	assert.Equal(t, "postgres://file-db:5432/esg", config.DBUrl)
	assert.Equal(t, 1024, config.VectorDim)
	assert.Equal(t, "/data/reports", config.ReportsDir)
}

func TestApplyFileConfigAllFlagsSet(t *testing.T) {
	config := Config{
		Model:      "mistral",
		BaseURL:    "http://flag-ollama:11434",
		DBUrl:      "postgres://flag-db:5432/esg",
		VectorDim:  768,
		ChunkSize:  1000,
		ReportsDir: "./reports",
	}
	want := config

	cfg := &cfgPkg.Config{}
	cfg.LLM.Model = "llama3"
	cfg.LLM.BaseURL = "http://file-ollama:11434"
	cfg.Database.URL = "postgres://file-db:5432/esg"
	cfg.Database.VectorDim = 1024
	cfg.Processor.ChunkSize = 500
	cfg.Ingest.ReportsDir = "/data/reports"

	set := map[string]bool{
		"model":       true,
		"ollama-url":  true,
		"db-url":      true,
		"vector-dim":  true,
		"chunk-size":  true,
		"reports-dir": true,
	}
	applyFileConfig(&config, cfg, set)

	assert.Equal(t, want, config)
}
