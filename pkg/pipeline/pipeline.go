// Package pipeline wires extraction and chunking into the per-document
// processing entry point.
package pipeline

import (
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/esglab/reportrag/internal/models"
	"github.com/esglab/reportrag/pkg/extractor"
	"github.com/esglab/reportrag/pkg/processor"
)

type PipelineConfig struct {
	Extractor *extractor.Extractor
	Processor processor.Processor
	Logger    *slog.Logger
}

// Pipeline turns one report file into text chunks plus metadata. It holds
// no per-document state; concurrent ProcessDocument calls on different
// files are safe.
type Pipeline struct {
	extractor *extractor.Extractor
	processor processor.Processor
	logger    *slog.Logger
}

func NewWithConfig(config PipelineConfig) *Pipeline {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.Extractor == nil {
		config.Extractor = extractor.NewWithConfig(extractor.Config{Logger: config.Logger})
	}

	return &Pipeline{
		extractor: config.Extractor,
		processor: config.Processor,
		logger:    config.Logger,
	}
}

// ProcessDocument extracts the file, linearizes its tables, chunks the
// merged text, and returns the chunks with filled-in metadata. On failure
// no partial result is returned: chunks are nil and metadata is zero.
func (p *Pipeline) ProcessDocument(path string) ([]string, models.Metadata, error) {
	meta := models.Metadata{
		FileName:    filepath.Base(path),
		FileType:    strings.ToLower(filepath.Ext(path)),
		ProcessTime: time.Now().Format(time.RFC3339),
	}

	result, err := p.extractor.Extract(path)
	if err != nil {
		return nil, models.Metadata{}, err
	}

	tableText := extractor.LinearizeTables(result.Tables)
	chunks := p.processor.SplitText(result.Text + "\n" + tableText)

	meta.TablesFound = len(result.Tables)
	meta.TotalChunks = len(chunks)

	p.logger.Debug("processed document",
		"file", meta.FileName,
		"tables", meta.TablesFound,
		"chunks", meta.TotalChunks)

	return chunks, meta, nil
}

// MetricCandidates scans the given chunks for keyword-adjacent numeric
// values. Auxiliary to ProcessDocument; it never fails.
func (p *Pipeline) MetricCandidates(chunks []string) []models.MetricCandidate {
	var candidates []models.MetricCandidate
	for _, chunk := range chunks {
		candidates = append(candidates, p.processor.MetricCandidates(chunk)...)
	}
	return candidates
}
