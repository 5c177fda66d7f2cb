package types

import (
	"context"
	"time"

	"github.com/esglab/reportrag/internal/models"
)

// Core interfaces
type Document interface {
	GetID() string
	GetName() string
	GetContent() string
	GetMetadata() map[string]interface{}
}

type Extractor interface {
	Extract(path string) (*models.Extraction, error)
}

type Processor interface {
	SplitText(text string) []string
	MetricCandidates(text string) []models.MetricCandidate
}

type Pipeline interface {
	ProcessDocument(path string) ([]string, models.Metadata, error)
}

type VectorStore interface {
	Store(docs []models.ProcessedDocument) error
	Query(embedding []float32, limit int) ([]models.Document, error)
	Close()
}

type Embedder interface {
	CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error)
	FlattenEmbeddings(embeddings [][]float32) []float32
}

type Config struct {
	LLM       LLMConfig
	Database  DatabaseConfig
	Ingest    IngestConfig
	Processor ProcessorConfig
	UI        UIConfig
}

type LLMConfig struct {
	BaseURL         string
	Model           string
	EmbedModel      string
	MaxTokens       int
	Temperature     float64
	SystemTemplate  string
	ContextTemplate string
}

type DatabaseConfig struct {
	URL            string
	TableName      string
	VectorDim      int
	BatchSize      int
	SearchLimit    int
	SearchDistance float32
}

type IngestConfig struct {
	ReportsDir        string
	ListingURL        string
	MaxDepth          int
	RateLimit         float64
	IgnorePatterns    []string
	AllowedExtensions []string
	Timeout           time.Duration
	OnProgress        func(url string)
}

type ProcessorConfig struct {
	ChunkSize      int
	ChunkOverlap   int
	SectionMatcher func(line string) bool
}

type UIConfig struct {
	Streaming bool
}
