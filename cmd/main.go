package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	"github.com/esglab/reportrag/internal/models"
	cfgPkg "github.com/esglab/reportrag/pkg/config"
	"github.com/esglab/reportrag/pkg/extractor"
	"github.com/esglab/reportrag/pkg/fetcher"
	"github.com/esglab/reportrag/pkg/llm"
	"github.com/esglab/reportrag/pkg/pipeline"
	"github.com/esglab/reportrag/pkg/processor"
	"github.com/esglab/reportrag/pkg/store"
)

type Config struct {
	BaseURL      string
	DBUrl        string
	ReportsDir   string
	ListingURL   string
	Model        string
	EmbedModel   string
	MaxDepth     int
	ChunkSize    int
	ChunkOverlap int
	VectorDim    int
	TableName    string
	BatchSize    int
	RateLimit    float64
	MaxTokens    int
	Streaming    bool
	Temperature  float64
	ShowMetrics  bool
	Verbose      bool
}

func main() {
	config := parseFlags()

	if err := run(config); err != nil {
		log.Fatal(err)
	}
}

func parseFlags() Config {
	var config Config
	var configPath string

	flag.StringVar(&configPath, "config", "", "Path to config file")
	flag.StringVar(&config.BaseURL, "ollama-url", os.Getenv("OLLAMA_BASE_URL"), "Ollama server URL")
	flag.StringVar(&config.DBUrl, "db-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection string")
	flag.StringVar(&config.ReportsDir, "reports-dir", os.Getenv("REPORTS_DIR"), "Directory of report files to ingest")
	flag.StringVar(&config.ListingURL, "listing-url", "", "Report listing page to download files from")
	flag.StringVar(&config.Model, "model", "mistral", "LLM model to use")
	flag.StringVar(&config.EmbedModel, "embed-model", "nomic-embed-text:latest", "Embedding model to use")
	flag.IntVar(&config.MaxDepth, "max-depth", 3, "Maximum depth when crawling the listing page")
	flag.IntVar(&config.ChunkSize, "chunk-size", 1000, "Size of text chunks")
	flag.IntVar(&config.ChunkOverlap, "chunk-overlap", 200, "Reserved margin when breaking chunks")
	flag.IntVar(&config.VectorDim, "vector-dim", 768, "Vector dimension")
	flag.StringVar(&config.TableName, "table", "report_chunks", "PostgreSQL table name")
	flag.IntVar(&config.BatchSize, "batch-size", 100, "Batch size for database operations")
	flag.Float64Var(&config.RateLimit, "rate-limit", 2.0, "Rate limit for report downloads")
	flag.IntVar(&config.MaxTokens, "max-tokens", 2000, "Maximum tokens for LLM response")
	flag.BoolVar(&config.Streaming, "stream", true, "Enable streaming responses")
	flag.Float64Var(&config.Temperature, "temperature", 0.8, "Set the LLM Temperature")
	flag.BoolVar(&config.ShowMetrics, "metrics", false, "Print metric candidates found in each report")
	flag.BoolVar(&config.Verbose, "verbose", false, "Enable debug logging")
	flag.Parse()

	// Flags set on the command line take precedence over the config file
	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) {
		set[f.Name] = true
	})

	if cfg, err := cfgPkg.LoadConfig(configPath); err == nil {
		applyFileConfig(&config, cfg, set)
	}

	return config
}

// applyFileConfig fills in config-file values for every flag the user did
// not set explicitly on the command line.
func applyFileConfig(config *Config, cfg *cfgPkg.Config, set map[string]bool) {
	if !set["ollama-url"] && cfg.LLM.BaseURL != "" {
		config.BaseURL = cfg.LLM.BaseURL
	}
	if !set["model"] {
		config.Model = cfg.LLM.Model
	}
	if !set["embed-model"] {
		config.EmbedModel = cfg.LLM.EmbedModel
	}
	if !set["max-tokens"] {
		config.MaxTokens = cfg.LLM.MaxTokens
	}
	if !set["temperature"] {
		config.Temperature = cfg.LLM.Temperature
	}
	if !set["db-url"] && cfg.Database.URL != "" {
		config.DBUrl = cfg.Database.URL
	}
	if !set["table"] {
		config.TableName = cfg.Database.TableName
	}
	if !set["vector-dim"] {
		config.VectorDim = cfg.Database.VectorDim
	}
	if !set["batch-size"] {
		config.BatchSize = cfg.Database.BatchSize
	}
	if !set["max-depth"] {
		config.MaxDepth = cfg.Ingest.MaxDepth
	}
	if !set["rate-limit"] {
		config.RateLimit = cfg.Ingest.RateLimit
	}
	if !set["reports-dir"] && cfg.Ingest.ReportsDir != "" {
		config.ReportsDir = cfg.Ingest.ReportsDir
	}
	if !set["listing-url"] && cfg.Ingest.ListingURL != "" {
		config.ListingURL = cfg.Ingest.ListingURL
	}
	if !set["chunk-size"] {
		config.ChunkSize = cfg.Processor.ChunkSize
	}
	if !set["chunk-overlap"] {
		config.ChunkOverlap = cfg.Processor.ChunkOverlap
	}
	if !set["stream"] {
		config.Streaming = cfg.UI.Streaming
	}
}

func getProgressBar(total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription(color.BlueString(description)),
		progressbar.OptionSetItsString("items"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
		progressbar.OptionSetRenderBlankState(true),
	)
}

func getSpinner(description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(color.CyanString(description)),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetWidth(20),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetRenderBlankState(true),
	)
}

// collectReports walks the reports directory and returns every file with a
// supported extension.
func collectReports(dir string) ([]string, error) {
	supported := make(map[string]bool)
	for _, ext := range extractor.SupportedExtensions() {
		supported[ext] = true
	}

	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if supported[strings.ToLower(filepath.Ext(path))] {
			paths = append(paths, path)
		}
		return nil
	})
	return paths, err
}

func run(config Config) error {
	level := slog.LevelInfo
	if config.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	// Initialize components
	proc := processor.NewWithConfig(processor.ProcessorConfig{
		ChunkSize:    config.ChunkSize,
		ChunkOverlap: config.ChunkOverlap,
	})

	pipe := pipeline.NewWithConfig(pipeline.PipelineConfig{
		Extractor: extractor.NewWithConfig(extractor.Config{Logger: logger}),
		Processor: proc,
		Logger:    logger,
	})

	chatEngine, err := llm.NewWithConfig(llm.ChatConfig{
		Model:       config.Model,
		MaxTokens:   config.MaxTokens,
		BaseURL:     config.BaseURL,
		Temperature: config.Temperature,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize chat engine: %v", err)
	}

	embedder, err := llm.NewEmbedderWithConfig(llm.EmbedderConfig{
		Model:   config.EmbedModel,
		BaseURL: config.BaseURL,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize embedder: %v", err)
	}

	vectorStore, err := store.NewWithConfig(store.VectorStoreConfig{
		ConnString: config.DBUrl,
		TableName:  config.TableName,
		VectorDim:  config.VectorDim,
		BatchSize:  config.BatchSize,
		Embedder:   embedder,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize vector store: %v", err)
	}

	defer vectorStore.Close()

	var reports []string

	// If a listing URL is provided, download the linked report files first
	if config.ListingURL != "" {
		color.Blue("\nDownloading reports from %s\n", config.ListingURL)

		downloadBar := getProgressBar(-1, "Downloading reports...")
		f, err := fetcher.NewWithConfig(fetcher.FetcherConfig{
			ListingURL: config.ListingURL,
			OutputDir:  config.ReportsDir,
			MaxDepth:   config.MaxDepth,
			RateLimit:  config.RateLimit,
			OnProgress: func(url string) {
				downloadBar.Add(1)
			},
		})
		if err != nil {
			return fmt.Errorf("failed to initialize fetcher: %v", err)
		}

		downloaded, err := f.Fetch(config.ListingURL)
		downloadBar.Finish()
		if err != nil {
			return fmt.Errorf("failed to download reports: %v", err)
		}
		color.Green("\n✓ Downloaded %d reports\n", len(downloaded))
		reports = append(reports, downloaded...)
	} else if config.ReportsDir != "" {
		found, err := collectReports(config.ReportsDir)
		if err != nil {
			return fmt.Errorf("failed to scan reports directory: %v", err)
		}
		reports = found
	}

	// Process and store every report
	if len(reports) > 0 {
		color.Blue("\nProcessing %d reports\n", len(reports))
		processingBar := getProgressBar(len(reports), "Processing reports...")

		processed := make([]models.ProcessedDocument, 0, len(reports))
		failed := 0
		tablesTotal := 0

		for _, path := range reports {
			chunks, meta, err := pipe.ProcessDocument(path)
			processingBar.Add(1)
			if err != nil {
				failed++
				color.Red("\nFailed to process %s: %v\n", path, err)
				continue
			}

			tablesTotal += meta.TablesFound
			processed = append(processed, models.ProcessedDocument{
				Document: models.Document{
					ID:   meta.FileName,
					Path: path,
					Name: meta.FileName,
				},
				Chunks: chunks,
				Meta:   meta,
			})

			if config.ShowMetrics {
				for _, c := range pipe.MetricCandidates(chunks) {
					fmt.Printf("  %s: %s %s (%s)\n", c.Keyword, c.Value, c.Unit, c.Context)
				}
			}
		}
		totalChunks := 0
		for _, doc := range processed {
			totalChunks += len(doc.Chunks)
		}
		color.Green("\n✓ Processed %d reports into %d chunks (%d tables, %d failed)\n",
			len(processed), totalChunks, tablesTotal, failed)

		// Store in batches with rate display
		storageBar := getProgressBar(len(processed), "Storing in vector database...")
		startTime := time.Now()
		batchSize := config.BatchSize
		for i := 0; i < len(processed); i += batchSize {
			end := i + batchSize
			if end > len(processed) {
				end = len(processed)
			}
			batch := processed[i:end]

			if err := vectorStore.Store(batch); err != nil {
				return fmt.Errorf("failed to store batch: %v", err)
			}
			storageBar.Add(len(batch))

			elapsed := time.Since(startTime).Seconds()
			rate := float64(i+len(batch)) / elapsed
			storageBar.Describe(color.BlueString(
				"Storing in vector database... (%.1f docs/sec)", rate))
		}
		color.Green("\n✓ Storage complete\n")
	}

	// Interactive chat loop with colored output
	color.Cyan("\nAsk about the ingested reports (type 'exit' to quit)")

	scanner := bufio.NewScanner(os.Stdin)
	userPrompt := color.New(color.FgGreen).PrintfFunc()
	assistantPrompt := color.New(color.FgCyan).PrintfFunc()

	for {
		userPrompt("\nYou: ")
		if !scanner.Scan() {
			break
		}

		query := scanner.Text()
		if strings.ToLower(query) == "exit" {
			break
		}

		queryEmbedding, err := embedder.EmbedQuery(context.Background(), query)
		if err != nil {
			color.Red("Failed to create query embedding: %v\n", err)
			continue
		}

		// Show spinner while querying
		querySpinner := getSpinner("Searching reports...")
		docs, err := vectorStore.Query(queryEmbedding, 5)
		querySpinner.Finish()

		if err != nil {
			color.Red("Error querying chunks: %v\n", err)
			continue
		}

		if config.Streaming {
			stream, err := chatEngine.ChatStream(query, docs)
			if err != nil {
				color.Red("Error: %v\n", err)
				continue
			}

			fmt.Print("\n")
			assistantPrompt("Assistant: ")

			responseSpinner := getSpinner("Thinking...")
			firstChunk := true

			for chunk := range stream {
				if strings.HasPrefix(chunk, "Error:") {
					responseSpinner.Finish()
					color.Red("\n%s", chunk)
					break
				}

				if firstChunk {
					responseSpinner.Finish()
					firstChunk = false
					fmt.Print("\n")
				}

				fmt.Print(chunk)
			}

			if firstChunk {
				responseSpinner.Finish()
			}
			fmt.Print("\n")
		} else {
			responseSpinner := getSpinner("Generating response...")
			response, err := chatEngine.Chat(query, docs)
			responseSpinner.Finish()

			if err != nil {
				color.Red("Error: %v\n", err)
				continue
			}
			assistantPrompt("\nAssistant: %s\n", response.Choices[0].Content)
		}
	}

	return nil
}
