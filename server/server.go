// Package server exposes the ingestion pipeline and retrieval chat over a
// WebSocket endpoint.
package server

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/esglab/reportrag/internal/models"
	"github.com/esglab/reportrag/pkg/extractor"
	"github.com/esglab/reportrag/pkg/fetcher"
	"github.com/esglab/reportrag/pkg/llm"
	"github.com/esglab/reportrag/pkg/pipeline"
	"github.com/esglab/reportrag/pkg/processor"
	"github.com/esglab/reportrag/pkg/store"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Be careful with this in production
	},
}

type Message struct {
	Type    string      `json:"type"`
	Content string      `json:"content"`
	Data    interface{} `json:"data,omitempty"`
}

type Config struct {
	BaseURL      string
	DBUrl        string
	ReportsDir   string
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
}

type WSServer struct {
	config      Config
	pipe        *pipeline.Pipeline
	chatEngine  *llm.ChatEngine
	embedder    *llm.Embedder
	vectorStore *store.VectorStore

	// writeMu serializes WriteJSON calls; the websocket connection
	// supports at most one concurrent writer.
	writeMu sync.Mutex
}

func NewWSServer(config Config) (*WSServer, error) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	chatEngine, err := llm.NewWithConfig(llm.ChatConfig{
		Model:       config.Model,
		MaxTokens:   config.MaxTokens,
		BaseURL:     config.BaseURL,
		Temperature: config.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize chat engine: %v", err)
	}

	embedder, err := llm.NewEmbedderWithConfig(llm.EmbedderConfig{
		Model:   config.EmbedModel,
		BaseURL: config.BaseURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedder: %v", err)
	}

	pipe := pipeline.NewWithConfig(pipeline.PipelineConfig{
		Extractor: extractor.NewWithConfig(extractor.Config{Logger: logger}),
		Processor: processor.NewWithConfig(processor.ProcessorConfig{
			ChunkSize:    config.ChunkSize,
			ChunkOverlap: config.ChunkOverlap,
		}),
		Logger: logger,
	})

	vectorStore, err := store.NewWithConfig(store.VectorStoreConfig{
		ConnString: config.DBUrl,
		TableName:  config.TableName,
		VectorDim:  config.VectorDim,
		BatchSize:  config.BatchSize,
		Embedder:   embedder,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize vector store: %v", err)
	}

	return &WSServer{
		config:      config,
		pipe:        pipe,
		chatEngine:  chatEngine,
		embedder:    embedder,
		vectorStore: vectorStore,
	}, nil
}

func (s *WSServer) Close() {
	s.vectorStore.Close()
}

func (s *WSServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			log.Printf("Error reading message: %v", err)
			break
		}

		go s.handleMessage(conn, msg)
	}
}

func (s *WSServer) handleMessage(conn *websocket.Conn, msg Message) {
	switch msg.Type {
	case "ingest":
		s.handleIngest(conn, strings.TrimSpace(msg.Content))
	default:
		s.handleQuery(conn, msg.Content)
	}
}

// handleIngest processes a local report file, or downloads and processes
// everything linked from a listing URL.
func (s *WSServer) handleIngest(conn *websocket.Conn, target string) {
	var paths []string

	if strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://") {
		s.sendMessage(conn, "status", fmt.Sprintf("Downloading reports from %s", target))

		f, err := fetcher.NewWithConfig(fetcher.FetcherConfig{
			ListingURL: target,
			OutputDir:  s.config.ReportsDir,
			MaxDepth:   s.config.MaxDepth,
			RateLimit:  s.config.RateLimit,
			OnProgress: func(url string) {
				s.sendMessage(conn, "progress", fmt.Sprintf("Downloaded %s", url))
			},
		})
		if err != nil {
			s.sendMessage(conn, "error", fmt.Sprintf("Failed to initialize fetcher: %v", err))
			return
		}

		paths, err = f.Fetch(target)
		if err != nil {
			s.sendMessage(conn, "error", fmt.Sprintf("Failed to download reports: %v", err))
			return
		}
	} else {
		paths = []string{target}
	}

	for _, path := range paths {
		chunks, meta, err := s.pipe.ProcessDocument(path)
		if err != nil {
			s.sendMessage(conn, "error", fmt.Sprintf("Failed to process %s: %v", path, err))
			continue
		}

		doc := models.ProcessedDocument{
			Document: models.Document{
				ID:   meta.FileName,
				Path: path,
				Name: meta.FileName,
			},
			Chunks: chunks,
			Meta:   meta,
		}

		if err := s.vectorStore.Store([]models.ProcessedDocument{doc}); err != nil {
			s.sendMessage(conn, "error", fmt.Sprintf("Failed to store %s: %v", path, err))
			continue
		}

		s.sendMessage(conn, "status", fmt.Sprintf(
			"Processed %s: %d chunks, %d tables", meta.FileName, meta.TotalChunks, meta.TablesFound))
	}
}

func (s *WSServer) handleQuery(conn *websocket.Conn, query string) {
	queryEmbedding, err := s.embedder.EmbedQuery(context.Background(), query)
	if err != nil {
		s.sendMessage(conn, "error", fmt.Sprintf("Failed to create query embedding: %v", err))
		return
	}

	docs, err := s.vectorStore.Query(queryEmbedding, 5)
	if err != nil {
		s.sendMessage(conn, "error", fmt.Sprintf("Error querying chunks: %v", err))
		return
	}

	if s.config.Streaming {
		stream, err := s.chatEngine.ChatStream(query, docs)
		if err != nil {
			s.sendMessage(conn, "error", fmt.Sprintf("Error: %v", err))
			return
		}

		for chunk := range stream {
			if strings.HasPrefix(chunk, "Error:") {
				s.sendMessage(conn, "error", chunk)
				break
			}
			s.sendMessage(conn, "stream", chunk)
		}
	} else {
		response, err := s.chatEngine.Chat(query, docs)
		if err != nil {
			s.sendMessage(conn, "error", fmt.Sprintf("Error: %v", err))
			return
		}
		s.sendMessage(conn, "response", response.Choices[0].Content)
	}
}

func (s *WSServer) sendMessage(conn *websocket.Conn, msgType string, content string) {
	msg := Message{
		Type:    msgType,
		Content: content,
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := conn.WriteJSON(msg); err != nil {
		log.Printf("Error sending message: %v", err)
	}
}

// Serve blocks, listening on PORT (default 8080).
func Serve(config Config) error {
	server, err := NewWSServer(config)
	if err != nil {
		return err
	}
	defer server.Close()

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", server.handleWebSocket)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Starting WebSocket server on port %s", port)
	return http.ListenAndServe(":"+port, mux)
}
