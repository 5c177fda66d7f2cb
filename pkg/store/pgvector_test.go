package store_test

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/esglab/reportrag/internal/models"
	"github.com/esglab/reportrag/pkg/llm"
	"github.com/esglab/reportrag/pkg/store"
)

func getTestConfig(t *testing.T) store.VectorStoreConfig {
	connString := os.Getenv("DATABASE_URL")
	if connString == "" {
		t.Skip("DATABASE_URL not set; requires a PostgreSQL instance with pgvector")
	}
	return store.VectorStoreConfig{
		ConnString: connString,
		TableName:  "test_report_chunks",
		VectorDim:  768,
	}
}

func TestVectorStore(t *testing.T) {
	config := getTestConfig(t)
	s, err := store.NewWithConfig(config)
	require.NoError(t, err)
	defer s.Close()

	// Test document
	docs := []models.ProcessedDocument{
		{
			Document: models.Document{
				ID:    "esg-2023.pdf",
				Name:  "esg-2023.pdf",
				Title: "2023 Sustainability Report",
			},
			Chunks: []string{
				"一、總則\n本報告涵蓋 2023 年度。",
				"二、員工\n員工人數共 1200 人。",
			},
			Meta: models.Metadata{
				FileName:    "esg-2023.pdf",
				FileType:    ".pdf",
				ProcessTime: "2024-01-01T00:00:00Z",
				TablesFound: 1,
				TotalChunks: 2,
			},
		},
	}

	// Test storing
	err = s.Store(docs)
	require.NoError(t, err)

	emb, err := llm.NewEmbedder()
	require.NoError(t, err)

	queryEmbedding, err := emb.EmbedQuery(context.Background(), "員工人數")
	require.NoError(t, err)

	results, err := s.Query(queryEmbedding, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)

	// Verify results
	assert.Equal(t, docs[0].Name, results[0].Name)
	assert.Equal(t, docs[0].Title, results[0].Title)
}
