package llm_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/esglab/reportrag/pkg/llm"
)

var embedderConfig = llm.EmbedderConfig{
	Model:   "nomic-embed-text:latest",
	BaseURL: "http://localhost:11434",
}

func TestNewEmbedderWithConfig(t *testing.T) {
	emb, err := llm.NewEmbedderWithConfig(embedderConfig)
	require.NoError(t, err)
	assert.NotNil(t, emb)
	assert.Equal(t, "nomic-embed-text:latest", emb.Config.Model)
}

func TestFlattenEmbeddings(t *testing.T) {
	emb, err := llm.NewEmbedderWithConfig(embedderConfig)
	require.NoError(t, err)

	flat := emb.FlattenEmbeddings([][]float32{{1, 2}, {3}})
	assert.Equal(t, []float32{1, 2, 3}, flat)

	assert.Nil(t, emb.FlattenEmbeddings(nil))
}

func TestCreateEmbedding(t *testing.T) {
	// This test requires a running Ollama server with the embedding model.
	if testing.Short() {
		t.Skip("requires a running Ollama server")
	}

	emb, err := llm.NewEmbedderWithConfig(embedderConfig)
	require.NoError(t, err)

	chunks := []string{
		"一、總則\n本報告涵蓋 2023 年度。",
		"表格 1:\n欄位: 指標, 數值",
	}

	embeddings, err := emb.Embed.CreateEmbedding(context.Background(), chunks)
	require.NoError(t, err)

	for i := range embeddings {
		assert.Equal(t, 768, len(embeddings[i]))
	}
}
