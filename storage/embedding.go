package storage

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/AbdulbariSoylemez/SterkAgents/config"
)

// embeddingDim matches text-embedding-3-small; the vector column/field width
// of every backend is derived from it.
const embeddingDim = 1536

// Embedder wraps the OpenAI-compatible embeddings endpoint shared by all
// API-backed vector stores.
type Embedder struct {
	client *openai.Client
	model  string
}

func NewEmbedder(cfg *config.Config) *Embedder {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	return &Embedder{
		client: openai.NewClientWithConfig(clientConfig),
		model:  cfg.EmbeddingModel,
	}
}

func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(e.model),
		Input: texts,
	})
	if err != nil {
		return nil, fmt.Errorf("embedding API failed: %v", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embedding API returned %d vectors for %d inputs", len(resp.Data), len(texts))
	}
	vecs := make([][]float32, len(texts))
	for _, d := range resp.Data {
		vecs[d.Index] = d.Embedding
	}
	return vecs, nil
}
