package service

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/opsmind-ai/kb-gateway/types"
)

// GeminiEmbedder calls the Gemini embedding API.
type GeminiEmbedder struct {
	client    *genai.Client
	model     *genai.EmbeddingModel
	dimension int
}

func NewGeminiEmbedder(ctx context.Context, apiKey, modelName string, dimension int) (*GeminiEmbedder, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &GeminiEmbedder{
		client:    client,
		model:     client.EmbeddingModel(modelName),
		dimension: dimension,
	}, nil
}

func (e *GeminiEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.model.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, fmt.Errorf("%w: gemini: %v", types.ErrEmbeddingUnavailable, err)
	}
	if resp.Embedding == nil {
		return nil, fmt.Errorf("%w: gemini returned no embedding", types.ErrEmbeddingUnavailable)
	}
	return resp.Embedding.Values, nil
}

func (e *GeminiEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	batch := e.model.NewBatch()
	for _, text := range texts {
		batch = batch.AddContent(genai.Text(text))
	}
	resp, err := e.model.BatchEmbedContents(ctx, batch)
	if err != nil {
		return nil, fmt.Errorf("%w: gemini: %v", types.ErrEmbeddingUnavailable, err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("%w: gemini returned %d embeddings for %d inputs",
			types.ErrEmbeddingUnavailable, len(resp.Embeddings), len(texts))
	}
	vectors := make([][]float32, len(texts))
	for i, embedding := range resp.Embeddings {
		vectors[i] = embedding.Values
	}
	return vectors, nil
}

func (e *GeminiEmbedder) Dimension() int {
	return e.dimension
}

func (e *GeminiEmbedder) Close() error {
	return e.client.Close()
}
