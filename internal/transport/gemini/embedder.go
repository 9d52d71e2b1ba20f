package gemini

import (
	"context"
	"fmt"
	"slices"

	"google.golang.org/genai"

	"github.com/lspl/gradereco/internal/domain"
)

// Task types understood by gemini-embedding models.
const (
	TaskRetrievalDocument = "RETRIEVAL_DOCUMENT"
	TaskRetrievalQuery    = "RETRIEVAL_QUERY"
	TaskSimilarity        = "SEMANTIC_SIMILARITY"
)

// MaxBatchSize is the most texts batchEmbedContents accepts in one request.
const MaxBatchSize = 100

// Embedder vectorizes text with Models.EmbedContent.
type Embedder struct {
	client     *genai.Client
	model      string
	taskType   string
	dimensions int
}

// NewEmbedder creates a Gemini embedder. An empty taskType selects semantic similarity.
func NewEmbedder(client *genai.Client, model, taskType string, dimensions int) *Embedder {
	if taskType == "" {
		taskType = TaskSimilarity
	}
	return &Embedder{client: client, model: model, taskType: taskType, dimensions: dimensions}
}

// Embed implements domain.Embedder.
func (e *Embedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	res, err := e.BatchEmbed(ctx, []string{text})
	if err != nil {
		return domain.EmbeddingResult{}, err
	}
	return domain.EmbeddingResult{Embedding: res.Embeddings[0]}, nil
}

// BatchEmbed implements domain.BatchEmbedder. Inputs larger than MaxBatchSize are
// sent as consecutive requests. The Gemini API reports no token usage for
// embeddings, so the counts stay zero.
func (e *Embedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	if len(texts) == 0 {
		return domain.BatchEmbeddingResult{}, nil
	}

	cfg := &genai.EmbedContentConfig{TaskType: e.taskType}
	if e.dimensions > 0 {
		dim := int32(e.dimensions)
		cfg.OutputDimensionality = &dim
	}

	embeddings := make([][]float32, 0, len(texts))
	for chunk := range slices.Chunk(texts, MaxBatchSize) {
		vecs, err := e.embedChunk(ctx, chunk, cfg)
		if err != nil {
			return domain.BatchEmbeddingResult{}, err
		}
		embeddings = append(embeddings, vecs...)
	}
	return domain.BatchEmbeddingResult{Embeddings: embeddings}, nil
}

func (e *Embedder) embedChunk(ctx context.Context, texts []string, cfg *genai.EmbedContentConfig) ([][]float32, error) {
	contents := make([]*genai.Content, len(texts))
	for i, text := range texts {
		contents[i] = genai.NewContentFromText(text, genai.RoleUser)
	}

	resp, err := e.client.Models.EmbedContent(ctx, e.model, contents, cfg)
	if err != nil {
		return nil, wrapAPIError("embedding", domain.ErrEmbeddingProviderError, err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("%w: embedding count mismatch: got %d, want %d",
			domain.ErrEmbeddingProviderError, len(resp.Embeddings), len(texts))
	}

	out := make([][]float32, len(resp.Embeddings))
	for i, emb := range resp.Embeddings {
		if emb == nil || len(emb.Values) == 0 {
			return nil, fmt.Errorf("%w: empty embedding at %d", domain.ErrEmbeddingProviderError, i)
		}
		out[i] = emb.Values
	}
	return out, nil
}
