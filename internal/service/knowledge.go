package service

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/nemuri-labs/nemuri/internal/domain"
	"github.com/nemuri-labs/nemuri/internal/repository"
	"github.com/nemuri-labs/nemuri/internal/telemetry"
)

// DefaultTopK is the number of nearest-neighbor results requested when
// the caller does not specify one.
const DefaultTopK = repository.DefaultQueryLimit

// EmbeddingClient defines the interface for generating embeddings
type EmbeddingClient interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// VectorIndex defines the interface for the namespaced vector index
type VectorIndex interface {
	Upsert(ctx context.Context, namespace string, records []repository.VectorRecord) error
	Query(ctx context.Context, namespace string, embedding []float32, limit int) ([]repository.Match, error)
}

// KnowledgeService embeds and stores knowledge chunks and retrieves the
// ones most relevant to a query. indexName is the logical index label
// carried on telemetry; namespace partitions records within it.
type KnowledgeService struct {
	embedder  EmbeddingClient
	index     VectorIndex
	indexName string
	namespace string
}

func NewKnowledgeService(embedder EmbeddingClient, index VectorIndex, indexName, namespace string) *KnowledgeService {
	return &KnowledgeService{
		embedder:  embedder,
		index:     index,
		indexName: indexName,
		namespace: namespace,
	}
}

// Upsert embeds every chunk and writes the batch to the index. Chunk
// embeddings run concurrently with a single join point before the
// write; any embedding failure aborts the whole upsert and nothing is
// written. Re-upserting an ID overwrites its vector and metadata.
func (s *KnowledgeService) Upsert(ctx context.Context, chunks []domain.KnowledgeChunk) error {
	ctx, span := telemetry.StartSpan(ctx, "KnowledgeService.Upsert", telemetry.SpanAttributes{
		Index:     s.indexName,
		Namespace: s.namespace,
		Operation: "upsert",
	})
	defer span.End()

	if len(chunks) == 0 {
		return domain.ErrNoChunks
	}
	for _, chunk := range chunks {
		if err := domain.ValidateChunk(chunk); err != nil {
			return err
		}
	}

	records := make([]repository.VectorRecord, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	for i, chunk := range chunks {
		g.Go(func() error {
			embedding, err := s.embedder.GenerateEmbedding(gctx, chunk.Text)
			if err != nil {
				return fmt.Errorf("failed to embed chunk %s: %w", chunk.ID, err)
			}

			metadata := make(map[string]any, len(chunk.Metadata)+1)
			for k, v := range chunk.Metadata {
				metadata[k] = v
			}
			metadata["text"] = chunk.Text

			records[i] = repository.VectorRecord{
				ID:        chunk.ID,
				Metadata:  metadata,
				Embedding: embedding,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.SetError(err)
		return err
	}

	if err := s.index.Upsert(ctx, s.namespace, records); err != nil {
		span.SetError(err)
		return domain.NewUpstreamError("failed to upsert vectors", err)
	}

	return nil
}

// Retrieve embeds the query and returns up to topK results ordered by
// decreasing similarity. Zero matches is not an error: the result is
// an empty slice.
func (s *KnowledgeService) Retrieve(ctx context.Context, query string, topK int) ([]domain.RetrievedResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "KnowledgeService.Retrieve", telemetry.SpanAttributes{
		Index:     s.indexName,
		Namespace: s.namespace,
		Operation: "retrieve",
	})
	defer span.End()

	if query == "" {
		return nil, domain.ErrEmptyText
	}
	if topK <= 0 {
		topK = DefaultTopK
	}

	embedding, err := s.embedder.GenerateEmbedding(ctx, query)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	matches, err := s.index.Query(ctx, s.namespace, embedding, topK)
	if err != nil {
		span.SetError(err)
		return nil, domain.NewUpstreamError("failed to query vector index", err)
	}

	results := make([]domain.RetrievedResult, 0, len(matches))
	for _, match := range matches {
		text, _ := match.Metadata["text"].(string)
		results = append(results, domain.RetrievedResult{
			Text:     text,
			Metadata: match.Metadata,
			Score:    match.Score,
		})
	}

	return results, nil
}
