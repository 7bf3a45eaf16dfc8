package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/nemuri-labs/nemuri/internal/config"
	"github.com/nemuri-labs/nemuri/internal/domain"
	"github.com/nemuri-labs/nemuri/internal/openai"
	"github.com/nemuri-labs/nemuri/internal/repository"
	"github.com/nemuri-labs/nemuri/internal/service"
)

// IngestCmd returns the ingest command
func IngestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ingest <chunks.json>",
		Short: "Bulk-upsert knowledge chunks from a JSON file",
		Long:  "Read knowledge chunks from a JSON file and upsert them into the vector index. Chunks without an id get a generated one.",
		Args:  cobra.ExactArgs(1),
		RunE:  runIngest,
	}
}

type ingestChunk struct {
	ID       string         `json:"id"`
	Text     string         `json:"text"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	payload, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read chunks file: %w", err)
	}

	var raw []ingestChunk
	if err := json.Unmarshal(payload, &raw); err != nil {
		return fmt.Errorf("failed to parse chunks file: %w", err)
	}
	if len(raw) == 0 {
		return fmt.Errorf("chunks file is empty")
	}

	chunks := make([]domain.KnowledgeChunk, len(raw))
	for i, c := range raw {
		id := c.ID
		if id == "" {
			id = uuid.NewString()
		}
		chunks[i] = domain.KnowledgeChunk{
			ID:       id,
			Text:     c.Text,
			Metadata: c.Metadata,
		}
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	openaiClient := openai.NewClient(openai.Config{
		APIKey:              cfg.OpenAIAPIKey,
		EmbeddingModel:      cfg.EmbeddingModel,
		EmbeddingDimensions: cfg.EmbeddingDimensions,
	})

	svc := service.NewKnowledgeService(openaiClient, repository.NewVectorRepository(pool), cfg.VectorIndex, cfg.VectorNamespace)
	if err := svc.Upsert(ctx, chunks); err != nil {
		return fmt.Errorf("failed to upsert chunks: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "upserted %d chunks into namespace %q\n", len(chunks), cfg.VectorNamespace)
	return nil
}
