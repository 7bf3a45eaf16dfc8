package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// DefaultQueryLimit is the number of nearest neighbors returned when a
// caller passes a non-positive limit.
const DefaultQueryLimit = 5

// VectorRecord is one entry written to the vector index
type VectorRecord struct {
	ID        string
	Metadata  map[string]any
	Embedding []float32
}

// Match is one ranked nearest-neighbor result
type Match struct {
	ID       string
	Metadata map[string]any
	Score    float32
}

// VectorRepository persists namespaced embedding records in Postgres
// with pgvector. A namespace isolates one knowledge base from others
// sharing the same table.
type VectorRepository struct {
	pool *pgxpool.Pool
}

func NewVectorRepository(pool *pgxpool.Pool) *VectorRepository {
	return &VectorRepository{pool: pool}
}

// Upsert writes the batch atomically. Existing (namespace, id) pairs are
// overwritten, so repeated upserts of identical records are idempotent.
func (r *VectorRepository) Upsert(ctx context.Context, namespace string, records []VectorRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	now := time.Now().UTC()
	for _, rec := range records {
		_, err := tx.Exec(ctx,
			`INSERT INTO knowledge_vectors (namespace, id, metadata, embedding, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $5)
			 ON CONFLICT (namespace, id)
			 DO UPDATE SET metadata = EXCLUDED.metadata,
			               embedding = EXCLUDED.embedding,
			               updated_at = EXCLUDED.updated_at`,
			namespace,
			rec.ID,
			rec.Metadata,
			pgvector.NewVector(rec.Embedding),
			now,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// Query returns up to limit matches in the namespace ordered by
// decreasing cosine similarity. An empty namespace yields an empty
// slice, never an error.
func (r *VectorRepository) Query(ctx context.Context, namespace string, embedding []float32, limit int) ([]Match, error) {
	if limit <= 0 {
		limit = DefaultQueryLimit
	}

	vec := pgvector.NewVector(embedding)

	rows, err := r.pool.Query(ctx,
		`SELECT id, metadata, (1.0 / (1.0 + (embedding <=> $1)))::float4 AS score
		 FROM knowledge_vectors
		 WHERE namespace = $2
		 ORDER BY embedding <=> $1
		 LIMIT $3`,
		vec, namespace, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	matches := make([]Match, 0)
	for rows.Next() {
		var m Match
		if err := rows.Scan(&m.ID, &m.Metadata, &m.Score); err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}

	return matches, rows.Err()
}

// Count returns the number of records stored in a namespace
func (r *VectorRepository) Count(ctx context.Context, namespace string) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM knowledge_vectors WHERE namespace = $1`,
		namespace,
	).Scan(&count)
	return count, err
}
