package domain

// KnowledgeChunk is one ingestible unit of the sleep-hygiene knowledge
// base. Identity is the ID: re-upserting the same ID overwrites the
// stored vector and metadata.
type KnowledgeChunk struct {
	ID       string
	Text     string
	Metadata map[string]any
}

// RetrievedResult is a nearest-neighbor match surfaced by the vector
// index, best match first. Text is the chunk text written at upsert
// time; Metadata carries the full stored metadata including that text.
type RetrievedResult struct {
	Text     string
	Metadata map[string]any
	Score    float32
}

// ValidateChunk validates a KnowledgeChunk before ingestion
func ValidateChunk(c KnowledgeChunk) error {
	if c.ID == "" {
		return ErrEmptyChunkID
	}
	if c.Text == "" {
		return ErrEmptyText
	}
	return nil
}
