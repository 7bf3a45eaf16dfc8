package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/nemuri-labs/nemuri/internal/api"
	"github.com/nemuri-labs/nemuri/internal/domain"
)

type KnowledgeService interface {
	Upsert(ctx context.Context, chunks []domain.KnowledgeChunk) error
}

type KnowledgeHandler struct {
	svc KnowledgeService
}

func NewKnowledgeHandler(svc KnowledgeService) *KnowledgeHandler {
	return &KnowledgeHandler{svc: svc}
}

type ChunkRequest struct {
	ID       string         `json:"id"`
	Text     string         `json:"text"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

type UpsertKnowledgeRequest struct {
	Chunks []ChunkRequest `json:"chunks"`
}

type UpsertKnowledgeResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (h *KnowledgeHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	var req UpsertKnowledgeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if len(req.Chunks) == 0 {
		api.Error(w, http.StatusBadRequest, "chunks is required")
		return
	}

	chunks := make([]domain.KnowledgeChunk, len(req.Chunks))
	for i, c := range req.Chunks {
		if c.ID == "" {
			api.Error(w, http.StatusBadRequest, fmt.Sprintf("chunks[%d].id is required", i))
			return
		}
		if c.Text == "" {
			api.Error(w, http.StatusBadRequest, fmt.Sprintf("chunks[%d].text is required", i))
			return
		}
		chunks[i] = domain.KnowledgeChunk{
			ID:       c.ID,
			Text:     c.Text,
			Metadata: c.Metadata,
		}
	}

	if err := h.svc.Upsert(r.Context(), chunks); err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, UpsertKnowledgeResponse{
		Success: true,
		Message: fmt.Sprintf("Successfully upserted %d chunks", len(chunks)),
	})
}
