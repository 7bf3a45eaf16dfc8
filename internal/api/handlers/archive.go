package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nemuri-labs/nemuri/internal/api"
	"github.com/nemuri-labs/nemuri/internal/domain"
)

// ArchiveStore exposes the archived media objects written at upload time
type ArchiveStore interface {
	GenerateDownloadURL(ctx context.Context, key string) (string, error)
	DeleteObject(ctx context.Context, key string) error
}

type ArchiveHandler struct {
	store ArchiveStore
}

func NewArchiveHandler(store ArchiveStore) *ArchiveHandler {
	return &ArchiveHandler{store: store}
}

type ArchiveURLResponse struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

type ArchiveDeleteResponse struct {
	Success bool   `json:"success"`
	Key     string `json:"key"`
}

// DownloadURL returns a presigned, time-limited download URL for an
// archived media object. Keys contain slashes, so the route uses a
// trailing wildcard.
func (h *ArchiveHandler) DownloadURL(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "*")
	if key == "" {
		api.Error(w, http.StatusBadRequest, "key is required")
		return
	}

	url, err := h.store.GenerateDownloadURL(r.Context(), key)
	if err != nil {
		api.HandleError(w, domain.NewUpstreamError("failed to generate download url", err))
		return
	}

	api.Success(w, http.StatusOK, ArchiveURLResponse{Key: key, URL: url})
}

// Delete removes an archived media object
func (h *ArchiveHandler) Delete(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "*")
	if key == "" {
		api.Error(w, http.StatusBadRequest, "key is required")
		return
	}

	if err := h.store.DeleteObject(r.Context(), key); err != nil {
		api.HandleError(w, domain.NewUpstreamError("failed to delete archived object", err))
		return
	}

	api.Success(w, http.StatusOK, ArchiveDeleteResponse{Success: true, Key: key})
}
