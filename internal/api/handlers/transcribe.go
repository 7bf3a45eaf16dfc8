package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/nemuri-labs/nemuri/internal/api"
	"github.com/nemuri-labs/nemuri/internal/assemblyai"
)

type Transcriber interface {
	Transcribe(ctx context.Context, audioURL string) (*assemblyai.Transcript, error)
}

type TranscribeHandler struct {
	svc Transcriber
}

func NewTranscribeHandler(svc Transcriber) *TranscribeHandler {
	return &TranscribeHandler{svc: svc}
}

type TranscribeRequest struct {
	AudioURL string `json:"audio_url"`
}

type TranscribeResponse struct {
	ID       string `json:"id"`
	Text     string `json:"text"`
	Status   string `json:"status"`
	AudioURL string `json:"audio_url"`
}

func (h *TranscribeHandler) Transcribe(w http.ResponseWriter, r *http.Request) {
	var req TranscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if !isValidURL(req.AudioURL) {
		api.Error(w, http.StatusBadRequest, "audio_url must be a valid URL")
		return
	}

	transcript, err := h.svc.Transcribe(r.Context(), req.AudioURL)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, TranscribeResponse{
		ID:       transcript.ID,
		Text:     transcript.Text,
		Status:   transcript.Status,
		AudioURL: transcript.AudioURL,
	})
}

func isValidURL(raw string) bool {
	if raw == "" {
		return false
	}
	parsed, err := url.ParseRequestURI(raw)
	if err != nil {
		return false
	}
	return parsed.Scheme == "http" || parsed.Scheme == "https"
}
