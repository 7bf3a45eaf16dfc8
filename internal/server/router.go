package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nemuri-labs/nemuri/internal/api"
	"github.com/nemuri-labs/nemuri/internal/api/handlers"
	"github.com/nemuri-labs/nemuri/internal/api/middleware"
)

type RouterConfig struct {
	ChatHandler       *handlers.ChatHandler
	KnowledgeHandler  *handlers.KnowledgeHandler
	TranscribeHandler *handlers.TranscribeHandler
	HumeHandler       *handlers.HumeHandler
	ArchiveHandler    *handlers.ArchiveHandler
	MaxUploadBytes    int64
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	const maxBodyBytes int64 = 5 * 1024 * 1024

	maxUploadBytes := cfg.MaxUploadBytes
	if maxUploadBytes <= 0 {
		maxUploadBytes = 100 * 1024 * 1024
	}

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.MaxBodyBytes(maxBodyBytes))

		r.Post("/chat", cfg.ChatHandler.Chat)
		r.Post("/rag/upsert", cfg.KnowledgeHandler.Upsert)

		if cfg.TranscribeHandler != nil {
			r.Post("/transcribe", cfg.TranscribeHandler.Transcribe)
		}

		if cfg.HumeHandler != nil {
			r.Post("/hume/jobs/url", cfg.HumeHandler.CreateJobFromURL)
			r.Get("/hume/jobs/{id}", cfg.HumeHandler.GetJob)
			r.Get("/hume/jobs/{id}/predictions", cfg.HumeHandler.GetPredictions)
		}

		if cfg.ArchiveHandler != nil {
			// Archive keys contain slashes, hence the wildcard
			r.Get("/hume/archive/*", cfg.ArchiveHandler.DownloadURL)
			r.Delete("/hume/archive/*", cfg.ArchiveHandler.Delete)
		}
	})

	if cfg.HumeHandler != nil {
		r.Group(func(r chi.Router) {
			// Multipart uploads carry the video itself, so the body cap
			// tracks the configured file size limit.
			r.Use(middleware.MaxBodyBytes(maxUploadBytes + maxBodyBytes))
			r.Post("/hume/jobs/upload", cfg.HumeHandler.CreateJobFromUpload)
		})
	}

	return r
}
