package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/nemuri-labs/nemuri/internal/api"
	"github.com/nemuri-labs/nemuri/internal/hume"
)

type VideoAnalyzer interface {
	CreateJobFromURL(ctx context.Context, videoURL string, opts *hume.ModelOptions) (*hume.Job, error)
	CreateJobFromFile(ctx context.Context, filename, contentType string, size int64, file io.Reader, opts *hume.ModelOptions) (*hume.Job, error)
	GetJob(ctx context.Context, jobID string) (*hume.Job, error)
	GetPredictions(ctx context.Context, jobID string) (json.RawMessage, error)
	MaxFileSize() int64
}

// MediaArchive persists accepted uploads before analysis. Optional.
type MediaArchive interface {
	PutObject(ctx context.Context, key, contentType string, body io.Reader) error
}

type HumeHandler struct {
	svc     VideoAnalyzer
	archive MediaArchive
}

func NewHumeHandler(svc VideoAnalyzer, archive MediaArchive) *HumeHandler {
	return &HumeHandler{svc: svc, archive: archive}
}

type CreateJobFromURLRequest struct {
	VideoURL string             `json:"video_url"`
	Models   *hume.ModelOptions `json:"models,omitempty"`
}

type JobResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

func (h *HumeHandler) CreateJobFromURL(w http.ResponseWriter, r *http.Request) {
	var req CreateJobFromURLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if !isValidURL(req.VideoURL) {
		api.Error(w, http.StatusBadRequest, "video_url must be a valid URL")
		return
	}

	job, err := h.svc.CreateJobFromURL(r.Context(), req.VideoURL, req.Models)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, JobResponse{JobID: job.JobID, Status: job.Status})
}

func (h *HumeHandler) CreateJobFromUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(h.svc.MaxFileSize()); err != nil {
		api.Error(w, http.StatusRequestEntityTooLarge, "file exceeds the upload size limit")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		api.Error(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	var opts *hume.ModelOptions
	if raw := r.FormValue("models"); raw != "" {
		opts = &hume.ModelOptions{}
		if err := json.Unmarshal([]byte(raw), opts); err != nil {
			api.Error(w, http.StatusBadRequest, "models must be valid JSON")
			return
		}
	}

	contentType := header.Header.Get("Content-Type")

	var body io.Reader = file
	if h.archive != nil {
		// Buffer the upload so it can be both archived and forwarded.
		// Size is already capped by ParseMultipartForm.
		buf, err := io.ReadAll(file)
		if err != nil {
			api.Error(w, http.StatusBadRequest, "failed to read uploaded file")
			return
		}

		key := fmt.Sprintf("hume/%s/%s", time.Now().UTC().Format("2006-01-02"), uuid.NewString())
		if err := h.archive.PutObject(r.Context(), key, contentType, bytes.NewReader(buf)); err != nil {
			// Archiving is best-effort; analysis proceeds regardless
			log.Printf("media archive failed: %v", err)
		}
		body = bytes.NewReader(buf)
	}

	job, err := h.svc.CreateJobFromFile(r.Context(), header.Filename, contentType, header.Size, body, opts)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, JobResponse{JobID: job.JobID, Status: job.Status})
}

func (h *HumeHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "id")
	if jobID == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	job, err := h.svc.GetJob(r.Context(), jobID)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, JobResponse{JobID: job.JobID, Status: job.Status})
}

func (h *HumeHandler) GetPredictions(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "id")
	if jobID == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	predictions, err := h.svc.GetPredictions(r.Context(), jobID)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.JSON(w, http.StatusOK, predictions)
}
