// Package hume is a thin client for the Hume AI batch job API used for
// video affect analysis.
package hume

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"time"

	"github.com/nemuri-labs/nemuri/internal/domain"
)

const (
	defaultBaseURL     = "https://api.hume.ai"
	defaultMaxFileSize = 100 * 1024 * 1024
	defaultTimeout     = 60 * time.Second

	apiKeyHeader = "X-Hume-Api-Key"
)

// allowedMimeTypes is the upload allowlist enforced at the boundary
var allowedMimeTypes = map[string]bool{
	"video/mp4":       true,
	"video/webm":      true,
	"video/quicktime": true,
}

// Job is the caller-visible view of a Hume batch job
type Job struct {
	JobID  string          `json:"job_id"`
	Status string          `json:"status"`
	Raw    json.RawMessage `json:"raw,omitempty"`
}

// ModelOptions selects which analysis models run for a job. Nil fields
// fall back to the configured defaults.
type ModelOptions struct {
	Face       *bool `json:"face,omitempty"`
	Prosody    *bool `json:"prosody,omitempty"`
	Transcript *bool `json:"transcript,omitempty"`
}

// Config holds Hume client configuration
type Config struct {
	APIKey             string
	BaseURL            string
	EnableTranscript   bool
	ProsodyGranularity string
	MaxFileSize        int64
	Timeout            time.Duration
	HTTPClient         *http.Client
}

// Client talks to the Hume batch job REST API
type Client struct {
	apiKey             string
	baseURL            string
	enableTranscript   bool
	prosodyGranularity string
	maxFileSize        int64
	httpClient         *http.Client
}

func NewClient(cfg Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	granularity := cfg.ProsodyGranularity
	if granularity == "" {
		granularity = "utterance"
	}
	maxFileSize := cfg.MaxFileSize
	if maxFileSize <= 0 {
		maxFileSize = defaultMaxFileSize
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		apiKey:             cfg.APIKey,
		baseURL:            baseURL,
		enableTranscript:   cfg.EnableTranscript,
		prosodyGranularity: granularity,
		maxFileSize:        maxFileSize,
		httpClient:         httpClient,
	}
}

// MaxFileSize returns the configured upload size cap in bytes
func (c *Client) MaxFileSize() int64 {
	return c.maxFileSize
}

type jobState struct {
	Status string `json:"status"`
}

type jobResponse struct {
	JobID string    `json:"job_id"`
	State *jobState `json:"state"`
}

// CreateJobFromURL submits a video URL for analysis
func (c *Client) CreateJobFromURL(ctx context.Context, videoURL string, opts *ModelOptions) (*Job, error) {
	if videoURL == "" {
		return nil, domain.ErrEmptyVideoURL
	}

	body, err := json.Marshal(map[string]any{
		"models": c.buildModels(opts),
		"urls":   []string{videoURL},
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v0/batch/jobs", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set(apiKeyHeader, c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	return c.doJob(req)
}

// CreateJobFromFile uploads a video file for analysis. Size and MIME
// type are validated before anything is sent upstream.
func (c *Client) CreateJobFromFile(ctx context.Context, filename, contentType string, size int64, file io.Reader, opts *ModelOptions) (*Job, error) {
	if size > c.maxFileSize {
		return nil, domain.ErrFileTooLarge
	}
	if !allowedMimeTypes[contentType] {
		return nil, domain.ErrUnsupportedMimeType
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	modelsJSON, err := json.Marshal(map[string]any{"models": c.buildModels(opts)})
	if err != nil {
		return nil, err
	}

	jsonHeader := textproto.MIMEHeader{}
	jsonHeader.Set("Content-Disposition", `form-data; name="json"`)
	jsonHeader.Set("Content-Type", "application/json")
	jsonPart, err := writer.CreatePart(jsonHeader)
	if err != nil {
		return nil, err
	}
	if _, err := jsonPart.Write(modelsJSON); err != nil {
		return nil, err
	}

	fileHeader := textproto.MIMEHeader{}
	fileHeader.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, filename))
	fileHeader.Set("Content-Type", contentType)
	filePart, err := writer.CreatePart(fileHeader)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(filePart, file); err != nil {
		return nil, err
	}

	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v0/batch/jobs", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set(apiKeyHeader, c.apiKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	return c.doJob(req)
}

// GetJob returns the current state of a job
func (c *Client) GetJob(ctx context.Context, jobID string) (*Job, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v0/batch/jobs/"+jobID, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set(apiKeyHeader, c.apiKey)

	return c.doJob(req)
}

// GetPredictions returns the raw predictions payload for a job
func (c *Client) GetPredictions(ctx context.Context, jobID string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v0/batch/jobs/"+jobID+"/predictions", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set(apiKeyHeader, c.apiKey)
	req.Header.Set("Accept", "application/json")

	payload, err := c.doRaw(req)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(payload), nil
}

// buildModels assembles the models section of a job request
func (c *Client) buildModels(opts *ModelOptions) map[string]any {
	face := true
	prosody := true
	transcript := c.enableTranscript

	if opts != nil {
		if opts.Face != nil {
			face = *opts.Face
		}
		if opts.Prosody != nil {
			prosody = *opts.Prosody
		}
		if opts.Transcript != nil {
			transcript = *opts.Transcript
		}
	}

	models := make(map[string]any)
	if face {
		models["face"] = map[string]any{}
	}
	if prosody {
		models["prosody"] = map[string]any{"granularity": c.prosodyGranularity}
	}
	if transcript {
		models["language"] = map[string]any{}
	}
	return models
}

func (c *Client) doJob(req *http.Request) (*Job, error) {
	payload, err := c.doRaw(req)
	if err != nil {
		return nil, err
	}

	var resp jobResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		return nil, domain.NewUpstreamError("failed to decode hume response", err)
	}

	status := "unknown"
	if resp.State != nil && resp.State.Status != "" {
		status = resp.State.Status
	}

	return &Job{
		JobID:  resp.JobID,
		Status: status,
		Raw:    json.RawMessage(payload),
	}, nil
}

func (c *Client) doRaw(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domain.NewUpstreamError("hume request failed", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.NewUpstreamError("failed to read hume response", err)
	}

	if resp.StatusCode >= 400 {
		return nil, domain.NewUpstreamError(
			fmt.Sprintf("hume returned status %d", resp.StatusCode),
			fmt.Errorf("%s", bytes.TrimSpace(payload)),
		)
	}

	return payload, nil
}
