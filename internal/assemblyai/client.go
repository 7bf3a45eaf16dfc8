// Package assemblyai is a thin client for the AssemblyAI transcription
// API: it submits an audio URL and polls until the transcript settles.
package assemblyai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/nemuri-labs/nemuri/internal/domain"
)

const (
	defaultBaseURL      = "https://api.assemblyai.com"
	defaultPollInterval = 3 * time.Second
)

// Transcript is the caller-visible result of a transcription
type Transcript struct {
	ID       string `json:"id"`
	Text     string `json:"text"`
	Status   string `json:"status"`
	AudioURL string `json:"audio_url"`
}

// Config holds AssemblyAI client configuration
type Config struct {
	APIKey       string
	BaseURL      string
	PollInterval time.Duration
	HTTPClient   *http.Client
}

// Client talks to the AssemblyAI REST API
type Client struct {
	apiKey       string
	baseURL      string
	pollInterval time.Duration
	httpClient   *http.Client
}

func NewClient(cfg Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		apiKey:       cfg.APIKey,
		baseURL:      baseURL,
		pollInterval: pollInterval,
		httpClient:   httpClient,
	}
}

type createTranscriptRequest struct {
	AudioURL    string `json:"audio_url"`
	SpeechModel string `json:"speech_model"`
}

type transcriptResponse struct {
	ID       string `json:"id"`
	Text     string `json:"text"`
	Status   string `json:"status"`
	AudioURL string `json:"audio_url"`
	Error    string `json:"error"`
}

// Transcribe submits the audio URL and polls until the transcript
// completes or errors. No retry is performed on upstream failure.
func (c *Client) Transcribe(ctx context.Context, audioURL string) (*Transcript, error) {
	if audioURL == "" {
		return nil, domain.ErrEmptyAudioURL
	}

	created, err := c.createTranscript(ctx, audioURL)
	if err != nil {
		return nil, err
	}

	transcript := created
	for transcript.Status != "completed" && transcript.Status != "error" {
		select {
		case <-ctx.Done():
			return nil, domain.NewUpstreamError("transcription cancelled", ctx.Err())
		case <-time.After(c.pollInterval):
		}

		transcript, err = c.getTranscript(ctx, created.ID)
		if err != nil {
			return nil, err
		}
	}

	if transcript.Status == "error" {
		return nil, domain.NewUpstreamError("transcription failed", fmt.Errorf("%s", transcript.Error))
	}

	return &Transcript{
		ID:       transcript.ID,
		Text:     transcript.Text,
		Status:   transcript.Status,
		AudioURL: audioURL,
	}, nil
}

func (c *Client) createTranscript(ctx context.Context, audioURL string) (*transcriptResponse, error) {
	body, err := json.Marshal(createTranscriptRequest{
		AudioURL:    audioURL,
		SpeechModel: "universal",
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v2/transcript", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	return c.do(req)
}

func (c *Client) getTranscript(ctx context.Context, id string) (*transcriptResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v2/transcript/"+id, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", c.apiKey)

	return c.do(req)
}

func (c *Client) do(req *http.Request) (*transcriptResponse, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domain.NewUpstreamError("assemblyai request failed", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.NewUpstreamError("failed to read assemblyai response", err)
	}

	if resp.StatusCode >= 400 {
		return nil, domain.NewUpstreamError(
			fmt.Sprintf("assemblyai returned status %d", resp.StatusCode),
			fmt.Errorf("%s", bytes.TrimSpace(payload)),
		)
	}

	var transcript transcriptResponse
	if err := json.Unmarshal(payload, &transcript); err != nil {
		return nil, domain.NewUpstreamError("failed to decode assemblyai response", err)
	}

	return &transcript, nil
}
