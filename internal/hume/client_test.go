package hume

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nemuri-labs/nemuri/internal/domain"
)

func boolPtr(b bool) *bool { return &b }

func newTestClient(baseURL string) *Client {
	return NewClient(Config{
		APIKey:  "test-key",
		BaseURL: baseURL,
	})
}

func TestClient_CreateJobFromURL(t *testing.T) {
	t.Run("submits url with default models", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/v0/batch/jobs", r.URL.Path)
			assert.Equal(t, "test-key", r.Header.Get("X-Hume-Api-Key"))

			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, []any{"https://cdn.example.com/sleep.mp4"}, body["urls"])

			models := body["models"].(map[string]any)
			assert.Contains(t, models, "face")
			assert.Contains(t, models, "prosody")
			assert.NotContains(t, models, "language")

			prosody := models["prosody"].(map[string]any)
			assert.Equal(t, "utterance", prosody["granularity"])

			json.NewEncoder(w).Encode(map[string]string{"job_id": "job-1"})
		}))
		defer server.Close()

		client := newTestClient(server.URL)
		job, err := client.CreateJobFromURL(context.Background(), "https://cdn.example.com/sleep.mp4", nil)

		require.NoError(t, err)
		assert.Equal(t, "job-1", job.JobID)
	})

	t.Run("model options override defaults", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

			models := body["models"].(map[string]any)
			assert.NotContains(t, models, "face")
			assert.Contains(t, models, "prosody")
			assert.Contains(t, models, "language")

			json.NewEncoder(w).Encode(map[string]string{"job_id": "job-2"})
		}))
		defer server.Close()

		client := newTestClient(server.URL)
		_, err := client.CreateJobFromURL(context.Background(), "https://cdn.example.com/sleep.mp4", &ModelOptions{
			Face:       boolPtr(false),
			Transcript: boolPtr(true),
		})

		require.NoError(t, err)
	})

	t.Run("empty url is rejected before any request", func(t *testing.T) {
		client := newTestClient("http://localhost:0")

		_, err := client.CreateJobFromURL(context.Background(), "", nil)
		assert.ErrorIs(t, err, domain.ErrEmptyVideoURL)
	})

	t.Run("api error maps to upstream", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte(`{"message":"invalid api key"}`))
		}))
		defer server.Close()

		client := newTestClient(server.URL)
		_, err := client.CreateJobFromURL(context.Background(), "https://cdn.example.com/sleep.mp4", nil)

		require.Error(t, err)
		var domainErr *domain.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, domain.ErrCodeUpstream, domainErr.Code)
		assert.Contains(t, err.Error(), "403")
	})
}

func TestClient_CreateJobFromFile(t *testing.T) {
	t.Run("uploads multipart with json and file parts", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, r.ParseMultipartForm(32<<20))

			assert.NotEmpty(t, r.FormValue("json"))

			file, header, err := r.FormFile("file")
			require.NoError(t, err)
			defer file.Close()
			assert.Equal(t, "sleep.mp4", header.Filename)

			content, err := io.ReadAll(file)
			require.NoError(t, err)
			assert.Equal(t, "fake video bytes", string(content))

			json.NewEncoder(w).Encode(map[string]string{"job_id": "job-3"})
		}))
		defer server.Close()

		client := newTestClient(server.URL)
		job, err := client.CreateJobFromFile(context.Background(),
			"sleep.mp4", "video/mp4", 16, strings.NewReader("fake video bytes"), nil)

		require.NoError(t, err)
		assert.Equal(t, "job-3", job.JobID)
	})

	t.Run("oversized file is rejected before any request", func(t *testing.T) {
		client := NewClient(Config{APIKey: "test-key", BaseURL: "http://localhost:0", MaxFileSize: 10})

		_, err := client.CreateJobFromFile(context.Background(),
			"sleep.mp4", "video/mp4", 11, strings.NewReader("12345678901"), nil)

		assert.ErrorIs(t, err, domain.ErrFileTooLarge)
	})

	t.Run("unsupported mime type is rejected before any request", func(t *testing.T) {
		client := newTestClient("http://localhost:0")

		_, err := client.CreateJobFromFile(context.Background(),
			"notes.txt", "text/plain", 4, strings.NewReader("text"), nil)

		assert.ErrorIs(t, err, domain.ErrUnsupportedMimeType)
	})
}

func TestClient_GetJob(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v0/batch/jobs/job-1", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"job_id": "job-1",
			"state":  map[string]string{"status": "COMPLETED"},
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	job, err := client.GetJob(context.Background(), "job-1")

	require.NoError(t, err)
	assert.Equal(t, "job-1", job.JobID)
	assert.Equal(t, "COMPLETED", job.Status)
}

func TestClient_GetPredictions(t *testing.T) {
	payload := `[{"results":{"predictions":[{"models":{"face":{}}}]}}]`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v0/batch/jobs/job-1/predictions", r.URL.Path)
		w.Write([]byte(payload))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	predictions, err := client.GetPredictions(context.Background(), "job-1")

	require.NoError(t, err)
	assert.JSONEq(t, payload, string(predictions))
}

func TestBuildModels(t *testing.T) {
	t.Run("transcript enabled by config", func(t *testing.T) {
		client := NewClient(Config{APIKey: "k", EnableTranscript: true, ProsodyGranularity: "word"})

		models := client.buildModels(nil)
		assert.Contains(t, models, "language")
		prosody := models["prosody"].(map[string]any)
		assert.Equal(t, "word", prosody["granularity"])
	})

	t.Run("all models disabled", func(t *testing.T) {
		client := NewClient(Config{APIKey: "k"})

		models := client.buildModels(&ModelOptions{
			Face:    boolPtr(false),
			Prosody: boolPtr(false),
		})
		assert.Empty(t, models)
	})
}
