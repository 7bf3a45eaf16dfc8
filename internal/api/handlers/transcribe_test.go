package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/nemuri-labs/nemuri/internal/api"
	"github.com/nemuri-labs/nemuri/internal/assemblyai"
	"github.com/nemuri-labs/nemuri/internal/domain"
)

// MockTranscriber is a mock implementation of Transcriber
type MockTranscriber struct {
	mock.Mock
}

func (m *MockTranscriber) Transcribe(ctx context.Context, audioURL string) (*assemblyai.Transcript, error) {
	args := m.Called(ctx, audioURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*assemblyai.Transcript), args.Error(1)
}

func TestTranscribeHandler_Transcribe(t *testing.T) {
	t.Run("successful transcription", func(t *testing.T) {
		mockSvc := new(MockTranscriber)
		handler := NewTranscribeHandler(mockSvc)

		mockSvc.On("Transcribe", mock.Anything, "https://cdn.example.com/audio.mp3").Return(&assemblyai.Transcript{
			ID:       "t-123",
			Text:     "昨夜は三時間しか眠れませんでした",
			Status:   "completed",
			AudioURL: "https://cdn.example.com/audio.mp3",
		}, nil)

		body := `{"audio_url":"https://cdn.example.com/audio.mp3"}`
		req := httptest.NewRequest(http.MethodPost, "/transcribe", strings.NewReader(body))
		rec := httptest.NewRecorder()

		handler.Transcribe(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		var resp api.SuccessResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		data := resp.Data.(map[string]interface{})
		assert.Equal(t, "t-123", data["id"])
		assert.Equal(t, "昨夜は三時間しか眠れませんでした", data["text"])
		assert.Equal(t, "completed", data["status"])
	})

	t.Run("missing audio_url", func(t *testing.T) {
		mockSvc := new(MockTranscriber)
		handler := NewTranscribeHandler(mockSvc)

		req := httptest.NewRequest(http.MethodPost, "/transcribe", strings.NewReader(`{}`))
		rec := httptest.NewRecorder()

		handler.Transcribe(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		mockSvc.AssertNotCalled(t, "Transcribe", mock.Anything, mock.Anything)
	})

	t.Run("non-http scheme is rejected", func(t *testing.T) {
		handler := NewTranscribeHandler(new(MockTranscriber))

		body := `{"audio_url":"ftp://cdn.example.com/audio.mp3"}`
		req := httptest.NewRequest(http.MethodPost, "/transcribe", strings.NewReader(body))
		rec := httptest.NewRecorder()

		handler.Transcribe(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("provider failure maps to 502", func(t *testing.T) {
		mockSvc := new(MockTranscriber)
		handler := NewTranscribeHandler(mockSvc)

		mockSvc.On("Transcribe", mock.Anything, mock.Anything).
			Return(nil, domain.NewUpstreamError("transcription failed", errors.New("audio unreachable")))

		body := `{"audio_url":"https://cdn.example.com/audio.mp3"}`
		req := httptest.NewRequest(http.MethodPost, "/transcribe", strings.NewReader(body))
		rec := httptest.NewRecorder()

		handler.Transcribe(rec, req)

		assert.Equal(t, http.StatusBadGateway, rec.Code)
	})
}

func TestIsValidURL(t *testing.T) {
	assert.True(t, isValidURL("https://example.com/a.mp3"))
	assert.True(t, isValidURL("http://example.com/a.mp3"))
	assert.False(t, isValidURL(""))
	assert.False(t, isValidURL("not a url"))
	assert.False(t, isValidURL("file:///etc/passwd"))
}
