package openai

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/nemuri-labs/nemuri/internal/domain"
)

// MockEmbeddingAPI is a mock implementation of EmbeddingAPI
type MockEmbeddingAPI struct {
	mock.Mock
}

func (m *MockEmbeddingAPI) CreateEmbeddings(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

// MockCompletionAPI is a mock implementation of CompletionAPI
type MockCompletionAPI struct {
	mock.Mock
}

func (m *MockCompletionAPI) CreateChatCompletion(ctx context.Context, messages []domain.Message, temperature float32) (string, error) {
	args := m.Called(ctx, messages, temperature)
	return args.String(0), args.Error(1)
}

func TestClient_GenerateEmbedding(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the embedding", func(t *testing.T) {
		mockAPI := new(MockEmbeddingAPI)
		client := &Client{embeddings: mockAPI}

		expected := []float32{0.1, 0.2, 0.3}
		mockAPI.On("CreateEmbeddings", mock.Anything, "眠れません").Return(expected, nil)

		embedding, err := client.GenerateEmbedding(ctx, "眠れません")

		require.NoError(t, err)
		assert.Equal(t, expected, embedding)
	})

	t.Run("rejects empty text", func(t *testing.T) {
		client := &Client{embeddings: new(MockEmbeddingAPI)}

		_, err := client.GenerateEmbedding(ctx, "")
		assert.ErrorIs(t, err, ErrEmptyText)
	})

	t.Run("api failure wraps as upstream error", func(t *testing.T) {
		mockAPI := new(MockEmbeddingAPI)
		client := &Client{embeddings: mockAPI}

		apiErr := errors.New("rate limited")
		mockAPI.On("CreateEmbeddings", mock.Anything, mock.Anything).Return(nil, apiErr)

		_, err := client.GenerateEmbedding(ctx, "text")

		require.Error(t, err)
		assert.ErrorIs(t, err, apiErr)
		var domainErr *domain.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, domain.ErrCodeUpstream, domainErr.Code)
	})
}

func TestClient_Complete(t *testing.T) {
	ctx := context.Background()

	messages := []domain.Message{
		{Role: domain.RoleSystem, Content: "policy"},
		{Role: domain.RoleUser, Content: "眠れません"},
	}

	t.Run("returns the completion", func(t *testing.T) {
		mockAPI := new(MockCompletionAPI)
		client := &Client{completions: mockAPI}

		mockAPI.On("CreateChatCompletion", mock.Anything, messages, float32(0.7)).Return("アドバイスです", nil)

		reply, err := client.Complete(ctx, messages, 0.7)

		require.NoError(t, err)
		assert.Equal(t, "アドバイスです", reply)
	})

	t.Run("rejects empty message list", func(t *testing.T) {
		client := &Client{completions: new(MockCompletionAPI)}

		_, err := client.Complete(ctx, nil, 0.7)
		assert.ErrorIs(t, err, ErrNoMessages)
	})

	t.Run("empty completion is not an error", func(t *testing.T) {
		mockAPI := new(MockCompletionAPI)
		client := &Client{completions: mockAPI}

		mockAPI.On("CreateChatCompletion", mock.Anything, messages, float32(0.7)).Return("", nil)

		reply, err := client.Complete(ctx, messages, 0.7)

		require.NoError(t, err)
		assert.Equal(t, "", reply)
	})

	t.Run("api failure wraps as upstream error", func(t *testing.T) {
		mockAPI := new(MockCompletionAPI)
		client := &Client{completions: mockAPI}

		mockAPI.On("CreateChatCompletion", mock.Anything, messages, float32(0.7)).
			Return("", errors.New("model overloaded"))

		_, err := client.Complete(ctx, messages, 0.7)

		require.Error(t, err)
		var domainErr *domain.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, domain.ErrCodeUpstream, domainErr.Code)
	})
}
