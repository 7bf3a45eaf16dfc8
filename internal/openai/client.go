package openai

import (
	"context"
	"errors"

	openai "github.com/sashabaranov/go-openai"

	"github.com/nemuri-labs/nemuri/internal/domain"
)

const (
	// DefaultEmbeddingModel is the OpenAI model used for generating embeddings
	DefaultEmbeddingModel = string(openai.SmallEmbedding3)
	// DefaultChatModel is the OpenAI model used for chat completions
	DefaultChatModel = openai.GPT4o
)

var (
	// ErrEmptyText is returned when text to embed is empty
	ErrEmptyText = errors.New("text cannot be empty")
	// ErrNoMessages is returned when a completion is requested without messages
	ErrNoMessages = errors.New("at least one message is required")
)

// EmbeddingAPI defines the interface for embedding generation
type EmbeddingAPI interface {
	CreateEmbeddings(ctx context.Context, text string) ([]float32, error)
}

// CompletionAPI defines the interface for chat completion generation
type CompletionAPI interface {
	CreateChatCompletion(ctx context.Context, messages []domain.Message, temperature float32) (string, error)
}

// Client wraps the OpenAI API for embeddings and chat completions
type Client struct {
	embeddings  EmbeddingAPI
	completions CompletionAPI
}

// Config holds OpenAI client configuration. EmbeddingDimensions, when
// positive, is passed to the embeddings API and must match the vector
// index width; the caller is responsible for keeping them consistent.
type Config struct {
	APIKey              string
	ChatModel           string
	EmbeddingModel      string
	EmbeddingDimensions int
}

type openAIAdapter struct {
	client     *openai.Client
	chatModel  string
	embedModel string
	dimensions int
}

func newOpenAIAdapter(cfg Config) *openAIAdapter {
	chatModel := cfg.ChatModel
	if chatModel == "" {
		chatModel = DefaultChatModel
	}
	embedModel := cfg.EmbeddingModel
	if embedModel == "" {
		embedModel = DefaultEmbeddingModel
	}
	return &openAIAdapter{
		client:     openai.NewClient(cfg.APIKey),
		chatModel:  chatModel,
		embedModel: embedModel,
		dimensions: cfg.EmbeddingDimensions,
	}
}

// CreateEmbeddings calls the OpenAI API to create an embedding
func (a *openAIAdapter) CreateEmbeddings(ctx context.Context, text string) ([]float32, error) {
	req := openai.EmbeddingRequest{
		Input: []string{text},
		Model: openai.EmbeddingModel(a.embedModel),
	}
	if a.dimensions > 0 {
		req.Dimensions = a.dimensions
	}

	resp, err := a.client.CreateEmbeddings(ctx, req)
	if err != nil {
		return nil, err
	}

	if len(resp.Data) == 0 {
		return nil, errors.New("no embedding data returned")
	}

	return resp.Data[0].Embedding, nil
}

// CreateChatCompletion calls the OpenAI API to generate an assistant reply.
// An empty completion is returned as an empty string, not an error.
func (a *openAIAdapter) CreateChatCompletion(ctx context.Context, messages []domain.Message, temperature float32) (string, error) {
	params := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		params[i] = openai.ChatCompletionMessage{
			Role:    string(m.Role),
			Content: m.Content,
		}
	}

	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       a.chatModel,
		Messages:    params,
		Temperature: temperature,
	})
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", nil
	}

	return resp.Choices[0].Message.Content, nil
}

// NewClient creates a new OpenAI client with the given configuration
func NewClient(cfg Config) *Client {
	adapter := newOpenAIAdapter(cfg)
	return &Client{
		embeddings:  adapter,
		completions: adapter,
	}
}

// GenerateEmbedding generates an embedding for the given text.
// No retry is performed; upstream failures surface to the caller.
func (c *Client) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, ErrEmptyText
	}

	embedding, err := c.embeddings.CreateEmbeddings(ctx, text)
	if err != nil {
		return nil, domain.NewUpstreamError("failed to create embedding", err)
	}

	return embedding, nil
}

// Complete generates an assistant reply for the given message sequence
func (c *Client) Complete(ctx context.Context, messages []domain.Message, temperature float32) (string, error) {
	if len(messages) == 0 {
		return "", ErrNoMessages
	}

	completion, err := c.completions.CreateChatCompletion(ctx, messages, temperature)
	if err != nil {
		return "", domain.NewUpstreamError("failed to create chat completion", err)
	}

	return completion, nil
}
