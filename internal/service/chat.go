package service

import (
	"context"
	"sync"

	"github.com/nemuri-labs/nemuri/internal/domain"
	"github.com/nemuri-labs/nemuri/internal/store"
	"github.com/nemuri-labs/nemuri/internal/telemetry"
)

const (
	// chatTemperature is the fixed sampling temperature for every turn
	chatTemperature float32 = 0.7

	// FallbackReply is returned when the model produces an empty completion
	FallbackReply = "申し訳ございませんが、回答を生成できませんでした。"
)

// KnowledgeRetriever defines the retrieval interface consumed per turn
type KnowledgeRetriever interface {
	Retrieve(ctx context.Context, query string, topK int) ([]domain.RetrievedResult, error)
}

// CompletionClient defines the language-model completion interface
type CompletionClient interface {
	Complete(ctx context.Context, messages []domain.Message, temperature float32) (string, error)
}

// ChatService orchestrates one chat turn: knowledge retrieval, prompt
// assembly, completion, and history update. Turns for the same user are
// serialized; turns for different users run independently.
type ChatService struct {
	retriever     KnowledgeRetriever
	completer     CompletionClient
	conversations store.ConversationStore
	assembler     *PromptAssembler

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewChatService(retriever KnowledgeRetriever, completer CompletionClient, conversations store.ConversationStore) *ChatService {
	return &ChatService{
		retriever:     retriever,
		completer:     completer,
		conversations: conversations,
		assembler:     NewPromptAssembler(),
		locks:         make(map[string]*sync.Mutex),
	}
}

// Chat runs one turn for a user and returns the assistant reply.
//
// Failure semantics: a retrieval failure aborts the turn before any
// history change; a completion failure leaves the already-recorded user
// turn in place but appends no assistant message.
func (s *ChatService) Chat(ctx context.Context, userID, message string) (string, error) {
	ctx, span := telemetry.StartSpan(ctx, "ChatService.Chat", telemetry.SpanAttributes{
		UserID:    userID,
		Operation: "chat",
	})
	defer span.End()

	if userID == "" {
		return "", domain.ErrEmptyUserID
	}
	if message == "" {
		return "", domain.ErrEmptyMessage
	}

	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	results, err := s.retriever.Retrieve(ctx, message, DefaultTopK)
	if err != nil {
		span.SetError(err)
		return "", err
	}
	telemetry.AddBreadcrumb(ctx, "chat", "knowledge retrieved")

	history := s.conversations.History(userID)
	messages := s.assembler.Build(history, results, message)

	// Record the system prompt (first turn only) and the new user turn
	// before the completion call. A failed completion does not roll
	// these back.
	s.conversations.Append(userID, messages[len(history):]...)

	reply, err := s.completer.Complete(ctx, messages, chatTemperature)
	if err != nil {
		span.SetError(err)
		return "", err
	}
	if reply == "" {
		reply = FallbackReply
	}

	s.conversations.Append(userID, domain.NewMessage(domain.RoleAssistant, reply))
	return reply, nil
}

// userLock returns the mutex serializing turns for one user
func (s *ChatService) userLock(userID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[userID] = lock
	}
	return lock
}
