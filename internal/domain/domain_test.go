package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomainError_Error(t *testing.T) {
	t.Run("without cause", func(t *testing.T) {
		err := NewDomainError(ErrCodeValidation, "user id is required")
		assert.Equal(t, "[VALIDATION_ERROR] user id is required", err.Error())
	})

	t.Run("with cause", func(t *testing.T) {
		cause := errors.New("dial timeout")
		err := NewDomainErrorWithCause(ErrCodeUpstream, "index unreachable", cause)
		assert.Equal(t, "[UPSTREAM_ERROR] index unreachable: dial timeout", err.Error())
	})
}

func TestDomainError_Unwrap(t *testing.T) {
	cause := errors.New("503")
	err := NewUpstreamError("model unavailable", cause)

	assert.ErrorIs(t, err, cause)

	var domainErr *DomainError
	require.ErrorAs(t, error(err), &domainErr)
	assert.Equal(t, ErrCodeUpstream, domainErr.Code)
}

func TestValidateMessage(t *testing.T) {
	assert.NoError(t, ValidateMessage(NewMessage(RoleUser, "眠れません")))
	assert.NoError(t, ValidateMessage(NewMessage(RoleSystem, "policy")))
	assert.NoError(t, ValidateMessage(NewMessage(RoleAssistant, "reply")))

	assert.ErrorIs(t, ValidateMessage(Message{Role: "tool", Content: "x"}), ErrInvalidRole)
	assert.ErrorIs(t, ValidateMessage(Message{Role: RoleUser}), ErrEmptyMessage)
}

func TestValidateChunk(t *testing.T) {
	assert.NoError(t, ValidateChunk(KnowledgeChunk{ID: "c1", Text: "text"}))

	assert.ErrorIs(t, ValidateChunk(KnowledgeChunk{Text: "text"}), ErrEmptyChunkID)
	assert.ErrorIs(t, ValidateChunk(KnowledgeChunk{ID: "c1"}), ErrEmptyText)
}
