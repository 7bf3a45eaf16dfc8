package domain

// Role identifies the author of a conversation message
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn in a conversation. Conversations are append-only
// ordered sequences; the first message, when present, has RoleSystem and
// is inserted exactly once per conversation lifetime.
type Message struct {
	Role    Role
	Content string
}

// NewMessage creates a Message with the given role and content
func NewMessage(role Role, content string) Message {
	return Message{Role: role, Content: content}
}

// ValidateMessage validates a conversation message
func ValidateMessage(m Message) error {
	if !isValidRole(m.Role) {
		return ErrInvalidRole
	}
	if m.Content == "" {
		return ErrEmptyMessage
	}
	return nil
}

func isValidRole(r Role) bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	}
	return false
}
