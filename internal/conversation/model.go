package conversation

import "time"

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one dialogue turn entry. Immutable once appended.
type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// ContextMessage is the timestamp-free projection of a Message handed to the
// generation collaborator as conversation context.
type ContextMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}
