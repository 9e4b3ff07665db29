package types

import (
	"time"
)

// Role of a message author.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single turn of a chat. Messages are never mutated once appended.
type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// NewUserMessage instantiates and returns a user message.
func NewUserMessage(content string, at time.Time) *Message {
	return &Message{Role: RoleUser, Content: content, Timestamp: at.UTC()}
}

// NewAssistantMessage instantiates and returns an assistant message.
func NewAssistantMessage(content string, at time.Time) *Message {
	return &Message{Role: RoleAssistant, Content: content, Timestamp: at.UTC()}
}

// IsUser returns true if the message was written by the user.
func (m *Message) IsUser() bool { return m.Role == RoleUser }

// User is the profile of a signed-in user.
type User struct {
	ID          string `json:"id,omitempty"`
	Email       string `json:"email"`
	Name        string `json:"name"`
	Picture     string `json:"picture,omitempty"`
	GoogleID    string `json:"google_id,omitempty"`
	AccessToken string `json:"access_token,omitempty"`
	Verified    bool   `json:"verified,omitempty"`
}

// Chat holds a conversation.
type Chat struct {
	// Server-issued for authenticated chats, "guest-chat-N" for guest chats.
	ID    string
	Title string
	// Append-only.
	Messages []*Message
	// False for chats that only live in memory.
	ServerSynced bool
}

// LastMessage returns the latest message of the chat, or nil.
func (c *Chat) LastMessage() *Message {
	if len(c.Messages) == 0 {
		return nil
	}
	return c.Messages[len(c.Messages)-1]
}

// LastActivity returns the timestamp of the latest message, or the zero time.
func (c *Chat) LastActivity() time.Time {
	if message := c.LastMessage(); message != nil {
		return message.Timestamp
	}
	return time.Time{}
}

// Clone returns a copy of the chat that shares the (immutable) messages.
func (c *Chat) Clone() *Chat {
	clone := *c
	clone.Messages = make([]*Message, len(c.Messages))
	copy(clone.Messages, c.Messages)
	return &clone
}

// Model references a model offered by the inference endpoint.
type Model struct {
	ID string `json:"id"`
}

// Capability of a late-arriving third-party script.
type Capability int

const (
	CapabilityPending Capability = iota
	CapabilityPresent
	CapabilityUnavailable
)

func (c Capability) String() string {
	switch c {
	case CapabilityPresent:
		return "present"
	case CapabilityUnavailable:
		return "unavailable"
	default:
		return "pending"
	}
}
