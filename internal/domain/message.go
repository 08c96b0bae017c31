package domain

import "fmt"

// Role identifies the author of a conversation message.
type Role int

const (
	RoleUser Role = iota + 1
	RoleAssistant
)

// String returns the wire name of r.
func (r Role) String() string {
	switch r {
	case RoleUser:
		return "user"
	case RoleAssistant:
		return "assistant"
	default:
		return fmt.Sprintf("Role(%d)", int(r))
	}
}

// Valid reports whether r is one of the two conversation roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// ParseRole maps the wire name of a role back to a Role.
func ParseRole(s string) (Role, error) {
	switch s {
	case "user":
		return RoleUser, nil
	case "assistant":
		return RoleAssistant, nil
	default:
		return 0, fmt.Errorf("domain: unknown role %q", s)
	}
}

// Message is a single entry of a conversation buffer. Fields are unexported
// so a message cannot change after it is created.
type Message struct {
	role    Role
	content string
}

// NewUserMessage creates a message authored by the user.
func NewUserMessage(content string) Message {
	return Message{role: RoleUser, content: content}
}

// NewAssistantMessage creates a message authored by the model.
func NewAssistantMessage(content string) Message {
	return Message{role: RoleAssistant, content: content}
}

func (m Message) Role() Role      { return m.role }
func (m Message) Content() string { return m.content }

// CompletionRequest is the provider-agnostic shape of one model call.
type CompletionRequest struct {
	Model       string
	MaxTokens   int
	Temperature float64
	System      string
	Messages    []Message
}
