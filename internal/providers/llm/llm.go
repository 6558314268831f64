// Package llm implements the synchronous chat-completion client contract of
// spec.md §4.4: generate(messages) -> text, 10s timeout, temperature 0.7,
// streaming off.
package llm

import "context"

// Role mirrors session.Role without importing the session package, keeping
// this client usable independent of the orchestration layer.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one chat-completion message.
type Message struct {
	Role    Role
	Content string
}

// Client generates a single assistant reply for an ordered dialogue.
type Client interface {
	Generate(ctx context.Context, messages []Message) (string, error)
}
