package llm

import (
	"context"
)

// Role tags a chat message
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one role-tagged chat message
type Message struct {
	Role    Role
	Content string
}

// Request is an ordered message list plus generation parameters.
// Zero numeric fields fall back to the provider defaults.
type Request struct {
	Messages    []Message
	Temperature float64
	TopP        float64
	MaxTokens   int
	// Thinking enables the model's reasoning mode where supported
	Thinking bool
	// JSON asks for a JSON object response
	JSON bool
}

// Response is the validated result of a completion. Reasoning holds the
// model's thinking text when the provider returns it separately.
type Response struct {
	Text      string
	Reasoning string
}

// FragmentKind distinguishes answer text from reasoning text in a stream
type FragmentKind int

const (
	FragmentText FragmentKind = iota
	FragmentReasoning
)

// Fragment is one incremental piece of a streamed response
type Fragment struct {
	Kind FragmentKind
	Text string
}

// Provider is the interface for LLM backends
type Provider interface {
	// Complete blocks until the full response is available
	Complete(ctx context.Context, req Request) (Response, error)

	// Stream starts a response and returns fragments as they arrive
	Stream(ctx context.Context, req Request) (*Stream, error)

	// Name returns the provider name (e.g., "nvidia", "groq", "openai")
	Name() string

	// Model returns the model identifier requests are sent to
	Model() string
}

// System is shorthand for a system message
func System(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// User is shorthand for a user message
func User(content string) Message {
	return Message{Role: RoleUser, Content: content}
}
