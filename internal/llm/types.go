package llm

import "context"

// Role identifies the author of a chat message
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single chat message sent to the completion backend
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest describes one completion call
type CompletionRequest struct {
	Messages     []Message
	SystemPrompt string
	MaxTokens    int  // 0 uses the client default
	IncludeAudio bool // ask the backend to inline synthesized speech
}

// Audio carries base64-encoded synthesized speech inlined in a completion
type Audio struct {
	Data string `json:"data"`
}

// Completion is the backend's reply
type Completion struct {
	Content string
	Audio   *Audio // nil unless IncludeAudio was set and the backend complied
}

// Completer is the text-completion collaborator contract. A single response,
// no streaming.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (*Completion, error)
}
