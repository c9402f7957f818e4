// Package llm defines the completion interface the chat orchestrator
// depends on, with two implementations: a plain chat completion and a
// tool-calling pipeline that lets the model pull live weather data.
package llm

import "context"

// Turn roles as stored in the database. RoleModel maps to the OpenAI
// "assistant" role at the wire level.
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Turn is one role-tagged entry of the model-facing history.
type Turn struct {
	Role    string
	Content string
}

// CompletionRequest carries an ordered history plus the system instruction.
// Ordering is significant: context turns precede the new user turn and the
// provider must not reorder them.
type CompletionRequest struct {
	System      string
	Turns       []Turn
	MaxTokens   int
	Temperature float32
}

// Provider produces a completion for a request. Implementations return the
// raw model text; parsing the reply/summary contract out of it is the
// orchestrator's job.
type Provider interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}
