// Package llm provides a minimal chat-completion abstraction over the
// concrete OpenAI and Anthropic SDKs, used by internal/rag's recursive
// controller (C9) to generate answers and follow-up queries. It carries
// only what the controller actually exercises: a two-field message and a
// synchronous Chat call, plus a streaming variant for the RAG HTTP
// endpoint's token-stream mode.
package llm

import "context"

// Message is a single turn in a chat-completion request.
type Message struct {
	Role    string // "system" | "user" | "assistant"
	Content string
}

// ToolSchema describes a callable tool a Provider may invoke. hyperfind's
// RAG controller never passes tools today, but the parameter is kept so a
// future agentic mode can be added without reshaping Provider.
type ToolSchema struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// StreamHandler receives incremental content deltas from ChatStream.
type StreamHandler func(delta string) error

// Provider is a chat-completion backend.
type Provider interface {
	// Chat runs a single, non-streaming completion over msgs and returns
	// the assistant's reply.
	Chat(ctx context.Context, msgs []Message, tools []ToolSchema, model string) (Message, error)
	// ChatStream runs a completion and invokes h with each content delta
	// as it arrives.
	ChatStream(ctx context.Context, msgs []Message, tools []ToolSchema, model string, h StreamHandler) error
}
