// Package llm provides provider-agnostic language model access for the
// retrieval engine. It defines a deterministic completion interface used for
// question analysis, translation and rerank scoring, and a streaming
// interface used for final answer generation, with concrete OpenAI
// implementations and deterministic mocks for testing.
package llm

import (
	"context"
	"errors"
)

var (
	ErrLLMFailed     = errors.New("LLM request failed")
	ErrInvalidConfig = errors.New("invalid LLM configuration")
)

// LLM is the non-streaming structured completion interface. Calls are
// pinned to temperature 0; callers must tolerate malformed output.
// Implementations must be stateless and thread-safe.
type LLM interface {
	// Complete produces text from a prompt, bounded by maxTokens.
	Complete(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// StreamLLM is the streaming completion interface used for answer generation.
type StreamLLM interface {
	// StreamComplete starts a streaming completion with a system prompt and
	// a user message. The returned stream supports early close.
	StreamComplete(ctx context.Context, system, user string) (TokenStream, error)
}

// TokenStream is a lazy, single-pass sequence of generated text fragments.
// Recv returns io.EOF when the stream ends normally.
type TokenStream interface {
	Recv() (string, error)
	Close() error
}

// Config holds common configuration options for LLM providers.
type Config struct {
	// Model specifies the model identifier (e.g., "gpt-4o-mini")
	Model string

	// Temperature controls randomness for the streaming call
	// (structured calls are always pinned to 0)
	Temperature float64

	// MaxTokens limits streaming response length (0 = provider default)
	MaxTokens int

	// APIKey is the authentication key for the provider
	APIKey string
}

// DefaultConfig returns sensible defaults for answer generation.
func DefaultConfig() Config {
	return Config{
		Model:       "gpt-4o-mini",
		Temperature: 0.05,
		MaxTokens:   1500,
	}
}
