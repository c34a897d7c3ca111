package llm

import (
	"context"
)

// Message represents a chat message in a provider-agnostic format
type Message struct {
	Role    string // "user", "assistant", "system", "thinking"
	Content string
}

// Option allows for optional parameters like Temperature, MaxTokens, etc.
type Option func(*Options)

type Options struct {
	Temperature float64
	MaxTokens   int
	Model       string                 // Override default model
	Sampling    map[string]interface{} // Opaque backend sampling parameters, passed through untouched
}

func WithTemperature(temp float64) Option {
	return func(o *Options) {
		o.Temperature = temp
	}
}

func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

func WithMaxTokens(n int) Option {
	return func(o *Options) {
		o.MaxTokens = n
	}
}

// WithSampling forwards an opaque parameter set into the backend request body.
func WithSampling(params map[string]interface{}) Option {
	return func(o *Options) {
		o.Sampling = params
	}
}

// LLMProvider defines the contract for any LLM backend
type LLMProvider interface {
	// Chat sends a chat history to the model and returns the full response
	Chat(ctx context.Context, history []Message, options ...Option) (string, error)

	// Generate sends a single prompt to the model (convenience method)
	Generate(ctx context.Context, prompt string, options ...Option) (string, error)
}

// StreamProvider is implemented by backends that expose a streaming
// completion endpoint. ChatStream invokes onDelta for every incremental
// content chunk, in decode order, and returns once the stream terminates.
// Cancelling ctx must stop the underlying reader and release the response.
type StreamProvider interface {
	LLMProvider

	ChatStream(ctx context.Context, history []Message, onDelta func(delta string), options ...Option) error
}
