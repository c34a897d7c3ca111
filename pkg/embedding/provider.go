package embedding

import "context"

// Task types understood by Gemini's embedContent API. Ollama ignores the
// distinction, but keeping it lets lore documents and chat queries be
// embedded asymmetrically when the provider supports it.
const (
	TaskDocument = "RETRIEVAL_DOCUMENT"
	TaskQuery    = "RETRIEVAL_QUERY"
)

// EmbeddingProvider turns text into a unit vector suitable for pgvector
// cosine search.
type EmbeddingProvider interface {
	Embed(ctx context.Context, text string, taskType string) ([]float32, error)
}
