package factory

import (
	"fmt"

	"ai-roleplay-be/pkg/llm"
	"ai-roleplay-be/pkg/llm/ollama"
	"ai-roleplay-be/pkg/llm/openai"
)

// NewStreamProvider builds a streaming LLM provider from a backend
// configuration. Every supported backend kind streams.
func NewStreamProvider(kind, modelName, baseURL, apiKey string) (llm.StreamProvider, error) {
	switch kind {
	case "ollama":
		if baseURL == "" {
			baseURL = "http://localhost:11434" // Default
		}
		return ollama.NewOllamaProvider(baseURL, modelName), nil
	case "openai":
		return openai.NewProvider(apiKey, baseURL, modelName), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", kind)
	}
}
