package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"ai-roleplay-be/pkg/llm"
	"ai-roleplay-be/pkg/llm/sse"
)

// Provider talks to any OpenAI-compatible completion endpoint
// (OpenRouter, llama.cpp server, text-generation-webui, vllm, ...).
type Provider struct {
	apiKey  string
	baseURL string
	model   string
	Client  *http.Client
}

// Ensure Provider implements the streaming contract
var _ llm.StreamProvider = &Provider{}

func NewProvider(apiKey, baseURL, model string) *Provider {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	return &Provider{
		apiKey:  apiKey,
		baseURL: baseURL,
		model:   model,
		Client: &http.Client{
			// No client timeout: streamed completions are bounded by the
			// caller's context and the generation watchdog instead.
			Timeout: 0,
		},
	}
}

// --- Request/Response structs (internal to this package) ---

type chatRequest struct {
	Model       string                 `json:"model"`
	Messages    []llm.Message          `json:"messages"`
	MaxTokens   int                    `json:"max_tokens,omitempty"`
	Temperature float64                `json:"temperature,omitempty"`
	Stream      bool                   `json:"stream"`
	Sampling    map[string]interface{} `json:"sampling,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (p *Provider) buildRequest(ctx context.Context, history []llm.Message, stream bool, opts *llm.Options) (*http.Request, error) {
	reqBody := chatRequest{
		Model:       opts.Model,
		Messages:    history,
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
		Stream:      stream,
		Sampling:    opts.Sampling,
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewBuffer(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}
	if stream {
		req.Header.Set("Accept", "text/event-stream")
	}
	return req, nil
}

func (p *Provider) resolveOptions(options []llm.Option) *llm.Options {
	opts := &llm.Options{
		Model:       p.model,
		Temperature: 0.7,
	}
	for _, o := range options {
		o(opts)
	}
	return opts
}

func (p *Provider) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	opts := p.resolveOptions(options)

	req, err := p.buildRequest(ctx, history, false, opts)
	if err != nil {
		return "", err
	}

	res, err := p.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("completion request failed: %w", err)
	}
	defer res.Body.Close()

	resBody, err := io.ReadAll(res.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("backend error: status %d, body: %s", res.StatusCode, string(resBody))
	}

	var parsed chatResponse
	if err := json.Unmarshal(resBody, &parsed); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("backend error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", errors.New("backend returned no choices")
	}

	return parsed.Choices[0].Message.Content, nil
}

func (p *Provider) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return p.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, options...)
}

// ChatStream issues a streaming completion and feeds every decoded content
// delta to onDelta. It returns nil on the [DONE] sentinel, the context error
// on cancellation, and *sse.BackendError when the stream carries an error
// event.
func (p *Provider) ChatStream(ctx context.Context, history []llm.Message, onDelta func(delta string), options ...llm.Option) error {
	opts := p.resolveOptions(options)

	req, err := p.buildRequest(ctx, history, true, opts)
	if err != nil {
		return err
	}

	res, err := p.Client.Do(req)
	if err != nil {
		return fmt.Errorf("completion request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4*1024))
		return fmt.Errorf("backend error: status %d, body: %s", res.StatusCode, string(body))
	}

	decoder := sse.NewDecoder(res.Body)
	for {
		// The scanner blocks on the body read; closing it via ctx cancel
		// unblocks with an error we fold into ctx.Err below.
		delta, err := decoder.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return err
		}
		onDelta(delta)
	}
}
