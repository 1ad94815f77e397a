package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrBackendUnavailable is returned when no text-generation backend is
// configured. Callers fall back to template generation.
var ErrBackendUnavailable = errors.New("text generation backend unavailable")

// TextGenerator produces raw text from a prompt pair. Implementations must
// honor the context for cancellation; the backend is treated as unreliable
// (it may error, time out, or return malformed structured content).
type TextGenerator interface {
	GenerateText(ctx context.Context, systemPrompt, userPrompt string, temperature float64, maxTokens int) (string, error)
}

// Unavailable is the explicit no-backend variant, injected at startup when
// PERPLEXITY_API_KEY is not set. It keeps nil checks out of business logic.
type Unavailable struct{}

func (Unavailable) GenerateText(context.Context, string, string, float64, int) (string, error) {
	return "", ErrBackendUnavailable
}

// PerplexityClient calls the Perplexity chat-completions endpoint.
type PerplexityClient struct {
	url    string
	model  string
	apiKey string
	client *http.Client
}

// Compile-time check: *PerplexityClient satisfies TextGenerator.
var _ TextGenerator = (*PerplexityClient)(nil)

// NewPerplexityClient creates a client with a bounded request timeout.
func NewPerplexityClient(url, model, apiKey string, timeout time.Duration) *PerplexityClient {
	return &PerplexityClient{
		url:    url,
		model:  model,
		apiKey: apiKey,
		client: &http.Client{Timeout: timeout},
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// GenerateText sends one chat-completion request and returns the raw
// assistant text.
func (c *PerplexityClient) GenerateText(ctx context.Context, systemPrompt, userPrompt string, temperature float64, maxTokens int) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("call backend: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return "", fmt.Errorf("backend status %d: %s", resp.StatusCode, snippet)
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", errors.New("backend returned no choices")
	}

	return parsed.Choices[0].Message.Content, nil
}
