package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"civicdesk/backend/internal/config"
)

// MistralConfig configures the chat-completions client.
type MistralConfig struct {
	APIKey  string
	URL     string
	Model   string
	Timeout time.Duration
}

// MistralClient is a Completer for the Mistral chat-completions endpoint.
type MistralClient struct {
	apiKey     string
	url        string
	model      string
	httpClient *http.Client
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewMistralClient fills unset fields with the package defaults.
func NewMistralClient(cfg MistralConfig) *MistralClient {
	if cfg.URL == "" {
		cfg.URL = config.DefaultMistralURL
	}
	if cfg.Model == "" {
		cfg.Model = config.DefaultMistralModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = config.DefaultScorerTimeout
	}
	return &MistralClient{
		apiKey:     cfg.APIKey,
		url:        cfg.URL,
		model:      cfg.Model,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// Complete sends one system and one user message and returns the first choice.
func (c *MistralClient) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if c.apiKey == "" {
		return "", errors.New("mistral: API key not configured")
	}

	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("mistral: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("mistral: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("mistral: request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("mistral: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("mistral: status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("mistral: parse response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("mistral: API error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", errors.New("mistral: no completion returned")
	}
	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}
