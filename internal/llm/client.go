package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/evalpipe/evalpipe/internal/config"
	"github.com/evalpipe/evalpipe/internal/pkg/logger"
	"github.com/evalpipe/evalpipe/internal/pkg/metrics"
)

// systemPrompt pins the judge model to short deterministic outputs.
const systemPrompt = "You are a deterministic scoring engine."

// Client calls an OpenAI-compatible chat completions endpoint with
// bounded retries. Transport and server errors are retried with
// exponential backoff; an empty completion is returned as ("", nil)
// since it is a model answer, not a delivery failure.
type Client struct {
	cfg        config.LLMConfig
	httpClient *http.Client

	// sleep is swapped out in tests
	sleep func(time.Duration)
}

// NewClient creates a new LLM client
func NewClient(cfg config.LLMConfig) *Client {
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout(),
		},
		sleep: time.Sleep,
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

// Complete sends a single-turn prompt and returns the completion text.
// The call is attempted up to MaxRetries+1 times, sleeping 2^attempt
// seconds between attempts.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	var lastErr error

	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			metrics.RecordLLMRetry()
			backoff := time.Duration(1<<uint(attempt-1)) * time.Second
			logger.Warn("retrying LLM call",
				zap.Int("attempt", attempt),
				zap.Duration("backoff", backoff),
				zap.Error(lastErr),
			)
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			default:
			}
			c.sleep(backoff)
		}

		content, err := c.complete(ctx, prompt)
		if err == nil {
			return content, nil
		}
		lastErr = err
	}

	return "", fmt.Errorf("LLM call failed after %d attempts: %w", c.cfg.MaxRetries+1, lastErr)
}

func (c *Client) complete(ctx context.Context, prompt string) (string, error) {
	body := chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
	}

	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.cfg.Endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API error: %s - %s", resp.Status, string(respBody))
	}

	var result chatResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	if len(result.Choices) == 0 {
		return "", nil
	}

	return result.Choices[0].Message.Content, nil
}
