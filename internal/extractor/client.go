package extractor

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

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"

	"caption-plan-go/internal/config"
	"caption-plan-go/internal/logger"
)

const (
	defaultHTTPTimeout  = 25 * time.Second
	defaultMaxRetryTime = 45 * time.Second
)

// Client talks to an OpenAI-compatible chat completion gateway.
type Client struct {
	gatewayURL   string
	apiKey       string
	model        string
	temperature  float64
	maxRetryTime time.Duration
	httpClient   *http.Client
	limiter      *rate.Limiter
	log          *logger.Logger
}

// NewClient builds a gateway client from the llm config section.
func NewClient(cfg config.LLM) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	maxRetry := defaultMaxRetryTime
	if cfg.MaxRetrySeconds > 0 {
		maxRetry = time.Duration(cfg.MaxRetrySeconds) * time.Second
	}
	limit := rate.Inf
	if cfg.RequestsPerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(cfg.RequestsPerMinute))
	}
	return &Client{
		gatewayURL:   strings.TrimSpace(cfg.GatewayURL),
		apiKey:       strings.TrimSpace(cfg.APIKey),
		model:        strings.TrimSpace(cfg.Model),
		temperature:  0.2,
		maxRetryTime: maxRetry,
		httpClient:   &http.Client{Timeout: timeout},
		limiter:      rate.NewLimiter(limit, 1),
		log:          logger.New(),
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

// Complete sends one system+user exchange and returns the assistant content
// untouched. Transport failures and 5xx replies are retried with backoff;
// 4xx replies are not.
func (c *Client) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if c.gatewayURL == "" || c.apiKey == "" {
		return "", errors.New("llm gateway not configured")
	}
	data, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: strings.TrimSpace(systemPrompt)},
			{Role: "user", Content: strings.TrimSpace(userPrompt)},
		},
		Temperature: c.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("encode llm request: %w", err)
	}

	log := c.log.WithField("component", "llm-gateway")
	var content string
	var lastErr error

	op := func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.gatewayURL, bytes.NewReader(data))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			log.WithError(err).Warn("llm request failed")
			return err
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		log.WithField("http_status", resp.StatusCode).Debug("llm raw:\n" + string(body))

		if resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("llm server error: http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
			return lastErr
		}
		if resp.StatusCode >= 400 {
			// Permanent: don't retry on client errors
			lastErr = fmt.Errorf("llm request rejected: http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
			return backoff.Permanent(lastErr)
		}

		inner, ok := extractContentFromChoices(body)
		if !ok {
			lastErr = fmt.Errorf("unexpected llm response: %s", string(body))
			return backoff.Permanent(lastErr)
		}
		content = inner
		lastErr = nil
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = c.maxRetryTime
	if err := backoff.Retry(op, backoff.WithContext(b, ctx)); err != nil {
		if lastErr == nil {
			lastErr = err
		}
		return "", fmt.Errorf("llm completion failed: %w", lastErr)
	}
	return content, nil
}

// extractContentFromChoices reads openai-style choices[0].message.content
func extractContentFromChoices(body []byte) (string, bool) {
	var obj map[string]any
	if err := json.Unmarshal(body, &obj); err != nil {
		return "", false
	}

	choices, ok := obj["choices"].([]any)
	if !ok || len(choices) == 0 {
		return "", false
	}
	c0, _ := choices[0].(map[string]any)
	if c0 == nil {
		return "", false
	}
	msg, _ := c0["message"].(map[string]any)
	if msg == nil {
		return "", false
	}
	content, ok := msg["content"].(string)
	return content, ok
}
