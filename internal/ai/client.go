package ai

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

	"go.uber.org/zap"
)

const (
	DefaultBaseURL = "https://api.groq.com/openai/v1"
	DefaultModel   = "llama-3.3-70b-versatile"
)

// ErrNotConfigured is returned by every call of a client built without a key.
var ErrNotConfigured = errors.New("groq client is not initialized: GROQ_API_KEY is not set")

// APIError is a non-2xx answer of the chat-completion endpoint.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("groq api: status %d: %s", e.StatusCode, e.Body)
}

type Config struct {
	APIKey    string
	BaseURL   string
	Model     string
	Timeout   time.Duration // 0 = no client-side limit
	PromptDir string
}

type Client struct {
	apiKey  string
	baseURL string
	model   string
	http    *http.Client
	prompts *Prompts
	logger  *zap.Logger
	err     error
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string    `json:"model"`
	Messages []message `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message message `json:"message"`
	} `json:"choices"`
}

// New never fails: without a key the client stays unavailable and Err says why.
func New(cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	c := &Client{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		model:   cfg.Model,
		http:    &http.Client{Timeout: cfg.Timeout},
		prompts: NewPrompts(cfg.PromptDir, logger),
		logger:  logger,
	}

	if strings.TrimSpace(cfg.APIKey) == "" {
		c.err = ErrNotConfigured
		logger.Error("groq client unavailable", zap.Error(c.err))
	} else {
		logger.Info("groq client ready", zap.String("model", c.model))
	}

	return c
}

// Err reports why the client is unavailable, nil when it is usable.
func (c *Client) Err() error {
	return c.err
}

// DecomposeTask asks the model for an ordered list of subtasks.
func (c *Client) DecomposeTask(ctx context.Context, taskText string) ([]string, error) {
	if c.err != nil {
		return nil, c.err
	}

	prompt := c.prompts.Decompose(taskText)
	content, err := c.complete(ctx, message{Role: "system", Content: prompt})
	if err != nil {
		return nil, err
	}

	steps, err := ParseSubtasks(content)
	if err != nil {
		c.logger.Warn("decompose response rejected", zap.Error(err), zap.String("raw", content))
		return nil, err
	}
	return steps, nil
}

// PhraseSubtask rewrites one subtask for the requested size. The answer is
// returned trimmed, without further checks.
func (c *Client) PhraseSubtask(ctx context.Context, subtask, size string) (string, error) {
	if c.err != nil {
		return "", c.err
	}

	prompt := c.prompts.Phrase(subtask, size)
	content, err := c.complete(ctx, message{Role: "user", Content: prompt})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(content), nil
}

func (c *Client) complete(ctx context.Context, msgs ...message) (string, error) {
	body, err := json.Marshal(chatRequest{Model: c.model, Messages: msgs})
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build chat request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	c.logger.Debug("groq request", zap.String("role", msgs[0].Role), zap.Int("prompt_len", len(msgs[0].Content)))

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("groq request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read groq response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	var out chatResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("decode groq response: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", errors.New("groq response has no choices")
	}

	content := out.Choices[0].Message.Content
	c.logger.Debug("groq response", zap.Duration("took", time.Since(start)), zap.String("content", content))
	return content, nil
}
