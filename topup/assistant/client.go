// Package assistant forwards free-form user questions to an OpenAI-compatible
// chat-completions endpoint.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/m3rciful/topupbot/core/logger"
)

var (
	// ErrNotConfigured is returned by Ask when no API key is set.
	ErrNotConfigured = errors.New("assistant is not configured")
	// ErrEmptyAnswer is returned when the completion carries no text.
	ErrEmptyAnswer = errors.New("assistant returned an empty answer")
)

// Options configures a Client.
type Options struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

// Client asks single-turn questions. It is safe for concurrent use.
type Client struct {
	http *resty.Client
	opts Options
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	N           int       `json:"n"`
	Temperature float64   `json:"temperature"`
}

type completionResponse struct {
	Choices []struct {
		Message message `json:"message"`
	} `json:"choices"`
}

// NewClient builds a client. Requests fail with ErrNotConfigured while APIKey is empty.
func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = "https://api.openai.com/v1"
	}
	if opts.Model == "" {
		opts.Model = "gpt-3.5-turbo"
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 150
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 20 * time.Second
	}
	c := resty.New().
		SetBaseURL(strings.TrimRight(opts.BaseURL, "/")).
		SetTimeout(opts.Timeout).
		SetHeader("Content-Type", "application/json")
	if opts.APIKey != "" {
		c.SetAuthToken(opts.APIKey)
	}
	return &Client{http: c, opts: opts}
}

// Configured reports whether an API key is present.
func (c *Client) Configured() bool {
	return c != nil && c.opts.APIKey != ""
}

// Ask sends question as a single user message and returns the trimmed answer.
func (c *Client) Ask(ctx context.Context, question string) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}
	start := time.Now()

	var out completionResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(completionRequest{
			Model:       c.opts.Model,
			Messages:    []message{{Role: "user", Content: question}},
			MaxTokens:   c.opts.MaxTokens,
			N:           1,
			Temperature: c.opts.Temperature,
		}).
		SetResult(&out).
		Post("/chat/completions")
	if err != nil {
		c.logFailure(ctx, start, 0, err)
		return "", fmt.Errorf("assistant request: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		err := fmt.Errorf("assistant request status: %d", resp.StatusCode())
		c.logFailure(ctx, start, resp.StatusCode(), err)
		return "", err
	}

	var answer string
	if len(out.Choices) > 0 {
		answer = strings.TrimSpace(out.Choices[0].Message.Content)
	}
	if answer == "" {
		c.logFailure(ctx, start, resp.StatusCode(), ErrEmptyAnswer)
		return "", ErrEmptyAnswer
	}
	logger.Info(ctx, logger.CompAssistant, "assistant.ask",
		slog.String("status", "ok"),
		slog.String("model", c.opts.Model),
		slog.Int("answer_len", len(answer)),
		slog.Duration("duration", time.Since(start)),
	)
	return answer, nil
}

func (c *Client) logFailure(ctx context.Context, start time.Time, code int, err error) {
	attrs := []slog.Attr{
		slog.String("status", "fail"),
		slog.String("model", c.opts.Model),
		slog.Duration("duration", time.Since(start)),
		logger.Err(err),
	}
	if code != 0 {
		attrs = append(attrs, slog.Int("http_status", code))
	}
	logger.Warn(ctx, logger.CompAssistant, "assistant.ask", attrs...)
}
