package llm

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ziadkadry99/foresight/internal/metrics"
)

// ClientOptions tunes a Client.
type ClientOptions struct {
	// Timeout bounds each call; zero means no per-call deadline.
	Timeout     time.Duration
	Temperature float64
	MaxTokens   int
	Metrics     *metrics.Metrics
	Logger      *slog.Logger
}

// Client adapts a Provider to the single prompt/system-prompt call used by
// the forecasting pipeline and tracks token usage across calls.
type Client struct {
	provider Provider
	model    string
	opts     ClientOptions

	mu    sync.Mutex
	usage Usage
}

// NewClient wraps provider. model is used for cost estimation when the
// provider does not echo a model name.
func NewClient(provider Provider, model string, opts ClientOptions) *Client {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Client{provider: provider, model: model, opts: opts}
}

// Call sends prompt with an optional system prompt and returns the text reply.
func (c *Client) Call(ctx context.Context, prompt, systemPrompt string) (string, error) {
	if c.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.Timeout)
		defer cancel()
	}

	var msgs []Message
	if systemPrompt != "" {
		msgs = append(msgs, Message{Role: RoleSystem, Content: systemPrompt})
	}
	msgs = append(msgs, Message{Role: RoleUser, Content: prompt})

	start := time.Now()
	resp, err := c.provider.Complete(ctx, CompletionRequest{
		Model:       c.model,
		Messages:    msgs,
		MaxTokens:   c.opts.MaxTokens,
		Temperature: c.opts.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("%s completion: %w", c.provider.Name(), err)
	}

	model := resp.Model
	if model == "" {
		model = c.model
	}
	c.mu.Lock()
	c.usage.add(model, resp)
	c.mu.Unlock()
	if !resp.Cached {
		c.opts.Metrics.AddTokens(c.provider.Name(), resp.InputTokens, resp.OutputTokens)
	}

	c.opts.Logger.Debug("llm call",
		"provider", c.provider.Name(),
		"model", model,
		"cached", resp.Cached,
		"input_tokens", resp.InputTokens,
		"output_tokens", resp.OutputTokens,
		"duration", time.Since(start),
	)

	return resp.Content, nil
}

// Usage returns a snapshot of the accumulated usage.
func (c *Client) Usage() Usage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.usage
}
