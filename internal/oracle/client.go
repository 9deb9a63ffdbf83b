package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultTimeout     = 90 * time.Second
	DefaultTemperature = 0.8
	DefaultMaxTokens   = 2048
	completionsPath    = "/v1/chat/completions"
)

// ClientConfig configures an OpenAI compatible chat completions client.
type ClientConfig struct {
	Endpoints   []string
	Model       string
	APIKey      string
	Timeout     time.Duration
	Temperature float64
	MaxTokens   int
	HTTPClient  *http.Client
	Logger      *zap.Logger
}

// Client asks every endpoint at once and keeps the first valid decision.
type Client struct {
	cfg ClientConfig
}

func NewClient(cfg ClientConfig) (*Client, error) {
	var endpoints []string
	for _, ep := range cfg.Endpoints {
		if ep = strings.TrimRight(strings.TrimSpace(ep), "/"); ep != "" {
			endpoints = append(endpoints, ep)
		}
	}
	if len(endpoints) == 0 {
		return nil, fmt.Errorf("oracle: at least one endpoint is required")
	}
	cfg.Endpoints = endpoints
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Client{cfg: cfg}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string            `json:"model,omitempty"`
	Messages       []chatMessage     `json:"messages"`
	Temperature    float64           `json:"temperature"`
	MaxTokens      int               `json:"max_tokens"`
	ResponseFormat map[string]string `json:"response_format"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (c *Client) body(req Request) ([]byte, error) {
	briefing, err := json.MarshalIndent(req, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal briefing: %w", err)
	}
	system := req.Prompt
	if system == "" {
		system = "You command a unit in a historical battle. Reply with a single JSON object."
	}
	return json.Marshal(chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: string(briefing)},
		},
		Temperature:    c.cfg.Temperature,
		MaxTokens:      c.cfg.MaxTokens,
		ResponseFormat: map[string]string{"type": "json_object"},
	})
}

// Decide races all endpoints under the configured timeout.
func (c *Client) Decide(ctx context.Context, req Request) (Decision, error) {
	body, err := c.body(req)
	if err != nil {
		return Decision{}, err
	}
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	var (
		mu     sync.Mutex
		won    bool
		winner Decision
		errs   error
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, endpoint := range c.cfg.Endpoints {
		g.Go(func() error {
			d, err := c.ask(gctx, endpoint, body)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = multierr.Append(errs, fmt.Errorf("%s: %w", endpoint, err))
				return nil
			}
			if !won {
				won, winner = true, d
				c.cfg.Logger.Debug("oracle answered", zap.String("endpoint", endpoint), zap.String("unit", req.Unit.Name))
				cancel()
			}
			return nil
		})
	}
	_ = g.Wait()

	if won {
		return winner, nil
	}
	if errs == nil {
		errs = ctx.Err()
	}
	return Decision{}, fmt.Errorf("oracle: no endpoint produced a decision: %w", errs)
}

func (c *Client) ask(ctx context.Context, endpoint string, body []byte) (Decision, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint+completionsPath, bytes.NewReader(body))
	if err != nil {
		return Decision{}, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	res, err := c.cfg.HTTPClient.Do(httpReq)
	if err != nil {
		return Decision{}, fmt.Errorf("request failed: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return Decision{}, fmt.Errorf("status %d: %s", res.StatusCode, strings.TrimSpace(string(msg)))
	}

	var payload chatResponse
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return Decision{}, fmt.Errorf("decode response: %w", err)
	}
	if len(payload.Choices) == 0 {
		return Decision{}, fmt.Errorf("response has no choices")
	}
	return ParseDecision([]byte(payload.Choices[0].Message.Content))
}
