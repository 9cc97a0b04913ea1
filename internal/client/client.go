// Package client talks to OpenAI-compatible chat-completions endpoints.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/earlysvahn/ngpt/internal/chat"
	"github.com/earlysvahn/ngpt/internal/config"
)

const (
	completionsPath = "chat/completions"
	modelsPath      = "models"
	maxErrorBody    = 64 << 10
)

type Client struct {
	apiKey   string
	baseURL  string
	provider string
	model    string

	http     *http.Client
	logger   *slog.Logger
	platform func() Platform
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// WithTimeout bounds each whole request, including reading a stream.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http = &http.Client{Timeout: d, Transport: c.http.Transport}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithPlatform replaces OS and shell detection used by GenerateShellCommand.
func WithPlatform(fn func() Platform) Option {
	return func(c *Client) {
		if fn != nil {
			c.platform = fn
		}
	}
}

// New builds a client for the given profile. The base URL always ends with "/".
func New(p config.Profile, opts ...Option) *Client {
	base := strings.TrimSpace(p.BaseURL)
	if base == "" {
		base = config.DefaultBaseURL
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	c := &Client{
		apiKey:   p.APIKey,
		baseURL:  base,
		provider: p.Provider,
		model:    p.Model,
		http:     &http.Client{},
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		platform: DetectPlatform,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

func (c *Client) BaseURL() string  { return c.baseURL }
func (c *Client) Model() string    { return c.model }
func (c *Client) Provider() string { return c.provider }

type completionRequest struct {
	Model       string         `json:"model"`
	Messages    []chat.Message `json:"messages"`
	Stream      bool           `json:"stream"`
	Temperature float64        `json:"temperature"`
	TopP        float64        `json:"top_p"`
	MaxTokens   int            `json:"max_tokens,omitempty"`
	WebSearch   bool           `json:"web_search,omitempty"`
}

func (c *Client) buildBody(messages []chat.Message, p Params, stream bool) ([]byte, error) {
	b, err := json.Marshal(completionRequest{
		Model:       c.model,
		Messages:    messages,
		Stream:      stream,
		Temperature: p.Temperature,
		TopP:        p.TopP,
		MaxTokens:   p.MaxTokens,
		WebSearch:   p.WebSearch,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	keys := make([]string, 0, len(p.Extra))
	for k := range p.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b, err = sjson.SetBytes(b, escapePath(k), p.Extra[k])
		if err != nil {
			return nil, fmt.Errorf("set request field %q: %w", k, err)
		}
	}
	return b, nil
}

// escapePath makes a top-level JSON key safe to use as an sjson path.
func escapePath(key string) string {
	var sb strings.Builder
	for _, r := range key {
		switch r {
		case '.', '*', '?', '\\', '|', '#', '@', '!', ':':
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, stream bool) (*http.Response, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	url := c.baseURL + path

	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, rd)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if stream {
		req.Header.Set("Accept", "text/event-stream")
	}

	c.logger.Debug("request start", "method", method, "url", url, "stream", stream, "model", c.model)
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("request failed", "url", url, "error", err)
		return nil, transportError(ctx, c.baseURL, err)
	}
	c.logger.Debug("response", "url", url, "status", resp.StatusCode, "elapsed", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		b, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		apiErr := newAPIError(resp.StatusCode, url, b)
		if err != nil {
			c.logger.Debug("read error body", "url", url, "error", err)
			apiErr.Message = strings.TrimSpace(apiErr.Message + " (reading body: " + err.Error() + ")")
		}
		return nil, apiErr
	}
	return resp, nil
}

// Complete sends a buffered request and returns the first choice's content.
// A response without choices yields "".
func (c *Client) Complete(ctx context.Context, messages []chat.Message, p Params) (string, error) {
	body, err := c.buildBody(messages, p, false)
	if err != nil {
		return "", err
	}
	resp, err := c.do(ctx, http.MethodPost, completionsPath, body, false)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", transportError(ctx, c.baseURL, err)
	}
	if !gjson.ValidBytes(b) {
		return "", fmt.Errorf("%w: body is not JSON", ErrBadResponse)
	}
	if msg := gjson.GetBytes(b, "error.message"); msg.Exists() {
		return "", &APIError{StatusCode: resp.StatusCode, Message: msg.String(), URL: c.baseURL + completionsPath}
	}
	return gjson.GetBytes(b, "choices.0.message.content").String(), nil
}

// ChatOptions configures Chat. Messages, when set, replace the default
// single user message built from the prompt.
type ChatOptions struct {
	Messages []chat.Message
	Stream   bool
	Writer   io.Writer
	Params   Params
}

// Chat sends prompt (or opts.Messages) and returns the full reply. When
// streaming, every chunk is written to opts.Writer as it arrives followed by
// a final newline; on error the text received so far is returned with it.
func (c *Client) Chat(ctx context.Context, prompt string, opts ChatOptions) (string, error) {
	messages := opts.Messages
	if len(messages) == 0 {
		messages = []chat.Message{chat.User(prompt)}
	}
	if !opts.Stream {
		return c.Complete(ctx, messages, opts.Params)
	}

	w := opts.Writer
	if w == nil {
		w = io.Discard
	}
	var sb strings.Builder
	for chunk, err := range c.Stream(ctx, messages, opts.Params) {
		if err != nil {
			if sb.Len() > 0 {
				fmt.Fprintln(w)
			}
			return sb.String(), err
		}
		sb.WriteString(chunk)
		_, _ = io.WriteString(w, chunk)
	}
	fmt.Fprintln(w)
	return sb.String(), nil
}

// Model describes one entry of the models listing.
type Model struct {
	ID      string
	OwnedBy string
	Created int64
}

// ListModels queries <base_url>models.
func (c *Client) ListModels(ctx context.Context) ([]Model, error) {
	resp, err := c.do(ctx, http.MethodGet, modelsPath, nil, false)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportError(ctx, c.baseURL, err)
	}
	data := gjson.GetBytes(b, "data")
	if !gjson.ValidBytes(b) || !data.IsArray() {
		return nil, fmt.Errorf("%w when retrieving models", ErrBadResponse)
	}

	var models []Model
	data.ForEach(func(_, v gjson.Result) bool {
		models = append(models, Model{
			ID:      v.Get("id").String(),
			OwnedBy: v.Get("owned_by").String(),
			Created: v.Get("created").Int(),
		})
		return true
	})
	return models, nil
}
