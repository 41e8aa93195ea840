package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/schemaforge/backend/pkg/errors"
)

const (
	defaultBaseURL   = "https://api.anthropic.com"
	defaultModel     = "claude-3-5-sonnet-20241022"
	defaultMaxTokens = 4096
	defaultTimeout   = 60 * time.Second

	anthropicVersion = "2023-06-01"
)

// Config holds generation endpoint settings. Model and token budget are
// configuration, not contract.
type Config struct {
	BaseURL   string
	APIKey    string
	Model     string
	MaxTokens int
	Timeout   time.Duration
}

// Client issues single synchronous calls to the Anthropic Messages API.
// No retry, no streaming, no partial-result handling: any failure is
// terminal for that request.
type Client struct {
	baseURL   string
	apiKey    string
	model     string
	maxTokens int
	client    *http.Client
}

// NewClient creates a generation client. A missing API key is not an error
// here: it surfaces as a ConfigurationError on the first Generate call so the
// rest of the API keeps working without a credential.
func NewClient(cfg Config) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:   baseURL,
		apiKey:    strings.TrimSpace(cfg.APIKey),
		model:     model,
		maxTokens: maxTokens,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// Model returns the configured model identifier
func (c *Client) Model() string {
	return c.model
}

// message is one chat message in the Messages API body
type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// request is the Messages API request payload
type request struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	Messages  []message `json:"messages"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// response is the subset of the Messages API envelope we consume
type response struct {
	Content []contentBlock `json:"content"`
}

// Generate sends the prompt as the sole user message and returns the first
// text segment of the response's content list.
func (c *Client) Generate(ctx context.Context, promptText string) (string, error) {
	if c.apiKey == "" {
		return "", apperrors.NewConfigurationError("ANTHROPIC_API_KEY", "no generation credential available")
	}

	body, err := json.Marshal(request{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		Messages:  []message{{Role: "user", Content: promptText}},
	})
	if err != nil {
		return "", apperrors.NewInternalError("failed to marshal generation request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return "", apperrors.NewInternalError("failed to build generation request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", anthropicVersion)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		if isTimeout(err) {
			return "", apperrors.NewTimeoutError("generation request")
		}
		return "", apperrors.NewUpstreamError(0, err.Error())
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", apperrors.NewUpstreamError(resp.StatusCode, "failed to read response body: "+err.Error())
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", apperrors.NewUpstreamError(resp.StatusCode, string(respBody))
	}

	var envelope response
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return "", apperrors.NewUpstreamError(resp.StatusCode, "malformed response envelope: "+err.Error())
	}

	for _, block := range envelope.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", apperrors.NewUpstreamError(resp.StatusCode, "response envelope contained no text content")
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
