package anthropic

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"roi-slab-agent/internal/domain"
)

// messagesAPI is the part of the SDK message service used by Client.
// *sdk.MessageService satisfies it.
type messagesAPI interface {
	New(ctx context.Context, body sdk.MessageNewParams, opts ...option.RequestOption) (*sdk.Message, error)
}

// Client sends conversation buffers to the Anthropic Messages API.
type Client struct {
	api        messagesAPI
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at a different API endpoint.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSpace(baseURL)
	}
}

// WithHTTPClient sets the HTTP client used for API calls.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient builds a Client for apiKey. SDK retries are disabled: a failed
// call is reported once to the caller.
func NewClient(apiKey string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("anthropic: api key must not be empty")
	}
	c := &Client{}
	for _, opt := range opts {
		opt(c)
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if c.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(c.baseURL))
	}
	if c.httpClient != nil {
		reqOpts = append(reqOpts, option.WithHTTPClient(c.httpClient))
	}
	client := sdk.NewClient(reqOpts...)
	c.api = &client.Messages
	return c, nil
}

// Complete sends req and returns the text of the first text block in the
// response.
func (c *Client) Complete(ctx context.Context, req domain.CompletionRequest) (string, error) {
	if req.Model == "" {
		return "", errors.New("anthropic: model must not be empty")
	}
	messages, err := toMessageParams(req.Messages)
	if err != nil {
		return "", err
	}

	params := sdk.MessageNewParams{
		Model:       sdk.Model(req.Model),
		MaxTokens:   int64(req.MaxTokens),
		Temperature: sdk.Float(req.Temperature),
		Messages:    messages,
	}
	if req.System != "" {
		params.System = []sdk.TextBlockParam{{Text: req.System}}
	}

	msg, err := c.api.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic: create message: %w", err)
	}
	if msg == nil {
		return "", errors.New("anthropic: empty response")
	}
	for _, block := range msg.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", errors.New("anthropic: no text content in response")
}

// StatusCode reports the HTTP status of an API error returned by Complete.
func StatusCode(err error) (int, bool) {
	var apiErr *sdk.Error
	if !errors.As(err, &apiErr) {
		return 0, false
	}
	return apiErr.StatusCode, true
}

func toMessageParams(msgs []domain.Message) ([]sdk.MessageParam, error) {
	out := make([]sdk.MessageParam, 0, len(msgs))
	for i, m := range msgs {
		if !m.Role().Valid() {
			return nil, fmt.Errorf("anthropic: message %d has invalid role %s", i, m.Role())
		}
		block := sdk.NewTextBlock(m.Content())
		if m.Role() == domain.RoleUser {
			out = append(out, sdk.NewUserMessage(block))
		} else {
			out = append(out, sdk.NewAssistantMessage(block))
		}
	}
	return out, nil
}
