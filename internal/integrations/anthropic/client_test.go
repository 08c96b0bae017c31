package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/require"

	"roi-slab-agent/internal/domain"
)

// wireRequest is the subset of the Messages API request body the tests check.
type wireRequest struct {
	Model       string  `json:"model"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
	System      []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"system"`
	Messages []struct {
		Role    string `json:"role"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"messages"`
}

const textResponse = `{
	"id": "msg_01",
	"type": "message",
	"role": "assistant",
	"model": "claude-test",
	"content": [{"type": "text", "text": "Slab: FULL_SCAN"}],
	"stop_reason": "end_turn",
	"usage": {"input_tokens": 10, "output_tokens": 4}
}`

func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	c, err := NewClient("sk-test",
		WithBaseURL(srv.URL),
		WithHTTPClient(&http.Client{Timeout: 2 * time.Second}),
	)
	require.NoError(t, err)
	return c
}

func testRequest() domain.CompletionRequest {
	return domain.CompletionRequest{
		Model:       "claude-test",
		MaxTokens:   256,
		Temperature: 0.7,
		System:      "translate to DAFS JSON",
		Messages: []domain.Message{
			domain.NewUserMessage("L3 midpoint"),
			domain.NewAssistantMessage("Which ROI?"),
			domain.NewUserMessage("all skeletal muscle"),
		},
	}
}

func TestNewClient_EmptyKey(t *testing.T) {
	_, err := NewClient("  ")
	require.Error(t, err)
	require.Contains(t, err.Error(), "api key")
}

func TestClient_Complete_HappyPath(t *testing.T) {
	var got wireRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/messages", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "sk-test", r.Header.Get("X-Api-Key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(textResponse))
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	text, err := c.Complete(context.Background(), testRequest())
	require.NoError(t, err)
	require.Equal(t, "Slab: FULL_SCAN", text)

	require.Equal(t, "claude-test", got.Model)
	require.Equal(t, 256, got.MaxTokens)
	require.Equal(t, 0.7, got.Temperature)
	require.Len(t, got.System, 1)
	require.Equal(t, "translate to DAFS JSON", got.System[0].Text)
	require.Len(t, got.Messages, 3)
	require.Equal(t, "user", got.Messages[0].Role)
	require.Equal(t, "assistant", got.Messages[1].Role)
	require.Equal(t, "user", got.Messages[2].Role)
	require.Equal(t, "all skeletal muscle", got.Messages[2].Content[0].Text)
}

func TestClient_Complete_AuthError(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"authentication_error","message":"invalid x-api-key"}}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	_, err := c.Complete(context.Background(), testRequest())
	require.Error(t, err)
	require.Contains(t, err.Error(), "create message")

	status, ok := StatusCode(err)
	require.True(t, ok)
	require.Equal(t, http.StatusUnauthorized, status)
	require.Equal(t, 1, calls)
}

func TestClient_Complete_ServerErrorIsNotRetried(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"api_error","message":"overloaded"}}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	_, err := c.Complete(context.Background(), testRequest())
	require.Error(t, err)
	require.Equal(t, 1, calls)
}

func TestClient_Complete_NetworkError(t *testing.T) {
	c, err := NewClient("sk-test",
		WithBaseURL("http://127.0.0.1:1"),
		WithHTTPClient(&http.Client{Timeout: 100 * time.Millisecond}),
	)
	require.NoError(t, err)

	_, err = c.Complete(context.Background(), testRequest())
	require.Error(t, err)
	_, ok := StatusCode(err)
	require.False(t, ok)
}

func TestClient_Complete_EmptyModel(t *testing.T) {
	c, err := NewClient("sk-test")
	require.NoError(t, err)

	req := testRequest()
	req.Model = ""
	_, err = c.Complete(context.Background(), req)
	require.Error(t, err)
	require.Contains(t, err.Error(), "model")
}

// fakeMessages stands in for the SDK service where no HTTP exchange is needed.
type fakeMessages struct {
	out  *sdk.Message
	err  error
	last sdk.MessageNewParams
}

func (f *fakeMessages) New(_ context.Context, body sdk.MessageNewParams, _ ...option.RequestOption) (*sdk.Message, error) {
	f.last = body
	return f.out, f.err
}

func TestClient_Complete_NoTextBlock(t *testing.T) {
	c := &Client{api: &fakeMessages{out: &sdk.Message{}}}
	_, err := c.Complete(context.Background(), testRequest())
	require.Error(t, err)
	require.Contains(t, err.Error(), "no text content")
}

func TestClient_Complete_WrapsAPIError(t *testing.T) {
	boom := errors.New("boom")
	c := &Client{api: &fakeMessages{err: boom}}
	_, err := c.Complete(context.Background(), testRequest())
	require.ErrorIs(t, err, boom)
}

func TestClient_Complete_OmitsEmptySystem(t *testing.T) {
	api := &fakeMessages{err: errors.New("stop")}
	c := &Client{api: api}

	req := testRequest()
	req.System = ""
	_, _ = c.Complete(context.Background(), req)
	require.Empty(t, api.last.System)
	require.Len(t, api.last.Messages, 3)
}

func TestClient_Complete_InvalidRole(t *testing.T) {
	c := &Client{api: &fakeMessages{}}
	req := testRequest()
	req.Messages = []domain.Message{{}}
	_, err := c.Complete(context.Background(), req)
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid role")
}
