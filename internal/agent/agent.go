package agent

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"roi-slab-agent/internal/config"
	"roi-slab-agent/internal/domain"
	"roi-slab-agent/internal/integrations/anthropic"
	"roi-slab-agent/internal/prompt"
)

// Messenger sends one completion request to the model API and returns the
// reply text.
type Messenger interface {
	Complete(ctx context.Context, req domain.CompletionRequest) (string, error)
}

// Reply is the outcome of a turn. Text is always renderable; on failure it
// holds the error description and Err is set. Turn is the 1-based index of
// the exchange within the conversation.
type Reply struct {
	Text string
	Err  error
	Turn int
}

// Failed reports whether the model call behind the reply failed.
func (r Reply) Failed() bool { return r.Err != nil }

// Agent owns one conversation buffer and mediates every request/response
// cycle with the model. Turns on the same Agent are serialized.
type Agent struct {
	llm    Messenger
	logger *slog.Logger

	model       string
	maxTokens   int
	temperature float64
	debug       bool

	mu           sync.Mutex
	systemPrompt string
	history      []domain.Message
}

// Option configures an Agent.
type Option func(*Agent)

// WithModel sets the model identifier sent with every request.
func WithModel(model string) Option {
	return func(a *Agent) { a.model = model }
}

// WithMaxTokens caps the length of each reply.
func WithMaxTokens(n int) Option {
	return func(a *Agent) { a.maxTokens = n }
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) Option {
	return func(a *Agent) { a.temperature = t }
}

// WithSystemPrompt replaces the built-in ROI/slab instruction.
func WithSystemPrompt(p string) Option {
	return func(a *Agent) { a.systemPrompt = p }
}

// WithDebug makes the agent log transport failures to its logger.
func WithDebug(debug bool) Option {
	return func(a *Agent) { a.debug = debug }
}

// WithLogger sets the logger used for debug diagnostics. Defaults to a
// discarding logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *Agent) { a.logger = l }
}

// New creates an Agent with an empty conversation. Model parameters default
// to the config package defaults and the system prompt to prompt.System.
func New(llm Messenger, opts ...Option) (*Agent, error) {
	if llm == nil {
		return nil, errors.New("agent: messenger must not be nil")
	}
	a := &Agent{
		llm:          llm,
		model:        config.DefaultModel,
		maxTokens:    config.DefaultMaxTokens,
		temperature:  config.DefaultTemperature,
		systemPrompt: prompt.System(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return a, nil
}

// Turn appends userText, sends the whole buffer to the model and appends the
// reply. A failed call still appends a synthetic assistant message carrying
// the error description, so the buffer keeps alternating.
func (a *Agent) Turn(ctx context.Context, userText string) Reply {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.history = append(a.history, domain.NewUserMessage(userText))

	text, err := a.llm.Complete(ctx, domain.CompletionRequest{
		Model:       a.model,
		MaxTokens:   a.maxTokens,
		Temperature: a.temperature,
		System:      a.systemPrompt,
		Messages:    a.snapshot(),
	})
	if err != nil {
		desc := describe(err)
		if a.debug {
			attrs := []any{"err", err, "description", desc}
			if status, ok := anthropic.StatusCode(err); ok {
				attrs = append(attrs, "status", status)
			}
			a.logger.Error("model request failed", attrs...)
		}
		a.history = append(a.history, domain.NewAssistantMessage(desc))
		return Reply{Text: desc, Err: err, Turn: len(a.history) / 2}
	}

	a.history = append(a.history, domain.NewAssistantMessage(text))
	return Reply{Text: text, Turn: len(a.history) / 2}
}

// Reset drops the whole conversation.
func (a *Agent) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.history = nil
}

// History returns a copy of the buffer, oldest first.
func (a *Agent) History() []domain.Message {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.snapshot()
}

// SetSystemPrompt replaces the instruction used by later turns.
func (a *Agent) SetSystemPrompt(p string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.systemPrompt = p
}

// SystemPrompt returns the instruction the next turn will send.
func (a *Agent) SystemPrompt() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.systemPrompt
}

// snapshot must be called with mu held.
func (a *Agent) snapshot() []domain.Message {
	out := make([]domain.Message, len(a.history))
	copy(out, a.history)
	return out
}

func describe(err error) string {
	return fmt.Sprintf("Error communicating with Claude API: %v", err)
}
