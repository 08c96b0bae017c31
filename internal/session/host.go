package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"roi-slab-agent/internal/agent"
	"roi-slab-agent/internal/config"
	"roi-slab-agent/internal/domain"
	"roi-slab-agent/internal/prompt"
)

// MessengerFactory builds the model client once the API key is known.
type MessengerFactory func(apiKey string) (agent.Messenger, error)

// TranscriptRecorder keeps an audit trail of finished turns. It is never
// used to restore a conversation.
type TranscriptRecorder interface {
	RecordTurn(ctx context.Context, sessionID string, n int, userText, reply, model string, failed bool) error
	EndSession(ctx context.Context, sessionID string, turns int) error
	ListTurns(ctx context.Context, sessionID string, limit int) ([]domain.TurnRecord, error)
}

// Started is what a host shows when a session opens.
type Started struct {
	ID      string
	Welcome string
}

// liveSession pairs an agent with the lock that orders its turns, their
// transcript writes and the session end.
type liveSession struct {
	mu    sync.Mutex
	agent *agent.Agent
	ended bool
}

// Host owns one Agent per live session and implements the start, message
// and end lifecycle hooks of a chat front-end.
type Host struct {
	cfg      config.Config
	factory  MessengerFactory
	recorder TranscriptRecorder
	logger   *slog.Logger

	llmMu sync.Mutex
	llm   agent.Messenger

	mu       sync.Mutex
	sessions map[string]*liveSession
}

// HostOption configures a Host.
type HostOption func(*Host)

// WithRecorder enables the transcript audit trail.
func WithRecorder(r TranscriptRecorder) HostOption {
	return func(h *Host) { h.recorder = r }
}

// WithLogger sets the logger shared by the host and its agents.
func WithLogger(l *slog.Logger) HostOption {
	return func(h *Host) { h.logger = l }
}

// NewHost creates a Host with no live sessions. The model client is built
// by factory on the first Start.
func NewHost(cfg config.Config, factory MessengerFactory, opts ...HostOption) (*Host, error) {
	if factory == nil {
		return nil, errors.New("session: messenger factory must not be nil")
	}
	h := &Host{
		cfg:      cfg,
		factory:  factory,
		sessions: make(map[string]*liveSession),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.logger == nil {
		h.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return h, nil
}

// Start opens a session with a fresh conversation.
func (h *Host) Start(ctx context.Context) (Started, error) {
	llm, err := h.messenger()
	if err != nil {
		return Started{}, err
	}
	a, err := agent.New(llm,
		agent.WithModel(h.cfg.Model()),
		agent.WithMaxTokens(h.cfg.MaxTokens()),
		agent.WithTemperature(h.cfg.Temperature()),
		agent.WithDebug(h.cfg.Debug()),
		agent.WithLogger(h.logger),
	)
	if err != nil {
		return Started{}, newError(ErrorInternal, "agent_init_error", "An error occurred: could not start the session.", err)
	}

	id := newSessionID()
	h.mu.Lock()
	h.sessions[id] = &liveSession{agent: a}
	h.mu.Unlock()

	h.logger.InfoContext(ctx, "session started", "session_id", id, "live_sessions", h.Len())
	return Started{ID: id, Welcome: prompt.Welcome()}, nil
}

// Message runs one turn for session id. A model failure is not an error
// here: it comes back as a Reply with Err set. Blank text is rejected.
func (h *Host) Message(ctx context.Context, id, text string) (agent.Reply, error) {
	if strings.TrimSpace(text) == "" {
		return agent.Reply{}, newError(ErrorInvalidInput, "empty_message", "Please enter a request.", nil)
	}
	s, err := h.lookup(id)
	if err != nil {
		return agent.Reply{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return agent.Reply{}, errSessionEnded()
	}

	reply := s.agent.Turn(ctx, text)
	if reply.Failed() && h.cfg.Debug() {
		h.logger.DebugContext(ctx, "turn failed", "session_id", id, "turn", reply.Turn, "err", reply.Err)
	}

	if h.recorder != nil {
		if err := h.recorder.RecordTurn(ctx, id, reply.Turn, text, reply.Text, h.cfg.Model(), reply.Failed()); err != nil {
			h.logger.ErrorContext(ctx, "failed to record turn", "session_id", id, "turn", reply.Turn, "err", err)
		}
	}
	return reply, nil
}

// History returns a snapshot of a live session's conversation.
func (h *Host) History(id string) ([]domain.Message, error) {
	s, err := h.lookup(id)
	if err != nil {
		return nil, err
	}
	return s.agent.History(), nil
}

// Reset clears a live session's conversation without closing it.
func (h *Host) Reset(id string) error {
	s, err := h.lookup(id)
	if err != nil {
		return err
	}
	s.agent.Reset()
	return nil
}

// SystemPrompt returns the instruction a live session sends with its next turn.
func (h *Host) SystemPrompt(id string) (string, error) {
	s, err := h.lookup(id)
	if err != nil {
		return "", err
	}
	return s.agent.SystemPrompt(), nil
}

// SetSystemPrompt replaces a live session's instruction for later turns.
func (h *Host) SetSystemPrompt(id, text string) error {
	if strings.TrimSpace(text) == "" {
		return newError(ErrorInvalidInput, "empty_system_prompt", "The instruction must not be empty.", nil)
	}
	s, err := h.lookup(id)
	if err != nil {
		return err
	}
	s.agent.SetSystemPrompt(text)
	return nil
}

// Transcript returns up to limit recorded turns of a session, oldest first.
// Ended sessions can still be read. A limit of 0 returns every turn.
func (h *Host) Transcript(ctx context.Context, id string, limit int) ([]domain.TurnRecord, error) {
	if h.recorder == nil {
		return nil, newError(ErrorUnavailable, "transcript_disabled", "Transcripts are not recorded by this deployment.", nil)
	}
	if limit < 0 {
		return nil, newError(ErrorInvalidInput, "invalid_limit", "limit must not be negative.", nil)
	}
	turns, err := h.recorder.ListTurns(ctx, id, limit)
	if err != nil {
		return nil, newError(ErrorInternal, "transcript_read_error", "An error occurred: could not read the transcript.", err)
	}
	if len(turns) == 0 {
		return nil, newError(ErrorNotFound, "unknown_session", "No transcript exists for this session.", nil)
	}
	return turns, nil
}

// End closes session id and discards its conversation. A turn in flight on
// the session finishes, transcript included, before the session is closed.
func (h *Host) End(ctx context.Context, id string) error {
	h.mu.Lock()
	s, ok := h.sessions[id]
	delete(h.sessions, id)
	h.mu.Unlock()
	if !ok {
		return errSessionEnded()
	}

	s.mu.Lock()
	s.ended = true
	turns := len(s.agent.History()) / 2
	s.agent.Reset()
	s.mu.Unlock()

	if h.recorder != nil {
		if err := h.recorder.EndSession(ctx, id, turns); err != nil {
			h.logger.ErrorContext(ctx, "failed to record session end", "session_id", id, "err", err)
		}
	}
	h.logger.InfoContext(ctx, "session ended", "session_id", id, "turns", turns, "live_sessions", h.Len())
	return nil
}

// Len reports the number of live sessions.
func (h *Host) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

func (h *Host) lookup(id string) (*liveSession, error) {
	h.mu.Lock()
	s, ok := h.sessions[id]
	h.mu.Unlock()
	if !ok {
		return nil, errSessionEnded()
	}
	return s, nil
}

func errSessionEnded() *Error {
	return newError(ErrorNotFound, "unknown_session", "This chat session has ended. Start a new one.", nil)
}

// messenger validates the API key and builds the shared model client on
// first use. The client holds no conversation state.
func (h *Host) messenger() (agent.Messenger, error) {
	h.llmMu.Lock()
	defer h.llmMu.Unlock()
	if h.llm != nil {
		return h.llm, nil
	}

	key, err := h.cfg.APIKey()
	if err != nil {
		var cfgErr *config.ConfigurationError
		if errors.As(err, &cfgErr) {
			return nil, newError(ErrorConfiguration, "missing_api_key", "Configuration Error: "+cfgErr.Error(), err)
		}
		return nil, newError(ErrorConfiguration, "invalid_config", "Configuration Error: "+err.Error(), err)
	}
	llm, err := h.factory(key)
	if err != nil {
		return nil, newError(ErrorConfiguration, "client_init_error", "Configuration Error: "+err.Error(), err)
	}
	h.llm = llm
	return llm, nil
}

var newSessionID = func() string {
	return uuid.NewString()
}
