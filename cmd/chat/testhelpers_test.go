package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"roi-slab-agent/internal/agent"
	"roi-slab-agent/internal/config"
	"roi-slab-agent/internal/domain"
	"roi-slab-agent/internal/session"
)

// mockLLM implements agent.Messenger for testing.
type mockLLM struct {
	responses []string
	calls     int
	err       error
	requests  []domain.CompletionRequest
}

func (m *mockLLM) Complete(_ context.Context, req domain.CompletionRequest) (string, error) {
	m.requests = append(m.requests, req)
	if m.err != nil {
		return "", m.err
	}
	if m.calls >= len(m.responses) {
		return "", errors.New("no more mock responses")
	}
	resp := m.responses[m.calls]
	m.calls++
	return resp, nil
}

type testEnv struct {
	apiKey string
	llm    *mockLLM
}

// testOption configures a test Deps.
type testOption func(*testEnv, *Deps)

// newTestDeps creates Deps around a real session host backed by a mock LLM.
func newTestDeps(t *testing.T, opts ...testOption) (*Deps, *mockLLM) {
	t.Helper()
	env := &testEnv{apiKey: "sk-test", llm: &mockLLM{}}
	d := &Deps{
		Stdin:  strings.NewReader(""),
		Stdout: &bytes.Buffer{},
		Stderr: &bytes.Buffer{},
		IsTTY:  func() bool { return false },
	}
	for _, opt := range opts {
		opt(env, d)
	}

	chdir(t, t.TempDir())
	t.Setenv("ANTHROPIC_API_KEY", env.apiKey)
	t.Setenv("ANTHROPIC_API_KEY_PARAMETER", "")
	t.Setenv("TRANSCRIPT_TABLE", "")
	cfg, err := config.Load()
	require.NoError(t, err)

	llm := env.llm
	host, err := session.NewHost(cfg, func(string) (agent.Messenger, error) { return llm, nil })
	require.NoError(t, err)
	d.Host = host
	return d, llm
}

func withResponses(responses ...string) testOption {
	return func(e *testEnv, _ *Deps) {
		e.llm = &mockLLM{responses: responses}
	}
}

func withLLMError(err error) testOption {
	return func(e *testEnv, _ *Deps) {
		e.llm = &mockLLM{err: err}
	}
}

func withoutAPIKey() testOption {
	return func(e *testEnv, _ *Deps) {
		e.apiKey = ""
	}
}

func withStdin(input string) testOption {
	return func(_ *testEnv, d *Deps) {
		d.Stdin = strings.NewReader(input)
	}
}

func withTTY(tty bool) testOption {
	return func(_ *testEnv, d *Deps) {
		d.IsTTY = func() bool { return tty }
	}
}

// stdout returns the captured stdout as string.
func stdout(d *Deps) string {
	return d.Stdout.(*bytes.Buffer).String()
}

// stderr returns the captured stderr as string.
func stderr(d *Deps) string {
	return d.Stderr.(*bytes.Buffer).String()
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent of testing.T.Chdir for Go < 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
