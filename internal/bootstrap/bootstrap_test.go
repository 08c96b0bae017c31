package bootstrap

import (
	"bytes"
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"roi-slab-agent/internal/config"
)

type fakeGetter struct {
	value string
	err   error
	calls int
}

func (f *fakeGetter) GetParameter(_ context.Context, _ string) (string, error) {
	f.calls++
	return f.value, f.err
}

func loadConfig(t *testing.T, env map[string]string) config.Config {
	t.Helper()
	chdir(t, t.TempDir())
	for _, k := range []string{"ANTHROPIC_API_KEY", "ANTHROPIC_API_KEY_PARAMETER", "ANTHROPIC_BASE_URL", "TRANSCRIPT_TABLE"} {
		t.Setenv(k, env[k])
	}
	cfg, err := config.Load()
	require.NoError(t, err)
	return cfg
}

func TestResolveAPIKey_EnvKeyWins(t *testing.T) {
	cfg := loadConfig(t, map[string]string{
		"ANTHROPIC_API_KEY":           "sk-env",
		"ANTHROPIC_API_KEY_PARAMETER": "/roi-slab/api-key",
	})
	g := &fakeGetter{value: "sk-ssm"}

	out, err := ResolveAPIKey(context.Background(), cfg, g)
	require.NoError(t, err)
	key, err := out.APIKey()
	require.NoError(t, err)
	require.Equal(t, "sk-env", key)
	require.Zero(t, g.calls)
}

func TestResolveAPIKey_FromParameter(t *testing.T) {
	cfg := loadConfig(t, map[string]string{"ANTHROPIC_API_KEY_PARAMETER": "/roi-slab/api-key"})
	g := &fakeGetter{value: `{"token":"sk-ssm"}`}

	out, err := ResolveAPIKey(context.Background(), cfg, g)
	require.NoError(t, err)
	key, err := out.APIKey()
	require.NoError(t, err)
	require.Equal(t, "sk-ssm", key)
}

func TestResolveAPIKey_ParameterError(t *testing.T) {
	cfg := loadConfig(t, map[string]string{"ANTHROPIC_API_KEY_PARAMETER": "/roi-slab/api-key"})

	_, err := ResolveAPIKey(context.Background(), cfg, &fakeGetter{err: errors.New("access denied")})
	require.ErrorContains(t, err, "access denied")
}

func TestResolveAPIKey_NoParameterLeavesConfigAlone(t *testing.T) {
	cfg := loadConfig(t, nil)
	g := &fakeGetter{value: "sk-ssm"}

	out, err := ResolveAPIKey(context.Background(), cfg, g)
	require.NoError(t, err)
	require.Error(t, out.Validate())
	require.Zero(t, g.calls)
}

func TestMessengerFactory(t *testing.T) {
	cfg := loadConfig(t, map[string]string{"ANTHROPIC_BASE_URL": "http://127.0.0.1:1"})
	factory := MessengerFactory(cfg)

	_, err := factory("")
	require.Error(t, err)

	m, err := factory("sk-test")
	require.NoError(t, err)
	require.NotNil(t, m)
}

func TestNewHost_WithoutAWS(t *testing.T) {
	cfg := loadConfig(t, map[string]string{"ANTHROPIC_API_KEY": "sk-test"})
	h, err := NewHost(context.Background(), cfg, NewLogger(&bytes.Buffer{}, false))
	require.NoError(t, err)

	started, err := h.Start(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, started.ID)
}

func TestNewLogger_Level(t *testing.T) {
	var buf bytes.Buffer
	NewLogger(&buf, false).Debug("hidden")
	require.Empty(t, buf.String())

	NewLogger(&buf, true).Debug("shown")
	require.Contains(t, buf.String(), "shown")
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
