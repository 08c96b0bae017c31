package bootstrap

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"

	"roi-slab-agent/internal/agent"
	"roi-slab-agent/internal/config"
	"roi-slab-agent/internal/integrations/anthropic"
	"roi-slab-agent/internal/integrations/paramstore"
	"roi-slab-agent/internal/repository"
	"roi-slab-agent/internal/session"
)

// NewLogger returns a JSON logger at debug level when debug is set and at
// info level otherwise.
func NewLogger(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// NewHost wires a session host from cfg. AWS configuration is loaded only
// when the API key lives in SSM or a transcript table is configured.
func NewHost(ctx context.Context, cfg config.Config, logger *slog.Logger) (*session.Host, error) {
	opts := []session.HostOption{session.WithLogger(logger)}

	if needsSSM(cfg) || cfg.TranscriptTable() != "" {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: load AWS config: %w", err)
		}

		if needsSSM(cfg) {
			ps, err := paramstore.New(awsssm.NewFromConfig(awsCfg))
			if err != nil {
				return nil, fmt.Errorf("bootstrap: create SSM client: %w", err)
			}
			cfg, err = ResolveAPIKey(ctx, cfg, ps)
			if err != nil {
				return nil, err
			}
		}

		if table := cfg.TranscriptTable(); table != "" {
			store, err := repository.New(awsdynamodb.NewFromConfig(awsCfg), table)
			if err != nil {
				return nil, fmt.Errorf("bootstrap: create transcript store: %w", err)
			}
			opts = append(opts, session.WithRecorder(store))
		}
	}

	return session.NewHost(cfg, MessengerFactory(cfg), opts...)
}

// ResolveAPIKey fills in the API key from the parameter store when the
// environment did not provide one.
func ResolveAPIKey(ctx context.Context, cfg config.Config, g paramstore.Getter) (config.Config, error) {
	if !needsSSM(cfg) {
		return cfg, nil
	}
	key, err := paramstore.APIKey(ctx, g, cfg.APIKeyParameter())
	if err != nil {
		return cfg, fmt.Errorf("bootstrap: resolve API key: %w", err)
	}
	return cfg.WithAPIKey(key), nil
}

// MessengerFactory builds Anthropic clients honoring the configured base URL.
func MessengerFactory(cfg config.Config) session.MessengerFactory {
	return func(apiKey string) (agent.Messenger, error) {
		var opts []anthropic.Option
		if cfg.BaseURL() != "" {
			opts = append(opts, anthropic.WithBaseURL(cfg.BaseURL()))
		}
		client, err := anthropic.NewClient(apiKey, opts...)
		if err != nil {
			return nil, err
		}
		return client, nil
	}
}

func needsSSM(cfg config.Config) bool {
	return cfg.Validate() != nil && cfg.APIKeyParameter() != ""
}
