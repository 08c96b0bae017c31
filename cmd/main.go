package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"roi-slab-agent/handler"
	"roi-slab-agent/internal/bootstrap"
	"roi-slab-agent/internal/config"
)

func main() {
	ctx := context.Background()

	// ---- Configuration (read only here) ----
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "err", err)
		os.Exit(1)
	}

	logger := bootstrap.NewLogger(os.Stdout, cfg.Debug())
	slog.SetDefault(logger)

	// ---- Session host ----
	host, err := bootstrap.NewHost(ctx, cfg, logger)
	if err != nil {
		slog.Error("failed to create session host", "err", err)
		os.Exit(1)
	}

	// ---- Handler ----
	h, err := handler.NewHandler(host)
	if err != nil {
		slog.Error("failed to create handler", "err", err)
		os.Exit(1)
	}

	lambda.Start(h.Handle)
}
