package main

import (
	"context"

	"github.com/joho/godotenv"

	"ledgerdesk/internal/app"
	"ledgerdesk/pkg/config"
	"ledgerdesk/pkg/logger"
	"ledgerdesk/pkg/shutdown"
)

// version is set via ldflags during release builds.
var version = "dev"

func main() {
	_ = godotenv.Load(".env")
	flags := config.ParseConfigFlags()

	eff, err := config.LoadEffective(flags)
	if err != nil {
		shutdown.Abort("failed to load config", err)
	}
	logger.InitWithLevel(eff.Config.Logging.Level)

	a, err := app.New(eff, version)
	if err != nil {
		shutdown.Abort("failed to initialize", err)
	}
	defer func() { _ = a.Close() }()

	ctx, stop := shutdown.Notify(context.Background())
	defer stop()

	if err := a.Run(ctx); err != nil {
		shutdown.Abort("server failed", err)
	}
	logger.Info("server_stopped")
}
