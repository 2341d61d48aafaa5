package main

import (
	"log/slog"
	"os"

	"github.com/SundayYogurt/auth_service/config"
	"github.com/SundayYogurt/auth_service/internal/api"
	"github.com/SundayYogurt/auth_service/internal/logging"
)

func main() {
	//load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}

	log := logging.New(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(log)

	if err := cfg.Validate(); err != nil {
		log.Error("invalid config", "err", err)
		os.Exit(1)
	}

	if err := api.StartServer(cfg, log); err != nil {
		log.Error("server stopped", "err", err)
		os.Exit(1)
	}
}
