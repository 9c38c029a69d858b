package main

import (
	"context"
	"flag"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"perpfarm/internal/app"
	pfcfg "perpfarm/internal/config"
	"perpfarm/internal/logger"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	var (
		cfgPath = flag.String("config", "", "path to config file (default $PERPFARM_CONFIG or configs/config.yaml)")
		mode    = flag.String("mode", "trade", "trade | balances | points")
	)
	flag.Parse()

	path := *cfgPath
	if path == "" {
		path = os.Getenv("PERPFARM_CONFIG")
	}
	if path == "" {
		path = "configs/config.yaml"
	}

	cfg, err := pfcfg.Load(path)
	if err != nil {
		log.Fatalf("loading config failed: %v", err)
	}
	logFile, err := setupLogOutput(cfg.App.LogPath)
	if err != nil {
		log.Fatalf("initializing log file failed: %v", err)
	}
	if logFile != nil {
		defer logFile.Close()
	}
	logger.SetLevel(cfg.App.LogLevel)
	logger.Infof("config loaded from %s (accounts=%s, bot=%s)", path, cfg.Accounts.Path, cfg.Gateway.Bot)

	application, err := app.NewApp(cfg)
	if err != nil {
		log.Fatalf("initializing application failed: %v", err)
	}
	defer application.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch *mode {
	case "trade":
		if err := application.Run(ctx); err != nil {
			log.Fatalf("run failed: %v", err)
		}
	case "balances":
		if err := application.CheckBalances(ctx); err != nil {
			log.Fatalf("balance check failed: %v", err)
		}
	case "points":
		if err := application.CheckPoints(ctx); err != nil {
			log.Fatalf("points check failed: %v", err)
		}
	default:
		log.Fatalf("unknown mode %q (want trade, balances or points)", *mode)
	}
}

func setupLogOutput(path string) (*os.File, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, nil
	}
	dir := filepath.Dir(trimmed)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	file, err := os.OpenFile(trimmed, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	mw := io.MultiWriter(os.Stdout, file)
	log.SetOutput(mw)
	logger.SetOutput(mw)
	return file, nil
}
