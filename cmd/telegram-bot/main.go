package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"tasks-api/internal/config"
	"tasks-api/internal/logger"
	"tasks-api/internal/manager"
	"tasks-api/internal/storage"
	"tasks-api/internal/validation"
)

func main() {
	if err := run(); err != nil {
		logger.Error(context.Background(), err, "telegram bot stopped")
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to a TOML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	logger.Setup(os.Stderr, cfg.LogFormat)
	logger.SetLevel(logger.ParseLevel(cfg.LogLevel))

	if cfg.TelegramToken == "" {
		return errors.New("TELEGRAM_TOKEN is not set")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info(ctx, "starting telegram bot")

	store, err := storage.Open(ctx, cfg.DBDriver, cfg.DSN())
	if err != nil {
		return err
	}
	defer store.Close()

	validator, err := validation.NewTaskValidator()
	if err != nil {
		return err
	}

	bot, err := NewBot(cfg.TelegramToken, cfg.TelegramDebug, manager.NewTaskManagerWithStorage(store), validator)
	if err != nil {
		return err
	}

	return bot.Start(ctx)
}
