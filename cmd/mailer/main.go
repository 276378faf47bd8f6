package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/planopia/leave_service/internal/config"
	"github.com/planopia/leave_service/internal/notify"
	logging "github.com/planopia/leave_service/internal/utils"
)

const prefetch = 8

func main() {
	cfg, err := config.GetConfig(slog.New(slog.NewTextHandler(os.Stdout, nil)))
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logger, err := logging.SetupLogger(cfg.Log.File, cfg.LogLevel())
	if err != nil {
		log.Fatal("Failed to setup logger:", err)
	}

	if cfg.AMQP.URL == "" {
		logger.Error("amqp.url is required for the mailer")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	consumer := &notify.Consumer{
		URL:      cfg.AMQP.URL,
		Queue:    cfg.AMQP.Queue,
		Prefetch: prefetch,
		Sender:   notify.NewSMTPSender(cfg.Mail.Host, cfg.Mail.Port, cfg.Mail.User, cfg.Mail.Password, cfg.Mail.From),
		Logger:   logger,
	}

	logger.Info("Mailer is starting", slog.String("queue", cfg.AMQP.Queue))

	if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Mailer stopped", slog.Any("error", err))
		os.Exit(1)
	}
}
