package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/joho/godotenv/autoload" // Autoload .env file.
	"go.uber.org/zap"

	"github.com/vietanh2810/raffle-api/internal/logger"
	"github.com/vietanh2810/raffle-api/internal/ticker"
)

func main() {
	conf, err := ticker.LoadConfig()
	if err != nil {
		panic(err)
	}
	if err = logger.Init(conf.Environment); err != nil {
		panic(err)
	}
	defer func() { _ = zap.L().Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	zap.L().Info("ticker started", zap.String("url", conf.URL), zap.Duration("interval", conf.Interval))
	ticker.New(conf, nil).Run(ctx)
	zap.L().Info("ticker stopped")
}
