package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ecommerce/internal/config"
	"ecommerce/internal/handler"
	"ecommerce/internal/infra/db"
	infraRepo "ecommerce/internal/infra/repository"
	"ecommerce/internal/server"
	"ecommerce/internal/usecase"

	"github.com/joho/godotenv"
)

type realClock struct{}

func (c *realClock) Now() time.Time {
	return time.Now()
}

func main() {
	//.env はあれば読む（本番は環境変数だけ）
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Error("load .env failed", "error", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config failed", "error", err)
		os.Exit(1)
	}

	logger := setupLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	//DB接続
	gormDB, err := db.Connect(cfg)
	if err != nil {
		logger.Error("connect database failed", "error", err)
		os.Exit(1)
	}
	if err := db.Migrate(gormDB); err != nil {
		logger.Error("migrate failed", "error", err)
		os.Exit(1)
	}

	//Repository（GORM実装）
	productRepo := infraRepo.NewProductGormRepository(gormDB)
	orderRepo := infraRepo.NewOrderGormRepository(gormDB)
	txm := infraRepo.NewTxManagerGorm(gormDB)
	orderCreator := infraRepo.NewOrderCreatorGorm(txm)

	//Usecase
	ids := usecase.NewTimestampOrderIDGenerator(&realClock{}, cfg.Location)
	productUC := usecase.NewProductUsecase(productRepo, txm, logger)
	orderUC := usecase.NewOrderUsecase(productRepo, orderRepo, orderCreator, ids, logger)

	//Handler
	handlers := server.Handlers{
		Products: handler.NewProductHandler(productUC),
		Orders:   handler.NewOrderHandler(orderUC),
		Health: handler.NewHealthHandler(func(ctx context.Context) error {
			return db.Ping(ctx, gormDB)
		}, logger),
	}

	e := server.New(cfg, logger, handlers)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("starting ecommerce api", "env", cfg.GoEnv, "port", cfg.Port, "base_path", cfg.BasePath)
	if err := server.Start(ctx, e, cfg.Addr(), logger); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}

	if sqlDB, err := gormDB.DB(); err == nil {
		_ = sqlDB.Close()
	}
	logger.Info("server exited")
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
}
