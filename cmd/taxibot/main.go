package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/LuckyBoy34/taxi/internal/bot"
	"github.com/LuckyBoy34/taxi/internal/config"
	"github.com/LuckyBoy34/taxi/internal/dialog"
	"github.com/LuckyBoy34/taxi/internal/geo"
	"github.com/LuckyBoy34/taxi/internal/geocoder"
	"github.com/LuckyBoy34/taxi/internal/pricing"
	"github.com/LuckyBoy34/taxi/internal/storage"
	redisstore "github.com/LuckyBoy34/taxi/internal/storage/redis"
	"github.com/LuckyBoy34/taxi/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	zapLogger, err := logger.New(cfg.Debug)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer zapLogger.Sync()

	ctx, cancel := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer cancel()

	sessions := redisstore.NewSessionStore(
		cfg.RedisAddr,
		cfg.RedisPassword,
		cfg.RedisDB,
		cfg.SessionTTL,
	)
	defer sessions.Close()

	if err := sessions.Ping(ctx); err != nil {
		zapLogger.Fatal("Failed to connect to Redis", zap.Error(err))
	}

	pgStorage, err := storage.NewPostgresStorage(ctx, storage.Config{
		Host:            cfg.DBHost,
		Port:            cfg.DBPort,
		User:            cfg.DBUser,
		Password:        cfg.DBPassword,
		DBName:          cfg.DBName,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
		ConnMaxIdleTime: cfg.DBConnMaxIdleTime,
	}, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to init PostgreSQL storage", zap.Error(err))
	}
	defer pgStorage.Close()

	if err := pgStorage.Migrate(ctx); err != nil {
		zapLogger.Fatal("Failed to run migrations", zap.Error(err))
	}

	serviceArea := geo.BoundingBox{
		MinLat: cfg.ServiceMinLat,
		MaxLat: cfg.ServiceMaxLat,
		MinLon: cfg.ServiceMinLon,
		MaxLon: cfg.ServiceMaxLon,
	}
	resolver := geocoder.NewYandexClient(
		cfg.GeocoderBaseURL,
		cfg.GeocoderAPIKey,
		cfg.City,
		serviceArea,
		cfg.GeocoderTimeout,
		zapLogger,
	)

	machine := dialog.NewMachine(
		resolver,
		pricing.DefaultCatalog(),
		pgStorage,
		cfg.MapHost,
		zapLogger,
	)

	tgBot, err := bot.New(
		cfg.TelegramToken,
		cfg.Debug,
		machine,
		sessions,
		cfg.OperatorChatID,
		zapLogger,
	)
	if err != nil {
		zapLogger.Fatal("Failed to create bot", zap.Error(err))
	}

	if err := tgBot.Start(ctx); err != nil {
		zapLogger.Fatal("Bot stopped with error", zap.Error(err))
	}

	zapLogger.Info("Bot shutdown gracefully")
}
