package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/target/stalkcentral/config"
	"github.com/target/stalkcentral/internal/bootstrap"
)

func main() {
	cfg, err := bootstrap.LoadConfig()
	logger := bootstrap.InitLogger(&cfg)
	if err != nil {
		logger.Error("load config", "error", err)
		os.Exit(1) //nolint:forbidigo // Main entrypoint should exit with non-zero status on fatal errors.
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, stop, logger, &cfg); err != nil {
		logger.ErrorContext(ctx, "fatal error", "error", err)
		stop()
		os.Exit(1) //nolint:forbidigo // Main entrypoint should exit with non-zero status on fatal errors.
	}
}

func run(ctx context.Context, stop context.CancelFunc, logger *slog.Logger, cfg *config.AppConfig) (err error) {
	if err = bootstrap.ValidateServiceConfig(cfg); err != nil {
		return err
	}
	logStartupInfo(ctx, logger, cfg)

	redisClient, err := connectRedis(ctx, logger, cfg)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer func() {
			if cerr := redisClient.Close(); cerr != nil {
				logger.ErrorContext(ctx, "close redis failed", "error", cerr)
			}
		}()
	}

	app, err := bootstrap.BuildApp(ctx, bootstrap.AppDeps{
		Config: cfg,
		Logger: logger,
		Out:    os.Stdout,
		Redis:  redisClient,
	})
	if err != nil {
		return err
	}
	defer app.Close()

	var extra []func(context.Context) error
	if cfg.IsCLIEnabled() {
		shell := newShell(shellConfig{
			In:      os.Stdin,
			Out:     os.Stdout,
			Session: app.Session,
			Login:   app.Login,
			Metrics: app.Metrics.Recorder,
			Logger:  logger,
		})
		extra = append(extra, func(ctx context.Context) error {
			// Leaving the shell ends the process.
			defer stop()
			return shell.Run(ctx)
		})
	}

	return app.Run(ctx, extra...)
}

func logStartupInfo(ctx context.Context, logger *slog.Logger, cfg *config.AppConfig) {
	logger.InfoContext(ctx, "starting stalkcentral",
		"auth_mode", cfg.Auth.Mode,
		"backend_mode", cfg.Backend.Mode,
		"session_store", cfg.Backend.Store,
		"enabled_services", bootstrap.GetEnabledServices(cfg))
}

// connectRedis connects only when the session store lives in Redis.
//
//nolint:ireturn // returning redis.UniversalClient keeps sentinel/cluster support flexible.
func connectRedis(ctx context.Context, logger *slog.Logger, cfg *config.AppConfig) (redis.UniversalClient, error) {
	if cfg.Backend.Store != config.StoreModeRedis {
		return nil, nil //nolint:nilnil // no client when redis is not in use.
	}
	client, err := bootstrap.ConnectRedis(ctx, bootstrap.RedisConnectConfig{Redis: cfg.Redis, Logger: logger})
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return client, nil
}
