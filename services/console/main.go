package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	pkgconfig "NexusPlatform/pkg/config"
	"NexusPlatform/pkg/logger"
	"NexusPlatform/pkg/metrics"
	"NexusPlatform/services/console/cmd"
	"NexusPlatform/services/console/internal/config"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := pkgconfig.LoadConfig(serviceConfigPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	// stdout занят выводом команд, логи идут в stderr
	appLogger, err := logger.NewLoggerTo(os.Stderr, cfg.Environment, cfg.Logger.Level, "nexus-console")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer appLogger.Sync()

	shutdown, err := metrics.InitializeOpenTelemetry("nexus-console", cmd.Version)
	if err != nil {
		appLogger.Warn("tracing disabled", logger.Error(err))
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				appLogger.Warn("tracer shutdown failed", logger.Error(err))
			}
		}()
	}

	appMetrics := metrics.NewMetrics("nexus_console")

	if err := cmd.Execute(ctx, cfg, appLogger, appMetrics); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// serviceConfigPath путь к сервисной конфигурации: NEXUS_SERVICE_CONFIG
// или ключ service_config из файла консоли
func serviceConfigPath() string {
	if path := os.Getenv("NEXUS_SERVICE_CONFIG"); path != "" {
		return path
	}

	path := os.Getenv("NEXUS_CONFIG")
	if path == "" {
		var err error
		if path, err = config.GetConfigPath(); err != nil {
			return ""
		}
	}
	consoleCfg, err := config.LoadConfig(path)
	if err != nil {
		return ""
	}
	return consoleCfg.ServiceConfig
}
