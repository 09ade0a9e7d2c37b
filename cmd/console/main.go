package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"user-management-service/cmd/api/app"
	"user-management-service/cmd/api/infrastructure"
	"user-management-service/cmd/api/server"
	"user-management-service/internal/adapter/console"
	"user-management-service/internal/adapter/db/memory"
	"user-management-service/internal/adapter/db/postgres"
	"user-management-service/internal/config"
	"user-management-service/internal/usecase/user"
	"user-management-service/pkg/logger"
)

const (
	storeMemory   = "memory"
	storeDatabase = "database"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "console exited with error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configDir := pflag.String("config", "", "directory containing app.env (defaults to $CONFIG_PATH, then .)")
	store := pflag.String("store", storeMemory, "user store: memory (lost on exit) or database (DB_DRIVER settings)")
	pflag.Parse()

	cfg, err := config.LoadConfig(app.ConfigPath(*configDir))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// The terminal belongs to the menu, so logs go to a rotated file
	l, err := logger.NewWithConfig(logger.Config{
		Level:          cfg.Logger.Level,
		Format:         "json",
		OutputPath:     cfg.Console.LogOutputPath,
		ServiceName:    cfg.Logger.ServiceName + "-console",
		ServiceVersion: cfg.Logger.ServiceVersion,
		Environment:    cfg.Logger.Environment,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = l.Sync() }()

	ctx, stop := server.WithSignal(context.Background())
	defer stop()

	var repo user.Repository
	switch *store {
	case storeMemory:
		repo = memory.NewUserRepo(l)
	case storeDatabase:
		db, err := infrastructure.NewDatabase(ctx, cfg, l)
		if err != nil {
			return err
		}
		defer func() {
			if err := infrastructure.CloseDatabase(db); err != nil {
				l.Error("failed to close database", zap.Error(err))
			}
		}()
		repo = postgres.NewUserRepoPG(db, l)
	default:
		return fmt.Errorf("unknown store %q (want %s or %s)", *store, storeMemory, storeDatabase)
	}

	l.Info("console started", zap.String("store", *store))

	uc := user.New(repo, l)
	return console.NewMenu(uc, os.Stdin, os.Stdout, l).Run(ctx)
}
