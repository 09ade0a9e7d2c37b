package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"user-management-service/cmd/api/app"
	"user-management-service/cmd/api/server"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "application exited with error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configDir := pflag.String("config", "", "directory containing app.env (defaults to $CONFIG_PATH, then .)")
	pflag.Parse()

	ctx, stop := server.WithSignal(context.Background())
	defer stop()

	a, err := app.New(ctx, app.ConfigPath(*configDir))
	if err != nil {
		return err
	}

	return a.Run(ctx)
}
