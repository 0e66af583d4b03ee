package main

import (
	"fmt"
	"os"

	"storefront/internal/config"
	"storefront/internal/logger"
)

func main() {
	cfg := config.Load()

	log, err := logger.New("storectl", cfg.Server.Env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	app := newApp(newPostgresBackend(cfg, log))
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
