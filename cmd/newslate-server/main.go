// Command newslate-server serves the translation API and the news proxy.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ZaguanLabs/newslate"
	"github.com/ZaguanLabs/newslate/logging"
	"github.com/ZaguanLabs/newslate/server"
	"github.com/joho/godotenv"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// .env is optional; production sets real environment variables
	envErr := godotenv.Load()

	cfg, err := server.ConfigFromEnv()
	if err != nil {
		return err
	}

	srv, cleanup, err := server.Build(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	logger := logging.NewLogger("main")
	if envErr != nil {
		logger.Debug().Err(envErr).Msg(".env not loaded")
	}
	logger.Info().Str("version", newslate.FullVersion()).Str("addr", srv.Addr()).Msg("starting " + newslate.Name)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return srv.Run(ctx)
}
