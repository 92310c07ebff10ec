// Command browserbridge serves the browser-mediated request API.
// Configuration comes from the environment; see internal/app.Config.
// Usage: browserbridge [-port N] [-check] [-print-config]
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/raysh454/browserbridge/internal/app"
	"github.com/raysh454/browserbridge/internal/cli"
	"github.com/raysh454/browserbridge/internal/logging"
)

func main() {
	args, err := cli.ParseArgs(os.Args[1:])
	if err != nil {
		log.Fatalf("Invalid arguments: %v", err)
	}

	cfg, err := app.Load()
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}

	logger, err := logging.NewZapLogger(cfg.LoggingConfig(), "browserbridge")
	if err != nil {
		log.Fatalf("Logger error: %v", err)
	}
	defer logger.Sync()

	a := app.NewApplication(cfg, args, logger, nil)

	if args.PrintConfig {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(a.Config); err != nil {
			log.Fatalf("Encoding config: %v", err)
		}
		return
	}

	if args.Check {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if err := a.Check(ctx, os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "browser check failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.Run(ctx); err != nil {
		logger.Error("server exited", logging.Field{Key: "error", Value: err})
		os.Exit(1)
	}
}
