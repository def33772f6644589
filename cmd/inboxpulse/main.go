package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"inboxpulse/internal/config"
	"inboxpulse/pkg/logger"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
)

const usageText = `usage: inboxpulse <command> [flags]

commands:
  ingest   scan the data directory and fold new CSV exports into the day store
  daily    render the daily dashboard (default: latest complete day)
  weekly   render the weekly dashboard (default: last 7 days)
  dates    list stored dates and store metadata
  token    mint an API token for serve mode
  serve    run the HTTP API and dashboard server
`

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, usageText)
		return 2
	}
	cmd, rest := args[0], args[1:]
	if cmd == "help" || cmd == "-h" || cmd == "--help" {
		fmt.Fprint(os.Stderr, usageText)
		return 0
	}

	// Local convenience only; production deployments set real env vars.
	if _, err := os.Stat(".env"); err == nil {
		_ = godotenv.Load()
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "inboxpulse: %v\n", err)
		return 2
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	// Root context that cancels on shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch cmd {
	case "ingest":
		return cmdIngest(ctx, cfg, log, rest)
	case "daily":
		return cmdDaily(ctx, cfg, log, rest)
	case "weekly":
		return cmdWeekly(ctx, cfg, log, rest)
	case "dates":
		return cmdDates(ctx, cfg, log, rest)
	case "token":
		return cmdToken(cfg, rest)
	case "serve":
		return cmdServe(ctx, stop, cfg, log)
	default:
		fmt.Fprintf(os.Stderr, "inboxpulse: unknown command %q\n\n%s", cmd, usageText)
		return 2
	}
}
