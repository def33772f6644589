package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"inboxpulse/internal/auth"
	"inboxpulse/internal/config"
	"inboxpulse/internal/ingest"
	"inboxpulse/internal/report"
	"inboxpulse/internal/schedule"
	"inboxpulse/internal/store"
)

// openStore builds the configured day store. The caller owns Close.
func openStore(ctx context.Context, cfg config.Config, log *slog.Logger) (store.Store, error) {
	switch cfg.Store.Driver {
	case "file":
		return store.OpenFile(cfg.Store.FilePath, log)
	case "postgres":
		return store.OpenPostgres(ctx, cfg.Store.PostgresURL, log)
	case "memory":
		return store.NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

func businessHours(cfg config.Config) (schedule.BusinessHours, error) {
	return cfg.BusinessHours()
}

func reportTargets(cfg config.Config) report.Targets {
	return report.Targets{
		ResponseTimeTargetMin:  float64(cfg.Targets.ResponseTimeMinutes),
		SLAComplianceTargetPct: cfg.Targets.SLACompliancePercent,
		UnreadThreshold:        cfg.SLA.UnreadThreshold,
	}
}

func cmdIngest(ctx context.Context, cfg config.Config, log *slog.Logger, args []string) int {
	fs := flag.NewFlagSet("ingest", flag.ContinueOnError)
	dataDir := fs.String("data", cfg.Paths.DataDir, "directory scanned for incoming CSV exports")
	backupDir := fs.String("backup", cfg.Paths.BackupDir, "directory for database backups and processed CSVs")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	st, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Error("store init failed", "err", err)
		return 1
	}
	defer st.Close()

	hours, err := businessHours(cfg)
	if err != nil {
		log.Error("business hours invalid", "err", err)
		return 2
	}

	svc := ingest.NewService(st, hours, ingest.Options{
		DataDir:         *dataDir,
		BackupDir:       *backupDir,
		UnreadThreshold: cfg.SLA.UnreadThreshold,
	}, log)

	rep, err := svc.Run(ctx)
	if errors.Is(err, ingest.ErrNoInput) {
		log.Info("nothing to ingest", "data_dir", *dataDir)
		return 0
	}
	if err != nil {
		log.Error("ingestion run failed", "run_id", rep.RunID, "err", err)
		return 1
	}
	return 0
}

func cmdDaily(ctx context.Context, cfg config.Config, log *slog.Logger, args []string) int {
	fs := flag.NewFlagSet("daily", flag.ContinueOnError)
	date := fs.String("date", "", "render this date (YYYY-MM-DD) instead of the latest complete day")
	out := fs.String("out", cfg.Paths.OutputDir, "output directory")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	return renderDashboard(ctx, cfg, log, func(svc *report.Service) (string, error) {
		return svc.WriteDaily(ctx, *out, *date)
	})
}

func cmdWeekly(ctx context.Context, cfg config.Config, log *slog.Logger, args []string) int {
	fs := flag.NewFlagSet("weekly", flag.ContinueOnError)
	week := fs.String("week", "", "ISO week like 2025-W31; default is the last 7 days")
	out := fs.String("out", cfg.Paths.OutputDir, "output directory")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	return renderDashboard(ctx, cfg, log, func(svc *report.Service) (string, error) {
		return svc.WriteWeekly(ctx, *out, *week)
	})
}

func renderDashboard(ctx context.Context, cfg config.Config, log *slog.Logger, write func(*report.Service) (string, error)) int {
	st, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Error("store init failed", "err", err)
		return 1
	}
	defer st.Close()

	hours, err := businessHours(cfg)
	if err != nil {
		log.Error("business hours invalid", "err", err)
		return 2
	}

	svc := report.NewService(st, hours, reportTargets(cfg))
	path, err := write(svc)
	if errors.Is(err, report.ErrNoData) {
		log.Error("no data to render", "err", err)
		return 1
	}
	if err != nil {
		log.Error("render failed", "err", err)
		return 1
	}
	log.Info("dashboard written", "path", path)
	return 0
}

func cmdDates(ctx context.Context, cfg config.Config, log *slog.Logger, args []string) int {
	fs := flag.NewFlagSet("dates", flag.ContinueOnError)
	asJSON := fs.Bool("json", false, "print as JSON")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	st, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Error("store init failed", "err", err)
		return 1
	}
	defer st.Close()

	dates, err := st.Dates(ctx)
	if err != nil {
		log.Error("date listing failed", "err", err)
		return 1
	}
	meta, err := st.Meta(ctx)
	if err != nil {
		log.Error("metadata lookup failed", "err", err)
		return 1
	}

	if *asJSON {
		out, _ := json.MarshalIndent(map[string]any{"dates": dates, "metadata": meta}, "", "  ")
		fmt.Println(string(out))
		return 0
	}
	for _, d := range dates {
		fmt.Println(d)
	}
	fmt.Printf("%d day(s) stored", len(dates))
	if meta.EarliestDate != "" {
		fmt.Printf(", %s to %s", meta.EarliestDate, meta.LatestDate)
	}
	if !meta.LastUpdated.IsZero() {
		fmt.Printf(", last updated %s", meta.LastUpdated.Format(time.RFC3339))
	}
	fmt.Println()
	return 0
}

func cmdToken(cfg config.Config, args []string) int {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	subject := fs.String("subject", "", "who the token identifies (required)")
	role := fs.String("role", auth.RoleViewer, "token role: admin or viewer")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *subject == "" {
		fmt.Fprintln(os.Stderr, "inboxpulse token: -subject is required")
		return 2
	}

	m, err := auth.NewManager(cfg.Auth.Secret, cfg.Auth.TokenTTL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "inboxpulse token: %v\n", err)
		return 2
	}
	tok, err := m.Issue(time.Now(), *subject, *role)
	if err != nil {
		fmt.Fprintf(os.Stderr, "inboxpulse token: %v\n", err)
		return 2
	}
	fmt.Println(tok)
	return 0
}
