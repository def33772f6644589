package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"inboxpulse/internal/auth"
	"inboxpulse/internal/config"
	"inboxpulse/internal/httpapi"
	"inboxpulse/internal/ingest"
	"inboxpulse/internal/report"
	"inboxpulse/pkg/logger"
	"inboxpulse/pkg/utils"

	"github.com/gin-gonic/gin"
)

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers delegate to internal modules.
func registerRoutes(r *gin.Engine, h httpapi.Handlers, m *auth.Manager) {
	// public
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.GET("/dashboard/daily", h.DashboardDaily)
	r.GET("/dashboard/weekly", h.DashboardWeekly)

	// token-protected API group
	v1 := r.Group("/v1")
	v1.Use(auth.RequireToken(m))
	{
		v1.GET("/days/:date", h.GetDay)
		v1.GET("/days", h.ListDays)
		v1.GET("/weekly", h.GetWeekly)
		v1.GET("/meta", h.GetMeta)

		// ADMIN routes
		admin := v1.Group("/admin")
		admin.Use(auth.RequireRole(auth.RoleAdmin))
		{
			admin.POST("/ingest", h.AdminIngest)
		}
	}
}

func cmdServe(ctx context.Context, stop func(), cfg config.Config, log *slog.Logger) int {
	hours, err := businessHours(cfg)
	if err != nil {
		log.Error("business hours invalid", "err", err)
		return 2
	}

	authManager, err := auth.NewManager(cfg.Auth.Secret, cfg.Auth.TokenTTL)
	if err != nil {
		log.Error("auth init failed", "err", err)
		return 2
	}

	st, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Error("store init failed", "err", err)
		return 1
	}
	defer st.Close()

	var cache *httpapi.Cache
	if cfg.Cache.RedisAddr != "" {
		rdb, err := utils.OpenRedis(ctx, utils.RedisConfig{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
		if err != nil {
			log.Error("redis init failed", "err", err)
			return 1
		}
		defer rdb.Close()
		cache = httpapi.NewCache(rdb, cfg.Cache.TTL, log)
	}

	handlers := httpapi.Handlers{
		Store:   st,
		Reports: report.NewService(st, hours, reportTargets(cfg)),
		Ingest: ingest.NewService(st, hours, ingest.Options{
			DataDir:         cfg.Paths.DataDir,
			BackupDir:       cfg.Paths.BackupDir,
			UnreadThreshold: cfg.SLA.UnreadThreshold,
		}, log),
		Cache: cache,
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))
	registerRoutes(r, handlers, authManager)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
		return 1
	}
	return 0
}
