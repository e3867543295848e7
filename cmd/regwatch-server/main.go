package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"regwatch/internal/announce"
	"regwatch/internal/cache"
	"regwatch/internal/config"
	"regwatch/internal/handler"
	"regwatch/internal/middleware"
	"regwatch/internal/observability"
	"regwatch/internal/repository/jsonfile"
	"regwatch/internal/repository/memory"
	"regwatch/internal/service"
	"regwatch/internal/summarize"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg := config.Load()

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logFormat := os.Getenv("LOG_FORMAT")
	if logFormat == "" {
		logFormat = "json"
	}
	observability.InitLogger(logLevel, logFormat)

	slog.Info("starting regwatch server")

	userRepo := jsonfile.NewUserRepository(cfg.UsersFile)
	sessionRepo := memory.NewSessionRepository(cfg.SessionTTL)

	authService := service.NewAuthService(userRepo, sessionRepo)

	bootCtx, bootCancel := context.WithTimeout(context.Background(), 10*time.Second)
	created, err := authService.EnsureBootstrapUser(bootCtx, cfg.BootstrapUsername, cfg.BootstrapPassword)
	bootCancel()
	if err != nil {
		slog.Error("failed to bootstrap admin user", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if created {
		slog.Info("bootstrap user created", slog.String("username", cfg.BootstrapUsername))
	}

	fetcher := announce.NewClient(cfg.AnnouncementsURL)
	summarizer := summarize.NewClient(cfg.GenAIAPIURL, cfg.GenAIAPIKey, cfg.GenAIModel)
	summaryCache := cache.NewSummaryCache(cfg.SummaryCacheTTL, summarizer)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go startSessionCleanup(ctx, sessionRepo)
	go startCacheSweep(ctx, summaryCache, cfg.CacheSweepEvery)

	authHandler := handler.NewAuthHandler(authService, cfg.SessionTTL)
	announcementHandler := handler.NewAnnouncementHandler(fetcher, summaryCache)
	summarizeHandler := handler.NewSummarizeHandler(summaryCache)
	adminHandler := handler.NewAdminHandler(authService)

	loginLimiter := middleware.NewRateLimiter(cfg.LoginRateLimit, cfg.LoginRateWindow)
	defer loginLimiter.Stop()

	r := chi.NewRouter()

	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.CORS(middleware.ParseOrigins(cfg.AllowedOrigins)))
	r.Use(middleware.Metrics())
	r.Use(middleware.OpenAPIValidator(middleware.DefaultOpenAPIValidatorConfig()))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte("regwatch is running"))
	})
	r.Get("/health", handler.Health)
	r.Get("/health/ready", handler.Ready(userRepo))
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/auth/me", authHandler.Me)

	r.Group(func(r chi.Router) {
		r.Use(loginLimiter.Middleware())
		r.Post("/auth/login", authHandler.Login)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(sessionRepo))

		r.Post("/auth/logout", authHandler.Logout)
		r.Get("/api/announcements", announcementHandler.List)
		r.Post("/api/summarize", summarizeHandler.Summarize)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Admin(cfg.AdminKey))

			r.Get("/admin/users", adminHandler.ListUsers)
			r.Post("/admin/users", adminHandler.AddUser)
			r.Delete("/admin/users/{username}", adminHandler.DeleteUser)
		})
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("regwatch server listening", slog.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	slog.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", slog.String("error", err.Error()))
	}

	cancel()

	slog.Info("server stopped gracefully")
}

// startSessionCleanup periodically drops expired sessions and keeps the
// active-session gauge honest
func startSessionCleanup(ctx context.Context, repo *memory.SessionRepository) {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("stopping session cleanup task")
			return
		case <-ticker.C:
			count, err := repo.DeleteExpired(ctx)
			if err != nil {
				slog.Error("session cleanup failed", slog.String("error", err.Error()))
			} else if count > 0 {
				slog.Info("session cleanup completed",
					slog.Int64("sessions_deleted", count))
			}
			observability.SessionsActive.Set(float64(repo.Len()))
		}
	}
}

// startCacheSweep periodically evicts expired summaries
func startCacheSweep(ctx context.Context, summaryCache *cache.SummaryCache, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("stopping cache sweep task")
			return
		case <-ticker.C:
			if removed := summaryCache.Sweep(); removed > 0 {
				slog.Info("summary cache sweep completed",
					slog.Int("entries_removed", removed))
			}
		}
	}
}
