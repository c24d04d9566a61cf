package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cmlabs-hris/attendance-summary/internal/config"
	appHTTP "github.com/cmlabs-hris/attendance-summary/internal/handler/http"
	"github.com/cmlabs-hris/attendance-summary/internal/pkg/cron"
	"github.com/cmlabs-hris/attendance-summary/internal/pkg/database"
	"github.com/cmlabs-hris/attendance-summary/internal/pkg/jwt"
	"github.com/cmlabs-hris/attendance-summary/internal/repository/postgresql"
	reportService "github.com/cmlabs-hris/attendance-summary/internal/service/report"
	"github.com/go-chi/httplog/v3"
)

func main() {
	if err := run(); err != nil {
		slog.Error("Server exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logFormat := httplog.SchemaECS.Concise(cfg.App.Env != "production")
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       cfg.App.SlogLevel(),
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", cfg.App.Name),
		slog.String("version", cfg.App.Version),
		slog.String("env", cfg.App.Env),
	)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL(), database.PoolOptions{
		MaxConns:    cfg.Database.MaxConns,
		MinConns:    cfg.Database.MinConns,
		PingTimeout: 5 * time.Second,
	})
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	reportRepo := postgresql.NewReportRepository(db)

	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)
	reportSvc := reportService.NewReportService(reportRepo)

	if cfg.Cron.RunOnce {
		scheduler := cron.NewScheduler(ctx, logger)
		cron.NewSummaryJobs(reportRepo, reportSvc, logger).RegisterJobs(scheduler, cfg.Cron.SummaryInterval)
		if failed := scheduler.RunOnce(ctx); failed > 0 {
			return fmt.Errorf("%d cron job(s) failed", failed)
		}
		logger.Info("Cron jobs completed")
		return nil
	}

	if cfg.Cron.Enabled {
		scheduler := cron.NewScheduler(ctx, logger)
		summaryJobs := cron.NewSummaryJobs(reportRepo, reportSvc, logger)
		summaryJobs.RegisterJobs(scheduler, cfg.Cron.SummaryInterval)
		scheduler.Start()
		defer scheduler.Stop()
	}

	reportHandler := appHTTP.NewReportHandler(reportSvc)

	router := appHTTP.NewRouter(JWTService, reportHandler, appHTTP.RouterOptions{
		Logger:         logger,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Server running", "addr", fmt.Sprintf("http://localhost%s", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
