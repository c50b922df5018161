package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	"github.com/utiliwatch/triage-engine/pkg/classify"
	"github.com/utiliwatch/triage-engine/pkg/config"
	"github.com/utiliwatch/triage-engine/pkg/database"
	"github.com/utiliwatch/triage-engine/pkg/handlers"
	"github.com/utiliwatch/triage-engine/pkg/llm"
	"github.com/utiliwatch/triage-engine/pkg/logging"
	"github.com/utiliwatch/triage-engine/pkg/middleware"
	"github.com/utiliwatch/triage-engine/pkg/repositories"
	"github.com/utiliwatch/triage-engine/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "triage-engine: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(Version)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.NewLogger(cfg.Env)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("configuration loaded",
		zap.String("env", cfg.Env),
		zap.String("version", cfg.Version),
		zap.String("database", logging.SanitizeConnectionString(cfg.Database.ConnectionString())),
		zap.String("ai_provider", cfg.AI.Provider))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Migrations run through database/sql; the pgx stdlib driver shares the
	// connection string with the pool.
	migrationDB, err := sql.Open("pgx", cfg.Database.ConnectionString())
	if err != nil {
		return fmt.Errorf("open migration connection: %w", err)
	}
	if err := database.RunMigrations(migrationDB, cfg.MigrationsPath, logger); err != nil {
		_ = migrationDB.Close()
		return fmt.Errorf("run migrations: %w", err)
	}
	_ = migrationDB.Close()

	db, err := database.NewConnection(ctx, &database.Config{
		ConnString:     cfg.Database.ConnectionString(),
		MaxConnections: cfg.Database.MaxConnections,
	})
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	// Repositories
	incidentRepo := repositories.NewIncidentRepository(db)
	suggestionRepo := repositories.NewSuggestionRepository(db)
	auditRepo := repositories.NewAuditRepository(db)
	analyticsRepo := repositories.NewAnalyticsRepository(db)
	riskRepo := repositories.NewRiskRepository(db)

	// Services
	classifier := classify.NewFromConfig(cfg, logger)
	incidentService := services.NewIncidentService(incidentRepo, suggestionRepo, auditRepo, logger)
	analyticsService := services.NewAnalyticsService(analyticsRepo, logger)
	riskService := services.NewRiskService(riskRepo, logger)
	askService := services.NewAskService(riskService, askChatClient(cfg, logger), logger)
	transcribeService := services.NewTranscribeService(cfg.Transcribe, logger)

	// HTTP surface
	mux := http.NewServeMux()
	rateLimiter := middleware.NewRateLimiter(cfg.RateLimit.EnrichPerMinute, cfg.RateLimit.EnrichBurst)

	handlers.NewHealthHandler(cfg, logger).RegisterRoutes(mux)
	handlers.NewEnrichHandler(classifier, logger).RegisterRoutes(mux, rateLimiter.Limit)
	handlers.NewIncidentsHandler(incidentService, logger).RegisterRoutes(mux)
	handlers.NewStatsHandler(analyticsService, logger).RegisterRoutes(mux)
	handlers.NewRiskmapHandler(riskService, askService, logger).RegisterRoutes(mux)
	handlers.NewTranscribeHandler(transcribeService, logger).RegisterRoutes(mux)

	server := &http.Server{
		Addr:              cfg.BindAddr + ":" + cfg.Port,
		Handler:           middleware.RequestLogger(logger)(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting triage-engine",
			zap.String("addr", server.Addr),
			zap.String("version", cfg.Version))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// askChatClient builds the chat client the riskmap Q&A endpoint uses, or
// nil when no remote provider is configured.
func askChatClient(cfg *config.Config, logger *zap.Logger) llm.ChatClient {
	if !cfg.RemoteAIConfigured() {
		return nil
	}

	switch cfg.AI.Provider {
	case config.ProviderAnthropic:
		client, err := llm.NewAnthropicClient(&llm.Config{
			Model:  cfg.AI.Model,
			APIKey: cfg.AI.APIKey,
		}, logger)
		if err != nil {
			logger.Warn("anthropic client unavailable for riskmap ask", zap.Error(err))
			return nil
		}
		return client
	case config.ProviderOpenAI:
		client, err := llm.NewOpenAIClient(&llm.Config{
			Endpoint: cfg.AI.BaseURL,
			Model:    cfg.AI.Model,
			APIKey:   cfg.AI.APIKey,
		}, logger)
		if err != nil {
			logger.Warn("openai client unavailable for riskmap ask", zap.Error(err))
			return nil
		}
		return client
	}
	return nil
}
