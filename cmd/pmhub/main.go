package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	atlassianadapter "github.com/ericfisherdev/pmhub/internal/adapter/driven/atlassian"
	backendadapter "github.com/ericfisherdev/pmhub/internal/adapter/driven/backend"
	githubadapter "github.com/ericfisherdev/pmhub/internal/adapter/driven/github"
	sqliteadapter "github.com/ericfisherdev/pmhub/internal/adapter/driven/sqlite"
	httphandler "github.com/ericfisherdev/pmhub/internal/adapter/driving/http"
	webhandler "github.com/ericfisherdev/pmhub/internal/adapter/driving/web"
	"github.com/ericfisherdev/pmhub/internal/application"
	"github.com/ericfisherdev/pmhub/internal/config"
	"github.com/ericfisherdev/pmhub/internal/domain/model"
	"github.com/ericfisherdev/pmhub/internal/domain/port/driven"
)

const (
	stateJanitorInterval = 5 * time.Minute
	demoSyncMaxLatency   = 1500 * time.Millisecond
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration (fail fast on malformed env vars).
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"db_path", cfg.DBPath,
		"app_url", cfg.AppURL,
		"backend_configured", cfg.BackendURL != "",
		"jira_configured", cfg.HasJiraCredentials(),
	)

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Open database (dual reader/writer with WAL mode).
	db, err := sqliteadapter.NewDB(ctx, cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()
	slog.Info("database opened", "path", cfg.DBPath)

	// 4. Run migrations on writer connection.
	version, err := sqliteadapter.RunMigrations(db.Writer)
	if err != nil {
		return err
	}
	slog.Info("migrations complete", "version", version)

	// 5. Wire storage adapters.
	integrationStore := sqliteadapter.NewIntegrationRepo(db, cfg.SecretKey)
	stateStore := sqliteadapter.NewStateRepo(db)
	toolStore := sqliteadapter.NewPMToolRepo(db)
	if cfg.SecretKey == nil {
		slog.Warn("PMHUB_SECRET_KEY not set, integrations cannot be stored")
	}

	// 6. Register OAuth providers that have client credentials.
	providers := application.NewProviderRegistry()
	if cfg.HasJiraCredentials() {
		providers.Replace(atlassianadapter.NewClient(atlassianadapter.Config{
			ClientID:     cfg.JiraClientID,
			ClientSecret: cfg.JiraClientSecret,
			RedirectURL:  cfg.JiraRedirectURL(),
		}))
		slog.Info("jira oauth provider registered", "redirect_uri", cfg.JiraRedirectURL())
	} else {
		slog.Info("no jira credentials configured, connect flow will return setup instructions")
	}

	// 7. Analysis backend (optional).
	var analysisBackend driven.AnalysisBackend
	if cfg.BackendURL != "" {
		analysisBackend = backendadapter.NewClient(cfg.BackendURL, nil)
	}

	// 8. Application services.
	rng := application.NewTimeSeededRandom()
	oauthSvc := application.NewOAuthService(providers, stateStore, integrationStore, toolStore, slog.Default())
	go oauthSvc.StartJanitor(ctx, stateJanitorInterval)

	toolSvc := application.NewPMToolService(toolStore, integrationStore, slog.Default())
	analysisSvc := application.NewAnalysisService(analysisBackend, slog.Default())
	demoSvc := application.NewDemoService(rng)

	syncSvc := application.NewSyncService(toolStore, application.NewDemoSyncer(rng, demoSyncMaxLatency), slog.Default())
	if cfg.GitHubToken != "" {
		syncSvc.Route(model.ProviderGitHub, githubadapter.RepositorySetting, githubadapter.NewClient(cfg.GitHubToken))
		slog.Info("github sync enabled for tools with a repository setting")
	}

	// 9. Create HTTP handler and register API routes.
	apiHandler := httphandler.NewHandler(oauthSvc, toolSvc, syncSvc, analysisSvc, demoSvc, cfg.AppURL, slog.Default())
	mux := http.NewServeMux()
	httphandler.RegisterAPIRoutes(mux, apiHandler)

	// 10. Create web handler and register page routes.
	webHandler, err := webhandler.NewHandler(oauthSvc, toolSvc, cfg.AppURL, slog.Default())
	if err != nil {
		return err
	}
	webhandler.RegisterRoutes(mux, webHandler)

	// Apply middleware.
	handler := httphandler.ApplyMiddleware(mux, cfg.CORSOrigins, slog.Default())

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		// Strategic analysis may wait up to backendadapter.AnalyzeTimeout.
		WriteTimeout: backendadapter.AnalyzeTimeout + 10*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server error", "error", err)
			stop()
		}
	}()

	slog.Info("pmhub started", "listen_addr", cfg.ListenAddr, "oauth_providers", providers.Names())

	// 11. Wait for shutdown signal.
	<-ctx.Done()
	slog.Info("shutting down")

	// 12. Graceful shutdown with 10s timeout to drain in-flight requests.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}
