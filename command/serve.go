package command

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	log "github.com/Ptt-Alertor/logrus"
	"github.com/google/gops/agent"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/RxRoster/rxroster/auth"
	"github.com/RxRoster/rxroster/config"
	"github.com/RxRoster/rxroster/connections"
	"github.com/RxRoster/rxroster/controllers/api"
	"github.com/RxRoster/rxroster/jobs"
	"github.com/RxRoster/rxroster/middleware"
	"github.com/RxRoster/rxroster/models/account"
	"github.com/RxRoster/rxroster/storage"
	"github.com/RxRoster/rxroster/workspace"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the JSON API",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	kv, closeKV := openKV(cfg)
	defer closeKV()

	pool, err := connections.NewPostgres(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	registry := workspace.NewRegistry(workspace.NewFactory(
		auth.GoTrueConfig{URL: cfg.AuthURL, APIKey: cfg.AuthAPIKey},
		kv,
		account.NewPostgres(pool),
	))
	tokens := auth.NewTokens(cfg.JWTSecret, cfg.TokenTTL)

	router := newRouter()
	api.NewHandler(registry, tokens, strings.HasPrefix(cfg.DashboardURL, "https://")).Register(&router.Router)

	log.Info("Start Jobs")
	c := startJobs(registry, cfg)
	defer c.Stop()

	// gops agent
	if cfg.GopsAddr != "" {
		if err := agent.Listen(agent.Options{Addr: cfg.GopsAddr, ShutdownCleanup: true}); err != nil {
			return fmt.Errorf("gops agent: %w", err)
		}
	}

	// Web Server
	log.WithField("port", cfg.HTTPPort).Info("Web Server Start")
	srv := http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           middleware.CORS(cfg.DashboardURL, router),
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	// graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	select {
	case err := <-serveErr:
		return fmt.Errorf("ListenAndServe: %w", err)
	case <-quit:
	}

	log.Info("Shutdown Web Server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Web Server Shutdown Failed")
		return err
	}
	log.Info("Web Server Was Been Shutdown")
	return nil
}

func openKV(cfg config.Config) (storage.KV, func()) {
	if cfg.StorageDriver == config.DriverMemory {
		log.Warn("Using in-memory storage, state is lost on restart")
		return storage.NewMemoryKV(cfg.StorageQuotaBytes), func() {}
	}
	pool := connections.NewRedis(cfg)
	return storage.NewRedisKV(pool), func() { pool.Close() }
}

func startJobs(registry *workspace.Registry, cfg config.Config) *cron.Cron {
	sweeper := jobs.NewWorkspaceSweeper(registry, cfg.WorkspaceIdle)

	c := cron.New()
	if _, err := c.AddJob(sweeper.Schedule(), sweeper); err != nil {
		log.WithError(err).Error("Workspace Sweeper not scheduled")
	}
	if _, err := c.AddJob("@hourly", jobs.NewSessionChecker(registry)); err != nil {
		log.WithError(err).Error("Session Checker not scheduled")
	}
	c.Start()
	return c
}
