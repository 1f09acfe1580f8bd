package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/semdex/internal/config"
	"github.com/kailas-cloud/semdex/internal/domain"
	logpkg "github.com/kailas-cloud/semdex/internal/logger"
	chiTransport "github.com/kailas-cloud/semdex/internal/transport/chi"
	"github.com/kailas-cloud/semdex/internal/version"
)

func main() {
	var (
		env        string
		configPath string
	)

	rootCmd := &cobra.Command{
		Use:           "semdex",
		Short:         "Semantic search and recommendation engine for analyzed files",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&env, "env", config.GetEnv(), "Environment: local, dev, docker, prod")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file path (default config/<env>.yaml)")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(env, configPath)
		},
	}

	var (
		provider string
		model    string
	)
	reindexCmd := &cobra.Command{
		Use:   "reindex",
		Short: "Re-embed every stored item with one provider and model",
		RunE: func(cmd *cobra.Command, args []string) error {
			return reindex(cmd.Context(), env, configPath, provider, model)
		},
	}
	reindexCmd.Flags().StringVar(&provider, "provider", "", "Embedding provider: on-device or remote (default from config)")
	reindexCmd.Flags().StringVar(&model, "model", "", "Embedding model (default from config)")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version.String())
		},
	}

	rootCmd.AddCommand(serveCmd, reindexCmd, versionCmd)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func setup(env, configPath string) (config.Config, *zap.Logger, error) {
	var (
		cfg config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load(env)
	}
	if err != nil {
		return cfg, nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		return cfg, nil, fmt.Errorf("create logger: %w", err)
	}
	return cfg, logger, nil
}

func serve(env, configPath string) error {
	cfg, logger, err := setup(env, configPath)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting semdex API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.String("default_provider", cfg.Embedding.DefaultProvider),
	)

	ctx := context.Background()
	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           a.server.Router(chiTransport.RouterConfig{ReindexPerMinute: cfg.Reindex.RateLimitPerMin}),
		ReadHeaderTimeout: time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		ReadTimeout:       time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout:      time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-quit:
		logger.Info("Received shutdown signal")
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
	return nil
}

// reindexOutput is the JSON summary printed by the reindex command.
type reindexOutput struct {
	RunID    string         `json:"run_id"`
	Provider string         `json:"provider"`
	Model    string         `json:"model,omitempty"`
	Updated  int            `json:"updated"`
	Skipped  int            `json:"skipped"`
	Failed   int            `json:"failed"`
	Reasons  map[string]int `json:"reasons,omitempty"`
}

func reindex(ctx context.Context, env, configPath, provider, model string) error {
	cfg, logger, err := setup(env, configPath)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	kind, err := domain.ParseProviderKind(provider, a.registry.Default())
	if err != nil {
		return err
	}
	embed, err := a.registry.Select(kind, model)
	if err != nil {
		return fmt.Errorf("select provider: %w", err)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	rep, err := a.reindex.Run(logpkg.ContextWithLogger(ctx, logger), embed)
	if err != nil {
		return fmt.Errorf("reindex: %w", err)
	}

	out := reindexOutput{
		RunID:    rep.RunID,
		Provider: string(kind),
		Model:    model,
		Updated:  rep.Summary.Updated,
		Skipped:  rep.Summary.Skipped,
		Failed:   rep.Summary.Failed,
		Reasons:  map[string]int{},
	}
	for _, r := range rep.Results {
		if r.Reason() != "" {
			out.Reasons[string(r.Reason())]++
		}
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	if rep.Summary.Failed > 0 {
		return fmt.Errorf("%d items failed to reindex", rep.Summary.Failed)
	}
	return nil
}
