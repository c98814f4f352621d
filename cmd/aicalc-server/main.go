package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/at-ishikawa/aicalc/internal/bootstrap"
	"github.com/at-ishikawa/aicalc/internal/config"
	"github.com/at-ishikawa/aicalc/internal/metrics"
	"github.com/at-ishikawa/aicalc/internal/server"
)

var configFile string

func main() {
	var debugMode bool
	rootCmd := &cobra.Command{
		Use:           "aicalc-server",
		Short:         "Calculator service HTTP server",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			setupLogger(debugMode)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context())
		},
	}
	rootCmd.Flags().StringVar(&configFile, "config", "", "config file path")
	rootCmd.Flags().BoolVar(&debugMode, "debug", false, "Enable debug mode")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func setupLogger(debugMode bool) {
	logLevel := slog.LevelInfo
	if debugMode {
		logLevel = slog.LevelDebug
	}

	slog.SetDefault(
		slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level:     logLevel,
			AddSource: true,
		})),
	)
}

func run(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loadConfig() > %w", err)
	}

	app := bootstrap.New()
	recorder := metrics.NewRecorder(metrics.NewProcessRegistry())
	components, err := app.NewComponents(ctx, cfg, recorder)
	if err != nil {
		return fmt.Errorf("app.NewComponents() > %w", err)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           newHandler(cfg, components, recorder),
		ReadHeaderTimeout: 10 * time.Second,
	}
	app.AddShutdownHook("http server", srv.Shutdown)

	return app.Run(ctx, func(ctx context.Context) error {
		slog.Default().Info("starting server",
			"addr", srv.Addr,
			"provider", cfg.AI.Provider,
			"ai_configured", components.Dispatcher.Configured(),
			"history_backend", cfg.History.Backend,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
}

func newHandler(cfg *config.Config, components *bootstrap.Components, recorder *metrics.Recorder) http.Handler {
	handler := server.NewCalculatorHandler(components.Calculator, components.Store, components.Dispatcher.Configured())
	path, h := server.NewCalculatorServiceHandler(handler)

	mux := http.NewServeMux()
	mux.Handle(path, h)
	mux.Handle("/metrics", recorder.Handler())

	return server.CORSMiddleware(h2c.NewHandler(mux, &http2.Server{}), cfg.Server.CORS.AllowedOrigins)
}

func loadConfig() (*config.Config, error) {
	loader, err := config.NewConfigLoader(configFile)
	if err != nil {
		return nil, fmt.Errorf("config.NewConfigLoader() > %w", err)
	}
	return loader.Load()
}
