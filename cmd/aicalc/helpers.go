package main

import (
	"context"
	"fmt"

	"github.com/at-ishikawa/aicalc/internal/bootstrap"
	"github.com/at-ishikawa/aicalc/internal/config"
	"github.com/at-ishikawa/aicalc/internal/metrics"
)

func loadConfig() (*config.Config, error) {
	loader, err := config.NewConfigLoader(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to create config loader: %w", err)
	}
	return loader.Load()
}

// runWithComponents loads the configuration, wires the calculator and runs fn,
// releasing resources afterwards.
func runWithComponents(ctx context.Context, fn func(ctx context.Context, cfg *config.Config, components *bootstrap.Components) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	app := bootstrap.New()
	return app.Run(ctx, func(ctx context.Context) error {
		components, err := app.NewComponents(ctx, cfg, metrics.NewNopRecorder())
		if err != nil {
			return fmt.Errorf("app.NewComponents() > %w", err)
		}
		return fn(ctx, cfg, components)
	})
}
