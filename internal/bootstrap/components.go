package bootstrap

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/at-ishikawa/aicalc/internal/config"
	"github.com/at-ishikawa/aicalc/internal/database"
	"github.com/at-ishikawa/aicalc/internal/dispatcher"
	"github.com/at-ishikawa/aicalc/internal/history"
	"github.com/at-ishikawa/aicalc/internal/inference"
	"github.com/at-ishikawa/aicalc/internal/inference/gemini"
	"github.com/at-ishikawa/aicalc/internal/inference/openai"
	"github.com/at-ishikawa/aicalc/internal/metrics"
	"github.com/at-ishikawa/aicalc/internal/orchestrator"
)

// Components are the collaborators shared by the CLI and the server.
type Components struct {
	Store      history.Store
	Dispatcher *dispatcher.Dispatcher
	Calculator *orchestrator.Calculator
}

// NewComponents wires the calculator for cfg. Resources that need releasing are
// registered as shutdown hooks on the app.
func (a *App) NewComponents(ctx context.Context, cfg *config.Config, recorder *metrics.Recorder) (*Components, error) {
	store, err := a.NewHistoryStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("NewHistoryStore() > %w", err)
	}

	client := NewInferenceClient(cfg.AI)
	if closer, ok := client.(io.Closer); ok {
		a.AddCloser("inference client", closer)
	}
	d := NewDispatcher(cfg.AI, client)

	return &Components{
		Store:      store,
		Dispatcher: d,
		Calculator: orchestrator.New(d, store, orchestrator.WithRecorder(recorder)),
	}, nil
}

// NewInferenceClient returns nil when no credential is configured.
func NewInferenceClient(cfg config.AIConfig) inference.Client {
	apiKey := cfg.Credential()
	if apiKey == "" {
		slog.Default().Warn("no API key is configured, AI evaluation is disabled",
			"provider", cfg.Provider)
		return nil
	}

	model := cfg.ModelName()
	slog.Default().Debug("using AI provider", "provider", cfg.Provider, "model", model)
	switch cfg.Provider {
	case config.ProviderOpenAI:
		if cfg.BaseURL != "" {
			return openai.NewClientWithBaseURL(cfg.BaseURL, apiKey, model, cfg.RetryAttempts)
		}
		return openai.NewClient(apiKey, model, cfg.RetryAttempts)
	default:
		if cfg.BaseURL != "" {
			return gemini.NewClientWithBaseURL(cfg.BaseURL, apiKey, model, cfg.RetryAttempts)
		}
		return gemini.NewClient(apiKey, model, cfg.RetryAttempts)
	}
}

func NewDispatcher(cfg config.AIConfig, client inference.Client) *dispatcher.Dispatcher {
	return dispatcher.New(client,
		dispatcher.WithModel(cfg.ModelName()),
		dispatcher.WithTemperature(cfg.Temperature),
		dispatcher.WithMaxOutputTokens(cfg.MaxOutputTokens),
	)
}

// NewHistoryStore opens the configured history backend.
func (a *App) NewHistoryStore(ctx context.Context, cfg *config.Config) (history.Store, error) {
	switch cfg.History.Backend {
	case config.HistoryBackendMemory:
		return history.NewMemoryStore(), nil
	case config.HistoryBackendMySQL:
		db, err := database.Connect(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("database.Connect() > %w", err)
		}
		a.AddCloser("database", db)

		store := history.NewDBStore(db)
		if err := store.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("store.EnsureSchema() > %w", err)
		}
		return store, nil
	default:
		return history.NewFileStore(cfg.History.File), nil
	}
}
