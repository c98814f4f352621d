// Package dispatcher sends calculator input that cannot be evaluated locally
// to an AI service and turns the reply into a calculator result.
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/at-ishikawa/aicalc/internal/calculator"
	"github.com/at-ishikawa/aicalc/internal/inference"
)

type Dispatcher struct {
	client          inference.Client
	model           string
	temperature     float64
	maxOutputTokens int
}

type Option func(*Dispatcher)

func WithModel(model string) Option {
	return func(d *Dispatcher) {
		d.model = model
	}
}

func WithTemperature(temperature float64) Option {
	return func(d *Dispatcher) {
		d.temperature = temperature
	}
}

func WithMaxOutputTokens(maxOutputTokens int) Option {
	return func(d *Dispatcher) {
		d.maxOutputTokens = maxOutputTokens
	}
}

// New creates a Dispatcher. A nil client means no credential is configured;
// every dispatch then resolves to the error marker with
// inference.ErrMissingCredential as the cause.
func New(client inference.Client, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		client:          client,
		temperature:     DefaultTemperature,
		maxOutputTokens: DefaultMaxOutputTokens,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Configured reports whether an AI client is available.
func (d *Dispatcher) Configured() bool {
	return d.client != nil
}

// Dispatch sends the raw input to the AI service. It never returns an error:
// configuration, transport and empty-reply failures become the error marker
// and are logged instead.
func (d *Dispatcher) Dispatch(ctx context.Context, input string) calculator.Result {
	if d.client == nil {
		slog.Default().Error("AI service is not configured, set an API key to enable AI evaluation",
			"error", inference.ErrMissingCredential)
		return calculator.Failure(inference.ErrMissingCredential)
	}

	response, err := d.client.Generate(ctx, inference.GenerateRequest{
		Model:             d.model,
		Input:             input,
		SystemInstruction: SystemInstruction,
		Temperature:       d.temperature,
		MaxOutputTokens:   d.maxOutputTokens,
	})
	if err != nil {
		if errors.Is(err, inference.ErrMissingCredential) {
			slog.Default().Error("AI service is not configured, set an API key to enable AI evaluation",
				"error", err)
			return calculator.Failure(err)
		}
		slog.Default().Error("AI service request failed",
			"input", input,
			"error", err)
		return calculator.Failure(fmt.Errorf("%w: client.Generate > %w", inference.ErrRemote, err))
	}

	text := strings.TrimSpace(response.Text)
	if text == "" {
		slog.Default().Warn("AI service returned an empty reply", "input", input)
		return calculator.Failure(fmt.Errorf("%w: empty reply", inference.ErrRemote))
	}
	return normalizeReply(text)
}

func normalizeReply(text string) calculator.Result {
	if text == calculator.ErrorMarker {
		return calculator.Failure(fmt.Errorf("%w: service could not answer", inference.ErrRemote))
	}
	if isPlainNumber(text) {
		return calculator.Number(text)
	}
	return calculator.Text(text)
}

// isPlainNumber accepts decimal and scientific notation but not the special
// values ParseFloat also understands, such as "Inf" or "NaN".
func isPlainNumber(text string) bool {
	if _, err := strconv.ParseFloat(text, 64); err != nil {
		return false
	}
	for _, r := range text {
		switch {
		case r >= '0' && r <= '9':
		case r == '.', r == '-', r == '+', r == 'e', r == 'E':
		default:
			return false
		}
	}
	return true
}
