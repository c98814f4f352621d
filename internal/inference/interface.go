package inference

import (
	"context"
	"errors"
)

//go:generate mockgen -source=interface.go -destination=../mocks/inference/mock_client.go -package=mock_inference

var (
	// ErrMissingCredential means no API key is configured for the AI service.
	ErrMissingCredential = errors.New("AI service credential is not configured")
	// ErrRemote covers transport failures and unusable replies from the AI service.
	ErrRemote = errors.New("AI service request failed")
)

// Client is an opaque text-in/text-out generation service.
type Client interface {
	Generate(ctx context.Context, params GenerateRequest) (GenerateResponse, error)
}

// GenerateRequest is a single-turn generation request.
type GenerateRequest struct {
	Model             string
	Input             string
	SystemInstruction string
	Temperature       float64
	MaxOutputTokens   int
}

type GenerateResponse struct {
	// Text is the raw reply; it may be empty when the model produced nothing
	Text string
}

const (
	DefaultMaxRetryAttempts = 3
)
