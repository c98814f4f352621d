// Package gemini is an inference.Client for the Google Generative Language API.
package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/at-ishikawa/aicalc/internal/inference"
	"github.com/go-resty/resty/v2"
)

const DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

type Client struct {
	httpClient       *resty.Client
	apiKey           string
	model            string
	maxRetryAttempts uint
}

func NewClient(apiKey, model string, retryAttempts uint) *Client {
	return NewClientWithBaseURL(DefaultBaseURL, apiKey, model, retryAttempts)
}

func NewClientWithBaseURL(baseURL, apiKey, model string, retryAttempts uint) *Client {
	client := resty.New().
		SetBaseURL(baseURL).
		SetHeader("x-goog-api-key", apiKey).
		SetHeader("Content-Type", "application/json")

	return &Client{
		httpClient:       client,
		apiKey:           apiKey,
		model:            model,
		maxRetryAttempts: retryAttempts,
	}
}

// GetModel returns the model name configured for this client
func (client Client) GetModel() string {
	return client.model
}

type GenerateContentRequest struct {
	Contents          []Content         `json:"contents"`
	SystemInstruction *Content          `json:"systemInstruction,omitempty"`
	GenerationConfig  *GenerationConfig `json:"generationConfig,omitempty"`
}

// Content represents a content block with role and parts.
type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

type Part struct {
	Text string `json:"text,omitempty"`
}

type GenerationConfig struct {
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
	Temperature     float64 `json:"temperature"`
}

type GenerateContentResponse struct {
	Candidates     []Candidate     `json:"candidates"`
	PromptFeedback *PromptFeedback `json:"promptFeedback,omitempty"`
	UsageMetadata  *UsageMetadata  `json:"usageMetadata,omitempty"`
}

type Candidate struct {
	Content      Content `json:"content"`
	FinishReason string  `json:"finishReason,omitempty"`
}

type PromptFeedback struct {
	BlockReason string `json:"blockReason,omitempty"`
}

type UsageMetadata struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
	TotalTokenCount      int `json:"totalTokenCount"`
}

// Text concatenates the text parts of the first candidate, the same way the
// official SDKs expose a response's text.
func (response GenerateContentResponse) Text() string {
	if len(response.Candidates) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, part := range response.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	return sb.String()
}

// Generate implements the inference.Client interface
func (client *Client) Generate(
	ctx context.Context,
	params inference.GenerateRequest,
) (inference.GenerateResponse, error) {
	if client.apiKey == "" {
		return inference.GenerateResponse{}, inference.ErrMissingCredential
	}
	return inference.Retry(ctx, client.maxRetryAttempts, func() (inference.GenerateResponse, error) {
		return client.generate(ctx, params)
	})
}

func (client *Client) getRequestBody(params inference.GenerateRequest) GenerateContentRequest {
	body := GenerateContentRequest{
		Contents: []Content{
			{Role: "user", Parts: []Part{{Text: params.Input}}},
		},
		GenerationConfig: &GenerationConfig{
			MaxOutputTokens: params.MaxOutputTokens,
			Temperature:     params.Temperature,
		},
	}
	if params.SystemInstruction != "" {
		body.SystemInstruction = &Content{
			Parts: []Part{{Text: params.SystemInstruction}},
		}
	}
	return body
}

func (client *Client) generate(
	ctx context.Context,
	params inference.GenerateRequest,
) (inference.GenerateResponse, error) {
	model := params.Model
	if model == "" {
		model = client.model
	}
	requestBody := client.getRequestBody(params)

	response, err := client.httpClient.R().
		SetContext(ctx).
		SetPathParam("model", model).
		SetBody(requestBody).
		SetResult(&GenerateContentResponse{}).
		Post("/models/{model}:generateContent")
	if err != nil {
		return inference.GenerateResponse{}, fmt.Errorf("httpClient.Post > %w", err)
	}
	if response.IsError() {
		return inference.GenerateResponse{}, fmt.Errorf("response error %d: %s", response.StatusCode(), response.String())
	}

	responseBody := response.Result().(*GenerateContentResponse)
	if responseBody == nil {
		return inference.GenerateResponse{}, fmt.Errorf("empty response body: %s", response.String())
	}
	if responseBody.PromptFeedback != nil && responseBody.PromptFeedback.BlockReason != "" {
		return inference.GenerateResponse{}, fmt.Errorf("prompt blocked: %s", responseBody.PromptFeedback.BlockReason)
	}
	if len(responseBody.Candidates) == 0 {
		return inference.GenerateResponse{}, fmt.Errorf("empty response candidates: %s", response.String())
	}

	text := responseBody.Text()
	slog.Default().Debug("gemini response content",
		"model", model,
		"finishReason", responseBody.Candidates[0].FinishReason,
		"text", text,
	)
	return inference.GenerateResponse{Text: text}, nil
}
