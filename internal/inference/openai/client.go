package openai

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/at-ishikawa/aicalc/internal/inference"
	"resty.dev/v3"
)

const DefaultBaseURL = "https://api.openai.com/v1"

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
	client := resty.New()
	client.SetBaseURL(baseURL)
	client.SetHeader("Authorization", "Bearer "+apiKey)
	client.SetHeader("Content-Type", "application/json")

	return &Client{
		httpClient:       client,
		apiKey:           apiKey,
		model:            model,
		maxRetryAttempts: retryAttempts,
	}
}

func (client Client) Close() error {
	return client.httpClient.Close()
}

// GetModel returns the model name configured for this client
func (client Client) GetModel() string {
	return client.model
}

type ChatCompletionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type ChatCompletionResponse struct {
	ID      string   `json:"id"`
	Object  string   `json:"object"`
	Created int64    `json:"created"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   Usage    `json:"usage"`
}

type Choice struct {
	Index        int           `json:"index"`
	Message      ChoiceMessage `json:"message"`
	FinishReason string        `json:"finish_reason"`
}

type ChoiceMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
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

func (client *Client) getRequestBody(params inference.GenerateRequest) ChatCompletionRequest {
	model := params.Model
	if model == "" {
		model = client.model
	}

	messages := make([]Message, 0, 2)
	if params.SystemInstruction != "" {
		messages = append(messages, Message{Role: RoleSystem, Content: params.SystemInstruction})
	}
	messages = append(messages, Message{Role: RoleUser, Content: params.Input})

	return ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		Temperature: params.Temperature,
		MaxTokens:   params.MaxOutputTokens,
	}
}

func (client *Client) generate(
	ctx context.Context,
	params inference.GenerateRequest,
) (inference.GenerateResponse, error) {
	requestBody := client.getRequestBody(params)

	response, err := client.httpClient.R().
		SetContext(ctx).
		SetBody(requestBody).
		SetResult(&ChatCompletionResponse{}).
		Post("/chat/completions")
	if err != nil {
		return inference.GenerateResponse{}, fmt.Errorf("httpClient.Post > %w", err)
	}
	if response.IsError() {
		return inference.GenerateResponse{}, fmt.Errorf("response error %d: %s", response.StatusCode(), response.String())
	}

	responseBody := response.Result().(*ChatCompletionResponse)
	if responseBody == nil || len(responseBody.Choices) == 0 {
		return inference.GenerateResponse{}, fmt.Errorf("empty response body or choices: %s", response.String())
	}

	content := responseBody.Choices[0].Message.Content
	slog.Default().Debug("openai response content",
		"model", requestBody.Model,
		"finishReason", responseBody.Choices[0].FinishReason,
		"totalTokens", responseBody.Usage.TotalTokens,
		"content", content,
	)
	return inference.GenerateResponse{Text: content}, nil
}
