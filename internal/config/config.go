// Package config loads the calculator configuration from a YAML file and the environment.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"

	DefaultGeminiModel = "gemini-2.5-flash"
	DefaultOpenAIModel = "gpt-4o-mini"

	HistoryBackendMemory = "memory"
	HistoryBackendFile   = "file"
	HistoryBackendMySQL  = "mysql"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	AI       AIConfig       `mapstructure:"ai"`
	History  HistoryConfig  `mapstructure:"history"`
	Database DatabaseConfig `mapstructure:"database"`
}

type ServerConfig struct {
	Port int        `mapstructure:"port" validate:"min=1,max=65535"`
	CORS CORSConfig `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins" validate:"dive,origin"`
}

type AIConfig struct {
	Provider        string  `mapstructure:"provider" validate:"oneof=gemini openai"`
	Model           string  `mapstructure:"model"`
	Temperature     float64 `mapstructure:"temperature" validate:"gte=0,lte=2"`
	MaxOutputTokens int     `mapstructure:"max_output_tokens" validate:"min=1"`
	RetryAttempts   uint    `mapstructure:"retry_attempts" validate:"min=1,max=10"`
	BaseURL         string  `mapstructure:"base_url" validate:"omitempty,url"`

	// Credentials are read from the environment only.
	APIKey       string `mapstructure:"api_key"`
	GeminiAPIKey string `mapstructure:"gemini_api_key"`
	OpenAIAPIKey string `mapstructure:"openai_api_key"`
}

// Credential returns API_KEY if set, otherwise the key of the configured provider.
// An empty string means AI evaluation is not configured.
func (c AIConfig) Credential() string {
	if c.APIKey != "" {
		return c.APIKey
	}
	switch c.Provider {
	case ProviderOpenAI:
		return c.OpenAIAPIKey
	default:
		return c.GeminiAPIKey
	}
}

// ModelName returns the configured model, or the default model of the provider.
func (c AIConfig) ModelName() string {
	if c.Model != "" {
		return c.Model
	}
	if c.Provider == ProviderOpenAI {
		return DefaultOpenAIModel
	}
	return DefaultGeminiModel
}

type HistoryConfig struct {
	Backend string `mapstructure:"backend" validate:"oneof=memory file mysql"`
	File    string `mapstructure:"file" validate:"required_if=Backend file"`
	// ExportTemplate is optional; the embedded template is used when it is empty
	ExportTemplate string `mapstructure:"export_template" validate:"omitempty,file"`
}

type DatabaseConfig struct {
	Host            string            `mapstructure:"host"`
	Port            int               `mapstructure:"port"`
	Database        string            `mapstructure:"database"`
	Username        string            `mapstructure:"username"`
	Password        string            `mapstructure:"password"`
	TLS             bool              `mapstructure:"tls"`
	Params          map[string]string `mapstructure:"params"`
	MaxOpenConns    int               `mapstructure:"max_open_conns"`
	MaxIdleConns    int               `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int               `mapstructure:"conn_max_lifetime_seconds"`
}

type ConfigLoader struct {
	viper      *viper.Viper
	validator  *validator.Validate
	translator ut.Translator
}

func NewConfigLoader(configFile string) (*ConfigLoader, error) {
	validate, trans, err := newValidator()
	if err != nil {
		return nil, fmt.Errorf("failed to create new validator: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/aicalc")
	}

	return &ConfigLoader{
		viper:      v,
		validator:  validate,
		translator: trans,
	}, nil
}

// Load is a shorthand for NewConfigLoader(configFile).Load().
func Load(configFile string) (*Config, error) {
	loader, err := NewConfigLoader(configFile)
	if err != nil {
		return nil, err
	}
	return loader.Load()
}

func (loader *ConfigLoader) Load() (*Config, error) {
	v := loader.viper

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("ai.provider", ProviderGemini)
	v.SetDefault("ai.model", "")
	v.SetDefault("ai.temperature", 0.1)
	v.SetDefault("ai.max_output_tokens", 50)
	v.SetDefault("ai.retry_attempts", 3)
	v.SetDefault("ai.base_url", "")
	v.SetDefault("history.backend", HistoryBackendFile)
	v.SetDefault("history.file", filepath.Join(".aicalc", "history.yml"))
	// Template is optional - if not specified, will use embedded fallback template
	v.SetDefault("history.export_template", "")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.database", "local")
	v.SetDefault("database.username", "user")

	// Bind credentials to environment variables only (not from config file)
	for key, env := range map[string]string{
		"ai.api_key":        "API_KEY",
		"ai.gemini_api_key": "GEMINI_API_KEY",
		"ai.openai_api_key": "OPENAI_API_KEY",
		"database.password": "DB_PASSWORD",
	} {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s environment variable: %w", env, err)
		}
	}
	if err := v.BindEnv("ai.model", "AICALC_MODEL"); err != nil {
		return nil, fmt.Errorf("failed to bind AICALC_MODEL environment variable: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("configuration file found but could not be read: %w. Please check the file format and permissions", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration format: %w", err)
	}

	if err := loader.validator.Struct(cfg); err != nil {
		var validationErrors validator.ValidationErrors
		if !errors.As(err, &validationErrors) {
			return nil, fmt.Errorf("validator.Struct() > %w", err)
		}
		var errorMsgs []string
		for _, e := range validationErrors {
			errorMsgs = append(errorMsgs, e.Translate(loader.translator))
		}
		return nil, fmt.Errorf("invalid configuration: %s", strings.Join(errorMsgs, ", "))
	}

	return &cfg, nil
}
