// Package config loads the relay's environment-driven configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Supported backend names.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"

	StorageCloudinary = "cloudinary"
	StorageS3         = "s3"

	PublishNone   = "none"
	PublishMemory = "memory"
	PublishRedis  = "redis"
	PublishSQS    = "sqs"
)

// Config holds the environment driven configuration for the relay.
type Config struct {
	// Service
	Port            int           `env:"PORT" envDefault:"3000"`
	Environment     string        `env:"ENVIRONMENT" envDefault:"production"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	MaxBodyBytes    int64         `env:"MAX_BODY_BYTES" envDefault:"1048576"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// Token source
	LLMProvider      string `env:"LLM_PROVIDER" envDefault:"openai"`
	ChatAPIKey       string `env:"SOLARAI_API_KEY"`
	ChatBaseURL      string `env:"CHAT_BASE_URL" envDefault:"https://api.upstage.ai/v1"`
	ChatModel        string `env:"CHAT_MODEL" envDefault:"solar-pro2"`
	ChatOrganization string `env:"CHAT_ORGANIZATION"`
	// Zero leaves the provider default.
	ChatTemperature    float64       `env:"CHAT_TEMPERATURE" envDefault:"0"`
	ChatMaxTokens      int           `env:"CHAT_MAX_TOKENS" envDefault:"0"`
	ChatTimeout        time.Duration `env:"CHAT_TIMEOUT" envDefault:"0s"`
	AnthropicAPIKey    string        `env:"ANTHROPIC_API_KEY"`
	AnthropicBaseURL   string        `env:"ANTHROPIC_BASE_URL"`
	AnthropicModel     string        `env:"ANTHROPIC_MODEL" envDefault:"claude-3-5-haiku-latest"`
	AnthropicMaxTokens int64         `env:"ANTHROPIC_MAX_TOKENS" envDefault:"2048"`

	// Image generation
	OpenAIAPIKey       string        `env:"OPENAI_API_KEY"`
	OpenAIBaseURL      string        `env:"OPENAI_BASE_URL" envDefault:"https://api.openai.com/v1"`
	ImageModel         string        `env:"IMAGE_MODEL" envDefault:"gpt-image-1"`
	ImageSize          string        `env:"IMAGE_SIZE" envDefault:"1024x1024"`
	ImageTimeout       time.Duration `env:"IMAGE_TIMEOUT" envDefault:"180s"`
	BreakerMaxFailures uint32        `env:"BREAKER_MAX_FAILURES" envDefault:"5"`
	BreakerTimeout     time.Duration `env:"BREAKER_TIMEOUT" envDefault:"30s"`

	// Image storage
	StorageBackend      string `env:"STORAGE_BACKEND" envDefault:"cloudinary"`
	CloudinaryCloudName string `env:"CLOUDINARY_CLOUD_NAME"`
	CloudinaryAPIKey    string `env:"CLOUDINARY_API_KEY"`
	CloudinaryAPISecret string `env:"CLOUDINARY_API_SECRET"`
	ImageFolder         string `env:"CLOUDINARY_FOLDER"`
	S3Bucket            string `env:"S3_BUCKET"`
	S3Region            string `env:"S3_REGION" envDefault:"us-east-1"`
	S3Endpoint          string `env:"S3_ENDPOINT"`
	S3AccessKeyID       string `env:"S3_ACCESS_KEY_ID"`
	S3SecretAccessKey   string `env:"S3_SECRET_ACCESS_KEY"`
	S3PublicBaseURL     string `env:"S3_PUBLIC_BASE_URL"`
	S3UsePathStyle      bool   `env:"S3_USE_PATH_STYLE" envDefault:"false"`

	// Generation feed
	PublishBackend string        `env:"PUBLISH_BACKEND" envDefault:"none"`
	PublishTimeout time.Duration `env:"PUBLISH_TIMEOUT" envDefault:"5s"`
	RedisAddr      string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword  string        `env:"REDIS_PASSWORD"`
	RedisDB        int           `env:"REDIS_DB" envDefault:"0"`
	RedisKey       string        `env:"REDIS_KEY" envDefault:"designrelay:generations"`
	SQSQueueURL    string        `env:"SQS_QUEUE_URL"`
	SQSRegion      string        `env:"SQS_REGION"`
	SQSFIFO        bool          `env:"SQS_FIFO" envDefault:"false"`
}

// Load reads optional .env files, then parses the environment.
func Load() (*Config, error) {
	loadEnvFiles(".env")
	return Parse()
}

// Parse parses the current environment into a Config without touching .env.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env config: %w", err)
	}
	cfg.normalize()
	return cfg, nil
}

func loadEnvFiles(paths ...string) {
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		// Load keeps variables that are already set.
		if err := godotenv.Load(path); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to load %s: %v\n", path, err)
		}
	}
}

func (c *Config) normalize() {
	c.LLMProvider = strings.ToLower(strings.TrimSpace(c.LLMProvider))
	c.StorageBackend = strings.ToLower(strings.TrimSpace(c.StorageBackend))
	c.PublishBackend = strings.ToLower(strings.TrimSpace(c.PublishBackend))
	c.S3Bucket = strings.TrimSpace(c.S3Bucket)
	c.S3Endpoint = strings.TrimSpace(c.S3Endpoint)
	c.S3PublicBaseURL = strings.TrimSpace(c.S3PublicBaseURL)
	if c.PublishBackend == "" {
		c.PublishBackend = PublishNone
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = 1 << 20
	}
}

// Validate checks backend names and the keys each backend needs.
func (c *Config) Validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT %d out of range", c.Port))
	}
	switch c.LLMProvider {
	case ProviderOpenAI:
		if c.ChatAPIKey == "" {
			errs = append(errs, errors.New("SOLARAI_API_KEY is required when LLM_PROVIDER is openai"))
		}
	case ProviderAnthropic:
		if c.AnthropicAPIKey == "" {
			errs = append(errs, errors.New("ANTHROPIC_API_KEY is required when LLM_PROVIDER is anthropic"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown LLM_PROVIDER %q", c.LLMProvider))
	}
	if c.OpenAIAPIKey == "" {
		errs = append(errs, errors.New("OPENAI_API_KEY is required for image generation"))
	}
	switch c.StorageBackend {
	case StorageCloudinary:
		if c.CloudinaryCloudName == "" || c.CloudinaryAPIKey == "" || c.CloudinaryAPISecret == "" {
			errs = append(errs, errors.New("CLOUDINARY_CLOUD_NAME, CLOUDINARY_API_KEY and CLOUDINARY_API_SECRET are required"))
		}
	case StorageS3:
		if c.S3Bucket == "" {
			errs = append(errs, errors.New("S3_BUCKET is required when STORAGE_BACKEND is s3"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORAGE_BACKEND %q", c.StorageBackend))
	}
	switch c.PublishBackend {
	case PublishNone, PublishMemory:
	case PublishRedis:
		if c.RedisAddr == "" {
			errs = append(errs, errors.New("REDIS_ADDR is required when PUBLISH_BACKEND is redis"))
		}
	case PublishSQS:
		if c.SQSQueueURL == "" {
			errs = append(errs, errors.New("SQS_QUEUE_URL is required when PUBLISH_BACKEND is sqs"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown PUBLISH_BACKEND %q", c.PublishBackend))
	}
	return errors.Join(errs...)
}

// IsDevelopment reports whether console logging should be used.
func (c *Config) IsDevelopment() bool {
	e := strings.ToLower(c.Environment)
	return e == "development" || e == "dev"
}
