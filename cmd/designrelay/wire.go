package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	cloudinarystore "github.com/KamdynS/designrelay/adapters/cloudinary"
	redispub "github.com/KamdynS/designrelay/adapters/redis"
	s3store "github.com/KamdynS/designrelay/adapters/s3"
	sqspub "github.com/KamdynS/designrelay/adapters/sqs"
	"github.com/KamdynS/designrelay/config"
	"github.com/KamdynS/designrelay/imaging"
	"github.com/KamdynS/designrelay/llm"
	"github.com/KamdynS/designrelay/llm/anthropic"
	"github.com/KamdynS/designrelay/llm/openai"
	"github.com/KamdynS/designrelay/observability"
	"github.com/KamdynS/designrelay/publish"
)

func buildSource(cfg *config.Config, hooks *observability.Hooks) (llm.Client, error) {
	switch cfg.LLMProvider {
	case config.ProviderAnthropic:
		return anthropic.NewClient(anthropicConfig(cfg, hooks))
	case config.ProviderOpenAI:
		return openai.NewClient(chatConfig(cfg, hooks))
	}
	return nil, fmt.Errorf("unknown provider %q", cfg.LLMProvider)
}

func chatConfig(cfg *config.Config, hooks *observability.Hooks) openai.Config {
	return openai.Config{
		APIKey:       cfg.ChatAPIKey,
		BaseURL:      cfg.ChatBaseURL,
		Model:        cfg.ChatModel,
		Organization: cfg.ChatOrganization,
		Temperature:  cfg.ChatTemperature,
		MaxTokens:    cfg.ChatMaxTokens,
		Timeout:      cfg.ChatTimeout,
		Hooks:        hooks,
	}
}

func anthropicConfig(cfg *config.Config, hooks *observability.Hooks) anthropic.Config {
	return anthropic.Config{
		APIKey:      cfg.AnthropicAPIKey,
		BaseURL:     cfg.AnthropicBaseURL,
		Model:       cfg.AnthropicModel,
		MaxTokens:   int(cfg.AnthropicMaxTokens),
		Temperature: cfg.ChatTemperature,
		Timeout:     cfg.ChatTimeout,
		Hooks:       hooks,
	}
}

func buildGenerator(cfg *config.Config, log zerolog.Logger) imaging.Generator {
	gen := openai.NewImageGenerator(openai.ImageConfig{
		APIKey:  cfg.OpenAIAPIKey,
		BaseURL: cfg.OpenAIBaseURL,
		Model:   cfg.ImageModel,
		Timeout: cfg.ImageTimeout,
	})
	return imaging.NewBreakerGenerator(gen, imaging.BreakerConfig{
		MaxFailures: cfg.BreakerMaxFailures,
		Timeout:     cfg.BreakerTimeout,
	}, log)
}

func buildStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (imaging.Store, error) {
	switch cfg.StorageBackend {
	case config.StorageS3:
		store, err := s3store.New(ctx, s3store.Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			PublicBaseURL:   cfg.S3PublicBaseURL,
			UsePathStyle:    cfg.S3UsePathStyle,
		}, log)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.StorageCloudinary:
		store, err := cloudinarystore.New(cloudinarystore.Config{
			CloudName: cfg.CloudinaryCloudName,
			APIKey:    cfg.CloudinaryAPIKey,
			APISecret: cfg.CloudinaryAPISecret,
			Folder:    cfg.ImageFolder,
		}, log)
		if err != nil {
			return nil, err
		}
		return store, nil
	}
	return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
}

// buildPublisher returns nil when the generation feed is disabled.
func buildPublisher(ctx context.Context, cfg *config.Config, hooks *observability.Hooks) (publish.Publisher, error) {
	switch cfg.PublishBackend {
	case config.PublishNone:
		return nil, nil
	case config.PublishMemory:
		return publish.NewInMemoryPublisher(), nil
	case config.PublishRedis:
		retry := publish.DefaultRetryConfig()
		retry.OnRetry = func(attempt int, err error) {
			hooks.SafeRetry(context.Background(), "redis", attempt, err)
		}
		pub, err := redispub.New(ctx, redispub.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Key:      cfg.RedisKey,
			Retry:    retry,
		})
		if err != nil {
			return nil, err
		}
		return pub, nil
	case config.PublishSQS:
		pub, err := sqspub.New(ctx, sqspub.Config{
			QueueURL: cfg.SQSQueueURL,
			Region:   cfg.SQSRegion,
			FIFO:     cfg.SQSFIFO,
		})
		if err != nil {
			return nil, err
		}
		return pub, nil
	}
	return nil, fmt.Errorf("unknown publish backend %q", cfg.PublishBackend)
}
