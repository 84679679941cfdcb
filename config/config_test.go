package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setValid(t *testing.T) {
	t.Helper()
	t.Setenv("SOLARAI_API_KEY", "solar")
	t.Setenv("OPENAI_API_KEY", "oa")
	t.Setenv("CLOUDINARY_CLOUD_NAME", "cloud")
	t.Setenv("CLOUDINARY_API_KEY", "key")
	t.Setenv("CLOUDINARY_API_SECRET", "secret")
}

func TestParse_Defaults(t *testing.T) {
	setValid(t)
	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Port)
	assert.Equal(t, 5*time.Second, cfg.PublishTimeout)
	assert.Zero(t, cfg.ChatTimeout)
	assert.Equal(t, "solar-pro2", cfg.ChatModel)
	assert.Equal(t, "https://api.upstage.ai/v1", cfg.ChatBaseURL)
	assert.Equal(t, "gpt-image-1", cfg.ImageModel)
	assert.Equal(t, 180*time.Second, cfg.ImageTimeout)
	assert.Equal(t, uint32(5), cfg.BreakerMaxFailures)
	assert.Equal(t, StorageCloudinary, cfg.StorageBackend)
	assert.Equal(t, PublishNone, cfg.PublishBackend)
	assert.Equal(t, int64(1<<20), cfg.MaxBodyBytes)
	assert.False(t, cfg.IsDevelopment())
	assert.NoError(t, cfg.Validate())
}

func TestParse_Normalizes(t *testing.T) {
	setValid(t)
	t.Setenv("LLM_PROVIDER", " Anthropic ")
	t.Setenv("PUBLISH_BACKEND", "REDIS")
	t.Setenv("ENVIRONMENT", "development")
	cfg, err := Parse()
	require.NoError(t, err)
	assert.Equal(t, ProviderAnthropic, cfg.LLMProvider)
	assert.Equal(t, PublishRedis, cfg.PublishBackend)
	assert.True(t, cfg.IsDevelopment())
}

func TestParse_BadDuration(t *testing.T) {
	t.Setenv("IMAGE_TIMEOUT", "soon")
	_, err := Parse()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"unknown provider", map[string]string{"LLM_PROVIDER": "gemini"}, "LLM_PROVIDER"},
		{"anthropic key", map[string]string{"LLM_PROVIDER": "anthropic"}, "ANTHROPIC_API_KEY"},
		{"s3 bucket", map[string]string{"STORAGE_BACKEND": "s3"}, "S3_BUCKET"},
		{"unknown storage", map[string]string{"STORAGE_BACKEND": "ftp"}, "STORAGE_BACKEND"},
		{"sqs url", map[string]string{"PUBLISH_BACKEND": "sqs"}, "SQS_QUEUE_URL"},
		{"unknown publish", map[string]string{"PUBLISH_BACKEND": "kafka"}, "PUBLISH_BACKEND"},
		{"port", map[string]string{"PORT": "70000"}, "PORT"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			setValid(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			cfg, err := Parse()
			require.NoError(t, err)
			err = cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestValidate_MissingKeys(t *testing.T) {
	t.Setenv("SOLARAI_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")
	cfg, err := Parse()
	require.NoError(t, err)
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SOLARAI_API_KEY")
	assert.Contains(t, err.Error(), "OPENAI_API_KEY")
}

func TestLoadEnvFiles_KeepsExisting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("CHAT_MODEL=from-file\nIMAGE_MODEL=dall-e-3\n"), 0o600))
	t.Setenv("CHAT_MODEL", "from-env")
	t.Setenv("IMAGE_MODEL", "")
	os.Unsetenv("IMAGE_MODEL")

	loadEnvFiles(path, filepath.Join(dir, "missing.env"))
	cfg, err := Parse()
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.ChatModel)
	assert.Equal(t, "dall-e-3", cfg.ImageModel)
}
