package openai

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/KamdynS/designrelay/imaging"
	oa "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// ImageConfig configures the image generator.
type ImageConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// ImageGenerator implements imaging.Generator with the OpenAI Images API.
type ImageGenerator struct {
	images imagesAPI
	model  string
}

// imagesAPI matches the subset of the OpenAI images service we use.
type imagesAPI interface {
	Generate(ctx context.Context, body oa.ImageGenerateParams, opts ...option.RequestOption) (*oa.ImagesResponse, error)
}

var _ imaging.Generator = (*ImageGenerator)(nil)

// NewImageGenerator creates an image generator.
func NewImageGenerator(cfg ImageConfig) *ImageGenerator {
	if cfg.Model == "" {
		cfg.Model = string(oa.ImageModelGPTImage1)
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 180 * time.Second
	}
	opts := []option.RequestOption{
		option.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
		// One pair of downstream calls per run; the SDK must not retry behind our back.
		option.WithMaxRetries(0),
	}
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	c := oa.NewClient(opts...)
	return &ImageGenerator{images: &c.Images, model: cfg.Model}
}

// Generate renders prompt at size and returns the base64 payload.
func (g *ImageGenerator) Generate(ctx context.Context, prompt string, size string) (imaging.Image, error) {
	params := oa.ImageGenerateParams{
		Prompt: prompt,
		Model:  oa.ImageModel(g.model),
		N:      oa.Int(1),
	}
	if size != "" {
		params.Size = oa.ImageGenerateParamsSize(size)
	}
	if g.model == string(oa.ImageModelDallE2) || g.model == string(oa.ImageModelDallE3) {
		params.ResponseFormat = oa.ImageGenerateParamsResponseFormatB64JSON
	}
	resp, err := g.images.Generate(ctx, params)
	if err != nil {
		return imaging.Image{}, fmt.Errorf("openai images: %w", err)
	}
	if resp == nil || len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		return imaging.Image{}, imaging.ErrNoImageData
	}
	return imaging.Image{B64: resp.Data[0].B64JSON, MIME: "image/png"}, nil
}
