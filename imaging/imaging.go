// Package imaging defines the image generation and image storage
// capabilities the brief dispatcher drives.
package imaging

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
)

var (
	// ErrNoImageData is returned when a provider answers without a payload.
	ErrNoImageData = errors.New("image provider did not return b64_json for the image")
	// ErrStoreDisabled is returned by stores that were not configured.
	ErrStoreDisabled = errors.New("image store is not configured")
)

// Image is a generated image in portable encoded form.
type Image struct {
	// B64 is the standard base64 encoding of the image bytes.
	B64 string
	// MIME defaults to image/png when empty.
	MIME string
}

// ContentType returns the image MIME type.
func (i Image) ContentType() string {
	if i.MIME == "" {
		return "image/png"
	}
	return i.MIME
}

// DataURI renders the image as a data: URI.
func (i Image) DataURI() string {
	return fmt.Sprintf("data:%s;base64,%s", i.ContentType(), i.B64)
}

// Bytes decodes the payload.
func (i Image) Bytes() ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(i.B64)
	if err != nil {
		return nil, fmt.Errorf("decode image payload: %w", err)
	}
	return b, nil
}

// Generator turns a text prompt into an image.
type Generator interface {
	Generate(ctx context.Context, prompt string, size string) (Image, error)
}

// Store uploads an image into folder and returns its public URL.
type Store interface {
	Store(ctx context.Context, img Image, folder string) (string, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, prompt string, size string) (Image, error)

func (f GeneratorFunc) Generate(ctx context.Context, prompt string, size string) (Image, error) {
	return f(ctx, prompt, size)
}
