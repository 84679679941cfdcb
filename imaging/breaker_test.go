package imaging

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBreakerGeneratorPassesThrough(t *testing.T) {
	inner := GeneratorFunc(func(ctx context.Context, prompt, size string) (Image, error) {
		return Image{B64: "aGk=", MIME: "image/png"}, nil
	})
	g := NewBreakerGenerator(inner, BreakerConfig{}, zerolog.Nop())

	img, err := g.Generate(context.Background(), "a cat", "1024x1024")
	require.NoError(t, err)
	assert.Equal(t, "aGk=", img.B64)
	assert.Equal(t, gobreaker.StateClosed, g.State())
}

func TestBreakerGeneratorOpensAfterFailures(t *testing.T) {
	calls := 0
	inner := GeneratorFunc(func(ctx context.Context, prompt, size string) (Image, error) {
		calls++
		return Image{}, errors.New("provider error")
	})
	g := NewBreakerGenerator(inner, BreakerConfig{MaxFailures: 2, Timeout: time.Minute}, zerolog.Nop())

	for i := 0; i < 2; i++ {
		_, err := g.Generate(context.Background(), "p", "1024x1024")
		require.Error(t, err)
	}
	assert.Equal(t, gobreaker.StateOpen, g.State())

	_, err := g.Generate(context.Background(), "p", "1024x1024")
	require.Error(t, err)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Contains(t, err.Error(), "circuit open")
	assert.Equal(t, 2, calls, "open circuit must not reach the provider")
}

func TestImageHelpers(t *testing.T) {
	img := Image{B64: "aGVsbG8="}
	assert.Equal(t, "image/png", img.ContentType())
	assert.Equal(t, "data:image/png;base64,aGVsbG8=", img.DataURI())

	b, err := img.Bytes()
	require.NoError(t, err)
	assert.Equal(t, "hello", string(b))

	_, err = Image{B64: "!!"}.Bytes()
	assert.Error(t, err)
}
