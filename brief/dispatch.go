package brief

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/KamdynS/designrelay/imaging"
	"github.com/KamdynS/designrelay/observability"
	"github.com/KamdynS/designrelay/publish"
)

// SideEffectStatus is the lifecycle state of a SideEffectRun.
type SideEffectStatus string

const (
	SideEffectPending SideEffectStatus = "pending"
	SideEffectDone    SideEffectStatus = "done"
	SideEffectError   SideEffectStatus = "error"
)

// SideEffectRun records the single image generation of a processing run.
type SideEffectRun struct {
	TriggerPrompt string
	Status        SideEffectStatus
	ResultURL     string
	RawImageData  string
	ErrorMessage  string
}

var (
	errGeneratorMissing = errors.New("image generation is not configured")
	errStoreMissing     = errors.New("image storage is not configured")
)

// dispatcher fires the image side effect at most once per run.
type dispatcher struct {
	generator imaging.Generator
	store     imaging.Store
	publisher publish.Publisher
	hooks     *observability.Hooks
	size      string
	folder    string
	runID     string
	// publishTimeout bounds the feed publish; zero means no bound.
	publishTimeout time.Duration

	run     *SideEffectRun
	pending *publish.Record
}

// Dispatch starts the side effect for res if it carries a trigger prompt and
// none has started in this run. It returns false when the consumer stopped
// accepting events.
func (d *dispatcher) Dispatch(ctx context.Context, res StructuredResult, yield func(Event) bool) bool {
	prompt := res.ImageGenPrompt
	if strings.TrimSpace(prompt) == "" || d.run != nil {
		return true
	}
	d.run = &SideEffectRun{TriggerPrompt: prompt, Status: SideEffectPending}
	if !yield(Event{Kind: KindImageStarted, ImagePrompt: prompt}) {
		return false
	}

	start := time.Now()
	url, img, err := d.execute(ctx, prompt)
	if err != nil {
		d.run.Status = SideEffectError
		d.run.ErrorMessage = err.Error()
		d.hooks.SafeLog(ctx, observability.LevelError, "image side effect failed", map[string]any{"run_id": d.runID, "error": err.Error()})
		d.hooks.SafeImage(ctx, ImageStatusError, time.Since(start))
		return yield(Event{Kind: KindImageError, ImageError: err.Error()})
	}
	d.run.Status = SideEffectDone
	d.run.ResultURL = url
	d.run.RawImageData = img.B64
	d.hooks.SafeImage(ctx, ImageStatusDone, time.Since(start))
	d.pending = &publish.Record{RunID: d.runID, Prompt: prompt, ImageURL: url, CreatedAt: time.Now().UTC()}
	return yield(Event{Kind: KindImageDone, ImageData: img.B64, ImageURL: url, ImagePrompt: prompt})
}

func (d *dispatcher) execute(ctx context.Context, prompt string) (string, imaging.Image, error) {
	if d.generator == nil {
		return "", imaging.Image{}, errGeneratorMissing
	}
	if d.store == nil {
		return "", imaging.Image{}, errStoreMissing
	}
	img, err := d.generator.Generate(ctx, prompt, d.size)
	if err != nil {
		return "", imaging.Image{}, err
	}
	if img.B64 == "" {
		return "", imaging.Image{}, imaging.ErrNoImageData
	}
	url, err := d.store.Store(ctx, img, d.folder)
	if err != nil {
		return "", imaging.Image{}, err
	}
	return url, img, nil
}

// Flush publishes the record of a finished image, if any. It runs once the
// run has emitted its last event. The image exists whether or not the client
// is still listening, so request cancellation does not apply; publishTimeout
// does.
func (d *dispatcher) Flush(ctx context.Context) {
	rec := d.pending
	if rec == nil || d.publisher == nil {
		return
	}
	d.pending = nil
	ctx = context.WithoutCancel(ctx)
	if d.publishTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.publishTimeout)
		defer cancel()
	}
	if err := d.publisher.Publish(ctx, *rec); err != nil {
		d.hooks.SafeLog(ctx, observability.LevelWarn, "publish generation record failed", map[string]any{"run_id": d.runID, "error": err.Error()})
	}
}

// Run returns the side effect of this run, or nil if none was triggered.
func (d *dispatcher) Run() *SideEffectRun { return d.run }
