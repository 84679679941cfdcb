package publish

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordRoundTrip(t *testing.T) {
	rec := Record{RunID: "run-1", Prompt: "a red mug", ImageURL: "https://img/1.png", CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}
	b, err := rec.Encode()
	require.NoError(t, err)
	assert.JSONEq(t, `{"run_id":"run-1","prompt":"a red mug","image_url":"https://img/1.png","created_at":"2026-01-02T03:04:05Z"}`, string(b))

	got, err := Decode(b)
	require.NoError(t, err)
	assert.Equal(t, rec, got)
}

func TestInMemoryPublisher_PublishAndDrop(t *testing.T) {
	var dropped []string
	p := NewInMemoryPublisherWithOptions(Options{
		Capacity: 2,
		Hooks:    Hooks{OnDrop: func(rec Record) { dropped = append(dropped, rec.RunID) }},
	})
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, p.Publish(ctx, Record{RunID: id}))
	}
	recs := p.Records()
	require.Len(t, recs, 2)
	assert.Equal(t, "b", recs[0].RunID)
	assert.Equal(t, "c", recs[1].RunID)
	assert.Equal(t, []string{"a"}, dropped)
}

func TestInMemoryPublisher_WaitAndClose(t *testing.T) {
	p := NewInMemoryPublisher()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	go func() { _ = p.Publish(context.Background(), Record{RunID: "x"}) }()
	require.NoError(t, p.Wait(ctx))
	assert.Equal(t, 1, p.Len())

	require.NoError(t, p.Close())
	assert.ErrorIs(t, p.Publish(context.Background(), Record{}), ErrClosed)
}

func TestRetrier_RetriesThenSucceeds(t *testing.T) {
	var attempts []int
	r := NewRetrier(RetryConfig{
		MaxRetries:   3,
		InitialDelay: time.Millisecond,
		MaxDelay:     2 * time.Millisecond,
		OnRetry:      func(attempt int, err error) { attempts = append(attempts, attempt) },
	})
	calls := 0
	err := r.Do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []int{1, 2}, attempts)
}

func TestRetrier_GivesUp(t *testing.T) {
	r := NewRetrier(RetryConfig{MaxRetries: 2, InitialDelay: time.Millisecond})
	calls := 0
	err := r.Do(context.Background(), func() error {
		calls++
		return errors.New("down")
	})
	require.EqualError(t, err, "down")
	assert.Equal(t, 3, calls)
}

func TestRetrier_StopsOnContext(t *testing.T) {
	r := NewRetrier(RetryConfig{MaxRetries: 5, InitialDelay: time.Hour})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := r.Do(ctx, func() error { return errors.New("down") })
	assert.ErrorIs(t, err, context.Canceled)
}
