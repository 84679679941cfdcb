package redispub

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KamdynS/designrelay/publish"
)

type evalCall struct {
	script string
	keys   []string
	args   []interface{}
}

type fakeRedis struct {
	shaErrs  []error
	evalErrs []error
	list     []string

	shaCalls  []evalCall
	evalCalls []evalCall
	closed    int
}

func (f *fakeRedis) EvalSha(ctx context.Context, sha1 string, keys []string, args ...interface{}) *redis.Cmd {
	f.shaCalls = append(f.shaCalls, evalCall{sha1, keys, args})
	return redis.NewCmdResult(int64(1), pop(&f.shaErrs))
}

func (f *fakeRedis) Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd {
	f.evalCalls = append(f.evalCalls, evalCall{script, keys, args})
	return redis.NewCmdResult(int64(1), pop(&f.evalErrs))
}

func (f *fakeRedis) LRange(ctx context.Context, key string, start, stop int64) *redis.StringSliceCmd {
	end := int(stop) + 1
	if end > len(f.list) {
		end = len(f.list)
	}
	return redis.NewStringSliceResult(f.list[start:end], nil)
}

func (f *fakeRedis) Close() error { f.closed++; return nil }

func pop(errs *[]error) error {
	if len(*errs) == 0 {
		return nil
	}
	err := (*errs)[0]
	*errs = (*errs)[1:]
	return err
}

func fastRetry(retries *[]int) publish.RetryConfig {
	return publish.RetryConfig{
		MaxRetries:   2,
		InitialDelay: time.Millisecond,
		MaxDelay:     time.Millisecond,
		OnRetry:      func(attempt int, err error) { *retries = append(*retries, attempt) },
	}
}

var errNoScript = errors.New("NOSCRIPT No matching script. Please use EVAL.")

func TestPublish_UsesCachedScript(t *testing.T) {
	fake := &fakeRedis{}
	p := newPublisher(fake, Config{Key: "feed", MaxLen: 50})
	p.publishSHA = "abc123"

	require.NoError(t, p.Publish(context.Background(), publish.Record{RunID: "run-1", Prompt: "lamp"}))

	require.Len(t, fake.shaCalls, 1)
	assert.Empty(t, fake.evalCalls)
	call := fake.shaCalls[0]
	assert.Equal(t, "abc123", call.script)
	assert.Equal(t, []string{"feed"}, call.keys)
	require.Len(t, call.args, 3)
	assert.Equal(t, int64(50), call.args[1])
	assert.Equal(t, "feed", call.args[2])

	rec, err := publish.Decode([]byte(call.args[0].(string)))
	require.NoError(t, err)
	assert.Equal(t, "run-1", rec.RunID)
}

func TestPublish_FallsBackToEvalOnNoScript(t *testing.T) {
	fake := &fakeRedis{shaErrs: []error{errNoScript}}
	var retries []int
	p := newPublisher(fake, Config{Key: "feed", Channel: "feed:new", Retry: fastRetry(&retries)})
	p.publishSHA = "stale"

	require.NoError(t, p.Publish(context.Background(), publish.Record{RunID: "run-1"}))

	assert.Len(t, fake.shaCalls, 1)
	require.Len(t, fake.evalCalls, 1)
	assert.Equal(t, luaPublish, fake.evalCalls[0].script)
	assert.Equal(t, "feed:new", fake.evalCalls[0].args[2])
	assert.Empty(t, retries)
}

func TestPublish_NoCachedScriptEvalsDirectly(t *testing.T) {
	fake := &fakeRedis{}
	p := newPublisher(fake, Config{})

	require.NoError(t, p.Publish(context.Background(), publish.Record{RunID: "run-1"}))

	assert.Empty(t, fake.shaCalls)
	require.Len(t, fake.evalCalls, 1)
	assert.Equal(t, []string{"designrelay:generations"}, fake.evalCalls[0].keys)
	assert.Equal(t, int64(1000), fake.evalCalls[0].args[1])
}

func TestPublish_RetriesTransientErrors(t *testing.T) {
	down := errors.New("dial tcp: connection refused")
	fake := &fakeRedis{shaErrs: []error{down, down}}
	var retries []int
	p := newPublisher(fake, Config{Retry: fastRetry(&retries)})
	p.publishSHA = "abc123"

	require.NoError(t, p.Publish(context.Background(), publish.Record{RunID: "run-1"}))

	assert.Len(t, fake.shaCalls, 3)
	assert.Empty(t, fake.evalCalls)
	assert.Equal(t, []int{1, 2}, retries)
}

func TestPublish_GivesUpAfterRetries(t *testing.T) {
	down := errors.New("dial tcp: connection refused")
	fake := &fakeRedis{shaErrs: []error{down, down, down}}
	var retries []int
	p := newPublisher(fake, Config{Retry: fastRetry(&retries)})
	p.publishSHA = "abc123"

	err := p.Publish(context.Background(), publish.Record{RunID: "run-1"})

	require.Error(t, err)
	assert.ErrorIs(t, err, down)
	assert.Contains(t, err.Error(), "redis evalsha publish")
	assert.Len(t, fake.shaCalls, 3)
	assert.Equal(t, []int{1, 2}, retries)
}

func TestPublish_EvalError(t *testing.T) {
	failed := errors.New("ERR script failed")
	fake := &fakeRedis{shaErrs: []error{errNoScript, errNoScript}, evalErrs: []error{failed, failed}}
	p := newPublisher(fake, Config{Retry: publish.RetryConfig{MaxRetries: 1, InitialDelay: time.Millisecond}})
	p.publishSHA = "abc123"

	err := p.Publish(context.Background(), publish.Record{RunID: "run-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis eval publish")
	assert.Len(t, fake.evalCalls, 2)
}

func TestRecent_DecodesAndSkipsBadRecords(t *testing.T) {
	good, err := publish.Record{RunID: "r2"}.Encode()
	require.NoError(t, err)
	older, err := publish.Record{RunID: "r1"}.Encode()
	require.NoError(t, err)
	fake := &fakeRedis{list: []string{string(good), "not json", string(older)}}
	p := newPublisher(fake, Config{})

	recs, err := p.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "r2", recs[0].RunID)
	assert.Equal(t, "r1", recs[1].RunID)

	recs, err = p.Recent(context.Background(), 0)
	require.NoError(t, err)
	assert.Nil(t, recs)
}

func TestClose_OnlyOwnedClient(t *testing.T) {
	fake := &fakeRedis{}
	p := newPublisher(fake, Config{})
	require.NoError(t, p.Close())
	assert.Zero(t, fake.closed)

	p.ownsClient = true
	require.NoError(t, p.Close())
	assert.Equal(t, 1, fake.closed)
}
