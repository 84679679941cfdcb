// Package redispub publishes generation records to a Redis list and channel.
package redispub

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/KamdynS/designrelay/publish"
)

var _ publish.Publisher = (*Publisher)(nil)

// Publish appends rec to the feed, retrying transient failures.
func (p *Publisher) Publish(ctx context.Context, rec publish.Record) error {
	b, err := rec.Encode()
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	return p.retrier.Do(ctx, func() error {
		return p.eval(ctx, string(b))
	})
}

func (p *Publisher) eval(ctx context.Context, payload string) error {
	keys := []string{p.key}
	args := []interface{}{payload, p.maxLen, p.channel}
	if p.publishSHA != "" {
		err := p.rdb.EvalSha(ctx, p.publishSHA, keys, args...).Err()
		if err == nil {
			return nil
		}
		if !isNoScript(err) {
			return fmt.Errorf("redis evalsha publish: %w", err)
		}
	}
	if err := p.rdb.Eval(ctx, luaPublish, keys, args...).Err(); err != nil {
		return fmt.Errorf("redis eval publish: %w", err)
	}
	return nil
}

// Recent returns up to n records, newest first.
func (p *Publisher) Recent(ctx context.Context, n int64) ([]publish.Record, error) {
	if n <= 0 {
		return nil, nil
	}
	vals, err := p.rdb.LRange(ctx, p.key, 0, n-1).Result()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("redis lrange: %w", err)
	}
	out := make([]publish.Record, 0, len(vals))
	for _, v := range vals {
		rec, err := publish.Decode([]byte(v))
		if err != nil {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func isNoScript(err error) bool {
	return err != nil && strings.HasPrefix(err.Error(), "NOSCRIPT")
}
