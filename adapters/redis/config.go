package redispub

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/KamdynS/designrelay/publish"
)

// Config configures the Redis-backed Publisher.
type Config struct {
	Addr         string
	DB           int
	Password     string
	Username     string
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolSize     int
	// Key is the list holding recent records; Channel receives each record
	// as a pub/sub message. Channel defaults to Key.
	Key     string
	Channel string
	// MaxLen trims the list to the newest MaxLen records. Zero means 1000.
	MaxLen int64
	Retry  publish.RetryConfig
}

// scriptAPI is the subset of the Redis client the publisher uses after setup.
type scriptAPI interface {
	EvalSha(ctx context.Context, sha1 string, keys []string, args ...interface{}) *redis.Cmd
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
	LRange(ctx context.Context, key string, start, stop int64) *redis.StringSliceCmd
	Close() error
}

// Publisher is a Redis-backed implementation of publish.Publisher.
type Publisher struct {
	rdb     scriptAPI
	key     string
	channel string
	maxLen  int64
	retrier *publish.Retrier
	// cached SHA for the publish LUA script
	publishSHA string
	// ownsClient determines whether Close() should close the underlying client
	ownsClient bool
}

// New creates a Redis Publisher with the provided configuration.
func New(ctx context.Context, cfg Config) (*Publisher, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Username:     cfg.Username,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		PoolSize:     cfg.PoolSize,
	})
	p, err := NewFromClient(ctx, rdb, cfg)
	if err != nil {
		_ = rdb.Close()
		return nil, err
	}
	p.ownsClient = true
	return p, nil
}

// NewFromClient constructs a Publisher from a user-managed client.
// The Publisher will not Close() the client.
func NewFromClient(ctx context.Context, rdb redis.UniversalClient, cfg Config) (*Publisher, error) {
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	p := newPublisher(rdb, cfg)
	// best-effort; Publish falls back to EVAL
	if sha, err := rdb.ScriptLoad(pingCtx, luaPublish).Result(); err == nil {
		p.publishSHA = sha
	}
	return p, nil
}

func newPublisher(rdb scriptAPI, cfg Config) *Publisher {
	if cfg.Key == "" {
		cfg.Key = "designrelay:generations"
	}
	if cfg.Channel == "" {
		cfg.Channel = cfg.Key
	}
	if cfg.MaxLen <= 0 {
		cfg.MaxLen = 1000
	}
	return &Publisher{
		rdb:     rdb,
		key:     cfg.Key,
		channel: cfg.Channel,
		maxLen:  cfg.MaxLen,
		retrier: publish.NewRetrier(cfg.Retry),
	}
}

// Close closes the underlying Redis client if this Publisher created it.
func (p *Publisher) Close() error {
	if p.ownsClient {
		return p.rdb.Close()
	}
	return nil
}
