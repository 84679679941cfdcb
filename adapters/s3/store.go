// Package s3store uploads generated images to an S3 compatible bucket.
package s3store

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/KamdynS/designrelay/imaging"
)

// Config describes the bucket and how objects are addressed publicly.
type Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	// PublicBaseURL prefixes object keys in returned URLs. When empty the
	// virtual-hosted AWS URL is used.
	PublicBaseURL string
	UsePathStyle  bool
}

type putAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Store implements imaging.Store. A zero Store with no bucket is disabled.
type Store struct {
	client  putAPI
	bucket  string
	baseURL string
	log     zerolog.Logger
	newKey  func(folder string) string
}

var _ imaging.Store = (*Store)(nil)

// New loads AWS config and builds a Store. An empty bucket yields a disabled
// store whose Store method returns imaging.ErrStoreDisabled.
func New(ctx context.Context, cfg Config, log zerolog.Logger) (*Store, error) {
	log = log.With().Str("component", "s3").Logger()
	if cfg.Bucket == "" {
		log.Warn().Msg("S3 bucket not set, storage disabled")
		return &Store{log: log}, nil
	}
	opts := []func(*awsconfig.LoadOptions) error{}
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awscfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	client := s3.NewFromConfig(awscfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})
	return newStore(client, cfg, awscfg.Region, log), nil
}

func newStore(client putAPI, cfg Config, region string, log zerolog.Logger) *Store {
	base := strings.TrimRight(cfg.PublicBaseURL, "/")
	if base == "" {
		base = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, region)
	}
	return &Store{
		client:  client,
		bucket:  cfg.Bucket,
		baseURL: base,
		log:     log,
		newKey:  func(folder string) string { return path.Join(folder, uuid.NewString()+".png") },
	}
}

// Store writes img under folder and returns its public URL.
func (s *Store) Store(ctx context.Context, img imaging.Image, folder string) (string, error) {
	if s.client == nil {
		return "", imaging.ErrStoreDisabled
	}
	body, err := img.Bytes()
	if err != nil {
		return "", err
	}
	key := s.newKey(folder)
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentType:   aws.String(img.ContentType()),
		ContentLength: aws.Int64(int64(len(body))),
	})
	if err != nil {
		return "", fmt.Errorf("s3 PutObject %s: %w", key, err)
	}
	s.log.Debug().Str("key", key).Int("bytes", len(body)).Msg("image uploaded")
	return s.baseURL + "/" + key, nil
}
