// Package cloudinarystore uploads generated images to Cloudinary.
package cloudinarystore

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/rs/zerolog"

	"github.com/KamdynS/designrelay/imaging"
)

// Config holds Cloudinary credentials.
type Config struct {
	CloudName string
	APIKey    string
	APISecret string
	// Folder is used when Store is called with an empty folder.
	Folder string
}

type uploadAPI interface {
	Upload(ctx context.Context, file interface{}, params uploader.UploadParams) (*uploader.UploadResult, error)
}

// Store implements imaging.Store.
type Store struct {
	up     uploadAPI
	folder string
	log    zerolog.Logger
}

var _ imaging.Store = (*Store)(nil)

// New builds a Store from credentials.
func New(cfg Config, log zerolog.Logger) (*Store, error) {
	if cfg.CloudName == "" || cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, errors.New("cloudinary: cloud name, api key and api secret are required")
	}
	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("cloudinary: %w", err)
	}
	return newStore(&cld.Upload, cfg.Folder, log), nil
}

func newStore(up uploadAPI, folder string, log zerolog.Logger) *Store {
	return &Store{up: up, folder: folder, log: log.With().Str("component", "cloudinary").Logger()}
}

// Store uploads img as a data URI and returns the secure URL.
func (s *Store) Store(ctx context.Context, img imaging.Image, folder string) (string, error) {
	if folder == "" {
		folder = s.folder
	}
	resp, err := s.up.Upload(ctx, img.DataURI(), uploader.UploadParams{Folder: folder})
	if err != nil {
		return "", fmt.Errorf("cloudinary upload: %w", err)
	}
	if resp == nil {
		return "", errors.New("cloudinary upload: empty response")
	}
	if resp.Error.Message != "" {
		return "", fmt.Errorf("cloudinary upload: %s", resp.Error.Message)
	}
	if resp.SecureURL == "" {
		return "", errors.New("cloudinary upload: response has no secure_url")
	}
	s.log.Debug().Str("public_id", resp.PublicID).Str("folder", folder).Msg("image uploaded")
	return resp.SecureURL, nil
}
