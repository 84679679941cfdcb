// Package publish hands finished image generations to downstream consumers
// such as a fulfilment worker.
package publish

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrClosed is returned by Publish after Close.
var ErrClosed = errors.New("publisher closed")

// Record describes one finished image generation.
type Record struct {
	RunID     string    `json:"run_id"`
	Prompt    string    `json:"prompt"`
	ImageURL  string    `json:"image_url"`
	CreatedAt time.Time `json:"created_at"`
}

// Encode renders r as the JSON payload used by every backend.
func (r Record) Encode() ([]byte, error) { return json.Marshal(r) }

// Decode parses a payload produced by Encode.
func Decode(b []byte) (Record, error) {
	var r Record
	err := json.Unmarshal(b, &r)
	return r, err
}

// Publisher delivers records to a feed.
type Publisher interface {
	// Publish sends one record. Implementations must be safe for concurrent use.
	Publish(ctx context.Context, rec Record) error
	// Close releases resources.
	Close() error
}
