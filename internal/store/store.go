// Package store keeps processed upload records so the viewer can be reopened
// by file id.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgallion1/docmind/internal/config"
)

// ErrNotFound is returned for unknown or expired records.
var ErrNotFound = errors.New("document not found")

// Record is one processed upload. Its JSON form is the upload response body.
type Record struct {
	Success     bool           `json:"success"`
	FileID      string         `json:"file_id"`
	Filename    string         `json:"filename"`
	FileURL     string         `json:"file_url"`
	FileType    string         `json:"file_type"`
	FullText    string         `json:"full_text"`
	TextPreview string         `json:"text_preview"`
	MindMap     map[string]any `json:"mindmap"`
	Pages       int            `json:"pages,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

// Store persists records for a bounded time.
type Store interface {
	Put(ctx context.Context, rec *Record) error
	Get(ctx context.Context, id string) (*Record, error)
	Delete(ctx context.Context, id string) error
	Close() error
}

// Open builds the store selected by cfg.
func Open(cfg config.Config) (Store, error) {
	switch cfg.StoreBackend {
	case config.StoreRedis:
		return NewRedisStore(cfg.RedisURL, cfg.DocumentTTL)
	case config.StoreMemory, "":
		return NewMemoryStore(cfg.DocumentTTL), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}
