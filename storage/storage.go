// Package storage defines the snapshot store used to persist the ledger
// between runs. Backends live in subpackages; each stores opaque snapshot
// bytes produced by engine/save under a string key.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// DefaultKey is the snapshot key used when none is configured.
const DefaultKey = "monopolyGameState"

// ErrNotFound is returned by Load when no snapshot exists for the key.
var ErrNotFound = errors.New("snapshot not found")

// Store persists ledger snapshots.
type Store interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
	Close() error
}

// CheckKey trims a snapshot key and rejects empty ones.
func CheckKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", fmt.Errorf("snapshot key is required")
	}
	return key, nil
}
