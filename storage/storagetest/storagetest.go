// Package storagetest holds behaviour checks shared by every snapshot store.
package storagetest

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/nathoo/monovoice/storage"
)

// Run exercises a store that starts out empty.
func Run(t *testing.T, s storage.Store) {
	t.Helper()
	ctx := context.Background()

	if _, err := s.Load(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Load(missing) error = %v, want ErrNotFound", err)
	}

	first := []byte(`{"version":"1","players":[]}`)
	if err := s.Save(ctx, "game", first); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := s.Load(ctx, "game")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !bytes.Equal(got, first) {
		t.Errorf("Load = %s, want %s", got, first)
	}

	second := []byte(`{"version":"1","players":[{"id":"1"}]}`)
	if err := s.Save(ctx, "game", second); err != nil {
		t.Fatalf("Save overwrite: %v", err)
	}
	got, err = s.Load(ctx, "game")
	if err != nil {
		t.Fatalf("Load after overwrite: %v", err)
	}
	if !bytes.Equal(got, second) {
		t.Errorf("Load = %s, want %s", got, second)
	}

	if _, err := s.Load(ctx, "other"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("keys leak: Load(other) error = %v", err)
	}

	if err := s.Save(ctx, "  ", first); err == nil {
		t.Error("Save with blank key should fail")
	}
	if _, err := s.Load(ctx, ""); err == nil || errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Load with blank key error = %v, want validation error", err)
	}
}
