package memory

import (
	"context"
	"testing"

	"github.com/nathoo/monovoice/storage/storagetest"
)

func TestStore(t *testing.T) {
	storagetest.Run(t, New())
}

func TestStore_CopiesData(t *testing.T) {
	s := New()
	ctx := context.Background()
	data := []byte("abc")
	if err := s.Save(ctx, "k", data); err != nil {
		t.Fatal(err)
	}
	data[0] = 'x'
	got, err := s.Load(ctx, "k")
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "abc" {
		t.Errorf("Load = %q, store must not alias caller data", got)
	}
}
