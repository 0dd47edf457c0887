package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/nathoo/monovoice/storage/storagetest"
)

// Set MONOVOICE_TEST_PG_ADDR (and optionally _USER, _PASSWORD, _DATABASE) to
// run against a live server.
func TestStore(t *testing.T) {
	addr := os.Getenv("MONOVOICE_TEST_PG_ADDR")
	if addr == "" {
		t.Skip("MONOVOICE_TEST_PG_ADDR not set")
	}
	ctx := context.Background()
	s, err := Open(ctx, Options{
		Addr:     addr,
		User:     os.Getenv("MONOVOICE_TEST_PG_USER"),
		Password: os.Getenv("MONOVOICE_TEST_PG_PASSWORD"),
		Database: os.Getenv("MONOVOICE_TEST_PG_DATABASE"),
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	if _, err := s.db.ExecContext(ctx, `DELETE FROM ledger_snapshots`); err != nil {
		t.Fatalf("reset table: %v", err)
	}
	storagetest.Run(t, s)
}

func TestOpen_RequiresAddr(t *testing.T) {
	if _, err := Open(context.Background(), Options{}); err == nil {
		t.Error("expected error")
	}
}
