package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/nathoo/monovoice/engine"
	"github.com/nathoo/monovoice/engine/parser"
	"github.com/nathoo/monovoice/engine/save"
	"github.com/nathoo/monovoice/storage"
	"github.com/nathoo/monovoice/storage/memory"
	"github.com/nathoo/monovoice/types"
)

func testBoard() *types.BoardDef {
	return &types.BoardDef{
		Title:         "Test Board",
		StartingMoney: 1500,
		Properties: []types.Property{
			{ID: 37, Name: "Park Place", Price: 350, Rent: 35, Position: 37},
			{ID: 39, Name: "Boardwalk", Price: 400, Rent: 50, Position: 39},
		},
		Tokens: []types.TokenDef{{ID: "car", Icon: "🚗", Color: "#FF5722"}},
	}
}

func newEngine() *engine.Engine {
	e := engine.New(testBoard())
	e.Now = func() time.Time { return time.UnixMilli(1700000000000) }
	return e
}

// failingStore refuses every save.
type failingStore struct{ storage.Store }

func (failingStore) Save(context.Context, string, []byte) error {
	return errors.New("disk full")
}

func TestExecute_AutosavesMutations(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	s := New(newEngine(), store, "", nil)
	if s.Key() != storage.DefaultKey {
		t.Errorf("Key = %q, want default", s.Key())
	}

	if _, err := s.AddPlayer(ctx, "Alice", ""); err != nil {
		t.Fatalf("AddPlayer: %v", err)
	}
	r, err := s.Execute(ctx, "Alice buys Boardwalk")
	if err != nil || !r.OK {
		t.Fatalf("Execute = %+v, %v", r, err)
	}

	data, err := store.Load(ctx, storage.DefaultKey)
	if err != nil {
		t.Fatalf("autosave missing: %v", err)
	}
	sd, err := save.Load(data)
	if err != nil {
		t.Fatal(err)
	}
	if sd.Board != "Test Board" || len(sd.Players) != 1 || sd.Players[0].Money != 1100 {
		t.Errorf("snapshot = %+v", sd)
	}
}

func TestExecute_FailedCommandDoesNotSave(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	s := New(newEngine(), store, "k", nil)

	r, err := s.Execute(ctx, "Alice buys Boardwalk")
	if err != nil {
		t.Fatal(err)
	}
	if r.OK {
		t.Fatal("command without players should fail")
	}
	if _, err := store.Load(ctx, "k"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("failed command was saved: %v", err)
	}
}

func TestExecute_SaveFailureKeepsResult(t *testing.T) {
	ctx := context.Background()
	logger, hook := test.NewNullLogger()
	s := New(newEngine(), failingStore{memory.New()}, "k", logger)

	if _, err := s.AddPlayer(ctx, "Alice", ""); err == nil {
		t.Error("AddPlayer should report the failed save")
	}
	r, err := s.Execute(ctx, "Alice pays 100")
	if err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Errorf("err = %v, want save failure", err)
	}
	if !r.OK || r.Message != "Alice paid $100 to the bank" {
		t.Errorf("result = %+v", r)
	}
	if got := s.Ledger().Players[0].Money; got != 1400 {
		t.Errorf("Money = %d, in-memory result should stand", got)
	}

	var logged bool
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.ErrorLevel && e.Message == "autosave failed" {
			logged = true
		}
	}
	if !logged {
		t.Error("save failure was not logged")
	}
}

func TestOpen_RestoresAutosave(t *testing.T) {
	ctx := context.Background()
	store := memory.New()

	first := New(newEngine(), store, "game", nil)
	if _, err := first.AddPlayer(ctx, "Alice", ""); err != nil {
		t.Fatal(err)
	}
	if _, err := first.Execute(ctx, "Alice buys Park Place"); err != nil {
		t.Fatal(err)
	}

	second := New(newEngine(), store, "game", nil)
	if err := second.Open(ctx); err != nil {
		t.Fatalf("Open: %v", err)
	}
	l := second.Ledger()
	if len(l.Players) != 1 || l.Players[0].Money != 1150 {
		t.Errorf("players = %+v", l.Players)
	}
	if l.Properties[0].Owner != "1" {
		t.Errorf("Park Place owner = %q", l.Properties[0].Owner)
	}
	if len(l.Transactions) != 1 {
		t.Errorf("transactions = %+v", l.Transactions)
	}
}

func TestOpen_MissingSnapshotStartsFresh(t *testing.T) {
	s := New(newEngine(), memory.New(), "", nil)
	if err := s.Open(context.Background()); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if l := s.Ledger(); len(l.Players) != 0 || len(l.Properties) != 2 {
		t.Errorf("ledger = %+v", l)
	}
}

func TestOpen_RejectsBadSnapshots(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name string
		data string
	}{
		{"garbage", "not json"},
		{"inconsistent", `{"version":"1","players":[{"id":"1","name":"A","properties":["39"]}],"properties":[{"id":39,"name":"Boardwalk","position":39}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memory.New()
			if err := store.Save(ctx, "k", []byte(tt.data)); err != nil {
				t.Fatal(err)
			}
			s := New(newEngine(), store, "k", nil)
			if err := s.Open(ctx); err == nil {
				t.Error("expected error")
			}
			if len(s.Ledger().Players) != 0 {
				t.Error("bad snapshot replaced the ledger")
			}
		})
	}
}

func TestSaveAsLoadFrom(t *testing.T) {
	ctx := context.Background()
	s := New(newEngine(), memory.New(), "current", nil)
	if _, err := s.AddPlayer(ctx, "Alice", ""); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveAs(ctx, "checkpoint"); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}
	if _, err := s.Execute(ctx, "Alice pays 500"); err != nil {
		t.Fatal(err)
	}

	if err := s.LoadFrom(ctx, "checkpoint"); err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if got := s.Ledger().Players[0].Money; got != 1500 {
		t.Errorf("Money = %d, want checkpoint value", got)
	}

	if err := s.LoadFrom(ctx, "nope"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("LoadFrom(nope) = %v, want ErrNotFound", err)
	}
}

func TestSubmit(t *testing.T) {
	ctx := context.Background()
	s := New(newEngine(), memory.New(), "", nil)
	if _, err := s.AddPlayer(ctx, "Alice", ""); err != nil {
		t.Fatal(err)
	}

	r, err := s.Submit(ctx, parser.Form{Player: "Alice", Action: "move", Property: "Boardwalk"})
	if err != nil || !r.OK {
		t.Fatalf("Submit = %+v, %v", r, err)
	}
	if r.Message != "Alice moved to position 39 (Boardwalk)" {
		t.Errorf("message = %q", r.Message)
	}

	r, err = s.Submit(ctx, parser.Form{Player: "Alice"})
	if err != nil {
		t.Fatal(err)
	}
	if r.OK || r.Message != "action is required" {
		t.Errorf("result = %+v", r)
	}
}

func TestReset(t *testing.T) {
	ctx := context.Background()
	s := New(newEngine(), memory.New(), "", nil)
	if _, err := s.AddPlayer(ctx, "Alice", ""); err != nil {
		t.Fatal(err)
	}
	if err := s.Reset(ctx); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if len(s.Ledger().Players) != 0 {
		t.Error("Reset kept players")
	}
}

func TestOn_ReceivesEvents(t *testing.T) {
	ctx := context.Background()
	s := New(newEngine(), memory.New(), "", nil)
	var moved int
	s.On("player_moved", func(types.Event) { moved++ })
	if _, err := s.AddPlayer(ctx, "Alice", ""); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Execute(ctx, "Alice moves to 5"); err != nil {
		t.Fatal(err)
	}
	if moved != 1 {
		t.Errorf("moved = %d, want 1", moved)
	}
}

func TestConcurrentExecute(t *testing.T) {
	ctx := context.Background()
	s := New(newEngine(), memory.New(), "", nil)
	for _, name := range []string{"Alice", "Bob"} {
		if _, err := s.AddPlayer(ctx, name, ""); err != nil {
			t.Fatal(err)
		}
	}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Execute(ctx, "Alice pays 1 to Bob"); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	l := s.Ledger()
	if l.Players[0].Money != 1450 || l.Players[1].Money != 1550 {
		t.Errorf("balances = %d/%d, want 1450/1550", l.Players[0].Money, l.Players[1].Money)
	}
	if len(l.Transactions) != 50 {
		t.Errorf("transactions = %d, want 50", len(l.Transactions))
	}
}

func TestNew_LogsEvents(t *testing.T) {
	ctx := context.Background()
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	s := New(newEngine(), memory.New(), "k", logger)

	if _, err := s.AddPlayer(ctx, "Alice", ""); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Execute(ctx, "Alice moves to position 5"); err != nil {
		t.Fatal(err)
	}

	var found bool
	for _, e := range hook.AllEntries() {
		if e.Message == "player_moved" && e.Data["to"] == 5 && e.Data["session"] == "k" {
			found = true
		}
	}
	if !found {
		t.Error("expected a player_moved debug entry")
	}
}
