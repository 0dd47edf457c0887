package tui

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/nathoo/monovoice/engine"
	"github.com/nathoo/monovoice/session"
	"github.com/nathoo/monovoice/storage/memory"
	"github.com/nathoo/monovoice/types"
)

// testBoard returns a minimal board for TUI testing.
func testBoard() *types.BoardDef {
	return &types.BoardDef{
		Title:         "Test Board",
		StartingMoney: 1500,
		Properties: []types.Property{
			{ID: 37, Name: "Park Place", Price: 350, Rent: 35, Position: 37},
			{ID: 39, Name: "Boardwalk", Price: 400, Rent: 50, Position: 39},
		},
		Tokens: []types.TokenDef{
			{ID: "car", Icon: "🚗", Color: "#FF5722"},
			{ID: "hat", Icon: "🎩", Color: "#9C27B0"},
		},
	}
}

func newTestModel(t *testing.T) Model {
	t.Helper()
	eng := engine.New(testBoard())
	eng.Now = func() time.Time { return time.UnixMilli(1700000000000) }
	sess := session.New(eng, memory.New(), "", nil)
	return New(context.Background(), sess)
}

// withPlayers adds Alice (car) and Bob (hat) to the model's session.
func withPlayers(t *testing.T, m Model) Model {
	t.Helper()
	for _, name := range []string{"Alice", "Bob"} {
		if _, err := m.session.AddPlayer(context.Background(), name, ""); err != nil {
			t.Fatalf("AddPlayer(%s): %v", name, err)
		}
	}
	return m
}

func TestClassifyLine(t *testing.T) {
	tests := []struct {
		line string
		want lineKind
	}{
		{"[Game saved to test.]", kindSystem},
		{"[trace] Effects: 2", kindTrace},
		{"Alice moved to position 39 (Boardwalk)", kindMove},
		{"Alice paid $50 to Bob", kindMoney},
		{"Alice collected $200 from the bank", kindMoney},
		{"Alice bought Boardwalk for $400", kindMoney},
		{`Player "Zed" not found`, kindError},
		{`Property "Nowhere" not found`, kindError},
		{"Insufficient funds: Alice has $100 but Boardwalk costs $400", kindError},
		{"Invalid position: 40. Must be 0-39.", kindError},
		{"Command not recognized: hello", kindError},
		{"Boardwalk is already owned by Bob", kindError},
		{"No players yet. Add one with /add <name>.", kindResult},
		{"", kindResult},
	}
	for _, tt := range tests {
		got := classifyLine(tt.line)
		if got != tt.want {
			t.Errorf("classifyLine(%q) = %v, want %v", tt.line, got, tt.want)
		}
	}
}

func TestStyledMoney_KeepsText(t *testing.T) {
	line := "Alice paid $50 to Bob"
	got := styledMoney(line)
	for _, part := range []string{"Alice paid ", "$50", " to Bob"} {
		if !strings.Contains(got, part) {
			t.Errorf("styledMoney(%q) = %q, missing %q", line, got, part)
		}
	}
}

func TestWordWrap(t *testing.T) {
	tests := []struct {
		text  string
		width int
		want  string
	}{
		{"short", 80, "short"},
		{"hello world", 5, "hello\nworld"},
		{"Insufficient funds: Alice has $100 but Boardwalk costs $400", 30,
			"Insufficient funds: Alice has\n$100 but Boardwalk costs $400"},
		{"", 80, ""},
		{"one", 80, "one"},
		{"a b c d e", 3, "a b\nc d\ne"},
	}
	for _, tt := range tests {
		got := wordWrap(tt.text, tt.width)
		if got != tt.want {
			t.Errorf("wordWrap(%q, %d) =\n  %q\nwant:\n  %q", tt.text, tt.width, got, tt.want)
		}
	}
}

func TestHistory_PushAndPrev(t *testing.T) {
	h := NewHistory(5)
	h.Push("/players")
	h.Push("Alice buys Boardwalk")
	h.Push("Bob pays 50")

	prev, ok := h.Prev()
	if !ok || prev != "Bob pays 50" {
		t.Errorf("expected 'Bob pays 50', got %q (ok=%v)", prev, ok)
	}

	prev, ok = h.Prev()
	if !ok || prev != "Alice buys Boardwalk" {
		t.Errorf("expected 'Alice buys Boardwalk', got %q (ok=%v)", prev, ok)
	}

	prev, ok = h.Prev()
	if !ok || prev != "/players" {
		t.Errorf("expected '/players', got %q (ok=%v)", prev, ok)
	}

	// At oldest, stays there.
	prev, ok = h.Prev()
	if !ok || prev != "/players" {
		t.Errorf("expected '/players' at boundary, got %q (ok=%v)", prev, ok)
	}
}

func TestHistory_Next(t *testing.T) {
	h := NewHistory(5)
	h.Push("/players")
	h.Push("Alice buys Boardwalk")

	h.Prev() // "Alice buys Boardwalk"
	h.Prev() // "/players"

	next, ok := h.Next()
	if !ok || next != "Alice buys Boardwalk" {
		t.Errorf("expected 'Alice buys Boardwalk', got %q (ok=%v)", next, ok)
	}

	_, ok = h.Next()
	if ok {
		t.Error("expected false when past newest entry")
	}
}

func TestHistory_Empty(t *testing.T) {
	h := NewHistory(5)
	_, ok := h.Prev()
	if ok {
		t.Error("expected false on empty history")
	}
	_, ok = h.Next()
	if ok {
		t.Error("expected false on empty history")
	}
}

func TestHistory_MaxSize(t *testing.T) {
	h := NewHistory(2)
	h.Push("a")
	h.Push("b")
	h.Push("c") // "a" evicted

	prev, _ := h.Prev()
	if prev != "c" {
		t.Errorf("expected 'c', got %q", prev)
	}
	prev, _ = h.Prev()
	if prev != "b" {
		t.Errorf("expected 'b', got %q", prev)
	}
	// "a" is gone.
	prev, _ = h.Prev()
	if prev != "b" {
		t.Errorf("expected 'b' at boundary, got %q", prev)
	}
}

func TestHistory_NoDuplicates(t *testing.T) {
	h := NewHistory(5)
	h.Push("/players")
	h.Push("/players") // skipped
	h.Push("/players") // skipped

	if len(h.entries) != 1 {
		t.Errorf("expected 1 entry, got %d", len(h.entries))
	}
}

func TestHistory_SkipsRepeatWordsAndCaseDuplicates(t *testing.T) {
	h := NewHistory(5)
	h.Push("Player Alice pays 50 to bank")
	h.Push("again")
	h.Push("G")
	h.Push("player alice   PAYS 50 to bank") // same sentence, different case
	h.Push("   ")

	if len(h.entries) != 1 {
		t.Fatalf("expected 1 entry, got %d: %q", len(h.entries), h.entries)
	}
	prev, ok := h.Prev()
	if !ok || prev != "Player Alice pays 50 to bank" {
		t.Errorf("expected the pay sentence, got %q (ok=%v)", prev, ok)
	}
}

func TestHandleEnter_UpRecallsRepeatedSentence(t *testing.T) {
	m := withPlayers(t, newTestModel(t))

	m.input.SetValue("Player Alice collects 100")
	next, _ := m.handleEnter()
	m = next.(Model)
	m.input.SetValue("g")
	next, _ = m.handleEnter()
	m = next.(Model)

	prev, ok := m.history.Prev()
	if !ok || prev != "Player Alice collects 100" {
		t.Errorf("history Prev = %q (ok=%v), want the collect sentence", prev, ok)
	}
}

func TestHistory_ResetCursor(t *testing.T) {
	h := NewHistory(5)
	h.Push("/players")
	h.Push("Alice buys Boardwalk")

	h.Prev() // "Alice buys Boardwalk"
	h.ResetCursor()

	// After reset, Prev starts from the end again.
	prev, ok := h.Prev()
	if !ok || prev != "Alice buys Boardwalk" {
		t.Errorf("expected 'Alice buys Boardwalk' after reset, got %q", prev)
	}
}

func TestHandleMeta_Quit(t *testing.T) {
	m := newTestModel(t)

	_, quit := m.handleMeta("/quit")
	if !quit {
		t.Error("expected quit=true for /quit")
	}

	_, quit = m.handleMeta("/exit")
	if !quit {
		t.Error("expected quit=true for /exit")
	}
}

func TestHandleMeta_Add(t *testing.T) {
	m := newTestModel(t)

	output, quit := m.handleMeta("/add Alice token=hat")
	if quit {
		t.Error("add should not quit")
	}
	if len(output) == 0 || !strings.Contains(output[0], "Added player 🎩 Alice (id 1) with $1500.") {
		t.Errorf("expected add confirmation, got %v", output)
	}

	output, _ = m.handleMeta("/add")
	if len(output) == 0 || !strings.Contains(output[0], "Usage") {
		t.Errorf("expected usage, got %v", output)
	}

	output, _ = m.handleMeta("/add Carol token=boot")
	if len(output) == 0 || !strings.Contains(output[0], "Could not add player") {
		t.Errorf("expected unknown token error, got %v", output)
	}
}

func TestHandleMeta_Listings(t *testing.T) {
	m := withPlayers(t, newTestModel(t))
	if _, err := m.session.Execute(context.Background(), "Player Alice buys Boardwalk"); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	players, _ := m.handleMeta("/players")
	joined := strings.Join(players, "\n")
	if !strings.Contains(joined, "Alice: $1100") || !strings.Contains(joined, "Bob: $1500") {
		t.Errorf("unexpected /players output:\n%s", joined)
	}

	board, _ := m.handleMeta("/board")
	joined = strings.Join(board, "\n")
	if !strings.Contains(joined, "Boardwalk ($400, rent $50) owned by Alice") {
		t.Errorf("expected Boardwalk owned by Alice:\n%s", joined)
	}
	if !strings.Contains(joined, "Park Place ($350, rent $35) unowned") {
		t.Errorf("expected Park Place unowned:\n%s", joined)
	}

	tx, _ := m.handleMeta("/tx")
	joined = strings.Join(tx, "\n")
	if !strings.Contains(joined, "PURCHASE Alice -> the bank $400") {
		t.Errorf("expected purchase transaction:\n%s", joined)
	}
}

func TestHandleMeta_EmptyListings(t *testing.T) {
	m := newTestModel(t)

	output, _ := m.handleMeta("/players")
	if len(output) != 1 || !strings.Contains(output[0], "No players yet") {
		t.Errorf("expected no players message, got %v", output)
	}
	output, _ = m.handleMeta("/tx")
	if len(output) != 1 || output[0] != "No transactions yet." {
		t.Errorf("expected no transactions message, got %v", output)
	}
}

func TestHandleMeta_SaveAndLoad(t *testing.T) {
	m := withPlayers(t, newTestModel(t))

	output, quit := m.handleMeta("/save test")
	if quit {
		t.Error("save should not quit")
	}
	if len(output) == 0 || !strings.Contains(output[0], "Game saved to test.") {
		t.Errorf("expected save confirmation, got %v", output)
	}

	if _, err := m.session.Execute(context.Background(), "Player Alice pays 500 to bank"); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	output, _ = m.handleMeta("/load test")
	if len(output) == 0 || !strings.Contains(output[0], "Game loaded from test (2 players, 0 transactions).") {
		t.Errorf("expected load confirmation, got %v", output)
	}
	if p := m.session.Ledger().Players[0]; p.Money != 1500 {
		t.Errorf("Alice money after load = %d, want 1500", p.Money)
	}
}

func TestHandleMeta_LoadNonexistent(t *testing.T) {
	m := newTestModel(t)

	output, quit := m.handleMeta("/load nonexistent")
	if quit {
		t.Error("load should not quit")
	}
	if len(output) == 0 || !strings.Contains(output[0], "No saved game named nonexistent.") {
		t.Errorf("expected missing save message, got %v", output)
	}
}

func TestHandleMeta_Reset(t *testing.T) {
	m := withPlayers(t, newTestModel(t))

	output, _ := m.handleMeta("/reset")
	if len(output) == 0 || output[0] != "New game started." {
		t.Errorf("expected reset message, got %v", output)
	}
	if n := len(m.session.Ledger().Players); n != 0 {
		t.Errorf("players after reset = %d, want 0", n)
	}
}

func TestHandleMeta_Help(t *testing.T) {
	m := newTestModel(t)

	output, quit := m.handleMeta("/help")
	if quit {
		t.Error("help should not quit")
	}

	joined := strings.Join(output, "\n")
	for _, expected := range []string{"/add", "/save", "/load", "/quit", "pays", "buys"} {
		if !strings.Contains(joined, expected) {
			t.Errorf("expected %q in help output", expected)
		}
	}
}

func TestHandleMeta_Trace(t *testing.T) {
	m := newTestModel(t)

	output, _ := m.handleMeta("/trace")
	if !m.trace {
		t.Error("expected trace to be enabled")
	}
	if len(output) == 0 || !strings.Contains(output[0], "enabled") {
		t.Errorf("expected enabled message, got %v", output)
	}

	output, _ = m.handleMeta("/trace")
	if m.trace {
		t.Error("expected trace to be disabled")
	}
	if len(output) == 0 || !strings.Contains(output[0], "disabled") {
		t.Errorf("expected disabled message, got %v", output)
	}
}

func TestHandleMeta_Unknown(t *testing.T) {
	m := newTestModel(t)

	output, quit := m.handleMeta("/bogus")
	if quit {
		t.Error("unknown command should not quit")
	}
	if len(output) == 0 || !strings.Contains(output[0], "Unknown command") {
		t.Errorf("expected unknown command message, got %v", output)
	}
}

func TestHandleMeta_State(t *testing.T) {
	m := withPlayers(t, newTestModel(t))

	output, quit := m.handleMeta("/state")
	if quit {
		t.Error("state should not quit")
	}

	joined := strings.Join(output, "\n")
	for _, expected := range []string{"Session: monopolyGameState", "Players: 2", "Properties: 2 (0 owned)", "Invariants hold."} {
		if !strings.Contains(joined, expected) {
			t.Errorf("expected %q in state output:\n%s", expected, joined)
		}
	}
}

func TestHandleEnter_ExecutesCommand(t *testing.T) {
	m := withPlayers(t, newTestModel(t))
	m.input.SetValue("Player Bob pays 50 to player Alice")

	next, _ := m.handleEnter()
	m = next.(Model)

	if m.input.Value() != "" {
		t.Errorf("input not cleared: %q", m.input.Value())
	}
	var found bool
	for _, rl := range m.rawLines {
		if rl.text == "Bob paid $50 to Alice" && rl.kind == kindMoney {
			found = true
		}
	}
	if !found {
		t.Errorf("expected result line in output, got %+v", m.rawLines)
	}
	if got := m.session.Ledger().Players[0].Money; got != 1550 {
		t.Errorf("Alice money = %d, want 1550", got)
	}
}

func TestHandleEnter_Again(t *testing.T) {
	m := withPlayers(t, newTestModel(t))

	m.input.SetValue("g")
	next, _ := m.handleEnter()
	m = next.(Model)
	if last := m.rawLines[len(m.rawLines)-2]; last.text != "Nothing to repeat." {
		t.Errorf("expected nothing to repeat, got %q", last.text)
	}

	m.input.SetValue("Player Alice collects 100")
	next, _ = m.handleEnter()
	m = next.(Model)
	m.input.SetValue("again")
	next, _ = m.handleEnter()
	m = next.(Model)

	if got := m.session.Ledger().Players[0].Money; got != 1700 {
		t.Errorf("Alice money = %d, want 1700", got)
	}
}

func TestHandleEnter_Trace(t *testing.T) {
	m := withPlayers(t, newTestModel(t))
	m.trace = true
	m.input.SetValue("Player Alice buys Boardwalk")

	next, _ := m.handleEnter()
	m = next.(Model)

	var traces int
	for _, rl := range m.rawLines {
		if rl.kind == kindTrace {
			traces++
		}
	}
	if traces == 0 {
		t.Error("expected trace lines in output")
	}
}

func TestRenderStatusBar(t *testing.T) {
	m := withPlayers(t, newTestModel(t))
	m.width = 120

	bar := m.renderStatusBar()
	for _, expected := range []string{"🚗 Alice $1500 @0", "🎩 Bob $1500 @0", "Tx:0"} {
		if !strings.Contains(bar, expected) {
			t.Errorf("status bar missing %q: %q", expected, bar)
		}
	}

	m.width = 20
	bar = m.renderStatusBar()
	if !strings.Contains(bar, "Players: 2") {
		t.Errorf("narrow status bar should show player count: %q", bar)
	}
}

func TestRenderStatusBar_NoPlayers(t *testing.T) {
	m := newTestModel(t)
	m.width = 60
	if bar := m.renderStatusBar(); !strings.Contains(bar, "No players") {
		t.Errorf("expected no players in status bar: %q", bar)
	}
}
