package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nathoo/monovoice/engine/ledger"
	"github.com/nathoo/monovoice/session"
	"github.com/nathoo/monovoice/storage"
	"github.com/nathoo/monovoice/types"
)

// rawLine stores an unstyled output line with its classification,
// so we can re-wrap and re-style when the terminal is resized.
type rawLine struct {
	text     string
	kind     lineKind
	isInput  bool // true for echoed player input
	isSystem bool // true for system messages
}

// Model is the Bubble Tea model for the monovoice TUI.
type Model struct {
	ctx     context.Context
	session *session.Session

	viewport viewport.Model
	input    textinput.Model
	history  *History

	rawLines []rawLine // accumulated output lines (unstyled, for re-wrapping)

	width    int
	height   int
	ready    bool
	trace    bool
	quitting bool
	lastCmd  string
}

// gameOutputMsg carries output from the session into the Update loop.
type gameOutputMsg struct {
	input    string   // echoed player input (empty for intro)
	lines    []string // output lines
	isSystem bool     // true for meta-command output
}

// New creates a TUI model wired to the given session.
func New(ctx context.Context, sess *session.Session) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Focus()
	ti.CharLimit = 256
	ti.PromptStyle = styleInputPrompt

	return Model{
		ctx:     ctx,
		session: sess,
		input:   ti,
		history: NewHistory(100),
	}
}

// Run starts the Bubble Tea program.
func Run(ctx context.Context, sess *session.Session) error {
	m := New(ctx, sess)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// Init returns the initial command that produces the intro text.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.initialOutput())
}

func (m Model) initialOutput() tea.Cmd {
	return func() tea.Msg {
		var lines []string
		if board := m.session.Board(); board != nil && board.Title != "" {
			lines = append(lines, board.Title, "")
		}
		l := m.session.Ledger()
		if len(l.Players) == 0 {
			lines = append(lines, "No players yet. Add one with /add <name>.")
		} else {
			lines = append(lines, fmt.Sprintf("Resumed game with %d players and %d transactions.",
				len(l.Players), len(l.Transactions)))
		}
		lines = append(lines, "Type a command like \"Player Alice pays 200 to bank\", or /help.")
		return gameOutputMsg{lines: lines}
	}
}

// Update handles messages (key presses, window resize, game output).
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		vpHeight := m.height - 2 // 1 status bar + 1 input line
		if vpHeight < 1 {
			vpHeight = 1
		}

		if !m.ready {
			m.viewport = viewport.New(m.width, vpHeight)
			m.viewport.KeyMap = viewportKeyMap()
			m.ready = true
		} else {
			m.viewport.Width = m.width
			m.viewport.Height = vpHeight
		}

		m.refreshViewport()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.quitting = true
			return m, tea.Quit

		case "enter":
			return m.handleEnter()

		case "up":
			if prev, ok := m.history.Prev(); ok {
				m.input.SetValue(prev)
				m.input.CursorEnd()
			}
			return m, nil

		case "down":
			if next, ok := m.history.Next(); ok {
				m.input.SetValue(next)
				m.input.CursorEnd()
			} else {
				m.input.SetValue("")
				m.history.ResetCursor()
			}
			return m, nil

		case "pgup", "pgdown":
			var vpCmd tea.Cmd
			m.viewport, vpCmd = m.viewport.Update(msg)
			return m, vpCmd
		}

	case gameOutputMsg:
		m = m.appendOutput(msg)
	}

	var inputCmd tea.Cmd
	m.input, inputCmd = m.input.Update(msg)
	cmds = append(cmds, inputCmd)

	return m, tea.Batch(cmds...)
}

// handleEnter processes the submitted input line.
func (m Model) handleEnter() (tea.Model, tea.Cmd) {
	input := strings.TrimSpace(m.input.Value())
	m.input.SetValue("")

	if input == "" {
		return m, nil
	}

	m.history.Push(input)
	m.history.ResetCursor()

	// Meta-commands.
	if strings.HasPrefix(input, "/") {
		output, quit := m.handleMeta(input)
		m = m.appendOutput(gameOutputMsg{input: input, lines: output, isSystem: true})
		if quit {
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil
	}

	// Handle "again" / "g".
	lower := strings.ToLower(input)
	if lower == "again" || lower == "g" {
		if m.lastCmd == "" {
			m = m.appendOutput(gameOutputMsg{
				input: input, lines: []string{"Nothing to repeat."}, isSystem: true,
			})
			return m, nil
		}
		input = m.lastCmd
	} else {
		m.lastCmd = input
	}

	m = m.appendOutput(gameOutputMsg{input: input, lines: m.execute(input)})
	return m, nil
}

// execute runs one ledger command and returns its output lines.
func (m *Model) execute(input string) []string {
	result, err := m.session.Execute(m.ctx, input)
	output := []string{result.Message}
	if err != nil {
		output = append(output, fmt.Sprintf("[Warning: game state could not be saved: %v]", err))
	}
	if m.trace {
		output = append(output, formatTrace(result)...)
	}
	return output
}

// appendOutput adds lines to the output log and refreshes the viewport.
func (m Model) appendOutput(msg gameOutputMsg) Model {
	if msg.input != "" {
		m.rawLines = append(m.rawLines, rawLine{text: msg.input, isInput: true})
	}

	for _, line := range msg.lines {
		rl := rawLine{text: line, isSystem: msg.isSystem}
		if !msg.isSystem {
			rl.kind = classifyLine(line)
		}
		m.rawLines = append(m.rawLines, rl)
	}

	// Blank line separator between turns.
	m.rawLines = append(m.rawLines, rawLine{})

	m.refreshViewport()

	return m
}

// refreshViewport re-wraps and re-styles all raw lines at the current width
// and updates the viewport content.
func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}

	width := m.width
	if width < 10 {
		width = 10
	}

	var styled []string
	for _, rl := range m.rawLines {
		if rl.text == "" {
			styled = append(styled, "")
			continue
		}

		switch {
		case rl.isInput:
			styled = append(styled, styledPlayerInput(wordWrap(rl.text, width-2)))
		case rl.isSystem:
			styled = append(styled, styledSystemMsg(wordWrap(rl.text, width-2)))
		default:
			styled = append(styled, renderLineKind(wordWrap(rl.text, width), rl.kind))
		}
	}

	m.viewport.SetContent(strings.Join(styled, "\n"))
	m.viewport.GotoBottom()
}

// renderLineKind applies the style for a given lineKind.
func renderLineKind(line string, kind lineKind) string {
	switch kind {
	case kindMoney:
		return styledMoney(line)
	case kindMove:
		return styleMove.Render(line)
	case kindSystem:
		return styleSystem.Render(line)
	case kindError:
		return styleError.Render(line)
	case kindTrace:
		return styleTrace.Render(line)
	default:
		return styleResult.Render(line)
	}
}

// wordWrap wraps text to fit within the given width, breaking at word
// boundaries.
func wordWrap(text string, width int) string {
	if width <= 0 || len(text) <= width {
		return text
	}

	var result strings.Builder
	words := strings.Fields(text)
	lineLen := 0

	for i, word := range words {
		wLen := len(word)

		if i == 0 {
			result.WriteString(word)
			lineLen = wLen
			continue
		}

		if lineLen+1+wLen > width {
			result.WriteString("\n")
			result.WriteString(word)
			lineLen = wLen
		} else {
			result.WriteString(" ")
			result.WriteString(word)
			lineLen += 1 + wLen
		}
	}

	return result.String()
}

// View renders the full TUI layout: viewport, status bar and input.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Loading..."
	}

	return m.viewport.View() + "\n" + m.renderStatusBar() + "\n" + m.input.View()
}

// handleMeta dispatches meta-commands. Returns output lines and quit flag.
func (m *Model) handleMeta(input string) ([]string, bool) {
	parts := strings.Fields(input)
	cmd := strings.ToLower(parts[0])
	args := parts[1:]
	var arg string
	if len(args) > 0 {
		arg = args[0]
	}

	switch cmd {
	case "/quit", "/exit":
		return []string{"Goodbye."}, true

	case "/add":
		return m.cmdAdd(args), false

	case "/players":
		return m.cmdPlayers(), false

	case "/board":
		return m.cmdBoard(), false

	case "/tx":
		return m.cmdTransactions(), false

	case "/save":
		return m.cmdSave(arg), false

	case "/load":
		return m.cmdLoad(arg), false

	case "/reset":
		out := []string{"New game started."}
		if err := m.session.Reset(m.ctx); err != nil {
			out = append(out, fmt.Sprintf("Warning: game state could not be saved: %v", err))
		}
		return out, false

	case "/help":
		return cmdHelp(), false

	case "/state":
		return m.cmdState(), false

	case "/trace":
		m.trace = !m.trace
		if m.trace {
			return []string{"Trace output enabled."}, false
		}
		return []string{"Trace output disabled."}, false

	default:
		return []string{fmt.Sprintf("Unknown command: %s. Type /help for available commands.", cmd)}, false
	}
}

func (m *Model) cmdAdd(args []string) []string {
	var token string
	var name []string
	for _, a := range args {
		if v, ok := strings.CutPrefix(strings.ToLower(a), "token="); ok {
			token = v
			continue
		}
		name = append(name, a)
	}
	if len(name) == 0 {
		return []string{"Usage: /add <name> [token=<token>]"}
	}

	p, err := m.session.AddPlayer(m.ctx, strings.Join(name, " "), token)
	if p.ID == "" {
		return []string{fmt.Sprintf("Could not add player: %v", err)}
	}
	out := []string{fmt.Sprintf("Added player %s %s (id %s) with $%d.", p.TokenIcon, p.Name, p.ID, p.Money)}
	if err != nil {
		out = append(out, fmt.Sprintf("Warning: game state could not be saved: %v", err))
	}
	return out
}

func (m *Model) cmdPlayers() []string {
	l := m.session.Ledger()
	if len(l.Players) == 0 {
		return []string{"No players yet. Use /add <name>."}
	}
	var out []string
	for _, p := range l.Players {
		square := fmt.Sprintf("%d", p.Position)
		if prop := ledger.PropertyAt(l, p.Position); prop != nil {
			square += " " + prop.Name
		}
		out = append(out, fmt.Sprintf("%s %s %s: $%d at %s, %d properties",
			p.ID, p.TokenIcon, p.Name, p.Money, square, len(p.Properties)))
	}
	return out
}

func (m *Model) cmdBoard() []string {
	l := m.session.Ledger()
	var out []string
	for _, p := range l.Properties {
		owner := "unowned"
		if p.Owner != "" {
			owner = "owned by " + ledger.PartyName(l, p.Owner)
		}
		out = append(out, fmt.Sprintf("%2d %s ($%d, rent $%d) %s", p.Position, p.Name, p.Price, p.Rent, owner))
	}
	return out
}

func (m *Model) cmdTransactions() []string {
	l := m.session.Ledger()
	if len(l.Transactions) == 0 {
		return []string{"No transactions yet."}
	}
	var out []string
	for _, tx := range l.Transactions {
		out = append(out, fmt.Sprintf("%s %s %s -> %s $%d",
			tx.Timestamp.Local().Format("15:04:05"), tx.Type,
			ledger.PartyName(l, tx.From), ledger.PartyName(l, tx.To), tx.Amount))
	}
	return out
}

func (m *Model) cmdSave(name string) []string {
	if name == "" {
		name = "quicksave"
	}
	if err := m.session.SaveAs(m.ctx, name); err != nil {
		return []string{fmt.Sprintf("Save failed: %v", err)}
	}
	return []string{fmt.Sprintf("Game saved to %s.", name)}
}

func (m *Model) cmdLoad(name string) []string {
	if name == "" {
		name = "quicksave"
	}
	err := m.session.LoadFrom(m.ctx, name)
	if errors.Is(err, storage.ErrNotFound) {
		return []string{fmt.Sprintf("No saved game named %s.", name)}
	}
	if err != nil {
		return []string{fmt.Sprintf("Load failed: %v", err)}
	}
	l := m.session.Ledger()
	return []string{fmt.Sprintf("Game loaded from %s (%d players, %d transactions).",
		name, len(l.Players), len(l.Transactions))}
}

func cmdHelp() []string {
	return []string{
		"System:",
		"  /add <name> [token=<id>]  Add a player",
		"  /players                  List players",
		"  /board                    List properties and owners",
		"  /tx                       List transactions",
		"  /save [name]              Save game (default: quicksave)",
		"  /load [name]              Load game (default: quicksave)",
		"  /reset                    Start a new game",
		"  /state                    Debug: check ledger invariants",
		"  /trace                    Toggle debug trace output",
		"  /help                     Show this help",
		"  /quit                     Exit",
		"",
		"Commands:",
		"  Player <name> moves to position <0-39>",
		"  Move player <name> to <property>",
		"  Player <name> pays <amount> [to bank | to player <name>]",
		"  Player <name> collects <amount> [from bank | from player <name>]",
		"  Player <name> buys <property>",
		"  again (g)                 Repeat your last command",
		"",
		"Navigation: PgUp/PgDn to scroll, Up/Down for command history",
	}
}

func (m *Model) cmdState() []string {
	l := m.session.Ledger()
	owned := 0
	for _, p := range l.Properties {
		if p.Owner != "" {
			owned++
		}
	}
	out := []string{
		fmt.Sprintf("Session: %s", m.session.Key()),
		fmt.Sprintf("Players: %d", len(l.Players)),
		fmt.Sprintf("Properties: %d (%d owned)", len(l.Properties), owned),
		fmt.Sprintf("Transactions: %d", len(l.Transactions)),
	}
	if err := ledger.Validate(l); err != nil {
		return append(out, fmt.Sprintf("Invariant violated: %v", err))
	}
	return append(out, "Invariants hold.")
}

func formatTrace(result types.Result) []string {
	lines := []string{fmt.Sprintf("[trace] Intent: %s ok=%v", result.Intent, result.OK)}
	if len(result.Effects) > 0 {
		lines = append(lines, fmt.Sprintf("[trace] Effects: %d", len(result.Effects)))
		for _, e := range result.Effects {
			lines = append(lines, fmt.Sprintf("[trace]   %s player=%s", e.Type, e.PlayerID))
		}
	}
	if len(result.Events) > 0 {
		lines = append(lines, fmt.Sprintf("[trace] Events: %d", len(result.Events)))
		for _, e := range result.Events {
			lines = append(lines, fmt.Sprintf("[trace]   %s", e.Type))
		}
	}
	return lines
}

// viewportKeyMap returns a viewport keymap with Up/Down disabled
// (we use those for input history).
func viewportKeyMap() viewport.KeyMap {
	return viewport.KeyMap{
		PageDown:     key.NewBinding(key.WithKeys("pgdown")),
		PageUp:       key.NewBinding(key.WithKeys("pgup")),
		HalfPageDown: key.NewBinding(key.WithKeys("ctrl+d")),
		HalfPageUp:   key.NewBinding(key.WithKeys("ctrl+u")),
		Up:           key.NewBinding(key.WithDisabled()),
		Down:         key.NewBinding(key.WithDisabled()),
	}
}
