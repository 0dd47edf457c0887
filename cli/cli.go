// Package cli provides terminal I/O, output formatting, and meta-command
// dispatch for the monovoice ledger.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rodaine/table"

	"github.com/nathoo/monovoice/engine/ledger"
	"github.com/nathoo/monovoice/session"
	"github.com/nathoo/monovoice/storage"
	"github.com/nathoo/monovoice/types"
)

// CLI handles terminal interaction with the table.
type CLI struct {
	Session   *session.Session
	In        io.Reader
	Out       io.Writer
	Trace     bool
	EchoInput bool   // echo each input line after the prompt (for script playback)
	lastCmd   string // for "again"/"g" repeat
}

// New creates a CLI wired to the given session.
func New(sess *session.Session) *CLI {
	return &CLI{
		Session: sess,
		In:      os.Stdin,
		Out:     os.Stdout,
	}
}

// Run starts the command loop: prompt, input, dispatch, output. It returns
// when input ends or the user types /quit.
func (c *CLI) Run(ctx context.Context) {
	if board := c.Session.Board(); board != nil && board.Title != "" {
		c.printLine(board.Title)
	}
	c.printSystem("Type a command like \"Player Alice pays 200 to bank\", or /help.")

	scanner := bufio.NewScanner(c.In)
	for {
		c.print("> ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		// Skip comment lines (for script files).
		if strings.HasPrefix(input, "#") {
			continue
		}
		if c.EchoInput {
			c.printLine(input)
		}

		// Meta-commands start with '/'.
		if strings.HasPrefix(input, "/") {
			if c.handleMeta(ctx, input) {
				return // /quit
			}
			continue
		}

		// "again" / "g" repeats the last command.
		lower := strings.ToLower(input)
		if lower == "again" || lower == "g" {
			if c.lastCmd == "" {
				c.printLine("Nothing to repeat.")
				continue
			}
			input = c.lastCmd
		} else {
			c.lastCmd = input
		}

		result, err := c.Session.Execute(ctx, input)
		c.printResult(result)
		if err != nil {
			c.printSystem(fmt.Sprintf("Warning: game state could not be saved: %v", err))
		}

		if c.Trace {
			c.printTrace(result)
		}
	}
}

// handleMeta dispatches meta-commands. Returns true if the loop should exit.
func (c *CLI) handleMeta(ctx context.Context, input string) bool {
	parts := strings.Fields(input)
	cmd := strings.ToLower(parts[0])
	args := parts[1:]
	var arg string
	if len(args) > 0 {
		arg = args[0]
	}

	switch cmd {
	case "/quit", "/exit":
		c.printSystem("Goodbye.")
		return true

	case "/add":
		c.cmdAdd(ctx, args)

	case "/players":
		c.cmdPlayers()

	case "/board":
		c.cmdBoard()

	case "/tx":
		c.cmdTransactions()

	case "/save":
		c.cmdSave(ctx, arg)

	case "/load":
		c.cmdLoad(ctx, arg)

	case "/reset":
		err := c.Session.Reset(ctx)
		c.printSystem("New game started.")
		if err != nil {
			c.printSystem(fmt.Sprintf("Warning: game state could not be saved: %v", err))
		}

	case "/help":
		c.cmdHelp()

	case "/state":
		c.cmdState()

	case "/trace":
		c.Trace = !c.Trace
		if c.Trace {
			c.printSystem("Trace output enabled.")
		} else {
			c.printSystem("Trace output disabled.")
		}

	default:
		c.printSystem(fmt.Sprintf("Unknown command: %s. Type /help for available commands.", cmd))
	}

	return false
}

// cmdAdd handles "/add <name...> [token=<id>]".
func (c *CLI) cmdAdd(ctx context.Context, args []string) {
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
		c.printSystem("Usage: /add <name> [token=<token>]")
		return
	}

	p, err := c.Session.AddPlayer(ctx, strings.Join(name, " "), token)
	if p.ID == "" {
		c.printSystem(fmt.Sprintf("Could not add player: %v", err))
		return
	}
	c.printSystem(fmt.Sprintf("Added player %s %s (id %s) with $%d.", p.TokenIcon, p.Name, p.ID, p.Money))
	if err != nil {
		c.printSystem(fmt.Sprintf("Warning: game state could not be saved: %v", err))
	}
}

func (c *CLI) cmdPlayers() {
	l := c.Session.Ledger()
	if len(l.Players) == 0 {
		c.printLine("No players yet. Use /add <name>.")
		return
	}
	t := table.New("ID", "Player", "Token", "Money", "Position", "Properties").WithWriter(c.Out)
	for _, p := range l.Players {
		square := strconv.Itoa(p.Position)
		if prop := ledger.PropertyAt(l, p.Position); prop != nil {
			square += " " + prop.Name
		}
		t.AddRow(p.ID, p.Name, p.TokenIcon+" "+p.Token, fmt.Sprintf("$%d", p.Money), square, len(p.Properties))
	}
	t.Print()
}

func (c *CLI) cmdBoard() {
	l := c.Session.Ledger()
	t := table.New("Pos", "Property", "Price", "Rent", "Owner").WithWriter(c.Out)
	for _, p := range l.Properties {
		owner := "-"
		if p.Owner != "" {
			owner = ledger.PartyName(l, p.Owner)
		}
		t.AddRow(p.Position, p.Name, fmt.Sprintf("$%d", p.Price), fmt.Sprintf("$%d", p.Rent), owner)
	}
	t.Print()
}

func (c *CLI) cmdTransactions() {
	l := c.Session.Ledger()
	if len(l.Transactions) == 0 {
		c.printLine("No transactions yet.")
		return
	}
	t := table.New("ID", "Type", "From", "To", "Amount", "Time").WithWriter(c.Out)
	for _, tx := range l.Transactions {
		t.AddRow(tx.ID, tx.Type, ledger.PartyName(l, tx.From), ledger.PartyName(l, tx.To),
			fmt.Sprintf("$%d", tx.Amount), tx.Timestamp.Local().Format("15:04:05"))
	}
	t.Print()
}

func (c *CLI) cmdSave(ctx context.Context, name string) {
	if name == "" {
		name = "quicksave"
	}
	if err := c.Session.SaveAs(ctx, name); err != nil {
		c.printSystem(fmt.Sprintf("Save failed: %v", err))
		return
	}
	c.printSystem(fmt.Sprintf("Game saved to %s.", name))
}

func (c *CLI) cmdLoad(ctx context.Context, name string) {
	if name == "" {
		name = "quicksave"
	}
	err := c.Session.LoadFrom(ctx, name)
	if errors.Is(err, storage.ErrNotFound) {
		c.printSystem(fmt.Sprintf("No saved game named %s.", name))
		return
	}
	if err != nil {
		c.printSystem(fmt.Sprintf("Load failed: %v", err))
		return
	}
	l := c.Session.Ledger()
	c.printSystem(fmt.Sprintf("Game loaded from %s (%d players, %d transactions).",
		name, len(l.Players), len(l.Transactions)))
}

func (c *CLI) cmdHelp() {
	help := []string{
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
	}
	for _, line := range help {
		c.printLine(line)
	}
}

func (c *CLI) cmdState() {
	l := c.Session.Ledger()
	c.printSystem(fmt.Sprintf("Session: %s", c.Session.Key()))
	c.printSystem(fmt.Sprintf("Players: %d", len(l.Players)))
	owned := 0
	for _, p := range l.Properties {
		if p.Owner != "" {
			owned++
		}
	}
	c.printSystem(fmt.Sprintf("Properties: %d (%d owned)", len(l.Properties), owned))
	c.printSystem(fmt.Sprintf("Transactions: %d", len(l.Transactions)))
	if err := ledger.Validate(l); err != nil {
		c.printSystem(fmt.Sprintf("Invariant violated: %v", err))
	} else {
		c.printSystem("Invariants hold.")
	}
}

func (c *CLI) printTrace(result types.Result) {
	c.printSystem(fmt.Sprintf("[trace] Intent: %s ok=%v", result.Intent, result.OK))
	if len(result.Effects) > 0 {
		c.printSystem(fmt.Sprintf("[trace] Effects: %d", len(result.Effects)))
		for _, e := range result.Effects {
			c.printSystem("[trace]   " + describeEffect(e))
		}
	}
	if len(result.Events) > 0 {
		c.printSystem(fmt.Sprintf("[trace] Events: %d", len(result.Events)))
		for _, e := range result.Events {
			c.printSystem(fmt.Sprintf("[trace]   %s %v", e.Type, e.Data))
		}
	}
}

func describeEffect(e types.Effect) string {
	switch e.Type {
	case types.EffectAdjustMoney:
		return fmt.Sprintf("%s player=%s amount=%+d", e.Type, e.PlayerID, e.Amount)
	case types.EffectSetPosition:
		return fmt.Sprintf("%s player=%s position=%d", e.Type, e.PlayerID, e.Position)
	case types.EffectSetOwner:
		return fmt.Sprintf("%s player=%s property=%d", e.Type, e.PlayerID, e.PropertyID)
	case types.EffectLogTransaction:
		tx := e.Transaction
		return fmt.Sprintf("%s %s %s->%s $%d", e.Type, tx.Type, tx.From, tx.To, tx.Amount)
	}
	return string(e.Type)
}

func (c *CLI) printResult(result types.Result) {
	c.printLine(result.Message)
}

func (c *CLI) printLine(text string) {
	fmt.Fprintln(c.Out, text)
}

func (c *CLI) print(text string) {
	fmt.Fprint(c.Out, text)
}

func (c *CLI) printSystem(text string) {
	fmt.Fprintf(c.Out, "[%s]\n", text)
}
