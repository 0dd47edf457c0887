// Package engine provides the Step() orchestrator that wires together
// parsing, resolution, execution, effects and events into a single command.
package engine

import (
	"fmt"
	"time"

	"github.com/nathoo/monovoice/engine/effects"
	"github.com/nathoo/monovoice/engine/events"
	"github.com/nathoo/monovoice/engine/ledger"
	"github.com/nathoo/monovoice/engine/parser"
	"github.com/nathoo/monovoice/types"
)

// Engine holds the board catalog and the live ledger.
type Engine struct {
	Board  *types.BoardDef
	Ledger *types.Ledger
	Events *events.Bus
	Now    func() time.Time
}

// New creates a new engine with a fresh ledger for the board.
func New(board *types.BoardDef) *Engine {
	return &Engine{
		Board:  board,
		Ledger: ledger.New(board),
		Events: events.NewBus(),
		Now:    time.Now,
	}
}

// ExecuteCommand runs one command sentence and returns its result message.
// It always returns a human-readable string.
func (e *Engine) ExecuteCommand(input string) string {
	return e.Step(input).Message
}

// Step parses and executes one command sentence.
func (e *Engine) Step(input string) types.Result {
	return e.Execute(parser.Parse(input, e.Ledger))
}

// Execute validates a parsed command against the live ledger and applies its
// effects as a group. Either every effect lands or the ledger is untouched.
func (e *Engine) Execute(cmd types.Command) types.Result {
	result := types.Result{Intent: types.IntentUnknown}
	if cmd == nil {
		result.Message = "Command not recognized"
		return result
	}
	result.Intent = cmd.Kind()

	var effs []types.Effect
	var msg string
	var ok bool

	switch c := cmd.(type) {
	case types.MoveCommand:
		effs, msg, ok = e.builtinMove(c)
	case types.PayCommand:
		effs, msg, ok = e.builtinPay(c)
	case types.CollectCommand:
		effs, msg, ok = e.builtinCollect(c)
	case types.BuyCommand:
		effs, msg, ok = e.builtinBuy(c)
	case types.UnknownCommand:
		msg = c.Reason
		if msg == "" {
			msg = "Command not recognized"
		}
	default:
		msg = fmt.Sprintf("Command not recognized: %T", cmd)
	}

	result.Message = msg
	if !ok {
		return result
	}

	// Apply to a clone and swap it in only when every effect succeeded.
	next := ledger.Clone(e.Ledger)
	evts, err := effects.Apply(next, effs)
	if err != nil {
		result.Message = fmt.Sprintf("Error processing command: %v", err)
		return result
	}
	e.Ledger = next

	result.OK = true
	result.Effects = effs
	result.Events = evts
	e.Events.Dispatch(evts)
	return result
}

// AddPlayer adds a player with the board's starting money and returns a copy
// of the new record.
func (e *Engine) AddPlayer(name, token string) (types.Player, error) {
	p, err := ledger.AddPlayer(e.Ledger, e.Board, name, token)
	if err != nil {
		return types.Player{}, err
	}
	return *p, nil
}

func (e *Engine) builtinMove(c types.MoveCommand) ([]types.Effect, string, bool) {
	p := ledger.FindPlayer(e.Ledger, c.PlayerID)
	if p == nil {
		return nil, playerNotFound(c.PlayerID), false
	}
	if c.Position < 0 || c.Position >= types.BoardSize {
		return nil, fmt.Sprintf("Invalid position: %d. Must be 0-%d.", c.Position, types.BoardSize-1), false
	}

	effs := []types.Effect{
		{Type: types.EffectSetPosition, PlayerID: p.ID, Position: c.Position},
	}
	msg := fmt.Sprintf("%s moved to position %d", p.Name, c.Position)
	if prop := ledger.PropertyAt(e.Ledger, c.Position); prop != nil {
		msg += fmt.Sprintf(" (%s)", prop.Name)
	}
	return effs, msg, true
}

// builtinPay debits the payer without a solvency check. Money paid to the bank
// leaves no transaction; money paid to a player is logged as RENT.
func (e *Engine) builtinPay(c types.PayCommand) ([]types.Effect, string, bool) {
	p := ledger.FindPlayer(e.Ledger, c.PlayerID)
	if p == nil {
		return nil, playerNotFound(c.PlayerID), false
	}
	if msg, ok := checkAmount(c.Amount); !ok {
		return nil, msg, false
	}

	effs := []types.Effect{
		{Type: types.EffectAdjustMoney, PlayerID: p.ID, Amount: -c.Amount},
	}
	if c.Counterparty == types.Bank || c.Counterparty == "" {
		return effs, fmt.Sprintf("%s paid $%d to the bank", p.Name, c.Amount), true
	}

	payee := ledger.FindPlayer(e.Ledger, c.Counterparty)
	if payee == nil {
		return nil, playerNotFound(c.Counterparty), false
	}
	effs = append(effs,
		types.Effect{Type: types.EffectAdjustMoney, PlayerID: payee.ID, Amount: c.Amount},
		e.transaction(p.ID, payee.ID, c.Amount, types.TxRent),
	)
	return effs, fmt.Sprintf("%s paid $%d to %s", p.Name, c.Amount, payee.Name), true
}

// builtinCollect mirrors builtinPay with the direction reversed.
func (e *Engine) builtinCollect(c types.CollectCommand) ([]types.Effect, string, bool) {
	p := ledger.FindPlayer(e.Ledger, c.PlayerID)
	if p == nil {
		return nil, playerNotFound(c.PlayerID), false
	}
	if msg, ok := checkAmount(c.Amount); !ok {
		return nil, msg, false
	}

	effs := []types.Effect{
		{Type: types.EffectAdjustMoney, PlayerID: p.ID, Amount: c.Amount},
	}
	if c.Counterparty == types.Bank || c.Counterparty == "" {
		return effs, fmt.Sprintf("%s collected $%d from the bank", p.Name, c.Amount), true
	}

	source := ledger.FindPlayer(e.Ledger, c.Counterparty)
	if source == nil {
		return nil, playerNotFound(c.Counterparty), false
	}
	effs = append(effs,
		types.Effect{Type: types.EffectAdjustMoney, PlayerID: source.ID, Amount: -c.Amount},
		e.transaction(source.ID, p.ID, c.Amount, types.TxRent),
	)
	return effs, fmt.Sprintf("%s collected $%d from %s", p.Name, c.Amount, source.Name), true
}

func (e *Engine) builtinBuy(c types.BuyCommand) ([]types.Effect, string, bool) {
	p := ledger.FindPlayer(e.Ledger, c.PlayerID)
	if p == nil {
		return nil, playerNotFound(c.PlayerID), false
	}
	prop := ledger.FindProperty(e.Ledger, c.PropertyID)
	if prop == nil {
		return nil, fmt.Sprintf("Property %d not found", c.PropertyID), false
	}
	if prop.Owner != "" {
		return nil, fmt.Sprintf("%s is already owned by %s", prop.Name, ledger.PartyName(e.Ledger, prop.Owner)), false
	}
	if p.Money < prop.Price {
		return nil, fmt.Sprintf("Insufficient funds: %s has $%d but %s costs $%d", p.Name, p.Money, prop.Name, prop.Price), false
	}

	effs := []types.Effect{
		{Type: types.EffectAdjustMoney, PlayerID: p.ID, Amount: -prop.Price},
		{Type: types.EffectSetOwner, PlayerID: p.ID, PropertyID: prop.ID},
		e.transaction(p.ID, types.Bank, prop.Price, types.TxPurchase),
	}
	return effs, fmt.Sprintf("%s bought %s for $%d", p.Name, prop.Name, prop.Price), true
}

// transaction plans a log entry stamped with the engine clock.
func (e *Engine) transaction(from, to string, amount int, typ types.TransactionType) types.Effect {
	now := e.Now()
	return types.Effect{
		Type: types.EffectLogTransaction,
		Transaction: types.Transaction{
			ID:        ledger.NextTransactionID(e.Ledger, now),
			From:      from,
			To:        to,
			Amount:    amount,
			Timestamp: now,
			Type:      typ,
		},
	}
}

func checkAmount(amount int) (string, bool) {
	if amount <= 0 {
		return fmt.Sprintf("Invalid amount: %d. Must be greater than 0.", amount), false
	}
	if amount > types.MaxAmount {
		return fmt.Sprintf("Invalid amount: %d. Must be at most %d.", amount, types.MaxAmount), false
	}
	return "", true
}

func playerNotFound(id string) string {
	return fmt.Sprintf("Player %q not found", id)
}
