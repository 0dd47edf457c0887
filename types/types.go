// Package types defines the shared data structures for the monovoice ledger.
// This package contains only type definitions and the marker methods that
// close the Command union. No game logic lives here.
package types

import "time"

// Bank is the counterparty sentinel used when money flows to or from no player.
const Bank = "bank"

// BoardSize is the number of squares on the board. Positions are 0..BoardSize-1.
const BoardSize = 40

// MaxAmount caps a single payment or collection.
const MaxAmount = 1_000_000_000

// Player is a participant in the game.
type Player struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Color      string   `json:"color,omitempty"`
	Token      string   `json:"token,omitempty"`
	TokenIcon  string   `json:"token_icon,omitempty"`
	Position   int      `json:"position"`
	Money      int      `json:"money"`
	Properties []string `json:"properties"` // property IDs, string form, in purchase order
}

// Property is a purchasable board square.
type Property struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Price    int    `json:"price"`
	Rent     int    `json:"rent"`
	Owner    string `json:"owner,omitempty"` // player ID, "" when unowned
	Position int    `json:"position"`
	Color    string `json:"color,omitempty"`
	Group    string `json:"group,omitempty"`
}

// TransactionType classifies a ledger transaction.
type TransactionType string

const (
	TxRent     TransactionType = "RENT"
	TxPurchase TransactionType = "PURCHASE"
	TxChance   TransactionType = "CHANCE"
	TxTax      TransactionType = "TAX"
)

// Transaction is an append-only record of money moving between parties.
type Transaction struct {
	ID        int64           `json:"id"`
	From      string          `json:"from"` // player ID or Bank
	To        string          `json:"to"`   // player ID or Bank
	Amount    int             `json:"amount"`
	Timestamp time.Time       `json:"timestamp"`
	Type      TransactionType `json:"type"`
}

// Ledger is the complete mutable game state.
type Ledger struct {
	Players      []Player
	Properties   []Property
	Transactions []Transaction
}

// TokenDef is a selectable player token from the board catalog.
type TokenDef struct {
	ID    string
	Icon  string
	Color string
}

// BoardDef holds the static board catalog.
type BoardDef struct {
	Title         string
	StartingMoney int
	Properties    []Property
	Tokens        []TokenDef
}

// Intent is the classified purpose of a command string.
type Intent string

const (
	IntentMove    Intent = "MOVE"
	IntentPay     Intent = "PAY"
	IntentCollect Intent = "COLLECT"
	IntentBuy     Intent = "BUY"
	IntentUnknown Intent = "UNKNOWN"
)

// Command is the parsed, resolved form of a command string. Exactly one of
// the variants below implements it.
type Command interface {
	Kind() Intent
}

// MoveCommand places a player on an absolute board position.
type MoveCommand struct {
	PlayerID string
	Position int
}

// PayCommand moves Amount from the player to Counterparty (a player ID or Bank).
type PayCommand struct {
	PlayerID     string
	Counterparty string
	Amount       int
}

// CollectCommand moves Amount from Counterparty (a player ID or Bank) to the player.
type CollectCommand struct {
	PlayerID     string
	Counterparty string
	Amount       int
}

// BuyCommand purchases a property from the bank.
type BuyCommand struct {
	PlayerID   string
	PropertyID int
}

// UnknownCommand is a command that could not be classified or resolved.
type UnknownCommand struct {
	Reason string
}

func (MoveCommand) Kind() Intent    { return IntentMove }
func (PayCommand) Kind() Intent     { return IntentPay }
func (CollectCommand) Kind() Intent { return IntentCollect }
func (BuyCommand) Kind() Intent     { return IntentBuy }
func (UnknownCommand) Kind() Intent { return IntentUnknown }

// EffectType names a single atomic ledger mutation.
type EffectType string

const (
	EffectAdjustMoney    EffectType = "adjust_money"
	EffectSetPosition    EffectType = "set_position"
	EffectSetOwner       EffectType = "set_owner"
	EffectLogTransaction EffectType = "log_transaction"
)

// Effect is a single atomic state mutation instruction. Only the fields
// relevant to Type are set.
type Effect struct {
	Type        EffectType
	PlayerID    string
	PropertyID  int
	Amount      int
	Position    int
	Transaction Transaction
}

// Event is emitted after effects are applied.
type Event struct {
	Type string
	Data map[string]any
}

// Result is the output of a single command.
type Result struct {
	Intent  Intent
	OK      bool
	Message string
	Effects []Effect
	Events  []Event
}
