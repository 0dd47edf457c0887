// Package ledger manages the game ledger: lookups, player creation, cloning
// and invariant checks. Mutations driven by commands go through effects.Apply.
package ledger

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/nathoo/monovoice/types"
)

// DefaultStartingMoney is used when the board catalog does not set one.
const DefaultStartingMoney = 1500

// New creates a fresh ledger with the board's properties and no players.
func New(board *types.BoardDef) *types.Ledger {
	l := &types.Ledger{
		Players:      []types.Player{},
		Properties:   []types.Property{},
		Transactions: []types.Transaction{},
	}
	if board != nil {
		InitializeProperties(l, board.Properties)
	}
	return l
}

// InitializeProperties replaces the property collection in bulk.
func InitializeProperties(l *types.Ledger, props []types.Property) {
	l.Properties = make([]types.Property, len(props))
	copy(l.Properties, props)
}

// FindPlayer returns the player with the given ID, or nil.
func FindPlayer(l *types.Ledger, id string) *types.Player {
	for i := range l.Players {
		if l.Players[i].ID == id {
			return &l.Players[i]
		}
	}
	return nil
}

// FindProperty returns the property with the given ID, or nil.
func FindProperty(l *types.Ledger, id int) *types.Property {
	for i := range l.Properties {
		if l.Properties[i].ID == id {
			return &l.Properties[i]
		}
	}
	return nil
}

// PropertyAt returns the property on the given board position, or nil.
func PropertyAt(l *types.Ledger, position int) *types.Property {
	for i := range l.Properties {
		if l.Properties[i].Position == position {
			return &l.Properties[i]
		}
	}
	return nil
}

// PartyName returns a display name for a transaction party.
func PartyName(l *types.Ledger, id string) string {
	if id == types.Bank {
		return "the bank"
	}
	if p := FindPlayer(l, id); p != nil {
		return p.Name
	}
	return id
}

// AddPlayer appends a new player at position 0 with the board's starting
// money. The token is looked up in the catalog; an empty token picks the next
// one in catalog order. Names are not required to be unique.
func AddPlayer(l *types.Ledger, board *types.BoardDef, name, token string) (*types.Player, error) {
	name = strings.Join(strings.Fields(name), " ")
	if name == "" {
		return nil, fmt.Errorf("player name is required")
	}

	money := DefaultStartingMoney
	var tokens []types.TokenDef
	if board != nil {
		if board.StartingMoney > 0 {
			money = board.StartingMoney
		}
		tokens = board.Tokens
	}

	p := types.Player{
		ID:         nextPlayerID(l),
		Name:       name,
		Money:      money,
		Properties: []string{},
	}

	if tok, ok := pickToken(tokens, token, len(l.Players)); ok {
		p.Token = tok.ID
		p.TokenIcon = tok.Icon
		p.Color = tok.Color
	} else if token != "" {
		return nil, fmt.Errorf("unknown token %q", token)
	}

	l.Players = append(l.Players, p)
	return &l.Players[len(l.Players)-1], nil
}

// nextPlayerID returns one past the highest numeric player ID.
func nextPlayerID(l *types.Ledger) string {
	highest := 0
	for _, p := range l.Players {
		if n, err := strconv.Atoi(p.ID); err == nil && n > highest {
			highest = n
		}
	}
	return strconv.Itoa(highest + 1)
}

func pickToken(tokens []types.TokenDef, id string, seat int) (types.TokenDef, bool) {
	if len(tokens) == 0 {
		return types.TokenDef{}, false
	}
	if id == "" {
		return tokens[seat%len(tokens)], true
	}
	for _, t := range tokens {
		if strings.EqualFold(t.ID, id) {
			return t, true
		}
	}
	return types.TokenDef{}, false
}

// NextTransactionID derives a transaction ID from the clock, bumped past the
// last logged ID so the log stays strictly increasing.
func NextTransactionID(l *types.Ledger, now time.Time) int64 {
	id := now.UnixMilli()
	if n := len(l.Transactions); n > 0 && l.Transactions[n-1].ID >= id {
		id = l.Transactions[n-1].ID + 1
	}
	return id
}

// Clone returns a deep copy of the ledger.
func Clone(l *types.Ledger) *types.Ledger {
	c := &types.Ledger{
		Players:      make([]types.Player, len(l.Players)),
		Properties:   make([]types.Property, len(l.Properties)),
		Transactions: make([]types.Transaction, len(l.Transactions)),
	}
	for i, p := range l.Players {
		p.Properties = append([]string{}, p.Properties...)
		c.Players[i] = p
	}
	copy(c.Properties, l.Properties)
	copy(c.Transactions, l.Transactions)
	return c
}

// Validate checks the ledger invariants: ownership back-references agree in
// both directions, positions are on the board, and transaction IDs increase.
func Validate(l *types.Ledger) error {
	for _, p := range l.Players {
		if p.Position < 0 || p.Position >= types.BoardSize {
			return fmt.Errorf("player %s position %d out of range", p.ID, p.Position)
		}
		seen := map[string]bool{}
		for _, propID := range p.Properties {
			if seen[propID] {
				return fmt.Errorf("player %s lists property %s twice", p.ID, propID)
			}
			seen[propID] = true
			id, err := strconv.Atoi(propID)
			if err != nil {
				return fmt.Errorf("player %s lists malformed property id %q", p.ID, propID)
			}
			prop := FindProperty(l, id)
			if prop == nil || prop.Owner != p.ID {
				return fmt.Errorf("player %s lists property %s it does not own", p.ID, propID)
			}
		}
	}

	for _, prop := range l.Properties {
		if prop.Owner == "" {
			continue
		}
		owner := FindPlayer(l, prop.Owner)
		if owner == nil {
			return fmt.Errorf("property %d owned by unknown player %s", prop.ID, prop.Owner)
		}
		if !contains(owner.Properties, strconv.Itoa(prop.ID)) {
			return fmt.Errorf("property %d missing from owner %s", prop.ID, prop.Owner)
		}
	}

	for i := 1; i < len(l.Transactions); i++ {
		if l.Transactions[i].ID <= l.Transactions[i-1].ID {
			return fmt.Errorf("transaction %d out of order", l.Transactions[i].ID)
		}
	}
	return nil
}

func contains(slice []string, s string) bool {
	for _, v := range slice {
		if v == s {
			return true
		}
	}
	return false
}
