// Package effects implements centralized ledger mutation via the Apply function.
// Every effect type is one atomic operation. No validation beyond existence
// and range checks happens here; business rules are decided before effects are planned.
package effects

import (
	"fmt"
	"math"
	"strconv"

	"github.com/nathoo/monovoice/engine/ledger"
	"github.com/nathoo/monovoice/types"
)

// Event types emitted by Apply.
const (
	EventPlayerMoved       = "player_moved"
	EventMoneyChanged      = "money_changed"
	EventPropertyPurchased = "property_purchased"
	EventTransactionLogged = "transaction_logged"
)

// Apply applies a list of effects to the ledger, mutating it. It stops at the
// first effect that references a missing player or property and returns an
// error; callers that need all-or-nothing semantics apply to a clone.
func Apply(l *types.Ledger, effs []types.Effect) ([]types.Event, error) {
	var events []types.Event

	for _, eff := range effs {
		switch eff.Type {
		case types.EffectAdjustMoney:
			p := ledger.FindPlayer(l, eff.PlayerID)
			if p == nil {
				return events, fmt.Errorf("adjust money: unknown player %q", eff.PlayerID)
			}
			if overflows(p.Money, eff.Amount) {
				return events, fmt.Errorf("adjust money: %s's balance %d cannot change by %d", p.ID, p.Money, eff.Amount)
			}
			p.Money += eff.Amount
			events = append(events, types.Event{
				Type: EventMoneyChanged,
				Data: map[string]any{"player": p.ID, "delta": eff.Amount, "money": p.Money},
			})

		case types.EffectSetPosition:
			p := ledger.FindPlayer(l, eff.PlayerID)
			if p == nil {
				return events, fmt.Errorf("set position: unknown player %q", eff.PlayerID)
			}
			if eff.Position < 0 || eff.Position >= types.BoardSize {
				return events, fmt.Errorf("set position: %d off the board", eff.Position)
			}
			from := p.Position
			p.Position = eff.Position
			events = append(events, types.Event{
				Type: EventPlayerMoved,
				Data: map[string]any{"player": p.ID, "from": from, "to": p.Position},
			})

		case types.EffectSetOwner:
			prop := ledger.FindProperty(l, eff.PropertyID)
			if prop == nil {
				return events, fmt.Errorf("set owner: unknown property %d", eff.PropertyID)
			}
			p := ledger.FindPlayer(l, eff.PlayerID)
			if p == nil {
				return events, fmt.Errorf("set owner: unknown player %q", eff.PlayerID)
			}
			prop.Owner = p.ID
			id := strconv.Itoa(prop.ID)
			if !containsStr(p.Properties, id) {
				p.Properties = append(p.Properties, id)
			}
			events = append(events, types.Event{
				Type: EventPropertyPurchased,
				Data: map[string]any{"player": p.ID, "property": prop.ID},
			})

		case types.EffectLogTransaction:
			tx := eff.Transaction
			l.Transactions = append(l.Transactions, tx)
			events = append(events, types.Event{
				Type: EventTransactionLogged,
				Data: map[string]any{"id": tx.ID, "type": string(tx.Type), "amount": tx.Amount},
			})

		default:
			return events, fmt.Errorf("unknown effect type %q", eff.Type)
		}
	}

	return events, nil
}

// overflows reports whether a+b falls outside the int range.
func overflows(a, b int) bool {
	if b > 0 {
		return a > math.MaxInt-b
	}
	return a < math.MinInt-b
}

func containsStr(slice []string, s string) bool {
	for _, v := range slice {
		if v == s {
			return true
		}
	}
	return false
}
