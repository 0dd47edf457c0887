package parser

import (
	"fmt"
	"strings"

	"github.com/nathoo/monovoice/types"
)

// Form is a structured command submission. Fields hold raw form text; they
// are validated by Parse once the form is rendered as a sentence.
type Form struct {
	Player   string `json:"player"`
	Action   string `json:"action"` // move, pay, collect or buy
	Amount   string `json:"amount,omitempty"`
	Position string `json:"position,omitempty"`
	Target   string `json:"target,omitempty"` // counterparty: "bank" or a player name/ID
	Property string `json:"property,omitempty"`
}

// FromForm renders a form as a canonical command sentence so forms and voice
// share one grammar.
func FromForm(f Form) (string, error) {
	player := strings.TrimSpace(f.Player)
	if player == "" {
		return "", fmt.Errorf("player is required")
	}

	switch strings.ToLower(strings.TrimSpace(f.Action)) {
	case "move":
		if prop := strings.TrimSpace(f.Property); prop != "" {
			return fmt.Sprintf("Move player %s to %s", player, prop), nil
		}
		pos := strings.TrimSpace(f.Position)
		if pos == "" {
			return "", fmt.Errorf("position or property is required to move")
		}
		return fmt.Sprintf("Player %s moves to position %s", player, pos), nil

	case "pay":
		amount, err := formAmount(f.Amount)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Player %s pays %s to %s", player, amount, formCounterparty(f.Target)), nil

	case "collect":
		amount, err := formAmount(f.Amount)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Player %s collects %s from %s", player, amount, formCounterparty(f.Target)), nil

	case "buy":
		prop := strings.TrimSpace(f.Property)
		if prop == "" {
			return "", fmt.Errorf("property is required to buy")
		}
		return fmt.Sprintf("Player %s buys %s", player, prop), nil

	case "":
		return "", fmt.Errorf("action is required")

	default:
		return "", fmt.Errorf("unknown action %q", f.Action)
	}
}

func formAmount(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("amount is required")
	}
	return s, nil
}

func formCounterparty(target string) string {
	target = strings.TrimSpace(target)
	if target == "" || strings.EqualFold(target, types.Bank) {
		return types.Bank
	}
	return "player " + playerPrefix.ReplaceAllString(target, "")
}
