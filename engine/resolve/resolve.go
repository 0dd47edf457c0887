// Package resolve maps free-text player and property references to ledger
// entities.
package resolve

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"

	"github.com/nathoo/monovoice/types"
)

// NotFoundError indicates no entity matched a reference. Resolution itself
// reports not-found as a boolean; the parser wraps it in this type to build
// its diagnostic.
type NotFoundError struct {
	Kind string // "Player" or "Property"
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.Name)
}

// Player resolves a name or ID. An exact case-insensitive name match wins;
// a purely numeric reference falls back to matching the player ID. When
// several players share a name the first in ledger order is returned.
func Player(ref string, players []types.Player) (*types.Player, bool) {
	ref = normalize(ref)
	if ref == "" {
		return nil, false
	}
	key := fold(ref)
	for i := range players {
		if fold(players[i].Name) == key {
			return &players[i], true
		}
	}
	if isNumeric(ref) {
		for i := range players {
			if players[i].ID == ref {
				return &players[i], true
			}
		}
	}
	return nil, false
}

// Property resolves a property by exact case-insensitive full name.
func Property(name string, properties []types.Property) (*types.Property, bool) {
	name = normalize(name)
	if name == "" {
		return nil, false
	}
	key := fold(name)
	for i := range properties {
		if fold(properties[i].Name) == key {
			return &properties[i], true
		}
	}
	return nil, false
}

// normalize trims and collapses inner whitespace so "Park  Place" matches.
func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// fold applies Unicode case folding. Casers are stateful, so each call gets
// its own.
func fold(s string) string {
	return cases.Fold().String(normalize(s))
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
