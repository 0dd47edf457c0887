package loader

import (
	"fmt"
	"strings"

	"github.com/nathoo/monovoice/types"
)

// ValidationError collects all validation errors.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed with %d error(s):\n  %s",
		len(e.Errors), strings.Join(e.Errors, "\n  "))
}

// validate checks the compiled board for consistency: unique IDs, names and
// positions, squares on the board, and sane prices.
func validate(board *types.BoardDef) error {
	ve := &ValidationError{}

	if len(board.Properties) == 0 {
		ve.Errors = append(ve.Errors, "board defines no properties")
	}
	if board.StartingMoney < 0 {
		ve.Errors = append(ve.Errors, fmt.Sprintf("Board.starting_money must not be negative, got %d", board.StartingMoney))
	}

	ids := map[int]string{}
	names := map[string]bool{}
	positions := map[int]string{}
	for _, p := range board.Properties {
		if strings.TrimSpace(p.Name) == "" {
			ve.Errors = append(ve.Errors, "property with empty name")
			continue
		}
		if p.ID < 0 {
			ve.Errors = append(ve.Errors, fmt.Sprintf("property %q has no id", p.Name))
		} else if other, ok := ids[p.ID]; ok {
			ve.Errors = append(ve.Errors, fmt.Sprintf("property %q reuses id %d of %q", p.Name, p.ID, other))
		} else {
			ids[p.ID] = p.Name
		}

		key := strings.ToLower(p.Name)
		if names[key] {
			ve.Errors = append(ve.Errors, fmt.Sprintf("duplicate property name %q", p.Name))
		}
		names[key] = true

		if p.Position < 0 || p.Position >= types.BoardSize {
			ve.Errors = append(ve.Errors, fmt.Sprintf("property %q position %d is off the board", p.Name, p.Position))
		} else if other, ok := positions[p.Position]; ok {
			ve.Errors = append(ve.Errors, fmt.Sprintf("property %q shares position %d with %q", p.Name, p.Position, other))
		} else {
			positions[p.Position] = p.Name
		}

		if p.Price <= 0 {
			ve.Errors = append(ve.Errors, fmt.Sprintf("property %q must have a positive price", p.Name))
		}
		if p.Rent < 0 {
			ve.Errors = append(ve.Errors, fmt.Sprintf("property %q has negative rent", p.Name))
		}
	}

	tokens := map[string]bool{}
	for _, t := range board.Tokens {
		key := strings.ToLower(t.ID)
		if tokens[key] {
			ve.Errors = append(ve.Errors, fmt.Sprintf("duplicate token %q", t.ID))
		}
		tokens[key] = true
	}

	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}
