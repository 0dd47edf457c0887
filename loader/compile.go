// Package loader loads the Lua board catalog into Go structs at startup.
// The Lua VM is discarded after loading, so no Lua runs at runtime.
package loader

import (
	"fmt"
	"sort"

	lua "github.com/yuin/gopher-lua"

	"github.com/nathoo/monovoice/types"
)

// rawProperty holds a property table before compilation.
type rawProperty struct {
	name  string
	table *lua.LTable
	order int
}

// rawToken holds a token table before compilation.
type rawToken struct {
	id    string
	table *lua.LTable
}

// groupColors supplies a colour for properties that only name their group.
var groupColors = map[string]string{
	"brown":      "#955436",
	"light_blue": "#AAE0FA",
	"pink":       "#D93A96",
	"orange":     "#F7941D",
	"red":        "#ED1B24",
	"yellow":     "#FEF200",
	"green":      "#1FB25A",
	"dark_blue":  "#0072BB",
	"railroad":   "#4A4A4A",
	"utility":    "#8C8C8C",
}

// getString returns a string field from a Lua table, or "" if missing.
func getString(tbl *lua.LTable, key string) string {
	v := tbl.RawGetString(key)
	if s, ok := v.(lua.LString); ok {
		return string(s)
	}
	return ""
}

// getNumber returns a numeric field and whether it was present.
func getNumber(tbl *lua.LTable, key string) (float64, bool) {
	v := tbl.RawGetString(key)
	if n, ok := v.(lua.LNumber); ok {
		return float64(n), true
	}
	return 0, false
}

// getInt returns an int field from a Lua table, or def if missing.
func getInt(tbl *lua.LTable, key string, def int) (int, error) {
	n, ok := getNumber(tbl, key)
	if !ok {
		if v := tbl.RawGetString(key); v != lua.LNil {
			return 0, fmt.Errorf("%s must be a number, got %s", key, v.Type())
		}
		return def, nil
	}
	if n != float64(int(n)) {
		return 0, fmt.Errorf("%s must be a whole number, got %v", key, n)
	}
	return int(n), nil
}

// compile converts collected Lua tables into a BoardDef.
func compile(coll *collector) (*types.BoardDef, error) {
	board := &types.BoardDef{}

	if coll.board != nil {
		board.Title = getString(coll.board, "title")
		money, err := getInt(coll.board, "starting_money", 0)
		if err != nil {
			return nil, fmt.Errorf("Board: %w", err)
		}
		board.StartingMoney = money
	}

	props := make([]rawProperty, len(coll.properties))
	copy(props, coll.properties)
	sort.SliceStable(props, func(i, j int) bool { return props[i].order < props[j].order })

	for _, rp := range props {
		p, err := compileProperty(rp)
		if err != nil {
			return nil, err
		}
		board.Properties = append(board.Properties, p)
	}

	for _, rt := range coll.tokens {
		board.Tokens = append(board.Tokens, types.TokenDef{
			ID:    rt.id,
			Icon:  getString(rt.table, "icon"),
			Color: getString(rt.table, "color"),
		})
	}

	return board, nil
}

func compileProperty(rp rawProperty) (types.Property, error) {
	wrap := func(err error) error {
		return fmt.Errorf("Property %q: %w", rp.name, err)
	}

	id, err := getInt(rp.table, "id", -1)
	if err != nil {
		return types.Property{}, wrap(err)
	}
	price, err := getInt(rp.table, "price", 0)
	if err != nil {
		return types.Property{}, wrap(err)
	}
	rent, err := getInt(rp.table, "rent", 0)
	if err != nil {
		return types.Property{}, wrap(err)
	}
	// The board position defaults to the property ID.
	pos, err := getInt(rp.table, "position", id)
	if err != nil {
		return types.Property{}, wrap(err)
	}

	group := getString(rp.table, "group")
	color := getString(rp.table, "color")
	if color == "" {
		color = groupColors[group]
	}

	return types.Property{
		ID:       id,
		Name:     rp.name,
		Price:    price,
		Rent:     rent,
		Position: pos,
		Color:    color,
		Group:    group,
	}, nil
}
