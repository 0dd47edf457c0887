package loader

import (
	lua "github.com/yuin/gopher-lua"
)

// registerAPI registers the catalog constructors as globals:
//
//	Board { title = "...", starting_money = 1500 }
//	Property "Boardwalk" { id = 39, price = 400, rent = 50, group = "dark_blue" }
//	Token "car" { icon = "🚗", color = "#FF5722" }
func registerAPI(L *lua.LState, coll *collector) {
	L.SetGlobal("Board", L.NewFunction(func(L *lua.LState) int {
		coll.board = L.CheckTable(1)
		return 0
	}))

	// Property "name" { ... } is curried: Property("name") returns a function that takes a table.
	L.SetGlobal("Property", L.NewFunction(func(L *lua.LState) int {
		name := L.CheckString(1)
		L.Push(L.NewFunction(func(L *lua.LState) int {
			tbl := L.CheckTable(1)
			coll.properties = append(coll.properties, rawProperty{
				name:  name,
				table: tbl,
				order: coll.nextSourceOrder(),
			})
			return 0
		}))
		return 1
	}))

	// Token "id" { ... } is curried the same way.
	L.SetGlobal("Token", L.NewFunction(func(L *lua.LState) int {
		id := L.CheckString(1)
		L.Push(L.NewFunction(func(L *lua.LState) int {
			tbl := L.CheckTable(1)
			coll.tokens = append(coll.tokens, rawToken{id: id, table: tbl})
			return 0
		}))
		return 1
	}))
}
