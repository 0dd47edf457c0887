package loader

import (
	_ "embed"
	"fmt"
	"os"

	lua "github.com/yuin/gopher-lua"

	"github.com/nathoo/monovoice/types"
)

//go:embed board.lua
var defaultBoard string

// collector accumulates Lua definitions during script execution.
type collector struct {
	board      *lua.LTable
	properties []rawProperty
	tokens     []rawToken
	order      int
}

func (c *collector) nextSourceOrder() int {
	c.order++
	return c.order
}

// Default compiles the embedded classic board.
func Default() (*types.BoardDef, error) {
	return LoadSource("board.lua", defaultBoard)
}

// Load reads a Lua board catalog from path, compiles it, validates it and
// returns the board. The Lua VM is discarded after loading.
func Load(path string) (*types.BoardDef, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading board file %s: %w", path, err)
	}
	return LoadSource(path, string(src))
}

// LoadSource compiles a board catalog from Lua source. name is used in errors.
func LoadSource(name, src string) (*types.BoardDef, error) {
	// Create sandboxed VM.
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	defer L.Close()

	openSafeLibs(L)
	sandbox(L)

	coll := &collector{}
	registerAPI(L, coll)

	if err := L.DoString(src); err != nil {
		return nil, fmt.Errorf("executing %s: %w", name, err)
	}

	board, err := compile(coll)
	if err != nil {
		return nil, fmt.Errorf("compiling board %s: %w", name, err)
	}

	if err := validate(board); err != nil {
		return nil, err
	}

	return board, nil
}

// openSafeLibs opens only the safe subset of Lua standard libraries.
func openSafeLibs(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
}

// sandbox removes globals that reach outside the VM.
func sandbox(L *lua.LState) {
	dangerous := []string{
		"dofile", "loadfile", "load", "loadstring",
		"rawset", "rawget", "rawequal",
		"collectgarbage", "require", "module",
	}
	for _, name := range dangerous {
		L.SetGlobal(name, lua.LNil)
	}
}
