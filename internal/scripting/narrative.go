package scripting

import (
	"fmt"
	"os"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/lotto/internal/lotto/synth"
)

// NarrateHook is the global Lua function a narrative script must define. It
// receives a facts table and returns the story string:
//
//	function narrate(facts)
//	  -- facts.algorithm, facts.inspiration, facts.trending (array of digits),
//	  -- facts.entry_count, facts.chaos (0..1), facts.chaos_percent
//	  return facts.algorithm .. " says hi"
//	end
const NarrateHook = "narrate"

// Narrator implements synth.Narrator by running a Lua script. Every call runs
// in a fresh sandbox, so a Narrator is safe for concurrent use.
type Narrator struct {
	source    string
	name      string
	instLimit int
	logger    *zap.Logger
}

// LoadNarrator reads the script at path and checks that it defines NarrateHook.
//
// Precondition: path is a readable Lua file; logger is non-nil.
// Postcondition: Returns a ready Narrator or an error describing the load failure.
func LoadNarrator(path string, instLimit int, logger *zap.Logger) (*Narrator, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("scripting: reading narrative script %q: %w", path, err)
	}
	return NewNarrator(path, string(src), instLimit, logger)
}

// NewNarrator compiles source once to validate it.
func NewNarrator(name, source string, instLimit int, logger *zap.Logger) (*Narrator, error) {
	n := &Narrator{source: source, name: name, instLimit: instLimit, logger: logger}
	L, cancel := NewSandboxedState(instLimit)
	defer cancel()
	defer L.Close()
	if err := L.DoString(source); err != nil {
		return nil, fmt.Errorf("scripting: loading %q: %w", name, err)
	}
	if L.GetGlobal(NarrateHook).Type() != lua.LTFunction {
		return nil, fmt.Errorf("scripting: %q does not define function %s", name, NarrateHook)
	}
	return n, nil
}

// Narrate runs the script's narrate(facts) and returns its string result.
//
// Postcondition: Returns a non-empty story, or an error on Lua runtime
// failure, instruction-limit exhaustion or a non-string return value.
func (n *Narrator) Narrate(f synth.Facts) (string, error) {
	L, cancel := NewSandboxedState(n.instLimit)
	defer cancel()
	defer L.Close()

	if err := L.DoString(n.source); err != nil {
		return "", fmt.Errorf("scripting: loading %q: %w", n.name, err)
	}
	if err := L.CallByParam(lua.P{
		Fn:      L.GetGlobal(NarrateHook),
		NRet:    1,
		Protect: true,
	}, factsTable(L, f)); err != nil {
		return "", fmt.Errorf("scripting: %s in %q: %w", NarrateHook, n.name, err)
	}
	ret := L.Get(-1)
	L.Pop(1)

	story, ok := ret.(lua.LString)
	if !ok || story == "" {
		return "", fmt.Errorf("scripting: %s in %q returned %s, want non-empty string", NarrateHook, n.name, ret.Type())
	}
	n.logger.Debug("narrative script ran", zap.String("script", n.name))
	return string(story), nil
}

func factsTable(L *lua.LState, f synth.Facts) *lua.LTable {
	t := L.NewTable()
	t.RawSetString("algorithm", lua.LString(f.Algorithm))
	t.RawSetString("inspiration", lua.LString(f.Inspiration))
	t.RawSetString("entry_count", lua.LNumber(f.EntryCount))
	t.RawSetString("chaos", lua.LNumber(f.Chaos))
	t.RawSetString("chaos_percent", lua.LNumber(f.ChaosPercent()))
	trending := L.NewTable()
	for _, d := range f.Trending {
		trending.Append(lua.LNumber(d))
	}
	t.RawSetString("trending", trending)
	return t
}
