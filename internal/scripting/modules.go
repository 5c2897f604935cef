package scripting

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/buttonmen/internal/game/attack"
)

// maxScriptDice bounds how many dice a scripted attack may name on one side.
const maxScriptDice = 4

// RegisterModules installs the engine global into L:
//
//	engine.register_attack{ type=, attackers=, defenders=, validate= }
//	engine.log.debug/info/warn/error(msg)
//
// attackers and defenders are either a count or a {min=, max=} table.
//
// Precondition: L must be from NewSandboxedState.
func (m *Manager) RegisterModules(L *lua.LState) {
	engine := L.NewTable()
	L.SetField(engine, "register_attack", L.NewFunction(m.luaRegisterAttack))

	logTbl := L.NewTable()
	for name, fn := range map[string]func(string, ...zap.Field){
		"debug": m.logger.Debug,
		"info":  m.logger.Info,
		"warn":  m.logger.Warn,
		"error": m.logger.Error,
	} {
		fn := fn
		L.SetField(logTbl, name, L.NewFunction(func(L *lua.LState) int {
			fn(L.CheckString(1), zap.String("source", "lua"))
			return 0
		}))
	}
	L.SetField(engine, "log", logTbl)
	L.SetGlobal("engine", engine)
}

func (m *Manager) luaRegisterAttack(L *lua.LState) int {
	def := L.CheckTable(1)
	name, ok := def.RawGetString("type").(lua.LString)
	if !ok || name == "" {
		L.ArgError(1, "type must be a non-empty string")
		return 0
	}
	validate, ok := def.RawGetString("validate").(*lua.LFunction)
	if !ok {
		L.ArgError(1, "validate must be a function")
		return 0
	}
	att, err := parseBounds(def.RawGetString("attackers"))
	if err != nil {
		L.ArgError(1, "attackers: "+err.Error())
		return 0
	}
	dfn, err := parseBounds(def.RawGetString("defenders"))
	if err != nil {
		L.ArgError(1, "defenders: "+err.Error())
		return 0
	}
	if err := m.define(&ScriptedAttack{
		tag:       attack.Type(name),
		attackers: att,
		defenders: dfn,
		validate:  validate,
		mgr:       m,
	}); err != nil {
		L.RaiseError("%s", err.Error())
	}
	return 0
}

// bounds is an inclusive dice-count range.
type bounds struct{ min, max int }

func parseBounds(v lua.LValue) (bounds, error) {
	var b bounds
	switch x := v.(type) {
	case lua.LNumber:
		b = bounds{int(x), int(x)}
	case *lua.LTable:
		lo, ok1 := x.RawGetString("min").(lua.LNumber)
		hi, ok2 := x.RawGetString("max").(lua.LNumber)
		if !ok1 || !ok2 {
			return b, fmt.Errorf("expected {min=, max=}")
		}
		b = bounds{int(lo), int(hi)}
	case *lua.LNilType:
		b = bounds{1, 1}
	default:
		return b, fmt.Errorf("expected a number or table, got %s", v.Type())
	}
	if b.min < 1 || b.max < b.min || b.max > maxScriptDice {
		return b, fmt.Errorf("range %d..%d outside 1..%d", b.min, b.max, maxScriptDice)
	}
	return b, nil
}
