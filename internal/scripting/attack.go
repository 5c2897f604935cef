package scripting

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/cory-johannsen/buttonmen/internal/game/attack"
	"github.com/cory-johannsen/buttonmen/internal/game/dice"
)

// ScriptedAttack is an attack type whose legality is decided by a Lua
// validate function. Any enabled die may take part. A legal attack captures
// every defender and rerolls every attacker.
type ScriptedAttack struct {
	tag       attack.Type
	attackers bounds
	defenders bounds
	validate  *lua.LFunction
	mgr       *Manager
}

var _ attack.Attack = (*ScriptedAttack)(nil)

// Type implements attack.Attack.
func (a *ScriptedAttack) Type() attack.Type { return a.tag }

// Selectable implements attack.Attack.
func (a *ScriptedAttack) Selectable() bool { return true }

func (a *ScriptedAttack) dieTable(L *lua.LState, d *dice.Die) *lua.LTable {
	t := L.NewTable()
	t.RawSetString("value", lua.LNumber(d.Value))
	t.RawSetString("sides", lua.LNumber(d.Sides))
	t.RawSetString("recipe", lua.LString(d.Recipe))
	t.RawSetString("disabled", lua.LBool(d.Disabled))
	skills := L.NewTable()
	for _, s := range d.Skills {
		skills.Append(lua.LString(s.Name()))
	}
	t.RawSetString("skills", skills)
	return t
}

func (a *ScriptedAttack) diceTable(ds []*dice.Die) *lua.LTable {
	L := a.mgr.L
	t := L.NewTable()
	for _, d := range ds {
		t.Append(a.dieTable(L, d))
	}
	return t
}

// Validate implements attack.Attack.
func (a *ScriptedAttack) Validate(b attack.Board, attackers, defenders []*dice.Die) bool {
	if len(attackers) < a.attackers.min || len(attackers) > a.attackers.max {
		return false
	}
	if len(defenders) < a.defenders.min || len(defenders) > a.defenders.max {
		return false
	}
	for _, d := range attackers {
		if d.Disabled || !d.IsRolled() {
			return false
		}
	}
	for _, d := range defenders {
		if d.Captured || !d.IsRolled() {
			return false
		}
	}
	a.mgr.mu.Lock()
	att, def := a.diceTable(attackers), a.diceTable(defenders)
	a.mgr.mu.Unlock()
	return a.mgr.call(a.tag, a.validate, att, def)
}

// Find implements attack.Attack by trying every subset within the declared
// size bounds.
func (a *ScriptedAttack) Find(b attack.Board, attacker, defender int) bool {
	var pool []*dice.Die
	for _, d := range b.ActiveDice(attacker) {
		if !d.Disabled && d.IsRolled() {
			pool = append(pool, d)
		}
	}
	targets := b.ActiveDice(defender)
	found := false
	eachSubset(pool, a.attackers, func(att []*dice.Die) bool {
		eachSubset(targets, a.defenders, func(def []*dice.Die) bool {
			found = a.Validate(b, att, def)
			return !found
		})
		return !found
	})
	return found
}

// Commit implements attack.Attack.
func (a *ScriptedAttack) Commit(b attack.Board, attacker int, attackers, defenders []*dice.Die) error {
	for _, d := range defenders {
		if err := b.Capture(d, attacker); err != nil {
			return err
		}
	}
	for _, d := range attackers {
		b.Reroll(d)
	}
	return nil
}

// eachSubset calls fn for every subset of ds whose size lies in r, stopping
// when fn returns false.
func eachSubset(ds []*dice.Die, r bounds, fn func([]*dice.Die) bool) {
	var pick []*dice.Die
	var walk func(start int) bool
	walk = func(start int) bool {
		if len(pick) >= r.min && len(pick) <= r.max {
			if !fn(append([]*dice.Die(nil), pick...)) {
				return false
			}
		}
		if len(pick) == r.max {
			return true
		}
		for i := start; i < len(ds); i++ {
			pick = append(pick, ds[i])
			if !walk(i + 1) {
				return false
			}
			pick = pick[:len(pick)-1]
		}
		return true
	}
	walk(0)
}
