package engine

import (
	"sort"

	"github.com/cory-johannsen/buttonmen/internal/game/attack"
	"github.com/cory-johannsen/buttonmen/internal/game/dice"
)

// board adapts a Game to attack.Board without widening Game's exported API.
type board struct{ g *Game }

var _ attack.Board = board{}

func (b board) NumPlayers() int                       { return b.g.NumPlayers() }
func (b board) ActiveDice(player int) []*dice.Die     { return b.g.ActiveDice(player) }
func (b board) Capture(d *dice.Die, captor int) error { return b.g.capture(d, captor) }
func (b board) Reroll(d *dice.Die)                    { b.g.reroll(d) }
func (b board) RecordPass()                           { b.g.passedThisTurn = true }
func (b board) Surrender(player int)                  { b.g.surrendered = player }
func (b board) HasOffensiveAttack() bool {
	return len(b.g.offensiveTypes(b.g.activePlayer)) > 0
}

// offensiveTypes returns the selectable attack types attacker can perform
// against at least one opponent, in registry order.
func (g *Game) offensiveTypes(attacker int) []attack.Type {
	if g.active == nil || attacker == NoPlayer {
		return nil
	}
	b := board{g}
	var out []attack.Type
	for _, t := range g.attacks.Types() {
		a, _ := g.attacks.Get(t)
		if !a.Selectable() {
			continue
		}
		for q := range g.playerIDs {
			if q != attacker && a.Find(b, attacker, q) {
				out = append(out, t)
				break
			}
		}
	}
	return out
}

// ValidAttackTypes returns the attack menu for the active player. It never
// lists Surrender and falls back to Pass when nothing else is possible.
func (g *Game) ValidAttackTypes() []attack.Type {
	if g.activePlayer == NoPlayer || g.active == nil {
		return nil
	}
	types := g.offensiveTypes(g.activePlayer)
	if len(types) == 0 {
		return []attack.Type{attack.Pass}
	}
	return types
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
