package engine

import (
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/cory-johannsen/buttonmen/internal/game/dice"
)

// ResolveInitiative returns the seats that survive lexicographic
// elimination over contributions.
//
// Each list is sorted ascending and compared position by position; a missing
// position counts as +infinity. At each position every seat above the
// minimum is eliminated. Elimination stops when at most one seat remains or
// every remaining seat is exhausted.
//
// Postcondition: the result is non-empty and ascending.
func ResolveInitiative(contributions [][]int) []int {
	lists := make([][]int, len(contributions))
	for i, c := range contributions {
		l := append([]int(nil), c...)
		sort.Ints(l)
		lists[i] = l
	}
	at := func(p, pos int) int {
		if pos < len(lists[p]) {
			return lists[p][pos]
		}
		return math.MaxInt
	}

	alive := make([]int, len(lists))
	for i := range alive {
		alive[i] = i
	}
	for pos := 0; len(alive) > 1; pos++ {
		lowest := math.MaxInt
		for _, p := range alive {
			if v := at(p, pos); v < lowest {
				lowest = v
			}
		}
		if lowest == math.MaxInt {
			break
		}
		next := alive[:0:0]
		for _, p := range alive {
			if at(p, pos) == lowest {
				next = append(next, p)
			}
		}
		alive = next
	}
	return alive
}

// contributions collects the positive initiative values of every active die.
// override, when non-nil, supplies replacement values for specific dice.
func (g *Game) contributions(override map[*dice.Die]int) [][]int {
	out := make([][]int, len(g.playerIDs))
	for p := range g.playerIDs {
		for _, d := range g.ActiveDice(p) {
			v := d.InitiativeValue()
			if o, ok := override[d]; ok {
				saved := d.Value
				d.Value = o
				v = d.InitiativeValue()
				d.Value = saved
			}
			if v > 0 {
				out[p] = append(out[p], v)
			}
		}
	}
	return out
}

// pickHolder chooses among survivors, consulting the Source only on a tie.
func (g *Game) pickHolder(survivors []int) int {
	if len(survivors) == 1 {
		return survivors[0]
	}
	choice := survivors[g.src.Intn(len(survivors))]
	g.logger.Debug("initiative tie broken",
		zap.Ints("survivors", survivors),
		zap.Int("holder", choice),
	)
	return choice
}

// determineInitiative recomputes who holds initiative.
//
// Postcondition: returns a seat and whether the seat won outright.
func (g *Game) determineInitiative() (int, bool) {
	survivors := ResolveInitiative(g.contributions(nil))
	return g.pickHolder(survivors), len(survivors) == 1
}

// winsOutright reports whether player would hold sole initiative with the
// given value overrides.
func (g *Game) winsOutright(player int, override map[*dice.Die]int) bool {
	survivors := ResolveInitiative(g.contributions(override))
	return len(survivors) == 1 && survivors[0] == player
}

// canReact reports whether player has a usable initiative reaction.
func (g *Game) canReact(player int) bool {
	focusOverride := map[*dice.Die]int{}
	for _, d := range g.ActiveDice(player) {
		if d.Disabled {
			continue
		}
		for _, r := range d.Reactions() {
			switch r {
			case dice.ReactionChance:
				return true
			case dice.ReactionFocus:
				if d.Value > d.Min() {
					focusOverride[d] = d.Min()
				}
			}
		}
	}
	return len(focusOverride) > 0 && g.winsOutright(player, focusOverride)
}

// reenableReactiveDice lets every player other than actor react again once
// actor has taken initiative.
func (g *Game) reenableReactiveDice(actor int) {
	for q := range g.playerIDs {
		if q == actor {
			continue
		}
		for _, d := range g.ActiveDice(q) {
			if d.Disabled && len(d.Reactions()) > 0 {
				d.Disabled = false
			}
		}
		g.declined[q] = false
	}
}
