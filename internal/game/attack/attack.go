// Package attack defines the attack-type strategies and the registry the
// engine dispatches through.
package attack

import "github.com/cory-johannsen/buttonmen/internal/game/dice"

// Type is the tag an attack is registered and selected by.
type Type string

const (
	Power     Type = "Power"
	Skill     Type = "Skill"
	Speed     Type = "Speed"
	Shadow    Type = "Shadow"
	Trip      Type = "Trip"
	Pass      Type = "Pass"
	Surrender Type = "Surrender"
)

// Board is the subset of the game that attack strategies read and mutate.
// Using a local interface avoids a circular import with the engine.
type Board interface {
	// NumPlayers returns the number of seats.
	NumPlayers() int
	// ActiveDice returns player's dice in play.
	ActiveDice(player int) []*dice.Die
	// Capture moves d from its owner's active dice to captor's captured dice.
	Capture(d *dice.Die, captor int) error
	// Reroll rolls d in place.
	Reroll(d *dice.Die)
	// RecordPass notes that the current attack was a pass.
	RecordPass()
	// Surrender concedes the round for player.
	Surrender(player int)
	// HasOffensiveAttack reports whether the player to move has any legal
	// selectable attack.
	HasOffensiveAttack() bool
}

// Attack is one attack-type strategy.
type Attack interface {
	// Type returns the registry tag.
	Type() Type
	// Selectable reports whether the type is offered by search in the
	// valid-attack menu. Pass and Surrender are not.
	Selectable() bool
	// Validate reports whether the chosen dice form a legal attack.
	Validate(b Board, attackers, defenders []*dice.Die) bool
	// Find reports whether some legal attack of this type exists between
	// the two players' active dice.
	Find(b Board, attacker, defender int) bool
	// Commit applies the attack.
	//
	// Precondition: Validate returned true for the same dice.
	Commit(b Board, attacker int, attackers, defenders []*dice.Die) error
}

// eligible returns the enabled dice in ds that may attack with t.
func eligible(ds []*dice.Die, t Type) []*dice.Die {
	var out []*dice.Die
	for _, d := range ds {
		if !d.Disabled && d.CanPerform(string(t)) {
			out = append(out, d)
		}
	}
	return out
}

func canAttack(ds []*dice.Die, t Type) bool {
	for _, d := range ds {
		if d.Disabled || !d.CanPerform(string(t)) || !d.IsRolled() {
			return false
		}
	}
	return true
}

func canBeTargeted(ds []*dice.Die) bool {
	for _, d := range ds {
		if d.Captured || !d.IsRolled() {
			return false
		}
	}
	return true
}

func sum(ds []*dice.Die) int {
	total := 0
	for _, d := range ds {
		total += d.Value
	}
	return total
}

// subsetSums reports whether some non-empty subset of values adds to target.
//
// Precondition: every value is positive.
func subsetSums(values []int, target int) bool {
	if target <= 0 {
		return false
	}
	reach := make([]bool, target+1)
	reach[0] = true
	for _, v := range values {
		for s := target; s >= v; s-- {
			if reach[s-v] {
				reach[s] = true
			}
		}
	}
	return reach[target]
}

func values(ds []*dice.Die) []int {
	out := make([]int, 0, len(ds))
	for _, d := range ds {
		if d.Value > 0 {
			out = append(out, d.Value)
		}
	}
	return out
}

// captureAndReroll is the standard commit: every defender is captured by
// attacker and every attacker is rerolled.
func captureAndReroll(b Board, attacker int, attackers, defenders []*dice.Die) error {
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
