package attack

import "github.com/cory-johannsen/buttonmen/internal/game/dice"

// PowerAttack: one die captures one die showing an equal or lower value.
type PowerAttack struct{}

func (PowerAttack) Type() Type { return Power }
func (PowerAttack) Selectable() bool { return true }

func (PowerAttack) Validate(_ Board, attackers, defenders []*dice.Die) bool {
	if len(attackers) != 1 || len(defenders) != 1 {
		return false
	}
	if !canAttack(attackers, Power) || !canBeTargeted(defenders) {
		return false
	}
	return attackers[0].Value >= defenders[0].Value
}

func (PowerAttack) Find(b Board, attacker, defender int) bool {
	for _, a := range eligible(b.ActiveDice(attacker), Power) {
		for _, d := range b.ActiveDice(defender) {
			if a.Value >= d.Value {
				return true
			}
		}
	}
	return false
}

func (PowerAttack) Commit(b Board, attacker int, attackers, defenders []*dice.Die) error {
	return captureAndReroll(b, attacker, attackers, defenders)
}

// SkillAttack: one or more dice whose values sum exactly to one defender's value.
type SkillAttack struct{}

func (SkillAttack) Type() Type { return Skill }
func (SkillAttack) Selectable() bool { return true }

func (SkillAttack) Validate(_ Board, attackers, defenders []*dice.Die) bool {
	if len(attackers) < 1 || len(defenders) != 1 {
		return false
	}
	if !canAttack(attackers, Skill) || !canBeTargeted(defenders) {
		return false
	}
	return sum(attackers) == defenders[0].Value
}

func (SkillAttack) Find(b Board, attacker, defender int) bool {
	vals := values(eligible(b.ActiveDice(attacker), Skill))
	for _, d := range b.ActiveDice(defender) {
		if subsetSums(vals, d.Value) {
			return true
		}
	}
	return false
}

func (SkillAttack) Commit(b Board, attacker int, attackers, defenders []*dice.Die) error {
	return captureAndReroll(b, attacker, attackers, defenders)
}

// SpeedAttack: one Speed die captures several dice whose values sum exactly
// to its own.
type SpeedAttack struct{}

func (SpeedAttack) Type() Type { return Speed }
func (SpeedAttack) Selectable() bool { return true }

func (SpeedAttack) Validate(_ Board, attackers, defenders []*dice.Die) bool {
	if len(attackers) != 1 || len(defenders) < 1 {
		return false
	}
	if !attackers[0].HasSkill(dice.Speed) {
		return false
	}
	if !canAttack(attackers, Speed) || !canBeTargeted(defenders) {
		return false
	}
	return attackers[0].Value == sum(defenders)
}

func (SpeedAttack) Find(b Board, attacker, defender int) bool {
	targets := values(b.ActiveDice(defender))
	for _, a := range eligible(b.ActiveDice(attacker), Speed) {
		if subsetSums(targets, a.Value) {
			return true
		}
	}
	return false
}

func (SpeedAttack) Commit(b Board, attacker int, attackers, defenders []*dice.Die) error {
	return captureAndReroll(b, attacker, attackers, defenders)
}

// ShadowAttack: one Shadow die captures a die showing at least its value but
// no more than its size.
type ShadowAttack struct{}

func (ShadowAttack) Type() Type { return Shadow }
func (ShadowAttack) Selectable() bool { return true }

func shadowLegal(a, d *dice.Die) bool {
	return a.Value <= d.Value && a.Max() >= d.Value
}

func (ShadowAttack) Validate(_ Board, attackers, defenders []*dice.Die) bool {
	if len(attackers) != 1 || len(defenders) != 1 {
		return false
	}
	if !canAttack(attackers, Shadow) || !canBeTargeted(defenders) {
		return false
	}
	return shadowLegal(attackers[0], defenders[0])
}

func (ShadowAttack) Find(b Board, attacker, defender int) bool {
	for _, a := range eligible(b.ActiveDice(attacker), Shadow) {
		for _, d := range b.ActiveDice(defender) {
			if shadowLegal(a, d) {
				return true
			}
		}
	}
	return false
}

func (ShadowAttack) Commit(b Board, attacker int, attackers, defenders []*dice.Die) error {
	return captureAndReroll(b, attacker, attackers, defenders)
}

// TripAttack: a Trip die and its target both reroll; the target is captured
// when the attacker then shows an equal or higher value.
type TripAttack struct{}

func (TripAttack) Type() Type { return Trip }
func (TripAttack) Selectable() bool { return true }

func (TripAttack) Validate(_ Board, attackers, defenders []*dice.Die) bool {
	if len(attackers) != 1 || len(defenders) != 1 {
		return false
	}
	return canAttack(attackers, Trip) && canBeTargeted(defenders)
}

func (TripAttack) Find(b Board, attacker, defender int) bool {
	return len(eligible(b.ActiveDice(attacker), Trip)) > 0 && len(b.ActiveDice(defender)) > 0
}

func (TripAttack) Commit(b Board, attacker int, attackers, defenders []*dice.Die) error {
	a, d := attackers[0], defenders[0]
	b.Reroll(a)
	b.Reroll(d)
	if a.Value >= d.Value {
		return b.Capture(d, attacker)
	}
	return nil
}

// PassAttack: the player declines to attack. Legal only when no offensive
// attack exists.
type PassAttack struct{}

func (PassAttack) Type() Type { return Pass }
func (PassAttack) Selectable() bool { return false }

func (PassAttack) Validate(b Board, attackers, defenders []*dice.Die) bool {
	return len(attackers) == 0 && len(defenders) == 0 && !b.HasOffensiveAttack()
}

func (PassAttack) Find(Board, int, int) bool { return true }

func (PassAttack) Commit(b Board, _ int, _, _ []*dice.Die) error {
	b.RecordPass()
	return nil
}

// SurrenderAttack: the player concedes the round. Always legal.
type SurrenderAttack struct{}

func (SurrenderAttack) Type() Type { return Surrender }
func (SurrenderAttack) Selectable() bool { return false }

func (SurrenderAttack) Validate(_ Board, attackers, defenders []*dice.Die) bool {
	return len(attackers) == 0 && len(defenders) == 0
}

func (SurrenderAttack) Find(Board, int, int) bool { return true }

func (SurrenderAttack) Commit(b Board, attacker int, _, _ []*dice.Die) error {
	b.Surrender(attacker)
	return nil
}
