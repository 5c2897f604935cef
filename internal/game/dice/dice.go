// Package dice provides the die model, recipe parsing, skills and the
// randomness abstraction used by the buttonmen engine.
package dice

import (
	"fmt"
	"strings"
)

// Die is one die in a button loadout.
//
// Invariant: Sides == 0 only while a swing die has no chosen size.
// Invariant: Value == 0 until the die is rolled; afterwards 1 <= Value <= Sides.
type Die struct {
	Recipe        string  // original recipe token, e.g. "z(10)" or "(X)"
	Sides         int     // 0 while a swing size is unset
	Value         int     // 0 while unrolled
	SwingType     string  // swing letter, empty for fixed dice
	Skills        []Skill // ordered as in the recipe
	Disabled      bool
	Selected      bool
	Captured      bool
	Owner         int
	OriginalOwner int
}

// HasSkill reports whether d carries s.
func (d *Die) HasSkill(s Skill) bool {
	for _, own := range d.Skills {
		if own.Name() == s.Name() {
			return true
		}
	}
	return false
}

// IsSwing reports whether d takes its size from a swing value.
func (d *Die) IsSwing() bool { return d.SwingType != "" }

// IsSpecified reports whether d has a known size.
func (d *Die) IsSpecified() bool { return d.Sides > 0 }

// IsRolled reports whether d shows a face.
func (d *Die) IsRolled() bool { return d.Value > 0 }

// Min returns the lowest face of d.
func (d *Die) Min() int { return 1 }

// Max returns the highest face of d.
func (d *Die) Max() int { return d.Sides }

// SetSwingValue sizes a swing die.
//
// Precondition: d.IsSwing().
// Postcondition: on success d.Sides == sides; on error d is unchanged.
func (d *Die) SetSwingValue(sides int) error {
	if !d.IsSwing() {
		return fmt.Errorf("dice: %s is not a swing die", d.Recipe)
	}
	r, ok := SwingRangeFor(d.SwingType)
	if !ok {
		return fmt.Errorf("dice: unknown swing type %q", d.SwingType)
	}
	if !r.Contains(sides) {
		return fmt.Errorf("dice: swing value %d for %s outside [%d, %d]", sides, d.SwingType, r.Min, r.Max)
	}
	d.Sides = sides
	return nil
}

// Roll sets d.Value to a uniformly random face.
//
// Precondition: d.IsSpecified(); src non-nil.
func (d *Die) Roll(src Source) {
	if !d.IsSpecified() {
		panic("dice: Roll called on unspecified die " + d.Recipe)
	}
	d.Value = src.Intn(d.Sides) + 1
}

// CanPerform reports whether d may take part in an attack of the given type
// as an attacker.
func (d *Die) CanPerform(attack string) bool {
	allowed := false
	for _, a := range DefaultAttacks {
		if a == attack {
			allowed = true
		}
	}
	for _, s := range d.Skills {
		if g, ok := s.(AttackGranter); ok {
			for _, a := range g.GrantsAttacks() {
				if a == attack {
					allowed = true
				}
			}
		}
	}
	for _, s := range d.Skills {
		if r, ok := s.(AttackRestrictor); ok {
			for _, a := range r.RestrictsAttacks() {
				if a == attack {
					return false
				}
			}
		}
	}
	return allowed
}

// AttackTypes returns every attack type d may perform, defaults first.
func (d *Die) AttackTypes() []string {
	seen := map[string]bool{}
	var out []string
	add := func(a string) {
		if !seen[a] && d.CanPerform(a) {
			seen[a] = true
			out = append(out, a)
		}
	}
	for _, a := range DefaultAttacks {
		add(a)
	}
	for _, s := range d.Skills {
		if g, ok := s.(AttackGranter); ok {
			for _, a := range g.GrantsAttacks() {
				add(a)
			}
		}
	}
	return out
}

// InitiativeValue returns d's contribution to initiative.
func (d *Die) InitiativeValue() int {
	for _, s := range d.Skills {
		if m, ok := s.(InitiativeModifier); ok {
			return m.InitiativeValue(d)
		}
	}
	return d.Value
}

// ScoreTimesTen returns the scoring value of d multiplied by ten.
//
// Postcondition: an unsized die scores 0.
func (d *Die) ScoreTimesTen() int {
	return d.ScoreTimesTenAs(d.Captured)
}

// ScoreTimesTenAs scores d at the captured or the active rate regardless of
// its Captured flag.
func (d *Die) ScoreTimesTenAs(captured bool) int {
	if !d.IsSpecified() {
		return 0
	}
	score := d.Sides * 5
	if captured {
		score = d.Sides * 10
	}
	for _, s := range d.Skills {
		if m, ok := s.(ScoreModifier); ok {
			score = m.ScoreTimesTen(d, score, captured)
		}
	}
	return score
}

// HeldBack reports whether d stays out of play until its owner opts it in.
func (d *Die) HeldBack() bool {
	for _, s := range d.Skills {
		if m, ok := s.(RoundPhaseMarker); ok && m.OptIn() {
			return true
		}
	}
	return false
}

// Reactions returns the initiative reactions d offers.
func (d *Die) Reactions() []Reaction {
	var out []Reaction
	for _, s := range d.Skills {
		if r, ok := s.(InitiativeReactor); ok && r.Reaction() != ReactionNone {
			out = append(out, r.Reaction())
		}
	}
	return out
}

// Clone returns an independent copy of d. Skills are shared values.
func (d *Die) Clone() *Die {
	c := *d
	c.Skills = append([]Skill(nil), d.Skills...)
	return &c
}

// Label returns the die without its face, e.g. "z(10)" or "(X=12)".
func (d *Die) Label() string {
	var b strings.Builder
	for _, s := range d.Skills {
		b.WriteRune(s.Letter())
	}
	b.WriteByte('(')
	switch {
	case d.IsSwing() && d.IsSpecified():
		fmt.Fprintf(&b, "%s=%d", d.SwingType, d.Sides)
	case d.IsSwing():
		b.WriteString(d.SwingType)
	default:
		fmt.Fprintf(&b, "%d", d.Sides)
	}
	b.WriteByte(')')
	return b.String()
}

// Describe returns the label plus the face, e.g. "z(10):7".
func (d *Die) Describe() string {
	if !d.IsRolled() {
		return d.Label()
	}
	return fmt.Sprintf("%s:%d", d.Label(), d.Value)
}

// RollResult records a single logged roll.
type RollResult struct {
	Die   string // Describe() before the roll
	Sides int
	Value int
}

// String returns "z(10) → 7".
//
// Precondition: r.Die is non-empty.
func (r RollResult) String() string {
	if r.Die == "" {
		panic("dice: RollResult.String() precondition violated: Die must be non-empty")
	}
	return fmt.Sprintf("%s → %d", r.Die, r.Value)
}
