package dice

// Skill is a property attached to a die that modifies how the die attacks,
// scores, or takes part in initiative.
//
// The engine never switches on concrete skill types. It queries the
// capability interfaces below with type assertions instead.
type Skill interface {
	// Name returns the display name, e.g. "Speed".
	Name() string
	// Letter returns the recipe prefix letter, e.g. 'z'.
	Letter() rune
}

// AttackGranter is implemented by skills that let a die perform attack types
// beyond the defaults.
type AttackGranter interface {
	GrantsAttacks() []string
}

// AttackRestrictor is implemented by skills that forbid default attack types.
type AttackRestrictor interface {
	RestrictsAttacks() []string
}

// InitiativeModifier is implemented by skills that change how much a die
// contributes to initiative.
type InitiativeModifier interface {
	// InitiativeValue returns the contribution of d. Values <= 0 are ignored.
	InitiativeValue(d *Die) int
}

// ScoreModifier is implemented by skills that change a die's scoring value.
type ScoreModifier interface {
	// ScoreTimesTen adjusts base, the unmodified x10 scoring value of d
	// scored as captured or as active.
	ScoreTimesTen(d *Die, base int, captured bool) int
}

// Reaction identifies the way a die may contest a lost initiative.
type Reaction int

const (
	// ReactionNone means the skill offers no initiative reaction.
	ReactionNone Reaction = iota
	// ReactionChance rerolls the die.
	ReactionChance
	// ReactionFocus turns the die down to a lower face.
	ReactionFocus
)

// String returns "chance", "focus" or "none".
func (r Reaction) String() string {
	switch r {
	case ReactionChance:
		return "chance"
	case ReactionFocus:
		return "focus"
	default:
		return "none"
	}
}

// InitiativeReactor is implemented by skills that allow a reaction during
// the initiative phase.
type InitiativeReactor interface {
	Reaction() Reaction
}

// RoundPhaseMarker is implemented by skills that keep a die out of play until
// a player opts it in (auxiliary and reserve dice).
type RoundPhaseMarker interface {
	OptIn() bool
}

// DefaultAttacks are the attack types every die may perform unless a skill
// restricts them.
var DefaultAttacks = []string{"Power", "Skill"}

type baseSkill struct {
	name   string
	letter rune
}

func (b baseSkill) Name() string { return b.name }
func (b baseSkill) Letter() rune { return b.letter }

type speedSkill struct{ baseSkill }

func (speedSkill) GrantsAttacks() []string { return []string{"Speed"} }

type shadowSkill struct{ baseSkill }

func (shadowSkill) GrantsAttacks() []string { return []string{"Shadow"} }
func (shadowSkill) RestrictsAttacks() []string { return []string{"Power"} }

type tripSkill struct{ baseSkill }

func (tripSkill) GrantsAttacks() []string { return []string{"Trip"} }

type chanceSkill struct{ baseSkill }

func (chanceSkill) Reaction() Reaction { return ReactionChance }

type focusSkill struct{ baseSkill }

func (focusSkill) Reaction() Reaction { return ReactionFocus }

type slowSkill struct{ baseSkill }

func (slowSkill) InitiativeValue(*Die) int { return 0 }

type poisonSkill struct{ baseSkill }

// A poison die costs its owner its full size while active, and costs the
// captor half its size.
func (poisonSkill) ScoreTimesTen(_ *Die, base int, captured bool) int {
	if captured {
		return -base / 2
	}
	return -base * 2
}

type nullSkill struct{ baseSkill }

func (nullSkill) ScoreTimesTen(*Die, int, bool) int { return 0 }

type optInSkill struct{ baseSkill }

func (optInSkill) OptIn() bool { return true }

var (
	Chance    Skill = chanceSkill{baseSkill{"Chance", 'c'}}
	Focus     Skill = focusSkill{baseSkill{"Focus", 'f'}}
	Speed     Skill = speedSkill{baseSkill{"Speed", 'z'}}
	Shadow    Skill = shadowSkill{baseSkill{"Shadow", 's'}}
	Trip      Skill = tripSkill{baseSkill{"Trip", 't'}}
	Poison    Skill = poisonSkill{baseSkill{"Poison", 'p'}}
	Null      Skill = nullSkill{baseSkill{"Null", 'n'}}
	Slow      Skill = slowSkill{baseSkill{"Slow", 'w'}}
	Reserve   Skill = optInSkill{baseSkill{"Reserve", 'r'}}
	Auxiliary Skill = optInSkill{baseSkill{"Auxiliary", '+'}}
)

var skillsByLetter = map[rune]Skill{}

func init() {
	for _, s := range []Skill{Chance, Focus, Speed, Shadow, Trip, Poison, Null, Slow, Reserve, Auxiliary} {
		skillsByLetter[s.Letter()] = s
	}
}

// SkillForLetter returns the skill whose recipe prefix is letter.
func SkillForLetter(letter rune) (Skill, bool) {
	s, ok := skillsByLetter[letter]
	return s, ok
}
