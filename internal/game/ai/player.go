// Package ai implements a computer player that can answer every decision
// the game engine waits on.
//
// The player is deliberately simple: it picks uniformly among the legal
// attacks it can find and takes every optional die that is offered.
package ai

import (
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/cory-johannsen/buttonmen/internal/game/attack"
	"github.com/cory-johannsen/buttonmen/internal/game/dice"
	"github.com/cory-johannsen/buttonmen/internal/game/engine"
)

// maxSubsetDice bounds the number of dice enumerated as a multi-die side of
// an attack.
const maxSubsetDice = 12

// ErrNotAwaited is returned by Act when the engine is not waiting on the seat.
var ErrNotAwaited = errors.New("ai: player is not being awaited")

// Profile tunes the optional choices a Player makes.
type Profile struct {
	// AddAuxiliary accepts auxiliary dice when offered.
	AddAuxiliary bool `yaml:"add_auxiliary"`
	// AddReserve adds the first available reserve die after a lost round.
	AddReserve bool `yaml:"add_reserve"`
	// UseChance rerolls a chance die when initiative is lost.
	UseChance bool `yaml:"use_chance"`
}

// DefaultProfile accepts every optional die and uses chance rerolls.
var DefaultProfile = Profile{AddAuxiliary: true, AddReserve: true, UseChance: true}

// Player makes decisions for one seat.
//
// Invariant: src and logger are non-nil.
type Player struct {
	seat    int
	profile Profile
	src     dice.Source
	logger  *zap.Logger
}

// NewPlayer constructs a Player for seat.
//
// Precondition: src must not be nil.
func NewPlayer(seat int, profile Profile, src dice.Source, logger *zap.Logger) *Player {
	if src == nil {
		panic("ai.NewPlayer: src must not be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Player{seat: seat, profile: profile, src: src, logger: logger.With(zap.Int("seat", seat))}
}

// Seat returns the seat this player answers for.
func (p *Player) Seat() int { return p.seat }

// Act makes exactly one decision for the player's seat.
//
// Precondition: g.Waiting()[p.Seat()] is true, otherwise ErrNotAwaited.
func (p *Player) Act(g *engine.Game) error {
	waiting := g.Waiting()
	if p.seat < 0 || p.seat >= len(waiting) || !waiting[p.seat] {
		return ErrNotAwaited
	}
	switch g.State() {
	case engine.StateChooseAuxiliaryDice:
		return g.ReactToAuxiliary(p.seat, p.profile.AddAuxiliary)
	case engine.StateLoadDiceIntoButtons:
		return p.reactToReserve(g)
	case engine.StateSpecifyDice:
		return g.SubmitSwingValues(p.seat, p.ChooseSwingValues(g.SwingRequests(p.seat)))
	case engine.StateReactToInitiative:
		return g.ReactToInitiative(p.seat, p.chooseReaction(g))
	case engine.StateStartTurn:
		a := p.ChooseAttack(g)
		p.logger.Debug("attack chosen",
			zap.String("type", string(a.Type)),
			zap.Ints("attacker_dice", a.AttackerDice),
			zap.Ints("defender_dice", a.DefenderDice),
		)
		return g.SubmitAttack(a)
	}
	return fmt.Errorf("ai: no decision for state %s", g.State())
}

func (p *Player) reactToReserve(g *engine.Game) error {
	b := g.Button(p.seat)
	if p.profile.AddReserve && b != nil {
		for i, tok := range b.Tokens() {
			if d, err := dice.ParseDie(tok); err == nil && d.HasSkill(dice.Reserve) {
				return g.ReactToReserve(p.seat, i, true)
			}
		}
	}
	return g.ReactToReserve(p.seat, 0, false)
}

// ChooseSwingValues picks a uniformly random legal size for each swing letter.
func (p *Player) ChooseSwingValues(letters []string) map[string]int {
	out := make(map[string]int, len(letters))
	for _, l := range letters {
		r, ok := dice.SwingRangeFor(l)
		if !ok {
			continue
		}
		out[l] = r.Min + p.src.Intn(r.Max-r.Min+1)
	}
	return out
}

func (p *Player) chooseReaction(g *engine.Game) engine.InitiativeReaction {
	if p.profile.UseChance {
		for i, d := range g.ActiveDice(p.seat) {
			if d.HasSkill(dice.Chance) && !d.Disabled {
				return engine.InitiativeReaction{Action: engine.ReactChance, Dice: []int{i}}
			}
		}
	}
	return engine.InitiativeReaction{Action: engine.ReactDecline}
}

// ChooseAttack returns a random legal attack for the active player. It
// falls back to Pass when nothing offensive is possible and to Surrender
// when no offensive attack could be enumerated.
//
// Precondition: g.State() == engine.StateStartTurn.
func (p *Player) ChooseAttack(g *engine.Game) engine.Attack {
	attacker := g.ActivePlayer()
	candidates := Candidates(g)
	if len(candidates) > 0 {
		return candidates[p.src.Intn(len(candidates))]
	}
	pass := engine.Attack{Attacker: attacker, Defender: engine.NoPlayer, Type: attack.Pass}
	if g.IsValidAttack(pass) {
		return pass
	}
	p.logger.Warn("no legal attack found, surrendering")
	return engine.Attack{Attacker: attacker, Defender: engine.NoPlayer, Type: attack.Surrender}
}

// Candidates enumerates the offensive attacks the active player can make.
// Multi-die sides are enumerated on one side at a time: many attackers
// against one defender, or one attacker against many defenders.
//
// Postcondition: every returned attack satisfies g.IsValidAttack.
func Candidates(g *engine.Game) []engine.Attack {
	attacker := g.ActivePlayer()
	if attacker == engine.NoPlayer {
		return nil
	}
	var out []engine.Attack
	seen := map[string]bool{}
	try := func(a engine.Attack) {
		key := fmt.Sprint(a)
		if seen[key] || !g.IsValidAttack(a) {
			return
		}
		seen[key] = true
		out = append(out, a)
	}
	own := len(g.ActiveDice(attacker))
	for _, t := range g.ValidAttackTypes() {
		if t == attack.Pass {
			continue
		}
		for q := 0; q < g.NumPlayers(); q++ {
			if q == attacker {
				continue
			}
			theirs := len(g.ActiveDice(q))
			for _, as := range subsets(own) {
				for d := 0; d < theirs; d++ {
					try(engine.Attack{Attacker: attacker, Defender: q, AttackerDice: as, DefenderDice: []int{d}, Type: t})
				}
			}
			for a := 0; a < own; a++ {
				for _, ds := range subsets(theirs) {
					try(engine.Attack{Attacker: attacker, Defender: q, AttackerDice: []int{a}, DefenderDice: ds, Type: t})
				}
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out
}

// subsets returns every non-empty index subset of [0, n), capped at
// maxSubsetDice elements.
func subsets(n int) [][]int {
	if n > maxSubsetDice {
		n = maxSubsetDice
	}
	out := make([][]int, 0, (1<<n)-1)
	for mask := 1; mask < 1<<n; mask++ {
		var s []int
		for i := 0; i < n; i++ {
			if mask&(1<<i) != 0 {
				s = append(s, i)
			}
		}
		out = append(out, s)
	}
	return out
}
