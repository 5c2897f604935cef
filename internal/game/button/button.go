// Package button models a player's die loadout and the catalog of named
// buttons available to new games.
package button

import (
	"fmt"
	"strings"

	"github.com/cory-johannsen/buttonmen/internal/game/dice"
)

// Button is a named loadout. The recipe is authoritative; Dice is a fresh
// parse of it made once per round.
//
// Invariant: when Dice is non-nil, len(Dice) == len(Tokens()).
type Button struct {
	Name    string
	Recipe  string
	Altered bool // recipe differs from the catalog recipe (reserve or auxiliary dice added)
	Dice    []*dice.Die
}

// New validates recipe and returns an unloaded Button.
//
// Postcondition: Returns a Button whose recipe parses, or an error.
func New(name, recipe string) (*Button, error) {
	if _, err := dice.ParseRecipe(recipe); err != nil {
		return nil, fmt.Errorf("button %q: %w", name, err)
	}
	return &Button{Name: name, Recipe: strings.Join(strings.Fields(recipe), " ")}, nil
}

// Tokens returns the recipe split into die tokens.
func (b *Button) Tokens() []string {
	return strings.Fields(b.Recipe)
}

// Load parses a fresh set of dice for owner.
//
// Postcondition: every die has Owner == OriginalOwner == owner and is unrolled.
func (b *Button) Load(owner int) error {
	ds, err := dice.ParseRecipe(b.Recipe)
	if err != nil {
		return fmt.Errorf("button %q: %w", b.Name, err)
	}
	for _, d := range ds {
		d.Owner = owner
		d.OriginalOwner = owner
	}
	b.Dice = ds
	return nil
}

// Loaded reports whether the button holds dice for the current round.
func (b *Button) Loaded() bool { return b.Dice != nil }

// Unload discards the current round's dice.
func (b *Button) Unload() { b.Dice = nil }

// InPlay returns the loaded dice that enter play, i.e. those not held back
// as reserve or auxiliary dice.
func (b *Button) InPlay() []*dice.Die {
	out := make([]*dice.Die, 0, len(b.Dice))
	for _, d := range b.Dice {
		if d.HeldBack() {
			continue
		}
		out = append(out, d)
	}
	return out
}

func (b *Button) tokensWith(s dice.Skill) []int {
	var idx []int
	for i, tok := range b.Tokens() {
		d, err := dice.ParseDie(tok)
		if err == nil && d.HasSkill(s) {
			idx = append(idx, i)
		}
	}
	return idx
}

// HasAuxiliary reports whether the recipe still offers auxiliary dice.
func (b *Button) HasAuxiliary() bool { return len(b.tokensWith(dice.Auxiliary)) > 0 }

// AuxiliaryTokens returns the auxiliary tokens with the auxiliary marker removed.
func (b *Button) AuxiliaryTokens() []string {
	toks := b.Tokens()
	var out []string
	for _, i := range b.tokensWith(dice.Auxiliary) {
		out = append(out, dice.StripSkill(toks[i], dice.Auxiliary))
	}
	return out
}

// ResolveAuxiliary removes every auxiliary token and appends extra as
// regular dice.
func (b *Button) ResolveAuxiliary(extra []string) {
	aux := map[int]bool{}
	for _, i := range b.tokensWith(dice.Auxiliary) {
		aux[i] = true
	}
	var kept []string
	for i, tok := range b.Tokens() {
		if !aux[i] {
			kept = append(kept, tok)
		}
	}
	if len(extra) > 0 {
		b.Altered = true
	}
	b.Recipe = strings.Join(append(kept, extra...), " ")
	b.Dice = nil
}

// HasReserve reports whether the recipe still holds reserve dice.
func (b *Button) HasReserve() bool { return len(b.tokensWith(dice.Reserve)) > 0 }

// ActivateReserve turns the reserve die at recipe position idx into a
// regular die for the rest of the game.
//
// Postcondition: on success the button is unloaded so the next load sees the change.
func (b *Button) ActivateReserve(idx int) error {
	toks := b.Tokens()
	if idx < 0 || idx >= len(toks) {
		return fmt.Errorf("button %q: die index %d out of range", b.Name, idx)
	}
	d, err := dice.ParseDie(toks[idx])
	if err != nil {
		return fmt.Errorf("button %q: %w", b.Name, err)
	}
	if !d.HasSkill(dice.Reserve) {
		return fmt.Errorf("button %q: die %d is not a reserve die", b.Name, idx)
	}
	toks[idx] = dice.StripSkill(toks[idx], dice.Reserve)
	b.Recipe = strings.Join(toks, " ")
	b.Altered = true
	b.Dice = nil
	return nil
}
