package ai

import (
	"fmt"

	"github.com/cory-johannsen/buttonmen/internal/game/engine"
)

// Play lets players answer decisions until the game ends or limit decisions
// have been made. It returns the number of decisions made.
//
// Precondition: players holds one Player per seat, indexed by seat.
// Postcondition: on nil error, g.IsOver() is true.
func Play(g *engine.Game, players []*Player, limit int) (int, error) {
	if len(players) != g.NumPlayers() {
		return 0, fmt.Errorf("ai.Play: %d players for %d seats", len(players), g.NumPlayers())
	}
	made := 0
	for !g.IsOver() {
		if made >= limit {
			return made, fmt.Errorf("ai.Play: game not finished after %d decisions (state %s)", made, g.State())
		}
		seat := nextSeat(g)
		if seat == engine.NoPlayer {
			if err := g.ProceedToNextUserAction(); err != nil {
				return made, err
			}
			continue
		}
		if err := players[seat].Act(g); err != nil {
			return made, fmt.Errorf("seat %d in %s: %w", seat, g.State(), err)
		}
		made++
	}
	return made, nil
}

// nextSeat returns the lowest awaited seat, or engine.NoPlayer.
func nextSeat(g *engine.Game) int {
	for i, w := range g.Waiting() {
		if w {
			return i
		}
	}
	return engine.NoPlayer
}
