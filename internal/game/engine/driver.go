package engine

import (
	"fmt"

	"go.uber.org/zap"
)

// ProceedToNextUserAction runs transition/act cycles until a player must
// decide something or the game ends.
//
// Postcondition: on nil error, some wait flag is set or State() == StateEndGame.
func (g *Game) ProceedToNextUserAction() error {
	return g.proceed(0, false)
}

// ProceedUntil behaves like ProceedToNextUserAction but also stops as soon
// as the game enters breakpoint.
func (g *Game) ProceedUntil(breakpoint State) error {
	return g.proceed(breakpoint, true)
}

func (g *Game) step() {
	next := transition(g.state, g.facts())
	if next != g.state {
		g.logger.Debug("state transition",
			zap.Stringer("from", g.state),
			zap.Stringer("to", next),
			zap.Int("round", g.RoundNumber()),
		)
	}
	g.state = next
}

func (g *Game) proceed(breakpoint State, useBreakpoint bool) error {
	initial := g.state
	g.step()
	if useBreakpoint && g.state == breakpoint && g.state != initial {
		return nil
	}
	if err := g.act(); err != nil {
		return err
	}

	repeats := 0
	for !g.anyWaiting() {
		prev := g.state
		g.step()
		if useBreakpoint && g.state == breakpoint {
			return nil
		}
		if err := g.act(); err != nil {
			return err
		}
		if g.state == StateEndGame {
			return nil
		}
		if g.state == prev {
			repeats++
		} else {
			repeats = 0
		}
		if repeats >= maxStallCycles {
			g.logger.Error("game state stalled", zap.Stringer("state", g.state))
			return fmt.Errorf("%w: stuck in %s for %d cycles", ErrRunaway, g.state, repeats)
		}
	}
	return nil
}
