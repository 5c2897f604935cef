package engine

import "github.com/cory-johannsen/buttonmen/internal/game/dice"

// RoundScoreTimesTen sums the x10 scoring values of a player's active and
// captured dice. Dice in captured score at the captor's rate whatever their
// flags say. Integer arithmetic keeps the sum independent of order.
func RoundScoreTimesTen(active, captured []*dice.Die) int {
	total := 0
	for _, d := range active {
		total += d.ScoreTimesTenAs(false)
	}
	for _, d := range captured {
		total += d.ScoreTimesTenAs(true)
	}
	return total
}

func (g *Game) roundScoresTimesTen() []int {
	out := make([]int, len(g.playerIDs))
	for p := range g.playerIDs {
		out[p] = RoundScoreTimesTen(g.ActiveDice(p), g.captured[p])
	}
	return out
}

// RoundScores returns each player's current round score. Between rounds
// every score is zero.
func (g *Game) RoundScores() []float64 {
	out := make([]float64, len(g.playerIDs))
	for p, s := range g.roundScoresTimesTen() {
		out[p] = float64(s) / 10
	}
	return out
}
