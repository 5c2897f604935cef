package engine_test

import (
	"testing"

	"github.com/cory-johannsen/buttonmen/internal/game/attack"
	"github.com/cory-johannsen/buttonmen/internal/game/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestView_HidesOpponentsBeforeFirstRoundStarts(t *testing.T) {
	g := startGame(t, newSeq(), 3, "(4) (X)", "(6) (8)")
	require.Equal(t, engine.StateSpecifyDice, g.State())

	v := g.View(0)
	assert.Equal(t, 1, v.Round)
	assert.Equal(t, []string{"X"}, v.Players[0].SwingRequests)
	assert.Nil(t, v.Players[1].SwingRequests)
	for _, p := range v.Players {
		assert.Nil(t, p.RoundScore)
		for _, d := range p.ActiveDice {
			assert.Nil(t, d.Value, "values hidden while a swing die is unsized")
		}
	}
	own := v.Players[0].ActiveDice
	require.NotNil(t, own[0].Sides, "own sizes stay visible")
	assert.Equal(t, 4, *own[0].Sides)
	assert.Equal(t, "(4)", own[0].Label)
	assert.Nil(t, own[1].Sides, "an unsized swing die has no size yet")
	for _, d := range v.Players[1].ActiveDice {
		assert.Nil(t, d.Sides, "opponent sizes hidden in the first round")
	}

	require.NoError(t, g.SubmitSwingValues(0, map[string]int{"X": 4}))
	v = g.View(1)
	require.Equal(t, engine.StateStartTurn, v.State)
	for _, p := range v.Players {
		require.NotNil(t, p.RoundScore)
		for _, d := range p.ActiveDice {
			assert.NotNil(t, d.Value)
			assert.NotNil(t, d.Sides)
		}
	}
	assert.Equal(t, "(X)", v.Players[0].ActiveDice[1].Recipe)
	assert.Equal(t, "(X=4)", v.Players[0].ActiveDice[1].Label)
}

func TestView_AttackMenuOnlyForActivePlayer(t *testing.T) {
	g := startGame(t, newSeq(6, 0, 2, 3, 17), 3, "z(10) (20)", "(6) (6) (20)")
	mine := g.View(0)
	assert.Contains(t, mine.ValidAttackTypes, string(attack.Speed))
	assert.Contains(t, mine.ValidAttackTypes, string(attack.Power))
	assert.NotContains(t, mine.ValidAttackTypes, string(attack.Surrender))
	assert.Empty(t, g.View(1).ValidAttackTypes)
	assert.Empty(t, g.View(engine.NoPlayer).ValidAttackTypes)
}

func TestView_MessageOnlyForAwaitedPlayer(t *testing.T) {
	g := startGame(t, newSeq(6, 0, 2, 2, 17), 3, "z(10) (20)", "(6) (6) (20)")
	_ = g.SubmitAttack(engine.Attack{Attacker: 0, Defender: 1, AttackerDice: []int{0}, DefenderDice: []int{0, 1}, Type: attack.Speed})
	assert.Equal(t, "Requested attack is not valid.", g.View(0).Message)
	assert.Empty(t, g.View(1).Message)
}
