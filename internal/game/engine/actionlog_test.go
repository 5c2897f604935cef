package engine_test

import (
	"testing"

	"github.com/cory-johannsen/buttonmen/internal/game/attack"
	"github.com/cory-johannsen/buttonmen/internal/game/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFriendlyMessage_Attack(t *testing.T) {
	g := startGame(t, newSeq(6, 0, 2, 3, 17, 4), 3, "z(10) (20)", "(6) (6) (20)")
	require.NoError(t, g.SubmitAttack(engine.Attack{Attacker: 0, Defender: 1, AttackerDice: []int{0}, DefenderDice: []int{0, 1}, Type: attack.Speed}))

	log := g.DrainActionLog()
	require.NotEmpty(t, log)
	last := log[len(log)-1]
	assert.Equal(t,
		"alice performed Speed attack using [z(10):7] against [(6):3,(6):4]; "+
			"Defender (6) was captured; Defender (6) was captured; Attacker z(10) rerolled 7 => 5",
		last.FriendlyMessage(g.PlayerIDs(), g.RoundNumber(), g.State()))
	assert.Empty(t, g.ActionLog())
}

func TestFriendlyMessage_SwingHiddenDuringSpecify(t *testing.T) {
	e := engine.LogEntry{Kind: engine.KindChooseSwing, Actor: 0, Round: 2, Swing: map[string]int{"X": 7, "V": 10}}
	names := []string{"alice", "bob"}

	assert.Empty(t, e.FriendlyMessage(names, 2, engine.StateSpecifyDice))
	assert.Equal(t, "alice set swing values: V=10, X=7", e.FriendlyMessage(names, 2, engine.StateStartTurn))
	assert.Equal(t, "alice set swing values: V=10, X=7", e.FriendlyMessage(names, 3, engine.StateSpecifyDice))
}

func TestFriendlyMessage_Kinds(t *testing.T) {
	names := []string{"alice"}
	cases := []struct {
		entry engine.LogEntry
		want  string
	}{
		{engine.LogEntry{Kind: engine.KindDeclineInitiative, Actor: 0}, "alice chose not to try to gain initiative using chance or focus dice"},
		{engine.LogEntry{Kind: engine.KindAddAuxiliary, Actor: 0}, "alice chose to use auxiliary dice"},
		{engine.LogEntry{Kind: engine.KindDeclineReserve, Actor: 1}, "Player 2 chose not to add a reserve die"},
		{engine.LogEntry{Kind: engine.KindEndDraw, Actor: engine.NoPlayer, Round: 4, Scores: []float64{20, 20}}, "Round 4 ended in a draw (20 vs. 20)"},
		{engine.LogEntry{Kind: engine.KindReactFocus, Actor: 0, Dice: []engine.DieChange{{Label: "f(6)", Before: 6, After: 1}}}, "alice gained initiative by turning down focus dice: f(6) from 6 to 1"},
		{engine.LogEntry{Kind: engine.KindEndGame, Actor: engine.NoPlayer}, "The game has ended"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.entry.FriendlyMessage(names, 1, engine.StateStartTurn))
	}
}
