// Package storagetest holds the behaviour every storage.GameStore must share.
package storagetest

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/buttonmen/internal/game/attack"
	"github.com/cory-johannsen/buttonmen/internal/game/button"
	"github.com/cory-johannsen/buttonmen/internal/game/dice"
	"github.com/cory-johannsen/buttonmen/internal/game/engine"
	"github.com/cory-johannsen/buttonmen/internal/storage"
)

// NewGame builds a game between alice and bob that is waiting on alice's
// first attack.
func NewGame(t *testing.T) *engine.Game {
	t.Helper()
	left, err := button.New("Avis", "(4) (4) (10) (12) (20)")
	require.NoError(t, err)
	right, err := button.New("Kith", "(6) (8) (12) (20) (20)")
	require.NoError(t, err)
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	g, err := engine.New(engine.Params{
		ID:        uuid.NewString(),
		PlayerIDs: []string{"alice", "bob"},
		Buttons:   []*button.Button{left, right},
		MaxWins:   3,
		Source:    dice.NewSeededSource(11),
		Clock: func() time.Time {
			now = now.Add(1500 * time.Microsecond)
			return now
		},
	})
	require.NoError(t, err)
	require.NoError(t, g.ProceedToNextUserAction())
	return g
}

// Run exercises a store created by newStore.
func Run(t *testing.T, newStore func(t *testing.T) storage.GameStore) {
	ctx := context.Background()

	t.Run("create and load", func(t *testing.T) {
		s := newStore(t)
		g := NewGame(t)
		require.NoError(t, s.CreateGame(ctx, g.Snapshot()))
		assert.ErrorIs(t, s.CreateGame(ctx, g.Snapshot()), storage.ErrGameExists)

		got, err := s.LoadGame(ctx, g.ID())
		require.NoError(t, err)
		assert.Equal(t, g.ID(), got.ID)
		assert.Equal(t, g.State(), got.State)
		assert.True(t, storage.Version(g.LastActionTime()).Equal(storage.Version(got.LastActionTime)))
		assert.Empty(t, got.Log, "log entries live in the action table")

		restored, err := engine.Restore(got, engine.Params{Source: dice.NewSeededSource(1)})
		require.NoError(t, err)
		assert.Equal(t, g.RoundScores(), restored.RoundScores())
	})

	t.Run("missing game", func(t *testing.T) {
		s := newStore(t)
		_, err := s.LoadGame(ctx, uuid.NewString())
		assert.ErrorIs(t, err, storage.ErrGameNotFound)
		_, err = s.RecentActions(ctx, uuid.NewString(), 5)
		assert.ErrorIs(t, err, storage.ErrGameNotFound)
	})

	t.Run("save appends tails", func(t *testing.T) {
		s := newStore(t)
		g := NewGame(t)
		require.NoError(t, s.CreateGame(ctx, g.Snapshot()))
		initial := g.ActionLog()
		g.DrainActionLog()
		loaded := g.LastActionTime()

		require.NoError(t, g.AddChat(0, "gl hf"))
		require.NoError(t, g.SubmitAttack(firstAttack(t, g)))
		actions, chat := g.DrainActionLog(), g.DrainChat()
		require.NotEmpty(t, actions)
		require.NoError(t, s.SaveGame(ctx, g.Snapshot(), loaded, actions, chat))

		got, err := s.LoadGame(ctx, g.ID())
		require.NoError(t, err)
		assert.Equal(t, g.State(), got.State)
		assert.Equal(t, g.ActivePlayer(), got.ActivePlayer)

		recent, err := s.RecentActions(ctx, g.ID(), 100)
		require.NoError(t, err)
		assert.Len(t, recent, len(initial)+len(actions))
		assert.Equal(t, actions[len(actions)-1].Kind, recent[len(recent)-1].Kind)

		last, err := s.RecentActions(ctx, g.ID(), 1)
		require.NoError(t, err)
		assert.Len(t, last, 1)

		msgs, err := s.RecentChat(ctx, g.ID(), 10)
		require.NoError(t, err)
		require.Len(t, msgs, 1)
		assert.Equal(t, "gl hf", msgs[0].Message)
	})

	t.Run("stale save rejected", func(t *testing.T) {
		s := newStore(t)
		g := NewGame(t)
		require.NoError(t, s.CreateGame(ctx, g.Snapshot()))
		loaded := g.LastActionTime()

		require.NoError(t, g.SubmitAttack(firstAttack(t, g)))
		require.NoError(t, s.SaveGame(ctx, g.Snapshot(), loaded, g.DrainActionLog(), nil))

		err := s.SaveGame(ctx, g.Snapshot(), loaded, nil, nil)
		assert.ErrorIs(t, err, storage.ErrStaleGame)
	})

	t.Run("list by player", func(t *testing.T) {
		s := newStore(t)
		a, b := NewGame(t), NewGame(t)
		require.NoError(t, s.CreateGame(ctx, a.Snapshot()))
		require.NoError(t, s.CreateGame(ctx, b.Snapshot()))

		games, err := s.ListGames(ctx, "alice")
		require.NoError(t, err)
		assert.Len(t, games, 2)
		for _, sum := range games {
			assert.Equal(t, storage.StatusActive, sum.Status)
			assert.Contains(t, sum.PlayerIDs, "alice")
		}
		none, err := s.ListGames(ctx, "mallory")
		require.NoError(t, err)
		assert.Empty(t, none)
	})
}

// firstAttack returns any legal attack for the active player.
func firstAttack(t *testing.T, g *engine.Game) engine.Attack {
	t.Helper()
	attacker := g.ActivePlayer()
	defender := 1 - attacker
	for i := range g.ActiveDice(attacker) {
		for j := range g.ActiveDice(defender) {
			a := engine.Attack{Attacker: attacker, Defender: defender, AttackerDice: []int{i}, DefenderDice: []int{j}, Type: attack.Power}
			if g.IsValidAttack(a) {
				return a
			}
		}
	}
	return engine.Attack{Attacker: attacker, Defender: engine.NoPlayer, Type: attack.Pass}
}
