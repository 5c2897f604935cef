package engine_test

import (
	"sync"
	"testing"
	"time"

	"github.com/cory-johannsen/buttonmen/internal/game/button"
	"github.com/cory-johannsen/buttonmen/internal/game/dice"
	"github.com/cory-johannsen/buttonmen/internal/game/engine"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// seqSrc replays vals in order, then returns 0. Values are clamped to n-1.
type seqSrc struct {
	mu    sync.Mutex
	vals  []int
	next  int
	calls int
}

func newSeq(vals ...int) *seqSrc { return &seqSrc{vals: vals} }

func (s *seqSrc) Intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	v := 0
	if s.next < len(s.vals) {
		v = s.vals[s.next]
		s.next++
	}
	if v >= n {
		v = n - 1
	}
	return v
}

func (s *seqSrc) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// fixedClock returns a clock that advances one second per call.
func fixedClock() func() time.Time {
	var mu sync.Mutex
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(time.Second)
		return now
	}
}

func mustButton(t testing.TB, name, recipe string) *button.Button {
	t.Helper()
	b, err := button.New(name, recipe)
	require.NoError(t, err)
	return b
}

func newParams(t testing.TB, src dice.Source, maxWins int, recipes ...string) engine.Params {
	t.Helper()
	ids := make([]string, len(recipes))
	buttons := make([]*button.Button, len(recipes))
	for i, r := range recipes {
		ids[i] = []string{"alice", "bob", "carol", "dave"}[i]
		buttons[i] = mustButton(t, ids[i]+"-button", r)
	}
	return engine.Params{
		ID:        "game-1",
		PlayerIDs: ids,
		Buttons:   buttons,
		MaxWins:   maxWins,
		Source:    src,
		Logger:    zaptest.NewLogger(t),
		Clock:     fixedClock(),
	}
}

// startGame builds a game from recipes and runs it to the first decision.
func startGame(t testing.TB, src dice.Source, maxWins int, recipes ...string) *engine.Game {
	t.Helper()
	g, err := engine.New(newParams(t, src, maxWins, recipes...))
	require.NoError(t, err)
	require.NoError(t, g.ProceedToNextUserAction())
	return g
}

func values(ds []*dice.Die) []int {
	out := make([]int, len(ds))
	for i, d := range ds {
		out[i] = d.Value
	}
	return out
}

func seededSource(seed int64) dice.Source { return dice.NewSeededSource(seed) }
