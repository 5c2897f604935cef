package engine_test

import (
	"sort"
	"testing"

	"github.com/cory-johannsen/buttonmen/internal/game/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestResolveInitiative(t *testing.T) {
	cases := []struct {
		name  string
		input [][]int
		want  []int
	}{
		{"lowest die wins", [][]int{{1, 5}, {6, 8}}, []int{0}},
		{"second position breaks tie", [][]int{{2, 8}, {2, 5}}, []int{1}},
		{"unsorted input", [][]int{{8, 2}, {5, 2}}, []int{1}},
		{"more dice wins exhausted tie", [][]int{{1, 1}, {1}}, []int{0}},
		{"identical lists tie", [][]int{{3, 4}, {4, 3}}, []int{0, 1}},
		{"no contributions tie", [][]int{{}, {}}, []int{0, 1}},
		{"empty loses", [][]int{{}, {20}}, []int{1}},
		{"three players", [][]int{{2, 9}, {2, 3}, {2, 3}}, []int{1, 2}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, engine.ResolveInitiative(tc.input))
		})
	}
}

func TestResolveInitiative_Properties(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(2, 4).Draw(rt, "players")
		lists := make([][]int, n)
		for i := range lists {
			lists[i] = rapid.SliceOfN(rapid.IntRange(1, 30), 0, 6).Draw(rt, "dice")
		}
		got := engine.ResolveInitiative(lists)
		require.NotEmpty(rt, got)
		assert.True(rt, sort.IntsAreSorted(got))

		// Reordering a player's dice never changes the result.
		shuffled := make([][]int, n)
		for i, l := range lists {
			c := append([]int(nil), l...)
			for j := len(c) - 1; j > 0; j-- {
				k := rapid.IntRange(0, j).Draw(rt, "swap")
				c[j], c[k] = c[k], c[j]
			}
			shuffled[i] = c
		}
		assert.Equal(rt, got, engine.ResolveInitiative(shuffled))

		// Survivors hold identical sorted lists.
		first := append([]int(nil), lists[got[0]]...)
		sort.Ints(first)
		for _, p := range got[1:] {
			other := append([]int(nil), lists[p]...)
			sort.Ints(other)
			if len(first) == len(other) {
				assert.Equal(rt, first, other)
			}
		}
	})
}

func TestInitiative_SourceOnlyOnTie(t *testing.T) {
	t.Run("outright", func(t *testing.T) {
		src := newSeq()
		g := startGame(t, src, 3, "(4)", "(6) (6)")
		assert.Equal(t, 1, g.InitiativeHolder())
		assert.Equal(t, 3, src.Calls(), "one call per die roll")
	})
	t.Run("tie", func(t *testing.T) {
		src := newSeq(0, 0, 0, 0, 1)
		g := startGame(t, src, 3, "(4) (10)", "(6) (10)")
		assert.Equal(t, 5, src.Calls(), "four rolls plus one tie-break")
		assert.Equal(t, 1, g.InitiativeHolder())
	})
}

func TestInitiative_SlowDiceDoNotCount(t *testing.T) {
	// p0 rolls a 1 on its slow die, which must not count.
	g := startGame(t, newSeq(0, 9, 1, 9), 3, "w(4) (10)", "(6) (10)")
	assert.Equal(t, 1, g.InitiativeHolder())
}

func TestInitiative_Deterministic(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		seed := rapid.Int64().Draw(rt, "seed")
		holders := make([]int, 2)
		for i := range holders {
			p := newParams(t, nil, 3, "(4) (6) (8)", "(6) (10) (12)")
			p.Source = seededSource(seed)
			g, err := engine.New(p)
			require.NoError(rt, err)
			require.NoError(rt, g.ProceedToNextUserAction())
			holders[i] = g.InitiativeHolder()
		}
		assert.Equal(rt, holders[0], holders[1])
	})
}
