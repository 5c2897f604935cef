package attack_test

import (
	"fmt"
	"testing"

	"github.com/cory-johannsen/buttonmen/internal/game/attack"
	"github.com/cory-johannsen/buttonmen/internal/game/dice"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// fixedSrc always returns val from Intn.
type fixedSrc struct{ val int }

func (f fixedSrc) Intn(n int) int {
	if f.val >= n {
		return n - 1
	}
	return f.val
}

type fakeBoard struct {
	active    [][]*dice.Die
	captured  [][]*dice.Die
	src       dice.Source
	passes    int
	surrender int
	offensive bool
}

func newBoard(p0, p1 []*dice.Die) *fakeBoard {
	return &fakeBoard{
		active:    [][]*dice.Die{p0, p1},
		captured:  [][]*dice.Die{nil, nil},
		src:       fixedSrc{0},
		surrender: -1,
	}
}

func (b *fakeBoard) NumPlayers() int { return len(b.active) }
func (b *fakeBoard) ActiveDice(p int) []*dice.Die { return b.active[p] }
func (b *fakeBoard) Reroll(d *dice.Die) { d.Roll(b.src) }
func (b *fakeBoard) RecordPass() { b.passes++ }
func (b *fakeBoard) Surrender(p int) { b.surrender = p }
func (b *fakeBoard) HasOffensiveAttack() bool { return b.offensive }
func (b *fakeBoard) Capture(d *dice.Die, captor int) error {
	for p, ds := range b.active {
		for i, x := range ds {
			if x == d {
				b.active[p] = append(ds[:i:i], ds[i+1:]...)
				d.Captured = true
				d.Owner = captor
				b.captured[captor] = append(b.captured[captor], d)
				return nil
			}
		}
	}
	return fmt.Errorf("captured die does not exist")
}

func die(t *testing.T, recipe string, value int) *dice.Die {
	t.Helper()
	d, err := dice.ParseDie(recipe)
	require.NoError(t, err)
	d.Value = value
	return d
}

func TestSpeed_SumMustMatch(t *testing.T) {
	speed := attack.SpeedAttack{}
	att := die(t, "z(10)", 7)
	b := newBoard([]*dice.Die{att}, nil)

	assert.True(t, speed.Validate(b, []*dice.Die{att}, []*dice.Die{die(t, "(6)", 3), die(t, "(6)", 4)}))
	assert.False(t, speed.Validate(b, []*dice.Die{att}, []*dice.Die{die(t, "(6)", 3), die(t, "(6)", 3)}))
}

func TestSpeed_RequiresSpeedSkill(t *testing.T) {
	speed := attack.SpeedAttack{}
	att := die(t, "(10)", 7)
	b := newBoard([]*dice.Die{att}, nil)
	assert.False(t, speed.Validate(b, []*dice.Die{att}, []*dice.Die{die(t, "(6)", 7)}))
}

func TestPower(t *testing.T) {
	power := attack.PowerAttack{}
	b := newBoard(nil, nil)
	assert.True(t, power.Validate(b, []*dice.Die{die(t, "(6)", 5)}, []*dice.Die{die(t, "(8)", 5)}))
	assert.False(t, power.Validate(b, []*dice.Die{die(t, "(6)", 4)}, []*dice.Die{die(t, "(8)", 5)}))
	assert.False(t, power.Validate(b, []*dice.Die{die(t, "s(6)", 6)}, []*dice.Die{die(t, "(8)", 5)}),
		"shadow dice cannot power attack")
	disabled := die(t, "(6)", 6)
	disabled.Disabled = true
	assert.False(t, power.Validate(b, []*dice.Die{disabled}, []*dice.Die{die(t, "(8)", 5)}))
}

func TestSkill(t *testing.T) {
	skill := attack.SkillAttack{}
	b := newBoard(nil, nil)
	att := []*dice.Die{die(t, "(4)", 2), die(t, "(6)", 5)}
	assert.True(t, skill.Validate(b, att, []*dice.Die{die(t, "(10)", 7)}))
	assert.False(t, skill.Validate(b, att, []*dice.Die{die(t, "(10)", 6)}))
	assert.False(t, skill.Validate(b, att, []*dice.Die{die(t, "(10)", 7), die(t, "(4)", 1)}))
}

func TestShadow(t *testing.T) {
	shadow := attack.ShadowAttack{}
	b := newBoard(nil, nil)
	assert.True(t, shadow.Validate(b, []*dice.Die{die(t, "s(8)", 3)}, []*dice.Die{die(t, "(12)", 8)}))
	assert.False(t, shadow.Validate(b, []*dice.Die{die(t, "s(8)", 3)}, []*dice.Die{die(t, "(12)", 9)}))
	assert.False(t, shadow.Validate(b, []*dice.Die{die(t, "s(8)", 5)}, []*dice.Die{die(t, "(12)", 4)}))
	assert.False(t, shadow.Validate(b, []*dice.Die{die(t, "(8)", 3)}, []*dice.Die{die(t, "(12)", 5)}))
}

func TestTrip_CaptureDependsOnReroll(t *testing.T) {
	trip := attack.TripAttack{}
	att := die(t, "t(12)", 1)
	def := die(t, "(4)", 4)
	b := newBoard([]*dice.Die{att}, []*dice.Die{def})
	b.src = fixedSrc{9}
	require.True(t, trip.Validate(b, []*dice.Die{att}, []*dice.Die{def}))
	require.NoError(t, trip.Commit(b, 0, []*dice.Die{att}, []*dice.Die{def}))
	assert.Equal(t, 10, att.Value)
	assert.Equal(t, 4, def.Value)
	assert.True(t, def.Captured)
	assert.Len(t, b.captured[0], 1)

	att2 := die(t, "t(4)", 4)
	def2 := die(t, "(20)", 1)
	b2 := newBoard([]*dice.Die{att2}, []*dice.Die{def2})
	b2.src = fixedSrc{5}
	require.NoError(t, trip.Commit(b2, 0, []*dice.Die{att2}, []*dice.Die{def2}))
	assert.False(t, def2.Captured)
}

func TestPass_OnlyWhenNothingElse(t *testing.T) {
	pass := attack.PassAttack{}
	b := newBoard(nil, nil)
	assert.True(t, pass.Validate(b, nil, nil))
	b.offensive = true
	assert.False(t, pass.Validate(b, nil, nil))
	require.NoError(t, pass.Commit(b, 0, nil, nil))
	assert.Equal(t, 1, b.passes)
}

func TestSurrender(t *testing.T) {
	s := attack.SurrenderAttack{}
	b := newBoard(nil, nil)
	assert.True(t, s.Validate(b, nil, nil))
	assert.False(t, s.Selectable())
	require.NoError(t, s.Commit(b, 1, nil, nil))
	assert.Equal(t, 1, b.surrender)
}

func TestFind(t *testing.T) {
	p0 := []*dice.Die{die(t, "z(10)", 7), die(t, "(4)", 1)}
	p1 := []*dice.Die{die(t, "(6)", 3), die(t, "(6)", 4), die(t, "(20)", 18)}
	b := newBoard(p0, p1)
	assert.True(t, attack.SpeedAttack{}.Find(b, 0, 1))
	assert.True(t, attack.PowerAttack{}.Find(b, 0, 1))
	assert.False(t, attack.SkillAttack{}.Find(b, 0, 1), "no subset of 7 and 1 makes 3, 4 or 18")
	assert.False(t, attack.ShadowAttack{}.Find(b, 0, 1))
	assert.False(t, attack.SpeedAttack{}.Find(b, 1, 0))

	p1[2] = die(t, "(20)", 8)
	assert.True(t, attack.SkillAttack{}.Find(newBoard(p0, p1), 0, 1), "7 + 1 makes 8")
}

func TestCommit_CaptureAndReroll(t *testing.T) {
	att := die(t, "(10)", 7)
	def := die(t, "(6)", 6)
	b := newBoard([]*dice.Die{att}, []*dice.Die{def})
	b.src = fixedSrc{2}
	require.NoError(t, attack.PowerAttack{}.Commit(b, 0, []*dice.Die{att}, []*dice.Die{def}))
	assert.Empty(t, b.active[1])
	assert.Equal(t, []*dice.Die{def}, b.captured[0])
	assert.Equal(t, 3, att.Value)
	assert.Equal(t, 0, def.Owner)
}

func TestRegistry(t *testing.T) {
	r := attack.DefaultRegistry()
	assert.Equal(t, []attack.Type{
		attack.Power, attack.Skill, attack.Speed, attack.Shadow, attack.Trip, attack.Pass, attack.Surrender,
	}, r.Types())
	a, ok := r.Get(attack.Speed)
	require.True(t, ok)
	assert.Equal(t, attack.Speed, a.Type())
	_, ok = r.Get("Berserk")
	assert.False(t, ok)
	assert.Error(t, r.Register(attack.PowerAttack{}))
}

// TestSkill_Find_AgreesWithExhaustiveSearch compares the subset-sum search
// against brute force enumeration.
func TestSkill_Find_AgreesWithExhaustiveSearch(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		vals := rapid.SliceOfN(rapid.IntRange(1, 12), 1, 6).Draw(rt, "attackers")
		target := rapid.IntRange(1, 40).Draw(rt, "target")
		var att []*dice.Die
		for _, v := range vals {
			att = append(att, &dice.Die{Recipe: "(12)", Sides: 12, Value: v})
		}
		def := []*dice.Die{{Recipe: "(40)", Sides: 40, Value: target}}
		b := newBoard(att, def)

		want := false
		for mask := 1; mask < 1<<len(vals); mask++ {
			s := 0
			for i, v := range vals {
				if mask&(1<<i) != 0 {
					s += v
				}
			}
			if s == target {
				want = true
			}
		}
		assert.Equal(rt, want, attack.SkillAttack{}.Find(b, 0, 1))
	})
}
