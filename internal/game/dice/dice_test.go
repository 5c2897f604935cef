package dice_test

import (
	"testing"

	"github.com/cory-johannsen/buttonmen/internal/game/dice"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"pgregory.net/rapid"
)

func TestParseDie_Fixed(t *testing.T) {
	d, err := dice.ParseDie("(6)")
	require.NoError(t, err)
	assert.Equal(t, 6, d.Sides)
	assert.False(t, d.IsSwing())
	assert.Empty(t, d.Skills)
}

func TestParseDie_SkillsAndSwing(t *testing.T) {
	d, err := dice.ParseDie("zc(X)")
	require.NoError(t, err)
	assert.Equal(t, "X", d.SwingType)
	assert.False(t, d.IsSpecified())
	assert.True(t, d.HasSkill(dice.Speed))
	assert.True(t, d.HasSkill(dice.Chance))
	assert.False(t, d.HasSkill(dice.Focus))
}

func TestParseDie_Errors(t *testing.T) {
	for _, tok := range []string{"", "6", "(", "()", "q(6)", "zz(6)", "(0)", "(abc)", "(101)"} {
		_, err := dice.ParseDie(tok)
		assert.Error(t, err, "token %q must be rejected", tok)
	}
}

func TestParseRecipe(t *testing.T) {
	ds, err := dice.ParseRecipe("(4) z(8)  +(12) (X)")
	require.NoError(t, err)
	require.Len(t, ds, 4)
	assert.True(t, ds[2].HasSkill(dice.Auxiliary))
	assert.Equal(t, "X", ds[3].SwingType)

	_, err = dice.ParseRecipe("   ")
	assert.Error(t, err)
}

func TestStripSkill(t *testing.T) {
	assert.Equal(t, "z(6)", dice.StripSkill("+z(6)", dice.Auxiliary))
	assert.Equal(t, "(X)", dice.StripSkill("r(X)", dice.Reserve))
	assert.Equal(t, "(4)", dice.StripSkill("(4)", dice.Reserve))
}

func TestSetSwingValue_Range(t *testing.T) {
	d, err := dice.ParseDie("(X)")
	require.NoError(t, err)
	assert.Error(t, d.SetSwingValue(3))
	assert.Error(t, d.SetSwingValue(21))
	require.NoError(t, d.SetSwingValue(20))
	assert.Equal(t, 20, d.Sides)

	fixed, err := dice.ParseDie("(6)")
	require.NoError(t, err)
	assert.Error(t, fixed.SetSwingValue(6))
}

func TestCanPerform_SkillGrantsAndRestrictions(t *testing.T) {
	plain, _ := dice.ParseDie("(6)")
	speed, _ := dice.ParseDie("z(6)")
	shadow, _ := dice.ParseDie("s(6)")

	assert.True(t, plain.CanPerform("Power"))
	assert.True(t, plain.CanPerform("Skill"))
	assert.False(t, plain.CanPerform("Speed"))
	assert.True(t, speed.CanPerform("Speed"))
	assert.False(t, shadow.CanPerform("Power"))
	assert.True(t, shadow.CanPerform("Shadow"))
	assert.Equal(t, []string{"Skill", "Shadow"}, shadow.AttackTypes())
}

func TestScoreTimesTen(t *testing.T) {
	d, _ := dice.ParseDie("(10)")
	assert.Equal(t, 50, d.ScoreTimesTen())
	d.Captured = true
	assert.Equal(t, 100, d.ScoreTimesTen())

	p, _ := dice.ParseDie("p(10)")
	assert.Equal(t, -100, p.ScoreTimesTen())
	p.Captured = true
	assert.Equal(t, -50, p.ScoreTimesTen())

	n, _ := dice.ParseDie("n(10)")
	assert.Equal(t, 0, n.ScoreTimesTen())

	s, _ := dice.ParseDie("(X)")
	assert.Equal(t, 0, s.ScoreTimesTen(), "an unsized swing die scores 0")
}

func TestScoreTimesTenAs_IgnoresFlag(t *testing.T) {
	d, _ := dice.ParseDie("p(10)")
	assert.Equal(t, -50, d.ScoreTimesTenAs(true))
	d.Captured = true
	assert.Equal(t, -100, d.ScoreTimesTenAs(false))
}

func TestInitiativeValue_Slow(t *testing.T) {
	d, _ := dice.ParseDie("w(6)")
	d.Value = 5
	assert.Equal(t, 0, d.InitiativeValue())
	plain, _ := dice.ParseDie("(6)")
	plain.Value = 5
	assert.Equal(t, 5, plain.InitiativeValue())
}

func TestReactions(t *testing.T) {
	d, _ := dice.ParseDie("cf(6)")
	assert.Equal(t, []dice.Reaction{dice.ReactionChance, dice.ReactionFocus}, d.Reactions())
	assert.Equal(t, "chance", dice.ReactionChance.String())
}

func TestDescribe(t *testing.T) {
	d, _ := dice.ParseDie("z(X)")
	assert.Equal(t, "z(X)", d.Describe())
	require.NoError(t, d.SetSwingValue(12))
	d.Value = 3
	assert.Equal(t, "z(X=12):3", d.Describe())
}

func TestRoll_PanicsWhenUnspecified(t *testing.T) {
	d, _ := dice.ParseDie("(X)")
	assert.Panics(t, func() { d.Roll(dice.NewSeededSource(1)) })
}

func TestRoll_InRange_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		sides := rapid.IntRange(1, 100).Draw(rt, "sides")
		seed := rapid.Int64().Draw(rt, "seed")
		d := &dice.Die{Sides: sides}
		d.Roll(dice.NewSeededSource(seed))
		assert.GreaterOrEqual(rt, d.Value, 1)
		assert.LessOrEqual(rt, d.Value, sides)
	})
}

func TestSeededSource_Deterministic(t *testing.T) {
	a := dice.NewSeededSource(42)
	b := dice.NewSeededSource(42)
	for i := 0; i < 50; i++ {
		assert.Equal(t, a.Intn(1000), b.Intn(1000))
	}
}

func TestCryptoSource_Range(t *testing.T) {
	src := dice.NewCryptoSource()
	for i := 0; i < 100; i++ {
		v := src.Intn(6)
		assert.GreaterOrEqual(t, v, 0)
		assert.Less(t, v, 6)
	}
	assert.Panics(t, func() { src.Intn(0) })
}

func TestNewSeed(t *testing.T) {
	_, err := dice.NewSeed()
	require.NoError(t, err)
}

func TestLoggedRoller_Roll(t *testing.T) {
	r := dice.NewLoggedRoller(dice.NewSeededSource(7), zaptest.NewLogger(t))
	d := &dice.Die{Recipe: "(8)", Sides: 8}
	res := r.Roll(d)
	assert.Equal(t, d.Value, res.Value)
	assert.Equal(t, "(8)", res.Die)
	assert.Contains(t, res.String(), "→")
}

func TestRollResult_StringPanicsWithoutDie(t *testing.T) {
	assert.Panics(t, func() { _ = dice.RollResult{}.String() })
}

func TestSwingTypes_Sorted(t *testing.T) {
	types := dice.SwingTypes()
	require.Len(t, types, 9)
	assert.Equal(t, "R", types[0])
	assert.Equal(t, "Z", types[8])
}
