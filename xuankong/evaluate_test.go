package xuankong_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qiflow/flyingstar/xuankong"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func reasonCodes(pe xuankong.PalaceEvaluation) []string {
	out := make([]string, 0, len(pe.Reasons))
	for _, r := range pe.Reasons {
		out = append(out, r.Code)
	}
	return out
}

func period9South(t *testing.T) xuankong.Plate {
	return mustPlate(t, xuankong.GenerateInput{Period: 9, Facing: xuankong.MountainWu})
}

func TestEvaluatePlate_RuleOrder(t *testing.T) {
	ev := xuankong.EvaluatePlate(period9South(t), xuankong.ProfileStandard)
	require.Len(t, ev.Palaces, 9)

	// South: period 4, mountain 1, facing 8.
	south := ev.Palaces[xuankong.PalaceLi]
	assert.Equal(t, []string{
		"element_generates", "facing_retreating", "mountain_growing", "pair_1_8", "reversed_fanyin",
	}, reasonCodes(south))
	assert.True(t, dec("62").Equal(south.Score), south.Score.String())

	// North: period 5, double 9.
	north := ev.Palaces[xuankong.PalaceKan]
	assert.Equal(t, []string{
		"element_controls", "facing_prosperous", "mountain_prosperous",
	}, reasonCodes(north))
	assert.True(t, dec("72").Equal(north.Score), north.Score.String())
	assert.True(t, north.HasTag(xuankong.TagFacingProsperous))

	// Northwest: period 1, mountain 4, facing 5.
	nw := ev.Palaces[xuankong.PalaceQian]
	assert.Equal(t, []string{"element_drains", "five_yellow", "reversed_fanyin"}, reasonCodes(nw))
	assert.True(t, dec("27").Equal(nw.Score), nw.Score.String())
}

func TestEvaluatePlate_Profiles(t *testing.T) {
	pl := period9South(t)

	conservative := xuankong.EvaluatePlate(pl, xuankong.ProfileConservative)
	assert.True(t, dec("69.5").Equal(conservative.Score(xuankong.PalaceKan)))

	aggressive := xuankong.EvaluatePlate(pl, xuankong.ProfileAggressive)
	assert.True(t, dec("85.5").Equal(aggressive.Score(xuankong.PalaceKan)))

	_, err := xuankong.ParseProfile("reckless")
	assert.ErrorIs(t, err, xuankong.ErrInvalidInput)
	p, err := xuankong.ParseProfile("")
	require.NoError(t, err)
	assert.Equal(t, xuankong.ProfileStandard, p)
}

func TestEvaluatePlate_ScoresStayInRange(t *testing.T) {
	hundred := decimal.NewFromInt(100)
	check := func(ev xuankong.Evaluation) {
		for p, pe := range ev.Palaces {
			require.False(t, pe.Score.IsNegative(), "palace %d", p)
			require.False(t, pe.Score.GreaterThan(hundred), "palace %d", p)
		}
	}
	profiles := []xuankong.EvaluationProfile{xuankong.ProfileStandard, xuankong.ProfileConservative, xuankong.ProfileAggressive}

	for period := xuankong.Period(1); period <= 9; period++ {
		for _, m := range xuankong.AllMountains() {
			pl := mustPlate(t, xuankong.GenerateInput{Period: period, Facing: m.Name, TiGua: true})
			for _, prof := range profiles {
				check(xuankong.EvaluatePlate(pl, prof))
			}
		}
	}

	// Degenerate plates that no flight can produce still clamp.
	for _, s := range []xuankong.Star{2, 5, 9} {
		var pl xuankong.Plate
		pl.Period = 9
		for i := range pl.Cells {
			pl.Cells[i] = xuankong.PlateCell{Palace: xuankong.Palace(i + 1), PeriodStar: s, MountainStar: s, FacingStar: s}
		}
		for _, prof := range profiles {
			ev := xuankong.EvaluatePlate(pl, prof)
			check(ev)
			if s == 5 && prof == xuankong.ProfileConservative {
				assert.True(t, ev.Score(xuankong.PalaceKan).IsZero())
			}
		}
	}
}

func TestStarMetadata(t *testing.T) {
	assert.Equal(t, xuankong.ElementWood, xuankong.Star(4).Element())
	assert.Equal(t, xuankong.NatureInauspicious, xuankong.Star(5).Nature())
	assert.Equal(t, xuankong.TimelinessProsperous, xuankong.Star(9).TimelinessIn(9))
	assert.Equal(t, xuankong.TimelinessGrowing, xuankong.Star(1).TimelinessIn(9))
	assert.Equal(t, xuankong.TimelinessGrowing, xuankong.Star(2).TimelinessIn(9))
	assert.Equal(t, xuankong.TimelinessRetreating, xuankong.Star(8).TimelinessIn(9))
	assert.Equal(t, xuankong.TimelinessDead, xuankong.Star(5).TimelinessIn(9))
	assert.True(t, xuankong.ElementWood.Generates(xuankong.ElementFire))
	assert.True(t, xuankong.ElementWater.Controls(xuankong.ElementFire))
}
