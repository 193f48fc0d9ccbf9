package engine_test

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/qiflow/flyingstar/engine"
	"github.com/qiflow/flyingstar/xuankong"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestEngine(t *testing.T) *engine.Engine {
	e, err := engine.New(engine.DefaultConfig())
	require.NoError(t, err)
	return e
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

var refDate = xuankong.NewDate(2026, time.October, 15)

// southFacing is a Period 9 house sitting north and facing south.
func southFacing() engine.Request {
	return engine.Request{
		FacingDegrees:  180,
		PeriodOverride: 9,
		ReferenceDate:  refDate,
	}
}

// =============================================================================
// PIPELINE
// =============================================================================

func TestAssess_PeriodOnly(t *testing.T) {
	e := newTestEngine(t)

	// WHEN: only the period plate is requested
	res, err := e.Assess(southFacing())
	require.NoError(t, err)

	// THEN: the chart is the classical Period 9 Zi/Wu plate
	assert.Equal(t, xuankong.MountainWu, res.Direction.Facing.Name)
	assert.Equal(t, xuankong.Palace(9), res.Direction.FacingPalace)
	assert.Equal(t, xuankong.Period(9), res.Period.Period)
	center := res.Plates.Period.Cell(xuankong.PalaceCenter)
	assert.Equal(t, xuankong.Star(9), center.PeriodStar)
	assert.Nil(t, res.Plates.Year)
	assert.Nil(t, res.Plates.Month)
	assert.Nil(t, res.Plates.Day)
	assert.Nil(t, res.SubPeriods)

	// AND: the evaluation is the period evaluation alone
	assert.Equal(t, []xuankong.Timeframe{xuankong.TimeframePeriod}, res.Evaluation.Layers)
	assert.True(t, dec("62").Equal(res.Evaluation.Score(xuankong.PalaceLi)))
	assert.True(t, dec("72").Equal(res.Evaluation.Score(xuankong.PalaceKan)))
	assert.True(t, dec("47.56").Equal(res.OverallScore), res.OverallScore.String())

	assert.Equal(t, []xuankong.GejuType{xuankong.GejuDoubleStarSitting, xuankong.GejuFanyinMountain}, res.Geju.Types)
	assert.Contains(t, res.Meta.RulesApplied, engine.RulePeriodOverride)
	assert.Equal(t, engine.DepthStandard, res.Meta.Depth)
	assert.Equal(t, xuankong.ProfileStandard, res.Meta.Profile)
	assert.Equal(t, xuankong.Period(9), res.Meta.CurrentPeriod)
	assert.False(t, res.Meta.Ambiguous)
}

func TestAssess_AllTimeframes(t *testing.T) {
	e := newTestEngine(t)

	// GIVEN: year, month and day overlays for 2026-10-15 (stars 1, 9, 8)
	req := southFacing()
	req.Timeframes = []xuankong.Timeframe{xuankong.TimeframeYear, xuankong.TimeframeMonth, xuankong.TimeframeDay}

	// WHEN
	res, err := e.Assess(req)
	require.NoError(t, err)

	// THEN: every plate is present and seeded by its sub-period star
	require.NotNil(t, res.Plates.Year)
	require.NotNil(t, res.Plates.Month)
	require.NotNil(t, res.Plates.Day)
	assert.Equal(t, xuankong.Star(1), res.Plates.Year.Cell(xuankong.PalaceCenter).PeriodStar)
	assert.Equal(t, xuankong.Star(9), res.Plates.Month.Cell(xuankong.PalaceCenter).PeriodStar)
	assert.Equal(t, xuankong.Star(8), res.Plates.Day.Cell(xuankong.PalaceCenter).PeriodStar)
	require.NotNil(t, res.SubPeriods)
	assert.Equal(t, xuankong.Star(1), res.SubPeriods.YearStar)

	// AND: the south palace is the exact sequential blend
	// 62*0.7*0.8*0.9 + 50*0.3*0.8*0.9 + 62*0.2*0.9 + 57*0.1
	assert.Equal(t, []xuankong.Timeframe{
		xuankong.TimeframePeriod, xuankong.TimeframeYear, xuankong.TimeframeMonth, xuankong.TimeframeDay,
	}, res.Evaluation.Layers)
	assert.True(t, dec("58.908").Equal(res.Evaluation.Score(xuankong.PalaceLi)), res.Evaluation.Score(xuankong.PalaceLi).String())
	assert.True(t, dec("69.568").Equal(res.Evaluation.Score(xuankong.PalaceKan)))
	assert.True(t, dec("47.10").Equal(res.OverallScore), res.OverallScore.String())
}

func TestAssess_LiunianAddsYearOverlay(t *testing.T) {
	e := newTestEngine(t)

	req := southFacing()
	req.Toggles.IncludeLiunian = true

	res, err := e.Assess(req)
	require.NoError(t, err)

	require.NotNil(t, res.Plates.Year)
	assert.Nil(t, res.Plates.Month)
	assert.Contains(t, res.Meta.RulesApplied, engine.RuleLiunian)
	assert.True(t, dec("58.4").Equal(res.Evaluation.Score(xuankong.PalaceLi)))
	assert.True(t, dec("46.92").Equal(res.OverallScore))
}

func TestAssess_Personalization(t *testing.T) {
	e := newTestEngine(t)

	plain, err := e.Assess(southFacing())
	require.NoError(t, err)

	// GIVEN: a resident for whom wood is favorable
	req := southFacing()
	req.Personalization = &xuankong.PersonalizationProfile{FavorableElements: []xuankong.Element{xuankong.ElementWood}}

	// WHEN
	res, err := e.Assess(req)
	require.NoError(t, err)

	// THEN: the wood palaces gain exactly the bonus, the others are untouched
	bonus := decimal.NewFromInt(xuankong.DefaultPersonalizationBonus)
	for _, p := range []xuankong.Palace{xuankong.PalaceZhen, xuankong.PalaceXun} {
		assert.True(t, plain.Evaluation.Score(p).Add(bonus).Equal(res.Evaluation.Score(p)), "palace %d", p)
	}
	assert.True(t, plain.Evaluation.Score(xuankong.PalaceLi).Equal(res.Evaluation.Score(xuankong.PalaceLi)))
	assert.Contains(t, res.Evaluation.Notes, xuankong.NotePersonalizationApplied)
	assert.Contains(t, res.Meta.RulesApplied, xuankong.NotePersonalizationApplied)
}

func TestAssess_PeriodFromBuildYearAndDate(t *testing.T) {
	e := newTestEngine(t)

	// GIVEN: a house built in 2010 and no override
	req := southFacing()
	req.PeriodOverride = 0
	req.BuildYear = 2010

	res, err := e.Assess(req)
	require.NoError(t, err)
	assert.Equal(t, xuankong.Period(8), res.Period.Period)
	assert.Contains(t, res.Meta.RulesApplied, engine.RulePeriodBuildYear)
	assert.Equal(t, xuankong.Period(9), res.Meta.CurrentPeriod)

	// GIVEN: neither override nor build year
	req.BuildYear = 0
	res, err = e.Assess(req)
	require.NoError(t, err)
	assert.Equal(t, xuankong.Period(9), res.Period.Period)
	assert.Contains(t, res.Meta.RulesApplied, engine.RulePeriodReference)
}

func TestAssess_AmbiguousPeriodIsRecorded(t *testing.T) {
	e := newTestEngine(t)

	// GIVEN: a reference date ten days before the 2024 Lichun
	req := southFacing()
	req.PeriodOverride = 0
	req.ReferenceDate = xuankong.NewDate(2024, time.January, 25)

	res, err := e.Assess(req)
	require.NoError(t, err)

	// THEN: the period is computed, flagged and warned about, not rejected
	assert.Equal(t, xuankong.Period(8), res.Period.Period)
	assert.True(t, res.Meta.Ambiguous)
	assert.True(t, res.Plates.Period.Ambiguous)
	require.Len(t, res.Meta.Warnings, 1)
	assert.Equal(t, 10, res.Meta.Warnings[0].DaysAway)
}

func TestAssess_AmbiguousReferenceWithBuildYear(t *testing.T) {
	e := newTestEngine(t)

	// GIVEN: a 2010 house assessed on the 2044 Lichun, the first day of Period 1
	req := southFacing()
	req.PeriodOverride = 0
	req.BuildYear = 2010
	req.ReferenceDate = xuankong.NewDate(2044, time.February, 4)
	req.Toggles.IncludeLingzheng = true

	res, err := e.Assess(req)
	require.NoError(t, err)

	// THEN: the house keeps Period 8 and its chart is not ambiguous
	assert.Equal(t, xuankong.Period(8), res.Period.Period)
	assert.False(t, res.Period.Ambiguous)
	assert.False(t, res.Plates.Period.Ambiguous)

	// AND: the current period driving lingzheng is flagged as ambiguous
	assert.Equal(t, xuankong.Period(1), res.Meta.CurrentPeriod)
	assert.True(t, res.Meta.Ambiguous)
	assert.Contains(t, res.Meta.RulesApplied, engine.RulePeriodBuildYear)
	assert.Contains(t, res.Meta.RulesApplied, xuankong.RulePeriodBoundaryWindow)
	require.Len(t, res.Meta.Warnings, 1)
	assert.Equal(t, xuankong.Period(1), res.Meta.Warnings[0].Period)
	assert.Equal(t, 0, res.Meta.Warnings[0].DaysAway)
	require.NotNil(t, res.Lingzheng)
	assert.Equal(t, xuankong.PalaceKan, res.Lingzheng.ZhengPalace)
}

func TestAssess_AmbiguousReferenceIsWarnedOnce(t *testing.T) {
	e := newTestEngine(t)

	// GIVEN: the house period comes from the same ambiguous reference date
	req := southFacing()
	req.PeriodOverride = 0
	req.ReferenceDate = xuankong.NewDate(2044, time.February, 4)

	res, err := e.Assess(req)
	require.NoError(t, err)

	// THEN: the boundary is reported once
	assert.True(t, res.Meta.Ambiguous)
	assert.Len(t, res.Meta.Warnings, 1)
	count := 0
	for _, r := range res.Meta.RulesApplied {
		if r == xuankong.RulePeriodBoundaryWindow {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestAssess_PeriodOverrideHasNoYearRange(t *testing.T) {
	e := newTestEngine(t)

	// WHEN: the period is given explicitly
	res, err := e.Assess(southFacing())
	require.NoError(t, err)

	// THEN: no made-up year range is serialized
	raw, err := json.Marshal(res.Period)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "start_year")
	assert.NotContains(t, string(raw), "end_year")

	// AND: a build year still reports its range
	req := southFacing()
	req.PeriodOverride = 0
	req.BuildYear = 2010
	res, err = e.Assess(req)
	require.NoError(t, err)
	assert.Equal(t, 2004, res.Period.StartYear)
	assert.Equal(t, 2023, res.Period.EndYear)
}

func TestAssess_BasicDepth(t *testing.T) {
	e := newTestEngine(t)

	// GIVEN: every toggle on but depth basic
	req := southFacing()
	req.Timeframes = []xuankong.Timeframe{xuankong.TimeframeYear, xuankong.TimeframeMonth}
	req.Toggles = engine.Toggles{
		IncludeLiunian:     true,
		IncludeTigua:       true,
		IncludeFanGua:      true,
		IncludeLingzheng:   true,
		IncludeChengmenjue: true,
		Depth:              engine.DepthBasic,
	}

	res, err := e.Assess(req)
	require.NoError(t, err)

	// THEN: only the untouched period plate is produced
	assert.Nil(t, res.Plates.Year)
	assert.Nil(t, res.Plates.Month)
	assert.Nil(t, res.Lingzheng)
	assert.Nil(t, res.Chengmenjue)
	assert.Equal(t, xuankong.Star(5), res.Plates.Period.Cell(xuankong.PalaceCenter).MountainStar)
	assert.Empty(t, res.Plates.Period.RulesApplied)
	assert.Contains(t, res.Meta.RulesApplied, engine.RuleDepthBasic)
	assert.True(t, dec("47.56").Equal(res.OverallScore))
}

func TestAssess_Supplements(t *testing.T) {
	e := newTestEngine(t)

	// GIVEN: water placed at the zheng-shen palace of Period 9
	req := southFacing()
	req.Environment = &xuankong.LingzhengEnvironment{WaterPalaces: []xuankong.Palace{xuankong.PalaceLi}}
	req.Toggles.IncludeLingzheng = true
	req.Toggles.IncludeChengmenjue = true

	res, err := e.Assess(req)
	require.NoError(t, err)

	require.NotNil(t, res.Lingzheng)
	assert.Equal(t, xuankong.PalaceLi, res.Lingzheng.ZhengPalace)
	assert.True(t, res.Lingzheng.Reversed)
	assert.Contains(t, res.Geju.Types, xuankong.GejuLingzhengReversed)
	assert.False(t, res.Geju.IsFavorable)

	require.NotNil(t, res.Chengmenjue)
	assert.Equal(t, xuankong.PalaceLi, res.Chengmenjue.FacingPalace)
	assert.Contains(t, res.Meta.RulesApplied, engine.RuleLingzheng)
	assert.Contains(t, res.Meta.RulesApplied, engine.RuleChengmenjue)
}

func TestAssess_Tigua(t *testing.T) {
	e := newTestEngine(t)

	req := southFacing()
	req.Toggles.IncludeTigua = true

	res, err := e.Assess(req)
	require.NoError(t, err)

	// THEN: the substitute stars replace both seeds (5/4 -> 1/6)
	center := res.Plates.Period.Cell(xuankong.PalaceCenter)
	assert.Equal(t, xuankong.Star(1), center.MountainStar)
	assert.Equal(t, xuankong.Star(6), center.FacingStar)
	assert.Contains(t, res.Meta.RulesApplied, xuankong.RuleTiguaFacing)

	// AND: a dead-center bearing is noted as not calling for substitution
	assert.False(t, res.Direction.Concurrent)
	assert.Contains(t, res.Meta.RulesApplied, engine.RuleTiguaNotConcurrent)
}

func TestAssess_TiguaOnConcurrentBearing(t *testing.T) {
	e := newTestEngine(t)

	// GIVEN: a Wu facing six degrees past center
	req := southFacing()
	req.FacingDegrees = 186
	req.Toggles.IncludeTigua = true

	res, err := e.Assess(req)
	require.NoError(t, err)

	// THEN: the same substitute chart is flown without the note
	assert.True(t, res.Direction.Concurrent)
	center := res.Plates.Period.Cell(xuankong.PalaceCenter)
	assert.Equal(t, xuankong.Star(1), center.MountainStar)
	assert.Equal(t, xuankong.Star(6), center.FacingStar)
	assert.NotContains(t, res.Meta.RulesApplied, engine.RuleTiguaNotConcurrent)

	// AND: without the toggle nothing is noted either
	req.FacingDegrees = 180
	req.Toggles.IncludeTigua = false
	res, err = e.Assess(req)
	require.NoError(t, err)
	assert.NotContains(t, res.Meta.RulesApplied, engine.RuleTiguaNotConcurrent)
}

func TestAssess_ConservativeProfile(t *testing.T) {
	e := newTestEngine(t)

	req := southFacing()
	req.Toggles.EvaluationProfile = xuankong.ProfileConservative

	res, err := e.Assess(req)
	require.NoError(t, err)
	assert.Equal(t, xuankong.ProfileConservative, res.Meta.Profile)
	assert.True(t, dec("69.5").Equal(res.Evaluation.Score(xuankong.PalaceKan)))
}

func TestAssess_RejectsBadInput(t *testing.T) {
	e := newTestEngine(t)

	tests := []struct {
		name   string
		mutate func(r *engine.Request)
	}{
		{"missing reference date", func(r *engine.Request) { r.ReferenceDate = xuankong.Date{} }},
		{"period out of range", func(r *engine.Request) { r.PeriodOverride = 10 }},
		{"negative build year", func(r *engine.Request) { r.BuildYear = -1 }},
		{"unknown timeframe", func(r *engine.Request) { r.Timeframes = []xuankong.Timeframe{"week"} }},
		{"unknown profile", func(r *engine.Request) { r.Toggles.EvaluationProfile = "reckless" }},
		{"unknown depth", func(r *engine.Request) { r.Toggles.Depth = "deep" }},
		{"inner environment palace", func(r *engine.Request) {
			r.Environment = &xuankong.LingzhengEnvironment{WaterPalaces: []xuankong.Palace{xuankong.PalaceCenter}}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := southFacing()
			tt.mutate(&req)
			_, err := e.Assess(req)
			require.Error(t, err)
			assert.True(t, xuankong.IsClientError(err), err.Error())
		})
	}
}

func TestAssess_ConcurrentCallsAgree(t *testing.T) {
	defer goleak.VerifyNone(t)
	e := newTestEngine(t)

	req := southFacing()
	req.Timeframes = []xuankong.Timeframe{xuankong.TimeframeYear, xuankong.TimeframeDay}
	want, err := e.Assess(req)
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]engine.AssessmentResult, 32)
	errs := make([]error, len(results))
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = e.Assess(req)
		}(i)
	}
	wg.Wait()

	for i := range results {
		require.NoError(t, errs[i])
		assert.Equal(t, want, results[i])
	}
}

// =============================================================================
// CONFIG
// =============================================================================

func TestNew_RejectsBadConfig(t *testing.T) {
	cfg := engine.DefaultConfig()
	cfg.Weights.Year = dec("1.5")
	_, err := engine.New(cfg)
	assert.ErrorIs(t, err, xuankong.ErrInvalidInput)
}

func TestParseConfig(t *testing.T) {
	cfg, err := engine.ParseConfig([]byte(`
weights:
  year: 0.5
personalization_bonus: 10
default_profile: aggressive
`))
	require.NoError(t, err)

	// THEN: given keys override, absent keys keep their defaults
	assert.True(t, dec("0.5").Equal(cfg.Weights.Year))
	assert.True(t, dec("0.2").Equal(cfg.Weights.Month))
	assert.True(t, dec("10").Equal(cfg.PersonalizationBonus))
	assert.Equal(t, xuankong.DefaultAmbiguityWindowDays, cfg.AmbiguityWindowDays)
	assert.Equal(t, xuankong.ProfileAggressive, cfg.DefaultProfile)

	_, err = engine.ParseConfig([]byte("default_profile: reckless"))
	assert.Error(t, err)

	_, err = engine.ParseConfig([]byte("weights: [1, 2"))
	assert.Error(t, err)
}

func TestLoadConfig_EmptyPathIsDefault(t *testing.T) {
	cfg, err := engine.LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, engine.DefaultConfig(), cfg)
}

func TestAssess_DefaultProfileFromConfig(t *testing.T) {
	cfg := engine.DefaultConfig()
	cfg.DefaultProfile = xuankong.ProfileAggressive
	e, err := engine.New(cfg)
	require.NoError(t, err)

	res, err := e.Assess(southFacing())
	require.NoError(t, err)
	assert.Equal(t, xuankong.ProfileAggressive, res.Meta.Profile)
	assert.True(t, dec("85.5").Equal(res.Evaluation.Score(xuankong.PalaceKan)))
}
