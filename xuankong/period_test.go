package xuankong_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/qiflow/flyingstar/xuankong"
)

func TestPeriodForYear(t *testing.T) {
	cases := []struct {
		year   int
		period xuankong.Period
		start  int
	}{
		{1864, 1, 1864},
		{1883, 1, 1864},
		{2003, 7, 1984},
		{2023, 8, 2004},
		{2024, 9, 2024},
		{2043, 9, 2024},
		{2044, 1, 2044},
		{1863, 9, 1844},
	}
	for _, tc := range cases {
		info := xuankong.PeriodForYear(tc.year)
		assert.Equal(t, tc.period, info.Period, "year %d", tc.year)
		assert.Equal(t, tc.start, info.StartYear, "year %d", tc.year)
		assert.Equal(t, tc.start+19, info.EndYear, "year %d", tc.year)
	}
}

func TestPeriodForDate_LichunBoundary(t *testing.T) {
	// GIVEN: the day before and the day of 立春 2024
	before := xuankong.PeriodForDate(xuankong.NewDate(2024, time.February, 3), xuankong.DefaultAmbiguityWindowDays)
	on := xuankong.PeriodForDate(xuankong.NewDate(2024, time.February, 4), xuankong.DefaultAmbiguityWindowDays)

	// THEN: the period switches on 立春 and both are flagged ambiguous
	assert.Equal(t, xuankong.Period(8), before.Period)
	assert.Equal(t, xuankong.Period(9), on.Period)
	assert.True(t, before.Ambiguous)
	assert.True(t, on.Ambiguous)
	assert.Contains(t, on.RulesApplied, xuankong.RulePeriodBoundaryWindow)
	if assert.NotNil(t, on.Warning) {
		assert.Equal(t, "2024-02-04", on.Warning.Boundary)
		assert.Equal(t, 0, on.Warning.DaysAway)
	}
}

func TestPeriodForDate_Window(t *testing.T) {
	// 2024 is a leap year: Feb 4 -> Mar 20 is exactly 45 days.
	assert.True(t, xuankong.PeriodForDate(xuankong.NewDate(2024, time.March, 20), 45).Ambiguous)
	assert.False(t, xuankong.PeriodForDate(xuankong.NewDate(2024, time.March, 21), 45).Ambiguous)

	late := xuankong.PeriodForDate(xuankong.NewDate(2023, time.December, 25), 45)
	assert.True(t, late.Ambiguous)
	assert.Equal(t, xuankong.Period(8), late.Period)

	assert.False(t, xuankong.PeriodForDate(xuankong.NewDate(2026, time.October, 15), 45).Ambiguous)
	assert.False(t, xuankong.PeriodForDate(xuankong.NewDate(2024, time.February, 10), 0).Ambiguous)
}

func TestPeriodForBuildYear(t *testing.T) {
	info := xuankong.PeriodForBuildYear(2024)
	assert.True(t, info.Ambiguous)
	assert.Equal(t, []string{xuankong.RulePeriodBoundaryYear}, info.RulesApplied)

	info = xuankong.PeriodForBuildYear(2025)
	assert.False(t, info.Ambiguous)
	assert.Empty(t, info.RulesApplied)
}

func TestYearStar(t *testing.T) {
	assert.Equal(t, xuankong.Star(3), xuankong.YearStar(2024))
	assert.Equal(t, xuankong.Star(2), xuankong.YearStar(2025))
	assert.Equal(t, xuankong.Star(1), xuankong.YearStar(2026))
	assert.Equal(t, xuankong.Star(9), xuankong.YearStar(2027))
}

func TestMonthStar(t *testing.T) {
	cases := []struct {
		date xuankong.Date
		want xuankong.Star
	}{
		{xuankong.NewDate(2024, time.February, 10), 5}, // 辰 year, 寅 month
		{xuankong.NewDate(2024, time.March, 10), 4},
		{xuankong.NewDate(2025, time.January, 3), 4},  // still 子 month of 2024
		{xuankong.NewDate(2025, time.January, 10), 3}, // 丑 month of 2024
		{xuankong.NewDate(2026, time.February, 4), 8}, // 午 year
		{xuankong.NewDate(2026, time.October, 15), 9},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, xuankong.MonthStar(tc.date), tc.date.String())
	}
}

func TestDayStar(t *testing.T) {
	// 2024-01-01 is the 甲子 day nearest the 2023 winter solstice.
	jiazi := xuankong.NewDate(2024, time.January, 1)
	assert.Equal(t, 0, jiazi.SexagenaryDay())
	assert.Equal(t, xuankong.Star(1), xuankong.DayStar(jiazi))
	assert.Equal(t, xuankong.Star(2), xuankong.DayStar(jiazi.AddDays(1)))

	// 2024-06-29 is the 甲子 day nearest the summer solstice.
	yin := xuankong.NewDate(2024, time.June, 29)
	assert.Equal(t, 0, yin.SexagenaryDay())
	assert.Equal(t, xuankong.Star(9), xuankong.DayStar(yin))
	assert.Equal(t, xuankong.Star(8), xuankong.DayStar(yin.AddDays(1)))

	// The day before the yang anchor is 179 days into the 2023 yin cycle.
	assert.Equal(t, xuankong.Star(1), xuankong.DayStar(xuankong.NewDate(2023, time.December, 31)))

	assert.Equal(t, xuankong.Star(5), xuankong.DayStar(xuankong.NewDate(2024, time.June, 15)))
	assert.Equal(t, xuankong.Star(8), xuankong.DayStar(xuankong.NewDate(2026, time.October, 15)))
}

func TestSexagenaryDay_Reference(t *testing.T) {
	assert.Equal(t, 54, xuankong.NewDate(2000, time.January, 1).SexagenaryDay())
	assert.Equal(t, 2451545, xuankong.NewDate(2000, time.January, 1).JDN())
}

func TestSubPeriodsFor(t *testing.T) {
	sp := xuankong.SubPeriodsFor(xuankong.NewDate(2026, time.October, 15))
	assert.Equal(t, 2026, sp.SolarYear)
	assert.Equal(t, 9, sp.SolarMonth)
	assert.Equal(t, xuankong.Star(1), sp.YearStar)
	assert.Equal(t, xuankong.Star(9), sp.MonthStar)
	assert.Equal(t, xuankong.Star(8), sp.DayStar)

	sp = xuankong.SubPeriodsFor(xuankong.NewDate(2025, time.January, 20))
	assert.Equal(t, 2024, sp.SolarYear)
	assert.Equal(t, 12, sp.SolarMonth)
	assert.Equal(t, xuankong.Star(3), sp.YearStar)
}

func TestParseDate(t *testing.T) {
	d, err := xuankong.ParseDate("2024-02-04")
	assert.NoError(t, err)
	assert.Equal(t, xuankong.NewDate(2024, time.February, 4), d)

	_, err = xuankong.ParseDate("04/02/2024")
	assert.ErrorIs(t, err, xuankong.ErrInvalidInput)
}
