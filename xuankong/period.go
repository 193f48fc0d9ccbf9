package xuankong

import (
	"time"
)

// =============================================================================
// PERIOD CALCULATOR - 20-year periods and their year/month/day sub-periods
// =============================================================================

const (
	// periodEpoch is the first year of Period 1 in the current great cycle.
	periodEpoch  = 1864
	periodLength = 20
	greatCycle   = 180

	// DefaultAmbiguityWindowDays is the distance from a period boundary inside
	// which a date is reported as ambiguous.
	DefaultAmbiguityWindowDays = 45

	RulePeriodBoundaryWindow = "period_boundary_window"
	RulePeriodBoundaryYear   = "period_boundary_year"
)

// lichun is the conventional start of the solar year (立春), fixed at Feb 4.
var lichun = struct {
	month time.Month
	day   int
}{time.February, 4}

// PeriodInfo is the resolved period for a date or build year. A period given
// explicitly carries no year range.
type PeriodInfo struct {
	Period       Period                  `json:"period"`
	StartYear    int                     `json:"start_year,omitempty"`
	EndYear      int                     `json:"end_year,omitempty"`
	Ambiguous    bool                    `json:"ambiguous"`
	RulesApplied []string                `json:"rules_applied,omitempty"`
	Warning      *AmbiguousPeriodWarning `json:"warning,omitempty"`
}

// PeriodForYear returns the period containing a solar year. It never fails:
// every year maps into the repeating 180-year cycle.
func PeriodForYear(solarYear int) PeriodInfo {
	offset := mod(solarYear-periodEpoch, greatCycle)
	start := solarYear - offset%periodLength
	return PeriodInfo{
		Period:    Period(offset/periodLength + 1),
		StartYear: start,
		EndYear:   start + periodLength - 1,
	}
}

// PeriodForBuildYear resolves the period of a construction year. A build year
// that opens a period is ambiguous because the month of completion decides
// which side of 立春 it falls on.
func PeriodForBuildYear(year int) PeriodInfo {
	info := PeriodForYear(year)
	if isPeriodStartYear(year) {
		info.Ambiguous = true
		info.RulesApplied = append(info.RulesApplied, RulePeriodBoundaryYear)
		info.Warning = &AmbiguousPeriodWarning{
			Period:   info.Period,
			Boundary: NewDate(year, lichun.month, lichun.day).String(),
			Rule:     RulePeriodBoundaryYear,
		}
	}
	return info
}

// PeriodForDate resolves the period of a calendar date using the 立春
// convention. Dates within windowDays of a period boundary are flagged as
// ambiguous; the standard-convention period is still returned.
func PeriodForDate(d Date, windowDays int) PeriodInfo {
	info := PeriodForYear(SolarYear(d))
	if windowDays < 0 {
		windowDays = 0
	}
	for _, y := range [2]int{d.Year(), d.Year() + 1} {
		if !isPeriodStartYear(y) {
			continue
		}
		boundary := NewDate(y, lichun.month, lichun.day)
		away := DaysBetween(d, boundary)
		if away < 0 {
			away = -away
		}
		if away <= windowDays {
			info.Ambiguous = true
			info.RulesApplied = append(info.RulesApplied, RulePeriodBoundaryWindow)
			info.Warning = &AmbiguousPeriodWarning{
				Period:   info.Period,
				Boundary: boundary.String(),
				DaysAway: away,
				Rule:     RulePeriodBoundaryWindow,
			}
			break
		}
	}
	return info
}

func isPeriodStartYear(y int) bool { return mod(y-periodEpoch, periodLength) == 0 }

// SolarYear returns the solar year a date belongs to: dates before 立春
// belong to the previous year.
func SolarYear(d Date) int {
	if d.Before(NewDate(d.Year(), lichun.month, lichun.day)) {
		return d.Year() - 1
	}
	return d.Year()
}

// =============================================================================
// SUB-PERIODS - Year, month and day center stars
// =============================================================================

// SubPeriods holds the center stars that seed the year, month and day charts.
type SubPeriods struct {
	SolarYear  int  `json:"solar_year"`
	SolarMonth int  `json:"solar_month"` // 1 = 寅 month starting at 立春
	YearStar   Star `json:"year_star"`
	MonthStar  Star `json:"month_star"`
	DayStar    Star `json:"day_star"`
}

// SubPeriodsFor computes every sub-period star for a date.
func SubPeriodsFor(d Date) SubPeriods {
	sy, idx := solarMonth(d)
	return SubPeriods{
		SolarYear:  sy,
		SolarMonth: idx + 1,
		YearStar:   YearStar(sy),
		MonthStar:  monthStarFor(sy, idx),
		DayStar:    DayStar(d),
	}
}

// YearStar returns the annual center star of a solar year (2024 -> 3).
func YearStar(solarYear int) Star {
	return Star(mod(10-mod(solarYear, 9), 9) + 1)
}

// MonthStar returns the monthly center star for a date.
func MonthStar(d Date) Star {
	sy, idx := solarMonth(d)
	return monthStarFor(sy, idx)
}

// jieDates are the fixed starts of the twelve solar months, in solar order
// from 寅 (Feb) to 丑 (Jan of the following calendar year).
var jieDates = [12]struct {
	month time.Month
	day   int
}{
	{time.February, 4}, {time.March, 6}, {time.April, 5}, {time.May, 6},
	{time.June, 6}, {time.July, 7}, {time.August, 8}, {time.September, 8},
	{time.October, 8}, {time.November, 7}, {time.December, 7}, {time.January, 6},
}

// firstMonthStar is keyed by the year branch group (branch mod 3):
// 子午卯酉 -> 8, 辰戌丑未 -> 5, 寅申巳亥 -> 2.
var firstMonthStar = [3]Star{8, 5, 2}

// solarMonth returns the solar year and zero-based solar month index of d.
func solarMonth(d Date) (int, int) {
	y := d.Year()
	if d.Before(NewDate(y, lichun.month, lichun.day)) {
		jan := jieDates[11]
		if d.Before(NewDate(y, jan.month, jan.day)) {
			return y - 1, 10
		}
		return y - 1, 11
	}
	idx := 0
	for i := 1; i < 11; i++ {
		j := jieDates[i]
		if d.Before(NewDate(y, j.month, j.day)) {
			break
		}
		idx = i
	}
	return y, idx
}

func monthStarFor(solarYear, monthIdx int) Star {
	branch := mod(solarYear-4, 12)
	return wrapStar(int(firstMonthStar[branch%3]) - monthIdx)
}

// DayStar returns the daily center star. Yang dun counts up from 1 starting
// at the 甲子 day nearest the winter solstice; yin dun counts down from 9
// starting at the 甲子 day nearest the summer solstice.
func DayStar(d Date) Star {
	jdn := d.JDN()
	y := d.Year()

	type anchor struct {
		jdn  int
		yang bool
	}
	candidates := [4]anchor{
		{nearestJiazi(NewDate(y-1, time.June, 21).JDN()), false},
		{nearestJiazi(NewDate(y-1, time.December, 21).JDN()), true},
		{nearestJiazi(NewDate(y, time.June, 21).JDN()), false},
		{nearestJiazi(NewDate(y, time.December, 21).JDN()), true},
	}
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.jdn <= jdn && c.jdn > best.jdn {
			best = c
		}
	}
	elapsed := mod(jdn-best.jdn, 9)
	if best.yang {
		return Star(elapsed + 1)
	}
	return Star(9 - elapsed)
}

// nearestJiazi returns the JDN of the 甲子 day closest to jdn.
func nearestJiazi(jdn int) int {
	offset := sexagenaryIndex(jdn)
	if offset <= 30 {
		return jdn - offset
	}
	return jdn + (60 - offset)
}
