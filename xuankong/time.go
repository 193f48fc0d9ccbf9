package xuankong

import (
	"strings"
	"time"
)

// =============================================================================
// DATE - Calendar day used for period and sub-period lookups
// =============================================================================

// Date is a calendar day in UTC. Period, month and day charts only depend on
// the civil date, so time of day is dropped on construction.
type Date struct {
	Time time.Time
}

const dateLayout = "2006-01-02"

// unixEpochJDN is the Julian Day Number of 1970-01-01.
const unixEpochJDN = 2440588

// Constructors
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func DateOf(t time.Time) Date { return NewDate(t.Year(), t.Month(), t.Day()) }

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, &InputValidationError{Field: "date", Value: s, Reason: "expected YYYY-MM-DD"}
	}
	return DateOf(t), nil
}

// Comparison
func (d Date) Before(other Date) bool { return d.Time.Before(other.Time) }
func (d Date) After(other Date) bool  { return d.Time.After(other.Time) }
func (d Date) Equal(other Date) bool  { return d.Time.Equal(other.Time) }

// Arithmetic
func (d Date) AddDays(n int) Date { return Date{Time: d.Time.AddDate(0, 0, n)} }

// Properties
func (d Date) Year() int         { return d.Time.Year() }
func (d Date) Month() time.Month { return d.Time.Month() }
func (d Date) Day() int          { return d.Time.Day() }
func (d Date) IsZero() bool      { return d.Time.IsZero() }

func (d Date) String() string { return d.Time.Format(dateLayout) }

func (d Date) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d *Date) UnmarshalText(b []byte) error {
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// JDN returns the Julian Day Number of the date.
func (d Date) JDN() int {
	return int(floorDiv(d.Time.Unix(), 86400)) + unixEpochJDN
}

// SexagenaryDay returns the index (0 = 甲子) of the day in the 60-day cycle.
func (d Date) SexagenaryDay() int { return sexagenaryIndex(d.JDN()) }

func sexagenaryIndex(jdn int) int { return mod(jdn+49, 60) }

// DaysBetween returns the signed number of days from one date to another.
func DaysBetween(from, to Date) int { return to.JDN() - from.JDN() }

func mod(a, n int) int { return ((a % n) + n) % n }

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
