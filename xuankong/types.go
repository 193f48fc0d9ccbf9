/*
Package xuankong provides the Flying Star (Xuankong) computation core.

PURPOSE:
  Given a building's facing bearing and a reference time, the package
  resolves the facing/sitting mountains, determines the 20-year period,
  flies the period/mountain/facing stars across the nine Luoshu palaces,
  scores every palace, layers timeframes, applies personalization, detects
  named formations (geju) and locates the Wenchang and Caiwei positions.

KEY CONCEPTS IN THIS FILE (types.go):
  - Star: one of the nine flying stars (1-9), each with an element
  - Palace: one of the nine Luoshu palaces (1-9, 5 is the center)
  - Element: the five phases and their generating/controlling cycles
  - FlightDirection: forward or reverse travel along the Luoshu path
  - Tag/Reason: typed, locale-neutral evaluation output

DESIGN PRINCIPLES:
  1. Purity: no I/O, no clocks, no shared mutable state
  2. Immutable tables: lookup data is built once at package init
  3. Precision: scores are decimal.Decimal so blends are exact
  4. Locale neutrality: output is codes and numbers, never prose

SEE ALSO:
  - palace.go, mountain.go: static compass tables
  - plate.go: the flying algorithm
  - evaluate.go: palace scoring rules
*/
package xuankong

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// STAR - The nine flying stars
// =============================================================================

type Star int

// Valid reports whether the star is within 1-9.
func (s Star) Valid() bool { return s >= 1 && s <= 9 }

// Next returns the star that follows s in the 1..9 cycle (9 -> 1).
func (s Star) Next() Star { return wrapStar(int(s) + 1) }

// Prev returns the star that precedes s in the 1..9 cycle (1 -> 9).
func (s Star) Prev() Star { return wrapStar(int(s) - 1) }

// Complement returns 10-s, the star that forms a combination of ten with s.
func (s Star) Complement() Star { return Star(10 - int(s)) }

// Element returns the innate element of the star.
func (s Star) Element() Element {
	if !s.Valid() {
		return ""
	}
	return starElements[s]
}

// Nature returns the classical nature of the star.
func (s Star) Nature() StarNature {
	if !s.Valid() {
		return ""
	}
	return starNatures[s]
}

// wrapStar folds any integer into the 1..9 cycle.
func wrapStar(n int) Star {
	return Star(((n-1)%9+9)%9 + 1)
}

type StarNature string

const (
	NatureAuspicious   StarNature = "auspicious"
	NatureInauspicious StarNature = "inauspicious"
	NatureNeutral      StarNature = "neutral"
)

var starElements = [10]Element{
	1: ElementWater,
	2: ElementEarth,
	3: ElementWood,
	4: ElementWood,
	5: ElementEarth,
	6: ElementMetal,
	7: ElementMetal,
	8: ElementEarth,
	9: ElementFire,
}

var starNatures = [10]StarNature{
	1: NatureAuspicious,
	2: NatureInauspicious,
	3: NatureInauspicious,
	4: NatureAuspicious,
	5: NatureInauspicious,
	6: NatureAuspicious,
	7: NatureNeutral,
	8: NatureAuspicious,
	9: NatureAuspicious,
}

// Timeliness classifies a star relative to the ruling period.
type Timeliness string

const (
	TimelinessProsperous Timeliness = "prosperous" // equals the period
	TimelinessGrowing    Timeliness = "growing"    // the next two stars
	TimelinessRetreating Timeliness = "retreating" // the previous star
	TimelinessDead       Timeliness = "dead"
)

// TimelinessIn returns how timely star s is in the given period.
func (s Star) TimelinessIn(period Period) Timeliness {
	p := Star(period)
	switch s {
	case p:
		return TimelinessProsperous
	case p.Next(), p.Next().Next():
		return TimelinessGrowing
	case p.Prev():
		return TimelinessRetreating
	default:
		return TimelinessDead
	}
}

// Timely reports whether the star is prosperous or growing.
func (t Timeliness) Timely() bool {
	return t == TimelinessProsperous || t == TimelinessGrowing
}

// =============================================================================
// ELEMENT - Five phases
// =============================================================================

type Element string

const (
	ElementWater Element = "water"
	ElementWood  Element = "wood"
	ElementFire  Element = "fire"
	ElementEarth Element = "earth"
	ElementMetal Element = "metal"
)

// ParseElement validates an element name.
func ParseElement(s string) (Element, error) {
	switch e := Element(s); e {
	case ElementWater, ElementWood, ElementFire, ElementEarth, ElementMetal:
		return e, nil
	}
	return "", &InputValidationError{Field: "element", Value: s, Reason: "unknown element"}
}

var generates = map[Element]Element{
	ElementWood:  ElementFire,
	ElementFire:  ElementEarth,
	ElementEarth: ElementMetal,
	ElementMetal: ElementWater,
	ElementWater: ElementWood,
}

var controls = map[Element]Element{
	ElementWood:  ElementEarth,
	ElementEarth: ElementWater,
	ElementWater: ElementFire,
	ElementFire:  ElementMetal,
	ElementMetal: ElementWood,
}

// Generates reports whether e feeds other in the generating cycle.
func (e Element) Generates(other Element) bool { return generates[e] == other }

// Controls reports whether e restrains other in the controlling cycle.
func (e Element) Controls(other Element) bool { return controls[e] == other }

// =============================================================================
// PERIOD - 20-year era, 1-9
// =============================================================================

type Period int

func (p Period) Valid() bool { return p >= 1 && p <= 9 }

// Star returns the star that rules the period.
func (p Period) Star() Star { return Star(p) }

// =============================================================================
// FLIGHT DIRECTION
// =============================================================================

// FlightDirection is the travel direction along the Luoshu path.
type FlightDirection int

const (
	Forward FlightDirection = iota
	Reverse
)

func (d FlightDirection) String() string {
	if d == Reverse {
		return "reverse"
	}
	return "forward"
}

func (d FlightDirection) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d *FlightDirection) UnmarshalText(b []byte) error {
	switch string(b) {
	case "forward":
		*d = Forward
	case "reverse":
		*d = Reverse
	default:
		return &InputValidationError{Field: "flight", Value: string(b), Reason: "must be forward or reverse"}
	}
	return nil
}

// =============================================================================
// TIMEFRAME
// =============================================================================

type Timeframe string

const (
	TimeframePeriod Timeframe = "period"
	TimeframeYear   Timeframe = "year"
	TimeframeMonth  Timeframe = "month"
	TimeframeDay    Timeframe = "day"
)

// ParseTimeframe validates an overlay timeframe name.
func ParseTimeframe(s string) (Timeframe, error) {
	switch t := Timeframe(s); t {
	case TimeframePeriod, TimeframeYear, TimeframeMonth, TimeframeDay:
		return t, nil
	}
	return "", &InputValidationError{Field: "timeframe", Value: s, Reason: "unknown timeframe"}
}

// =============================================================================
// TAGS AND REASONS - Locale-neutral evaluation output
// =============================================================================

// Tag is a typed label attached to a palace evaluation, e.g. "facing_prosperous"
// or, after layering, "year:five_yellow".
type Tag string

// WithPrefix returns the tag qualified by the timeframe it came from.
func (t Tag) WithPrefix(tf Timeframe) Tag { return Tag(string(tf) + ":" + string(t)) }

// Reason records one rule that moved a palace score.
type Reason struct {
	Code      string          `json:"code"`
	Delta     decimal.Decimal `json:"delta"`
	Timeframe Timeframe       `json:"timeframe,omitempty"`
}

func (r Reason) String() string {
	sign := ""
	if r.Delta.IsPositive() {
		sign = "+"
	}
	if r.Timeframe != "" {
		return fmt.Sprintf("%s:%s(%s%s)", r.Timeframe, r.Code, sign, r.Delta.String())
	}
	return fmt.Sprintf("%s(%s%s)", r.Code, sign, r.Delta.String())
}

// =============================================================================
// SCORE HELPERS
// =============================================================================

var (
	scoreMin  = decimal.Zero
	scoreMax  = decimal.NewFromInt(100)
	scoreBase = decimal.NewFromInt(50)
)

// ClampScore bounds a score to [0, 100].
func ClampScore(d decimal.Decimal) decimal.Decimal {
	if d.LessThan(scoreMin) {
		return scoreMin
	}
	if d.GreaterThan(scoreMax) {
		return scoreMax
	}
	return d
}
