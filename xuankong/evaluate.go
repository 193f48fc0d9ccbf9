package xuankong

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// PLATE EVALUATOR - Per-palace scoring
// =============================================================================

// EvaluationProfile scales rule deltas.
type EvaluationProfile string

const (
	ProfileStandard     EvaluationProfile = "standard"
	ProfileConservative EvaluationProfile = "conservative" // negatives weigh 1.5x
	ProfileAggressive   EvaluationProfile = "aggressive"   // positives weigh 1.5x
)

// ParseProfile validates a profile name. Empty means standard.
func ParseProfile(s string) (EvaluationProfile, error) {
	switch p := EvaluationProfile(s); p {
	case "":
		return ProfileStandard, nil
	case ProfileStandard, ProfileConservative, ProfileAggressive:
		return p, nil
	}
	return "", &InputValidationError{Field: "evaluation_profile", Value: s, Reason: "must be standard, conservative or aggressive"}
}

var profileFactor = decimal.NewFromFloat(1.5)

func (p EvaluationProfile) scale(delta decimal.Decimal) decimal.Decimal {
	switch {
	case p == ProfileConservative && delta.IsNegative():
		return delta.Mul(profileFactor)
	case p == ProfileAggressive && delta.IsPositive():
		return delta.Mul(profileFactor)
	}
	return delta
}

// PalaceEvaluation is the score of one palace and the rules that produced it.
type PalaceEvaluation struct {
	Palace  Palace          `json:"palace"`
	Score   decimal.Decimal `json:"score"`
	Tags    []Tag           `json:"tags"`
	Reasons []Reason        `json:"reasons"`
}

// HasTag reports whether the evaluation carries tag t.
func (pe PalaceEvaluation) HasTag(t Tag) bool {
	for _, x := range pe.Tags {
		if x == t {
			return true
		}
	}
	return false
}

// Evaluation scores every palace of one plate.
type Evaluation struct {
	Timeframe Timeframe                   `json:"timeframe"`
	Palaces   map[Palace]PalaceEvaluation `json:"palaces"`
}

// Score returns the score of palace p, or zero when it was not evaluated.
func (e *Evaluation) Score(p Palace) decimal.Decimal {
	if e == nil {
		return decimal.Zero
	}
	return e.Palaces[p].Score
}

// Rule codes, also used as tags.
const (
	TagElementGenerates  Tag = "element_generates"
	TagElementSame       Tag = "element_same"
	TagElementDrains     Tag = "element_drains"
	TagElementControls   Tag = "element_controls"
	TagElementCountered  Tag = "element_countered"
	TagFacingProsperous  Tag = "facing_prosperous"
	TagMountProsperous   Tag = "mountain_prosperous"
	TagFacingGrowing     Tag = "facing_growing"
	TagMountGrowing      Tag = "mountain_growing"
	TagFacingRetreating  Tag = "facing_retreating"
	TagFiveYellow        Tag = "five_yellow"
	TagTwoBlack          Tag = "two_black"
	TagCombinationOfTen  Tag = "combination_of_ten"
	TagPeriodTen         Tag = "period_ten"
	TagHiddenFuyin       Tag = "hidden_fuyin"
	TagReversedFanyin    Tag = "reversed_fanyin"
	TagPersonalFavorable Tag = "personal_favorable"
	TagPersonalAdverse   Tag = "personal_unfavorable"
	TagPersonalConflict  Tag = "personal_conflict"
)

type starPair [2]Star

func pairOf(a, b Star) starPair {
	if a > b {
		a, b = b, a
	}
	return starPair{a, b}
}

func (sp starPair) tag() Tag { return Tag(fmt.Sprintf("pair_%d_%d", sp[0], sp[1])) }

// Favorable and unfavorable mountain/facing pairings, unordered.
var (
	favorablePairs = map[starPair]int64{
		{1, 4}: 8, {1, 6}: 8, {6, 8}: 8, {8, 9}: 6, {1, 8}: 5, {2, 8}: 4,
	}
	unfavorablePairs = map[starPair]int64{
		{2, 5}: -15, {5, 5}: -15, {2, 2}: -10, {2, 3}: -10, {5, 9}: -10,
		{3, 7}: -8, {6, 7}: -8, {7, 9}: -8,
	}
)

// palaceScorer accumulates the deltas of one palace in rule order.
type palaceScorer struct {
	profile EvaluationProfile
	score   decimal.Decimal
	tags    []Tag
	reasons []Reason
}

func (s *palaceScorer) apply(tag Tag, delta int64) {
	d := s.profile.scale(decimal.NewFromInt(delta))
	s.score = s.score.Add(d)
	s.reasons = append(s.reasons, Reason{Code: string(tag), Delta: d})
	for _, t := range s.tags {
		if t == tag {
			return
		}
	}
	s.tags = append(s.tags, tag)
}

// EvaluatePlate scores all nine palaces of a plate. Every palace starts at
// 50, collects rule deltas in a fixed order and is clamped to [0, 100].
func EvaluatePlate(plate Plate, profile EvaluationProfile) Evaluation {
	if profile == "" {
		profile = ProfileStandard
	}
	ev := Evaluation{
		Timeframe: plate.Timeframe,
		Palaces:   make(map[Palace]PalaceEvaluation, len(AllPalaces)),
	}
	for _, p := range AllPalaces {
		ev.Palaces[p] = evaluateCell(plate.Cell(p), plate.Period, profile)
	}
	return ev
}

func evaluateCell(c PlateCell, period Period, profile EvaluationProfile) PalaceEvaluation {
	s := &palaceScorer{profile: profile, score: scoreBase}
	ps := period.Star()

	// 1. element relation of the period star to the palace
	starEl, palEl := c.PeriodStar.Element(), c.Palace.Info().Element
	switch {
	case starEl.Generates(palEl):
		s.apply(TagElementGenerates, 5)
	case starEl == palEl:
		s.apply(TagElementSame, 3)
	case palEl.Generates(starEl):
		s.apply(TagElementDrains, -2)
	case starEl.Controls(palEl):
		s.apply(TagElementControls, -5)
	case palEl.Controls(starEl):
		s.apply(TagElementCountered, -3)
	}

	// 2. timeliness
	switch c.FacingStar {
	case ps:
		s.apply(TagFacingProsperous, 15)
	case ps.Next():
		s.apply(TagFacingGrowing, 8)
	case ps.Prev():
		s.apply(TagFacingRetreating, 2)
	}
	switch c.MountainStar {
	case ps:
		s.apply(TagMountProsperous, 12)
	case ps.Next():
		s.apply(TagMountGrowing, 6)
	}

	// 3. afflictions
	for _, st := range [2]Star{c.MountainStar, c.FacingStar} {
		if st == 5 {
			s.apply(TagFiveYellow, -15)
		}
		if st == 2 && !st.TimelinessIn(period).Timely() {
			s.apply(TagTwoBlack, -10)
		}
	}

	// 4. combinations of ten
	if c.MountainStar+c.FacingStar == 10 {
		s.apply(TagCombinationOfTen, 10)
	}
	if c.PeriodStar+c.MountainStar == 10 || c.PeriodStar+c.FacingStar == 10 {
		s.apply(TagPeriodTen, 4)
	}

	// 5, 6. mountain/facing pairings
	pair := pairOf(c.MountainStar, c.FacingStar)
	if d, ok := favorablePairs[pair]; ok {
		s.apply(pair.tag(), d)
	}
	if d, ok := unfavorablePairs[pair]; ok {
		s.apply(pair.tag(), d)
	}

	// 7. hidden and reversed stars, outer palaces only
	if c.Palace.IsOuter() {
		home := c.Palace.Home()
		for _, st := range [2]Star{c.MountainStar, c.FacingStar} {
			if st == ps {
				continue
			}
			if st == home {
				s.apply(TagHiddenFuyin, -4)
			}
			if st+home == 10 {
				s.apply(TagReversedFanyin, -6)
			}
		}
	}

	return PalaceEvaluation{
		Palace:  c.Palace,
		Score:   ClampScore(s.score),
		Tags:    nonNilTags(s.tags),
		Reasons: nonNilReasons(s.reasons),
	}
}

func nonNilTags(t []Tag) []Tag {
	if t == nil {
		return []Tag{}
	}
	return t
}

func nonNilReasons(r []Reason) []Reason {
	if r == nil {
		return []Reason{}
	}
	return r
}
