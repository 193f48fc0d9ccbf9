package xuankong

import (
	"sort"
)

// =============================================================================
// POSITION FINDER - Wenchang (study) and Caiwei (wealth) palaces
// =============================================================================

// Undetermined is the label of a position no rule could place.
const Undetermined = "undetermined"

// Position is a located palace. When nothing matches, Palace is 0 and
// Label is Undetermined.
type Position struct {
	Palace Palace `json:"palace"`
	Label  string `json:"label"`
	Rule   string `json:"rule,omitempty"`
}

func undetermined() Position { return Position{Label: Undetermined} }

// Positions holds both located palaces.
type Positions struct {
	Wenchang Position `json:"wenchang"`
	Caiwei   Position `json:"caiwei"`
}

type positionRule struct {
	code  string
	match func(c PlateCell, period Period) bool
}

// Rules are tried in order; the first one with any matching outer palace wins.
var (
	wenchangRules = []positionRule{
		{"wenchang_one_four", func(c PlateCell, _ Period) bool {
			return hasStar(c, 1) && hasStar(c, 4)
		}},
		{"wenchang_facing_four", func(c PlateCell, _ Period) bool {
			return c.FacingStar == 4 && c.MountainStar != 5 && c.MountainStar != 2
		}},
	}
	caiweiRules = []positionRule{
		{"caiwei_prosperous_facing", func(c PlateCell, period Period) bool {
			return c.FacingStar == period.Star() && c.MountainStar != 5
		}},
		{"caiwei_growing_facing", func(c PlateCell, period Period) bool {
			return c.FacingStar == period.Star().Next()
		}},
	}
)

func hasStar(c PlateCell, s Star) bool {
	return c.PeriodStar == s || c.MountainStar == s || c.FacingStar == s
}

// FindPositions locates the Wenchang and Caiwei palaces. Ties between
// candidates go to the higher evaluation score, then the lower palace index.
// ev may be nil.
func FindPositions(plate Plate, ev *Evaluation) Positions {
	return Positions{
		Wenchang: locate(plate, ev, wenchangRules),
		Caiwei:   locate(plate, ev, caiweiRules),
	}
}

func locate(plate Plate, ev *Evaluation, rules []positionRule) Position {
	for _, r := range rules {
		var candidates []Palace
		for _, c := range plate.Cells {
			if c.Palace.IsOuter() && r.match(c, plate.Period) {
				candidates = append(candidates, c.Palace)
			}
		}
		if len(candidates) == 0 {
			continue
		}
		sort.SliceStable(candidates, func(i, j int) bool {
			si, sj := ev.Score(candidates[i]), ev.Score(candidates[j])
			if !si.Equal(sj) {
				return si.GreaterThan(sj)
			}
			return candidates[i] < candidates[j]
		})
		best := candidates[0]
		return Position{Palace: best, Label: best.Info().Direction, Rule: r.code}
	}
	return undetermined()
}
