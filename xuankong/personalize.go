package xuankong

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// PERSONALIZATION - Favorable/unfavorable element adjustment
// =============================================================================

// DefaultPersonalizationBonus is the score moved by a favorable or
// unfavorable element match.
const DefaultPersonalizationBonus = 6

const NotePersonalizationApplied = "personalization_applied"

// PersonalizationProfile carries elements supplied by an external BaZi
// reading. The core treats it as opaque input.
type PersonalizationProfile struct {
	FavorableElements   []Element `json:"favorable_elements"`
	UnfavorableElements []Element `json:"unfavorable_elements"`
}

// IsEmpty reports whether the profile lists no element at all.
func (pp PersonalizationProfile) IsEmpty() bool {
	return len(pp.FavorableElements) == 0 && len(pp.UnfavorableElements) == 0
}

// Validate checks every listed element.
func (pp PersonalizationProfile) Validate() error {
	for _, list := range [2][]Element{pp.FavorableElements, pp.UnfavorableElements} {
		for _, e := range list {
			if _, err := ParseElement(string(e)); err != nil {
				return err
			}
		}
	}
	return nil
}

func containsElement(list []Element, e Element) bool {
	for _, x := range list {
		if x == e {
			return true
		}
	}
	return false
}

// Personalize adjusts each palace by its element: +bonus when favorable,
// -bonus when unfavorable, and no change with a personal_conflict reason
// when the element is listed as both. The input is not modified.
func Personalize(le LayeredEvaluation, profile PersonalizationProfile, bonus decimal.Decimal) LayeredEvaluation {
	out := LayeredEvaluation{
		Palaces: make(map[Palace]PalaceEvaluation, len(le.Palaces)),
		Layers:  append([]Timeframe(nil), le.Layers...),
		Notes:   append([]string{}, le.Notes...),
	}
	for p, pe := range le.Palaces {
		pe.Tags = append([]Tag(nil), pe.Tags...)
		pe.Reasons = append([]Reason(nil), pe.Reasons...)

		el := p.Info().Element
		fav := containsElement(profile.FavorableElements, el)
		unfav := containsElement(profile.UnfavorableElements, el)
		switch {
		case fav && unfav:
			pe.Reasons = append(pe.Reasons, Reason{Code: string(TagPersonalConflict), Delta: decimal.Zero})
			pe.Tags = append(pe.Tags, TagPersonalConflict)
		case fav:
			pe.Score = ClampScore(pe.Score.Add(bonus))
			pe.Reasons = append(pe.Reasons, Reason{Code: string(TagPersonalFavorable), Delta: bonus})
			pe.Tags = append(pe.Tags, TagPersonalFavorable)
		case unfav:
			pe.Score = ClampScore(pe.Score.Sub(bonus))
			pe.Reasons = append(pe.Reasons, Reason{Code: string(TagPersonalAdverse), Delta: bonus.Neg()})
			pe.Tags = append(pe.Tags, TagPersonalAdverse)
		}
		out.Palaces[p] = pe
	}
	out.Notes = append(out.Notes, NotePersonalizationApplied)
	return out
}
