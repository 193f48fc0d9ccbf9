package xuankong

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// LAYERING ENGINE - Blending year/month/day overlays into the period base
// =============================================================================

// TemporalWeights are the blend weights of the overlay timeframes.
type TemporalWeights struct {
	Year  decimal.Decimal `json:"year" yaml:"year"`
	Month decimal.Decimal `json:"month" yaml:"month"`
	Day   decimal.Decimal `json:"day" yaml:"day"`
}

// DefaultWeights returns year 0.3, month 0.2, day 0.1.
func DefaultWeights() TemporalWeights {
	return TemporalWeights{
		Year:  decimal.RequireFromString("0.3"),
		Month: decimal.RequireFromString("0.2"),
		Day:   decimal.RequireFromString("0.1"),
	}
}

// Validate rejects weights outside [0, 1].
func (w TemporalWeights) Validate() error {
	one := decimal.NewFromInt(1)
	for _, f := range []struct {
		name string
		v    decimal.Decimal
	}{{"weights.year", w.Year}, {"weights.month", w.Month}, {"weights.day", w.Day}} {
		if f.v.IsNegative() || f.v.GreaterThan(one) {
			return &InputValidationError{Field: f.name, Value: f.v.String(), Reason: "must be within [0, 1]"}
		}
	}
	return nil
}

func (w TemporalWeights) of(tf Timeframe) decimal.Decimal {
	switch tf {
	case TimeframeYear:
		return w.Year
	case TimeframeMonth:
		return w.Month
	case TimeframeDay:
		return w.Day
	}
	return decimal.Zero
}

// Overlays are the optional sub-period evaluations; nil entries are skipped.
type Overlays struct {
	Year  *Evaluation
	Month *Evaluation
	Day   *Evaluation
}

// LayeredEvaluation is the period evaluation with overlays blended in.
type LayeredEvaluation struct {
	Palaces map[Palace]PalaceEvaluation `json:"palaces"`
	Layers  []Timeframe                 `json:"layers"`
	Notes   []string                    `json:"notes"`
}

// Score returns the layered score of palace p.
func (le LayeredEvaluation) Score(p Palace) decimal.Decimal { return le.Palaces[p].Score }

// Evaluation returns the layered scores in the shape of a plain evaluation,
// used for tie-breaking positions.
func (le LayeredEvaluation) Evaluation() *Evaluation {
	return &Evaluation{Timeframe: TimeframePeriod, Palaces: le.Palaces}
}

const ReasonBlend = "blend"

// Layer blends the overlays into the base evaluation in the fixed order
// year, month, day:
//
//	score' = score*(1-w) + overlay*w
//
// Arithmetic is exact decimal. Tags are unioned and prefixed with the
// timeframe they came from.
func Layer(base Evaluation, overlays Overlays, weights TemporalWeights) (LayeredEvaluation, error) {
	if err := weights.Validate(); err != nil {
		return LayeredEvaluation{}, err
	}
	out := LayeredEvaluation{
		Palaces: make(map[Palace]PalaceEvaluation, len(base.Palaces)),
		Layers:  []Timeframe{TimeframePeriod},
		Notes:   []string{},
	}
	for p, pe := range base.Palaces {
		out.Palaces[p] = PalaceEvaluation{
			Palace:  p,
			Score:   pe.Score,
			Tags:    prefixTags(nil, pe.Tags, TimeframePeriod),
			Reasons: stampReasons(nil, pe.Reasons, TimeframePeriod),
		}
	}

	one := decimal.NewFromInt(1)
	steps := []struct {
		tf Timeframe
		ev *Evaluation
	}{{TimeframeYear, overlays.Year}, {TimeframeMonth, overlays.Month}, {TimeframeDay, overlays.Day}}

	for _, step := range steps {
		if step.ev == nil {
			continue
		}
		w := weights.of(step.tf)
		out.Layers = append(out.Layers, step.tf)
		for p, cur := range out.Palaces {
			ov, ok := step.ev.Palaces[p]
			if !ok {
				continue
			}
			blended := cur.Score.Mul(one.Sub(w)).Add(ov.Score.Mul(w))
			cur.Reasons = stampReasons(cur.Reasons, ov.Reasons, step.tf)
			cur.Reasons = append(cur.Reasons, Reason{Code: ReasonBlend, Delta: blended.Sub(cur.Score), Timeframe: step.tf})
			cur.Tags = prefixTags(cur.Tags, ov.Tags, step.tf)
			cur.Score = ClampScore(blended)
			out.Palaces[p] = cur
		}
	}
	return out, nil
}

func prefixTags(dst, src []Tag, tf Timeframe) []Tag {
	if dst == nil {
		dst = make([]Tag, 0, len(src))
	}
	for _, t := range src {
		dst = append(dst, t.WithPrefix(tf))
	}
	return dst
}

func stampReasons(dst, src []Reason, tf Timeframe) []Reason {
	if dst == nil {
		dst = make([]Reason, 0, len(src))
	}
	for _, r := range src {
		r.Timeframe = tf
		dst = append(dst, r)
	}
	return dst
}
