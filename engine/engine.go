/*
Package engine composes the Xuankong core into one assessment.

PURPOSE:
  Runs the fixed pipeline for a house and a reference date and assembles a
  single AssessmentResult. The engine holds only immutable configuration, so
  one Engine serves any number of concurrent callers.

PIPELINE (fixed order):
  1. Resolve direction       (fatal on bad input)
  2. Resolve period(s)       (ambiguity recorded, never fatal)
  3. Generate plate(s)       (fatal: nothing downstream can run without a plate)
  4. Evaluate                (degrades to an empty palace set)
  5. Layer                   (degrades to the period evaluation)
  6. Personalize             (degrades to the layered evaluation)
  7. Detect patterns         (degrades to an empty result)
  8. Find positions          (degrades to "undetermined")
  9. Assemble

DEGRADATION:
  Stages 4-8 run under a recover guard. A failing stage is recorded in
  Meta.RulesApplied as "degraded:<stage>" and its neutral value is used.

SEE ALSO:
  - xuankong/: the pure computation core
  - api/handlers.go: HTTP adapter calling Assess
*/
package engine

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/qiflow/flyingstar/xuankong"
)

// =============================================================================
// RESULT TYPES
// =============================================================================

// Plates holds the period plate and any requested overlays.
type Plates struct {
	Period xuankong.Plate  `json:"period"`
	Year   *xuankong.Plate `json:"year,omitempty"`
	Month  *xuankong.Plate `json:"month,omitempty"`
	Day    *xuankong.Plate `json:"day,omitempty"`
}

// Meta records how the result was produced.
type Meta struct {
	RulesApplied  []string                          `json:"rules_applied"`
	Ambiguous     bool                              `json:"ambiguous"`
	Warnings      []xuankong.AmbiguousPeriodWarning `json:"warnings,omitempty"`
	Depth         Depth                             `json:"depth"`
	Profile       xuankong.EvaluationProfile        `json:"profile"`
	ReferenceDate xuankong.Date                     `json:"reference_date"`
	CurrentPeriod xuankong.Period                   `json:"current_period"`
}

// AssessmentResult is the complete, locale-neutral output of one assessment.
type AssessmentResult struct {
	Direction    xuankong.Direction          `json:"direction"`
	Period       xuankong.PeriodInfo         `json:"period"`
	SubPeriods   *xuankong.SubPeriods        `json:"sub_periods,omitempty"`
	Plates       Plates                      `json:"plates"`
	Evaluation   xuankong.LayeredEvaluation  `json:"evaluation"`
	Geju         xuankong.GejuResult         `json:"geju"`
	Wenchangwei  xuankong.Position           `json:"wenchangwei"`
	Caiwei       xuankong.Position           `json:"caiwei"`
	Lingzheng    *xuankong.LingzhengResult   `json:"lingzheng,omitempty"`
	Chengmenjue  *xuankong.ChengmenjueResult `json:"chengmenjue,omitempty"`
	OverallScore decimal.Decimal             `json:"overall_score"`
	Meta         Meta                        `json:"meta"`
}

// =============================================================================
// ENGINE
// =============================================================================

// Engine runs assessments. It is stateless apart from its configuration.
type Engine struct {
	cfg Config
}

// New validates the configuration and returns an engine.
func New(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{cfg: cfg}, nil
}

// Config returns a copy of the engine configuration.
func (e *Engine) Config() Config { return e.cfg }

// Rule codes recorded in Meta.RulesApplied.
const (
	RulePeriodOverride  = "period_override"
	RulePeriodBuildYear = "period_from_build_year"
	RulePeriodReference = "period_from_reference_date"
	RuleDepthBasic      = "depth_basic"
	RuleLiunian         = "liunian"
	RuleLingzheng       = "lingzheng"
	RuleChengmenjue     = "chengmenjue"
	RuleEmptyEvaluation = "overall_score_empty"
	degradedPrefix      = "degraded:"

	// RuleTiguaNotConcurrent notes a TiGua chart flown for a bearing that
	// does not lean toward a neighbouring mountain.
	RuleTiguaNotConcurrent = "tigua_not_concurrent"
)

// Assess runs the full pipeline for one request.
func (e *Engine) Assess(req Request) (AssessmentResult, error) {
	if err := req.Validate(); err != nil {
		return AssessmentResult{}, err
	}
	profile, _ := xuankong.ParseProfile(string(req.Toggles.EvaluationProfile))
	if req.Toggles.EvaluationProfile == "" {
		profile = e.cfg.DefaultProfile
	}
	depth, _ := ParseDepth(string(req.Toggles.Depth))
	basic := depth == DepthBasic

	res := AssessmentResult{
		Meta: Meta{
			RulesApplied:  []string{},
			Depth:         depth,
			Profile:       profile,
			ReferenceDate: req.ReferenceDate,
		},
	}
	meta := &res.Meta
	if basic {
		meta.RulesApplied = append(meta.RulesApplied, RuleDepthBasic)
	}

	// 1. direction
	dir, err := xuankong.ResolveDirection(req.FacingDegrees)
	if err != nil {
		return AssessmentResult{}, err
	}
	res.Direction = dir

	// 2. periods
	current := xuankong.PeriodForDate(req.ReferenceDate, e.cfg.AmbiguityWindowDays)
	meta.CurrentPeriod = current.Period
	res.Period = e.housePeriod(req, current)
	meta.RulesApplied = append(meta.RulesApplied, res.Period.RulesApplied...)
	meta.noteAmbiguity(res.Period)
	if req.PeriodOverride != 0 || req.BuildYear != 0 {
		// The reference-date period still drives CurrentPeriod and lingzheng.
		meta.RulesApplied = append(meta.RulesApplied, current.RulesApplied...)
		meta.noteAmbiguity(current)
	}

	// 3. plates
	tigua := req.Toggles.IncludeTigua && !basic
	fangua := req.Toggles.IncludeFanGua && !basic
	input := xuankong.GenerateInput{
		Period:        res.Period.Period,
		Facing:        dir.Facing.Name,
		Timeframe:     xuankong.TimeframePeriod,
		TiGua:         tigua,
		FanGua:        fangua,
		FacingDegrees: dir.Bearing,
		ReferenceDate: req.ReferenceDate,
	}
	periodPlate, err := xuankong.GeneratePlate(input)
	if err != nil {
		return AssessmentResult{}, fmt.Errorf("failed to generate period plate: %w", err)
	}
	periodPlate.Ambiguous = res.Period.Ambiguous
	res.Plates.Period = periodPlate
	meta.RulesApplied = append(meta.RulesApplied, periodPlate.RulesApplied...)
	if tigua && !dir.Concurrent {
		meta.RulesApplied = append(meta.RulesApplied, RuleTiguaNotConcurrent)
	}

	if !basic {
		sp := xuankong.SubPeriodsFor(req.ReferenceDate)
		overlayPlate := func(tf xuankong.Timeframe, seed xuankong.Star) (*xuankong.Plate, error) {
			if !req.wants(tf) {
				return nil, nil
			}
			in := input
			in.Seed = seed
			in.Timeframe = tf
			pl, err := xuankong.GeneratePlate(in)
			if err != nil {
				return nil, fmt.Errorf("failed to generate %s plate: %w", tf, err)
			}
			pl.Ambiguous = res.Period.Ambiguous
			return &pl, nil
		}
		if res.Plates.Year, err = overlayPlate(xuankong.TimeframeYear, sp.YearStar); err != nil {
			return AssessmentResult{}, err
		}
		if res.Plates.Month, err = overlayPlate(xuankong.TimeframeMonth, sp.MonthStar); err != nil {
			return AssessmentResult{}, err
		}
		if res.Plates.Day, err = overlayPlate(xuankong.TimeframeDay, sp.DayStar); err != nil {
			return AssessmentResult{}, err
		}
		if res.Plates.Year != nil || res.Plates.Month != nil || res.Plates.Day != nil {
			res.SubPeriods = &sp
		}
		if req.Toggles.IncludeLiunian {
			meta.RulesApplied = append(meta.RulesApplied, RuleLiunian)
		}
	}

	// 4. evaluate
	base := emptyEvaluation()
	var overlays xuankong.Overlays
	guard(meta, "evaluate", func() {
		base = xuankong.EvaluatePlate(periodPlate, profile)
		overlays.Year = evaluateOverlay(res.Plates.Year, profile)
		overlays.Month = evaluateOverlay(res.Plates.Month, profile)
		overlays.Day = evaluateOverlay(res.Plates.Day, profile)
	})

	// 5. layer
	layered := xuankong.LayeredEvaluation{Palaces: base.Palaces, Layers: []xuankong.Timeframe{xuankong.TimeframePeriod}, Notes: []string{}}
	guard(meta, "layer", func() {
		le, err := xuankong.Layer(base, overlays, e.cfg.Weights)
		if err != nil {
			panic(err)
		}
		layered = le
	})

	// 6. personalize
	if req.Personalization != nil && !req.Personalization.IsEmpty() && !basic {
		guard(meta, "personalize", func() {
			layered = xuankong.Personalize(layered, *req.Personalization, e.cfg.PersonalizationBonus)
		})
	}
	res.Evaluation = layered
	meta.RulesApplied = append(meta.RulesApplied, layered.Notes...)

	// 7. patterns
	res.Geju = xuankong.GejuResult{Types: []xuankong.GejuType{}, Descriptions: []string{}}
	guard(meta, "geju", func() {
		res.Geju = xuankong.DetectGeju(periodPlate)
	})
	if req.Toggles.IncludeLingzheng && !basic {
		guard(meta, "lingzheng", func() {
			env := xuankong.LingzhengEnvironment{}
			if req.Environment != nil {
				env = *req.Environment
			}
			lz, err := xuankong.Lingzheng(current, xuankong.SolarYear(req.ReferenceDate), env)
			if err != nil {
				panic(err)
			}
			res.Lingzheng = &lz
			if lz.Reversed {
				res.Geju = res.Geju.With(xuankong.GejuLingzhengReversed)
			}
			meta.RulesApplied = append(meta.RulesApplied, RuleLingzheng)
		})
	}
	if req.Toggles.IncludeChengmenjue && !basic {
		guard(meta, "chengmenjue", func() {
			cm, err := xuankong.Chengmenjue(periodPlate)
			if err != nil {
				panic(err)
			}
			res.Chengmenjue = &cm
			meta.RulesApplied = append(meta.RulesApplied, RuleChengmenjue)
		})
	}

	// 8. positions
	res.Wenchangwei = xuankong.Position{Label: xuankong.Undetermined}
	res.Caiwei = xuankong.Position{Label: xuankong.Undetermined}
	guard(meta, "positions", func() {
		pos := xuankong.FindPositions(periodPlate, layered.Evaluation())
		res.Wenchangwei = pos.Wenchang
		res.Caiwei = pos.Caiwei
	})

	// 9. assemble
	res.OverallScore = overallScore(layered)
	if len(layered.Palaces) == 0 {
		meta.RulesApplied = append(meta.RulesApplied, RuleEmptyEvaluation)
	}
	return res, nil
}

// housePeriod picks the period the house chart is flown for: an explicit
// override, then the build year, then the reference date.
func (e *Engine) housePeriod(req Request, current xuankong.PeriodInfo) xuankong.PeriodInfo {
	switch {
	case req.PeriodOverride != 0:
		info := xuankong.PeriodInfo{Period: req.PeriodOverride}
		info.RulesApplied = []string{RulePeriodOverride}
		return info
	case req.BuildYear != 0:
		info := xuankong.PeriodForBuildYear(req.BuildYear)
		info.RulesApplied = append([]string{RulePeriodBuildYear}, info.RulesApplied...)
		return info
	default:
		info := current
		info.RulesApplied = append([]string{RulePeriodReference}, info.RulesApplied...)
		return info
	}
}

// noteAmbiguity flags meta when info sits inside a period boundary window.
func (m *Meta) noteAmbiguity(info xuankong.PeriodInfo) {
	if !info.Ambiguous {
		return
	}
	m.Ambiguous = true
	if info.Warning != nil {
		m.Warnings = append(m.Warnings, *info.Warning)
	}
}

func evaluateOverlay(pl *xuankong.Plate, profile xuankong.EvaluationProfile) *xuankong.Evaluation {
	if pl == nil {
		return nil
	}
	ev := xuankong.EvaluatePlate(*pl, profile)
	return &ev
}

func emptyEvaluation() xuankong.Evaluation {
	return xuankong.Evaluation{
		Timeframe: xuankong.TimeframePeriod,
		Palaces:   map[xuankong.Palace]xuankong.PalaceEvaluation{},
	}
}

// guard runs one degradable stage. A panic or error raised inside it is
// recorded and swallowed; the caller keeps the stage's neutral value.
func guard(meta *Meta, stage string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			meta.RulesApplied = append(meta.RulesApplied, degradedPrefix+stage)
		}
	}()
	fn()
}

// overallScore is the mean of the layered palace scores, rounded half-up to
// two decimals. An empty evaluation scores zero.
func overallScore(le xuankong.LayeredEvaluation) decimal.Decimal {
	if len(le.Palaces) == 0 {
		return decimal.Zero
	}
	sum := decimal.Zero
	for _, pe := range le.Palaces {
		sum = sum.Add(pe.Score)
	}
	return sum.DivRound(decimal.NewFromInt(int64(len(le.Palaces))), 2)
}
