package engine

import (
	"math"

	"github.com/qiflow/flyingstar/xuankong"
)

// =============================================================================
// REQUEST - One assessment
// =============================================================================

// Depth selects how much of the analysis runs.
type Depth string

const (
	DepthBasic         Depth = "basic" // period plate only
	DepthStandard      Depth = "standard"
	DepthComprehensive Depth = "comprehensive"
	DepthExpert        Depth = "expert"
)

// ParseDepth validates a depth name. Empty means standard.
func ParseDepth(s string) (Depth, error) {
	switch d := Depth(s); d {
	case "":
		return DepthStandard, nil
	case DepthBasic, DepthStandard, DepthComprehensive, DepthExpert:
		return d, nil
	}
	return "", &xuankong.InputValidationError{Field: "depth", Value: s, Reason: "must be basic, standard, comprehensive or expert"}
}

// Toggles switch optional rule sets on. Each toggle only touches the plates
// and sections it names.
type Toggles struct {
	IncludeLiunian     bool                       `json:"include_liunian"`
	IncludeTigua       bool                       `json:"include_tigua"`
	IncludeFanGua      bool                       `json:"include_fangua"`
	IncludeLingzheng   bool                       `json:"include_lingzheng"`
	IncludeChengmenjue bool                       `json:"include_chengmenjue"`
	EvaluationProfile  xuankong.EvaluationProfile `json:"evaluation_profile,omitempty"`
	Depth              Depth                      `json:"depth,omitempty"`
}

// Request describes the house, the reference time and the options of one
// assessment. ReferenceDate is required; the engine never reads the clock.
type Request struct {
	FacingDegrees  float64
	BuildYear      int             // 0 when unknown
	PeriodOverride xuankong.Period // 0 when not overridden
	ReferenceDate  xuankong.Date

	// Timeframes lists the overlays to layer on the period plate: year,
	// month and/or day. IncludeLiunian also adds the year overlay.
	Timeframes      []xuankong.Timeframe
	Personalization *xuankong.PersonalizationProfile
	Environment     *xuankong.LingzhengEnvironment
	Toggles         Toggles
}

// Validate rejects malformed requests before any computation runs.
func (r Request) Validate() error {
	if math.IsNaN(r.FacingDegrees) || math.IsInf(r.FacingDegrees, 0) {
		return &xuankong.InputValidationError{Field: "facing_degrees", Value: r.FacingDegrees, Reason: "must be a finite number"}
	}
	if r.PeriodOverride != 0 && !r.PeriodOverride.Valid() {
		return &xuankong.InvalidPeriodError{Period: int(r.PeriodOverride)}
	}
	if r.BuildYear < 0 {
		return &xuankong.InputValidationError{Field: "build_year", Value: r.BuildYear, Reason: "must not be negative"}
	}
	if r.ReferenceDate.IsZero() {
		return &xuankong.InputValidationError{Field: "reference_date", Value: "", Reason: "is required"}
	}
	for _, tf := range r.Timeframes {
		switch tf {
		case xuankong.TimeframeYear, xuankong.TimeframeMonth, xuankong.TimeframeDay:
		default:
			return &xuankong.InputValidationError{Field: "timeframes", Value: string(tf), Reason: "must be year, month or day"}
		}
	}
	if r.Personalization != nil {
		if err := r.Personalization.Validate(); err != nil {
			return err
		}
	}
	if r.Environment != nil {
		if err := r.Environment.Validate(); err != nil {
			return err
		}
	}
	if _, err := xuankong.ParseProfile(string(r.Toggles.EvaluationProfile)); err != nil {
		return err
	}
	if _, err := ParseDepth(string(r.Toggles.Depth)); err != nil {
		return err
	}
	return nil
}

func (r Request) wants(tf xuankong.Timeframe) bool {
	if tf == xuankong.TimeframeYear && r.Toggles.IncludeLiunian {
		return true
	}
	for _, x := range r.Timeframes {
		if x == tf {
			return true
		}
	}
	return false
}
