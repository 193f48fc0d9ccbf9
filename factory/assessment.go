/*
Package factory provides JSON to Go assessment request conversion.

PURPOSE:
  Converts JSON assessment definitions into engine.Request values and back.
  The HTTP API, the stored request history and the canned samples all speak
  this one JSON shape.

JSON SCHEMA:
  {
    "facing_degrees": 180,
    "build_year": 2010,
    "period": 9,
    "reference_date": "2026-10-15",
    "timeframes": ["year", "month"],
    "personalization": {
      "favorable_elements": ["wood"],
      "unfavorable_elements": ["metal"]
    },
    "environment": {
      "water_palaces": [1],
      "mountain_palaces": [9]
    },
    "options": {
      "include_liunian": true,
      "include_tigua": false,
      "include_fangua": false,
      "include_lingzheng": true,
      "include_chengmenjue": true,
      "evaluation_profile": "standard",
      "depth": "standard"
    }
  }

KEY FEATURES:
  - facing_degrees is the only required field
  - reference_date defaults to the factory's clock when absent
  - Names (elements, timeframes, profiles, depths) are validated here so the
    caller gets a field-level error before the engine runs

USAGE:
  f := factory.NewAssessmentFactory(time.Now)
  req, err := f.ParseAssessment(jsonString)
  result, err := eng.Assess(req)

SEE ALSO:
  - engine/request.go: Request type definition
  - api/samples.go: canned sample houses in this format
*/
package factory

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/qiflow/flyingstar/engine"
	"github.com/qiflow/flyingstar/xuankong"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// AssessmentJSON is the JSON representation of an assessment request.
type AssessmentJSON struct {
	FacingDegrees   *float64             `json:"facing_degrees"`
	BuildYear       int                  `json:"build_year,omitempty"`
	Period          int                  `json:"period,omitempty"` // override, 1-9
	ReferenceDate   string               `json:"reference_date,omitempty"`
	Timeframes      []string             `json:"timeframes,omitempty"`
	Personalization *PersonalizationJSON `json:"personalization,omitempty"`
	Environment     *EnvironmentJSON     `json:"environment,omitempty"`
	Options         engine.Toggles       `json:"options"`
}

// PersonalizationJSON lists elements by name.
type PersonalizationJSON struct {
	FavorableElements   []string `json:"favorable_elements,omitempty"`
	UnfavorableElements []string `json:"unfavorable_elements,omitempty"`
}

// EnvironmentJSON lists palaces (1-9) that hold water or mountains.
type EnvironmentJSON struct {
	WaterPalaces    []int `json:"water_palaces,omitempty"`
	MountainPalaces []int `json:"mountain_palaces,omitempty"`
}

// =============================================================================
// ASSESSMENT FACTORY
// =============================================================================

// AssessmentFactory converts JSON assessments to engine requests.
type AssessmentFactory struct {
	now func() time.Time
}

// NewAssessmentFactory creates a factory. now supplies the reference date
// for requests that do not carry one; nil means the request must carry it.
func NewAssessmentFactory(now func() time.Time) *AssessmentFactory {
	return &AssessmentFactory{now: now}
}

// ParseAssessment parses a JSON string into an engine request.
func (f *AssessmentFactory) ParseAssessment(jsonStr string) (engine.Request, error) {
	var aj AssessmentJSON
	if err := json.Unmarshal([]byte(jsonStr), &aj); err != nil {
		return engine.Request{}, fmt.Errorf("failed to parse assessment JSON: %w", err)
	}
	return f.FromJSON(aj)
}

// FromJSON converts AssessmentJSON to an engine request.
func (f *AssessmentFactory) FromJSON(aj AssessmentJSON) (engine.Request, error) {
	if aj.FacingDegrees == nil {
		return engine.Request{}, &xuankong.InputValidationError{Field: "facing_degrees", Value: nil, Reason: "is required"}
	}

	req := engine.Request{
		FacingDegrees:  *aj.FacingDegrees,
		BuildYear:      aj.BuildYear,
		PeriodOverride: xuankong.Period(aj.Period),
		Toggles:        aj.Options,
	}

	// Reference date: explicit, else the factory clock
	switch {
	case aj.ReferenceDate != "":
		d, err := xuankong.ParseDate(aj.ReferenceDate)
		if err != nil {
			return engine.Request{}, &xuankong.InputValidationError{Field: "reference_date", Value: aj.ReferenceDate, Reason: "expected YYYY-MM-DD"}
		}
		req.ReferenceDate = d
	case f.now != nil:
		req.ReferenceDate = xuankong.DateOf(f.now())
	}

	for _, s := range aj.Timeframes {
		tf, err := xuankong.ParseTimeframe(s)
		if err != nil {
			return engine.Request{}, err
		}
		if tf == xuankong.TimeframePeriod {
			continue
		}
		req.Timeframes = append(req.Timeframes, tf)
	}

	if pj := aj.Personalization; pj != nil {
		profile, err := parsePersonalization(*pj)
		if err != nil {
			return engine.Request{}, err
		}
		req.Personalization = &profile
	}

	if ej := aj.Environment; ej != nil {
		env := xuankong.LingzhengEnvironment{
			WaterPalaces:    parsePalaces(ej.WaterPalaces),
			MountainPalaces: parsePalaces(ej.MountainPalaces),
		}
		req.Environment = &env
	}

	if err := req.Validate(); err != nil {
		return engine.Request{}, err
	}
	return req, nil
}

// ToJSON converts an engine request back to AssessmentJSON. The reference
// date is always written so a stored request replays identically.
func (f *AssessmentFactory) ToJSON(req engine.Request) AssessmentJSON {
	facing := req.FacingDegrees
	aj := AssessmentJSON{
		FacingDegrees: &facing,
		BuildYear:     req.BuildYear,
		Period:        int(req.PeriodOverride),
		ReferenceDate: req.ReferenceDate.String(),
		Options:       req.Toggles,
	}
	for _, tf := range req.Timeframes {
		aj.Timeframes = append(aj.Timeframes, string(tf))
	}
	if p := req.Personalization; p != nil {
		pj := &PersonalizationJSON{}
		for _, e := range p.FavorableElements {
			pj.FavorableElements = append(pj.FavorableElements, string(e))
		}
		for _, e := range p.UnfavorableElements {
			pj.UnfavorableElements = append(pj.UnfavorableElements, string(e))
		}
		aj.Personalization = pj
	}
	if env := req.Environment; env != nil {
		ej := &EnvironmentJSON{}
		for _, p := range env.WaterPalaces {
			ej.WaterPalaces = append(ej.WaterPalaces, int(p))
		}
		for _, p := range env.MountainPalaces {
			ej.MountainPalaces = append(ej.MountainPalaces, int(p))
		}
		aj.Environment = ej
	}
	return aj
}

// =============================================================================
// PARSING HELPERS
// =============================================================================

func parsePersonalization(pj PersonalizationJSON) (xuankong.PersonalizationProfile, error) {
	var profile xuankong.PersonalizationProfile
	for _, s := range pj.FavorableElements {
		e, err := xuankong.ParseElement(s)
		if err != nil {
			return profile, err
		}
		profile.FavorableElements = append(profile.FavorableElements, e)
	}
	for _, s := range pj.UnfavorableElements {
		e, err := xuankong.ParseElement(s)
		if err != nil {
			return profile, err
		}
		profile.UnfavorableElements = append(profile.UnfavorableElements, e)
	}
	return profile, nil
}

func parsePalaces(in []int) []xuankong.Palace {
	out := make([]xuankong.Palace, 0, len(in))
	for _, n := range in {
		out = append(out, xuankong.Palace(n))
	}
	return out
}
