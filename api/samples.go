/*
samples.go - Canned sample houses for demos and smoke tests

PURPOSE:
  Provides pre-built assessment requests that exercise the main features:
  classical charts with named patterns, a period-boundary date, and the
  optional rule sets. Each sample pins its reference date so it always
  produces the same result.

AVAILABLE SAMPLES:
  zi-wu-9:       Period 9, sitting north facing south, with annual stars
  chou-wei-8:    Period 8 build year, prosperous mountain and water
  ren-bing-1:    Period 1, double star at facing with Kan robbery
  boundary-2024: no period given, date ten days before the 2024 Lichun
  kun-gen-2:     Period 2 with personalization and month/day overlays

USAGE VIA API:
  GET  /api/samples
  POST /api/samples/zi-wu-9/assess

ADDING NEW SAMPLES:
  Append to 'samples' with an ID, name, description and request JSON.

SEE ALSO:
  - handlers.go: AssessSample runs a sample like any other assessment
  - factory/assessment.go: request JSON format
*/
package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/qiflow/flyingstar/factory"
)

// =============================================================================
// SAMPLE DEFINITIONS
// =============================================================================

type sample struct {
	ID          string
	Name        string
	Description string
	JSON        string
}

var samples = []sample{
	{
		ID:          "zi-wu-9",
		Name:        "Zi/Wu, Period 9",
		Description: "South-facing house flown for Period 9 with the 2026 annual stars",
		JSON: `{
			"facing_degrees": 180,
			"period": 9,
			"reference_date": "2026-10-15",
			"options": {"include_liunian": true, "include_lingzheng": true, "include_chengmenjue": true}
		}`,
	},
	{
		ID:          "chou-wei-8",
		Name:        "Wei/Chou, built 2010",
		Description: "Northeast-facing Period 8 house with prosperous mountain and water stars",
		JSON: `{
			"facing_degrees": 30,
			"build_year": 2010,
			"reference_date": "2026-10-15"
		}`,
	},
	{
		ID:          "ren-bing-1",
		Name:        "Bing/Ren, Period 1",
		Description: "North-facing Period 1 house with both prosperous stars at the facing",
		JSON: `{
			"facing_degrees": 345,
			"period": 1,
			"reference_date": "2026-10-15",
			"options": {"include_chengmenjue": true}
		}`,
	},
	{
		ID:          "boundary-2024",
		Name:        "Period boundary",
		Description: "East-facing house assessed ten days before the Period 9 Lichun",
		JSON: `{
			"facing_degrees": 90,
			"reference_date": "2024-01-25",
			"timeframes": ["year"]
		}`,
	},
	{
		ID:          "kun-gen-2",
		Name:        "Gen/Kun, Period 2, personalized",
		Description: "Southwest-facing Period 2 house for a wood-favoring resident, conservative profile",
		JSON: `{
			"facing_degrees": 225,
			"period": 2,
			"reference_date": "2026-10-15",
			"timeframes": ["month", "day"],
			"personalization": {"favorable_elements": ["wood"], "unfavorable_elements": ["metal"]},
			"environment": {"water_palaces": [8], "mountain_palaces": [2]},
			"options": {"include_lingzheng": true, "evaluation_profile": "conservative", "depth": "comprehensive"}
		}`,
	},
}

func findSample(id string) (sample, bool) {
	for _, s := range samples {
		if s.ID == id {
			return s, true
		}
	}
	return sample{}, false
}

func (s sample) request() (factory.AssessmentJSON, error) {
	var aj factory.AssessmentJSON
	if err := json.Unmarshal([]byte(s.JSON), &aj); err != nil {
		return aj, fmt.Errorf("sample %s: %w", s.ID, err)
	}
	return aj, nil
}

// =============================================================================
// SAMPLE HANDLERS
// =============================================================================

// ListSamples returns the available sample houses.
func (h *Handler) ListSamples(w http.ResponseWriter, r *http.Request) {
	dtos := make([]SampleDTO, 0, len(samples))
	for _, s := range samples {
		aj, err := s.request()
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Broken sample definition", err)
			return
		}
		dtos = append(dtos, SampleDTO{ID: s.ID, Name: s.Name, Description: s.Description, Request: aj})
	}
	writeJSON(w, http.StatusOK, dtos)
}

// AssessSample runs and persists one sample.
func (h *Handler) AssessSample(w http.ResponseWriter, r *http.Request) {
	s, ok := findSample(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "Sample not found", nil)
		return
	}
	aj, err := s.request()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Broken sample definition", err)
		return
	}
	h.assessAndSave(w, r, aj)
}
