/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for HTTP API communication. DTOs decouple the
  API contract from the engine types where the two differ; engine results
  are embedded as-is.

NAMING CONVENTIONS:
  - XxxDTO: Response data structure
  - XxxRequest: Request body structure

JSON TAGS:
  All fields use snake_case JSON tags for consistency with JavaScript
  frontends.

SEE ALSO:
  - handlers.go: Uses DTOs in request/response handling
  - factory/assessment.go: AssessmentJSON, the request body of an assessment
*/
package api

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/qiflow/flyingstar/factory"
	"github.com/qiflow/flyingstar/xuankong"
)

// AssessmentDTO is one stored or freshly run assessment.
type AssessmentDTO struct {
	ID        string                 `json:"id,omitempty"`
	CreatedAt string                 `json:"created_at,omitempty"`
	Request   factory.AssessmentJSON `json:"request"`
	Result    json.RawMessage        `json:"result"`
}

// AssessmentSummaryDTO is one row of the assessment list.
type AssessmentSummaryDTO struct {
	ID            string          `json:"id"`
	FacingDegrees float64         `json:"facing_degrees"`
	Period        xuankong.Period `json:"period"`
	OverallScore  decimal.Decimal `json:"overall_score"`
	CreatedAt     string          `json:"created_at"`
}

// BatchAssessRequest holds up to maxBatchSize assessments.
type BatchAssessRequest struct {
	Assessments []factory.AssessmentJSON `json:"assessments"`
}

// BatchAssessResponse returns results in request order.
type BatchAssessResponse struct {
	Results []AssessmentDTO `json:"results"`
}

// ChartDTO is a bare plate plus its south-up drawing.
type ChartDTO struct {
	Plate xuankong.Plate           `json:"plate"`
	Grid  [3][3]xuankong.PlateCell `json:"grid"`
}

// PeriodDTO answers a period lookup for one date.
type PeriodDTO struct {
	Date       string              `json:"date"`
	Period     xuankong.PeriodInfo `json:"period"`
	SubPeriods xuankong.SubPeriods `json:"sub_periods"`
}

// SampleDTO describes a canned sample house.
type SampleDTO struct {
	ID          string                 `json:"id"`
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Request     factory.AssessmentJSON `json:"request"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
