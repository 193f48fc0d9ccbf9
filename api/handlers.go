/*
handlers.go - HTTP API handlers for the flying star engine

PURPOSE:
  Exposes the assessment engine via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to the engine and the store.

ENDPOINTS:
  Assessments:
    GET    /api/assessments             List stored assessments
    POST   /api/assessments             Run and store an assessment
    POST   /api/assessments/batch       Run up to 16 assessments concurrently
    GET    /api/assessments/{id}        Get one stored assessment
    DELETE /api/assessments/{id}        Delete one stored assessment

  Lookups:
    GET    /api/charts                  Bare plate (?period=&facing=&tigua=&fangua=)
    GET    /api/directions/{degrees}    Facing/sitting mountains of a bearing
    GET    /api/periods                 Period and sub-periods (?date=YYYY-MM-DD)

  Samples:
    GET    /api/samples                 List sample houses
    POST   /api/samples/{id}/assess     Run and store a sample

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Engine: the stateless assessment pipeline
  - Store: assessment history
  - Factory: JSON to engine.Request conversion
  - Metrics, Logger: observability

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Resource not found
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - samples.go: Canned sample houses
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/qiflow/flyingstar/engine"
	"github.com/qiflow/flyingstar/factory"
	"github.com/qiflow/flyingstar/store"
	"github.com/qiflow/flyingstar/xuankong"
)

const (
	maxBatchSize     = 16
	defaultListLimit = 50
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Engine  *engine.Engine
	Store   store.AssessmentStore
	Factory *factory.AssessmentFactory
	Metrics *Metrics
	Logger  zerolog.Logger

	// Now is the clock used for default reference dates and chart/period
	// lookups without a date.
	Now func() time.Time
}

// NewHandler creates a new handler with the given engine and store.
func NewHandler(eng *engine.Engine, st store.AssessmentStore, logger zerolog.Logger) *Handler {
	return &Handler{
		Engine:  eng,
		Store:   st,
		Factory: factory.NewAssessmentFactory(time.Now),
		Metrics: NewMetrics(),
		Logger:  logger,
		Now:     time.Now,
	}
}

// =============================================================================
// ASSESSMENT HANDLERS
// =============================================================================

// CreateAssessment runs an assessment and stores it.
func (h *Handler) CreateAssessment(w http.ResponseWriter, r *http.Request) {
	var aj factory.AssessmentJSON
	if err := json.NewDecoder(r.Body).Decode(&aj); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	h.assessAndSave(w, r, aj)
}

// assessAndSave is shared by CreateAssessment and AssessSample.
func (h *Handler) assessAndSave(w http.ResponseWriter, r *http.Request, aj factory.AssessmentJSON) {
	req, err := h.Factory.FromJSON(aj)
	if err != nil {
		writeEngineError(w, "Invalid assessment request", err)
		return
	}

	result, err := h.assess(req)
	if err != nil {
		writeEngineError(w, "Assessment failed", err)
		return
	}

	resultJSON, err := json.Marshal(result)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to encode result", err)
		return
	}
	stored := h.Factory.ToJSON(req)
	requestJSON, err := json.Marshal(stored)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to encode request", err)
		return
	}

	rec, err := h.Store.Save(r.Context(), store.Record{
		FacingDegrees: result.Direction.Bearing,
		Period:        result.Period.Period,
		OverallScore:  result.OverallScore,
		Request:       requestJSON,
		Result:        resultJSON,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save assessment", err)
		return
	}

	h.Logger.Debug().
		Str("id", rec.ID).
		Int("period", int(rec.Period)).
		Str("overall_score", rec.OverallScore.String()).
		Msg("assessment stored")

	writeJSON(w, http.StatusCreated, AssessmentDTO{
		ID:        rec.ID,
		CreatedAt: rec.CreatedAt.Format(time.RFC3339),
		Request:   stored,
		Result:    resultJSON,
	})
}

// BatchAssess runs several assessments concurrently without storing them.
// Results come back in request order; the first failure fails the batch.
func (h *Handler) BatchAssess(w http.ResponseWriter, r *http.Request) {
	var body BatchAssessRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if len(body.Assessments) == 0 || len(body.Assessments) > maxBatchSize {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Batch must hold 1 to %d assessments", maxBatchSize), nil)
		return
	}

	reqs := make([]engine.Request, len(body.Assessments))
	for i, aj := range body.Assessments {
		req, err := h.Factory.FromJSON(aj)
		if err != nil {
			writeEngineError(w, fmt.Sprintf("Invalid assessment at index %d", i), err)
			return
		}
		reqs[i] = req
	}

	results := make([]AssessmentDTO, len(reqs))
	eg, egCtx := errgroup.WithContext(r.Context())
	for i := range reqs {
		i := i
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			result, err := h.assess(reqs[i])
			if err != nil {
				return fmt.Errorf("assessment %d: %w", i, err)
			}
			resultJSON, err := json.Marshal(result)
			if err != nil {
				return err
			}
			results[i] = AssessmentDTO{Request: h.Factory.ToJSON(reqs[i]), Result: resultJSON}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		writeEngineError(w, "Batch assessment failed", err)
		return
	}

	writeJSON(w, http.StatusOK, BatchAssessResponse{Results: results})
}

// ListAssessments returns stored assessments, newest first.
// Query: ?period=9&limit=20
func (h *Handler) ListAssessments(w http.ResponseWriter, r *http.Request) {
	filter := store.ListFilter{Limit: defaultListLimit}
	if s := r.URL.Query().Get("period"); s != "" {
		p, err := strconv.Atoi(s)
		if err != nil || !xuankong.Period(p).Valid() {
			writeError(w, http.StatusBadRequest, "Invalid period (use 1-9)", err)
			return
		}
		filter.Period = xuankong.Period(p)
	}
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "Invalid limit", err)
			return
		}
		filter.Limit = n
	}

	records, err := h.Store.List(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list assessments", err)
		return
	}

	dtos := make([]AssessmentSummaryDTO, len(records))
	for i, rec := range records {
		dtos[i] = AssessmentSummaryDTO{
			ID:            rec.ID,
			FacingDegrees: rec.FacingDegrees,
			Period:        rec.Period,
			OverallScore:  rec.OverallScore,
			CreatedAt:     rec.CreatedAt.Format(time.RFC3339),
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetAssessment returns a single stored assessment.
func (h *Handler) GetAssessment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	rec, err := h.Store.Get(r.Context(), id)
	if store.IsNotFound(err) {
		writeError(w, http.StatusNotFound, "Assessment not found", nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get assessment", err)
		return
	}

	var aj factory.AssessmentJSON
	if err := json.Unmarshal(rec.Request, &aj); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to decode stored request", err)
		return
	}

	writeJSON(w, http.StatusOK, AssessmentDTO{
		ID:        rec.ID,
		CreatedAt: rec.CreatedAt.Format(time.RFC3339),
		Request:   aj,
		Result:    rec.Result,
	})
}

// DeleteAssessment removes a stored assessment.
func (h *Handler) DeleteAssessment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	err := h.Store.Delete(r.Context(), id)
	if store.IsNotFound(err) {
		writeError(w, http.StatusNotFound, "Assessment not found", nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete assessment", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// assess runs the engine and records metrics.
func (h *Handler) assess(req engine.Request) (engine.AssessmentResult, error) {
	start := time.Now()
	result, err := h.Engine.Assess(req)
	if err != nil {
		outcome := "error"
		if xuankong.IsClientError(err) {
			outcome = "rejected"
		}
		h.Metrics.Assessments.WithLabelValues(outcome).Inc()
		return result, err
	}

	h.Metrics.Duration.WithLabelValues(string(result.Meta.Depth)).Observe(time.Since(start).Seconds())
	h.Metrics.Assessments.WithLabelValues("ok").Inc()
	if result.Meta.Ambiguous {
		h.Metrics.Ambiguous.Inc()
	}
	for _, rule := range result.Meta.RulesApplied {
		if stage, ok := strings.CutPrefix(rule, "degraded:"); ok {
			h.Metrics.Degraded.WithLabelValues(stage).Inc()
			h.Logger.Warn().Str("stage", stage).Msg("assessment stage degraded")
		}
	}
	return result, nil
}

// =============================================================================
// LOOKUP HANDLERS
// =============================================================================

// GetChart returns a bare plate.
// Query: ?period=9&facing=180&tigua=true&fangua=false
func (h *Handler) GetChart(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	period, err := strconv.Atoi(q.Get("period"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid period (use 1-9)", err)
		return
	}
	facing, err := strconv.ParseFloat(q.Get("facing"), 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid facing (degrees)", err)
		return
	}
	tigua, err := parseBool(q.Get("tigua"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid tigua flag", err)
		return
	}
	fangua, err := parseBool(q.Get("fangua"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid fangua flag", err)
		return
	}

	dir, err := xuankong.ResolveDirection(facing)
	if err != nil {
		writeEngineError(w, "Invalid facing", err)
		return
	}
	plate, err := xuankong.GeneratePlate(xuankong.GenerateInput{
		Period:        xuankong.Period(period),
		Facing:        dir.Facing.Name,
		Timeframe:     xuankong.TimeframePeriod,
		TiGua:         tigua,
		FanGua:        fangua,
		FacingDegrees: dir.Bearing,
		ReferenceDate: xuankong.DateOf(h.Now()),
	})
	if err != nil {
		writeEngineError(w, "Failed to generate chart", err)
		return
	}

	writeJSON(w, http.StatusOK, ChartDTO{Plate: plate, Grid: gridOf(plate)})
}

// GetDirection resolves a bearing.
func (h *Handler) GetDirection(w http.ResponseWriter, r *http.Request) {
	deg, err := strconv.ParseFloat(chi.URLParam(r, "degrees"), 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid degrees", err)
		return
	}
	dir, err := xuankong.ResolveDirection(deg)
	if err != nil {
		writeEngineError(w, "Invalid degrees", err)
		return
	}
	writeJSON(w, http.StatusOK, dir)
}

// GetPeriod returns the period and sub-periods of a date.
// Query: ?date=2026-10-15 (defaults to today)
func (h *Handler) GetPeriod(w http.ResponseWriter, r *http.Request) {
	d := xuankong.DateOf(h.Now())
	if s := r.URL.Query().Get("date"); s != "" {
		parsed, err := xuankong.ParseDate(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
			return
		}
		d = parsed
	}

	writeJSON(w, http.StatusOK, PeriodDTO{
		Date:       d.String(),
		Period:     xuankong.PeriodForDate(d, h.Engine.Config().AmbiguityWindowDays),
		SubPeriods: xuankong.SubPeriodsFor(d),
	})
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeEngineError maps engine and factory errors to a status code.
func writeEngineError(w http.ResponseWriter, message string, err error) {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case xuankong.IsClientError(err), errors.As(err, &syntaxErr), errors.As(err, &typeErr):
		writeError(w, http.StatusBadRequest, message, err)
	case store.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

func parseBool(s string) (bool, error) {
	if s == "" {
		return false, nil
	}
	return strconv.ParseBool(s)
}

func gridOf(plate xuankong.Plate) [3][3]xuankong.PlateCell {
	var grid [3][3]xuankong.PlateCell
	for i, row := range xuankong.LayoutGrid {
		for j, p := range row {
			grid[i][j] = plate.Cell(p)
		}
	}
	return grid
}
