package http

import (
	"encoding/json"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"embalsescli/internal/analysis"
	"embalsescli/internal/config"
	apierrors "embalsescli/internal/errors"
	"embalsescli/internal/middleware"
	"embalsescli/pkg/contracts/domain"
)

// StatsHandler exposes the analyzer over the cleaned dataset: descriptive
// statistics, seasonal aggregation, linear trend, correlation and seasonal
// decomposition.
type StatsHandler struct {
	data       DataService
	analyzer   *analysis.Analyzer
	cfg        config.AnalysisConfig
	validation *middleware.ValidationMiddleware
	errors     *apierrors.ErrorHandler
	logger     *slog.Logger
}

// NewStatsHandler creates a stats handler.
func NewStatsHandler(data DataService, cfg config.AnalysisConfig, validation *middleware.ValidationMiddleware, errorHandler *apierrors.ErrorHandler, logger *slog.Logger) *StatsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &StatsHandler{
		data:       data,
		analyzer:   analysis.NewAnalyzer(logger),
		cfg:        cfg,
		validation: validation,
		errors:     errorHandler,
		logger:     logger.With(slog.String("handler", "stats")),
	}
}

// Routes returns the stats routes.
func (h *StatsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/summary", h.Summary)
	r.Get("/{reservoir}", h.Describe)
	r.Get("/{reservoir}/trend", h.Trend)
	r.Get("/{reservoir}/seasonal", h.Seasonal)
	r.Get("/{reservoir}/extremes", h.Extremes)
	r.Get("/{reservoir}/decompose", h.Decompose)
	r.Get("/{reservoir}/correlation", h.Correlation)
	r.Get("/{reservoir}/correlation/matrix", h.CorrelationMatrix)
	return r
}

// fieldQuery carries the common reservoir/field/window query parameters.
type fieldQuery struct {
	Reservoir string `json:"reservoir" validate:"required,reservoir"`
	Field     string `json:"field" validate:"required,measurement"`
	From      string `json:"from" validate:"omitempty,iso8601"`
	To        string `json:"to" validate:"omitempty,iso8601"`
}

// parseFieldQuery reads the shared parameters, applying the reserve volume
// field as the default.
func (h *StatsHandler) parseFieldQuery(r *http.Request) (fieldQuery, error) {
	q := fieldQuery{
		Reservoir: chi.URLParam(r, "reservoir"),
		Field:     r.URL.Query().Get("field"),
		From:      r.URL.Query().Get("from"),
		To:        r.URL.Query().Get("to"),
	}
	if q.Field == "" {
		q.Field = string(domain.FieldReserveVolume)
	}
	if err := h.validation.ValidateStruct(q); err != nil {
		return fieldQuery{}, err
	}
	return q, nil
}

func (q fieldQuery) window() (from, to time.Time) {
	if q.From != "" {
		from, _ = time.Parse(config.DateFormat, q.From)
	}
	if q.To != "" {
		to, _ = time.Parse(config.DateFormat, q.To)
	}
	return from, to
}

// Summary describes every measurement field of every reservoir.
func (h *StatsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	dataset, err := h.data.Dataset(r.Context())
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"reservoirs": h.analyzer.Summary(r.Context(), dataset),
	})
}

// Describe summarizes one field of one reservoir, optionally windowed.
func (h *StatsHandler) Describe(w http.ResponseWriter, r *http.Request) {
	q, err := h.parseFieldQuery(r)
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}

	dataset, err := h.data.Dataset(r.Context())
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}

	from, to := q.window()
	stats, err := h.analyzer.DescribeField(dataset, q.Reservoir, domain.Field(q.Field), from, to)
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"reservoir": q.Reservoir,
		"field":     q.Field,
		"stats":     stats,
	})
}

// Trend fits a linear trend to one field of one reservoir.
func (h *StatsHandler) Trend(w http.ResponseWriter, r *http.Request) {
	q, err := h.parseFieldQuery(r)
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}

	dataset, err := h.data.Dataset(r.Context())
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}

	trend, err := h.analyzer.Trend(dataset, q.Reservoir, domain.Field(q.Field))
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"reservoir": q.Reservoir,
		"field":     q.Field,
		"trend":     trend,
	})
}

// Seasonal groups one field of one reservoir by month and season.
func (h *StatsHandler) Seasonal(w http.ResponseWriter, r *http.Request) {
	q, err := h.parseFieldQuery(r)
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}

	dataset, err := h.data.Dataset(r.Context())
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}

	seasonal, err := h.analyzer.Seasonal(dataset, q.Reservoir, domain.Field(q.Field))
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"reservoir": q.Reservoir,
		"seasonal":  newSeasonalResponse(seasonal),
	})
}

// Extremes counts the observations above a percentile threshold and their
// spread over months and years.
func (h *StatsHandler) Extremes(w http.ResponseWriter, r *http.Request) {
	q, err := h.parseFieldQuery(r)
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}

	percentile := analysis.DefaultExtremePercentile
	if raw := r.URL.Query().Get("percentile"); raw != "" {
		percentile, err = strconv.ParseFloat(raw, 64)
		if err != nil {
			h.errors.HandleError(w, r, apierrors.ErrValidation("percentile", "must be a number"))
			return
		}
	}

	dataset, err := h.data.Dataset(r.Context())
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}

	from, to := q.window()
	extremes, err := h.analyzer.Extremes(dataset.FilterWindow(from, to), q.Reservoir, domain.Field(q.Field), percentile)
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"reservoir": q.Reservoir,
		"field":     q.Field,
		"extremes":  newExtremesResponse(extremes),
	})
}

// Decompose splits one field of one reservoir into trend, seasonal and
// remainder components.
func (h *StatsHandler) Decompose(w http.ResponseWriter, r *http.Request) {
	q, err := h.parseFieldQuery(r)
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}

	period := h.cfg.DecompositionPeriod
	if raw := r.URL.Query().Get("period"); raw != "" {
		period, err = strconv.Atoi(raw)
		if err != nil {
			h.errors.HandleError(w, r, apierrors.ErrValidation("period", "must be an integer"))
			return
		}
	}

	dataset, err := h.data.Dataset(r.Context())
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}

	decomposition, err := h.analyzer.DecomposeField(dataset, q.Reservoir, domain.Field(q.Field), period)
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"reservoir":     q.Reservoir,
		"field":         q.Field,
		"decomposition": newDecompositionResponse(decomposition),
	})
}

// correlationQuery carries the pairwise correlation parameters.
type correlationQuery struct {
	Reservoir string `json:"reservoir" validate:"required,reservoir"`
	FieldX    string `json:"x" validate:"required,measurement"`
	FieldY    string `json:"y" validate:"required,measurement"`
	Method    string `json:"method" validate:"omitempty,oneof=pearson spearman"`
}

// Correlation correlates two fields of one reservoir with an optional lag.
// A positive lag shifts y forward relative to x.
func (h *StatsHandler) Correlation(w http.ResponseWriter, r *http.Request) {
	q := correlationQuery{
		Reservoir: chi.URLParam(r, "reservoir"),
		FieldX:    r.URL.Query().Get("x"),
		FieldY:    r.URL.Query().Get("y"),
		Method:    r.URL.Query().Get("method"),
	}
	if q.Method == "" {
		q.Method = string(analysis.MethodPearson)
	}
	if err := h.validation.ValidateStruct(q); err != nil {
		h.errors.HandleError(w, r, err)
		return
	}

	lag := 0
	if raw := r.URL.Query().Get("lag"); raw != "" {
		var err error
		lag, err = strconv.Atoi(raw)
		if err != nil {
			h.errors.HandleError(w, r, apierrors.ErrValidation("lag", "must be an integer"))
			return
		}
	}

	dataset, err := h.data.Dataset(r.Context())
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}

	result, err := h.analyzer.CorrelateFields(dataset, q.Reservoir,
		domain.Field(q.FieldX), domain.Field(q.FieldY), lag, analysis.CorrelationMethod(q.Method))
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"reservoir": q.Reservoir,
		"correlation": correlationResponse{
			Method:      string(result.Method),
			FieldX:      result.FieldX,
			FieldY:      result.FieldY,
			Lag:         result.Lag,
			Coefficient: jsonFloat(result.Coefficient),
			N:           result.N,
		},
	})
}

// CorrelationMatrix computes the all-pairs matrix over the measurement
// fields of one reservoir.
func (h *StatsHandler) CorrelationMatrix(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "reservoir")
	method := r.URL.Query().Get("method")
	if method == "" {
		method = string(analysis.MethodPearson)
	}
	if method != string(analysis.MethodPearson) && method != string(analysis.MethodSpearman) {
		h.errors.HandleError(w, r, apierrors.ErrValidation("method", "must be one of: pearson, spearman"))
		return
	}

	dataset, err := h.data.Dataset(r.Context())
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}

	matrix, err := h.analyzer.CorrelationMatrix(dataset, code, analysis.CorrelationMethod(method))
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"reservoir": code,
		"matrix": matrixResponse{
			Method: string(matrix.Method),
			Fields: matrix.Fields,
			Values: jsonFloatMatrix(matrix.Values),
		},
	})
}

// jsonFloat marshals the NaN missing-value sentinel as null. The analyzer
// keeps NaN in matrix cells and decomposition edges; encoding/json refuses
// raw NaN.
type jsonFloat float64

func (f jsonFloat) MarshalJSON() ([]byte, error) {
	if math.IsNaN(float64(f)) {
		return []byte("null"), nil
	}
	return json.Marshal(float64(f))
}

func jsonFloats(values []float64) []jsonFloat {
	out := make([]jsonFloat, len(values))
	for i, v := range values {
		out[i] = jsonFloat(v)
	}
	return out
}

func jsonFloatMatrix(values [][]float64) [][]jsonFloat {
	out := make([][]jsonFloat, len(values))
	for i, row := range values {
		out[i] = jsonFloats(row)
	}
	return out
}

type correlationResponse struct {
	Method      string    `json:"method"`
	FieldX      string    `json:"field_x"`
	FieldY      string    `json:"field_y"`
	Lag         int       `json:"lag"`
	Coefficient jsonFloat `json:"coefficient"`
	N           int       `json:"n"`
}

type matrixResponse struct {
	Method string        `json:"method"`
	Fields []string      `json:"fields"`
	Values [][]jsonFloat `json:"values"`
}

type aggStatsResponse struct {
	Mean  jsonFloat `json:"mean"`
	Std   jsonFloat `json:"std"`
	Min   jsonFloat `json:"min"`
	Max   jsonFloat `json:"max"`
	Count int       `json:"count"`
}

type seasonalResponse struct {
	Field    string                      `json:"field"`
	Monthly  map[string]aggStatsResponse `json:"monthly"`
	Seasonal map[string]aggStatsResponse `json:"seasonal"`
}

func newSeasonalResponse(s *analysis.SeasonalAnalysis) seasonalResponse {
	resp := seasonalResponse{
		Field:    s.Field,
		Monthly:  make(map[string]aggStatsResponse, len(s.Monthly)),
		Seasonal: make(map[string]aggStatsResponse, len(s.Seasonal)),
	}
	for month, agg := range s.Monthly {
		resp.Monthly[month.String()] = newAggStatsResponse(agg)
	}
	for season, agg := range s.Seasonal {
		resp.Seasonal[season] = newAggStatsResponse(agg)
	}
	return resp
}

func newAggStatsResponse(a analysis.AggStats) aggStatsResponse {
	return aggStatsResponse{
		Mean:  jsonFloat(a.Mean),
		Std:   jsonFloat(a.Std),
		Min:   jsonFloat(a.Min),
		Max:   jsonFloat(a.Max),
		Count: a.Count,
	}
}

type extremesResponse struct {
	Percentile    float64        `json:"percentile"`
	Threshold     jsonFloat      `json:"threshold"`
	Count         int            `json:"count"`
	Percentage    jsonFloat      `json:"percentage"`
	Mean          jsonFloat      `json:"mean"`
	Max           jsonFloat      `json:"max"`
	Std           jsonFloat      `json:"std"`
	MonthlyCounts map[string]int `json:"monthly_counts"`
	YearlyCounts  map[int]int    `json:"yearly_counts"`
}

func newExtremesResponse(e *analysis.ExtremeEvents) extremesResponse {
	resp := extremesResponse{
		Percentile:    e.Percentile,
		Threshold:     jsonFloat(e.Threshold),
		Count:         e.Count,
		Percentage:    jsonFloat(e.Percentage),
		Mean:          jsonFloat(e.Mean),
		Max:           jsonFloat(e.Max),
		Std:           jsonFloat(e.Std),
		MonthlyCounts: make(map[string]int, len(e.MonthlyCounts)),
		YearlyCounts:  e.YearlyCounts,
	}
	for month, n := range e.MonthlyCounts {
		resp.MonthlyCounts[month.String()] = n
	}
	return resp
}

type decompositionResponse struct {
	Period    int         `json:"period"`
	Trend     []jsonFloat `json:"trend"`
	Seasonal  []jsonFloat `json:"seasonal"`
	Remainder []jsonFloat `json:"remainder"`
}

func newDecompositionResponse(d *analysis.Decomposition) decompositionResponse {
	return decompositionResponse{
		Period:    d.Period,
		Trend:     jsonFloats(d.Trend),
		Seasonal:  jsonFloats(d.Seasonal),
		Remainder: jsonFloats(d.Remainder),
	}
}
