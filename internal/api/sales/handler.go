package sales

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"smartkitchen/internal/api"
	"smartkitchen/internal/domain/forecast"
	"smartkitchen/internal/domain/sales"
	"smartkitchen/internal/forecasting"
	"smartkitchen/pkg/errors"
)

// Predictor predicts sales for one context
type Predictor interface {
	Predict(ctx context.Context, in sales.SaleContext) (*sales.Prediction, error)
}

// Forecaster forecasts ingredient demand
type Forecaster interface {
	Forecast(ctx context.Context, req forecast.Request) (*forecast.Result, error)
}

// Handler serves the sales prediction API
type Handler struct {
	predictor  Predictor
	forecaster Forecaster
}

// NewHandler creates the handler; a nil forecaster disables GET /forecast
func NewHandler(predictor Predictor, forecaster Forecaster) *Handler {
	return &Handler{predictor: predictor, forecaster: forecaster}
}

// Routes mounts the endpoints on r
func (h *Handler) Routes(r chi.Router) {
	r.Post("/predict", h.predict)
	if h.forecaster != nil {
		r.Get("/forecast", h.forecast)
	}
}

type predictRequest struct {
	Month     *int     `json:"month"`
	IsWeekend *int     `json:"is_weekend"`
	DayOfWeek *string  `json:"day_of_week"`
	Category  *string  `json:"category"`
	Price     *float64 `json:"price"`
	Holiday   *int     `json:"holiday"`
	Weather   *string  `json:"weather"`
}

func (p predictRequest) context() (sales.SaleContext, error) {
	var missing api.Missing
	missing.Check("month", p.Month != nil)
	missing.Check("is_weekend", p.IsWeekend != nil)
	missing.Check("day_of_week", p.DayOfWeek != nil)
	missing.Check("category", p.Category != nil)
	missing.Check("price", p.Price != nil)
	missing.Check("holiday", p.Holiday != nil)
	missing.Check("weather", p.Weather != nil)
	if err := missing.Err(); err != nil {
		return sales.SaleContext{}, err
	}

	return sales.SaleContext{
		Month:     *p.Month,
		IsWeekend: *p.IsWeekend,
		DayOfWeek: *p.DayOfWeek,
		Category:  *p.Category,
		Price:     *p.Price,
		Holiday:   *p.Holiday,
		Weather:   *p.Weather,
	}, nil
}

func (h *Handler) predict(w http.ResponseWriter, r *http.Request) {
	var req predictRequest
	if err := api.DecodeJSON(r.Body, &req); err != nil {
		api.WriteError(w, err)
		return
	}
	in, err := req.context()
	if err != nil {
		api.WriteError(w, err)
		return
	}

	result, err := h.predictor.Predict(r.Context(), in)
	if err != nil {
		api.WriteError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, result)
}

type forecastResponse struct {
	*forecast.Result
	Monthly []forecast.MonthlySummary `json:"monthly_summary,omitempty"`
}

// forecast accepts ingredient, periods and months query parameters
func (h *Handler) forecast(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	periods, err := intParam(q.Get("periods"), "periods")
	if err != nil {
		api.WriteError(w, err)
		return
	}
	months, err := intParam(q.Get("months"), "months")
	if err != nil {
		api.WriteError(w, err)
		return
	}

	req := forecast.Request{
		Ingredient: strings.TrimSpace(q.Get("ingredient")),
		Periods:    forecast.PeriodsFor(periods, months),
	}
	result, err := h.forecaster.Forecast(r.Context(), req)
	if err != nil {
		api.WriteError(w, err)
		return
	}

	resp := forecastResponse{Result: result}
	if forecasting.ShowMonthly(months, req.Periods) {
		resp.Monthly = result.Monthly
	}
	api.WriteJSON(w, http.StatusOK, resp)
}

func intParam(raw, name string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, errors.NewValidationError(name, "must be a non-negative integer", raw)
	}
	return v, nil
}
