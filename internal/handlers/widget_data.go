package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/GregMSThompson/finboard/internal/binding"
	"github.com/GregMSThompson/finboard/internal/dto"
	"github.com/GregMSThompson/finboard/internal/errs"
	"github.com/GregMSThompson/finboard/internal/middleware"
)

type widgetDataService interface {
	GetWidgetData(ctx context.Context, uid, widgetID string, q dto.WidgetDataQuery) (dto.WidgetDataResponse, error)
	RefreshAll(ctx context.Context, uid string) ([]dto.WidgetDataResponse, error)
	Preview(ctx context.Context, req dto.FetchRequest) (dto.PreviewResponse, error)
}

func (h *dashboardHandlers) GetWidgetData(w http.ResponseWriter, r *http.Request) {
	widgetID := chi.URLParam(r, "widgetId")
	q, err := parseWidgetDataQuery(r)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	uid := middleware.UID(r.Context())
	data, err := h.WidgetDataSvc.GetWidgetData(r.Context(), uid, widgetID, q)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, data)
}

func (h *dashboardHandlers) RefreshAll(w http.ResponseWriter, r *http.Request) {
	uid := middleware.UID(r.Context())
	data, err := h.WidgetDataSvc.RefreshAll(r.Context(), uid)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, data)
}

func (h *dashboardHandlers) Preview(w http.ResponseWriter, r *http.Request) {
	var req dto.FetchRequest
	if err := decode(r, &req); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	data, err := h.WidgetDataSvc.Preview(r.Context(), req)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, data)
}

func parseWidgetDataQuery(r *http.Request) (dto.WidgetDataQuery, error) {
	values := r.URL.Query()
	q := dto.WidgetDataQuery{
		Interval: values.Get("interval"),
		Search:   values.Get("q"),
	}
	switch q.Interval {
	case "", dto.IntervalDaily, dto.IntervalWeekly, dto.IntervalMonthly:
	default:
		return q, errs.NewValidationError(fmt.Sprintf("unknown interval %q", q.Interval))
	}

	var err error
	if q.Page, err = intParam(values.Get("page"), "page"); err != nil {
		return q, err
	}
	if q.PageSize, err = intParam(values.Get("pageSize"), "pageSize"); err != nil {
		return q, err
	}
	return q, nil
}

func intParam(raw, name string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, errs.NewValidationError(name + " must be a non-negative integer")
	}
	return n, nil
}

// GetWidgetTypes returns the hardcoded catalog of widget types, display
// formats and provider endpoints the widget dialog offers.
func (h *dashboardHandlers) GetWidgetTypes(w http.ResponseWriter, r *http.Request) {
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, widgetCatalog)
}

type widgetTypeEntry struct {
	Type          string         `json:"type"`
	MappingFields map[string]any `json:"mappingFields"`
}

type providerEntry struct {
	Provider  string   `json:"provider"`
	Endpoints []string `json:"endpoints"`
}

type catalog struct {
	Types     []widgetTypeEntry `json:"types"`
	Formats   []string          `json:"formats"`
	Providers []providerEntry   `json:"providers"`
	Intervals []string          `json:"intervals"`
}

var widgetCatalog = catalog{
	Types: []widgetTypeEntry{
		{
			Type: dto.WidgetTypeCard,
			MappingFields: map[string]any{
				"paths":  "list of field paths, e.g. c or data[0].price",
				"format": "optional display format",
			},
		},
		{
			Type: dto.WidgetTypeTable,
			MappingFields: map[string]any{
				"columns": "optional column paths; inferred from the keys of all rows when empty",
			},
		},
		{
			Type: dto.WidgetTypeCandle,
			MappingFields: map[string]any{
				"x": "optional",
				"y": "optional",
			},
		},
	},
	Formats: []string{
		string(binding.FormatNumber),
		string(binding.FormatCurrency),
		string(binding.FormatPercent),
	},
	Providers: []providerEntry{
		{
			Provider:  dto.ProviderAlphaVantage,
			Endpoints: []string{"TIME_SERIES_DAILY", "TIME_SERIES_INTRADAY", "GLOBAL_QUOTE"},
		},
		{
			Provider:  dto.ProviderFinnhub,
			Endpoints: []string{"/quote", "/stock/candle", "/news"},
		},
	},
	Intervals: []string{dto.IntervalDaily, dto.IntervalWeekly, dto.IntervalMonthly},
}
