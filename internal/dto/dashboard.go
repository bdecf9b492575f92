package dto

import (
	"time"

	"github.com/GregMSThompson/finboard/internal/binding"
	"github.com/GregMSThompson/finboard/internal/models"
)

// Widget type constants
const (
	WidgetTypeCard   = "card"
	WidgetTypeTable  = "table"
	WidgetTypeCandle = "candle"

	// WidgetTypeLine is the pre-candle name of the chart widget, still found in
	// older saved dashboards.
	WidgetTypeLine = "line"
)

// Provider constants
const (
	ProviderAlphaVantage = "alphaVantage"
	ProviderFinnhub      = "finnhub"
)

// Candle interval presets
const (
	IntervalDaily   = "daily"
	IntervalWeekly  = "weekly"
	IntervalMonthly = "monthly"
)

const (
	DefaultRefreshMs  int64 = 60000
	DefaultWidgetName       = "Untitled Widget"
	ExportVersion           = 1
	StateVersion            = 0
)

// --- Request types ---

// WidgetDraft is a widget definition without an id. Title is accepted as a
// fallback for Name.
type WidgetDraft struct {
	Name      string         `json:"name"`
	Title     string         `json:"title"`
	Type      string         `json:"type"`
	Provider  string         `json:"provider"`
	Endpoint  string         `json:"endpoint"`
	Params    map[string]any `json:"params"`
	RefreshMs *int64         `json:"refreshMs"`
	Mapping   models.Mapping `json:"mapping"`
}

// WidgetPatch is a partial update. Nil fields are left unchanged.
type WidgetPatch struct {
	Name      *string         `json:"name"`
	Type      *string         `json:"type"`
	Provider  *string         `json:"provider"`
	Endpoint  *string         `json:"endpoint"`
	Params    map[string]any  `json:"params"`
	RefreshMs *int64          `json:"refreshMs"`
	Mapping   *models.Mapping `json:"mapping"`
}

type ReorderRequest struct {
	From int `json:"from"`
	To   int `json:"to"`
}

type TourRequest struct {
	HasSeenTour bool `json:"hasSeenTour"`
}

// DashboardExport is the portable form of a dashboard.
type DashboardExport struct {
	Version int             `json:"version"`
	Widgets []models.Widget `json:"widgets"`
}

// FetchRequest names one provider call. Params are passed through untouched.
type FetchRequest struct {
	Provider string         `json:"provider"`
	Endpoint string         `json:"endpoint"`
	Params   map[string]any `json:"params"`
}

// WidgetDataQuery carries the per-request view options of a widget.
type WidgetDataQuery struct {
	Interval string
	Search   string
	Page     int
	PageSize int
}

// --- Response types ---

type DashboardView struct {
	Widgets     []models.Widget `json:"widgets"`
	HasSeenTour bool            `json:"hasSeenTour"`
}

type UpdateResult struct {
	Updated bool `json:"updated"`
}

type RemoveResult struct {
	Removed bool `json:"removed"`
}

type PreviewResponse struct {
	Data  binding.Value `json:"data"`
	Paths []string      `json:"paths"`
}

// WidgetDataResponse is one refresh of one widget. Superseded is set when a
// newer refresh of the same widget was issued while this one was in flight.
type WidgetDataResponse struct {
	WidgetID    string       `json:"widgetId"`
	Type        string       `json:"type"`
	Data        any          `json:"data,omitempty"`
	LastUpdated time.Time    `json:"lastUpdated"`
	Superseded  bool         `json:"superseded,omitempty"`
	Error       *WidgetError `json:"error,omitempty"`
}

type WidgetError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// CardData is returned for card widgets.
type CardData struct {
	Format string      `json:"format"`
	Fields []CardField `json:"fields"`
}

type CardField struct {
	Path  string `json:"path"`
	Value string `json:"value"`
}

// CandleData is returned for candle widgets. Empty marks a response with no
// recognizable series.
type CandleData struct {
	Interval string           `json:"interval"`
	Candles  []binding.Candle `json:"candles"`
	Empty    bool             `json:"empty"`
}
