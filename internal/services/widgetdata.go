package services

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/GregMSThompson/finboard/internal/binding"
	"github.com/GregMSThompson/finboard/internal/dto"
	"github.com/GregMSThompson/finboard/internal/errs"
	"github.com/GregMSThompson/finboard/internal/models"
	"github.com/GregMSThompson/finboard/pkg/logger"
)

const defaultRefreshConcurrency = 4

// fetcher performs one provider call and returns the decoded body.
type fetcher interface {
	Fetch(ctx context.Context, req dto.FetchRequest) (binding.Value, error)
}

// dashboardSource hands out the dashboard of a user.
type dashboardSource interface {
	For(ctx context.Context, uid string) (*DashboardStore, error)
}

type widgetDataService struct {
	dashboards  dashboardSource
	fetcher     fetcher
	tracker     *RefreshTracker
	concurrency int
	now         func() time.Time
}

func NewWidgetDataService(dashboards dashboardSource, f fetcher, tracker *RefreshTracker, concurrency int) *widgetDataService {
	if concurrency < 1 {
		concurrency = defaultRefreshConcurrency
	}
	if tracker == nil {
		tracker = NewRefreshTracker()
	}
	return &widgetDataService{
		dashboards:  dashboards,
		fetcher:     f,
		tracker:     tracker,
		concurrency: concurrency,
		now:         time.Now,
	}
}

// GetWidgetData fetches and renders one widget. A result that lost the race to
// a newer refresh of the same widget is returned with Superseded set and is
// not recorded as the widget's latest data.
func (s *widgetDataService) GetWidgetData(ctx context.Context, uid, widgetID string, q dto.WidgetDataQuery) (dto.WidgetDataResponse, error) {
	store, err := s.dashboards.For(ctx, uid)
	if err != nil {
		return dto.WidgetDataResponse{}, err
	}
	w, ok := store.Get(widgetID)
	if !ok {
		return dto.WidgetDataResponse{}, errs.NewNotFoundError("widget not found")
	}
	return s.refresh(ctx, uid, store, w, q)
}

func (s *widgetDataService) refresh(ctx context.Context, uid string, store *DashboardStore, w models.Widget, q dto.WidgetDataQuery) (dto.WidgetDataResponse, error) {
	log, ctx := logger.With(ctx, "widget_id", w.ID, "provider", w.Provider)
	key := refreshKey(uid, w.ID)
	seq := s.tracker.Begin(key)

	req, interval := fetchRequestFor(w, q.Interval)
	doc, err := s.fetcher.Fetch(ctx, req)
	if err != nil {
		return dto.WidgetDataResponse{}, err
	}

	data, err := render(w, doc, q, interval)
	if err != nil {
		return dto.WidgetDataResponse{}, err
	}
	resp := dto.WidgetDataResponse{
		WidgetID:    w.ID,
		Type:        widgetKind(w.Type),
		Data:        data,
		LastUpdated: s.now(),
	}

	if !store.Has(w.ID) {
		s.tracker.Forget(key)
		log.Debug("discarding refresh of removed widget")
		return dto.WidgetDataResponse{}, errs.NewNotFoundError("widget was removed")
	}
	if !s.tracker.Apply(key, seq, resp) {
		log.Debug("refresh superseded", "seq", seq)
		resp.Superseded = true
	}
	return resp, nil
}

// RefreshAll refreshes every widget of uid concurrently. A failing widget gets
// an entry with Error set instead of failing the whole dashboard. Results keep
// the dashboard order.
func (s *widgetDataService) RefreshAll(ctx context.Context, uid string) ([]dto.WidgetDataResponse, error) {
	store, err := s.dashboards.For(ctx, uid)
	if err != nil {
		return nil, err
	}
	widgets := store.List()
	out := make([]dto.WidgetDataResponse, len(widgets))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, w := range widgets {
		g.Go(func() error {
			resp, err := s.refresh(gctx, uid, store, w, dto.WidgetDataQuery{})
			if err != nil {
				logger.FromContext(ctx).Warn("widget refresh failed", "widget_id", w.ID, "error", err)
				resp = dto.WidgetDataResponse{
					WidgetID:    w.ID,
					Type:        widgetKind(w.Type),
					LastUpdated: s.now(),
					Error:       &dto.WidgetError{Code: errs.Code(err), Message: err.Error()},
				}
			}
			out[i] = resp
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Latest returns the most recent applied refresh of a widget, if any.
func (s *widgetDataService) Latest(uid, widgetID string) (dto.WidgetDataResponse, bool) {
	return s.tracker.Latest(refreshKey(uid, widgetID))
}

// Forget drops the refresh state of a removed widget.
func (s *widgetDataService) Forget(uid, widgetID string) {
	s.tracker.Forget(refreshKey(uid, widgetID))
}

// Preview fetches an endpoint without a widget and lists the paths a card or
// table could bind to.
func (s *widgetDataService) Preview(ctx context.Context, req dto.FetchRequest) (dto.PreviewResponse, error) {
	doc, err := s.fetcher.Fetch(ctx, req)
	if err != nil {
		return dto.PreviewResponse{}, err
	}
	return dto.PreviewResponse{Data: doc, Paths: binding.Paths(doc, 0)}, nil
}

// --- Rendering ---

func render(w models.Widget, doc binding.Value, q dto.WidgetDataQuery, interval string) (any, error) {
	switch widgetKind(w.Type) {
	case dto.WidgetTypeCard:
		format := binding.FieldFormat(w.Mapping.Format)
		fields := make([]dto.CardField, len(w.Mapping.Paths))
		for i, p := range w.Mapping.Paths {
			fields[i] = dto.CardField{Path: p, Value: binding.Format(binding.Resolve(doc, p), format)}
		}
		return dto.CardData{Format: w.Mapping.Format, Fields: fields}, nil
	case dto.WidgetTypeTable:
		return binding.BuildTable(doc, binding.TableQuery{
			Columns:  w.Mapping.Columns,
			Search:   q.Search,
			Page:     q.Page,
			PageSize: q.PageSize,
		}), nil
	case dto.WidgetTypeCandle:
		candles := binding.ExtractCandles(doc)
		return dto.CandleData{Interval: interval, Candles: candles, Empty: len(candles) == 0}, nil
	}
	return nil, errs.NewValidationError("unknown widget type: " + w.Type)
}

// widgetKind maps imported legacy types onto the type they render as.
func widgetKind(t string) string {
	if t == dto.WidgetTypeLine {
		return dto.WidgetTypeCandle
	}
	return t
}

// fetchRequestFor builds the provider call of w. Candle widgets always send an
// interval: the query override wins over the saved params, then daily.
func fetchRequestFor(w models.Widget, override string) (dto.FetchRequest, string) {
	params := make(map[string]any, len(w.Params)+1)
	for k, v := range w.Params {
		params[k] = v
	}
	req := dto.FetchRequest{Provider: w.Provider, Endpoint: w.Endpoint, Params: params}
	if widgetKind(w.Type) != dto.WidgetTypeCandle {
		return req, ""
	}

	interval := override
	if interval == "" {
		if saved, ok := w.Params["interval"].(string); ok && saved != "" {
			interval = saved
		}
	}
	if interval == "" {
		interval = dto.IntervalDaily
	}
	params["interval"] = interval
	return req, interval
}
