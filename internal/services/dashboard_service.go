package services

import (
	"context"

	"github.com/GregMSThompson/finboard/internal/dto"
	"github.com/GregMSThompson/finboard/internal/models"
	"github.com/GregMSThompson/finboard/pkg/logger"
)

// dashboardService exposes the widget definition store of the calling user.
type dashboardService struct {
	dashboards dashboardSource
	tracker    *RefreshTracker
}

// NewDashboardService returns the uid-scoped dashboard operations. The tracker
// is shared with the widget data service so removed widgets drop their
// in-flight refreshes.
func NewDashboardService(dashboards dashboardSource, tracker *RefreshTracker) *dashboardService {
	if tracker == nil {
		tracker = NewRefreshTracker()
	}
	return &dashboardService{dashboards: dashboards, tracker: tracker}
}

func (s *dashboardService) GetDashboard(ctx context.Context, uid string) (dto.DashboardView, error) {
	store, err := s.dashboards.For(ctx, uid)
	if err != nil {
		return dto.DashboardView{}, err
	}
	return store.View(), nil
}

func (s *dashboardService) AddWidget(ctx context.Context, uid string, draft dto.WidgetDraft) (models.Widget, error) {
	store, err := s.dashboards.For(ctx, uid)
	if err != nil {
		return models.Widget{}, err
	}
	w, err := store.Create(ctx, draft)
	if err != nil {
		return models.Widget{}, err
	}
	logger.FromContext(ctx).Info("widget created", "widget_id", w.ID, "type", w.Type)
	return w, nil
}

func (s *dashboardService) UpdateWidget(ctx context.Context, uid, widgetID string, patch dto.WidgetPatch) (dto.UpdateResult, error) {
	store, err := s.dashboards.For(ctx, uid)
	if err != nil {
		return dto.UpdateResult{}, err
	}
	updated, err := store.Update(ctx, widgetID, patch)
	return dto.UpdateResult{Updated: updated}, err
}

func (s *dashboardService) RemoveWidget(ctx context.Context, uid, widgetID string) (dto.RemoveResult, error) {
	store, err := s.dashboards.For(ctx, uid)
	if err != nil {
		return dto.RemoveResult{}, err
	}
	removed, err := store.Remove(ctx, widgetID)
	if removed {
		s.tracker.Forget(refreshKey(uid, widgetID))
		logger.FromContext(ctx).Info("widget removed", "widget_id", widgetID)
	}
	return dto.RemoveResult{Removed: removed}, err
}

func (s *dashboardService) ReorderWidgets(ctx context.Context, uid string, req dto.ReorderRequest) error {
	store, err := s.dashboards.For(ctx, uid)
	if err != nil {
		return err
	}
	return store.Reorder(ctx, req.From, req.To)
}

func (s *dashboardService) Export(ctx context.Context, uid string) (dto.DashboardExport, error) {
	store, err := s.dashboards.For(ctx, uid)
	if err != nil {
		return dto.DashboardExport{}, err
	}
	return store.ExportAll(), nil
}

// Import replaces the dashboard of uid. Refresh state of the replaced widgets
// is dropped.
func (s *dashboardService) Import(ctx context.Context, uid string, exp dto.DashboardExport) error {
	store, err := s.dashboards.For(ctx, uid)
	if err != nil {
		return err
	}
	previous := store.List()
	if err := store.ImportAll(ctx, exp); err != nil {
		return err
	}
	for _, w := range previous {
		if !store.Has(w.ID) {
			s.tracker.Forget(refreshKey(uid, w.ID))
		}
	}
	logger.FromContext(ctx).Info("dashboard imported", "widgets", len(exp.Widgets))
	return nil
}

func (s *dashboardService) SetHasSeenTour(ctx context.Context, uid string, seen bool) error {
	store, err := s.dashboards.For(ctx, uid)
	if err != nil {
		return err
	}
	return store.SetHasSeenTour(ctx, seen)
}
