package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/GregMSThompson/finboard/internal/binding"
	"github.com/GregMSThompson/finboard/internal/dto"
	"github.com/GregMSThompson/finboard/internal/errs"
	"github.com/GregMSThompson/finboard/internal/middleware"
	"github.com/GregMSThompson/finboard/internal/models"
)

// --- Stub services ---

type stubDashboardService struct {
	view          dto.DashboardView
	getErr        error
	addWidget     models.Widget
	addErr        error
	updateResult  dto.UpdateResult
	updateErr     error
	removeResult  dto.RemoveResult
	removeErr     error
	reorderErr    error
	export        dto.DashboardExport
	importErr     error
	tourErr       error
	lastUID       string
	lastDraft     dto.WidgetDraft
	lastUpdateID  string
	lastPatch     dto.WidgetPatch
	lastRemoveID  string
	lastReorder   dto.ReorderRequest
	lastImport    dto.DashboardExport
	lastTourValue *bool
}

func (s *stubDashboardService) GetDashboard(_ context.Context, uid string) (dto.DashboardView, error) {
	s.lastUID = uid
	return s.view, s.getErr
}

func (s *stubDashboardService) AddWidget(_ context.Context, _ string, draft dto.WidgetDraft) (models.Widget, error) {
	s.lastDraft = draft
	return s.addWidget, s.addErr
}

func (s *stubDashboardService) UpdateWidget(_ context.Context, _, widgetID string, patch dto.WidgetPatch) (dto.UpdateResult, error) {
	s.lastUpdateID = widgetID
	s.lastPatch = patch
	return s.updateResult, s.updateErr
}

func (s *stubDashboardService) RemoveWidget(_ context.Context, _, widgetID string) (dto.RemoveResult, error) {
	s.lastRemoveID = widgetID
	return s.removeResult, s.removeErr
}

func (s *stubDashboardService) ReorderWidgets(_ context.Context, _ string, req dto.ReorderRequest) error {
	s.lastReorder = req
	return s.reorderErr
}

func (s *stubDashboardService) Export(context.Context, string) (dto.DashboardExport, error) {
	return s.export, nil
}

func (s *stubDashboardService) Import(_ context.Context, _ string, exp dto.DashboardExport) error {
	s.lastImport = exp
	return s.importErr
}

func (s *stubDashboardService) SetHasSeenTour(_ context.Context, _ string, seen bool) error {
	s.lastTourValue = &seen
	return s.tourErr
}

type stubWidgetDataService struct {
	resp        dto.WidgetDataResponse
	all         []dto.WidgetDataResponse
	preview     dto.PreviewResponse
	err         error
	lastID      string
	lastQuery   dto.WidgetDataQuery
	lastPreview dto.FetchRequest
}

func (s *stubWidgetDataService) GetWidgetData(_ context.Context, _, widgetID string, q dto.WidgetDataQuery) (dto.WidgetDataResponse, error) {
	s.lastID = widgetID
	s.lastQuery = q
	return s.resp, s.err
}

func (s *stubWidgetDataService) RefreshAll(context.Context, string) ([]dto.WidgetDataResponse, error) {
	return s.all, s.err
}

func (s *stubWidgetDataService) Preview(_ context.Context, req dto.FetchRequest) (dto.PreviewResponse, error) {
	s.lastPreview = req
	return s.preview, s.err
}

// withUID injects a UID into the request context.
func withUID(r *http.Request, uid string) *http.Request {
	ctx := context.WithValue(r.Context(), middleware.UIDKey, uid)
	return r.WithContext(ctx)
}

// withChiParam injects a chi URL parameter into the request context.
func withChiParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	ctx := context.WithValue(r.Context(), chi.RouteCtxKey, rctx)
	return r.WithContext(ctx)
}

func newTestHandlers() (*dashboardHandlers, *stubDashboardService, *stubWidgetDataService, *stubResponseHandler) {
	svc := &stubDashboardService{}
	data := &stubWidgetDataService{}
	resp := &stubResponseHandler{}
	h := NewDashboardHandlers(&Deps{ResponseHandler: resp, DashboardSvc: svc, WidgetDataSvc: data})
	return h, svc, data, resp
}

// --- Tests ---

func TestGetDashboard_OK(t *testing.T) {
	h, svc, _, resp := newTestHandlers()
	svc.view = dto.DashboardView{Widgets: []models.Widget{{ID: "w1", Type: dto.WidgetTypeCard}}}

	req := withUID(httptest.NewRequest(http.MethodGet, "/dashboard", nil), "uid1")
	h.GetDashboard(httptest.NewRecorder(), req)

	if !resp.writeSuccessCalled || resp.writeSuccessStatus != http.StatusOK {
		t.Fatalf("expected WriteSuccess with 200, got called=%v status=%d", resp.writeSuccessCalled, resp.writeSuccessStatus)
	}
	if svc.lastUID != "uid1" {
		t.Errorf("uid not passed to service: %q", svc.lastUID)
	}
}

func TestGetDashboard_ServiceError(t *testing.T) {
	h, svc, _, resp := newTestHandlers()
	svc.getErr = errors.New("db failure")

	req := withUID(httptest.NewRequest(http.MethodGet, "/dashboard", nil), "uid1")
	h.GetDashboard(httptest.NewRecorder(), req)

	if !resp.handleErrorCalled {
		t.Fatal("expected HandleError to be called")
	}
}

func TestAddWidget_OK(t *testing.T) {
	h, svc, _, resp := newTestHandlers()
	svc.addWidget = models.Widget{ID: "w1", Type: dto.WidgetTypeCard}

	body := `{"name":"AAPL","type":"card","provider":"finnhub","endpoint":"/quote","params":{"symbol":"AAPL"},"refreshMs":30000,"mapping":{"paths":["c"],"format":"currency"}}`
	req := withUID(httptest.NewRequest(http.MethodPost, "/dashboard/widgets", strings.NewReader(body)), "uid1")
	h.AddWidget(httptest.NewRecorder(), req)

	if !resp.writeSuccessCalled || resp.writeSuccessStatus != http.StatusCreated {
		t.Fatalf("expected WriteSuccess with 201, got called=%v status=%d", resp.writeSuccessCalled, resp.writeSuccessStatus)
	}
	d := svc.lastDraft
	if d.Type != dto.WidgetTypeCard || d.Params["symbol"] != "AAPL" || d.RefreshMs == nil || *d.RefreshMs != 30000 {
		t.Errorf("unexpected draft passed to service: %+v", d)
	}
	if d.Mapping.Format != "currency" || len(d.Mapping.Paths) != 1 {
		t.Errorf("unexpected mapping: %+v", d.Mapping)
	}
}

func TestAddWidget_InvalidJSON(t *testing.T) {
	h, _, _, resp := newTestHandlers()

	req := withUID(httptest.NewRequest(http.MethodPost, "/dashboard/widgets", strings.NewReader("not-json")), "uid1")
	h.AddWidget(httptest.NewRecorder(), req)

	var ve *errs.ValidationError
	if !resp.handleErrorCalled || !errors.As(resp.handleError, &ve) {
		t.Fatalf("expected ValidationError, got %v", resp.handleError)
	}
}

func TestUpdateWidget_PassesPatch(t *testing.T) {
	h, svc, _, resp := newTestHandlers()
	svc.updateResult = dto.UpdateResult{Updated: true}

	req := httptest.NewRequest(http.MethodPatch, "/dashboard/widgets/w1", strings.NewReader(`{"name":"Renamed"}`))
	req = withChiParam(withUID(req, "uid1"), "widgetId", "w1")
	h.UpdateWidget(httptest.NewRecorder(), req)

	if !resp.writeSuccessCalled || resp.writeSuccessData.(dto.UpdateResult) != svc.updateResult {
		t.Fatalf("expected update result, got %+v", resp.writeSuccessData)
	}
	if svc.lastUpdateID != "w1" || svc.lastPatch.Name == nil || *svc.lastPatch.Name != "Renamed" {
		t.Errorf("unexpected patch: id=%s %+v", svc.lastUpdateID, svc.lastPatch)
	}
	if svc.lastPatch.Type != nil || svc.lastPatch.Mapping != nil || svc.lastPatch.Params != nil {
		t.Error("absent fields must stay nil")
	}
}

func TestRemoveWidget(t *testing.T) {
	h, svc, _, resp := newTestHandlers()
	svc.removeResult = dto.RemoveResult{Removed: false}

	req := withChiParam(withUID(httptest.NewRequest(http.MethodDelete, "/dashboard/widgets/missing", nil), "uid1"), "widgetId", "missing")
	h.RemoveWidget(httptest.NewRecorder(), req)

	if !resp.writeSuccessCalled || resp.writeSuccessStatus != http.StatusOK {
		t.Fatal("unknown id should still succeed")
	}
	if svc.lastRemoveID != "missing" {
		t.Errorf("lastRemoveID = %q", svc.lastRemoveID)
	}
}

func TestReorderWidgets(t *testing.T) {
	h, svc, _, resp := newTestHandlers()

	req := withUID(httptest.NewRequest(http.MethodPut, "/dashboard/widgets/reorder", strings.NewReader(`{"from":2,"to":0}`)), "uid1")
	h.ReorderWidgets(httptest.NewRecorder(), req)

	if !resp.writeSuccessCalled || svc.lastReorder != (dto.ReorderRequest{From: 2, To: 0}) {
		t.Fatalf("unexpected reorder: %+v", svc.lastReorder)
	}

	h, svc, _, resp = newTestHandlers()
	svc.reorderErr = errs.NewValidationError("out of range")
	req = withUID(httptest.NewRequest(http.MethodPut, "/dashboard/widgets/reorder", strings.NewReader(`{"from":9,"to":0}`)), "uid1")
	h.ReorderWidgets(httptest.NewRecorder(), req)
	if !resp.handleErrorCalled {
		t.Fatal("expected HandleError")
	}
}

func TestImportAndTour(t *testing.T) {
	h, svc, _, resp := newTestHandlers()

	body := `{"version":1,"widgets":[{"id":"w9","name":"Chart","type":"line"}]}`
	req := withUID(httptest.NewRequest(http.MethodPost, "/dashboard/import", strings.NewReader(body)), "uid1")
	h.Import(httptest.NewRecorder(), req)
	if !resp.writeSuccessCalled || len(svc.lastImport.Widgets) != 1 || svc.lastImport.Widgets[0].Type != dto.WidgetTypeLine {
		t.Fatalf("unexpected import: %+v", svc.lastImport)
	}

	req = withUID(httptest.NewRequest(http.MethodPut, "/dashboard/tour", strings.NewReader(`{"hasSeenTour":true}`)), "uid1")
	h.SetTour(httptest.NewRecorder(), req)
	if svc.lastTourValue == nil || !*svc.lastTourValue {
		t.Fatal("tour flag not passed")
	}
}

func TestGetWidgetData_ParsesQuery(t *testing.T) {
	h, _, data, resp := newTestHandlers()
	data.resp = dto.WidgetDataResponse{WidgetID: "w1", Type: dto.WidgetTypeTable}

	req := httptest.NewRequest(http.MethodGet, "/dashboard/widgets/w1/data?q=apple&page=2&pageSize=10&interval=weekly", nil)
	req = withChiParam(withUID(req, "uid1"), "widgetId", "w1")
	h.GetWidgetData(httptest.NewRecorder(), req)

	if !resp.writeSuccessCalled {
		t.Fatalf("expected success, got error %v", resp.handleError)
	}
	want := dto.WidgetDataQuery{Interval: dto.IntervalWeekly, Search: "apple", Page: 2, PageSize: 10}
	if data.lastID != "w1" || data.lastQuery != want {
		t.Errorf("query = %+v, want %+v", data.lastQuery, want)
	}
}

func TestGetWidgetData_InvalidQuery(t *testing.T) {
	for _, qs := range []string{"page=abc", "pageSize=-1", "interval=hourly"} {
		t.Run(qs, func(t *testing.T) {
			h, _, data, resp := newTestHandlers()
			req := httptest.NewRequest(http.MethodGet, "/dashboard/widgets/w1/data?"+qs, nil)
			req = withChiParam(withUID(req, "uid1"), "widgetId", "w1")
			h.GetWidgetData(httptest.NewRecorder(), req)

			var ve *errs.ValidationError
			if !errors.As(resp.handleError, &ve) {
				t.Fatalf("expected ValidationError, got %v", resp.handleError)
			}
			if data.lastID != "" {
				t.Error("service should not be called")
			}
		})
	}
}

func TestGetWidgetData_NotFound(t *testing.T) {
	h, _, data, resp := newTestHandlers()
	data.err = errs.NewNotFoundError("widget not found")

	req := withChiParam(withUID(httptest.NewRequest(http.MethodGet, "/dashboard/widgets/nope/data", nil), "uid1"), "widgetId", "nope")
	h.GetWidgetData(httptest.NewRecorder(), req)

	var nf *errs.NotFoundError
	if !errors.As(resp.handleError, &nf) {
		t.Fatalf("expected NotFoundError, got %v", resp.handleError)
	}
}

func TestPreview(t *testing.T) {
	h, _, data, resp := newTestHandlers()
	data.preview = dto.PreviewResponse{Data: binding.MustParse(`{"c":1}`), Paths: []string{"c"}}

	body := `{"provider":"finnhub","endpoint":"/quote","params":{"symbol":"MSFT"}}`
	req := withUID(httptest.NewRequest(http.MethodPost, "/dashboard/preview", strings.NewReader(body)), "uid1")
	h.Preview(httptest.NewRecorder(), req)

	if !resp.writeSuccessCalled {
		t.Fatalf("expected success, got %v", resp.handleError)
	}
	if data.lastPreview.Provider != dto.ProviderFinnhub || data.lastPreview.Params["symbol"] != "MSFT" {
		t.Errorf("unexpected preview request: %+v", data.lastPreview)
	}
}

func TestRoutes(t *testing.T) {
	h, svc, data, _ := newTestHandlers()
	svc.removeResult = dto.RemoveResult{Removed: true}
	router := h.DashboardRoutes()

	tests := []struct {
		method, path, body string
		want               int
	}{
		{http.MethodGet, "/", "", http.StatusOK},
		{http.MethodPost, "/widgets", `{"type":"card"}`, http.StatusCreated},
		{http.MethodPut, "/widgets/reorder", `{"from":0,"to":0}`, http.StatusOK},
		{http.MethodPatch, "/widgets/w1", `{}`, http.StatusOK},
		{http.MethodDelete, "/widgets/w1", "", http.StatusOK},
		{http.MethodGet, "/widgets/w1/data", "", http.StatusOK},
		{http.MethodGet, "/data", "", http.StatusOK},
		{http.MethodGet, "/export", "", http.StatusOK},
		{http.MethodPost, "/import", `{"version":1,"widgets":[]}`, http.StatusOK},
		{http.MethodPut, "/tour", `{"hasSeenTour":true}`, http.StatusOK},
		{http.MethodPost, "/preview", `{"provider":"finnhub","endpoint":"/quote"}`, http.StatusOK},
		{http.MethodGet, "/widget-types", "", http.StatusOK},
		{http.MethodPut, "/widgets/w1", `{}`, http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := withUID(httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body)), "uid1")
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)
			if rr.Code != tt.want {
				t.Errorf("status = %d, want %d", rr.Code, tt.want)
			}
		})
	}
	if data.lastID != "w1" {
		t.Errorf("widget id not routed: %q", data.lastID)
	}
}

func TestGetWidgetTypes(t *testing.T) {
	h, _, _, resp := newTestHandlers()
	h.GetWidgetTypes(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/dashboard/widget-types", nil))

	c, ok := resp.writeSuccessData.(catalog)
	if !ok {
		t.Fatalf("unexpected payload %T", resp.writeSuccessData)
	}
	if len(c.Types) != 3 || len(c.Formats) != 3 || len(c.Providers) != 2 || len(c.Intervals) != 3 {
		t.Errorf("unexpected catalog: %+v", c)
	}
	for _, e := range c.Types {
		if e.Type == dto.WidgetTypeLine {
			t.Error("legacy line type must not be offered")
		}
		if e.Type == dto.WidgetTypeTable {
			desc, _ := e.MappingFields["columns"].(string)
			if !strings.Contains(desc, "all rows") {
				t.Errorf("table columns description = %q", desc)
			}
		}
	}
}
