package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/GregMSThompson/finboard/internal/binding"
	"github.com/GregMSThompson/finboard/internal/dto"
	"github.com/GregMSThompson/finboard/internal/errs"
	"github.com/GregMSThompson/finboard/internal/models"
	"github.com/GregMSThompson/finboard/pkg/helpers"
	"github.com/GregMSThompson/finboard/pkg/logger"
)

// Persister reads and writes one user's dashboard record. Load returns a nil
// record and no error when nothing was saved yet.
type Persister interface {
	Load(ctx context.Context, uid string) (*models.PersistedDashboard, error)
	Save(ctx context.Context, uid string, rec *models.PersistedDashboard) error
}

// DashboardStore holds one user's widget definitions. The in-memory collection
// is authoritative; every mutation is written through to the Persister.
type DashboardStore struct {
	uid       string
	persister Persister
	newID     func() string

	mu          sync.RWMutex
	widgets     []models.Widget
	hasSeenTour bool
}

// LoadDashboard reads the saved dashboard of uid and applies the "line" to
// "candle" migration before returning the store. The record is re-saved only
// when the migration changed something.
func LoadDashboard(ctx context.Context, uid string, p Persister) (*DashboardStore, error) {
	s := &DashboardStore{
		uid:       uid,
		persister: p,
		newID:     func() string { return uuid.New().String() },
		widgets:   []models.Widget{},
	}

	rec, err := p.Load(ctx, uid)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return s, nil
	}

	widgets, migrated := migrateWidgets(rec.State.Widgets)
	s.widgets = widgets
	s.hasSeenTour = rec.State.HasSeenTour

	if migrated > 0 {
		logger.FromContext(ctx).Info("migrated legacy widgets", "uid", uid, "count", migrated)
		if err := s.persist(ctx); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// migrateWidgets renames the legacy "line" widget type to "candle". Applying
// it twice is the same as applying it once.
func migrateWidgets(in []models.Widget) ([]models.Widget, int) {
	out := models.CloneWidgets(in)
	n := 0
	for i := range out {
		if out[i].Type == dto.WidgetTypeLine {
			out[i].Type = dto.WidgetTypeCandle
			n++
		}
	}
	return out, n
}

// --- Mutations ---

func (s *DashboardStore) Create(ctx context.Context, draft dto.WidgetDraft) (models.Widget, error) {
	if err := validateWidgetType(draft.Type); err != nil {
		return models.Widget{}, err
	}
	refresh := helpers.ValueOr(draft.RefreshMs, dto.DefaultRefreshMs)
	if err := validateRefresh(refresh); err != nil {
		return models.Widget{}, err
	}
	if err := validateMapping(draft.Mapping); err != nil {
		return models.Widget{}, err
	}

	name := draft.Name
	if name == "" {
		name = draft.Title
	}
	if name == "" {
		name = dto.DefaultWidgetName
	}
	params := draft.Params
	if params == nil {
		params = map[string]any{}
	}

	w := models.Widget{
		ID:        s.newID(),
		Name:      name,
		Type:      draft.Type,
		Provider:  draft.Provider,
		Endpoint:  draft.Endpoint,
		Params:    params,
		RefreshMs: refresh,
		Mapping:   mappingFor(draft.Type, draft.Mapping),
	}.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.widgets = append(s.widgets, w)
	return w.Clone(), s.persist(ctx)
}

// Update merges patch into the widget with the given id. An unknown id is not
// an error: nothing changes and updated is false.
func (s *DashboardStore) Update(ctx context.Context, id string, patch dto.WidgetPatch) (updated bool, err error) {
	if patch.Type != nil {
		if err := validateWidgetType(*patch.Type); err != nil {
			return false, err
		}
	}
	if patch.RefreshMs != nil {
		if err := validateRefresh(*patch.RefreshMs); err != nil {
			return false, err
		}
	}
	if patch.Mapping != nil {
		if err := validateMapping(*patch.Mapping); err != nil {
			return false, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return false, nil
	}
	w := s.widgets[i].Clone()
	if patch.Name != nil {
		w.Name = *patch.Name
	}
	if patch.Provider != nil {
		w.Provider = *patch.Provider
	}
	if patch.Endpoint != nil {
		w.Endpoint = *patch.Endpoint
	}
	if patch.Params != nil {
		w.Params = patch.Params
	}
	if patch.RefreshMs != nil {
		w.RefreshMs = *patch.RefreshMs
	}
	if patch.Mapping != nil {
		w.Mapping = *patch.Mapping
	}
	if patch.Type != nil && *patch.Type != w.Type {
		w.Type = *patch.Type
		w.Mapping = mappingFor(w.Type, w.Mapping)
	} else if patch.Mapping != nil {
		w.Mapping = mappingFor(w.Type, w.Mapping)
	}

	s.widgets[i] = w.Clone()
	return true, s.persist(ctx)
}

// Remove deletes the widget with the given id. An unknown id is a no-op.
func (s *DashboardStore) Remove(ctx context.Context, id string) (removed bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return false, nil
	}
	s.widgets = append(s.widgets[:i:i], s.widgets[i+1:]...)
	return true, s.persist(ctx)
}

// Reorder moves the widget at index from to index to, shifting the widgets in
// between. Both indices must address an existing widget.
func (s *DashboardStore) Reorder(ctx context.Context, from, to int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.widgets)
	if from < 0 || from >= n || to < 0 || to >= n {
		return errs.NewValidationError(fmt.Sprintf("reorder indices %d -> %d out of range for %d widgets", from, to, n))
	}
	if from == to {
		return nil
	}

	moved := s.widgets[from]
	rest := append(append(make([]models.Widget, 0, n), s.widgets[:from]...), s.widgets[from+1:]...)
	out := make([]models.Widget, 0, n)
	out = append(out, rest[:to]...)
	out = append(out, moved)
	out = append(out, rest[to:]...)
	s.widgets = out
	return s.persist(ctx)
}

// ImportAll replaces every widget with the imported ones. Widget shapes are
// not validated.
func (s *DashboardStore) ImportAll(ctx context.Context, exp dto.DashboardExport) error {
	if exp.Version > dto.ExportVersion {
		return errs.NewValidationError(fmt.Sprintf("unsupported export version %d", exp.Version))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.widgets = models.CloneWidgets(exp.Widgets)
	return s.persist(ctx)
}

func (s *DashboardStore) SetHasSeenTour(ctx context.Context, seen bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hasSeenTour = seen
	return s.persist(ctx)
}

// --- Reads ---

func (s *DashboardStore) ExportAll() dto.DashboardExport {
	return dto.DashboardExport{Version: dto.ExportVersion, Widgets: s.List()}
}

func (s *DashboardStore) List() []models.Widget {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return models.CloneWidgets(s.widgets)
}

func (s *DashboardStore) Get(id string) (models.Widget, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOf(id); i >= 0 {
		return s.widgets[i].Clone(), true
	}
	return models.Widget{}, false
}

func (s *DashboardStore) Has(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.indexOf(id) >= 0
}

func (s *DashboardStore) HasSeenTour() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hasSeenTour
}

func (s *DashboardStore) View() dto.DashboardView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return dto.DashboardView{Widgets: models.CloneWidgets(s.widgets), HasSeenTour: s.hasSeenTour}
}

// --- Helpers ---

// indexOf expects s.mu to be held.
func (s *DashboardStore) indexOf(id string) int {
	for i := range s.widgets {
		if s.widgets[i].ID == id {
			return i
		}
	}
	return -1
}

// persist expects s.mu to be held.
func (s *DashboardStore) persist(ctx context.Context) error {
	rec := &models.PersistedDashboard{
		State: models.DashboardState{
			Widgets:     models.CloneWidgets(s.widgets),
			HasSeenTour: s.hasSeenTour,
		},
		Version: dto.StateVersion,
	}
	if err := s.persister.Save(ctx, s.uid, rec); err != nil {
		logger.FromContext(ctx).Error("failed to save dashboard", "uid", s.uid, "error", err)
		return err
	}
	return nil
}

// --- Validation ---

func validateWidgetType(t string) error {
	switch t {
	case dto.WidgetTypeCard, dto.WidgetTypeTable, dto.WidgetTypeCandle:
		return nil
	}
	return errs.NewValidationError("unknown widget type: " + t)
}

func validateRefresh(ms int64) error {
	if ms < 0 {
		return errs.NewValidationError("refreshMs must be >= 0")
	}
	return nil
}

func validateMapping(m models.Mapping) error {
	if !binding.FieldFormat(m.Format).Valid() {
		return errs.NewValidationError(fmt.Sprintf("mapping.format %q must be one of: number, currency, percent", m.Format))
	}
	return nil
}

// mappingFor keeps only the mapping fields used by widget type t.
func mappingFor(t string, m models.Mapping) models.Mapping {
	switch t {
	case dto.WidgetTypeCard:
		return models.Mapping{Paths: m.Paths, Format: m.Format}
	case dto.WidgetTypeTable:
		return models.Mapping{Columns: m.Columns}
	case dto.WidgetTypeCandle:
		return models.Mapping{X: m.X, Y: m.Y}
	}
	return m
}
