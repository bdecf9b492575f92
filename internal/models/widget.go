package models

import "time"

// DashboardRecord is the name every persisted dashboard is stored under.
const DashboardRecord = "finboard-dashboard"

// Widget is a user's widget definition: which provider endpoint to poll and how
// to bind the response to a card, table or candle chart.
type Widget struct {
	ID        string         `firestore:"id" json:"id"`
	Name      string         `firestore:"name" json:"name"`
	Type      string         `firestore:"type" json:"type"`
	Provider  string         `firestore:"provider" json:"provider"`
	Endpoint  string         `firestore:"endpoint" json:"endpoint"`
	Params    map[string]any `firestore:"params" json:"params"`
	RefreshMs int64          `firestore:"refreshMs" json:"refreshMs"`
	Mapping   Mapping        `firestore:"mapping" json:"mapping"`
}

// Mapping holds the binding fields of every widget type. Only the fields of
// the widget's own type are set: card uses Paths and Format, table uses
// Columns, candle may carry X and Y.
type Mapping struct {
	Paths   []string `firestore:"paths,omitempty" json:"paths,omitempty"`
	Format  string   `firestore:"format,omitempty" json:"format,omitempty"`
	Columns []string `firestore:"columns,omitempty" json:"columns,omitempty"`
	X       string   `firestore:"x,omitempty" json:"x,omitempty"`
	Y       string   `firestore:"y,omitempty" json:"y,omitempty"`
}

// DashboardState is the user-visible part of a persisted dashboard.
type DashboardState struct {
	Widgets     []Widget `firestore:"widgets" json:"widgets"`
	HasSeenTour bool     `firestore:"hasSeenTour" json:"hasSeenTour"`
}

// PersistedDashboard is the record written by every persister.
type PersistedDashboard struct {
	State     DashboardState `firestore:"state" json:"state"`
	Version   int            `firestore:"version" json:"version"`
	UpdatedAt time.Time      `firestore:"updatedAt" json:"updatedAt"`
}

// Clone returns a deep copy of w. Params are copied recursively.
func (w Widget) Clone() Widget {
	out := w
	out.Params = cloneParams(w.Params)
	out.Mapping.Paths = cloneStrings(w.Mapping.Paths)
	out.Mapping.Columns = cloneStrings(w.Mapping.Columns)
	return out
}

// CloneWidgets deep-copies a widget slice. The result is never nil.
func CloneWidgets(in []Widget) []Widget {
	out := make([]Widget, len(in))
	for i, w := range in {
		out[i] = w.Clone()
	}
	return out
}

func cloneParams(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = cloneAny(v)
	}
	return out
}

func cloneAny(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneParams(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneAny(e)
		}
		return out
	case []string:
		return cloneStrings(t)
	default:
		return v
	}
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append([]string(nil), in...)
}
