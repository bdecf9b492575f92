package services

import (
	"sync"

	"github.com/GregMSThompson/finboard/internal/dto"
)

// RefreshTracker orders concurrent refreshes of the same widget. Each refresh
// takes a sequence number from Begin; only the result carrying the latest
// number issued for its key is kept. Numbers are never reused, even across
// Forget.
type RefreshTracker struct {
	mu     sync.Mutex
	next   uint64
	seq    map[string]uint64
	latest map[string]dto.WidgetDataResponse
}

func NewRefreshTracker() *RefreshTracker {
	return &RefreshTracker{
		seq:    make(map[string]uint64),
		latest: make(map[string]dto.WidgetDataResponse),
	}
}

func (t *RefreshTracker) Begin(key string) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.next++
	t.seq[key] = t.next
	return t.next
}

// Apply stores resp when seq is still the newest refresh of key and reports
// whether it did.
func (t *RefreshTracker) Apply(key string, seq uint64, resp dto.WidgetDataResponse) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if cur, ok := t.seq[key]; !ok || cur != seq {
		return false
	}
	t.latest[key] = resp
	return true
}

// Forget drops everything known about key. Refreshes begun before the call
// can no longer be applied.
func (t *RefreshTracker) Forget(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.seq, key)
	delete(t.latest, key)
}

func (t *RefreshTracker) Latest(key string) (dto.WidgetDataResponse, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	resp, ok := t.latest[key]
	return resp, ok
}

func refreshKey(uid, widgetID string) string {
	return uid + "/" + widgetID
}
