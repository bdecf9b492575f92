package services

import (
	"sync"
	"testing"

	"github.com/GregMSThompson/finboard/internal/dto"
)

func TestRefreshTracker_LatestWins(t *testing.T) {
	tr := NewRefreshTracker()
	first := tr.Begin("u/w1")
	second := tr.Begin("u/w1")

	if !tr.Apply("u/w1", second, dto.WidgetDataResponse{WidgetID: "second"}) {
		t.Fatal("newest refresh should apply")
	}
	if tr.Apply("u/w1", first, dto.WidgetDataResponse{WidgetID: "first"}) {
		t.Fatal("stale refresh should not apply")
	}
	got, ok := tr.Latest("u/w1")
	if !ok || got.WidgetID != "second" {
		t.Errorf("unexpected latest: %+v", got)
	}
}

func TestRefreshTracker_KeysAreIndependent(t *testing.T) {
	tr := NewRefreshTracker()
	a := tr.Begin("u/a")
	tr.Begin("u/b")
	if !tr.Apply("u/a", a, dto.WidgetDataResponse{}) {
		t.Error("refresh of another widget must not supersede")
	}
}

func TestRefreshTracker_ForgetDropsInFlight(t *testing.T) {
	tr := NewRefreshTracker()
	old := tr.Begin("u/w1")
	tr.Forget("u/w1")
	if tr.Apply("u/w1", old, dto.WidgetDataResponse{}) {
		t.Fatal("refresh of a forgotten widget should not apply")
	}

	// a re-added widget with the same key starts fresh
	fresh := tr.Begin("u/w1")
	if fresh == old {
		t.Fatal("sequence numbers must not be reused")
	}
	if tr.Apply("u/w1", old, dto.WidgetDataResponse{}) {
		t.Fatal("pre-forget refresh should still not apply")
	}
	if _, ok := tr.Latest("u/w1"); ok {
		t.Error("expected nothing recorded")
	}
}

func TestRefreshTracker_Concurrent(t *testing.T) {
	tr := NewRefreshTracker()
	var wg sync.WaitGroup
	seqs := make([]uint64, 50)
	for i := range seqs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			seqs[i] = tr.Begin("u/w1")
		}()
	}
	wg.Wait()

	var newest uint64
	for _, s := range seqs {
		if s > newest {
			newest = s
		}
	}
	applied := 0
	for _, s := range seqs {
		if tr.Apply("u/w1", s, dto.WidgetDataResponse{}) {
			applied++
			if s != newest {
				t.Errorf("applied non-latest sequence %d", s)
			}
		}
	}
	if applied != 1 {
		t.Errorf("expected exactly one applied result, got %d", applied)
	}
}
