package services

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/GregMSThompson/finboard/pkg/logger"
)

// Dashboards keeps one loaded DashboardStore per user.
type Dashboards struct {
	persister Persister
	loads     singleflight.Group // key: uid

	mu     sync.RWMutex
	stores map[string]*DashboardStore
}

func NewDashboards(p Persister) *Dashboards {
	return &Dashboards{persister: p, stores: make(map[string]*DashboardStore)}
}

// For returns the dashboard of uid, loading it on first use. Concurrent first
// calls for one user share a single load; loads of different users run in
// parallel.
func (d *Dashboards) For(ctx context.Context, uid string) (*DashboardStore, error) {
	if s, ok := d.cached(uid); ok {
		return s, nil
	}

	ch := d.loads.DoChan(uid, func() (any, error) {
		if s, ok := d.cached(uid); ok {
			return s, nil
		}
		s, err := LoadDashboard(context.WithoutCancel(ctx), uid, d.persister)
		if err != nil {
			return nil, err
		}
		d.mu.Lock()
		d.stores[uid] = s
		d.mu.Unlock()
		logger.FromContext(ctx).Debug("dashboard loaded", "uid", uid, "widgets", len(s.widgets))
		return s, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*DashboardStore), nil
	}
}

func (d *Dashboards) cached(uid string) (*DashboardStore, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	s, ok := d.stores[uid]
	return s, ok
}
