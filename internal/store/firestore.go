package store

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/GregMSThompson/finboard/internal/errs"
	"github.com/GregMSThompson/finboard/internal/models"
)

type firestoreState struct {
	client *firestore.Client
}

// NewFirestoreState persists each dashboard as one document under
// users/{uid}/dashboards.
func NewFirestoreState(client *firestore.Client) *firestoreState {
	return &firestoreState{client: client}
}

func (s *firestoreState) doc(uid string) *firestore.DocumentRef {
	return s.client.Collection("users").Doc(uid).Collection("dashboards").Doc(models.DashboardRecord)
}

func (s *firestoreState) Load(ctx context.Context, uid string) (*models.PersistedDashboard, error) {
	snap, err := s.doc(uid).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, errs.NewDatabaseError("read", "failed to get dashboard", err)
	}
	var rec models.PersistedDashboard
	if err := snap.DataTo(&rec); err != nil {
		return nil, errs.NewDatabaseError("read", "failed to parse dashboard data", err)
	}
	return &rec, nil
}

func (s *firestoreState) Save(ctx context.Context, uid string, rec *models.PersistedDashboard) error {
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = time.Now().UTC()
	}
	if _, err := s.doc(uid).Set(ctx, rec); err != nil {
		return errs.NewDatabaseError("write", "failed to save dashboard", err)
	}
	return nil
}
