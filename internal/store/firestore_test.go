package store

import (
	"context"
	"os"
	"testing"

	"cloud.google.com/go/firestore"
)

func TestFirestoreStateWithEmulator(t *testing.T) {
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}

	ctx := context.Background()
	client, err := firestore.NewClient(ctx, "test-project")
	if err != nil {
		t.Fatalf("firestore client error: %v", err)
	}
	defer client.Close()

	s := NewFirestoreState(client)

	missing, err := s.Load(ctx, "fresh-user")
	if err != nil || missing != nil {
		t.Fatalf("expected nil record for new user, got %+v, %v", missing, err)
	}

	if err := s.Save(ctx, "user", sampleRecord()); err != nil {
		t.Fatalf("save error: %v", err)
	}
	got, err := s.Load(ctx, "user")
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if len(got.State.Widgets) != 1 || got.State.Widgets[0].Mapping.Format != "currency" {
		t.Fatalf("unexpected record: %+v", got)
	}
	if got.State.Widgets[0].Params["symbol"] != "AAPL" {
		t.Errorf("params not preserved: %v", got.State.Widgets[0].Params)
	}
}
