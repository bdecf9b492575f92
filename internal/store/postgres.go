package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/GregMSThompson/finboard/internal/errs"
	"github.com/GregMSThompson/finboard/internal/models"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS dashboard_state (
	uid        TEXT PRIMARY KEY,
	state      JSONB NOT NULL,
	version    INTEGER NOT NULL DEFAULT 0,
	updated_at TIMESTAMPTZ NOT NULL
)`

const loadSQL = `SELECT state, version, updated_at FROM dashboard_state WHERE uid = $1`

const saveSQL = `
INSERT INTO dashboard_state (uid, state, version, updated_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (uid) DO UPDATE
SET state = EXCLUDED.state, version = EXCLUDED.version, updated_at = EXCLUDED.updated_at`

// querier is the subset of *pgxpool.Pool the state store uses.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type postgresState struct {
	db querier
}

// NewPostgresState persists each dashboard as one row of dashboard_state with
// the widget state in a jsonb column.
func NewPostgresState(db querier) *postgresState {
	return &postgresState{db: db}
}

// EnsureSchema creates the dashboard_state table when it does not exist.
func (s *postgresState) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schemaSQL); err != nil {
		return errs.NewDatabaseError("migrate", "failed to create dashboard_state", err)
	}
	return nil
}

func (s *postgresState) Load(ctx context.Context, uid string) (*models.PersistedDashboard, error) {
	var (
		raw []byte
		rec models.PersistedDashboard
	)
	err := s.db.QueryRow(ctx, loadSQL, uid).Scan(&raw, &rec.Version, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, errs.NewDatabaseError("read", "failed to get dashboard", err)
	}
	if err := json.Unmarshal(raw, &rec.State); err != nil {
		return nil, errs.NewDatabaseError("read", "failed to parse dashboard data", err)
	}
	return &rec, nil
}

func (s *postgresState) Save(ctx context.Context, uid string, rec *models.PersistedDashboard) error {
	state, err := json.Marshal(rec.State)
	if err != nil {
		return errs.NewDatabaseError("write", "failed to encode dashboard", err)
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = time.Now().UTC()
	}
	if _, err := s.db.Exec(ctx, saveSQL, uid, state, rec.Version, rec.UpdatedAt); err != nil {
		return errs.NewDatabaseError("write", "failed to save dashboard", err)
	}
	return nil
}
