package store

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/GregMSThompson/finboard/internal/errs"
	"github.com/GregMSThompson/finboard/internal/models"
)

type fileState struct {
	dir string
	mu  sync.Mutex
}

// NewFileState persists each dashboard as <dir>/<uid>.json. Writes go through a
// temp file and a rename so a crash never leaves a partial record.
func NewFileState(dir string) (*fileState, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errs.NewDatabaseError("init", "failed to create data dir", err)
	}
	return &fileState{dir: dir}, nil
}

func (s *fileState) path(uid string) (string, error) {
	if uid == "" || uid == "." || uid == ".." || strings.ContainsAny(uid, `/\`) {
		return "", errs.NewValidationError("invalid user id")
	}
	return filepath.Join(s.dir, uid+".json"), nil
}

func (s *fileState) Load(_ context.Context, uid string) (*models.PersistedDashboard, error) {
	path, err := s.path(uid)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	data, err := os.ReadFile(path)
	s.mu.Unlock()
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, errs.NewDatabaseError("read", "failed to read dashboard", err)
	}

	var rec models.PersistedDashboard
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, errs.NewDatabaseError("read", "failed to parse dashboard data", err)
	}
	return &rec, nil
}

func (s *fileState) Save(_ context.Context, uid string, rec *models.PersistedDashboard) error {
	path, err := s.path(uid)
	if err != nil {
		return err
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = time.Now().UTC()
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return errs.NewDatabaseError("write", "failed to encode dashboard", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.dir, uid+".*.tmp")
	if err != nil {
		return errs.NewDatabaseError("write", "failed to save dashboard", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errs.NewDatabaseError("write", "failed to save dashboard", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return errs.NewDatabaseError("write", "failed to save dashboard", err)
	}
	if err := tmp.Close(); err != nil {
		return errs.NewDatabaseError("write", "failed to save dashboard", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return errs.NewDatabaseError("write", "failed to save dashboard", err)
	}
	return nil
}
