package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/claude/liftledger/internal/models"
)

// ErrSave signals the sheet could not be persisted. The caller's local
// edits stay intact for retry; nothing is discarded.
var ErrSave = errors.New("attendance save failed")

// Store persists whole sheets per team. LoadSheet returns (nil, nil) when
// no sheet exists yet; SaveSheet upserts the document and returns the
// persisted version as reread from the store.
type Store interface {
	LoadSheet(ctx context.Context, team string) (*models.AttendanceSheet, error)
	SaveSheet(ctx context.Context, sheet *models.AttendanceSheet) (*models.AttendanceSheet, error)
}

// Manager loads, edits, and saves attendance sheets one team at a time.
// A load failure is scoped to its team and never blocks other teams.
type Manager struct {
	store Store
	log   *slog.Logger
}

func NewManager(store Store, log *slog.Logger) *Manager {
	return &Manager{store: store, log: log}
}

// Load fetches the team's sheet, creating an empty one lazily on first
// use. The loaded sheet is normalized so the full-matrix invariant holds
// regardless of what the document contained.
func (m *Manager) Load(ctx context.Context, team string) (*models.AttendanceSheet, error) {
	sheet, err := m.store.LoadSheet(ctx, team)
	if err != nil {
		return nil, fmt.Errorf("loading sheet for team %s: %w", team, err)
	}
	if sheet == nil {
		sheet = NewSheet(team)
	}
	Normalize(sheet)
	return sheet, nil
}

// Save persists the sheet as one whole-document merge write and returns
// the persisted version, reconciling any server-side normalization. On
// failure the passed sheet is left untouched so the caller can retry with
// its local edits intact. Concurrent saves by two coaches resolve
// last-write-wins; the document is never partially written.
func (m *Manager) Save(ctx context.Context, sheet *models.AttendanceSheet) (*models.AttendanceSheet, error) {
	persisted, err := m.store.SaveSheet(ctx, sheet)
	if err != nil {
		m.log.Error("sheet save failed", "team", sheet.Team, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrSave, err)
	}
	Normalize(persisted)
	return persisted, nil
}
