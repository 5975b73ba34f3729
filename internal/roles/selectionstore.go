package roles

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/claude/liftledger/internal/models"
	_ "modernc.org/sqlite"
)

// SelectionDB persists active-athlete selections in a local SQLite file,
// one row per signed-in login. Selections are session-local state, never
// shared across identities, so they live beside the process rather than
// in the main document store.
type SelectionDB struct {
	db *sql.DB
}

// OpenSelectionDB opens (or creates) the SQLite selection database at
// dir/selections.db.
func OpenSelectionDB(dir string) (*SelectionDB, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating state dir %s: %w", dir, err)
	}

	dbPath := filepath.Join(dir, "selections.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening selection db: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS active_athlete (
		login       TEXT PRIMARY KEY,
		athlete_id  TEXT NOT NULL,
		first_name  TEXT NOT NULL DEFAULT '',
		last_name   TEXT NOT NULL DEFAULT '',
		team        TEXT NOT NULL DEFAULT '',
		unit        TEXT NOT NULL DEFAULT 'lb',
		version     INTEGER NOT NULL,
		updated_at  TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating selection table: %w", err)
	}

	return &SelectionDB{db: db}, nil
}

// Get returns the stored selection for a login, or (nil, nil) when none
// exists.
func (s *SelectionDB) Get(login string) (*models.ActiveAthlete, error) {
	var sel models.ActiveAthlete
	var unit string
	err := s.db.QueryRow(
		`SELECT athlete_id, first_name, last_name, team, unit, version
		 FROM active_athlete WHERE login = ?`,
		login,
	).Scan(&sel.AthleteID, &sel.FirstName, &sel.LastName, &sel.Team, &unit, &sel.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading selection: %w", err)
	}
	sel.Unit = models.Unit(unit)
	return &sel, nil
}

// Put stores or replaces the selection for a login.
func (s *SelectionDB) Put(login string, sel models.ActiveAthlete) error {
	_, err := s.db.Exec(
		`INSERT INTO active_athlete (login, athlete_id, first_name, last_name, team, unit, version, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(login) DO UPDATE SET
			athlete_id = excluded.athlete_id,
			first_name = excluded.first_name,
			last_name  = excluded.last_name,
			team       = excluded.team,
			unit       = excluded.unit,
			version    = excluded.version,
			updated_at = CURRENT_TIMESTAMP`,
		login, sel.AthleteID, sel.FirstName, sel.LastName, sel.Team, string(sel.Unit), sel.Version,
	)
	if err != nil {
		return fmt.Errorf("storing selection: %w", err)
	}
	return nil
}

// Delete removes the selection for a login. Deleting a missing row is not
// an error.
func (s *SelectionDB) Delete(login string) error {
	if _, err := s.db.Exec(`DELETE FROM active_athlete WHERE login = ?`, login); err != nil {
		return fmt.Errorf("deleting selection: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *SelectionDB) Close() error {
	return s.db.Close()
}
