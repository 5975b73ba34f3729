package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/claude/liftledger/internal/models"
	"github.com/jackc/pgx/v5"
)

// LoadSheet retrieves a team's attendance document, or (nil, nil) when
// the team has no sheet yet.
func (db *DB) LoadSheet(ctx context.Context, team string) (*models.AttendanceSheet, error) {
	var doc []byte
	err := db.Pool.QueryRow(ctx,
		`SELECT doc FROM attendance_sheets WHERE team = $1`, team).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying sheet: %w", err)
	}

	var sheet models.AttendanceSheet
	if err := json.Unmarshal(doc, &sheet); err != nil {
		return nil, fmt.Errorf("decoding sheet: %w", err)
	}
	sheet.Team = team
	return &sheet, nil
}

// SaveSheet replaces the team's attendance document in a single write,
// then rereads it so the caller gets the persisted version. Multi-step
// edits (a rename touches every athlete's record) land atomically or not
// at all; concurrent saves resolve last-write-wins.
func (db *DB) SaveSheet(ctx context.Context, sheet *models.AttendanceSheet) (*models.AttendanceSheet, error) {
	doc, err := json.Marshal(sheet)
	if err != nil {
		return nil, fmt.Errorf("encoding sheet: %w", err)
	}

	_, err = db.Pool.Exec(ctx, `
		INSERT INTO attendance_sheets (team, doc, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (team) DO UPDATE SET doc = excluded.doc, updated_at = NOW()
	`, sheet.Team, doc)
	if err != nil {
		return nil, fmt.Errorf("upserting sheet: %w", err)
	}

	persisted, err := db.LoadSheet(ctx, sheet.Team)
	if err != nil {
		return nil, fmt.Errorf("rereading sheet: %w", err)
	}
	if persisted == nil {
		return nil, fmt.Errorf("sheet for team %s missing after save", sheet.Team)
	}
	return persisted, nil
}
