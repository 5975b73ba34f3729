package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/claude/liftledger/internal/models"
	"github.com/jackc/pgx/v5"
)

// UpsertProfile creates or replaces an athlete profile. Training maxes
// are stored as one JSON document per athlete; the row's updated_at is
// refreshed and written back into the profile.
func (db *DB) UpsertProfile(ctx context.Context, p *models.AthleteProfile) error {
	tm, err := json.Marshal(p.TrainingMax)
	if err != nil {
		return fmt.Errorf("encoding training maxes: %w", err)
	}
	err = db.Pool.QueryRow(ctx, `
		INSERT INTO athletes (id, first_name, last_name, unit, team, training_max, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (id) DO UPDATE SET
			first_name   = excluded.first_name,
			last_name    = excluded.last_name,
			unit         = excluded.unit,
			team         = excluded.team,
			training_max = excluded.training_max,
			updated_at   = NOW()
		RETURNING updated_at
	`, p.ID, p.FirstName, p.LastName, string(p.Unit), p.Team, tm).Scan(&p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upserting profile: %w", err)
	}
	return nil
}

// GetProfile retrieves an athlete profile, or (nil, nil) when the athlete
// has not signed in yet.
func (db *DB) GetProfile(ctx context.Context, athleteID string) (*models.AthleteProfile, error) {
	var p models.AthleteProfile
	var unit string
	var tm []byte
	err := db.Pool.QueryRow(ctx, `
		SELECT id, first_name, last_name, unit, team, training_max, updated_at
		FROM athletes WHERE id = $1
	`, athleteID).Scan(&p.ID, &p.FirstName, &p.LastName, &unit, &p.Team, &tm, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying profile: %w", err)
	}
	p.Unit = models.Unit(unit)
	if len(tm) > 0 {
		if err := json.Unmarshal(tm, &p.TrainingMax); err != nil {
			return nil, fmt.Errorf("decoding training maxes: %w", err)
		}
	}
	if p.TrainingMax == nil {
		p.TrainingMax = make(map[models.Lift]float64)
	}
	return &p, nil
}
