package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/claude/liftledger/internal/models"
)

// AppendSession inserts an immutable session row. The creation timestamp
// is server-assigned at insert time and written back into the session so
// callers see the authoritative ordering key. Rows are never updated.
func (db *DB) AppendSession(ctx context.Context, s *models.WorkoutSession) error {
	warmups, err := json.Marshal(s.Warmups)
	if err != nil {
		return fmt.Errorf("encoding warmups: %w", err)
	}
	work, err := json.Marshal(s.WorkSets)
	if err != nil {
		return fmt.Errorf("encoding work sets: %w", err)
	}

	err = db.Pool.QueryRow(ctx, `
		INSERT INTO sessions (id, athlete_id, lift, week, unit, training_max,
			warmups, work_sets, amrap_weight, amrap_reps, estimated_max, note, pr, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW())
		RETURNING created_at
	`, s.ID, s.AthleteID, string(s.Lift), s.Week, string(s.Unit), s.TrainingMax,
		warmups, work, s.AMRAPWeight, s.AMRAPReps, s.EstimatedMax, s.Note, s.PR).Scan(&s.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting session: %w", err)
	}
	return nil
}

// RecentSessions retrieves the newest sessions for an athlete, unfiltered
// by lift. There is no composite athlete+lift index; callers filter the
// page in memory.
func (db *DB) RecentSessions(ctx context.Context, athleteID string, limit int) ([]models.WorkoutSession, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT id, athlete_id, lift, week, unit, training_max,
			warmups, work_sets, amrap_weight, amrap_reps, estimated_max, note, pr, created_at
		FROM sessions
		WHERE athlete_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, athleteID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()

	var result []models.WorkoutSession
	for rows.Next() {
		var s models.WorkoutSession
		var lift, unit string
		var warmups, work []byte
		if err := rows.Scan(&s.ID, &s.AthleteID, &lift, &s.Week, &unit, &s.TrainingMax,
			&warmups, &work, &s.AMRAPWeight, &s.AMRAPReps, &s.EstimatedMax, &s.Note, &s.PR, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		s.Lift = models.Lift(lift)
		s.Unit = models.Unit(unit)
		if err := json.Unmarshal(warmups, &s.Warmups); err != nil {
			return nil, fmt.Errorf("decoding warmups: %w", err)
		}
		if err := json.Unmarshal(work, &s.WorkSets); err != nil {
			return nil, fmt.Errorf("decoding work sets: %w", err)
		}
		result = append(result, s)
	}
	return result, rows.Err()
}
