package models

import (
	"time"

	"github.com/google/uuid"
)

// SetRow is one prescribed set: percentage of training max, the rounded
// target weight, and the target rep count. AMRAP marks the final work set
// of weeks 1-3, which has no upper rep bound.
type SetRow struct {
	Percent    float64 `json:"percent"`
	Weight     float64 `json:"weight"`
	TargetReps int     `json:"target_reps"`
	AMRAP      bool    `json:"amrap,omitempty"`
}

// WorkoutSession is one completed training day for one lift. Immutable
// once created: sessions are append-only and never edited in place.
// CreatedAt is server-assigned so ordering within an athlete+lift is
// consistent across writers.
type WorkoutSession struct {
	ID           uuid.UUID `json:"id"`
	AthleteID    string    `json:"athlete_id"`
	Lift         Lift      `json:"lift"`
	Week         int       `json:"week"`
	Unit         Unit      `json:"unit"`
	TrainingMax  float64   `json:"training_max"`
	Warmups      []SetRow  `json:"warmups"`
	WorkSets     []SetRow  `json:"work_sets"`
	AMRAPWeight  float64   `json:"amrap_weight"`
	AMRAPReps    int       `json:"amrap_reps"`
	EstimatedMax float64   `json:"estimated_max"`
	Note         string    `json:"note,omitempty"`
	PR           bool      `json:"pr"`
	CreatedAt    time.Time `json:"created_at"`
}
