// Package ledger is the append-only workout session log and the PR
// detection that rides on top of it. Persistence sits behind the
// SessionStore interface; the Postgres implementation lives in storage.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/claude/liftledger/internal/models"
	"github.com/claude/liftledger/internal/program"
	"github.com/google/uuid"
)

// ErrNotRecorded signals that persistence rejected or could not complete
// the append. The session was not written; the caller should prompt a
// retry rather than treat the result as saved.
var ErrNotRecorded = errors.New("session not recorded")

// pageCap bounds a single history fetch. The store has no composite
// athlete+lift index, so reads pull one unfiltered page this size and
// filter in memory; callers never see past the fetched page.
const pageCap = 50

// DefaultLookback is the PR window when the caller does not pick one.
const DefaultLookback = pageCap

// SessionStore persists sessions for one athlete scope. AppendSession
// assigns the server-side creation timestamp; RecentSessions returns the
// newest sessions first, unfiltered by lift.
type SessionStore interface {
	AppendSession(ctx context.Context, s *models.WorkoutSession) error
	RecentSessions(ctx context.Context, athleteID string, limit int) ([]models.WorkoutSession, error)
}

// Ledger answers recency and best-estimate queries and records new
// sessions with PR detection.
type Ledger struct {
	store SessionStore
	log   *slog.Logger
}

func New(store SessionStore, log *slog.Logger) *Ledger {
	return &Ledger{store: store, log: log}
}

// RecordInput is one finished AMRAP day ready to persist. Week must be
// 1-3: the deload week records no AMRAP and never passes through here.
type RecordInput struct {
	AthleteID   string
	Lift        models.Lift
	Week        int
	Unit        models.Unit
	TrainingMax float64
	AMRAPWeight float64
	AMRAPReps   int
	Note        string
	Lookback    int
}

// Record estimates the one-rep max from the AMRAP result, compares it
// against the best estimate among sessions strictly before this one, and
// appends the session. The PR flag is true only on a strict improvement;
// ties are not PRs. Returns ErrNotRecorded when persistence fails.
func (l *Ledger) Record(ctx context.Context, in RecordInput) (*models.WorkoutSession, error) {
	if !program.AMRAPWeek(in.Week) {
		return nil, fmt.Errorf("week %d records no AMRAP set", in.Week)
	}
	if in.TrainingMax <= 0 {
		return nil, fmt.Errorf("training max must be positive, got %v", in.TrainingMax)
	}
	lookback := in.Lookback
	if lookback <= 0 {
		lookback = DefaultLookback
	}

	estimate := program.EstimateOneRepMax(in.AMRAPWeight, in.AMRAPReps)

	// PR detection runs against history before the append.
	best, err := l.BestEstimate(ctx, in.AthleteID, in.Lift, lookback)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotRecorded, err)
	}

	p := program.ForWeek(in.TrainingMax, in.Week, in.Unit)
	s := &models.WorkoutSession{
		ID:           uuid.New(),
		AthleteID:    in.AthleteID,
		Lift:         in.Lift,
		Week:         in.Week,
		Unit:         in.Unit,
		TrainingMax:  in.TrainingMax,
		Warmups:      p.Warmups,
		WorkSets:     p.WorkSets,
		AMRAPWeight:  in.AMRAPWeight,
		AMRAPReps:    in.AMRAPReps,
		EstimatedMax: estimate,
		Note:         in.Note,
		PR:           estimate > best,
	}

	if err := l.store.AppendSession(ctx, s); err != nil {
		l.log.Error("session append failed", "athlete", in.AthleteID, "lift", in.Lift, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrNotRecorded, err)
	}
	return s, nil
}

// Recent returns up to limit sessions for the athlete, newest first,
// optionally filtered to one lift. An empty lift means all lifts. The
// filter is applied in memory over a single page of at most pageCap
// sessions.
func (l *Ledger) Recent(ctx context.Context, athleteID string, lift models.Lift, limit int) ([]models.WorkoutSession, error) {
	if limit <= 0 || limit > pageCap {
		limit = pageCap
	}
	fetch := limit
	if lift != "" {
		fetch = pageCap
	}

	page, err := l.store.RecentSessions(ctx, athleteID, fetch)
	if err != nil {
		return nil, fmt.Errorf("fetching recent sessions: %w", err)
	}

	if lift == "" {
		return page, nil
	}
	out := make([]models.WorkoutSession, 0, limit)
	for _, s := range page {
		if s.Lift != lift {
			continue
		}
		out = append(out, s)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// BestEstimate returns the maximum estimated one-rep max among the most
// recent lookback sessions for the lift, or 0 when none exist.
func (l *Ledger) BestEstimate(ctx context.Context, athleteID string, lift models.Lift, lookback int) (float64, error) {
	sessions, err := l.Recent(ctx, athleteID, lift, lookback)
	if err != nil {
		return 0, err
	}
	best := 0.0
	for _, s := range sessions {
		if s.EstimatedMax > best {
			best = s.EstimatedMax
		}
	}
	return best, nil
}

// CompletedToday reports whether the athlete already logged the lift
// today, by scanning the recent page for a session created on the same
// calendar day.
func (l *Ledger) CompletedToday(ctx context.Context, athleteID string, lift models.Lift, now time.Time) (bool, error) {
	sessions, err := l.Recent(ctx, athleteID, lift, pageCap)
	if err != nil {
		return false, err
	}
	y, m, d := now.Date()
	for _, s := range sessions {
		sy, sm, sd := s.CreatedAt.In(now.Location()).Date()
		if sy == y && sm == m && sd == d {
			return true, nil
		}
	}
	return false, nil
}
