package models

import (
	"errors"
	"fmt"
	"time"
)

// ErrPermission indicates the caller is not authorized for the target
// athlete or team scope. Surfaced to the caller, never retried.
var ErrPermission = errors.New("not authorized for target scope")

// Unit is the weight unit system an athlete trains in.
type Unit string

const (
	UnitLB Unit = "lb"
	UnitKG Unit = "kg"
)

// PlateIncrement returns the smallest loadable jump for the unit system.
func (u Unit) PlateIncrement() float64 {
	if u == UnitKG {
		return 2.5
	}
	return 5
}

// ParseUnit validates a unit string.
func ParseUnit(s string) (Unit, error) {
	switch Unit(s) {
	case UnitLB, UnitKG:
		return Unit(s), nil
	}
	return "", fmt.Errorf("unknown unit %q", s)
}

// Lift is one of the four main barbell lifts.
type Lift string

const (
	LiftBench    Lift = "bench"
	LiftSquat    Lift = "squat"
	LiftDeadlift Lift = "deadlift"
	LiftPress    Lift = "press"
)

// Lifts lists the four main lifts in day order.
func Lifts() []Lift {
	return []Lift{LiftBench, LiftSquat, LiftDeadlift, LiftPress}
}

// ParseLift validates a lift name.
func ParseLift(s string) (Lift, error) {
	switch Lift(s) {
	case LiftBench, LiftSquat, LiftDeadlift, LiftPress:
		return Lift(s), nil
	}
	return "", fmt.Errorf("unknown lift %q", s)
}

// AthleteProfile is the per-athlete document. Created on first sign-in,
// updated whenever a training max is saved. Never hard-deleted here.
type AthleteProfile struct {
	ID          string           `json:"id"`
	FirstName   string           `json:"first_name"`
	LastName    string           `json:"last_name"`
	Unit        Unit             `json:"unit"`
	TrainingMax map[Lift]float64 `json:"training_max"`
	Team        string           `json:"team,omitempty"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// Role is a capability tag attached to a signed-in identity.
type Role string

const (
	RoleAthlete Role = "athlete"
	RoleCoach   Role = "coach"
	RoleAdmin   Role = "admin"
)

// RoleAssignment is the per-user role set plus optional team scope.
// Source of truth is the roles table; resolvers cache it and subscribe
// to change notifications.
type RoleAssignment struct {
	UserID string   `json:"user_id"`
	Roles  []Role   `json:"roles"`
	Teams  []string `json:"teams,omitempty"`
}

// Has reports whether the assignment carries the given role.
func (ra RoleAssignment) Has(role Role) bool {
	for _, r := range ra.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// CanCoach reports whether the assignment allows coach-scoped operations
// (attendance editing, acting as another athlete).
func (ra RoleAssignment) CanCoach() bool {
	return ra.Has(RoleCoach) || ra.Has(RoleAdmin)
}

// ActiveAthlete is a coach's current "act as" selection: the athlete id
// plus denormalized display fields, and a version counter bumped on every
// mutation so dependent fetchers know when to re-fetch.
type ActiveAthlete struct {
	AthleteID string `json:"athlete_id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Team      string `json:"team,omitempty"`
	Unit      Unit   `json:"unit"`
	Version   uint64 `json:"version"`
}
