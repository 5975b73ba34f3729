package storage

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/claude/liftledger/internal/models"
	"github.com/jackc/pgx/v5"
)

// GetRoles retrieves a user's role assignment. Identities without a row
// default to a plain athlete: profiles are created on first sign-in and
// coach tags are granted out of band.
func (db *DB) GetRoles(ctx context.Context, userID string) (models.RoleAssignment, error) {
	var roleNames, teams []string
	err := db.Pool.QueryRow(ctx,
		`SELECT roles, teams FROM role_assignments WHERE user_id = $1`,
		userID).Scan(&roleNames, &teams)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.RoleAssignment{UserID: userID, Roles: []models.Role{models.RoleAthlete}}, nil
	}
	if err != nil {
		return models.RoleAssignment{}, fmt.Errorf("querying roles: %w", err)
	}

	ra := models.RoleAssignment{UserID: userID, Teams: teams}
	for _, r := range roleNames {
		ra.Roles = append(ra.Roles, models.Role(r))
	}
	return ra, nil
}

// RoleSource adapts the roles table into the subscription collaborator
// the resolver consumes: a restartable stream that starts from current
// state and delivers on every server-side change. Changes are detected
// by polling; the interval trades freshness for load.
type RoleSource struct {
	db       *DB
	interval time.Duration
}

func NewRoleSource(db *DB, interval time.Duration) *RoleSource {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &RoleSource{db: db, interval: interval}
}

// Roles implements the point read.
func (rs *RoleSource) Roles(ctx context.Context, userID string) (models.RoleAssignment, error) {
	return rs.db.GetRoles(ctx, userID)
}

// Subscribe delivers the current assignment immediately, then every
// change until ctx is done. The channel closes when the subscription
// ends.
func (rs *RoleSource) Subscribe(ctx context.Context, userID string) (<-chan models.RoleAssignment, error) {
	current, err := rs.db.GetRoles(ctx, userID)
	if err != nil {
		return nil, err
	}

	ch := make(chan models.RoleAssignment, 1)
	ch <- current

	go func() {
		defer close(ch)
		last := current
		ticker := time.NewTicker(rs.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				ra, err := rs.db.GetRoles(ctx, userID)
				if err != nil {
					continue
				}
				if assignmentsEqual(ra, last) {
					continue
				}
				last = ra
				select {
				case ch <- ra:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return ch, nil
}

func assignmentsEqual(a, b models.RoleAssignment) bool {
	return a.UserID == b.UserID &&
		slices.Equal(a.Roles, b.Roles) &&
		slices.Equal(a.Teams, b.Teams)
}
