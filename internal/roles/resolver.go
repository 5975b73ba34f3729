// Package roles resolves the caller's role set and manages a coach's
// "active athlete" selection: the athlete whose data scope reads and
// writes temporarily target, distinct from the coach's own identity.
package roles

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/claude/liftledger/internal/models"
)

// Source is the role-subscription collaborator. Roles reads the current
// assignment; Subscribe delivers the current assignment immediately and
// then every server-side change until ctx is done. Each new subscription
// starts from current state.
type Source interface {
	Roles(ctx context.Context, userID string) (models.RoleAssignment, error)
	Subscribe(ctx context.Context, userID string) (<-chan models.RoleAssignment, error)
}

// SelectionStore persists active-athlete selections per signed-in login.
// Get returns (nil, nil) when no selection is stored.
type SelectionStore interface {
	Get(login string) (*models.ActiveAthlete, error)
	Put(login string, sel models.ActiveAthlete) error
	Delete(login string) error
}

// Resolver caches one identity's role assignment and owns its selection.
// State moves unresolved → resolved on Resolve and back on SignOut. The
// resolver supplies the intended scope only; actual read/write
// authorization stays with the persistence layer.
type Resolver struct {
	source Source
	store  SelectionStore
	log    *slog.Logger
	login  string

	mu        sync.Mutex
	resolved  bool
	roles     models.RoleAssignment
	selection *models.ActiveAthlete
	version   uint64
}

func NewResolver(login string, source Source, store SelectionStore, log *slog.Logger) *Resolver {
	return &Resolver{source: source, store: store, log: log, login: login}
}

// Resolve fetches and caches the role assignment and restores any
// persisted selection for this login. A selection persisted while the
// caller held coach is dropped immediately if the fetched roles no
// longer allow it.
func (r *Resolver) Resolve(ctx context.Context) (models.RoleAssignment, error) {
	ra, err := r.source.Roles(ctx, r.login)
	if err != nil {
		return models.RoleAssignment{}, fmt.Errorf("resolving roles for %s: %w", r.login, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.roles = ra
	r.resolved = true

	if r.selection == nil {
		sel, err := r.store.Get(r.login)
		if err != nil {
			r.log.Warn("selection restore failed", "login", r.login, "error", err)
		} else if sel != nil {
			r.selection = sel
			if sel.Version > r.version {
				r.version = sel.Version
			}
		}
	}
	r.applyLocked(ra)
	return ra, nil
}

// Run consumes the role subscription until ctx is done. Each delivery is
// applied before the next is read, so a demotion clears the selection
// within one notification delivery and no stale selection is observable
// afterwards.
func (r *Resolver) Run(ctx context.Context) error {
	ch, err := r.source.Subscribe(ctx, r.login)
	if err != nil {
		return fmt.Errorf("subscribing to roles for %s: %w", r.login, err)
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ra, ok := <-ch:
			if !ok {
				return nil
			}
			r.Apply(ra)
		}
	}
}

// Apply installs a newly delivered role assignment, clearing the active
// selection when the delivery carries neither coach nor admin.
func (r *Resolver) Apply(ra models.RoleAssignment) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.roles = ra
	r.resolved = true
	r.applyLocked(ra)
}

func (r *Resolver) applyLocked(ra models.RoleAssignment) {
	if ra.CanCoach() || r.selection == nil {
		return
	}
	r.selection = nil
	r.version++
	if err := r.store.Delete(r.login); err != nil {
		r.log.Warn("persisted selection delete failed", "login", r.login, "error", err)
	}
	r.log.Info("active athlete cleared, coach role revoked", "login", r.login)
}

// Roles returns the cached assignment and whether it has been resolved.
func (r *Resolver) Roles() (models.RoleAssignment, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.roles, r.resolved
}

// SetActiveAthlete overwrites the selection and bumps the version
// counter; dependents re-fetch whenever the version changes. Requires a
// resolved coach or admin role.
func (r *Resolver) SetActiveAthlete(sel models.ActiveAthlete) (models.ActiveAthlete, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.resolved || !r.roles.CanCoach() {
		return models.ActiveAthlete{}, models.ErrPermission
	}
	r.version++
	sel.Version = r.version
	r.selection = &sel
	if err := r.store.Put(r.login, sel); err != nil {
		r.log.Warn("selection persist failed", "login", r.login, "error", err)
	}
	return sel, nil
}

// ClearActiveAthlete removes the selection unconditionally, in memory and
// in the persisted store.
func (r *Resolver) ClearActiveAthlete() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.selection != nil {
		r.version++
	}
	r.selection = nil
	if err := r.store.Delete(r.login); err != nil {
		return fmt.Errorf("deleting persisted selection: %w", err)
	}
	return nil
}

// ActiveAthlete returns the current selection, if any.
func (r *Resolver) ActiveAthlete() (models.ActiveAthlete, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.selection == nil {
		return models.ActiveAthlete{}, false
	}
	return *r.selection, true
}

// Version returns the selection version counter. It only moves forward.
func (r *Resolver) Version() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.version
}

// Scope returns the athlete id reads and writes should target: the
// active athlete when one is selected, otherwise the caller's own id.
func (r *Resolver) Scope() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.selection != nil {
		return r.selection.AthleteID
	}
	return r.login
}

// SignOut resets the resolver to unresolved. The persisted selection is
// keyed to this login and stays put for the next session.
func (r *Resolver) SignOut() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resolved = false
	r.roles = models.RoleAssignment{}
	r.selection = nil
}
