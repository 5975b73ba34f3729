package roles

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/claude/liftledger/internal/models"
)

// fakeSource serves a fixed assignment and lets tests push deliveries.
type fakeSource struct {
	assignment models.RoleAssignment
	ch         chan models.RoleAssignment
}

func (f *fakeSource) Roles(_ context.Context, _ string) (models.RoleAssignment, error) {
	return f.assignment, nil
}

func (f *fakeSource) Subscribe(_ context.Context, _ string) (<-chan models.RoleAssignment, error) {
	return f.ch, nil
}

// memSelStore is an in-memory SelectionStore.
type memSelStore struct {
	m map[string]models.ActiveAthlete
}

func newMemSelStore() *memSelStore { return &memSelStore{m: map[string]models.ActiveAthlete{}} }

func (s *memSelStore) Get(login string) (*models.ActiveAthlete, error) {
	sel, ok := s.m[login]
	if !ok {
		return nil, nil
	}
	return &sel, nil
}

func (s *memSelStore) Put(login string, sel models.ActiveAthlete) error {
	s.m[login] = sel
	return nil
}

func (s *memSelStore) Delete(login string) error {
	delete(s.m, login)
	return nil
}

func coachAssignment() models.RoleAssignment {
	return models.RoleAssignment{UserID: "c1", Roles: []models.Role{models.RoleCoach}, Teams: []string{"varsity"}}
}

func testResolver(ra models.RoleAssignment) (*Resolver, *fakeSource, *memSelStore) {
	src := &fakeSource{assignment: ra, ch: make(chan models.RoleAssignment)}
	store := newMemSelStore()
	r := NewResolver("c1", src, store, slog.New(slog.DiscardHandler))
	return r, src, store
}

func TestSetActiveAthleteRequiresCoach(t *testing.T) {
	r, _, _ := testResolver(models.RoleAssignment{UserID: "c1", Roles: []models.Role{models.RoleAthlete}})
	if _, err := r.Resolve(context.Background()); err != nil {
		t.Fatal(err)
	}
	_, err := r.SetActiveAthlete(models.ActiveAthlete{AthleteID: "a9"})
	if !errors.Is(err, models.ErrPermission) {
		t.Fatalf("err = %v, want ErrPermission", err)
	}
}

func TestSetActiveAthleteBumpsVersion(t *testing.T) {
	r, _, store := testResolver(coachAssignment())
	if _, err := r.Resolve(context.Background()); err != nil {
		t.Fatal(err)
	}

	first, err := r.SetActiveAthlete(models.ActiveAthlete{AthleteID: "a1", FirstName: "Ada"})
	if err != nil {
		t.Fatal(err)
	}
	second, err := r.SetActiveAthlete(models.ActiveAthlete{AthleteID: "a2", FirstName: "Grace"})
	if err != nil {
		t.Fatal(err)
	}
	if second.Version <= first.Version {
		t.Errorf("version did not advance: %d then %d", first.Version, second.Version)
	}
	if r.Scope() != "a2" {
		t.Errorf("scope = %q, want a2", r.Scope())
	}
	if stored, _ := store.Get("c1"); stored == nil || stored.AthleteID != "a2" {
		t.Errorf("persisted selection = %+v, want a2", stored)
	}
}

// TestDemotionClearsSelection delivers a role set without coach/admin and
// expects the selection gone, in memory and persisted, by the time the
// delivery returns.
func TestDemotionClearsSelection(t *testing.T) {
	r, _, store := testResolver(coachAssignment())
	if _, err := r.Resolve(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := r.SetActiveAthlete(models.ActiveAthlete{AthleteID: "a1"}); err != nil {
		t.Fatal(err)
	}
	vBefore := r.Version()

	r.Apply(models.RoleAssignment{UserID: "c1", Roles: []models.Role{models.RoleAthlete}})

	if _, ok := r.ActiveAthlete(); ok {
		t.Error("selection still observable after demotion delivery")
	}
	if stored, _ := store.Get("c1"); stored != nil {
		t.Error("persisted selection survived demotion")
	}
	if r.Version() <= vBefore {
		t.Error("version did not advance on clear, dependents would not re-fetch")
	}
	if r.Scope() != "c1" {
		t.Errorf("scope = %q, want own identity after clear", r.Scope())
	}
}

// TestDemotionDeliveredThroughRun pushes the demotion through the
// subscription loop rather than calling Apply directly.
func TestDemotionDeliveredThroughRun(t *testing.T) {
	r, src, _ := testResolver(coachAssignment())
	if _, err := r.Resolve(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := r.SetActiveAthlete(models.ActiveAthlete{AthleteID: "a1"}); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	src.ch <- models.RoleAssignment{UserID: "c1", Roles: []models.Role{models.RoleAthlete}}
	// The send returning means Apply ran before the loop read anything
	// further; the cleared state must already be visible.
	if _, ok := r.ActiveAthlete(); ok {
		t.Error("stale selection observable after notification delivery")
	}

	cancel()
	<-done
}

func TestClearActiveAthleteUnconditional(t *testing.T) {
	r, _, _ := testResolver(coachAssignment())
	if _, err := r.Resolve(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := r.SetActiveAthlete(models.ActiveAthlete{AthleteID: "a1"}); err != nil {
		t.Fatal(err)
	}
	if err := r.ClearActiveAthlete(); err != nil {
		t.Fatal(err)
	}
	if _, ok := r.ActiveAthlete(); ok {
		t.Error("selection present after clear")
	}
	// Clearing with nothing selected stays fine.
	if err := r.ClearActiveAthlete(); err != nil {
		t.Fatal(err)
	}
}

// TestResolveRestoresPersistedSelection verifies a stored selection comes
// back for the same login on a fresh resolver, and is dropped when the
// fetched roles no longer allow it.
func TestResolveRestoresPersistedSelection(t *testing.T) {
	src := &fakeSource{assignment: coachAssignment(), ch: make(chan models.RoleAssignment)}
	store := newMemSelStore()
	store.Put("c1", models.ActiveAthlete{AthleteID: "a7", Version: 3})

	r := NewResolver("c1", src, store, slog.New(slog.DiscardHandler))
	if _, err := r.Resolve(context.Background()); err != nil {
		t.Fatal(err)
	}
	sel, ok := r.ActiveAthlete()
	if !ok || sel.AthleteID != "a7" {
		t.Fatalf("restored selection = %+v, %v", sel, ok)
	}

	// Same stored selection, but the identity lost coach in the meantime.
	store2 := newMemSelStore()
	store2.Put("c2", models.ActiveAthlete{AthleteID: "a7", Version: 3})
	src2 := &fakeSource{
		assignment: models.RoleAssignment{UserID: "c2", Roles: []models.Role{models.RoleAthlete}},
		ch:         make(chan models.RoleAssignment),
	}
	r2 := NewResolver("c2", src2, store2, slog.New(slog.DiscardHandler))
	if _, err := r2.Resolve(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, ok := r2.ActiveAthlete(); ok {
		t.Error("selection restored despite missing coach role")
	}
	if stored, _ := store2.Get("c2"); stored != nil {
		t.Error("persisted selection not removed for demoted identity")
	}
}

func TestSignOutResetsToUnresolved(t *testing.T) {
	r, _, _ := testResolver(coachAssignment())
	if _, err := r.Resolve(context.Background()); err != nil {
		t.Fatal(err)
	}
	r.SignOut()
	if _, resolved := r.Roles(); resolved {
		t.Error("still resolved after sign-out")
	}
}
