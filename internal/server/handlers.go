package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/claude/liftledger/internal/ledger"
	"github.com/claude/liftledger/internal/models"
	"github.com/claude/liftledger/internal/program"
	"github.com/go-chi/chi/v5"
)

// authorizeScope allows a caller to touch athleteID's data when it is
// their own, or when their resolved roles carry coach or admin. The
// resolver supplies intent; this is the enforcement point.
func (s *Server) authorizeScope(r *http.Request, athleteID string) error {
	login := identityFrom(r)
	if login == athleteID {
		return nil
	}
	resolver, err := s.registry.ForLogin(r.Context(), login)
	if err != nil {
		return err
	}
	if ra, resolved := resolver.Roles(); resolved && ra.CanCoach() {
		return nil
	}
	return models.ErrPermission
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	resolver, err := s.registry.ForLogin(r.Context(), identityFrom(r))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	ra, _ := resolver.Roles()
	resp := map[string]any{
		"user_id": ra.UserID,
		"roles":   ra.Roles,
		"teams":   ra.Teams,
		"version": resolver.Version(),
	}
	if sel, ok := resolver.ActiveAthlete(); ok {
		resp["active_athlete"] = sel
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	athleteID := chi.URLParam(r, "id")
	if err := s.authorizeScope(r, athleteID); err != nil {
		writePermission(w, err)
		return
	}
	p, err := s.profiles.GetProfile(r.Context(), athleteID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if p == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "profile not found"})
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type profileRequest struct {
	FirstName   string             `json:"first_name"`
	LastName    string             `json:"last_name"`
	Unit        string             `json:"unit"`
	Team        string             `json:"team"`
	TrainingMax map[string]float64 `json:"training_max"`
}

func (s *Server) handlePutProfile(w http.ResponseWriter, r *http.Request) {
	athleteID := chi.URLParam(r, "id")
	if err := s.authorizeScope(r, athleteID); err != nil {
		writePermission(w, err)
		return
	}

	var req profileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	unit, err := models.ParseUnit(req.Unit)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	maxes := make(map[models.Lift]float64, len(req.TrainingMax))
	for name, tm := range req.TrainingMax {
		lift, err := models.ParseLift(name)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		if tm <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "training max must be positive"})
			return
		}
		maxes[lift] = tm
	}

	p := &models.AthleteProfile{
		ID:          athleteID,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Unit:        unit,
		Team:        req.Team,
		TrainingMax: maxes,
	}
	if err := s.profiles.UpsertProfile(r.Context(), p); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleGetPrescription(w http.ResponseWriter, r *http.Request) {
	athleteID := chi.URLParam(r, "id")
	if err := s.authorizeScope(r, athleteID); err != nil {
		writePermission(w, err)
		return
	}

	lift, err := models.ParseLift(r.URL.Query().Get("lift"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	week, err := strconv.Atoi(r.URL.Query().Get("week"))
	if err != nil || !program.ValidWeek(week) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "week must be 1-4"})
		return
	}

	p, err := s.profiles.GetProfile(r.Context(), athleteID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if p == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "profile not found"})
		return
	}
	tm, ok := p.TrainingMax[lift]
	if !ok || tm <= 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no training max saved for " + string(lift)})
		return
	}

	rx := program.ForWeek(tm, week, p.Unit)
	writeJSON(w, http.StatusOK, map[string]any{
		"lift":         lift,
		"week":         week,
		"unit":         p.Unit,
		"training_max": tm,
		"warmups":      rx.Warmups,
		"work_sets":    rx.WorkSets,
	})
}

type sessionRequest struct {
	Lift        string  `json:"lift"`
	Week        int     `json:"week"`
	AMRAPWeight float64 `json:"amrap_weight"`
	AMRAPReps   int     `json:"amrap_reps"`
	Note        string  `json:"note"`
}

func (s *Server) handlePostSession(w http.ResponseWriter, r *http.Request) {
	athleteID := chi.URLParam(r, "id")
	if err := s.authorizeScope(r, athleteID); err != nil {
		writePermission(w, err)
		return
	}

	var req sessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	lift, err := models.ParseLift(req.Lift)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if !program.AMRAPWeek(req.Week) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "sessions are recorded for weeks 1-3 only"})
		return
	}
	if req.AMRAPWeight < 0 || req.AMRAPReps < 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "amrap result must be non-negative"})
		return
	}

	p, err := s.profiles.GetProfile(r.Context(), athleteID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if p == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "profile not found"})
		return
	}
	tm, ok := p.TrainingMax[lift]
	if !ok || tm <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "no training max saved for " + string(lift)})
		return
	}

	session, err := s.ledger.Record(r.Context(), ledger.RecordInput{
		AthleteID:   athleteID,
		Lift:        lift,
		Week:        req.Week,
		Unit:        p.Unit,
		TrainingMax: tm,
		AMRAPWeight: req.AMRAPWeight,
		AMRAPReps:   req.AMRAPReps,
		Note:        req.Note,
	})
	if errors.Is(err, ledger.ErrNotRecorded) {
		// Not persisted; the client keeps its state and retries.
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"recorded": false, "error": err.Error()})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

func (s *Server) handleRecentSessions(w http.ResponseWriter, r *http.Request) {
	athleteID := chi.URLParam(r, "id")
	if err := s.authorizeScope(r, athleteID); err != nil {
		writePermission(w, err)
		return
	}

	var lift models.Lift
	if q := r.URL.Query().Get("lift"); q != "" {
		parsed, err := models.ParseLift(q)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		lift = parsed
	}
	limit := 20
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	sessions, err := s.ledger.Recent(r.Context(), athleteID, lift, limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if sessions == nil {
		sessions = []models.WorkoutSession{}
	}
	writeJSON(w, http.StatusOK, sessions)
}

func (s *Server) handleBestEstimate(w http.ResponseWriter, r *http.Request) {
	athleteID := chi.URLParam(r, "id")
	if err := s.authorizeScope(r, athleteID); err != nil {
		writePermission(w, err)
		return
	}
	lift, err := models.ParseLift(r.URL.Query().Get("lift"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	lookback := ledger.DefaultLookback
	if l := r.URL.Query().Get("lookback"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			lookback = parsed
		}
	}

	best, err := s.ledger.BestEstimate(r.Context(), athleteID, lift, lookback)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"lift": lift, "best_estimate": best})
}

func (s *Server) handleCompletedToday(w http.ResponseWriter, r *http.Request) {
	athleteID := chi.URLParam(r, "id")
	if err := s.authorizeScope(r, athleteID); err != nil {
		writePermission(w, err)
		return
	}
	lift, err := models.ParseLift(r.URL.Query().Get("lift"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	done, err := s.ledger.CompletedToday(r.Context(), athleteID, lift, time.Now())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"lift": lift, "completed": done})
}

func writePermission(w http.ResponseWriter, err error) {
	if errors.Is(err, models.ErrPermission) {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
