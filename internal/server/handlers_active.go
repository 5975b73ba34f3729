package server

import (
	"encoding/json"
	"net/http"

	"github.com/claude/liftledger/internal/models"
)

func (s *Server) handleGetActive(w http.ResponseWriter, r *http.Request) {
	resolver, err := s.registry.ForLogin(r.Context(), identityFrom(r))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	sel, ok := resolver.ActiveAthlete()
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"selected": false, "version": resolver.Version()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"selected": true, "athlete": sel, "version": sel.Version})
}

func (s *Server) handlePutActive(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AthleteID string `json:"athlete_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.AthleteID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "athlete_id required"})
		return
	}

	resolver, err := s.registry.ForLogin(r.Context(), identityFrom(r))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	// Denormalize display fields from the athlete's profile when one
	// exists; roster-only athletes still get a bare selection.
	sel := models.ActiveAthlete{AthleteID: req.AthleteID, Unit: models.UnitLB}
	if p, err := s.profiles.GetProfile(r.Context(), req.AthleteID); err == nil && p != nil {
		sel.FirstName = p.FirstName
		sel.LastName = p.LastName
		sel.Team = p.Team
		sel.Unit = p.Unit
	}

	stored, err := resolver.SetActiveAthlete(sel)
	if err != nil {
		writePermission(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"selected": true, "athlete": stored, "version": stored.Version})
}

func (s *Server) handleDeleteActive(w http.ResponseWriter, r *http.Request) {
	resolver, err := s.registry.ForLogin(r.Context(), identityFrom(r))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if err := resolver.ClearActiveAthlete(); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"selected": false, "version": resolver.Version()})
}
