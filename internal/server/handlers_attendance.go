package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/claude/liftledger/internal/attendance"
	"github.com/claude/liftledger/internal/models"
	"github.com/go-chi/chi/v5"
)

func (s *Server) handleGetSheet(w http.ResponseWriter, r *http.Request) {
	sheet, err := s.sheets.Load(r.Context(), chi.URLParam(r, "team"))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, sheet)
}

// editSheet runs load → structural edit → save for one team and writes
// the persisted sheet back. A failed save keeps the document unchanged
// server-side; the client's view stays dirty and retries.
func (s *Server) editSheet(w http.ResponseWriter, r *http.Request, edit func(*models.AttendanceSheet) error) {
	team := chi.URLParam(r, "team")
	sheet, err := s.sheets.Load(r.Context(), team)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	if err := edit(sheet); err != nil {
		if errors.Is(err, attendance.ErrDuplicateDate) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	persisted, err := s.sheets.Save(r.Context(), sheet)
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, persisted)
}

func (s *Server) handleAddDate(w http.ResponseWriter, r *http.Request) {
	s.editSheet(w, r, func(sheet *models.AttendanceSheet) error {
		attendance.AddDate(sheet, time.Now())
		return nil
	})
}

func (s *Server) handleRemoveDate(w http.ResponseWriter, r *http.Request) {
	date := chi.URLParam(r, "date")
	s.editSheet(w, r, func(sheet *models.AttendanceSheet) error {
		attendance.RemoveDate(sheet, date)
		return nil
	})
}

func (s *Server) handleRenameDate(w http.ResponseWriter, r *http.Request) {
	oldDate := chi.URLParam(r, "date")
	var req struct {
		NewDate string `json:"new_date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.NewDate == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "new_date required"})
		return
	}
	s.editSheet(w, r, func(sheet *models.AttendanceSheet) error {
		return attendance.RenameDate(sheet, oldDate, req.NewDate)
	})
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AthleteID string `json:"athlete_id"`
		Date      string `json:"date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.AthleteID == "" || req.Date == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "athlete_id and date required"})
		return
	}
	s.editSheet(w, r, func(sheet *models.AttendanceSheet) error {
		// Toggling an unknown pair would persist a stray records entry
		// until the next load normalizes it away.
		if !sheet.HasDate(req.Date) {
			return fmt.Errorf("date %s is not on the sheet", req.Date)
		}
		if !sheet.HasAthlete(req.AthleteID) {
			return fmt.Errorf("athlete %s is not on the roster", req.AthleteID)
		}
		attendance.Toggle(sheet, req.AthleteID, req.Date)
		return nil
	})
}

func (s *Server) handleAddAthlete(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Level     string `json:"level"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	s.editSheet(w, r, func(sheet *models.AttendanceSheet) error {
		attendance.AddAthlete(sheet, req.FirstName, req.LastName, req.Level)
		return nil
	})
}

func (s *Server) handleRemoveAthlete(w http.ResponseWriter, r *http.Request) {
	rowID := chi.URLParam(r, "rowID")
	s.editSheet(w, r, func(sheet *models.AttendanceSheet) error {
		attendance.RemoveAthlete(sheet, rowID)
		return nil
	})
}
