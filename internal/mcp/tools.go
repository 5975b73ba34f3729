package mcp

import (
	"context"
	"fmt"
	"strconv"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/claude/liftledger/internal/ledger"
	"github.com/claude/liftledger/internal/models"
	"github.com/claude/liftledger/internal/program"
)

// --- Tool definitions ---

var toolGetPrescription = mcp.NewTool("get_prescription",
	mcp.WithDescription("Compute the warmup and work sets for an athlete's lift in a given week of the 5/3/1 block. Weights are rounded to the athlete's plate increment."),
	mcp.WithString("athlete_id", mcp.Required(), mcp.Description("Athlete identifier")),
	mcp.WithString("lift", mcp.Required(), mcp.Description("Lift name"), mcp.Enum("bench", "squat", "deadlift", "press")),
	mcp.WithString("week", mcp.Required(), mcp.Description("Week of the block (1-4; week 4 is the deload)")),
)

var toolGetRecentSessions = mcp.NewTool("get_recent_sessions",
	mcp.WithDescription("List an athlete's most recent logged AMRAP sessions, newest first. Optionally filtered to one lift."),
	mcp.WithString("athlete_id", mcp.Required(), mcp.Description("Athlete identifier")),
	mcp.WithString("lift", mcp.Description("Filter by lift"), mcp.Enum("bench", "squat", "deadlift", "press")),
	mcp.WithString("limit", mcp.Description("Maximum sessions to return. Defaults to 20, capped at 50.")),
)

var toolGetBestEstimate = mcp.NewTool("get_best_estimate",
	mcp.WithDescription("Best estimated one-rep max for a lift over the athlete's recent sessions. Returns 0 when nothing is logged."),
	mcp.WithString("athlete_id", mcp.Required(), mcp.Description("Athlete identifier")),
	mcp.WithString("lift", mcp.Required(), mcp.Description("Lift name"), mcp.Enum("bench", "squat", "deadlift", "press")),
	mcp.WithString("lookback", mcp.Description("How many recent sessions to consider. Defaults to 50.")),
)

var toolGetPRHistory = mcp.NewTool("get_pr_history",
	mcp.WithDescription("Walk an athlete's session history for a lift oldest-first and report every session whose estimated one-rep max beat everything before it."),
	mcp.WithString("athlete_id", mcp.Required(), mcp.Description("Athlete identifier")),
	mcp.WithString("lift", mcp.Required(), mcp.Description("Lift name"), mcp.Enum("bench", "squat", "deadlift", "press")),
)

var toolGetAttendanceSummary = mcp.NewTool("get_attendance_summary",
	mcp.WithDescription("Per-athlete attendance counts and rates for a team's sheet."),
	mcp.WithString("team", mcp.Required(), mcp.Description("Team name")),
)

// --- Tool handlers ---

func (h *handlers) getPrescription(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	athleteID, err := req.RequireString("athlete_id")
	if err != nil {
		return mcp.NewToolResultError("athlete_id parameter is required"), nil
	}
	lift, err := parseLiftArg(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	weekStr, err := req.RequireString("week")
	if err != nil {
		return mcp.NewToolResultError("week parameter is required"), nil
	}
	week, err := strconv.Atoi(weekStr)
	if err != nil || !program.ValidWeek(week) {
		return mcp.NewToolResultError("week must be 1-4"), nil
	}

	profile, err := h.ds.GetProfile(ctx, athleteID)
	if err != nil {
		h.log.Error("mcp get_prescription", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	if profile == nil {
		return mcp.NewToolResultError("unknown athlete: " + athleteID), nil
	}
	tm, ok := profile.TrainingMax[lift]
	if !ok || tm <= 0 {
		return mcp.NewToolResultError(fmt.Sprintf("no training max set for %s", lift)), nil
	}

	p := program.ForWeek(tm, week, profile.Unit)
	result, err := mcp.NewToolResultJSON(map[string]any{
		"athlete_id":   athleteID,
		"lift":         lift,
		"week":         week,
		"unit":         profile.Unit,
		"training_max": tm,
		"warmups":      p.Warmups,
		"work_sets":    p.WorkSets,
	})
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getRecentSessions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	athleteID, err := req.RequireString("athlete_id")
	if err != nil {
		return mcp.NewToolResultError("athlete_id parameter is required"), nil
	}
	lift := models.Lift(req.GetString("lift", ""))

	limit := 20
	if s := req.GetString("limit", ""); s != "" {
		limit, err = strconv.Atoi(s)
		if err != nil || limit <= 0 {
			return mcp.NewToolResultError("limit must be a positive integer"), nil
		}
	}

	sessions, err := h.led.Recent(ctx, athleteID, lift, limit)
	if err != nil {
		h.log.Error("mcp get_recent_sessions", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(sessions)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getBestEstimate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	athleteID, err := req.RequireString("athlete_id")
	if err != nil {
		return mcp.NewToolResultError("athlete_id parameter is required"), nil
	}
	lift, err := parseLiftArg(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	lookback := ledger.DefaultLookback
	if s := req.GetString("lookback", ""); s != "" {
		lookback, err = strconv.Atoi(s)
		if err != nil || lookback <= 0 {
			return mcp.NewToolResultError("lookback must be a positive integer"), nil
		}
	}

	best, err := h.led.BestEstimate(ctx, athleteID, lift, lookback)
	if err != nil {
		h.log.Error("mcp get_best_estimate", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(map[string]any{
		"athlete_id":    athleteID,
		"lift":          lift,
		"best_estimate": best,
	})
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

// prEntry is one running-best session in a lift's history.
type prEntry struct {
	SessionID    string  `json:"session_id"`
	Date         string  `json:"date"`
	Week         int     `json:"week"`
	AMRAPWeight  float64 `json:"amrap_weight"`
	AMRAPReps    int     `json:"amrap_reps"`
	EstimatedMax float64 `json:"estimated_max"`
}

// prHistory walks sessions oldest-first and keeps every session whose
// estimate strictly beats the running best. Input is newest-first, as
// returned by the ledger.
func prHistory(sessions []models.WorkoutSession) []prEntry {
	entries := []prEntry{}
	best := 0.0
	for i := len(sessions) - 1; i >= 0; i-- {
		s := sessions[i]
		if s.EstimatedMax <= best {
			continue
		}
		best = s.EstimatedMax
		entries = append(entries, prEntry{
			SessionID:    s.ID.String(),
			Date:         s.CreatedAt.Format("2006-01-02"),
			Week:         s.Week,
			AMRAPWeight:  s.AMRAPWeight,
			AMRAPReps:    s.AMRAPReps,
			EstimatedMax: s.EstimatedMax,
		})
	}
	return entries
}

func (h *handlers) getPRHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	athleteID, err := req.RequireString("athlete_id")
	if err != nil {
		return mcp.NewToolResultError("athlete_id parameter is required"), nil
	}
	lift, err := parseLiftArg(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	sessions, err := h.led.Recent(ctx, athleteID, lift, 0)
	if err != nil {
		h.log.Error("mcp get_pr_history", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(prHistory(sessions))
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

// athleteAttendance is one roster row's totals over the sheet's dates.
type athleteAttendance struct {
	AthleteID string  `json:"athlete_id"`
	Name      string  `json:"name"`
	Level     string  `json:"level"`
	Present   int     `json:"present"`
	Total     int     `json:"total"`
	Rate      float64 `json:"rate"`
}

// summarizeSheet counts marked dates per roster row. Rate is 0 on an
// empty sheet rather than NaN.
func summarizeSheet(sheet *models.AttendanceSheet) []athleteAttendance {
	out := make([]athleteAttendance, 0, len(sheet.Athletes))
	for _, row := range sheet.Athletes {
		present := 0
		for _, date := range sheet.Dates {
			if sheet.Records[row.ID][date] {
				present++
			}
		}
		a := athleteAttendance{
			AthleteID: row.ID,
			Name:      row.FirstName + " " + row.LastName,
			Level:     row.Level,
			Present:   present,
			Total:     len(sheet.Dates),
		}
		if a.Total > 0 {
			a.Rate = float64(a.Present) / float64(a.Total)
		}
		out = append(out, a)
	}
	return out
}

func (h *handlers) getAttendanceSummary(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	team, err := req.RequireString("team")
	if err != nil {
		return mcp.NewToolResultError("team parameter is required"), nil
	}

	sheet, err := h.ds.LoadSheet(ctx, team)
	if err != nil {
		h.log.Error("mcp get_attendance_summary", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	if sheet == nil {
		return mcp.NewToolResultError("no attendance sheet for team: " + team), nil
	}

	result, err := mcp.NewToolResultJSON(map[string]any{
		"team":     sheet.Team,
		"dates":    len(sheet.Dates),
		"athletes": summarizeSheet(sheet),
	})
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func parseLiftArg(req mcp.CallToolRequest) (models.Lift, error) {
	s, err := req.RequireString("lift")
	if err != nil {
		return "", fmt.Errorf("lift parameter is required")
	}
	lift, err := models.ParseLift(s)
	if err != nil {
		return "", fmt.Errorf("unknown lift: %s", s)
	}
	return lift, nil
}
