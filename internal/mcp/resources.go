package mcp

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/claude/liftledger/internal/models"
	"github.com/claude/liftledger/internal/program"
)

// weekTable is one week's scheme stripped of weights: only percentages
// and rep targets, which hold for any training max.
type weekTable struct {
	Week     int        `json:"week"`
	Deload   bool       `json:"deload"`
	Warmups  []tableRow `json:"warmups"`
	WorkSets []tableRow `json:"work_sets"`
}

type tableRow struct {
	Percent    float64 `json:"percent"`
	TargetReps int     `json:"target_reps"`
	AMRAP      bool    `json:"amrap,omitempty"`
}

func programTables() []weekTable {
	tables := make([]weekTable, 0, 4)
	for week := 1; week <= 4; week++ {
		p := program.ForWeek(100, week, models.UnitLB)
		tables = append(tables, weekTable{
			Week:     week,
			Deload:   !program.AMRAPWeek(week),
			Warmups:  stripWeights(p.Warmups),
			WorkSets: stripWeights(p.WorkSets),
		})
	}
	return tables
}

func stripWeights(rows []models.SetRow) []tableRow {
	out := make([]tableRow, len(rows))
	for i, r := range rows {
		out[i] = tableRow{Percent: r.Percent, TargetReps: r.TargetReps, AMRAP: r.AMRAP}
	}
	return out
}

func (h *handlers) programTables(_ context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(programTables())
	if err != nil {
		return nil, err
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (h *handlers) recentSessions(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	athleteID := AthleteIDFromContext(ctx)

	sessions, err := h.led.Recent(ctx, athleteID, "", 0)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(sessions)
	if err != nil {
		return nil, err
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
