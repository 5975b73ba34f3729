package mcp

import (
	"context"

	"github.com/claude/liftledger/internal/ledger"
	"github.com/claude/liftledger/internal/models"
	"github.com/claude/liftledger/internal/storage"
)

// DataSource abstracts the data layer for MCP tools. The session methods
// match ledger.SessionStore so the same value backs the PR logic.
type DataSource interface {
	ledger.SessionStore
	GetProfile(ctx context.Context, athleteID string) (*models.AthleteProfile, error)
	LoadSheet(ctx context.Context, team string) (*models.AttendanceSheet, error)
}

// Compile-time check: *storage.DB satisfies DataSource.
var _ DataSource = (*storage.DB)(nil)
