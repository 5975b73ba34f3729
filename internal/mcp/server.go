package mcp

import (
	"context"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/claude/liftledger/internal/ledger"
)

type contextKey int

const athleteIDKey contextKey = iota

// AthleteIDFromContext extracts the athlete ID injected by the transport
// layer. Defaults to "local" for stdio sessions.
func AthleteIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(athleteIDKey).(string); ok && id != "" {
		return id
	}
	return "local"
}

// WithAthleteID returns a context carrying the given athlete ID.
func WithAthleteID(ctx context.Context, athleteID string) context.Context {
	return context.WithValue(ctx, athleteIDKey, athleteID)
}

// New creates an MCP server with all tools and resources registered.
func New(ds DataSource, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("LiftLedger", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("LiftLedger strength training server. Query 5/3/1 prescriptions, logged AMRAP sessions, estimated one-rep maxes, PR history, and team attendance. Weights are returned in each athlete's configured unit."),
	)

	h := &handlers{ds: ds, led: ledger.New(ds, log), log: log}

	// Tools
	s.AddTools(
		server.ServerTool{Tool: toolGetPrescription, Handler: h.getPrescription},
		server.ServerTool{Tool: toolGetRecentSessions, Handler: h.getRecentSessions},
		server.ServerTool{Tool: toolGetBestEstimate, Handler: h.getBestEstimate},
		server.ServerTool{Tool: toolGetPRHistory, Handler: h.getPRHistory},
		server.ServerTool{Tool: toolGetAttendanceSummary, Handler: h.getAttendanceSummary},
	)

	// Resources
	s.AddResources(
		server.ServerResource{Resource: resProgramTables, Handler: h.programTables},
		server.ServerResource{Resource: resRecentSessions, Handler: h.recentSessions},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	ds  DataSource
	led *ledger.Ledger
	log *slog.Logger
}

// --- Resource definitions ---

var resProgramTables = mcp.NewResource(
	"liftledger://program_tables",
	"Program Tables",
	mcp.WithResourceDescription("The 5/3/1 percentage and rep scheme for every week of the block, plus the warmup scheme"),
	mcp.WithMIMEType("application/json"),
)

var resRecentSessions = mcp.NewResource(
	"liftledger://recent_sessions",
	"Recent Sessions",
	mcp.WithResourceDescription("The most recent logged AMRAP sessions for the athlete bound to this connection"),
	mcp.WithMIMEType("application/json"),
)
