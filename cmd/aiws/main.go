// Package main implements aiws, a command line tool and MCP (Model Context
// Protocol) server for finding and reading AI assistant CLI sessions.
//
// Sessions recorded by Claude Code, OpenAI Codex and Gemini CLI are listed
// by recency or query relevance, resolved by full or partial ID and returned
// as canonical events, optionally redacted.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/yoavf/as-i-was-saying/config"
	"github.com/yoavf/as-i-was-saying/discovery"
	"github.com/yoavf/as-i-was-saying/model"
)

const version = "0.3.0"

const defaultPageSize = 20

func main() {
	// Check if running in CLI mode (has command arguments)
	if len(os.Args) > 1 {
		handleCLI(os.Args[1:])
		return
	}

	// Otherwise, run as MCP server
	a := newApp()
	if err := a.load(); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := runServer(context.Background(), a); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

func newServer(a *app) *mcp.Server {
	opts := &mcp.ServerOptions{
		Instructions: "This server provides access to AI assistant CLI sessions from Claude Code, OpenAI Codex and Gemini CLI. " +
			"List or search sessions to find one, then read its events by session ID. Partial IDs of at least " +
			fmt.Sprintf("%d", a.cfg.Resolve.MinPrefixLen) + " characters are accepted.",
	}

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "as-i-was-saying",
		Version: version,
	}, opts)

	// Add tools with strongly-typed argument structures
	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_available_backends",
		Description: "List which AI CLI backends have session directories on this machine (claude, codex, gemini)",
	}, a.listAvailableBackends)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_sessions",
		Description: "List recent AI assistant sessions, newest first, with their latest and earliest user messages",
	}, a.listSessions)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_sessions",
		Description: "Find sessions whose text contains a query, ranked by number of matches and then recency",
	}, a.searchSessions)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "resolve_session",
		Description: "Find the session for a full or partial session ID",
	}, a.resolveSession)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_session_events",
		Description: "Get the canonical events of a session with pagination and optional redaction",
	}, a.getSessionEvents)

	return server
}

// runServer serves the tools over stdio until the client disconnects.
func runServer(ctx context.Context, a *app) error {
	return newServer(a).Run(ctx, &mcp.StdioTransport{})
}

func jsonResult(result any) (*mcp.CallToolResult, any, error) {
	resultJSON, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal result: %w", err)
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(resultJSON)},
		},
	}, nil, nil
}

// Tool 1: list_available_backends
type listAvailableBackendsArgs struct{}

func (a *app) listAvailableBackends(ctx context.Context, req *mcp.CallToolRequest, args listAvailableBackendsArgs) (*mcp.CallToolResult, any, error) {
	available := a.svc.AvailableBackends("")
	backends := make([]map[string]any, 0, len(available))
	for _, backend := range available {
		backends = append(backends, map[string]any{
			"backend":   backend,
			"full_name": backend.DisplayName(),
			"root":      a.svc.Roots[backend],
		})
	}

	return jsonResult(map[string]any{
		"available_backends": backends,
		"count":              len(backends),
	})
}

// Tool 2: list_sessions
type listSessionsArgs struct {
	Backend string `json:"backend,omitempty" jsonschema:"Filter by backend (claude, codex, gemini). Leave empty for all backends."`
	Since   string `json:"since,omitempty" jsonschema:"Only include sessions modified within this horizon, e.g. 12h, 3d, 2w or all. Defaults to 1w."`
	Limit   int    `json:"limit,omitempty" jsonschema:"Maximum number of sessions per backend"`
}

func (a *app) discoveryQuery(backendName, since, text string, limit int) (discovery.Query, error) {
	backend, err := parseBackendFlag(backendName)
	if err != nil {
		return discovery.Query{}, err
	}
	if strings.TrimSpace(since) == "" {
		since = a.cfg.Discovery.Since
	}
	lookback, err := config.ParseLookback(since)
	if err != nil {
		return discovery.Query{}, err
	}
	return discovery.Query{Backend: backend, Lookback: lookback, Text: text, Limit: limit}, nil
}

func (a *app) listSessions(ctx context.Context, req *mcp.CallToolRequest, args listSessionsArgs) (*mcp.CallToolResult, any, error) {
	query, err := a.discoveryQuery(args.Backend, args.Since, "", args.Limit)
	if err != nil {
		return nil, nil, err
	}

	sessions := a.svc.Discover(query)
	if sessions == nil {
		sessions = []model.SessionDescriptor{}
	}
	return jsonResult(map[string]any{
		"sessions": sessions,
		"count":    len(sessions),
	})
}

// Tool 3: search_sessions
type searchSessionsArgs struct {
	Query   string `json:"query" jsonschema:"Text to find in session content (case-insensitive substring)"`
	Backend string `json:"backend,omitempty" jsonschema:"Filter by backend (claude, codex, gemini). Leave empty for all backends."`
	Since   string `json:"since,omitempty" jsonschema:"Only search sessions modified within this horizon, e.g. 12h, 3d, 2w or all. Defaults to 1w."`
	Limit   int    `json:"limit,omitempty" jsonschema:"Maximum number of sessions per backend to search"`
}

func (a *app) searchSessions(ctx context.Context, req *mcp.CallToolRequest, args searchSessionsArgs) (*mcp.CallToolResult, any, error) {
	if strings.TrimSpace(args.Query) == "" {
		return nil, nil, fmt.Errorf("query is required")
	}
	query, err := a.discoveryQuery(args.Backend, args.Since, args.Query, args.Limit)
	if err != nil {
		return nil, nil, err
	}

	matches := a.svc.Discover(query)
	if matches == nil {
		matches = []model.SessionDescriptor{}
	}
	return jsonResult(map[string]any{
		"query":   args.Query,
		"matches": matches,
		"count":   len(matches),
	})
}

// Tool 4: resolve_session
type resolveSessionArgs struct {
	SessionID string `json:"session_id" jsonschema:"Full session ID, short ID or unique prefix"`
	Backend   string `json:"backend,omitempty" jsonschema:"Only search this backend (claude, codex, gemini)"`
}

func (a *app) resolveSession(ctx context.Context, req *mcp.CallToolRequest, args resolveSessionArgs) (*mcp.CallToolResult, any, error) {
	if args.SessionID == "" {
		return nil, nil, fmt.Errorf("session_id is required")
	}
	backend, err := parseBackendFlag(args.Backend)
	if err != nil {
		return nil, nil, err
	}

	session, err := a.svc.Resolve(args.SessionID, backend)
	if err != nil {
		return nil, nil, err
	}
	return jsonResult(session)
}

// Tool 5: get_session_events
type getSessionEventsArgs struct {
	SessionID string `json:"session_id,omitempty" jsonschema:"Session ID or unique prefix. Either session_id or path is required."`
	Path      string `json:"path,omitempty" jsonschema:"Path to a session file"`
	Backend   string `json:"backend,omitempty" jsonschema:"Backend of the session (claude, codex, gemini)"`
	Page      int    `json:"page,omitempty" jsonschema:"Page number for pagination (0-indexed)"`
	PageSize  int    `json:"page_size,omitempty" jsonschema:"Number of events per page"`
	Head      int    `json:"head,omitempty" jsonschema:"Only include the first N events that contain text"`
	Tail      int    `json:"tail,omitempty" jsonschema:"Only include the last N events that contain text"`
	Redact    string `json:"redact,omitempty" jsonschema:"Redaction level: none, standard or strict"`
}

func (a *app) getSessionEvents(ctx context.Context, req *mcp.CallToolRequest, args getSessionEventsArgs) (*mcp.CallToolResult, any, error) {
	target := args.Path
	if target == "" {
		target = args.SessionID
	}
	if target == "" {
		return nil, nil, errors.New("session_id or path is required")
	}
	backend, err := parseBackendFlag(args.Backend)
	if err != nil {
		return nil, nil, err
	}
	if args.PageSize <= 0 {
		args.PageSize = defaultPageSize
	}
	if args.Page < 0 {
		args.Page = 0
	}

	session, events, err := a.sessionEvents(target, eventOptions{
		backend: backend,
		head:    args.Head,
		tail:    args.Tail,
		level:   args.Redact,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get session: %w", err)
	}

	total := len(events)
	start := total
	if args.Page <= total/args.PageSize {
		start = min(args.Page*args.PageSize, total)
	}
	end := start + min(args.PageSize, total-start)
	page := events[start:end]
	if page == nil {
		page = []model.Event{}
	}

	return jsonResult(map[string]any{
		"session":   session,
		"page":      args.Page,
		"page_size": args.PageSize,
		"total":     total,
		"has_more":  end < total,
		"events":    page,
		"count":     len(page),
	})
}
