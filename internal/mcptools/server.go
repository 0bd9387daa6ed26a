package mcptools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/MrSnakeDoc/hrtlog/internal/domain"
	"github.com/MrSnakeDoc/hrtlog/internal/logger"
	"github.com/MrSnakeDoc/hrtlog/internal/store"
)

const (
	ServerName   = "hrtlog"
	defaultLimit = 20
	maxLimit     = 200
)

// Handler exposes the record store as MCP tools
type Handler struct {
	store *store.Store
	log   logger.Logger
}

func NewHandler(st *store.Store, log logger.Logger) *Handler {
	return &Handler{store: st, log: log}
}

// NewServer builds an MCP server with every tool registered
func NewServer(h *Handler, version string) *server.MCPServer {
	s := server.NewMCPServer(
		ServerName,
		version,
		server.WithToolCapabilities(true),
	)
	h.RegisterTools(s)
	return s
}

// ServeStdio serves s over stdin/stdout until the client disconnects
func ServeStdio(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

// RegisterTools adds the timeline, entry, symptom log and resource tools.
func (h *Handler) RegisterTools(s *server.MCPServer) {
	s.AddTool(mcp.NewTool("search_timeline",
		mcp.WithDescription("Search the merged dose and symptom timeline, newest first. Search text is matched case-insensitively against every text field and medication."),
		mcp.WithString("query", mcp.Description("Text to search for (optional)")),
		mcp.WithString("start", mcp.Description("Inclusive lower date bound, YYYY-MM-DD (optional)")),
		mcp.WithString("end", mcp.Description("Inclusive upper date bound, YYYY-MM-DD (optional)")),
		mcp.WithNumber("limit", mcp.Description(fmt.Sprintf("Maximum entries to return (1-%d, default %d)", maxLimit, defaultLimit))),
	), h.handleSearch)

	s.AddTool(mcp.NewTool("get_entry",
		mcp.WithDescription("Return one timeline entry by id, with a readable detail view."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Entry id, e.g. dose-20240301080000-3")),
	), h.handleGetEntry)

	s.AddTool(mcp.NewTool("log_symptom",
		mcp.WithDescription("Append a timestamped line to the flat symptom log."),
		mcp.WithString("symptom", mcp.Required(), mcp.Description("Symptom text")),
	), h.handleLogSymptom)

	s.AddTool(mcp.NewTool("list_resources",
		mcp.WithDescription("List saved support resources (name, link, description, tags)."),
	), h.handleListResources)
}

type searchPayload struct {
	Count   int      `json:"count"`
	Total   int      `json:"total"`
	Entries []string `json:"entries"`
}

func (h *Handler) handleSearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	f := domain.Filter{
		Search: stringArg(args, "query"),
		Start:  stringArg(args, "start"),
		End:    stringArg(args, "end"),
	}

	limit := searchLimit(args)

	records, err := h.store.GetTimeline(f)
	if err != nil {
		return toolError("search failed", err), nil
	}

	total := len(records)
	if len(records) > limit {
		records = records[:limit]
	}

	payload := searchPayload{Count: len(records), Total: total, Entries: make([]string, 0, len(records))}
	for i, r := range records {
		payload.Entries = append(payload.Entries, domain.Summary(r, i))
	}
	return jsonResult(payload)
}

// searchLimit reads the optional limit argument. Values above maxLimit are
// clamped; missing or non-positive values use defaultLimit.
func searchLimit(args map[string]any) int {
	v, ok := args["limit"].(float64)
	if !ok || v < 1 {
		return defaultLimit
	}
	return int(min(v, maxLimit))
}

func (h *Handler) handleGetEntry(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	rec, ok, err := h.store.Get(strings.TrimSpace(id))
	if err != nil {
		return toolError("lookup failed", err), nil
	}
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("no entry with id %q", id)), nil
	}
	return mcp.NewToolResultText(domain.Detail(rec, 0)), nil
}

func (h *Handler) handleLogSymptom(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("symptom")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	entry, err := h.store.LogSymptom(text)
	if err != nil {
		return toolError("log failed", err), nil
	}
	h.log.Info("symptom logged via mcp")
	return jsonResult(entry)
}

func (h *Handler) handleListResources(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	items, err := h.store.LoadResources()
	if err != nil {
		return toolError("load failed", err), nil
	}
	if items == nil {
		items = []domain.Resource{}
	}
	return jsonResult(items)
}

// toolError reports validation errors as they are and prefixes anything else.
func toolError(prefix string, err error) *mcp.CallToolResult {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		return mcp.NewToolResultError(verr.Error())
	}
	return mcp.NewToolResultError(fmt.Sprintf("%s: %v", prefix, err))
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}
	return mcp.NewToolResultText(string(b)), nil
}

func stringArg(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return s
}
