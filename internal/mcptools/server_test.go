package mcptools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/hrtlog/internal/logger"
	"github.com/MrSnakeDoc/hrtlog/internal/store"
)

func newHandler(t *testing.T) *Handler {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, store.DosesFile), []byte(`{"entries": [
		{"id": "d1", "date": "2024-03-01", "medications": [{"name": "Estradiol", "dose": "2", "unit": "mg"}]},
		{"id": "d2", "date": "2024-03-05", "medications": [{"name": "Progesterone"}]}
	]}`), 0o644))

	st := store.New(dir, logger.Nop(),
		store.WithSeed(1),
		store.WithClock(func() time.Time { return time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC) }),
	)
	return NewHandler(st, logger.Nop())
}

func call(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{Params: mcp.CallToolParams{Arguments: args}}
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.NotEmpty(t, res.Content)
	tc, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected TextContent, got %T", res.Content[0])
	return tc.Text
}

func TestSearchTimelineTool(t *testing.T) {
	h := newHandler(t)

	res, err := h.handleSearch(context.Background(), call(map[string]any{"query": "estradiol"}))
	require.NoError(t, err)
	assert.False(t, res.IsError)

	var payload searchPayload
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &payload))
	assert.Equal(t, 1, payload.Count)
	assert.Contains(t, payload.Entries[0], "Estradiol")

	res, err = h.handleSearch(context.Background(), call(map[string]any{"limit": float64(1)}))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &payload))
	assert.Equal(t, 1, payload.Count)
	assert.Equal(t, 2, payload.Total)
}

func TestSearchLimit(t *testing.T) {
	tests := []struct {
		name string
		args map[string]any
		want int
	}{
		{"missing", map[string]any{}, defaultLimit},
		{"zero", map[string]any{"limit": float64(0)}, defaultLimit},
		{"negative", map[string]any{"limit": float64(-3)}, defaultLimit},
		{"not a number", map[string]any{"limit": "50"}, defaultLimit},
		{"in range", map[string]any{"limit": float64(50)}, 50},
		{"at max", map[string]any{"limit": float64(maxLimit)}, maxLimit},
		{"above max", map[string]any{"limit": float64(500)}, maxLimit},
		{"huge", map[string]any{"limit": float64(1e12)}, maxLimit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, searchLimit(tt.args))
		})
	}
}

func TestSearchTimelineToolClampsLimit(t *testing.T) {
	dir := t.TempDir()
	var sb strings.Builder
	sb.WriteString(`{"entries": [`)
	for i := range 250 {
		if i > 0 {
			sb.WriteString(",")
		}
		fmt.Fprintf(&sb, `{"id": "d%d", "date": "2024-03-01", "medications": [{"name": "Estradiol"}]}`, i)
	}
	sb.WriteString(`]}`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, store.DosesFile), []byte(sb.String()), 0o644))
	h := NewHandler(store.New(dir, logger.Nop()), logger.Nop())

	res, err := h.handleSearch(context.Background(), call(map[string]any{"limit": float64(500)}))
	require.NoError(t, err)
	require.False(t, res.IsError)

	var payload searchPayload
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &payload))
	assert.Equal(t, maxLimit, payload.Count)
	assert.Equal(t, 250, payload.Total)
}

func TestSearchTimelineToolRejectsBadDate(t *testing.T) {
	h := newHandler(t)

	res, err := h.handleSearch(context.Background(), call(map[string]any{"start": "yesterday"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, text(t, res), "start")
}

func TestGetEntryTool(t *testing.T) {
	h := newHandler(t)

	res, err := h.handleGetEntry(context.Background(), call(map[string]any{"id": "d2"}))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Contains(t, text(t, res), "Progesterone")

	res, err = h.handleGetEntry(context.Background(), call(map[string]any{"id": "missing"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)

	res, err = h.handleGetEntry(context.Background(), call(map[string]any{}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestLogSymptomTool(t *testing.T) {
	h := newHandler(t)

	res, err := h.handleLogSymptom(context.Background(), call(map[string]any{"symptom": "hot flash"}))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Contains(t, text(t, res), "hot flash")

	res, err = h.handleLogSymptom(context.Background(), call(map[string]any{"symptom": " "}))
	require.NoError(t, err)
	assert.True(t, res.IsError)

	assert.Len(t, h.store.LoadSymptomLog(), 1)
}

func TestListResourcesTool(t *testing.T) {
	h := newHandler(t)

	res, err := h.handleListResources(context.Background(), call(nil))
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, text(t, res))
}

func TestNewServerRegistersTools(t *testing.T) {
	s := NewServer(newHandler(t), "test")
	require.NotNil(t, s)
}
