package telemetry

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/vinodismyname/toolgate/internal/registry"
)

func TestLogReport_Summary(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	LogReport(logger, registry.Report{
		Mode:         registry.ModeReadOnly,
		EnabledCount: -1,
		Declared:     3,
		Removed:      []string{"delete_product"},
		Failures:     []registry.Failure{{Tool: "x", Stage: registry.StageInspect, Err: errors.New("boom")}},
	})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	require.Contains(t, lines[0], `"stage":"inspect"`)
	require.Contains(t, lines[1], `"enabled":"all"`)
	require.Contains(t, lines[1], `"removed_tools":["delete_product"]`)
	require.Contains(t, lines[1], `"mode":"Read-Only"`)
}

func TestLogReport_ListError(t *testing.T) {
	var buf bytes.Buffer
	LogReport(zerolog.New(&buf), registry.Report{Mode: registry.ModeFull, Err: errors.New("no list")})
	require.Contains(t, buf.String(), `"level":"error"`)
	require.Contains(t, buf.String(), "tool policy not applied")
}

func TestMeasureFootprint(t *testing.T) {
	tools := []mcp.Tool{mcp.NewTool("a", mcp.WithDescription("first")), mcp.NewTool("b")}
	var seen string
	counter := func(model, text string) int {
		seen = text
		return len(text) / 4
	}

	fp, err := MeasureFootprint("gpt-4", tools, counter)
	require.NoError(t, err)
	require.Equal(t, 2, fp.Tools)
	require.Equal(t, 8192, fp.ContextWindow)
	require.Equal(t, len(seen)/4, fp.Tokens)
	require.Contains(t, seen, `"name":"a"`)
	require.InDelta(t, float64(fp.Tokens)/8192, fp.Share, 1e-9)

	empty, err := MeasureFootprint("unknown-model", nil, counter)
	require.NoError(t, err)
	require.Zero(t, empty.Tokens)
	require.Equal(t, 2048, empty.ContextWindow)
}

func TestMeasureFootprintContext_AbandonsStalledCounter(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	stalled := func(model, text string) int {
		<-release
		return 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	start := time.Now()
	_, err := MeasureFootprintContext(ctx, "gpt-4", []mcp.Tool{mcp.NewTool("a")}, stalled)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Less(t, time.Since(start), time.Second)
}

func TestMeasureFootprintContext_ReturnsResult(t *testing.T) {
	fp, err := MeasureFootprintContext(context.Background(), "gpt-4", []mcp.Tool{mcp.NewTool("a")},
		func(model, text string) int { return 7 })
	require.NoError(t, err)
	require.Equal(t, 7, fp.Tokens)
}

func TestHooks_CountToolCalls(t *testing.T) {
	h := NewHooks(zerolog.Nop())
	hooks := h.Server()
	req := &mcp.CallToolRequest{}
	req.Params.Name = "x"

	for _, fn := range hooks.OnAfterCallTool {
		fn(context.Background(), 1, req, mcp.NewToolResultText("ok"))
		fn(context.Background(), 2, req, mcp.NewToolResultError("bad"))
	}

	c := h.Counters()
	require.EqualValues(t, 2, c.ToolCalls)
	require.EqualValues(t, 1, c.ToolErrors)
}
