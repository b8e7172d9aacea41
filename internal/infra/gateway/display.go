package gateway

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func (h *toolHandlers) displayTable(_ context.Context, _ *mcp.CallToolRequest, in DisplayTableInput) (*mcp.CallToolResult, DisplayTableOutput, error) {
	out := DisplayTableOutput{
		Title:    in.Title,
		Columns:  nonNil(in.Columns),
		Rows:     nonNil(in.Rows),
		RowCount: len(in.Rows),
	}
	res, err := h.result(fmt.Sprintf("Displaying table %s", describe(in.Title, plural(out.RowCount, "row"))), out, resultMeta{})
	return res, out, err
}

func (h *toolHandlers) displayChart(_ context.Context, _ *mcp.CallToolRequest, in DisplayChartInput) (*mcp.CallToolResult, DisplayChartOutput, error) {
	kind := in.Type
	if kind == "" {
		kind = "bar"
	}
	out := DisplayChartOutput{
		Title:  in.Title,
		Type:   kind,
		Data:   nonNil(in.Data),
		XLabel: in.XLabel,
		YLabel: in.YLabel,
	}
	res, err := h.result(fmt.Sprintf("Displaying %s chart %s", kind, describe(in.Title, plural(len(out.Data), "point"))), out, resultMeta{})
	return res, out, err
}

func (h *toolHandlers) displayList(_ context.Context, _ *mcp.CallToolRequest, in DisplayListInput) (*mcp.CallToolResult, DisplayListOutput, error) {
	out := DisplayListOutput{
		Title:     in.Title,
		Items:     nonNil(in.Items),
		ItemCount: len(in.Items),
	}
	res, err := h.result(fmt.Sprintf("Displaying list %s", describe(in.Title, plural(out.ItemCount, "item"))), out, resultMeta{})
	return res, out, err
}

func (h *toolHandlers) displayCarousel(_ context.Context, _ *mcp.CallToolRequest, in DisplayCarouselInput) (*mcp.CallToolResult, DisplayCarouselOutput, error) {
	out := DisplayCarouselOutput{
		Title:     in.Title,
		Items:     nonNil(in.Items),
		ItemCount: len(in.Items),
	}
	res, err := h.result(fmt.Sprintf("Displaying carousel %s", describe(in.Title, plural(out.ItemCount, "card"))), out, resultMeta{})
	return res, out, err
}

func (h *toolHandlers) displayStats(_ context.Context, _ *mcp.CallToolRequest, in DisplayStatsInput) (*mcp.CallToolResult, DisplayStatsOutput, error) {
	stats := make([]Stat, len(in.Stats))
	for i, stat := range in.Stats {
		if stat.Trend == "" {
			stat.Trend = trendOf(stat.Change)
		}
		stats[i] = stat
	}
	out := DisplayStatsOutput{Title: in.Title, Stats: stats}
	res, err := h.result(fmt.Sprintf("Displaying stats %s", describe(in.Title, plural(len(stats), "metric"))), out, resultMeta{})
	return res, out, err
}

func trendOf(change *float64) string {
	switch {
	case change == nil || *change == 0:
		return "neutral"
	case *change > 0:
		return "up"
	default:
		return "down"
	}
}

func describe(title, count string) string {
	if title == "" {
		return fmt.Sprintf("(%s)", count)
	}
	return fmt.Sprintf("%q (%s)", title, count)
}

func nonNil[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}
