package gateway

import (
	"context"
	"regexp"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"widgetd/internal/domain"
)

func callTool(t *testing.T, session *mcp.ClientSession, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	if args == nil {
		args = map[string]any{}
	}
	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	return res
}

func structured(t *testing.T, res *mcp.CallToolResult) map[string]any {
	t.Helper()
	require.False(t, res.IsError, "unexpected tool error: %v", res.Content)
	out, ok := res.StructuredContent.(map[string]any)
	require.True(t, ok, "structured content is %T", res.StructuredContent)
	return out
}

func texts(res *mcp.CallToolResult) []string {
	var out []string
	for _, content := range res.Content {
		if text, ok := content.(*mcp.TextContent); ok {
			out = append(out, text.Text)
		}
	}
	return out
}

func TestAddToCartGeneratesSession(t *testing.T) {
	fx := newFixture(t, func(o *Options) { o.NewID = nil })
	session := connectClient(t, context.Background(), fx.catalog.NewServer())

	items := []any{map[string]any{"id": "a", "name": "Widget", "price": 9.99, "quantity": float64(1)}}
	res := callTool(t, session, "add_to_cart", map[string]any{"items": items})
	out := structured(t, res)

	assert.Equal(t, "add", out["action"])
	assert.Equal(t, items, out["items"])
	sessionID, ok := out["sessionId"].(string)
	require.True(t, ok)
	assert.Regexp(t, regexp.MustCompile(`^cart-[0-9a-z]+$`), sessionID)
	assert.Equal(t, sessionID, res.Meta[domain.ResultMetaSessionID])
	assert.Equal(t, 9.99, out["subtotal"])
}

func TestAddToCartKeepsSession(t *testing.T) {
	fx := newFixture(t)
	session := connectClient(t, context.Background(), fx.catalog.NewServer())

	out := structured(t, callTool(t, session, "add_to_cart", map[string]any{
		"items":     []any{map[string]any{"id": "a", "name": "Widget", "price": 2.5, "quantity": 4}},
		"sessionId": "cart-existing",
	}))
	assert.Equal(t, "cart-existing", out["sessionId"])
	assert.Equal(t, float64(4), out["itemCount"])
	assert.Equal(t, float64(10), out["subtotal"])
}

func TestAddToCartRejectsInvalidItems(t *testing.T) {
	fx := newFixture(t)
	session := connectClient(t, context.Background(), fx.catalog.NewServer())

	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "add_to_cart",
		Arguments: map[string]any{"items": []any{map[string]any{"id": "a", "name": "Widget", "price": 1, "quantity": 0}}},
	})
	if err == nil {
		assert.True(t, res.IsError)
	}

	res, err = session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "add_to_cart",
		Arguments: map[string]any{},
	})
	if err == nil {
		assert.True(t, res.IsError)
	}
}

func TestPlaceOrderDefaults(t *testing.T) {
	fx := newFixture(t)
	session := connectClient(t, context.Background(), fx.catalog.NewServer())

	out := structured(t, callTool(t, session, "place_order", nil))
	assert.Equal(t, map[string]any{
		"view":           "confirmation",
		"orderId":        "PZ-K3X9Z",
		"deliveryOption": "standard",
		"tipPercent":     float64(10),
	}, out)
}

func TestPlaceOrderGeneratedIDIsBase36(t *testing.T) {
	fx := newFixture(t, func(o *Options) { o.NewID = nil })
	session := connectClient(t, context.Background(), fx.catalog.NewServer())

	out := structured(t, callTool(t, session, "place_order", nil))
	assert.Regexp(t, regexp.MustCompile(`^PZ-[0-9A-Z]+$`), out["orderId"])
}

func TestPlaceOrderHonoursArguments(t *testing.T) {
	fx := newFixture(t)
	session := connectClient(t, context.Background(), fx.catalog.NewServer())

	out := structured(t, callTool(t, session, "place_order", map[string]any{
		"deliveryOption": "express",
		"tipPercent":     0,
		"items":          []any{map[string]any{"id": "p", "name": "Pizza", "price": 12.5, "quantity": 2}},
	}))
	assert.Equal(t, "express", out["deliveryOption"])
	assert.Equal(t, float64(0), out["tipPercent"])
	assert.Equal(t, float64(25), out["subtotal"])
}

func TestRemoveAndShowCart(t *testing.T) {
	fx := newFixture(t)
	session := connectClient(t, context.Background(), fx.catalog.NewServer())

	removed := structured(t, callTool(t, session, "remove_from_cart", map[string]any{
		"itemIds":   []any{"a", "b"},
		"sessionId": "cart-1",
	}))
	assert.Equal(t, "remove", removed["action"])
	assert.Equal(t, []any{"a", "b"}, removed["itemIds"])

	shown := structured(t, callTool(t, session, "show_cart", nil))
	assert.Equal(t, "show", shown["action"])
	assert.Equal(t, "cart-k3x9z", shown["sessionId"])
	assert.Equal(t, []any{}, shown["items"])
}

func TestViewShopDefaultsToCart(t *testing.T) {
	fx := newFixture(t)
	session := connectClient(t, context.Background(), fx.catalog.NewServer())

	out := structured(t, callTool(t, session, "view_shop", nil))
	assert.Equal(t, "cart", out["view"])

	out = structured(t, callTool(t, session, "view_shop", map[string]any{"view": "checkout"}))
	assert.Equal(t, "checkout", out["view"])
}

func TestResultsAreDualFormat(t *testing.T) {
	fx := newFixture(t)
	session := connectClient(t, context.Background(), fx.catalog.NewServer())

	res := callTool(t, session, "display_table", map[string]any{
		"title":   "Revenue",
		"columns": []any{map[string]any{"key": "region", "label": "Region"}},
		"rows":    []any{map[string]any{"region": "EMEA"}, map[string]any{"region": "APAC"}},
	})
	lines := texts(res)
	require.Len(t, lines, 2)
	assert.Equal(t, `Displaying table "Revenue" (2 rows)`, lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "{"))
	assert.Contains(t, lines[1], `"rowCount": 2`)
	assert.Equal(t, "2026-03-14T15:09:26Z", res.Meta[domain.ResultMetaTimestamp])
	assert.Equal(t, float64(2), structured(t, res)["rowCount"])
}

func TestDisplayChartAndStats(t *testing.T) {
	fx := newFixture(t)
	session := connectClient(t, context.Background(), fx.catalog.NewServer())

	chart := structured(t, callTool(t, session, "display_chart", map[string]any{
		"data": []any{map[string]any{"label": "Jan", "value": 3}},
	}))
	assert.Equal(t, "bar", chart["type"])

	stats := structured(t, callTool(t, session, "display_stats", map[string]any{
		"stats": []any{
			map[string]any{"label": "Revenue", "value": "$10k", "change": 4.2},
			map[string]any{"label": "Churn", "value": "2%", "change": -1},
			map[string]any{"label": "Users", "value": "900"},
			map[string]any{"label": "NPS", "value": "40", "trend": "up"},
		},
	}))
	list := stats["stats"].([]any)
	trends := make([]string, 0, len(list))
	for _, item := range list {
		trends = append(trends, item.(map[string]any)["trend"].(string))
	}
	assert.Equal(t, []string{"up", "down", "neutral", "up"}, trends)
}

func TestDisplayChartRejectsUnknownType(t *testing.T) {
	fx := newFixture(t)
	session := connectClient(t, context.Background(), fx.catalog.NewServer())

	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "display_chart",
		Arguments: map[string]any{"type": "radar", "data": []any{}},
	})
	if err == nil {
		assert.True(t, res.IsError)
	}
}

func TestDisplayListAndCarousel(t *testing.T) {
	fx := newFixture(t)
	session := connectClient(t, context.Background(), fx.catalog.NewServer())

	list := structured(t, callTool(t, session, "display_list", map[string]any{
		"items": []any{map[string]any{"id": "1", "title": "First"}},
	}))
	assert.Equal(t, float64(1), list["itemCount"])

	carousel := structured(t, callTool(t, session, "display_carousel", map[string]any{
		"items": []any{
			map[string]any{"id": "1", "title": "Margherita", "price": 9.5},
			map[string]any{"id": "2", "title": "Diavola"},
		},
	}))
	assert.Equal(t, float64(2), carousel["itemCount"])
}

func TestAuthFlow(t *testing.T) {
	fx := newFixture(t)
	session := connectClient(t, context.Background(), fx.catalog.NewServer())

	status := callTool(t, session, "auth_status", nil)
	assert.Equal(t, false, structured(t, status)["authenticated"])
	assert.Equal(t, false, status.Meta[domain.ResultMetaAuthenticated])

	login := callTool(t, session, "auth_login", map[string]any{"provider": "github", "email": "ada@example.com"})
	state := structured(t, login)
	assert.Equal(t, true, state["authenticated"])
	user := state["user"].(map[string]any)
	assert.Equal(t, "github", user["provider"])
	assert.Equal(t, "ada@example.com", user["email"])
	assert.Equal(t, "2026-03-14T16:09:26Z", state["expiresAt"])
	assert.Equal(t, "2026-03-14T16:09:26Z", login.Meta[domain.ResultMetaExpiresAt])

	access := state["accessToken"].(string)
	refreshToken := state["refreshToken"].(string)
	assert.True(t, strings.HasPrefix(access, demoTokenPrefix))

	status = callTool(t, session, "auth_status", map[string]any{"accessToken": access})
	assert.Equal(t, true, structured(t, status)["authenticated"])

	refreshed := structured(t, callTool(t, session, "auth_refresh", map[string]any{"refreshToken": refreshToken}))
	assert.NotEqual(t, access, refreshed["accessToken"])
	assert.Equal(t, refreshToken, refreshed["refreshToken"])

	logout := structured(t, callTool(t, session, "auth_logout", map[string]any{"accessToken": access}))
	assert.Equal(t, false, logout["authenticated"])
}

func TestAuthRefreshRejectsUnknownToken(t *testing.T) {
	fx := newFixture(t)
	session := connectClient(t, context.Background(), fx.catalog.NewServer())

	res := callTool(t, session, "auth_refresh", map[string]any{"refreshToken": "bogus"})
	assert.True(t, res.IsError)
	assert.Contains(t, strings.Join(texts(res), " "), "auth_login")
}

func TestPreviewToolEchoesPayload(t *testing.T) {
	fx := newFixture(t)
	session := connectClient(t, context.Background(), fx.catalog.NewServer())

	out := structured(t, callTool(t, session, "widget_preview_carousel", map[string]any{
		"items": []any{"x"},
		"title": "Demo",
	}))
	assert.Equal(t, "carousel", out["widget"])
	assert.Equal(t, map[string]any{"items": []any{"x"}, "title": "Demo"}, out["payload"])
}
