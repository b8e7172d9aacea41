package gateway

import (
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"

	"widgetd/internal/domain"
	"widgetd/internal/infra/widgets"
)

// ToolID identifies a built-in tool.
type ToolID int

const (
	ToolDisplayTable ToolID = iota
	ToolDisplayChart
	ToolDisplayList
	ToolDisplayCarousel
	ToolDisplayStats
	ToolAddToCart
	ToolRemoveFromCart
	ToolShowCart
	ToolViewShop
	ToolPlaceOrder
	ToolAuthStatus
	ToolAuthLogin
	ToolAuthLogout
	ToolAuthRefresh
)

var toolNames = [...]string{
	ToolDisplayTable:    "display_table",
	ToolDisplayChart:    "display_chart",
	ToolDisplayList:     "display_list",
	ToolDisplayCarousel: "display_carousel",
	ToolDisplayStats:    "display_stats",
	ToolAddToCart:       "add_to_cart",
	ToolRemoveFromCart:  "remove_from_cart",
	ToolShowCart:        "show_cart",
	ToolViewShop:        "view_shop",
	ToolPlaceOrder:      "place_order",
	ToolAuthStatus:      "auth_status",
	ToolAuthLogin:       "auth_login",
	ToolAuthLogout:      "auth_logout",
	ToolAuthRefresh:     "auth_refresh",
}

func (id ToolID) String() string {
	if id < 0 || int(id) >= len(toolNames) {
		return fmt.Sprintf("tool(%d)", int(id))
	}
	return toolNames[id]
}

// ToolIDs lists every built-in tool in registration order.
func ToolIDs() []ToolID {
	ids := make([]ToolID, len(toolNames))
	for i := range toolNames {
		ids[i] = ToolID(i)
	}
	return ids
}

type toolDef struct {
	id      ToolID
	widget  string
	meta    widgets.Meta
	handler widgets.Handler
}

var (
	readOnlyAnnotations = domain.ToolAnnotations{ReadOnly: true, Idempotent: true}
	mutatingAnnotations = domain.ToolAnnotations{}
)

// catalogue is the dispatch table of built-in tools.
func (h *toolHandlers) catalogue() []toolDef {
	return []toolDef{
		{
			id:     ToolDisplayTable,
			widget: "table",
			meta: widgets.Meta{
				Title:       "Display table",
				Description: "Render tabular data with labelled columns.",
				Annotations: readOnlyAnnotations,
			},
			handler: widgets.HandlerFor(h.displayTable),
		},
		{
			id:     ToolDisplayChart,
			widget: "chart",
			meta: widgets.Meta{
				Title:       "Display chart",
				Description: "Render a bar, line, area or pie chart from labelled values.",
				Annotations: readOnlyAnnotations,
				RefineInput: func(s *jsonschema.Schema) {
					refine(s, withEnum("bar", "line", "area", "pie"), "type")
				},
			},
			handler: widgets.HandlerFor(h.displayChart),
		},
		{
			id:     ToolDisplayList,
			widget: "list",
			meta: widgets.Meta{
				Title:       "Display list",
				Description: "Render a vertical list of items.",
				Annotations: readOnlyAnnotations,
			},
			handler: widgets.HandlerFor(h.displayList),
		},
		{
			id:     ToolDisplayCarousel,
			widget: "carousel",
			meta: widgets.Meta{
				Title:       "Display carousel",
				Description: "Render a horizontally scrolling set of cards.",
				Annotations: readOnlyAnnotations,
			},
			handler: widgets.HandlerFor(h.displayCarousel),
		},
		{
			id:     ToolDisplayStats,
			widget: "stats",
			meta: widgets.Meta{
				Title:       "Display stats",
				Description: "Render key metrics with optional change indicators.",
				Annotations: readOnlyAnnotations,
				RefineInput: func(s *jsonschema.Schema) {
					refine(s, withEnum("up", "down", "neutral"), "stats", "trend")
				},
			},
			handler: widgets.HandlerFor(h.displayStats),
		},
		{
			id:     ToolAddToCart,
			widget: "cart",
			meta: widgets.Meta{
				Title:       "Add to cart",
				Description: "Add items to the shopping cart. A cart session is created when none is given.",
				Invoking:    "Adding to cart...",
				Invoked:     "Added to cart",
				Annotations: mutatingAnnotations,
				RefineInput: func(s *jsonschema.Schema) {
					refine(s, withMinItems(1), "items")
					refineCartItems(s)
				},
			},
			handler: widgets.HandlerFor(h.addToCart),
		},
		{
			id:     ToolRemoveFromCart,
			widget: "cart",
			meta: widgets.Meta{
				Title:       "Remove from cart",
				Description: "Remove items from the shopping cart by id.",
				Invoking:    "Removing from cart...",
				Invoked:     "Removed from cart",
				Annotations: domain.ToolAnnotations{Destructive: true, Idempotent: true},
				RefineInput: func(s *jsonschema.Schema) {
					refine(s, withMinItems(1), "itemIds")
				},
			},
			handler: widgets.HandlerFor(h.removeFromCart),
		},
		{
			id:     ToolShowCart,
			widget: "cart",
			meta: widgets.Meta{
				Title:       "Show cart",
				Description: "Show the shopping cart.",
				Annotations: readOnlyAnnotations,
				RefineInput: refineCartItems,
			},
			handler: widgets.HandlerFor(h.showCart),
		},
		{
			id:     ToolViewShop,
			widget: "shop",
			meta: widgets.Meta{
				Title:       "View shop",
				Description: "Open the shop at the cart or checkout step.",
				Annotations: readOnlyAnnotations,
				RefineInput: func(s *jsonschema.Schema) {
					refine(s, withEnum("cart", "checkout"), "view")
					refineCartItems(s)
				},
			},
			handler: widgets.HandlerFor(h.viewShop),
		},
		{
			id:     ToolPlaceOrder,
			widget: "shop",
			meta: widgets.Meta{
				Title:       "Place order",
				Description: "Place an order for the items in the cart.",
				Invoking:    "Placing order...",
				Invoked:     "Order placed",
				Annotations: domain.ToolAnnotations{OpenWorld: true},
				RefineInput: func(s *jsonschema.Schema) {
					refine(s, withEnum("standard", "express"), "deliveryOption")
					refine(s, withRange(0, 100), "tipPercent")
					refineCartItems(s)
				},
			},
			handler: widgets.HandlerFor(h.placeOrder),
		},
		{
			id:     ToolAuthStatus,
			widget: "auth",
			meta: widgets.Meta{
				Title:       "Auth status",
				Description: "Report whether the demo user is signed in.",
				Annotations: domain.ToolAnnotations{ReadOnly: true},
			},
			handler: widgets.HandlerFor(h.authStatus),
		},
		{
			id:     ToolAuthLogin,
			widget: "auth",
			meta: widgets.Meta{
				Title:       "Sign in",
				Description: "Sign the demo user in and issue tokens.",
				Invoking:    "Signing in...",
				Invoked:     "Signed in",
				Annotations: domain.ToolAnnotations{OpenWorld: true},
				RefineInput: func(s *jsonschema.Schema) {
					refine(s, withEnum("demo", "github", "google"), "provider")
				},
			},
			handler: widgets.HandlerFor(h.authLogin),
		},
		{
			id:     ToolAuthLogout,
			widget: "auth",
			meta: widgets.Meta{
				Title:       "Sign out",
				Description: "Sign the demo user out and revoke the session.",
				Invoking:    "Signing out...",
				Invoked:     "Signed out",
				Annotations: domain.ToolAnnotations{Destructive: true, Idempotent: true},
			},
			handler: widgets.HandlerFor(h.authLogout),
		},
		{
			id:     ToolAuthRefresh,
			widget: "auth",
			meta: widgets.Meta{
				Title:            "Refresh session",
				Description:      "Exchange a refresh token for a new access token.",
				Visibility:       domain.VisibilityPrivate,
				WidgetAccessible: widgets.Bool(true),
				Annotations:      mutatingAnnotations,
			},
			handler: widgets.HandlerFor(h.authRefresh),
		},
	}
}

func refineCartItems(s *jsonschema.Schema) {
	refine(s, withMinimum(0), "items", "price")
	refine(s, withMinimum(1), "items", "quantity")
}

// refine applies fn to the property schema found by following path through
// properties and array items.
func refine(s *jsonschema.Schema, fn func(*jsonschema.Schema), path ...string) {
	for _, name := range path {
		if s == nil {
			return
		}
		if s.Properties == nil && s.Items != nil {
			s = s.Items
		}
		s = s.Properties[name]
	}
	if s != nil {
		fn(s)
	}
}

func withEnum(values ...any) func(*jsonschema.Schema) {
	return func(s *jsonschema.Schema) { s.Enum = values }
}

func withMinimum(lo float64) func(*jsonschema.Schema) {
	return func(s *jsonschema.Schema) { s.Minimum = &lo }
}

func withRange(lo, hi float64) func(*jsonschema.Schema) {
	return func(s *jsonschema.Schema) {
		s.Minimum = &lo
		s.Maximum = &hi
	}
}

func withMinItems(n int) func(*jsonschema.Schema) {
	return func(s *jsonschema.Schema) { s.MinItems = &n }
}
