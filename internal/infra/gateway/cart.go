package gateway

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"widgetd/internal/domain"
)

const (
	cartSessionPrefix = "cart-"
	orderIDPrefix     = "PZ-"

	defaultShopView       = "cart"
	defaultDeliveryOption = "standard"
	defaultTipPercent     = 10
)

func (h *toolHandlers) addToCart(_ context.Context, _ *mcp.CallToolRequest, in AddToCartInput) (*mcp.CallToolResult, CartOutput, error) {
	if len(in.Items) == 0 {
		return nil, CartOutput{}, domain.E(domain.CodeInvalidArgument, ToolAddToCart.String(), "at least one item is required", domain.ErrInvalidArgument)
	}
	sessionID := in.SessionID
	if sessionID == "" {
		sessionID = cartSessionPrefix + h.newID()
		h.logger.Debug("cart session created", zap.String("session", sessionID))
	}
	out := cartOutput("add", in.Items, sessionID)
	summary := fmt.Sprintf("Added %s to cart %s", plural(len(in.Items), "item"), sessionID)
	res, err := h.result(summary, out, resultMeta{SessionID: sessionID})
	return res, out, err
}

func (h *toolHandlers) removeFromCart(_ context.Context, _ *mcp.CallToolRequest, in RemoveFromCartInput) (*mcp.CallToolResult, RemoveFromCartOutput, error) {
	out := RemoveFromCartOutput{
		Action:    "remove",
		ItemIDs:   nonNil(in.ItemIDs),
		SessionID: in.SessionID,
	}
	summary := fmt.Sprintf("Removed %s from cart", plural(len(out.ItemIDs), "item"))
	res, err := h.result(summary, out, resultMeta{SessionID: in.SessionID})
	return res, out, err
}

func (h *toolHandlers) showCart(_ context.Context, _ *mcp.CallToolRequest, in ShowCartInput) (*mcp.CallToolResult, CartOutput, error) {
	sessionID := in.SessionID
	if sessionID == "" {
		sessionID = cartSessionPrefix + h.newID()
	}
	out := cartOutput("show", in.Items, sessionID)
	summary := fmt.Sprintf("Cart %s has %s", sessionID, plural(out.ItemCount, "item"))
	res, err := h.result(summary, out, resultMeta{SessionID: sessionID})
	return res, out, err
}

func (h *toolHandlers) viewShop(_ context.Context, _ *mcp.CallToolRequest, in ViewShopInput) (*mcp.CallToolResult, ViewShopOutput, error) {
	view := in.View
	if view == "" {
		view = defaultShopView
	}
	out := ViewShopOutput{
		View:      view,
		Items:     nonNil(in.Items),
		SessionID: in.SessionID,
		Subtotal:  subtotal(in.Items),
	}
	res, err := h.result(fmt.Sprintf("Showing shop %s view", view), out, resultMeta{SessionID: in.SessionID})
	return res, out, err
}

func (h *toolHandlers) placeOrder(_ context.Context, _ *mcp.CallToolRequest, in PlaceOrderInput) (*mcp.CallToolResult, PlaceOrderOutput, error) {
	delivery := in.DeliveryOption
	if delivery == "" {
		delivery = defaultDeliveryOption
	}
	tip := defaultTipPercent
	if in.TipPercent != nil {
		tip = *in.TipPercent
	}
	out := PlaceOrderOutput{
		View:           "confirmation",
		OrderID:        orderIDPrefix + strings.ToUpper(h.newID()),
		DeliveryOption: delivery,
		TipPercent:     tip,
		Items:          in.Items,
		Subtotal:       subtotal(in.Items),
		SessionID:      in.SessionID,
	}
	h.logger.Info("order placed",
		zap.String("order", out.OrderID),
		zap.String("delivery", delivery),
		zap.Int("items", len(in.Items)),
	)
	res, err := h.result(fmt.Sprintf("Order %s placed", out.OrderID), out, resultMeta{SessionID: in.SessionID})
	return res, out, err
}

func cartOutput(action string, items []CartItem, sessionID string) CartOutput {
	count := 0
	for _, item := range items {
		count += item.Quantity
	}
	return CartOutput{
		Action:    action,
		Items:     nonNil(items),
		SessionID: sessionID,
		ItemCount: count,
		Subtotal:  subtotal(items),
	}
}

// subtotal is rounded to cents.
func subtotal(items []CartItem) float64 {
	total := 0.0
	for _, item := range items {
		total += item.Price * float64(item.Quantity)
	}
	return math.Round(total*100) / 100
}
