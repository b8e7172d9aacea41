package gateway

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"widgetd/internal/domain"
)

const (
	demoTokenPrefix   = "demo-"
	demoTokenLifetime = time.Hour
	defaultProvider   = "demo"
)

var demoUser = AuthUser{
	ID:    "user-demo",
	Name:  "Demo User",
	Email: "demo@example.com",
}

func (h *toolHandlers) authStatus(_ context.Context, _ *mcp.CallToolRequest, in AuthStatusInput) (*mcp.CallToolResult, AuthState, error) {
	authenticated := strings.HasPrefix(in.AccessToken, demoTokenPrefix)
	out := AuthState{Authenticated: authenticated}
	summary := "Not signed in"
	if authenticated {
		user := demoUser
		user.Provider = defaultProvider
		out.User = &user
		summary = fmt.Sprintf("Signed in as %s", user.Email)
	}
	res, err := h.result(summary, out, resultMeta{Authenticated: &authenticated})
	return res, out, err
}

func (h *toolHandlers) authLogin(_ context.Context, _ *mcp.CallToolRequest, in AuthLoginInput) (*mcp.CallToolResult, AuthState, error) {
	provider := in.Provider
	if provider == "" {
		provider = defaultProvider
	}
	user := demoUser
	user.Provider = provider
	if in.Email != "" {
		user.Email = in.Email
	}
	expires := h.now().Add(demoTokenLifetime)
	out := AuthState{
		Authenticated: true,
		User:          &user,
		AccessToken:   demoTokenPrefix + uuid.NewString(),
		RefreshToken:  demoTokenPrefix + uuid.NewString(),
		ExpiresAt:     expires.UTC().Format(time.RFC3339),
	}
	authenticated := true
	res, err := h.result(fmt.Sprintf("Signed in as %s via %s", user.Email, provider), out, resultMeta{
		Authenticated: &authenticated,
		ExpiresAt:     expires,
	})
	return res, out, err
}

func (h *toolHandlers) authLogout(_ context.Context, _ *mcp.CallToolRequest, _ AuthLogoutInput) (*mcp.CallToolResult, AuthState, error) {
	out := AuthState{Authenticated: false}
	authenticated := false
	res, err := h.result("Signed out", out, resultMeta{Authenticated: &authenticated})
	return res, out, err
}

func (h *toolHandlers) authRefresh(_ context.Context, _ *mcp.CallToolRequest, in AuthRefreshInput) (*mcp.CallToolResult, AuthState, error) {
	if !strings.HasPrefix(in.RefreshToken, demoTokenPrefix) {
		return nil, AuthState{}, domain.E(domain.CodeInvalidArgument, ToolAuthRefresh.String(), "refresh token is not recognised", domain.ErrInvalidArgument).
			WithHint("call auth_login to start a new session")
	}
	user := demoUser
	user.Provider = defaultProvider
	expires := h.now().Add(demoTokenLifetime)
	out := AuthState{
		Authenticated: true,
		User:          &user,
		AccessToken:   demoTokenPrefix + uuid.NewString(),
		RefreshToken:  in.RefreshToken,
		ExpiresAt:     expires.UTC().Format(time.RFC3339),
	}
	authenticated := true
	res, err := h.result("Session refreshed", out, resultMeta{
		Authenticated: &authenticated,
		ExpiresAt:     expires,
	})
	return res, out, err
}
