package gateway

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"widgetd/internal/domain"
)

// toolHandlers hold no per-call state; every call is answered from its
// arguments alone.
type toolHandlers struct {
	now    func() time.Time
	newID  func() string
	logger *zap.Logger
}

func newToolHandlers(now func() time.Time, newID func() string, logger *zap.Logger) *toolHandlers {
	if now == nil {
		now = time.Now
	}
	if newID == nil {
		newID = randomBase36
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &toolHandlers{now: now, newID: newID, logger: logger}
}

// resultMeta is the caller-visible part of a tool result.
type resultMeta struct {
	SessionID     string
	Authenticated *bool
	ExpiresAt     time.Time
}

func (m resultMeta) toMCP(now time.Time) mcp.Meta {
	out := mcp.Meta{domain.ResultMetaTimestamp: now.UTC().Format(time.RFC3339)}
	if m.SessionID != "" {
		out[domain.ResultMetaSessionID] = m.SessionID
	}
	if m.Authenticated != nil {
		out[domain.ResultMetaAuthenticated] = *m.Authenticated
	}
	if !m.ExpiresAt.IsZero() {
		out[domain.ResultMetaExpiresAt] = m.ExpiresAt.UTC().Format(time.RFC3339)
	}
	return out
}

// result renders a summary line followed by the JSON payload, so text-only
// clients still see the data.
func (h *toolHandlers) result(summary string, payload any, meta resultMeta) (*mcp.CallToolResult, error) {
	raw, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode tool payload: %w", err)
	}
	return &mcp.CallToolResult{
		Meta: meta.toMCP(h.now()),
		Content: []mcp.Content{
			&mcp.TextContent{Text: summary},
			&mcp.TextContent{Text: string(raw)},
		},
		StructuredContent: payload,
	}, nil
}

func randomBase36() string {
	id := uuid.New()
	return strconv.FormatUint(binary.BigEndian.Uint64(id[:8]), 36)
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
