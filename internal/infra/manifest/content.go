package manifest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"widgetd/internal/domain"
)

const contentHint = "build the widgets (npm run build:widgets) or point WIDGETS_DIR / WIDGET_HTML_PATH at the build output"

// ContentLoader reads widget markup. Nothing is cached: every read hits
// disk so rebuilt bundles are served without a restart.
type ContentLoader struct {
	bundleDir string
	htmlPath  string
	logger    *zap.Logger
}

func NewContentLoader(bundleDir, htmlPath string, logger *zap.Logger) *ContentLoader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContentLoader{
		bundleDir: bundleDir,
		htmlPath:  htmlPath,
		logger:    logger.Named("widget_content"),
	}
}

// Path returns the file backing entry. Fallback entries resolve to the
// standalone widget HTML file.
func (l *ContentLoader) Path(entry Entry) (string, error) {
	if entry.IsFallback() {
		if strings.TrimSpace(l.htmlPath) == "" {
			return "", domain.E(domain.CodeFailedPrecond, "widget.path", "standalone widget html path is not configured", domain.ErrWidgetContentMissing).
				WithHint(contentHint)
		}
		return l.htmlPath, nil
	}
	rel := filepath.Clean(filepath.FromSlash(entry.URI))
	if filepath.IsAbs(rel) || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", domain.E(domain.CodeInvalidArgument, "widget.path", fmt.Sprintf("widget %q uri escapes the bundle dir: %s", entry.Name, entry.URI), domain.ErrInvalidArgument)
	}
	return filepath.Join(l.bundleDir, rel), nil
}

// Read loads the markup for entry.
func (l *ContentLoader) Read(ctx context.Context, entry Entry) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := l.Path(entry)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			msg := fmt.Sprintf("widget %q content not found at %s", entry.Name, path)
			return nil, domain.E(domain.CodeFailedPrecond, "widget.read", msg, domain.ErrWidgetContentMissing).
				WithHint(contentHint)
		}
		return nil, fmt.Errorf("read widget %q: %w", entry.Name, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.logger.Debug("widget content read", zap.String("widget", entry.Name), zap.Int("bytes", len(data)))
	return data, nil
}
