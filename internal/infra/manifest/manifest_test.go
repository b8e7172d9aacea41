package manifest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"widgetd/internal/domain"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoad_ParsesEntries(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "manifest.json")
	writeFile(t, path, `{
  "cart": {"name": "cart", "uri": "cart-1a2b.html", "hash": "1a2b"},
  "chart": {"uri": "chart-3c4d.html", "hash": "3c4d"}
}`)

	m, err := Load(path, zap.NewNop())
	require.NoError(t, err)
	require.False(t, m.IsFallback())
	require.Equal(t, path, m.Source())
	require.Equal(t, []string{"cart", "chart"}, m.Names())

	entry, ok := m.Lookup("chart")
	require.True(t, ok)
	require.Equal(t, "chart", entry.Name)
	require.Equal(t, "ui://widget/chart-3c4d.html", entry.TemplateURI())
	require.False(t, entry.IsFallback())
}

func TestLoad_MissingFileUsesFallback(t *testing.T) {
	m, err := Load(filepath.Join(t.TempDir(), "missing.json"), nil)
	require.NoError(t, err)
	require.True(t, m.IsFallback())
	require.Equal(t, len(KnownWidgets), m.Len())

	entry, ok := m.Lookup("cart")
	require.True(t, ok)
	require.Equal(t, "cart.fallback", entry.URI)
	require.True(t, entry.IsFallback())
}

func TestLoad_RejectsInvalidManifest(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.json")
	writeFile(t, bad, `{"cart": `)
	_, err := Load(bad, nil)
	require.Error(t, err)

	mismatch := filepath.Join(dir, "mismatch.json")
	writeFile(t, mismatch, `{"cart": {"name": "shop", "uri": "x.html"}, "chart": {"name": "chart"}}`)
	_, err = Load(mismatch, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), `entry "cart" declares name "shop"`)
	require.Contains(t, err.Error(), `entry "chart" has no uri`)

	_, err = Load(" ", nil)
	require.Error(t, err)
}

func TestResolve_StrictFailsFast(t *testing.T) {
	m := New(Entry{Name: "cart", URI: "cart-1.html", Hash: "1"})

	_, err := m.Resolve("nope", domain.ManifestPolicyStrict, zap.NewNop())
	require.Error(t, err)
	require.True(t, errors.Is(err, domain.ErrUnknownWidget))
	require.Contains(t, err.Error(), `"nope"`)
	require.Contains(t, err.Error(), "cart")

	code, ok := domain.CodeFrom(err)
	require.True(t, ok)
	require.Equal(t, domain.CodeNotFound, code)
}

func TestResolve_DegradeSubstitutesFallback(t *testing.T) {
	m := New(Entry{Name: "cart", URI: "cart-1.html", Hash: "1"})

	entry, err := m.Resolve("nope", domain.ManifestPolicyDegrade, zap.NewNop())
	require.NoError(t, err)
	require.Equal(t, FallbackEntry("nope"), entry)
	require.Equal(t, "nope.fallback", entry.URI)

	entry, err = m.Resolve("cart", domain.ManifestPolicyStrict, nil)
	require.NoError(t, err)
	require.Equal(t, "cart-1.html", entry.URI)
}

func TestContentLoader_ReadsBundleOnEveryCall(t *testing.T) {
	dir := t.TempDir()
	bundle := filepath.Join(dir, "cart-1.html")
	writeFile(t, bundle, "<div>v1</div>")

	loader := NewContentLoader(dir, filepath.Join(dir, "index.html"), nil)
	entry := Entry{Name: "cart", URI: "cart-1.html", Hash: "1"}

	data, err := loader.Read(context.Background(), entry)
	require.NoError(t, err)
	require.Equal(t, "<div>v1</div>", string(data))

	writeFile(t, bundle, "<div>v2</div>")
	data, err = loader.Read(context.Background(), entry)
	require.NoError(t, err)
	require.Equal(t, "<div>v2</div>", string(data))
}

func TestContentLoader_FallbackReadsStandaloneHTML(t *testing.T) {
	dir := t.TempDir()
	html := filepath.Join(dir, "standalone.html")
	writeFile(t, html, "<html>shell</html>")

	loader := NewContentLoader(filepath.Join(dir, "bundles"), html, nil)
	data, err := loader.Read(context.Background(), FallbackEntry("cart"))
	require.NoError(t, err)
	require.Equal(t, "<html>shell</html>", string(data))
}

func TestContentLoader_MissingContentCarriesHint(t *testing.T) {
	loader := NewContentLoader(t.TempDir(), "", nil)

	_, err := loader.Read(context.Background(), Entry{Name: "cart", URI: "cart-1.html", Hash: "1"})
	require.Error(t, err)
	require.True(t, errors.Is(err, domain.ErrWidgetContentMissing))
	require.Contains(t, err.Error(), "WIDGETS_DIR")

	_, err = loader.Read(context.Background(), FallbackEntry("cart"))
	require.Error(t, err)
	require.True(t, errors.Is(err, domain.ErrWidgetContentMissing))
}

func TestContentLoader_RejectsTraversal(t *testing.T) {
	loader := NewContentLoader(t.TempDir(), "", nil)
	_, err := loader.Read(context.Background(), Entry{Name: "evil", URI: "../../etc/passwd", Hash: "x"})
	require.Error(t, err)
	require.True(t, errors.Is(err, domain.ErrInvalidArgument))
}

func TestContentLoader_HonoursCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	loader := NewContentLoader(t.TempDir(), "", nil)
	_, err := loader.Read(ctx, Entry{Name: "cart", URI: "cart-1.html", Hash: "1"})
	require.ErrorIs(t, err, context.Canceled)
}

func TestWatchPaths(t *testing.T) {
	paths := watchPaths("dist/widgets/manifest.json", "dist/widgets/")
	require.Equal(t, []string{"dist/widgets"}, paths)

	require.True(t, isWithin("dist/widgets/cart.html", "dist/widgets"))
	require.False(t, isWithin("dist/other/cart.html", "dist/widgets"))
	require.True(t, isSamePath("dist/widgets/./manifest.json", "dist/widgets/manifest.json"))
}

func TestWatch_StopsWithContext(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, filepath.Join(dir, "manifest.json"), dir, zap.NewNop())
	}()
	cancel()
	require.NoError(t, <-done)
}
