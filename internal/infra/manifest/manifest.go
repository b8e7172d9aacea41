// Package manifest loads the build-time widget manifest and reads widget
// markup from disk.
package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"

	"go.uber.org/zap"

	"widgetd/internal/domain"
)

// KnownWidgets are the widgets bundled with the server. They seed the
// fallback manifest when no build manifest exists.
var KnownWidgets = []string{
	"auth",
	"carousel",
	"cart",
	"chart",
	"list",
	"shop",
	"stats",
	"table",
}

// Entry maps a logical widget name to its content-addressed bundle.
type Entry struct {
	Name string `json:"name"`
	URI  string `json:"uri"`
	Hash string `json:"hash"`
}

// IsFallback reports whether the entry was synthesised instead of built.
func (e Entry) IsFallback() bool {
	return e.Hash == domain.FallbackHash && strings.HasSuffix(e.URI, domain.FallbackURISuffix)
}

// TemplateURI is the resource URI hosts use to fetch the widget.
func (e Entry) TemplateURI() string {
	return domain.WidgetTemplateURI(e.URI)
}

// FallbackEntry synthesises a deterministic entry for name.
func FallbackEntry(name string) Entry {
	return Entry{
		Name: name,
		URI:  name + domain.FallbackURISuffix,
		Hash: domain.FallbackHash,
	}
}

// Manifest is immutable after construction and safe for concurrent reads.
type Manifest struct {
	entries  map[string]Entry
	source   string
	fallback bool
}

// New builds a manifest from explicit entries.
func New(entries ...Entry) *Manifest {
	m := &Manifest{entries: make(map[string]Entry, len(entries))}
	for _, entry := range entries {
		m.entries[entry.Name] = entry
	}
	return m
}

// Fallback returns the hard-coded manifest used when no build output exists.
func Fallback() *Manifest {
	entries := make([]Entry, 0, len(KnownWidgets))
	for _, name := range KnownWidgets {
		entries = append(entries, FallbackEntry(name))
	}
	m := New(entries...)
	m.fallback = true
	return m
}

// Load reads a name -> entry JSON manifest. A missing file yields the
// fallback manifest so the server can still start.
func Load(path string, logger *zap.Logger) (*Manifest, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("manifest path is required")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Warn("widget manifest not found, using fallback entries",
				zap.String("path", path),
				zap.Int("widgets", len(KnownWidgets)),
			)
			m := Fallback()
			m.source = path
			return m, nil
		}
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var raw map[string]Entry
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode manifest %s: %w", path, err)
	}

	entries := make([]Entry, 0, len(raw))
	var errs []string
	for key, entry := range raw {
		if entry.Name == "" {
			entry.Name = key
		}
		if entry.Name != key {
			errs = append(errs, fmt.Sprintf("entry %q declares name %q", key, entry.Name))
			continue
		}
		if strings.TrimSpace(entry.URI) == "" {
			errs = append(errs, fmt.Sprintf("entry %q has no uri", key))
			continue
		}
		entries = append(entries, entry)
	}
	if len(errs) > 0 {
		sort.Strings(errs)
		return nil, fmt.Errorf("invalid manifest %s: %s", path, strings.Join(errs, "; "))
	}

	m := New(entries...)
	m.source = path
	logger.Info("widget manifest loaded", zap.String("path", path), zap.Int("widgets", len(entries)))
	return m, nil
}

func (m *Manifest) Lookup(name string) (Entry, bool) {
	entry, ok := m.entries[name]
	return entry, ok
}

// Resolve looks up name and applies policy when it is missing.
func (m *Manifest) Resolve(name string, policy domain.ManifestPolicy, logger *zap.Logger) (Entry, error) {
	if entry, ok := m.entries[name]; ok {
		return entry, nil
	}
	if policy == domain.ManifestPolicyDegrade {
		if logger != nil {
			logger.Warn("widget missing from manifest, serving fallback",
				zap.String("widget", name),
				zap.String("manifest", m.source),
			)
		}
		return FallbackEntry(name), nil
	}
	msg := fmt.Sprintf("widget %q is not in the manifest (known: %s)", name, strings.Join(m.Names(), ", "))
	return Entry{}, domain.E(domain.CodeNotFound, "manifest.resolve", msg, domain.ErrUnknownWidget).
		WithHint("rebuild the widgets so the manifest lists it, or fix the widget name")
}

// Entries returns every entry sorted by name.
func (m *Manifest) Entries() []Entry {
	out := make([]Entry, 0, len(m.entries))
	for _, entry := range m.entries {
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (m *Manifest) Names() []string {
	names := make([]string, 0, len(m.entries))
	for name := range m.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (m *Manifest) Len() int {
	return len(m.entries)
}

// IsFallback reports whether the manifest came from the hard-coded table.
func (m *Manifest) IsFallback() bool {
	return m.fallback
}

func (m *Manifest) Source() string {
	return m.source
}
