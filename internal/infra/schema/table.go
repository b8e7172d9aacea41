package schema

import "sort"

// Entry holds the compiled schemas of one tool. Output is nil when the tool
// declares no structured output.
type Entry struct {
	Input  Document
	Output Document
}

// Table maps tool names to compiled schemas. It is immutable once built.
type Table struct {
	entries map[string]Entry
}

// NewTable copies entries into a read-only table.
func NewTable(entries map[string]Entry) *Table {
	copied := make(map[string]Entry, len(entries))
	for name, entry := range entries {
		copied[name] = entry
	}
	return &Table{entries: copied}
}

func (t *Table) Lookup(name string) (Entry, bool) {
	if t == nil {
		return Entry{}, false
	}
	entry, ok := t.entries[name]
	return entry, ok
}

func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

func (t *Table) Names() []string {
	if t == nil {
		return nil
	}
	names := make([]string, 0, len(t.entries))
	for name := range t.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
