// Package stringtable implements the String Table component (spec §4.3):
// interning of distinct strings with dense, stable, insertion-ordered IDs.
package stringtable

// Table interns strings into dense ascending IDs, in insertion order.
// Insertion order is part of the canonical form (spec §4.3): callers must
// add field names (schemas in schema-ID order, fields in sorted order)
// before adding row value strings (rows in input order, fields in schema
// order) for the encoder's dictionary to come out byte-identical across
// semantically equal inputs.
type Table struct {
	ids  map[string]int
	strs []string
}

// New returns an empty string table.
func New() *Table {
	return &Table{ids: make(map[string]int)}
}

// Add returns s's existing ID if present, otherwise appends it and returns
// the new (dense, zero-based) ID.
func (t *Table) Add(s string) int {
	if id, ok := t.ids[s]; ok {
		return id
	}
	id := len(t.strs)
	t.ids[s] = id
	t.strs = append(t.strs, s)
	return id
}

// ID returns s's ID without inserting it.
func (t *Table) ID(s string) (int, bool) {
	id, ok := t.ids[s]
	return id, ok
}

// String returns the string at id.
func (t *Table) String(id int) (string, bool) {
	if id < 0 || id >= len(t.strs) {
		return "", false
	}
	return t.strs[id], true
}

// Len returns the number of distinct strings interned so far.
func (t *Table) Len() int {
	return len(t.strs)
}

// Strings returns the interned strings in insertion (== ID) order. The
// returned slice must not be mutated by the caller.
func (t *Table) Strings() []string {
	return t.strs
}

// FromStrings rebuilds a Table from an already-ordered string list, as read
// back from a decoded dictionary section.
func FromStrings(strs []string) *Table {
	t := &Table{
		ids:  make(map[string]int, len(strs)),
		strs: make([]string, len(strs)),
	}
	copy(t.strs, strs)
	for i, s := range t.strs {
		t.ids[s] = i
	}
	return t
}
