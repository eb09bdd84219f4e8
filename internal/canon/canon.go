// Package canon implements the Canonicalizer (spec §4.2): normalizing raw,
// dynamically-typed records into a stable logical form — sorted field
// paths, flattened nesting, unified sparse schemas, and canonical numbers.
package canon

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/coredatalabs/tens/internal/ir"
	"github.com/coredatalabs/tens/internal/record"
)

// Kind classifies a CanonicalizationError (spec §7).
type Kind string

const (
	// KindFieldCollision fires when flattening a nested object produces a
	// dotted path that already exists as a sibling field.
	KindFieldCollision Kind = "FIELD_COLLISION"
	// KindDottedFieldName fires when an input field name itself contains a
	// literal '.'. Spec §9 leaves this case unresolved in the source;
	// Open Question decision #2 (DESIGN.md) treats it as an encode-time
	// error rather than guessing a quoting rule.
	KindDottedFieldName Kind = "DOTTED_FIELD_NAME"
)

// Sentinel errors for the common errors.Is case, one per Kind.
var (
	ErrFieldCollision  = errors.New("canon: field collision")
	ErrDottedFieldName = errors.New("canon: dotted field name")
)

// Error is the CanonicalizationError of spec §7.
type Error struct {
	Path string
	Kind Kind
}

func (e *Error) Error() string {
	return fmt.Sprintf("canon: %s at %q", e.Kind, e.Path)
}

// Unwrap lets errors.Is(err, canon.ErrDottedFieldName) (etc.) match
// regardless of the specific path this Error carries.
func (e *Error) Unwrap() error {
	switch e.Kind {
	case KindFieldCollision:
		return ErrFieldCollision
	case KindDottedFieldName:
		return ErrDottedFieldName
	default:
		return nil
	}
}

// Options controls schema inference (spec §4.2).
type Options struct {
	// Strict disables superset/subset schema-lattice collapsing: records
	// are grouped into schema families by exact sorted field-set equality
	// only. When false (the default), families whose field sets are in a
	// subset/superset relation are unified into one schema, absent fields
	// becoming null — this is the "benchmark-declared unified mode" of
	// spec §4.2, and matches spec §8 Scenario B.
	Strict bool
}

// Result is the output of Canonicalize: the schema table and the rows,
// aligned with ir.Schema / ir.Row.
type Result struct {
	Schemas []ir.Schema
	Rows    []ir.Row
}

// Canonicalize normalizes a batch of records into schemas and rows (spec
// §4.2). Input should already have passed validate.Records.
func Canonicalize(records []map[string]any, opts Options) (*Result, error) {
	flats := make([]map[string]record.Value, len(records))
	fieldSets := make([][]string, len(records))

	for i, r := range records {
		flat := make(map[string]record.Value)
		if err := flattenInto(flat, "", r); err != nil {
			return nil, err
		}
		flats[i] = flat
		fields := make([]string, 0, len(flat))
		for f := range flat {
			fields = append(fields, f)
		}
		sort.Strings(fields)
		fieldSets[i] = fields
	}

	groups := groupRecords(fieldSets, opts.Strict)

	schemas := make([]ir.Schema, len(groups))
	rows := make([]ir.Row, len(records))

	for gi, g := range groups {
		tags := make([]record.ColumnTag, len(g.fields))
		for _, ri := range g.members {
			flat := flats[ri]
			for fi, f := range g.fields {
				if v, ok := flat[f]; ok {
					tags[fi].Add(v)
				}
			}
		}
		types := make([]record.Tag, len(g.fields))
		for fi := range tags {
			types[fi] = tags[fi].Resolve()
		}
		schemas[gi] = ir.Schema{ID: gi, Fields: g.fields, Types: types}

		for _, ri := range g.members {
			flat := flats[ri]
			values := make([]record.Value, len(g.fields))
			for fi, f := range g.fields {
				if v, ok := flat[f]; ok {
					values[fi] = v
				} else {
					values[fi] = record.NullValue()
				}
			}
			rows[ri] = ir.Row{SchemaID: gi, Values: values}
		}
	}

	schemas = resolveNestedSchemas(schemas, rows)

	return &Result{Schemas: schemas, Rows: rows}, nil
}

type group struct {
	fields  []string
	members []int
}

// groupRecords buckets record indices by exact field-set equality, in
// first-appearance order (so that semantically-equal inputs that merely
// differ in key order produce identical schema ordering, spec §8 Scenario
// A). When !strict, buckets whose field sets are in a subset/superset
// relation (transitively) are merged into one, the merged schema's field
// list being the sorted union.
func groupRecords(fieldSets [][]string, strict bool) []*group {
	order := []string{}
	byKey := make(map[string]*group)
	for i, fields := range fieldSets {
		key := strings.Join(fields, "\x00")
		g, ok := byKey[key]
		if !ok {
			g = &group{fields: fields}
			byKey[key] = g
			order = append(order, key)
		}
		g.members = append(g.members, i)
	}

	distinct := make([]*group, len(order))
	for i, key := range order {
		distinct[i] = byKey[key]
	}

	if strict || len(distinct) <= 1 {
		return distinct
	}

	// Union-find over distinct families related by subset/superset.
	parent := make([]int, len(distinct))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(x int) int {
		for parent[x] != x {
			parent[x] = parent[parent[x]]
			x = parent[x]
		}
		return x
	}
	union := func(a, b int) {
		ra, rb := find(a), find(b)
		if ra != rb {
			parent[ra] = rb
		}
	}
	for i := 0; i < len(distinct); i++ {
		for j := i + 1; j < len(distinct); j++ {
			if isSubset(distinct[i].fields, distinct[j].fields) || isSubset(distinct[j].fields, distinct[i].fields) {
				union(i, j)
			}
		}
	}

	merged := make(map[int]*group)
	mergedOrder := []int{}
	for i, g := range distinct {
		root := find(i)
		mg, ok := merged[root]
		if !ok {
			mg = &group{}
			merged[root] = mg
			mergedOrder = append(mergedOrder, root)
		}
		mg.members = append(mg.members, g.members...)
		mg.fields = unionFields(mg.fields, g.fields)
	}

	out := make([]*group, len(mergedOrder))
	for i, root := range mergedOrder {
		mg := merged[root]
		sort.Strings(mg.fields)
		sort.Ints(mg.members)
		out[i] = mg
	}
	return out
}

func isSubset(small, big []string) bool {
	if len(small) > len(big) {
		return false
	}
	set := make(map[string]bool, len(big))
	for _, f := range big {
		set[f] = true
	}
	for _, f := range small {
		if !set[f] {
			return false
		}
	}
	return true
}

func unionFields(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, f := range a {
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	for _, f := range b {
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	return out
}
