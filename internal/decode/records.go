package decode

import (
	"strings"

	"github.com/coredatalabs/tens/internal/ir"
	"github.com/coredatalabs/tens/internal/record"
)

// ToRecords reconstructs logical records ([]map[string]any, dotted field
// paths expanded back into nested maps) from a decoded ir.IR. This is the
// inverse of canon.Canonicalize's flattening step.
func ToRecords(doc *ir.IR) ([]map[string]any, error) {
	schemaByID := make(map[int]*ir.Schema, len(doc.Schemas))
	for i := range doc.Schemas {
		schemaByID[doc.Schemas[i].ID] = &doc.Schemas[i]
	}

	records := make([]map[string]any, 0, len(doc.Rows))
	for _, row := range doc.Rows {
		schema, ok := schemaByID[row.SchemaID]
		if !ok {
			return nil, &Error{Kind: KindSchemaRefOOB, Msg: "row references unknown schema"}
		}
		rec := make(map[string]any)
		for i, field := range schema.Fields {
			if row.Values[i].Kind == record.Null {
				continue
			}
			setDotted(rec, field, toAny(row.Values[i], schemaByID))
		}
		records = append(records, rec)
	}
	return records, nil
}

// setDotted assigns value at a dotted path within rec, creating intermediate
// maps as needed.
func setDotted(rec map[string]any, path string, value any) {
	parts := strings.Split(path, ".")
	cur := rec
	for _, p := range parts[:len(parts)-1] {
		next, ok := cur[p].(map[string]any)
		if !ok {
			next = make(map[string]any)
			cur[p] = next
		}
		cur = next
	}
	cur[parts[len(parts)-1]] = value
}

// toAny converts a decoded record.Value into a plain Go value suitable for
// JSON rendering (spec §4.8). Nested Object values are resolved back into
// name-addressed map[string]any using their SchemaID.
func toAny(v record.Value, schemaByID map[int]*ir.Schema) any {
	switch v.Kind {
	case record.Null:
		return nil
	case record.Bool:
		return v.B
	case record.Int:
		return v.I
	case record.Float:
		return v.F
	case record.String:
		return v.S
	case record.Array:
		arr := make([]any, len(v.A))
		for i, el := range v.A {
			arr[i] = toAny(el, schemaByID)
		}
		return arr
	case record.Object:
		schema, ok := schemaByID[v.SchemaID]
		if !ok {
			return nil
		}
		obj := make(map[string]any, len(schema.Fields))
		for i, field := range schema.Fields {
			if i >= len(v.A) || v.A[i].Kind == record.Null {
				continue
			}
			obj[field] = toAny(v.A[i], schemaByID)
		}
		return obj
	default:
		return nil
	}
}
