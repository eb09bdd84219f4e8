package canon

import (
	"strings"

	"github.com/coredatalabs/tens/internal/ir"
	"github.com/coredatalabs/tens/internal/record"
)

// resolveNestedSchemas rewrites every name-addressed Object value found
// anywhere in rows (possibly nested inside arrays, possibly inside other
// objects) to the ID-addressed form, registering a new schema entry for any
// distinct field set not already known. Schema dedup is by exact sorted
// field-set equality; a nested object's field set may legitimately collide
// with an existing top-level (possibly unified) schema sharing the same
// exact fields, in which case it reuses that schema's ID — since dedup keys
// on the literal sorted field list, two Obj values with the same key always
// have identically-ordered Fields, so the reused schema's field order
// already matches without realignment.
func resolveNestedSchemas(schemas []ir.Schema, rows []ir.Row) []ir.Schema {
	registry := make(map[string]int, len(schemas))
	for _, s := range schemas {
		registry[strings.Join(s.Fields, "\x00")] = s.ID
	}
	for ri := range rows {
		for vi := range rows[ri].Values {
			rows[ri].Values[vi] = resolveValue(&schemas, registry, rows[ri].Values[vi])
		}
	}
	return schemas
}

func resolveValue(schemas *[]ir.Schema, registry map[string]int, v record.Value) record.Value {
	switch v.Kind {
	case record.Array:
		out := make([]record.Value, len(v.A))
		for i, el := range v.A {
			out[i] = resolveValue(schemas, registry, el)
		}
		return record.ArrayValue(out)
	case record.Object:
		if v.O == nil {
			// Already resolved (shouldn't normally happen before the
			// single top-level pass, but keep idempotent).
			return v
		}
		key := strings.Join(v.O.Fields, "\x00")
		id, ok := registry[key]
		if !ok {
			tags := make([]record.Tag, len(v.O.Fields))
			for fi, fv := range v.O.Values {
				var ct record.ColumnTag
				ct.Add(fv)
				tags[fi] = ct.Resolve()
			}
			id = len(*schemas)
			*schemas = append(*schemas, ir.Schema{ID: id, Fields: v.O.Fields, Types: tags})
			registry[key] = id
		}
		nested := make([]record.Value, len(v.O.Values))
		for i, fv := range v.O.Values {
			nested[i] = resolveValue(schemas, registry, fv)
		}
		return record.Value{Kind: record.Object, SchemaID: id, A: nested}
	default:
		return v
	}
}
