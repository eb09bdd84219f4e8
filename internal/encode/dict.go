package encode

import (
	"github.com/coredatalabs/tens/internal/ir"
	"github.com/coredatalabs/tens/internal/record"
	"github.com/coredatalabs/tens/internal/stringtable"
)

// buildDictionary interns field names (schemas in schema-ID order, fields
// in each schema's already-sorted order) before any value strings (rows in
// input order, fields in schema order, recursing depth-first into arrays
// and nested objects) — this insertion order is part of the canonical form
// (spec §4.3).
func buildDictionary(schemas []ir.Schema, rows []ir.Row) (*stringtable.Table, error) {
	dict := stringtable.New()

	for _, s := range schemas {
		for _, f := range s.Fields {
			dict.Add(f)
		}
		dict.Add(s.Comment)
	}

	for _, row := range rows {
		for _, v := range row.Values {
			internValueStrings(dict, v)
		}
	}
	return dict, nil
}

func internValueStrings(dict *stringtable.Table, v record.Value) {
	switch v.Kind {
	case record.String:
		dict.Add(v.S)
	case record.Array:
		for _, el := range v.A {
			internValueStrings(dict, el)
		}
	case record.Object:
		for _, fv := range v.A {
			internValueStrings(dict, fv)
		}
	}
}
