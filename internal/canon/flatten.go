package canon

import (
	"fmt"
	"sort"
	"strings"

	"github.com/coredatalabs/tens/internal/record"
)

// flattenInto flattens m into dst using dotted paths rooted at prefix.
// Nested objects are recursively merged into dst (not kept as a nested
// Value) — flattening only stops at array boundaries, per spec §4.2.
func flattenInto(dst map[string]record.Value, prefix string, m map[string]any) error {
	keys := sortedKeys(m)
	for _, k := range keys {
		if strings.Contains(k, ".") {
			path := k
			if prefix != "" {
				path = prefix + "." + k
			}
			return &Error{Path: path, Kind: KindDottedFieldName}
		}
		path := k
		if prefix != "" {
			path = prefix + "." + k
		}
		v := m[k]
		if obj, ok := v.(map[string]any); ok {
			if err := flattenInto(dst, path, obj); err != nil {
				return err
			}
			continue
		}
		val, err := valueOf(v)
		if err != nil {
			return err
		}
		if _, exists := dst[path]; exists {
			return &Error{Path: path, Kind: KindFieldCollision}
		}
		dst[path] = val
	}
	return nil
}

// canonicalizeObject canonicalizes a record found nested inside an array
// (so not eligible for flattening into the parent's dotted paths): sort its
// own fields, flatten within itself.
func canonicalizeObject(m map[string]any) (*record.Obj, error) {
	flat := make(map[string]record.Value)
	if err := flattenInto(flat, "", m); err != nil {
		return nil, err
	}
	fields := make([]string, 0, len(flat))
	for f := range flat {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	values := make([]record.Value, len(fields))
	for i, f := range fields {
		values[i] = flat[f]
	}
	return &record.Obj{Fields: fields, Values: values}, nil
}

func valueOf(v any) (record.Value, error) {
	switch x := v.(type) {
	case nil:
		return record.NullValue(), nil
	case bool:
		return record.BoolValue(x), nil
	case string:
		return record.StringValue(x), nil
	case int:
		return record.IntValue(int64(x)), nil
	case int32:
		return record.IntValue(int64(x)), nil
	case int64:
		return record.IntValue(x), nil
	case float32:
		return floatOrInt(float64(x))
	case float64:
		return floatOrInt(x)
	case []any:
		arr := make([]record.Value, len(x))
		for i, el := range x {
			if m, ok := el.(map[string]any); ok {
				obj, err := canonicalizeObject(m)
				if err != nil {
					return record.Value{}, err
				}
				arr[i] = record.ObjectValue(obj)
				continue
			}
			val, err := valueOf(el)
			if err != nil {
				return record.Value{}, err
			}
			arr[i] = val
		}
		return record.ArrayValue(arr), nil
	case map[string]any:
		obj, err := canonicalizeObject(x)
		if err != nil {
			return record.Value{}, err
		}
		return record.ObjectValue(obj), nil
	default:
		return record.Value{}, fmt.Errorf("canon: unsupported value type %T (should have been rejected by validate)", v)
	}
}

func floatOrInt(f float64) (record.Value, error) {
	if record.IsSafeInteger(f) {
		if f == 0 {
			return record.IntValue(0), nil // -0.0 collapses to 0
		}
		return record.IntValue(int64(f)), nil
	}
	return record.FloatValue(f), nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
