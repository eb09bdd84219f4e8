package decode

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/coredatalabs/tens/internal/ir"
	"github.com/coredatalabs/tens/internal/record"
)

// readValue is the exact inverse of encode.writeValue: kind has already been
// determined (either pinned by the schema's column tag, or read off a
// self-describing marker byte by the caller) and selects which payload
// layout to parse.
func readValue(c *cursor, kind record.Kind, dict []string, schemaByID map[int]*ir.Schema, path string) (record.Value, error) {
	switch kind {
	case record.Null:
		return record.NullValue(), nil
	case record.Bool:
		b, err := c.ReadByte()
		if err != nil {
			return record.Value{}, &Error{Offset: c.pos, Kind: KindTruncated, Msg: "truncated bool at " + path}
		}
		return record.BoolValue(b != 0), nil
	case record.Int:
		u, err := c.varint()
		if err != nil {
			return record.Value{}, err
		}
		return record.IntValue(ir.ZigZagDecode(u)), nil
	case record.Float:
		b, err := c.readN(8)
		if err != nil {
			return record.Value{}, err
		}
		bits := binary.LittleEndian.Uint64(b)
		return record.FloatValue(math.Float64frombits(bits)), nil
	case record.String:
		ref, err := c.varint()
		if err != nil {
			return record.Value{}, err
		}
		idx := int(ref) - ir.DictRefBase
		if idx < 0 || idx >= len(dict) {
			return record.Value{}, &Error{Offset: c.pos, Kind: KindDictRefOOB, Msg: fmt.Sprintf("string ref %d out of range at %s", idx, path)}
		}
		return record.StringValue(dict[idx]), nil
	case record.Array:
		return readArray(c, dict, schemaByID, path)
	case record.Object:
		return readObject(c, dict, schemaByID, path)
	default:
		return record.Value{}, &Error{Offset: c.pos, Kind: KindMalformed, Msg: fmt.Sprintf("unknown value kind %d at %s", kind, path)}
	}
}

func readArray(c *cursor, dict []string, schemaByID map[int]*ir.Schema, path string) (record.Value, error) {
	if err := c.expectByte(ir.CtrlArrayBegin, KindMalformed, "CTRL_ARRAY_BEGIN"); err != nil {
		return record.Value{}, err
	}
	lenRef, err := c.varint()
	if err != nil {
		return record.Value{}, err
	}
	n := int(lenRef) - ir.ArrayLenBase
	if n < 0 {
		return record.Value{}, &Error{Offset: c.pos, Kind: KindMalformed, Msg: "negative array length at " + path}
	}
	elems := make([]record.Value, 0, n)
	for i := 0; i < n; i++ {
		kb, err := c.ReadByte()
		if err != nil {
			return record.Value{}, &Error{Offset: c.pos, Kind: KindTruncated, Msg: "truncated array element kind"}
		}
		el, err := readValue(c, record.Kind(kb), dict, schemaByID, fmt.Sprintf("%s[%d]", path, i))
		if err != nil {
			return record.Value{}, err
		}
		elems = append(elems, el)
	}
	if err := c.expectByte(ir.CtrlArrayEnd, KindMalformed, "CTRL_ARRAY_END"); err != nil {
		return record.Value{}, err
	}
	return record.ArrayValue(elems), nil
}

func readObject(c *cursor, dict []string, schemaByID map[int]*ir.Schema, path string) (record.Value, error) {
	if err := c.expectByte(ir.CtrlObjectBegin, KindMalformed, "CTRL_OBJECT_BEGIN"); err != nil {
		return record.Value{}, err
	}
	schemaID, err := c.varint()
	if err != nil {
		return record.Value{}, err
	}
	schema, ok := schemaByID[int(schemaID)]
	if !ok {
		return record.Value{}, &Error{Offset: c.pos, Kind: KindSchemaRefOOB, Msg: fmt.Sprintf("nested object references unknown schema %d at %s", schemaID, path)}
	}
	k := len(schema.Fields)
	maskLen := (k + 7) / 8
	mask, err := c.readN(maskLen)
	if err != nil {
		return record.Value{}, err
	}
	values := make([]record.Value, k)
	for fi := 0; fi < k; fi++ {
		present := mask[fi/8]&(1<<(7-uint(fi%8))) != 0
		if !present {
			values[fi] = record.NullValue()
			continue
		}
		kb, err := c.ReadByte()
		if err != nil {
			return record.Value{}, &Error{Offset: c.pos, Kind: KindTruncated, Msg: "truncated nested field kind"}
		}
		v, err := readValue(c, record.Kind(kb), dict, schemaByID, fmt.Sprintf("%s.%s", path, schema.Fields[fi]))
		if err != nil {
			return record.Value{}, err
		}
		values[fi] = v
	}
	if err := c.expectByte(ir.CtrlObjectEnd, KindMalformed, "CTRL_OBJECT_END"); err != nil {
		return record.Value{}, err
	}
	return record.Value{Kind: record.Object, SchemaID: int(schemaID), A: values}, nil
}
