// Package encode implements the Token-Stream Encoder (spec §4.4): binary
// framing of canonicalized records into the format defined in spec §6.1.
//
// Grounded on the teacher's ts/writer.go chunk-buffer discipline (accumulate
// a chunk's bytes, then flush as one write) generalized from SCD's
// fixed-ASCII-separator table format to the spec's TENS-magic,
// control-token, varint, self-sealed format.
package encode

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/coredatalabs/tens/internal/hash"
	"github.com/coredatalabs/tens/internal/ir"
	"github.com/coredatalabs/tens/internal/record"
	"github.com/coredatalabs/tens/internal/stringtable"
)

// Kind classifies an EncodeError (spec §7).
type Kind string

const (
	KindUnencodableValue    Kind = "UNENCODABLE_VALUE"
	KindDictionaryOverflow  Kind = "DICTIONARY_OVERFLOW"
	KindNonFiniteFloat      Kind = "NON_FINITE_FLOAT"
	KindUnknownSchema       Kind = "UNKNOWN_SCHEMA"
)

// maxDictEntries is the spec §4.4 dictionary overflow bound (2^31 entries).
const maxDictEntries = 1 << 31

// Sentinel errors for the common errors.Is case, one per Kind.
var (
	ErrUnencodableValue   = errors.New("encode: unencodable value")
	ErrDictionaryOverflow = errors.New("encode: dictionary overflow")
	ErrNonFiniteFloat     = errors.New("encode: non-finite float")
	ErrUnknownSchema      = errors.New("encode: unknown schema")
)

// Error is the EncodeError of spec §7.
type Error struct {
	Kind Kind
	Path string
}

func (e *Error) Error() string {
	return fmt.Sprintf("encode: %s at %q", e.Kind, e.Path)
}

// Unwrap lets errors.Is(err, encode.ErrNonFiniteFloat) (etc.) match
// regardless of the specific path this Error carries.
func (e *Error) Unwrap() error {
	switch e.Kind {
	case KindUnencodableValue:
		return ErrUnencodableValue
	case KindDictionaryOverflow:
		return ErrDictionaryOverflow
	case KindNonFiniteFloat:
		return ErrNonFiniteFloat
	case KindUnknownSchema:
		return ErrUnknownSchema
	default:
		return nil
	}
}

// Encode frames schemas and rows into the canonical binary form and returns
// a fully populated ir.IR (Bytes and Hash included). Determinism (spec
// §4.4): identical canonical input always yields identical bytes.
func Encode(schemas []ir.Schema, rows []ir.Row) (*ir.IR, error) {
	dict, err := buildDictionary(schemas, rows)
	if err != nil {
		return nil, err
	}
	if dict.Len() > maxDictEntries {
		return nil, &Error{Kind: KindDictionaryOverflow, Path: "$.dictionary"}
	}

	var buf bytes.Buffer
	buf.WriteString(ir.TensMagic)
	buf.WriteByte(ir.TensVersion)
	buf.WriteByte(0) // reserved

	if err := writeDictionary(&buf, dict); err != nil {
		return nil, err
	}
	if err := writeSchemaTable(&buf, schemas, dict); err != nil {
		return nil, err
	}
	if err := writeRowBlocks(&buf, schemas, rows, dict); err != nil {
		return nil, err
	}

	sealed := buf.Bytes()
	sealHash := sha256.Sum256(sealed)
	buf.WriteByte(ir.CtrlEOF)
	buf.Write(sealHash[:])

	full := buf.Bytes()

	return &ir.IR{
		VersionIR:    ir.IRVersion,
		VersionCanon: ir.CanonicalizationVersion,
		Schemas:      schemas,
		Strings:      dict.Strings(),
		Rows:         rows,
		Bytes:        full,
		Hash:         hash.Sum(full),
	}, nil
}

func writeDictionary(buf *bytes.Buffer, dict *stringtable.Table) error {
	buf.WriteByte(ir.CtrlDictBegin)
	appendVarint(buf, uint64(dict.Len()))
	for _, s := range dict.Strings() {
		b := []byte(s)
		appendVarint(buf, uint64(len(b)))
		buf.Write(b)
	}
	buf.WriteByte(ir.CtrlDictEnd)
	return nil
}

func writeSchemaTable(buf *bytes.Buffer, schemas []ir.Schema, dict *stringtable.Table) error {
	buf.WriteByte(ir.CtrlSchemaBegin)
	appendVarint(buf, uint64(len(schemas)))
	for _, s := range schemas {
		appendVarint(buf, uint64(len(s.Fields)))
		for _, f := range s.Fields {
			id, ok := dict.ID(f)
			if !ok {
				return &Error{Kind: KindUnknownSchema, Path: "$.schemas[" + f + "]"}
			}
			appendVarint(buf, uint64(id)+ir.DictRefBase)
		}
		for _, t := range s.Types {
			buf.WriteByte(byte(t))
		}
		commentID, ok := dict.ID(s.Comment)
		if !ok {
			return &Error{Kind: KindUnknownSchema, Path: "$.schemas[].comment"}
		}
		appendVarint(buf, uint64(commentID)+ir.DictRefBase)
	}
	buf.WriteByte(ir.CtrlSchemaEnd)
	return nil
}

func writeRowBlocks(buf *bytes.Buffer, schemas []ir.Schema, rows []ir.Row, dict *stringtable.Table) error {
	schemaByID := make(map[int]*ir.Schema, len(schemas))
	for i := range schemas {
		schemaByID[schemas[i].ID] = &schemas[i]
	}

	i := 0
	for i < len(rows) {
		schemaID := rows[i].SchemaID
		j := i + 1
		for j < len(rows) && j-i < ir.BlockSize && rows[j].SchemaID == schemaID {
			j++
		}
		block := rows[i:j]
		schema, ok := schemaByID[schemaID]
		if !ok {
			return &Error{Kind: KindUnknownSchema, Path: fmt.Sprintf("$.rows[%d]", i)}
		}
		buf.WriteByte(ir.CtrlBlockBegin)
		appendVarint(buf, uint64(schemaID))
		appendVarint(buf, uint64(len(block)))
		for ri, row := range block {
			if err := writeRow(buf, schema, row, dict, fmt.Sprintf("$.rows[%d]", i+ri)); err != nil {
				return err
			}
		}
		buf.WriteByte(ir.CtrlBlockEnd)
		i = j
	}
	return nil
}

func writeRow(buf *bytes.Buffer, schema *ir.Schema, row ir.Row, dict *stringtable.Table, path string) error {
	maskLen := (len(schema.Fields) + 7) / 8
	mask := make([]byte, maskLen)
	for fi, v := range row.Values {
		if v.Kind != record.Null {
			mask[fi/8] |= 1 << (7 - uint(fi%8))
		}
	}
	buf.Write(mask)
	for fi, v := range row.Values {
		if v.Kind == record.Null {
			continue
		}
		pinned := schema.Types[fi]
		if err := writeField(buf, pinned, v, dict, fmt.Sprintf("%s.%s", path, schema.Fields[fi])); err != nil {
			return err
		}
	}
	return nil
}

// writeField encodes one present field. When the schema's resolved type
// tag for this column is concrete (not mixed/array), the payload is written
// directly per spec §4.4's fixed per-kind layout, and the decoder uses that
// same tag to pick the layout back. When it is mixed or array (a column
// whose rows may carry values of differing kind), each value is prefixed
// with a one-byte self-describing kind marker first, so an ambiguous column
// stays decodable; the decoder checks the tag to know the marker is there.
func writeField(buf *bytes.Buffer, pinned record.Tag, v record.Value, dict *stringtable.Table, path string) error {
	if pinned == record.TagMixed || pinned == record.TagArray {
		buf.WriteByte(byte(v.Kind))
	}
	return writeValue(buf, v, dict, path)
}

func writeValue(buf *bytes.Buffer, v record.Value, dict *stringtable.Table, path string) error {
	switch v.Kind {
	case record.Bool:
		if v.B {
			buf.WriteByte(1)
		} else {
			buf.WriteByte(0)
		}
		return nil
	case record.Int:
		appendVarint(buf, ir.ZigZagEncode(v.I))
		return nil
	case record.Float:
		if math.IsNaN(v.F) || math.IsInf(v.F, 0) {
			return &Error{Kind: KindNonFiniteFloat, Path: path}
		}
		var bits [8]byte
		binary.LittleEndian.PutUint64(bits[:], math.Float64bits(v.F))
		buf.Write(bits[:])
		return nil
	case record.String:
		id, ok := dict.ID(v.S)
		if !ok {
			return &Error{Kind: KindUnencodableValue, Path: path}
		}
		appendVarint(buf, uint64(id)+ir.DictRefBase)
		return nil
	case record.Array:
		buf.WriteByte(ir.CtrlArrayBegin)
		appendVarint(buf, uint64(len(v.A))+ir.ArrayLenBase)
		for i, el := range v.A {
			buf.WriteByte(byte(el.Kind))
			if err := writeValue(buf, el, dict, fmt.Sprintf("%s[%d]", path, i)); err != nil {
				return err
			}
		}
		buf.WriteByte(ir.CtrlArrayEnd)
		return nil
	case record.Object:
		buf.WriteByte(ir.CtrlObjectBegin)
		appendVarint(buf, uint64(v.SchemaID))
		maskLen := (len(v.A) + 7) / 8
		mask := make([]byte, maskLen)
		for fi, fv := range v.A {
			if fv.Kind != record.Null {
				mask[fi/8] |= 1 << (7 - uint(fi%8))
			}
		}
		buf.Write(mask)
		for fi, fv := range v.A {
			if fv.Kind == record.Null {
				continue
			}
			buf.WriteByte(byte(fv.Kind))
			if err := writeValue(buf, fv, dict, fmt.Sprintf("%s.%d", path, fi)); err != nil {
				return err
			}
		}
		buf.WriteByte(ir.CtrlObjectEnd)
		return nil
	default:
		return &Error{Kind: KindUnencodableValue, Path: path}
	}
}

func appendVarint(buf *bytes.Buffer, v uint64) {
	b := ir.AppendVarint(nil, v)
	buf.Write(b)
}
