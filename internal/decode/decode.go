// Package decode implements the Token-Stream Decoder (spec §4.5): the exact
// inverse of internal/encode, including the spec's fail-fast requirements
// (magic/version/self-seal checked before any structural parse) and its
// forward-compatibility rule (unknown control codes in 0x10..0x1F are
// skipped, not rejected).
//
// Grounded on the teacher's ts/reader.go Reader/indexTable shape (walk the
// stream once, build an index of chunks), filled in to be a real inverse of
// the writer instead of the teacher's stub that always returns nil/zero.
package decode

import (
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/coredatalabs/tens/internal/hash"
	"github.com/coredatalabs/tens/internal/ir"
	"github.com/coredatalabs/tens/internal/record"
)

// Kind classifies a DecodeError (spec §7).
type Kind string

const (
	KindBadMagic      Kind = "BAD_MAGIC"
	KindBadVersion    Kind = "BAD_VERSION"
	KindBadTrailer    Kind = "BAD_TRAILER"
	KindTruncated     Kind = "TRUNCATED"
	KindBadVarint     Kind = "BAD_VARINT"
	KindDictRefOOB    Kind = "DICT_REF_OOB"
	KindSchemaRefOOB  Kind = "SCHEMA_REF_OOB"
	KindUnknownCtrl   Kind = "UNKNOWN_CONTROL_TOKEN"
	KindMalformed     Kind = "MALFORMED"
)

// Sentinel errors for the common errors.Is case, one per Kind.
var (
	ErrBadMagic     = errors.New("decode: bad magic")
	ErrBadVersion   = errors.New("decode: bad version")
	ErrBadTrailer   = errors.New("decode: bad trailer seal")
	ErrTruncated    = errors.New("decode: truncated stream")
	ErrBadVarint    = errors.New("decode: malformed varint")
	ErrDictRefOOB   = errors.New("decode: dictionary reference out of bounds")
	ErrSchemaRefOOB = errors.New("decode: schema reference out of bounds")
	ErrUnknownCtrl  = errors.New("decode: unrecognized control token")
	ErrMalformed    = errors.New("decode: malformed stream")
)

// Error is the DecodeError of spec §7.
type Error struct {
	Offset int
	Kind   Kind
	Msg    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("decode: %s at offset %d: %s", e.Kind, e.Offset, e.Msg)
}

// Unwrap lets errors.Is(err, decode.ErrBadMagic) (etc.) match regardless of
// the specific offset or message this Error carries.
func (e *Error) Unwrap() error {
	switch e.Kind {
	case KindBadMagic:
		return ErrBadMagic
	case KindBadVersion:
		return ErrBadVersion
	case KindBadTrailer:
		return ErrBadTrailer
	case KindTruncated:
		return ErrTruncated
	case KindBadVarint:
		return ErrBadVarint
	case KindDictRefOOB:
		return ErrDictRefOOB
	case KindSchemaRefOOB:
		return ErrSchemaRefOOB
	case KindUnknownCtrl:
		return ErrUnknownCtrl
	case KindMalformed:
		return ErrMalformed
	default:
		return nil
	}
}

// Decode parses a TENS binary stream into a fully populated ir.IR. It
// validates the magic, version, and self-seal hash before doing any
// structural parsing (spec §4.5: "fail-fast on truncation").
func Decode(data []byte) (*ir.IR, error) {
	if len(data) < 6+1+32 {
		return nil, &Error{Offset: 0, Kind: KindTruncated, Msg: "stream shorter than minimum possible frame"}
	}
	if string(data[0:4]) != ir.TensMagic {
		return nil, &Error{Offset: 0, Kind: KindBadMagic, Msg: fmt.Sprintf("want %q", ir.TensMagic)}
	}
	if data[4] != ir.TensVersion {
		return nil, &Error{Offset: 4, Kind: KindBadVersion, Msg: fmt.Sprintf("want 0x%02x, got 0x%02x", ir.TensVersion, data[4])}
	}
	// reserved byte at data[5] ignored.

	trailerHash := data[len(data)-32:]
	sealed := data[:len(data)-32-1]
	eofByte := data[len(data)-32-1]
	if eofByte != ir.CtrlEOF {
		return nil, &Error{Offset: len(data) - 33, Kind: KindBadTrailer, Msg: "missing CTRL_EOF before seal"}
	}
	gotHash := sha256.Sum256(sealed)
	if string(gotHash[:]) != string(trailerHash) {
		return nil, &Error{Offset: len(data) - 32, Kind: KindBadTrailer, Msg: "self-seal hash mismatch"}
	}

	c := newCursor(data)
	c.pos = 6

	dict, err := readDictionary(c)
	if err != nil {
		return nil, err
	}
	schemas, err := readSchemaTable(c, dict)
	if err != nil {
		return nil, err
	}
	rows, err := readRowBlocks(c, schemas, dict)
	if err != nil {
		return nil, err
	}

	if c.pos != len(sealed) {
		return nil, &Error{Offset: c.pos, Kind: KindMalformed, Msg: "trailing bytes before trailer"}
	}

	return &ir.IR{
		VersionIR:    ir.IRVersion,
		VersionCanon: ir.CanonicalizationVersion,
		Schemas:      schemas,
		Strings:      dict,
		Rows:         rows,
		Bytes:        data,
		Hash:         hash.Sum(data),
	}, nil
}

func readDictionary(c *cursor) ([]string, error) {
	if err := c.expectByte(ir.CtrlDictBegin, KindMalformed, "CTRL_DICT_BEGIN"); err != nil {
		return nil, err
	}
	n, err := c.varint()
	if err != nil {
		return nil, err
	}
	strs := make([]string, 0, n)
	for i := uint64(0); i < n; i++ {
		length, err := c.varint()
		if err != nil {
			return nil, err
		}
		b, err := c.readN(int(length))
		if err != nil {
			return nil, err
		}
		strs = append(strs, string(b))
	}
	if err := c.expectByte(ir.CtrlDictEnd, KindMalformed, "CTRL_DICT_END"); err != nil {
		return nil, err
	}
	return strs, nil
}

func readSchemaTable(c *cursor, dict []string) ([]ir.Schema, error) {
	if err := c.expectByte(ir.CtrlSchemaBegin, KindMalformed, "CTRL_SCHEMA_BEGIN"); err != nil {
		return nil, err
	}
	s, err := c.varint()
	if err != nil {
		return nil, err
	}
	schemas := make([]ir.Schema, 0, s)
	for sid := uint64(0); sid < s; sid++ {
		k, err := c.varint()
		if err != nil {
			return nil, err
		}
		fields := make([]string, k)
		for fi := uint64(0); fi < k; fi++ {
			ref, err := c.varint()
			if err != nil {
				return nil, err
			}
			idx := int(ref) - ir.DictRefBase
			if idx < 0 || idx >= len(dict) {
				return nil, &Error{Offset: c.pos, Kind: KindDictRefOOB, Msg: fmt.Sprintf("field name ref %d out of range", idx)}
			}
			fields[fi] = dict[idx]
		}
		types := make([]record.Tag, k)
		for fi := uint64(0); fi < k; fi++ {
			b, err := c.ReadByte()
			if err != nil {
				return nil, &Error{Offset: c.pos, Kind: KindTruncated, Msg: "truncated type tags"}
			}
			types[fi] = record.Tag(b)
		}
		commentRef, err := c.varint()
		if err != nil {
			return nil, err
		}
		commentIdx := int(commentRef) - ir.DictRefBase
		if commentIdx < 0 || commentIdx >= len(dict) {
			return nil, &Error{Offset: c.pos, Kind: KindDictRefOOB, Msg: fmt.Sprintf("schema comment ref %d out of range", commentIdx)}
		}
		schemas = append(schemas, ir.Schema{ID: int(sid), Fields: fields, Types: types, Comment: dict[commentIdx]})
	}
	if err := c.expectByte(ir.CtrlSchemaEnd, KindMalformed, "CTRL_SCHEMA_END"); err != nil {
		return nil, err
	}
	return schemas, nil
}

func readRowBlocks(c *cursor, schemas []ir.Schema, dict []string) ([]ir.Row, error) {
	schemaByID := make(map[int]*ir.Schema, len(schemas))
	for i := range schemas {
		schemaByID[schemas[i].ID] = &schemas[i]
	}

	var rows []ir.Row
	for {
		b, ok := c.peekByte()
		if !ok {
			return nil, &Error{Offset: c.pos, Kind: KindTruncated, Msg: "missing CTRL_EOF"}
		}
		if b == ir.CtrlEOF {
			return rows, nil
		}
		if b != ir.CtrlBlockBegin {
			if ir.IsForwardCompatible(b) {
				if err := skipForwardCompatible(c); err != nil {
					return nil, err
				}
				continue
			}
			return nil, &Error{Offset: c.pos, Kind: KindUnknownCtrl, Msg: fmt.Sprintf("unexpected control byte 0x%02x", b)}
		}
		c.pos++ // consume CTRL_BLOCK_BEGIN

		schemaID, err := c.varint()
		if err != nil {
			return nil, err
		}
		rowCount, err := c.varint()
		if err != nil {
			return nil, err
		}
		schema, ok := schemaByID[int(schemaID)]
		if !ok {
			return nil, &Error{Offset: c.pos, Kind: KindSchemaRefOOB, Msg: fmt.Sprintf("block references unknown schema %d", schemaID)}
		}
		for i := uint64(0); i < rowCount; i++ {
			row, err := readRow(c, schema, dict, schemaByID)
			if err != nil {
				return nil, err
			}
			rows = append(rows, row)
		}
		if err := c.expectByte(ir.CtrlBlockEnd, KindMalformed, "CTRL_BLOCK_END"); err != nil {
			return nil, err
		}
	}
}

// skipForwardCompatible consumes a forward-compatible control code (spec
// §4.5): one control byte followed by a varint length and that many bytes.
func skipForwardCompatible(c *cursor) error {
	c.pos++ // consume the control byte itself
	n, err := c.varint()
	if err != nil {
		return err
	}
	if _, err := c.readN(int(n)); err != nil {
		return err
	}
	return nil
}

func readRow(c *cursor, schema *ir.Schema, dict []string, schemaByID map[int]*ir.Schema) (ir.Row, error) {
	k := len(schema.Fields)
	maskLen := (k + 7) / 8
	mask, err := c.readN(maskLen)
	if err != nil {
		return ir.Row{}, err
	}
	values := make([]record.Value, k)
	for fi := 0; fi < k; fi++ {
		present := mask[fi/8]&(1<<(7-uint(fi%8))) != 0
		if !present {
			values[fi] = record.NullValue()
			continue
		}
		pinned := schema.Types[fi]
		v, err := readField(c, pinned, dict, schemaByID, fmt.Sprintf("%s.%s", schema.Fields[fi], schema.Fields[fi]))
		if err != nil {
			return ir.Row{}, err
		}
		values[fi] = v
	}
	return ir.Row{SchemaID: schema.ID, Values: values}, nil
}

func readField(c *cursor, pinned record.Tag, dict []string, schemaByID map[int]*ir.Schema, path string) (record.Value, error) {
	kind := tagToKind(pinned)
	if pinned == record.TagMixed || pinned == record.TagArray {
		kb, err := c.ReadByte()
		if err != nil {
			return record.Value{}, &Error{Offset: c.pos, Kind: KindTruncated, Msg: "truncated value kind marker"}
		}
		kind = record.Kind(kb)
	}
	return readValue(c, kind, dict, schemaByID, path)
}

func tagToKind(t record.Tag) record.Kind {
	switch t {
	case record.TagBool:
		return record.Bool
	case record.TagInt:
		return record.Int
	case record.TagFloat:
		return record.Float
	case record.TagStr:
		return record.String
	case record.TagArray:
		return record.Array
	default:
		return record.Null
	}
}
