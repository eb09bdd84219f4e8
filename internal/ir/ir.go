// Package ir defines the canonical Intermediate Representation (spec §3):
// the versioned, hashable, re-encodable form every input record list is
// reduced to. Encoder, decoder, and TokenMemory all share these types so
// none of them has to re-derive the wire layout independently.
package ir

import "github.com/coredatalabs/tens/internal/record"

// Version pair reported on every ir.IR built by the encoder or decoder
// (spec §3 "version"). It is not written into the encoded stream, whose
// header carries only TensVersion.
const (
	IRVersion               = 1
	CanonicalizationVersion = 1
)

// Schema is one schema family: the sorted field paths shared by every row
// tagged with this schema's ID, plus a per-field type tag (spec §3/§4.2)
// that the decoder uses to choose each field's payload layout.
type Schema struct {
	ID      int
	Fields  []string
	Types   []record.Tag
	Comment string
}

// Row is one canonical record: the schema it belongs to, and one Value per
// schema field, in schema order. Absent fields are record.NullValue().
type Row struct {
	SchemaID int
	Values   []record.Value
}

// IR is the full canonical representation of a record list (spec §3).
type IR struct {
	VersionIR    int
	VersionCanon int
	Schemas      []Schema
	Strings      []string
	Rows         []Row
	Bytes        []byte
	Hash         string
}
