package ir

// Binary format constants (spec §6.1). The teacher's ts package framed rows
// with a handful of ASCII separator bytes (FS/RS/GS/US) prefixing fixed
// sections; this format generalizes that idea into a single control-token
// alphabet occupying the low control-character range, leaving every other
// byte value free for varint/string payloads.
const (
	TensMagic   = "TENS"
	TensVersion = byte(0x02)

	// BlockSize is the number of rows per row block (spec §6.1).
	BlockSize = 256
)

// MatMagic and MatVersion identify the materialization cache file header
// (spec §6.2: magic(4) ver(1) tokver(1) reserved(2) + i32 LE token ids).
const (
	MatMagic   = "TMAT"
	MatVersion = byte(0x01)
)

// Control tokens, byte values 0x00..0x1F. Unknown control codes in
// 0x10..0x1F are forward-compatible and skipped with a length prefix by the
// decoder (spec §4.5); 0x00..0x0F are reserved for the tokens below and are
// fatal if unrecognized.
const (
	CtrlDictBegin   byte = 0x01
	CtrlDictEnd     byte = 0x02
	CtrlSchemaBegin byte = 0x03
	CtrlSchemaEnd   byte = 0x04
	CtrlBlockBegin  byte = 0x05
	CtrlBlockEnd    byte = 0x06
	CtrlArrayBegin  byte = 0x07
	CtrlArrayEnd    byte = 0x08
	CtrlObjectBegin byte = 0x09
	CtrlObjectEnd   byte = 0x0A
	CtrlTrue        byte = 0x0B
	CtrlFalse       byte = 0x0C
	CtrlEOF         byte = 0x0D
)

// lastKnownCtrl is the highest control byte this decoder understands
// structurally. Anything in (lastKnownCtrl, 0x1F] is treated as a
// forward-compatible, length-prefixed extension; anything below it that
// doesn't match one of the named tokens above is a fatal decode error.
const lastKnownCtrl = 0x0F

// IsForwardCompatible reports whether b falls in the reserved-for-extension
// control range that decoders must skip rather than reject.
func IsForwardCompatible(b byte) bool {
	return b > lastKnownCtrl && b <= 0x1F
}

// Fixed varint offsets (spec §6.1) so that small structural values never
// collide with payload varints occupying the same byte position class.
const (
	DictRefBase   = 0x20
	ArrayLenBase  = 0x20
	MaskChunkBase = 0x20 // reserved: presence masks are fixed-size raw bytes in this implementation, never chunked, so this offset is unused today.
)
