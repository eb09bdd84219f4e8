// Package record defines the tagged-value model records are normalized into
// once they leave the wire/dynamic world (map[string]any) and enter the
// canonicalizer, encoder, and decoder.
//
// Go has no natural "any JSON scalar or container" type, so instead of
// passing interface{} through the core we model every value as exactly one
// of: null, bool, int, float, string, array of Value, or a flattened nested
// Object. This keeps the hot path (Scalar | Array) a plain struct switch
// instead of a type-asserting walk of interface{}.
package record

// Kind tags which field of a Value is meaningful.
type Kind int

const (
	Null Kind = iota
	Bool
	Int
	Float
	String
	Array
	Object
)

func (k Kind) String() string {
	switch k {
	case Null:
		return "null"
	case Bool:
		return "bool"
	case Int:
		return "int"
	case Float:
		return "float"
	case String:
		return "string"
	case Array:
		return "array"
	case Object:
		return "object"
	default:
		return "unknown"
	}
}

// Value is a single canonical field value or array element.
//
// Object is represented two ways depending on pipeline stage: the
// canonicalizer first produces a name-addressed form (O != nil, field
// names carried alongside values) for objects nested inside arrays, then
// resolves every distinct field set it finds to a schema ID shared with the
// top-level row schemas and rewrites the value to the ID-addressed form (O
// == nil, SchemaID set, A holds one Value per schema field in schema
// order). Only the ID-addressed form ever reaches the encoder, decoder, or
// hasher.
type Value struct {
	Kind Kind

	B        bool
	I        int64
	F        float64
	S        string
	A        []Value
	O        *Obj
	SchemaID int
}

// Obj is a canonicalized nested record: field paths already sorted
// byte-wise, values aligned 1:1 with Fields. Only appears post-flattening
// inside array elements (arrays of records are not flattened into the
// parent), or rarely at a value position when flattening could not apply.
type Obj struct {
	Fields []string
	Values []Value
}

func NullValue() Value          { return Value{Kind: Null} }
func BoolValue(b bool) Value    { return Value{Kind: Bool, B: b} }
func IntValue(i int64) Value    { return Value{Kind: Int, I: i} }
func FloatValue(f float64) Value { return Value{Kind: Float, F: f} }
func StringValue(s string) Value { return Value{Kind: String, S: s} }
func ArrayValue(a []Value) Value { return Value{Kind: Array, A: a} }
func ObjectValue(o *Obj) Value    { return Value{Kind: Object, O: o} }

// Equal reports whether two canonical values are identical, recursively.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case Null:
		return true
	case Bool:
		return v.B == o.B
	case Int:
		return v.I == o.I
	case Float:
		return v.F == o.F
	case String:
		return v.S == o.S
	case Array:
		if len(v.A) != len(o.A) {
			return false
		}
		for i := range v.A {
			if !v.A[i].Equal(o.A[i]) {
				return false
			}
		}
		return true
	case Object:
		if v.SchemaID != o.SchemaID {
			return false
		}
		if len(v.A) != len(o.A) {
			return false
		}
		for i := range v.A {
			if !v.A[i].Equal(o.A[i]) {
				return false
			}
		}
		return true
	}
	return false
}
