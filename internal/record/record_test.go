package record_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/coredatalabs/tens/internal/record"
)

func TestValueEqual(t *testing.T) {
	a := record.ArrayValue([]record.Value{record.IntValue(1), record.StringValue("x")})
	b := record.ArrayValue([]record.Value{record.IntValue(1), record.StringValue("x")})
	c := record.ArrayValue([]record.Value{record.IntValue(2), record.StringValue("x")})

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.False(t, record.NullValue().Equal(record.IntValue(0)))
}

func TestIsSafeInteger(t *testing.T) {
	assert.True(t, record.IsSafeInteger(42))
	assert.True(t, record.IsSafeInteger(-9007199254740992)) // -2^53
	assert.False(t, record.IsSafeInteger(3.14))
	assert.False(t, record.IsSafeInteger(9007199254740994)) // 2^53 + 2, exceeds the safe-integer bound
}

func TestCanonicalFloatString(t *testing.T) {
	cases := map[float64]string{
		0:     "0",
		1.5:   "1.5",
		-2.0:  "-2.0",
		100.0: "100.0",
	}
	for in, want := range cases {
		assert.Equal(t, want, record.CanonicalFloatString(in))
	}
}

func TestCanonicalIntString(t *testing.T) {
	assert.Equal(t, "42", record.CanonicalIntString(42))
	assert.Equal(t, "-7", record.CanonicalIntString(-7))
}
