package ir_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coredatalabs/tens/internal/ir"
)

func TestVarintRoundTrip(t *testing.T) {
	values := []uint64{0, 1, 127, 128, 300, 16384, 1 << 32, ^uint64(0)}
	for _, v := range values {
		buf := ir.AppendVarint(nil, v)
		got, err := ir.ReadVarint(bytes.NewReader(buf))
		require.NoError(t, err)
		assert.Equal(t, v, got, "value %d", v)
	}
}

func TestReadVarint_RejectsOverlongEncoding(t *testing.T) {
	// 0x80, 0x00 encodes zero with a redundant continuation byte.
	_, err := ir.ReadVarint(bytes.NewReader([]byte{0x80, 0x00}))
	assert.Error(t, err)
}

func TestZigZagRoundTrip(t *testing.T) {
	values := []int64{0, 1, -1, 42, -42, 1 << 40, -(1 << 40)}
	for _, v := range values {
		assert.Equal(t, v, ir.ZigZagDecode(ir.ZigZagEncode(v)), "value %d", v)
	}
}

func TestIsForwardCompatible(t *testing.T) {
	assert.False(t, ir.IsForwardCompatible(ir.CtrlEOF))
	assert.True(t, ir.IsForwardCompatible(0x10))
	assert.True(t, ir.IsForwardCompatible(0x1F))
	assert.False(t, ir.IsForwardCompatible(0x20))
}
