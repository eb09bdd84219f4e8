package hash_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/coredatalabs/tens/internal/hash"
)

func TestSum_Deterministic(t *testing.T) {
	a := hash.Sum([]byte("hello"))
	b := hash.Sum([]byte("hello"))
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
}

func TestVerify(t *testing.T) {
	b := []byte("some ir bytes")
	assert.True(t, hash.Verify(b, hash.Sum(b)))
	assert.False(t, hash.Verify(b, hash.Sum([]byte("other"))))
}
