package encode_test

import (
	"crypto/sha256"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coredatalabs/tens/internal/canon"
	"github.com/coredatalabs/tens/internal/encode"
	"github.com/coredatalabs/tens/internal/hash"
	"github.com/coredatalabs/tens/internal/ir"
	"github.com/coredatalabs/tens/internal/record"
)

func mustCanon(t *testing.T, records []map[string]any) *canon.Result {
	t.Helper()
	result, err := canon.Canonicalize(records, canon.Options{})
	require.NoError(t, err)
	return result
}

func TestEncode_StartsWithMagicAndVersion(t *testing.T) {
	result := mustCanon(t, []map[string]any{{"a": 1}})
	doc, err := encode.Encode(result.Schemas, result.Rows)
	require.NoError(t, err)

	require.GreaterOrEqual(t, len(doc.Bytes), 6)
	assert.Equal(t, ir.TensMagic, string(doc.Bytes[0:4]))
	assert.Equal(t, ir.TensVersion, doc.Bytes[4])
}

func TestEncode_EndsWithEOFAndSealHash(t *testing.T) {
	result := mustCanon(t, []map[string]any{{"a": 1}})
	doc, err := encode.Encode(result.Schemas, result.Rows)
	require.NoError(t, err)

	n := len(doc.Bytes)
	assert.Equal(t, ir.CtrlEOF, doc.Bytes[n-32-1])
	seal := sha256.Sum256(doc.Bytes[:n-32-1])
	assert.Equal(t, seal[:], doc.Bytes[n-32:])
}

func TestEncode_IsDeterministicForEqualInput(t *testing.T) {
	records := []map[string]any{{"b": 2, "a": 1}}
	r1 := mustCanon(t, records)
	r2 := mustCanon(t, records)

	doc1, err := encode.Encode(r1.Schemas, r1.Rows)
	require.NoError(t, err)
	doc2, err := encode.Encode(r2.Schemas, r2.Rows)
	require.NoError(t, err)

	assert.Equal(t, doc1.Bytes, doc2.Bytes)
	assert.Equal(t, doc1.Hash, doc2.Hash)
}

func TestEncode_PopulatesHashFromFullStream(t *testing.T) {
	result := mustCanon(t, []map[string]any{{"a": 1}})
	doc, err := encode.Encode(result.Schemas, result.Rows)
	require.NoError(t, err)
	assert.Len(t, doc.Hash, 64) // hex-encoded SHA-256
	assert.Equal(t, hash.Sum(doc.Bytes), doc.Hash)
}

func TestEncode_RejectsNonFiniteFloat(t *testing.T) {
	schemas := []ir.Schema{{ID: 0, Fields: []string{"x"}, Types: []record.Tag{record.TagFloat}}}
	rows := []ir.Row{{SchemaID: 0, Values: []record.Value{record.FloatValue(math.NaN())}}}

	_, err := encode.Encode(schemas, rows)
	require.Error(t, err)
	var eerr *encode.Error
	require.ErrorAs(t, err, &eerr)
	assert.Equal(t, encode.KindNonFiniteFloat, eerr.Kind)
	assert.ErrorIs(t, err, encode.ErrNonFiniteFloat)
}

func TestEncode_SchemaCommentParticipatesInDictionary(t *testing.T) {
	schemas := []ir.Schema{{ID: 0, Fields: []string{"x"}, Types: []record.Tag{record.TagInt}, Comment: "user-facing id"}}
	rows := []ir.Row{{SchemaID: 0, Values: []record.Value{record.IntValue(1)}}}

	doc, err := encode.Encode(schemas, rows)
	require.NoError(t, err)
	assert.Contains(t, doc.Strings, "user-facing id")
}
