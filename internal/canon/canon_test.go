package canon_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coredatalabs/tens/internal/canon"
	"github.com/coredatalabs/tens/internal/record"
)

func TestCanonicalize_FlattensNestedFieldsToDottedPaths(t *testing.T) {
	records := []map[string]any{
		{"name": "alice", "address": map[string]any{"city": "nyc", "zip": "10001"}},
	}
	result, err := canon.Canonicalize(records, canon.Options{})
	require.NoError(t, err)
	require.Len(t, result.Schemas, 1)
	assert.Equal(t, []string{"address.city", "address.zip", "name"}, result.Schemas[0].Fields)
}

func TestCanonicalize_UnifiesSubsetSupersetByDefault(t *testing.T) {
	records := []map[string]any{
		{"a": 1, "b": 2},
		{"a": 1},
	}
	result, err := canon.Canonicalize(records, canon.Options{})
	require.NoError(t, err)
	assert.Len(t, result.Schemas, 1)
	assert.Equal(t, []string{"a", "b"}, result.Schemas[0].Fields)
	// Second record's missing field becomes null.
	assert.Equal(t, record.Null, result.Rows[1].Values[1].Kind)
}

func TestCanonicalize_StrictModeKeepsDistinctSchemas(t *testing.T) {
	records := []map[string]any{
		{"a": 1, "b": 2},
		{"a": 1},
	}
	result, err := canon.Canonicalize(records, canon.Options{Strict: true})
	require.NoError(t, err)
	assert.Len(t, result.Schemas, 2)
}

func TestCanonicalize_RejectsDottedFieldName(t *testing.T) {
	records := []map[string]any{{"a.b": 1}}
	_, err := canon.Canonicalize(records, canon.Options{})
	require.Error(t, err)
	var cerr *canon.Error
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, canon.KindDottedFieldName, cerr.Kind)
	assert.ErrorIs(t, err, canon.ErrDottedFieldName)
}

func TestCanonicalize_SameFieldsDifferentKeyOrderShareOneSchema(t *testing.T) {
	records := []map[string]any{
		{"a": 1, "b": 2},
		{"b": 3, "a": 4},
	}
	result, err := canon.Canonicalize(records, canon.Options{})
	require.NoError(t, err)
	assert.Len(t, result.Schemas, 1)
}
