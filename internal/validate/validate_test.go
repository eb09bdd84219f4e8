package validate_test

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coredatalabs/tens/internal/validate"
)

func TestRecords_AcceptsWellFormedBatch(t *testing.T) {
	records := []map[string]any{
		{"name": "alice", "age": int64(30), "tags": []any{"a", "b"}},
		{"name": "bob", "profile": map[string]any{"city": "nyc"}},
	}
	assert.NoError(t, validate.Records(records))
}

func TestRecords_RejectsNonFiniteNumber(t *testing.T) {
	err := validate.Records([]map[string]any{{"x": math.NaN()}})
	require.Error(t, err)
	var verr *validate.Error
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, validate.KindNonFiniteNumber, verr.Kind)
	assert.ErrorIs(t, err, validate.ErrNonFiniteNumber)
}

func TestRecords_RejectsReservedFieldName(t *testing.T) {
	err := validate.Records([]map[string]any{{"__proto__": 1}})
	require.Error(t, err)
	var verr *validate.Error
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, validate.KindReservedName, verr.Kind)
	assert.ErrorIs(t, err, validate.ErrReservedName)
}

func TestRecords_RejectsUnsupportedType(t *testing.T) {
	type custom struct{ X int }
	err := validate.Records([]map[string]any{{"x": custom{X: 1}}})
	require.Error(t, err)
	var verr *validate.Error
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, validate.KindUnsupportedType, verr.Kind)
}

func TestRecords_RejectsDepthExceeded(t *testing.T) {
	var nested any = map[string]any{"leaf": 1}
	for i := 0; i < validate.MaxDepth+5; i++ {
		nested = map[string]any{"child": nested}
	}
	err := validate.Records([]map[string]any{nested.(map[string]any)})
	require.Error(t, err)
	var verr *validate.Error
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, validate.KindDepthExceeded, verr.Kind)
}

func TestRecords_RejectsCycle(t *testing.T) {
	m := map[string]any{}
	m["self"] = m
	err := validate.Records([]map[string]any{m})
	require.Error(t, err)
	var verr *validate.Error
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, validate.KindCycle, verr.Kind)
}

func TestRecords_RejectsEmptyFieldName(t *testing.T) {
	err := validate.Records([]map[string]any{{"": 1}})
	require.Error(t, err)
	var verr *validate.Error
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, validate.KindEmptyFieldName, verr.Kind)
}

func TestRecords_ErrorPathPinpointsViolation(t *testing.T) {
	err := validate.Records([]map[string]any{
		{"profile": map[string]any{"bio": string([]byte{0xff, 0xfe})}},
	})
	require.Error(t, err)
	var verr *validate.Error
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, validate.KindInvalidUTF8, verr.Kind)
	assert.True(t, strings.HasPrefix(verr.Path, "$[0].profile.bio"))
}
