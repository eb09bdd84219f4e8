package materialize_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/coredatalabs/tens/internal/canon"
	"github.com/coredatalabs/tens/internal/decode"
	"github.com/coredatalabs/tens/internal/encode"
	"github.com/coredatalabs/tens/internal/materialize"
	"github.com/coredatalabs/tens/internal/record"
	"github.com/coredatalabs/tens/internal/tokenizer"
)

func TestRender_SortedKeysNoWhitespace(t *testing.T) {
	records := []map[string]any{
		{"zebra": "z", "apple": int64(1)},
	}
	res, err := canon.Canonicalize(records, canon.Options{})
	require.NoError(t, err)
	enc, err := encode.Encode(res.Schemas, res.Rows)
	require.NoError(t, err)
	doc, err := decode.Decode(enc.Bytes)
	require.NoError(t, err)

	text, err := materialize.Render(doc)
	require.NoError(t, err)
	require.Equal(t, `[{"apple":1,"zebra":"z"}]`, text)
}

func TestRender_LargeFloatMatchesCanonicalFloatString(t *testing.T) {
	records := []map[string]any{{"x": 1e21}}
	res, err := canon.Canonicalize(records, canon.Options{})
	require.NoError(t, err)
	enc, err := encode.Encode(res.Schemas, res.Rows)
	require.NoError(t, err)
	doc, err := decode.Decode(enc.Bytes)
	require.NoError(t, err)

	text, err := materialize.Render(doc)
	require.NoError(t, err)
	require.Equal(t, `[{"x":`+record.CanonicalFloatString(1e21)+`}]`, text)
}

func TestMaterialize_TokenizesAndCountsConsistently(t *testing.T) {
	records := []map[string]any{{"greeting": "hello world"}}
	res, err := canon.Canonicalize(records, canon.Options{})
	require.NoError(t, err)
	enc, err := encode.Encode(res.Schemas, res.Rows)
	require.NoError(t, err)
	doc, err := decode.Decode(enc.Bytes)
	require.NoError(t, err)

	mgr := tokenizer.NewManager()
	tokens, err := materialize.Materialize(doc, "gpt-4o", mgr, materialize.Options{})
	require.NoError(t, err)
	require.NotEmpty(t, tokens)
}

func TestMaterialize_ContextWindowExceeded(t *testing.T) {
	records := []map[string]any{{"text": "this is a somewhat longer sentence to push past a tiny token limit"}}
	res, err := canon.Canonicalize(records, canon.Options{})
	require.NoError(t, err)
	enc, err := encode.Encode(res.Schemas, res.Rows)
	require.NoError(t, err)
	doc, err := decode.Decode(enc.Bytes)
	require.NoError(t, err)

	mgr := tokenizer.NewManager()
	_, err = materialize.Materialize(doc, "gpt-4o", mgr, materialize.Options{MaxTokens: 1})
	require.Error(t, err)
	var merr *materialize.Error
	require.ErrorAs(t, err, &merr)
	require.Equal(t, materialize.KindContextWindowExceeded, merr.Kind)
	require.ErrorIs(t, err, materialize.ErrContextWindowExceeded)
}
