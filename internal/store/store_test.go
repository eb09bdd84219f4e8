package store_test

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coredatalabs/tens/internal/canon"
	"github.com/coredatalabs/tens/internal/encode"
	"github.com/coredatalabs/tens/internal/ir"
	"github.com/coredatalabs/tens/internal/materialize"
	"github.com/coredatalabs/tens/internal/metrics"
	"github.com/coredatalabs/tens/internal/store"
	"github.com/coredatalabs/tens/internal/tokenizer"
)

func newStoredIR(t *testing.T) (*store.TokenMemory, string) {
	t.Helper()
	root := t.TempDir()
	mem, err := store.New(root, tokenizer.NewManager(), metrics.New())
	require.NoError(t, err)
	return mem, root
}

func TestStoreIR_IdempotentAndRoundTrips(t *testing.T) {
	mem, _ := newStoredIR(t)
	res, err := canon.Canonicalize([]map[string]any{{"x": int64(1)}}, canon.Options{})
	require.NoError(t, err)
	doc, err := encode.Encode(res.Schemas, res.Rows)
	require.NoError(t, err)

	r1, err := mem.StoreIR(doc)
	require.NoError(t, err)
	assert.True(t, r1.IsNew)

	r2, err := mem.StoreIR(doc)
	require.NoError(t, err)
	assert.False(t, r2.IsNew)
	assert.Equal(t, r1.Hash, r2.Hash)

	loaded, err := mem.Load(doc.Hash)
	require.NoError(t, err)
	assert.Equal(t, doc.Bytes, loaded.Bytes)
}

func TestLoad_NotFound_MatchesSentinelViaErrorsIs(t *testing.T) {
	s, _ := newStoredIR(t)
	_, err := s.Load("deadbeef")
	require.Error(t, err)
	require.ErrorIs(t, err, store.ErrIRNotFound)
}

func TestLoad_NotFound(t *testing.T) {
	mem, _ := newStoredIR(t)
	_, err := mem.Load("deadbeef0000000000000000000000000000000000000000000000000000aa")
	require.Error(t, err)
	var serr *store.Error
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, store.KindIRNotFound, serr.Kind)
}

func TestMaterializeAndCache_SecondCallHits(t *testing.T) {
	mem, _ := newStoredIR(t)
	res, err := canon.Canonicalize([]map[string]any{{"greeting": "hello"}}, canon.Options{})
	require.NoError(t, err)
	doc, err := encode.Encode(res.Schemas, res.Rows)
	require.NoError(t, err)
	_, err = mem.StoreIR(doc)
	require.NoError(t, err)

	r1, err := mem.MaterializeAndCache(doc.Hash, "gpt-4o", materialize.Options{})
	require.NoError(t, err)
	assert.False(t, r1.CacheHit)
	assert.NotEmpty(t, r1.Tokens)

	r2, err := mem.MaterializeAndCache(doc.Hash, "gpt-4o", materialize.Options{})
	require.NoError(t, err)
	assert.True(t, r2.CacheHit)
	assert.Equal(t, r1.Tokens, r2.Tokens)
}

func TestMaterializeAndCache_WritesSpecHeaderLayout(t *testing.T) {
	mem, root := newStoredIR(t)
	res, err := canon.Canonicalize([]map[string]any{{"greeting": "hello"}}, canon.Options{})
	require.NoError(t, err)
	doc, err := encode.Encode(res.Schemas, res.Rows)
	require.NoError(t, err)
	_, err = mem.StoreIR(doc)
	require.NoError(t, err)

	r1, err := mem.MaterializeAndCache(doc.Hash, "gpt-4o", materialize.Options{})
	require.NoError(t, err)

	encoding := tokenizer.ResolveEncoding("gpt-4o")
	path := filepath.Join(root, "mat", string(encoding), doc.Hash+".tok")
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	require.GreaterOrEqual(t, len(data), 8)
	assert.Equal(t, ir.MatMagic, string(data[0:4]))
	assert.Equal(t, ir.MatVersion, data[4])
	assert.Equal(t, byte(tokenizer.Version), data[5])
	assert.Equal(t, []byte{0, 0}, data[6:8])

	body := data[8:]
	require.Equal(t, len(r1.Tokens)*4, len(body))
	for i, tok := range r1.Tokens {
		assert.Equal(t, uint32(int32(tok)), binary.LittleEndian.Uint32(body[4*i:]))
	}
}

func TestGC_RemovesOrphanedCacheEntries(t *testing.T) {
	mem, root := newStoredIR(t)
	res, err := canon.Canonicalize([]map[string]any{{"greeting": "hi"}}, canon.Options{})
	require.NoError(t, err)
	doc, err := encode.Encode(res.Schemas, res.Rows)
	require.NoError(t, err)
	_, err = mem.StoreIR(doc)
	require.NoError(t, err)
	_, err = mem.MaterializeAndCache(doc.Hash, "gpt-4o", materialize.Options{})
	require.NoError(t, err)

	before, err := mem.Stats()
	require.NoError(t, err)
	assert.Equal(t, 1, before.IRCount)
	assert.Equal(t, 1, before.MaterializeCount)

	removed, err := mem.GC()
	require.NoError(t, err)
	assert.Equal(t, 0, removed, "IR is still present, nothing orphaned yet")

	after, err := mem.Stats()
	require.NoError(t, err)
	assert.Equal(t, before, after)

	require.NoError(t, os.Remove(filepath.Join(root, "ir", doc.Hash[:2], doc.Hash+".bin")))
	removed, err = mem.GC()
	require.NoError(t, err)
	assert.Equal(t, 1, removed, "cache entry is orphaned once its IR is gone")
}
