// Package store implements TokenMemory (spec §4.6): a content-addressed,
// deduplicated on-disk store of encoded IR bytes keyed by SHA-256, plus a
// per-model materialization cache mapping (IR-hash, model) to tokenizer
// output.
//
// Grounded on the teacher's ts/writer.go buffered-then-flushed write idiom,
// generalized to an atomic write (build the bytes, write to a uniquely
// named `.tmp` sibling, then os.Rename) across the spec's two on-disk layouts:
// `<root>/ir/<hash[0:2]>/<hash>.bin` and `<root>/mat/<encoding>/<hash>.tok`.
package store

import (
	"encoding/binary"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/coredatalabs/tens/internal/decode"
	"github.com/coredatalabs/tens/internal/hash"
	"github.com/coredatalabs/tens/internal/ir"
	"github.com/coredatalabs/tens/internal/materialize"
	"github.com/coredatalabs/tens/internal/metrics"
	"github.com/coredatalabs/tens/internal/tokenizer"
)

// matHeaderSize is magic(4) + ver(1) + tokver(1) + reserved(2) (spec §6.2).
const matHeaderSize = 4 + 1 + 1 + 2

// TokenMemory is the content-addressed IR store plus materialization cache.
type TokenMemory struct {
	root string
	tok  *tokenizer.Manager
	mtr  *metrics.Metrics
}

// Stats summarizes on-disk occupancy (spec's supplemented TokenMemory.Stats,
// since the original distillation's contract omits any introspection hook
// and a store of unbounded growth needs one).
type Stats struct {
	IRCount          int
	MaterializeCount int
}

// New opens (and, if absent, creates) a TokenMemory rooted at root. mtr may
// be nil, in which case MaterializeAndCache's hit/miss outcomes simply go
// unrecorded.
func New(root string, tok *tokenizer.Manager, mtr *metrics.Metrics) (*TokenMemory, error) {
	if err := os.MkdirAll(filepath.Join(root, "ir"), 0o755); err != nil {
		return nil, &Error{Kind: KindIO, Msg: err.Error()}
	}
	if err := os.MkdirAll(filepath.Join(root, "mat"), 0o755); err != nil {
		return nil, &Error{Kind: KindIO, Msg: err.Error()}
	}
	return &TokenMemory{root: root, tok: tok, mtr: mtr}, nil
}

func (s *TokenMemory) irPath(h string) string {
	return filepath.Join(s.root, "ir", h[:2], h+".bin")
}

func (s *TokenMemory) matPath(encoding, h string) string {
	return filepath.Join(s.root, "mat", encoding, h+".tok")
}

// StoreResult is the {hash, is_new} pair spec §4.6 returns from store_ir.
type StoreResult struct {
	Hash  string
	IsNew bool
}

// StoreIR writes doc.Bytes under its content hash iff no file already
// exists there (idempotent). Writes go to a temp path in the same directory
// then rename, so concurrent writers never observe a partial file — and
// since the target filename is the content hash, a "file already exists"
// race from two writers storing the same IR is not an error, it's the
// dedup working as designed.
func (s *TokenMemory) StoreIR(doc *ir.IR) (StoreResult, error) {
	path := s.irPath(doc.Hash)
	if _, err := os.Stat(path); err == nil {
		return StoreResult{Hash: doc.Hash, IsNew: false}, nil
	} else if !os.IsNotExist(err) {
		return StoreResult{}, &Error{Kind: KindIO, Hash: doc.Hash, Msg: err.Error()}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return StoreResult{}, &Error{Kind: KindIO, Hash: doc.Hash, Msg: err.Error()}
	}
	if err := writeAtomic(path, doc.Bytes); err != nil {
		return StoreResult{}, &Error{Kind: KindIO, Hash: doc.Hash, Msg: err.Error()}
	}
	return StoreResult{Hash: doc.Hash, IsNew: true}, nil
}

// Load reads and decodes the IR stored under h, verifying the self-seal as
// part of decode.Decode. IRNotFound is distinguished from Corruption so
// callers can tell "never stored" from "stored but damaged".
func (s *TokenMemory) Load(h string) (*ir.IR, error) {
	path := s.irPath(h)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &Error{Kind: KindIRNotFound, Hash: h, Msg: "no such IR in store"}
		}
		return nil, &Error{Kind: KindIO, Hash: h, Msg: err.Error()}
	}
	doc, err := decode.Decode(data)
	if err != nil {
		return nil, &Error{Kind: KindCorruption, Hash: h, Msg: err.Error()}
	}
	if !hash.Verify(data, h) {
		return nil, &Error{Kind: KindCorruption, Hash: h, Msg: "stored bytes do not hash to their own filename"}
	}
	return doc, nil
}

// MaterializeResult is the {tokens, cache_hit} pair spec §4.6 returns from
// materialize_and_cache.
type MaterializeResult struct {
	Tokens   []int
	CacheHit bool
}

// encodeMatFile renders a materialization cache file per spec §6.2:
// magic(4) ver(1) tokver(1) reserved(2), followed by one little-endian
// int32 per token id. tokver fences the entry against the tokenizer build
// that produced it (spec §4.7): a tokver mismatch means the entry is stale
// and must be rebuilt rather than trusted.
func encodeMatFile(tokens []int) []byte {
	buf := make([]byte, matHeaderSize+4*len(tokens))
	copy(buf[0:4], ir.MatMagic)
	buf[4] = ir.MatVersion
	buf[5] = byte(tokenizer.Version)
	// buf[6:8] reserved, left zero.
	for i, t := range tokens {
		binary.LittleEndian.PutUint32(buf[matHeaderSize+4*i:], uint32(int32(t)))
	}
	return buf
}

// decodeMatFile parses a materialization cache file written by
// encodeMatFile. ok is false (with no error) when the header's tokver no
// longer matches the running tokenizer build, signaling a stale entry that
// should be rebuilt rather than trusted.
func decodeMatFile(data []byte) (tokens []int, ok bool, err error) {
	if len(data) < matHeaderSize {
		return nil, false, fmt.Errorf("materialization cache file truncated: %d bytes", len(data))
	}
	if string(data[0:4]) != ir.MatMagic {
		return nil, false, fmt.Errorf("materialization cache file has bad magic %q", data[0:4])
	}
	if data[4] != ir.MatVersion {
		return nil, false, fmt.Errorf("materialization cache file has unsupported version %d", data[4])
	}
	if data[5] != byte(tokenizer.Version) {
		return nil, false, nil
	}
	body := data[matHeaderSize:]
	if len(body)%4 != 0 {
		return nil, false, fmt.Errorf("materialization cache file token array is not a multiple of 4 bytes")
	}
	tokens = make([]int, len(body)/4)
	for i := range tokens {
		tokens[i] = int(int32(binary.LittleEndian.Uint32(body[4*i:])))
	}
	return tokens, true, nil
}

// MaterializeAndCache resolves modelID's encoding, serves a cached token
// array if present and current, and otherwise renders+tokenizes the IR and
// writes the result to the cache before returning it. Cache misses are
// never errors (spec §4.9).
func (s *TokenMemory) MaterializeAndCache(h, modelID string, opts materialize.Options) (MaterializeResult, error) {
	enc := tokenizer.ResolveEncoding(modelID)
	path := s.matPath(string(enc), h)

	if data, err := os.ReadFile(path); err == nil {
		if tokens, ok, decErr := decodeMatFile(data); decErr == nil && ok {
			s.recordMaterializeAccess(enc, true)
			return MaterializeResult{Tokens: tokens, CacheHit: true}, nil
		}
		// Stale or unreadable header: fall through and rebuild.
	} else if !os.IsNotExist(err) {
		return MaterializeResult{}, &Error{Kind: KindIO, Hash: h, Msg: err.Error()}
	}

	doc, err := s.Load(h)
	if err != nil {
		return MaterializeResult{}, err
	}
	tokens, err := materialize.Materialize(doc, modelID, s.tok, opts)
	if err != nil {
		return MaterializeResult{}, err
	}

	data := encodeMatFile(tokens)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return MaterializeResult{}, &Error{Kind: KindIO, Hash: h, Msg: err.Error()}
	}
	if err := writeAtomic(path, data); err != nil {
		return MaterializeResult{}, &Error{Kind: KindIO, Hash: h, Msg: err.Error()}
	}
	s.recordMaterializeAccess(enc, false)
	return MaterializeResult{Tokens: tokens, CacheHit: false}, nil
}

func (s *TokenMemory) recordMaterializeAccess(enc tokenizer.Encoding, hit bool) {
	if s.mtr != nil {
		s.mtr.RecordMaterializeAccess(string(enc), hit)
	}
}

// Stats walks the store root and reports how many IR and materialization
// cache entries currently exist on disk.
func (s *TokenMemory) Stats() (Stats, error) {
	var st Stats
	irRoot := filepath.Join(s.root, "ir")
	if err := filepath.WalkDir(irRoot, countFiles(&st.IRCount, ".bin")); err != nil {
		return st, &Error{Kind: KindIO, Msg: err.Error()}
	}
	matRoot := filepath.Join(s.root, "mat")
	if err := filepath.WalkDir(matRoot, countFiles(&st.MaterializeCount, ".tok")); err != nil {
		return st, &Error{Kind: KindIO, Msg: err.Error()}
	}
	return st, nil
}

// GC removes materialization cache entries whose IR no longer exists in the
// store — the supplemented `tensctl gc` operation (spec's TokenMemory
// contract doesn't name one, but an append-only IR store plus a derived
// cache implies orphaned cache entries need a sweep).
func (s *TokenMemory) GC() (int, error) {
	removed := 0
	matRoot := filepath.Join(s.root, "mat")
	err := filepath.WalkDir(matRoot, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() || filepath.Ext(path) != ".tok" {
			return err
		}
		h := fileStem(path)
		if _, statErr := os.Stat(s.irPath(h)); os.IsNotExist(statErr) {
			if rmErr := os.Remove(path); rmErr == nil {
				removed++
			}
		}
		return nil
	})
	if err != nil {
		return removed, &Error{Kind: KindIO, Msg: err.Error()}
	}
	return removed, nil
}

func fileStem(path string) string {
	base := filepath.Base(path)
	return base[:len(base)-len(filepath.Ext(base))]
}

func countFiles(counter *int, ext string) fs.WalkDirFunc {
	return func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if !d.IsDir() && filepath.Ext(path) == ext {
			*counter++
		}
		return nil
	}
}

func writeAtomic(path string, data []byte) error {
	f, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmp := f.Name()
	_, err = f.Write(data)
	if err == nil {
		err = f.Sync()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
