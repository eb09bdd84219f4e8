// Package tokenizer implements the Tokenizer Manager (spec §4.7): model-ID
// to tiktoken encoding resolution and deterministic tokenization, with an
// explicit (non-global) process-wide cache of loaded encodings — loading a
// tiktoken.Tiktoken's BPE ranks is expensive enough that re-resolving it per
// call would dominate materialization cost.
package tokenizer

import (
	"fmt"
	"strings"
	"sync"

	tiktoken "github.com/pkoukk/tiktoken-go"
)

// Encoding is one of the four tiktoken encoding tags spec §4.7 allows.
type Encoding string

const (
	EncodingCl100kBase Encoding = "cl100k_base"
	EncodingO200kBase  Encoding = "o200k_base"
	EncodingP50kBase   Encoding = "p50k_base"
	EncodingR50kBase   Encoding = "r50k_base"
)

// Version fences materialization-cache entries (spec §4.7): a cache file
// written by an older tokenizer build is detected as stale and rebuilt
// rather than trusted.
const Version = 1

var validEncodings = map[Encoding]bool{
	EncodingCl100kBase: true,
	EncodingO200kBase:  true,
	EncodingP50kBase:   true,
	EncodingR50kBase:   true,
}

// ResolveEncoding maps a model ID to an encoding tag per spec §4.7's
// ordered rules.
func ResolveEncoding(modelID string) Encoding {
	lower := strings.ToLower(modelID)
	switch {
	case strings.Contains(lower, "gpt-4o"), strings.Contains(lower, "omni"):
		return EncodingO200kBase
	case strings.Contains(lower, "gpt-4"), strings.Contains(lower, "gpt-3.5"), strings.Contains(lower, "turbo"):
		return EncodingCl100kBase
	case strings.Contains(lower, "gemini"):
		return EncodingO200kBase
	case validEncodings[Encoding(modelID)]:
		return Encoding(modelID)
	default:
		return EncodingO200kBase
	}
}

// Manager owns a cache of loaded tiktoken encodings, keyed by encoding tag.
// Callers construct one explicit Manager rather than relying on package-level
// state, so multiple independently-configured call sites (tests, tensd,
// tensctl) never share load state by accident.
type Manager struct {
	mu    sync.Mutex
	cache map[Encoding]*tiktoken.Tiktoken
}

// NewManager returns an empty Manager. Encodings are loaded lazily on first
// use and cached for the Manager's lifetime.
func NewManager() *Manager {
	return &Manager{cache: make(map[Encoding]*tiktoken.Tiktoken)}
}

func (m *Manager) encoder(enc Encoding) (*tiktoken.Tiktoken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if tke, ok := m.cache[enc]; ok {
		return tke, nil
	}
	tke, err := tiktoken.GetEncoding(string(enc))
	if err != nil {
		return nil, fmt.Errorf("tokenizer: loading encoding %q: %w", enc, err)
	}
	m.cache[enc] = tke
	return tke, nil
}

// Tokenize returns the sequence of integer token IDs for text under enc.
// Deterministic: repeated calls with identical (text, enc) return identical
// results (spec §4.7).
func (m *Manager) Tokenize(text string, enc Encoding) ([]int, error) {
	tke, err := m.encoder(enc)
	if err != nil {
		return nil, err
	}
	return tke.Encode(text, nil, nil), nil
}

// Warm pre-loads enc's BPE ranks so the first real Tokenize call for it
// doesn't pay the load cost (used by tensd's startup warm-up).
func (m *Manager) Warm(enc Encoding) error {
	_, err := m.encoder(enc)
	return err
}
