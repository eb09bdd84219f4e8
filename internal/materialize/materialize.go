// Package materialize implements the Materializer (spec §4.8): rendering a
// decoded IR into the canonical minified-JSON text that is the sole surface
// downstream tokenizers ever see, then tokenizing it.
package materialize

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/coredatalabs/tens/internal/decode"
	"github.com/coredatalabs/tens/internal/ir"
	"github.com/coredatalabs/tens/internal/record"
	"github.com/coredatalabs/tens/internal/tokenizer"
)

// Kind classifies a materialization error.
type Kind string

const (
	KindContextWindowExceeded Kind = "CONTEXT_WINDOW_EXCEEDED"
	KindRenderFailure         Kind = "RENDER_FAILURE"
)

// Sentinel errors for the common errors.Is case, one per Kind.
var (
	ErrContextWindowExceeded = errors.New("materialize: context window exceeded")
	ErrRenderFailure         = errors.New("materialize: render failure")
)

// Error is the ContextWindowExceeded family of spec §7.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("materialize: %s: %s", e.Kind, e.Msg)
}

// Unwrap lets errors.Is(err, materialize.ErrContextWindowExceeded) match
// regardless of the specific message this Error carries.
func (e *Error) Unwrap() error {
	switch e.Kind {
	case KindContextWindowExceeded:
		return ErrContextWindowExceeded
	case KindRenderFailure:
		return ErrRenderFailure
	default:
		return nil
	}
}

// Options bounds Materialize's output.
type Options struct {
	// MaxTokens, if positive, fails materialization with
	// ContextWindowExceeded rather than silently truncating (spec §4.9:
	// "no partial output").
	MaxTokens int
}

// Render produces the canonical text for doc: minified JSON (sorted keys,
// no whitespace) of the logical records decoded from the IR. Any change to
// this rendering must bump ir.CanonicalizationVersion (spec §4.8), since it
// changes what downstream tokenizers and prefix caches see.
func Render(doc *ir.IR) (string, error) {
	records, err := decode.ToRecords(doc)
	if err != nil {
		return "", &Error{Kind: KindRenderFailure, Msg: err.Error()}
	}
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, rec := range records {
		if i > 0 {
			buf.WriteByte(',')
		}
		b, err := marshalSorted(rec)
		if err != nil {
			return "", &Error{Kind: KindRenderFailure, Msg: err.Error()}
		}
		buf.Write(b)
	}
	buf.WriteByte(']')
	return buf.String(), nil
}

// Materialize renders doc to canonical text and tokenizes it for modelID,
// enforcing opts.MaxTokens if set.
func Materialize(doc *ir.IR, modelID string, tok *tokenizer.Manager, opts Options) ([]int, error) {
	text, err := Render(doc)
	if err != nil {
		return nil, err
	}
	enc := tokenizer.ResolveEncoding(modelID)
	tokens, err := tok.Tokenize(text, enc)
	if err != nil {
		return nil, err
	}
	if opts.MaxTokens > 0 && len(tokens) > opts.MaxTokens {
		return nil, &Error{
			Kind: KindContextWindowExceeded,
			Msg:  fmt.Sprintf("%d tokens exceeds limit of %d", len(tokens), opts.MaxTokens),
		}
	}
	return tokens, nil
}

// marshalSorted marshals v (a map[string]any, recursively) with
// deterministic key order: marshalObject sorts each object's keys itself
// before writing them.
func marshalSorted(v any) ([]byte, error) {
	if m, ok := v.(map[string]any); ok {
		return marshalObject(m)
	}
	return marshalScalar(v)
}

func marshalObject(m map[string]any) ([]byte, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := marshalScalar(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := marshalValue(m[k])
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func marshalValue(v any) ([]byte, error) {
	switch x := v.(type) {
	case map[string]any:
		return marshalObject(x)
	case []any:
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i, el := range x {
			if i > 0 {
				buf.WriteByte(',')
			}
			eb, err := marshalValue(el)
			if err != nil {
				return nil, err
			}
			buf.Write(eb)
		}
		buf.WriteByte(']')
		return buf.Bytes(), nil
	default:
		return marshalScalar(x)
	}
}

// marshalScalar marshals a leaf JSON value without HTML-escaping (the
// canonical text is not embedded in HTML; escaping `<`/`>`/`&` would make
// the rendering depend on an irrelevant concern and could change the token
// count spec §4.8 promises stays stable across rebuilds).
//
// float64 goes through record.CanonicalFloatString rather than
// encoding/json's own formatter, whose output differs from it for some
// values (json renders "1e+21", CanonicalFloatString renders "1.0e21") — and
// CanonicalFloatString is the definition spec §6.3's "canonical shortest
// form" already binds the encoder side to, via canon.Canonicalize.
func marshalScalar(v any) ([]byte, error) {
	if f, ok := v.(float64); ok {
		return []byte(record.CanonicalFloatString(f)), nil
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
