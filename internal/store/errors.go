package store

import (
	"errors"
	"fmt"
)

// Kind classifies a store-layer error (spec §4.6/§4.9).
type Kind string

const (
	KindIRNotFound Kind = "IR_NOT_FOUND"
	KindCorruption Kind = "CORRUPTION"
	KindIO         Kind = "STORAGE_IO"
)

// Sentinel errors so callers can use errors.Is instead of unwrapping Kind,
// for the common case where the specific Hash/Msg detail doesn't matter.
var (
	ErrIRNotFound = errors.New("store: IR not found")
	ErrCorruption = errors.New("store: corrupted IR")
	ErrIO         = errors.New("store: I/O failure")
)

// Error is the StorageError/IRNotFound family of spec §7.
type Error struct {
	Kind Kind
	Hash string
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("store: %s %s: %s", e.Kind, e.Hash, e.Msg)
}

// ErrKind satisfies the unexported kindedError interface internal/metrics
// uses to label store errors without metrics importing store.
func (e *Error) ErrKind() string {
	return string(e.Kind)
}

// Unwrap lets errors.Is(err, store.ErrIRNotFound) match regardless of which
// hash or message this particular Error carries.
func (e *Error) Unwrap() error {
	switch e.Kind {
	case KindIRNotFound:
		return ErrIRNotFound
	case KindCorruption:
		return ErrCorruption
	case KindIO:
		return ErrIO
	default:
		return nil
	}
}
