package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/coredatalabs/tens/internal/canon"
	"github.com/coredatalabs/tens/internal/encode"
	"github.com/coredatalabs/tens/internal/ir"
	"github.com/coredatalabs/tens/internal/metrics"
	"github.com/coredatalabs/tens/internal/store"
	"github.com/coredatalabs/tens/internal/tokenizer"
	"github.com/coredatalabs/tens/internal/validate"
)

// processMetrics is a process-lifetime Prometheus registry: tensctl is a
// one-shot CLI with no /metrics endpoint of its own, but recording against
// it still exercises the same TokenMemory instrumentation tensd serves, and
// gives operators a place to wire a push-gateway exporter later without
// touching internal/store.
var processMetrics = metrics.New()

// readRecords loads a JSON array of record objects from path, or stdin
// when path is "-" or "".
func readRecords(path string) ([]map[string]any, error) {
	var r io.Reader
	if path == "" || path == "-" {
		r = os.Stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", path, err)
		}
		defer f.Close()
		r = f
	}

	var records []map[string]any
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("decoding JSON records: %w", err)
	}
	return records, nil
}

// encodeRecords runs the full Validate -> Canonicalize -> Encode pipeline.
func encodeRecords(records []map[string]any, strict bool) (*ir.IR, error) {
	if err := validate.Records(records); err != nil {
		return nil, err
	}
	canonResult, err := canon.Canonicalize(records, canon.Options{Strict: strict})
	if err != nil {
		return nil, err
	}
	doc, err := encode.Encode(canonResult.Schemas, canonResult.Rows)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// writeBytes writes data to path, or stdout when path is "-" or "".
func writeBytes(path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// openStore builds a TokenMemory rooted at cfg.Store.Root with a fresh
// tokenizer Manager.
func openStore() (*store.TokenMemory, error) {
	return store.New(cfg.Store.Root, tokenizer.NewManager(), processMetrics)
}
