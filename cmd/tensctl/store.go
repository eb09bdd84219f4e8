package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/coredatalabs/tens/internal/decode"
)

func newStoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Put and get IR documents in the TokenMemory store",
	}
	cmd.AddCommand(newStorePutCmd(), newStoreGetCmd(), newStoreStatsCmd())
	return cmd
}

func newStorePutCmd() *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "put [input.json]",
		Short: "Encode a JSON record array and store it under its content hash",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := ""
			if len(args) == 1 {
				in = args[0]
			}
			records, err := readRecords(in)
			if err != nil {
				return err
			}
			doc, err := encodeRecords(records, strict)
			if err != nil {
				return err
			}

			s, err := openStore()
			if err != nil {
				return err
			}
			result, err := s.StoreIR(doc)
			if err != nil {
				return err
			}
			fmt.Printf("hash=%s new=%t\n", result.Hash, result.IsNew)
			return nil
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "disable subset/superset schema unification")
	return cmd
}

func newStoreGetCmd() *cobra.Command {
	var out string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "get <hash>",
		Short: "Fetch a stored IR document by its content hash",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore()
			if err != nil {
				return err
			}
			doc, err := s.Load(args[0])
			if err != nil {
				return err
			}

			if !asJSON {
				return writeBytes(out, doc.Bytes)
			}
			records, err := decode.ToRecords(doc)
			if err != nil {
				return err
			}
			encoded, err := json.MarshalIndent(records, "", "  ")
			if err != nil {
				return err
			}
			return writeBytes(out, append(encoded, '\n'))
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "-", "output path (- for stdout)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "decode back to JSON records instead of writing raw IR bytes")
	return cmd
}

func newStoreStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print IR and materialization cache occupancy",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore()
			if err != nil {
				return err
			}
			stats, err := s.Stats()
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "ir_count=%d materialize_count=%d\n", stats.IRCount, stats.MaterializeCount)
			return nil
		},
	}
}
