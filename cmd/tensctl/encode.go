package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newEncodeCmd() *cobra.Command {
	var out string
	var strict bool

	cmd := &cobra.Command{
		Use:   "encode [input.json]",
		Short: "Validate, canonicalize, and encode a JSON record array into binary IR",
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
			if err := writeBytes(out, doc.Bytes); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "hash=%s bytes=%d schemas=%d rows=%d\n",
				doc.Hash, len(doc.Bytes), len(doc.Schemas), len(doc.Rows))
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "-", "output path for the encoded IR bytes (- for stdout)")
	cmd.Flags().BoolVar(&strict, "strict", false, "disable subset/superset schema unification")
	return cmd
}
