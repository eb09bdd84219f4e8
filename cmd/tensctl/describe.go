package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newDescribeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "describe <hash>",
		Short: "Print a stored IR document's schema table",
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

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "hash=%s ir_version=%d canon_version=%d strings=%d schemas=%d rows=%d\n\n",
				doc.Hash, doc.VersionIR, doc.VersionCanon, len(doc.Strings), len(doc.Schemas), len(doc.Rows))
			fmt.Fprintln(w, "SCHEMA\tFIELD\tTYPE\tCOMMENT")
			for _, schema := range doc.Schemas {
				for i, field := range schema.Fields {
					fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", schema.ID, field, schema.Types[i], schema.Comment)
				}
			}
			return w.Flush()
		},
	}
	return cmd
}
