package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/coredatalabs/tens/internal/decode"
)

func newDecodeCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "decode [ir-file]",
		Short: "Decode binary IR bytes back into a JSON record array",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var data []byte
			var err error
			if len(args) == 1 && args[0] != "-" {
				data, err = os.ReadFile(args[0])
			} else {
				data, err = io.ReadAll(os.Stdin)
			}
			if err != nil {
				return fmt.Errorf("reading input: %w", err)
			}

			doc, err := decode.Decode(data)
			if err != nil {
				return err
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
	cmd.Flags().StringVarP(&out, "out", "o", "-", "output path for decoded JSON (- for stdout)")
	return cmd
}
