package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/coredatalabs/tens/internal/hash"
)

func newHashCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash [ir-file]",
		Short: "Print the SHA-256 content hash of an encoded IR file",
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
			fmt.Println(hash.Sum(data))
			return nil
		},
	}
}
