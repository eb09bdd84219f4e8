package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newGCCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "gc",
		Short: "Remove materialization cache entries whose IR no longer exists",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore()
			if err != nil {
				return err
			}
			removed, err := s.GC()
			if err != nil {
				return err
			}
			fmt.Printf("removed=%d\n", removed)
			return nil
		},
	}
}
