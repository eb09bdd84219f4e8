package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/coredatalabs/tens/internal/materialize"
)

func newMaterializeCmd() *cobra.Command {
	var model string
	var maxTokens int
	var printTokens bool

	cmd := &cobra.Command{
		Use:   "materialize <hash>",
		Short: "Render a stored IR document to canonical text and tokenize it for a model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore()
			if err != nil {
				return err
			}
			if model == "" {
				model = cfg.Tokenizer.DefaultModel
			}
			if maxTokens == 0 {
				maxTokens = cfg.Tokenizer.MaxContextTokens
			}

			result, err := s.MaterializeAndCache(args[0], model, materialize.Options{MaxTokens: maxTokens})
			if err != nil {
				return err
			}

			if printTokens {
				encoded, err := json.Marshal(result.Tokens)
				if err != nil {
					return err
				}
				fmt.Println(string(encoded))
				return nil
			}
			fmt.Printf("tokens=%d cache_hit=%t\n", len(result.Tokens), result.CacheHit)
			return nil
		},
	}
	cmd.Flags().StringVarP(&model, "model", "m", "", "model ID to resolve a tokenizer encoding for (default: config tokenizer.default_model)")
	cmd.Flags().IntVar(&maxTokens, "max-tokens", 0, "reject materialization if token count exceeds this (0 = config default, negative = unlimited)")
	cmd.Flags().BoolVar(&printTokens, "print-tokens", false, "print the full token ID array instead of a summary")
	return cmd
}
