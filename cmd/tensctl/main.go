// Command tensctl is the operator CLI for the token-memory pipeline:
// encode/decode the binary IR, put/get/materialize against a TokenMemory
// store, and run garbage collection.
//
// Grounded on dca's cmd/dca/main.go for the overall "load config, build a
// root object, run a subcommand" shape, rebuilt on github.com/spf13/cobra +
// github.com/spf13/pflag (the pack's idiomatic choice for a multi-subcommand
// admin CLI; see axonops's cmd/schema-registry-admin) instead of dca's
// single flag.Parse() binary.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/coredatalabs/tens/internal/config"
	"github.com/coredatalabs/tens/internal/ir"
	"github.com/coredatalabs/tens/internal/tokenizer"
)

var (
	configPath string
	storeRoot  string
	cfg        *config.Config
)

// registerGlobalFlags registers tensctl's persistent, subcommand-wide flags
// onto flags, in the style of magicschema.Config.RegisterFlags(*pflag.FlagSet).
func registerGlobalFlags(flags *pflag.FlagSet) {
	flags.StringVarP(&configPath, "config", "c", "", "path to tens.yaml (optional)")
	flags.StringVar(&storeRoot, "store-root", "", "override store.root from config")
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "tensctl",
		Short: "Inspect and operate a tens token-memory store",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if storeRoot != "" {
				loaded.Store.Root = storeRoot
			}
			cfg = loaded
			return nil
		},
	}
	registerGlobalFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(
		newEncodeCmd(),
		newDecodeCmd(),
		newHashCmd(),
		newStoreCmd(),
		newMaterializeCmd(),
		newGCCmd(),
		newDescribeCmd(),
		newVersionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "tensctl:", err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print tensctl's IR/canonicalization format versions",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("ir=%d canon=%d tokenizer=%d\n", ir.IRVersion, ir.CanonicalizationVersion, tokenizer.Version)
		},
	}
}
