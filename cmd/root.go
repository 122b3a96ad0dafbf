package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCommand builds the tuplespace command tree
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "tuplespace",
		Short: "An in-memory tuple space server and client",
		Long: `A single-process in-memory tuple space. Clients read, take and insert
key/value tuples over a length-prefixed line protocol on TCP.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newServerCommand())
	rootCmd.AddCommand(newClientCommand())
	return rootCmd
}

// Execute runs the root command and exits non-zero on failure
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "couldn't execute app,", err)
		os.Exit(1)
	}
}
