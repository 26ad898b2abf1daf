// Command redcored is the server binary: a cobra root command with a
// single "serve" subcommand and a "version" subcommand, generalizing the
// teacher's cmd/root.go RootCmd/Execute pair (minus the distributed-store
// subcommands this core does not implement).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:   "redcored",
	Short: "A Redis-compatible in-memory key-value server core",
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("redcored v%s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
