package cmd

import (
	"fmt"
	"os"

	"github.com/YvanMazy/Memorized/cmd/counter"
	"github.com/YvanMazy/Memorized/cmd/hashmap"
	"github.com/YvanMazy/Memorized/cmd/serve"
	"github.com/YvanMazy/Memorized/cmd/util"
	"github.com/spf13/cobra"
)

const (
	Version = "1.0.0"
)

var (
	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:          "memorized",
		Short:        "remote data structures over a binary protocol",
		SilenceUsage: true,
		Long: fmt.Sprintf(`Memorized (v%s)

A server hosting named data structures (counters, maps) that clients
read and update remotely over a length-prefixed binary protocol.`, Version),
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of Memorized",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("Memorized v%s\n", Version)
		},
	}
)

func init() {
	// Add Commands
	RootCmd.AddCommand(serve.ServeCmd)
	RootCmd.AddCommand(counter.CounterCommands)
	RootCmd.AddCommand(hashmap.MapCommands)
	RootCmd.AddCommand(versionCmd)

	// Add Flags
	key := "transport"
	RootCmd.PersistentFlags().String(key, "tcp", util.WrapString("transport to use (tcp, unix)"))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
