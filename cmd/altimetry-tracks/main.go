package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "altimetry-tracks",
		Short: "Fetch ICESat-2 elevation tracks from OpenAltimetry",
		Long: `altimetry-tracks reads ATL06 granule filenames and fetches the matching
elevation tracks from the OpenAltimetry API.

Configuration can be set with flags or environment variables. Flags take
precedence.`,
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	rootCmd.PersistentFlags().String("log-level", "warn", "log level (debug, info, warn, error)")
	rootCmd.AddCommand(
		newGranuleCmd(),
		newFetchCmd(),
	)
	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
