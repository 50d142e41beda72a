package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/twpayne/go-altimetry"
)

func newGranuleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "granule filename...",
		Short: "Print the RGT, date, and cycle encoded in ATL06 filenames",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, arg := range args {
				granule, err := altimetry.ParseGranuleFilename(arg)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%s\n", arg, granule.RGT, granule.Time, granule.Cycle)
			}
			return nil
		},
	}
}
