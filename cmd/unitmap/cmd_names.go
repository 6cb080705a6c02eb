package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/gyaneshwarpardhi/unitmap/internal/naming"
)

func newNamesCmd(opts *globalOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "names",
		Short: "Clear and reassign unit names without packaging",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, eng, err := openEngine(opts)
			if err != nil {
				return err
			}
			_, assignments, err := eng.AssignNames(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(assignments) == 0 {
				fmt.Fprintln(out, "nothing to name")
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			for _, a := range assignments {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", a.Path, naming.UnitKey(a.Unit, a.Variant), a.Reason)
			}
			return tw.Flush()
		},
	}
}
