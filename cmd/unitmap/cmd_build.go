package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newBuildCmd(opts *globalOpts) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Assign unit names and package every unit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, eng, err := openEngine(opts)
			if err != nil {
				return err
			}
			if dryRun {
				cfg := *eng.Config()
				cfg.Build.Backend = "dryrun"
				eng.SwapConfig(&cfg)
			}

			out := cmd.OutOrStdout()
			res, err := eng.Build(cmd.Context(), func(unit string) {
				fmt.Fprintf(out, "built %s\n", unit)
			})
			if err != nil {
				return err
			}
			if res.Manifest == nil {
				fmt.Fprintln(out, "nothing to build")
				return nil
			}
			fmt.Fprintf(out, "%d unit(s) in %dms (build %s)\n", len(res.Manifest.Units), res.DurationMs, res.BuildID)
			if res.Version != nil {
				fmt.Fprintf(out, "version %s\n", res.Version)
			}
			if len(res.Published) > 0 {
				fmt.Fprintf(out, "published %d unit(s)\n", len(res.Published))
			}
			if res.PublishError != "" {
				return fmt.Errorf("publish: %s", res.PublishError)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "group units without writing anything")
	return cmd
}
