package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/gyaneshwarpardhi/unitmap/internal/engine"
)

func newPlanCmd(opts *globalOpts) *cobra.Command {
	var asJSON, waves bool
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show which files get their own unit without assigning names",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, eng, err := openEngine(opts)
			if err != nil {
				return err
			}
			plan, err := eng.Plan(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(plan)
			}
			printPlan(out, plan, waves)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the plan as JSON")
	cmd.Flags().BoolVar(&waves, "waves", false, "also print the peeling waves")
	return cmd
}

func printPlan(out io.Writer, plan *engine.Plan, waves bool) {
	fmt.Fprintf(out, "plan %s (%d graph nodes)\n", plan.BuildID, plan.Nodes)
	section := func(title string, paths []string) {
		fmt.Fprintf(out, "%s (%d)\n", title, len(paths))
		for _, p := range paths {
			fmt.Fprintf(out, "  %s\n", p)
		}
	}
	section("explicit", plan.Explicit)
	section("isolated", plan.Isolated)
	section("roots", plan.Roots)
	if len(plan.MissingFolders) > 0 {
		section("missing folders", plan.MissingFolders)
	}
	if waves {
		for _, w := range plan.Waves {
			fmt.Fprintf(out, "wave depth=%d: %d node(s)\n", w.Depth, len(w.Paths))
		}
	}
}
