package main

import (
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check [flags] [workspace.json...]",
	Short: "Report diagnostics without writing generated code",
	RunE:  runCheck,
}

func init() {
	addPlanFlags(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	plan, err := resolvePlan(cmd, args)
	if err != nil {
		return err
	}
	opts, err := readReportOptions(cmd)
	if err != nil {
		return err
	}
	results, runErr := plan.run(cmd, "check "+plan.board.ID)
	if err := reportDiagnostics(cmd, results, opts); err != nil {
		return err
	}
	if runErr != nil {
		return runErr
	}
	return failure(results, opts.warningsAsErrors)
}
