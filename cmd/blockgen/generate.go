package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"blockgen/internal/codegen"
)

var generateCmd = &cobra.Command{
	Use:   "generate [flags] [workspace.json...]",
	Short: "Generate code from block workspaces",
	Long: `Generate Arduino sketches or MicroPython scripts from workspace files.
Without arguments the workspaces listed in blockgen.toml are used.`,
	RunE: runGenerate,
}

func init() {
	addPlanFlags(generateCmd)
	generateCmd.Flags().StringP("out", "o", "", "output directory (overrides blockgen.toml)")
	generateCmd.Flags().Bool("stdout", false, "print generated code instead of writing files")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	plan, err := resolvePlan(cmd, args)
	if err != nil {
		return err
	}
	outDir, err := cmd.Flags().GetString("out")
	if err != nil {
		return fmt.Errorf("failed to get out flag: %w", err)
	}
	if outDir != "" {
		plan.outDir = outDir
	}
	toStdout, err := cmd.Flags().GetBool("stdout")
	if err != nil {
		return fmt.Errorf("failed to get stdout flag: %w", err)
	}
	opts, err := readReportOptions(cmd)
	if err != nil {
		return err
	}
	if toStdout && opts.format == "json" {
		return fmt.Errorf("--stdout cannot be combined with --format=json")
	}

	results, runErr := plan.run(cmd, fmt.Sprintf("generate %s for %s", plan.target, plan.board.ID))
	if err := reportDiagnostics(cmd, results, opts); err != nil {
		return err
	}
	if runErr != nil {
		return runErr
	}

	for _, r := range results {
		if r.Err != nil || r.Code == "" {
			continue
		}
		if toStdout {
			if len(results) > 1 {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", commentPrefix(plan), r.Name)
			}
			fmt.Fprint(cmd.OutOrStdout(), r.Code)
			continue
		}
		path, err := writeResult(plan, r)
		if err != nil {
			return err
		}
		if !opts.quiet && opts.format == "pretty" {
			line := "wrote " + path
			if len(r.Dependencies) > 0 {
				line += " (libraries: " + strings.Join(r.Dependencies, ", ") + ")"
			}
			fmt.Fprintln(cmd.ErrOrStderr(), line)
		}
	}
	return failure(results, opts.warningsAsErrors)
}

// writeResult stores r under the plan's output directory.
func writeResult(plan *runPlan, r codegen.Result) (string, error) {
	path := outputPath(plan.target, plan.outDir, outputNameFromPath(r.Name))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(r.Code), 0o600); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

func commentPrefix(plan *runPlan) string {
	if tgt, err := codegen.LookupTarget(plan.target); err == nil {
		return strings.TrimSpace(tgt.Comment(""))
	}
	return "#"
}
