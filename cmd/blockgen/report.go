package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"blockgen/internal/codegen"
	"blockgen/internal/diag"
	"blockgen/internal/diagfmt"
)

type reportOptions struct {
	format           string
	withNotes        bool
	minSeverity      diag.Severity
	warningsAsErrors bool
	quiet            bool
	timings          bool
}

func readReportOptions(cmd *cobra.Command) (reportOptions, error) {
	var opts reportOptions
	var err error
	if opts.format, err = cmd.Flags().GetString("format"); err != nil {
		return opts, fmt.Errorf("failed to get format flag: %w", err)
	}
	opts.format = strings.ToLower(opts.format)
	if opts.format != "pretty" && opts.format != "json" {
		return opts, fmt.Errorf("unsupported format %q (must be pretty or json)", opts.format)
	}
	if opts.withNotes, err = cmd.Flags().GetBool("with-notes"); err != nil {
		return opts, fmt.Errorf("failed to get with-notes flag: %w", err)
	}
	noInfo, err := cmd.Flags().GetBool("no-info")
	if err != nil {
		return opts, fmt.Errorf("failed to get no-info flag: %w", err)
	}
	if noInfo {
		opts.minSeverity = diag.SevWarning
	}
	if opts.warningsAsErrors, err = cmd.Flags().GetBool("warnings-as-errors"); err != nil {
		return opts, fmt.Errorf("failed to get warnings-as-errors flag: %w", err)
	}
	if opts.quiet, err = cmd.Root().PersistentFlags().GetBool("quiet"); err != nil {
		return opts, fmt.Errorf("failed to get quiet flag: %w", err)
	}
	if opts.timings, err = cmd.Root().PersistentFlags().GetBool("timings"); err != nil {
		return opts, fmt.Errorf("failed to get timings flag: %w", err)
	}
	return opts, nil
}

// reportDiagnostics prints diagnostics of every result: pretty to stderr,
// JSON to stdout.
func reportDiagnostics(cmd *cobra.Command, results []codegen.Result, opts reportOptions) error {
	if opts.format == "json" {
		files := make([]diagfmt.File, 0, len(results))
		for _, r := range results {
			files = append(files, diagfmt.File{Name: r.Name, Diagnostics: r.Diagnostics})
		}
		return diagfmt.JSON(cmd.OutOrStdout(), files, diagfmt.JSONOpts{
			IncludeNotes: opts.withNotes,
			MinSeverity:  opts.minSeverity,
			Indent:       true,
		})
	}

	errOut := cmd.ErrOrStderr()
	pretty := diagfmt.PrettyOpts{
		Color:       !color.NoColor,
		Width:       terminalWidth(),
		ShowNotes:   opts.withNotes,
		MinSeverity: opts.minSeverity,
	}
	var all []diag.Diagnostic
	for _, r := range results {
		if err := diagfmt.Pretty(errOut, r.Name, r.Diagnostics, pretty); err != nil {
			return err
		}
		all = append(all, r.Diagnostics...)
	}
	if !opts.quiet {
		fmt.Fprintf(errOut, "%d workspace(s): %s\n", len(results), diagfmt.Summary(all, pretty.Color))
	}
	if opts.timings {
		printTimings(errOut, results)
	}
	return nil
}

// failure turns results into the command error, if any.
func failure(results []codegen.Result, warningsAsErrors bool) error {
	var failed []string
	for _, r := range results {
		bad := r.HasErrors()
		if warningsAsErrors && len(r.Warnings) > 0 {
			bad = true
		}
		if bad {
			failed = append(failed, r.Name)
		}
	}
	if len(failed) == 0 {
		return nil
	}
	return fmt.Errorf("generation failed for %s", strings.Join(failed, ", "))
}

func terminalWidth() int {
	if !isTerminal(os.Stderr) {
		return 0
	}
	w, _, err := term.GetSize(int(os.Stderr.Fd()))
	if err != nil || w <= 0 {
		return 0
	}
	return w
}

