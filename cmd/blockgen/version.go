package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"blockgen/internal/codegen"
	"blockgen/internal/platform"
	"blockgen/internal/version"
)

// buildReport is what `blockgen version` prints. Commit and build date are
// only filled when asked for.
type buildReport struct {
	Tool      string   `json:"tool"`
	Version   string   `json:"version"`
	Targets   []string `json:"targets"`
	Boards    []string `json:"boards"`
	GitCommit string   `json:"git_commit,omitempty"`
	BuildDate string   `json:"build_date,omitempty"`
}

var (
	versionFormat   string
	versionShowHash bool
	versionShowDate bool
)

func init() {
	versionCmd.Flags().BoolVar(&versionShowHash, "hash", false, "include git commit hash")
	versionCmd.Flags().BoolVar(&versionShowDate, "date", false, "include build timestamp")
	versionCmd.Flags().StringVar(&versionFormat, "format", "pretty", "output format (pretty|json)")
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show blockgen version, targets and built-in boards",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rep := newBuildReport(versionShowHash, versionShowDate)
		switch strings.ToLower(versionFormat) {
		case "json":
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(rep)
		case "pretty":
			printBuildReport(cmd.OutOrStdout(), rep)
			return nil
		default:
			return fmt.Errorf("unsupported format %q (must be pretty or json)", versionFormat)
		}
	},
}

func newBuildReport(withHash, withDate bool) buildReport {
	rep := buildReport{
		Tool:    "blockgen",
		Version: strings.TrimSpace(version.Version),
		Boards:  platform.Builtin().IDs(),
	}
	if rep.Version == "" {
		rep.Version = "dev"
	}
	for _, t := range codegen.Targets() {
		rep.Targets = append(rep.Targets, string(t))
	}
	if withHash {
		rep.GitCommit = orUnknown(version.GitCommit)
	}
	if withDate {
		rep.BuildDate = orUnknown(version.BuildDate)
	}
	return rep
}

func printBuildReport(out io.Writer, rep buildReport) {
	fmt.Fprintf(out, "blockgen %s\n", version.Colored())
	fmt.Fprintf(out, "targets: %s\n", strings.Join(rep.Targets, ", "))
	fmt.Fprintf(out, "boards:  %s\n", strings.Join(rep.Boards, ", "))
	if rep.GitCommit != "" {
		fmt.Fprintf(out, "commit:  %s\n", rep.GitCommit)
	}
	if rep.BuildDate != "" {
		fmt.Fprintf(out, "built:   %s\n", rep.BuildDate)
	}
}

func orUnknown(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return "unknown"
	}
	return s
}
