package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"blockgen/internal/codegen"
	"blockgen/internal/platform"
	"blockgen/internal/project"
)

var initCmd = &cobra.Command{
	Use:   "init [path|name]",
	Short: "Initialize a new blockgen project",
	Long: `Initialize a blockgen project by creating blockgen.toml and an empty
workspaces/ directory. If [path|name] is omitted, the current directory is used.
A non-existing name creates the directory.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func init() {
	initCmd.Flags().String("board", "esp32dev", "default board")
	initCmd.Flags().String("target", string(platform.TargetArduino), "default target (arduino|micropython)")
}

func runInit(cmd *cobra.Command, args []string) error {
	board, err := cmd.Flags().GetString("board")
	if err != nil {
		return fmt.Errorf("failed to get board flag: %w", err)
	}
	targetID, err := cmd.Flags().GetString("target")
	if err != nil {
		return fmt.Errorf("failed to get target flag: %w", err)
	}
	target := platform.Target(strings.ToLower(strings.TrimSpace(targetID)))
	if _, err := codegen.LookupTarget(target); err != nil {
		return err
	}
	b, err := platform.Builtin().Lookup(board)
	if err != nil {
		return err
	}
	if !b.Supports(target) {
		return fmt.Errorf("%w: %s has no %s output", codegen.ErrUnsupportedBoard, b.ID, target)
	}

	wd, err := os.Getwd()
	if err != nil {
		return err
	}
	dir := wd
	if len(args) == 1 && args[0] != "." {
		dir = args[0]
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(wd, dir)
		}
	}
	created, err := initProject(dir, b.ID, target)
	if err != nil {
		return err
	}

	rel := dir
	if r, err := filepath.Rel(wd, dir); err == nil {
		rel = r
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Initialized blockgen project in %s\n", rel)
	for _, f := range created {
		fmt.Fprintf(cmd.OutOrStdout(), "  - %s\n", f)
	}
	return nil
}

// initProject writes blockgen.toml and the workspaces directory into dir.
// It refuses to overwrite an existing manifest.
func initProject(dir, board string, target platform.Target) ([]string, error) {
	if st, err := os.Stat(dir); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory %q: %w", dir, err)
		}
	} else if !st.IsDir() {
		return nil, fmt.Errorf("%q is not a directory", dir)
	}

	name := strings.TrimSpace(filepath.Base(dir))
	if name == "" || name == "." || name == string(filepath.Separator) {
		name = "blockgen-project"
	}

	manifestPath := filepath.Join(dir, project.ManifestName)
	if _, err := os.Stat(manifestPath); err == nil {
		return nil, fmt.Errorf("project already initialized: %s exists", manifestPath)
	}
	if err := os.WriteFile(manifestPath, []byte(project.Template(name, board, target)), 0o600); err != nil {
		return nil, fmt.Errorf("failed to write manifest: %w", err)
	}
	created := []string{project.ManifestName}

	wsDir := filepath.Join(dir, "workspaces")
	if _, err := os.Stat(wsDir); errors.Is(err, os.ErrNotExist) {
		if err := os.MkdirAll(wsDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create workspaces directory: %w", err)
		}
		created = append(created, "workspaces/")
	}
	return created, nil
}
