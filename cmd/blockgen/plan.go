package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"blockgen/internal/cache"
	"blockgen/internal/codegen"
	"blockgen/internal/platform"
	"blockgen/internal/project"
	"blockgen/internal/version"
)

// runPlan is what generate and check agree on before any pass runs.
type runPlan struct {
	manifest *project.Manifest
	catalog  *platform.Catalog
	board    platform.Board
	target   platform.Target
	inputs   []string
	outDir   string
	jobs     int
	cache    *cache.Cache
}

var errNoInputs = errors.New("no workspace files: pass them as arguments or list them in blockgen.toml")

// addPlanFlags registers the flags shared by generate and check.
func addPlanFlags(cmd *cobra.Command) {
	cmd.Flags().String("board", "", "board id (overrides blockgen.toml)")
	cmd.Flags().String("target", "", "output target: arduino|micropython (overrides blockgen.toml)")
	cmd.Flags().Int("jobs", 0, "max parallel passes (0=auto)")
	cmd.Flags().Bool("no-cache", false, "disable the generation cache")
	cmd.Flags().String("cache-dir", "", "cache directory (default $XDG_CACHE_HOME/blockgen)")
	cmd.Flags().String("format", "pretty", "diagnostic format (pretty|json)")
	cmd.Flags().Bool("with-notes", false, "include diagnostic notes")
	cmd.Flags().Bool("no-info", false, "hide informational diagnostics")
	cmd.Flags().Bool("warnings-as-errors", false, "fail when any warning is reported")
}

// resolvePlan merges the manifest (if any) with command-line flags.
// Flags win.
func resolvePlan(cmd *cobra.Command, args []string) (*runPlan, error) {
	manifest, catalog, err := loadCatalog(cmd)
	if err != nil {
		return nil, err
	}
	plan := &runPlan{manifest: manifest, catalog: catalog}

	boardID, err := cmd.Flags().GetString("board")
	if err != nil {
		return nil, fmt.Errorf("failed to get board flag: %w", err)
	}
	targetID, err := cmd.Flags().GetString("target")
	if err != nil {
		return nil, fmt.Errorf("failed to get target flag: %w", err)
	}
	plan.jobs, err = cmd.Flags().GetInt("jobs")
	if err != nil {
		return nil, fmt.Errorf("failed to get jobs flag: %w", err)
	}
	noCache, err := cmd.Flags().GetBool("no-cache")
	if err != nil {
		return nil, fmt.Errorf("failed to get no-cache flag: %w", err)
	}
	cacheDir, err := cmd.Flags().GetString("cache-dir")
	if err != nil {
		return nil, fmt.Errorf("failed to get cache-dir flag: %w", err)
	}

	useCache := !noCache
	if manifest != nil {
		gen := manifest.Config.Generate
		if boardID == "" {
			boardID = gen.Board
		}
		if targetID == "" {
			targetID = gen.Target
		}
		if !cmd.Flags().Changed("jobs") {
			plan.jobs = gen.Jobs
		}
		useCache = useCache && gen.Cache
		plan.outDir = manifest.OutDir()
	}
	if boardID == "" {
		return nil, errors.New("no board: use --board or set [generate].board in blockgen.toml")
	}
	if targetID == "" {
		return nil, errors.New("no target: use --target or set [generate].target in blockgen.toml")
	}
	plan.board, err = plan.catalog.Lookup(boardID)
	if err != nil {
		return nil, err
	}
	plan.target = platform.Target(strings.ToLower(strings.TrimSpace(targetID)))
	if _, err := codegen.LookupTarget(plan.target); err != nil {
		return nil, err
	}
	if !plan.board.Supports(plan.target) {
		return nil, fmt.Errorf("%w: %s has no %s output", codegen.ErrUnsupportedBoard, plan.board.ID, plan.target)
	}

	switch {
	case len(args) > 0:
		plan.inputs = args
	case manifest != nil:
		plan.inputs, err = manifest.WorkspaceFiles()
		if err != nil {
			return nil, err
		}
	}
	if len(plan.inputs) == 0 {
		return nil, errNoInputs
	}
	if plan.outDir == "" {
		plan.outDir = project.DefaultOutDir
	}

	if useCache {
		if cacheDir != "" {
			plan.cache, err = cache.OpenDir(cacheDir)
		} else {
			plan.cache, err = cache.Open("blockgen")
		}
		if err != nil {
			// generation still works without a cache
			fmt.Fprintf(cmd.ErrOrStderr(), "cache disabled: %v\n", err)
			plan.cache = nil
		}
	}
	return plan, nil
}

// requests reads every input and prepares one request per workspace.
func (p *runPlan) requests(cmd *cobra.Command) ([]codegen.Request, error) {
	maxDiagnostics, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return nil, fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	buildTime, err := codegen.BuildTimeFromEnv()
	if err != nil {
		return nil, err
	}
	reqs := make([]codegen.Request, 0, len(p.inputs))
	for _, path := range p.inputs {
		src, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read workspace: %w", err)
		}
		reqs = append(reqs, codegen.Request{
			Name:           displayPath(path),
			Source:         src,
			Target:         p.target,
			Board:          p.board,
			Banner:         version.Banner(),
			BuildTime:      buildTime,
			MaxDiagnostics: maxDiagnostics,
			Cache:          p.cache,
		})
	}
	return reqs, nil
}

// run executes the passes, with the progress view when it applies.
func (p *runPlan) run(cmd *cobra.Command, title string) ([]codegen.Result, error) {
	reqs, err := p.requests(cmd)
	if err != nil {
		return nil, err
	}
	useTUI, err := shouldUseTUI(cmd, len(reqs))
	if err != nil {
		return nil, err
	}
	if useTUI {
		return runGenerateWithUI(cmd.Context(), title, reqs, p.jobs)
	}
	return codegen.GenerateAll(cmd.Context(), reqs, p.jobs)
}

// displayPath shortens path relative to the working directory.
func displayPath(path string) string {
	wd, err := os.Getwd()
	if err != nil {
		return path
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	if rel, err := filepath.Rel(wd, abs); err == nil && !strings.HasPrefix(rel, "..") {
		return rel
	}
	return path
}
