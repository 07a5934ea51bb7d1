package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/jward/apiscope"
	"github.com/jward/apiscope/internal/config"
	"github.com/jward/apiscope/internal/workspace"
)

var (
	flagWatch    bool
	flagDebounce time.Duration
	flagGoDirs   []string
)

var checkCmd = &cobra.Command{
	Use:   "check [path]",
	Short: "Check .api files for semantic errors",
	Long:  "Reports syntax errors, duplicate declarations, unresolved type references and rule findings. With --go-dir, also reports @handler names without a Go implementation.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCheck,
}

func init() {
	checkCmd.Flags().BoolVarP(&flagWatch, "watch", "w", false, "re-check on file changes")
	checkCmd.Flags().DurationVar(&flagDebounce, "debounce", 250*time.Millisecond, "watch debounce interval")
	checkCmd.Flags().StringSliceVar(&flagGoDirs, "go-dir", nil, "Go source directories to look up handlers in (repeatable)")
}

func runCheck(cmd *cobra.Command, args []string) error {
	target, info, err := resolveTarget(args)
	if err != nil {
		return outputError("check", err)
	}
	cfg, err := loadConfig(configStart(target, info))
	if err != nil {
		return outputError("check", err)
	}
	if !info.IsDir() && !workspace.IsSchemaFile(target) {
		return outputError("check", fmt.Errorf("not an .api file: %s", target))
	}
	goDirs := cfg.GoDirs
	for _, d := range flagGoDirs {
		abs, err := resolveFilePath(d)
		if err != nil {
			return outputError("check", err)
		}
		goDirs = append(goDirs, abs)
	}

	engine, err := newEngine(cfg, false)
	if err != nil {
		return outputError("check", err)
	}
	defer engine.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	run := func() (bool, error) {
		diags, err := checkTarget(ctx, engine, target, info.IsDir(), goDirs)
		if err != nil {
			return false, err
		}
		if err := outputResult(CLIResult{Command: "check", Results: diagnosticsToCLI(diags)}); err != nil {
			return false, err
		}
		return apiscope.HasErrors(diags), nil
	}

	if !flagWatch {
		failed, err := run()
		if err != nil {
			return outputError("check", err)
		}
		if failed {
			return errFindings
		}
		return nil
	}

	if _, err := run(); err != nil {
		return outputError("check", err)
	}
	return watchSchemaFiles(ctx, watchTargets(cfg, target, info.IsDir()), flagDebounce, func(changed []string) {
		fmt.Fprintf(os.Stderr, "\n%d file(s) changed, re-checking\n", len(changed))
		if _, err := run(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
	})
}

// checkTarget checks a single file or every schema file under a directory.
func checkTarget(ctx context.Context, engine *apiscope.Engine, target string, isDir bool, goDirs []string) ([]apiscope.Diagnostic, error) {
	paths := []string{target}
	if isDir {
		paths = schemaFilesUnder(engine, target)
	}
	diags, err := engine.Check(ctx, paths)
	if err != nil {
		return nil, err
	}
	if len(goDirs) > 0 {
		handlerDiags, err := engine.CheckHandlers(ctx, paths, goDirs)
		if err != nil {
			return nil, err
		}
		diags = append(diags, handlerDiags...)
	}
	return diags, nil
}

// schemaFilesUnder returns the content-root schema files inside dir. When
// dir is outside every content root it is listed on its own.
func schemaFilesUnder(engine *apiscope.Engine, dir string) []string {
	var out []string
	prefix := dir + string(filepath.Separator)
	for _, p := range engine.SchemaFiles() {
		if len(p) > len(prefix) && p[:len(prefix)] == prefix {
			out = append(out, p)
		}
	}
	if len(out) > 0 {
		return out
	}
	_ = filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() && path != dir && (d.Name()[0] == '.' || d.Name() == "vendor" || d.Name() == "node_modules") {
			return filepath.SkipDir
		}
		if !d.IsDir() && workspace.IsSchemaFile(path) {
			out = append(out, path)
		}
		return nil
	})
	return out
}

// watchTargets returns the directories to watch: the content roots, plus the
// target when it lies outside them.
func watchTargets(cfg *config.Config, target string, isDir bool) []string {
	if !isDir {
		target = filepath.Dir(target)
	}
	roots := append([]string(nil), cfg.ContentRoots...)
	for _, r := range roots {
		if target == r || len(target) > len(r) && target[:len(r)+1] == r+string(filepath.Separator) {
			return roots
		}
	}
	return append(roots, target)
}

func diagnosticsToCLI(diags []apiscope.Diagnostic) []CLIDiagnostic {
	out := make([]CLIDiagnostic, 0, len(diags))
	for _, d := range diags {
		out = append(out, CLIDiagnostic{
			Path:     d.Path,
			Line:     d.Line,
			Col:      d.Col,
			Severity: string(d.Severity),
			Code:     d.Code,
			Message:  d.Message,
		})
	}
	return out
}
