package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jward/apiscope"
	"github.com/jward/apiscope/internal/config"
	"github.com/jward/apiscope/rules"
)

var (
	flagConfig  string
	flagDB      string
	flagFormat  string
	flagVerbose bool
)

// errorHandled is set by outputError so main() doesn't double-print.
var errorHandled bool

// errFindings signals a check that reported errors; the diagnostics are
// already printed.
var errFindings = errors.New("check reported errors")

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errorHandled && !errors.Is(err, errFindings) {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "apiscope",
	Short:         "Semantic checks and index for .api service definitions",
	Long:          "apiscope resolves type references across .api imports, reports duplicate declarations and rule findings, and keeps a SQLite index for queries.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return validateFormat(flagFormat)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default: "+config.FileName+" in the working directory or a parent)")
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "database path (default: from config, or .apiscope.db next to it)")
	rootCmd.PersistentFlags().StringVar(&flagFormat, "format", "text", "output format: json|text")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "show rule script log output")

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(importsCmd)
	rootCmd.AddCommand(dupsCmd)
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(queryCmd)
}

// loadConfig returns the --config file, or the config found from start
// upward, with --db applied.
func loadConfig(start string) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if flagConfig != "" {
		cfg, err = config.Load(flagConfig)
	} else {
		cfg, err = config.Find(start)
	}
	if err != nil {
		return nil, err
	}
	if flagDB != "" {
		db, err := filepath.Abs(flagDB)
		if err != nil {
			return nil, fmt.Errorf("resolving --db: %w", err)
		}
		cfg.DB = db
	}
	return cfg, nil
}

// engineOptions maps a config to Engine options. The built-in rules always
// run; a configured rules directory adds to them.
func engineOptions(cfg *config.Config, withStore bool) []apiscope.Option {
	var logOut io.Writer = io.Discard
	if flagVerbose {
		logOut = os.Stderr
	}
	opts := []apiscope.Option{
		apiscope.WithContentRoots(cfg.ContentRoots...),
		apiscope.WithSkipDirs(cfg.SkipDirs...),
		apiscope.WithImportMatch(cfg.ImportMatch),
		apiscope.WithMaxDepth(cfg.MaxDepth),
		apiscope.WithRules(rules.FS),
		apiscope.WithLogOutput(logOut),
	}
	if cfg.RulesDir != "" {
		opts = append(opts, apiscope.WithRulesDir(cfg.RulesDir))
	}
	if withStore {
		opts = append(opts, apiscope.WithStore(cfg.DB))
	}
	return opts
}

func newEngine(cfg *config.Config, withStore bool) (*apiscope.Engine, error) {
	e, err := apiscope.New(engineOptions(cfg, withStore)...)
	if err != nil {
		return nil, fmt.Errorf("creating engine: %w", err)
	}
	return e, nil
}

// resolveFilePath converts a file argument to an absolute path.
func resolveFilePath(file string) (string, error) {
	if filepath.IsAbs(file) {
		return filepath.Clean(file), nil
	}
	abs, err := filepath.Abs(file)
	if err != nil {
		return "", fmt.Errorf("resolving file path %q: %w", file, err)
	}
	return abs, nil
}

// resolveTarget returns the absolute path of a file or directory argument,
// "." when none is given.
func resolveTarget(args []string) (string, os.FileInfo, error) {
	target := "."
	if len(args) > 0 {
		target = args[0]
	}
	abs, err := resolveFilePath(target)
	if err != nil {
		return "", nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", nil, fmt.Errorf("not found: %s", abs)
	}
	return abs, info, nil
}

// configStart is the directory the config search starts from for a target.
func configStart(target string, info os.FileInfo) string {
	if info.IsDir() {
		return target
	}
	return filepath.Dir(target)
}
