package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var flagForce bool

var indexCmd = &cobra.Command{
	Use:   "index [path]",
	Short: "Index .api files into the SQLite database",
	Long:  "Parses every .api file under the content roots (or path) and writes declarations, imports and routes to the database. Unchanged files are skipped.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runIndex,
}

func init() {
	indexCmd.Flags().BoolVar(&flagForce, "force", false, "delete database and reindex from scratch")
}

func runIndex(cmd *cobra.Command, args []string) error {
	start := time.Now()

	target, info, err := resolveTarget(args)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("not a directory: %s", target)
	}
	cfg, err := loadConfig(target)
	if err != nil {
		return err
	}

	if flagForce {
		if err := os.Remove(cfg.DB); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("removing database for --force: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Cleared database: %s\n", cfg.DB)
	}

	engine, err := newEngine(cfg, true)
	if err != nil {
		return err
	}
	defer engine.Close()

	ctx := context.Background()
	roots := cfg.ContentRoots
	if len(args) > 0 {
		roots = []string{target}
	}
	for _, root := range roots {
		if err := engine.IndexDirectory(ctx, root); err != nil {
			return fmt.Errorf("indexing: %w", err)
		}
	}

	files, err := engine.Query().Files()
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Indexed %d file(s) in %s\n", len(files), time.Since(start).Round(time.Millisecond))
	fmt.Fprintf(os.Stderr, "Database: %s\n", cfg.DB)
	return nil
}
