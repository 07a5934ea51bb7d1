package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/jward/apiscope"
	"github.com/jward/apiscope/internal/resolve"
	"github.com/jward/apiscope/internal/syntax"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <file> <type>",
	Short: "Find where a type name used in a file is declared",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, file, err := fileEngine(args[0])
		if err != nil {
			return outputError("resolve", err)
		}
		defer engine.Close()

		decl, ok, err := engine.ResolveName(file, args[1])
		if err != nil {
			return outputError("resolve", err)
		}
		if !ok {
			return outputError("resolve", fmt.Errorf("type %q is not declared in %s or its imports", args[1], file))
		}
		return outputResult(CLIResult{Command: "resolve", Results: locationOf(decl)})
	},
}

var importsCmd = &cobra.Command{
	Use:   "imports <file>",
	Short: "List a file's imports and the files each one matches",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, file, err := fileEngine(args[0])
		if err != nil {
			return outputError("imports", err)
		}
		defer engine.Close()

		imports, err := engine.Imports(file)
		if err != nil {
			return outputError("imports", err)
		}
		roots, err := engine.RootsImporting(file)
		if err != nil {
			return outputError("imports", err)
		}

		var results []CLIImport
		for _, src := range imports.Sorted() {
			matches := []string{}
			for _, r := range roots {
				if resolve.SuffixMatcher(resolve.ImportSet{src: struct{}{}}).Match(r.Tree().Path()) {
					matches = append(matches, r.Tree().Path())
				}
			}
			results = append(results, CLIImport{Source: src, Matches: matches})
		}
		return outputResult(CLIResult{Command: "imports", Results: results})
	},
}

var dupsCmd = &cobra.Command{
	Use:   "dups <file>",
	Short: "List duplicate type, handler and route declarations in a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, file, err := fileEngine(args[0])
		if err != nil {
			return outputError("dups", err)
		}
		defer engine.Close()

		dups, err := engine.Duplicates(file)
		if err != nil {
			return outputError("dups", err)
		}
		results := []CLIDuplicate{}
		for _, kind := range resolve.DeclarationKinds {
			for _, g := range dups[kind] {
				d := CLIDuplicate{Kind: kind.String(), Name: g.Key.Name, Count: len(g.Nodes)}
				for _, n := range g.Nodes {
					d.Sites = append(d.Sites, locationOf(n))
				}
				results = append(results, d)
			}
		}
		sort.SliceStable(results, func(i, j int) bool { return results[i].Name < results[j].Name })
		return outputResult(CLIResult{Command: "dups", Results: results})
	},
}

// fileEngine builds an Engine for the project containing file.
func fileEngine(arg string) (*apiscope.Engine, string, error) {
	file, info, err := resolveTarget([]string{arg})
	if err != nil {
		return nil, "", err
	}
	if info.IsDir() {
		return nil, "", fmt.Errorf("not a file: %s", file)
	}
	cfg, err := loadConfig(configStart(file, info))
	if err != nil {
		return nil, "", err
	}
	engine, err := newEngine(cfg, false)
	if err != nil {
		return nil, "", err
	}
	return engine, file, nil
}

func locationOf(n syntax.Node) CLILocation {
	pos := n.Pos()
	return CLILocation{
		File: n.Tree().Path(),
		Line: pos.Line,
		Col:  pos.Col,
		Kind: n.Kind().String(),
		Name: n.Key(),
	}
}
