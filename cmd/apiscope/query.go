package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jward/apiscope"
)

var (
	flagLimit   int
	flagOffset  int
	flagSort    string
	flagOrder   string
	flagKinds   []string
	flagName    string
	flagPrefix  string
	flagService string
	flagMethod  string
	flagHandler string
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query the index",
	Long:  "Run queries against an indexed project. Line and column numbers are 1-based.",
}

func init() {
	queryCmd.PersistentFlags().IntVar(&flagLimit, "limit", 50, "pagination limit (max 500)")
	queryCmd.PersistentFlags().IntVar(&flagOffset, "offset", 0, "pagination offset")

	declsCmd.Flags().StringVar(&flagSort, "sort", "name", "sort field: name|kind|file")
	declsCmd.Flags().StringVar(&flagOrder, "order", "asc", "sort order: asc|desc")
	declsCmd.Flags().StringSliceVar(&flagKinds, "kind", nil, "declaration kinds: structNameId|handlerValue|httpRoute")
	declsCmd.Flags().StringVar(&flagName, "name", "", "exact declaration name")
	declsCmd.Flags().StringVar(&flagPrefix, "path-prefix", "", "only files under this directory")

	routesCmd.Flags().StringVar(&flagService, "service", "", "service name")
	routesCmd.Flags().StringVar(&flagMethod, "method", "", "HTTP method")
	routesCmd.Flags().StringVar(&flagHandler, "handler", "", "handler name")

	queryCmd.AddCommand(filesCmd)
	queryCmd.AddCommand(declsCmd)
	queryCmd.AddCommand(depsCmd)
	queryCmd.AddCommand(dependentsCmd)
	queryCmd.AddCommand(affectedCmd)
	queryCmd.AddCommand(routesCmd)
	queryCmd.AddCommand(queryDupsCmd)
}

// openQuery opens the index for the project around the working directory.
func openQuery() (*apiscope.Engine, *apiscope.QueryBuilder, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, nil, fmt.Errorf("getting cwd: %w", err)
	}
	cfg, err := loadConfig(cwd)
	if err != nil {
		return nil, nil, err
	}
	if _, err := os.Stat(cfg.DB); os.IsNotExist(err) {
		return nil, nil, fmt.Errorf("database not found: %s (run 'apiscope index' first)", cfg.DB)
	}
	engine, err := newEngine(cfg, true)
	if err != nil {
		return nil, nil, err
	}
	return engine, engine.Query(), nil
}

// buildPagination creates a Pagination from CLI flags.
func buildPagination() apiscope.Pagination {
	return apiscope.Pagination{Limit: flagLimit, Offset: flagOffset}
}

// buildSort creates a Sort from CLI flags.
func buildSort() apiscope.Sort {
	var field apiscope.SortField
	switch flagSort {
	case "kind":
		field = apiscope.SortByKind
	case "file":
		field = apiscope.SortByFile
	default:
		field = apiscope.SortByName
	}
	order := apiscope.Asc
	if flagOrder == "desc" {
		order = apiscope.Desc
	}
	return apiscope.Sort{Field: field, Order: order}
}

func filesToCLI(files []*apiscope.File) []CLIFile {
	out := make([]CLIFile, 0, len(files))
	for _, f := range files {
		out = append(out, CLIFile{
			ID:         f.ID,
			Path:       f.Path,
			Syntax:     f.Syntax,
			DeclCount:  f.DeclCount,
			ErrorCount: f.ErrorCount,
		})
	}
	return out
}

var filesCmd = &cobra.Command{
	Use:   "files",
	Short: "List indexed files",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, q, err := openQuery()
		if err != nil {
			return outputError("files", err)
		}
		defer engine.Close()

		files, err := q.Files()
		if err != nil {
			return outputError("files", err)
		}
		return outputResult(CLIResult{Command: "files", Results: filesToCLI(files)})
	},
}

var declsCmd = &cobra.Command{
	Use:   "decls",
	Short: "List indexed declarations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, q, err := openQuery()
		if err != nil {
			return outputError("decls", err)
		}
		defer engine.Close()

		filter := apiscope.DeclarationFilter{Kinds: flagKinds}
		if flagName != "" {
			filter.Name = &flagName
		}
		if flagPrefix != "" {
			prefix, err := resolveFilePath(flagPrefix)
			if err != nil {
				return outputError("decls", err)
			}
			filter.PathPrefix = &prefix
		}
		res, err := q.Declarations(filter, buildSort(), buildPagination())
		if err != nil {
			return outputError("decls", err)
		}
		decls := make([]CLIDeclaration, 0, len(res.Items))
		for _, d := range res.Items {
			decls = append(decls, CLIDeclaration{
				ID: d.ID, Name: d.Name, Kind: d.Kind, File: d.FilePath, Line: d.Line, Col: d.Col,
			})
		}
		return outputResult(CLIResult{Command: "decls", Results: decls, TotalCount: &res.TotalCount})
	},
}

// fileQueryCmd builds a query command taking one file and returning files.
func fileQueryCmd(use, short string, run func(q *apiscope.QueryBuilder, path string) ([]*apiscope.File, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <file>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := resolveFilePath(args[0])
			if err != nil {
				return outputError(use, err)
			}
			engine, q, err := openQuery()
			if err != nil {
				return outputError(use, err)
			}
			defer engine.Close()

			files, err := run(q, path)
			if err != nil {
				return outputError(use, err)
			}
			return outputResult(CLIResult{Command: use, Results: filesToCLI(files)})
		},
	}
}

var depsCmd = fileQueryCmd("deps", "List the indexed files a file imports",
	func(q *apiscope.QueryBuilder, path string) ([]*apiscope.File, error) { return q.Dependencies(path) })

var dependentsCmd = fileQueryCmd("dependents", "List the indexed files that import a file",
	func(q *apiscope.QueryBuilder, path string) ([]*apiscope.File, error) { return q.Dependents(path) })

var affectedCmd = fileQueryCmd("affected", "List every file that reaches a file through imports",
	func(q *apiscope.QueryBuilder, path string) ([]*apiscope.File, error) { return q.Affected(path) })

var routesCmd = &cobra.Command{
	Use:   "routes",
	Short: "List indexed service routes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, q, err := openQuery()
		if err != nil {
			return outputError("routes", err)
		}
		defer engine.Close()

		routes, err := q.Routes(apiscope.RouteFilter{Service: flagService, Method: flagMethod, Handler: flagHandler})
		if err != nil {
			return outputError("routes", err)
		}
		files, err := q.Files()
		if err != nil {
			return outputError("routes", err)
		}
		paths := make(map[int64]string, len(files))
		for _, f := range files {
			paths[f.ID] = f.Path
		}
		out := make([]CLIRoute, 0, len(routes))
		for _, r := range routes {
			out = append(out, CLIRoute{
				Service:  r.Service,
				Method:   r.Method,
				Path:     r.Path,
				Handler:  r.Handler,
				Request:  r.Request,
				Response: r.Response,
				File:     paths[r.FileID],
				Line:     r.Line,
			})
		}
		return outputResult(CLIResult{Command: "routes", Results: out})
	},
}

var queryDupsCmd = &cobra.Command{
	Use:   "dups",
	Short: "List names declared more than once across the index",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, q, err := openQuery()
		if err != nil {
			return outputError("dups", err)
		}
		defer engine.Close()

		dups, err := q.DuplicateDeclarations()
		if err != nil {
			return outputError("dups", err)
		}
		out := make([]CLIDuplicate, 0, len(dups))
		for _, d := range dups {
			out = append(out, CLIDuplicate{Kind: d.Kind, Name: d.Name, Count: d.Count, Files: d.Files})
		}
		return outputResult(CLIResult{Command: "dups", Results: out})
	},
}
