package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
)

var validFormats = []string{"json", "text"}

func validateFormat(format string) error {
	for _, f := range validFormats {
		if format == f {
			return nil
		}
	}
	return fmt.Errorf("invalid format %q: must be %s", format, strings.Join(validFormats, " or "))
}

// outputResult writes a CLIResult to stdout in the selected format.
func outputResult(result CLIResult) error {
	return writeResult(os.Stdout, flagFormat, result)
}

func writeResult(w io.Writer, format string, result CLIResult) error {
	if format == "text" {
		return writeResultText(w, result)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// outputError writes an error in the selected format and returns it so RunE
// can propagate it to Cobra. In JSON mode the error is written to stdout as a
// CLIResult envelope. In text mode it goes to stderr.
func outputError(command string, err error) error {
	errorHandled = true
	if flagFormat == "text" {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(CLIResult{Command: command, Error: err.Error()})
	return err
}

func writeResultText(w io.Writer, result CLIResult) error {
	switch v := result.Results.(type) {
	case []CLIDiagnostic:
		formatDiagnosticsText(w, v)
	case []CLILocation:
		formatLocationsText(w, v)
	case CLILocation:
		formatLocationsText(w, []CLILocation{v})
	case []CLIDuplicate:
		formatDuplicatesText(w, v)
	case []CLIImport:
		formatImportsText(w, v)
	case []CLIFile:
		formatFilesText(w, v)
	case []CLIDeclaration:
		formatDeclarationsText(w, v)
	case []CLIRoute:
		formatRoutesText(w, v)
	case []string:
		for _, s := range v {
			fmt.Fprintln(w, s)
		}
	case string:
		fmt.Fprintln(w, v)
	case nil:
	default:
		return fmt.Errorf("unsupported result type for text format: %T", v)
	}

	if result.TotalCount != nil {
		if shown := resultLen(result.Results); shown < *result.TotalCount {
			fmt.Fprintf(w, "\nShowing %d of %d results\n", shown, *result.TotalCount)
		}
	}
	return nil
}

// resultLen returns the length of a result slice, or 1 for a single value.
func resultLen(v any) int {
	switch r := v.(type) {
	case []CLIDiagnostic:
		return len(r)
	case []CLIDeclaration:
		return len(r)
	case []CLIFile:
		return len(r)
	case []CLIRoute:
		return len(r)
	case nil:
		return 0
	default:
		return 1
	}
}

// formatDiagnosticsText prints diagnostics in the compiler style
// "path:line:col: severity: message [code]".
func formatDiagnosticsText(w io.Writer, diags []CLIDiagnostic) {
	for _, d := range diags {
		fmt.Fprintf(w, "%s:%d:%d: %s: %s [%s]\n", d.Path, d.Line, d.Col, d.Severity, d.Message, d.Code)
	}
}

func formatLocationsText(w io.Writer, locs []CLILocation) {
	for _, loc := range locs {
		fmt.Fprintf(w, "%s:%d:%d\n", loc.File, loc.Line, loc.Col)
	}
}

func formatDuplicatesText(w io.Writer, dups []CLIDuplicate) {
	for _, d := range dups {
		fmt.Fprintf(w, "%s %q declared %d times\n", d.Kind, d.Name, d.Count)
		for _, s := range d.Sites {
			fmt.Fprintf(w, "  %s:%d:%d\n", s.File, s.Line, s.Col)
		}
		for _, f := range d.Files {
			fmt.Fprintf(w, "  %s\n", f)
		}
	}
}

func formatImportsText(w io.Writer, imports []CLIImport) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SOURCE\tMATCHES")
	for _, imp := range imports {
		matches := "-"
		if len(imp.Matches) > 0 {
			matches = strings.Join(imp.Matches, ", ")
		}
		fmt.Fprintf(tw, "%s\t%s\n", imp.Source, matches)
	}
	tw.Flush()
}

func formatFilesText(w io.Writer, files []CLIFile) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tPATH\tSYNTAX\tDECLS\tERRORS")
	for _, f := range files {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%d\n", f.ID, f.Path, f.Syntax, f.DeclCount, f.ErrorCount)
	}
	tw.Flush()
}

func formatDeclarationsText(w io.Writer, decls []CLIDeclaration) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tKIND\tFILE\tLINE")
	for _, d := range decls {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", d.Name, d.Kind, d.File, d.Line)
	}
	tw.Flush()
}

func formatRoutesText(w io.Writer, routes []CLIRoute) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SERVICE\tMETHOD\tPATH\tHANDLER\tREQUEST\tRESPONSE")
	for _, r := range routes {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.Service, strings.ToUpper(r.Method), r.Path, r.Handler, r.Request, r.Response)
	}
	tw.Flush()
}
