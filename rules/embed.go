// Package rules holds the built-in rule scripts run by apiscope check.
package rules

import "embed"

// FS contains the built-in rule scripts.
//
//go:embed *.risor
var FS embed.FS
