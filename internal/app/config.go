// Package app holds runtime configuration for the pricescan tool: the
// extraction settings plus CLI-level concerns, loadable from a YAML/JSON
// file with env fallbacks. Precedence is flags > env > file > defaults.
package app

import (
	"github.com/hyperifyio/pricescan/internal/pipeline"
)

// Config holds runtime configuration for the application.
type Config struct {
	// Input
	InputPath string // HTML document or text file; "-" for stdin
	Text      string // inline text input, bypasses InputPath
	Host      string // site identity for handler lookup

	// Extraction settings handed to the pipeline.
	Settings pipeline.Settings

	// Behavior
	Verbose bool
}
