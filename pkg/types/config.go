// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// ExtractionConfig holds settings for a definition extraction run.
type ExtractionConfig struct {
	// SourceDir is the directory listed for input files (default ".").
	SourceDir string `json:"source_dir" yaml:"source_dir"`

	// Extension is the filename suffix an input file must end with.
	Extension string `json:"extension" yaml:"extension"`

	// Glob optionally narrows the inputs further (e.g. "core_*").
	Glob string `json:"glob,omitempty" yaml:"glob,omitempty"`

	// OutputDir receives one <name>.def file per definition. It must exist.
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	// Strict rejects nested starts, stray ends, and unterminated
	// definitions instead of tolerating them.
	Strict bool `json:"strict" yaml:"strict"`

	// KeepGoing continues with the next input file after a failure.
	KeepGoing bool `json:"keep_going" yaml:"keep_going"`

	// Quiet suppresses progress lines.
	Quiet bool `json:"quiet" yaml:"quiet"`

	// ManifestPath, when set, receives a YAML record of the run.
	ManifestPath string `json:"manifest,omitempty" yaml:"manifest,omitempty"`

	// CatalogPath, when set, is the SQLite catalog the run is recorded in.
	CatalogPath string `json:"catalog,omitempty" yaml:"catalog,omitempty"`
}
