// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Definition describes one primitive definition block copied out of an
// input file.
type Definition struct {
	// Name is the second field of the start line (e.g. "foo" for
	// "\t(primitive_def foo args)").
	Name string `json:"name" yaml:"name"`

	// Source is the input file the block was read from.
	Source string `json:"source" yaml:"source"`

	// Output is the path of the written <name>.def file.
	Output string `json:"output" yaml:"output"`

	// StartLine is the 1-based line number of the start marker.
	StartLine int `json:"start_line" yaml:"start_line"`

	// EndLine is the 1-based line number of the end marker, or 0 when the
	// block was not terminated.
	EndLine int `json:"end_line,omitempty" yaml:"end_line,omitempty"`

	// Lines is the number of lines written to Output.
	Lines int `json:"lines" yaml:"lines"`

	// Closed reports whether the block reached an end marker.
	Closed bool `json:"closed" yaml:"closed"`
}
