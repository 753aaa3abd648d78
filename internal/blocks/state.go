// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package blocks

import (
	"fmt"
	"path/filepath"
	"strings"
)

const (
	// startMarker opens a definition block.
	startMarker = "\t(primitive_def"
	// endMarker closes the open definition block.
	endMarker = "\t)"
	// defExt is appended to the block name to form the output filename.
	defExt = ".def"
)

// State is the scan state of an Extractor.
type State int

const (
	// Idle means no block is open; lines are not copied.
	Idle State = iota
	// InBlock means a block is open and each line is copied to its output.
	InBlock
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case InBlock:
		return "in-block"
	default:
		return "unknown"
	}
}

// lineKind classifies a line by the marker it starts with.
type lineKind int

const (
	bodyLine lineKind = iota
	startLine
	endLine
)

func classify(line string) lineKind {
	switch {
	case strings.HasPrefix(line, startMarker):
		return startLine
	case strings.HasPrefix(line, endMarker):
		return endLine
	default:
		return bodyLine
	}
}

// blockName returns the second whitespace-separated field of a start line.
// ok is false when the field is missing or cannot be used as a filename.
func blockName(line string) (name, reason string, ok bool) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return "", "definition start has no name", false
	}
	name = fields[1]
	if name == "." || name == ".." || strings.ContainsRune(name, '/') || strings.ContainsRune(name, filepath.Separator) {
		return "", fmt.Sprintf("definition name %q is not a valid filename", name), false
	}
	return name, "", true
}
