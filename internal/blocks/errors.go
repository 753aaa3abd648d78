// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package blocks

import "fmt"

// FileSystemError reports a failure reading the input file or creating,
// writing, or closing an output file.
type FileSystemError struct {
	Op   string
	Path string
	Err  error
}

func (e *FileSystemError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FileSystemError) Unwrap() error {
	return e.Err
}

// MalformedInputError reports a start or end marker that cannot be honoured.
// Some conditions are only reported in strict mode; see Extractor.
type MalformedInputError struct {
	Path   string
	Line   int
	Reason string
}

func (e *MalformedInputError) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.Path, e.Line, e.Reason)
}
