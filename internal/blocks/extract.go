// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package blocks copies primitive definition blocks out of text files.
// A block starts at a line beginning "\t(primitive_def <name>" and runs up to
// and including the next line beginning "\t)". Each block is written
// verbatim to <outDir>/<name>.def.
package blocks

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/afero"

	"github.com/pdiddy/pdef-extract/pkg/types"
)

// progressInterval is the number of input lines between "Line" progress
// reports. Tests lower it.
var progressInterval = 1_000_000

// Extractor scans input files and writes one output file per block.
//
// In the default lenient mode, malformed marker sequences are tolerated the
// way the line scan naturally handles them: a start marker inside an open
// block is copied into that block before the new block is opened, an end
// marker outside a block is ignored, and a block still open at end of input
// keeps everything read so far. In strict mode each of these returns a
// *MalformedInputError. A start line without a usable name is always an
// error.
type Extractor struct {
	fs        afero.Fs
	strict    bool
	keepGoing bool
	w         io.Writer
}

// New returns an Extractor that reads and writes through fs and reports
// progress to w. A nil w or cfg.Quiet discards progress.
func New(fs afero.Fs, cfg types.ExtractionConfig, w io.Writer) *Extractor {
	if w == nil || cfg.Quiet {
		w = io.Discard
	}
	return &Extractor{
		fs:        fs,
		strict:    cfg.Strict,
		keepGoing: cfg.KeepGoing,
		w:         w,
	}
}

// Result holds the outcome of scanning one input file.
type Result struct {
	Source      string
	Lines       int
	Definitions []types.Definition
}

// Unterminated returns the number of blocks that reached end of input (or
// an error) without an end marker.
func (r Result) Unterminated() int {
	n := 0
	for _, d := range r.Definitions {
		if !d.Closed {
			n++
		}
	}
	return n
}

// ExtractFile opens inputPath and extracts its blocks into outDir. The
// output directory is not created; if it does not exist the first block
// fails with a *FileSystemError.
func (e *Extractor) ExtractFile(inputPath, outDir string) (Result, error) {
	f, err := e.fs.Open(inputPath)
	if err != nil {
		return Result{Source: inputPath}, &FileSystemError{Op: "open", Path: inputPath, Err: err}
	}
	defer f.Close()

	return e.Extract(f, inputPath, outDir)
}

// Extract scans r, named source in reports and errors, and extracts its
// blocks into outDir. Output written before an error is left in place.
func (e *Extractor) Extract(r io.Reader, source, outDir string) (Result, error) {
	if outDir == "" {
		outDir = "."
	}
	s := &scan{
		e:      e,
		source: source,
		outDir: outDir,
		result: Result{Source: source},
	}

	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if line != "" {
			if serr := s.step(line); serr != nil {
				s.abort()
				return s.result, serr
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			s.abort()
			return s.result, &FileSystemError{Op: "read", Path: source, Err: err}
		}
	}

	err := s.finish()
	return s.result, err
}

// scan is the per-file state of one Extract call.
type scan struct {
	e      *Extractor
	source string
	outDir string
	state  State
	out    *output
	result Result
}

// step processes one line. The echo check uses the state left by the
// previous line, so an end marker is copied before the block is released.
func (s *scan) step(line string) error {
	s.result.Lines++
	if s.result.Lines%progressInterval == 0 {
		fmt.Fprintf(s.e.w, "Line %s\n", progressLabel(s.result.Lines))
	}

	if s.state == InBlock {
		if err := s.out.write(line); err != nil {
			return err
		}
	}

	switch classify(line) {
	case startLine:
		return s.begin(line)
	case endLine:
		return s.end()
	}
	return nil
}

func (s *scan) begin(line string) error {
	if s.state == InBlock && s.e.strict {
		return s.malformed(fmt.Sprintf("definition start while %q is still open", s.out.def.Name))
	}
	name, reason, ok := blockName(line)
	if !ok {
		return s.malformed(reason)
	}
	if s.out != nil {
		if err := s.release(); err != nil {
			return err
		}
	}

	fmt.Fprintf(s.e.w, "Processing def: %s\n", name)
	out, err := s.open(name)
	if err != nil {
		return err
	}
	s.out = out
	s.state = InBlock
	return s.out.write(line)
}

func (s *scan) end() error {
	if s.state == Idle {
		if s.e.strict {
			return s.malformed("definition end with no open definition")
		}
		return nil
	}
	s.out.def.EndLine = s.result.Lines
	s.out.def.Closed = true
	s.state = Idle
	return s.release()
}

// finish releases a block left open at end of input.
func (s *scan) finish() error {
	if s.out == nil {
		return nil
	}
	name := s.out.def.Name
	if err := s.release(); err != nil {
		return err
	}
	if s.e.strict {
		return s.malformed(fmt.Sprintf("definition %q not terminated before end of input", name))
	}
	return nil
}

// abort releases the open block after an error, ignoring close failures.
func (s *scan) abort() {
	if s.out != nil {
		_ = s.release()
	}
}

// release flushes and closes the open output and records its definition.
func (s *scan) release() error {
	out := s.out
	s.out = nil
	s.state = Idle
	s.result.Definitions = append(s.result.Definitions, out.def)
	return out.close()
}

func (s *scan) open(name string) (*output, error) {
	path := filepath.Join(s.outDir, name+defExt)

	ok, err := afero.DirExists(s.e.fs, s.outDir)
	if err == nil && !ok {
		err = os.ErrNotExist
	}
	if err != nil {
		return nil, &FileSystemError{Op: "create", Path: path, Err: err}
	}

	f, err := s.e.fs.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, &FileSystemError{Op: "create", Path: path, Err: err}
	}
	return &output{
		def: types.Definition{
			Name:      name,
			Source:    s.source,
			Output:    path,
			StartLine: s.result.Lines,
		},
		f:  f,
		bw: bufio.NewWriter(f),
	}, nil
}

func (s *scan) malformed(reason string) error {
	return &MalformedInputError{Path: s.source, Line: s.result.Lines, Reason: reason}
}

// output is the file of the currently open block.
type output struct {
	def types.Definition
	f   afero.File
	bw  *bufio.Writer
}

func (o *output) write(line string) error {
	if _, err := o.bw.WriteString(line); err != nil {
		return &FileSystemError{Op: "write", Path: o.def.Output, Err: err}
	}
	o.def.Lines++
	return nil
}

func (o *output) close() error {
	flushErr := o.bw.Flush()
	closeErr := o.f.Close()
	if flushErr != nil {
		return &FileSystemError{Op: "write", Path: o.def.Output, Err: flushErr}
	}
	if closeErr != nil {
		return &FileSystemError{Op: "close", Path: o.def.Output, Err: closeErr}
	}
	return nil
}

// progressLabel renders whole millions as "<n>M", like "Line 3M".
func progressLabel(n int) string {
	if n%1_000_000 == 0 {
		return strconv.Itoa(n/1_000_000) + "M"
	}
	return strconv.Itoa(n)
}
