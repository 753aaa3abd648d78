// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package blocks

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/pdef-extract/pkg/types"
)

const outDir = "/tmp/out"

// setupFS returns an in-memory filesystem holding input at /src/input.txt
// and an empty output directory.
func setupFS(t *testing.T, input string) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll(outDir, 0o755))
	require.NoError(t, afero.WriteFile(fs, "/src/input.txt", []byte(input), 0o644))
	return fs
}

// defFiles returns the contents of every .def file in dir keyed by name.
func defFiles(t *testing.T, fs afero.Fs, dir string) map[string]string {
	t.Helper()
	entries, err := afero.ReadDir(fs, dir)
	require.NoError(t, err)
	got := make(map[string]string)
	for _, e := range entries {
		if !strings.HasSuffix(e.Name(), ".def") {
			continue
		}
		data, err := afero.ReadFile(fs, filepath.Join(dir, e.Name()))
		require.NoError(t, err)
		got[strings.TrimSuffix(e.Name(), ".def")] = string(data)
	}
	return got
}

func TestExtractFile_SingleBlock(t *testing.T) {
	input := "\t(primitive_def foo args)\n\tbody-line\n\t)\n"
	fs := setupFS(t, input)

	var log bytes.Buffer
	res, err := New(fs, types.ExtractionConfig{}, &log).ExtractFile("/src/input.txt", outDir)
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"foo": input}, defFiles(t, fs, outDir))
	assert.Equal(t, 3, res.Lines)
	require.Len(t, res.Definitions, 1)
	assert.Equal(t, types.Definition{
		Name:      "foo",
		Source:    "/src/input.txt",
		Output:    "/tmp/out/foo.def",
		StartLine: 1,
		EndLine:   3,
		Lines:     3,
		Closed:    true,
	}, res.Definitions[0])
	assert.Equal(t, 0, res.Unterminated())
	assert.Contains(t, log.String(), "Processing def: foo\n")
}

func TestExtract(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		strict   bool
		want     map[string]string
		wantDefs int
		wantOpen int
		wantLine int // line of the MalformedInputError, 0 for success
	}{
		{
			name:  "no markers creates nothing",
			input: "header\n\tsomething else\n  (primitive_def indented\n",
			want:  map[string]string{},
		},
		{
			name:     "interior lines copied with both markers",
			input:    "pre\n\t(primitive_def p1 x)\n a\n b\n c\n\t)\npost\n",
			want:     map[string]string{"p1": "\t(primitive_def p1 x)\n a\n b\n c\n\t)\n"},
			wantDefs: 1,
		},
		{
			name: "two consecutive blocks stay separate",
			input: "\t(primitive_def alpha args)\n one\n\t)\n" +
				"between\n" +
				"\t(primitive_def beta args)\n two\n\t)\n",
			want: map[string]string{
				"alpha": "\t(primitive_def alpha args)\n one\n\t)\n",
				"beta":  "\t(primitive_def beta args)\n two\n\t)\n",
			},
			wantDefs: 2,
		},
		{
			name:     "name token keeps no line terminator",
			input:    "\t(primitive_def bare\n\t)\n",
			want:     map[string]string{"bare": "\t(primitive_def bare\n\t)\n"},
			wantDefs: 1,
		},
		{
			name:     "doubly indented close paren is body",
			input:    "\t(primitive_def nest\n\t\t(inner\n\t\t)\n\t)\n",
			want:     map[string]string{"nest": "\t(primitive_def nest\n\t\t(inner\n\t\t)\n\t)\n"},
			wantDefs: 1,
		},
		{
			name:     "crlf terminators preserved",
			input:    "\t(primitive_def win\r\n body\r\n\t)\r\n",
			want:     map[string]string{"win": "\t(primitive_def win\r\n body\r\n\t)\r\n"},
			wantDefs: 1,
		},
		{
			name:     "last line without newline",
			input:    "\t(primitive_def tail\n body\n\t)",
			want:     map[string]string{"tail": "\t(primitive_def tail\n body\n\t)"},
			wantDefs: 1,
		},
		{
			name: "duplicate names overwrite",
			input: "\t(primitive_def dup\n first\n\t)\n" +
				"\t(primitive_def dup\n second\n\t)\n",
			want:     map[string]string{"dup": "\t(primitive_def dup\n second\n\t)\n"},
			wantDefs: 2,
		},
		{
			name:     "unterminated block keeps content",
			input:    "\t(primitive_def open\n a\n b\n",
			want:     map[string]string{"open": "\t(primitive_def open\n a\n b\n"},
			wantDefs: 1,
			wantOpen: 1,
		},
		{
			name:     "unterminated block rejected in strict mode",
			input:    "\t(primitive_def open\n a\n b\n",
			strict:   true,
			want:     map[string]string{"open": "\t(primitive_def open\n a\n b\n"},
			wantDefs: 1,
			wantOpen: 1,
			wantLine: 3,
		},
		{
			name:  "nested start copied into the open block",
			input: "\t(primitive_def a\n x\n\t(primitive_def b\n y\n\t)\n",
			want: map[string]string{
				"a": "\t(primitive_def a\n x\n\t(primitive_def b\n",
				"b": "\t(primitive_def b\n y\n\t)\n",
			},
			wantDefs: 2,
			wantOpen: 1,
		},
		{
			name:     "nested start rejected in strict mode",
			input:    "\t(primitive_def a\n x\n\t(primitive_def b\n y\n\t)\n",
			strict:   true,
			want:     map[string]string{"a": "\t(primitive_def a\n x\n\t(primitive_def b\n"},
			wantDefs: 1,
			wantOpen: 1,
			wantLine: 3,
		},
		{
			name:  "stray end ignored",
			input: "\t)\nfoo\n",
			want:  map[string]string{},
		},
		{
			name:     "stray end rejected in strict mode",
			input:    "foo\n\t)\n",
			strict:   true,
			want:     map[string]string{},
			wantLine: 2,
		},
		{
			name:     "start without name rejected",
			input:    "ok\n\t(primitive_def\n\t)\n",
			want:     map[string]string{},
			wantLine: 2,
		},
		{
			name:     "name with path separator rejected",
			input:    "\t(primitive_def ../escape\n\t)\n",
			want:     map[string]string{},
			wantLine: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := setupFS(t, tt.input)
			e := New(fs, types.ExtractionConfig{Strict: tt.strict}, nil)

			res, err := e.Extract(strings.NewReader(tt.input), "input.txt", outDir)
			if tt.wantLine != 0 {
				var merr *MalformedInputError
				require.ErrorAs(t, err, &merr)
				assert.Equal(t, "input.txt", merr.Path)
				assert.Equal(t, tt.wantLine, merr.Line)
			} else {
				require.NoError(t, err)
			}

			assert.Equal(t, tt.want, defFiles(t, fs, outDir))
			assert.Len(t, res.Definitions, tt.wantDefs)
			assert.Equal(t, tt.wantOpen, res.Unterminated())
		})
	}
}

func TestExtract_LineCounts(t *testing.T) {
	for _, n := range []int{0, 1, 5, 100} {
		var b strings.Builder
		b.WriteString("\t(primitive_def counted\n")
		for i := 0; i < n; i++ {
			b.WriteString(" body\n")
		}
		b.WriteString("\t)\n")

		fs := setupFS(t, b.String())
		res, err := New(fs, types.ExtractionConfig{}, nil).ExtractFile("/src/input.txt", outDir)
		require.NoError(t, err)
		require.Len(t, res.Definitions, 1)
		assert.Equal(t, n+2, res.Definitions[0].Lines)
		assert.Equal(t, n+2, res.Definitions[0].EndLine)

		data, err := afero.ReadFile(fs, filepath.Join(outDir, "counted.def"))
		require.NoError(t, err)
		assert.Equal(t, n+2, strings.Count(string(data), "\n"))
	}
}

func TestExtractFile_Idempotent(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "defs")
	require.NoError(t, os.Mkdir(out, 0o755))
	input := filepath.Join(dir, "prims.txt")
	content := "\t(primitive_def alpha args)\n one\n\t)\n\t(primitive_def beta args)\n two\n\t)\n"
	require.NoError(t, os.WriteFile(input, []byte(content), 0o644))

	fs := afero.NewOsFs()
	e := New(fs, types.ExtractionConfig{}, nil)

	_, err := e.ExtractFile(input, out)
	require.NoError(t, err)
	first := defFiles(t, fs, out)

	_, err = e.ExtractFile(input, out)
	require.NoError(t, err)
	assert.Equal(t, first, defFiles(t, fs, out))
	assert.Equal(t, map[string]string{
		"alpha": "\t(primitive_def alpha args)\n one\n\t)\n",
		"beta":  "\t(primitive_def beta args)\n two\n\t)\n",
	}, first)
}

func TestExtractFile_MissingOutputDir(t *testing.T) {
	fs := afero.NewMemMapFs()
	input := "\t(primitive_def foo\n\t)\n"
	require.NoError(t, afero.WriteFile(fs, "/src/input.txt", []byte(input), 0o644))

	_, err := New(fs, types.ExtractionConfig{}, nil).ExtractFile("/src/input.txt", "/missing")

	var fserr *FileSystemError
	require.ErrorAs(t, err, &fserr)
	assert.Equal(t, "create", fserr.Op)
	assert.Equal(t, "/missing/foo.def", fserr.Path)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestExtractFile_MissingOutputDirWithoutBlocks(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/src/input.txt", []byte("no blocks\n"), 0o644))

	res, err := New(fs, types.ExtractionConfig{}, nil).ExtractFile("/src/input.txt", "/missing")
	require.NoError(t, err)
	assert.Empty(t, res.Definitions)
}

func TestExtractFile_MissingInput(t *testing.T) {
	fs := afero.NewMemMapFs()

	res, err := New(fs, types.ExtractionConfig{}, nil).ExtractFile("/src/nope.txt", outDir)

	var fserr *FileSystemError
	require.ErrorAs(t, err, &fserr)
	assert.Equal(t, "open", fserr.Op)
	assert.Equal(t, "/src/nope.txt", res.Source)
}

func TestExtract_Progress(t *testing.T) {
	old := progressInterval
	progressInterval = 2
	t.Cleanup(func() { progressInterval = old })

	input := "x\n\t(primitive_def foo\n y\n\t)\nz\n"
	fs := setupFS(t, input)

	var log bytes.Buffer
	_, err := New(fs, types.ExtractionConfig{}, &log).Extract(strings.NewReader(input), "input.txt", outDir)
	require.NoError(t, err)

	assert.Equal(t, "Line 2\nProcessing def: foo\nLine 4\n", log.String())
}

func TestExtract_Quiet(t *testing.T) {
	input := "\t(primitive_def foo\n\t)\n"
	fs := setupFS(t, input)

	var log bytes.Buffer
	_, err := New(fs, types.ExtractionConfig{Quiet: true}, &log).Extract(strings.NewReader(input), "input.txt", outDir)
	require.NoError(t, err)
	assert.Empty(t, log.String())
}

func TestProgressLabel(t *testing.T) {
	assert.Equal(t, "1M", progressLabel(1_000_000))
	assert.Equal(t, "3M", progressLabel(3_000_000))
	assert.Equal(t, "1500000", progressLabel(1_500_000))
}
