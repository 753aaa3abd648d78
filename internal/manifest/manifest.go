// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package manifest records an extraction run as a YAML file so the set of
// generated .def files can be reviewed or diffed without rescanning inputs.
package manifest

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/afero"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/pdef-extract/internal/blocks"
	"github.com/pdiddy/pdef-extract/pkg/types"
)

// Manifest is the on-disk representation of one extraction run.
type Manifest struct {
	Run     RunInfo  `yaml:"run"`
	Sources []Source `yaml:"sources"`
	Summary Summary  `yaml:"summary"`
}

// RunInfo stores the settings that produced the outputs.
type RunInfo struct {
	SourceDir string    `yaml:"source_dir"`
	Extension string    `yaml:"extension"`
	Glob      string    `yaml:"glob,omitempty"`
	OutputDir string    `yaml:"output_dir"`
	Strict    bool      `yaml:"strict"`
	Timestamp time.Time `yaml:"timestamp"`
}

// Source lists the definitions taken from one input file.
type Source struct {
	Path        string             `yaml:"path"`
	Lines       int                `yaml:"lines"`
	Definitions []types.Definition `yaml:"definitions"`
}

// Summary stores the batch totals.
type Summary struct {
	Files        int `yaml:"files"`
	Definitions  int `yaml:"definitions"`
	Unterminated int `yaml:"unterminated"`
	Failed       int `yaml:"failed"`
}

// New builds a manifest for a finished batch.
func New(cfg types.ExtractionConfig, result blocks.BatchResult) Manifest {
	m := Manifest{
		Run: RunInfo{
			SourceDir: cfg.SourceDir,
			Extension: cfg.Extension,
			Glob:      cfg.Glob,
			OutputDir: cfg.OutputDir,
			Strict:    cfg.Strict,
			Timestamp: time.Now().UTC(),
		},
		Sources: make([]Source, 0, len(result.Results)),
		Summary: Summary{
			Files:        result.Files,
			Definitions:  result.Definitions,
			Unterminated: result.Unterminated,
			Failed:       result.Failed,
		},
	}
	for _, r := range result.Results {
		m.Sources = append(m.Sources, Source{
			Path:        r.Source,
			Lines:       r.Lines,
			Definitions: r.Definitions,
		})
	}
	return m
}

// Write saves m as YAML at path.
func Write(fs afero.Fs, path string, m Manifest) error {
	data, err := yaml.Marshal(&m)
	if err != nil {
		return fmt.Errorf("marshaling manifest: %w", err)
	}
	if err := afero.WriteFile(fs, path, data, 0o644); err != nil {
		return fmt.Errorf("writing manifest %s: %w", path, err)
	}
	return nil
}

// Read loads a previously written manifest.
func Read(fs afero.Fs, path string) (*Manifest, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("manifest %s does not exist: %w", path, err)
		}
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	return &m, nil
}
