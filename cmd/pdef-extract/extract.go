// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/pdef-extract/internal/blocks"
	"github.com/pdiddy/pdef-extract/internal/catalog"
	"github.com/pdiddy/pdef-extract/internal/discover"
	"github.com/pdiddy/pdef-extract/internal/manifest"
	"github.com/pdiddy/pdef-extract/pkg/types"
)

var extractCmd = &cobra.Command{
	Use:   "extract <extension> <output-dir>",
	Short: "Extract definitions from every matching file in a directory",
	Long: `Extract lists the source directory (default: the current directory),
keeps the files whose names end with <extension>, and extracts the
definition blocks of each into <output-dir>. The output directory must
already exist. Existing .def files with the same name are overwritten.

By default the first failing file stops the run; --keep-going reports the
failure and moves on to the next file.`,
	Args:    exactArgs(2, "<extension> <output-dir>"),
	Example: "  pdef-extract extract .prim defs\n  pdef-extract extract .prim defs --source-dir src --glob 'core_*' --strict",
	RunE:    runExtract,
}

var extractFileCmd = &cobra.Command{
	Use:   "extract-file <input> <output-dir>",
	Short: "Extract definitions from a single file",
	Long: `Extract-file extracts the definition blocks of one input file into
<output-dir>. The output directory must already exist.`,
	Args: exactArgs(2, "<input> <output-dir>"),
	RunE: runExtractFile,
}

func init() {
	extractCmd.Flags().String("source-dir", ".", "directory listed for input files")
	extractCmd.Flags().String("glob", "", "glob the input filename must also match (e.g. 'core_*')")
	extractCmd.Flags().Bool("keep-going", false, "continue with the next file after a failure")

	_ = viper.BindPFlag("source_dir", extractCmd.Flags().Lookup("source-dir"))
	_ = viper.BindPFlag("glob", extractCmd.Flags().Lookup("glob"))
	_ = viper.BindPFlag("keep_going", extractCmd.Flags().Lookup("keep-going"))

	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(extractFileCmd)
}

// exactArgs rejects any argument count other than n, naming the expected
// arguments and the count received. Cobra prints usage after the error.
func exactArgs(n int, names string) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != n {
			return fmt.Errorf("expected %s, got %d argument(s)", names, len(args))
		}
		return nil
	}
}

func runExtract(cmd *cobra.Command, args []string) error {
	cfg := extractionConfig(args[0], args[1])
	fs := afero.NewOsFs()

	paths, err := discover.Inputs(fs, cfg.SourceDir, cfg.Extension, cfg.Glob)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		fmt.Fprintf(os.Stderr, "no files ending in %q in %s\n", cfg.Extension, cfg.SourceDir)
	}

	return runBatch(cmd.Context(), fs, cfg, paths)
}

func runExtractFile(cmd *cobra.Command, args []string) error {
	cfg := extractionConfig("", args[1])
	return runBatch(cmd.Context(), afero.NewOsFs(), cfg, []string{args[0]})
}

// runBatch extracts paths and records the run in the manifest and catalog
// when configured. Whatever was extracted is recorded, even after a failure.
func runBatch(ctx context.Context, fs afero.Fs, cfg types.ExtractionConfig, paths []string) error {
	ex := blocks.New(fs, cfg, os.Stdout)
	result, err := ex.ExtractBatch(ctx, paths, cfg.OutputDir)

	if rerr := recordRun(ctx, fs, cfg, result); rerr != nil && err == nil {
		err = rerr
	}
	if err != nil {
		return err
	}
	if result.HasFailures() {
		return fmt.Errorf("%d file(s) failed extraction", result.Failed)
	}
	return nil
}

func recordRun(ctx context.Context, fs afero.Fs, cfg types.ExtractionConfig, result blocks.BatchResult) error {
	if cfg.ManifestPath != "" {
		if err := manifest.Write(fs, cfg.ManifestPath, manifest.New(cfg, result)); err != nil {
			return err
		}
	}
	if cfg.CatalogPath == "" {
		return nil
	}

	cat, err := catalog.Open(cfg.CatalogPath)
	if err != nil {
		return err
	}
	defer cat.Close()

	// The batch context may already be cancelled; recording what was
	// written should still complete.
	return cat.RecordBatch(context.WithoutCancel(ctx), result)
}
