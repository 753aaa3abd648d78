// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the pdef-extract CLI, which copies
// primitive definition blocks out of text files into one .def file each.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/pdef-extract/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the pdef-extract CLI.
var rootCmd = &cobra.Command{
	Use:   "pdef-extract",
	Short: "Split primitive definition blocks out of text files",
	Long: `pdef-extract scans text files for primitive definition blocks and writes
each block to its own file. A block starts at a line beginning with a tab
and "(primitive_def <name>" and ends at the next line beginning with a tab
and ")". The block, both marker lines included, is written to
<output-dir>/<name>.def.

Use extract to process every matching file in a directory, or extract-file
for a single input.`,
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./pdef-extract.yaml or ~/.config/pdef-extract/pdef-extract.yaml)")
	pf.Bool("strict", false, "reject nested starts, stray ends, and unterminated definitions")
	pf.BoolP("quiet", "q", false, "suppress progress output")
	pf.String("manifest", "", "write a YAML manifest of the run to this path")
	pf.String("catalog", "", "SQLite catalog of extracted definitions")

	for key, flag := range map[string]string{
		"strict":   "strict",
		"quiet":    "quiet",
		"manifest": "manifest",
		"catalog":  "catalog",
	} {
		_ = viper.BindPFlag(key, pf.Lookup(flag))
	}
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("pdef-extract")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "pdef-extract"))
		}
	}

	viper.SetEnvPrefix("PDEF_EXTRACT")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// extractionConfig merges positional arguments with flag, environment, and
// config file settings.
func extractionConfig(ext, outDir string) types.ExtractionConfig {
	sourceDir := viper.GetString("source_dir")
	if sourceDir == "" {
		sourceDir = "."
	}
	return types.ExtractionConfig{
		SourceDir:    sourceDir,
		Extension:    ext,
		Glob:         viper.GetString("glob"),
		OutputDir:    outDir,
		Strict:       viper.GetBool("strict"),
		KeepGoing:    viper.GetBool("keep_going"),
		Quiet:        viper.GetBool("quiet"),
		ManifestPath: viper.GetString("manifest"),
		CatalogPath:  viper.GetString("catalog"),
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
