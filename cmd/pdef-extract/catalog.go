// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/pdef-extract/internal/catalog"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog [name]",
	Short: "Query the catalog of extracted definitions",
	Long: `Catalog lists definitions recorded by extract runs that used --catalog.
An optional name argument matches any definition whose name contains it.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCatalog,
}

func init() {
	catalogCmd.Flags().String("source", "", "only definitions from this input file")
	catalogCmd.Flags().Int("limit", 0, "maximum results (0 = 100)")
	catalogCmd.Flags().Bool("json", false, "output results as JSON")

	rootCmd.AddCommand(catalogCmd)
}

func runCatalog(cmd *cobra.Command, args []string) error {
	path := viper.GetString("catalog")
	if path == "" {
		return fmt.Errorf("catalog path required: pass --catalog or set catalog in the config file")
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("opening catalog: %w", err)
	}

	cat, err := catalog.Open(path)
	if err != nil {
		return err
	}
	defer cat.Close()

	q := catalog.Query{}
	if len(args) > 0 {
		q.Name = args[0]
	}
	q.Source, _ = cmd.Flags().GetString("source")
	q.Limit, _ = cmd.Flags().GetInt("limit")

	entries, err := cat.Find(cmd.Context(), q)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatCatalogOutput(entries, jsonOutput)
}

func formatCatalogOutput(entries []catalog.Entry, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	if len(entries) == 0 {
		fmt.Println("No definitions found.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-30s  %-30s  %-11s  %s\n", "Name", "Source", "Lines", "Output")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 100))

	for _, e := range entries {
		span := strconv.Itoa(e.StartLine) + "-"
		if e.Closed {
			span += strconv.Itoa(e.EndLine)
		} else {
			span += "EOF"
		}
		fmt.Fprintf(os.Stdout, "%-30s  %-30s  %-11s  %s\n", e.Name, e.Source, span, e.Output)
	}

	fmt.Fprintf(os.Stdout, "\n%d definitions\n", len(entries))
	return nil
}
