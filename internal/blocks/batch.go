// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package blocks

import (
	"context"
	"fmt"
)

// BatchResult holds the outcome of a batch extraction run.
type BatchResult struct {
	Files        int
	Definitions  int
	Unterminated int
	Failed       int
	Results      []Result
}

// HasFailures reports whether any input file failed extraction.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

func (r *BatchResult) add(res Result) {
	r.Files++
	r.Definitions += len(res.Definitions)
	r.Unterminated += res.Unterminated()
	r.Results = append(r.Results, res)
}

// ExtractBatch extracts every file in paths into outDir, in order. Unless
// the Extractor was configured with KeepGoing, the first failure stops the
// batch and is returned. The context is checked between files only.
func (e *Extractor) ExtractBatch(ctx context.Context, paths []string, outDir string) (BatchResult, error) {
	var result BatchResult
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		fmt.Fprintf(e.w, "Processing: %s\n", p)
		res, err := e.ExtractFile(p, outDir)
		result.add(res)
		if err != nil {
			result.Failed++
			if !e.keepGoing {
				return result, fmt.Errorf("extracting %s: %w", p, err)
			}
			fmt.Fprintf(e.w, "failed:  %s (%v)\n", p, err)
		}
	}

	fmt.Fprintf(e.w, "\nBatch summary: %d file(s), %d definition(s), %d unterminated, %d failed\n",
		result.Files, result.Definitions, result.Unterminated, result.Failed)
	return result, nil
}
