//go:build mage

// Package main contains Mage build targets for pdef-extract developer tooling.
package main

import (
	"bufio"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// workDirs lists the directories a local extraction run writes to. The
// extractor never creates its output directory itself.
var workDirs = []string{
	"defs",
	"index",
}

// Init creates the default output and catalog directories.
func Init() error {
	for _, dir := range workDirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
		fmt.Println("  ", dir)
	}
	fmt.Println("Work directories initialized.")
	return nil
}

const (
	binDir  = "bin"
	binName = "pdef-extract"
	cmdPkg  = "./cmd/pdef-extract"
)

// Build compiles the CLI binary into bin/.
func Build() error {
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", binDir, err)
	}
	out := filepath.Join(binDir, binName)
	if err := sh.RunV("go", "build", "-o", out, cmdPkg); err != nil {
		return fmt.Errorf("go build: %w", err)
	}
	fmt.Printf("Built %s\n", out)
	return nil
}

// Test runs the unit tests. The catalog tests need cgo for go-sqlite3.
func Test() error {
	return sh.RunWithV(map[string]string{"CGO_ENABLED": "1"}, "go", "test", "./...")
}

// Run builds the binary and extracts the .prim files in the current
// directory into defs/.
func Run() error {
	mg.SerialDeps(Init, Build)
	return sh.RunV(filepath.Join(binDir, binName), "extract", ".prim", "defs",
		"--manifest", filepath.Join("index", "run.yaml"),
		"--catalog", filepath.Join("index", "defs.db"))
}

// Stats prints Go production/test line counts and the number of extracted
// .def files and lines under defs/.
func Stats() error {
	var prodLines, testLines, defFiles, defLines int
	err := filepath.WalkDir(".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), "_") || (d.Name() == "bin" && path == "bin") {
				return filepath.SkipDir
			}
			return nil
		}
		switch {
		case strings.HasSuffix(path, "_test.go"):
			n, err := countLines(path, true)
			testLines += n
			return err
		case filepath.Ext(path) == ".go":
			n, err := countLines(path, true)
			prodLines += n
			return err
		case filepath.Ext(path) == ".def" && strings.HasPrefix(path, "defs"+string(filepath.Separator)):
			n, err := countLines(path, false)
			defFiles++
			defLines += n
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}

	fmt.Printf("Lines of code (Go, production): %d\n", prodLines)
	fmt.Printf("Lines of code (Go, tests):      %d\n", testLines)
	fmt.Printf("Definitions extracted:          %d (%d lines)\n", defFiles, defLines)
	return nil
}

// countLines counts the lines in path, skipping blank lines when nonBlank is set.
func countLines(path string, nonBlank bool) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("reading %s: %w", path, err)
	}
	defer f.Close()

	n := 0
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for sc.Scan() {
		if nonBlank && strings.TrimSpace(sc.Text()) == "" {
			continue
		}
		n++
	}
	return n, sc.Err()
}
