package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/hyperjump/ragcheck/internal/config"
)

// runInit writes the built-in defaults to a config file.
func runInit(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("init", stderr)
	path := fs.String("config", "config.yaml", "config file to write")
	force := fs.Bool("force", false, "overwrite an existing file")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}

	if _, err := os.Stat(*path); err == nil && !*force {
		fmt.Fprintf(stderr, "Config already exists: %s (use -force to overwrite)\n", *path)
		return exitError
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintln(stderr, err)
		return exitError
	}

	cfg := config.Default()
	cfg.Embedding.APIKey = ""
	if err := os.MkdirAll(filepath.Dir(*path), 0755); err != nil {
		fmt.Fprintf(stderr, "Failed to create config directory: %v\n", err)
		return exitError
	}
	if err := config.Save(*path, cfg); err != nil {
		fmt.Fprintln(stderr, err)
		return exitError
	}
	fmt.Fprintf(stdout, "Config written: %s\n", *path)
	return exitOK
}
