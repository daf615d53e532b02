// Package main is the ragcheck CLI entry point.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/hyperjump/ragcheck/internal/config"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/ragcheck/config.yaml"

// Exit codes. exitFlagged is only used with -strict.
const (
	exitOK      = 0
	exitError   = 1
	exitFlagged = 2
)

// loadConfig loads config from path. When path is the default, config.yaml in the
// current directory takes precedence, and a missing default file yields the built-in
// defaults. Returns the config and the path that was loaded ("" for built-in defaults).
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, err := os.Getwd(); err == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, err := os.Stat(fallback); err == nil {
				cfg, err := config.Load(fallback)
				if err != nil {
					return nil, "", err
				}
				return cfg, fallback, nil
			}
		}
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return config.Default(), "", nil
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// stringList is a repeatable string flag.
type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ", ") }

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

// flagsFirst moves flags that follow positional arguments to the front so that
// flag.Parse sees them; "ragcheck run cases/ -output json" works like the reverse.
func flagsFirst(args []string) []string {
	for i, a := range args {
		if len(a) > 1 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

func newFlagSet(name string, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	return fs
}

// parseFlags parses args into fs. ok is false when the command should stop with code.
func parseFlags(fs *flag.FlagSet, args []string) (code int, ok bool) {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK, false
		}
		return exitError, false
	}
	return exitOK, true
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		printUsage(stderr)
		return exitError
	}
	command, rest := args[0], args[1:]
	switch command {
	case "verify":
		return runVerify(rest, stdin, stdout, stderr)
	case "run":
		return runCases(rest, stdout, stderr)
	case "watch":
		return runWatch(rest, stdout, stderr)
	case "server":
		return runServer(rest, stderr)
	case "history":
		return runHistory(rest, stdout, stderr)
	case "init":
		return runInit(rest, stdout, stderr)
	case "version", "--version", "-v":
		fmt.Fprintf(stdout, "ragcheck version %s\n", version)
		return exitOK
	case "help", "--help", "-h":
		printUsage(stdout)
		return exitOK
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", command)
		printUsage(stderr)
		return exitError
	}
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `ragcheck - Faithfulness verification for retrieval-augmented answers

Usage:
  ragcheck verify [flags] <response>      Verify one response (use "-" to read it from stdin)
  ragcheck run [flags] <file|dir>...      Verify YAML case files
  ragcheck watch [flags] [dir...]         Re-verify case files when they change
  ragcheck server [flags]                 Start the HTTP API server
  ragcheck history [list|show|delete]     Browse stored verifications
  ragcheck init [--config path] [--force] Write a config file with the defaults
  ragcheck version                        Show version
  ragcheck help                           Show this help

Common Flags:
  --config string    Config file path (default: /usr/local/etc/ragcheck/config.yaml, or ./config.yaml)
  --debug            Enable debug logging
  --output string    Output format: text or json (default: text)

Verify Flags:
  --question string  The question that was asked (required)
  --doc string       Retrieved document text (repeatable)
  --doc-file string  Retrieved document file: txt, md, rst, pdf, docx, xlsx (repeatable)
  --expected string  Expected (gold) response
  --strict           Exit with status 2 when issues are reported
  --no-history       Do not record the verification

Run Flags:
  --strict           Exit with status 2 when any case is flagged or fails
  --no-history       Do not record the verifications

Watch Flags:
  --no-sync          Do not verify existing case files on start

History Flags:
  --offset int       Records to skip (list)
  --limit int        Records to show (list, default: 20)

Examples:
  ragcheck verify --question "What is the capital of France?" \
      --doc "Paris is the capital of France." --doc "France is a country in Europe." \
      "The capital of France is Paris."
  ragcheck run --output json cases/
  ragcheck watch cases/
  ragcheck history list --limit 5
  ragcheck history show <id>`)
}
