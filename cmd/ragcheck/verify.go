package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"github.com/hyperjump/ragcheck/internal/cases"
	"github.com/hyperjump/ragcheck/internal/cli"
	"github.com/hyperjump/ragcheck/internal/config"
	"github.com/hyperjump/ragcheck/internal/extract"
	"github.com/hyperjump/ragcheck/internal/storage"
	"github.com/hyperjump/ragcheck/internal/verify"
	"github.com/hyperjump/ragcheck/pkg/utils"
)

type commonFlags struct {
	configPath *string
	debug      *bool
	output     *string
}

func addCommonFlags(fs *flag.FlagSet) *commonFlags {
	return &commonFlags{
		configPath: fs.String("config", defaultConfigPath, "config file path"),
		debug:      fs.Bool("debug", false, "enable debug logging"),
		output:     fs.String("output", "text", "output format: text or json"),
	}
}

// setup loads the config and creates a CLI logger and the output format.
func (f *commonFlags) setup() (*config.Config, *zap.Logger, cli.OutputFormat, error) {
	format, err := cli.ParseOutputFormat(*f.output)
	if err != nil {
		return nil, nil, "", err
	}
	cfg, _, err := loadConfig(*f.configPath)
	if err != nil {
		return nil, nil, "", fmt.Errorf("failed to load config: %w", err)
	}
	logger, err := utils.NewCLILogger(cfg.Debug || *f.debug)
	if err != nil {
		return nil, nil, "", fmt.Errorf("failed to create logger: %w", err)
	}
	return cfg, logger, format, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// buildContext assembles a verification context from inline documents and document files.
// The document list is never nil: no documents is an empty set.
func buildContext(question string, docs, docFiles []string, expected *string) (verify.Context, error) {
	all := make([]string, 0, len(docs)+len(docFiles))
	all = append(all, docs...)
	ex := extract.NewExtractor()
	for _, path := range docFiles {
		text, err := ex.Extract(path)
		if err != nil {
			return verify.Context{}, fmt.Errorf("document file %s: %w", path, err)
		}
		all = append(all, strings.TrimSpace(text))
	}
	return verify.Context{Question: question, RetrievedDocs: all, ExpectedResponse: expected}, nil
}

func readResponse(args []string, stdin io.Reader) (string, error) {
	if len(args) == 1 && args[0] == "-" {
		b, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read response: %w", err)
		}
		return strings.TrimSpace(string(b)), nil
	}
	return strings.TrimSpace(strings.Join(args, " ")), nil
}

func runVerify(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := newFlagSet("verify", stderr)
	common := addCommonFlags(fs)
	question := fs.String("question", "", "the question that was asked (required)")
	var docs, docFiles stringList
	fs.Var(&docs, "doc", "retrieved document text (repeatable)")
	fs.Var(&docFiles, "doc-file", "retrieved document file (repeatable)")
	expected := fs.String("expected", "", "expected (gold) response")
	strict := fs.Bool("strict", false, "exit with status 2 when issues are reported")
	noHistory := fs.Bool("no-history", false, "do not record the verification")
	if code, ok := parseFlags(fs, flagsFirst(args)); !ok {
		return code
	}

	response, err := readResponse(fs.Args(), stdin)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitError
	}
	if response == "" {
		fmt.Fprintln(stderr, "Usage: ragcheck verify [flags] <response>")
		return exitError
	}

	var expectedPtr *string
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "expected" {
			expectedPtr = expected
		}
	})
	vctx, err := buildContext(*question, docs, docFiles, expectedPtr)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitError
	}

	cfg, logger, format, err := common.setup()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitError
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger, !*noHistory)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitError
	}
	defer components.Close()

	ctx, stop := signalContext()
	defer stop()
	res, err := components.Verifier.Verify(ctx, response, vctx)
	if err != nil {
		fmt.Fprintf(stderr, "Verification failed: %v\n", err)
		return exitError
	}
	if components.Store != nil {
		rec := &storage.Record{Source: storage.SourceCLI, Response: response, Context: vctx, Result: res}
		if err := components.Store.SaveRecord(ctx, rec); err != nil {
			logger.Warn("failed to record verification", zap.Error(err))
		} else {
			logger.Debug("verification recorded", zap.String("id", rec.ID))
		}
	}

	if err := cli.WriteResult(stdout, res, format); err != nil {
		fmt.Fprintf(stderr, "Output failed: %v\n", err)
		return exitError
	}
	if *strict && len(res.Issues) > 0 {
		return exitFlagged
	}
	return exitOK
}

// outcomesExitCode maps case outcomes to an exit status: errors always fail, flagged
// cases fail only in strict mode.
func outcomesExitCode(outcomes []cases.Outcome, strict bool) int {
	s := cli.Summarize(outcomes)
	if s.Errors > 0 {
		return exitError
	}
	if strict && s.Flagged > 0 {
		return exitFlagged
	}
	return exitOK
}

func runCases(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("run", stderr)
	common := addCommonFlags(fs)
	strict := fs.Bool("strict", false, "exit with status 2 when any case is flagged")
	noHistory := fs.Bool("no-history", false, "do not record the verifications")
	if code, ok := parseFlags(fs, flagsFirst(args)); !ok {
		return code
	}
	if fs.NArg() < 1 {
		fmt.Fprintln(stderr, "Usage: ragcheck run [flags] <file|dir>...")
		return exitError
	}

	cfg, logger, format, err := common.setup()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitError
	}
	defer logger.Sync()

	loader := cases.NewLoader(cfg.Watch.Extensions)
	var all []*cases.Case
	for _, path := range fs.Args() {
		loaded, err := loader.Load(path)
		if err != nil {
			fmt.Fprintf(stderr, "Failed to load cases: %v\n", err)
			return exitError
		}
		all = append(all, loaded...)
	}
	if len(all) == 0 {
		fmt.Fprintln(stderr, "No case files found")
		return exitError
	}

	components, err := initializeComponents(cfg, logger, !*noHistory)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitError
	}
	defer components.Close()

	ctx, stop := signalContext()
	defer stop()
	runner := cases.NewRunner(components.Verifier, components.Store, storage.SourceCLI, logger)
	outcomes := runner.RunAll(ctx, all)
	if err := cli.WriteOutcomes(stdout, outcomes, format); err != nil {
		fmt.Fprintf(stderr, "Output failed: %v\n", err)
		return exitError
	}
	return outcomesExitCode(outcomes, *strict)
}
