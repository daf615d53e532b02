package main

import (
	"context"
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"

	"github.com/hyperjump/ragcheck/internal/cases"
	"github.com/hyperjump/ragcheck/internal/cli"
	"github.com/hyperjump/ragcheck/internal/storage"
	"github.com/hyperjump/ragcheck/internal/watcher"
)

// caseHandler re-verifies a case file whenever the watcher reports it changed.
// Verifications run under ctx, so stopping the command cancels them.
type caseHandler struct {
	ctx    context.Context
	loader *cases.Loader
	runner *cases.Runner
	out    io.Writer
	format cli.OutputFormat
	logger *zap.Logger

	mu sync.Mutex
}

func (h *caseHandler) CaseChanged(path string) {
	loaded, err := h.loader.LoadFile(path)
	if err != nil {
		h.logger.Warn("failed to load case file", zap.String("path", path), zap.Error(err))
		return
	}
	outcomes := h.runner.RunAll(h.ctx, loaded)

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.out == nil {
		return
	}
	if h.format == cli.OutputJSON {
		if err := cli.WriteOutcomes(h.out, outcomes, h.format); err != nil {
			h.logger.Warn("failed to write outcomes", zap.Error(err))
		}
		return
	}
	for _, o := range outcomes {
		cli.WriteOutcomeText(h.out, o)
	}
}

func (h *caseHandler) CaseRemoved(path string) {
	h.logger.Info("case file removed", zap.String("path", path))
}

func runWatch(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("watch", stderr)
	common := addCommonFlags(fs)
	noSync := fs.Bool("no-sync", false, "do not verify existing case files on start")
	noHistory := fs.Bool("no-history", false, "do not record the verifications")
	if code, ok := parseFlags(fs, flagsFirst(args)); !ok {
		return code
	}

	cfg, logger, format, err := common.setup()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitError
	}
	defer logger.Sync()

	dirs := fs.Args()
	if len(dirs) == 0 {
		dirs = cfg.Watch.Directories
	}
	if len(dirs) == 0 {
		fmt.Fprintln(stderr, "Usage: ragcheck watch [flags] <dir>... (or set watch.directories in the config)")
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
	w, err := startCaseWatcher(ctx, dirs, cfg.Watch.Extensions, components, stdout, format, logger)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to start watcher: %v\n", err)
		return exitError
	}
	defer w.Stop()
	if !*noSync {
		w.SyncExisting()
	}
	fmt.Fprintf(stderr, "Watching %v (Ctrl+C to stop)\n", w.Directories())
	<-ctx.Done()
	return exitOK
}

func startCaseWatcher(
	ctx context.Context,
	dirs, extensions []string,
	components *Components,
	out io.Writer,
	format cli.OutputFormat,
	logger *zap.Logger,
) (*watcher.Watcher, error) {
	handler := &caseHandler{
		ctx:    ctx,
		loader: cases.NewLoader(extensions),
		runner: cases.NewRunner(components.Verifier, components.Store, storage.SourceWatch, logger),
		out:    out,
		format: format,
		logger: logger,
	}
	if len(extensions) == 0 {
		extensions = cases.DefaultExtensions
	}
	w := watcher.New(dirs, extensions, handler, watcher.WithLogger(logger))
	if err := w.Start(ctx); err != nil {
		return nil, err
	}
	return w, nil
}
