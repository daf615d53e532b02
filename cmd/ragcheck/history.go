package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/hyperjump/ragcheck/internal/cli"
	"github.com/hyperjump/ragcheck/internal/storage"
)

func runHistory(args []string, stdout, stderr io.Writer) int {
	sub := "list"
	if len(args) > 0 && args[0] != "" && args[0][0] != '-' {
		sub, args = args[0], args[1:]
	}

	fs := newFlagSet("history", stderr)
	common := addCommonFlags(fs)
	offset := fs.Int("offset", 0, "records to skip")
	limit := fs.Int("limit", 20, "records to show")
	if code, ok := parseFlags(fs, flagsFirst(args)); !ok {
		return code
	}

	cfg, logger, format, err := common.setup()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitError
	}
	defer logger.Sync()

	store, err := storage.NewSQLiteStore(cfg.Storage.DatabasePath)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to open history: %v\n", err)
		return exitError
	}
	defer store.Close()
	ctx := context.Background()

	switch sub {
	case "list":
		if *offset < 0 || *limit <= 0 {
			fmt.Fprintln(stderr, "offset must be >= 0 and limit > 0")
			return exitError
		}
		records, err := store.ListRecords(ctx, *offset, *limit)
		if err != nil {
			fmt.Fprintf(stderr, "List failed: %v\n", err)
			return exitError
		}
		total, err := store.CountRecords(ctx)
		if err != nil {
			fmt.Fprintf(stderr, "Count failed: %v\n", err)
			return exitError
		}
		if err := cli.WriteRecords(stdout, records, total, format); err != nil {
			fmt.Fprintf(stderr, "Output failed: %v\n", err)
			return exitError
		}
	case "show", "delete":
		if fs.NArg() < 1 {
			fmt.Fprintf(stderr, "Usage: ragcheck history %s [flags] <id>\n", sub)
			return exitError
		}
		id := fs.Arg(0)
		if sub == "delete" {
			err = store.DeleteRecord(ctx, id)
			if err == nil {
				fmt.Fprintf(stdout, "Verification deleted: %s\n", id)
			}
		} else {
			var rec *storage.Record
			if rec, err = store.GetRecord(ctx, id); err == nil {
				err = cli.WriteRecord(stdout, rec, format)
			}
		}
		if errors.Is(err, storage.ErrNotFound) {
			fmt.Fprintf(stderr, "Verification not found: %s\n", id)
			return exitError
		}
		if err != nil {
			fmt.Fprintf(stderr, "History %s failed: %v\n", sub, err)
			return exitError
		}
	default:
		fmt.Fprintf(stderr, "Unknown history subcommand: %s (use list, show or delete)\n", sub)
		return exitError
	}
	return exitOK
}
