// Package main provides the convkit CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/convkit/convkit/dataset"
	"github.com/convkit/convkit/export"
	"github.com/convkit/convkit/internal/config"
	"github.com/convkit/convkit/tokenizer"
)

const version = "v0.1.0"

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	switch os.Args[1] {
	case "version":
		fmt.Printf("convkit %s\n", version)
	case "export":
		os.Exit(runExport(logger, os.Args[2:]))
	case "inspect":
		os.Exit(runInspect(os.Args[2:]))
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Println("convkit - conversation corpus to training dataset exporter")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  export [config]                 Run an export (config defaults to ./convkit.yaml)")
	fmt.Println("  inspect <dataset> [row [tok]]   Inspect a .cvds dataset")
	fmt.Println("  version                         Show version")
}

func runExport(logger zerolog.Logger, args []string) int {
	configPath := ""
	if len(args) > 0 {
		configPath = args[0]
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Error().Err(err).Msg("failed to load configuration")
		return 1
	}

	tok, err := tokenizer.AutoLoad(cfg.Tokenizer)
	if err != nil {
		logger.Error().Err(err).Msg("failed to load tokenizer")
		return 1
	}

	// Ctrl-C requests cooperative cancellation at the next file boundary.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	pipeline := export.NewPipeline(tok, cfg, logger)

	var terminal export.Event
	for ev := range pipeline.Run(ctx) {
		if ev.Terminal {
			terminal = ev
			continue
		}
		fmt.Fprintf(os.Stderr, "\rprocessing %d/%d", ev.Current, ev.Total)
	}
	fmt.Fprintln(os.Stderr)

	switch terminal.Outcome {
	case export.OutcomeCompleted:
		fmt.Printf("export complete: %d rows written to %s (%d files skipped)\n",
			terminal.Stats.Rows, cfg.OutputPath, terminal.Stats.Skipped)
		return 0
	case export.OutcomeCancelled:
		fmt.Printf("export cancelled: %d rows written to %s\n", terminal.Stats.Rows, cfg.OutputPath)
		return 0
	default:
		logger.Error().Err(terminal.Err).Msg("export failed")
		return 1
	}
}

func runInspect(args []string) int {
	if len(args) < 1 {
		usage()
		return 2
	}

	reader, err := dataset.Open(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open dataset: %v\n", err)
		return 1
	}
	defer reader.Close()

	if len(args) == 1 {
		fmt.Printf("rows: %d\n", reader.Rows())
		meta := reader.Metadata()
		keys := make([]string, 0, len(meta))
		for k := range meta {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Printf("%s: %s\n", k, meta[k])
		}
		return 0
	}

	row, err := strconv.Atoi(args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid row index %q\n", args[1])
		return 2
	}

	inputIDs, labels, err := reader.Row(row)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read row: %v\n", err)
		return 1
	}

	ignore := int32(export.IgnoreIndex)
	if raw, ok := reader.Metadata()["ignore_index"]; ok {
		if parsed, err := strconv.Atoi(raw); err == nil {
			ignore = int32(parsed) //nolint:gosec // G115: ignore index is a small sentinel
		}
	}
	learnable := 0
	for _, label := range labels {
		if label != ignore {
			learnable++
		}
	}
	fmt.Printf("row %d: %d tokens, %d learnable\n", row, len(inputIDs), learnable)

	if len(args) > 2 {
		tok, err := tokenizer.AutoLoad(args[2])
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to load tokenizer: %v\n", err)
			return 1
		}
		text, err := tok.Decode(inputIDs)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to decode row: %v\n", err)
			return 1
		}
		fmt.Println(text)
	}
	return 0
}
