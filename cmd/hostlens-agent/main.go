// Hostlens Agent - live process introspection and diagnostic capture
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/hostlens/hostlens-agent/internal/config"
	"github.com/hostlens/hostlens-agent/internal/logging"
	"github.com/hostlens/hostlens-agent/internal/services/diag"
	"github.com/hostlens/hostlens-agent/internal/services/filesystem"
	"github.com/hostlens/hostlens-agent/internal/tracing"
	"github.com/hostlens/hostlens-agent/pkg/version"
)

// Exit codes mirror the engine's error taxonomy so callers can script
// against the outcome.
const (
	exitOK           = 0
	exitFailure      = 1
	exitNotFound     = 2
	exitAccessDenied = 3
	exitCapture      = 4
)

func main() {
	var (
		showVersion = flag.Bool("version", false, "Show version information")
		list        = flag.Bool("list", false, "List all processes (summary, sorted by name)")
		get         = flag.Int("get", 0, "Show the detailed record for one pid")
		kill        = flag.Int("kill", 0, "Terminate one pid")
		tree        = flag.Bool("tree", false, "With -kill, also terminate descendants")
		dump        = flag.Int("dump", 0, "Capture a memory dump of one pid")
		dumpFlags   = flag.Uint("dump-flags", uint(diag.DumpWithFullMemory), "Opaque dump breadth bitmask, passed to the OS facility")
		out         = flag.String("out", "", "With -dump, write the artifact here (default: suggested filename)")
		base        = flag.String("base", "", "Base address for record links (default from config)")
		debug       = flag.Bool("debug", false, "Enable debug logging")
	)
	flag.Parse()

	if *showVersion {
		fmt.Println(version.Get().String())
		os.Exit(exitOK)
	}

	paths := config.DefaultPaths()
	cfg, err := config.LoadOrDefault(paths)
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading config: %v\n", err)
		os.Exit(exitFailure)
	}

	logger, cleanup, err := logging.Setup(logging.Config{
		LogDir: cfg.LogDir,
		Debug:  *debug || cfg.Debug,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "setting up logging: %v\n", err)
		os.Exit(exitFailure)
	}
	defer cleanup()
	slog.SetDefault(logger)

	fs := filesystem.New(cfg.StagingDir)
	tracer := tracing.NewLogTracer(logger)
	svc := diag.NewServices(logger, tracer, fs)

	linkBase := *base
	if linkBase == "" {
		linkBase = cfg.BaseAddress
	}
	if linkBase == "" {
		linkBase = "processes"
	}

	ctx := context.Background()

	switch {
	case *list:
		records, err := svc.ListProcesses(ctx, linkBase)
		if err != nil {
			exit(logger, err)
		}
		printJSON(records)

	case *get != 0:
		record, err := svc.GetProcess(ctx, int32(*get), linkBase)
		if err != nil {
			exit(logger, err)
		}
		printJSON(record)

	case *kill != 0:
		if err := svc.KillProcess(ctx, int32(*kill), *tree); err != nil {
			exit(logger, err)
		}
		fmt.Printf("terminated %d\n", *kill)

	case *dump != 0:
		if err := runDump(ctx, svc, int32(*dump), diag.DumpFlags(*dumpFlags), *out); err != nil {
			exit(logger, err)
		}

	default:
		flag.Usage()
		os.Exit(exitFailure)
	}
}

func runDump(ctx context.Context, svc *diag.Service, pid int32, flags diag.DumpFlags, out string) error {
	result, err := svc.CaptureDump(ctx, pid, flags)
	if err != nil {
		return err
	}
	defer result.File.Close()

	if out == "" {
		out = result.Filename
	}
	f, err := os.Create(out)
	if err != nil {
		return err
	}
	defer f.Close()

	n, err := io.Copy(f, result.File)
	if err != nil {
		return err
	}
	fmt.Printf("wrote %s (%d bytes, %s)\n", out, n, result.ContentType)
	return nil
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.Encode(v)
}

func exit(logger *slog.Logger, err error) {
	logger.Error("operation failed", "error", err)
	fmt.Fprintln(os.Stderr, err)

	var capErr *diag.CaptureError
	switch {
	case errors.Is(err, diag.ErrNotFound):
		os.Exit(exitNotFound)
	case errors.Is(err, diag.ErrAccessDenied):
		os.Exit(exitAccessDenied)
	case errors.As(err, &capErr):
		os.Exit(exitCapture)
	default:
		os.Exit(exitFailure)
	}
}
