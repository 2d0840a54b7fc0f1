package diag

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/hostlens/hostlens-agent/internal/services/filesystem"
	"github.com/hostlens/hostlens-agent/internal/tracing"
)

// Service is the inbound boundary of the diagnostics engine. Each operation
// is stateless and independent; overlapping calls against the same pid are
// fine because the OS process table is the only shared state.
type Service struct {
	logger   *slog.Logger
	tracer   tracing.Tracer
	registry *Registry
	builder  *SnapshotBuilder
	dump     *DumpCapture
	scratch  filesystem.ScratchProvider
}

// NewService wires the engine from its components and collaborators.
func NewService(logger *slog.Logger, tracer tracing.Tracer, registry *Registry, builder *SnapshotBuilder, dump *DumpCapture, scratch filesystem.ScratchProvider) *Service {
	return &Service{
		logger:   logger,
		tracer:   tracer,
		registry: registry,
		builder:  builder,
		dump:     dump,
		scratch:  scratch,
	}
}

// ListProcesses returns one summary record per process live at call time,
// sorted by name, case-insensitive. Partial metric unavailability never
// fails the listing.
func (s *Service) ListProcesses(ctx context.Context, base string) ([]ProcessRecord, error) {
	ctx, span := s.tracer.Start(ctx, "list-processes")
	defer span.End()

	procs, err := s.registry.Enumerate(ctx)
	if err != nil {
		return nil, err
	}

	records := make([]ProcessRecord, 0, len(procs))
	for _, p := range procs {
		records = append(records, s.builder.Summary(ctx, p, base))
	}
	SortRecords(records)

	span.Event("processes listed", "count", len(records))
	return records, nil
}

// GetProcess returns the detailed record for pid, or ErrNotFound. Every
// optional field degrades to absence independently; only identity
// resolution can fail the call.
func (s *Service) GetProcess(ctx context.Context, pid int32, base string) (*ProcessRecord, error) {
	ctx, span := s.tracer.Start(ctx, "get-process")
	defer span.End()

	p, err := s.registry.Lookup(ctx, pid)
	if err != nil {
		return nil, err
	}

	// The listing only feeds child links; losing it degrades the record,
	// it does not fail the call.
	var listing []int32
	if procs, err := s.registry.Enumerate(ctx); err == nil {
		listing = make([]int32, 0, len(procs))
		for _, lp := range procs {
			listing = append(listing, lp.Pid)
		}
	}

	rec := s.builder.Detail(ctx, p, base, listing)
	span.Event("process resolved", "pid", pid, "name", rec.Name)
	return &rec, nil
}

// KillProcess terminates pid, optionally with its descendant closure.
func (s *Service) KillProcess(ctx context.Context, pid int32, includeDescendants bool) error {
	ctx, span := s.tracer.Start(ctx, "kill-process")
	defer span.End()

	return s.registry.Terminate(ctx, pid, includeDescendants)
}

// CaptureDump writes a memory snapshot of pid into the staging directory
// and returns it as an open stream. This call blocks for the duration of
// the OS write; callers needing responsiveness run it off their
// latency-sensitive path.
func (s *Service) CaptureDump(ctx context.Context, pid int32, flags DumpFlags) (*DumpResult, error) {
	ctx, span := s.tracer.Start(ctx, "capture-dump")
	defer span.End()

	p, err := s.registry.Lookup(ctx, pid)
	if err != nil {
		return nil, err
	}

	dir, err := s.scratch.ScratchDir()
	if err != nil {
		return nil, fmt.Errorf("resolving staging directory: %w", err)
	}
	destPath := filepath.Join(dir, fmt.Sprintf("%d-%d.dmp", pid, time.Now().UTC().UnixNano()))

	result, err := s.dump.Capture(ctx, p, flags, destPath)
	if err != nil {
		return nil, err
	}

	span.Event("dump captured",
		"pid", pid,
		"name", result.Filename,
		"path", destPath,
		"size", result.Size)
	return result, nil
}
