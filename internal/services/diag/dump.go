package diag

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/hostlens/hostlens-agent/internal/services/filesystem"
	"github.com/shirou/gopsutil/v3/process"
)

// DumpContentType is the content-type marker for dump artifacts. The
// artifact's binary layout belongs to the OS facility and is opaque here.
const DumpContentType = "application/octet-stream"

// DumpResult hands a captured artifact back as an open sequential stream.
// The caller owns File and must close it after full transmission.
type DumpResult struct {
	File        io.ReadCloser
	Filename    string
	ContentType string
	Size        int64
}

// DumpCapture writes an out-of-process memory snapshot of a live process.
type DumpCapture struct {
	logger *slog.Logger
	fs     filesystem.FileService
}

// NewDumpCapture creates a dump capture component.
func NewDumpCapture(logger *slog.Logger, fs filesystem.FileService) *DumpCapture {
	return &DumpCapture{logger: logger, fs: fs}
}

// Capture invokes the OS dump facility against p, writing the artifact to
// destPath, then opens it for sequential read. The write is synchronous and
// can take seconds for large processes; there is no internal cancellation
// once the facility starts. flags passes through to the facility unchanged.
func (d *DumpCapture) Capture(ctx context.Context, p *process.Process, flags DumpFlags, destPath string) (*DumpResult, error) {
	// Stale artifact removal is best-effort; the facility's own write will
	// overwrite or fail on its own terms.
	if err := d.fs.RemoveIfPresent(destPath); err != nil {
		d.logger.Warn("could not remove stale dump file", "path", destPath, "error", err)
	}

	name := ""
	if n := probe(func() (string, error) { return p.NameWithContext(ctx) }); n != nil {
		name = *n
	}

	// A target that exited between lookup and the write call is NotFound,
	// never a capture failure.
	if running, err := p.IsRunningWithContext(ctx); err != nil || !running {
		return nil, ErrNotFound
	}

	start := time.Now()
	if err := writeDump(p.Pid, uint32(flags), destPath); err != nil {
		return nil, err
	}
	d.logger.Info("dump written",
		"pid", p.Pid,
		"name", name,
		"path", destPath,
		"elapsed_ms", time.Since(start).Milliseconds())

	var size int64
	if info, err := d.fs.Stat(destPath); err == nil {
		size = info.Size()
	}

	file, err := d.fs.OpenRead(destPath)
	if err != nil {
		return nil, fmt.Errorf("opening dump artifact: %w", err)
	}

	return &DumpResult{
		File:        file,
		Filename:    SuggestedFilename(name, time.Now()),
		ContentType: DumpContentType,
		Size:        size,
	}, nil
}

// SuggestedFilename encodes the process name and a UTC timestamp as
// name-MM-dd-HH:mm:ss.dmp.
func SuggestedFilename(name string, now time.Time) string {
	if name == "" {
		name = "core"
	}
	return fmt.Sprintf("%s-%s.dmp", name, now.UTC().Format("01-02-15:04:05"))
}
