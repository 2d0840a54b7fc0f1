package diag

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"syscall"

	"github.com/shirou/gopsutil/v3/process"
)

// Registry enumerates, resolves, and terminates live OS processes. It holds
// no state between calls; the OS process table is the only source of truth.
type Registry struct {
	logger *slog.Logger
	tree   *TreeResolver
}

// NewRegistry creates a process registry.
func NewRegistry(logger *slog.Logger, tree *TreeResolver) *Registry {
	return &Registry{logger: logger, tree: tree}
}

// Enumerate returns every process visible at the caller's privilege level.
// No ordering is applied; the snapshot consumer sorts.
func (r *Registry) Enumerate(ctx context.Context) ([]*process.Process, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("enumerating processes: %w", err)
	}
	return procs, nil
}

// Lookup resolves one process by pid. A pid that has exited or never
// existed yields ErrNotFound.
func (r *Registry) Lookup(ctx context.Context, pid int32) (*process.Process, error) {
	p, err := process.NewProcessWithContext(ctx, pid)
	if err != nil {
		return nil, ErrNotFound
	}
	running, err := p.IsRunningWithContext(ctx)
	if err != nil || !running {
		return nil, ErrNotFound
	}
	return p, nil
}

// Terminate requests OS-level termination of pid. With includeDescendants,
// the descendant closure is resolved first and each still-live descendant
// is terminated; a descendant that already exited is success for that
// descendant, and a descendant the OS refuses is logged, not fatal. Only
// failure on the requested root propagates.
func (r *Registry) Terminate(ctx context.Context, pid int32, includeDescendants bool) error {
	root, err := r.Lookup(ctx, pid)
	if err != nil {
		return err
	}

	if includeDescendants {
		r.terminateDescendants(ctx, pid)
	}

	if err := root.KillWithContext(ctx); err != nil {
		return classifyTermination(pid, err)
	}
	r.logger.Info("terminated process", "pid", pid, "descendants", includeDescendants)
	return nil
}

func (r *Registry) terminateDescendants(ctx context.Context, pid int32) {
	procs, err := r.Enumerate(ctx)
	if err != nil {
		r.logger.Warn("descendant enumeration failed", "pid", pid, "error", err)
		return
	}
	listing := make([]int32, 0, len(procs))
	for _, p := range procs {
		listing = append(listing, p.Pid)
	}

	r.killEach(ctx, r.tree.Descendants(ctx, pid, listing))
}

// killEach terminates every pid in ids. A pid that already exited is
// success for that pid; a refusal is logged and the batch continues.
func (r *Registry) killEach(ctx context.Context, ids []int32) {
	for _, child := range ids {
		cp, err := process.NewProcessWithContext(ctx, child)
		if err != nil {
			continue // already gone
		}
		if err := cp.KillWithContext(ctx); err != nil && !isGone(err) {
			r.logger.Warn("failed to terminate descendant", "pid", child, "error", err)
		}
	}
}

func classifyTermination(pid int32, err error) error {
	if errors.Is(err, os.ErrPermission) || errors.Is(err, syscall.EPERM) {
		return ErrAccessDenied
	}
	if isGone(err) {
		return ErrNotFound
	}
	return fmt.Errorf("terminating pid %d: %w", pid, err)
}

func isGone(err error) bool {
	return errors.Is(err, syscall.ESRCH) ||
		errors.Is(err, os.ErrProcessDone) ||
		errors.Is(err, process.ErrorProcessNotRunning)
}
