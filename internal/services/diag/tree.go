package diag

import (
	"context"

	"github.com/shirou/gopsutil/v3/process"
)

// ParentLookup resolves the parent pid the OS recorded for one process.
type ParentLookup func(ctx context.Context, pid int32) (int32, error)

// TreeResolver derives parent/child relationships from a live process
// listing. The tree shape can change at any moment, so nothing is cached;
// every call recomputes against the listing it is given.
type TreeResolver struct {
	parentOf ParentLookup
}

// NewTreeResolver creates a resolver backed by the OS process table.
func NewTreeResolver() *TreeResolver {
	return &TreeResolver{parentOf: osParentLookup}
}

// NewTreeResolverWithLookup creates a resolver with a custom parent lookup.
func NewTreeResolverWithLookup(fn ParentLookup) *TreeResolver {
	return &TreeResolver{parentOf: fn}
}

func osParentLookup(ctx context.Context, pid int32) (int32, error) {
	p, err := process.NewProcessWithContext(ctx, pid)
	if err != nil {
		return 0, err
	}
	return p.PpidWithContext(ctx)
}

// ParentID returns the pid recorded as this process's creator. The returned
// id may reference a process that no longer exists; dangling is acceptable.
func (r *TreeResolver) ParentID(ctx context.Context, pid int32) (int32, error) {
	return r.parentOf(ctx, pid)
}

// Children returns the pids in the listing whose recorded parent equals pid.
// Direct children only; a pid that exits mid-scan is simply skipped.
func (r *TreeResolver) Children(ctx context.Context, pid int32, listing []int32) []int32 {
	var children []int32
	for _, candidate := range listing {
		if candidate == pid {
			continue
		}
		ppid, err := r.parentOf(ctx, candidate)
		if err != nil {
			continue
		}
		if ppid == pid {
			children = append(children, candidate)
		}
	}
	return children
}

// Descendants returns the transitive closure of Children starting at pid.
// The visited set guards against pid-recycling cycles in the listing.
func (r *TreeResolver) Descendants(ctx context.Context, pid int32, listing []int32) []int32 {
	visited := map[int32]bool{pid: true}
	var result []int32

	queue := r.Children(ctx, pid, listing)
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		if visited[next] {
			continue
		}
		visited[next] = true
		result = append(result, next)
		queue = append(queue, r.Children(ctx, next, listing)...)
	}
	return result
}
