package diag

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/process"
)

// SnapshotBuilder assembles ProcessRecords from live process descriptors.
// Every optional field goes through a probe, so a single failing metric
// leaves that field absent and the rest of the record intact.
type SnapshotBuilder struct {
	tree *TreeResolver
}

// NewSnapshotBuilder creates a builder using the given tree resolver for
// parent/child relationship links.
func NewSnapshotBuilder(tree *TreeResolver) *SnapshotBuilder {
	return &SnapshotBuilder{tree: tree}
}

// Summary produces an id/name/self record. A name read that fails because
// the process exited mid-enumeration yields an empty name, not an error.
func (b *SnapshotBuilder) Summary(ctx context.Context, p *process.Process, base string) ProcessRecord {
	rec := ProcessRecord{
		PID:  p.Pid,
		Self: BuildLink(base, strconv.Itoa(int(p.Pid))),
	}
	if name := probe(func() (string, error) { return p.NameWithContext(ctx) }); name != nil {
		rec.Name = *name
	}
	return rec
}

// Detail produces a fully populated record. listing is the pid set captured
// by the caller's enumeration; it is only consulted for child links.
func (b *SnapshotBuilder) Detail(ctx context.Context, p *process.Process, base string, listing []int32) ProcessRecord {
	rec := b.Summary(ctx, p, base)
	rec.Dump = BuildLink(string(rec.Self), "dump")

	rec.FDCount = probe(func() (int32, error) { return p.NumFDsWithContext(ctx) })
	rec.ThreadCount = probe(func() (int32, error) { return p.NumThreadsWithContext(ctx) })
	rec.ExePath = probe(func() (string, error) { return p.ExeWithContext(ctx) })

	rec.ModuleCount = probeAs(
		func() (*[]process.MemoryMapsStat, error) { return p.MemoryMapsWithContext(ctx, false) },
		func(maps *[]process.MemoryMapsStat) int { return len(*maps) },
	)

	rec.StartTime = probeAs(
		func() (int64, error) { return p.CreateTimeWithContext(ctx) },
		func(ms int64) time.Time { return time.UnixMilli(ms).UTC() },
	)

	if times := probe(func() (*cpu.TimesStat, error) { return p.TimesWithContext(ctx) }); times != nil {
		t := *times
		total := t.Total()
		rec.CPUTotalSec = &total
		rec.CPUUserSec = &t.User
		rec.CPUSystemSec = &t.System
	}

	if mem := probe(func() (*process.MemoryInfoStat, error) { return p.MemoryInfoWithContext(ctx) }); mem != nil {
		m := *mem
		rec.MemoryRSS = &m.RSS
		rec.MemoryVMS = &m.VMS
		// The remaining counters read as zero on platforms that do not
		// report them; zero there means "not reported", so leave absent.
		rec.MemoryPeakRSS = nonZero(m.HWM)
		rec.MemorySwap = nonZero(m.Swap)
		rec.MemoryData = nonZero(m.Data)
		rec.MemoryStack = nonZero(m.Stack)
		rec.MemoryLocked = nonZero(m.Locked)
	}

	if ppid := probe(func() (int32, error) { return b.tree.ParentID(ctx, p.Pid) }); ppid != nil {
		parent := BuildLink(base, strconv.Itoa(int(*ppid)))
		rec.Parent = &parent
	}
	for _, child := range b.tree.Children(ctx, p.Pid, listing) {
		rec.Children = append(rec.Children, BuildLink(base, strconv.Itoa(int(child))))
	}

	return rec
}

func nonZero(v uint64) *uint64 {
	if v == 0 {
		return nil
	}
	return &v
}

// SortRecords orders records by name, case-insensitive, with pid as the
// tiebreak so the ordering is stable across identically named processes.
func SortRecords(records []ProcessRecord) {
	sort.Slice(records, func(i, j int) bool {
		ni := strings.ToLower(records[i].Name)
		nj := strings.ToLower(records[j].Name)
		if ni == nj {
			return records[i].PID < records[j].PID
		}
		return ni < nj
	})
}
