package diag

import (
	"context"
	"errors"
	"sort"
	"testing"
)

// fixtureLookup builds a ParentLookup over a synthetic parent table.
// A pid missing from the table behaves like a process that exited mid-scan.
func fixtureLookup(parents map[int32]int32) ParentLookup {
	return func(_ context.Context, pid int32) (int32, error) {
		ppid, ok := parents[pid]
		if !ok {
			return 0, errors.New("process terminated")
		}
		return ppid, nil
	}
}

func sorted(ids []int32) []int32 {
	out := append([]int32(nil), ids...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func TestChildrenMatchesParentIDs(t *testing.T) {
	parents := map[int32]int32{
		1:  0,
		10: 1,
		11: 1,
		20: 10,
		30: 99, // parent no longer live: dangling, not an error
	}
	listing := []int32{1, 10, 11, 20, 30}
	r := NewTreeResolverWithLookup(fixtureLookup(parents))

	got := sorted(r.Children(context.Background(), 1, listing))
	want := []int32{10, 11}
	if len(got) != len(want) {
		t.Fatalf("Children(1) = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Children(1) = %v, want %v", got, want)
		}
	}

	// Children must be exactly the pids whose resolved parent equals the
	// target, for every process in the listing.
	for _, pid := range listing {
		for _, child := range r.Children(context.Background(), pid, listing) {
			if parents[child] != pid {
				t.Errorf("pid %d reported as child of %d but its parent is %d",
					child, pid, parents[child])
			}
		}
	}
}

func TestChildrenSkipsVanishedProcesses(t *testing.T) {
	parents := map[int32]int32{10: 1}
	// 11 is listed but its parent read fails (exited between enumeration
	// and the read); it must be skipped, not crash the query.
	listing := []int32{10, 11}
	r := NewTreeResolverWithLookup(fixtureLookup(parents))

	got := r.Children(context.Background(), 1, listing)
	if len(got) != 1 || got[0] != 10 {
		t.Errorf("Children(1) = %v, want [10]", got)
	}
}

func TestParentIDDanglingIsNotAnError(t *testing.T) {
	r := NewTreeResolverWithLookup(fixtureLookup(map[int32]int32{30: 99}))

	ppid, err := r.ParentID(context.Background(), 30)
	if err != nil {
		t.Fatalf("ParentID failed: %v", err)
	}
	if ppid != 99 {
		t.Errorf("ParentID = %d, want 99", ppid)
	}
}

func TestDescendantsTransitiveClosure(t *testing.T) {
	parents := map[int32]int32{
		1:   0,
		10:  1,
		11:  1,
		100: 10,
		101: 10,
		200: 100,
	}
	listing := []int32{1, 10, 11, 100, 101, 200}
	r := NewTreeResolverWithLookup(fixtureLookup(parents))

	got := sorted(r.Descendants(context.Background(), 1, listing))
	want := []int32{10, 11, 100, 101, 200}
	if len(got) != len(want) {
		t.Fatalf("Descendants(1) = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Descendants(1) = %v, want %v", got, want)
		}
	}
}

func TestDescendantsCycleSafe(t *testing.T) {
	// Recycled pids can produce a cycle in the recorded parents; the
	// closure must still terminate.
	parents := map[int32]int32{
		10: 1,
		20: 10,
		1:  20,
	}
	listing := []int32{1, 10, 20}
	r := NewTreeResolverWithLookup(fixtureLookup(parents))

	got := sorted(r.Descendants(context.Background(), 1, listing))
	want := []int32{10, 20}
	if len(got) != len(want) {
		t.Fatalf("Descendants(1) = %v, want %v", got, want)
	}
}

func TestDescendantsOfLeaf(t *testing.T) {
	r := NewTreeResolverWithLookup(fixtureLookup(map[int32]int32{10: 1}))

	if got := r.Descendants(context.Background(), 10, []int32{1, 10}); len(got) != 0 {
		t.Errorf("Descendants of a leaf = %v, want empty", got)
	}
}
