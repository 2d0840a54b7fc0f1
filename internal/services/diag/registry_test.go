package diag

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"runtime"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLookupSelf(t *testing.T) {
	reg := NewRegistry(testLogger(), NewTreeResolver())

	p, err := reg.Lookup(context.Background(), int32(os.Getpid()))
	if err != nil {
		t.Fatalf("Lookup of own pid failed: %v", err)
	}
	if p.Pid != int32(os.Getpid()) {
		t.Errorf("Pid = %d, want %d", p.Pid, os.Getpid())
	}
}

func TestLookupNonexistent(t *testing.T) {
	reg := NewRegistry(testLogger(), NewTreeResolver())

	_, err := reg.Lookup(context.Background(), 1<<30)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Lookup of dead pid = %v, want ErrNotFound", err)
	}
}

func TestEnumerateIncludesSelf(t *testing.T) {
	reg := NewRegistry(testLogger(), NewTreeResolver())

	procs, err := reg.Enumerate(context.Background())
	if err != nil {
		t.Fatalf("Enumerate failed: %v", err)
	}

	self := int32(os.Getpid())
	for _, p := range procs {
		if p.Pid == self {
			return
		}
	}
	t.Error("enumeration should include the current process")
}

func TestTerminateNonexistent(t *testing.T) {
	reg := NewRegistry(testLogger(), NewTreeResolver())

	err := reg.Terminate(context.Background(), 1<<30, false)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Terminate of dead pid = %v, want ErrNotFound", err)
	}
}

func TestTerminateSpawnedProcess(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("test fixture relies on the sleep command")
	}

	cmd := exec.Command("sleep", "60")
	if err := cmd.Start(); err != nil {
		t.Fatalf("starting fixture process: %v", err)
	}
	pid := int32(cmd.Process.Pid)

	reg := NewRegistry(testLogger(), NewTreeResolver())
	if err := reg.Terminate(context.Background(), pid, false); err != nil {
		t.Fatalf("Terminate failed: %v", err)
	}
	cmd.Wait() // reap

	// Give the OS a moment, then the pid must be gone.
	time.Sleep(50 * time.Millisecond)
	if _, err := reg.Lookup(context.Background(), pid); !errors.Is(err, ErrNotFound) {
		t.Errorf("Lookup after Terminate = %v, want ErrNotFound", err)
	}
}

func TestTerminateWithDescendants(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("test fixture relies on sh and sleep")
	}

	// A shell parent that spawns its own sleep child.
	cmd := exec.Command("sh", "-c", "sleep 60 & wait")
	if err := cmd.Start(); err != nil {
		t.Fatalf("starting fixture tree: %v", err)
	}
	pid := int32(cmd.Process.Pid)
	time.Sleep(100 * time.Millisecond) // let the child appear

	reg := NewRegistry(testLogger(), NewTreeResolver())
	if err := reg.Terminate(context.Background(), pid, true); err != nil {
		t.Fatalf("Terminate with descendants failed: %v", err)
	}
	cmd.Wait() // reap

	time.Sleep(50 * time.Millisecond)
	if _, err := reg.Lookup(context.Background(), pid); !errors.Is(err, ErrNotFound) {
		t.Errorf("root should be gone after Terminate, got %v", err)
	}
}

func TestTerminateWithFixtureTree(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("test fixture relies on the sleep command")
	}

	// Two unrelated sleeps, stitched into a parent/child pair by the
	// lookup fixture. Every other pid errors, like a process that
	// exited between enumeration and the parent probe.
	root := exec.Command("sleep", "60")
	if err := root.Start(); err != nil {
		t.Fatalf("starting fixture root: %v", err)
	}
	child := exec.Command("sleep", "60")
	if err := child.Start(); err != nil {
		root.Process.Kill()
		t.Fatalf("starting fixture child: %v", err)
	}
	rootPid := int32(root.Process.Pid)
	childPid := int32(child.Process.Pid)

	tree := NewTreeResolverWithLookup(fixtureLookup(map[int32]int32{
		childPid: rootPid,
	}))
	reg := NewRegistry(testLogger(), tree)
	if err := reg.Terminate(context.Background(), rootPid, true); err != nil {
		t.Fatalf("Terminate with descendants failed: %v", err)
	}
	root.Wait()
	child.Wait()

	time.Sleep(50 * time.Millisecond)
	if _, err := reg.Lookup(context.Background(), rootPid); !errors.Is(err, ErrNotFound) {
		t.Errorf("root should be gone after Terminate, got %v", err)
	}
	if _, err := reg.Lookup(context.Background(), childPid); !errors.Is(err, ErrNotFound) {
		t.Errorf("descendant should be gone after Terminate, got %v", err)
	}
}

func TestKillEachSkipsVanished(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("test fixture relies on the sleep command")
	}

	cmd := exec.Command("sleep", "60")
	if err := cmd.Start(); err != nil {
		t.Fatalf("starting fixture process: %v", err)
	}
	pid := int32(cmd.Process.Pid)

	// Pids around 1<<30 do not exist; they should be skipped as
	// already gone while the live pid in between still gets killed.
	reg := NewRegistry(testLogger(), NewTreeResolver())
	reg.killEach(context.Background(), []int32{1 << 30, pid, 1<<30 - 1})
	cmd.Wait() // reap

	time.Sleep(50 * time.Millisecond)
	if _, err := reg.Lookup(context.Background(), pid); !errors.Is(err, ErrNotFound) {
		t.Errorf("live pid should be gone after killEach, got %v", err)
	}
}

func TestClassifyTermination(t *testing.T) {
	if got := classifyTermination(1, os.ErrPermission); !errors.Is(got, ErrAccessDenied) {
		t.Errorf("EPERM classified as %v, want ErrAccessDenied", got)
	}
	if got := classifyTermination(1, os.ErrProcessDone); !errors.Is(got, ErrNotFound) {
		t.Errorf("done process classified as %v, want ErrNotFound", got)
	}
	other := errors.New("unexpected")
	if got := classifyTermination(1, other); !errors.Is(got, other) {
		t.Errorf("unknown error should be wrapped, got %v", got)
	}
}
