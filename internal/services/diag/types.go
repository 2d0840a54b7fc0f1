// Package diag provides process introspection and diagnostic capture services.
package diag

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrNotFound indicates the target pid does not correspond to a live process.
	ErrNotFound = errors.New("process not found")

	// ErrAccessDenied indicates the caller lacks privilege for the requested operation.
	ErrAccessDenied = errors.New("access denied")
)

// CaptureError reports a failure of the OS dump-writing facility.
// Status carries the facility's native error code for diagnostics.
type CaptureError struct {
	Status int64
	Err    error
}

func (e *CaptureError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("dump capture failed (status %d): %v", e.Status, e.Err)
	}
	return fmt.Sprintf("dump capture failed (status %d)", e.Status)
}

func (e *CaptureError) Unwrap() error { return e.Err }

// DumpFlags is an opaque bitmask selecting dump breadth. Its bit meanings
// belong to the OS dump facility and are passed through unchanged.
type DumpFlags uint32

const (
	// DumpNormal requests the facility's minimal dump.
	DumpNormal DumpFlags = 0x0

	// DumpWithFullMemory requests inclusion of full memory contents.
	DumpWithFullMemory DumpFlags = 0x2
)

// Link is an addressable locator derived from the inbound request's address.
type Link string

// BuildLink joins a suffix onto a base address, normalizing any trailing slash.
func BuildLink(base, suffix string) Link {
	return Link(strings.TrimRight(base, "/") + "/" + suffix)
}

// ProcessRecord describes one live process at sampling time. Every optional
// field is a pointer: nil means the read failed or the platform does not
// report it, which is distinct from a real zero.
type ProcessRecord struct {
	PID  int32  `json:"pid"`
	Name string `json:"name"`
	Self Link   `json:"self"`

	FDCount     *int32     `json:"fd_count,omitempty"`
	ThreadCount *int32     `json:"thread_count,omitempty"`
	ModuleCount *int       `json:"module_count,omitempty"`
	ExePath     *string    `json:"exe_path,omitempty"`
	StartTime   *time.Time `json:"start_time,omitempty"`

	CPUTotalSec  *float64 `json:"cpu_total_sec,omitempty"`
	CPUUserSec   *float64 `json:"cpu_user_sec,omitempty"`
	CPUSystemSec *float64 `json:"cpu_system_sec,omitempty"`

	MemoryRSS     *uint64 `json:"memory_rss,omitempty"`
	MemoryPeakRSS *uint64 `json:"memory_peak_rss,omitempty"`
	MemoryVMS     *uint64 `json:"memory_vms,omitempty"`
	MemorySwap    *uint64 `json:"memory_swap,omitempty"`
	MemoryData    *uint64 `json:"memory_data,omitempty"`
	MemoryStack   *uint64 `json:"memory_stack,omitempty"`
	MemoryLocked  *uint64 `json:"memory_locked,omitempty"`

	Dump     Link   `json:"dump,omitempty"`
	Parent   *Link  `json:"parent,omitempty"`
	Children []Link `json:"children,omitempty"`
}
