//go:build windows

package diag

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/windows"
)

var (
	modDbghelp            = windows.NewLazySystemDLL("dbghelp.dll")
	procMiniDumpWriteDump = modDbghelp.NewProc("MiniDumpWriteDump")
)

// writeDump invokes MiniDumpWriteDump against pid. flags is passed through
// verbatim as the MINIDUMP_TYPE bitmask.
func writeDump(pid int32, flags uint32, destPath string) error {
	handle, err := windows.OpenProcess(
		windows.PROCESS_QUERY_INFORMATION|windows.PROCESS_VM_READ|windows.PROCESS_DUP_HANDLE,
		false,
		uint32(pid),
	)
	if err != nil {
		switch {
		case errors.Is(err, windows.ERROR_ACCESS_DENIED):
			return ErrAccessDenied
		case errors.Is(err, windows.ERROR_INVALID_PARAMETER):
			// OpenProcess reports a dead pid as an invalid parameter.
			return ErrNotFound
		default:
			return &CaptureError{Status: errnoStatus(err), Err: err}
		}
	}
	defer windows.CloseHandle(handle)

	f, err := os.Create(destPath)
	if err != nil {
		if os.IsPermission(err) {
			return fmt.Errorf("creating dump file: %w", ErrAccessDenied)
		}
		return &CaptureError{Status: errnoStatus(err), Err: err}
	}
	defer f.Close()

	ret, _, callErr := procMiniDumpWriteDump.Call(
		uintptr(handle),
		uintptr(uint32(pid)),
		f.Fd(),
		uintptr(flags),
		0, // exception information
		0, // user stream information
		0, // callback information
	)
	if ret == 0 {
		if errors.Is(callErr, windows.ERROR_ACCESS_DENIED) {
			return ErrAccessDenied
		}
		return &CaptureError{Status: errnoStatus(callErr), Err: callErr}
	}
	return nil
}

func errnoStatus(err error) int64 {
	var errno windows.Errno
	if errors.As(err, &errno) {
		return int64(errno)
	}
	return -1
}
