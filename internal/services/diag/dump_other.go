//go:build !linux && !windows

package diag

import (
	"fmt"
	"runtime"
)

func writeDump(pid int32, flags uint32, destPath string) error {
	return &CaptureError{
		Status: -1,
		Err:    fmt.Errorf("dump capture not supported on %s", runtime.GOOS),
	}
}
