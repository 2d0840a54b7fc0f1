//go:build linux

package diag

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

// Artifact container: an 8-byte magic, then variable-length records of
// {address u64, length u64, captured u32} followed by length bytes of
// region data when captured is 1.
var dumpMagic = [8]byte{'H', 'L', 'D', 'U', 'M', 'P', '0', '1'}

const dumpChunkSize = 1 << 20

type memRegion struct {
	addr uint64
	size uint64
}

// writeDump snapshots the readable memory regions of pid into destPath.
// Bit 0x2 of flags selects full memory contents; without it only the
// region table is recorded. Remaining bits pass through unused here, as
// their meaning belongs to the facility contract, not this writer.
func writeDump(pid int32, flags uint32, destPath string) error {
	regions, err := readMemoryRegions(pid)
	if err != nil {
		return err
	}

	f, err := os.Create(destPath)
	if err != nil {
		if os.IsPermission(err) {
			return fmt.Errorf("creating dump file: %w", ErrAccessDenied)
		}
		return &CaptureError{Status: -1, Err: err}
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if _, err := w.Write(dumpMagic[:]); err != nil {
		return &CaptureError{Status: -1, Err: err}
	}

	full := flags&uint32(DumpWithFullMemory) != 0

	// Fallback reader for regions process_vm_readv cannot reach.
	mem, memErr := os.Open(fmt.Sprintf("/proc/%d/mem", pid))
	if memErr == nil {
		defer mem.Close()
	}

	buf := make([]byte, dumpChunkSize)
	for _, region := range regions {
		if !full {
			if err := writeRegionHeader(w, region.addr, region.size, 0); err != nil {
				return &CaptureError{Status: -1, Err: err}
			}
			continue
		}
		if err := dumpRegion(w, pid, mem, region, buf); err != nil {
			return err
		}
	}

	if err := w.Flush(); err != nil {
		return &CaptureError{Status: -1, Err: err}
	}
	return nil
}

func dumpRegion(w *bufio.Writer, pid int32, mem *os.File, region memRegion, buf []byte) error {
	for off := uint64(0); off < region.size; {
		n := region.size - off
		if n > dumpChunkSize {
			n = dumpChunkSize
		}
		addr := region.addr + off

		read, err := readProcessMemory(pid, mem, addr, buf[:n])
		if read == 0 {
			// Unreadable remainder (guard pages, vanished mappings):
			// record it uncaptured and move on. A missing process is
			// different and aborts the dump.
			if errors.Is(err, unix.ESRCH) {
				return ErrNotFound
			}
			if hErr := writeRegionHeader(w, addr, region.size-off, 0); hErr != nil {
				return &CaptureError{Status: -1, Err: hErr}
			}
			return nil
		}

		if err := writeRegionHeader(w, addr, uint64(read), 1); err != nil {
			return &CaptureError{Status: -1, Err: err}
		}
		if _, err := w.Write(buf[:read]); err != nil {
			return &CaptureError{Status: -1, Err: err}
		}
		off += uint64(read)
	}
	return nil
}

func writeRegionHeader(w *bufio.Writer, addr, length uint64, captured uint32) error {
	var hdr [20]byte
	binary.LittleEndian.PutUint64(hdr[0:], addr)
	binary.LittleEndian.PutUint64(hdr[8:], length)
	binary.LittleEndian.PutUint32(hdr[16:], captured)
	_, err := w.Write(hdr[:])
	return err
}

// readProcessMemory reads from the target via process_vm_readv, falling
// back to a pread on /proc/<pid>/mem when the syscall is refused.
func readProcessMemory(pid int32, mem *os.File, addr uint64, buf []byte) (int, error) {
	local := []unix.Iovec{{Base: &buf[0]}}
	local[0].SetLen(len(buf))
	remote := []unix.RemoteIovec{{Base: uintptr(addr), Len: len(buf)}}

	n, err := unix.ProcessVMReadv(int(pid), local, remote, 0)
	if err == nil && n > 0 {
		return n, nil
	}
	if errors.Is(err, unix.ESRCH) {
		return 0, err
	}
	if mem == nil {
		return 0, err
	}
	return mem.ReadAt(buf, int64(addr))
}

// readMemoryRegions parses /proc/<pid>/maps into the readable regions.
func readMemoryRegions(pid int32) ([]memRegion, error) {
	data, err := os.ReadFile(fmt.Sprintf("/proc/%d/maps", pid))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		if os.IsPermission(err) {
			return nil, ErrAccessDenied
		}
		return nil, &CaptureError{Status: -1, Err: err}
	}

	var regions []memRegion
	for _, line := range strings.Split(string(data), "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		// Skip regions without read permission; the facility cannot
		// capture them and recording them adds nothing.
		if fields[1][0] != 'r' {
			continue
		}
		addrRange := strings.SplitN(fields[0], "-", 2)
		if len(addrRange) != 2 {
			continue
		}
		start, err := strconv.ParseUint(addrRange[0], 16, 64)
		if err != nil {
			continue
		}
		end, err := strconv.ParseUint(addrRange[1], 16, 64)
		if err != nil || end <= start {
			continue
		}
		regions = append(regions, memRegion{addr: start, size: end - start})
	}
	return regions, nil
}
