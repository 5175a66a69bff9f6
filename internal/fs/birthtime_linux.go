//go:build linux

package fs

import (
	"time"

	"golang.org/x/sys/unix"
)

// birthTime asks statx(2) for the creation time. Filesystems that do not
// record it leave STATX_BTIME out of the returned mask.
func birthTime(path string) time.Time {
	var stx unix.Statx_t
	if err := unix.Statx(unix.AT_FDCWD, path, 0, unix.STATX_BTIME, &stx); err != nil {
		return time.Time{}
	}
	if stx.Mask&unix.STATX_BTIME == 0 {
		return time.Time{}
	}
	return time.Unix(stx.Btime.Sec, int64(stx.Btime.Nsec))
}
