//go:build unix

package scanner

import (
	"os"
	"syscall"
)

// statCtimeMillis extracts the inode change time (ctime) in
// milliseconds from a FileInfo on unix-like systems, so that
// code_timestamp/binary_timestamp can use max(mtime, ctime) per
// spec.md §4.1.
func statCtimeMillis(info os.FileInfo) int64 {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return 0
	}
	return stat.Ctim.Sec*1000 + stat.Ctim.Nsec/1e6
}
