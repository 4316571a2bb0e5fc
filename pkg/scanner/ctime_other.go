//go:build !unix

package scanner

import "os"

// statCtimeMillis has no portable equivalent outside unix-like systems;
// mtime alone is used there, which fileTimestamp already folds in.
func statCtimeMillis(info os.FileInfo) int64 {
	return 0
}
