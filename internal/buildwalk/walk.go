// Package buildwalk implements the build-file ancestor walker: given a
// filesystem path, produce every ancestor directory that contains an
// accessible build.zig, walking from the root toward the path.
package buildwalk

import (
	"os"
	"strings"
)

const buildFileName = "build.zig"

// Ancestors returns, nearest-last, every ancestor directory of path that
// contains a readable build.zig. Position is tracked as an advancing index
// into the path string, stepping from one '/' to the next, rather than by
// repeated filepath.Dir-style truncation.
func Ancestors(path string) []string {
	var out []string

	clean := path
	if len(clean) == 0 {
		return out
	}

	// Walk segment boundaries left to right so each probed prefix is a
	// complete ancestor directory.
	i := 0
	for i <= len(clean) {
		next := strings.IndexByte(clean[i:], '/')
		if next < 0 {
			break
		}
		i += next
		dir := clean[:i]
		if dir == "" {
			dir = "/"
		}
		if hasBuildFile(dir) {
			out = append(out, dir)
		}
		i++
	}

	return out
}

func hasBuildFile(dir string) bool {
	info, err := os.Stat(joinPath(dir, buildFileName))
	return err == nil && !info.IsDir()
}

func joinPath(dir, name string) string {
	if strings.HasSuffix(dir, "/") {
		return dir + name
	}
	return dir + "/" + name
}
