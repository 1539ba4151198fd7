// Package uri defines the URI/filesystem-path codec the store consumes as an
// external collaborator. The store treats URIs as opaque byte sequences for
// identity and only asks the codec to parse them when it needs a filesystem
// path (build-file discovery, dependency file reads).
package uri

import (
	"errors"
	"net/url"
	"path/filepath"
	"runtime"
	"strings"
)

// ErrNotFileURI is returned by FileCodec when a URI does not use the file
// scheme this codec understands.
var ErrNotFileURI = errors.New("uri: not a file:// URI")

// Codec converts between opaque document URIs and filesystem paths.
type Codec interface {
	// ToPath returns the filesystem path a URI names, or an error if the
	// URI is not one this codec can resolve to a path.
	ToPath(u string) (string, error)
	// FromPath encodes an absolute filesystem path as a URI.
	FromPath(path string) string
}

// FileCodec implements Codec over plain file:// URIs. It is the default
// used by the CLI harness and by tests; a real LSP front-end may supply a
// different Codec (e.g. one that understands editor-virtual schemes)
// without the store needing to change.
type FileCodec struct{}

var _ Codec = FileCodec{}

func (FileCodec) ToPath(u string) (string, error) {
	parsed, err := url.Parse(u)
	if err != nil {
		return "", err
	}
	if parsed.Scheme != "file" {
		return "", ErrNotFileURI
	}
	p := parsed.Path
	if p == "" {
		p = parsed.Opaque
	}
	if runtime.GOOS == "windows" && len(p) > 0 && p[0] == '/' {
		p = p[1:]
	}
	decoded, err := url.PathUnescape(p)
	if err != nil {
		return "", err
	}
	return filepath.FromSlash(decoded), nil
}

func (FileCodec) FromPath(path string) string {
	p := filepath.ToSlash(filepath.Clean(path))
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return "file://" + p
}

// HasSuffixSegment reports whether the URI's path ends in the given
// trailing segment (e.g. "/build.zig", "/builtin.zig") as a plain string
// suffix test, without requiring a full path round-trip.
func HasSuffixSegment(u, suffix string) bool {
	return strings.HasSuffix(u, suffix)
}

// ContainsSegment reports whether the URI's path contains a path segment
// equal to name (e.g. "std" for a standard-library path check).
func ContainsSegment(u, name string) bool {
	parts := strings.Split(u, "/")
	for _, p := range parts {
		if p == name {
			return true
		}
	}
	return false
}

// Dir returns the URI truncated back to (and including) its last "/",
// used by path-relative import resolution.
func Dir(u string) string {
	i := strings.LastIndexByte(u, '/')
	if i < 0 {
		return u
	}
	return u[:i+1]
}

// JoinPath joins a URI directory (as returned by Dir) with a relative
// import string using URI-path semantics, collapsing "." and ".." segments.
func JoinPath(dirURI, rel string) string {
	full := dirURI + rel
	scheme := ""
	if i := strings.Index(full, "://"); i >= 0 {
		scheme = full[:i+3]
		full = full[i+3:]
	}
	segments := strings.Split(full, "/")
	out := make([]string, 0, len(segments))
	for _, seg := range segments {
		switch seg {
		case "", ".":
			if len(out) == 0 {
				out = append(out, seg)
			}
		case "..":
			if len(out) > 0 && out[len(out)-1] != "" && out[len(out)-1] != ".." {
				out = out[:len(out)-1]
			} else {
				out = append(out, seg)
			}
		default:
			out = append(out, seg)
		}
	}
	return scheme + strings.Join(out, "/")
}
