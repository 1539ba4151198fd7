package store

import (
	"github.com/philjestin/zigls/internal/analyzer"
	"github.com/philjestin/zigls/internal/hash"
)

// Handle is the store-owned record for one source document.
type Handle struct {
	URI   string
	Text  []byte
	Tree  analyzer.Tree
	Scope analyzer.DocumentScope

	// Open is true iff the editor currently has this document open.
	Open bool

	// Imports is the ordered sequence of resolved dependency URIs, one per
	// resolvable @import directive. Unresolved imports are dropped.
	Imports []string

	// CImports holds one entry per @cImport directive the translator
	// accepted (unsupported directives are skipped at creation time).
	CImports []CImportRef

	// AssociatedBuildFile is the URI of the build.zig whose package graph
	// governs this document, if any.
	AssociatedBuildFile string

	// IsBuildFile is true iff this document is itself a build.zig.
	IsBuildFile bool
}

// CImportRef pairs a cimport syntax node with the C source it was converted
// to and that source's content hash. The translation outcome (success with
// the translated document's URI, or failure) lives in the store's shared
// cimport cache, keyed by Hash.
type CImportRef struct {
	Node   analyzer.NodeID
	Hash   hash.Digest128
	Source string
}
