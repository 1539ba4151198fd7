// Package analyzer declares the narrow interfaces the store consumes for
// three out-of-scope collaborators: the source parser, the semantic scope
// builder, and the C-to-Zig translator. The store never constructs syntax
// trees or document scopes itself; it only asks these interfaces for the
// pieces it needs (import strings, cimport node identities, completion
// sets).
package analyzer

import "context"

// Tree is an opaque parsed syntax tree. The store never inspects it
// directly; it hands it back to the Parser/ScopeBuilder/Translator that
// produced it.
type Tree interface {
	// Imports returns the raw import-string argument of every @import
	// directive in source order. Unresolvable or malformed ones are the
	// resolver's concern, not the tree's.
	Imports() []string
	// CImportNodes returns one NodeID per @cImport block in source order.
	CImportNodes() []NodeID
}

// NodeID identifies a syntax node within a Tree well enough for a
// Translator to re-derive the C source it spans.
type NodeID uint32

// CompletionSet is the named completion set a DocumentScope exposes for a
// single tag kind (error sets, enum literals). Keys are tag names; the
// value is scratch-allocated detail text (docs, associated type) that
// completion aggregation does not need to interpret.
type CompletionSet map[string]string

// DocumentScope is the semantic index built over a Tree: the set of
// completions it contributes for error tags and enum tags.
type DocumentScope interface {
	ErrorCompletions() CompletionSet
	EnumCompletions() CompletionSet
}

// Parser turns source text into a Tree. Parse failure propagates to the
// caller; it is the document factory's job to decide whether that's during
// `open` (propagate) or dependency materialization (swallow).
type Parser interface {
	Parse(uri string, text []byte) (Tree, error)
}

// ScopeBuilder derives a DocumentScope from a parsed Tree.
type ScopeBuilder interface {
	BuildScope(tree Tree) DocumentScope
}

// TranslateResult is the tagged variant for a C-include translation result:
// either a success URI or a bare failure marker. The failure arm carries no
// payload today, but is its own type (rather than collapsing to `(string,
// bool)`) so a future diagnostics payload can be added to it without
// changing every caller.
type TranslateResult struct {
	OK  bool
	URI string
}

// Translator is the C-to-Zig translation pipeline: given a cimport node,
// produce the C source it spans, then translate that source (with a set of
// include directories) into Zig source material, or decide the directive is
// unsupported.
type Translator interface {
	// ConvertCInclude extracts the C source an @cImport block spans. ok is
	// false when the construct is unsupported (e.g. uses a macro the
	// extractor can't evaluate).
	ConvertCInclude(tree Tree, node NodeID) (cSource string, ok bool)
	// Translate runs the C-to-Zig translation step, which may fork a
	// sub-process. A nil *TranslateResult means "no result" (a transient
	// failure: skip without caching). Ordinary translation failure is
	// reported as &TranslateResult{OK: false}, not as a non-nil error; err
	// is reserved for conditions the caller cannot recover from (e.g.
	// context cancellation).
	Translate(ctx context.Context, cSource string, includeDirs []string) (*TranslateResult, error)
}
