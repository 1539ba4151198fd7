// Package zigsyntax is the CLI driver harness's default analyzer.Parser and
// analyzer.ScopeBuilder: a regex-based extractor over @import/@cImport/
// error-set/enum-literal syntax, a set of anchored regexps over raw text,
// not a real grammar. It exists so the `zigls` binary has something real to
// run against a workspace; a production language server would plug in its
// own parser and scope builder instead.
package zigsyntax

import (
	"regexp"
	"strings"

	"github.com/philjestin/zigls/internal/analyzer"
)

var (
	reImport = regexp.MustCompile(`@import\(\s*"([^"]+)"\s*\)`)
	// reCImport only recognizes the block form @cImport({ ... });, which is
	// how @cInclude calls are written in practice.
	reCImport  = regexp.MustCompile(`(?s)@cImport\(\{(.*?)\}\)\s*;`)
	reCInclude = regexp.MustCompile(`@cInclude\(\s*"([^"]+)"\s*\)`)
	reErrorSet = regexp.MustCompile(`(?s)error\s*\{([^}]*)\}`)
	reEnumSet  = regexp.MustCompile(`(?s)enum[^{]*\{([^}]*)\}`)
)

type cimportBlock struct {
	node   analyzer.NodeID
	source string
}

// Tree is the parsed result: the raw import strings and the synthesized C
// source for each @cImport block (built by stringing together #include
// directives for every @cInclude call the block contains, the way Zig's
// real @cImport lowers to a generated translation unit).
type Tree struct {
	imports  []string
	cimports []cimportBlock
	text     string
}

var _ analyzer.Tree = (*Tree)(nil)

func (t *Tree) Imports() []string { return t.imports }

func (t *Tree) CImportNodes() []analyzer.NodeID {
	out := make([]analyzer.NodeID, 0, len(t.cimports))
	for _, c := range t.cimports {
		out = append(out, c.node)
	}
	return out
}

// CImportSource implements cimport.SourceTree.
func (t *Tree) CImportSource(node analyzer.NodeID) (string, bool) {
	for _, c := range t.cimports {
		if c.node == node {
			return c.source, true
		}
	}
	return "", false
}

// Parser is the default analyzer.Parser.
type Parser struct{}

var _ analyzer.Parser = Parser{}

func (Parser) Parse(_ string, text []byte) (analyzer.Tree, error) {
	src := string(text)
	t := &Tree{text: src}

	for _, m := range reImport.FindAllStringSubmatch(src, -1) {
		spec := strings.TrimSpace(m[1])
		if spec == "" {
			continue
		}
		t.imports = append(t.imports, spec)
	}

	for i, m := range reCImport.FindAllStringSubmatch(src, -1) {
		var lines []string
		for _, inc := range reCInclude.FindAllStringSubmatch(m[1], -1) {
			header := strings.TrimSpace(inc[1])
			if header == "" {
				continue
			}
			lines = append(lines, "#include <"+header+">")
		}
		t.cimports = append(t.cimports, cimportBlock{
			node:   analyzer.NodeID(i),
			source: strings.Join(lines, "\n"),
		})
	}

	return t, nil
}

// Scope is the default analyzer.DocumentScope: every identifier declared
// inside an `error{...}` or `enum{...}` literal block.
type Scope struct {
	errs  analyzer.CompletionSet
	enums analyzer.CompletionSet
}

func (s *Scope) ErrorCompletions() analyzer.CompletionSet { return s.errs }
func (s *Scope) EnumCompletions() analyzer.CompletionSet  { return s.enums }

// ScopeBuilder is the default analyzer.ScopeBuilder.
type ScopeBuilder struct{}

var _ analyzer.ScopeBuilder = ScopeBuilder{}

func (ScopeBuilder) BuildScope(tree analyzer.Tree) analyzer.DocumentScope {
	t, ok := tree.(*Tree)
	if !ok {
		return &Scope{errs: analyzer.CompletionSet{}, enums: analyzer.CompletionSet{}}
	}

	errs := analyzer.CompletionSet{}
	for _, m := range reErrorSet.FindAllStringSubmatch(t.text, -1) {
		for _, tag := range splitIdentifiers(m[1]) {
			errs[tag] = ""
		}
	}

	enums := analyzer.CompletionSet{}
	for _, m := range reEnumSet.FindAllStringSubmatch(t.text, -1) {
		for _, tag := range splitIdentifiers(m[1]) {
			enums[tag] = ""
		}
	}

	return &Scope{errs: errs, enums: enums}
}

func splitIdentifiers(body string) []string {
	var out []string
	for _, raw := range strings.Split(body, ",") {
		id := strings.TrimSpace(raw)
		if id == "" {
			continue
		}
		out = append(out, id)
	}
	return out
}
