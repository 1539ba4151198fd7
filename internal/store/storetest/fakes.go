// Package storetest provides fake analyzer.Parser/ScopeBuilder/Translator
// implementations for exercising internal/store without a real Zig
// toolchain. Documents are plain line-oriented fixtures:
//
//	import std
//	import builtin
//	import mypkg
//	import ./sibling.zig
//	cimport 0 some C source text
//	error OutOfMemory
//	enum Color
//
// Each "cimport <id> <source>" line becomes one @cImport node; the id is
// only used to give tests a stable NodeID to ask ResolveCImport about.
package storetest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/philjestin/zigls/internal/analyzer"
	"github.com/philjestin/zigls/internal/uri"
)

// ErrFakeParse is returned by Parser.Parse when the fixture contains the
// literal line "parse-error", letting tests exercise the propagate-on-open
// path.
var ErrFakeParse = errors.New("storetest: simulated parse failure")

type cimport struct {
	node   analyzer.NodeID
	source string
}

// Tree is the fake analyzer.Tree produced by Parser.
type Tree struct {
	imports  []string
	cimports []cimport
	errors   []string
	enums    []string
}

func (t *Tree) Imports() []string { return t.imports }

func (t *Tree) CImportNodes() []analyzer.NodeID {
	out := make([]analyzer.NodeID, 0, len(t.cimports))
	for _, c := range t.cimports {
		out = append(out, c.node)
	}
	return out
}

func (t *Tree) source(node analyzer.NodeID) (string, bool) {
	for _, c := range t.cimports {
		if c.node == node {
			return c.source, true
		}
	}
	return "", false
}

// Parser is a fake analyzer.Parser reading the line-oriented fixture format
// described in the package doc comment.
type Parser struct{}

var _ analyzer.Parser = Parser{}

func (Parser) Parse(_ string, text []byte) (analyzer.Tree, error) {
	t := &Tree{}
	for _, line := range strings.Split(string(text), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		switch {
		case line == "parse-error":
			return nil, ErrFakeParse
		case strings.HasPrefix(line, "import "):
			t.imports = append(t.imports, strings.TrimSpace(strings.TrimPrefix(line, "import ")))
		case strings.HasPrefix(line, "cimport "):
			rest := strings.TrimPrefix(line, "cimport ")
			parts := strings.SplitN(rest, " ", 2)
			id, err := strconv.Atoi(parts[0])
			if err != nil {
				continue
			}
			src := ""
			if len(parts) == 2 {
				src = parts[1]
			}
			t.cimports = append(t.cimports, cimport{node: analyzer.NodeID(id), source: src})
		case strings.HasPrefix(line, "error "):
			t.errors = append(t.errors, strings.TrimSpace(strings.TrimPrefix(line, "error ")))
		case strings.HasPrefix(line, "enum "):
			t.enums = append(t.enums, strings.TrimSpace(strings.TrimPrefix(line, "enum ")))
		}
	}
	return t, nil
}

// Scope is the fake analyzer.DocumentScope built from a Tree's error/enum
// lines.
type Scope struct {
	errs  analyzer.CompletionSet
	enums analyzer.CompletionSet
}

func (s *Scope) ErrorCompletions() analyzer.CompletionSet { return s.errs }
func (s *Scope) EnumCompletions() analyzer.CompletionSet  { return s.enums }

// ScopeBuilder is a fake analyzer.ScopeBuilder.
type ScopeBuilder struct{}

var _ analyzer.ScopeBuilder = ScopeBuilder{}

func (ScopeBuilder) BuildScope(tree analyzer.Tree) analyzer.DocumentScope {
	t := tree.(*Tree)
	errs := analyzer.CompletionSet{}
	for _, e := range t.errors {
		errs[e] = ""
	}
	enums := analyzer.CompletionSet{}
	for _, e := range t.enums {
		enums[e] = ""
	}
	return &Scope{errs: errs, enums: enums}
}

// Translator is a fake analyzer.Translator. C source containing the marker
// "FAIL_TRANSLATE" fails; "NO_RESULT" simulates a transient failure that is
// skipped without caching; anything else is "translated" by writing cSource
// verbatim to a .zig file under OutDir and returning its URI. Writing it
// verbatim, rather than wrapped in a comment, lets a test make the "C
// source" double as the translated document's own fixture body (e.g.
// further "import " lines) and exercise what the translated target itself
// then depends on.
type Translator struct {
	OutDir string
	Codec  uri.Codec
}

var _ analyzer.Translator = Translator{}

func (Translator) ConvertCInclude(tree analyzer.Tree, node analyzer.NodeID) (string, bool) {
	t := tree.(*Tree)
	src, ok := t.source(node)
	if !ok || src == "UNSUPPORTED" {
		return "", false
	}
	return src, true
}

func (tr Translator) Translate(_ context.Context, cSource string, _ []string) (*analyzer.TranslateResult, error) {
	if strings.Contains(cSource, "NO_RESULT") {
		return nil, nil
	}
	if strings.Contains(cSource, "FAIL_TRANSLATE") {
		return &analyzer.TranslateResult{OK: false}, nil
	}

	sum := sha256.Sum256([]byte(cSource))
	name := hex.EncodeToString(sum[:8]) + ".zig"
	path := filepath.Join(tr.OutDir, name)
	if _, err := os.Stat(path); err != nil {
		if err := os.MkdirAll(tr.OutDir, 0o755); err != nil {
			return nil, err
		}
		if err := os.WriteFile(path, []byte(cSource), 0o644); err != nil {
			return nil, err
		}
	}
	return &analyzer.TranslateResult{OK: true, URI: tr.Codec.FromPath(path)}, nil
}
