// Package cimport is the default analyzer.Translator: it forks the external
// C-to-Zig translation tool the way internal/buildrun forks the build
// runner, and uses go-tree-sitter's bundled C grammar to scan the input C
// source's #include spellings for diagnostic logging.
package cimport

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	sitter "github.com/smacker/go-tree-sitter"
	tsc "github.com/smacker/go-tree-sitter/c"
	"github.com/sirupsen/logrus"

	"github.com/philjestin/zigls/internal/analyzer"
	"github.com/philjestin/zigls/internal/hash"
	"github.com/philjestin/zigls/internal/uri"
)

// SourceTree is the capability a Tree implementation opts into when it can
// hand back the raw C source text a @cImport node spans. The store's
// analyzer.Tree interface deliberately does not carry this, since most
// Trees never need it, so ConvertCInclude recovers it with a type
// assertion, the same optional-interface idiom io.ReaderFrom uses in the
// standard library.
type SourceTree interface {
	analyzer.Tree
	CImportSource(node analyzer.NodeID) (string, bool)
}

// SubprocessTranslator is the production analyzer.Translator. It shells out
// to TranslateCExePath for every translation (grounded on buildrun.Run's
// capture-stdout-then-decide pattern) and writes successful output as .zig
// files under OutDir, named by content hash, so identical C source always
// maps to the same file and URI; an existing file is overwritten, not
// reused.
type SubprocessTranslator struct {
	TranslateCExePath string
	OutDir            string
	Codec             uri.Codec
	HashKey           hash.Key
}

var _ analyzer.Translator = SubprocessTranslator{}

func (SubprocessTranslator) ConvertCInclude(tree analyzer.Tree, node analyzer.NodeID) (string, bool) {
	st, ok := tree.(SourceTree)
	if !ok {
		return "", false
	}
	return st.CImportSource(node)
}

// Translate runs the configured translate-c executable over cSource,
// passing includeDirs as -I flags on its argv and the source on stdin. A
// missing executable path is treated as "unconfigured": every cimport is a
// transient no-result rather than a hard failure, matching
// analyzer.Translator's documented nil-result contract.
func (t SubprocessTranslator) Translate(ctx context.Context, cSource string, includeDirs []string) (*analyzer.TranslateResult, error) {
	if t.TranslateCExePath == "" {
		return nil, nil
	}

	args := make([]string, 0, len(includeDirs))
	for _, dir := range includeDirs {
		args = append(args, "-I"+dir)
	}

	cmd := exec.CommandContext(ctx, t.TranslateCExePath, args...)
	cmd.Stdin = bytes.NewBufferString(cSource)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		logrus.WithFields(logrus.Fields{
			"stderr": stderr.String(),
			"error":  err,
		}).Error("translate-c invocation exited non-zero")
		return &analyzer.TranslateResult{OK: false}, nil
	}

	if includes := extractIncludeNames(cSource); len(includes) > 0 {
		logrus.WithField("includes", includes).Debug("translate-c source referenced headers")
	}

	digest := hash.KeyedSum128(t.HashKey, []byte(cSource))
	name := hex.EncodeToString(digest[:]) + ".zig"
	path := filepath.Join(t.OutDir, name)

	if err := os.MkdirAll(t.OutDir, 0o755); err != nil {
		return nil, fmt.Errorf("cimport: preparing output dir: %w", err)
	}
	if err := os.WriteFile(path, stdout.Bytes(), 0o644); err != nil {
		return nil, fmt.Errorf("cimport: writing translated source: %w", err)
	}

	return &analyzer.TranslateResult{OK: true, URI: t.Codec.FromPath(path)}, nil
}

// extractIncludeNames walks cSource with go-tree-sitter's C grammar and
// returns the spelling of every #include directive it finds (angle-bracket
// or quoted), best-effort: a parse failure yields an empty slice rather
// than an error, since this is diagnostic-only and must never block
// translation.
func extractIncludeNames(cSource string) []string {
	parser := sitter.NewParser()
	parser.SetLanguage(tsc.GetLanguage())

	tree := parser.Parse(nil, []byte(cSource))
	if tree == nil {
		return nil
	}

	src := []byte(cSource)
	var out []string
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n.Type() == "preproc_include" {
			for i := 0; i < int(n.NamedChildCount()); i++ {
				c := n.NamedChild(i)
				switch c.Type() {
				case "string_literal", "system_lib_string":
					out = append(out, string(src[c.StartByte():c.EndByte()]))
				}
			}
		}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			walk(n.NamedChild(i))
		}
	}
	walk(tree.RootNode())
	return out
}
