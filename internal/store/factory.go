package store

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/philjestin/zigls/internal/builddesc"
	"github.com/philjestin/zigls/internal/buildwalk"
	"github.com/philjestin/zigls/internal/hash"
	"github.com/philjestin/zigls/internal/uri"
)

// CreateDocument parses source text, builds its semantic scope, collects and
// resolves imports, collects cimports, then decides build-file association,
// in that literal order. A document whose own package-name import needs its
// AssociatedBuildFile to resolve will only do so on a later Refresh, since
// association runs after import collection here.
func (s *Store) CreateDocument(u string, text []byte, open bool) (*Handle, error) {
	tree, err := s.parser.Parse(u, text)
	if err != nil {
		return nil, err
	}
	scope := s.scopeBuilder.BuildScope(tree)

	h := &Handle{URI: u, Text: text, Tree: tree, Scope: scope, Open: open}

	for _, raw := range tree.Imports() {
		if resolved, ok := s.resolveImportForHandle(h, raw); ok {
			h.Imports = append(h.Imports, resolved)
		}
	}

	for _, node := range tree.CImportNodes() {
		cSource, ok := s.translator.ConvertCInclude(tree, node)
		if !ok {
			continue
		}
		h.CImports = append(h.CImports, CImportRef{
			Node:   node,
			Hash:   hash.KeyedSum128(s.hashKey, []byte(cSource)),
			Source: cSource,
		})
	}

	s.associateBuildFile(h)

	return h, nil
}

// CreateDocumentFromURI reads uri's filesystem contents and delegates to
// CreateDocument. Read failure is returned to the caller rather than
// treated as fatal here; its callers during dependency materialization
// (drainWorklist and ensureCimportsProcessed) log and skip it, preserving
// the best-effort contract of dependency materialization.
func (s *Store) CreateDocumentFromURI(ctx context.Context, u string, open bool) (*Handle, error) {
	path, err := s.codec.ToPath(u)
	if err != nil {
		return nil, err
	}
	text, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return s.CreateDocument(u, text, open)
}

// associateBuildFile decides which build.zig, if any, a document belongs to.
// It applies to any document that is not itself a build file, not only
// builtin.zig: the nearest ancestor build.zig whose package graph reaches the
// document wins, and if none reaches it, the nearest ancestor build.zig is
// used. See DESIGN.md.
func (s *Store) associateBuildFile(h *Handle) {
	if s.cfg.ZigExePath == "" {
		return
	}
	if uri.ContainsSegment(h.URI, "std") {
		return
	}

	if strings.HasSuffix(h.URI, "/build.zig") {
		s.ensureBuildFile(h.URI)
		h.IsBuildFile = true
		return
	}

	path, err := s.codec.ToPath(h.URI)
	if err != nil {
		return
	}

	ancestors := buildwalk.Ancestors(path)
	if len(ancestors) == 0 {
		return
	}

	var nearest string
	for i := len(ancestors) - 1; i >= 0; i-- {
		dir := ancestors[i]
		buildURI := s.codec.FromPath(filepath.Join(dir, "build.zig"))
		bf := s.ensureBuildFile(buildURI)
		if nearest == "" {
			nearest = buildURI
		}
		if s.buildFileReachesURI(bf, h.URI) {
			h.AssociatedBuildFile = buildURI
			return
		}
	}

	h.AssociatedBuildFile = nearest
}

// ensureBuildFile returns the BuildFile record for buildURI, loading it on
// first reference.
func (s *Store) ensureBuildFile(buildURI string) *builddesc.BuildFile {
	if bf, ok := s.buildFiles[buildURI]; ok {
		return bf
	}
	path, err := s.codec.ToPath(buildURI)
	if err != nil {
		bf := &builddesc.BuildFile{URI: buildURI}
		s.buildFiles[buildURI] = bf
		return bf
	}
	dir := filepath.Dir(path)
	bf := builddesc.Load(context.Background(), s.cfg, s.codec, buildURI, path, dir)
	s.buildFiles[buildURI] = bf
	return bf
}

// buildFileReachesURI probes whether any package in bf, or any document
// transitively imported from such a package, matches target. This is a
// read-only traversal over the filesystem (not the live handle graph): it
// must run before target's own handle exists, and it must not mutate the
// store.
func (s *Store) buildFileReachesURI(bf *builddesc.BuildFile, target string) bool {
	visited := map[string]bool{}
	var dfs func(u string) bool
	dfs = func(u string) bool {
		if u == target {
			return true
		}
		if visited[u] {
			return false
		}
		visited[u] = true

		path, err := s.codec.ToPath(u)
		if err != nil {
			return false
		}
		text, err := os.ReadFile(path)
		if err != nil {
			return false
		}
		tree, err := s.parser.Parse(u, text)
		if err != nil {
			return false
		}
		for _, raw := range tree.Imports() {
			resolved, ok := s.resolveImport(bf.URI, u, raw)
			if !ok {
				continue
			}
			if dfs(resolved) {
				return true
			}
		}
		return false
	}

	for _, pkg := range bf.Config.Packages {
		if dfs(s.codec.FromPath(pkg.Path)) {
			return true
		}
	}
	return false
}

// resolveImportForHandle resolves raw against h's own associated build file
// and location.
func (s *Store) resolveImportForHandle(h *Handle, raw string) (string, bool) {
	return s.resolveImport(h.AssociatedBuildFile, h.URI, raw)
}

// resolveImport resolves a raw import string to a document URI, following
// the std / builtin / named-package / path-relative resolution table.
func (s *Store) resolveImport(associatedBuildFile, fromURI, raw string) (string, bool) {
	switch {
	case raw == "std":
		if s.cfg.ZigLibPath == "" {
			return "", false
		}
		return s.codec.FromPath(filepath.Join(s.cfg.ZigLibPath, "std", "std.zig")), true

	case raw == "builtin":
		if associatedBuildFile != "" {
			if bf, ok := s.buildFiles[associatedBuildFile]; ok && bf.BuiltinURI != "" {
				return bf.BuiltinURI, true
			}
		}
		if s.cfg.BuiltinPath != "" {
			return s.cfg.BuiltinPath, true
		}
		return "", false

	case !strings.HasSuffix(raw, ".zig"):
		if associatedBuildFile == "" {
			return "", false
		}
		bf, ok := s.buildFiles[associatedBuildFile]
		if !ok {
			return "", false
		}
		for _, pkg := range bf.Config.Packages {
			if pkg.Name == raw {
				return s.codec.FromPath(pkg.Path), true
			}
		}
		return "", false

	default:
		return uri.JoinPath(uri.Dir(fromURI), raw), true
	}
}
