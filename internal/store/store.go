// Package store is the document store of the language server: the
// in-memory universe of open documents plus every transitive source file
// they import, with reachability-based garbage collection.
package store

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/philjestin/zigls/internal/analyzer"
	"github.com/philjestin/zigls/internal/builddesc"
	"github.com/philjestin/zigls/internal/config"
	"github.com/philjestin/zigls/internal/hash"
	"github.com/philjestin/zigls/internal/uri"
)

// Store owns the document graph, the build-file table, and the cimport
// cache. It assumes exclusive access by a single driver goroutine; there
// is no internal locking.
type Store struct {
	cfg          *config.Config
	codec        uri.Codec
	parser       analyzer.Parser
	scopeBuilder analyzer.ScopeBuilder
	translator   analyzer.Translator
	hashKey      hash.Key

	handles    map[string]*Handle
	buildFiles map[string]*builddesc.BuildFile
	cimports   map[hash.Digest128]analyzer.TranslateResult
}

// New constructs an empty Store. cfg is borrowed and must outlive the
// Store; the store never mutates it.
func New(cfg *config.Config, codec uri.Codec, parser analyzer.Parser, scopeBuilder analyzer.ScopeBuilder, translator analyzer.Translator) (*Store, error) {
	key, err := hash.NewKey()
	if err != nil {
		return nil, fmt.Errorf("store: generating cimport cache key: %w", err)
	}
	return &Store{
		cfg:          cfg,
		codec:        codec,
		parser:       parser,
		scopeBuilder: scopeBuilder,
		translator:   translator,
		hashKey:      key,
		handles:      make(map[string]*Handle),
		buildFiles:   make(map[string]*builddesc.BuildFile),
		cimports:     make(map[hash.Digest128]analyzer.TranslateResult),
	}, nil
}

// GetHandle returns a non-owning pointer to the handle for uri, or nil if
// none exists.
func (s *Store) GetHandle(u string) *Handle {
	h, ok := s.handles[u]
	if !ok {
		logrus.WithField("uri", u).Warn("get_handle: no such document")
		return nil
	}
	return h
}

// HandleCount reports the number of live handles, for the CLI's stats
// subcommand and for property tests.
func (s *Store) HandleCount() int { return len(s.handles) }

// BuildFileCount reports the number of tracked build files.
func (s *Store) BuildFileCount() int { return len(s.buildFiles) }

// CImportCacheSize reports the number of cached translation results.
func (s *Store) CImportCacheSize() int { return len(s.cimports) }

// OpenDocument marks u open if it is already tracked (logging a warning on
// a double-open) and returns the existing, store-owned handle, never a
// snapshot copy; callers always see live state, not a value copied at open
// time. Otherwise it constructs a fresh handle and materializes its
// dependency closure before returning.
func (s *Store) OpenDocument(ctx context.Context, u string, text []byte) (*Handle, error) {
	if existing, ok := s.handles[u]; ok {
		if existing.Open {
			logrus.WithField("uri", u).Warn("open_document: already open")
		}
		existing.Open = true
		return existing, nil
	}

	h, err := s.CreateDocument(u, text, true)
	if err != nil {
		return nil, err
	}
	s.insertHandle(h)
	s.ensureDependenciesProcessed(ctx, h)
	return h, nil
}

// ApplySave re-runs the build tool for a build file, leaving non-build-file
// documents untouched.
func (s *Store) ApplySave(ctx context.Context, u string) error {
	h, ok := s.handles[u]
	if !ok {
		return fmt.Errorf("apply_save: unknown document %q", u)
	}
	if !h.IsBuildFile {
		return nil
	}
	bf, ok := s.buildFiles[u]
	if !ok {
		return nil
	}
	path, err := s.codec.ToPath(u)
	if err != nil {
		return err
	}
	builddesc.ApplySave(ctx, s.cfg, bf, path, filepath.Dir(path))
	return nil
}

// RefreshDocument re-parses u, rebuilds its scope, recomputes imports and
// cimports, and re-runs cimport processing. It does not fetch newly added
// import dependencies, a known, deliberately preserved limitation. See
// DESIGN.md.
func (s *Store) RefreshDocument(ctx context.Context, u string, text []byte) error {
	h, ok := s.handles[u]
	if !ok {
		return fmt.Errorf("refresh_document: unknown document %q", u)
	}

	tree, err := s.parser.Parse(u, text)
	if err != nil {
		return err
	}
	scope := s.scopeBuilder.BuildScope(tree)

	h.Text = text
	h.Tree = tree
	h.Scope = scope
	h.Imports = h.Imports[:0]
	for _, raw := range tree.Imports() {
		if resolved, ok := s.resolveImportForHandle(h, raw); ok {
			h.Imports = append(h.Imports, resolved)
		}
	}

	h.CImports = h.CImports[:0]
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

	s.ensureCimportsProcessed(ctx, h)
	return nil
}

// ResolveCImport finds node's cimport entry and returns the translated
// URI, if the cached translation succeeded.
func (s *Store) ResolveCImport(h *Handle, node analyzer.NodeID) (string, bool) {
	for _, ci := range h.CImports {
		if ci.Node != node {
			continue
		}
		res, ok := s.cimports[ci.Hash]
		if !ok || !res.OK {
			return "", false
		}
		return res.URI, true
	}
	return "", false
}

// ErrorCompletionItems aggregates the error-tag completion set of h with
// those of every directly-imported handle and every successful cimport
// target.
func (s *Store) ErrorCompletionItems(h *Handle) analyzer.CompletionSet {
	return s.aggregateCompletions(h, analyzer.DocumentScope.ErrorCompletions)
}

// EnumCompletionItems is the enum-tag analogue of ErrorCompletionItems.
func (s *Store) EnumCompletionItems(h *Handle) analyzer.CompletionSet {
	return s.aggregateCompletions(h, analyzer.DocumentScope.EnumCompletions)
}

func (s *Store) aggregateCompletions(h *Handle, pick func(analyzer.DocumentScope) analyzer.CompletionSet) analyzer.CompletionSet {
	out := analyzer.CompletionSet{}
	merge := func(scope analyzer.DocumentScope) {
		if scope == nil {
			return
		}
		for k, v := range pick(scope) {
			if _, exists := out[k]; !exists {
				out[k] = v
			}
		}
	}

	merge(h.Scope)
	for _, dep := range h.Imports {
		if dh, ok := s.handles[dep]; ok {
			merge(dh.Scope)
		}
	}
	for _, ci := range h.CImports {
		res, ok := s.cimports[ci.Hash]
		if !ok || !res.OK {
			continue
		}
		if dh, ok := s.handles[res.URI]; ok {
			merge(dh.Scope)
		}
	}
	return out
}

func (s *Store) insertHandle(h *Handle) {
	s.handles[h.URI] = h
}
