package store

import (
	"context"

	"github.com/sirupsen/logrus"
)

// CollectDependencies enumerates h's dependencies: every resolved import,
// every successfully translated cimport target, and (if h has an
// associated build file) every package path it declares. The result is a
// freshly allocated slice each call, and calling it twice without
// intervening mutation yields a byte-equal sequence.
func (s *Store) CollectDependencies(h *Handle) []string {
	out := make([]string, 0, len(h.Imports)+len(h.CImports)+4)
	out = append(out, h.Imports...)

	for _, ci := range h.CImports {
		if res, ok := s.cimports[ci.Hash]; ok && res.OK {
			out = append(out, res.URI)
		}
	}

	if h.AssociatedBuildFile != "" {
		if bf, ok := s.buildFiles[h.AssociatedBuildFile]; ok {
			for _, pkg := range bf.Config.Packages {
				out = append(out, s.codec.FromPath(pkg.Path))
			}
		}
	}

	return out
}

// ensureDependenciesProcessed drains h's dependency closure through
// drainWorklist, then processes h's own cimports last, matching the order
// document creation establishes: h's imports and build-file packages are
// resolved before h's cimports are translated.
func (s *Store) ensureDependenciesProcessed(ctx context.Context, h *Handle) {
	s.drainWorklist(ctx, s.CollectDependencies(h))
	s.ensureCimportsProcessed(ctx, h)
}

// drainWorklist fetches and inserts every URI in worklist not already
// tracked, transitively: for each new handle it runs ensureCimportsProcessed
// and enqueues the handle's own CollectDependencies in turn. This is the
// shared breadth-first materialization both ensureDependenciesProcessed and
// a cimport target's own dependency closure (see ensureCimportsProcessed)
// use, so a URI reachable only through a translated-C source's plain
// @import graph still gets a handle.
func (s *Store) drainWorklist(ctx context.Context, worklist []string) {
	for len(worklist) > 0 {
		u := worklist[0]
		worklist = worklist[1:]

		if _, ok := s.handles[u]; ok {
			continue
		}

		dep, err := s.CreateDocumentFromURI(ctx, u, false)
		if err != nil || dep == nil {
			logrus.WithFields(logrus.Fields{"uri": u, "error": err}).Debug("dependency unavailable, skipping")
			continue
		}

		s.insertHandle(dep)
		s.ensureCimportsProcessed(ctx, dep)
		worklist = append(worklist, s.CollectDependencies(dep)...)
	}
}

// ensureCimportsProcessed translates every cimport of h not already cached,
// caching success/failure under its content hash and materializing a
// handle for a successful target. A failure stops processing the
// remaining cimports of this handle for this call; cached failures make
// retries on a later call cheap. A successfully materialized target also
// has its own dependency closure drained through drainWorklist, so its
// plain @import graph is reachable the same way a regular import's would
// be, not stranded behind the cimport edge that produced it.
func (s *Store) ensureCimportsProcessed(ctx context.Context, h *Handle) {
	var includeDirs []string
	if h.AssociatedBuildFile != "" {
		if bf, ok := s.buildFiles[h.AssociatedBuildFile]; ok {
			includeDirs = bf.Config.IncludeDirs
		}
	}

	for _, ci := range h.CImports {
		if _, ok := s.cimports[ci.Hash]; ok {
			continue
		}

		result, err := s.translator.Translate(ctx, ci.Source, includeDirs)
		if err != nil {
			logrus.WithError(err).Error("translate-c invocation failed")
			continue
		}
		if result == nil {
			// Transient failure: skip without caching.
			continue
		}

		s.cimports[ci.Hash] = *result

		if !result.OK {
			break
		}

		if _, ok := s.handles[result.URI]; ok {
			continue
		}
		dep, err := s.CreateDocumentFromURI(ctx, result.URI, false)
		if err != nil || dep == nil {
			logrus.WithFields(logrus.Fields{"uri": result.URI, "error": err}).Debug("cimport target unavailable, skipping")
			continue
		}
		s.insertHandle(dep)
		s.ensureCimportsProcessed(ctx, dep)
		s.drainWorklist(ctx, s.CollectDependencies(dep))
	}
}
