package store

import "github.com/philjestin/zigls/internal/hash"

// CloseDocument clears the open flag for u and runs GC.
func (s *Store) CloseDocument(u string) {
	if h, ok := s.handles[u]; ok {
		h.Open = false
	}
	s.GC()
}

// GC runs the reachability sweep: every handle not reachable from some open
// handle's dependency closure is removed, then the cimport cache is swept
// to match.
func (s *Store) GC() {
	reachable := make(map[string]struct{}, len(s.handles))
	var worklist []string

	for u, h := range s.handles {
		if !h.Open {
			continue
		}
		reachable[u] = struct{}{}
		worklist = append(worklist, s.CollectDependencies(h)...)
	}

	for len(worklist) > 0 {
		u := worklist[0]
		worklist = worklist[1:]
		if _, ok := reachable[u]; ok {
			continue
		}
		reachable[u] = struct{}{}
		if h, ok := s.handles[u]; ok {
			worklist = append(worklist, s.CollectDependencies(h)...)
		}
	}

	for u := range s.handles {
		if _, ok := reachable[u]; !ok {
			delete(s.handles, u)
		}
	}

	s.gcCimports()
}

// gcCimports drops every cache entry whose hash is not referenced by a
// live handle.
func (s *Store) gcCimports() {
	live := make(map[hash.Digest128]struct{}, len(s.cimports))
	for _, h := range s.handles {
		for _, ci := range h.CImports {
			live[ci.Hash] = struct{}{}
		}
	}
	for digest := range s.cimports {
		if _, ok := live[digest]; !ok {
			delete(s.cimports, digest)
		}
	}
}
