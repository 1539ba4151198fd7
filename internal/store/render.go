package store

import (
	"encoding/json"
	"sort"
)

// EdgeKind classifies why one document depends on another in a rendered
// DocumentGraph: a plain @import, a successfully translated @cImport, or
// membership in a build.zig's package list. CollectDependencies discards
// this distinction once it flattens dependencies into a URI slice for GC
// and dependency materialization; the graph rendering keeps it because a human (or the
// `ui` subcommand) looking at the graph wants to know which.
type EdgeKind string

const (
	EdgeImport       EdgeKind = "import"
	EdgeCImport      EdgeKind = "cimport"
	EdgeBuildPackage EdgeKind = "build_package"
)

// DocumentNode is one tracked document in a rendered DocumentGraph.
type DocumentNode struct {
	URI         string `json:"uri"`
	Open        bool   `json:"open"`
	IsBuildFile bool   `json:"is_build_file"`
}

// DocumentEdge is one dependency edge in a rendered DocumentGraph.
type DocumentEdge struct {
	From string   `json:"from"`
	To   string   `json:"to"`
	Kind EdgeKind `json:"kind"`
}

// DocumentGraph is a point-in-time rendering of the store's handle graph,
// for the CLI harness to print or serve as JSON. It is a diagnostic view;
// nothing in the store's own invariants depends on it.
type DocumentGraph struct {
	nodes   map[string]DocumentNode
	edges   []DocumentEdge
	reverse map[string][]string
}

func newDocumentGraph() *DocumentGraph {
	return &DocumentGraph{
		nodes:   make(map[string]DocumentNode),
		reverse: make(map[string][]string),
	}
}

func (g *DocumentGraph) touch(n DocumentNode) {
	g.nodes[n.URI] = n
}

func (g *DocumentGraph) addEdge(from, to string, kind EdgeKind) {
	if from == "" || to == "" || from == to {
		return
	}
	g.edges = append(g.edges, DocumentEdge{From: from, To: to, Kind: kind})
	g.reverse[to] = append(g.reverse[to], from)
}

// Nodes returns every tracked document, sorted by URI.
func (g *DocumentGraph) Nodes() []DocumentNode {
	out := make([]DocumentNode, 0, len(g.nodes))
	for _, n := range g.nodes {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].URI < out[j].URI })
	return out
}

// ImpactedBy returns every document that transitively depends on uri: the
// set a change to uri (an edit, a build-file rerun) could affect, found by
// walking the reverse adjacency recorded from import, cimport, and
// build-package edges. uri itself is not included.
func (g *DocumentGraph) ImpactedBy(uri string) []string {
	visited := map[string]bool{}
	var walk func(n string)
	walk = func(n string) {
		for _, pred := range g.reverse[n] {
			if !visited[pred] {
				visited[pred] = true
				walk(pred)
			}
		}
	}
	walk(uri)
	delete(visited, uri)
	out := make([]string, 0, len(visited))
	for u := range visited {
		out = append(out, u)
	}
	sort.Strings(out)
	return out
}

func (g *DocumentGraph) MarshalJSON() ([]byte, error) {
	edges := g.edges
	if edges == nil {
		edges = []DocumentEdge{}
	}
	return json.Marshal(struct {
		Nodes []DocumentNode `json:"nodes"`
		Edges []DocumentEdge `json:"edges"`
	}{
		Nodes: g.Nodes(),
		Edges: edges,
	})
}

// Graph renders the current handle graph: one node per handle, edges for
// imports, successful cimport targets, and associated build-file packages.
func (s *Store) Graph() *DocumentGraph {
	g := newDocumentGraph()

	for u, h := range s.handles {
		g.touch(DocumentNode{URI: u, Open: h.Open, IsBuildFile: h.IsBuildFile})

		for _, dep := range h.Imports {
			g.addEdge(u, dep, EdgeImport)
		}

		for _, ci := range h.CImports {
			res, ok := s.cimports[ci.Hash]
			if !ok || !res.OK {
				continue
			}
			g.addEdge(u, res.URI, EdgeCImport)
		}

		if h.AssociatedBuildFile != "" {
			if bf, ok := s.buildFiles[h.AssociatedBuildFile]; ok {
				for _, pkg := range bf.Config.Packages {
					g.addEdge(u, s.codec.FromPath(pkg.Path), EdgeBuildPackage)
				}
			}
		}
	}

	return g
}
