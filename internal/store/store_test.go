package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/philjestin/zigls/internal/config"
	"github.com/philjestin/zigls/internal/store/storetest"
	"github.com/philjestin/zigls/internal/uri"
)

func write(t *testing.T, path, content string) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func newTestStore(t *testing.T, cfg *config.Config) (*Store, uri.Codec) {
	t.Helper()
	codec := uri.FileCodec{}
	if cfg == nil {
		cfg = &config.Config{}
	}
	s, err := New(cfg, codec, storetest.Parser{}, storetest.ScopeBuilder{}, storetest.Translator{
		OutDir: filepath.Join(t.TempDir(), "generated"),
		Codec:  codec,
	})
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	return s, codec
}

// --- scenario 1: isolated document, no imports ---

func TestOpenClose_IsolatedDocument(t *testing.T) {
	dir := t.TempDir()
	s, codec := newTestStore(t, nil)

	a := write(t, filepath.Join(dir, "a.zig"), "error OutOfMemory\n")
	u := codec.FromPath(a)

	h, err := s.OpenDocument(context.Background(), u, []byte("error OutOfMemory\n"))
	if err != nil {
		t.Fatalf("OpenDocument: %v", err)
	}
	if h.URI != u {
		t.Fatalf("handle URI = %q, want %q", h.URI, u)
	}
	if s.HandleCount() != 1 {
		t.Fatalf("HandleCount = %d, want 1", s.HandleCount())
	}

	s.CloseDocument(u)
	if s.HandleCount() != 0 {
		t.Fatalf("HandleCount after close = %d, want 0", s.HandleCount())
	}
}

// --- scenario 2: transitive import chain ---

func TestOpenClose_TransitiveImportChain(t *testing.T) {
	dir := t.TempDir()
	s, codec := newTestStore(t, nil)

	c := write(t, filepath.Join(dir, "c.zig"), "enum Color\n")
	_ = c
	bPath := write(t, filepath.Join(dir, "b.zig"), "import ./c.zig\n")
	_ = bPath
	aPath := write(t, filepath.Join(dir, "a.zig"), "import ./b.zig\n")

	u := codec.FromPath(aPath)
	_, err := s.OpenDocument(context.Background(), u, []byte("import ./b.zig\n"))
	if err != nil {
		t.Fatalf("OpenDocument: %v", err)
	}

	if s.HandleCount() != 3 {
		t.Fatalf("HandleCount = %d, want 3 (a, b, c)", s.HandleCount())
	}

	s.CloseDocument(u)
	if s.HandleCount() != 0 {
		t.Fatalf("HandleCount after close = %d, want 0", s.HandleCount())
	}
}

// --- scenario 3: shared dependency kept alive by the other opener ---

func TestOpenClose_SharedDependencySurvivesWhileSiblingOpen(t *testing.T) {
	dir := t.TempDir()
	s, codec := newTestStore(t, nil)

	write(t, filepath.Join(dir, "c.zig"), "enum Color\n")
	aPath := write(t, filepath.Join(dir, "a.zig"), "import ./c.zig\n")
	bPath := write(t, filepath.Join(dir, "b.zig"), "import ./c.zig\n")

	au := codec.FromPath(aPath)
	bu := codec.FromPath(bPath)

	if _, err := s.OpenDocument(context.Background(), au, []byte("import ./c.zig\n")); err != nil {
		t.Fatalf("open a: %v", err)
	}
	if _, err := s.OpenDocument(context.Background(), bu, []byte("import ./c.zig\n")); err != nil {
		t.Fatalf("open b: %v", err)
	}
	if s.HandleCount() != 3 {
		t.Fatalf("HandleCount = %d, want 3 (a, b, c)", s.HandleCount())
	}

	s.CloseDocument(au)
	if s.HandleCount() != 2 {
		t.Fatalf("HandleCount after closing a = %d, want 2 (b, c still reachable)", s.HandleCount())
	}

	s.CloseDocument(bu)
	if s.HandleCount() != 0 {
		t.Fatalf("HandleCount after closing b = %d, want 0", s.HandleCount())
	}
}

// --- scenario 4: import cycle must not hang GC or materialization ---

func TestOpenClose_ImportCycle(t *testing.T) {
	dir := t.TempDir()
	s, codec := newTestStore(t, nil)

	aPath := write(t, filepath.Join(dir, "a.zig"), "import ./b.zig\n")
	write(t, filepath.Join(dir, "b.zig"), "import ./a.zig\n")

	u := codec.FromPath(aPath)
	_, err := s.OpenDocument(context.Background(), u, []byte("import ./b.zig\n"))
	if err != nil {
		t.Fatalf("OpenDocument: %v", err)
	}
	if s.HandleCount() != 2 {
		t.Fatalf("HandleCount = %d, want 2 (a, b)", s.HandleCount())
	}

	s.CloseDocument(u)
	if s.HandleCount() != 0 {
		t.Fatalf("HandleCount after close = %d, want 0", s.HandleCount())
	}
}

// --- scenario 5: a path import whose file is missing still resolves to a
// URI and stays in Imports; only fetching it is skipped, and open does not
// fail ---

func TestOpenDocument_UnfetchableImportIsSkippedSilently(t *testing.T) {
	dir := t.TempDir()
	s, codec := newTestStore(t, nil)

	aPath := write(t, filepath.Join(dir, "a.zig"), "import ./missing.zig\n")
	u := codec.FromPath(aPath)

	h, err := s.OpenDocument(context.Background(), u, []byte("import ./missing.zig\n"))
	if err != nil {
		t.Fatalf("OpenDocument: %v", err)
	}
	if s.HandleCount() != 1 {
		t.Fatalf("HandleCount = %d, want 1 (dangling import stays unresolved)", s.HandleCount())
	}
	if len(h.Imports) != 1 {
		t.Fatalf("h.Imports = %v, want one resolved (but unfetchable) URI", h.Imports)
	}
}

// --- scenario 6: build-file association via ancestor walk ---

func TestOpenDocument_AssociatesNearestBuildFile(t *testing.T) {
	dir := t.TempDir()
	buildZig := write(t, filepath.Join(dir, "build.zig"), "")
	mainZig := write(t, filepath.Join(dir, "src", "main.zig"), "error OutOfMemory\n")

	cfg := &config.Config{ZigExePath: "/usr/bin/zig"}
	s, codec := newTestStore(t, cfg)

	u := codec.FromPath(mainZig)
	h, err := s.OpenDocument(context.Background(), u, []byte("error OutOfMemory\n"))
	if err != nil {
		t.Fatalf("OpenDocument: %v", err)
	}

	want := codec.FromPath(buildZig)
	if h.AssociatedBuildFile != want {
		t.Fatalf("AssociatedBuildFile = %q, want %q", h.AssociatedBuildFile, want)
	}
	if s.BuildFileCount() != 1 {
		t.Fatalf("BuildFileCount = %d, want 1", s.BuildFileCount())
	}
}

// --- properties ---

func TestProperty_HandleKeyEqualsURI(t *testing.T) {
	dir := t.TempDir()
	s, codec := newTestStore(t, nil)
	a := write(t, filepath.Join(dir, "a.zig"), "")
	u := codec.FromPath(a)

	h, err := s.OpenDocument(context.Background(), u, nil)
	if err != nil {
		t.Fatalf("OpenDocument: %v", err)
	}
	if got := s.GetHandle(u); got != h {
		t.Fatalf("GetHandle(%q) = %v, want the handle returned by OpenDocument", u, got)
	}
	if h.URI != u {
		t.Fatalf("h.URI = %q, want %q", h.URI, u)
	}
}

func TestProperty_EmptyAfterFullClose(t *testing.T) {
	dir := t.TempDir()
	s, codec := newTestStore(t, nil)

	write(t, filepath.Join(dir, "c.zig"), "")
	write(t, filepath.Join(dir, "b.zig"), "import ./c.zig\n")
	aPath := write(t, filepath.Join(dir, "a.zig"), "import ./b.zig\n")
	u := codec.FromPath(aPath)

	if _, err := s.OpenDocument(context.Background(), u, []byte("import ./b.zig\n")); err != nil {
		t.Fatalf("OpenDocument: %v", err)
	}
	s.CloseDocument(u)

	if s.HandleCount() != 0 {
		t.Fatalf("HandleCount = %d, want 0 once every open document is closed", s.HandleCount())
	}
	if s.CImportCacheSize() != 0 {
		t.Fatalf("CImportCacheSize = %d, want 0", s.CImportCacheSize())
	}
}

func TestProperty_CollectDependenciesIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	s, codec := newTestStore(t, nil)

	write(t, filepath.Join(dir, "b.zig"), "")
	aPath := write(t, filepath.Join(dir, "a.zig"), "import ./b.zig\n")
	u := codec.FromPath(aPath)

	h, err := s.OpenDocument(context.Background(), u, []byte("import ./b.zig\n"))
	if err != nil {
		t.Fatalf("OpenDocument: %v", err)
	}

	first := s.CollectDependencies(h)
	second := s.CollectDependencies(h)
	if len(first) != len(second) {
		t.Fatalf("CollectDependencies lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("CollectDependencies not deterministic at index %d: %q vs %q", i, first[i], second[i])
		}
	}
}

func TestProperty_RefreshDocumentIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	s, codec := newTestStore(t, nil)

	write(t, filepath.Join(dir, "b.zig"), "")
	aPath := write(t, filepath.Join(dir, "a.zig"), "import ./b.zig\n")
	u := codec.FromPath(aPath)
	text := []byte("import ./b.zig\nerror OutOfMemory\n")

	h, err := s.OpenDocument(context.Background(), u, text)
	if err != nil {
		t.Fatalf("OpenDocument: %v", err)
	}

	if err := s.RefreshDocument(context.Background(), u, text); err != nil {
		t.Fatalf("RefreshDocument (1): %v", err)
	}
	firstImports := append([]string(nil), h.Imports...)

	if err := s.RefreshDocument(context.Background(), u, text); err != nil {
		t.Fatalf("RefreshDocument (2): %v", err)
	}
	if len(h.Imports) != len(firstImports) {
		t.Fatalf("Imports changed across idempotent refresh: %v vs %v", firstImports, h.Imports)
	}
	for i := range firstImports {
		if h.Imports[i] != firstImports[i] {
			t.Fatalf("Imports changed across idempotent refresh at %d: %q vs %q", i, firstImports[i], h.Imports[i])
		}
	}
}

func TestProperty_OpenThenCloseWithNoImportsEmptiesStore(t *testing.T) {
	dir := t.TempDir()
	s, codec := newTestStore(t, nil)
	a := write(t, filepath.Join(dir, "a.zig"), "")
	u := codec.FromPath(a)

	if _, err := s.OpenDocument(context.Background(), u, nil); err != nil {
		t.Fatalf("OpenDocument: %v", err)
	}
	s.CloseDocument(u)

	if s.HandleCount() != 0 {
		t.Fatalf("HandleCount = %d, want 0", s.HandleCount())
	}
}

// --- cimport cache / handle correspondence ---

func TestCImport_SuccessfulTranslationMaterializesHandleAndCache(t *testing.T) {
	dir := t.TempDir()
	s, codec := newTestStore(t, nil)

	aPath := write(t, filepath.Join(dir, "a.zig"), "cimport 0 int add(int, int);\n")
	u := codec.FromPath(aPath)

	h, err := s.OpenDocument(context.Background(), u, []byte("cimport 0 int add(int, int);\n"))
	if err != nil {
		t.Fatalf("OpenDocument: %v", err)
	}
	if len(h.CImports) != 1 {
		t.Fatalf("CImports = %v, want one entry", h.CImports)
	}
	if s.CImportCacheSize() != 1 {
		t.Fatalf("CImportCacheSize = %d, want 1", s.CImportCacheSize())
	}

	target, ok := s.ResolveCImport(h, h.CImports[0].Node)
	if !ok {
		t.Fatalf("ResolveCImport: expected success")
	}
	if s.GetHandle(target) == nil {
		t.Fatalf("no handle materialized for translated cimport target %q", target)
	}

	s.CloseDocument(u)
	if s.CImportCacheSize() != 0 {
		t.Fatalf("CImportCacheSize after close = %d, want 0 (garbage_collection_cimports)", s.CImportCacheSize())
	}
}

func TestCImport_TranslatedTargetOwnImportGetsMaterialized(t *testing.T) {
	dir := t.TempDir()
	outDir := filepath.Join(t.TempDir(), "generated")
	codec := uri.FileCodec{}

	depPath := write(t, filepath.Join(outDir, "dep.zig"), "error DepError\n")
	depURI := codec.FromPath(depPath)

	s, err := New(&config.Config{}, codec, storetest.Parser{}, storetest.ScopeBuilder{}, storetest.Translator{
		OutDir: outDir,
		Codec:  codec,
	})
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}

	src := "cimport 0 import ./dep.zig\n"
	aPath := write(t, filepath.Join(dir, "a.zig"), src)
	u := codec.FromPath(aPath)

	h, err := s.OpenDocument(context.Background(), u, []byte(src))
	if err != nil {
		t.Fatalf("OpenDocument: %v", err)
	}

	target, ok := s.ResolveCImport(h, h.CImports[0].Node)
	if !ok {
		t.Fatalf("ResolveCImport: expected success")
	}
	if s.GetHandle(target) == nil {
		t.Fatalf("no handle materialized for translated cimport target %q", target)
	}

	// dep.zig is only reachable through an @import inside the cimport
	// target's own translated source, not through a.zig's own imports or
	// cimports directly. It must still get a handle.
	if s.GetHandle(depURI) == nil {
		t.Fatalf("no handle materialized for %q, reachable only via the cimport target's own import", depURI)
	}
}

func TestCImport_FailedTranslationIsCachedAsFailureAndStopsLaterSiblings(t *testing.T) {
	dir := t.TempDir()
	s, codec := newTestStore(t, nil)

	src := "cimport 0 FAIL_TRANSLATE\ncimport 1 int ok(void);\n"
	aPath := write(t, filepath.Join(dir, "a.zig"), src)
	u := codec.FromPath(aPath)

	h, err := s.OpenDocument(context.Background(), u, []byte(src))
	if err != nil {
		t.Fatalf("OpenDocument: %v", err)
	}
	if len(h.CImports) != 2 {
		t.Fatalf("CImports = %v, want two entries", h.CImports)
	}

	if _, ok := s.ResolveCImport(h, h.CImports[0].Node); ok {
		t.Fatalf("ResolveCImport(0): expected failure to be cached as failure")
	}
	if s.CImportCacheSize() != 1 {
		t.Fatalf("CImportCacheSize = %d, want 1 (failure cached, second cimport never attempted)", s.CImportCacheSize())
	}
}

// --- completion aggregation ---

func TestCompletionItems_AggregateAcrossImports(t *testing.T) {
	dir := t.TempDir()
	s, codec := newTestStore(t, nil)

	write(t, filepath.Join(dir, "b.zig"), "enum Color\n")
	aPath := write(t, filepath.Join(dir, "a.zig"), "import ./b.zig\nerror OutOfMemory\n")
	u := codec.FromPath(aPath)

	h, err := s.OpenDocument(context.Background(), u, []byte("import ./b.zig\nerror OutOfMemory\n"))
	if err != nil {
		t.Fatalf("OpenDocument: %v", err)
	}

	errs := s.ErrorCompletionItems(h)
	if _, ok := errs["OutOfMemory"]; !ok {
		t.Fatalf("ErrorCompletionItems = %v, want OutOfMemory from a.zig itself", errs)
	}

	enums := s.EnumCompletionItems(h)
	if _, ok := enums["Color"]; !ok {
		t.Fatalf("EnumCompletionItems = %v, want Color from imported b.zig", enums)
	}
}

// --- parse failure propagates on open ---

func TestOpenDocument_ParseFailurePropagates(t *testing.T) {
	dir := t.TempDir()
	s, codec := newTestStore(t, nil)
	a := write(t, filepath.Join(dir, "a.zig"), "parse-error\n")
	u := codec.FromPath(a)

	if _, err := s.OpenDocument(context.Background(), u, []byte("parse-error\n")); err == nil {
		t.Fatalf("OpenDocument: expected parse error to propagate")
	}
	if s.HandleCount() != 0 {
		t.Fatalf("HandleCount = %d, want 0 after a failed open", s.HandleCount())
	}
}
