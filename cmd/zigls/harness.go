package main

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/philjestin/zigls/internal/cimport"
	"github.com/philjestin/zigls/internal/config"
	"github.com/philjestin/zigls/internal/hash"
	"github.com/philjestin/zigls/internal/store"
	"github.com/philjestin/zigls/internal/uri"
	"github.com/philjestin/zigls/internal/zigsyntax"
)

// newStore wires up the production Store: the regex-based zigsyntax
// parser/scope-builder and the subprocess translate-c translator, over
// plain file:// URIs.
func newStore(cfg *config.Config) (*store.Store, error) {
	key, err := hash.NewKey()
	if err != nil {
		return nil, err
	}

	codec := uri.FileCodec{}
	translator := cimport.SubprocessTranslator{
		TranslateCExePath: viper.GetString("translate_c_exe_path"),
		OutDir:            filepath.Join(os.TempDir(), "zigls-translate-c"),
		Codec:             codec,
		HashKey:           key,
	}

	return store.New(cfg, codec, zigsyntax.Parser{}, zigsyntax.ScopeBuilder{}, translator)
}

// writeGraphFile renders s's current graph and writes it as indented JSON
// to path, creating parent directories as needed.
func writeGraphFile(s *store.Store, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(s.Graph())
}
