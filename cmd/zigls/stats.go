package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/philjestin/zigls/internal/uri"
)

var statsCmd = &cobra.Command{
	Use:   "stats [files...]",
	Short: "Open documents and print handle/build-file/cimport-cache counts plus impacted documents",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		s, err := newStore(cfg)
		if err != nil {
			return err
		}

		codec := uri.FileCodec{}
		ctx := context.Background()
		for _, path := range args {
			abs, err := filepath.Abs(path)
			if err != nil {
				return err
			}
			text, err := os.ReadFile(abs)
			if err != nil {
				return err
			}
			if _, err := s.OpenDocument(ctx, codec.FromPath(abs), text); err != nil {
				return err
			}
		}

		g := s.Graph()
		impacted := map[string][]string{}
		for _, path := range args {
			abs, err := filepath.Abs(path)
			if err != nil {
				return err
			}
			u := codec.FromPath(abs)
			impacted[u] = g.ImpactedBy(u)
		}

		out := struct {
			Handles      int                 `json:"handles"`
			BuildFiles   int                 `json:"build_files"`
			CImportCache int                 `json:"cimport_cache"`
			Impacted     map[string][]string `json:"impacted_by"`
		}{
			Handles:      s.HandleCount(),
			BuildFiles:   s.BuildFileCount(),
			CImportCache: s.CImportCacheSize(),
			Impacted:     impacted,
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
