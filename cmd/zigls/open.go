package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/philjestin/zigls/internal/uri"
)

var openOut string

var openCmd = &cobra.Command{
	Use:   "open [files...]",
	Short: "Open one or more documents and print the resulting dependency graph",
	Args:  cobra.MinimumNArgs(1),
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
				return fmt.Errorf("open %s: %w", path, err)
			}
		}

		g := s.Graph()
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if openOut != "" {
			f, err := os.Create(openOut)
			if err != nil {
				return err
			}
			defer f.Close()
			enc = json.NewEncoder(f)
			enc.SetIndent("", "  ")
			if err := enc.Encode(g); err != nil {
				return err
			}
			fmt.Fprintln(os.Stderr, "wrote", openOut)
			return nil
		}
		return enc.Encode(g)
	},
}

func init() {
	rootCmd.AddCommand(openCmd)
	openCmd.Flags().StringVar(&openOut, "out", "", "write graph JSON to file instead of stdout")
}
