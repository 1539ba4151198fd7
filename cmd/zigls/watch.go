package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/philjestin/zigls/internal/uri"
)

var watchOut string

// watchCmd opens every given document, then watches their directories and
// refreshes any changed document in place, writing the updated graph to the
// --graph file (when one is given) after each debounced batch of changes;
// without --graph nothing is printed. It rebuilds the store incrementally
// instead of running a from-scratch scan on every change.
var watchCmd = &cobra.Command{
	Use:   "watch [files...]",
	Short: "Watch opened documents and refresh them on change",
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

		paths := make(map[string]string, len(args))
		for _, path := range args {
			abs, err := filepath.Abs(path)
			if err != nil {
				return err
			}
			text, err := os.ReadFile(abs)
			if err != nil {
				return err
			}
			u := codec.FromPath(abs)
			if _, err := s.OpenDocument(ctx, u, text); err != nil {
				return fmt.Errorf("open %s: %w", path, err)
			}
			paths[abs] = u
		}

		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			return err
		}
		defer watcher.Close()

		dirs := map[string]struct{}{}
		for abs := range paths {
			dirs[filepath.Dir(abs)] = struct{}{}
		}
		for dir := range dirs {
			if err := watcher.Add(dir); err != nil {
				return err
			}
		}

		printGraph := func() {
			if watchOut == "" {
				return
			}
			if err := writeGraphFile(s, watchOut); err != nil {
				fmt.Fprintln(os.Stderr, "write graph:", err)
			}
		}
		printGraph()

		var mu sync.Mutex
		pending := map[string]struct{}{}
		var timer *time.Timer

		flush := func() {
			mu.Lock()
			files := make([]string, 0, len(pending))
			for f := range pending {
				files = append(files, f)
			}
			pending = map[string]struct{}{}
			mu.Unlock()

			for _, abs := range files {
				u, ok := paths[abs]
				if !ok {
					continue
				}
				text, err := os.ReadFile(abs)
				if err != nil {
					fmt.Fprintln(os.Stderr, "read", abs, ":", err)
					continue
				}
				if err := s.RefreshDocument(ctx, u, text); err != nil {
					fmt.Fprintln(os.Stderr, "refresh", abs, ":", err)
				}
			}
			printGraph()
		}

		for {
			select {
			case ev, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				if !strings.HasSuffix(ev.Name, ".zig") {
					continue
				}
				abs, err := filepath.Abs(ev.Name)
				if err != nil {
					continue
				}
				if _, tracked := paths[abs]; !tracked {
					continue
				}
				mu.Lock()
				pending[abs] = struct{}{}
				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(300*time.Millisecond, flush)
				mu.Unlock()
			case err := <-watcher.Errors:
				fmt.Fprintln(os.Stderr, "watch error:", err)
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().StringVar(&watchOut, "graph", "", "write the refreshed graph JSON to this path after each change")
}
