package main

import (
	"embed"
	"io"
	"log"
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

//go:embed ui_static/*
var uiFS embed.FS

var (
	uiAddr  string
	uiGraph string
)

// uiCmd serves a small static page that live-reloads a graph.json file over
// a websocket. The watcher here fires on graph.json itself (written by
// `zigls watch --graph`), not on source files directly.
var uiCmd = &cobra.Command{
	Use:   "ui",
	Short: "Serve a local live view of a graph.json file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if uiGraph == "" {
			return cmd.Help()
		}

		mux := http.NewServeMux()
		assets := http.FS(uiFS)

		mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
			p := r.URL.Path
			switch p {
			case "/":
				p = "/ui_static/index.html"
			case "/app.js", "/styles.css":
				p = "/ui_static" + p
			case "/graph.json":
				serveGraphJSON(w, uiGraph)
				return
			case "/ws":
				serveWS(w, r)
				return
			default:
				p = "/ui_static" + p
			}

			p = strings.TrimPrefix(p, "/")
			f, err := assets.Open(p)
			if err != nil {
				http.NotFound(w, r)
				return
			}
			defer f.Close()
			if ct := mime.TypeByExtension(path.Ext(p)); ct != "" {
				w.Header().Set("Content-Type", ct)
			}
			io.Copy(w, f)
		})

		startGraphWatcher(uiGraph)
		log.Printf("ui listening on http://localhost%s (graph: %s)\n", uiAddr, uiGraph)
		return http.ListenAndServe(uiAddr, mux)
	},
}

func serveGraphJSON(w http.ResponseWriter, path string) {
	f, err := os.Open(path)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	defer f.Close()
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	io.Copy(w, f)
}

var (
	wsUpgrader  = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	wsClientsMu sync.Mutex
	wsClients   = map[*websocket.Conn]struct{}{}
)

func serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	wsClientsMu.Lock()
	wsClients[conn] = struct{}{}
	wsClientsMu.Unlock()

	go func() {
		defer func() {
			wsClientsMu.Lock()
			delete(wsClients, conn)
			wsClientsMu.Unlock()
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func wsBroadcast() {
	wsClientsMu.Lock()
	for c := range wsClients {
		_ = c.WriteMessage(websocket.TextMessage, []byte("update"))
	}
	wsClientsMu.Unlock()
}

func startGraphWatcher(graphPath string) {
	go func() {
		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			log.Println("graph watcher:", err)
			return
		}
		defer watcher.Close()
		if err := watcher.Add(filepath.Dir(graphPath)); err != nil {
			log.Println("graph watcher:", err)
			return
		}
		for {
			select {
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) == filepath.Clean(graphPath) {
					wsBroadcast()
				}
			case err := <-watcher.Errors:
				log.Println("graph watcher error:", err)
			}
		}
	}()
}

func init() {
	rootCmd.AddCommand(uiCmd)
	uiCmd.Flags().StringVar(&uiAddr, "addr", ":8080", "address to listen on")
	uiCmd.Flags().StringVar(&uiGraph, "graph", "", "path to graph.json to serve and watch")
}
