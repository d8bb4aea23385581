// Package server serves the browser chat page from the embedded web directory
// or from a directory on disk.
package server

import (
	"embed"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

//go:embed web
var webFiles embed.FS

var mimeTypes = map[string]string{
	".css":  "text/css",
	".gif":  "image/gif",
	".htm":  "text/html",
	".html": "text/html",
	".ico":  "image/x-icon",
	".jpeg": "image/jpeg",
	".jpg":  "image/jpeg",
	".js":   "application/javascript",
	".json": "application/json",
	".png":  "image/png",
	".svg":  "image/svg+xml",
	".txt":  "text/plain",
}

// StaticHandler serves files from dir, or from the embedded page when dir is
// empty. "/" maps to index.html; anything missing is a 404.
func StaticHandler(dir string) http.Handler {
	var files fs.FS
	if dir != "" {
		files = os.DirFS(dir)
	} else {
		sub, err := fs.Sub(webFiles, "web")
		if err != nil {
			panic(err)
		}
		files = sub
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")
		if name == "" {
			name = "index.html"
		}

		data, err := fs.ReadFile(files, name)
		if err != nil {
			slog.Debug("Static file not found", "path", r.URL.Path, "error", err)
			http.NotFound(w, r)
			return
		}

		w.Header().Set("Content-Type", contentType(name, data))
		if _, err := w.Write(data); err != nil {
			slog.Warn("Error writing static file", "path", name, "error", err)
		}
	})
}

// contentType picks the type from the extension and sniffs the content for
// anything the table does not know.
func contentType(name string, data []byte) string {
	if ct, ok := mimeTypes[strings.ToLower(path.Ext(name))]; ok {
		return ct
	}
	return mimetype.Detect(data).String()
}
