// static.go — раздача собранного фронтенда (SPA).
// Существующие файлы отдаются как есть; пути без расширения, которых нет
// на диске, получают index.html (маршрутизация на клиенте).
package handlers

import (
	"errors"
	"io/fs"
	"net/http"
	"path"
)

// StaticHandler — файловый сервер SPA.
type StaticHandler struct {
	root       http.FileSystem
	fileServer http.Handler
}

// NewStaticHandler создаёт файловый сервер для каталога dir.
// http.Dir не выпускает запросы за пределы dir.
func NewStaticHandler(dir string) *StaticHandler {
	root := http.Dir(dir)
	return &StaticHandler{
		root:       root,
		fileServer: http.FileServer(root),
	}
}

// ServeHTTP отдаёт файл или index.html.
func (h *StaticHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := path.Clean("/" + r.URL.Path)

	f, err := h.root.Open(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && path.Ext(name) == "" {
			h.serveIndex(w, r)
			return
		}
		h.fileServer.ServeHTTP(w, r)
		return
	}
	stat, err := f.Stat()
	_ = f.Close()
	if err != nil {
		h.fileServer.ServeHTTP(w, r)
		return
	}

	// Каталоги без собственного index.html не листингуются
	if stat.IsDir() {
		idx, err := h.root.Open(path.Join(name, "index.html"))
		if err != nil {
			h.serveIndex(w, r)
			return
		}
		_ = idx.Close()
	}

	h.fileServer.ServeHTTP(w, r)
}

// serveIndex отдаёт корневой index.html.
func (h *StaticHandler) serveIndex(w http.ResponseWriter, r *http.Request) {
	f, err := h.root.Open("/index.html")
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		http.NotFound(w, r)
		return
	}
	// index.html не кэшируется: в нём ссылки на хэшированные бандлы
	w.Header().Set("Cache-Control", "no-cache")
	http.ServeContent(w, r, "index.html", stat.ModTime(), f)
}
