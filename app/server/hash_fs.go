package server

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
)

// HashFS serves static assets and lets templates reference them with a
// content hash, so they can be cached forever.
type HashFS struct {
	serv   http.Handler
	hashes map[string]string
}

func NewHashFS(fsys fs.FS) (*HashFS, error) {
	h := &HashFS{
		serv:   http.FileServer(http.FS(fsys)),
		hashes: map[string]string{},
	}

	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		f, err := fsys.Open(p)
		if err != nil {
			return err
		}
		defer f.Close()

		sum := sha256.New()
		if _, err := io.Copy(sum, f); err != nil {
			return err
		}
		h.hashes[p] = hex.EncodeToString(sum.Sum(nil))[:16]
		slog.Debug("computed static asset hash", "path", p, "hash", h.hashes[p])
		return nil
	})
	return h, err
}

func (h *HashFS) GetHash(p string) string {
	return h.hashes[p]
}

// FormatWithHash returns the URL of an asset below /static/, eg:
// /static/app.css?hash=0123456789abcdef
func (h *HashFS) FormatWithHash(p string) string {
	if hash := h.GetHash(p); hash != "" {
		return "/static/" + p + "?hash=" + hash
	}
	return "/static/" + p
}

func (h *HashFS) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	hash := r.URL.Query().Get("hash")
	if hash != "" && hash == h.GetHash(r.URL.Path) {
		w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	}
	h.serv.ServeHTTP(w, r)
}
