package static

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// SPA serves files from dir and falls back to index.html for unknown paths so
// client side routes resolve. Paths are cleaned before lookup, so dot segments
// cannot leave dir.
func SPA(dir string) http.HandlerFunc {
	fs := http.FileServer(http.Dir(dir))

	return func(w http.ResponseWriter, r *http.Request) {
		name := path.Clean("/" + r.URL.Path)
		if name != "/" {
			info, err := os.Stat(filepath.Join(dir, filepath.FromSlash(strings.TrimPrefix(name, "/"))))
			if err != nil || info.IsDir() {
				name = "/"
			}
		}

		r2 := r.Clone(r.Context())
		r2.URL.Path = name
		r2.URL.RawPath = ""
		fs.ServeHTTP(w, r2)
	}
}
