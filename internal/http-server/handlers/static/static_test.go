package static

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSPA(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>app</html>"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "logo.txt"), []byte("logo"), 0600))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "assets"), 0700))
	h := SPA(dir)

	tests := []struct {
		path string
		body string
	}{
		{"/", "<html>app</html>"},
		{"/scanner", "<html>app</html>"},
		{"/logo.txt", "logo"},
		{"/../../etc/passwd", "<html>app</html>"},
		{"/../logo.txt", "logo"},
		{"/assets/", "<html>app</html>"},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, tt.path)
		assert.Equal(t, tt.body, rec.Body.String(), tt.path)
	}
}
