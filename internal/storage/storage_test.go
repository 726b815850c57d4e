// AngelaMos | 2026
// storage_test.go

package storage

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/thesis-archive/internal/config"
	"github.com/carterperez-dev/thesis-archive/internal/core"
)

func newLocal(t *testing.T, max int64) *Local {
	t.Helper()
	l, err := NewLocal(config.StorageConfig{
		Root:           t.TempDir(),
		PublicBaseURL:  "http://localhost:8080/files/",
		MaxUploadBytes: max,
	})
	require.NoError(t, err)
	return l
}

func pdf(body string) *bytes.Reader {
	return bytes.NewReader([]byte("%PDF-1.7\n" + body))
}

func TestSaveAndDelete(t *testing.T) {
	l := newLocal(t, 1024)
	ctx := context.Background()

	obj, err := l.Save(ctx, "thesis.pdf", pdf("hello"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(obj.URL, "http://localhost:8080/files/"))
	assert.True(t, strings.HasSuffix(obj.ID, ".pdf"))

	_, err = os.Stat(filepath.Join(l.root, obj.ID))
	require.NoError(t, err)

	require.NoError(t, l.Delete(ctx, obj.ID))
	assert.ErrorIs(t, l.Delete(ctx, obj.ID), core.ErrNotFound)
}

func TestSave_RejectsNonPDF(t *testing.T) {
	l := newLocal(t, 1024)
	_, err := l.Save(context.Background(), "x.pdf", strings.NewReader("MZ\x90\x00 not a pdf"))
	assert.ErrorIs(t, err, ErrNotPDF)
}

func TestSave_EnforcesLimit(t *testing.T) {
	l := newLocal(t, 16)
	_, err := l.Save(context.Background(), "big.pdf", pdf(strings.Repeat("a", 64)))
	assert.ErrorIs(t, err, ErrTooLarge)

	entries, err := os.ReadDir(l.root)
	require.NoError(t, err)
	assert.Empty(t, entries, "oversized upload must not leave a file behind")
}

func TestDelete_RejectsTraversal(t *testing.T) {
	l := newLocal(t, 0)
	assert.ErrorIs(t, l.Delete(context.Background(), "../../etc/passwd"), core.ErrInvalidInput)
}

func TestFileServer(t *testing.T) {
	l := newLocal(t, 0)
	obj, err := l.Save(context.Background(), "a.pdf", pdf("body"))
	require.NoError(t, err)

	h := l.FileServer("/files/")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/files/"+obj.ID, nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "%PDF-")

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/files/", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
