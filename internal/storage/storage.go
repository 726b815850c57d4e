// AngelaMos | 2026
// storage.go

package storage

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/carterperez-dev/thesis-archive/internal/config"
	"github.com/carterperez-dev/thesis-archive/internal/core"
)

var (
	ErrNotPDF   = errors.New("file is not a PDF")
	ErrTooLarge = errors.New("file exceeds upload limit")
)

var pdfMagic = []byte("%PDF-")

// Object identifies a stored file.
type Object struct {
	ID  string
	URL string
}

type Provider interface {
	Save(ctx context.Context, name string, r io.Reader) (Object, error)
	Delete(ctx context.Context, id string) error
}

// Local keeps uploads on disk under root and serves them from baseURL.
type Local struct {
	root     string
	baseURL  string
	maxBytes int64
}

func NewLocal(cfg config.StorageConfig) (*Local, error) {
	if err := os.MkdirAll(cfg.Root, 0o750); err != nil {
		return nil, fmt.Errorf("storage root: %w", err)
	}

	return &Local{
		root:     cfg.Root,
		baseURL:  strings.TrimRight(cfg.PublicBaseURL, "/"),
		maxBytes: cfg.MaxUploadBytes,
	}, nil
}

func (l *Local) Save(ctx context.Context, name string, r io.Reader) (Object, error) {
	if err := ctx.Err(); err != nil {
		return Object{}, err
	}

	br := bufio.NewReader(r)
	head, err := br.Peek(len(pdfMagic))
	if err != nil || !bytes.Equal(head, pdfMagic) {
		return Object{}, fmt.Errorf("save %q: %w", name, ErrNotPDF)
	}

	id := uuid.New().String() + ".pdf"
	path := filepath.Join(l.root, id)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o640)
	if err != nil {
		return Object{}, fmt.Errorf("save %q: %w", name, err)
	}

	var src io.Reader = br
	if l.maxBytes > 0 {
		src = io.LimitReader(br, l.maxBytes+1)
	}

	n, copyErr := io.Copy(f, src)
	closeErr := f.Close()

	switch {
	case copyErr != nil:
		_ = os.Remove(path)
		return Object{}, fmt.Errorf("save %q: %w", name, copyErr)
	case closeErr != nil:
		_ = os.Remove(path)
		return Object{}, fmt.Errorf("save %q: %w", name, closeErr)
	case l.maxBytes > 0 && n > l.maxBytes:
		_ = os.Remove(path)
		return Object{}, fmt.Errorf("save %q: %w", name, ErrTooLarge)
	}

	return Object{ID: id, URL: l.baseURL + "/" + id}, nil
}

var idPattern = regexp.MustCompile(`^[0-9a-f-]{36}\.pdf$`)

// Delete removes a stored object. A missing object wraps core.ErrNotFound.
func (l *Local) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if !idPattern.MatchString(id) {
		return fmt.Errorf("delete object %q: %w", id, core.ErrInvalidInput)
	}

	err := os.Remove(filepath.Join(l.root, id))
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete object %q: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("delete object %q: %w", id, err)
	}
	return nil
}

func (l *Local) Ping(context.Context) error {
	info, err := os.Stat(l.root)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("storage root %s is not a directory", l.root)
	}
	return nil
}

// FileServer serves stored objects read-only. Directory listings are off.
func (l *Local) FileServer(prefix string) http.Handler {
	fs := http.FileServer(http.Dir(l.root))
	return http.StripPrefix(prefix, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		fs.ServeHTTP(w, r)
	}))
}
