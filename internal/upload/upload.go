// Package upload receives property images from multipart forms and keeps them
// on local disk under generated names.
package upload

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Field is the multipart field carrying the image.
const Field = "imagen"

// MaxSize is the largest accepted image, in bytes.
const MaxSize = 5 << 20

var (
	ErrMissing     = errors.New("no image uploaded")
	ErrTooMany     = errors.New("only one image may be uploaded")
	ErrTooLarge    = errors.New("image exceeds 5MB")
	ErrUnsupported = errors.New("unsupported image type")
)

var allowed = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".webp": true,
	".avif": true,
}

// Allowed reports whether filename has an accepted image extension.
func Allowed(filename string) bool {
	return allowed[strings.ToLower(filepath.Ext(filename))]
}

// Store keeps images in a directory.
type Store struct {
	dir string
}

// NewStore creates the directory if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating upload dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the directory images are written to.
func (s *Store) Dir() string {
	return s.dir
}

// Save copies src to a new file named by a random UUID plus the lower-cased
// extension of filename, and returns that name. Partial files are removed.
func (s *Store) Save(src io.Reader, filename string) (string, error) {
	if !Allowed(filename) {
		return "", ErrUnsupported
	}
	name := uuid.NewString() + strings.ToLower(filepath.Ext(filename))
	path := filepath.Join(s.dir, name)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("creating image file: %w", err)
	}

	n, err := io.Copy(f, io.LimitReader(src, MaxSize+1))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && n > MaxSize {
		err = ErrTooLarge
	}
	if err != nil {
		if rerr := os.Remove(path); rerr != nil {
			slog.Warn("removing partial image", "path", path, "err", rerr)
		}
		if errors.Is(err, ErrTooLarge) {
			return "", err
		}
		return "", fmt.Errorf("writing image: %w", err)
	}

	return name, nil
}

// Remove deletes a stored image. A file that is already gone is not an
// error.
func (s *Store) Remove(name string) error {
	if name == "" || name != filepath.Base(name) {
		return fmt.Errorf("invalid image name %q", name)
	}
	err := os.Remove(filepath.Join(s.dir, name))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing image: %w", err)
	}
	return nil
}

// FromRequest extracts the single image in Field from a multipart request.
// The caller must close the returned file.
func FromRequest(w http.ResponseWriter, r *http.Request) (multipart.File, *multipart.FileHeader, error) {
	// Leave room for multipart boundaries and headers.
	r.Body = http.MaxBytesReader(w, r.Body, MaxSize+1<<20)
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return nil, nil, ErrTooLarge
		}
		return nil, nil, fmt.Errorf("parsing multipart form: %w", err)
	}

	headers := r.MultipartForm.File[Field]
	switch {
	case len(headers) == 0:
		return nil, nil, ErrMissing
	case len(headers) > 1:
		return nil, nil, ErrTooMany
	}

	fh := headers[0]
	if fh.Size > MaxSize {
		return nil, nil, ErrTooLarge
	}
	if !Allowed(fh.Filename) {
		return nil, nil, ErrUnsupported
	}

	f, err := fh.Open()
	if err != nil {
		return nil, nil, fmt.Errorf("opening upload: %w", err)
	}
	return f, fh, nil
}
