// Package photos stores trainer profile photos on local disk, normalized to
// a bounded JPEG.
package photos

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

const (
	// MaxUploadBytes is the largest accepted upload.
	MaxUploadBytes = 5 << 20
	// MaxDimension bounds both sides of the stored image.
	MaxDimension = 512
	// Dir is the sub-directory, relative to an upload root, holding trainer photos.
	Dir = "trainer_photos"
)

var (
	ErrTooLarge        = errors.New("photo must be 5 MB or smaller")
	ErrUnsupportedType = errors.New("photo must be a JPEG, PNG or GIF image")
	ErrUploadFailed    = errors.New("photo could not be saved")
)

var allowedTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
}

// Store writes photos under the first writable root. Roots are tried in
// order; the last one is a temp-directory fallback.
type Store struct {
	roots []string
}

// NewStore creates a store writing under root, falling back to a directory
// inside os.TempDir() when root is not writable.
func NewStore(root string) *Store {
	return &Store{roots: []string{root, filepath.Join(os.TempDir(), "gymhub-uploads")}}
}

// Save validates, resizes and stores an uploaded image.
// PRE: r yields the raw upload body
// POST: Returns a slash-separated path relative to the upload root, e.g.
// "trainer_photos/<uuid>.jpg"; the image fits within MaxDimension square
func (s *Store) Save(ctx context.Context, r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxUploadBytes+1))
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}
	if len(data) > MaxUploadBytes {
		return "", ErrTooLarge
	}
	if !allowedTypes[http.DetectContentType(data)] {
		return "", ErrUnsupportedType
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return "", ErrUnsupportedType
	}
	img = imaging.Fit(img, MaxDimension, MaxDimension, imaging.Lanczos)

	var out bytes.Buffer
	if err := imaging.Encode(&out, img, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return "", fmt.Errorf("encode photo: %w", err)
	}

	rel := Dir + "/" + uuid.NewString() + ".jpg"
	for _, root := range s.roots {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if err := writeFile(filepath.Join(root, filepath.FromSlash(rel)), out.Bytes()); err != nil {
			slog.Warn("upload_event", "event", "photo_write_failed", "root", root, "error", err)
			continue
		}
		slog.Info("upload_event", "event", "photo_saved", "root", root, "path", rel, "bytes", out.Len())
		return rel, nil
	}
	return "", ErrUploadFailed
}

// Remove deletes a stored photo from whichever root holds it. Missing files
// are not an error.
func (s *Store) Remove(rel string) error {
	full, ok := s.Resolve(rel)
	if !ok {
		return nil
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Resolve maps a stored relative path to an existing file on disk.
// INVARIANT: paths escaping the photo directory never resolve
func (s *Store) Resolve(rel string) (string, bool) {
	clean := filepath.ToSlash(filepath.Clean("/" + rel))[1:]
	if !strings.HasPrefix(clean, Dir+"/") {
		return "", false
	}
	for _, root := range s.roots {
		full := filepath.Join(root, filepath.FromSlash(clean))
		if info, err := os.Stat(full); err == nil && !info.IsDir() {
			return full, true
		}
	}
	return "", false
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
