// Package imagecache stores clipboard images as content-addressed PNG files.
//
// A file is named after the xxHash64 of the image dimensions and pixels, so
// reading the same clipboard image twice resolves to the same path and
// writes to disk only once.
package imagecache

import (
	"encoding/binary"
	"errors"
	"fmt"
	"image/png"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"unicode/utf8"

	"github.com/cespare/xxhash/v2"

	"go.klb.dev/clipnext/internal/clip"
)

const (
	// PluginDir is the per-application sub-directory owned by clipnext.
	PluginDir = "clipnext"
	// FileDir holds cached files below PluginDir.
	FileDir = "file"
)

var (
	// ErrInvalidPath is returned for a path the filesystem layer cannot
	// represent.
	ErrInvalidPath = errors.New("invalid cache path")
	// ErrIO wraps filesystem and encoding failures.
	ErrIO = errors.New("image cache i/o")
)

// Entry describes one cached image file.
type Entry struct {
	Hash   string
	Path   string
	Width  int
	Height int
	Size   int64
}

// Cache writes clipboard images to disk.
type Cache struct {
	writes atomic.Int64
}

// New returns an empty Cache.
func New() *Cache { return &Cache{} }

// Writes reports how many image files this cache has written.
func (c *Cache) Writes() int64 { return c.writes.Load() }

// Hash returns the content address of img.
func Hash(img clip.Image) string {
	d := xxhash.New()
	var dims [16]byte
	binary.LittleEndian.PutUint64(dims[:8], uint64(img.Width))
	binary.LittleEndian.PutUint64(dims[8:], uint64(img.Height))
	_, _ = d.Write(dims[:])
	_, _ = d.Write(img.Pix)
	return fmt.Sprintf("%016x", d.Sum64())
}

// Save guarantees that img exists as <dir>/<hash>.png and returns its entry.
// An existing file with that name is trusted and left untouched.
func (c *Cache) Save(dir string, img clip.Image) (Entry, error) {
	abs, err := resolve(dir)
	if err != nil {
		return Entry{}, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return Entry{}, fmt.Errorf("%w: %w", ErrIO, err)
	}

	hash := Hash(img)
	path := filepath.Join(abs, hash+".png")
	entry := Entry{Hash: hash, Path: path, Width: img.Width, Height: img.Height}

	fi, err := os.Stat(path)
	switch {
	case err == nil:
		entry.Size = fi.Size()
		slog.Debug("image cache hit", "path", path)
		return entry, nil
	case !errors.Is(err, fs.ErrNotExist):
		return Entry{}, fmt.Errorf("%w: %w", ErrIO, err)
	}

	size, err := writeAtomic(abs, path, img)
	if err != nil {
		return Entry{}, err
	}
	c.writes.Add(1)
	entry.Size = size
	slog.Debug("image cached", "path", path, "width", img.Width, "height", img.Height, "size_bytes", size)
	return entry, nil
}

// writeAtomic encodes img into a temp file in dir and renames it into place,
// so a failed write never leaves a partial <hash>.png behind.
func writeAtomic(dir, path string, img clip.Image) (int64, error) {
	if len(img.Pix) != 4*img.Width*img.Height {
		return 0, fmt.Errorf("%w: %dx%d image with %d pixel bytes", ErrIO, img.Width, img.Height, len(img.Pix))
	}
	tmp, err := os.CreateTemp(dir, ".clipnext-*.png.tmp")
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrIO, err)
	}
	tmpName := tmp.Name()
	ok := false
	defer func() {
		if !ok {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if err := png.Encode(tmp, img.NRGBA()); err != nil {
		return 0, fmt.Errorf("%w: encode png: %w", ErrIO, err)
	}
	if err := tmp.Sync(); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrIO, err)
	}
	fi, err := tmp.Stat()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrIO, err)
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrIO, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrIO, err)
	}
	ok = true
	return fi.Size(), nil
}

// resolve validates dir and makes it absolute.
func resolve(dir string) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("%w: empty directory", ErrInvalidPath)
	}
	if !utf8.ValidString(dir) || strings.ContainsRune(dir, 0) {
		return "", fmt.Errorf("%w: %s", ErrInvalidPath, strconv.Quote(dir))
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidPath, err)
	}
	return abs, nil
}
