// Package service implements the clipboard command surface: format checks,
// reads and writes, clear, the image cache path, and the watch lifecycle.
package service

import (
	"fmt"
	"image"
	"log/slog"
	"os"
	"sync"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"go.klb.dev/clipnext/internal/clip"
	"go.klb.dev/clipnext/internal/imagecache"
	"go.klb.dev/clipnext/internal/store"
	"go.klb.dev/clipnext/internal/watch"
)

// EventClipboardChange is emitted, without payload, on every clipboard
// change while watching.
const EventClipboardChange = "clipboard_change"

// Emitter delivers events to the host. Emit must not block.
type Emitter interface {
	Emit(event string)
}

// Config holds the service settings.
type Config struct {
	// AppID names the per-application data directory.
	AppID string
	// DataDir overrides the per-application data directory; images are
	// cached in <DataDir>/clipnext/file.
	DataDir string
}

// ReadImage describes an image read from the clipboard and cached on disk.
type ReadImage struct {
	Path   string `json:"path"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Size   int64  `json:"size"`
}

// FileItem is one clipboard file and its size. Available is false when the
// size could not be read; Size is then 0.
type FileItem struct {
	Path      string `json:"path"`
	Size      int64  `json:"size"`
	Available bool   `json:"available"`
}

// ReadFiles is the clipboard file list with per-file and total sizes.
type ReadFiles struct {
	Files []FileItem `json:"files"`
	Size  int64      `json:"size"`
}

// Service is the clipboard command surface.
type Service struct {
	store *store.Store
	cache *imagecache.Cache
	emit  Emitter
	cfg   Config

	mu      sync.Mutex
	watcher *watch.Handle
}

// New returns a Service in the Idle state.
func New(st *store.Store, cache *imagecache.Cache, emit Emitter, cfg Config) *Service {
	if cache == nil {
		cache = imagecache.New()
	}
	return &Service{store: st, cache: cache, emit: emit, cfg: cfg}
}

// ── watch lifecycle ───────────────────────────────────────────────────────

// StartWatch starts the change watcher. A running watcher is stopped first,
// so exactly one is ever active.
func (s *Service) StartWatch() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.watcher != nil {
		slog.Debug("restarting clipboard watcher")
		s.watcher.Stop()
		s.watcher = nil
	}
	h, err := watch.Start(s.store, s.onChange)
	if err != nil {
		return err
	}
	s.watcher = h
	slog.Info("clipboard watch started")
	return nil
}

// StopWatch stops the change watcher. It is a no-op when idle.
func (s *Service) StopWatch() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.watcher == nil {
		return nil
	}
	s.watcher.Stop()
	s.watcher = nil
	slog.Info("clipboard watch stopped")
	return nil
}

// Watching reports whether a watcher is active.
func (s *Service) Watching() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.watcher != nil
}

func (s *Service) onChange() {
	if s.emit != nil {
		s.emit.Emit(EventClipboardChange)
	}
}

// Close stops the watcher and releases the clipboard.
func (s *Service) Close() {
	_ = s.StopWatch()
	s.store.Close()
}

// ── format checks ─────────────────────────────────────────────────────────

func (s *Service) HasText() (bool, error)  { return s.store.FormatPresent(clip.FormatText) }
func (s *Service) HasRTF() (bool, error)   { return s.store.FormatPresent(clip.FormatRTF) }
func (s *Service) HasHTML() (bool, error)  { return s.store.FormatPresent(clip.FormatHTML) }
func (s *Service) HasImage() (bool, error) { return s.store.FormatPresent(clip.FormatImage) }
func (s *Service) HasFiles() (bool, error) { return s.store.FormatPresent(clip.FormatFiles) }

// ── reads ─────────────────────────────────────────────────────────────────

func (s *Service) ReadText() (string, error) { return s.readString(clip.FormatText) }
func (s *Service) ReadRTF() (string, error)  { return s.readString(clip.FormatRTF) }
func (s *Service) ReadHTML() (string, error) { return s.readString(clip.FormatHTML) }

func (s *Service) readString(f clip.Format) (string, error) {
	v, err := s.readOne(f)
	if err != nil {
		return "", err
	}
	switch c := v.(type) {
	case clip.Text:
		return string(c), nil
	case clip.RTF:
		return string(c), nil
	case clip.HTML:
		return string(c), nil
	default:
		return "", fmt.Errorf("%w: %s", ErrFormatNotPresent, f)
	}
}

// readOne returns the single value for f, failing if it is absent or the
// backend answered with another variant.
func (s *Service) readOne(f clip.Format) (clip.Content, error) {
	values, err := s.store.Contents(f)
	if err != nil {
		return nil, err
	}
	for _, v := range values {
		if v.Format() == f {
			return v, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrFormatNotPresent, f)
}

// ReadImage caches the clipboard image as PNG under savePath, or the default
// cache directory when savePath is empty.
func (s *Service) ReadImage(savePath string) (ReadImage, error) {
	v, err := s.readOne(clip.FormatImage)
	if err != nil {
		return ReadImage{}, err
	}
	img, ok := v.(clip.Image)
	if !ok {
		return ReadImage{}, fmt.Errorf("%w: image", ErrFormatNotPresent)
	}
	return s.saveImage(img, savePath)
}

func (s *Service) saveImage(img clip.Image, savePath string) (ReadImage, error) {
	dir := savePath
	if dir == "" {
		var err error
		if dir, err = s.FilePath(); err != nil {
			return ReadImage{}, err
		}
	}
	entry, err := s.cache.Save(dir, img)
	if err != nil {
		return ReadImage{}, err
	}
	return ReadImage{Path: entry.Path, Width: entry.Width, Height: entry.Height, Size: entry.Size}, nil
}

// ReadFiles returns the clipboard file list with sizes. Files that cannot be
// stat'ed count as size 0 instead of failing the call.
func (s *Service) ReadFiles() (ReadFiles, error) {
	v, err := s.readOne(clip.FormatFiles)
	if err != nil {
		return ReadFiles{}, err
	}
	list, ok := v.(clip.FileList)
	if !ok {
		return ReadFiles{}, fmt.Errorf("%w: files", ErrFormatNotPresent)
	}
	return fileSizes(list), nil
}

func fileSizes(list clip.FileList) ReadFiles {
	out := ReadFiles{Files: make([]FileItem, 0, len(list))}
	for _, p := range list {
		item := FileItem{Path: p}
		if fi, err := os.Stat(p); err == nil {
			item.Size = fi.Size()
			item.Available = true
		} else {
			slog.Debug("file size unavailable", "path", p, "err", err)
		}
		out.Size += item.Size
		out.Files = append(out.Files, item)
	}
	return out
}

// ── writes ────────────────────────────────────────────────────────────────

// WriteText puts plain text on the clipboard.
func (s *Service) WriteText(content string) error {
	return s.set(clip.Text(content))
}

// WriteRTF puts rich text on the clipboard together with the same string as
// a plain-text fallback.
func (s *Service) WriteRTF(content string) error {
	return s.set(clip.RTF(content), clip.Text(content))
}

// WriteHTML puts HTML on the clipboard together with the same string as a
// plain-text fallback.
func (s *Service) WriteHTML(content string) error {
	return s.set(clip.HTML(content), clip.Text(content))
}

// WriteImage decodes the image file at path (PNG, JPEG, GIF, BMP, TIFF or
// WebP) and puts it on the clipboard.
func (s *Service) WriteImage(path string) error {
	img, err := decodeFile(path)
	if err != nil {
		return err
	}
	return s.set(img)
}

func decodeFile(path string) (clip.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return clip.Image{}, fmt.Errorf("%w: %w", ErrIO, err)
	}
	defer f.Close()
	src, format, err := image.Decode(f)
	if err != nil {
		return clip.Image{}, fmt.Errorf("%w: decode %s: %w", ErrIO, path, err)
	}
	img := clip.FromImage(src)
	slog.Debug("image decoded", "path", path, "format", format, "width", img.Width, "height", img.Height)
	return img, nil
}

// WriteFiles puts a file list on the clipboard.
func (s *Service) WriteFiles(paths []string) error {
	return s.set(clip.FileList(paths))
}

func (s *Service) set(values ...clip.Content) error {
	if err := s.store.SetContents(values...); err != nil {
		return err
	}
	logContents("clipboard written", values)
	return nil
}

// Clear empties the clipboard.
func (s *Service) Clear() error {
	if err := s.store.Clear(); err != nil {
		return err
	}
	slog.Info("clipboard cleared")
	return nil
}

// ── paths ─────────────────────────────────────────────────────────────────

// FilePath returns the image cache directory, creating it if needed.
func (s *Service) FilePath() (string, error) {
	if s.cfg.DataDir != "" {
		return imagecache.Dir(s.cfg.DataDir)
	}
	return imagecache.DefaultDir(s.cfg.AppID)
}
