// Package clip provides a unified interface to the system clipboard across
// platforms. Two implementations exist:
//
//	memory.go: in-process clipboard, used headless and in tests
//	system.go: golang.design/x/clipboard for text and images, plus
//	           native rtf, html and file lists:
//	             system_darwin.go   NSPasteboard, changeCount poller
//	             system_windows.go  CF_HTML/CF_HDROP, clipboard listener
//	             system_linux.go    xclip or wl-clipboard
package clip

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

var (
	// ErrUnavailable is returned when no clipboard can be opened.
	ErrUnavailable = errors.New("clipboard unavailable")
	// ErrUnsupported is returned for a content variant a backend cannot store.
	ErrUnsupported = errors.New("unsupported clipboard format")
)

// Format identifies one representation the clipboard may hold.
type Format int

const (
	FormatText Format = iota
	FormatRTF
	FormatHTML
	FormatImage
	FormatFiles
)

// Formats lists every format in a stable order.
var Formats = []Format{FormatText, FormatRTF, FormatHTML, FormatImage, FormatFiles}

func (f Format) String() string {
	switch f {
	case FormatText:
		return "text"
	case FormatRTF:
		return "rtf"
	case FormatHTML:
		return "html"
	case FormatImage:
		return "image"
	case FormatFiles:
		return "files"
	default:
		return fmt.Sprintf("format(%d)", int(f))
	}
}

// ParseFormat converts a name such as "text" or "html" to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "text", "txt", "plain":
		return FormatText, nil
	case "rtf":
		return FormatRTF, nil
	case "html":
		return FormatHTML, nil
	case "image", "img", "png":
		return FormatImage, nil
	case "files", "file", "file-list":
		return FormatFiles, nil
	default:
		return 0, fmt.Errorf("unknown clipboard format %q", s)
	}
}

// Content is one clipboard value. The set of implementations is closed:
// Text, RTF, HTML, Image and FileList.
type Content interface {
	Format() Format
	content()
}

// Text is plain UTF-8 text.
type Text string

// RTF is rich text.
type RTF string

// HTML is an HTML fragment.
type HTML string

// Image is a decoded bitmap. Pix holds Width*Height RGBA pixels,
// 4 bytes each, non-premultiplied, row-major.
type Image struct {
	Width  int
	Height int
	Pix    []byte
}

// FileList is an ordered list of file paths.
type FileList []string

func (Text) Format() Format     { return FormatText }
func (RTF) Format() Format      { return FormatRTF }
func (HTML) Format() Format     { return FormatHTML }
func (Image) Format() Format    { return FormatImage }
func (FileList) Format() Format { return FormatFiles }

func (Text) content()     {}
func (RTF) content()      {}
func (HTML) content()     {}
func (Image) content()    {}
func (FileList) content() {}

// Clone returns a deep copy of c so that callers never share backing
// arrays with a backend.
func Clone(c Content) Content {
	switch v := c.(type) {
	case Text, RTF, HTML:
		return v
	case Image:
		pix := make([]byte, len(v.Pix))
		copy(pix, v.Pix)
		return Image{Width: v.Width, Height: v.Height, Pix: pix}
	case FileList:
		out := make(FileList, len(v))
		copy(out, v)
		return out
	default:
		panic(fmt.Sprintf("clip: unknown content %T", c))
	}
}

// Backend is the interface that all clipboard implementations satisfy.
// Implementations are not required to be safe for concurrent use; callers
// serialise access (see internal/store).
type Backend interface {
	// Name returns a human-readable name for the backend.
	Name() string

	// Has reports whether the clipboard currently holds format f.
	Has(f Format) (bool, error)

	// Read returns the values present for the requested formats, in the
	// order requested. Absent formats are skipped.
	Read(formats ...Format) ([]Content, error)

	// Write replaces the clipboard contents with values, all at once.
	Write(values ...Content) error

	// Clear empties the clipboard.
	Clear() error

	// Watch returns a channel that receives a signal whenever the clipboard
	// changes. The channel is closed once ctx is done.
	Watch(ctx context.Context) (<-chan struct{}, error)

	// Close releases any resources held by the backend.
	Close()
}

// Open returns a backend by kind: "memory", "system", or "auto" (system,
// falling back to memory when no display is available).
func Open(kind string) (Backend, error) {
	switch strings.ToLower(kind) {
	case "memory", "headless":
		return NewMemory(), nil
	case "system":
		return NewSystem()
	case "", "auto":
		b, err := NewSystem()
		if err != nil {
			slog.Warn("clipboard unavailable, running headless", "err", err)
			return NewMemory(), nil
		}
		return b, nil
	default:
		return nil, fmt.Errorf("unknown clipboard backend %q", kind)
	}
}
