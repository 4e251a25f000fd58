//go:build darwin || windows || linux

package clip

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"image/png"
	"sync"

	"github.com/cespare/xxhash/v2"
	"golang.design/x/clipboard"
)

var (
	initOnce sync.Once
	initErr  error
)

// osClipboard is the platform surface the system backend drives.
// golang.design/x/clipboard carries text and PNG images on every platform;
// the rich half (RTF, HTML, file lists) and the change source are native
// per OS.
type osClipboard interface {
	read(f clipboard.Format) []byte
	write(f clipboard.Format, data []byte) error

	// readRich returns f as held natively by the OS clipboard.
	readRich(f Format) (Content, bool)
	// writeRich replaces the OS clipboard with values in one native
	// transaction. It reports false when the platform cannot carry this
	// combination, leaving the clipboard untouched.
	writeRich(values []Content) (bool, error)

	// changeToken is a counter the OS bumps on every clipboard change, or
	// 0 where no such counter exists.
	changeToken() uint64
	// watch returns the native change sources; each is closed once ctx is
	// done.
	watch(ctx context.Context) []<-chan struct{}
}

// libClipboard routes text and images through golang.design/x/clipboard.
// Its rich and watch methods live in the per-OS files.
type libClipboard struct{}

func (libClipboard) read(f clipboard.Format) []byte { return clipboard.Read(f) }

func (libClipboard) write(f clipboard.Format, data []byte) error {
	return writeResult(f, clipboard.Write(f, data))
}

// writeResult maps clipboard.Write's result to an error: the library
// returns a nil channel when the write did not happen.
func writeResult(f clipboard.Format, changed <-chan struct{}) error {
	if changed != nil {
		return nil
	}
	name := "text"
	if f == clipboard.FmtImage {
		name = "image"
	}
	return fmt.Errorf("%w: write %s", ErrUnavailable, name)
}

// systemBackend is the OS clipboard. A rich write the platform cannot
// express natively is kept in an in-process shadow that is valid only
// while the OS text is still the text written alongside it.
type systemBackend struct {
	plat osClipboard

	mu         sync.Mutex
	shadow     map[Format]Content
	shadowText []byte
	// self fingerprints the OS clipboard as our last Write or Clear left
	// it, so the change source's echo of that write is not reported twice.
	self      uint64
	selfValid bool
	notify    *notifier
}

// NewSystem returns the OS clipboard backend. clipboard.Init is called here
// rather than in init() so that CLI sub-commands that never construct a
// Backend don't fail on headless systems.
func NewSystem() (Backend, error) {
	initOnce.Do(func() { initErr = clipboard.Init() })
	if initErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, initErr)
	}
	return newSystemBackend(libClipboard{}), nil
}

func newSystemBackend(plat osClipboard) *systemBackend {
	return &systemBackend{plat: plat, notify: newNotifier()}
}

func (b *systemBackend) Name() string { return "system (" + systemName + ")" }

func (b *systemBackend) Has(f Format) (bool, error) {
	switch f {
	case FormatText:
		return len(b.plat.read(clipboard.FmtText)) > 0, nil
	case FormatImage:
		return len(b.plat.read(clipboard.FmtImage)) > 0, nil
	case FormatRTF, FormatHTML, FormatFiles:
		_, ok := b.richValue(f)
		return ok, nil
	default:
		return false, fmt.Errorf("%w: %s", ErrUnsupported, f)
	}
}

func (b *systemBackend) Read(formats ...Format) ([]Content, error) {
	var out []Content
	for _, f := range formats {
		switch f {
		case FormatText:
			if text := b.plat.read(clipboard.FmtText); len(text) > 0 {
				out = append(out, Text(text))
			}
		case FormatImage:
			data := b.plat.read(clipboard.FmtImage)
			if len(data) == 0 {
				continue
			}
			img, err := decodePNG(data)
			if err != nil {
				return nil, err
			}
			out = append(out, img)
		case FormatRTF, FormatHTML, FormatFiles:
			if v, ok := b.richValue(f); ok {
				out = append(out, Clone(v))
			}
		default:
			return nil, fmt.Errorf("%w: %s", ErrUnsupported, f)
		}
	}
	return out, nil
}

func (b *systemBackend) Write(values ...Content) error {
	var (
		text  []byte
		img   *Image
		rich  = make(map[Format]Content)
		plain bool
	)
	for _, v := range values {
		switch c := v.(type) {
		case Text:
			text, plain = []byte(c), true
		case Image:
			img = &c
		case RTF, HTML, FileList:
			rich[c.Format()] = Clone(c)
		default:
			return fmt.Errorf("%w: %T", ErrUnsupported, v)
		}
	}

	b.mu.Lock()
	err := b.write(values, text, plain, img, rich)
	b.mu.Unlock()
	if err != nil {
		return err
	}
	b.notify.signal()
	return nil
}

// write applies one Write with b.mu held.
func (b *systemBackend) write(values []Content, text []byte, plain bool, img *Image, rich map[Format]Content) error {
	b.shadow, b.shadowText = nil, nil
	defer b.markSelf()

	if len(rich) > 0 && img == nil {
		ok, err := b.plat.writeRich(values)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
	}

	if img != nil {
		data, err := encodePNG(*img)
		if err != nil {
			return err
		}
		if err := b.plat.write(clipboard.FmtImage, data); err != nil {
			return err
		}
	}
	// Without a Text value the OS text is emptied so a stale string does
	// not outlive this write. An image write already replaced it.
	if plain || img == nil {
		if err := b.plat.write(clipboard.FmtText, text); err != nil {
			return err
		}
	}

	if len(rich) > 0 {
		b.shadow = rich
		b.shadowText = b.plat.read(clipboard.FmtText)
	}
	return nil
}

func (b *systemBackend) Clear() error {
	b.mu.Lock()
	b.shadow, b.shadowText = nil, nil
	err := b.plat.write(clipboard.FmtText, []byte{})
	b.markSelf()
	b.mu.Unlock()
	if err != nil {
		return err
	}
	b.notify.signal()
	return nil
}

// Watch merges the platform change sources with local writes. A platform
// notification that merely echoes our own last write is dropped; the
// local signal already covered it.
func (b *systemBackend) Watch(ctx context.Context) (<-chan struct{}, error) {
	native := merge(b.foreign, b.plat.watch(ctx)...)
	return merge(nil, native, b.notify.subscribe(ctx)), nil
}

func (b *systemBackend) Close() {}

// markSelf records the OS state produced by a write. Called with b.mu held.
func (b *systemBackend) markSelf() {
	b.self = b.fingerprint()
	b.selfValid = true
}

// foreign reports whether the OS clipboard differs from what our last
// write left there.
func (b *systemBackend) foreign() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.selfValid && b.fingerprint() == b.self {
		return false
	}
	b.selfValid = false
	return true
}

// fingerprint identifies the current OS clipboard state: the platform's
// change counter when there is one, otherwise a hash of text and image.
func (b *systemBackend) fingerprint() uint64 {
	if tok := b.plat.changeToken(); tok != 0 {
		return tok
	}
	d := xxhash.New()
	var n [8]byte
	text := b.plat.read(clipboard.FmtText)
	binary.LittleEndian.PutUint64(n[:], uint64(len(text)))
	_, _ = d.Write(n[:])
	_, _ = d.Write(text)
	_, _ = d.Write(b.plat.read(clipboard.FmtImage))
	return d.Sum64()
}

// richValue returns f from the shadow while it is valid, and from the OS
// clipboard otherwise.
func (b *systemBackend) richValue(f Format) (Content, bool) {
	b.mu.Lock()
	if b.shadow != nil {
		if bytes.Equal(b.plat.read(clipboard.FmtText), b.shadowText) {
			v, ok := b.shadow[f]
			b.mu.Unlock()
			return v, ok
		}
		b.shadow, b.shadowText = nil, nil
	}
	b.mu.Unlock()
	return b.plat.readRich(f)
}

func decodePNG(data []byte) (Image, error) {
	src, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return Image{}, fmt.Errorf("decode clipboard image: %w", err)
	}
	return FromImage(src), nil
}

func encodePNG(img Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img.NRGBA()); err != nil {
		return nil, fmt.Errorf("encode clipboard image: %w", err)
	}
	return buf.Bytes(), nil
}
