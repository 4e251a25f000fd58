//go:build darwin || windows || linux

package clip

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.design/x/clipboard"
)

// fakeOS behaves like an OS clipboard: every write replaces every format,
// bumps the change counter and is seen by the change source.
type fakeOS struct {
	mu      sync.Mutex
	data    map[clipboard.Format][]byte
	rich    map[Format]Content
	native  bool
	counted bool
	failErr error
	token   uint64
	changes chan struct{}
}

func newFakeOS() *fakeOS {
	return &fakeOS{
		data:    make(map[clipboard.Format][]byte),
		rich:    make(map[Format]Content),
		changes: make(chan struct{}, 16),
	}
}

func (f *fakeOS) bump() {
	f.token++
	select {
	case f.changes <- struct{}{}:
	default:
	}
}

func (f *fakeOS) read(fm clipboard.Format) []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return bytes.Clone(f.data[fm])
}

func (f *fakeOS) write(fm clipboard.Format, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failErr != nil {
		return f.failErr
	}
	f.data = map[clipboard.Format][]byte{fm: bytes.Clone(data)}
	f.rich = make(map[Format]Content)
	f.bump()
	return nil
}

func (f *fakeOS) readRich(fm Format) (Content, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.rich[fm]
	return v, ok
}

func (f *fakeOS) writeRich(values []Content) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.native {
		return false, nil
	}
	if f.failErr != nil {
		return false, f.failErr
	}
	f.data = make(map[clipboard.Format][]byte)
	f.rich = make(map[Format]Content)
	for _, v := range values {
		if t, ok := v.(Text); ok {
			f.data[clipboard.FmtText] = []byte(t)
			continue
		}
		f.rich[v.Format()] = v
	}
	f.bump()
	return true, nil
}

func (f *fakeOS) changeToken() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.counted {
		return 0
	}
	return f.token
}

func (f *fakeOS) watch(ctx context.Context) []<-chan struct{} {
	ch := make(chan struct{})
	go func() {
		defer close(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case <-f.changes:
				select {
				case ch <- struct{}{}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return []<-chan struct{}{ch}
}

// copyFromOtherApp replaces the clipboard the way another program would.
func (f *fakeOS) copyFromOtherApp(text string, rich ...Content) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data = map[clipboard.Format][]byte{clipboard.FmtText: []byte(text)}
	f.rich = make(map[Format]Content)
	for _, v := range rich {
		f.rich[v.Format()] = v
	}
	f.bump()
}

func TestWriteResult(t *testing.T) {
	assert.NoError(t, writeResult(clipboard.FmtText, make(chan struct{})))
	assert.ErrorIs(t, writeResult(clipboard.FmtText, nil), ErrUnavailable)
	assert.ErrorContains(t, writeResult(clipboard.FmtImage, nil), "write image")
}

func TestSystemWriteFailureIsReported(t *testing.T) {
	plat := newFakeOS()
	plat.failErr = errors.Join(ErrUnavailable, errors.New("no owner"))
	b := newSystemBackend(plat)

	assert.ErrorIs(t, b.Write(Text("x")), ErrUnavailable)
	assert.ErrorIs(t, b.Write(FileList{"/a"}), ErrUnavailable)
	assert.ErrorIs(t, b.Clear(), ErrUnavailable)

	plat.native = true
	assert.ErrorIs(t, b.Write(HTML("<b>x</b>"), Text("x")), ErrUnavailable)
}

func TestSystemFileListReplacesText(t *testing.T) {
	plat := newFakeOS()
	plat.copyFromOtherApp("stale")
	b := newSystemBackend(plat)

	require.NoError(t, b.Write(FileList{"/a", "/b"}))

	has, err := b.Has(FormatText)
	require.NoError(t, err)
	assert.False(t, has)

	got, err := b.Read(FormatFiles, FormatText)
	require.NoError(t, err)
	assert.Equal(t, []Content{FileList{"/a", "/b"}}, got)

	plat.copyFromOtherApp("newer")
	has, err = b.Has(FormatFiles)
	require.NoError(t, err)
	assert.False(t, has, "another application's copy drops the file list")
}

func TestSystemShadowKeepsRichWithText(t *testing.T) {
	b := newSystemBackend(newFakeOS())

	require.NoError(t, b.Write(HTML("<i>x</i>"), Text("x")))
	got, err := b.Read(FormatHTML, FormatText, FormatRTF)
	require.NoError(t, err)
	assert.Equal(t, []Content{HTML("<i>x</i>"), Text("x")}, got)
}

func TestSystemNativeRich(t *testing.T) {
	plat := newFakeOS()
	plat.native = true
	b := newSystemBackend(plat)

	require.NoError(t, b.Write(RTF(`{\rtf1 x}`), Text("x")))
	assert.Equal(t, RTF(`{\rtf1 x}`), plat.rich[FormatRTF])
	got, err := b.Read(FormatRTF, FormatText)
	require.NoError(t, err)
	assert.Equal(t, []Content{RTF(`{\rtf1 x}`), Text("x")}, got)

	plat.copyFromOtherApp("page", HTML("<p>page</p>"), FileList{"/doc.pdf"})
	got, err = b.Read(FormatHTML, FormatFiles, FormatRTF)
	require.NoError(t, err)
	assert.Equal(t, []Content{HTML("<p>page</p>"), FileList{"/doc.pdf"}}, got)
}

func TestSystemOwnWriteIsNotForeign(t *testing.T) {
	for _, counted := range []bool{false, true} {
		plat := newFakeOS()
		plat.counted = counted
		b := newSystemBackend(plat)

		require.NoError(t, b.Write(Text("mine")))
		assert.False(t, b.foreign(), "counted=%v", counted)
		assert.False(t, b.foreign(), "counted=%v", counted)

		plat.copyFromOtherApp("theirs")
		assert.True(t, b.foreign(), "counted=%v", counted)

		require.NoError(t, b.Clear())
		assert.False(t, b.foreign(), "counted=%v", counted)
	}
}

func TestSystemWatchReportsEachChangeOnce(t *testing.T) {
	plat := newFakeOS()
	b := newSystemBackend(plat)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := b.Watch(ctx)
	require.NoError(t, err)

	require.NoError(t, b.Write(Text("a")))
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("no event for own write")
	}
	select {
	case <-ch:
		t.Fatal("own write reported twice")
	case <-time.After(150 * time.Millisecond):
	}

	plat.copyFromOtherApp("b")
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("no event for another application's copy")
	}

	cancel()
	require.Eventually(t, func() bool {
		select {
		case _, ok := <-ch:
			return !ok
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond)
}
