package service

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.klb.dev/clipnext/internal/clip"
	"go.klb.dev/clipnext/internal/imagecache"
	"go.klb.dev/clipnext/internal/store"
)

type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) Emit(event string) {
	r.mu.Lock()
	r.events = append(r.events, event)
	r.mu.Unlock()
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func newTestService(t *testing.T) (*Service, *recorder, *imagecache.Cache) {
	t.Helper()
	rec := &recorder{}
	cache := imagecache.New()
	st := store.New(func() (clip.Backend, error) { return clip.NewMemory(), nil })
	svc := New(st, cache, rec, Config{AppID: "test", DataDir: t.TempDir()})
	t.Cleanup(svc.Close)
	return svc, rec, cache
}

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.NRGBA{R: uint8(x * 40), G: 10, B: 200, A: 255})
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
}

func TestTextRoundTrip(t *testing.T) {
	svc, _, _ := newTestService(t)

	require.NoError(t, svc.WriteText("hello"))
	has, err := svc.HasText()
	require.NoError(t, err)
	assert.True(t, has)

	got, err := svc.ReadText()
	require.NoError(t, err)
	assert.Equal(t, "hello", got)

	has, err = svc.HasImage()
	require.NoError(t, err)
	assert.False(t, has, "formats are independent")
}

func TestRichWritesCarryPlainFallback(t *testing.T) {
	tests := []struct {
		name    string
		write   func(*Service, string) error
		has     func(*Service) (bool, error)
		read    func(*Service) (string, error)
		content string
	}{
		{"rtf", (*Service).WriteRTF, (*Service).HasRTF, (*Service).ReadRTF, `{\rtf1\ansi {\b bold} text}`},
		{"html", (*Service).WriteHTML, (*Service).HasHTML, (*Service).ReadHTML, `<p>Hello <b>world</b></p>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := newTestService(t)
			require.NoError(t, tt.write(svc, tt.content))

			has, err := tt.has(svc)
			require.NoError(t, err)
			assert.True(t, has)

			got, err := tt.read(svc)
			require.NoError(t, err)
			assert.Equal(t, tt.content, got)

			text, err := svc.ReadText()
			require.NoError(t, err)
			assert.Equal(t, tt.content, text)
		})
	}
}

func TestReadMissingFormat(t *testing.T) {
	svc, _, _ := newTestService(t)
	require.NoError(t, svc.WriteText("only text"))

	_, err := svc.ReadHTML()
	assert.ErrorIs(t, err, ErrFormatNotPresent)
	_, err = svc.ReadRTF()
	assert.ErrorIs(t, err, ErrFormatNotPresent)
	_, err = svc.ReadImage("")
	assert.ErrorIs(t, err, ErrFormatNotPresent)
	_, err = svc.ReadFiles()
	assert.ErrorIs(t, err, ErrFormatNotPresent)
}

func TestClearRemovesEveryFormat(t *testing.T) {
	svc, _, _ := newTestService(t)
	require.NoError(t, svc.WriteHTML("<i>x</i>"))
	require.NoError(t, svc.Clear())

	for _, has := range []func() (bool, error){svc.HasText, svc.HasRTF, svc.HasHTML, svc.HasImage, svc.HasFiles} {
		ok, err := has()
		require.NoError(t, err)
		assert.False(t, ok)
	}
}

func TestImageCacheIsIdempotent(t *testing.T) {
	svc, _, cache := newTestService(t)
	src := filepath.Join(t.TempDir(), "in.png")
	writePNG(t, src, 5, 3)

	require.NoError(t, svc.WriteImage(src))
	has, err := svc.HasImage()
	require.NoError(t, err)
	assert.True(t, has)

	saveDir := filepath.Join(t.TempDir(), "out")
	first, err := svc.ReadImage(saveDir)
	require.NoError(t, err)
	second, err := svc.ReadImage(saveDir)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 5, first.Width)
	assert.Equal(t, 3, first.Height)
	assert.Equal(t, filepath.Dir(first.Path), saveDir)
	assert.Equal(t, int64(1), cache.Writes())
}

func TestReadImageDefaultDir(t *testing.T) {
	svc, _, _ := newTestService(t)
	src := filepath.Join(t.TempDir(), "in.png")
	writePNG(t, src, 2, 2)
	require.NoError(t, svc.WriteImage(src))

	got, err := svc.ReadImage("")
	require.NoError(t, err)

	dir, err := svc.FilePath()
	require.NoError(t, err)
	assert.Equal(t, dir, filepath.Dir(got.Path))
	assert.Equal(t, imagecache.FileDir, filepath.Base(dir))
}

func TestWriteImageErrors(t *testing.T) {
	svc, _, _ := newTestService(t)

	err := svc.WriteImage(filepath.Join(t.TempDir(), "missing.png"))
	assert.ErrorIs(t, err, ErrIO)

	garbage := filepath.Join(t.TempDir(), "garbage.png")
	require.NoError(t, os.WriteFile(garbage, []byte("not an image"), 0o644))
	assert.ErrorIs(t, svc.WriteImage(garbage), ErrIO)
}

func TestReadFilesBestEffortSizes(t *testing.T) {
	svc, _, _ := newTestService(t)
	dir := t.TempDir()
	a := filepath.Join(dir, "a.txt")
	b := filepath.Join(dir, "b.txt")
	require.NoError(t, os.WriteFile(a, []byte("12345"), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("123"), 0o644))
	missing := filepath.Join(dir, "gone.txt")

	require.NoError(t, svc.WriteFiles([]string{a, missing, b}))
	has, err := svc.HasFiles()
	require.NoError(t, err)
	assert.True(t, has)

	got, err := svc.ReadFiles()
	require.NoError(t, err)
	assert.Equal(t, ReadFiles{
		Files: []FileItem{
			{Path: a, Size: 5, Available: true},
			{Path: missing, Size: 0, Available: false},
			{Path: b, Size: 3, Available: true},
		},
		Size: 8,
	}, got)
}

func TestReadFilesEmptyList(t *testing.T) {
	svc, _, _ := newTestService(t)
	require.NoError(t, svc.WriteFiles(nil))

	got, err := svc.ReadFiles()
	require.NoError(t, err)
	assert.Empty(t, got.Files)
	assert.Equal(t, int64(0), got.Size)
}

func TestWatchLifecycle(t *testing.T) {
	svc, rec, _ := newTestService(t)
	assert.False(t, svc.Watching())

	require.NoError(t, svc.StopWatch(), "stop while idle is a no-op")

	require.NoError(t, svc.StartWatch())
	require.NoError(t, svc.StartWatch())
	assert.True(t, svc.Watching())

	require.NoError(t, svc.WriteText("change"))
	require.Eventually(t, func() bool { return rec.count() >= 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, rec.count(), "one change yields one event")
	assert.Equal(t, EventClipboardChange, rec.events[0])

	require.NoError(t, svc.StopWatch())
	assert.False(t, svc.Watching())

	require.NoError(t, svc.WriteText("unwatched"))
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, rec.count(), "no events once stopped")
}

func TestWatchInitFailure(t *testing.T) {
	st := store.New(func() (clip.Backend, error) { return nil, clip.ErrUnavailable })
	svc := New(st, nil, &recorder{}, Config{})

	err := svc.StartWatch()
	assert.ErrorIs(t, err, ErrWatcherInit)
	assert.False(t, svc.Watching())

	var ae *AccessError
	assert.ErrorAs(t, err, &ae)
}

func TestSnapshot(t *testing.T) {
	svc, _, _ := newTestService(t)
	require.NoError(t, svc.WriteHTML("<b>snap</b>"))

	snap, err := svc.Snapshot(SnapshotOptions{})
	require.NoError(t, err)
	require.NotNil(t, snap.Text)
	require.NotNil(t, snap.HTML)
	assert.Equal(t, "<b>snap</b>", *snap.Text)
	assert.Equal(t, "<b>snap</b>", *snap.HTML)
	assert.Nil(t, snap.RTF)
	assert.Nil(t, snap.Image)
	assert.Nil(t, snap.Files)
}

func TestSnapshotImageAutoSave(t *testing.T) {
	svc, _, _ := newTestService(t)
	src := filepath.Join(t.TempDir(), "in.png")
	writePNG(t, src, 4, 4)
	require.NoError(t, svc.WriteImage(src))

	snap, err := svc.Snapshot(SnapshotOptions{})
	require.NoError(t, err)
	assert.Nil(t, snap.Image, "images are skipped unless auto-save is requested")

	dir := t.TempDir()
	snap, err = svc.Snapshot(SnapshotOptions{ImageAutoSave: true, FilePath: dir})
	require.NoError(t, err)
	require.NotNil(t, snap.Image)
	assert.Equal(t, dir, filepath.Dir(snap.Image.Path))
}
