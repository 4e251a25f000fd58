package clip

import (
	"context"
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	for _, f := range Formats {
		got, err := ParseFormat(f.String())
		require.NoError(t, err)
		assert.Equal(t, f, got)
	}
	_, err := ParseFormat("bogus")
	assert.Error(t, err)
}

func TestMemoryWriteReplacesAllFormats(t *testing.T) {
	b := NewMemory()

	require.NoError(t, b.Write(RTF(`{\rtf1 hi}`), Text("hi")))
	has, err := b.Has(FormatRTF)
	require.NoError(t, err)
	assert.True(t, has)

	require.NoError(t, b.Write(Text("plain")))
	has, err = b.Has(FormatRTF)
	require.NoError(t, err)
	assert.False(t, has, "a new write replaces every previous format")

	got, err := b.Read(FormatRTF, FormatText)
	require.NoError(t, err)
	assert.Equal(t, []Content{Text("plain")}, got)
}

func TestMemoryReadReturnsCopies(t *testing.T) {
	b := NewMemory()
	files := FileList{"/a", "/b"}
	require.NoError(t, b.Write(files))
	files[0] = "/mutated"

	got, err := b.Read(FormatFiles)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, FileList{"/a", "/b"}, got[0])

	got[0].(FileList)[1] = "/mutated"
	again, err := b.Read(FormatFiles)
	require.NoError(t, err)
	assert.Equal(t, FileList{"/a", "/b"}, again[0])
}

func TestMemoryClear(t *testing.T) {
	b := NewMemory()
	require.NoError(t, b.Write(HTML("<b>x</b>"), Text("x")))
	require.NoError(t, b.Clear())
	for _, f := range Formats {
		has, err := b.Has(f)
		require.NoError(t, err)
		assert.False(t, has, f.String())
	}
}

func TestMemoryWatch(t *testing.T) {
	b := NewMemory()
	ctx, cancel := context.WithCancel(context.Background())
	ch, err := b.Watch(ctx)
	require.NoError(t, err)

	require.NoError(t, b.Write(Text("one")))
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("no change signal after write")
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

func TestFromImageRoundTrip(t *testing.T) {
	src := image.NewRGBA(image.Rect(2, 3, 4, 4))
	src.Set(2, 3, color.RGBA{R: 255, A: 255})
	src.Set(3, 3, color.RGBA{B: 255, A: 255})

	img := FromImage(src)
	assert.Equal(t, 2, img.Width)
	assert.Equal(t, 1, img.Height)
	assert.Equal(t, []byte{255, 0, 0, 255, 0, 0, 255, 255}, img.Pix)

	back := img.NRGBA()
	assert.Equal(t, image.Rect(0, 0, 2, 1), back.Bounds())
	assert.Equal(t, color.NRGBA{B: 255, A: 255}, back.NRGBAAt(1, 0))
}

func TestOpen(t *testing.T) {
	b, err := Open("memory")
	require.NoError(t, err)
	assert.Equal(t, "headless (in-memory)", b.Name())

	_, err = Open("nope")
	assert.Error(t, err)
}
