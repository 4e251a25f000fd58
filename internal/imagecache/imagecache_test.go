package imagecache

import (
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.klb.dev/clipnext/internal/clip"
)

func testImage() clip.Image {
	return clip.Image{
		Width:  2,
		Height: 2,
		Pix: []byte{
			255, 0, 0, 255, 0, 255, 0, 255,
			0, 0, 255, 255, 255, 255, 255, 128,
		},
	}
}

func TestSaveIsContentAddressed(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "cache")
	c := New()

	first, err := c.Save(dir, testImage())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, first.Hash+".png"), first.Path)
	assert.True(t, filepath.IsAbs(first.Path))
	assert.Equal(t, 2, first.Width)
	assert.Equal(t, 2, first.Height)

	fi, err := os.Stat(first.Path)
	require.NoError(t, err)
	assert.Equal(t, fi.Size(), first.Size)

	second, err := c.Save(dir, testImage())
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, int64(1), c.Writes(), "identical pixels are written once")
}

func TestSaveDecodesBack(t *testing.T) {
	c := New()
	entry, err := c.Save(t.TempDir(), testImage())
	require.NoError(t, err)

	f, err := os.Open(entry.Path)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, testImage(), clip.FromImage(img))
}

func TestHashDependsOnDimensions(t *testing.T) {
	pix := make([]byte, 8)
	wide := clip.Image{Width: 2, Height: 1, Pix: pix}
	tall := clip.Image{Width: 1, Height: 2, Pix: pix}
	assert.NotEqual(t, Hash(wide), Hash(tall))
	assert.Equal(t, Hash(wide), Hash(clip.Image{Width: 2, Height: 1, Pix: make([]byte, 8)}))
}

func TestSaveLeavesNoPartialFile(t *testing.T) {
	dir := t.TempDir()
	c := New()
	_, err := c.Save(dir, clip.Image{Width: 4, Height: 4, Pix: []byte{1, 2, 3}})
	assert.ErrorIs(t, err, ErrIO)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Equal(t, int64(0), c.Writes())
}

func TestSaveInvalidPath(t *testing.T) {
	c := New()
	_, err := c.Save("bad\x00dir", testImage())
	assert.ErrorIs(t, err, ErrInvalidPath)

	_, err = c.Save(string([]byte{0xff, 0xfe}), testImage())
	assert.ErrorIs(t, err, ErrInvalidPath)

	_, err = c.Save("", testImage())
	assert.ErrorIs(t, err, ErrInvalidPath)
}

func TestSaveDirIsAFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	_, err := New().Save(file, testImage())
	assert.ErrorIs(t, err, ErrIO)
}

func TestDefaultDir(t *testing.T) {
	data := t.TempDir()
	t.Setenv("XDG_DATA_HOME", data)
	t.Setenv("HOME", data)
	t.Setenv("AppData", data)

	dir, err := DefaultDir("dev.example.app")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("dev.example.app", PluginDir, FileDir), tail(dir, 3))

	fi, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, fi.IsDir())
}

func tail(p string, n int) string {
	parts := []string{}
	for i := 0; i < n; i++ {
		parts = append([]string{filepath.Base(p)}, parts...)
		p = filepath.Dir(p)
	}
	return filepath.Join(parts...)
}
