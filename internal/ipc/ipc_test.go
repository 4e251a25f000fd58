//go:build !windows

package ipc

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSocketPathOverride(t *testing.T) {
	t.Setenv("CLIPNEXT_SOCKET", "/tmp/custom.sock")
	assert.Equal(t, "/tmp/custom.sock", SocketPath())
}

func TestSocketPathRuntimeDir(t *testing.T) {
	t.Setenv("CLIPNEXT_SOCKET", "")
	t.Setenv("XDG_RUNTIME_DIR", "/run/user/1000")
	assert.Equal(t, "/run/user/1000/clipnext.sock", SocketPath())
}

func TestListenReplacesStaleSocket(t *testing.T) {
	// Unix socket paths are length-limited, so avoid the long t.TempDir().
	dir, err := os.MkdirTemp("", "cn")
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.RemoveAll(dir) })
	path := filepath.Join(dir, "s.sock")
	t.Setenv("CLIPNEXT_SOCKET", path)

	require.NoError(t, os.WriteFile(path, nil, 0o600))
	assert.False(t, IsRunning())

	ln, err := Listen()
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	fi, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), fi.Mode().Perm())

	go func() {
		c, err := ln.Accept()
		if err == nil {
			_ = c.Close()
		}
	}()
	assert.True(t, IsRunning())
}

func TestListenRefusesLiveSocket(t *testing.T) {
	dir, err := os.MkdirTemp("", "cn")
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.RemoveAll(dir) })
	t.Setenv("CLIPNEXT_SOCKET", filepath.Join(dir, "s.sock"))

	ln, err := Listen()
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			_ = c.Close()
		}
	}()

	_, err = Listen()
	require.ErrorIs(t, err, ErrRunning)

	_, err = os.Stat(SocketPath())
	require.NoError(t, err)
	assert.True(t, IsRunning())
}
