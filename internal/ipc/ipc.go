// Package ipc provides the local channel that CLI sub-commands use to reach
// a running clipnext server without TCP. It is plain gRPC over a Unix domain
// socket, or a named pipe on Windows, serving the same ClipboardService as
// the TCP listener.
package ipc

import (
	"errors"
	"net"
	"os"
)

// ErrRunning is returned by Listen when another server already answers on
// the IPC socket.
var ErrRunning = errors.New("clipnext server already running")

// SocketPath returns the platform-appropriate path for the IPC socket.
//
//   - Linux:   $XDG_RUNTIME_DIR/clipnext.sock, else $TMPDIR/clipnext.sock
//   - macOS:   $TMPDIR/clipnext.sock
//   - Windows: \\.\pipe\clipnext
//
// $CLIPNEXT_SOCKET overrides all of them.
func SocketPath() string {
	if s := os.Getenv("CLIPNEXT_SOCKET"); s != "" {
		return s
	}
	return socketPath()
}

// IsRunning reports whether a clipnext server appears to be listening on the
// IPC socket. It does a cheap dial-and-close; no data is exchanged.
func IsRunning() bool {
	c, err := Dial()
	if err != nil {
		return false
	}
	_ = c.Close()
	return true
}

// Listen creates a net.Listener on the IPC socket path. It fails with
// ErrRunning rather than take the socket from a live server.
func Listen() (net.Listener, error) {
	return listenIPC(SocketPath())
}

// Dial connects to the IPC socket.
func Dial() (net.Conn, error) {
	return dialIPC(SocketPath())
}
