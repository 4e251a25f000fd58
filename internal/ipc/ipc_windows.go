//go:build windows

package ipc

import (
	"fmt"
	"net"
	"time"

	"github.com/Microsoft/go-winio"
)

const pipeName = `\\.\pipe\clipnext`

func socketPath() string { return pipeName }

func listenIPC(path string) (net.Listener, error) {
	timeout := time.Second
	if c, err := winio.DialPipe(path, &timeout); err == nil {
		_ = c.Close()
		return nil, fmt.Errorf("%w: %s", ErrRunning, path)
	}
	// Owner and SYSTEM only.
	return winio.ListenPipe(path, &winio.PipeConfig{SecurityDescriptor: "D:P(A;;GA;;;OW)(A;;GA;;;SY)"})
}

func dialIPC(path string) (net.Conn, error) {
	return winio.DialPipe(path, nil)
}
