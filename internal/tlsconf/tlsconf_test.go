package tlsconf

import (
	"crypto/tls"
	"io"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveKeyDeterministic(t *testing.T) {
	a, err := New("token")
	require.NoError(t, err)
	b, err := New("token")
	require.NoError(t, err)
	c, err := New("other")
	require.NoError(t, err)

	assert.Equal(t, a.pubDER, b.pubDER)
	assert.NotEqual(t, a.pubDER, c.pubDER)
}

// handshake runs one TLS handshake between a server for serverPass and a
// client for clientPass.
func handshake(t *testing.T, serverPass, clientPass string) error {
	t.Helper()
	srv, err := New(serverPass)
	require.NoError(t, err)
	cli, err := New(clientPass)
	require.NoError(t, err)

	cfg, err := srv.ServerConfig()
	require.NoError(t, err)

	ln, err := tls.Listen("tcp", "127.0.0.1:0", cfg)
	require.NoError(t, err)
	defer ln.Close()

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		_, _ = io.Copy(io.Discard, conn)
		_ = conn.Close()
	}()

	conn, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	c := tls.Client(conn, cli.ClientConfig())
	defer c.Close()
	return c.Handshake()
}

func TestHandshake(t *testing.T) {
	assert.NoError(t, handshake(t, "s3cret", "s3cret"))
	assert.ErrorIs(t, handshake(t, "s3cret", "guess"), ErrKeyMismatch)
}
