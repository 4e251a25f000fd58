package main

import (
	"context"
	"fmt"
	"net"

	"github.com/spf13/viper"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"

	"go.klb.dev/clipnext/internal/grpcservice"
	"go.klb.dev/clipnext/internal/ipc"
	"go.klb.dev/clipnext/internal/tlsconf"
)

// dialIPC returns a *grpc.ClientConn over the local IPC socket or pipe.
func dialIPC(token string) (*grpc.ClientConn, error) {
	opts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithContextDialer(func(context.Context, string) (net.Conn, error) { return ipc.Dial() }),
	}
	if token != "" {
		opts = append(opts, grpc.WithPerRPCCredentials(grpcservice.BearerToken(token)))
	}
	return grpc.NewClient("passthrough:///clipnext-ipc", opts...)
}

// dialServer connects to addr over TCP. With useTLS the server key must have
// been derived from the same token.
func dialServer(addr, token string, useTLS bool) (*grpc.ClientConn, error) {
	var creds credentials.TransportCredentials = insecure.NewCredentials()
	if useTLS {
		m, err := tlsconf.New(passphrase(token))
		if err != nil {
			return nil, fmt.Errorf("tls credentials: %w", err)
		}
		creds = m.ClientCredentials()
	}
	opts := []grpc.DialOption{grpc.WithTransportCredentials(creds)}
	if token != "" {
		opts = append(opts, grpc.WithPerRPCCredentials(grpcservice.BearerToken(token)))
	}
	return grpc.NewClient(addr, opts...)
}

// connect dials --server when given, else the local IPC socket.
func connect(v *viper.Viper) (*grpc.ClientConn, error) {
	token := v.GetString("token")
	if addr := v.GetString("server"); addr != "" {
		return dialServer(addr, token, v.GetBool("tls"))
	}
	if !ipc.IsRunning() {
		return nil, fmt.Errorf("no clipnext service on %s; run \"clipnext serve\" or pass --server", ipc.SocketPath())
	}
	return dialIPC(token)
}

// withClient runs fn against a connected client.
func withClient(ctx context.Context, v *viper.Viper, fn func(context.Context, *grpcservice.Client) error) error {
	conn, err := connect(v)
	if err != nil {
		return err
	}
	defer conn.Close()
	return fn(ctx, grpcservice.NewClient(conn))
}
