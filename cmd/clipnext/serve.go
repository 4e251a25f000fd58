package main

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	gwruntime "github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"github.com/soheilhy/cmux"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"google.golang.org/grpc"

	"go.klb.dev/clipnext/internal/clip"
	"go.klb.dev/clipnext/internal/grpcservice"
	"go.klb.dev/clipnext/internal/hub"
	"go.klb.dev/clipnext/internal/imagecache"
	"go.klb.dev/clipnext/internal/ipc"
	"go.klb.dev/clipnext/internal/service"
	"go.klb.dev/clipnext/internal/store"
	"go.klb.dev/clipnext/internal/tlsconf"
)

func newServeCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the clipboard service",
		Long: `Starts the clipboard service. It listens on the local IPC socket and,
unless --no-tcp is set, on a TCP address that carries both gRPC and the
HTTP invoke endpoint (POST /v1/invoke/{command}).

Config file search order:
  /etc/clipnext/clipnext.toml
  $HOME/.config/clipnext/clipnext.toml
  path supplied via --config

Precedence (lowest → highest): defaults → config file → CLIPNEXT_* env vars → flags`,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(cmd *cobra.Command, _ []string) error { return runServe(cmd.Context(), v) },
	}

	f := cmd.Flags()
	f.String("addr", "127.0.0.1:8753", "TCP listen address for gRPC and HTTP")
	f.String("token", "", "shared secret (empty = no auth)")
	f.Bool("tls", false, "serve TCP over TLS with a key derived from the token")
	f.Bool("no-tcp", false, "serve only the local IPC socket")
	f.String("backend", "auto", "clipboard backend: auto|system|memory")
	f.String("app-id", "clipnext", "application identifier for the default data directory")
	f.String("cache-dir", "", "application data directory (default: platform data dir/<app-id>)")
	f.Bool("watch", false, "start the change watcher immediately")
	addLoggingFlags(cmd)
	addConfigFlag(cmd)

	return cmd
}

func runServe(ctx context.Context, v *viper.Viper) error {
	setupLogging(v)

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := v.GetString("addr")
	token := v.GetString("token")
	backend := v.GetString("backend")

	slog.Info("clipnext starting",
		"version", Version,
		"backend", backend,
		"addr", addr,
		"tcp", !v.GetBool("no-tcp"),
		"tls", v.GetBool("tls"),
		"auth", token != "",
	)

	h := hub.New()
	st := store.New(func() (clip.Backend, error) { return clip.Open(backend) })
	svc := service.New(st, imagecache.New(), h, service.Config{
		AppID:   v.GetString("app-id"),
		DataDir: v.GetString("cache-dir"),
	})
	defer svc.Close()

	if v.GetBool("watch") {
		if err := svc.StartWatch(); err != nil {
			return fmt.Errorf("start watch: %w", err)
		}
	}

	srv := grpcservice.New(svc, h, token)
	gs := grpc.NewServer(srv.ServerOptions()...)
	grpcservice.Register(gs, srv)
	defer gs.Stop()

	ipcLn, err := ipc.Listen()
	if errors.Is(err, ipc.ErrRunning) {
		return err
	}
	if err != nil {
		slog.Warn("IPC socket unavailable", "err", err)
	} else {
		slog.Info("IPC socket listening", "path", ipc.SocketPath())
		go serveGRPC(gs, ipcLn, "ipc")
	}

	if !v.GetBool("no-tcp") {
		ln, err := listenTCP(addr, token, v.GetBool("tls"))
		if err != nil {
			return err
		}
		defer ln.Close()
		if err := serveTCP(ln, gs, srv); err != nil {
			return err
		}
		slog.Info("listening", "addr", ln.Addr())
	} else if ipcLn == nil {
		return errors.New("no listener: IPC unavailable and --no-tcp set")
	}

	<-ctx.Done()
	slog.Info("clipnext shutting down")
	return nil
}

func listenTCP(addr, token string, useTLS bool) (net.Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}
	if !useTLS {
		return ln, nil
	}
	m, err := tlsconf.New(passphrase(token))
	if err != nil {
		_ = ln.Close()
		return nil, err
	}
	cfg, err := m.ServerConfig()
	if err != nil {
		_ = ln.Close()
		return nil, err
	}
	return tls.NewListener(ln, cfg), nil
}

// serveTCP splits ln into gRPC (HTTP/2 with application/grpc) and the HTTP
// invoke gateway.
func serveTCP(ln net.Listener, gs *grpc.Server, srv *grpcservice.Server) error {
	mux := gwruntime.NewServeMux()
	if err := grpcservice.RegisterInvokeHandler(mux, srv); err != nil {
		return fmt.Errorf("register invoke handler: %w", err)
	}

	m := cmux.New(ln)
	grpcLn := m.MatchWithWriters(cmux.HTTP2MatchHeaderFieldSendSettings("content-type", "application/grpc"))
	httpLn := m.Match(cmux.Any())

	go serveGRPC(gs, grpcLn, "tcp")
	go func() {
		if err := serveHTTPGateway(httpLn, mux); err != nil && !errors.Is(err, http.ErrServerClosed) && !errors.Is(err, cmux.ErrListenerClosed) {
			slog.Error("http gateway stopped", "err", err)
		}
	}()
	go func() {
		if err := m.Serve(); err != nil && !errors.Is(err, net.ErrClosed) {
			slog.Debug("tcp mux stopped", "err", err)
		}
	}()
	return nil
}

func serveGRPC(gs *grpc.Server, ln net.Listener, transport string) {
	if err := gs.Serve(ln); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		slog.Error("grpc server stopped", "transport", transport, "err", err)
	}
}

func passphrase(token string) string {
	if token == "" {
		return tlsconf.DefaultPassphrase
	}
	return token
}
