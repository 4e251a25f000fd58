// Package grpcservice implements the ClipboardService gRPC server.
package grpcservice

import (
	"context"
	"crypto/subtle"
	"fmt"
	"strings"
	"sync/atomic"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"go.klb.dev/clipnext/internal/hub"
	"go.klb.dev/clipnext/internal/service"
)

// eventBuffer is how many undelivered events a slow subscriber may queue.
const eventBuffer = 16

// Server implements ClipboardServer on top of service.Service.
type Server struct {
	svc   *service.Service
	h     *hub.Hub
	token string // empty = no auth
	subs  atomic.Int64
}

var _ ClipboardServer = (*Server)(nil)

// New returns a Server backed by svc that streams events from h. token may
// be empty to disable auth.
func New(svc *service.Service, h *hub.Hub, token string) *Server {
	return &Server{svc: svc, h: h, token: token}
}

// ServerOptions returns the interceptors that enforce the bearer token.
func (s *Server) ServerOptions() []grpc.ServerOption {
	return []grpc.ServerOption{
		grpc.ChainUnaryInterceptor(s.unaryAuth),
		grpc.ChainStreamInterceptor(s.streamAuth),
	}
}

// ── watch ─────────────────────────────────────────────────────────────────

func (s *Server) StartWatch(context.Context, *emptypb.Empty) (*emptypb.Empty, error) {
	return empty(s.svc.StartWatch())
}

func (s *Server) StopWatch(context.Context, *emptypb.Empty) (*emptypb.Empty, error) {
	return empty(s.svc.StopWatch())
}

func (s *Server) Watching(context.Context, *emptypb.Empty) (*wrapperspb.BoolValue, error) {
	return boolValue(s.svc.Watching(), nil)
}

// Events streams clipboard_change notifications until the client goes away.
func (s *Server) Events(_ *emptypb.Empty, stream grpc.ServerStreamingServer[wrapperspb.StringValue]) error {
	ctx := stream.Context()
	id := fmt.Sprintf("%s/events/%d", addrFromCtx(ctx), s.subs.Add(1))
	p := hub.NewChanPeer(id, eventBuffer)

	s.h.Register(p)
	defer s.h.Unregister(p)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-p.C:
			if err := stream.Send(wrapperspb.String(ev.Name)); err != nil {
				return err
			}
		}
	}
}

// ── has ───────────────────────────────────────────────────────────────────

func (s *Server) HasText(context.Context, *emptypb.Empty) (*wrapperspb.BoolValue, error) {
	return boolValue(s.svc.HasText())
}

func (s *Server) HasRtf(context.Context, *emptypb.Empty) (*wrapperspb.BoolValue, error) {
	return boolValue(s.svc.HasRTF())
}

func (s *Server) HasHtml(context.Context, *emptypb.Empty) (*wrapperspb.BoolValue, error) {
	return boolValue(s.svc.HasHTML())
}

func (s *Server) HasImage(context.Context, *emptypb.Empty) (*wrapperspb.BoolValue, error) {
	return boolValue(s.svc.HasImage())
}

func (s *Server) HasFiles(context.Context, *emptypb.Empty) (*wrapperspb.BoolValue, error) {
	return boolValue(s.svc.HasFiles())
}

// ── read ──────────────────────────────────────────────────────────────────

func (s *Server) ReadText(context.Context, *emptypb.Empty) (*wrapperspb.StringValue, error) {
	return stringValue(s.svc.ReadText())
}

func (s *Server) ReadRtf(context.Context, *emptypb.Empty) (*wrapperspb.StringValue, error) {
	return stringValue(s.svc.ReadRTF())
}

func (s *Server) ReadHtml(context.Context, *emptypb.Empty) (*wrapperspb.StringValue, error) {
	return stringValue(s.svc.ReadHTML())
}

func (s *Server) ReadImage(_ context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	img, err := s.svc.ReadImage(req.GetValue())
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(img)
}

func (s *Server) ReadFiles(context.Context, *emptypb.Empty) (*structpb.Struct, error) {
	files, err := s.svc.ReadFiles()
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(files)
}

func (s *Server) ReadClipboard(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var opts service.SnapshotOptions
	if err := fromStruct(req, &opts); err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "read_clipboard options: %v", err)
	}
	snap, err := s.svc.Snapshot(opts)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(snap)
}

// ── write ─────────────────────────────────────────────────────────────────

func (s *Server) WriteText(_ context.Context, req *wrapperspb.StringValue) (*emptypb.Empty, error) {
	return empty(s.svc.WriteText(req.GetValue()))
}

func (s *Server) WriteRtf(_ context.Context, req *wrapperspb.StringValue) (*emptypb.Empty, error) {
	return empty(s.svc.WriteRTF(req.GetValue()))
}

func (s *Server) WriteHtml(_ context.Context, req *wrapperspb.StringValue) (*emptypb.Empty, error) {
	return empty(s.svc.WriteHTML(req.GetValue()))
}

func (s *Server) WriteImage(_ context.Context, req *wrapperspb.StringValue) (*emptypb.Empty, error) {
	if req.GetValue() == "" {
		return nil, status.Error(codes.InvalidArgument, "image path is required")
	}
	return empty(s.svc.WriteImage(req.GetValue()))
}

func (s *Server) WriteFiles(_ context.Context, req *structpb.ListValue) (*emptypb.Empty, error) {
	paths := make([]string, 0, len(req.GetValues()))
	for i, v := range req.GetValues() {
		sv, ok := v.GetKind().(*structpb.Value_StringValue)
		if !ok {
			return nil, status.Errorf(codes.InvalidArgument, "files_path[%d] is not a string", i)
		}
		paths = append(paths, sv.StringValue)
	}
	return empty(s.svc.WriteFiles(paths))
}

func (s *Server) Clear(context.Context, *emptypb.Empty) (*emptypb.Empty, error) {
	return empty(s.svc.Clear())
}

func (s *Server) GetFilePath(context.Context, *emptypb.Empty) (*wrapperspb.StringValue, error) {
	return stringValue(s.svc.FilePath())
}

// ── auth ──────────────────────────────────────────────────────────────────

func (s *Server) unaryAuth(ctx context.Context, req any, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	if err := s.auth(ctx); err != nil {
		return nil, err
	}
	return handler(ctx, req)
}

func (s *Server) streamAuth(srv any, ss grpc.ServerStream, _ *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
	if err := s.auth(ss.Context()); err != nil {
		return err
	}
	return handler(srv, ss)
}

// auth validates the bearer token in ctx metadata. Skipped when s.token is empty.
func (s *Server) auth(ctx context.Context) error {
	if s.token == "" {
		return nil
	}
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return status.Error(codes.Unauthenticated, "missing metadata")
	}
	vals := md.Get("authorization")
	if len(vals) == 0 {
		return status.Error(codes.Unauthenticated, "missing authorization header")
	}
	return s.checkToken(vals[0])
}

// checkToken compares an Authorization header value against the token.
func (s *Server) checkToken(header string) error {
	if s.token == "" {
		return nil
	}
	tok := strings.TrimPrefix(header, "Bearer ")
	if subtle.ConstantTimeCompare([]byte(tok), []byte(s.token)) != 1 {
		return status.Error(codes.Unauthenticated, "invalid token")
	}
	return nil
}

func addrFromCtx(ctx context.Context) string {
	if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
		return p.Addr.String()
	}
	return "unknown"
}

// ── conversions ───────────────────────────────────────────────────────────

func empty(err error) (*emptypb.Empty, error) {
	if err != nil {
		return nil, toStatus(err)
	}
	return &emptypb.Empty{}, nil
}

func boolValue(v bool, err error) (*wrapperspb.BoolValue, error) {
	if err != nil {
		return nil, toStatus(err)
	}
	return wrapperspb.Bool(v), nil
}

func stringValue(v string, err error) (*wrapperspb.StringValue, error) {
	if err != nil {
		return nil, toStatus(err)
	}
	return wrapperspb.String(v), nil
}
