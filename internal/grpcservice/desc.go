package grpcservice

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "clipnext.v1.ClipboardService"

// ClipboardServer is the server API for ClipboardService. Messages are
// protobuf well-known types, so no generated code is required.
type ClipboardServer interface {
	StartWatch(context.Context, *emptypb.Empty) (*emptypb.Empty, error)
	StopWatch(context.Context, *emptypb.Empty) (*emptypb.Empty, error)
	Watching(context.Context, *emptypb.Empty) (*wrapperspb.BoolValue, error)

	HasText(context.Context, *emptypb.Empty) (*wrapperspb.BoolValue, error)
	HasRtf(context.Context, *emptypb.Empty) (*wrapperspb.BoolValue, error)
	HasHtml(context.Context, *emptypb.Empty) (*wrapperspb.BoolValue, error)
	HasImage(context.Context, *emptypb.Empty) (*wrapperspb.BoolValue, error)
	HasFiles(context.Context, *emptypb.Empty) (*wrapperspb.BoolValue, error)

	ReadText(context.Context, *emptypb.Empty) (*wrapperspb.StringValue, error)
	ReadRtf(context.Context, *emptypb.Empty) (*wrapperspb.StringValue, error)
	ReadHtml(context.Context, *emptypb.Empty) (*wrapperspb.StringValue, error)
	ReadImage(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	ReadFiles(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	ReadClipboard(context.Context, *structpb.Struct) (*structpb.Struct, error)

	WriteText(context.Context, *wrapperspb.StringValue) (*emptypb.Empty, error)
	WriteRtf(context.Context, *wrapperspb.StringValue) (*emptypb.Empty, error)
	WriteHtml(context.Context, *wrapperspb.StringValue) (*emptypb.Empty, error)
	WriteImage(context.Context, *wrapperspb.StringValue) (*emptypb.Empty, error)
	WriteFiles(context.Context, *structpb.ListValue) (*emptypb.Empty, error)

	Clear(context.Context, *emptypb.Empty) (*emptypb.Empty, error)
	GetFilePath(context.Context, *emptypb.Empty) (*wrapperspb.StringValue, error)

	Events(*emptypb.Empty, grpc.ServerStreamingServer[wrapperspb.StringValue]) error
}

// ServiceDesc describes ClipboardService for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ClipboardServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("StartWatch", ClipboardServer.StartWatch),
		unary("StopWatch", ClipboardServer.StopWatch),
		unary("Watching", ClipboardServer.Watching),
		unary("HasText", ClipboardServer.HasText),
		unary("HasRtf", ClipboardServer.HasRtf),
		unary("HasHtml", ClipboardServer.HasHtml),
		unary("HasImage", ClipboardServer.HasImage),
		unary("HasFiles", ClipboardServer.HasFiles),
		unary("ReadText", ClipboardServer.ReadText),
		unary("ReadRtf", ClipboardServer.ReadRtf),
		unary("ReadHtml", ClipboardServer.ReadHtml),
		unary("ReadImage", ClipboardServer.ReadImage),
		unary("ReadFiles", ClipboardServer.ReadFiles),
		unary("ReadClipboard", ClipboardServer.ReadClipboard),
		unary("WriteText", ClipboardServer.WriteText),
		unary("WriteRtf", ClipboardServer.WriteRtf),
		unary("WriteHtml", ClipboardServer.WriteHtml),
		unary("WriteImage", ClipboardServer.WriteImage),
		unary("WriteFiles", ClipboardServer.WriteFiles),
		unary("Clear", ClipboardServer.Clear),
		unary("GetFilePath", ClipboardServer.GetFilePath),
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Events",
			Handler:       eventsHandler,
			ServerStreams: true,
		},
	},
	Metadata: "clipnext/v1/clipnext.proto",
}

// Register registers srv on s.
func Register(s grpc.ServiceRegistrar, srv ClipboardServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func fullMethod(name string) string { return "/" + ServiceName + "/" + name }

// unary builds the MethodDesc for one request/response RPC from a method
// expression on ClipboardServer.
func unary[Req any, PReq interface {
	*Req
	proto.Message
}, Resp proto.Message](name string, call func(ClipboardServer, context.Context, PReq) (Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := PReq(new(Req))
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(ClipboardServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(name)}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(ClipboardServer), ctx, req.(PReq))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

func eventsHandler(srv any, stream grpc.ServerStream) error {
	in := new(emptypb.Empty)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(ClipboardServer).Events(in, &grpc.GenericServerStream[emptypb.Empty, wrapperspb.StringValue]{ServerStream: stream})
}
